package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

func newCentralService(t *testing.T, env *testEnv) *CentralService {
	t.Helper()
	return NewCentralService(env.cfg, env.users, env.secrets, env.central, NewInMemorySearchCacheStore(), env.otpSvc, env.tokenSvc)
}

func storeAuthSecret(t *testing.T, env *testEnv, plaintext string, expiresAt time.Time) {
	t.Helper()
	hash, err := security.HashSecret(plaintext)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	if err := env.secrets.Create(&domain.Secret{
		SecretHash: hash,
		Type:       domain.SecretTypeAuth,
		ExpiresAt:  expiresAt,
	}); err != nil {
		t.Fatalf("store secret: %v", err)
	}
}

func TestRegisterSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()
	storeAuthSecret(t, env, "shared-bootstrap-secret", time.Now().Add(time.Hour))

	created, err := svc.RegisterSuperAdmin(ctx, "shared-bootstrap-secret", "root@example.com", "root")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Fatal("expected a new identity")
	}

	user, err := env.users.FindByDestination("root@example.com", "")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != domain.RoleSuperAdmin {
		t.Fatalf("expected super_admin role, got %s", user.Role)
	}
	if user.AssociateID == nil || len(*user.AssociateID) != 4 {
		t.Fatalf("expected four digit associate id, got %v", user.AssociateID)
	}
	if env.notifier.last(t).Purpose != domain.OTPPurposeVerification {
		t.Fatal("expected a verification code on registration")
	}

	// Re-registration resends a code instead of creating a second identity.
	// Step past the onboarding cooldown first.
	env.otpSvc.now = func() time.Time { return time.Now().Add(env.cfg.OTPCooldownOnboarding + time.Second) }
	created, err = svc.RegisterSuperAdmin(ctx, "shared-bootstrap-secret", "root@example.com", "root")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if created {
		t.Fatal("expected created=false for an existing identity")
	}
}

func TestRegisterSuperAdminSecretGate(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()

	t.Run("no secret stored", func(t *testing.T) {
		if _, err := svc.RegisterSuperAdmin(ctx, "anything", "a@example.com", "a"); !errors.Is(err, ErrSecretInvalid) {
			t.Fatalf("expected ErrSecretInvalid, got %v", err)
		}
	})

	storeAuthSecret(t, env, "the-real-secret", time.Now().Add(time.Hour))

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := svc.RegisterSuperAdmin(ctx, "not-the-secret", "a@example.com", "a"); !errors.Is(err, ErrSecretInvalid) {
			t.Fatalf("expected ErrSecretInvalid, got %v", err)
		}
	})

	t.Run("expired secret", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()
		if _, err := svc.RegisterSuperAdmin(ctx, "the-real-secret", "a@example.com", "a"); !errors.Is(err, ErrSecretExpired) {
			t.Fatalf("expected ErrSecretExpired, got %v", err)
		}
	})

	t.Run("latest secret wins", func(t *testing.T) {
		// Backdate what is stored so far, then rotate; created_at ordering is
		// then unambiguous.
		if err := env.db.Model(&domain.Secret{}).
			Where("1 = 1").
			Update("created_at", time.Now().Add(-time.Hour)).Error; err != nil {
			t.Fatalf("backdate: %v", err)
		}
		storeAuthSecret(t, env, "rotated-secret", time.Now().Add(time.Hour))
		if _, err := svc.RegisterSuperAdmin(ctx, "the-real-secret", "a@example.com", "a"); !errors.Is(err, ErrSecretInvalid) {
			t.Fatalf("superseded secret accepted: %v", err)
		}
		if _, err := svc.RegisterSuperAdmin(ctx, "rotated-secret", "a@example.com", "a"); err != nil {
			t.Fatalf("rotated secret rejected: %v", err)
		}
	})
}

func TestAuthenticateAdminProvisionsOnFirstContact(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()

	if err := svc.AuthenticateAdmin(ctx, "ops@example.com"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	user, err := env.users.FindByDestination("ops@example.com", "")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", user.Role)
	}

	code := env.notifier.last(t).Code
	result, err := svc.VerifyAdminOTP(ctx, "ops@example.com", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Tokens.AccessToken == "" {
		t.Fatal("expected an access token")
	}
}

func TestVerifyAdminOTPRejectsEndUsers(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("plain@example.com"), Role: domain.RoleUser})

	if err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Email:   "plain@example.com",
		Purpose: domain.OTPPurposeLogin,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.notifier.last(t).Code

	if _, err := svc.VerifyAdminOTP(ctx, "plain@example.com", code); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin role, got %v", err)
	}
}

func TestAddSecretValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	if err := svc.AddSecret(context.Background(), "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.AddSecret(context.Background(), "long-enough-secret"); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestCentralInventoryAndItems(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()

	if _, err := svc.CreateInventory(ctx, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
	inv, err := svc.CreateInventory(ctx, "Alokah Central")
	if err != nil {
		t.Fatalf("create inventory: %v", err)
	}

	if _, err := svc.AddItem(ctx, CentralItemInput{InventoryID: "missing", ItemName: "Towel"}); err == nil {
		t.Fatal("expected an error for unknown inventory")
	}

	item, err := svc.AddItem(ctx, CentralItemInput{
		InventoryID: inv.ID,
		ItemName:    "Bath Towel",
		Metrics:     domain.MetricPiece,
		ItemType:    domain.ItemTypeConsumable,
		Price:       120,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.ID == "" {
		t.Fatal("item id not assigned")
	}

	items, err := svc.SearchItems(ctx, "towel")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].ItemName != "Bath Towel" {
		t.Fatalf("unexpected search result: %+v", items)
	}
}

func TestSearchItemsCaching(t *testing.T) {
	env := newTestEnv(t)
	svc := newCentralService(t, env)
	ctx := context.Background()

	inv, err := svc.CreateInventory(ctx, "Alokah Central")
	if err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	if _, err := svc.AddItem(ctx, CentralItemInput{InventoryID: inv.ID, ItemName: "Bath Towel"}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	first, err := svc.SearchItems(ctx, "towel")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 item, got %d", len(first))
	}

	// Insert behind the service's back: the cached result keeps serving.
	if err := env.central.CreateItem(&domain.CentralInventoryItem{InventoryID: inv.ID, ItemName: "Hand Towel"}); err != nil {
		t.Fatalf("direct insert: %v", err)
	}
	cached, err := svc.SearchItems(ctx, "towel")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("expected cached result of 1 item, got %d", len(cached))
	}

	// A write through the service invalidates, so the next search is fresh.
	if _, err := svc.AddItem(ctx, CentralItemInput{InventoryID: inv.ID, ItemName: "Beach Towel"}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	fresh, err := svc.SearchItems(ctx, "towel")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(fresh) != 3 {
		t.Fatalf("expected 3 items after invalidation, got %d", len(fresh))
	}
}
