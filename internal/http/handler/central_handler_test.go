package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

func storeAuthSecret(t *testing.T, env *handlerEnv, plaintext string) {
	t.Helper()
	hash, err := security.HashSecret(plaintext)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := env.secrets.Create(&domain.Secret{
		SecretHash: hash,
		Type:       domain.SecretTypeAuth,
		ExpiresAt:  time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("store secret: %v", err)
	}
}

func TestRegisterSuperAdminHandler(t *testing.T) {
	env := newHandlerEnv(t)
	storeAuthSecret(t, env, "bootstrap-secret")

	t.Run("wrong secret", func(t *testing.T) {
		rec, _ := doJSON(t, env.central.RegisterSuperAdmin, http.MethodPost, "/central/users",
			`{"secret":"nope","email":"root@example.com","username":"root"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("creates identity", func(t *testing.T) {
		rec, body := doJSON(t, env.central.RegisterSuperAdmin, http.MethodPost, "/central/users",
			`{"secret":"bootstrap-secret","email":"root@example.com","username":"root"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if body.Message != "OTP sent successfully" {
			t.Fatalf("unexpected message %q", body.Message)
		}
		user, err := env.users.FindByDestination("root@example.com", "")
		if err != nil {
			t.Fatalf("load user: %v", err)
		}
		if user.Role != domain.RoleSuperAdmin {
			t.Fatalf("expected super_admin, got %s", user.Role)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		rec, _ := doJSON(t, env.central.RegisterSuperAdmin, http.MethodPost, "/central/users",
			`{"secret":"bootstrap-secret","email":"not-an-email","username":"x"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAdminOTPLoginHandlers(t *testing.T) {
	env := newHandlerEnv(t)

	rec, _ := doJSON(t, env.central.AuthenticateAdmin, http.MethodPost, "/central/authenticate",
		`{"email":"ops@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticate: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	code := env.notifier.lastCode(t)

	rec, body := doJSON(t, env.central.VerifyAdminOTP, http.MethodPost, "/central/verify-otp",
		fmt.Sprintf(`{"email":"ops@example.com","otp":%q}`, code))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body.Token == "" {
		t.Fatalf("no access token at envelope root: %s", rec.Body.String())
	}
	if refreshCookie(rec) == nil {
		t.Fatal("refresh cookie not set")
	}
}

func TestCentralInventoryHandlers(t *testing.T) {
	env := newHandlerEnv(t)

	rec, body := doJSON(t, env.central.CreateInventory, http.MethodPost, "/central/inventory",
		`{"name":"Alokah Central"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create inventory: expected 201, got %d", rec.Code)
	}
	var inv struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body.Data, &inv); err != nil || inv.ID == "" {
		t.Fatalf("no inventory id: %s", rec.Body.String())
	}

	rec, _ = doJSON(t, env.central.AddItem, http.MethodPost, "/central/inventory/items",
		fmt.Sprintf(`{"inventoryId":%q,"itemName":"Bath Towel","metrics":"piece","itemType":"consumable","price":120}`, inv.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, env.central.SearchItems, http.MethodGet, "/central/inventory/items?search=towel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	var data struct {
		Items []struct {
			ItemName string `json:"item_name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(data.Items) != 1 || data.Items[0].ItemName != "Bath Towel" {
		t.Fatalf("unexpected search result: %s", body.Data)
	}

	rec, _ = doJSON(t, env.central.AddItem, http.MethodPost, "/central/inventory/items",
		`{"inventoryId":"missing","itemName":"Soap"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown inventory, got %d", rec.Code)
	}
}
