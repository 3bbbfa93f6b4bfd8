package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

const associateIDAttempts = 25

// Cached central item searches live under one namespace so writes can drop
// every cached query at once.
const (
	centralItemsCacheNamespace = "central_items"
	centralItemsCacheTTL       = 30 * time.Second
)

// CentralService covers the administrative surface: secret-gated super-admin
// onboarding, admin OTP authentication with auto-provisioning, shared-secret
// management and the central inventory.
type CentralService struct {
	cfg      *config.Config
	users    repository.UserRepository
	secrets  repository.SecretRepository
	central  repository.CentralInventoryRepository
	cache    SearchCacheStore
	otpSvc   *OTPService
	tokenSvc *TokenService
	now      func() time.Time
}

func NewCentralService(
	cfg *config.Config,
	users repository.UserRepository,
	secrets repository.SecretRepository,
	central repository.CentralInventoryRepository,
	cache SearchCacheStore,
	otpSvc *OTPService,
	tokenSvc *TokenService,
) *CentralService {
	return &CentralService{
		cfg:      cfg,
		users:    users,
		secrets:  secrets,
		central:  central,
		cache:    cache,
		otpSvc:   otpSvc,
		tokenSvc: tokenSvc,
		now:      time.Now,
	}
}

// RegisterSuperAdmin gates super-admin creation behind the latest AUTH
// secret. An existing account just gets a fresh verification code; a new one
// is provisioned with a unique four digit associate id first. Returns whether
// a new identity was created.
func (s *CentralService) RegisterSuperAdmin(ctx context.Context, secret, email, username string) (bool, error) {
	if err := s.checkAuthSecret(secret); err != nil {
		return false, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return false, err
	}

	user, err := s.users.FindByDestination(email, "")
	switch {
	case err == nil:
		// Re-send the verification code for the existing account, with the
		// tighter onboarding cooldown.
		return false, s.otpSvc.Issue(ctx, IssueRequest{
			User:     user,
			Email:    email,
			Purpose:  domain.OTPPurposeVerification,
			Cooldown: s.cfg.OTPCooldownOnboarding,
		})
	case errors.Is(err, repository.ErrUserNotFound):
		// fall through to provisioning
	default:
		return false, fmt.Errorf("find user: %w", err)
	}

	associateID, err := s.generateAssociateID()
	if err != nil {
		return false, err
	}
	user = &domain.User{
		Email:             &email,
		Username:          strings.TrimSpace(username),
		AssociateID:       &associateID,
		Role:              domain.RoleSuperAdmin,
		IsEmailBasedLogin: true,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			// A concurrent registration won the race on the unique email.
			return false, ErrDuplicateIdentity
		}
		return false, fmt.Errorf("create user: %w", err)
	}

	if err := s.otpSvc.Issue(ctx, IssueRequest{
		User:     user,
		Email:    email,
		Purpose:  domain.OTPPurposeVerification,
		Cooldown: s.cfg.OTPCooldownOnboarding,
	}); err != nil {
		return true, err
	}
	return true, nil
}

// AuthenticateAdmin starts an OTP login for an administrative account,
// provisioning it on first contact.
func (s *CentralService) AuthenticateAdmin(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByDestination(email, "")
	if errors.Is(err, repository.ErrUserNotFound) {
		associateID, genErr := s.generateAssociateID()
		if genErr != nil {
			return genErr
		}
		user = &domain.User{
			Email:             &email,
			AssociateID:       &associateID,
			Role:              domain.RoleAdmin,
			IsEmailBasedLogin: true,
		}
		if createErr := s.users.Create(user); createErr != nil {
			if errors.Is(createErr, repository.ErrDuplicateIdentity) {
				return ErrDuplicateIdentity
			}
			return fmt.Errorf("create user: %w", createErr)
		}
	} else if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	return s.otpSvc.Issue(ctx, IssueRequest{
		User:     user,
		Email:    email,
		Purpose:  domain.OTPPurposeLogin,
		Cooldown: s.cfg.OTPCooldownDefault,
	})
}

// VerifyAdminOTP completes the admin login. Non-administrative roles are
// rejected even with a correct code.
func (s *CentralService) VerifyAdminOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.otpSvc.Verify(ctx, VerifyRequest{
		Email:   email,
		Code:    code,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	})
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	tokens, err := s.tokenSvc.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// AddSecret stores a new hashed AUTH secret. Newer secrets supersede older
// ones because validation always consults the latest.
func (s *CentralService) AddSecret(ctx context.Context, plaintext string) error {
	if len(strings.TrimSpace(plaintext)) < 8 {
		return fmt.Errorf("%w: secret must be at least 8 characters", ErrValidation)
	}
	hash, err := security.HashSecret(plaintext)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	return s.secrets.Create(&domain.Secret{
		SecretHash: hash,
		Type:       domain.SecretTypeAuth,
		ExpiresAt:  s.now().Add(s.cfg.AuthSecretTTL),
	})
}

func (s *CentralService) CreateInventory(ctx context.Context, name string) (*domain.CentralInventory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: inventory name is required", ErrValidation)
	}
	inv := &domain.CentralInventory{Name: name}
	if err := s.central.CreateInventory(inv); err != nil {
		return nil, fmt.Errorf("create central inventory: %w", err)
	}
	return inv, nil
}

type CentralItemInput struct {
	InventoryID       string
	ItemName          string
	SKU               string
	Price             float64
	Stock             float64
	MinOrderQuantity  float64
	MinStockThreshold float64
	Metrics           domain.Metric
	ItemType          domain.ItemType
	ShelfLifeDays     int
	IsHotItem         bool
	ImageURL          string
}

func (s *CentralService) AddItem(ctx context.Context, input CentralItemInput) (*domain.CentralInventoryItem, error) {
	if strings.TrimSpace(input.ItemName) == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if _, err := s.central.FindInventoryByID(input.InventoryID); err != nil {
		if errors.Is(err, repository.ErrCentralInventoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find central inventory: %w", err)
	}
	item := &domain.CentralInventoryItem{
		InventoryID:       input.InventoryID,
		ItemName:          strings.TrimSpace(input.ItemName),
		SKU:               input.SKU,
		Price:             input.Price,
		Stock:             input.Stock,
		MinOrderQuantity:  input.MinOrderQuantity,
		MinStockThreshold: input.MinStockThreshold,
		Metrics:           input.Metrics,
		ItemType:          input.ItemType,
		ShelfLifeDays:     input.ShelfLifeDays,
		IsHotItem:         input.IsHotItem,
		ImageURL:          input.ImageURL,
	}
	if err := s.central.CreateItem(item); err != nil {
		return nil, fmt.Errorf("create central item: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, centralItemsCacheNamespace)
	}
	return item, nil
}

// SearchItems serves repeated queries from the cache; a stale read is bounded
// by the cache TTL and by invalidation on every item write.
func (s *CentralService) SearchItems(ctx context.Context, search string) ([]domain.CentralInventoryItem, error) {
	search = strings.TrimSpace(search)
	if s.cache != nil {
		if payload, ok, err := s.cache.Get(ctx, centralItemsCacheNamespace, search); err == nil && ok {
			var items []domain.CentralInventoryItem
			if err := json.Unmarshal(payload, &items); err == nil {
				return items, nil
			}
		}
	}
	items, err := s.central.SearchItemsByName(search)
	if err != nil {
		return nil, fmt.Errorf("search central items: %w", err)
	}
	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, centralItemsCacheNamespace, search, payload, centralItemsCacheTTL)
		}
	}
	return items, nil
}

func (s *CentralService) checkAuthSecret(plaintext string) error {
	record, err := s.secrets.FindLatestByType(domain.SecretTypeAuth)
	if err != nil {
		if errors.Is(err, repository.ErrSecretNotFound) {
			return ErrSecretInvalid
		}
		return fmt.Errorf("load secret: %w", err)
	}
	if s.now().After(record.ExpiresAt) {
		return ErrSecretExpired
	}
	if !security.VerifySecret(plaintext, record.SecretHash) {
		return ErrSecretInvalid
	}
	return nil
}

// generateAssociateID draws four digit ids until one is free. The unique
// index on the column backstops the remaining race.
func (s *CentralService) generateAssociateID() (string, error) {
	for range associateIDAttempts {
		candidate := strconv.Itoa(1000 + rand.IntN(9000))
		_, err := s.users.FindByAssociateID(candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check associate id: %w", err)
		}
	}
	return "", fmt.Errorf("could not allocate a free associate id")
}
