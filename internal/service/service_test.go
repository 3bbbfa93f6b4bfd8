package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.OneTimeCode{},
		&domain.Secret{},
		&domain.Hotel{},
		&domain.InventoryItem{},
		&domain.CentralInventory{},
		&domain.CentralInventoryItem{},
		&domain.Employee{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		OTPTTL:                5 * time.Minute,
		OTPCooldownOnboarding: 5 * time.Second,
		OTPCooldownDefault:    30 * time.Second,
		AuthSecretTTL:         1440 * time.Hour,
	}
}

// captureNotifier records deliveries instead of sending them, so tests can
// read back the plaintext code.
type captureNotifier struct {
	mu   sync.Mutex
	sent []OTPNotification
}

func (n *captureNotifier) SendOTP(_ context.Context, notification OTPNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *captureNotifier) last(t *testing.T) OTPNotification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no otp was delivered")
	}
	return n.sent[len(n.sent)-1]
}

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	users    repository.UserRepository
	codes    repository.OTPRepository
	secrets  repository.SecretRepository
	central  repository.CentralInventoryRepository
	notifier *captureNotifier
	otpSvc   *OTPService
	tokenSvc *TokenService
	authSvc  *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	users := repository.NewUserRepository(db)
	codes := repository.NewOTPRepository(db)
	notifier := &captureNotifier{}
	otpSvc := NewOTPService(users, codes, notifier, NewNoopOTPAttemptGuard(), cfg.OTPTTL)
	jwtMgr := security.NewJWTManager("alokah-test", "access-secret", "refresh-secret", time.Minute, time.Hour)
	tokenSvc := NewTokenService(jwtMgr)
	return &testEnv{
		db:       db,
		cfg:      cfg,
		users:    users,
		codes:    codes,
		secrets:  repository.NewSecretRepository(db),
		central:  repository.NewCentralInventoryRepository(db),
		notifier: notifier,
		otpSvc:   otpSvc,
		tokenSvc: tokenSvc,
		authSvc:  NewAuthService(cfg, users, otpSvc, tokenSvc),
	}
}

func (e *testEnv) createUser(t *testing.T, user *domain.User) *domain.User {
	t.Helper()
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func strPtr(s string) *string { return &s }
