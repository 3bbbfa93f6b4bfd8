package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	"github.com/alokah-labs/superapp-backend/internal/service"
)

type stubNotifier struct {
	mu   sync.Mutex
	sent []service.OTPNotification
}

func (n *stubNotifier) SendOTP(_ context.Context, notification service.OTPNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *stubNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no otp was delivered")
	}
	return n.sent[len(n.sent)-1].Code
}

type handlerEnv struct {
	users    repository.UserRepository
	codes    repository.OTPRepository
	notifier *stubNotifier
	auth     *AuthHandler
	central  *CentralHandler
	secrets  repository.SecretRepository
}

func newHandlerEnv(t *testing.T) *handlerEnv {
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
		&domain.CentralInventory{},
		&domain.CentralInventoryItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		OTPTTL:                5 * time.Minute,
		OTPCooldownOnboarding: 5 * time.Second,
		OTPCooldownDefault:    30 * time.Second,
		AuthSecretTTL:         1440 * time.Hour,
	}
	users := repository.NewUserRepository(db)
	codes := repository.NewOTPRepository(db)
	secrets := repository.NewSecretRepository(db)
	central := repository.NewCentralInventoryRepository(db)
	notifier := &stubNotifier{}

	otpSvc := service.NewOTPService(users, codes, notifier, service.NewNoopOTPAttemptGuard(), cfg.OTPTTL)
	jwtMgr := security.NewJWTManager("alokah-test", "access-secret", "refresh-secret", time.Minute, time.Hour)
	tokenSvc := service.NewTokenService(jwtMgr)
	authSvc := service.NewAuthService(cfg, users, otpSvc, tokenSvc)
	centralSvc := service.NewCentralService(cfg, users, secrets, central, service.NewInMemorySearchCacheStore(), otpSvc, tokenSvc)
	cookies := security.NewCookieManager("", false, 7*24*time.Hour)

	return &handlerEnv{
		users:    users,
		codes:    codes,
		notifier: notifier,
		auth:     NewAuthHandler(authSvc, cookies),
		central:  NewCentralHandler(centralSvc, cookies),
		secrets:  secrets,
	}
}

type envelope struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	Token             string          `json:"token"`
	User              json.RawMessage `json:"user"`
	Data              json.RawMessage `json:"data"`
	RetryAfterSeconds int             `json:"retryAfterSeconds"`
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.RefreshCookieName {
			return c
		}
	}
	return nil
}

func TestSendOTPHandler(t *testing.T) {
	env := newHandlerEnv(t)
	email := "send@example.com"
	if err := env.users.Create(&domain.User{Email: &email}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	t.Run("success", func(t *testing.T) {
		rec, body := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send",
			`{"email":"send@example.com","purpose":"login"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !body.Success || body.Message != "OTP sent successfully" {
			t.Fatalf("unexpected envelope %+v", body)
		}
	})

	t.Run("cooldown", func(t *testing.T) {
		rec, body := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send",
			`{"email":"send@example.com","purpose":"login"}`)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if body.Success || body.Message != "Too many requests" {
			t.Fatalf("unexpected envelope %+v", body)
		}
		if body.RetryAfterSeconds < 1 {
			t.Fatalf("retryAfterSeconds must be positive, got %d", body.RetryAfterSeconds)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Fatal("missing Retry-After header")
		}
	})

	t.Run("unknown destination", func(t *testing.T) {
		rec, body := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send",
			`{"email":"ghost@example.com"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if body.Message != "User not found" {
			t.Fatalf("unexpected message %q", body.Message)
		}
	})

	t.Run("missing destination", func(t *testing.T) {
		rec, _ := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown purpose", func(t *testing.T) {
		rec, _ := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send",
			`{"email":"send@example.com","purpose":"banana"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, _ := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestVerifyOTPHandler(t *testing.T) {
	env := newHandlerEnv(t)
	email := "verify@example.com"
	if err := env.users.Create(&domain.User{Email: &email}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if rec, _ := doJSON(t, env.auth.SendOTP, http.MethodPost, "/api/v1/auth/otp/send",
		`{"email":"verify@example.com","purpose":"login"}`); rec.Code != http.StatusOK {
		t.Fatalf("send failed: %d", rec.Code)
	}
	code := env.notifier.lastCode(t)

	t.Run("wrong code", func(t *testing.T) {
		bad := "000000"
		if bad == code {
			bad = "000001"
		}
		rec, _ := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/api/v1/auth/otp/verify",
			fmt.Sprintf(`{"email":"verify@example.com","otp":%q}`, bad))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("success sets refresh cookie", func(t *testing.T) {
		rec, body := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/api/v1/auth/otp/verify",
			fmt.Sprintf(`{"email":"verify@example.com","otp":%q}`, code))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		// Token and user sit at the envelope root, not under data.
		var user struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body.User, &user); err != nil {
			t.Fatalf("decode user: %v", err)
		}
		if body.Token == "" || user.ID == "" {
			t.Fatalf("incomplete payload: %s", rec.Body.String())
		}

		cookie := refreshCookie(rec)
		if cookie == nil {
			t.Fatal("refresh cookie not set")
		}
		if !cookie.HttpOnly {
			t.Fatal("refresh cookie must be http-only")
		}
		if cookie.SameSite != http.SameSiteNoneMode {
			t.Fatal("refresh cookie must be SameSite=None")
		}
		if cookie.Value == body.Token {
			t.Fatal("refresh cookie must not carry the access token")
		}
	})

	t.Run("replay", func(t *testing.T) {
		rec, body := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/api/v1/auth/otp/verify",
			fmt.Sprintf(`{"email":"verify@example.com","otp":%q}`, code))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 on replay, got %d", rec.Code)
		}
		if body.Message != "OTP not found" {
			t.Fatalf("unexpected message %q", body.Message)
		}
	})
}

func TestVerifyOTPHandlerExpiredCode(t *testing.T) {
	env := newHandlerEnv(t)
	email := "stale@example.com"
	if err := env.users.Create(&domain.User{Email: &email}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	hash, err := security.HashSecret("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := env.codes.Create(&domain.OneTimeCode{
		CodeHash:  hash,
		Email:     &email,
		Type:      domain.OTPTypeEmail,
		Purpose:   domain.OTPPurposeLogin,
		ExpiresAt: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("create code: %v", err)
	}

	rec, body := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/api/v1/auth/otp/verify",
		`{"email":"stale@example.com","otp":"123456"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired code, got %d", rec.Code)
	}
	if body.Success {
		t.Fatal("expired code must not succeed")
	}
}

func TestVerifyOTPHandlerPhoneVerification(t *testing.T) {
	env := newHandlerEnv(t)
	phone := "+15550004444"
	if err := env.users.Create(&domain.User{Phone: &phone}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec, _ := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/api/v1/auth/otp/verify",
		`{"phone":"+15550004444","otp":"123456","purpose":"verification"}`)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestRefreshHandler(t *testing.T) {
	env := newHandlerEnv(t)
	email := "refresh@example.com"
	if err := env.users.Create(&domain.User{Email: &email}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if rec, _ := doJSON(t, env.auth.SendOTP, http.MethodPost, "/", `{"email":"refresh@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("send failed: %d", rec.Code)
	}
	verifyRec, _ := doJSON(t, env.auth.VerifyOTP, http.MethodPost, "/",
		fmt.Sprintf(`{"email":"refresh@example.com","otp":%q}`, env.notifier.lastCode(t)))
	cookie := refreshCookie(verifyRec)
	if cookie == nil {
		t.Fatal("no refresh cookie from verify")
	}

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		rec := httptest.NewRecorder()
		env.auth.Refresh(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.auth.Refresh(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		var env2 envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env2.Token == "" {
			t.Fatalf("no token in refresh response: %s", rec.Body.String())
		}
	})

	t.Run("tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: security.RefreshCookieName, Value: cookie.Value + "x"})
		rec := httptest.NewRecorder()
		env.auth.Refresh(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newHandlerEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	env.auth.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("logout did not touch the refresh cookie")
	}
	if cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("cookie not cleared: maxAge=%d value=%q", cookie.MaxAge, cookie.Value)
	}
}

func TestMaskDestination(t *testing.T) {
	cases := []struct{ in, want string }{
		{"user@example.com", "u***@example.com"},
		{"+15550001111", "***11"},
		{"ab", "***"},
	}
	for _, tc := range cases {
		if got := maskDestination(tc.in); got != tc.want {
			t.Fatalf("maskDestination(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
