package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
)

func TestOTPIssueAndVerifyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("once@example.com")})

	err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Email:   "once@example.com",
		Purpose: domain.OTPPurposeLogin,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.notifier.last(t).Code
	if len(code) != 6 {
		t.Fatalf("expected six digit code, got %q", code)
	}

	got, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "once@example.com",
		Code:    code,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
	if got.LastLoginAt == nil {
		t.Fatal("login purpose did not record last login")
	}
	if !got.IsActive {
		t.Fatal("login purpose did not activate the account")
	}

	// The matched code died with the rest; replaying it must fail.
	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "once@example.com",
		Code:    code,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound on replay, got %v", err)
	}
}

func TestOTPVerifyPurgesAllOutstandingCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("purge@example.com")})

	for range 3 {
		if err := env.otpSvc.Issue(ctx, IssueRequest{
			User:    user,
			Email:   "purge@example.com",
			Purpose: domain.OTPPurposeLogin,
		}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}
	latest := env.notifier.last(t).Code

	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "purge@example.com",
		Code:    latest,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := env.codes.FindLatestByDestination("purge@example.com", ""); !errors.Is(err, repository.ErrOTPNotFound) {
		t.Fatalf("expected every code purged, got %v", err)
	}
}

func TestOTPVerifyLatestCodeWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("latest@example.com")})

	issue := func() string {
		t.Helper()
		if err := env.otpSvc.Issue(ctx, IssueRequest{
			User:    user,
			Email:   "latest@example.com",
			Purpose: domain.OTPPurposeLogin,
		}); err != nil {
			t.Fatalf("issue: %v", err)
		}
		return env.notifier.last(t).Code
	}

	first := issue()
	// Backdate the first row so the two created_at values cannot tie within
	// sqlite's timestamp precision.
	if err := env.db.Model(&domain.OneTimeCode{}).
		Where("email = ?", "latest@example.com").
		Update("created_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	second := issue()

	if first == second {
		// Collision is possible with random codes. Nothing to assert then.
		t.Skip("generated codes collided")
	}

	// Only the newest code is consulted, so the older one no longer matches.
	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "latest@example.com",
		Code:    first,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch for superseded code, got %v", err)
	}
	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "latest@example.com",
		Code:    second,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}); err != nil {
		t.Fatalf("verify newest: %v", err)
	}
}

func TestOTPVerifyExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("expired@example.com")})

	if err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Email:   "expired@example.com",
		Purpose: domain.OTPPurposeLogin,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.notifier.last(t).Code

	env.otpSvc.now = func() time.Time { return time.Now().Add(env.cfg.OTPTTL + time.Second) }
	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Email:   "expired@example.com",
		Code:    code,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestOTPIssueCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("cooldown@example.com")})

	req := IssueRequest{
		User:     user,
		Email:    "cooldown@example.com",
		Purpose:  domain.OTPPurposeLogin,
		Cooldown: 30 * time.Second,
	}
	if err := env.otpSvc.Issue(ctx, req); err != nil {
		t.Fatalf("first issue: %v", err)
	}

	err := env.otpSvc.Issue(ctx, req)
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfterSeconds < 1 || rl.RetryAfterSeconds > 30 {
		t.Fatalf("retry after out of range: %d", rl.RetryAfterSeconds)
	}

	// After the cooldown has elapsed a new code goes out.
	env.otpSvc.now = func() time.Time { return time.Now().Add(31 * time.Second) }
	if err := env.otpSvc.Issue(ctx, req); err != nil {
		t.Fatalf("issue after cooldown: %v", err)
	}
}

func TestOTPIssueMissingDestination(t *testing.T) {
	env := newTestEnv(t)
	if err := env.otpSvc.Issue(context.Background(), IssueRequest{Purpose: domain.OTPPurposeLogin}); !errors.Is(err, ErrMissingDestination) {
		t.Fatalf("expected ErrMissingDestination, got %v", err)
	}
}

func TestOTPVerifyPhoneVerificationUnsupported(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Phone: strPtr("+15550002222")})

	if err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Phone:   "+15550002222",
		Purpose: domain.OTPPurposeVerification,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := env.notifier.last(t).Code

	if _, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Phone:   "+15550002222",
		Code:    code,
		Purpose: domain.OTPPurposeVerification,
		Type:    domain.OTPTypePhone,
	}); !errors.Is(err, ErrPhoneVerificationUnsupported) {
		t.Fatalf("expected ErrPhoneVerificationUnsupported, got %v", err)
	}

	// The rejection happens before the code is consulted, so it survives.
	if _, err := env.codes.FindLatestByDestination("", "+15550002222"); err != nil {
		t.Fatalf("code should still exist: %v", err)
	}
}

func TestOTPVerifyPhoneLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Phone: strPtr("+15550003333"), IsPhoneBasedLogin: true})

	if err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Phone:   "+15550003333",
		Purpose: domain.OTPPurposeLogin,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	sent := env.notifier.last(t)
	if sent.Channel != domain.OTPTypePhone {
		t.Fatalf("expected phone channel, got %s", sent.Channel)
	}

	stored, err := env.codes.FindLatestByDestination("", "+15550003333")
	if err != nil {
		t.Fatalf("load code: %v", err)
	}
	if stored.Type != domain.OTPTypePhone || stored.Purpose != domain.OTPPurposeLogin {
		t.Fatalf("unexpected code shape: type=%s purpose=%s", stored.Type, stored.Purpose)
	}
	ttl := time.Until(stored.ExpiresAt)
	if ttl < 4*time.Minute || ttl > 5*time.Minute+time.Second {
		t.Fatalf("expected ~5m ttl, got %s", ttl)
	}

	got, err := env.otpSvc.Verify(ctx, VerifyRequest{
		Phone:   "+15550003333",
		Code:    sent.Code,
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypePhone,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestOTPVerifyGuardBackoff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("guarded@example.com")})

	env.otpSvc.guard = NewInMemoryOTPAttemptGuard(OTPAttemptPolicy{
		FreeAttempts: 1,
		BaseDelay:    time.Minute,
		Multiplier:   2,
		MaxDelay:     10 * time.Minute,
		ResetWindow:  30 * time.Minute,
	})

	if err := env.otpSvc.Issue(ctx, IssueRequest{
		User:    user,
		Email:   "guarded@example.com",
		Purpose: domain.OTPPurposeLogin,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrong := VerifyRequest{
		Email:   "guarded@example.com",
		Code:    "000000",
		Purpose: domain.OTPPurposeLogin,
		Type:    domain.OTPTypeEmail,
	}
	// One free attempt, then the next failure arms the cooldown.
	for range 2 {
		if _, err := env.otpSvc.Verify(ctx, wrong); !errors.Is(err, ErrOTPMismatch) {
			t.Fatalf("expected ErrOTPMismatch, got %v", err)
		}
	}

	_, err := env.otpSvc.Verify(ctx, wrong)
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError after repeated failures, got %v", err)
	}
	if rl.RetryAfterSeconds < 1 {
		t.Fatalf("retry after must be at least 1, got %d", rl.RetryAfterSeconds)
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{0, 1},
	}
	for _, tc := range cases {
		if got := ceilSeconds(tc.in); got != tc.want {
			t.Fatalf("ceilSeconds(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
