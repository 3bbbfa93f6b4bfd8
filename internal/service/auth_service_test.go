package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

func TestSendOTPUnknownDestination(t *testing.T) {
	env := newTestEnv(t)
	err := env.authSvc.SendOTP(context.Background(), "nobody@example.com", "", domain.OTPPurposeLogin)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSendOTPNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, &domain.User{Email: strPtr("case@example.com")})

	if err := env.authSvc.SendOTP(ctx, "  Case@Example.COM ", "", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("send: %v", err)
	}
	if env.notifier.last(t).Destination != "case@example.com" {
		t.Fatalf("destination not normalized: %q", env.notifier.last(t).Destination)
	}
}

func TestVerifyOTPIssuesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, &domain.User{Email: strPtr("session@example.com")})

	if err := env.authSvc.SendOTP(ctx, "session@example.com", "", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := env.notifier.last(t).Code

	result, err := env.authSvc.VerifyOTP(ctx, "session@example.com", "", code, domain.OTPPurposeLogin)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.Tokens.AccessToken == result.Tokens.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	// The refresh token exchanges for a fresh access token.
	access, err := env.authSvc.Refresh(ctx, result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatal("expected a new access token")
	}

	// An access token is not accepted as a refresh token.
	if _, err := env.authSvc.Refresh(ctx, result.Tokens.AccessToken); !errors.Is(err, security.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, &domain.User{Email: strPtr("wrong@example.com")})

	if err := env.authSvc.SendOTP(ctx, "wrong@example.com", "", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := env.notifier.last(t).Code
	bad := "000000"
	if bad == code {
		bad = "000001"
	}

	if _, err := env.authSvc.VerifyOTP(ctx, "wrong@example.com", "", bad, domain.OTPPurposeLogin); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}
}

func TestVerificationPurposeFlipsFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("activate@example.com"), IsEmailBasedLogin: true})
	if user.IsEmailVerified || user.IsActive {
		t.Fatal("fixture should start unverified and inactive")
	}

	if err := env.authSvc.SendOTP(ctx, "activate@example.com", "", domain.OTPPurposeVerification); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := env.notifier.last(t).Code

	result, err := env.authSvc.VerifyOTP(ctx, "activate@example.com", "", code, domain.OTPPurposeVerification)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.User.IsEmailVerified || !result.User.IsActive {
		t.Fatalf("verification did not flip flags: verified=%v active=%v",
			result.User.IsEmailVerified, result.User.IsActive)
	}
}

func TestPasswordLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, &domain.User{Email: strPtr("pw@example.com"), IsActive: true})

	t.Run("login before password set", func(t *testing.T) {
		if _, err := env.authSvc.SignInWithPassword(ctx, "pw@example.com", "", "whatever1"); !errors.Is(err, ErrPasswordNotSet) {
			t.Fatalf("expected ErrPasswordNotSet, got %v", err)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		if err := env.authSvc.SetPassword(ctx, user.ID, "short"); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("set and sign in", func(t *testing.T) {
		if err := env.authSvc.SetPassword(ctx, user.ID, "hunter2hunter2"); err != nil {
			t.Fatalf("set password: %v", err)
		}
		result, err := env.authSvc.SignInWithPassword(ctx, "pw@example.com", "", "hunter2hunter2")
		if err != nil {
			t.Fatalf("sign in: %v", err)
		}
		if result.User.LastLoginAt == nil {
			t.Fatal("sign in did not record last login")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := env.authSvc.SignInWithPassword(ctx, "pw@example.com", "", "not-the-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown account and wrong password look alike", func(t *testing.T) {
		if _, err := env.authSvc.SignInWithPassword(ctx, "ghost@example.com", "", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("change password", func(t *testing.T) {
		if err := env.authSvc.ChangePassword(ctx, user.ID, "wrong-current", "newpassword1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for wrong current, got %v", err)
		}
		if err := env.authSvc.ChangePassword(ctx, user.ID, "hunter2hunter2", "newpassword1"); err != nil {
			t.Fatalf("change: %v", err)
		}
		if _, err := env.authSvc.SignInWithPassword(ctx, "pw@example.com", "", "newpassword1"); err != nil {
			t.Fatalf("sign in with new password: %v", err)
		}
	})
}

func TestChangePasswordWithoutExisting(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, &domain.User{Email: strPtr("nopw@example.com")})
	err := env.authSvc.ChangePassword(context.Background(), user.ID, "anything1", "newpassword1")
	if !errors.Is(err, ErrPasswordNotSet) {
		t.Fatalf("expected ErrPasswordNotSet, got %v", err)
	}
}
