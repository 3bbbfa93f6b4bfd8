package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/observability"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

// OTPService owns the one time code lifecycle: cooldown check, generation,
// hashing, persistence, delivery, verification and purge. Codes are stored
// hashed only; the plaintext exists in memory between generation and the
// notifier call.
type OTPService struct {
	users    repository.UserRepository
	codes    repository.OTPRepository
	notifier OTPNotifier
	guard    OTPAttemptGuard
	ttl      time.Duration
	now      func() time.Time
}

func NewOTPService(
	users repository.UserRepository,
	codes repository.OTPRepository,
	notifier OTPNotifier,
	guard OTPAttemptGuard,
	ttl time.Duration,
) *OTPService {
	if guard == nil {
		guard = NewNoopOTPAttemptGuard()
	}
	return &OTPService{
		users:    users,
		codes:    codes,
		notifier: notifier,
		guard:    guard,
		ttl:      ttl,
		now:      time.Now,
	}
}

type IssueRequest struct {
	// User is set when the caller already resolved the identity. It may be
	// nil for flows that issue a code before the identity row exists.
	User     *domain.User
	Email    string
	Phone    string
	Purpose  domain.OTPPurpose
	Cooldown time.Duration
}

// Issue runs the cooldown check, then generates, hashes, persists and
// dispatches a fresh code. The cooldown check is advisory: two concurrent
// calls can both pass it before either persists. Both codes would be valid
// and single-use, so the race is accepted.
func (s *OTPService) Issue(ctx context.Context, req IssueRequest) error {
	email, phone := normalizeDestination(req.Email, req.Phone)
	if email == "" && phone == "" {
		return ErrMissingDestination
	}
	channel := domain.OTPTypeEmail
	if email == "" {
		channel = domain.OTPTypePhone
	}

	outcome := "success"
	defer func() { observability.RecordOTPIssued(ctx, string(req.Purpose), outcome) }()

	if err := s.checkCooldown(email, phone, req.Cooldown); err != nil {
		outcome = "rate_limited"
		return err
	}

	plaintext := security.FormatOTP(security.GenerateOTP())
	hash, err := security.HashSecret(plaintext)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("hash otp: %w", err)
	}

	code := &domain.OneTimeCode{
		CodeHash:  hash,
		Type:      channel,
		Purpose:   req.Purpose,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if req.User != nil {
		code.UserID = &req.User.ID
	}
	if email != "" {
		code.Email = &email
	}
	if phone != "" {
		code.Phone = &phone
	}
	if err := s.codes.Create(code); err != nil {
		outcome = "error"
		return fmt.Errorf("persist otp: %w", err)
	}

	notification := OTPNotification{
		Destination: destinationOf(email, phone),
		Channel:     channel,
		Code:        plaintext,
		Purpose:     req.Purpose,
		ExpiresAt:   code.ExpiresAt,
	}
	if req.User != nil {
		notification.Username = req.User.Username
	}
	if err := s.notifier.SendOTP(ctx, notification); err != nil {
		// The row stays behind; a retry issues a new code rather than
		// re-sending this one.
		outcome = "delivery_failed"
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

type VerifyRequest struct {
	Email   string
	Phone   string
	Code    string
	Purpose domain.OTPPurpose
	Type    domain.OTPType
}

// Verify checks the submitted code against the most recently created one for
// the destination. On success it deletes every outstanding code for the
// identity and flips the verification/activation flags the purpose calls for.
func (s *OTPService) Verify(ctx context.Context, req VerifyRequest) (*domain.User, error) {
	email, phone := normalizeDestination(req.Email, req.Phone)
	if email == "" && phone == "" {
		return nil, ErrMissingDestination
	}
	if req.Purpose == domain.OTPPurposeVerification && req.Type == domain.OTPTypePhone {
		// The phone verification flow has no defined identity mutation yet.
		// Reject up front instead of consuming the code and doing nothing.
		return nil, ErrPhoneVerificationUnsupported
	}

	outcome := "success"
	defer func() { observability.RecordOTPVerification(ctx, outcome) }()

	destination := destinationOf(email, phone)
	if delay, err := s.guard.Check(ctx, destination); err == nil && delay > 0 {
		outcome = "guard_cooldown"
		return nil, &RateLimitError{RetryAfterSeconds: ceilSeconds(delay)}
	}

	latest, err := s.codes.FindLatestByDestination(email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			outcome = "not_found"
			return nil, ErrOTPNotFound
		}
		outcome = "error"
		return nil, fmt.Errorf("load otp: %w", err)
	}
	if latest.Expired(s.now()) {
		outcome = "expired"
		return nil, ErrOTPExpired
	}
	if !security.VerifySecret(req.Code, latest.CodeHash) {
		outcome = "mismatch"
		_, _ = s.guard.RegisterFailure(ctx, destination)
		return nil, ErrOTPMismatch
	}

	// Broad invalidation: every outstanding code for this identity dies with
	// the one that matched.
	if latest.UserID != nil {
		if _, err := s.codes.DeleteAllForUser(*latest.UserID); err != nil {
			outcome = "error"
			return nil, fmt.Errorf("purge otps: %w", err)
		}
	} else {
		if _, err := s.codes.DeleteAllForDestination(email, phone); err != nil {
			outcome = "error"
			return nil, fmt.Errorf("purge otps: %w", err)
		}
	}
	_ = s.guard.Reset(ctx, destination)

	user, err := s.users.FindByDestination(email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "user_missing"
			return nil, ErrUserNotFound
		}
		outcome = "error"
		return nil, fmt.Errorf("load user: %w", err)
	}

	update := repository.UserUpdate{}
	boolTrue := true
	now := s.now()
	switch req.Purpose {
	case domain.OTPPurposeVerification:
		update.IsEmailVerified = &boolTrue
		update.IsActive = &boolTrue
	case domain.OTPPurposeLogin:
		if !user.IsActive {
			update.IsActive = &boolTrue
		}
		update.LastLoginAt = &now
	}
	updated, err := s.users.Update(user.ID, update)
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *OTPService) checkCooldown(email, phone string, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	latest, err := s.codes.FindLatestByDestination(email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return nil
		}
		return fmt.Errorf("load latest otp: %w", err)
	}
	age := s.now().Sub(latest.CreatedAt)
	if age >= cooldown {
		return nil
	}
	return &RateLimitError{RetryAfterSeconds: ceilSeconds(cooldown - age)}
}

func ceilSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func normalizeDestination(email, phone string) (string, string) {
	return strings.TrimSpace(strings.ToLower(email)), strings.TrimSpace(phone)
}

func destinationOf(email, phone string) string {
	if email != "" {
		return email
	}
	return phone
}
