package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

// AuthService drives the end-user flows: OTP send/verify, password login and
// password maintenance. Administrative (central) flows live in
// CentralService.
type AuthService struct {
	cfg      *config.Config
	users    repository.UserRepository
	otpSvc   *OTPService
	tokenSvc *TokenService
}

type LoginResult struct {
	User   *domain.User
	Tokens *TokenPair
}

func NewAuthService(cfg *config.Config, users repository.UserRepository, otpSvc *OTPService, tokenSvc *TokenService) *AuthService {
	return &AuthService{cfg: cfg, users: users, otpSvc: otpSvc, tokenSvc: tokenSvc}
}

// SendOTP issues a code for an existing identity. Unknown destinations fail
// with ErrUserNotFound: this flow does not auto-provision.
func (s *AuthService) SendOTP(ctx context.Context, email, phone string, purpose domain.OTPPurpose) error {
	email, phone = normalizeDestination(email, phone)
	if email == "" && phone == "" {
		return ErrMissingDestination
	}
	user, err := s.users.FindByDestination(email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	return s.otpSvc.Issue(ctx, IssueRequest{
		User:     user,
		Email:    email,
		Phone:    phone,
		Purpose:  purpose,
		Cooldown: s.cfg.OTPCooldownDefault,
	})
}

// VerifyOTP validates a submitted code and, on success, issues the session
// credential pair.
func (s *AuthService) VerifyOTP(ctx context.Context, email, phone, code string, purpose domain.OTPPurpose) (*LoginResult, error) {
	email, phone = normalizeDestination(email, phone)
	otpType := domain.OTPTypeEmail
	if email == "" {
		otpType = domain.OTPTypePhone
	}
	user, err := s.otpSvc.Verify(ctx, VerifyRequest{
		Email:   email,
		Phone:   phone,
		Code:    code,
		Purpose: purpose,
		Type:    otpType,
	})
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokenSvc.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.tokenSvc.Refresh(ctx, refreshToken)
}

// SetPassword enables password login for an account, typically right after
// OTP activation.
func (s *AuthService) SetPassword(ctx context.Context, userID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := security.HashSecret(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	enabled := true
	if _, err := s.users.Update(userID, repository.UserUpdate{
		PasswordHash:         &hash,
		IsPasswordBasedLogin: &enabled,
	}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.PasswordHash == nil || !user.IsPasswordBasedLogin {
		return ErrPasswordNotSet
	}
	if !security.VerifySecret(currentPassword, *user.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := security.HashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.users.Update(userID, repository.UserUpdate{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

// SignInWithPassword authenticates by password. Missing accounts and wrong
// passwords collapse into the same error so the response does not reveal
// which destinations exist.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, phone, password string) (*LoginResult, error) {
	email, phone = normalizeDestination(email, phone)
	if email == "" && phone == "" {
		return nil, ErrMissingDestination
	}
	user, err := s.users.FindByDestination(email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.PasswordHash == nil || !user.IsPasswordBasedLogin {
		return nil, ErrPasswordNotSet
	}
	if !security.VerifySecret(password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user, err = s.users.Update(user.ID, repository.UserUpdate{LastLoginAt: &now})
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	tokens, err := s.tokenSvc.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}
