package service

import (
	"errors"
	"fmt"
)

// Business failures surfaced to handlers. The HTTP layer maps each to a
// status code and envelope message; services never touch HTTP.
var (
	// ErrValidation wraps malformed-input failures so handlers can map any of
	// them to a 400 without enumerating every message.
	ErrValidation = errors.New("invalid input")

	ErrUserNotFound                 = errors.New("user not found")
	ErrOTPNotFound                  = errors.New("OTP not found")
	ErrOTPExpired                   = errors.New("OTP has expired")
	ErrOTPMismatch                  = errors.New("invalid OTP")
	ErrPhoneVerificationUnsupported = errors.New("phone verification is not supported yet")
	ErrMissingDestination           = errors.New("email or phone is required")
	ErrInvalidCredentials           = errors.New("invalid credentials")
	ErrPasswordNotSet               = errors.New("password login is not enabled for this account")
	ErrWeakPassword                 = errors.New("password must be at least 8 characters")
	ErrSecretInvalid                = errors.New("invalid secret")
	ErrSecretExpired                = errors.New("secret has expired")
	ErrDuplicateIdentity            = errors.New("an account with this contact already exists")
	ErrForbidden                    = errors.New("insufficient role")
)

// RateLimitError rejects an OTP issuance inside the cooldown window and
// carries the client-facing retry hint.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry after %d seconds", e.RetryAfterSeconds)
}
