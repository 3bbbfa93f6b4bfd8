package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/http/middleware"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

// decodeJSON parses the request body into dst, answering 400 on malformed
// payloads. Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// actorID is the authenticated subject. Empty when AuthMiddleware did not run.
func actorID(r *http.Request) string {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Subject
}

// respondServiceError maps business failures onto the envelope. Every handler
// funnels unhandled errors here so the status mapping stays in one place.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rateLimited *service.RateLimitError
	switch {
	case errors.As(err, &rateLimited):
		response.RateLimited(w, r, time.Duration(rateLimited.RetryAfterSeconds)*time.Second)
	// Wrong or stale material the caller submitted (codes, passwords, shared
	// secrets, duplicate identities) is a 400; 401 is reserved for token
	// failures on refresh and bearer auth.
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrMissingDestination),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrPasswordNotSet),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPMismatch),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSecretInvalid),
		errors.Is(err, service.ErrSecretExpired),
		errors.Is(err, service.ErrDuplicateIdentity):
		response.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrOTPNotFound):
		response.Error(w, r, http.StatusNotFound, "OTP not found")
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPhoneVerificationUnsupported):
		response.Error(w, r, http.StatusNotImplemented, err.Error())
	case errors.Is(err, repository.ErrDuplicateEmployeeCode):
		response.Error(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrHotelNotFound),
		errors.Is(err, repository.ErrInventoryItemNotFound),
		errors.Is(err, repository.ErrEmployeeNotFound),
		errors.Is(err, repository.ErrCentralInventoryNotFound):
		response.Error(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrFileTooBig):
		response.Error(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		response.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

// maskDestination hides most of a contact point for audit logs.
func maskDestination(destination string) string {
	if at := strings.IndexByte(destination, '@'); at > 0 {
		return destination[:1] + "***" + destination[at:]
	}
	if len(destination) > 2 {
		return "***" + destination[len(destination)-2:]
	}
	return "***"
}
