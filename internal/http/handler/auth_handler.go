package handler

import (
	"errors"
	"net/http"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/observability"
	"github.com/alokah-labs/superapp-backend/internal/security"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

// AuthHandler exposes the end-user authentication flows. The access token
// travels in the response body; the refresh token only ever lives in the
// http-only cookie.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *security.CookieManager
}

func NewAuthHandler(auth *service.AuthService, cookies *security.CookieManager) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

func parsePurpose(raw string) (domain.OTPPurpose, bool) {
	switch raw {
	case "", string(domain.OTPPurposeLogin):
		return domain.OTPPurposeLogin, true
	case string(domain.OTPPurposeVerification):
		return domain.OTPPurposeVerification, true
	default:
		return "", false
	}
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Purpose string `json:"purpose"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	purpose, ok := parsePurpose(body.Purpose)
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "unknown purpose")
		return
	}

	if err := h.auth.SendOTP(r.Context(), body.Email, body.Phone, purpose); err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.otp.send",
		"destination", maskDestination(body.Email+body.Phone),
		"purpose", string(purpose),
	)
	response.JSON(w, r, http.StatusOK, "OTP sent successfully", nil)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Code    string `json:"otp"`
		Purpose string `json:"purpose"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	purpose, ok := parsePurpose(body.Purpose)
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "unknown purpose")
		return
	}

	result, err := h.auth.VerifyOTP(r.Context(), body.Email, body.Phone, body.Code, purpose)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.otp.verify",
		"destination", maskDestination(body.Email+body.Phone),
		"purpose", string(purpose),
		"user_id", result.User.ID,
	)
	h.cookies.SetRefreshCookie(w, result.Tokens.RefreshToken)
	response.Session(w, r, http.StatusOK, "OTP verified successfully", result.Tokens.AccessToken, result.User)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := security.GetCookie(r, security.RefreshCookieName)
	if refreshToken == "" {
		response.Error(w, r, http.StatusUnauthorized, "missing refresh token")
		return
	}
	accessToken, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			response.Error(w, r, http.StatusUnauthorized, "refresh token expired")
		case errors.Is(err, security.ErrTokenInvalid):
			response.Error(w, r, http.StatusUnauthorized, "invalid refresh token")
		default:
			respondServiceError(w, r, err)
		}
		return
	}
	response.Session(w, r, http.StatusOK, "Token refreshed successfully", accessToken, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearRefreshCookie(w)
	response.JSON(w, r, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.auth.SetPassword(r.Context(), actorID(r), body.Password); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Password set successfully", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.auth.ChangePassword(r.Context(), actorID(r), body.CurrentPassword, body.NewPassword); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Password changed successfully", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.auth.SignInWithPassword(r.Context(), body.Email, body.Phone, body.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.password.login",
		"destination", maskDestination(body.Email+body.Phone),
		"user_id", result.User.ID,
	)
	h.cookies.SetRefreshCookie(w, result.Tokens.RefreshToken)
	response.Session(w, r, http.StatusOK, "Logged in successfully", result.Tokens.AccessToken, result.User)
}
