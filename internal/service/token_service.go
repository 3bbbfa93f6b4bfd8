package service

import (
	"context"
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/observability"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

type TokenPair struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID string
}

// TokenService mints the session credential pair and exchanges refresh
// tokens. There is no server-side revocation store: a refresh token stays
// valid until its natural expiry (documented limitation).
type TokenService struct {
	jwtMgr *security.JWTManager
}

func NewTokenService(jwtMgr *security.JWTManager) *TokenService {
	return &TokenService{jwtMgr: jwtMgr}
}

func (s *TokenService) Issue(user *domain.User) (*TokenPair, error) {
	access, err := s.jwtMgr.SignAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, tokenID, err := s.jwtMgr.SignRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshTokenID: tokenID}, nil
}

// Refresh exchanges a refresh token for a fresh access token. Signature
// failure and expiry surface as distinct errors so the handler can report
// different failure kinds.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			observability.RecordTokenRefresh(ctx, "expired")
		default:
			observability.RecordTokenRefresh(ctx, "invalid")
		}
		return "", err
	}
	access, err := s.jwtMgr.SignAccessToken(claims.Subject)
	if err != nil {
		observability.RecordTokenRefresh(ctx, "error")
		return "", err
	}
	observability.RecordTokenRefresh(ctx, "success")
	return access, nil
}
