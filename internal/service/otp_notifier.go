package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/domain"
)

type OTPNotification struct {
	Destination string
	Channel     domain.OTPType
	Code        string
	Purpose     domain.OTPPurpose
	Username    string
	ExpiresAt   time.Time
}

// OTPNotifier delivers a one time code to its destination. A returned error
// means the code was not delivered; the persisted row stays behind and a
// re-issue creates a fresh one.
type OTPNotifier interface {
	SendOTP(ctx context.Context, notification OTPNotification) error
}

// DevOTPNotifier substitutes for the mail channel in local development. It is
// the delivery channel, so it is the one place a plaintext code may appear.
type DevOTPNotifier struct {
	logger *slog.Logger
}

func NewDevOTPNotifier(logger *slog.Logger) *DevOTPNotifier {
	return &DevOTPNotifier{logger: logger}
}

func (n *DevOTPNotifier) SendOTP(ctx context.Context, notification OTPNotification) error {
	n.logger.InfoContext(ctx, "otp issued (dev delivery)",
		"destination", notification.Destination,
		"channel", notification.Channel,
		"purpose", notification.Purpose,
		"code", notification.Code,
		"expires_at", notification.ExpiresAt,
	)
	return nil
}
