package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPType string

const (
	OTPTypeEmail OTPType = "email"
	OTPTypePhone OTPType = "phone"
)

type OTPPurpose string

const (
	OTPPurposeVerification OTPPurpose = "verification"
	OTPPurposeLogin        OTPPurpose = "login"
)

// OneTimeCode is a single issued OTP challenge. The code itself is stored
// only as a PBKDF2 hash. UserID may be empty when a code is issued before
// the identity row exists (admin onboarding).
type OneTimeCode struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CodeHash  string     `gorm:"size:1024;not null" json:"-"`
	UserID    *string    `gorm:"size:36;index" json:"user_id,omitempty"`
	Email     *string    `gorm:"size:255;index" json:"email,omitempty"`
	Phone     *string    `gorm:"size:32;index" json:"phone,omitempty"`
	Type      OTPType    `gorm:"size:16;not null" json:"type"`
	Purpose   OTPPurpose `gorm:"size:32;not null" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (c *OneTimeCode) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *OneTimeCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
