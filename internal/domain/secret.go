package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SecretType string

const (
	SecretTypeAuth SecretType = "auth"
)

// Secret is a hashed shared secret gating privileged registration. Created by
// an administrative action, read-only afterwards.
type Secret struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	SecretHash string     `gorm:"size:1024;not null" json:"-"`
	Type       SecretType `gorm:"size:32;not null;index" json:"type"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *Secret) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
