package database

import (
	"fmt"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/security"

	"gorm.io/gorm"
)

// Seed bootstraps an initial AUTH secret so the first super admin can be
// onboarded against a fresh database. It is a no-op when no bootstrap secret
// is configured or when any AUTH secret already exists: rotation happens
// through the API, not through re-seeding.
func Seed(db *gorm.DB, cfg *config.Config) error {
	if cfg.BootstrapAuthSecret == "" {
		return nil
	}

	var count int64
	if err := db.Model(&domain.Secret{}).
		Where("type = ?", domain.SecretTypeAuth).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count auth secrets: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashSecret(cfg.BootstrapAuthSecret)
	if err != nil {
		return fmt.Errorf("hash bootstrap secret: %w", err)
	}
	if err := db.Create(&domain.Secret{
		SecretHash: hash,
		Type:       domain.SecretTypeAuth,
		ExpiresAt:  time.Now().Add(cfg.AuthSecretTTL),
	}).Error; err != nil {
		return fmt.Errorf("seed bootstrap secret: %w", err)
	}
	return nil
}
