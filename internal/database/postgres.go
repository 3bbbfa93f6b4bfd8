package database

import (
	"github.com/alokah-labs/superapp-backend/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. TranslateError maps driver errors onto gorm's
// portable sentinels (unique violations become gorm.ErrDuplicatedKey), which
// the repositories rely on.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}
