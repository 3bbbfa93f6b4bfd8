package database

import (
	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.OneTimeCode{},
		&domain.Secret{},
		&domain.Hotel{},
		&domain.InventoryItem{},
		&domain.CentralInventory{},
		&domain.CentralInventoryItem{},
		&domain.Employee{},
	)
}
