package repository

import (
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrInventoryItemNotFound    = errors.New("inventory item not found")
	ErrCentralInventoryNotFound = errors.New("central inventory not found")
)

type InventoryRepository interface {
	CreateItem(item *domain.InventoryItem) error
	FindItemByID(id string) (*domain.InventoryItem, error)
	ListItemsByHotel(hotelID string) ([]domain.InventoryItem, error)
	SaveItem(item *domain.InventoryItem) error
	DeleteItem(id string) error
}

type GormInventoryRepository struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) CreateItem(item *domain.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *GormInventoryRepository) FindItemByID(id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, ErrInventoryItemNotFound)
	}
	return &item, nil
}

func (r *GormInventoryRepository) ListItemsByHotel(hotelID string) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := r.db.Where("hotel_id = ?", hotelID).Order("item_name ASC").Find(&items).Error
	return items, err
}

func (r *GormInventoryRepository) SaveItem(item *domain.InventoryItem) error {
	return r.db.Save(item).Error
}

func (r *GormInventoryRepository) DeleteItem(id string) error {
	res := r.db.Delete(&domain.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInventoryItemNotFound
	}
	return nil
}

type CentralInventoryRepository interface {
	FindInventoryByID(id string) (*domain.CentralInventory, error)
	CreateInventory(inventory *domain.CentralInventory) error
	CreateItem(item *domain.CentralInventoryItem) error
	// SearchItemsByName matches case-insensitively on a substring.
	SearchItemsByName(search string) ([]domain.CentralInventoryItem, error)
}

type GormCentralInventoryRepository struct{ db *gorm.DB }

func NewCentralInventoryRepository(db *gorm.DB) CentralInventoryRepository {
	return &GormCentralInventoryRepository{db: db}
}

func (r *GormCentralInventoryRepository) FindInventoryByID(id string) (*domain.CentralInventory, error) {
	var inv domain.CentralInventory
	if err := r.db.First(&inv, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, ErrCentralInventoryNotFound)
	}
	return &inv, nil
}

func (r *GormCentralInventoryRepository) CreateInventory(inventory *domain.CentralInventory) error {
	return r.db.Create(inventory).Error
}

func (r *GormCentralInventoryRepository) CreateItem(item *domain.CentralInventoryItem) error {
	return r.db.Create(item).Error
}

func (r *GormCentralInventoryRepository) SearchItemsByName(search string) ([]domain.CentralInventoryItem, error) {
	var items []domain.CentralInventoryItem
	// lower(...) LIKE keeps the query portable between Postgres and SQLite.
	err := r.db.Where("lower(item_name) LIKE lower(?)", "%"+search+"%").
		Order("item_name ASC").Find(&items).Error
	return items, err
}
