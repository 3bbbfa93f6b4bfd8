package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Metric string

const (
	MetricPiece Metric = "piece"
	MetricKg    Metric = "kg"
	MetricLitre Metric = "litre"
	MetricPack  Metric = "pack"
)

type ItemType string

const (
	ItemTypePerishable    ItemType = "perishable"
	ItemTypeNonPerishable ItemType = "non_perishable"
	ItemTypeConsumable    ItemType = "consumable"
)

// InventoryItem is a hotel-scoped stock item.
type InventoryItem struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	HotelID           string    `gorm:"size:36;not null;index" json:"hotel_id"`
	ItemName          string    `gorm:"size:255;not null;index" json:"item_name"`
	SKU               string    `gorm:"size:64;not null" json:"sku"`
	Price             float64   `gorm:"not null" json:"price"`
	Stock             float64   `gorm:"not null" json:"stock"`
	MinOrderQuantity  float64   `gorm:"not null" json:"min_order_quantity"`
	MinStockThreshold float64   `gorm:"not null;default:0" json:"min_stock_threshold"`
	Metrics           Metric    `gorm:"size:16;not null" json:"metrics"`
	ItemType          ItemType  `gorm:"size:32;not null" json:"item_type"`
	ShelfLifeDays     int       `gorm:"not null" json:"shelf_life_days"`
	IsHotItem         bool      `gorm:"not null;default:false" json:"is_hot_item"`
	ImageURL          string    `gorm:"size:1024" json:"image_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (i *InventoryItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// CentralInventory is the platform-level inventory administered by the
// central (super-admin) flows.
type CentralInventory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *CentralInventory) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CentralInventoryItem struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	InventoryID       string    `gorm:"size:36;not null;index" json:"inventory_id"`
	ItemName          string    `gorm:"size:255;not null;index" json:"item_name"`
	SKU               string    `gorm:"size:64;not null" json:"sku"`
	Price             float64   `gorm:"not null" json:"price"`
	Stock             float64   `gorm:"not null" json:"stock"`
	MinOrderQuantity  float64   `gorm:"not null" json:"min_order_quantity"`
	MinStockThreshold float64   `gorm:"not null;default:0" json:"min_stock_threshold"`
	Metrics           Metric    `gorm:"size:16;not null" json:"metrics"`
	ItemType          ItemType  `gorm:"size:32;not null" json:"item_type"`
	ShelfLifeDays     int       `gorm:"not null" json:"shelf_life_days"`
	IsHotItem         bool      `gorm:"not null;default:false" json:"is_hot_item"`
	ImageURL          string    `gorm:"size:1024" json:"image_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (c *CentralInventoryItem) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
