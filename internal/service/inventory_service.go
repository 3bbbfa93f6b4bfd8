package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
)

const itemImageCategory = "item-images"

// InventoryService manages hotel-scoped stock. Every operation is gated on
// hotel ownership.
type InventoryService struct {
	hotels  *HotelService
	items   repository.InventoryRepository
	storage ImageStorage
}

func NewInventoryService(hotels *HotelService, items repository.InventoryRepository, storage ImageStorage) *InventoryService {
	return &InventoryService{hotels: hotels, items: items, storage: storage}
}

type ItemInput struct {
	ItemName          string
	SKU               string
	Price             float64
	Stock             float64
	MinOrderQuantity  float64
	MinStockThreshold float64
	Metrics           domain.Metric
	ItemType          domain.ItemType
	ShelfLifeDays     int
	IsHotItem         bool
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.ItemName) == "" {
		return fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if in.Price < 0 || in.Stock < 0 {
		return fmt.Errorf("%w: price and stock must not be negative", ErrValidation)
	}
	return nil
}

func (s *InventoryService) AddItem(ctx context.Context, hotelID, ownerID string, input ItemInput) (*domain.InventoryItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return nil, err
	}
	item := &domain.InventoryItem{
		HotelID:           hotelID,
		ItemName:          strings.TrimSpace(input.ItemName),
		SKU:               input.SKU,
		Price:             input.Price,
		Stock:             input.Stock,
		MinOrderQuantity:  input.MinOrderQuantity,
		MinStockThreshold: input.MinStockThreshold,
		Metrics:           input.Metrics,
		ItemType:          input.ItemType,
		ShelfLifeDays:     input.ShelfLifeDays,
		IsHotItem:         input.IsHotItem,
	}
	if err := s.items.CreateItem(item); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context, hotelID, ownerID string) ([]domain.InventoryItem, error) {
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return nil, err
	}
	return s.items.ListItemsByHotel(hotelID)
}

func (s *InventoryService) UpdateItem(ctx context.Context, hotelID, ownerID, itemID string, input ItemInput) (*domain.InventoryItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	item, err := s.requireItem(hotelID, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	item.ItemName = strings.TrimSpace(input.ItemName)
	item.SKU = input.SKU
	item.Price = input.Price
	item.Stock = input.Stock
	item.MinOrderQuantity = input.MinOrderQuantity
	item.MinStockThreshold = input.MinStockThreshold
	item.Metrics = input.Metrics
	item.ItemType = input.ItemType
	item.ShelfLifeDays = input.ShelfLifeDays
	item.IsHotItem = input.IsHotItem
	if err := s.items.SaveItem(item); err != nil {
		return nil, fmt.Errorf("save inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, hotelID, ownerID, itemID string) error {
	if _, err := s.requireItem(hotelID, ownerID, itemID); err != nil {
		return err
	}
	return s.items.DeleteItem(itemID)
}

func (s *InventoryService) UploadItemImage(ctx context.Context, hotelID, ownerID, itemID string, file io.Reader, fileSize int64) (*domain.InventoryItem, error) {
	item, err := s.requireItem(hotelID, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	objectKey, err := s.storage.UploadImage(ctx, itemImageCategory, hotelID, file, fileSize)
	if err != nil {
		return nil, err
	}
	imageURL, err := s.storage.ImageURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	item.ImageURL = imageURL
	if err := s.items.SaveItem(item); err != nil {
		return nil, fmt.Errorf("save inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) requireItem(hotelID, ownerID, itemID string) (*domain.InventoryItem, error) {
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return nil, err
	}
	item, err := s.items.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryItemNotFound) {
			return nil, repository.ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("find inventory item: %w", err)
	}
	if item.HotelID != hotelID {
		return nil, repository.ErrInventoryItemNotFound
	}
	return item, nil
}
