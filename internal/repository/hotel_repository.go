package repository

import (
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrHotelNotFound = errors.New("hotel not found")

type HotelRepository interface {
	Create(hotel *domain.Hotel) error
	FindByID(id string) (*domain.Hotel, error)
	ListByOwner(ownerID string) ([]domain.Hotel, error)
	Save(hotel *domain.Hotel) error
	Delete(id string) error
}

type GormHotelRepository struct{ db *gorm.DB }

func NewHotelRepository(db *gorm.DB) HotelRepository { return &GormHotelRepository{db: db} }

func (r *GormHotelRepository) Create(hotel *domain.Hotel) error {
	return r.db.Create(hotel).Error
}

func (r *GormHotelRepository) FindByID(id string) (*domain.Hotel, error) {
	var h domain.Hotel
	if err := r.db.First(&h, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, ErrHotelNotFound)
	}
	return &h, nil
}

func (r *GormHotelRepository) ListByOwner(ownerID string) ([]domain.Hotel, error) {
	var hotels []domain.Hotel
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&hotels).Error
	return hotels, err
}

func (r *GormHotelRepository) Save(hotel *domain.Hotel) error {
	return r.db.Save(hotel).Error
}

func (r *GormHotelRepository) Delete(id string) error {
	res := r.db.Delete(&domain.Hotel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrHotelNotFound
	}
	return nil
}
