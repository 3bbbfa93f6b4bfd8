package repository

import (
	"errors"

	"github.com/alokah-labs/superapp-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrDuplicateEmployeeCode = errors.New("employee code already exists")
)

type EmployeeRepository interface {
	Create(employee *domain.Employee) error
	FindByID(id string) (*domain.Employee, error)
	ListByHotel(hotelID string) ([]domain.Employee, error)
	Save(employee *domain.Employee) error
	Delete(id string) error
}

type GormEmployeeRepository struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

func (r *GormEmployeeRepository) Create(employee *domain.Employee) error {
	if err := r.db.Create(employee).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmployeeCode
		}
		return err
	}
	return nil
}

func (r *GormEmployeeRepository) FindByID(id string) (*domain.Employee, error) {
	var e domain.Employee
	if err := r.db.First(&e, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, ErrEmployeeNotFound)
	}
	return &e, nil
}

func (r *GormEmployeeRepository) ListByHotel(hotelID string) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := r.db.Where("hotel_id = ?", hotelID).Order("created_at ASC").Find(&employees).Error
	return employees, err
}

func (r *GormEmployeeRepository) Save(employee *domain.Employee) error {
	return r.db.Save(employee).Error
}

func (r *GormEmployeeRepository) Delete(id string) error {
	res := r.db.Delete(&domain.Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
