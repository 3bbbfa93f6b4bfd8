package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	HotelID      string    `gorm:"size:36;not null;index" json:"hotel_id"`
	UserID       *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	EmployeeCode string    `gorm:"size:32;not null;uniqueIndex" json:"employee_code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Role         Role      `gorm:"size:32;not null;default:user" json:"role"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
