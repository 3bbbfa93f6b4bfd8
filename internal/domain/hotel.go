package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HotelType string

const (
	HotelTypeHotel      HotelType = "hotel"
	HotelTypeResort     HotelType = "resort"
	HotelTypeHomestay   HotelType = "homestay"
	HotelTypeRestaurant HotelType = "restaurant"
)

type BusinessType string

const (
	BusinessTypeProprietorship BusinessType = "proprietorship"
	BusinessTypePartnership    BusinessType = "partnership"
	BusinessTypePrivateLimited BusinessType = "private_limited"
)

type Hotel struct {
	ID                       string       `gorm:"primaryKey;size:36" json:"id"`
	OwnerID                  string       `gorm:"size:36;not null;index" json:"owner_id"`
	Name                     string       `gorm:"size:255;not null" json:"name"`
	LogoURL                  string       `gorm:"size:1024" json:"logo_url,omitempty"`
	HotelType                HotelType    `gorm:"size:32;not null" json:"hotel_type"`
	BusinessType             BusinessType `gorm:"size:32;not null" json:"business_type"`
	Phone                    string       `gorm:"size:32" json:"phone,omitempty"`
	AlternatePhone           string       `gorm:"size:32" json:"alternate_phone,omitempty"`
	Email                    string       `gorm:"size:255" json:"email,omitempty"`
	Website                  string       `gorm:"size:512" json:"website,omitempty"`
	IsAccommodationAvailable bool         `gorm:"not null;default:false" json:"is_accommodation_available"`
	TotalFloors              int          `json:"total_floors,omitempty"`
	TotalRooms               int          `json:"total_rooms,omitempty"`
	Address                  string       `gorm:"size:1024;not null" json:"address"`
	Locality                 string       `gorm:"size:255" json:"locality,omitempty"`
	District                 string       `gorm:"size:255;not null" json:"district"`
	State                    string       `gorm:"size:255;not null" json:"state"`
	Country                  string       `gorm:"size:255;not null" json:"country"`
	PostalCode               string       `gorm:"size:16;not null" json:"postal_code"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`
}

func (h *Hotel) BeforeCreate(_ *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
