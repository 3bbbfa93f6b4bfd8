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

const hotelLogoCategory = "hotel-logos"

type HotelService struct {
	hotels  repository.HotelRepository
	storage ImageStorage
}

func NewHotelService(hotels repository.HotelRepository, storage ImageStorage) *HotelService {
	return &HotelService{hotels: hotels, storage: storage}
}

type HotelInput struct {
	Name                     string
	HotelType                domain.HotelType
	BusinessType             domain.BusinessType
	Phone                    string
	AlternatePhone           string
	Email                    string
	Website                  string
	IsAccommodationAvailable bool
	TotalFloors              int
	TotalRooms               int
	Address                  string
	Locality                 string
	District                 string
	State                    string
	Country                  string
	PostalCode               string
}

func (in HotelInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(in.District) == "" {
		missing = append(missing, "district")
	}
	if strings.TrimSpace(in.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(in.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(in.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func (s *HotelService) Create(ctx context.Context, ownerID string, input HotelInput) (*domain.Hotel, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	hotel := &domain.Hotel{
		OwnerID:                  ownerID,
		Name:                     strings.TrimSpace(input.Name),
		HotelType:                input.HotelType,
		BusinessType:             input.BusinessType,
		Phone:                    input.Phone,
		AlternatePhone:           input.AlternatePhone,
		Email:                    input.Email,
		Website:                  input.Website,
		IsAccommodationAvailable: input.IsAccommodationAvailable,
		TotalFloors:              input.TotalFloors,
		TotalRooms:               input.TotalRooms,
		Address:                  input.Address,
		Locality:                 input.Locality,
		District:                 input.District,
		State:                    input.State,
		Country:                  input.Country,
		PostalCode:               input.PostalCode,
	}
	if err := s.hotels.Create(hotel); err != nil {
		return nil, fmt.Errorf("create hotel: %w", err)
	}
	return hotel, nil
}

func (s *HotelService) Get(ctx context.Context, hotelID, ownerID string) (*domain.Hotel, error) {
	return s.requireOwned(hotelID, ownerID)
}

func (s *HotelService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Hotel, error) {
	return s.hotels.ListByOwner(ownerID)
}

func (s *HotelService) Update(ctx context.Context, hotelID, ownerID string, input HotelInput) (*domain.Hotel, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	hotel, err := s.requireOwned(hotelID, ownerID)
	if err != nil {
		return nil, err
	}
	hotel.Name = strings.TrimSpace(input.Name)
	hotel.HotelType = input.HotelType
	hotel.BusinessType = input.BusinessType
	hotel.Phone = input.Phone
	hotel.AlternatePhone = input.AlternatePhone
	hotel.Email = input.Email
	hotel.Website = input.Website
	hotel.IsAccommodationAvailable = input.IsAccommodationAvailable
	hotel.TotalFloors = input.TotalFloors
	hotel.TotalRooms = input.TotalRooms
	hotel.Address = input.Address
	hotel.Locality = input.Locality
	hotel.District = input.District
	hotel.State = input.State
	hotel.Country = input.Country
	hotel.PostalCode = input.PostalCode
	if err := s.hotels.Save(hotel); err != nil {
		return nil, fmt.Errorf("save hotel: %w", err)
	}
	return hotel, nil
}

func (s *HotelService) Delete(ctx context.Context, hotelID, ownerID string) error {
	if _, err := s.requireOwned(hotelID, ownerID); err != nil {
		return err
	}
	return s.hotels.Delete(hotelID)
}

// UploadLogo stores a logo image and records its URL on the hotel.
func (s *HotelService) UploadLogo(ctx context.Context, hotelID, ownerID string, file io.Reader, fileSize int64) (*domain.Hotel, error) {
	hotel, err := s.requireOwned(hotelID, ownerID)
	if err != nil {
		return nil, err
	}
	objectKey, err := s.storage.UploadImage(ctx, hotelLogoCategory, hotelID, file, fileSize)
	if err != nil {
		return nil, err
	}
	logoURL, err := s.storage.ImageURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	hotel.LogoURL = logoURL
	if err := s.hotels.Save(hotel); err != nil {
		return nil, fmt.Errorf("save hotel: %w", err)
	}
	return hotel, nil
}

// requireOwned loads a hotel and enforces that it belongs to the caller.
func (s *HotelService) requireOwned(hotelID, ownerID string) (*domain.Hotel, error) {
	hotel, err := s.hotels.FindByID(hotelID)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return nil, repository.ErrHotelNotFound
		}
		return nil, fmt.Errorf("find hotel: %w", err)
	}
	if hotel.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return hotel, nil
}
