package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

type HotelHandler struct {
	hotels *service.HotelService
}

func NewHotelHandler(hotels *service.HotelService) *HotelHandler {
	return &HotelHandler{hotels: hotels}
}

type hotelBody struct {
	Name                     string              `json:"name"`
	HotelType                domain.HotelType    `json:"hotelType"`
	BusinessType             domain.BusinessType `json:"businessType"`
	Phone                    string              `json:"phone"`
	AlternatePhone           string              `json:"alternatePhone"`
	Email                    string              `json:"email"`
	Website                  string              `json:"website"`
	IsAccommodationAvailable bool                `json:"isAccommodationAvailable"`
	TotalFloors              int                 `json:"totalFloors"`
	TotalRooms               int                 `json:"totalRooms"`
	Address                  string              `json:"address"`
	Locality                 string              `json:"locality"`
	District                 string              `json:"district"`
	State                    string              `json:"state"`
	Country                  string              `json:"country"`
	PostalCode               string              `json:"postalCode"`
}

func (b hotelBody) input() service.HotelInput {
	return service.HotelInput{
		Name:                     b.Name,
		HotelType:                b.HotelType,
		BusinessType:             b.BusinessType,
		Phone:                    b.Phone,
		AlternatePhone:           b.AlternatePhone,
		Email:                    b.Email,
		Website:                  b.Website,
		IsAccommodationAvailable: b.IsAccommodationAvailable,
		TotalFloors:              b.TotalFloors,
		TotalRooms:               b.TotalRooms,
		Address:                  b.Address,
		Locality:                 b.Locality,
		District:                 b.District,
		State:                    b.State,
		Country:                  b.Country,
		PostalCode:               b.PostalCode,
	}
}

func (h *HotelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body hotelBody
	if !decodeJSON(w, r, &body) {
		return
	}
	hotel, err := h.hotels.Create(r.Context(), actorID(r), body.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, "Hotel created successfully", hotel)
}

func (h *HotelHandler) List(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.hotels.ListByOwner(r.Context(), actorID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "", map[string]any{"hotels": hotels})
}

func (h *HotelHandler) Get(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.hotels.Get(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "", hotel)
}

func (h *HotelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body hotelBody
	if !decodeJSON(w, r, &body) {
		return
	}
	hotel, err := h.hotels.Update(r.Context(), chi.URLParam(r, "id"), actorID(r), body.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Hotel updated successfully", hotel)
}

func (h *HotelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.hotels.Delete(r.Context(), chi.URLParam(r, "id"), actorID(r)); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Hotel deleted successfully", nil)
}

func (h *HotelHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	hotel, err := h.hotels.UploadLogo(r.Context(), chi.URLParam(r, "id"), actorID(r), file, header.Size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Logo uploaded successfully", hotel)
}
