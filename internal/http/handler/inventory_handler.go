package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

type InventoryHandler struct {
	inventory *service.InventoryService
}

func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type itemBody struct {
	ItemName          string          `json:"itemName"`
	SKU               string          `json:"sku"`
	Price             float64         `json:"price"`
	Stock             float64         `json:"stock"`
	MinOrderQuantity  float64         `json:"minOrderQuantity"`
	MinStockThreshold float64         `json:"minStockThreshold"`
	Metrics           domain.Metric   `json:"metrics"`
	ItemType          domain.ItemType `json:"itemType"`
	ShelfLifeDays     int             `json:"shelfLifeDays"`
	IsHotItem         bool            `json:"isHotItem"`
}

func (b itemBody) input() service.ItemInput {
	return service.ItemInput{
		ItemName:          b.ItemName,
		SKU:               b.SKU,
		Price:             b.Price,
		Stock:             b.Stock,
		MinOrderQuantity:  b.MinOrderQuantity,
		MinStockThreshold: b.MinStockThreshold,
		Metrics:           b.Metrics,
		ItemType:          b.ItemType,
		ShelfLifeDays:     b.ShelfLifeDays,
		IsHotItem:         b.IsHotItem,
	}
}

func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.inventory.AddItem(r.Context(), chi.URLParam(r, "id"), actorID(r), body.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, "Item added successfully", item)
}

func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListItems(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "", map[string]any{"items": items})
}

func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.inventory.UpdateItem(r.Context(), chi.URLParam(r, "id"), actorID(r), chi.URLParam(r, "itemID"), body.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Item updated successfully", item)
}

func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteItem(r.Context(), chi.URLParam(r, "id"), actorID(r), chi.URLParam(r, "itemID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Item deleted successfully", nil)
}

func (h *InventoryHandler) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	item, err := h.inventory.UploadItemImage(r.Context(), chi.URLParam(r, "id"), actorID(r), chi.URLParam(r, "itemID"), file, header.Size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Image uploaded successfully", item)
}
