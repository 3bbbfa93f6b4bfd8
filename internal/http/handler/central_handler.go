package handler

import (
	"net/http"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/observability"
	"github.com/alokah-labs/superapp-backend/internal/security"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

// CentralHandler exposes the administrative surface: secret-gated super-admin
// onboarding, admin OTP login and the central inventory catalogue.
type CentralHandler struct {
	central *service.CentralService
	cookies *security.CookieManager
}

func NewCentralHandler(central *service.CentralService, cookies *security.CookieManager) *CentralHandler {
	return &CentralHandler{central: central, cookies: cookies}
}

func (h *CentralHandler) RegisterSuperAdmin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret   string `json:"secret"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := h.central.RegisterSuperAdmin(r.Context(), body.Secret, body.Email, body.Username)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "central.superadmin.register",
		"destination", maskDestination(body.Email),
		"created", created,
	)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(w, r, status, "OTP sent successfully", nil)
}

func (h *CentralHandler) AuthenticateAdmin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.central.AuthenticateAdmin(r.Context(), body.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "central.admin.authenticate",
		"destination", maskDestination(body.Email),
	)
	response.JSON(w, r, http.StatusOK, "OTP sent successfully", nil)
}

func (h *CentralHandler) VerifyAdminOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"otp"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.central.VerifyAdminOTP(r.Context(), body.Email, body.Code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "central.admin.verify",
		"destination", maskDestination(body.Email),
		"user_id", result.User.ID,
	)
	h.cookies.SetRefreshCookie(w, result.Tokens.RefreshToken)
	response.Session(w, r, http.StatusOK, "OTP verified successfully", result.Tokens.AccessToken, result.User)
}

func (h *CentralHandler) AddSecret(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.central.AddSecret(r.Context(), body.Secret); err != nil {
		respondServiceError(w, r, err)
		return
	}
	observability.Audit(r, "central.secret.create", "actor_id", actorID(r))
	response.JSON(w, r, http.StatusCreated, "Secret added successfully", nil)
}

func (h *CentralHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	inv, err := h.central.CreateInventory(r.Context(), body.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, "Inventory created successfully", inv)
}

func (h *CentralHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InventoryID       string          `json:"inventoryId"`
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
		ImageURL          string          `json:"imageUrl"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.central.AddItem(r.Context(), service.CentralItemInput{
		InventoryID:       body.InventoryID,
		ItemName:          body.ItemName,
		SKU:               body.SKU,
		Price:             body.Price,
		Stock:             body.Stock,
		MinOrderQuantity:  body.MinOrderQuantity,
		MinStockThreshold: body.MinStockThreshold,
		Metrics:           body.Metrics,
		ItemType:          body.ItemType,
		ShelfLifeDays:     body.ShelfLifeDays,
		IsHotItem:         body.IsHotItem,
		ImageURL:          body.ImageURL,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, "Item added successfully", item)
}

func (h *CentralHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.central.SearchItems(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "", map[string]any{"items": items})
}
