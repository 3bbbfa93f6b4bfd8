package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

type EmployeeHandler struct {
	employees *service.EmployeeService
}

func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

func (h *EmployeeHandler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string      `json:"name"`
		EmployeeCode string      `json:"employeeCode"`
		Role         domain.Role `json:"role"`
		Password     string      `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	employee, err := h.employees.AddEmployee(r.Context(), chi.URLParam(r, "id"), actorID(r), service.EmployeeInput{
		Name:         body.Name,
		EmployeeCode: body.EmployeeCode,
		Role:         body.Role,
		Password:     body.Password,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, "Employee added successfully", employee)
}

func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.ListEmployees(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "", map[string]any{"employees": employees})
}

func (h *EmployeeHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.RemoveEmployee(r.Context(), chi.URLParam(r, "id"), actorID(r), chi.URLParam(r, "employeeID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "Employee removed successfully", nil)
}
