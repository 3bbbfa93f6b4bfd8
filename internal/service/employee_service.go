package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

type EmployeeService struct {
	hotels    *HotelService
	employees repository.EmployeeRepository
}

func NewEmployeeService(hotels *HotelService, employees repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{hotels: hotels, employees: employees}
}

type EmployeeInput struct {
	Name         string
	EmployeeCode string
	Role         domain.Role
	Password     string
}

func (s *EmployeeService) AddEmployee(ctx context.Context, hotelID, ownerID string, input EmployeeInput) (*domain.Employee, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: employee name is required", ErrValidation)
	}
	if strings.TrimSpace(input.EmployeeCode) == "" {
		return nil, fmt.Errorf("%w: employee code is required", ErrValidation)
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return nil, err
	}

	hash, err := security.HashSecret(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	employee := &domain.Employee{
		HotelID:      hotelID,
		EmployeeCode: strings.TrimSpace(input.EmployeeCode),
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.employees.Create(employee); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmployeeCode) {
			return nil, repository.ErrDuplicateEmployeeCode
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}

func (s *EmployeeService) ListEmployees(ctx context.Context, hotelID, ownerID string) ([]domain.Employee, error) {
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return nil, err
	}
	return s.employees.ListByHotel(hotelID)
}

func (s *EmployeeService) RemoveEmployee(ctx context.Context, hotelID, ownerID, employeeID string) error {
	if _, err := s.hotels.requireOwned(hotelID, ownerID); err != nil {
		return err
	}
	employee, err := s.employees.FindByID(employeeID)
	if err != nil {
		return err
	}
	if employee.HotelID != hotelID {
		return repository.ErrEmployeeNotFound
	}
	return s.employees.Delete(employeeID)
}
