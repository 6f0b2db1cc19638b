package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/pkg/utils"
)

// --- Custom Service Errors for Customer ---
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateCustomer = errors.New("customer already exists")
	ErrVehicleNotFound   = errors.New("vehicle not found")
)

// DuplicateCustomerError points at the customer that blocked a create or update.
type DuplicateCustomerError struct {
	Existing *models.Customer
}

func (e *DuplicateCustomerError) Error() string {
	if e.Existing == nil {
		return ErrDuplicateCustomer.Error()
	}
	return fmt.Sprintf("Customer already exists: %s (%s)", e.Existing.FullName, e.Existing.Phone)
}

func (e *DuplicateCustomerError) Unwrap() error {
	return ErrDuplicateCustomer
}

const phoneErrorMessage = "Enter a valid phone number: +255 XXX XXX XXX or 0XXXXXXXX (9-13 digits)."

var (
	intlPhoneRegex  = regexp.MustCompile(`^\+\d{3}(?:\s?\d{3}){3}$`)
	localPhoneRegex = regexp.MustCompile(`^0\d{8,12}$`)
)

// IsValidPhone accepts +CCC NNN NNN NNN (spaces optional) or a local 0-prefixed number.
func IsValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	return intlPhoneRegex.MatchString(phone) || localPhoneRegex.MatchString(phone)
}

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	FullName         string  `json:"full_name" binding:"required"`
	Phone            string  `json:"phone" binding:"required"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	Notes            *string `json:"notes"`
	CustomerType     string  `json:"customer_type"`
	OrganizationName *string `json:"organization_name"`
	TaxNumber        *string `json:"tax_number"`
	PersonalSubtype  *string `json:"personal_subtype"`
}

type UpdateCustomerRequest struct {
	FullName         *string `json:"full_name"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	Notes            *string `json:"notes"`
	CustomerType     *string `json:"customer_type"`
	OrganizationName *string `json:"organization_name"`
	TaxNumber        *string `json:"tax_number"`
	PersonalSubtype  *string `json:"personal_subtype"`
	CurrentStatus    *string `json:"current_status"`
}

// QuickCreateRequest is the minimal form used from the order screens.
type QuickCreateRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	CustomerType string `json:"customer_type"`
}

type VehicleRequest struct {
	PlateNumber string  `json:"plate_number" binding:"required"`
	Make        *string `json:"make"`
	Model       *string `json:"model"`
	VehicleType *string `json:"vehicle_type"`
}

type DuplicateCheckResult struct {
	Exists   bool             `json:"exists"`
	Customer *models.Customer `json:"customer,omitempty"`
}

// --- CustomerService Interface ---
type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error)
	// CreateCustomerTx assigns a unique code and inserts the customer inside exec.
	CreateCustomerTx(ctx context.Context, exec repositories.SQLExecutor, customer *models.Customer) error
	QuickCreate(ctx context.Context, req QuickCreateRequest) (*models.Customer, error)
	GetCustomerByID(ctx context.Context, customerID int64) (*models.Customer, error)
	GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, customerID int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
	// FindSimilar matches the name case-insensitively and the phone by digits, either
	// number containing the other. Numbers with fewer than six digits never match.
	FindSimilar(ctx context.Context, fullName, phone string) (*models.Customer, error)
	CheckDuplicate(ctx context.Context, fullName, phone string) (*DuplicateCheckResult, error)

	AddVehicle(ctx context.Context, customerID int64, req VehicleRequest) (*models.Vehicle, error)
	GetVehicles(ctx context.Context, customerID int64) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID int64, req VehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID int64) error
}

// --- customerService Implementation ---
type customerService struct {
	customerRepo repositories.CustomerRepository
	vehicleRepo  repositories.VehicleRepository
	tx           repositories.TxManager
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(cr repositories.CustomerRepository, vr repositories.VehicleRepository, tx repositories.TxManager) CustomerService {
	return &customerService{
		customerRepo: cr,
		vehicleRepo:  vr,
		tx:           tx,
	}
}

// validateIdentity checks the identity fields shared by the API and the
// registration wizard. Field keys match the request JSON names.
func validateIdentity(step models.Step1Data) *ValidationError {
	v := newValidationError("invalid customer data")
	if strings.TrimSpace(step.FullName) == "" {
		v.Add("full_name", "Full name is required")
	}
	if strings.TrimSpace(step.Phone) == "" {
		v.Add("phone", "Phone number is required")
	} else if !IsValidPhone(step.Phone) {
		v.Add("phone", phoneErrorMessage)
	}
	if step.Email != "" && !utils.IsValidEmail(step.Email) {
		v.Add("email", "Enter a valid email address")
	}

	switch {
	case step.CustomerType == "":
		v.Add("customer_type", "Customer type is required")
	case !step.CustomerType.IsValid():
		v.Add("customer_type", fmt.Sprintf("'%s' is not a valid customer type", step.CustomerType))
	case step.CustomerType.IsOrganizational():
		if strings.TrimSpace(step.OrganizationName) == "" {
			v.Add("organization_name", "Organization name is required for this customer type")
		}
		if strings.TrimSpace(step.TaxNumber) == "" {
			v.Add("tax_number", "Tax number is required for this customer type")
		}
	case step.CustomerType == models.CustomerTypePersonal:
		if step.PersonalSubtype == "" {
			v.Add("personal_subtype", "Please specify if you are the owner or driver")
		} else if step.PersonalSubtype != models.PersonalSubtypeOwner && step.PersonalSubtype != models.PersonalSubtypeDriver {
			v.Add("personal_subtype", "Personal subtype must be owner or driver")
		}
	}
	return v
}

// customerFromIdentity maps validated identity fields onto a new customer,
// dropping organization fields for personal types and the subtype otherwise.
func customerFromIdentity(step models.Step1Data) *models.Customer {
	c := &models.Customer{
		FullName:     strings.TrimSpace(step.FullName),
		Phone:        strings.TrimSpace(step.Phone),
		Email:        utils.NewNullString(step.Email),
		Address:      utils.NewNullString(step.Address),
		Notes:        utils.NewNullString(step.Notes),
		CustomerType: step.CustomerType,
	}
	if step.CustomerType.IsOrganizational() {
		c.OrganizationName = utils.NewNullString(step.OrganizationName)
		c.TaxNumber = utils.NewNullString(step.TaxNumber)
	}
	if step.CustomerType == models.CustomerTypePersonal {
		c.PersonalSubtype = utils.NewNullString(step.PersonalSubtype)
	}
	return c
}

func (s *customerService) CreateCustomerTx(ctx context.Context, exec repositories.SQLExecutor, customer *models.Customer) error {
	code, err := uniqueIdentifier(ctx, customerCodePrefix, func(ctx context.Context, code string) (bool, error) {
		return s.customerRepo.CodeExists(ctx, exec, code)
	})
	if err != nil {
		return err
	}
	customer.Code = code

	if _, err := s.customerRepo.CreateCustomer(ctx, exec, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s (%s)", ErrDuplicateCustomer, customer.FullName, customer.Phone)
		}
		return fmt.Errorf("failed to create customer in repository: %w", err)
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	step := models.Step1Data{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Email:            utils.StringValue(req.Email),
		Address:          utils.StringValue(req.Address),
		Notes:            utils.StringValue(req.Notes),
		CustomerType:     models.CustomerType(req.CustomerType),
		OrganizationName: utils.StringValue(req.OrganizationName),
		TaxNumber:        utils.StringValue(req.TaxNumber),
		PersonalSubtype:  utils.StringValue(req.PersonalSubtype),
	}
	if step.CustomerType == "" {
		step.CustomerType = models.CustomerTypePersonal
	}
	if v := validateIdentity(step); v.HasErrors() {
		return nil, v
	}

	existing, err := s.customerRepo.FindExactDuplicate(ctx, step)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate customer: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateCustomerError{Existing: existing}
	}

	customer := customerFromIdentity(step)
	if err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.CreateCustomerTx(ctx, exec, customer)
	}); err != nil {
		return nil, err
	}
	return s.GetCustomerByID(ctx, customer.ID)
}

func (s *customerService) QuickCreate(ctx context.Context, req QuickCreateRequest) (*models.Customer, error) {
	existing, err := s.FindSimilar(ctx, req.FullName, req.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateCustomerError{Existing: existing}
	}

	step := models.Step1Data{
		FullName:        req.FullName,
		Phone:           req.Phone,
		CustomerType:    models.CustomerType(req.CustomerType),
		PersonalSubtype: models.PersonalSubtypeOwner,
	}
	if step.CustomerType == "" {
		step.CustomerType = models.CustomerTypePersonal
	}
	v := validateIdentity(step)
	// Quick create skips the organization fields; they are completed on the customer page.
	delete(v.Fields, "organization_name")
	delete(v.Fields, "tax_number")
	if v.HasErrors() {
		return nil, v
	}

	customer := customerFromIdentity(step)
	if err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.CreateCustomerTx(ctx, exec, customer)
	}); err != nil {
		return nil, err
	}
	return s.GetCustomerByID(ctx, customer.ID)
}

func (s *customerService) FindSimilar(ctx context.Context, fullName, phone string) (*models.Customer, error) {
	digits := utils.DigitsOnly(phone)
	if strings.TrimSpace(fullName) == "" || len(digits) < 6 {
		return nil, nil
	}
	candidates, err := s.customerRepo.FindByName(ctx, nil, strings.TrimSpace(fullName))
	if err != nil {
		return nil, fmt.Errorf("failed to look up customers by name: %w", err)
	}
	for i := range candidates {
		existing := utils.DigitsOnly(candidates[i].Phone)
		if len(existing) < 6 {
			continue
		}
		if strings.Contains(existing, digits) || strings.Contains(digits, existing) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (s *customerService) CheckDuplicate(ctx context.Context, fullName, phone string) (*DuplicateCheckResult, error) {
	existing, err := s.FindSimilar(ctx, fullName, phone)
	if err != nil {
		return nil, err
	}
	return &DuplicateCheckResult{Exists: existing != nil, Customer: existing}, nil
}

func (s *customerService) GetCustomerByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, nil, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by ID: %w", err)
	}
	vehicles, err := s.vehicleRepo.GetVehiclesByCustomer(ctx, customerID)
	if err != nil {
		utils.LogWarn(err, "Failed to load vehicles for customer", map[string]interface{}{"customer_id": customerID})
	}
	customer.Vehicles = vehicles
	return customer, nil
}

func (s *customerService) GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	customers, total, err := s.customerRepo.GetCustomers(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, nil, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer for update: %w", err)
	}

	step := models.Step1Data{
		FullName:         customer.FullName,
		Phone:            customer.Phone,
		Email:            utils.StringValue(customer.Email),
		Address:          utils.StringValue(customer.Address),
		Notes:            utils.StringValue(customer.Notes),
		CustomerType:     customer.CustomerType,
		OrganizationName: utils.StringValue(customer.OrganizationName),
		TaxNumber:        utils.StringValue(customer.TaxNumber),
		PersonalSubtype:  utils.StringValue(customer.PersonalSubtype),
	}
	if req.FullName != nil {
		step.FullName = *req.FullName
	}
	if req.Phone != nil {
		step.Phone = *req.Phone
	}
	if req.Email != nil {
		step.Email = *req.Email
	}
	if req.Address != nil {
		step.Address = *req.Address
	}
	if req.Notes != nil {
		step.Notes = *req.Notes
	}
	if req.CustomerType != nil {
		step.CustomerType = models.CustomerType(*req.CustomerType)
	}
	if req.OrganizationName != nil {
		step.OrganizationName = *req.OrganizationName
	}
	if req.TaxNumber != nil {
		step.TaxNumber = *req.TaxNumber
	}
	if req.PersonalSubtype != nil {
		step.PersonalSubtype = *req.PersonalSubtype
	}

	v := validateIdentity(step)
	if req.CurrentStatus != nil {
		switch models.CustomerStatus(*req.CurrentStatus) {
		case models.CustomerStatusArrived, models.CustomerStatusInService, models.CustomerStatusCompleted, models.CustomerStatusDeparted:
			customer.CurrentStatus = models.CustomerStatus(*req.CurrentStatus)
		default:
			v.Add("current_status", fmt.Sprintf("'%s' is not a valid status", *req.CurrentStatus))
		}
	}
	if v.HasErrors() {
		return nil, v
	}

	updated := customerFromIdentity(step)
	updated.ID = customer.ID
	updated.CurrentStatus = customer.CurrentStatus

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		conflict, err := s.customerRepo.FindIdentityConflict(ctx, exec, updated)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to check customer identity: %w", err)
		}
		if conflict != nil {
			return &DuplicateCustomerError{Existing: conflict}
		}
		return s.customerRepo.UpdateCustomer(ctx, exec, updated)
	})
	if err != nil {
		var dup *DuplicateCustomerError
		if errors.As(err, &dup) {
			return nil, dup
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateCustomer, updated.FullName, updated.Phone)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer in repository: %w", err)
	}
	return s.GetCustomerByID(ctx, customerID)
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.customerRepo.DeleteCustomer(ctx, exec, customerID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// --- Vehicle Method Implementations ---

func vehicleFromRequest(req VehicleRequest) (*models.Vehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		v := newValidationError("invalid vehicle")
		v.Add("plate_number", "Plate number is required")
		return nil, v
	}
	return &models.Vehicle{
		PlateNumber: plate,
		Make:        utils.NewNullString(utils.StringValue(req.Make)),
		Model:       utils.NewNullString(utils.StringValue(req.Model)),
		VehicleType: utils.NewNullString(utils.StringValue(req.VehicleType)),
	}, nil
}

func (s *customerService) AddVehicle(ctx context.Context, customerID int64, req VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := vehicleFromRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetCustomerByID(ctx, nil, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer for vehicle: %w", err)
	}
	vehicle.CustomerID = customerID

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.vehicleRepo.CreateVehicle(ctx, exec, vehicle)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *customerService) GetVehicles(ctx context.Context, customerID int64) ([]models.Vehicle, error) {
	if _, err := s.customerRepo.GetCustomerByID(ctx, nil, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	vehicles, err := s.vehicleRepo.GetVehiclesByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *customerService) UpdateVehicle(ctx context.Context, vehicleID int64, req VehicleRequest) (*models.Vehicle, error) {
	existing, err := s.vehicleRepo.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle for update: %w", err)
	}
	vehicle, err := vehicleFromRequest(req)
	if err != nil {
		return nil, err
	}
	vehicle.ID = existing.ID
	vehicle.CustomerID = existing.CustomerID
	vehicle.CreatedAt = existing.CreatedAt

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.vehicleRepo.UpdateVehicle(ctx, exec, vehicle)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *customerService) DeleteVehicle(ctx context.Context, vehicleID int64) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.vehicleRepo.DeleteVehicle(ctx, exec, vehicleID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrVehicleNotFound
		}
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return nil
}
