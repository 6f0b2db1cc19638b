package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/internal/session"
	"pos_tracker_backend/pkg/utils"
)

var ErrInvalidStep = errors.New("invalid registration step")

const (
	MessageSuccess = "success"
	MessageInfo    = "info"
	MessageWarning = "warning"
	MessageError   = "error"
)

// Outcome is the envelope every wizard step answers with.
type Outcome struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	MessageType string              `json:"message_type,omitempty"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	NextStep    int                 `json:"next_step,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
	Data        interface{}         `json:"data,omitempty"`
}

func failedOutcome(step int, v *ValidationError) *Outcome {
	message := v.Message
	if msgs := v.Fields[""]; len(msgs) > 0 {
		message = msgs[0]
	}
	return &Outcome{Success: false, Message: message, MessageType: MessageError, NextStep: step, Errors: v.Fields}
}

func customerURL(id int64) string {
	return fmt.Sprintf("/api/v1/customers/%d", id)
}

func stepURL(step int) string {
	return fmt.Sprintf("/api/v1/registration/steps/%d", step)
}

// --- Registration DTOs ---

type Step1Request struct {
	models.Step1Data
	// Action "save_customer" creates the customer right away instead of continuing the wizard.
	Action string `json:"action"`
}

type FinalizeRequest struct {
	Notes           string `json:"notes"`
	AdditionalNotes string `json:"additional_notes"`
	Priority        string `json:"priority"`

	PlateNumber string `json:"plate_number"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	VehicleType string `json:"vehicle_type"`

	SelectedServices  []string `json:"selected_services"`
	EstimatedDuration *int     `json:"estimated_duration"`

	ItemName string   `json:"item_name"`
	Brand    string   `json:"brand"` // numeric id or name
	Quantity int      `json:"quantity"`
	TireType string   `json:"tire_type"`
	Addons   []string `json:"addons"`

	InquiryType       string `json:"inquiry_type"`
	Questions         string `json:"questions"`
	ContactPreference string `json:"contact_preference"`
	FollowUpDate      string `json:"follow_up_date"`
}

// --- RegistrationService Interface ---
type RegistrationService interface {
	SubmitStep1(ctx context.Context, sessionID string, req Step1Request, userID *int64) (*Outcome, error)
	SubmitStep2(ctx context.Context, sessionID string, data models.Step2Data) (*Outcome, error)
	SubmitStep3(ctx context.Context, sessionID string, data models.Step3Data) (*Outcome, error)
	// Finalize creates customer, optional vehicle and order in one transaction and clears the draft.
	Finalize(ctx context.Context, sessionID string, req FinalizeRequest, userID *int64) (*Outcome, error)
	LoadStep(ctx context.Context, sessionID string, step int) (interface{}, error)
	Reset(ctx context.Context, sessionID string) error
}

// --- registrationService Implementation ---
type registrationService struct {
	drafts        session.DraftStore
	customers     CustomerService
	orders        OrderService
	inventory     InventoryService
	customerRepo  repositories.CustomerRepository
	vehicleRepo   repositories.VehicleRepository
	inventoryRepo repositories.InventoryRepository
	tx            repositories.TxManager
	recorder      audit.Recorder
}

func NewRegistrationService(
	drafts session.DraftStore,
	customers CustomerService,
	orders OrderService,
	inventory InventoryService,
	cr repositories.CustomerRepository,
	vr repositories.VehicleRepository,
	ir repositories.InventoryRepository,
	tx repositories.TxManager,
	recorder audit.Recorder,
) RegistrationService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &registrationService{
		drafts:        drafts,
		customers:     customers,
		orders:        orders,
		inventory:     inventory,
		customerRepo:  cr,
		vehicleRepo:   vr,
		inventoryRepo: ir,
		tx:            tx,
		recorder:      recorder,
	}
}

func (s *registrationService) SubmitStep1(ctx context.Context, sessionID string, req Step1Request, userID *int64) (*Outcome, error) {
	data := req.Step1Data
	data.FullName = strings.TrimSpace(data.FullName)
	data.Phone = strings.TrimSpace(data.Phone)
	data.Email = strings.TrimSpace(data.Email)
	if !data.CustomerType.IsOrganizational() {
		data.OrganizationName, data.TaxNumber = "", ""
	}
	if data.CustomerType != models.CustomerTypePersonal {
		data.PersonalSubtype = ""
	}

	v := validateIdentity(data)
	if !v.HasErrors() {
		existing, err := s.customerRepo.FindExactDuplicate(ctx, data)
		switch {
		case err == nil && existing != nil:
			v.Add("", fmt.Sprintf("A customer with these details already exists: %s (%s)", existing.FullName, existing.Phone))
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			utils.LogWarn(err, "Duplicate pre-check failed, continuing", map[string]interface{}{"full_name": data.FullName})
		}
	}
	if v.HasErrors() {
		return failedOutcome(1, v), nil
	}

	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Action == "save_customer" {
		return s.saveCustomerNow(ctx, sessionID, draft, data, userID)
	}

	draft.Step1 = &data
	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return &Outcome{Success: true, NextStep: 2, RedirectURL: stepURL(2)}, nil
}

func (s *registrationService) saveCustomerNow(ctx context.Context, sessionID string, draft *models.RegistrationDraft,
	data models.Step1Data, userID *int64) (*Outcome, error) {

	similar, err := s.customers.FindSimilar(ctx, data.FullName, data.Phone)
	if err != nil {
		return nil, err
	}
	if similar != nil {
		return &Outcome{
			Success:     false,
			Message:     fmt.Sprintf("Customer already exists: %s (%s)", similar.FullName, similar.Phone),
			MessageType: MessageWarning,
			RedirectURL: customerURL(similar.ID),
		}, nil
	}

	customer := customerFromIdentity(data)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.customers.CreateCustomerTx(ctx, exec, customer)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCustomer) {
			v := newValidationError("duplicate customer")
			v.Add("", err.Error())
			return failedOutcome(1, v), nil
		}
		return nil, err
	}

	draft.Step1 = nil
	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		utils.LogWarn(err, "Failed to clear step 1 after saving customer", map[string]interface{}{"customer_id": customer.ID})
	}
	s.recordRegistered(ctx, customer, userID)
	return &Outcome{
		Success:     true,
		Message:     "Customer saved successfully",
		MessageType: MessageSuccess,
		RedirectURL: customerURL(customer.ID),
		Data:        customer,
	}, nil
}

func (s *registrationService) SubmitStep2(ctx context.Context, sessionID string, data models.Step2Data) (*Outcome, error) {
	if !data.Intent.IsValid() {
		v := newValidationError("invalid intent")
		v.Add("intent", "Select a valid option: service, sales or inquiry")
		return failedOutcome(2, v), nil
	}
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	draft.Step2 = &data
	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}

	next := 3
	if data.Intent == models.IntentInquiry {
		next = 4
	}
	return &Outcome{Success: true, NextStep: next, RedirectURL: stepURL(next)}, nil
}

func (s *registrationService) SubmitStep3(ctx context.Context, sessionID string, data models.Step3Data) (*Outcome, error) {
	if !data.ServiceType.IsValid() {
		v := newValidationError("invalid service type")
		v.Add("service_type", "Select a valid option: tire_sales or car_service")
		return failedOutcome(3, v), nil
	}
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	draft.Step3 = &data
	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return &Outcome{Success: true, NextStep: 4, RedirectURL: stepURL(4)}, nil
}

func (s *registrationService) LoadStep(ctx context.Context, sessionID string, step int) (interface{}, error) {
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch step {
	case 1:
		return draft.Step1, nil
	case 2:
		return draft.Step2, nil
	case 3:
		return draft.Step3, nil
	case 4:
		return draft, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
}

func (s *registrationService) Reset(ctx context.Context, sessionID string) error {
	return s.drafts.Clear(ctx, sessionID)
}

type finalizeBranch int

const (
	branchTireSales finalizeBranch = iota
	branchCarService
	branchInquiry
)

func (s *registrationService) Finalize(ctx context.Context, sessionID string, req FinalizeRequest, userID *int64) (*Outcome, error) {
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if draft.Step1 == nil {
		return &Outcome{
			Success:     false,
			Message:     "Missing customer information. Please start from Step 1.",
			MessageType: MessageError,
			NextStep:    1,
			RedirectURL: stepURL(1),
		}, nil
	}
	if draft.Step2 == nil {
		return &Outcome{
			Success:     false,
			Message:     "Missing visit intent. Please complete Step 2.",
			MessageType: MessageError,
			NextStep:    2,
			RedirectURL: stepURL(2),
		}, nil
	}

	var branch finalizeBranch
	switch draft.Step2.Intent {
	case models.IntentInquiry:
		branch = branchInquiry
	case models.IntentSales:
		branch = branchTireSales
	default:
		if draft.Step3 == nil {
			return &Outcome{
				Success:     false,
				Message:     "Missing service type. Please complete Step 3.",
				MessageType: MessageError,
				NextStep:    3,
				RedirectURL: stepURL(3),
			}, nil
		}
		branch = branchCarService
		if draft.Step3.ServiceType == models.ServiceTypeTireSales {
			branch = branchTireSales
		}
	}

	step1 := *draft.Step1
	existing, err := s.customerRepo.FindByNameAndPhone(ctx, nil, step1.FullName, step1.Phone)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing customer: %w", err)
	}
	if existing != nil {
		return &Outcome{
			Success:     true,
			Message:     fmt.Sprintf("Customer '%s' with phone '%s' already exists. You've been redirected to their profile.", existing.FullName, existing.Phone),
			MessageType: MessageInfo,
			RedirectURL: customerURL(existing.ID),
		}, nil
	}

	var (
		spec    OrderSpec
		vehicle *models.Vehicle
	)
	switch branch {
	case branchTireSales:
		var outcome *Outcome
		spec, outcome, err = s.tireSalesSpec(ctx, req)
		if err != nil || outcome != nil {
			return outcome, err
		}
	case branchCarService:
		description := "Car Service"
		if labels := serviceLabels(req.SelectedServices); len(labels) > 0 {
			description += ", services: " + strings.Join(labels, ", ")
		}
		spec = ServiceOrder{Description: description, EstimatedDuration: req.EstimatedDuration}
		if req.PlateNumber != "" || req.Make != "" || req.Model != "" {
			vehicle, err = vehicleFromRequest(VehicleRequest{
				PlateNumber: req.PlateNumber,
				Make:        &req.Make,
				Model:       &req.Model,
				VehicleType: &req.VehicleType,
			})
			if err != nil {
				var v *ValidationError
				if errors.As(err, &v) {
					return failedOutcome(4, v), nil
				}
				return nil, err
			}
		}
	case branchInquiry:
		followUp, dateErr := parseOptionalDate(req.FollowUpDate)
		if dateErr != nil {
			v := newValidationError("invalid inquiry")
			v.Add("follow_up_date", "Use the YYYY-MM-DD format")
			return failedOutcome(4, v), nil
		}
		spec = ConsultationOrder{
			InquiryType:       req.InquiryType,
			Questions:         req.Questions,
			ContactPreference: req.ContactPreference,
			FollowUpDate:      followUp,
			Description:       fmt.Sprintf("Inquiry: %s - %s", req.InquiryType, req.Questions),
		}
	}

	v := newValidationError("invalid order details")
	spec.validate(v)
	if req.Priority != "" && !models.Priority(req.Priority).IsValid() {
		v.Add("priority", fmt.Sprintf("'%s' is not a valid priority", req.Priority))
	}
	if v.HasErrors() {
		return failedOutcome(4, v), nil
	}

	customer := customerFromIdentity(step1)
	switch {
	case strings.TrimSpace(req.Notes) != "":
		customer.Notes = utils.NewNullString(req.Notes)
	case strings.TrimSpace(req.AdditionalNotes) != "":
		customer.Notes = utils.NewNullString(req.AdditionalNotes)
	}

	var (
		order    *models.Order
		warnings []string
	)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.customers.CreateCustomerTx(ctx, exec, customer); err != nil {
			return err
		}
		var vehicleID *int64
		if vehicle != nil {
			vehicle.CustomerID = customer.ID
			if _, err := s.vehicleRepo.CreateVehicle(ctx, exec, vehicle); err != nil {
				return fmt.Errorf("failed to create vehicle: %w", err)
			}
			vehicleID = &vehicle.ID
		}
		var err error
		order, warnings, err = s.orders.CreateOrderTx(ctx, exec, NewOrder{
			CustomerID: customer.ID,
			VehicleID:  vehicleID,
			Priority:   models.Priority(req.Priority),
			Spec:       spec,
			UserID:     userID,
		})
		return err
	})
	if err != nil {
		var v *ValidationError
		switch {
		case errors.Is(err, ErrDuplicateCustomer):
			v = newValidationError("duplicate customer")
			v.Add("", err.Error())
		case errors.Is(err, ErrInsufficientStock):
			v = newValidationError("insufficient stock")
			v.Add("quantity", strings.TrimPrefix(err.Error(), ErrInsufficientStock.Error()+": "))
		case errors.As(err, &v):
		default:
			return nil, err
		}
		return failedOutcome(4, v), nil
	}

	s.orders.OrderCreated(ctx, order)
	s.recordRegistered(ctx, customer, userID)
	if err := s.drafts.Clear(ctx, sessionID); err != nil {
		utils.LogWarn(err, "Failed to clear registration draft", map[string]interface{}{"customer_id": customer.ID})
	}

	message := "Customer registered and order created successfully"
	messageType := MessageSuccess
	if len(warnings) > 0 {
		message += ". " + strings.Join(warnings, "; ")
		messageType = MessageWarning
	}
	return &Outcome{
		Success:     true,
		Message:     message,
		MessageType: messageType,
		RedirectURL: customerURL(customer.ID),
		Data: map[string]interface{}{
			"customer": customer,
			"vehicle":  vehicle,
			"order":    order,
		},
	}, nil
}

// tireSalesSpec resolves brand and item and checks stock. A non-nil Outcome is a user-facing failure.
func (s *registrationService) tireSalesSpec(ctx context.Context, req FinalizeRequest) (OrderSpec, *Outcome, error) {
	v := newValidationError("invalid tire sale")
	if strings.TrimSpace(req.ItemName) == "" {
		v.Add("item_name", "Item is required for tire sales")
	}
	if strings.TrimSpace(req.Brand) == "" {
		v.Add("brand", "Brand is required for tire sales")
	}
	if req.Quantity < 1 {
		v.Add("quantity", "Quantity must be at least 1")
	}
	if v.HasErrors() {
		return nil, failedOutcome(4, v), nil
	}

	brand, err := s.inventory.ResolveBrand(ctx, nil, req.Brand)
	if err != nil {
		if errors.Is(err, ErrBrandNotFound) {
			v.Add("brand", fmt.Sprintf("Brand \"%s\" not found", req.Brand))
			return nil, failedOutcome(4, v), nil
		}
		return nil, nil, err
	}

	itemName := strings.TrimSpace(req.ItemName)
	item, err := s.inventoryRepo.FindItemByNameAndBrandID(ctx, nil, itemName, brand.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			v.Add("item_name", fmt.Sprintf("Item \"%s\" not found for brand \"%s\" in inventory", itemName, brand.Name))
			return nil, failedOutcome(4, v), nil
		}
		return nil, nil, fmt.Errorf("failed to look up inventory item: %w", err)
	}
	if item.Quantity < req.Quantity {
		v.Add("quantity", fmt.Sprintf("Only %d in stock for %s (%s)", item.Quantity, item.Name, brand.Name))
		return nil, failedOutcome(4, v), nil
	}

	description := fmt.Sprintf("Tire Sales: %s (%s) - %s", item.Name, brand.Name, req.TireType)
	if addons := serviceLabels(req.Addons); len(addons) > 0 {
		description += ", addons: " + strings.Join(addons, ", ")
	}
	return SalesOrder{
		ItemName:    item.Name,
		Brand:       brand.Name,
		Quantity:    req.Quantity,
		TireType:    req.TireType,
		Description: description,
	}, nil, nil
}

func (s *registrationService) recordRegistered(ctx context.Context, customer *models.Customer, userID *int64) {
	payload := map[string]interface{}{
		"customer_id":   customer.ID,
		"customer_type": customer.CustomerType,
	}
	if userID != nil {
		payload["registered_by"] = *userID
	}
	s.recorder.Record(ctx, audit.NewEvent(audit.EventCustomerRegistered, customer.Code, payload))
}
