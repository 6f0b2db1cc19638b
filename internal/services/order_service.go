package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/metrics"
	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// allowedTransitions lists, per current status, the statuses an order may move to.
// Forward moves may skip steps; staying put re-stamps the current status.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusCreated: {
		models.OrderStatusCreated, models.OrderStatusAssigned, models.OrderStatusInProgress,
		models.OrderStatusCompleted, models.OrderStatusCancelled,
	},
	models.OrderStatusAssigned: {
		models.OrderStatusAssigned, models.OrderStatusInProgress, models.OrderStatusCompleted, models.OrderStatusCancelled,
	},
	models.OrderStatusInProgress: {
		models.OrderStatusInProgress, models.OrderStatusCompleted, models.OrderStatusCancelled,
	},
	models.OrderStatusCompleted: {models.OrderStatusCompleted},
	models.OrderStatusCancelled: {models.OrderStatusCancelled},
}

// CanTransition reports whether an order in from may be moved to to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// statusStamps sets the lifecycle fields owned by each status.
var statusStamps = map[models.OrderStatus]func(o *models.Order, now time.Time){
	models.OrderStatusAssigned: func(o *models.Order, now time.Time) {
		o.AssignedAt = &now
	},
	models.OrderStatusInProgress: func(o *models.Order, now time.Time) {
		o.StartedAt = &now
	},
	models.OrderStatusCompleted: func(o *models.Order, now time.Time) {
		o.CompletedAt = &now
		if o.StartedAt != nil {
			minutes := int(now.Sub(*o.StartedAt).Minutes())
			o.ActualDuration = &minutes
		}
	},
	models.OrderStatusCancelled: func(o *models.Order, now time.Time) {
		o.CancelledAt = &now
	},
}

// --- Order DTOs ---

// NewOrder is everything needed to insert an order inside an existing transaction.
type NewOrder struct {
	CustomerID int64
	VehicleID  *int64
	AssignedTo *int64
	Priority   models.Priority
	Spec       OrderSpec
	UserID     *int64
}

// OrderResult separates the committed order from best-effort warnings.
type OrderResult struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

type UpdateOrderRequest struct {
	Priority          *string `json:"priority"`
	VehicleID         *int64  `json:"vehicle_id"`
	AssignedTo        *int64  `json:"assigned_to"`
	Description       *string `json:"description"`
	EstimatedDuration *int    `json:"estimated_duration"`
	TireType          *string `json:"tire_type"`
	InquiryType       *string `json:"inquiry_type"`
	Questions         *string `json:"questions"`
	ContactPreference *string `json:"contact_preference"`
	FollowUpDate      *string `json:"follow_up_date"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(ctx context.Context, customerID int64, req CreateOrderRequest, userID *int64) (*OrderResult, error)
	// CheckStock fails with ErrInsufficientStock when a sales spec asks for more than is available.
	CheckStock(ctx context.Context, spec OrderSpec) error
	// CreateOrderTx inserts the order, bumps the customer's visits and deducts
	// stock for sales orders, all inside exec. Call OrderCreated after commit.
	CreateOrderTx(ctx context.Context, exec repositories.SQLExecutor, req NewOrder) (*models.Order, []string, error)
	OrderCreated(ctx context.Context, order *models.Order)

	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetRecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, req UpdateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string, userID *int64) (*OrderResult, error)
	DeleteOrder(ctx context.Context, orderID int64) error
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo    repositories.OrderRepository
	customerRepo repositories.CustomerRepository
	inventory    InventoryService
	tx           repositories.TxManager
	recorder     audit.Recorder
	now          func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	cr repositories.CustomerRepository,
	inventory InventoryService,
	tx repositories.TxManager,
	recorder audit.Recorder,
) OrderService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &orderService{
		orderRepo:    or,
		customerRepo: cr,
		inventory:    inventory,
		tx:           tx,
		recorder:     recorder,
		now:          time.Now,
	}
}

// --- Method Implementations ---

func (s *orderService) CheckStock(ctx context.Context, spec OrderSpec) error {
	sale, ok := spec.(SalesOrder)
	if !ok {
		return nil
	}
	available, err := s.inventory.AvailableStock(ctx, sale.ItemName, sale.Brand)
	if err != nil {
		return err
	}
	if available < sale.Quantity {
		metrics.RecordInsufficientStock()
		return fmt.Errorf("%w: Only %d in stock for %s (%s)", ErrInsufficientStock, available, sale.ItemName, sale.Brand)
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, customerID int64, req CreateOrderRequest, userID *int64) (*OrderResult, error) {
	spec, err := req.Spec()
	if err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.GetCustomerByID(ctx, nil, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer for order: %w", err)
	}
	if err := s.CheckStock(ctx, spec); err != nil {
		return nil, err
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		priority = models.Priority(req.Priority)
	}

	var (
		order    *models.Order
		warnings []string
	)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		order, warnings, txErr = s.CreateOrderTx(ctx, exec, NewOrder{
			CustomerID: customerID,
			VehicleID:  req.VehicleID,
			AssignedTo: req.AssignedTo,
			Priority:   priority,
			Spec:       spec,
			UserID:     userID,
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.OrderCreated(ctx, order)
	created, err := s.GetOrderByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: created, Warnings: warnings}, nil
}

func (s *orderService) CreateOrderTx(ctx context.Context, exec repositories.SQLExecutor, req NewOrder) (*models.Order, []string, error) {
	if req.Spec == nil {
		return nil, nil, fmt.Errorf("%w: order type is required", ErrValidation)
	}
	v := newValidationError("invalid order")
	req.Spec.validate(v)
	if err := v.orNil(); err != nil {
		return nil, nil, err
	}

	number, err := uniqueIdentifier(ctx, orderNumberPrefix, func(ctx context.Context, n string) (bool, error) {
		return s.orderRepo.OrderNumberExists(ctx, exec, n)
	})
	if err != nil {
		return nil, nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	now := s.now()
	order := &models.Order{
		OrderNumber: number,
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		AssignedTo:  req.AssignedTo,
		Type:        req.Spec.Type(),
		Status:      models.OrderStatusCreated,
		Priority:    priority,
		CreatedAt:   now,
	}
	req.Spec.apply(order)

	if _, err := s.orderRepo.CreateOrder(ctx, exec, order); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, nil, fmt.Errorf("%w: customer %d or vehicle does not exist", ErrCustomerNotFound, req.CustomerID)
		}
		return nil, nil, fmt.Errorf("failed to create order record: %w", err)
	}
	if err := s.customerRepo.RecordVisit(ctx, exec, req.CustomerID, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, fmt.Errorf("failed to record customer visit: %w", err)
	}

	var warnings []string
	if sale, ok := req.Spec.(SalesOrder); ok {
		result, err := s.inventory.AdjustStockTx(ctx, exec, StockChange{
			ItemName:  sale.ItemName,
			BrandName: sale.Brand,
			Delta:     -sale.Quantity,
			Type:      models.AdjustmentRemoval,
			Reference: &order.OrderNumber,
			Notes:     utils.NewNullString("Sold on order " + order.OrderNumber),
			UserID:    req.UserID,
		})
		if err != nil {
			return nil, nil, err
		}
		if !result.Adjusted {
			warnings = append(warnings, fmt.Sprintf("Inventory item %s (%s) not found; stock was not deducted", sale.ItemName, sale.Brand))
		}
	}
	return order, warnings, nil
}

// OrderCreated runs the post-commit side effects of a new order.
func (s *orderService) OrderCreated(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	if order.Type == models.OrderTypeSales && order.ItemName != nil {
		s.inventory.InvalidateItem(ctx, *order.ItemName)
	}
	metrics.RecordOrderCreated(string(order.Type))
	s.recorder.Record(ctx, audit.NewEvent(audit.EventOrderCreated, order.OrderNumber, map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"type":        order.Type,
		"priority":    order.Priority,
	}))
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil {
		if _, ok := models.ParseOrderStatus(*filters.Status); !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, *filters.Status)
		}
	}
	if filters.Type != nil && !models.OrderType(*filters.Type).IsValid() {
		return nil, 0, fmt.Errorf("%w: invalid order type '%s'", ErrValidation, *filters.Type)
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	orders, total, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetRecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	orders, err := s.orderRepo.GetRecentActiveOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID int64, req UpdateOrderRequest) (*models.Order, error) {
	v := newValidationError("invalid order")
	var followUp *time.Time
	if req.FollowUpDate != nil {
		parsed, err := parseOptionalDate(*req.FollowUpDate)
		if err != nil {
			v.Add("follow_up_date", "Use the YYYY-MM-DD format")
		}
		followUp = parsed
	}
	if req.Priority != nil && !models.Priority(*req.Priority).IsValid() {
		v.Add("priority", fmt.Sprintf("'%s' is not a valid priority", *req.Priority))
	}
	if req.EstimatedDuration != nil && *req.EstimatedDuration <= 0 {
		v.Add("estimated_duration", "Estimated duration must be a positive number of minutes")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		order, err := s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order for update: %w", err)
		}
		if req.Priority != nil {
			order.Priority = models.Priority(*req.Priority)
		}
		if req.VehicleID != nil {
			order.VehicleID = req.VehicleID
		}
		if req.AssignedTo != nil {
			order.AssignedTo = req.AssignedTo
		}
		if req.Description != nil {
			order.Description = utils.NewNullString(*req.Description)
		}
		if req.EstimatedDuration != nil {
			order.EstimatedDuration = req.EstimatedDuration
		}
		if req.TireType != nil {
			order.TireType = utils.NewNullString(*req.TireType)
		}
		if req.InquiryType != nil {
			order.InquiryType = utils.NewNullString(*req.InquiryType)
		}
		if req.Questions != nil {
			order.Questions = utils.NewNullString(*req.Questions)
		}
		if req.ContactPreference != nil {
			order.ContactPreference = utils.NewNullString(*req.ContactPreference)
		}
		if req.FollowUpDate != nil {
			order.FollowUpDate = followUp
		}
		return s.orderRepo.UpdateOrderDetails(ctx, exec, order)
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: vehicle or assignee does not exist", ErrValidation)
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return s.GetOrderByID(ctx, orderID)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string, userID *int64) (*OrderResult, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, status)
	}

	var (
		order    *models.Order
		previous models.OrderStatus
		warnings []string
		restock  *StockResult
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order for status update: %w", err)
		}
		previous = order.Status
		if !CanTransition(previous, target) {
			return fmt.Errorf("%w: cannot move order %s from %s to %s", ErrInvalidTransition, order.OrderNumber, previous, target)
		}

		now := s.now()
		order.Status = target
		if stamp, ok := statusStamps[target]; ok {
			stamp(order, now)
		}
		if err := s.orderRepo.UpdateOrderStatus(ctx, exec, order); err != nil {
			return fmt.Errorf("failed to update order status in repository: %w", err)
		}

		switch {
		case target == models.OrderStatusCompleted:
			// Billing is not tracked yet, so the visit adds nothing to total_spent.
			if err := s.customerRepo.MarkVisitCompleted(ctx, exec, order.CustomerID, now, 0); err != nil {
				return fmt.Errorf("failed to mark customer visit completed: %w", err)
			}
		case target == models.OrderStatusCancelled && previous != models.OrderStatusCancelled:
			restock, err = s.restockCancelled(ctx, exec, order, userID)
			if err != nil {
				return err
			}
			if restock != nil && !restock.Adjusted {
				warnings = append(warnings, fmt.Sprintf("Inventory item %s (%s) not found; stock was not returned",
					utils.StringValue(order.ItemName), utils.StringValue(order.Brand)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if restock != nil && restock.Adjusted {
		s.inventory.InvalidateItem(ctx, utils.StringValue(order.ItemName))
	}
	metrics.RecordOrderTransition(string(previous), string(target))
	s.recorder.Record(ctx, audit.NewEvent(audit.EventOrderStatusChanged, order.OrderNumber, map[string]interface{}{
		"order_id": order.ID,
		"from":     previous,
		"to":       target,
	}))
	for _, w := range warnings {
		utils.LogWarn(nil, w, map[string]interface{}{"order_number": order.OrderNumber})
	}

	updated, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: updated, Warnings: warnings}, nil
}

// restockCancelled returns a sales order's quantity to stock. Nil means nothing was owed.
func (s *orderService) restockCancelled(ctx context.Context, exec repositories.SQLExecutor, order *models.Order, userID *int64) (*StockResult, error) {
	if order.Type != models.OrderTypeSales || order.Quantity == nil || *order.Quantity <= 0 ||
		utils.StringValue(order.ItemName) == "" || utils.StringValue(order.Brand) == "" {
		return nil, nil
	}
	return s.inventory.AdjustStockTx(ctx, exec, StockChange{
		ItemName:  *order.ItemName,
		BrandName: *order.Brand,
		Delta:     *order.Quantity,
		Type:      models.AdjustmentReturn,
		Reference: &order.OrderNumber,
		Notes:     utils.NewNullString("Order " + order.OrderNumber + " cancelled"),
		UserID:    userID,
	})
}

// DeleteOrder removes the order only; stock is not returned.
func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	var order *models.Order
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		return s.orderRepo.DeleteOrder(ctx, exec, orderID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.recorder.Record(ctx, audit.NewEvent(audit.EventOrderDeleted, order.OrderNumber, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	}))
	return nil
}
