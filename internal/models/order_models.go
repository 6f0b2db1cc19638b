package models

import "time"

// OrderType is the kind of work an order represents.
type OrderType string

const (
	OrderTypeService      OrderType = "service"
	OrderTypeSales        OrderType = "sales"
	OrderTypeConsultation OrderType = "consultation"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeService || t == OrderTypeSales || t == OrderTypeConsultation
}

// OrderStatus is the lifecycle position of an order.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus returns false for anything outside the closed set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusCreated, OrderStatusAssigned, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// IsTerminal is true for completed and cancelled.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Order is the transactional record for a customer visit.
type Order struct {
	ID                int64       `json:"id" db:"id"`
	OrderNumber       string      `json:"order_number" db:"order_number"`
	CustomerID        int64       `json:"customer_id" db:"customer_id"`
	VehicleID         *int64      `json:"vehicle_id,omitempty" db:"vehicle_id"`
	Type              OrderType   `json:"type" db:"type"`
	Status            OrderStatus `json:"status" db:"status"`
	Priority          Priority    `json:"priority" db:"priority"`
	Description       *string     `json:"description,omitempty" db:"description"`
	EstimatedDuration *int        `json:"estimated_duration,omitempty" db:"estimated_duration"`
	ActualDuration    *int        `json:"actual_duration,omitempty" db:"actual_duration"`

	// Sales fields
	ItemName *string `json:"item_name,omitempty" db:"item_name"`
	Brand    *string `json:"brand,omitempty" db:"brand"`
	Quantity *int    `json:"quantity,omitempty" db:"quantity"`
	TireType *string `json:"tire_type,omitempty" db:"tire_type"`

	// Consultation fields
	InquiryType       *string    `json:"inquiry_type,omitempty" db:"inquiry_type"`
	Questions         *string    `json:"questions,omitempty" db:"questions"`
	ContactPreference *string    `json:"contact_preference,omitempty" db:"contact_preference"`
	FollowUpDate      *time.Time `json:"follow_up_date,omitempty" db:"follow_up_date"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	AssignedTo  *int64     `json:"assigned_to,omitempty" db:"assigned_to"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	CustomerName *string `json:"customer_name,omitempty" db:"customer_name"` // joined in listings
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	CustomerID *int64  `form:"customer_id"`
	Status     *string `form:"status"`
	Type       *string `form:"type"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
