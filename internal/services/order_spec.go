package services

import (
	"fmt"
	"strings"
	"time"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/pkg/utils"
)

// serviceOptionLabels maps selectable service keys to the labels written into descriptions.
var serviceOptionLabels = map[string]string{
	"oil_change":          "Oil Change",
	"engine_diagnostics":  "Engine Diagnostics",
	"brake_repair":        "Brake Repair",
	"tire_rotation":       "Tire Rotation",
	"wheel_alignment":     "Wheel Alignment",
	"battery_check":       "Battery Check",
	"fluid_top_up":        "Fluid Top-up",
	"general_maintenance": "General Maintenance",
}

// serviceLabels turns option keys into labels; unknown keys pass through unchanged.
func serviceLabels(keys []string) []string {
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if label, ok := serviceOptionLabels[k]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, k)
		}
	}
	return labels
}

// OrderSpec is the type-specific part of an order. Only the three types in
// this file implement it.
type OrderSpec interface {
	Type() models.OrderType
	validate(v *ValidationError)
	apply(o *models.Order)
}

// ServiceOrder is workshop labour on a vehicle.
type ServiceOrder struct {
	Description       string
	EstimatedDuration *int
	SelectedServices  []string
}

func (ServiceOrder) Type() models.OrderType { return models.OrderTypeService }

func (s ServiceOrder) validate(v *ValidationError) {
	if strings.TrimSpace(s.Description) == "" && len(s.SelectedServices) == 0 {
		v.Add("description", "Description is required for service orders")
	}
	if s.EstimatedDuration != nil && *s.EstimatedDuration <= 0 {
		v.Add("estimated_duration", "Estimated duration must be a positive number of minutes")
	}
}

func (s ServiceOrder) apply(o *models.Order) {
	description := strings.TrimSpace(s.Description)
	if labels := serviceLabels(s.SelectedServices); len(labels) > 0 {
		selected := "Selected services: " + strings.Join(labels, ", ")
		if description == "" {
			description = selected
		} else {
			description += "\n" + selected
		}
	}
	o.Description = utils.NewNullString(description)
	o.EstimatedDuration = s.EstimatedDuration
}

// SalesOrder sells stock and deducts it from the ledger.
type SalesOrder struct {
	ItemName    string
	Brand       string
	Quantity    int
	TireType    string
	Description string
}

func (SalesOrder) Type() models.OrderType { return models.OrderTypeSales }

func (s SalesOrder) validate(v *ValidationError) {
	if strings.TrimSpace(s.ItemName) == "" {
		v.Add("item_name", "Item name is required for sales orders")
	}
	if strings.TrimSpace(s.Brand) == "" {
		v.Add("brand", "Brand is required for sales orders")
	}
	if s.Quantity < 1 {
		v.Add("quantity", "Quantity must be at least 1")
	}
}

func (s SalesOrder) apply(o *models.Order) {
	item := strings.TrimSpace(s.ItemName)
	brand := strings.TrimSpace(s.Brand)
	quantity := s.Quantity
	o.ItemName = &item
	o.Brand = &brand
	o.Quantity = &quantity
	o.TireType = utils.NewNullString(s.TireType)
	o.Description = utils.NewNullString(s.Description)
}

// ConsultationOrder records an inquiry and how to follow it up.
type ConsultationOrder struct {
	InquiryType       string
	Questions         string
	ContactPreference string
	FollowUpDate      *time.Time
	Description       string
}

func (ConsultationOrder) Type() models.OrderType { return models.OrderTypeConsultation }

func (c ConsultationOrder) validate(v *ValidationError) {
	if strings.TrimSpace(c.InquiryType) == "" {
		v.Add("inquiry_type", "Inquiry type is required for consultation orders")
	}
	if strings.TrimSpace(c.Questions) == "" {
		v.Add("questions", "Questions are required for consultation orders")
	}
}

func (c ConsultationOrder) apply(o *models.Order) {
	o.InquiryType = utils.NewNullString(c.InquiryType)
	o.Questions = utils.NewNullString(c.Questions)
	o.ContactPreference = utils.NewNullString(c.ContactPreference)
	o.FollowUpDate = c.FollowUpDate
	o.Description = utils.NewNullString(c.Description)
}

// CreateOrderRequest is the flat JSON form of an order; Spec turns it into the typed variant.
type CreateOrderRequest struct {
	Type              string   `json:"type" binding:"required"`
	Priority          string   `json:"priority"`
	VehicleID         *int64   `json:"vehicle_id"`
	AssignedTo        *int64   `json:"assigned_to"`
	Description       string   `json:"description"`
	EstimatedDuration *int     `json:"estimated_duration"`
	SelectedServices  []string `json:"selected_services"`
	ItemName          string   `json:"item_name"`
	Brand             string   `json:"brand"`
	Quantity          int      `json:"quantity"`
	TireType          string   `json:"tire_type"`
	InquiryType       string   `json:"inquiry_type"`
	Questions         string   `json:"questions"`
	ContactPreference string   `json:"contact_preference"`
	FollowUpDate      string   `json:"follow_up_date"` // YYYY-MM-DD
}

// Spec validates the request and returns its typed variant. The API form
// additionally requires an estimated duration on service orders.
func (r CreateOrderRequest) Spec() (OrderSpec, error) {
	v := newValidationError("invalid order")
	var spec OrderSpec
	switch models.OrderType(r.Type) {
	case models.OrderTypeService:
		if r.EstimatedDuration == nil {
			v.Add("estimated_duration", "Estimated duration is required for service orders")
		}
		spec = ServiceOrder{Description: r.Description, EstimatedDuration: r.EstimatedDuration, SelectedServices: r.SelectedServices}
	case models.OrderTypeSales:
		spec = SalesOrder{ItemName: r.ItemName, Brand: r.Brand, Quantity: r.Quantity, TireType: r.TireType, Description: r.Description}
	case models.OrderTypeConsultation:
		followUp, err := parseOptionalDate(r.FollowUpDate)
		if err != nil {
			v.Add("follow_up_date", "Use the YYYY-MM-DD format")
		}
		spec = ConsultationOrder{
			InquiryType:       r.InquiryType,
			Questions:         r.Questions,
			ContactPreference: r.ContactPreference,
			FollowUpDate:      followUp,
			Description:       r.Description,
		}
	default:
		v.Add("type", fmt.Sprintf("'%s' is not a valid order type", r.Type))
		return nil, v
	}
	if r.Priority != "" && !models.Priority(r.Priority).IsValid() {
		v.Add("priority", fmt.Sprintf("'%s' is not a valid priority", r.Priority))
	}
	spec.validate(v)
	if err := v.orNil(); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
