package models

import "time"

// CustomerType classifies who the customer is.
type CustomerType string

const (
	CustomerTypeGovernment CustomerType = "government"
	CustomerTypeNGO        CustomerType = "ngo"
	CustomerTypeCompany    CustomerType = "company"
	CustomerTypePersonal   CustomerType = "personal"
	CustomerTypeBodaboda   CustomerType = "bodaboda"
)

// IsValid reports whether t is one of the known customer types.
func (t CustomerType) IsValid() bool {
	switch t {
	case CustomerTypeGovernment, CustomerTypeNGO, CustomerTypeCompany, CustomerTypePersonal, CustomerTypeBodaboda:
		return true
	}
	return false
}

// IsOrganizational is true for types that require organization name and tax number.
func (t CustomerType) IsOrganizational() bool {
	return t == CustomerTypeGovernment || t == CustomerTypeNGO || t == CustomerTypeCompany
}

const (
	PersonalSubtypeOwner  = "owner"
	PersonalSubtypeDriver = "driver"
)

// CustomerStatus tracks where the customer is in the current visit.
type CustomerStatus string

const (
	CustomerStatusArrived   CustomerStatus = "arrived"
	CustomerStatusInService CustomerStatus = "in_service"
	CustomerStatusCompleted CustomerStatus = "completed"
	CustomerStatusDeparted  CustomerStatus = "departed"
)

// Customer represents a registered customer of the workshop.
type Customer struct {
	ID               int64          `json:"id" db:"id"`
	Code             string         `json:"code" db:"code"`
	FullName         string         `json:"full_name" db:"full_name"`
	Phone            string         `json:"phone" db:"phone"`
	Email            *string        `json:"email,omitempty" db:"email"`
	Address          *string        `json:"address,omitempty" db:"address"`
	Notes            *string        `json:"notes,omitempty" db:"notes"`
	CustomerType     CustomerType   `json:"customer_type" db:"customer_type"`
	OrganizationName *string        `json:"organization_name,omitempty" db:"organization_name"`
	TaxNumber        *string        `json:"tax_number,omitempty" db:"tax_number"`
	PersonalSubtype  *string        `json:"personal_subtype,omitempty" db:"personal_subtype"`
	RegistrationDate time.Time      `json:"registration_date" db:"registration_date"`
	ArrivalTime      *time.Time     `json:"arrival_time,omitempty" db:"arrival_time"`
	CurrentStatus    CustomerStatus `json:"current_status" db:"current_status"`
	TotalVisits      int            `json:"total_visits" db:"total_visits"`
	TotalSpent       float64        `json:"total_spent" db:"total_spent"`
	LastVisit        *time.Time     `json:"last_visit,omitempty" db:"last_visit"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
	Vehicles         []Vehicle      `json:"vehicles,omitempty"`
}

// Vehicle belongs to exactly one customer.
type Vehicle struct {
	ID          int64     `json:"id" db:"id"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Make        *string   `json:"make,omitempty" db:"make"`
	Model       *string   `json:"model,omitempty" db:"model"`
	VehicleType *string   `json:"vehicle_type,omitempty" db:"vehicle_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CustomerFilters defines the available filters for listing customers.
type CustomerFilters struct {
	Search       string `form:"search"`
	CustomerType string `form:"customer_type"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}
