package models

import "time"

// Intent is what the customer came in for. It only routes the wizard.
type Intent string

const (
	IntentService Intent = "service"
	IntentSales   Intent = "sales"
	IntentInquiry Intent = "inquiry"
)

func (i Intent) IsValid() bool {
	return i == IntentService || i == IntentSales || i == IntentInquiry
}

type ServiceType string

const (
	ServiceTypeTireSales  ServiceType = "tire_sales"
	ServiceTypeCarService ServiceType = "car_service"
)

func (s ServiceType) IsValid() bool {
	return s == ServiceTypeTireSales || s == ServiceTypeCarService
}

// Step1Data holds identity fields collected on the first wizard step.
type Step1Data struct {
	FullName         string       `json:"full_name"`
	Phone            string       `json:"phone"`
	Email            string       `json:"email,omitempty"`
	Address          string       `json:"address,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	CustomerType     CustomerType `json:"customer_type"`
	OrganizationName string       `json:"organization_name,omitempty"`
	TaxNumber        string       `json:"tax_number,omitempty"`
	PersonalSubtype  string       `json:"personal_subtype,omitempty"`
}

type Step2Data struct {
	Intent Intent `json:"intent"`
}

type Step3Data struct {
	ServiceType ServiceType `json:"service_type"`
}

// RegistrationDraft is the serialized wizard state kept per session.
// A nil step has not been submitted yet.
type RegistrationDraft struct {
	Step1     *Step1Data `json:"step1,omitempty"`
	Step2     *Step2Data `json:"step2,omitempty"`
	Step3     *Step3Data `json:"step3,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsEmpty reports whether no step has been stored.
func (d *RegistrationDraft) IsEmpty() bool {
	return d == nil || (d.Step1 == nil && d.Step2 == nil && d.Step3 == nil)
}
