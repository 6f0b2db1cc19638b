package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"+255 712 345 678": true,
		"+255712345678":    true,
		"+255 712345 678":  true,
		"0712345678":       true,
		"071234567":        true,
		"0712345678901":    true,
		"07123456":         false,
		"07123456789012":   false,
		"712345678":        false,
		"+25 712 345 678":  false,
		"+255-712-345-678": false,
		"":                 false,
		"phone":            false,
	}
	for phone, want := range cases {
		assert.Equal(t, want, IsValidPhone(phone), phone)
	}
}

func TestCreateCustomerAssignsCode(t *testing.T) {
	env := newTestEnv()
	customer, err := env.customerSvc.CreateCustomer(context.Background(), CreateCustomerRequest{
		FullName:        "Jane Doe",
		Phone:           "0712345678",
		CustomerType:    "personal",
		PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(customer.Code, "CUST"))
	assert.Len(t, customer.Code, 12)
	assert.Equal(t, strings.ToUpper(customer.Code), customer.Code)
	assert.Zero(t, customer.TotalVisits)
	assert.Zero(t, customer.TotalSpent)
	assert.Equal(t, models.CustomerStatusArrived, customer.CurrentStatus)
	require.NotNil(t, customer.PersonalSubtype)
	assert.Equal(t, "owner", *customer.PersonalSubtype)
}

func TestCreateCustomerValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name   string
		req    CreateCustomerRequest
		fields []string
	}{
		{
			name:   "missing name and bad phone",
			req:    CreateCustomerRequest{Phone: "12", PersonalSubtype: strPtr("owner")},
			fields: []string{"full_name", "phone"},
		},
		{
			name:   "personal without subtype",
			req:    CreateCustomerRequest{FullName: "Jane Doe", Phone: "0712345678", CustomerType: "personal"},
			fields: []string{"personal_subtype"},
		},
		{
			name:   "company without organization details",
			req:    CreateCustomerRequest{FullName: "Acme Fleet", Phone: "0712345678", CustomerType: "company"},
			fields: []string{"organization_name", "tax_number"},
		},
		{
			name:   "unknown type",
			req:    CreateCustomerRequest{FullName: "Jane Doe", Phone: "0712345678", CustomerType: "alien"},
			fields: []string{"customer_type"},
		},
		{
			name:   "bad email",
			req:    CreateCustomerRequest{FullName: "Jane Doe", Phone: "0712345678", Email: strPtr("jane@"), PersonalSubtype: strPtr("driver")},
			fields: []string{"email"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.customerSvc.CreateCustomer(ctx, tc.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, env.customers.customers)
}

func TestPersonalSubtypeMessage(t *testing.T) {
	v := validateIdentity(models.Step1Data{FullName: "Jane Doe", Phone: "0712345678", CustomerType: models.CustomerTypePersonal})
	assert.Equal(t, []string{"Please specify if you are the owner or driver"}, v.Fields["personal_subtype"])
}

func TestCompanyDropsPersonalSubtype(t *testing.T) {
	env := newTestEnv()
	customer, err := env.customerSvc.CreateCustomer(context.Background(), CreateCustomerRequest{
		FullName:         "Acme Fleet",
		Phone:            "+255 712 345 678",
		CustomerType:     "company",
		OrganizationName: strPtr("Acme Ltd"),
		TaxNumber:        strPtr("TIN-100"),
		PersonalSubtype:  strPtr("owner"),
	})
	require.NoError(t, err)
	assert.Nil(t, customer.PersonalSubtype)
	assert.Equal(t, "Acme Ltd", *customer.OrganizationName)
}

func TestCreateCustomerRejectsExactDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	req := CreateCustomerRequest{FullName: "Jane Doe", Phone: "0712345678", CustomerType: "personal", PersonalSubtype: strPtr("owner")}

	first, err := env.customerSvc.CreateCustomer(ctx, req)
	require.NoError(t, err)

	_, err = env.customerSvc.CreateCustomer(ctx, req)
	require.ErrorIs(t, err, ErrDuplicateCustomer)
	var dup *DuplicateCustomerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.Existing.ID)
	assert.Len(t, env.customers.customers, 1)
}

func TestFindSimilarMatchesPhoneDigits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "+255 712 345 678", CustomerType: "personal", PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)

	found, err := env.customerSvc.FindSimilar(ctx, "jane doe", "712345678")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Jane Doe", found.FullName)

	found, err = env.customerSvc.FindSimilar(ctx, "Jane Doe", "0799999999")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Too few digits to compare.
	found, err = env.customerSvc.FindSimilar(ctx, "Jane Doe", "678")
	require.NoError(t, err)
	assert.Nil(t, found)

	check, err := env.customerSvc.CheckDuplicate(ctx, "JANE DOE", "255712345678")
	require.NoError(t, err)
	assert.True(t, check.Exists)
}

func TestQuickCreate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	customer, err := env.customerSvc.QuickCreate(ctx, QuickCreateRequest{FullName: "Walk In", Phone: "0755000111", CustomerType: "company"})
	require.NoError(t, err)
	assert.Equal(t, models.CustomerTypeCompany, customer.CustomerType)

	_, err = env.customerSvc.QuickCreate(ctx, QuickCreateRequest{FullName: "walk in", Phone: "0755000111"})
	var dup *DuplicateCustomerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, customer.ID, dup.Existing.ID)
}

func TestUpdateCustomer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "0712345678", PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)

	updated, err := env.customerSvc.UpdateCustomer(ctx, customer.ID, UpdateCustomerRequest{
		Phone:         strPtr("0799000111"),
		CurrentStatus: strPtr("in_service"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0799000111", updated.Phone)
	assert.Equal(t, models.CustomerStatusInService, updated.CurrentStatus)

	_, err = env.customerSvc.UpdateCustomer(ctx, customer.ID, UpdateCustomerRequest{CurrentStatus: strPtr("sleeping")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.customerSvc.UpdateCustomer(ctx, 404, UpdateCustomerRequest{})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestUpdateCustomerRejectsTakenIdentity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	jane, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "0712345678", PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)
	john, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "John Roe", Phone: "0722000111", PersonalSubtype: strPtr("driver"),
	})
	require.NoError(t, err)

	_, err = env.customerSvc.UpdateCustomer(ctx, john.ID, UpdateCustomerRequest{
		FullName: strPtr("Jane Doe"),
		Phone:    strPtr("0712345678"),
	})
	var dup *DuplicateCustomerError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, ErrDuplicateCustomer)
	assert.Equal(t, jane.ID, dup.Existing.ID)

	unchanged, err := env.customerSvc.GetCustomerByID(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Roe", unchanged.FullName)

	// Saving a customer's own identity again is not a conflict.
	_, err = env.customerSvc.UpdateCustomer(ctx, jane.ID, UpdateCustomerRequest{Notes: strPtr("regular")})
	assert.NoError(t, err)
}

func TestPersonalCustomersShareEmptyOrganizationIdentity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "0712345678", PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)

	// A bodaboda rider with the same name and phone differs only by type, which
	// the identity tuple does not include.
	_, err = env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "0712345678", CustomerType: "bodaboda",
	})
	assert.ErrorIs(t, err, ErrDuplicateCustomer)
}

func TestFindSimilarSkipsShortStoredPhones(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.customers.CreateCustomer(ctx, nil, &models.Customer{
		Code: "CUSTLEGACY01", FullName: "Jane Doe", Phone: "5678", CustomerType: models.CustomerTypePersonal,
	})
	require.NoError(t, err)

	found, err := env.customerSvc.FindSimilar(ctx, "Jane Doe", "0712345678")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestVehicles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer, err := env.customerSvc.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "Jane Doe", Phone: "0712345678", PersonalSubtype: strPtr("owner"),
	})
	require.NoError(t, err)

	vehicle, err := env.customerSvc.AddVehicle(ctx, customer.ID, VehicleRequest{PlateNumber: " t123 abc ", Make: strPtr("Toyota")})
	require.NoError(t, err)
	assert.Equal(t, "T123 ABC", vehicle.PlateNumber)

	_, err = env.customerSvc.AddVehicle(ctx, customer.ID, VehicleRequest{PlateNumber: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.customerSvc.AddVehicle(ctx, 77, VehicleRequest{PlateNumber: "X1"})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	loaded, err := env.customerSvc.GetCustomerByID(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Vehicles, 1)

	renamed, err := env.customerSvc.UpdateVehicle(ctx, vehicle.ID, VehicleRequest{PlateNumber: "t999"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, renamed.CustomerID)
	assert.Equal(t, "T999", renamed.PlateNumber)

	require.NoError(t, env.customerSvc.DeleteVehicle(ctx, vehicle.ID))
	assert.ErrorIs(t, env.customerSvc.DeleteVehicle(ctx, vehicle.ID), ErrVehicleNotFound)
}
