package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_tracker_backend/internal/models"
)

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Customer, error)
	GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) // Customers, total count, error
	UpdateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, exec SQLExecutor, id int64) error

	CodeExists(ctx context.Context, exec SQLExecutor, code string) (bool, error)
	// FindExactDuplicate matches name, phone and type exactly, plus organization and
	// tax number for organizational types. No normalization is applied.
	FindExactDuplicate(ctx context.Context, step models.Step1Data) (*models.Customer, error)
	// FindByNameAndPhone matches the name case-insensitively and the phone exactly.
	FindByNameAndPhone(ctx context.Context, exec SQLExecutor, fullName, phone string) (*models.Customer, error)
	// FindByName returns all customers whose name matches case-insensitively.
	FindByName(ctx context.Context, exec SQLExecutor, fullName string) ([]models.Customer, error)
	// FindIdentityConflict returns another customer already holding the
	// (full_name, phone, organization_name, tax_number) tuple of customer.
	FindIdentityConflict(ctx context.Context, exec SQLExecutor, customer *models.Customer) (*models.Customer, error)

	RecordVisit(ctx context.Context, exec SQLExecutor, customerID int64, at time.Time) error
	MarkVisitCompleted(ctx context.Context, exec SQLExecutor, customerID int64, at time.Time, spent float64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, code, full_name, phone, email, address, notes, customer_type, organization_name,
	tax_number, personal_subtype, registration_date, arrival_time, current_status, total_visits, total_spent,
	last_visit, created_at, updated_at`

func scanCustomer(s scanner, extra ...interface{}) (*models.Customer, error) {
	c := &models.Customer{}
	var arrival, lastVisit sql.NullTime
	dest := []interface{}{
		&c.ID, &c.Code, &c.FullName, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CustomerType,
		&c.OrganizationName, &c.TaxNumber, &c.PersonalSubtype, &c.RegistrationDate, &arrival,
		&c.CurrentStatus, &c.TotalVisits, &c.TotalSpent, &lastVisit, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.ArrivalTime = nullTime(&arrival)
	c.LastVisit = nullTime(&lastVisit)
	c.OrganizationName = emptyToNil(c.OrganizationName)
	c.TaxNumber = emptyToNil(c.TaxNumber)
	return c, nil
}

// identityValue stores a missing organization field as '' so the identity
// unique constraint also covers personal customers.
func identityValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// CreateCustomer inserts a new customer. Code must already be set.
func (r *customerRepository) CreateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (code, full_name, phone, email, address, notes, customer_type, organization_name,
	            tax_number, personal_subtype, registration_date, arrival_time, current_status, total_visits,
	            total_spent, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	          RETURNING id`

	currentTime := time.Now()
	if customer.RegistrationDate.IsZero() {
		customer.RegistrationDate = currentTime
	}
	if customer.ArrivalTime == nil {
		customer.ArrivalTime = &currentTime
	}
	if customer.CurrentStatus == "" {
		customer.CurrentStatus = models.CustomerStatusArrived
	}
	customer.CreatedAt = currentTime
	customer.UpdatedAt = currentTime

	err := exec.QueryRowContext(ctx, query,
		customer.Code, customer.FullName, customer.Phone, customer.Email, customer.Address, customer.Notes,
		customer.CustomerType, identityValue(customer.OrganizationName), identityValue(customer.TaxNumber), customer.PersonalSubtype,
		customer.RegistrationDate, customer.ArrivalTime, customer.CurrentStatus, customer.TotalVisits,
		customer.TotalSpent, customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating customer")
	}
	return customer.ID, nil
}

// GetCustomerByID retrieves a customer by ID. A nil exec reads outside any transaction.
func (r *customerRepository) GetCustomerByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Customer, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	customer, err := scanCustomer(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting customer by ID %d", id))
	}
	return customer, nil
}

// GetCustomers retrieves a list of customers with pagination and optional search.
func (r *customerRepository) GetCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() as total_count FROM customers`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d OR code ILIKE $%d OR organization_name ILIKE $%d)",
			argCount, argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}
	if filters.CustomerType != "" {
		conditions = append(conditions, fmt.Sprintf("customer_type = $%d", argCount))
		args = append(args, filters.CustomerType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY registration_date DESC, id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		customer, err := scanCustomer(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, *customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

// UpdateCustomer updates the editable identity fields of a customer.
func (r *customerRepository) UpdateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET
	            full_name = $1, phone = $2, email = $3, address = $4, notes = $5, customer_type = $6,
	            organization_name = $7, tax_number = $8, personal_subtype = $9, current_status = $10, updated_at = $11
	          WHERE id = $12`

	customer.UpdatedAt = time.Now()
	result, err := exec.ExecContext(ctx, query,
		customer.FullName, customer.Phone, customer.Email, customer.Address, customer.Notes, customer.CustomerType,
		identityValue(customer.OrganizationName), identityValue(customer.TaxNumber), customer.PersonalSubtype, customer.CurrentStatus,
		customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating customer ID %d", customer.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating customer ID %d", customer.ID))
}

// DeleteCustomer removes a customer; vehicles and orders cascade.
func (r *customerRepository) DeleteCustomer(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting customer ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting customer ID %d", id))
}

func (r *customerRepository) CodeExists(ctx context.Context, exec SQLExecutor, code string) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking customer code: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *customerRepository) FindExactDuplicate(ctx context.Context, step models.Step1Data) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
	          WHERE full_name = $1 AND phone = $2 AND customer_type = $3`
	args := []interface{}{step.FullName, step.Phone, step.CustomerType}
	if step.CustomerType.IsOrganizational() {
		query += ` AND organization_name = $4 AND tax_number = $5`
		args = append(args, step.OrganizationName, step.TaxNumber)
	}
	query += ` ORDER BY id LIMIT 1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapReadError(err, "checking duplicate customer")
	}
	return customer, nil
}

func (r *customerRepository) FindByNameAndPhone(ctx context.Context, exec SQLExecutor, fullName, phone string) (*models.Customer, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + customerColumns + ` FROM customers
	          WHERE LOWER(full_name) = LOWER($1) AND phone = $2 ORDER BY id LIMIT 1`
	customer, err := scanCustomer(exec.QueryRowContext(ctx, query, fullName, phone))
	if err != nil {
		return nil, mapReadError(err, "finding customer by name and phone")
	}
	return customer, nil
}

func (r *customerRepository) FindByName(ctx context.Context, exec SQLExecutor, fullName string) ([]models.Customer, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE LOWER(full_name) = LOWER($1) ORDER BY id`
	rows, err := exec.QueryContext(ctx, query, fullName)
	if err != nil {
		return nil, fmt.Errorf("%w: finding customers by name: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, *customer)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, nil
}

func (r *customerRepository) FindIdentityConflict(ctx context.Context, exec SQLExecutor, customer *models.Customer) (*models.Customer, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + customerColumns + ` FROM customers
	          WHERE full_name = $1 AND phone = $2 AND organization_name = $3 AND tax_number = $4 AND id <> $5
	          ORDER BY id LIMIT 1`
	existing, err := scanCustomer(exec.QueryRowContext(ctx, query,
		customer.FullName, customer.Phone, identityValue(customer.OrganizationName), identityValue(customer.TaxNumber), customer.ID))
	if err != nil {
		return nil, mapReadError(err, "checking customer identity conflict")
	}
	return existing, nil
}

// RecordVisit bumps total_visits and sets last_visit; called once per created order.
func (r *customerRepository) RecordVisit(ctx context.Context, exec SQLExecutor, customerID int64, at time.Time) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE customers SET total_visits = total_visits + 1, last_visit = $1, updated_at = $1 WHERE id = $2`,
		at, customerID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("recording visit for customer ID %d", customerID))
	}
	return expectAffected(result, fmt.Sprintf("recording visit for customer ID %d", customerID))
}

func (r *customerRepository) MarkVisitCompleted(ctx context.Context, exec SQLExecutor, customerID int64, at time.Time, spent float64) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE customers SET current_status = $1, last_visit = $2, total_spent = total_spent + $3, updated_at = $2 WHERE id = $4`,
		models.CustomerStatusCompleted, at, spent, customerID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("completing visit for customer ID %d", customerID))
	}
	return expectAffected(result, fmt.Sprintf("completing visit for customer ID %d", customerID))
}
