package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_tracker_backend/internal/models"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	CreateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) (int64, error)
	OrderNumberExists(ctx context.Context, exec SQLExecutor, orderNumber string) (bool, error)
	GetOrderByID(ctx context.Context, exec SQLExecutor, orderID int64) (*models.Order, error)
	// GetOrderForUpdate locks the row for the rest of the transaction.
	GetOrderForUpdate(ctx context.Context, exec SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	GetRecentActiveOrders(ctx context.Context, limit int) ([]models.Order, error)
	UpdateOrderDetails(ctx context.Context, exec SQLExecutor, order *models.Order) error
	// UpdateOrderStatus persists status, lifecycle timestamps and actual duration.
	UpdateOrderStatus(ctx context.Context, exec SQLExecutor, order *models.Order) error
	DeleteOrder(ctx context.Context, exec SQLExecutor, orderID int64) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.order_number, o.customer_id, o.vehicle_id, o.type, o.status, o.priority, o.description,
	o.estimated_duration, o.actual_duration, o.item_name, o.brand, o.quantity, o.tire_type, o.inquiry_type,
	o.questions, o.contact_preference, o.follow_up_date, o.created_at, o.assigned_at, o.started_at,
	o.completed_at, o.cancelled_at, o.assigned_to, o.updated_at`

func scanOrder(s scanner, extra ...interface{}) (*models.Order, error) {
	o := &models.Order{}
	var followUp, assignedAt, startedAt, completedAt, cancelledAt sql.NullTime
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.VehicleID, &o.Type, &o.Status, &o.Priority, &o.Description,
		&o.EstimatedDuration, &o.ActualDuration, &o.ItemName, &o.Brand, &o.Quantity, &o.TireType, &o.InquiryType,
		&o.Questions, &o.ContactPreference, &followUp, &o.CreatedAt, &assignedAt, &startedAt,
		&completedAt, &cancelledAt, &o.AssignedTo, &o.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.FollowUpDate = nullTime(&followUp)
	o.AssignedAt = nullTime(&assignedAt)
	o.StartedAt = nullTime(&startedAt)
	o.CompletedAt = nullTime(&completedAt)
	o.CancelledAt = nullTime(&cancelledAt)
	return o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (order_number, customer_id, vehicle_id, type, status, priority, description, estimated_duration,
	             item_name, brand, quantity, tire_type, inquiry_type, questions, contact_preference, follow_up_date,
	             assigned_to, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt

	err := exec.QueryRowContext(ctx, query,
		order.OrderNumber, order.CustomerID, order.VehicleID, order.Type, order.Status, order.Priority,
		order.Description, order.EstimatedDuration, order.ItemName, order.Brand, order.Quantity, order.TireType,
		order.InquiryType, order.Questions, order.ContactPreference, order.FollowUpDate, order.AssignedTo,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating order")
	}
	return order.ID, nil
}

func (r *orderRepository) OrderNumberExists(ctx context.Context, exec SQLExecutor, orderNumber string) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking order number: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, exec SQLExecutor, orderID int64) (*models.Order, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + orderColumns + `, c.full_name FROM orders o
	          JOIN customers c ON c.id = o.customer_id WHERE o.id = $1`
	var customerName sql.NullString
	order, err := scanOrder(exec.QueryRowContext(ctx, query, orderID), &customerName)
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting order by ID %d", orderID))
	}
	if customerName.Valid {
		order.CustomerName = &customerName.String
	}
	return order, nil
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, exec SQLExecutor, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1 FOR UPDATE`
	order, err := scanOrder(exec.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("locking order ID %d", orderID))
	}
	return order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, c.full_name, COUNT(*) OVER() as total_count
	                          FROM orders o JOIN customers c ON c.id = o.customer_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("o.type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")

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
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var customerName sql.NullString
		order, err := scanOrder(rows, &customerName, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if customerName.Valid {
			order.CustomerName = &customerName.String
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// GetRecentActiveOrders returns the newest orders that are not yet terminal.
func (r *orderRepository) GetRecentActiveOrders(ctx context.Context, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `, c.full_name FROM orders o
	          JOIN customers c ON c.id = o.customer_id
	          WHERE o.status IN ('created', 'assigned', 'in_progress')
	          ORDER BY o.created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recent orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var customerName sql.NullString
		order, err := scanOrder(rows, &customerName)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if customerName.Valid {
			order.CustomerName = &customerName.String
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateOrderDetails(ctx context.Context, exec SQLExecutor, order *models.Order) error {
	query := `UPDATE orders SET
	            vehicle_id = $1, priority = $2, description = $3, estimated_duration = $4, tire_type = $5,
	            inquiry_type = $6, questions = $7, contact_preference = $8, follow_up_date = $9, assigned_to = $10,
	            updated_at = $11
	          WHERE id = $12`
	order.UpdatedAt = time.Now()
	result, err := exec.ExecContext(ctx, query,
		order.VehicleID, order.Priority, order.Description, order.EstimatedDuration, order.TireType,
		order.InquiryType, order.Questions, order.ContactPreference, order.FollowUpDate, order.AssignedTo,
		order.UpdatedAt, order.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating order ID %d", order.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating order ID %d", order.ID))
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, exec SQLExecutor, order *models.Order) error {
	query := `UPDATE orders SET
	            status = $1, assigned_at = $2, started_at = $3, completed_at = $4, cancelled_at = $5,
	            actual_duration = $6, updated_at = $7
	          WHERE id = $8`
	order.UpdatedAt = time.Now()
	result, err := exec.ExecContext(ctx, query,
		order.Status, order.AssignedAt, order.StartedAt, order.CompletedAt, order.CancelledAt,
		order.ActualDuration, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating status of order ID %d", order.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating status of order ID %d", order.ID))
}

func (r *orderRepository) DeleteOrder(ctx context.Context, exec SQLExecutor, orderID int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting order ID %d", orderID))
	}
	return expectAffected(result, fmt.Sprintf("deleting order ID %d", orderID))
}
