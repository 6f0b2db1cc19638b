package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pos_tracker_backend/internal/models"
)

// ReportRepository serves the read-only dashboard queries.
type ReportRepository interface {
	GetDashboardSummary(ctx context.Context, dayStart time.Time) (*models.DashboardSummary, error)
}

type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository wraps the shared pool with sqlx for struct scanning.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *reportRepository) GetDashboardSummary(ctx context.Context, dayStart time.Time) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	query := `SELECT
	    (SELECT COUNT(*) FROM customers) AS total_customers,
	    (SELECT COUNT(*) FROM customers WHERE registration_date >= $1) AS customers_today,
	    (SELECT COUNT(*) FROM orders WHERE created_at >= $1) AS orders_today,
	    (SELECT COUNT(*) FROM orders WHERE status IN ('created', 'assigned', 'in_progress')) AS active_orders,
	    (SELECT COUNT(*) FROM orders WHERE status = 'completed' AND completed_at >= $1) AS completed_today,
	    (SELECT COUNT(*) FROM inventory_items WHERE is_active = TRUE AND quantity <= reorder_level) AS low_stock_items,
	    (SELECT COALESCE(SUM(quantity * cost_price), 0) FROM inventory_items WHERE is_active = TRUE) AS inventory_value`
	if err := r.db.GetContext(ctx, &summary, query, dayStart); err != nil {
		return nil, fmt.Errorf("%w: loading dashboard totals: %v", ErrDatabaseError, err)
	}

	summary.OrdersByStatus = []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &summary.OrdersByStatus,
		`SELECT status AS key, COUNT(*) AS count FROM orders GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("%w: counting orders by status: %v", ErrDatabaseError, err)
	}

	summary.OrdersByType = []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &summary.OrdersByType,
		`SELECT type AS key, COUNT(*) AS count FROM orders GROUP BY type ORDER BY type`); err != nil {
		return nil, fmt.Errorf("%w: counting orders by type: %v", ErrDatabaseError, err)
	}

	summary.GeneratedAt = time.Now()
	return &summary, nil
}
