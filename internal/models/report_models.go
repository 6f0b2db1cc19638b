package models

import "time"

// StatusCount is one bucket of a grouped count.
type StatusCount struct {
	Key   string `json:"key" db:"key"`
	Count int    `json:"count" db:"count"`
}

// DashboardSummary is the read model behind the dashboard.
type DashboardSummary struct {
	TotalCustomers int           `json:"total_customers" db:"total_customers"`
	CustomersToday int           `json:"customers_today" db:"customers_today"`
	OrdersToday    int           `json:"orders_today" db:"orders_today"`
	ActiveOrders   int           `json:"active_orders" db:"active_orders"`
	CompletedToday int           `json:"completed_today" db:"completed_today"`
	LowStockItems  int           `json:"low_stock_items" db:"low_stock_items"`
	InventoryValue float64       `json:"inventory_value" db:"inventory_value"`
	OrdersByStatus []StatusCount `json:"orders_by_status"`
	OrdersByType   []StatusCount `json:"orders_by_type"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// LowStockReport lists items at or below their threshold with totals.
type LowStockReport struct {
	Items         []InventoryItem `json:"items"`
	TotalItems    int             `json:"total_items"`
	OutOfStock    int             `json:"out_of_stock"`
	TotalUnits    int             `json:"total_units"`
	ThresholdUsed *int            `json:"threshold,omitempty"`
}
