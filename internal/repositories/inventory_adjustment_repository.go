package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_tracker_backend/internal/models"
)

// InventoryAdjustmentRepository persists the append-only stock ledger.
type InventoryAdjustmentRepository interface {
	CreateAdjustment(ctx context.Context, exec SQLExecutor, adjustment *models.InventoryAdjustment) (int64, error)
	GetAdjustments(ctx context.Context, itemID *int64, adjustmentType *string, page, pageSize int) ([]models.InventoryAdjustment, int, error)
}

type inventoryAdjustmentRepository struct {
	db *sql.DB
}

// NewInventoryAdjustmentRepository creates a new instance of InventoryAdjustmentRepository.
func NewInventoryAdjustmentRepository(db *sql.DB) InventoryAdjustmentRepository {
	return &inventoryAdjustmentRepository{db: db}
}

func (r *inventoryAdjustmentRepository) CreateAdjustment(ctx context.Context, exec SQLExecutor, adjustment *models.InventoryAdjustment) (int64, error) {
	query := `INSERT INTO inventory_adjustments
	          (item_id, adjustment_type, quantity, previous_quantity, new_quantity, notes, reference, adjusted_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now()
	}

	var adjustedBy sql.NullInt64
	if adjustment.AdjustedBy != nil {
		adjustedBy = sql.NullInt64{Int64: *adjustment.AdjustedBy, Valid: true}
	}

	err := exec.QueryRowContext(ctx, query,
		adjustment.ItemID, adjustment.AdjustmentType, adjustment.Quantity, adjustment.PreviousQuantity,
		adjustment.NewQuantity, adjustment.Notes, adjustment.Reference, adjustedBy, adjustment.CreatedAt,
	).Scan(&adjustment.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating inventory adjustment")
	}
	return adjustment.ID, nil
}

func (r *inventoryAdjustmentRepository) GetAdjustments(ctx context.Context, itemID *int64, adjustmentType *string, page, pageSize int) ([]models.InventoryAdjustment, int, error) {
	adjustments := []models.InventoryAdjustment{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    ia.id, ia.item_id, ia.adjustment_type, ia.quantity, ia.previous_quantity, ia.new_quantity,
	    ia.notes, ia.reference, ia.adjusted_by, ia.created_at, ii.name AS item_name,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_adjustments ia
	  JOIN inventory_items ii ON ia.item_id = ii.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if itemID != nil {
		conditions = append(conditions, fmt.Sprintf("ia.item_id = $%d", argCount))
		args = append(args, *itemID)
		argCount++
	}
	if adjustmentType != nil && *adjustmentType != "" {
		conditions = append(conditions, fmt.Sprintf("ia.adjustment_type = $%d", argCount))
		args = append(args, *adjustmentType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY ia.created_at DESC, ia.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory adjustments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var adj models.InventoryAdjustment
		var adjustedBy sql.NullInt64
		var itemName sql.NullString
		if err := rows.Scan(
			&adj.ID, &adj.ItemID, &adj.AdjustmentType, &adj.Quantity, &adj.PreviousQuantity, &adj.NewQuantity,
			&adj.Notes, &adj.Reference, &adjustedBy, &adj.CreatedAt, &itemName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory adjustment: %v", ErrDatabaseError, err)
		}
		if adjustedBy.Valid {
			adj.AdjustedBy = &adjustedBy.Int64
		}
		if itemName.Valid {
			adj.ItemName = &itemName.String
		}
		adjustments = append(adjustments, adj)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory adjustment rows: %v", ErrDatabaseError, err)
	}
	return adjustments, totalCount, nil
}
