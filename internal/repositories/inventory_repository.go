package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_tracker_backend/internal/models"
)

// InventoryRepository defines the interface for brand and inventory item database operations.
type InventoryRepository interface {
	// Brand methods
	CreateBrand(ctx context.Context, exec SQLExecutor, brand *models.Brand) (int64, error)
	GetBrandByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Brand, error)
	// FindBrandByName matches case-insensitively.
	FindBrandByName(ctx context.Context, exec SQLExecutor, name string) (*models.Brand, error)
	GetBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error)
	CountItemsForBrand(ctx context.Context, brandID int64) (int, error)
	DeleteBrand(ctx context.Context, exec SQLExecutor, id int64) error

	// InventoryItem methods
	CreateItem(ctx context.Context, exec SQLExecutor, item *models.InventoryItem) (int64, error)
	GetItemByID(ctx context.Context, exec SQLExecutor, id int64) (*models.InventoryItem, error)
	GetItems(ctx context.Context, filters models.InventoryItemFilters) ([]models.InventoryItem, int, error) // items, total count, error
	UpdateItem(ctx context.Context, exec SQLExecutor, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, exec SQLExecutor, id int64) error
	SKUExists(ctx context.Context, sku string) (bool, error)
	// FindItemByNameAndBrand matches the item name exactly and the brand name
	// case-insensitively, returning the lowest id when several rows match.
	FindItemByNameAndBrand(ctx context.Context, exec SQLExecutor, itemName, brandName string) (*models.InventoryItem, error)
	FindItemByNameAndBrandID(ctx context.Context, exec SQLExecutor, itemName string, brandID int64) (*models.InventoryItem, error)
	// SumAvailable totals quantity over rows matching name and brand, both case-insensitive.
	SumAvailable(ctx context.Context, exec SQLExecutor, itemName, brandName string) (int, error)
	// ApplyDelta adds delta to the item's quantity only if the result stays
	// non-negative. Returns ErrInsufficientStock when it would not, and
	// ErrNotFound when the item does not exist.
	ApplyDelta(ctx context.Context, exec SQLExecutor, itemID int64, delta int) (previous int, current int, err error)
	GetLowStockItems(ctx context.Context, threshold *int) ([]models.InventoryItem, error)
	GetItemSummaries(ctx context.Context) ([]models.ItemSummary, error)
	GetBrandNamesForItem(ctx context.Context, itemName string) ([]string, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

// --- Brand Methods ---

const brandColumns = `id, name, description, website, is_active, created_at, updated_at`

func scanBrand(s scanner) (*models.Brand, error) {
	b := &models.Brand{}
	if err := s.Scan(&b.ID, &b.Name, &b.Description, &b.Website, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *inventoryRepository) CreateBrand(ctx context.Context, exec SQLExecutor, brand *models.Brand) (int64, error) {
	query := `INSERT INTO brands (name, description, website, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	brand.CreatedAt = currentTime
	brand.UpdatedAt = currentTime
	err := r.executor(exec).QueryRowContext(ctx, query,
		brand.Name, brand.Description, brand.Website, brand.IsActive, currentTime, currentTime,
	).Scan(&brand.ID)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating brand '%s'", brand.Name))
	}
	return brand.ID, nil
}

func (r *inventoryRepository) GetBrandByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Brand, error) {
	b, err := scanBrand(r.executor(exec).QueryRowContext(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting brand by ID %d", id))
	}
	return b, nil
}

func (r *inventoryRepository) FindBrandByName(ctx context.Context, exec SQLExecutor, name string) (*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`
	b, err := scanBrand(r.executor(exec).QueryRowContext(ctx, query, strings.TrimSpace(name)))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("finding brand '%s'", name))
	}
	return b, nil
}

func (r *inventoryRepository) GetBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying brands: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	brands := []models.Brand{}
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning brand: %v", ErrDatabaseError, err)
		}
		brands = append(brands, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating brand rows: %v", ErrDatabaseError, err)
	}
	return brands, nil
}

func (r *inventoryRepository) CountItemsForBrand(ctx context.Context, brandID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_items WHERE brand_id = $1`, brandID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting items for brand ID %d: %v", ErrDatabaseError, brandID, err)
	}
	return count, nil
}

func (r *inventoryRepository) DeleteBrand(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.executor(exec).ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting brand ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting brand ID %d", id))
}

// --- InventoryItem Methods ---

const itemColumns = `i.id, i.name, i.brand_id, b.name, i.description, i.quantity, i.price, i.cost_price, i.sku,
	i.barcode, i.reorder_level, i.location, i.is_active, i.created_at, i.updated_at`

const itemFrom = ` FROM inventory_items i JOIN brands b ON b.id = i.brand_id`

func scanItem(s scanner, extra ...interface{}) (*models.InventoryItem, error) {
	it := &models.InventoryItem{}
	dest := []interface{}{
		&it.ID, &it.Name, &it.BrandID, &it.BrandName, &it.Description, &it.Quantity, &it.Price, &it.CostPrice,
		&it.SKU, &it.Barcode, &it.ReorderLevel, &it.Location, &it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return it, nil
}

func (r *inventoryRepository) scanItems(rows *sql.Rows) ([]models.InventoryItem, error) {
	defer rows.Close()
	items := []models.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) CreateItem(ctx context.Context, exec SQLExecutor, item *models.InventoryItem) (int64, error) {
	query := `INSERT INTO inventory_items
	            (name, brand_id, description, quantity, price, cost_price, sku, barcode, reorder_level, location,
	             is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	currentTime := time.Now()
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime
	err := r.executor(exec).QueryRowContext(ctx, query,
		item.Name, item.BrandID, item.Description, item.Quantity, item.Price, item.CostPrice, item.SKU,
		item.Barcode, item.ReorderLevel, item.Location, item.IsActive, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		return 0, mapWriteError(err, fmt.Sprintf("creating inventory item '%s'", item.Name))
	}
	return item.ID, nil
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, exec SQLExecutor, id int64) (*models.InventoryItem, error) {
	it, err := scanItem(r.executor(exec).QueryRowContext(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting inventory item by ID %d", id))
	}
	return it, nil
}

func (r *inventoryRepository) GetItems(ctx context.Context, filters models.InventoryItemFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count` + itemFrom)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(i.name ILIKE $%d OR b.name ILIKE $%d OR i.sku ILIKE $%d OR i.barcode ILIKE $%d)",
			argCount, argCount, argCount, argCount))
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if filters.BrandID != nil {
		conditions = append(conditions, fmt.Sprintf("i.brand_id = $%d", argCount))
		args = append(args, *filters.BrandID)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY b.name ASC, i.name ASC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		page := filters.Page
		if page <= 0 {
			page = 1
		}
		args = append(args, filters.PageSize, (page-1)*filters.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *it)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory item rows: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

// UpdateItem writes descriptive fields. Quantity is only changed through ApplyDelta.
func (r *inventoryRepository) UpdateItem(ctx context.Context, exec SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items SET
	            name = $1, brand_id = $2, description = $3, price = $4, cost_price = $5, sku = $6, barcode = $7,
	            reorder_level = $8, location = $9, is_active = $10, updated_at = $11
	          WHERE id = $12`
	item.UpdatedAt = time.Now()
	result, err := r.executor(exec).ExecContext(ctx, query,
		item.Name, item.BrandID, item.Description, item.Price, item.CostPrice, item.SKU, item.Barcode,
		item.ReorderLevel, item.Location, item.IsActive, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating inventory item ID %d", item.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating inventory item ID %d", item.ID))
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.executor(exec).ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting inventory item ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting inventory item ID %d", id))
}

func (r *inventoryRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE sku = $1)`, sku).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking sku: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *inventoryRepository) FindItemByNameAndBrand(ctx context.Context, exec SQLExecutor, itemName, brandName string) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE i.name = $1 AND LOWER(b.name) = LOWER($2) ORDER BY i.id LIMIT 1`
	it, err := scanItem(r.executor(exec).QueryRowContext(ctx, query, itemName, brandName))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("finding item '%s' (%s)", itemName, brandName))
	}
	return it, nil
}

func (r *inventoryRepository) FindItemByNameAndBrandID(ctx context.Context, exec SQLExecutor, itemName string, brandID int64) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE i.name = $1 AND i.brand_id = $2 ORDER BY i.id LIMIT 1`
	it, err := scanItem(r.executor(exec).QueryRowContext(ctx, query, itemName, brandID))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("finding item '%s' for brand ID %d", itemName, brandID))
	}
	return it, nil
}

func (r *inventoryRepository) SumAvailable(ctx context.Context, exec SQLExecutor, itemName, brandName string) (int, error) {
	query := `SELECT COALESCE(SUM(i.quantity), 0)` + itemFrom + `
	          WHERE LOWER(i.name) = LOWER($1) AND LOWER(b.name) = LOWER($2)`
	var total int
	if err := r.executor(exec).QueryRowContext(ctx, query, itemName, brandName).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: summing stock for '%s' (%s): %v", ErrDatabaseError, itemName, brandName, err)
	}
	return total, nil
}

func (r *inventoryRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, itemID int64, delta int) (int, int, error) {
	exec = r.executor(exec)
	query := `UPDATE inventory_items
	          SET quantity = quantity + $1, updated_at = $2
	          WHERE id = $3 AND quantity + $1 >= 0
	          RETURNING quantity - $1, quantity`
	var previous, current int
	err := exec.QueryRowContext(ctx, query, delta, time.Now(), itemID).Scan(&previous, &current)
	if err == nil {
		return previous, current, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: applying stock delta %d to item ID %d: %v", ErrDatabaseError, delta, itemID, err)
	}

	var exists bool
	if checkErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`, itemID).Scan(&exists); checkErr != nil {
		return 0, 0, fmt.Errorf("%w: checking item ID %d after failed stock update: %v", ErrDatabaseError, itemID, checkErr)
	}
	if !exists {
		return 0, 0, ErrNotFound
	}
	return 0, 0, fmt.Errorf("%w: item ID %d, delta %d", ErrInsufficientStock, itemID, delta)
}

// GetLowStockItems lists active items at or below threshold, or at or below
// their own reorder level when threshold is nil.
func (r *inventoryRepository) GetLowStockItems(ctx context.Context, threshold *int) ([]models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE i.is_active = TRUE AND `
	var args []interface{}
	if threshold != nil {
		query += `i.quantity <= $1`
		args = append(args, *threshold)
	} else {
		query += `i.quantity <= i.reorder_level`
	}
	query += ` ORDER BY i.quantity ASC, i.name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying low stock items: %v", ErrDatabaseError, err)
	}
	return r.scanItems(rows)
}

func (r *inventoryRepository) GetItemSummaries(ctx context.Context) ([]models.ItemSummary, error) {
	query := `SELECT i.name, b.name, COALESCE(SUM(i.quantity), 0)` + itemFrom + `
	          WHERE i.is_active = TRUE GROUP BY i.name, b.name ORDER BY i.name, b.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying item summaries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	summaries := []models.ItemSummary{}
	for rows.Next() {
		var s models.ItemSummary
		if err := rows.Scan(&s.Name, &s.Brand, &s.TotalQuantity); err != nil {
			return nil, fmt.Errorf("%w: scanning item summary: %v", ErrDatabaseError, err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating item summaries: %v", ErrDatabaseError, err)
	}
	return summaries, nil
}

func (r *inventoryRepository) GetBrandNamesForItem(ctx context.Context, itemName string) ([]string, error) {
	query := `SELECT DISTINCT b.name` + itemFrom + ` WHERE i.name = $1 AND i.is_active = TRUE ORDER BY b.name`
	rows, err := r.db.QueryContext(ctx, query, itemName)
	if err != nil {
		return nil, fmt.Errorf("%w: querying brands for item '%s': %v", ErrDatabaseError, itemName, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning brand name: %v", ErrDatabaseError, err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating brand names: %v", ErrDatabaseError, err)
	}
	return names, nil
}
