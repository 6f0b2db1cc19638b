package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/metrics"
	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/pkg/utils"
)

// --- Custom Service Errors for Inventory ---
var (
	ErrItemNotFound           = errors.New("inventory item not found")
	ErrItemExists             = errors.New("item already exists for this brand")
	ErrSKUExists              = errors.New("sku already exists")
	ErrBrandNotFound          = errors.New("brand not found")
	ErrBrandExists            = errors.New("brand name already exists")
	ErrBrandInUse             = errors.New("brand cannot be deleted while inventory items reference it")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidAdjustmentType  = errors.New("invalid adjustment type")
	ErrZeroAdjustmentQuantity = errors.New("adjustment quantity cannot be zero")
)

const defaultReorderLevel = 5

// --- Inventory DTOs ---

// StockResult reports the outcome of a name-based stock change. Adjusted is
// false, with no error, when no item matched.
type StockResult struct {
	Adjusted         bool                        `json:"adjusted"`
	ItemID           int64                       `json:"item_id,omitempty"`
	PreviousQuantity int                         `json:"previous_quantity"`
	NewQuantity      int                         `json:"new_quantity"`
	Adjustment       *models.InventoryAdjustment `json:"adjustment,omitempty"`
}

// StockChange is a name-based stock change applied inside a caller's transaction.
type StockChange struct {
	ItemName  string
	BrandName string
	Delta     int
	// Type defaults to addition for positive and removal for negative deltas.
	Type      models.AdjustmentType
	Reference *string
	Notes     *string
	UserID    *int64
}

type RecordAdjustmentRequest struct {
	ItemID    int64                 `json:"item_id" binding:"required"`
	Type      models.AdjustmentType `json:"adjustment_type" binding:"required"`
	Quantity  int                   `json:"quantity"`
	Notes     *string               `json:"notes"`
	Reference *string               `json:"reference"`
	UserID    *int64                `json:"-"`
}

type CreateItemRequest struct {
	Name         string  `json:"name" binding:"required"`
	BrandID      int64   `json:"brand_id" binding:"required"`
	Description  *string `json:"description"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	CostPrice    float64 `json:"cost_price"`
	SKU          *string `json:"sku"`
	Barcode      *string `json:"barcode"`
	ReorderLevel *int    `json:"reorder_level"`
	Location     *string `json:"location"`
	IsActive     *bool   `json:"is_active"`
	UserID       *int64  `json:"-"`
}

// UpdateItemRequest edits catalog fields. Quantity only moves through adjustments.
type UpdateItemRequest struct {
	Name         *string  `json:"name"`
	BrandID      *int64   `json:"brand_id"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	CostPrice    *float64 `json:"cost_price"`
	SKU          *string  `json:"sku"`
	Barcode      *string  `json:"barcode"`
	ReorderLevel *int     `json:"reorder_level"`
	Location     *string  `json:"location"`
	IsActive     *bool    `json:"is_active"`
}

type CreateBrandRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
	IsActive    *bool   `json:"is_active"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	AdjustStock(ctx context.Context, itemName, brandName string, delta int, userID *int64) (*StockResult, error)
	// AdjustStockTx applies a name-based change inside exec. Callers own cache
	// invalidation once their transaction commits.
	AdjustStockTx(ctx context.Context, exec repositories.SQLExecutor, change StockChange) (*StockResult, error)
	RecordAdjustment(ctx context.Context, req RecordAdjustmentRequest) (*models.InventoryAdjustment, error)
	AvailableStock(ctx context.Context, itemName, brandName string) (int, error)
	InvalidateItem(ctx context.Context, itemName string)

	CreateItem(ctx context.Context, req CreateItemRequest) (*models.InventoryItem, error)
	GetItemByID(ctx context.Context, itemID int64) (*models.InventoryItem, error)
	GetItems(ctx context.Context, filters models.InventoryItemFilters) ([]models.InventoryItem, int, error)
	UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, itemID int64) error
	GetLowStock(ctx context.Context, threshold *int) (*models.LowStockReport, error)
	GetItemSummaries(ctx context.Context) ([]models.ItemSummary, error)
	GetBrandsForItem(ctx context.Context, itemName string) ([]string, error)
	GetAdjustments(ctx context.Context, itemID *int64, adjustmentType *string, page, pageSize int) ([]models.InventoryAdjustment, int, error)

	CreateBrand(ctx context.Context, req CreateBrandRequest) (*models.Brand, error)
	GetBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error)
	ResolveBrand(ctx context.Context, exec repositories.SQLExecutor, ref string) (*models.Brand, error)
	DeleteBrand(ctx context.Context, brandID int64) error
}

// --- inventoryService Implementation ---
type inventoryService struct {
	inventoryRepo  repositories.InventoryRepository
	adjustmentRepo repositories.InventoryAdjustmentRepository
	tx             repositories.TxManager
	cache          cache.Cache
	recorder       audit.Recorder
}

func NewInventoryService(
	ir repositories.InventoryRepository,
	ar repositories.InventoryAdjustmentRepository,
	tx repositories.TxManager,
	c cache.Cache,
	recorder audit.Recorder,
) InventoryService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &inventoryService{
		inventoryRepo:  ir,
		adjustmentRepo: ar,
		tx:             tx,
		cache:          c,
		recorder:       recorder,
	}
}

// normalizeAdjustmentQuantity forces removal and damage negative. Every other
// type keeps the caller's sign.
func normalizeAdjustmentQuantity(t models.AdjustmentType, quantity int) int {
	if t.IsOutflow() && quantity > 0 {
		return -quantity
	}
	return quantity
}

// applyLedgered moves stock through the conditional update and writes the matching ledger row.
func (s *inventoryService) applyLedgered(ctx context.Context, exec repositories.SQLExecutor, item *models.InventoryItem,
	adjType models.AdjustmentType, quantity int, userID *int64, notes, reference *string) (*models.InventoryAdjustment, error) {

	previous, current, err := s.inventoryRepo.ApplyDelta(ctx, exec, item.ID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrItemNotFound, item.ID)
		}
		if errors.Is(err, repositories.ErrInsufficientStock) {
			metrics.RecordInsufficientStock()
			return nil, fmt.Errorf("%w: Only %d in stock for %s (%s)", ErrInsufficientStock, item.Quantity, item.Name, item.BrandName)
		}
		return nil, fmt.Errorf("failed to apply stock change to item %d: %w", item.ID, err)
	}

	adjustment := &models.InventoryAdjustment{
		ItemID:           item.ID,
		AdjustmentType:   adjType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      current,
		Notes:            notes,
		Reference:        reference,
		AdjustedBy:       userID,
	}
	id, err := s.adjustmentRepo.CreateAdjustment(ctx, exec, adjustment)
	if err != nil {
		return nil, fmt.Errorf("failed to record inventory adjustment for item %d: %w", item.ID, err)
	}
	adjustment.ID = id
	adjustment.ItemName = &item.Name
	item.Quantity = current
	metrics.RecordStockAdjustment(string(adjType))
	return adjustment, nil
}

func (s *inventoryService) AdjustStockTx(ctx context.Context, exec repositories.SQLExecutor, change StockChange) (*StockResult, error) {
	if change.Delta == 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidation, ErrZeroAdjustmentQuantity)
	}
	item, err := s.inventoryRepo.FindItemByNameAndBrand(ctx, exec, change.ItemName, change.BrandName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn(err, "Stock change skipped, no matching item", map[string]interface{}{
				"item": change.ItemName, "brand": change.BrandName, "delta": change.Delta,
			})
			return &StockResult{Adjusted: false}, nil
		}
		return nil, fmt.Errorf("failed to look up item '%s' (%s): %w", change.ItemName, change.BrandName, err)
	}

	adjType := change.Type
	if adjType == "" {
		adjType = models.AdjustmentAddition
		if change.Delta < 0 {
			adjType = models.AdjustmentRemoval
		}
	}
	quantity := normalizeAdjustmentQuantity(adjType, change.Delta)

	adjustment, err := s.applyLedgered(ctx, exec, item, adjType, quantity, change.UserID, change.Notes, change.Reference)
	if err != nil {
		return nil, err
	}
	return &StockResult{
		Adjusted:         true,
		ItemID:           item.ID,
		PreviousQuantity: adjustment.PreviousQuantity,
		NewQuantity:      adjustment.NewQuantity,
		Adjustment:       adjustment,
	}, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, itemName, brandName string, delta int, userID *int64) (*StockResult, error) {
	var result *StockResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		result, txErr = s.AdjustStockTx(ctx, exec, StockChange{
			ItemName:  itemName,
			BrandName: brandName,
			Delta:     delta,
			Notes:     utils.NewNullString("Stock adjustment"),
			UserID:    userID,
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if result.Adjusted {
		s.InvalidateItem(ctx, itemName)
		s.recordStockEvent(ctx, result.Adjustment)
	}
	return result, nil
}

func (s *inventoryService) RecordAdjustment(ctx context.Context, req RecordAdjustmentRequest) (*models.InventoryAdjustment, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAdjustmentType, req.Type)
	}
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidation, ErrZeroAdjustmentQuantity)
	}

	var adjustment *models.InventoryAdjustment
	var itemName string
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		item, err := s.inventoryRepo.GetItemByID(ctx, exec, req.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrItemNotFound, req.ItemID)
			}
			return fmt.Errorf("failed to fetch item %d for adjustment: %w", req.ItemID, err)
		}
		itemName = item.Name
		quantity := normalizeAdjustmentQuantity(req.Type, req.Quantity)
		adjustment, err = s.applyLedgered(ctx, exec, item, req.Type, quantity, req.UserID, req.Notes, req.Reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateItem(ctx, itemName)
	s.recordStockEvent(ctx, adjustment)
	return adjustment, nil
}

func (s *inventoryService) AvailableStock(ctx context.Context, itemName, brandName string) (int, error) {
	total, err := s.inventoryRepo.SumAvailable(ctx, nil, itemName, brandName)
	if err != nil {
		return 0, fmt.Errorf("failed to sum available stock: %w", err)
	}
	return total, nil
}

func (s *inventoryService) InvalidateItem(ctx context.Context, itemName string) {
	cache.Invalidate(ctx, s.cache, cache.InventoryKeys(itemName)...)
}

func (s *inventoryService) recordStockEvent(ctx context.Context, adj *models.InventoryAdjustment) {
	if adj == nil {
		return
	}
	s.recorder.Record(ctx, audit.NewEvent(audit.EventStockAdjusted, utils.Int64ToStr(adj.ItemID), map[string]interface{}{
		"adjustment_id":     adj.ID,
		"adjustment_type":   adj.AdjustmentType,
		"quantity":          adj.Quantity,
		"previous_quantity": adj.PreviousQuantity,
		"new_quantity":      adj.NewQuantity,
		"reference":         utils.StringValue(adj.Reference),
	}))
}

// --- Item Method Implementations ---

func (s *inventoryService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.InventoryItem, error) {
	v := newValidationError("invalid inventory item")
	if strings.TrimSpace(req.Name) == "" {
		v.Add("name", "Item name is required")
	}
	if req.Price < 0 {
		v.Add("price", "Price cannot be negative")
	}
	if req.CostPrice < 0 {
		v.Add("cost_price", "Cost price cannot be negative")
	}
	if req.Quantity < 0 {
		v.Add("quantity", "Quantity cannot be negative")
	}
	if req.ReorderLevel != nil && *req.ReorderLevel < 0 {
		v.Add("reorder_level", "Reorder level cannot be negative")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	brand, err := s.inventoryRepo.GetBrandByID(ctx, nil, req.BrandID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrBrandNotFound, req.BrandID)
		}
		return nil, fmt.Errorf("failed to validate brand for item creation: %w", err)
	}

	sku := utils.NewNullString(utils.StringValue(req.SKU))
	if sku == nil {
		generated, genErr := uniqueFrom(ctx, func() string { return generateSKU(brand.Name, req.Name) }, s.inventoryRepo.SKUExists)
		if genErr != nil {
			return nil, genErr
		}
		sku = &generated
	}

	reorder := defaultReorderLevel
	if req.ReorderLevel != nil {
		reorder = *req.ReorderLevel
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item := &models.InventoryItem{
		Name:         strings.TrimSpace(req.Name),
		BrandID:      brand.ID,
		BrandName:    brand.Name,
		Description:  req.Description,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		SKU:          sku,
		Barcode:      utils.NewNullString(utils.StringValue(req.Barcode)),
		ReorderLevel: reorder,
		Location:     req.Location,
		IsActive:     active,
	}

	var initial *models.InventoryAdjustment
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		id, err := s.inventoryRepo.CreateItem(ctx, exec, item)
		if err != nil {
			return err
		}
		item.ID = id
		if req.Quantity > 0 {
			initial, err = s.applyLedgered(ctx, exec, item, models.AdjustmentAddition, req.Quantity, req.UserID,
				utils.NewNullString("Initial stock"), nil)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if strings.Contains(err.Error(), "sku") {
				return nil, fmt.Errorf("%w: %s", ErrSKUExists, utils.StringValue(item.SKU))
			}
			return nil, fmt.Errorf("%w: '%s' (%s)", ErrItemExists, item.Name, brand.Name)
		}
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	s.InvalidateItem(ctx, item.Name)
	s.recordStockEvent(ctx, initial)
	return s.GetItemByID(ctx, item.ID)
}

func (s *inventoryService) GetItemByID(ctx context.Context, itemID int64) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item by ID: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(ctx context.Context, filters models.InventoryItemFilters) ([]models.InventoryItem, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	items, total, err := s.inventoryRepo.GetItems(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return items, total, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item for update: %w", err)
	}
	oldName := item.Name

	v := newValidationError("invalid inventory item")
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			v.Add("name", "Item name cannot be empty")
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			v.Add("price", "Price cannot be negative")
		}
		item.Price = *req.Price
	}
	if req.CostPrice != nil {
		if *req.CostPrice < 0 {
			v.Add("cost_price", "Cost price cannot be negative")
		}
		item.CostPrice = *req.CostPrice
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			v.Add("reorder_level", "Reorder level cannot be negative")
		}
		item.ReorderLevel = *req.ReorderLevel
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if req.BrandID != nil && *req.BrandID != item.BrandID {
		brand, err := s.inventoryRepo.GetBrandByID(ctx, nil, *req.BrandID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrBrandNotFound, *req.BrandID)
			}
			return nil, fmt.Errorf("failed to validate brand for item update: %w", err)
		}
		item.BrandID = brand.ID
		item.BrandName = brand.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.SKU != nil {
		item.SKU = utils.NewNullString(*req.SKU)
	}
	if req.Barcode != nil {
		item.Barcode = utils.NewNullString(*req.Barcode)
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.inventoryRepo.UpdateItem(ctx, nil, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrItemExists, item.Name)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}

	s.InvalidateItem(ctx, oldName)
	if oldName != item.Name {
		s.InvalidateItem(ctx, item.Name)
	}
	return s.GetItemByID(ctx, itemID)
}

func (s *inventoryService) DeleteItem(ctx context.Context, itemID int64) error {
	item, err := s.inventoryRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to find inventory item for deletion: %w", err)
	}
	if err := s.inventoryRepo.DeleteItem(ctx, nil, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	s.InvalidateItem(ctx, item.Name)
	return nil
}

func (s *inventoryService) GetLowStock(ctx context.Context, threshold *int) (*models.LowStockReport, error) {
	if threshold != nil && *threshold < 0 {
		return nil, fmt.Errorf("%w: threshold cannot be negative", ErrValidation)
	}
	items, err := s.inventoryRepo.GetLowStockItems(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", err)
	}
	report := &models.LowStockReport{Items: items, TotalItems: len(items), ThresholdUsed: threshold}
	for _, it := range items {
		report.TotalUnits += it.Quantity
		if it.Quantity == 0 {
			report.OutOfStock++
		}
	}
	return report, nil
}

func (s *inventoryService) GetItemSummaries(ctx context.Context) ([]models.ItemSummary, error) {
	var summaries []models.ItemSummary
	if err := s.cache.Get(ctx, cache.KeyInventoryItems, &summaries); err == nil {
		return summaries, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.LogWarn(err, "Reading item summaries from cache failed")
	}

	summaries, err := s.inventoryRepo.GetItemSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get item summaries: %w", err)
	}
	if err := s.cache.Set(ctx, cache.KeyInventoryItems, summaries, cache.TTLInventoryItems); err != nil {
		utils.LogWarn(err, "Caching item summaries failed")
	}
	return summaries, nil
}

func (s *inventoryService) GetBrandsForItem(ctx context.Context, itemName string) ([]string, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return []string{}, nil
	}
	key := cache.InventoryBrandsKey(itemName)
	var brands []string
	if err := s.cache.Get(ctx, key, &brands); err == nil {
		return brands, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.LogWarn(err, "Reading item brands from cache failed", map[string]interface{}{"key": key})
	}

	brands, err := s.inventoryRepo.GetBrandNamesForItem(ctx, itemName)
	if err != nil {
		return nil, fmt.Errorf("failed to get brands for item '%s': %w", itemName, err)
	}
	if err := s.cache.Set(ctx, key, brands, cache.TTLInventoryBrands); err != nil {
		utils.LogWarn(err, "Caching item brands failed", map[string]interface{}{"key": key})
	}
	return brands, nil
}

func (s *inventoryService) GetAdjustments(ctx context.Context, itemID *int64, adjustmentType *string, page, pageSize int) ([]models.InventoryAdjustment, int, error) {
	if adjustmentType != nil && !models.AdjustmentType(*adjustmentType).IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidAdjustmentType, *adjustmentType)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	adjustments, total, err := s.adjustmentRepo.GetAdjustments(ctx, itemID, adjustmentType, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory adjustments: %w", err)
	}
	return adjustments, total, nil
}

// --- Brand Method Implementations ---

func (s *inventoryService) CreateBrand(ctx context.Context, req CreateBrandRequest) (*models.Brand, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		v := newValidationError("invalid brand")
		v.Add("name", "Brand name is required")
		return nil, v
	}

	existing, err := s.inventoryRepo.FindBrandByName(ctx, nil, name)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check brand name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrBrandExists, existing.Name)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	brand := &models.Brand{
		Name:        name,
		Description: req.Description,
		Website:     utils.NewNullString(utils.StringValue(req.Website)),
		IsActive:    active,
	}
	id, err := s.inventoryRepo.CreateBrand(ctx, nil, brand)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrBrandExists, name)
		}
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}

	cache.Invalidate(ctx, s.cache, cache.BrandKeys()...)
	return s.inventoryRepo.GetBrandByID(ctx, nil, id)
}

func (s *inventoryService) GetBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error) {
	if !activeOnly {
		brands, err := s.inventoryRepo.GetBrands(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("failed to get brands: %w", err)
		}
		return brands, nil
	}

	var brands []models.Brand
	if err := s.cache.Get(ctx, cache.KeyActiveBrands, &brands); err == nil {
		return brands, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		utils.LogWarn(err, "Reading active brands from cache failed")
	}
	brands, err := s.inventoryRepo.GetBrands(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get active brands: %w", err)
	}
	if err := s.cache.Set(ctx, cache.KeyActiveBrands, brands, cache.TTLActiveBrands); err != nil {
		utils.LogWarn(err, "Caching active brands failed")
	}
	return brands, nil
}

// ResolveBrand accepts a numeric id or a case-insensitive brand name.
func (s *inventoryService) ResolveBrand(ctx context.Context, exec repositories.SQLExecutor, ref string) (*models.Brand, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: brand is required", ErrValidation)
	}
	var (
		brand *models.Brand
		err   error
	)
	if id, convErr := utils.StrToInt64(ref); convErr == nil {
		brand, err = s.inventoryRepo.GetBrandByID(ctx, exec, id)
	} else {
		brand, err = s.inventoryRepo.FindBrandByName(ctx, exec, ref)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: Brand \"%s\" not found", ErrBrandNotFound, ref)
		}
		return nil, fmt.Errorf("failed to resolve brand '%s': %w", ref, err)
	}
	return brand, nil
}

func (s *inventoryService) DeleteBrand(ctx context.Context, brandID int64) error {
	if _, err := s.inventoryRepo.GetBrandByID(ctx, nil, brandID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBrandNotFound
		}
		return fmt.Errorf("failed to find brand for deletion: %w", err)
	}
	count, err := s.inventoryRepo.CountItemsForBrand(ctx, brandID)
	if err != nil {
		return fmt.Errorf("failed to count items for brand: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d item(s)", ErrBrandInUse, count)
	}

	if err := s.inventoryRepo.DeleteBrand(ctx, nil, brandID); err != nil {
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return ErrBrandInUse
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBrandNotFound
		}
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	cache.Invalidate(ctx, s.cache, cache.BrandKeys()...)
	return nil
}
