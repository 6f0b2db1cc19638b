package models

import "time"

// Brand represents a product brand.
type Brand struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Website     *string   `json:"website,omitempty" db:"website"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// InventoryItem is a stocked product belonging to exactly one brand.
type InventoryItem struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	BrandID      int64     `json:"brand_id" db:"brand_id"`
	BrandName    string    `json:"brand_name" db:"brand_name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Price        float64   `json:"price" db:"price"`
	CostPrice    float64   `json:"cost_price" db:"cost_price"`
	SKU          *string   `json:"sku,omitempty" db:"sku"`
	Barcode      *string   `json:"barcode,omitempty" db:"barcode"`
	ReorderLevel int       `json:"reorder_level" db:"reorder_level"`
	Location     *string   `json:"location,omitempty" db:"location"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NeedsReorder reports whether stock has fallen to the reorder level.
func (i InventoryItem) NeedsReorder() bool {
	return i.Quantity <= i.ReorderLevel
}

// AdjustmentType classifies a ledger entry.
type AdjustmentType string

const (
	AdjustmentAddition   AdjustmentType = "addition"
	AdjustmentRemoval    AdjustmentType = "removal"
	AdjustmentCorrection AdjustmentType = "correction"
	AdjustmentDamage     AdjustmentType = "damage"
	AdjustmentReturn     AdjustmentType = "return"
)

func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentAddition, AdjustmentRemoval, AdjustmentCorrection, AdjustmentDamage, AdjustmentReturn:
		return true
	}
	return false
}

// IsOutflow is true for types whose stored quantity is always negative.
func (t AdjustmentType) IsOutflow() bool {
	return t == AdjustmentRemoval || t == AdjustmentDamage
}

// InventoryAdjustment is an immutable ledger entry. NewQuantity always equals
// PreviousQuantity + Quantity.
type InventoryAdjustment struct {
	ID               int64          `json:"id" db:"id"`
	ItemID           int64          `json:"item_id" db:"item_id"`
	AdjustmentType   AdjustmentType `json:"adjustment_type" db:"adjustment_type"`
	Quantity         int            `json:"quantity" db:"quantity"`
	PreviousQuantity int            `json:"previous_quantity" db:"previous_quantity"`
	NewQuantity      int            `json:"new_quantity" db:"new_quantity"`
	Notes            *string        `json:"notes,omitempty" db:"notes"`
	Reference        *string        `json:"reference,omitempty" db:"reference"`
	AdjustedBy       *int64         `json:"adjusted_by,omitempty" db:"adjusted_by"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	ItemName         *string        `json:"item_name,omitempty" db:"item_name"`
}

// InventoryItemFilters defines the filters for listing items.
type InventoryItemFilters struct {
	Search   string `form:"search"`
	BrandID  *int64 `form:"brand_id"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ItemSummary groups stock by item name and brand.
type ItemSummary struct {
	Name          string `json:"name" db:"name"`
	Brand         string `json:"brand" db:"brand"`
	TotalQuantity int    `json:"total_quantity" db:"total_quantity"`
}
