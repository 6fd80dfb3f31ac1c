package parts

import "github.com/shopspring/decimal"

type CreatePartRequest struct {
	PartNumber   string          `json:"part_number" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Description  *string         `json:"description"`
	Quantity     int             `json:"quantity" binding:"gte=0"`
	ReorderLevel int             `json:"reorder_level" binding:"gte=0"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	LocationID   *int            `json:"location_id"`
	ShelfID      *int            `json:"shelf_id"`
	Category     *string         `json:"category"`
	Supplier     *string         `json:"supplier"`
	Barcodes     []string        `json:"barcodes"`
}

// UpdatePartRequest patches part metadata. Quantity is changed only through
// restock and the ledgers.
type UpdatePartRequest struct {
	PartNumber   *string          `json:"part_number"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	ReorderLevel *int             `json:"reorder_level" binding:"omitempty,gte=0"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	LocationID   *int             `json:"location_id"`
	ShelfID      *int             `json:"shelf_id"`
	Category     *string          `json:"category"`
	Supplier     *string          `json:"supplier"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type AdHocPartRequest struct {
	Name     string          `json:"name" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}
