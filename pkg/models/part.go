package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Part struct {
	ID              int             `json:"id" db:"id"`
	PartNumber      string          `json:"part_number" db:"part_number"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description,omitempty" db:"description"`
	Quantity        int             `json:"quantity" db:"quantity"`
	ReorderLevel    int             `json:"reorder_level" db:"reorder_level"`
	UnitCost        decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	LocationID      *int            `json:"location_id,omitempty" db:"location_id"`
	ShelfID         *int            `json:"shelf_id,omitempty" db:"shelf_id"`
	Location        string          `json:"location" db:"location"` // derived from location_id/shelf_id
	Category        *string         `json:"category,omitempty" db:"category"`
	Supplier        *string         `json:"supplier,omitempty" db:"supplier"`
	LastRestockDate *time.Time      `json:"last_restock_date,omitempty" db:"last_restock_date"`
	Archived        bool            `json:"archived" db:"archived"`
}

func (p *Part) CreateLogView() AuditLog {
	return logView(ResourcePart, p.ID)
}

func (p *Part) IsLowStock() bool {
	return p.Quantity <= p.ReorderLevel
}

type PartBarcode struct {
	ID      int    `json:"id" db:"id"`
	PartID  int    `json:"part_id" db:"part_id"`
	Barcode string `json:"barcode" db:"barcode"`
}

type PartFilter struct {
	Search          string
	LocationID      *int
	Category        string
	LowStockOnly    bool
	IncludeArchived bool
}
