package models

import (
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
)

// Issuance is a charge-out of parts to a named recipient.
type Issuance struct {
	ID           int                     `json:"id" db:"id"`
	PartID       int                     `json:"part_id" db:"part_id"`
	Quantity     int                     `json:"quantity" db:"quantity"`
	IssuedTo     string                  `json:"issued_to" db:"issued_to"`
	Reason       metadata.IssuanceReason `json:"reason" db:"reason"`
	IssuedAt     time.Time               `json:"issued_at" db:"issued_at"`
	IssuedBy     *int                    `json:"issued_by,omitempty" db:"issued_by"`
	BuildingID   *int                    `json:"building_id,omitempty" db:"building_id"`
	CostCenterID *int                    `json:"cost_center_id,omitempty" db:"cost_center_id"`
	Department   *string                 `json:"department,omitempty" db:"department"`
	ProjectCode  *string                 `json:"project_code,omitempty" db:"project_code"`
	Notes        *string                 `json:"notes,omitempty" db:"notes"`
}

func (i *Issuance) CreateLogView() AuditLog {
	return logView(ResourceIssuance, i.ID)
}

type IssuanceFilter struct {
	PartID     *int
	BuildingID *int
	IssuedTo   string
	DateRange
}
