package models

import (
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/shopspring/decimal"
)

type Delivery struct {
	ID            int                     `json:"id" db:"id"`
	PartID        int                     `json:"part_id" db:"part_id"`
	Quantity      int                     `json:"quantity" db:"quantity"`
	StaffMemberID int                     `json:"staff_member_id" db:"staff_member_id"`
	CostCenterID  *int                    `json:"cost_center_id,omitempty" db:"cost_center_id"`
	BuildingID    *int                    `json:"building_id,omitempty" db:"building_id"`
	DeliveredByID *int                    `json:"delivered_by_id,omitempty" db:"delivered_by_id"`
	UnitCost      decimal.Decimal         `json:"unit_cost" db:"unit_cost"`
	Signature     *string                 `json:"signature,omitempty" db:"signature"`
	Status        metadata.DeliveryStatus `json:"status" db:"status"`
	DeliveredAt   time.Time               `json:"delivered_at" db:"delivered_at"`
	ConfirmedAt   *time.Time              `json:"confirmed_at,omitempty" db:"confirmed_at"`
	ProjectCode   *string                 `json:"project_code,omitempty" db:"project_code"`
	Notes         *string                 `json:"notes,omitempty" db:"notes"`
}

func (d *Delivery) CreateLogView() AuditLog {
	return logView(ResourceDelivery, d.ID)
}

func (d *Delivery) TotalCost() decimal.Decimal {
	return d.UnitCost.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// DeliveryDetail is a delivery joined with everything reports and notifications print.
type DeliveryDetail struct {
	Delivery
	Part        Part        `json:"part"`
	StaffMember StaffMember `json:"staff_member"`
	Building    *Building   `json:"building,omitempty"`
	CostCenter  *CostCenter `json:"cost_center,omitempty"`
	DeliveredBy *User       `json:"delivered_by,omitempty"`
}

type DeliveryFilter struct {
	StaffMemberID *int
	PartID        *int
	Status        *metadata.DeliveryStatus
	DateRange
}
