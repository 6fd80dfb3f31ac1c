package deliveries

type CreateDeliveryRequest struct {
	PartID        int     `json:"part_id" binding:"required"`
	Quantity      int     `json:"quantity"`
	StaffMemberID int     `json:"staff_member_id" binding:"required"`
	CostCenterID  *int    `json:"cost_center_id"`
	BuildingID    *int    `json:"building_id"`
	DeliveredAt   *string `json:"delivered_at"`
	ProjectCode   *string `json:"project_code"`
	Notes         *string `json:"notes"`
}

type BatchLine struct {
	PartID   int     `json:"part_id" binding:"required"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes"`
}

// BatchDeliveryRequest delivers several parts to one staff member at once.
type BatchDeliveryRequest struct {
	StaffMemberID int         `json:"staff_member_id" binding:"required"`
	CostCenterID  *int        `json:"cost_center_id"`
	BuildingID    *int        `json:"building_id"`
	DeliveredAt   *string     `json:"delivered_at"`
	ProjectCode   *string     `json:"project_code"`
	Lines         []BatchLine `json:"lines" binding:"required,min=1,dive"`
}

type UpdateDeliveryRequest struct {
	PartID        *int    `json:"part_id"`
	Quantity      *int    `json:"quantity"`
	StaffMemberID *int    `json:"staff_member_id"`
	CostCenterID  *int    `json:"cost_center_id"`
	BuildingID    *int    `json:"building_id"`
	DeliveredAt   *string `json:"delivered_at"`
	ConfirmedAt   *string `json:"confirmed_at"`
	Status        *string `json:"status"`
	Signature     *string `json:"signature"`
	ProjectCode   *string `json:"project_code"`
	Notes         *string `json:"notes"`
}

type ConfirmDeliveryRequest struct {
	Signature *string `json:"signature"`
}
