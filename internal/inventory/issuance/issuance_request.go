package issuance

type CreateIssuanceRequest struct {
	PartID       int     `json:"part_id" binding:"required"`
	Quantity     int     `json:"quantity"`
	IssuedTo     string  `json:"issued_to" binding:"required"`
	Reason       string  `json:"reason" binding:"required"`
	IssuedAt     *string `json:"issued_at"`
	BuildingID   *int    `json:"building_id"`
	CostCenterID *int    `json:"cost_center_id"`
	Department   *string `json:"department"`
	ProjectCode  *string `json:"project_code"`
	Notes        *string `json:"notes"`
}

type BulkLine struct {
	PartID   int     `json:"part_id" binding:"required"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes"`
}

// BulkIssuanceRequest charges out several lines to one recipient at once.
type BulkIssuanceRequest struct {
	IssuedTo     string     `json:"issued_to" binding:"required"`
	Reason       string     `json:"reason" binding:"required"`
	IssuedAt     *string    `json:"issued_at"`
	BuildingID   *int       `json:"building_id"`
	CostCenterID *int       `json:"cost_center_id"`
	Department   *string    `json:"department"`
	ProjectCode  *string    `json:"project_code"`
	Lines        []BulkLine `json:"lines" binding:"required,min=1,dive"`
}

type UpdateIssuanceRequest struct {
	PartID       *int    `json:"part_id"`
	Quantity     *int    `json:"quantity"`
	IssuedTo     *string `json:"issued_to"`
	Reason       *string `json:"reason"`
	IssuedAt     *string `json:"issued_at"`
	BuildingID   *int    `json:"building_id"`
	CostCenterID *int    `json:"cost_center_id"`
	Department   *string `json:"department"`
	ProjectCode  *string `json:"project_code"`
	Notes        *string `json:"notes"`
}
