package tools

type CreateToolRequest struct {
	ToolNumber *int    `json:"tool_number"`
	Name       string  `json:"name" binding:"required"`
	Notes      *string `json:"notes"`
}

type UpdateToolRequest struct {
	ToolNumber *int    `json:"tool_number"`
	Name       *string `json:"name"`
	Notes      *string `json:"notes"`
	Active     *bool   `json:"active"`
}

type SignOutRequest struct {
	TechnicianID int     `json:"technician_id" binding:"required"`
	Notes        *string `json:"notes"`
}

type ReturnRequest struct {
	Status    string  `json:"status" binding:"required"`
	Condition *string `json:"condition"`
	Notes     *string `json:"notes"`
}
