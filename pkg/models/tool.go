package models

import (
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
)

type Tool struct {
	ID         int     `json:"id" db:"id"`
	ToolNumber int     `json:"tool_number" db:"tool_number"`
	Name       string  `json:"name" db:"name"`
	Notes      *string `json:"notes,omitempty" db:"notes"`
	Active     bool    `json:"active" db:"active"`
	Available  bool    `json:"available" db:"-"`
}

func (t *Tool) CreateLogView() AuditLog {
	return logView(ResourceTool, t.ID)
}

type ToolSignout struct {
	ID           int                    `json:"id" db:"id"`
	ToolID       int                    `json:"tool_id" db:"tool_id"`
	TechnicianID int                    `json:"technician_id" db:"technician_id"`
	Status       metadata.SignoutStatus `json:"status" db:"status"`
	SignedOutAt  time.Time              `json:"signed_out_at" db:"signed_out_at"`
	ReturnedAt   *time.Time             `json:"returned_at,omitempty" db:"returned_at"`
	Condition    *string                `json:"condition,omitempty" db:"condition"`
	Notes        *string                `json:"notes,omitempty" db:"notes"`
}

func (s *ToolSignout) CreateLogView() AuditLog {
	return logView(ResourceToolSignout, s.ID)
}

func (s *ToolSignout) IsOpen() bool {
	return s.Status == metadata.SignoutCheckedOut
}

type SignoutFilter struct {
	ToolID       *int
	TechnicianID *int
	Status       *metadata.SignoutStatus
}
