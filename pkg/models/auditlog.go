package models

import (
	"encoding/json"
	"time"
)

const (
	ResourcePart        = "part"
	ResourceIssuance    = "issuance"
	ResourceDelivery    = "delivery"
	ResourceTool        = "tool"
	ResourceToolSignout = "tool_signout"
)

// IsAuditedResource reports whether history is kept for resourceType.
func IsAuditedResource(resourceType string) bool {
	switch resourceType {
	case ResourcePart, ResourceIssuance, ResourceDelivery, ResourceTool, ResourceToolSignout:
		return true
	}
	return false
}

type AuditLog struct {
	ID           int                    `json:"id" db:"id"`
	ResourceID   int                    `json:"resource_id" db:"resource_id"`
	ResourceType string                 `json:"resource_type" db:"resource_type"`
	Action       string                 `json:"action" db:"action"` // create, update, delete, confirm, cancel, signout, return
	DataRaw      string                 `json:"-" db:"data"`
	Data         map[string]interface{} `json:"data" db:"-"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UserID       *int                   `json:"user_id,omitempty" db:"user_id"`
}

func logView(resourceType string, id int) AuditLog {
	return AuditLog{ResourceID: id, ResourceType: resourceType}
}

// LoadFromDB decodes the stored payload. Payloads that are not JSON objects,
// such as the null written for deletes, leave Data empty.
func (a *AuditLog) LoadFromDB() {
	a.Data = nil
	if a.DataRaw == "" {
		return
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(a.DataRaw), &data); err == nil {
		a.Data = data
	}
}
