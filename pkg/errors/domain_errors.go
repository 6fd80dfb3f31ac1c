package custom_error

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func NewNotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

type InsufficientStockError struct {
	PartID     int    `json:"part_id"`
	PartNumber string `json:"part_number"`
	Available  int    `json:"available"`
	Requested  int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s: available %d, requested %d", e.PartNumber, e.Available, e.Requested)
}

type ToolUnavailableError struct {
	ToolID int `json:"tool_id"`
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("tool %d is already signed out", e.ToolID)
}

type ToolCheckedOutError struct {
	ToolID int `json:"tool_id"`
}

func (e *ToolCheckedOutError) Error() string {
	return fmt.Sprintf("tool %d cannot be deleted while it is checked out", e.ToolID)
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type InvalidTransitionError struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// LineError describes why one line of a bulk request was rejected.
type LineError struct {
	Line      int    `json:"line"`
	PartID    int    `json:"part_id"`
	Reason    string `json:"reason"`
	Available *int   `json:"available,omitempty"`
	Requested int    `json:"requested"`
}

type BulkError struct {
	Lines []LineError `json:"lines"`
}

func (e *BulkError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("line %d: %s", l.Line, l.Reason))
	}
	return "bulk request rejected: " + strings.Join(parts, "; ")
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
