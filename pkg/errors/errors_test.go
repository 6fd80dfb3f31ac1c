package custom_error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWrapDBError(t *testing.T) {
	tests := []struct {
		code     string
		expected interface{}
	}{
		{"23505", &UniqueViolationError{}},
		{"23503", &ForeignKeyViolationError{}},
		{"23514", &CheckViolationError{}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := WrapDBError("boom", tt.code)
			assert.IsType(t, tt.expected, err)
			assert.Contains(t, err.Error(), tt.code)
		})
	}

	err := WrapDBError("boom", "40001")
	assert.Contains(t, err.Error(), "uncategorized")
}

func TestFromPQ(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Message: "duplicate key"})
	assert.True(t, IsUniqueViolation(FromPQ(wrapped)))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, FromPQ(plain))

	other := &pq.Error{Code: "40P01", Message: "deadlock detected"}
	assert.Equal(t, error(other), FromPQ(other))
}

func TestBulkErrorMessage(t *testing.T) {
	available := 3
	err := &BulkError{Lines: []LineError{
		{Line: 1, PartID: 4, Reason: "insufficient stock", Available: &available, Requested: 5},
		{Line: 2, PartID: 9, Reason: "part not found", Requested: 1},
	}}

	assert.Equal(t, "bulk request rejected: line 1: insufficient stock; line 2: part not found", err.Error())
}

func TestInsufficientStockMessage(t *testing.T) {
	err := &InsufficientStockError{PartID: 1, PartNumber: "P-1", Available: 5, Requested: 10}
	assert.Equal(t, "insufficient stock for part P-1: available 5, requested 10", err.Error())
}
