package auditlog

import (
	"context"
	"errors"
	"testing"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	args := m.Called(entry, data)
	return args.Error(0)
}

func TestLogStampsActionAndUser(t *testing.T) {
	p := new(MockPersister)
	userID := 7
	part := &models.Part{ID: 12}
	payload := map[string]int{"quantity": 3}

	p.On("PersistLog", models.AuditLog{
		ResourceID:   12,
		ResourceType: "part",
		Action:       "restock",
		UserID:       &userID,
	}, payload).Return(nil)

	NewAuditLog(p, zap.NewNop()).Log("restock", payload, part, &userID)

	p.AssertExpectations(t)
}

func TestLogSwallowsPersistErrors(t *testing.T) {
	p := new(MockPersister)
	p.On("PersistLog", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		NewAuditLog(p, zap.NewNop()).Log("delete", nil, &models.Tool{ID: 1}, nil)
	})
	p.AssertNumberOfCalls(t, "PersistLog", 1)
}
