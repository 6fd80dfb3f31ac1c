package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetResourceHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	userID := 3
	require.NoError(t, store.PersistLog(context.Background(),
		models.AuditLog{ResourceID: 5, ResourceType: "delivery", Action: "confirm", UserID: &userID},
		map[string]string{"signature": "JD"}))
	require.NoError(t, store.PersistLog(context.Background(),
		models.AuditLog{ResourceID: 5, ResourceType: "part", Action: "create"}, nil))

	handler := NewHandler(store, roles.DefaultPolicy(), zap.NewNop())

	tests := []struct {
		name           string
		resource       string
		id             string
		expectedStatus int
		expectedLen    int
	}{
		{"delivery history", "delivery", "5", http.StatusOK, 1},
		{"empty history", "tool", "5", http.StatusOK, 0},
		{"unknown resource", "album", "5", http.StatusBadRequest, 0},
		{"bad id", "delivery", "x", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set("role", "admin")
			c.Params = gin.Params{{Key: "resource", Value: tt.resource}, {Key: "id", Value: tt.id}}
			c.Request = httptest.NewRequest(http.MethodGet, "/history", nil)

			handler.GetResourceHistory(c)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var logs []models.AuditLog
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
			assert.Len(t, logs, tt.expectedLen)
			if tt.expectedLen > 0 {
				assert.Equal(t, "confirm", logs[0].Action)
				assert.Equal(t, "JD", logs[0].Data["signature"])
				assert.Equal(t, &userID, logs[0].UserID)
			}
		})
	}
}
