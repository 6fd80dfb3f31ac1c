package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/storage/memory"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", "1")
	c.Set("role", "technician")
	return c, w
}

func TestGetStaffMember(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	id := store.AddStaffMember(models.StaffMember{Name: "J. Doe", Active: true})
	handler := NewHandler(store, roles.DefaultPolicy(), zap.NewNop())

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{"existing", strconv.Itoa(id), http.StatusOK},
		{"missing", "404", http.StatusNotFound},
		{"invalid", "x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext()
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			c.Request = httptest.NewRequest(http.MethodGet, "/staff/"+tt.id, nil)

			handler.GetStaffMember(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetCostCentersSortedByCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	store.AddCostCenter(models.CostCenter{Code: "FAC-200", Name: "Grounds"})
	store.AddCostCenter(models.CostCenter{Code: "FAC-100", Name: "Facilities"})

	c, w := setupTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/cost-centers", nil)
	NewHandler(store, roles.DefaultPolicy(), zap.NewNop()).GetCostCenters(c)

	require.Equal(t, http.StatusOK, w.Code)
	var centers []models.CostCenter
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &centers))
	require.Len(t, centers, 2)
	assert.Equal(t, "FAC-100", centers[0].Code)
}

type failingRepository struct {
	*memory.Store
}

func (failingRepository) ListBuildings(ctx context.Context) ([]models.Building, error) {
	return nil, errors.New("connection reset")
}

func TestGetBuildingsError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, w := setupTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/buildings", nil)
	NewHandler(failingRepository{memory.NewStore()}, roles.DefaultPolicy(), zap.NewNop()).GetBuildings(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
