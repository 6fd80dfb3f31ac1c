package tools

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
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
	c.Set("role", "admin")
	return c, w
}

func newTestHandler(f *fixture) *ToolHandler {
	return NewHandler(f.svc, auditlog.NewAuditLog(f.store, zap.NewNop()), roles.DefaultPolicy(), zap.NewNop())
}

func TestSignOutToolHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	tool := f.addTool(t, "Drill")
	handler := newTestHandler(f)

	signOut := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]interface{}{"technician_id": f.techs[0]})
		c, w := setupTestContext()
		c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(tool.ID)}}
		c.Request = httptest.NewRequest(http.MethodPost, "/tools/1/signout", bytes.NewBuffer(body))
		c.Request.Header.Set("Content-Type", "application/json")
		handler.SignOutTool(c)
		return w
	}

	w := signOut()
	require.Equal(t, http.StatusCreated, w.Code)
	var signout models.ToolSignout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signout))

	w = signOut()
	assert.Equal(t, http.StatusConflict, w.Code)

	body, _ := json.Marshal(map[string]interface{}{"status": "returned"})
	c, w := setupTestContext()
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(signout.ID)}}
	c.Request = httptest.NewRequest(http.MethodPatch, "/signouts/1/return", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.ReturnTool(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNextToolNumberHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	f.addTool(t, "Drill")

	c, w := setupTestContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/tools/next-number", nil)
	newTestHandler(f).NextToolNumber(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["tool_number"])
}

func TestDeleteToolHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	tool := f.addTool(t, "Drill")
	_, err := f.svc.SignOut(f.ctx, tool.ID, SignOutRequest{TechnicianID: f.techs[0]})
	require.NoError(t, err)
	handler := newTestHandler(f)

	c, w := setupTestContext()
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(tool.ID)}}
	c.Request = httptest.NewRequest(http.MethodDelete, "/tools/1", nil)
	handler.DeleteTool(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = setupTestContext()
	c.Params = gin.Params{{Key: "id", Value: "77"}}
	c.Request = httptest.NewRequest(http.MethodDelete, "/tools/77", nil)
	handler.DeleteTool(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentCannotSignOutTools(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	tool := f.addTool(t, "Drill")

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "1")
		c.Set("role", "student")
	})
	newTestHandler(f).RegisterRoutes(router.Group("/api"))

	body, _ := json.Marshal(map[string]interface{}{"technician_id": f.techs[0]})
	req := httptest.NewRequest(http.MethodPost, "/api/tools/"+strconv.Itoa(tool.ID)+"/signout", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
