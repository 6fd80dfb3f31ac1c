package security

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stubUsers map[string]*models.User

func (s stubUsers) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := s[username]; ok {
		return u, nil
	}
	return nil, custom_error.NewNotFound("user", username)
}

func newTestRouter(t *testing.T) (*gin.Engine, stubUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, SetJWTSecret("test-secret"))

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	users := stubUsers{
		"tech": {ID: 3, Username: "tech", Fullname: "Terry Tech", PasswordHash: string(hash), Role: "technician"},
	}

	policy := roles.DefaultPolicy()
	router := gin.New()
	api := router.Group("/api")
	NewLoginHandler(users, nil, zap.NewNop()).RegisterRoutes(api)

	protected := api.Group("", JWTMiddleware())
	protected.GET("/parts", Authorize(policy, roles.PartsRead), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": *CurrentUserID(c)})
	})
	protected.POST("/parts", Authorize(policy, roles.PartsManage), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router, users
}

func login(t *testing.T, router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, _ := http.NewRequest(http.MethodPost, "/api/auth", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginAndAuthorize(t *testing.T) {
	router, _ := newTestRouter(t)

	w := login(t, router, "tech", "correct horse")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token := resp["token"]
	require.NotEmpty(t, token)

	req, _ := http.NewRequest(http.MethodGet, "/api/parts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":3}`, w.Body.String())

	req, _ = http.NewRequest(http.MethodPost, "/api/parts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, login(t, router, "tech", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, router, "nobody", "whatever").Code)
}

func TestJWTMiddlewareRejectsMissingAndForgedTokens(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/parts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/parts", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetJWTSecretRejectsEmpty(t *testing.T) {
	assert.Error(t, SetJWTSecret(""))
}
