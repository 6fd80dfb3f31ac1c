package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) InsertUser(ctx context.Context, user *models.User) (int, error) {
	args := m.Called(ctx, user)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", "1")
	c.Set("role", "admin")
	return c, w
}

func TestRegisterUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, roles.DefaultPolicy(), zap.NewNop())

	tests := []struct {
		name           string
		payload        models.CreateUserRequest
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "successful registration",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Fullname: "Test User",
				Role:     "technician",
			},
			setupMock: func() {
				mockRepo.On("InsertUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Username == "testuser" &&
						u.Role == "technician" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
				})).Return(7, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate username",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     "student",
			},
			setupMock: func() {
				mockRepo.On("InsertUser", mock.Anything, mock.Anything).
					Return(0, custom_error.WrapDBError("duplicate key", "23505"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "repository error",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     "controller",
			},
			setupMock: func() {
				mockRepo.On("InsertUser", mock.Anything, mock.Anything).Return(0, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "unknown role",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "password123",
				Role:     "moderator",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			payload: models.CreateUserRequest{
				Username: "testuser",
				Password: "short",
				Role:     "student",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			mockRepo.Calls = nil
			tt.setupMock()
			c, w := setupTestContext()

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("POST", "/users", bytes.NewBuffer(body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.RegisterUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo, roles.DefaultPolicy(), zap.NewNop())

	tests := []struct {
		name           string
		userID         string
		payload        models.UpdateUserRequest
		setupMock      func()
		expectedStatus int
	}{
		{
			name:   "successful update",
			userID: "1",
			payload: models.UpdateUserRequest{
				Fullname: stringPtr("Updated Name"),
				Role:     stringPtr("admin"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", mock.Anything, 1).Return(&models.User{
					ID:       1,
					Username: "testuser",
					Role:     "student",
				}, nil)
				mockRepo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Fullname == "Updated Name" && u.Role == "admin"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "user not found",
			userID: "999",
			payload: models.UpdateUserRequest{
				Fullname: stringPtr("Updated Name"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", mock.Anything, 999).Return(nil, custom_error.NewNotFound("user", 999))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "invalid user ID",
			userID:  "invalid",
			payload: models.UpdateUserRequest{},
			setupMock: func() {
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "password too short",
			userID: "1",
			payload: models.UpdateUserRequest{
				Password: stringPtr("abc"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", mock.Anything, 1).Return(&models.User{ID: 1, Role: "student"}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			mockRepo.Calls = nil
			tt.setupMock()
			c, w := setupTestContext()

			c.Params = []gin.Param{{Key: "id", Value: tt.userID}}
			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("PATCH", "/users/"+tt.userID, bytes.NewBuffer(body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.UpdateUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetUserListHidesPasswordHash(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	mockRepo.On("ListUsers", mock.Anything).Return([]models.User{
		{ID: 1, Username: "admin", Role: "admin", PasswordHash: "secret-hash"},
	}, nil)
	handler := NewHandler(mockRepo, roles.DefaultPolicy(), zap.NewNop())

	c, w := setupTestContext()
	c.Request = httptest.NewRequest("GET", "/users", nil)
	handler.GetUserList(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	mockRepo.AssertExpectations(t)
}

func stringPtr(s string) *string {
	return &s
}
