package security

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

var ErrInvalidCredentials = errors.New("invalid username or password")

func AuthenticateUser(ctx context.Context, username, password string, users UserFinder) (*models.User, error) {
	user, err := users.FindUserByUsername(ctx, username)
	if err != nil {
		var notFound *custom_error.NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

type LoginHandler struct {
	users     UserFinder
	rateLimit gin.HandlerFunc
	logger    *zap.Logger
}

func NewLoginHandler(users UserFinder, rateLimit gin.HandlerFunc, logger *zap.Logger) *LoginHandler {
	return &LoginHandler{users: users, rateLimit: rateLimit, logger: logger}
}

func (l *LoginHandler) RegisterRoutes(router *gin.RouterGroup) {
	if l.rateLimit != nil {
		router.POST("/auth", l.rateLimit, l.Login)
		return
	}
	router.POST("/auth", l.Login)
}

func (l *LoginHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := AuthenticateUser(c.Request.Context(), req.Username, req.Password, l.users)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		l.logger.Error("Error during authentication", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := GenerateJWT(strconv.Itoa(user.ID), user.Role, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role, "fullname": user.Fullname})
}
