package security

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/gin-gonic/gin"
)

// JWTMiddleware validates JWT and extracts claims.
func JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := parseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", claims["userID"])
		c.Set("role", claims["role"])
		c.Set("username", claims["username"])
		c.Next()
	}
}

// Authorize lets the request through only when the caller's role holds capability.
func Authorize(policy *roles.Policy, capability roles.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CurrentRole(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		if !policy.Allows(role, capability) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":      "Forbidden: insufficient permissions",
				"capability": capability,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CurrentRole(c *gin.Context) (roles.Role, bool) {
	value, exists := c.Get("role")
	if !exists {
		return "", false
	}
	name, ok := value.(string)
	if !ok {
		return "", false
	}
	role, err := roles.Parse(name)
	if err != nil {
		return "", false
	}
	return role, true
}

// CurrentUserID returns the caller's user id, or nil for anonymous requests.
func CurrentUserID(c *gin.Context) *int {
	value, exists := c.Get("userID")
	if !exists {
		return nil
	}
	raw, ok := value.(string)
	if !ok {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &id
}
