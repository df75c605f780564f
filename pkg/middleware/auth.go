package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-idgen/pkg/jwt"
	"github.com/weiawesome/wes-idgen/pkg/response"
)

const (
	UserIDKey     = "user_id"
	LocationIDKey = "location_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthMiddleware validates bearer tokens issued with a shared secret.
type AuthMiddleware struct {
	manager *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(manager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{manager: manager}
}

// RequireAuth returns a Gin middleware that rejects requests without a
// valid token and stores the caller's claims in the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := m.manager.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "token has expired"
			}
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		if claims.LocationID != nil {
			c.Set(LocationIDKey, *claims.LocationID)
		}

		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetLocationID extracts the token's location from Gin context.
func GetLocationID(c *gin.Context) (int64, bool) {
	if id, exists := c.Get(LocationIDKey); exists {
		v, ok := id.(int64)
		return v, ok
	}
	return 0, false
}
