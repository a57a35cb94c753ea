package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scorely-session-svc/src/internal/auth"
)

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	authService auth.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth validates the bearer token and stores the role in context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := m.authService.Verify(token)
		if err != nil {
			logrus.WithError(err).Warn("Token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user_role", claims.Role)

		logrus.WithField("user_role", claims.Role).Debug("Request authenticated")
		c.Next()
	}
}

// RequireRole checks that the authenticated role meets the required level.
// Admin satisfies controller, controller satisfies display.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get("user_role")
		if !exists {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		role, ok := roleValue.(string)
		if !ok || !auth.HasLevel(role, required) {
			logrus.WithFields(logrus.Fields{
				"user_role": role,
				"required":  required,
			}).Warn("Access denied, insufficient role")

			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden - " + required + " privileges required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken extracts the JWT token from the Authorization header
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Warn("Invalid authorization header format")
		return ""
	}

	return strings.TrimPrefix(authHeader, "Bearer ")
}
