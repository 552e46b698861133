package middleware

import (
	"net/http"
	"strings"

	"filmvault/internal/httpapi/response"
	"filmvault/internal/httpapi/service"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks for a valid Bearer token and stores the claims in
// the gin context for handlers and role gates.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		// format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.AbortError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireRole checks if the authenticated user has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			response.AbortError(c, http.StatusForbidden, "role not found in token")
			return
		}

		userRole, ok := roleInterface.(string)
		if !ok || userRole != requiredRole {
			response.AbortError(c, http.StatusForbidden, "insufficient permissions")
			return
		}

		c.Next()
	}
}

// RequireAdmin is a convenience gate for admin-only routes
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}
