package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextPrincipalKey = "principal"
)

// AuthMiddleware проверяет JWT access токен и кладёт принципала в контекст.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		principal, err := tokens.ParseAccess(raw)
		if err != nil || principal.ID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// RequireRole пропускает только принципалов с указанной ролью.
// Вешается после AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextPrincipalKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		principal, ok := raw.(models.Principal)
		if !ok || principal.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}
