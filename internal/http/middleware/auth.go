package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessTokenParser извлекает пользователя из access токена.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, string, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, role, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			response.Unauthorized(c, "токен невалиден")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}
