package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/http/middleware"
	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

// currentUser достаёт ID пользователя, положенный AuthMiddleware. При ошибке
// ответ уже отправлен.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		response.Error(c, apperror.ErrUnauthorized)
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		response.Error(c, apperror.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// pathID берёт UUID, уже разобранный UUIDValidator, или разбирает параметр сам.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	if v, ok := c.Get(middleware.ParsedParamKey(name)); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseBoolQuery(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
