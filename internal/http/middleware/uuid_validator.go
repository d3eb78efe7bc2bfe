package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
)

// ParsedParamKey возвращает ключ gin.Context, под которым лежит разобранный UUID параметра.
func ParsedParamKey(name string) string {
	return "uuid:" + name
}

// UUIDValidator отклоняет запрос с 400, если хотя бы один из параметров пути
// не является UUID. Разобранные значения кладутся в контекст.
//
//	swaps.GET("/:id", UUIDValidator("id"), handler.GetSwap)
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			raw := c.Param(name)
			if raw == "" {
				response.BadRequest(c, "параметр "+name+" обязателен")
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
				return
			}
			c.Set(ParsedParamKey(name), id)
		}
		c.Next()
	}
}
