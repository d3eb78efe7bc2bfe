package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
	"github.com/ignatzorin/skillswap-backend/internal/logger"
)

// RateLimitMiddleware ограничивает количество запросов. Ключом служит пользователь, если
// он уже аутентифицирован, иначе IP. prefix разделяет счётчики разных лимитов.
func RateLimitMiddleware(prefix string, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	instance := limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}), rate)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if v, ok := c.Get(ContextUserIDKey); ok {
			if id, ok := v.(uuid.UUID); ok {
				key = "user:" + id.String()
			}
		}

		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			// Лимитер в памяти не должен падать; если упал, запрос пропускаем.
			logger.Get().WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.TooManyRequests(c, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}
