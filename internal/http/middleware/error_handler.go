package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

// RequestLogger пишет в лог каждый запрос: метод, путь, статус, время обработки.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if v, ok := c.Get(ContextUserIDKey); ok {
			fields["user_id"] = v
		}

		entry := log.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// Recovery перехватывает panic в обработчике и отвечает 500 в общем формате.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"panic":  r,
				}).Error("Panic in handler")
				if !c.Writer.Written() {
					response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
