package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger - хранилище, доступность которого проверяет /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

// NewHealthHandler создаёт health handler. db == nil означает хранилище в памяти.
func NewHealthHandler(db Pinger, now func() time.Time) *HealthHandler {
	return &HealthHandler{db: db, now: now}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		checks["database"] = "memory"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy"
			status = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: h.now(),
		Checks:    checks,
	})
}
