package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/config"
	"github.com/ignatzorin/skillswap-backend/internal/http/middleware"
	"github.com/ignatzorin/skillswap-backend/internal/interface/http/handler"
)

// Handlers - набор HTTP обработчиков, которые регистрирует роутер.
type Handlers struct {
	Swap         *handler.SwapHandler
	Notification *handler.NotificationHandler
	Health       *handler.HealthHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens middleware.AccessTokenParser,
	log logrus.FieldLogger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	api.Use(middleware.RateLimitMiddleware("api", cfg.RateLimitLimit, cfg.RateLimitPeriod))

	swapCreateLimit := middleware.RateLimitMiddleware("swap-create", cfg.SwapCreateRateLimit, cfg.SwapCreateRatePer)

	swaps := api.Group("/swaps")
	{
		swaps.POST("", swapCreateLimit, h.Swap.CreateSwap)
		swaps.GET("", h.Swap.ListSwaps)
		swaps.GET("/stats", h.Swap.GetStats)
		swaps.GET("/:id", middleware.UUIDValidator("id"), h.Swap.GetSwap)
		swaps.PUT("/:id/respond", middleware.UUIDValidator("id"), h.Swap.RespondSwap)
		swaps.PUT("/:id/complete", middleware.UUIDValidator("id"), h.Swap.CompleteSwap)
		swaps.PUT("/:id/cancel", middleware.UUIDValidator("id"), h.Swap.CancelSwap)
		swaps.PUT("/:id/archive", middleware.UUIDValidator("id"), h.Swap.ArchiveSwap)
		swaps.POST("/:id/messages", middleware.UUIDValidator("id"), h.Swap.AppendMessage)
		swaps.POST("/:id/feedback", middleware.UUIDValidator("id"), h.Swap.SubmitFeedback)
		swaps.GET("/:id/can-feedback", middleware.UUIDValidator("id"), h.Swap.CanSubmitFeedback)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notification.ListNotifications)
		notifications.GET("/unread/count", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllAsRead)
		notifications.PUT("/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		notifications.DELETE("/:id", middleware.UUIDValidator("id"), h.Notification.DeleteNotification)
	}

	return r
}
