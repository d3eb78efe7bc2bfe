package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/dto"
	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
	"github.com/ignatzorin/skillswap-backend/internal/service"
)

// NotificationHandler обслуживает маршруты уведомлений.
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications обрабатывает GET /notifications.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.notifications.List(
		c.Request.Context(),
		userID,
		parseIntQuery(c, "page", 1),
		parseIntQuery(c, "limit", 20),
		parseBoolQuery(c, "unread_only"),
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"notifications": dto.ToNotificationResponses(page.Items),
		"unread_count":  page.UnreadCount,
		"pagination": response.Pagination{
			Total:   page.Total,
			Page:    page.Page,
			Limit:   page.Limit,
			Pages:   (page.Total + page.Limit - 1) / page.Limit,
			HasMore: page.Page*page.Limit < page.Total,
		},
	})
}

// UnreadCount обрабатывает GET /notifications/unread/count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"unread_count": count})
}

// MarkAsRead обрабатывает PUT /notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "is_read": true})
}

// MarkAllAsRead обрабатывает PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"updated": updated})
}

// DeleteNotification обрабатывает DELETE /notifications/:id.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "deleted": true})
}
