package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
)

type NotificationResponse struct {
	ID        uuid.UUID               `json:"id"`
	SenderID  *uuid.UUID              `json:"sender_id,omitempty"`
	Type      string                  `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      entity.NotificationData `json:"data"`
	IsRead    bool                    `json:"is_read"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
	Priority  string                  `json:"priority"`
	ActionURL string                  `json:"action_url,omitempty"`
	ExpiresAt *time.Time              `json:"expires_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

func ToNotificationResponses(items []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			SenderID:  n.SenderID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			Priority:  string(n.Priority),
			ActionURL: n.ActionURL,
			ExpiresAt: n.ExpiresAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
