package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

const (
	MaxNotificationTitleLength   = 200
	MaxNotificationMessageLength = 500
)

type NotificationData struct {
	SwapID    *uuid.UUID     `json:"swap_id,omitempty"`
	SkillID   *uuid.UUID     `json:"skill_id,omitempty"`
	MessageID *uuid.UUID     `json:"message_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        valueobject.NotificationType
	Title       string
	Message     string
	Data        NotificationData
	IsRead      bool
	ReadAt      *time.Time
	Priority    valueobject.Priority
	ActionURL   string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}

func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}
