package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]*entity.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type NotificationFilter struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Now        time.Time
	Limit      int
	Offset     int
}
