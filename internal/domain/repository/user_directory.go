package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
)

// UserDirectory - внешний справочник пользователей.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UpdateAggregateRating(ctx context.Context, id uuid.UUID, rating int) error
	// ListActiveUserIDs возвращает активных пользователей. При since == nil все;
	// byActivity выбирает поле сравнения: updated_at вместо created_at.
	ListActiveUserIDs(ctx context.Context, since *time.Time, byActivity bool) ([]uuid.UUID, error)
}
