package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

// MutateFunc получает актуальную копию обмена под блокировкой записи.
// Ошибка из функции отменяет запись целиком.
type MutateFunc func(swap *entity.Swap) error

type SwapRepository interface {
	Create(ctx context.Context, swap *entity.Swap) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Swap, error)
	// Mutate единственный путь изменения существующего обмена. Чтение, fn и
	// полная запись выполняются атомарно, не более одного писателя на запись.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*entity.Swap, error)
	ListByParty(ctx context.Context, filter SwapFilter) ([]*entity.Swap, int, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.SwapStatus]int, error)
	HasPending(ctx context.Context, requesterID, providerID uuid.UUID, offeredKey, requestedKey string) (bool, error)
}

type SwapFilter struct {
	UserID   uuid.UUID
	Type     valueobject.SwapListType
	Status   *valueobject.SwapStatus
	Archived bool
	Limit    int
	Offset   int
}
