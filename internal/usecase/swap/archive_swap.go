package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
)

// ArchiveSwapUseCase скрывает обмен из списков или возвращает его. Статус не меняется,
// уведомления не отправляются.
type ArchiveSwapUseCase struct {
	swapRepo repository.SwapRepository
	now      Clock
}

func NewArchiveSwapUseCase(swapRepo repository.SwapRepository, now Clock) *ArchiveSwapUseCase {
	return &ArchiveSwapUseCase{swapRepo: swapRepo, now: now}
}

func (uc *ArchiveSwapUseCase) Execute(ctx context.Context, swapID, actorID uuid.UUID, archived bool) (*entity.Swap, error) {
	return uc.swapRepo.Mutate(ctx, swapID, func(s *entity.Swap) error {
		return s.SetArchived(actorID, archived, uc.now())
	})
}
