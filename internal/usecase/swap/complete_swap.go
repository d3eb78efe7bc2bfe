package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
)

type CompleteSwapUseCase struct {
	swapRepo repository.SwapRepository
	notifier Notifier
	now      Clock
}

func NewCompleteSwapUseCase(swapRepo repository.SwapRepository, notifier Notifier, now Clock) *CompleteSwapUseCase {
	return &CompleteSwapUseCase{swapRepo: swapRepo, notifier: notifier, now: now}
}

func (uc *CompleteSwapUseCase) Execute(ctx context.Context, swapID, actorID uuid.UUID) (*entity.Swap, error) {
	swap, err := uc.swapRepo.Mutate(ctx, swapID, func(s *entity.Swap) error {
		return s.Complete(actorID, uc.now())
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, notification.SwapCompleted(swap)...)
	return swap, nil
}
