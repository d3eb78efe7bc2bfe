package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/validation"
)

type CancelSwapInput struct {
	SwapID  uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

type CancelSwapUseCase struct {
	swapRepo repository.SwapRepository
	notifier Notifier
	now      Clock
}

func NewCancelSwapUseCase(swapRepo repository.SwapRepository, notifier Notifier, now Clock) *CancelSwapUseCase {
	return &CancelSwapUseCase{swapRepo: swapRepo, notifier: notifier, now: now}
}

func (uc *CancelSwapUseCase) Execute(ctx context.Context, input CancelSwapInput) (*entity.Swap, error) {
	reason, err := validation.ValidateText("причина отмены", input.Reason, false, entity.MaxCancelReasonLength)
	if err != nil {
		return nil, err
	}

	swap, err := uc.swapRepo.Mutate(ctx, input.SwapID, func(s *entity.Swap) error {
		return s.Cancel(input.ActorID, reason, uc.now())
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, notification.SwapCancelled(swap, input.ActorID, reason))
	return swap, nil
}
