package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/validation"
)

type RespondSwapInput struct {
	SwapID  uuid.UUID
	ActorID uuid.UUID
	Action  string
	Message string
}

// RespondSwapUseCase - принятие или отклонение запроса получателем.
type RespondSwapUseCase struct {
	swapRepo repository.SwapRepository
	notifier Notifier
	now      Clock
}

func NewRespondSwapUseCase(swapRepo repository.SwapRepository, notifier Notifier, now Clock) *RespondSwapUseCase {
	return &RespondSwapUseCase{swapRepo: swapRepo, notifier: notifier, now: now}
}

func (uc *RespondSwapUseCase) Execute(ctx context.Context, input RespondSwapInput) (*entity.Swap, error) {
	action, err := valueobject.NewRespondAction(input.Action)
	if err != nil {
		return nil, err
	}
	message, err := validation.ValidateText("сообщение", input.Message, false, entity.MaxResponseMessageLength)
	if err != nil {
		return nil, err
	}

	swap, err := uc.swapRepo.Mutate(ctx, input.SwapID, func(s *entity.Swap) error {
		return s.Respond(input.ActorID, action, message, uc.now())
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, notification.SwapResponded(swap))
	return swap, nil
}
