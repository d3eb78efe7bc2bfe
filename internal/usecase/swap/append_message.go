package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/validation"
)

type AppendMessageInput struct {
	SwapID  uuid.UUID
	ActorID uuid.UUID
	Message string
}

type AppendMessageUseCase struct {
	swapRepo repository.SwapRepository
	notifier Notifier
	now      Clock
}

func NewAppendMessageUseCase(swapRepo repository.SwapRepository, notifier Notifier, now Clock) *AppendMessageUseCase {
	return &AppendMessageUseCase{swapRepo: swapRepo, notifier: notifier, now: now}
}

func (uc *AppendMessageUseCase) Execute(ctx context.Context, input AppendMessageInput) (*entity.Swap, error) {
	message, err := validation.ValidateText("сообщение", input.Message, true, entity.MaxResponseMessageLength)
	if err != nil {
		return nil, err
	}

	swap, err := uc.swapRepo.Mutate(ctx, input.SwapID, func(s *entity.Swap) error {
		return s.AppendResponse(input.ActorID, message, uc.now())
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, notification.MessageReceived(swap, input.ActorID))
	return swap, nil
}
