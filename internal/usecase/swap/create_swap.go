package swap

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillswap-backend/internal/validation"
)

type CreateSwapInput struct {
	RequesterID               uuid.UUID
	ProviderID                uuid.UUID
	SkillOfferedName          string
	SkillOfferedDescription   string
	SkillRequestedName        string
	SkillRequestedDescription string
	Message                   string
	ProposedSchedule          *valueobject.Schedule
}

type CreateSwapUseCase struct {
	swapRepo repository.SwapRepository
	users    repository.UserDirectory
	notifier Notifier
	now      Clock
}

func NewCreateSwapUseCase(swapRepo repository.SwapRepository, users repository.UserDirectory, notifier Notifier, now Clock) *CreateSwapUseCase {
	return &CreateSwapUseCase{
		swapRepo: swapRepo,
		users:    users,
		notifier: notifier,
		now:      now,
	}
}

func (uc *CreateSwapUseCase) Execute(ctx context.Context, input CreateSwapInput) (*entity.Swap, error) {
	offered, err := valueobject.NewSkill(input.SkillOfferedName, input.SkillOfferedDescription)
	if err != nil {
		return nil, err
	}
	requested, err := valueobject.NewSkill(input.SkillRequestedName, input.SkillRequestedDescription)
	if err != nil {
		return nil, err
	}
	message, err := validation.ValidateText("сообщение", input.Message, true, entity.MaxSwapMessageLength)
	if err != nil {
		return nil, err
	}
	if err := input.ProposedSchedule.Validate(); err != nil {
		return nil, err
	}
	if input.RequesterID == input.ProviderID {
		return nil, apperror.Conflict(apperror.ReasonSelfSwap, "нельзя предложить обмен самому себе")
	}

	requester, err := uc.users.GetUser(ctx, input.RequesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsActive {
		return nil, apperror.ErrInactiveAccount
	}

	provider, err := uc.users.GetUser(ctx, input.ProviderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrProviderUnavailable
		}
		return nil, err
	}
	if !provider.IsActive {
		return nil, apperror.ErrProviderUnavailable
	}

	if !provider.Offers(requested.Name) {
		return nil, apperror.Conflict(apperror.ReasonSkillMismatch, "пользователь не предлагает запрошенный навык")
	}
	if !requester.Offers(offered.Name) {
		return nil, apperror.Conflict(apperror.ReasonSkillMismatch, "вы не предлагаете этот навык")
	}

	pending, err := uc.swapRepo.HasPending(ctx, requester.ID, provider.ID, offered.Key(), requested.Key())
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperror.Conflict(apperror.ReasonDuplicatePending, "такой запрос на обмен уже ожидает ответа")
	}

	swap, err := entity.NewSwap(requester.ID, provider.ID, offered, requested, message, input.ProposedSchedule, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.swapRepo.Create(ctx, swap); err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, notification.SwapRequested(swap))
	return swap, nil
}
