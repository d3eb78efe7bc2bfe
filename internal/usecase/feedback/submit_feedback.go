package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/swap"
)

type SubmitFeedbackInput struct {
	SwapID  uuid.UUID
	ActorID uuid.UUID
	Rating  int
	Comment string
}

type SubmitFeedbackUseCase struct {
	swapRepo repository.SwapRepository
	users    repository.UserDirectory
	notifier swap.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewSubmitFeedbackUseCase(
	swapRepo repository.SwapRepository,
	users repository.UserDirectory,
	notifier swap.Notifier,
	log logrus.FieldLogger,
	now func() time.Time,
) *SubmitFeedbackUseCase {
	return &SubmitFeedbackUseCase{
		swapRepo: swapRepo,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      now,
	}
}

// Execute заполняет слот отзыва участника. Обновление рейтинга получателя
// делегируется справочнику пользователей; его сбой не отменяет отзыв.
func (uc *SubmitFeedbackUseCase) Execute(ctx context.Context, input SubmitFeedbackInput) (*entity.FeedbackRecord, error) {
	rating, err := valueobject.NewRating(input.Rating)
	if err != nil {
		return nil, err
	}
	comment, err := valueobject.NewFeedbackComment(input.Comment)
	if err != nil {
		return nil, err
	}

	var record *entity.FeedbackRecord
	_, err = uc.swapRepo.Mutate(ctx, input.SwapID, func(s *entity.Swap) error {
		fb, err := s.SubmitFeedback(input.ActorID, rating, comment, uc.now())
		if err != nil {
			return err
		}
		record = entity.NewFeedbackRecord(s, input.ActorID, fb)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.users.UpdateAggregateRating(ctx, record.ToUserID, rating.Int()); err != nil {
		uc.log.WithFields(logrus.Fields{
			"swap_id": record.SwapID,
			"user_id": record.ToUserID,
			"rating":  rating.Int(),
		}).WithError(err).Error("Не удалось обновить рейтинг пользователя")
	}

	uc.notifier.Dispatch(ctx, notification.FeedbackReceived(record))
	return record, nil
}

type CanSubmitFeedbackUseCase struct {
	swapRepo repository.SwapRepository
}

func NewCanSubmitFeedbackUseCase(swapRepo repository.SwapRepository) *CanSubmitFeedbackUseCase {
	return &CanSubmitFeedbackUseCase{swapRepo: swapRepo}
}

// Execute отвечает, может ли участник оставить отзыв сейчас.
func (uc *CanSubmitFeedbackUseCase) Execute(ctx context.Context, swapID, actorID uuid.UUID) (bool, error) {
	s, err := uc.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return false, err
	}
	if !s.IsParty(actorID) {
		return false, nil
	}
	return s.CanSubmitFeedback(actorID), nil
}
