package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationPage - страница входящих уведомлений.
type NotificationPage struct {
	Items       []*entity.Notification
	Total       int
	UnreadCount int
	Page        int
	Limit       int
}

// NotificationService - входящие уведомления пользователя. Создаёт уведомления
// только notification.Emitter, сервис их читает, помечает и удаляет.
type NotificationService struct {
	repo repository.NotificationRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo repository.NotificationRepository, log logrus.FieldLogger, now func() time.Time) *NotificationService {
	return &NotificationService{repo: repo, log: log, now: now}
}

// List возвращает непросроченные уведомления пользователя, новые первыми.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page, limit int, unreadOnly bool) (*NotificationPage, error) {
	if limit <= 0 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt/limit {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер страницы слишком большой")
	}

	now := s.now()
	items, total, err := s.repo.List(ctx, repository.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Now:        now,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
	}, nil
}

// MarkAsRead отмечает уведомление как прочитанное. Чужие уведомления не видны.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID, s.now())
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.now())
}

// Delete удаляет уведомление получателя.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID, s.now())
}

// PurgeExpired удаляет уведомления с истёкшим сроком жизни.
func (s *NotificationService) PurgeExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("Удалены просроченные уведомления")
	}
	return removed, nil
}

// RunJanitor периодически удаляет просроченные уведомления до отмены ctx.
func (s *NotificationService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				s.log.WithError(err).Warn("Не удалось удалить просроченные уведомления")
			}
		}
	}
}
