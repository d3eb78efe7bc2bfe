package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

type NotificationRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.Notification
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[uuid.UUID]*entity.Notification)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if err := ctx.Err(); err != nil {
		return apperror.Persistence(err, "ошибка создания уведомления")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, apperror.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *NotificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]*entity.Notification, int, error) {
	r.mu.RLock()
	var matched []*entity.Notification
	for _, n := range r.items {
		if n.RecipientID != filter.UserID || n.IsExpired(filter.Now) {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		cp := *n
		matched = append(matched, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start, end := pageBounds(total, filter.Offset, filter.Limit)
	if start == end {
		return []*entity.Notification{}, total, nil
	}
	return matched[start:end], total, nil
}

// All возвращает уведомления получателя без фильтрации и пагинации.
func (r *NotificationRepository) All(userID uuid.UUID) []*entity.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Notification
	for _, n := range r.items {
		if n.RecipientID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.items {
		if n.RecipientID == userID && !n.IsRead && !n.IsExpired(now) {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.RecipientID != userID {
		return apperror.ErrNotificationNotFound
	}
	n.MarkRead(now)
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for _, n := range r.items {
		if n.RecipientID == userID && !n.IsRead {
			n.MarkRead(now)
			updated++
		}
	}
	return updated, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.RecipientID != userID {
		return apperror.ErrNotificationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, n := range r.items {
		if n.IsExpired(now) {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}
