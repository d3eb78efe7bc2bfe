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

type UserDirectory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*entity.User
}

var _ repository.UserDirectory = (*UserDirectory)(nil)

func NewUserDirectory(users ...*entity.User) *UserDirectory {
	d := &UserDirectory{users: make(map[uuid.UUID]*entity.User, len(users))}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put добавляет или заменяет пользователя.
func (d *UserDirectory) Put(u *entity.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *u
	cp.SkillsOffered = append([]string(nil), u.SkillsOffered...)
	cp.SkillsWanted = append([]string(nil), u.SkillsWanted...)
	d.users[u.ID] = &cp
}

func (d *UserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateAggregateRating пересчитывает средний рейтинг инкрементально.
func (d *UserDirectory) UpdateAggregateRating(ctx context.Context, id uuid.UUID, rating int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return apperror.ErrUserNotFound
	}
	total := u.RatingAverage*float64(u.RatingCount) + float64(rating)
	u.RatingCount++
	u.RatingAverage = total / float64(u.RatingCount)
	return nil
}

func (d *UserDirectory) ListActiveUserIDs(ctx context.Context, since *time.Time, byActivity bool) ([]uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(d.users))
	for _, u := range d.users {
		if !u.IsActive {
			continue
		}
		if since != nil {
			ts := u.CreatedAt
			if byActivity {
				ts = u.UpdatedAt
			}
			if ts.Before(*since) {
				continue
			}
		}
		ids = append(ids, u.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
