// Package memory содержит хранилища в памяти процесса. Используются в тестах
// и в режиме разработки без базы данных.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

type SwapStore struct {
	mu    sync.RWMutex
	swaps map[uuid.UUID]*entity.Swap

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

var _ repository.SwapRepository = (*SwapStore)(nil)

func NewSwapStore() *SwapStore {
	return &SwapStore{
		swaps: make(map[uuid.UUID]*entity.Swap),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *SwapStore) Create(ctx context.Context, swap *entity.Swap) error {
	if err := ctx.Err(); err != nil {
		return apperror.Persistence(err, "ошибка создания обмена")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.swaps[swap.ID]; exists {
		return apperror.New(apperror.ErrCodeConflict, "обмен уже существует")
	}
	if s.hasPendingLocked(swap.RequesterID, swap.ProviderID, swap.SkillOffered.Key(), swap.SkillRequested.Key()) {
		return apperror.Conflict(apperror.ReasonDuplicatePending, "такой запрос на обмен уже ожидает ответа")
	}
	s.swaps[swap.ID] = swap.Clone()
	return nil
}

func (s *SwapStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Swap, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Persistence(err, "ошибка получения обмена")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	swap, ok := s.swaps[id]
	if !ok {
		return nil, apperror.ErrSwapNotFound
	}
	return swap.Clone(), nil
}

func (s *SwapStore) Mutate(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (*entity.Swap, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Persistence(err, "ошибка обновления обмена")
	}

	// Блокировка заводится только для существующих обменов. Обмены не
	// удаляются, поэтому карта блокировок не больше карты обменов.
	s.mu.RLock()
	_, exists := s.swaps[id]
	s.mu.RUnlock()
	if !exists {
		return nil, apperror.ErrSwapNotFound
	}

	lock := s.recordLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, apperror.Persistence(err, "ошибка обновления обмена")
	}

	s.mu.RLock()
	current, ok := s.swaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.ErrSwapNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if err := working.CheckInvariants(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "нарушена целостность обмена")
	}
	working.Version = current.Version + 1

	s.mu.Lock()
	s.swaps[id] = working
	s.mu.Unlock()

	return working.Clone(), nil
}

func (s *SwapStore) ListByParty(ctx context.Context, filter repository.SwapFilter) ([]*entity.Swap, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, apperror.Persistence(err, "ошибка получения списка обменов")
	}

	s.mu.RLock()
	var matched []*entity.Swap
	for _, swap := range s.swaps {
		if matchesFilter(swap, filter) {
			matched = append(matched, swap.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start, end := pageBounds(total, filter.Offset, filter.Limit)
	if start == end {
		return []*entity.Swap{}, total, nil
	}
	return matched[start:end], total, nil
}

func (s *SwapStore) CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.SwapStatus]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Persistence(err, "ошибка подсчёта обменов")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[valueobject.SwapStatus]int, len(valueobject.AllSwapStatuses))
	for _, swap := range s.swaps {
		if swap.IsParty(userID) {
			counts[swap.Status]++
		}
	}
	return counts, nil
}

func (s *SwapStore) HasPending(ctx context.Context, requesterID, providerID uuid.UUID, offeredKey, requestedKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperror.Persistence(err, "ошибка проверки обменов")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPendingLocked(requesterID, providerID, offeredKey, requestedKey), nil
}

func (s *SwapStore) hasPendingLocked(requesterID, providerID uuid.UUID, offeredKey, requestedKey string) bool {
	for _, swap := range s.swaps {
		if swap.Status == valueobject.SwapStatusPending &&
			swap.RequesterID == requesterID &&
			swap.ProviderID == providerID &&
			swap.SkillOffered.Key() == offeredKey &&
			swap.SkillRequested.Key() == requestedKey {
			return true
		}
	}
	return false
}

func (s *SwapStore) recordLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// pageBounds переводит offset/limit в границы среза длины total.
// Отрицательный offset считается нулевым, limit <= 0 снимает ограничение.
func pageBounds(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return total, total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return offset, end
}

func matchesFilter(swap *entity.Swap, f repository.SwapFilter) bool {
	switch f.Type {
	case valueobject.SwapListSent:
		if swap.RequesterID != f.UserID {
			return false
		}
	case valueobject.SwapListReceived:
		if swap.ProviderID != f.UserID {
			return false
		}
	default:
		if !swap.IsParty(f.UserID) {
			return false
		}
	}
	if f.Status != nil && swap.Status != *f.Status {
		return false
	}
	return swap.IsArchived == f.Archived
}

// Len возвращает число сохранённых обменов.
func (s *SwapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.swaps)
}
