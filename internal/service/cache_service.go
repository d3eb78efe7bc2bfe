package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
)

// CacheService - кэш в памяти с TTL и инвалидацией по префиксу.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

func NewCacheService(now func() time.Time) *CacheService {
	if now == nil {
		now = time.Now
	}
	return &CacheService{
		cache: make(map[string]*cacheEntry),
		now:   now,
	}
}

// Get возвращает значение, если оно есть и не просрочено.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || cs.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: cs.now().Add(ttl),
	}
}

func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix удаляет все ключи с указанным префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// Cleanup удаляет просроченные записи и возвращает их количество.
func (cs *CacheService) Cleanup() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	removed := 0
	for key, entry := range cs.cache {
		if now.After(entry.expiresAt) {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

// RunCleanup периодически чистит кэш до отмены ctx.
func (cs *CacheService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.Cleanup()
		}
	}
}

func UserCacheKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// CachedUserDirectory кэширует GetUser. Используется там, где допустимы
// слегка устаревшие данные, например имя отправителя в тексте уведомления.
type CachedUserDirectory struct {
	repository.UserDirectory
	cache *CacheService
	ttl   time.Duration
}

var _ repository.UserDirectory = (*CachedUserDirectory)(nil)

func NewCachedUserDirectory(users repository.UserDirectory, cache *CacheService, ttl time.Duration) *CachedUserDirectory {
	return &CachedUserDirectory{UserDirectory: users, cache: cache, ttl: ttl}
}

func (d *CachedUserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	key := UserCacheKey(id)
	if v, ok := d.cache.Get(key); ok {
		u := *v.(*entity.User)
		return &u, nil
	}

	u, err := d.UserDirectory.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *u
	d.cache.Set(key, &cp, d.ttl)
	return u, nil
}

func (d *CachedUserDirectory) UpdateAggregateRating(ctx context.Context, id uuid.UUID, rating int) error {
	defer d.cache.Delete(UserCacheKey(id))
	return d.UserDirectory.UpdateAggregateRating(ctx, id, rating)
}
