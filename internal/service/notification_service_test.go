package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

func seedInbox(t *testing.T, repo *memory.NotificationRepository, userID uuid.UUID, at time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		expires := at.Add(time.Hour)
		require.NoError(t, repo.Create(context.Background(), &entity.Notification{
			ID:          uuid.New(),
			RecipientID: userID,
			Title:       "t",
			Message:     "m",
			CreatedAt:   at.Add(time.Duration(i) * time.Second),
			ExpiresAt:   &expires,
		}))
	}
}

func TestNotificationService_ListPaginates(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewNotificationRepository()
	log, _ := test.NewNullLogger()
	svc := NewNotificationService(repo, log, clock.Now)
	me := uuid.New()
	seedInbox(t, repo, me, clock.t, 5)

	page, err := svc.List(ctx, me, 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 5, page.UnreadCount)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	page, err = svc.List(ctx, me, 0, 1000, false)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultNotificationLimit, page.Limit)
}

func TestNotificationService_ListPageOverflow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewNotificationRepository()
	log, _ := test.NewNullLogger()
	svc := NewNotificationService(repo, log, clock.Now)
	me := uuid.New()
	seedInbox(t, repo, me, clock.t, 1)

	assert.NotPanics(t, func() {
		_, err := svc.List(context.Background(), me, math.MaxInt, 10, false)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestNotificationService_ReadFlow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewNotificationRepository()
	log, _ := test.NewNullLogger()
	svc := NewNotificationService(repo, log, clock.Now)
	me := uuid.New()
	seedInbox(t, repo, me, clock.t, 3)

	first := repo.All(me)[0]
	require.NoError(t, svc.MarkAsRead(ctx, first.ID, me))

	unread, err := svc.CountUnread(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	page, err := svc.List(ctx, me, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	updated, err := svc.MarkAllAsRead(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	err = svc.Delete(ctx, first.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotificationNotFound))
	require.NoError(t, svc.Delete(ctx, first.ID, me))
}

func TestNotificationService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewNotificationRepository()
	log, hook := test.NewNullLogger()
	svc := NewNotificationService(repo, log, clock.Now)
	me := uuid.New()
	seedInbox(t, repo, me, clock.t, 2)

	removed, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	clock.t = clock.t.Add(2 * time.Hour)
	count, err := svc.CountUnread(ctx, me)
	require.NoError(t, err)
	assert.Zero(t, count, "просроченные не считаются")

	removed, err = svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 2, hook.LastEntry().Data["removed"])
}

func TestNotificationService_RunJanitorStopsOnCancel(t *testing.T) {
	repo := memory.NewNotificationRepository()
	log, _ := test.NewNullLogger()
	svc := NewNotificationService(repo, log, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunJanitor(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor не остановился")
	}
}
