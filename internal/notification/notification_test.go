package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/memory"
)

var now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func TestDefaultCatalog_CoversAllTypes(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	for _, nt := range valueobject.AllNotificationTypes {
		_, ok := c.lookup(nt)
		assert.True(t, ok, "нет шаблона для %s", nt)
	}

	banned, _ := c.lookup(valueobject.NotificationAccountBanned)
	assert.Equal(t, 90*24*time.Hour, banned.ttl)
	assert.Equal(t, valueobject.PriorityUrgent, banned.priority)
	assert.False(t, banned.needsSender)

	request, _ := c.lookup(valueobject.NotificationSwapRequest)
	assert.True(t, request.needsSender)
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog([]byte(`swap_request: {title: "a", message: "b"}`))
	assert.ErrorContains(t, err, "missing template")

	_, err = LoadCatalog([]byte(`unknown_type: {title: "a", message: "b"}`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = LoadCatalog([]byte(`swap_request: {title: "{{.Broken", message: "b"}`))
	assert.Error(t, err)

	_, err = LoadCatalog([]byte(`swap_request: {title: "a", message: "b", priority: "critical"}`))
	assert.ErrorContains(t, err, "invalid priority")

	_, err = LoadCatalog([]byte("not: [yaml"))
	assert.Error(t, err)
}

type emitterFixture struct {
	repo   *memory.NotificationRepository
	users  *memory.UserDirectory
	sender *entity.User
	emit   Emitter
}

func newEmitterFixture(t *testing.T, opts ...EmitterOption) *emitterFixture {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)

	f := &emitterFixture{
		repo:   memory.NewNotificationRepository(),
		sender: &entity.User{ID: uuid.New(), Name: "Алиса", IsActive: true},
	}
	f.users = memory.NewUserDirectory(f.sender)
	opts = append([]EmitterOption{WithClock(fixedClock)}, opts...)
	f.emit = NewEmitter(c, f.repo, f.users, opts...)
	return f
}

func testSwap(requester, provider uuid.UUID) *entity.Swap {
	return &entity.Swap{
		ID:             uuid.New(),
		RequesterID:    requester,
		ProviderID:     provider,
		SkillOffered:   valueobject.Skill{Name: "Python"},
		SkillRequested: valueobject.Skill{Name: "Гитара"},
		Status:         valueobject.SwapStatusPending,
	}
}

func TestEmitter_SwapRequest(t *testing.T) {
	f := newEmitterFixture(t)
	provider := uuid.New()
	s := testSwap(f.sender.ID, provider)

	n, err := f.emit.Emit(context.Background(), SwapRequested(s))
	require.NoError(t, err)

	assert.Equal(t, provider, n.RecipientID)
	assert.Equal(t, "Новый запрос на обмен", n.Title)
	assert.Equal(t, "Алиса предлагает Python в обмен на Гитара", n.Message)
	assert.Equal(t, "/swaps/"+s.ID.String(), n.ActionURL)
	assert.Equal(t, valueobject.PriorityMedium, n.Priority)
	require.NotNil(t, n.ExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *n.ExpiresAt)
	assert.Equal(t, s.ID, *n.Data.SwapID)
	assert.False(t, n.IsRead)

	stored := f.repo.All(provider)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)
}

func TestEmitter_SenderFallbackName(t *testing.T) {
	f := newEmitterFixture(t)
	unnamed := &entity.User{ID: uuid.New(), IsActive: true}
	f.users.Put(unnamed)
	s := testSwap(unnamed.ID, uuid.New())

	n, err := f.emit.Emit(context.Background(), SwapRequested(s))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n.Message, "Пользователь "))
}

func TestEmitter_UnknownSenderFails(t *testing.T) {
	f := newEmitterFixture(t)
	recipient := uuid.New()
	s := testSwap(uuid.New(), recipient)

	_, err := f.emit.Emit(context.Background(), SwapRequested(s))
	require.Error(t, err)
	assert.Empty(t, f.repo.All(recipient))
}

func TestEmitter_MissingVariableFails(t *testing.T) {
	f := newEmitterFixture(t)

	_, err := f.emit.Emit(context.Background(), Event{
		Type:        valueobject.NotificationSkillRejected,
		RecipientID: uuid.New(),
		Vars:        map[string]any{"SkillName": "Go"},
	})
	assert.Error(t, err)
}

func TestEmitter_RejectsEmptyRecipient(t *testing.T) {
	f := newEmitterFixture(t)
	_, err := f.emit.Emit(context.Background(), PlatformMessage("t", "c", valueobject.PriorityLow, uuid.New()))
	assert.Error(t, err)
}

func TestEmitter_OverridesAndTruncation(t *testing.T) {
	f := newEmitterFixture(t, WithDefaultTTL(time.Hour))
	recipient := uuid.New()
	expires := now.Add(5 * time.Minute)

	ev := PlatformMessage(strings.Repeat("з", 300), strings.Repeat("с", 600), valueobject.PriorityHigh, uuid.New())
	ev.RecipientID = recipient
	ev.ExpiresAt = &expires

	n, err := f.emit.Emit(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, entity.MaxNotificationTitleLength, len([]rune(n.Title)))
	assert.Equal(t, entity.MaxNotificationMessageLength, len([]rune(n.Message)))
	assert.Equal(t, valueobject.PriorityHigh, n.Priority)
	assert.Equal(t, expires, *n.ExpiresAt)
	assert.Nil(t, n.SenderID)

	ev.ExpiresAt = nil
	n, err = f.emit.Emit(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), *n.ExpiresAt, "TTL по умолчанию")
}

func TestEmitter_CatalogTTL(t *testing.T) {
	f := newEmitterFixture(t)

	n, err := f.emit.Emit(context.Background(), Event{
		Type:        valueobject.NotificationAccountBanned,
		RecipientID: uuid.New(),
		Vars:        map[string]any{"Reason": "спам"},
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(2160*time.Hour), *n.ExpiresAt)
	assert.Equal(t, "Ваш аккаунт заблокирован: спам", n.Message)
}

func TestEvents_Recipients(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := testSwap(a, b)

	assert.Equal(t, b, SwapRequested(s).RecipientID)

	s.Status = valueobject.SwapStatusRejected
	resp := SwapResponded(s)
	assert.Equal(t, valueobject.NotificationSwapRejected, resp.Type)
	assert.Equal(t, a, resp.RecipientID)
	assert.Equal(t, b, *resp.SenderID)

	s.Status = valueobject.SwapStatusAccepted
	assert.Equal(t, valueobject.NotificationSwapAccepted, SwapResponded(s).Type)

	cancelled := SwapCancelled(s, b, "нет времени")
	assert.Equal(t, a, cancelled.RecipientID)
	assert.Equal(t, "нет времени", cancelled.Metadata["reason"])

	assert.Equal(t, b, MessageReceived(s, a).RecipientID)

	done := SwapCompleted(s)
	require.Len(t, done, 2)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, []uuid.UUID{done[0].RecipientID, done[1].RecipientID})
}

type flakyEmitter struct {
	mu     sync.Mutex
	calls  []Event
	failOn map[uuid.UUID]bool
}

func (e *flakyEmitter) Emit(_ context.Context, ev Event) (*entity.Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, ev)
	if e.failOn[ev.RecipientID] {
		return nil, errors.New("storage unavailable")
	}
	return &entity.Notification{ID: uuid.New(), RecipientID: ev.RecipientID}, nil
}

func TestDispatcher_LogsFailuresAndContinues(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	em := &flakyEmitter{failOn: map[uuid.UUID]bool{bad: true}}
	log, hook := test.NewNullLogger()
	d := NewDispatcher(em, log, DispatcherConfig{Timeout: time.Second})

	swapID := uuid.New()
	d.Dispatch(context.Background(),
		Event{Type: valueobject.NotificationSwapCompleted, RecipientID: bad, SwapID: &swapID},
		Event{Type: valueobject.NotificationSwapCompleted, RecipientID: good, SwapID: &swapID},
	)
	d.Wait()

	assert.Len(t, em.calls, 2)
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, bad, entry.Data["recipient"])
	assert.Equal(t, swapID, entry.Data["swap_id"])
}

func TestDispatcher_SurvivesCancelledRequest(t *testing.T) {
	em := &flakyEmitter{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(em, log, DispatcherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, Event{Type: valueobject.NotificationSwapRequest, RecipientID: uuid.New()})

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, d.Shutdown(shutdownCtx))
	assert.Len(t, em.calls, 1)
}

func TestDispatcher_Broadcast(t *testing.T) {
	recent := &entity.User{ID: uuid.New(), IsActive: true, CreatedAt: now.AddDate(0, 0, -3), UpdatedAt: now.AddDate(0, 0, -1)}
	veteran := &entity.User{ID: uuid.New(), IsActive: true, CreatedAt: now.AddDate(-1, 0, 0), UpdatedAt: now.AddDate(0, 0, -2)}
	idle := &entity.User{ID: uuid.New(), IsActive: true, CreatedAt: now.AddDate(-1, 0, 0), UpdatedAt: now.AddDate(0, -1, 0)}
	banned := &entity.User{ID: uuid.New(), IsActive: false, CreatedAt: now, UpdatedAt: now}
	users := memory.NewUserDirectory(recent, veteran, idle, banned)

	em := &flakyEmitter{failOn: map[uuid.UUID]bool{idle.ID: true}}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(em, log, DispatcherConfig{Concurrency: 2, Now: fixedClock})
	ev := PlatformMessage("Обновление", "Новые функции", valueobject.PriorityMedium, uuid.New())

	res, err := d.Broadcast(context.Background(), users, valueobject.AudienceAll, ev)
	require.NoError(t, err)
	assert.Equal(t, BroadcastResult{Recipients: 3, Delivered: 2, Failed: 1}, res)

	recipients := make([]uuid.UUID, 0, len(em.calls))
	for _, c := range em.calls {
		recipients = append(recipients, c.RecipientID)
	}
	assert.ElementsMatch(t, []uuid.UUID{recent.ID, veteran.ID, idle.ID}, recipients)

	newUsers, err := ResolveAudience(context.Background(), users, valueobject.AudienceNewUsers, now)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{recent.ID}, newUsers)

	active, err := ResolveAudience(context.Background(), users, valueobject.AudienceActiveUsers, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{recent.ID, veteran.ID}, active)

	_, err = ResolveAudience(context.Background(), users, valueobject.Audience("vip"), now)
	assert.Error(t, err)
}
