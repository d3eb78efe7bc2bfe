package swap_test

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/swap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Dispatch(_ context.Context, events ...notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) types() []valueobject.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]valueobject.NotificationType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

type fixture struct {
	swaps    *memory.SwapStore
	users    *memory.UserDirectory
	notifier *recordingNotifier
	now      time.Time

	alice *entity.User
	bob   *entity.User

	create   *swap.CreateSwapUseCase
	respond  *swap.RespondSwapUseCase
	complete *swap.CompleteSwapUseCase
	cancel   *swap.CancelSwapUseCase
	archive  *swap.ArchiveSwapUseCase
	message  *swap.AppendMessageUseCase
	get      *swap.GetSwapUseCase
	list     *swap.ListSwapsUseCase
	stats    *swap.SwapStatsUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		swaps:    memory.NewSwapStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		alice: &entity.User{
			ID: uuid.New(), Name: "Алиса", IsActive: true,
			SkillsOffered: []string{"Python"}, SkillsWanted: []string{"Guitar"},
		},
		bob: &entity.User{
			ID: uuid.New(), Name: "Боб", IsActive: true,
			SkillsOffered: []string{"Guitar"}, SkillsWanted: []string{"Python"},
		},
	}
	f.users = memory.NewUserDirectory(f.alice, f.bob)
	clock := func() time.Time { return f.now }

	f.create = swap.NewCreateSwapUseCase(f.swaps, f.users, f.notifier, clock)
	f.respond = swap.NewRespondSwapUseCase(f.swaps, f.notifier, clock)
	f.complete = swap.NewCompleteSwapUseCase(f.swaps, f.notifier, clock)
	f.cancel = swap.NewCancelSwapUseCase(f.swaps, f.notifier, clock)
	f.archive = swap.NewArchiveSwapUseCase(f.swaps, clock)
	f.message = swap.NewAppendMessageUseCase(f.swaps, f.notifier, clock)
	f.get = swap.NewGetSwapUseCase(f.swaps)
	f.list = swap.NewListSwapsUseCase(f.swaps)
	f.stats = swap.NewSwapStatsUseCase(f.swaps)
	return f
}

func (f *fixture) createInput() swap.CreateSwapInput {
	return swap.CreateSwapInput{
		RequesterID:        f.alice.ID,
		ProviderID:         f.bob.ID,
		SkillOfferedName:   "Python",
		SkillRequestedName: "Guitar",
		Message:            "Научу Python в обмен на гитару",
	}
}

func (f *fixture) mustCreate(t *testing.T) *entity.Swap {
	t.Helper()
	s, err := f.create.Execute(context.Background(), f.createInput())
	require.NoError(t, err)
	return s
}

func (f *fixture) mustAccept(t *testing.T, s *entity.Swap) *entity.Swap {
	t.Helper()
	out, err := f.respond.Execute(context.Background(), swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: "accept"})
	require.NoError(t, err)
	return out
}

func TestCreateSwap_NotifiesProvider(t *testing.T) {
	f := newFixture(t)

	s := f.mustCreate(t)

	assert.Equal(t, valueobject.SwapStatusPending, s.Status)
	assert.Equal(t, f.now, s.CreatedAt)
	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, valueobject.NotificationSwapRequest, ev.Type)
	assert.Equal(t, f.bob.ID, ev.RecipientID)
	assert.Equal(t, f.alice.ID, *ev.SenderID)
	assert.Equal(t, s.ID, *ev.SwapID)
}

func TestCreateSwap_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.createInput()
	in.Message = "   "
	_, err := f.create.Execute(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	in = f.createInput()
	in.SkillOfferedName = ""
	_, err = f.create.Execute(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	in = f.createInput()
	in.ProviderID = f.alice.ID
	_, err = f.create.Execute(ctx, in)
	assert.Equal(t, apperror.ReasonSelfSwap, apperror.ReasonOf(err))

	assert.Zero(t, f.swaps.Len())
	assert.Empty(t, f.notifier.events)
}

func TestCreateSwap_ProviderUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.createInput()
	in.ProviderID = uuid.New()
	_, err := f.create.Execute(ctx, in)
	assert.True(t, errors.Is(err, apperror.ErrProviderUnavailable))

	inactive := *f.bob
	inactive.IsActive = false
	f.users.Put(&inactive)
	_, err = f.create.Execute(ctx, f.createInput())
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateSwap_InactiveRequester(t *testing.T) {
	f := newFixture(t)
	inactive := *f.alice
	inactive.IsActive = false
	f.users.Put(&inactive)

	_, err := f.create.Execute(context.Background(), f.createInput())
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateSwap_SkillMismatch(t *testing.T) {
	f := newFixture(t)

	in := f.createInput()
	in.SkillRequestedName = "Piano"
	_, err := f.create.Execute(context.Background(), in)
	assert.Equal(t, apperror.ReasonSkillMismatch, apperror.ReasonOf(err))

	in = f.createInput()
	in.SkillOfferedName = "Rust"
	_, err = f.create.Execute(context.Background(), in)
	assert.Equal(t, apperror.ReasonSkillMismatch, apperror.ReasonOf(err))
}

func TestCreateSwap_SkillMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	in := f.createInput()
	in.SkillOfferedName = "  python "
	in.SkillRequestedName = "GUITAR"
	_, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateSwap_DuplicatePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t)

	in := f.createInput()
	in.SkillOfferedName = "PYTHON"
	_, err := f.create.Execute(ctx, in)
	assert.Equal(t, apperror.ReasonDuplicatePending, apperror.ReasonOf(err))
	assert.Equal(t, 1, f.swaps.Len())
}

func TestCreateSwap_AfterRejectAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)

	_, err := f.respond.Execute(ctx, swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: "reject"})
	require.NoError(t, err)

	_, err = f.create.Execute(ctx, f.createInput())
	assert.NoError(t, err)
}

func TestRespondSwap_RejectThenAcceptConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.notifier.reset()

	rejected, err := f.respond.Execute(ctx, swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: "reject", Message: "Не сейчас"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.SwapStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedAt)
	require.Len(t, rejected.Responses, 1)
	assert.Equal(t, []valueobject.NotificationType{valueobject.NotificationSwapRejected}, f.notifier.types())
	assert.Equal(t, f.alice.ID, f.notifier.events[0].RecipientID)

	_, err = f.respond.Execute(ctx, swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: "accept"})
	assert.True(t, apperror.IsConflict(err))

	got, err := f.get.Execute(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.SwapStatusRejected, got.Status)
	assert.Len(t, f.notifier.events, 1, "неудачный переход не уведомляет")
}

func TestRespondSwap_RequesterCannotRespond(t *testing.T) {
	f := newFixture(t)
	s := f.mustCreate(t)

	_, err := f.respond.Execute(context.Background(), swap.RespondSwapInput{SwapID: s.ID, ActorID: f.alice.ID, Action: "accept"})
	assert.True(t, errors.Is(err, apperror.ErrNotProvider))

	_, err = f.respond.Execute(context.Background(), swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: "later"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.respond.Execute(context.Background(), swap.RespondSwapInput{SwapID: uuid.New(), ActorID: f.bob.ID, Action: "accept"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestRespondSwap_ConcurrentExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	s := f.mustCreate(t)
	f.notifier.reset()

	const attempts = 16
	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		action := "accept"
		if i%2 == 1 {
			action = "reject"
		}
		wg.Add(1)
		go func(action string) {
			defer wg.Done()
			_, err := f.respond.Execute(context.Background(), swap.RespondSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Action: action})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case apperror.IsConflict(err):
				atomic.AddInt32(&conflicts, 1)
			}
		}(action)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(attempts-1), conflicts)
	assert.Len(t, f.notifier.events, 1)

	got, err := f.swaps.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 1)
	assert.NoError(t, got.CheckInvariants())
}

func TestCompleteSwap_NotifiesBothParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.mustAccept(t, s)
	f.notifier.reset()

	f.now = f.now.Add(24 * time.Hour)
	done, err := f.complete.Execute(ctx, s.ID, f.alice.ID)
	require.NoError(t, err)

	assert.Equal(t, valueobject.SwapStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, f.now, *done.CompletedAt)
	assert.Nil(t, done.AcceptedAt)

	recipients := []uuid.UUID{}
	for _, ev := range f.notifier.events {
		assert.Equal(t, valueobject.NotificationSwapCompleted, ev.Type)
		recipients = append(recipients, ev.RecipientID)
	}
	assert.ElementsMatch(t, []uuid.UUID{f.alice.ID, f.bob.ID}, recipients)
}

func TestCompleteSwap_FromPendingConflict(t *testing.T) {
	f := newFixture(t)
	s := f.mustCreate(t)

	_, err := f.complete.Execute(context.Background(), s.ID, f.alice.ID)
	assert.Equal(t, apperror.ReasonIllegalTransition, apperror.ReasonOf(err))

	_, err = f.complete.Execute(context.Background(), s.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotSwapParty))
}

func TestCancelSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.mustAccept(t, s)
	f.notifier.reset()

	cancelled, err := f.cancel.Execute(ctx, swap.CancelSwapInput{SwapID: s.ID, ActorID: f.bob.ID, Reason: "Заболел"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.SwapStatusCancelled, cancelled.Status)
	assert.Equal(t, "Причина отмены: Заболел", cancelled.Responses[len(cancelled.Responses)-1].Message)

	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, valueobject.NotificationSwapCancelled, ev.Type)
	assert.Equal(t, f.alice.ID, ev.RecipientID)
	assert.Equal(t, "Заболел", ev.Metadata["reason"])

	_, err = f.cancel.Execute(ctx, swap.CancelSwapInput{SwapID: s.ID, ActorID: f.bob.ID})
	assert.True(t, apperror.IsConflict(err), "повторная отмена")
}

func TestCancelSwap_CompletedConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.mustAccept(t, s)
	_, err := f.complete.Execute(ctx, s.ID, f.bob.ID)
	require.NoError(t, err)

	_, err = f.cancel.Execute(ctx, swap.CancelSwapInput{SwapID: s.ID, ActorID: f.alice.ID})
	assert.True(t, apperror.IsConflict(err))

	got, _ := f.swaps.FindByID(ctx, s.ID)
	assert.Equal(t, valueobject.SwapStatusCompleted, got.Status)
}

func TestAppendMessage_NotifiesCounterparty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.notifier.reset()

	out, err := f.message.Execute(ctx, swap.AppendMessageInput{SwapID: s.ID, ActorID: f.bob.ID, Message: "Во сколько удобно?"})
	require.NoError(t, err)
	require.Len(t, out.Responses, 1)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, valueobject.NotificationMessageReceived, f.notifier.events[0].Type)
	assert.Equal(t, f.alice.ID, f.notifier.events[0].RecipientID)

	_, err = f.message.Execute(ctx, swap.AppendMessageInput{SwapID: s.ID, ActorID: uuid.New(), Message: "hi"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestArchiveAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)

	out, err := f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Type: "received"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, swap.DefaultListLimit, out.Limit)
	assert.Equal(t, 1, out.Pages)

	_, err = f.archive.Execute(ctx, s.ID, f.bob.ID, true)
	require.NoError(t, err)

	out, err = f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Zero(t, out.Total)

	out, err = f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Archived: true, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	_, err = f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Limit: swap.MaxListLimit + 1})
	assert.True(t, apperror.IsValidation(err))
	_, err = f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Status: "archived"})
	assert.True(t, apperror.IsValidation(err))
}

func TestListSwaps_PageOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t)

	for _, page := range []int{math.MaxInt, math.MaxInt/10 + 2} {
		assert.NotPanics(t, func() {
			_, err := f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Page: page, Limit: 10})
			assert.True(t, apperror.IsValidation(err))
			assert.False(t, apperror.IsRetryable(err))
		})
	}

	out, err := f.list.Execute(ctx, swap.ListSwapsInput{UserID: f.bob.ID, Page: 1000, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	assert.Empty(t, out.Items)
}

func TestGetSwap_OnlyParties(t *testing.T) {
	f := newFixture(t)
	s := f.mustCreate(t)

	_, err := f.get.Execute(context.Background(), s.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotSwapParty))
}

func TestSwapStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.mustCreate(t)
	f.mustAccept(t, s)

	in := f.createInput()
	in.SkillOfferedName = "python"
	in.Message = "ещё раз"
	// первый обмен уже принят, повторный запрос разрешён
	_, err := f.create.Execute(ctx, in)
	require.NoError(t, err)

	stats, err := f.stats.Execute(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Accepted)
}

func TestCreateSwap_DeliversThroughDispatcher(t *testing.T) {
	f := newFixture(t)
	notifications := memory.NewNotificationRepository()
	catalog, err := notification.DefaultCatalog()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	dispatcher := notification.NewDispatcher(
		notification.NewEmitter(catalog, notifications, f.users),
		log,
		notification.DispatcherConfig{Timeout: time.Second},
	)
	create := swap.NewCreateSwapUseCase(f.swaps, f.users, dispatcher, func() time.Time { return f.now })

	ctx, cancel := context.WithCancel(context.Background())
	s, err := create.Execute(ctx, f.createInput())
	require.NoError(t, err)
	cancel()
	dispatcher.Wait()

	inbox := notifications.All(f.bob.ID)
	require.Len(t, inbox, 1, "отмена контекста запроса не прерывает доставку")
	assert.Equal(t, valueobject.NotificationSwapRequest, inbox[0].Type)
	assert.Equal(t, s.ID, *inbox[0].Data.SwapID)
	assert.Contains(t, inbox[0].Message, "Алиса")
}
