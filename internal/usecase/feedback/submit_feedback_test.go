package feedback_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/feedback"
)

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserDirectory) UpdateAggregateRating(ctx context.Context, id uuid.UUID, rating int) error {
	return m.Called(ctx, id, rating).Error(0)
}

func (m *mockUserDirectory) ListActiveUserIDs(ctx context.Context, since *time.Time, byActivity bool) ([]uuid.UUID, error) {
	args := m.Called(ctx, since, byActivity)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type recordingNotifier struct {
	events []notification.Event
}

func (n *recordingNotifier) Dispatch(_ context.Context, events ...notification.Event) {
	n.events = append(n.events, events...)
}

var now = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

func completedSwap(t *testing.T, store *memory.SwapStore) *entity.Swap {
	t.Helper()
	s, err := entity.NewSwap(uuid.New(), uuid.New(),
		valueobject.Skill{Name: "Python"}, valueobject.Skill{Name: "Guitar"}, "привет", nil, now)
	require.NoError(t, err)
	require.NoError(t, s.Accept(s.ProviderID, "", now))
	require.NoError(t, s.Complete(s.RequesterID, now))
	require.NoError(t, store.Create(context.Background(), s))
	return s
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSubmitFeedback_OncePerParty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSwapStore()
	s := completedSwap(t, store)
	users := &mockUserDirectory{}
	users.On("UpdateAggregateRating", mock.Anything, s.ProviderID, 5).Return(nil).Once()
	users.On("UpdateAggregateRating", mock.Anything, s.RequesterID, 4).Return(nil).Once()
	notifier := &recordingNotifier{}
	uc := feedback.NewSubmitFeedbackUseCase(store, users, notifier, quietLogger(), func() time.Time { return now })

	rec, err := uc.Execute(ctx, feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.RequesterID, Rating: 5, Comment: "Супер"})
	require.NoError(t, err)
	assert.Equal(t, s.ProviderID, rec.ToUserID)
	assert.Equal(t, "Python", rec.SkillTaught)
	assert.Equal(t, "Guitar", rec.SkillLearned)

	_, err = uc.Execute(ctx, feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.RequesterID, Rating: 5})
	assert.Equal(t, apperror.ReasonFeedbackExists, apperror.ReasonOf(err))

	rec, err = uc.Execute(ctx, feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.ProviderID, Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, s.RequesterID, rec.ToUserID)

	stored, err := store.FindByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Feedback.Requester)
	require.NotNil(t, stored.Feedback.Provider)
	assert.Equal(t, valueobject.Rating(5), stored.Feedback.Requester.Rating)
	assert.Equal(t, valueobject.Rating(4), stored.Feedback.Provider.Rating)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, valueobject.NotificationFeedbackReceived, notifier.events[0].Type)
	assert.Equal(t, s.ProviderID, notifier.events[0].RecipientID)
	users.AssertExpectations(t)
}

func TestSubmitFeedback_ValidationBeforeStore(t *testing.T) {
	store := memory.NewSwapStore()
	s := completedSwap(t, store)
	users := &mockUserDirectory{}
	uc := feedback.NewSubmitFeedbackUseCase(store, users, &recordingNotifier{}, quietLogger(), func() time.Time { return now })

	_, err := uc.Execute(context.Background(), feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.RequesterID, Rating: 6})
	assert.True(t, apperror.IsValidation(err))

	stored, _ := store.FindByID(context.Background(), s.ID)
	assert.Nil(t, stored.Feedback.Requester)
	users.AssertNotCalled(t, "UpdateAggregateRating", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitFeedback_NotCompleted(t *testing.T) {
	store := memory.NewSwapStore()
	s, err := entity.NewSwap(uuid.New(), uuid.New(),
		valueobject.Skill{Name: "Python"}, valueobject.Skill{Name: "Guitar"}, "привет", nil, now)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), s))
	uc := feedback.NewSubmitFeedbackUseCase(store, &mockUserDirectory{}, &recordingNotifier{}, quietLogger(), func() time.Time { return now })

	_, err = uc.Execute(context.Background(), feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.RequesterID, Rating: 3})
	assert.Equal(t, apperror.ReasonIllegalTransition, apperror.ReasonOf(err))

	_, err = uc.Execute(context.Background(), feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: uuid.New(), Rating: 3})
	assert.True(t, errors.Is(err, apperror.ErrNotSwapParty))
}

func TestSubmitFeedback_RatingFailureIsLoggedOnly(t *testing.T) {
	store := memory.NewSwapStore()
	s := completedSwap(t, store)
	users := &mockUserDirectory{}
	users.On("UpdateAggregateRating", mock.Anything, s.ProviderID, 2).Return(errors.New("directory down"))
	log, hook := test.NewNullLogger()
	notifier := &recordingNotifier{}
	uc := feedback.NewSubmitFeedbackUseCase(store, users, notifier, log, func() time.Time { return now })

	rec, err := uc.Execute(context.Background(), feedback.SubmitFeedbackInput{SwapID: s.ID, ActorID: s.RequesterID, Rating: 2})
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Len(t, notifier.events, 1)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, s.ID, hook.LastEntry().Data["swap_id"])
}

func TestCanSubmitFeedback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSwapStore()
	s := completedSwap(t, store)
	uc := feedback.NewCanSubmitFeedbackUseCase(store)

	ok, err := uc.Execute(ctx, s.ID, s.RequesterID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uc.Execute(ctx, s.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = uc.Execute(ctx, uuid.New(), s.RequesterID)
	assert.True(t, apperror.IsNotFound(err))
}
