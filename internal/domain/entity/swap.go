package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	MaxSwapMessageLength     = 1000
	MaxResponseMessageLength = 1000
	MaxCancelReasonLength    = 500
)

// SwapResponse - запись в переписке по обмену. Переписка только дополняется.
type SwapResponse struct {
	From      uuid.UUID
	Message   string
	Timestamp time.Time
}

type Feedback struct {
	Rating      valueobject.Rating
	Comment     string
	SubmittedAt time.Time
}

// SwapFeedback - два фиксированных слота, по одному на каждую сторону обмена.
type SwapFeedback struct {
	Requester *Feedback
	Provider  *Feedback
}

// StatusChange фиксирует переход по графу статусов.
type StatusChange struct {
	From valueobject.SwapStatus
	To   valueobject.SwapStatus
	By   uuid.UUID
	At   time.Time
}

type Swap struct {
	ID               uuid.UUID
	RequesterID      uuid.UUID
	ProviderID       uuid.UUID
	SkillOffered     valueobject.Skill
	SkillRequested   valueobject.Skill
	Message          string
	Status           valueobject.SwapStatus
	ProposedSchedule *valueobject.Schedule
	Responses        []SwapResponse
	Feedback         SwapFeedback
	History          []StatusChange
	AcceptedAt       *time.Time
	RejectedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	IsArchived       bool
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewSwap(requesterID, providerID uuid.UUID, offered, requested valueobject.Skill, message string, schedule *valueobject.Schedule, now time.Time) (*Swap, error) {
	if requesterID == providerID {
		return nil, apperror.Conflict(apperror.ReasonSelfSwap, "нельзя предложить обмен самому себе")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение обязательно")
	}
	if utf8.RuneCountInString(message) > MaxSwapMessageLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение не может быть длиннее 1000 символов")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if schedule.IsEmpty() {
		schedule = nil
	}

	return &Swap{
		ID:               uuid.New(),
		RequesterID:      requesterID,
		ProviderID:       providerID,
		SkillOffered:     offered,
		SkillRequested:   requested,
		Message:          message,
		Status:           valueobject.SwapStatusPending,
		ProposedSchedule: schedule,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *Swap) PartyOf(userID uuid.UUID) valueobject.Party {
	switch userID {
	case s.RequesterID:
		return valueobject.PartyRequester
	case s.ProviderID:
		return valueobject.PartyProvider
	}
	return valueobject.PartyNone
}

func (s *Swap) IsParty(userID uuid.UUID) bool {
	return s.PartyOf(userID).IsParty()
}

// Counterparty возвращает вторую сторону обмена для участника.
func (s *Swap) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == s.RequesterID {
		return s.ProviderID
	}
	return s.RequesterID
}

// Respond применяет решение получателя: принять или отклонить ожидающий запрос.
func (s *Swap) Respond(actor uuid.UUID, action valueobject.RespondAction, message string, now time.Time) error {
	if action == valueobject.RespondReject {
		return s.Reject(actor, message, now)
	}
	return s.Accept(actor, message, now)
}

func (s *Swap) Accept(actor uuid.UUID, message string, now time.Time) error {
	return s.answer(actor, valueobject.SwapStatusAccepted, message, now)
}

func (s *Swap) Reject(actor uuid.UUID, message string, now time.Time) error {
	return s.answer(actor, valueobject.SwapStatusRejected, message, now)
}

// answer - ответ получателя на ожидающий запрос.
func (s *Swap) answer(actor uuid.UUID, target valueobject.SwapStatus, message string, now time.Time) error {
	switch s.PartyOf(actor) {
	case valueobject.PartyNone:
		return apperror.ErrNotSwapParty
	case valueobject.PartyRequester:
		return apperror.ErrNotProvider
	}

	if s.Status != valueobject.SwapStatusPending {
		return apperror.Conflict(apperror.ReasonIllegalTransition, "на этот запрос уже ответили")
	}
	if err := s.transition(actor, target, now); err != nil {
		return err
	}
	if message = strings.TrimSpace(message); message != "" {
		s.appendResponse(actor, message, now)
	}
	return nil
}

func (s *Swap) Complete(actor uuid.UUID, now time.Time) error {
	if !s.IsParty(actor) {
		return apperror.ErrNotSwapParty
	}
	if s.Status != valueobject.SwapStatusAccepted {
		return apperror.Conflict(apperror.ReasonIllegalTransition, "завершить можно только принятый обмен")
	}
	return s.transition(actor, valueobject.SwapStatusCompleted, now)
}

func (s *Swap) CanBeCancelled() bool {
	return s.Status.CanTransitionTo(valueobject.SwapStatusCancelled)
}

func (s *Swap) Cancel(actor uuid.UUID, reason string, now time.Time) error {
	if !s.IsParty(actor) {
		return apperror.ErrNotSwapParty
	}
	if !s.CanBeCancelled() {
		return apperror.Conflict(apperror.ReasonIllegalTransition, "этот обмен нельзя отменить")
	}
	if err := s.transition(actor, valueobject.SwapStatusCancelled, now); err != nil {
		return err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		s.appendResponse(actor, "Причина отмены: "+reason, now)
	}
	return nil
}

// SetArchived переключает флаг архива. Статус не меняется.
func (s *Swap) SetArchived(actor uuid.UUID, archived bool, now time.Time) error {
	if !s.IsParty(actor) {
		return apperror.ErrNotSwapParty
	}
	s.IsArchived = archived
	s.UpdatedAt = now
	return nil
}

func (s *Swap) AppendResponse(actor uuid.UUID, message string, now time.Time) error {
	if !s.IsParty(actor) {
		return apperror.ErrNotSwapParty
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}
	s.appendResponse(actor, message, now)
	return nil
}

func (s *Swap) CanSubmitFeedback(actor uuid.UUID) bool {
	if s.Status != valueobject.SwapStatusCompleted {
		return false
	}
	switch s.PartyOf(actor) {
	case valueobject.PartyRequester:
		return s.Feedback.Requester == nil
	case valueobject.PartyProvider:
		return s.Feedback.Provider == nil
	}
	return false
}

// SubmitFeedback заполняет слот отзыва участника. Каждый слот заполняется один раз.
func (s *Swap) SubmitFeedback(actor uuid.UUID, rating valueobject.Rating, comment string, now time.Time) (*Feedback, error) {
	party := s.PartyOf(actor)
	if !party.IsParty() {
		return nil, apperror.ErrNotSwapParty
	}
	if s.Status != valueobject.SwapStatusCompleted {
		return nil, apperror.Conflict(apperror.ReasonIllegalTransition, "отзыв можно оставить только после завершения обмена")
	}

	slot := &s.Feedback.Requester
	if party == valueobject.PartyProvider {
		slot = &s.Feedback.Provider
	}
	if *slot != nil {
		return nil, apperror.Conflict(apperror.ReasonFeedbackExists, "вы уже оставили отзыв по этому обмену")
	}

	fb := &Feedback{Rating: rating, Comment: strings.TrimSpace(comment), SubmittedAt: now}
	*slot = fb
	s.UpdatedAt = now
	return fb, nil
}

// ReachedAt возвращает момент входа в текущий статус.
func (s *Swap) ReachedAt() *time.Time {
	switch s.Status {
	case valueobject.SwapStatusAccepted:
		return s.AcceptedAt
	case valueobject.SwapStatusRejected:
		return s.RejectedAt
	case valueobject.SwapStatusCompleted:
		return s.CompletedAt
	case valueobject.SwapStatusCancelled:
		return s.CancelledAt
	}
	return nil
}

// CheckInvariants проверяет согласованность записи перед сохранением.
func (s *Swap) CheckInvariants() error {
	if s.RequesterID == s.ProviderID {
		return fmt.Errorf("swap %s: requester equals provider", s.ID)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("swap %s: unknown status %q", s.ID, s.Status)
	}
	set := 0
	for _, ts := range []*time.Time{s.AcceptedAt, s.RejectedAt, s.CompletedAt, s.CancelledAt} {
		if ts != nil {
			set++
		}
	}
	if s.Status == valueobject.SwapStatusPending {
		if set != 0 {
			return fmt.Errorf("swap %s: pending swap has reached timestamps", s.ID)
		}
		return nil
	}
	if set != 1 || s.ReachedAt() == nil {
		return fmt.Errorf("swap %s: reached timestamp does not match status %s", s.ID, s.Status)
	}
	if (s.Feedback.Requester != nil || s.Feedback.Provider != nil) && s.Status != valueobject.SwapStatusCompleted {
		return fmt.Errorf("swap %s: feedback on non-completed swap", s.ID)
	}
	return nil
}

// Clone делает глубокую копию, чтобы изменения можно было откатить.
func (s *Swap) Clone() *Swap {
	c := *s
	c.AcceptedAt = cloneTime(s.AcceptedAt)
	c.RejectedAt = cloneTime(s.RejectedAt)
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.CancelledAt = cloneTime(s.CancelledAt)
	c.Responses = append([]SwapResponse(nil), s.Responses...)
	c.History = append([]StatusChange(nil), s.History...)
	if s.Feedback.Requester != nil {
		fb := *s.Feedback.Requester
		c.Feedback.Requester = &fb
	}
	if s.Feedback.Provider != nil {
		fb := *s.Feedback.Provider
		c.Feedback.Provider = &fb
	}
	if s.ProposedSchedule != nil {
		sc := *s.ProposedSchedule
		sc.StartDate = cloneTime(s.ProposedSchedule.StartDate)
		sc.EndDate = cloneTime(s.ProposedSchedule.EndDate)
		sc.TimeSlots = append([]valueobject.TimeSlot(nil), s.ProposedSchedule.TimeSlots...)
		c.ProposedSchedule = &sc
	}
	return &c
}

// transition - единственное место, где меняется статус. Метка времени прежнего
// статуса снимается: в записи остаётся ровно одна, соответствующая текущему.
func (s *Swap) transition(actor uuid.UUID, to valueobject.SwapStatus, now time.Time) error {
	if s.Status.IsTerminal() {
		return apperror.Conflict(apperror.ReasonIllegalTransition,
			fmt.Sprintf("обмен в статусе %s уже закрыт", s.Status))
	}
	if !s.Status.CanTransitionTo(to) {
		return apperror.Conflict(apperror.ReasonIllegalTransition,
			fmt.Sprintf("переход %s -> %s недопустим", s.Status, to))
	}

	s.History = append(s.History, StatusChange{From: s.Status, To: to, By: actor, At: now})
	s.AcceptedAt, s.RejectedAt, s.CompletedAt, s.CancelledAt = nil, nil, nil, nil

	t := now
	switch to {
	case valueobject.SwapStatusAccepted:
		s.AcceptedAt = &t
	case valueobject.SwapStatusRejected:
		s.RejectedAt = &t
	case valueobject.SwapStatusCompleted:
		s.CompletedAt = &t
	case valueobject.SwapStatusCancelled:
		s.CancelledAt = &t
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}

func (s *Swap) appendResponse(from uuid.UUID, message string, now time.Time) {
	s.Responses = append(s.Responses, SwapResponse{From: from, Message: message, Timestamp: now})
	s.UpdatedAt = now
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
