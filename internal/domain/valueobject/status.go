package valueobject

import "github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"

type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCompleted SwapStatus = "completed"
	SwapStatusCancelled SwapStatus = "cancelled"
)

// AllSwapStatuses перечисляет статусы в порядке жизненного цикла.
var AllSwapStatuses = []SwapStatus{
	SwapStatusPending,
	SwapStatusAccepted,
	SwapStatusRejected,
	SwapStatusCompleted,
	SwapStatusCancelled,
}

var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending:   {SwapStatusAccepted, SwapStatusRejected, SwapStatusCancelled},
	SwapStatusAccepted:  {SwapStatusCompleted, SwapStatusCancelled},
	SwapStatusRejected:  {},
	SwapStatusCompleted: {},
	SwapStatusCancelled: {},
}

func (s SwapStatus) IsValid() bool {
	switch s {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected, SwapStatusCompleted, SwapStatusCancelled:
		return true
	}
	return false
}

func (s SwapStatus) CanTransitionTo(newStatus SwapStatus) bool {
	for _, status := range swapTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s SwapStatus) IsTerminal() bool {
	return s.IsValid() && len(swapTransitions[s]) == 0
}

func (s SwapStatus) String() string {
	return string(s)
}

func NewSwapStatus(status string) (SwapStatus, error) {
	s := SwapStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус обмена")
	}
	return s, nil
}

// Party определяет роль пользователя в обмене.
type Party string

const (
	PartyNone      Party = ""
	PartyRequester Party = "requester"
	PartyProvider  Party = "provider"
)

func (p Party) IsParty() bool {
	return p == PartyRequester || p == PartyProvider
}

// RespondAction - решение получателя по запросу на обмен.
type RespondAction string

const (
	RespondAccept RespondAction = "accept"
	RespondReject RespondAction = "reject"
)

func NewRespondAction(action string) (RespondAction, error) {
	switch a := RespondAction(action); a {
	case RespondAccept, RespondReject:
		return a, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "действие должно быть accept или reject")
}

// SwapListType фильтрует обмены по роли текущего пользователя.
type SwapListType string

const (
	SwapListAll      SwapListType = "all"
	SwapListSent     SwapListType = "sent"
	SwapListReceived SwapListType = "received"
)

func NewSwapListType(v string) (SwapListType, error) {
	if v == "" {
		return SwapListAll, nil
	}
	switch t := SwapListType(v); t {
	case SwapListAll, SwapListSent, SwapListReceived:
		return t, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "тип должен быть sent, received или all")
}
