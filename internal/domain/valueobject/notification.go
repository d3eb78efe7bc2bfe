package valueobject

import "github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"

type NotificationType string

const (
	NotificationSwapRequest      NotificationType = "swap_request"
	NotificationSwapAccepted     NotificationType = "swap_accepted"
	NotificationSwapRejected     NotificationType = "swap_rejected"
	NotificationSwapCompleted    NotificationType = "swap_completed"
	NotificationSwapCancelled    NotificationType = "swap_cancelled"
	NotificationFeedbackReceived NotificationType = "feedback_received"
	NotificationMessageReceived  NotificationType = "message_received"
	NotificationSkillApproved    NotificationType = "skill_approved"
	NotificationSkillRejected    NotificationType = "skill_rejected"
	NotificationPlatformMessage  NotificationType = "platform_message"
	NotificationAccountBanned    NotificationType = "account_banned"
	NotificationAccountUnbanned  NotificationType = "account_unbanned"
)

// AllNotificationTypes - закрытый список типов уведомлений.
var AllNotificationTypes = []NotificationType{
	NotificationSwapRequest,
	NotificationSwapAccepted,
	NotificationSwapRejected,
	NotificationSwapCompleted,
	NotificationSwapCancelled,
	NotificationFeedbackReceived,
	NotificationMessageReceived,
	NotificationSkillApproved,
	NotificationSkillRejected,
	NotificationPlatformMessage,
	NotificationAccountBanned,
	NotificationAccountUnbanned,
}

func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

func NewNotificationType(v string) (NotificationType, error) {
	t := NotificationType(v)
	if !t.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип уведомления")
	}
	return t, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func NewPriority(v string) (Priority, error) {
	if v == "" {
		return PriorityMedium, nil
	}
	p := Priority(v)
	if !p.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный приоритет")
	}
	return p, nil
}

// Audience - целевая аудитория рассылки по платформе.
type Audience string

const (
	AudienceAll         Audience = "all"
	AudienceNewUsers    Audience = "new_users"
	AudienceActiveUsers Audience = "active_users"
)

func NewAudience(v string) (Audience, error) {
	switch a := Audience(v); a {
	case AudienceAll, AudienceNewUsers, AudienceActiveUsers:
		return a, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "аудитория должна быть all, new_users или active_users")
}
