package notification

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

func swapEvent(t valueobject.NotificationType, s *entity.Swap, recipient, sender uuid.UUID) Event {
	swapID := s.ID
	from := sender
	return Event{
		Type:        t,
		RecipientID: recipient,
		SenderID:    &from,
		SwapID:      &swapID,
		Vars: map[string]any{
			"SkillOffered":   s.SkillOffered.Name,
			"SkillRequested": s.SkillRequested.Name,
		},
	}
}

func SwapRequested(s *entity.Swap) Event {
	return swapEvent(valueobject.NotificationSwapRequest, s, s.ProviderID, s.RequesterID)
}

// SwapResponded уведомляет инициатора о решении получателя.
func SwapResponded(s *entity.Swap) Event {
	t := valueobject.NotificationSwapAccepted
	if s.Status == valueobject.SwapStatusRejected {
		t = valueobject.NotificationSwapRejected
	}
	return swapEvent(t, s, s.RequesterID, s.ProviderID)
}

// SwapCompleted возвращает по одному событию каждой стороне.
func SwapCompleted(s *entity.Swap) []Event {
	return []Event{
		swapEvent(valueobject.NotificationSwapCompleted, s, s.RequesterID, s.ProviderID),
		swapEvent(valueobject.NotificationSwapCompleted, s, s.ProviderID, s.RequesterID),
	}
}

func SwapCancelled(s *entity.Swap, by uuid.UUID, reason string) Event {
	ev := swapEvent(valueobject.NotificationSwapCancelled, s, s.Counterparty(by), by)
	ev.Metadata = map[string]any{"reason": reason}
	return ev
}

func MessageReceived(s *entity.Swap, from uuid.UUID) Event {
	return swapEvent(valueobject.NotificationMessageReceived, s, s.Counterparty(from), from)
}

func FeedbackReceived(rec *entity.FeedbackRecord) Event {
	swapID := rec.SwapID
	from := rec.FromUserID
	return Event{
		Type:        valueobject.NotificationFeedbackReceived,
		RecipientID: rec.ToUserID,
		SenderID:    &from,
		SwapID:      &swapID,
		Vars:        map[string]any{"Rating": rec.Rating.Int()},
		Metadata:    map[string]any{"rating": rec.Rating.Int()},
	}
}

// PlatformMessage - событие рассылки по платформе. Получатель задаётся при Broadcast.
func PlatformMessage(title, content string, priority valueobject.Priority, messageID uuid.UUID) Event {
	id := messageID
	return Event{
		Type:      valueobject.NotificationPlatformMessage,
		MessageID: &id,
		Vars:      map[string]any{"Title": title, "Content": content},
		Priority:  priority,
	}
}
