package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

// FeedbackRecord - результат отправки отзыва по завершённому обмену.
type FeedbackRecord struct {
	SwapID       uuid.UUID
	FromUserID   uuid.UUID
	ToUserID     uuid.UUID
	Rating       valueobject.Rating
	Comment      string
	SubmittedAt  time.Time
	SkillTaught  string
	SkillLearned string
}

// NewFeedbackRecord собирает запись с точки зрения автора отзыва: чему он научил
// и чему научился.
func NewFeedbackRecord(s *Swap, from uuid.UUID, fb *Feedback) *FeedbackRecord {
	taught, learned := s.SkillOffered.Name, s.SkillRequested.Name
	if from == s.ProviderID {
		taught, learned = learned, taught
	}
	return &FeedbackRecord{
		SwapID:       s.ID,
		FromUserID:   from,
		ToUserID:     s.Counterparty(from),
		Rating:       fb.Rating,
		Comment:      fb.Comment,
		SubmittedAt:  fb.SubmittedAt,
		SkillTaught:  taught,
		SkillLearned: learned,
	}
}
