package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

type SkillPayload struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateSwapRequest struct {
	ProviderID       uuid.UUID             `json:"provider_id" binding:"required"`
	SkillOffered     SkillPayload          `json:"skill_offered" binding:"required"`
	SkillRequested   SkillPayload          `json:"skill_requested" binding:"required"`
	Message          string                `json:"message" binding:"required"`
	ProposedSchedule *valueobject.Schedule `json:"proposed_schedule"`
}

type RespondSwapRequest struct {
	Action  string `json:"action" binding:"required,oneof=accept reject"`
	Message string `json:"message"`
}

type CancelSwapRequest struct {
	Reason string `json:"reason"`
}

type ArchiveSwapRequest struct {
	Archive *bool `json:"archive" binding:"required"`
}

type AppendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type SkillResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SwapMessageResponse struct {
	From      uuid.UUID `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type FeedbackResponse struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type StatusChangeResponse struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	By   uuid.UUID `json:"by"`
	At   time.Time `json:"at"`
}

type SwapResponse struct {
	ID                uuid.UUID              `json:"id"`
	RequesterID       uuid.UUID              `json:"requester_id"`
	ProviderID        uuid.UUID              `json:"provider_id"`
	SkillOffered      SkillResponse          `json:"skill_offered"`
	SkillRequested    SkillResponse          `json:"skill_requested"`
	Message           string                 `json:"message"`
	Status            string                 `json:"status"`
	ProposedSchedule  *valueobject.Schedule  `json:"proposed_schedule,omitempty"`
	Responses         []SwapMessageResponse  `json:"responses"`
	RequesterFeedback *FeedbackResponse      `json:"requester_feedback"`
	ProviderFeedback  *FeedbackResponse      `json:"provider_feedback"`
	History           []StatusChangeResponse `json:"history"`
	AcceptedAt        *time.Time             `json:"accepted_at"`
	RejectedAt        *time.Time             `json:"rejected_at"`
	CompletedAt       *time.Time             `json:"completed_at"`
	CancelledAt       *time.Time             `json:"cancelled_at"`
	IsArchived        bool                   `json:"is_archived"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func ToSwapResponse(s *entity.Swap) SwapResponse {
	resp := SwapResponse{
		ID:                s.ID,
		RequesterID:       s.RequesterID,
		ProviderID:        s.ProviderID,
		SkillOffered:      SkillResponse{Name: s.SkillOffered.Name, Description: s.SkillOffered.Description},
		SkillRequested:    SkillResponse{Name: s.SkillRequested.Name, Description: s.SkillRequested.Description},
		Message:           s.Message,
		Status:            string(s.Status),
		ProposedSchedule:  s.ProposedSchedule,
		Responses:         make([]SwapMessageResponse, 0, len(s.Responses)),
		RequesterFeedback: toFeedbackResponse(s.Feedback.Requester),
		ProviderFeedback:  toFeedbackResponse(s.Feedback.Provider),
		History:           make([]StatusChangeResponse, 0, len(s.History)),
		AcceptedAt:        s.AcceptedAt,
		RejectedAt:        s.RejectedAt,
		CompletedAt:       s.CompletedAt,
		CancelledAt:       s.CancelledAt,
		IsArchived:        s.IsArchived,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for _, r := range s.Responses {
		resp.Responses = append(resp.Responses, SwapMessageResponse{From: r.From, Message: r.Message, Timestamp: r.Timestamp})
	}
	for _, h := range s.History {
		resp.History = append(resp.History, StatusChangeResponse{From: string(h.From), To: string(h.To), By: h.By, At: h.At})
	}
	return resp
}

func ToSwapResponses(swaps []*entity.Swap) []SwapResponse {
	responses := make([]SwapResponse, 0, len(swaps))
	for _, s := range swaps {
		responses = append(responses, ToSwapResponse(s))
	}
	return responses
}

func toFeedbackResponse(fb *entity.Feedback) *FeedbackResponse {
	if fb == nil {
		return nil
	}
	return &FeedbackResponse{Rating: fb.Rating.Int(), Comment: fb.Comment, SubmittedAt: fb.SubmittedAt}
}

type FeedbackRecordResponse struct {
	SwapID       uuid.UUID `json:"swap_id"`
	FromUserID   uuid.UUID `json:"from_user_id"`
	ToUserID     uuid.UUID `json:"to_user_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	SubmittedAt  time.Time `json:"submitted_at"`
	SkillTaught  string    `json:"skill_taught"`
	SkillLearned string    `json:"skill_learned"`
}

func ToFeedbackRecordResponse(r *entity.FeedbackRecord) FeedbackRecordResponse {
	return FeedbackRecordResponse{
		SwapID:       r.SwapID,
		FromUserID:   r.FromUserID,
		ToUserID:     r.ToUserID,
		Rating:       r.Rating.Int(),
		Comment:      r.Comment,
		SubmittedAt:  r.SubmittedAt,
		SkillTaught:  r.SkillTaught,
		SkillLearned: r.SkillLearned,
	}
}
