package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skillswap-backend/internal/interface/http/dto"
	"github.com/ignatzorin/skillswap-backend/internal/interface/http/response"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/feedback"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/swap"
)

// SwapUseCases собирает сценарии, которые обслуживает SwapHandler.
type SwapUseCases struct {
	Create            *swap.CreateSwapUseCase
	Respond           *swap.RespondSwapUseCase
	Complete          *swap.CompleteSwapUseCase
	Cancel            *swap.CancelSwapUseCase
	Archive           *swap.ArchiveSwapUseCase
	AppendMessage     *swap.AppendMessageUseCase
	Get               *swap.GetSwapUseCase
	List              *swap.ListSwapsUseCase
	Stats             *swap.SwapStatsUseCase
	SubmitFeedback    *feedback.SubmitFeedbackUseCase
	CanSubmitFeedback *feedback.CanSubmitFeedbackUseCase
}

type SwapHandler struct {
	uc SwapUseCases
}

func NewSwapHandler(uc SwapUseCases) *SwapHandler {
	return &SwapHandler{uc: uc}
}

func (h *SwapHandler) CreateSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.uc.Create.Execute(c.Request.Context(), swap.CreateSwapInput{
		RequesterID:               userID,
		ProviderID:                req.ProviderID,
		SkillOfferedName:          req.SkillOffered.Name,
		SkillOfferedDescription:   req.SkillOffered.Description,
		SkillRequestedName:        req.SkillRequested.Name,
		SkillRequestedDescription: req.SkillRequested.Description,
		Message:                   req.Message,
		ProposedSchedule:          req.ProposedSchedule,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToSwapResponse(created))
}

func (h *SwapHandler) ListSwaps(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	out, err := h.uc.List.Execute(c.Request.Context(), swap.ListSwapsInput{
		UserID:   userID,
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Archived: parseBoolQuery(c, "archived"),
		Page:     parseIntQuery(c, "page", 1),
		Limit:    parseIntQuery(c, "limit", swap.DefaultListLimit),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToSwapResponses(out.Items), out.Total, out.Page, out.Limit)
}

func (h *SwapHandler) GetStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.uc.Stats.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

func (h *SwapHandler) GetSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	s, err := h.uc.Get.Execute(c.Request.Context(), swapID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) RespondSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RespondSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "действие должно быть accept или reject")
		return
	}

	s, err := h.uc.Respond.Execute(c.Request.Context(), swap.RespondSwapInput{
		SwapID:  swapID,
		ActorID: userID,
		Action:  req.Action,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) CompleteSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	s, err := h.uc.Complete.Execute(c.Request.Context(), swapID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) CancelSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Тело необязательно: отмена без причины.
	var req dto.CancelSwapRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	s, err := h.uc.Cancel.Execute(c.Request.Context(), swap.CancelSwapInput{
		SwapID:  swapID,
		ActorID: userID,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) ArchiveSwap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ArchiveSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле archive обязательно")
		return
	}

	s, err := h.uc.Archive.Execute(c.Request.Context(), swapID, userID, *req.Archive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) AppendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "сообщение обязательно")
		return
	}

	s, err := h.uc.AppendMessage.Execute(c.Request.Context(), swap.AppendMessageInput{
		SwapID:  swapID,
		ActorID: userID,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToSwapResponse(s))
}

func (h *SwapHandler) SubmitFeedback(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "рейтинг обязателен")
		return
	}

	record, err := h.uc.SubmitFeedback.Execute(c.Request.Context(), feedback.SubmitFeedbackInput{
		SwapID:  swapID,
		ActorID: userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToFeedbackRecordResponse(record))
}

func (h *SwapHandler) CanSubmitFeedback(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	swapID, ok := pathID(c, "id")
	if !ok {
		return
	}

	can, err := h.uc.CanSubmitFeedback.Execute(c.Request.Context(), swapID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"can_submit": can})
}
