package swap

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

type GetSwapUseCase struct {
	swapRepo repository.SwapRepository
}

func NewGetSwapUseCase(swapRepo repository.SwapRepository) *GetSwapUseCase {
	return &GetSwapUseCase{swapRepo: swapRepo}
}

// Execute возвращает обмен только его участникам.
func (uc *GetSwapUseCase) Execute(ctx context.Context, swapID, actorID uuid.UUID) (*entity.Swap, error) {
	swap, err := uc.swapRepo.FindByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if !swap.IsParty(actorID) {
		return nil, apperror.ErrNotSwapParty
	}
	return swap, nil
}

type ListSwapsInput struct {
	UserID   uuid.UUID
	Type     string
	Status   string
	Archived bool
	Page     int
	Limit    int
}

type ListSwapsOutput struct {
	Items []*entity.Swap
	Total int
	Page  int
	Limit int
	Pages int
}

type ListSwapsUseCase struct {
	swapRepo repository.SwapRepository
}

func NewListSwapsUseCase(swapRepo repository.SwapRepository) *ListSwapsUseCase {
	return &ListSwapsUseCase{swapRepo: swapRepo}
}

func (uc *ListSwapsUseCase) Execute(ctx context.Context, input ListSwapsInput) (*ListSwapsOutput, error) {
	listType, err := valueobject.NewSwapListType(input.Type)
	if err != nil {
		return nil, err
	}

	filter := repository.SwapFilter{
		UserID:   input.UserID,
		Type:     listType,
		Archived: input.Archived,
	}
	if input.Status != "" {
		status, err := valueobject.NewSwapStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	switch {
	case limit == 0:
		limit = DefaultListLimit
	case limit < 1 || limit > MaxListLimit:
		return nil, apperror.New(apperror.ErrCodeValidation, "limit должен быть от 1 до 50")
	}
	if page > math.MaxInt/limit {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер страницы слишком большой")
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	items, total, err := uc.swapRepo.ListByParty(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListSwapsOutput{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	}, nil
}

type SwapStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

type SwapStatsUseCase struct {
	swapRepo repository.SwapRepository
}

func NewSwapStatsUseCase(swapRepo repository.SwapRepository) *SwapStatsUseCase {
	return &SwapStatsUseCase{swapRepo: swapRepo}
}

func (uc *SwapStatsUseCase) Execute(ctx context.Context, userID uuid.UUID) (*SwapStats, error) {
	counts, err := uc.swapRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &SwapStats{
		Pending:   counts[valueobject.SwapStatusPending],
		Accepted:  counts[valueobject.SwapStatusAccepted],
		Completed: counts[valueobject.SwapStatusCompleted],
		Rejected:  counts[valueobject.SwapStatusRejected],
		Cancelled: counts[valueobject.SwapStatusCancelled],
	}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}
