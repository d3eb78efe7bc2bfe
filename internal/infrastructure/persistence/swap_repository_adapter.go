package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const swapColumns = `
	id, requester_id, provider_id,
	skill_offered_name, skill_offered_description, skill_offered_key,
	skill_requested_name, skill_requested_description, skill_requested_key,
	message, status, proposed_schedule,
	requester_rating, requester_comment, requester_feedback_at,
	provider_rating, provider_comment, provider_feedback_at,
	accepted_at, rejected_at, completed_at, cancelled_at,
	is_archived, version, created_at, updated_at`

type SwapRepositoryAdapter struct {
	db *sqlx.DB
}

var _ repository.SwapRepository = (*SwapRepositoryAdapter)(nil)

func NewSwapRepositoryAdapter(db *sqlx.DB) *SwapRepositoryAdapter {
	return &SwapRepositoryAdapter{db: db}
}

func (r *SwapRepositoryAdapter) Create(ctx context.Context, swap *entity.Swap) error {
	row, err := fromSwapEntity(swap)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить обмен")
	}

	query := `INSERT INTO swaps (` + swapColumns + `) VALUES (
		:id, :requester_id, :provider_id,
		:skill_offered_name, :skill_offered_description, :skill_offered_key,
		:skill_requested_name, :skill_requested_description, :skill_requested_key,
		:message, :status, :proposed_schedule,
		:requester_rating, :requester_comment, :requester_feedback_at,
		:provider_rating, :provider_comment, :provider_feedback_at,
		:accepted_at, :rejected_at, :completed_at, :cancelled_at,
		:is_archived, :version, :created_at, :updated_at)`

	err = withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return err
		}
		if err := insertResponses(ctx, tx, swap.ID, swap.Responses); err != nil {
			return err
		}
		return insertHistory(ctx, tx, swap.ID, swap.History)
	})
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "swaps_pending_unique"):
		return apperror.Conflict(apperror.ReasonDuplicatePending, "такой запрос на обмен уже ожидает ответа")
	case isForeignKeyViolation(err):
		return apperror.ErrUserNotFound
	}
	return asPersistence(err, "не удалось создать обмен")
}

func (r *SwapRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Swap, error) {
	swap, err := loadSwap(ctx, r.db, id, false)
	if err != nil {
		return nil, asPersistence(err, "не удалось получить обмен")
	}
	return swap, nil
}

// Mutate блокирует строку через SELECT ... FOR UPDATE, применяет fn к копии и
// записывает результат целиком в той же транзакции.
func (r *SwapRepositoryAdapter) Mutate(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (*entity.Swap, error) {
	var result *entity.Swap
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := loadSwap(ctx, tx, id, true)
		if err != nil {
			return err
		}

		working := current.Clone()
		if err := fn(working); err != nil {
			return err
		}
		if err := working.CheckInvariants(); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "нарушена целостность обмена")
		}
		working.Version = current.Version + 1

		row, err := fromSwapEntity(working)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить обмен")
		}
		row.ExpectedVersion = current.Version

		res, err := tx.NamedExecContext(ctx, `
			UPDATE swaps SET
				status = :status,
				requester_rating = :requester_rating, requester_comment = :requester_comment,
				requester_feedback_at = :requester_feedback_at,
				provider_rating = :provider_rating, provider_comment = :provider_comment,
				provider_feedback_at = :provider_feedback_at,
				accepted_at = :accepted_at, rejected_at = :rejected_at,
				completed_at = :completed_at, cancelled_at = :cancelled_at,
				is_archived = :is_archived, version = :version, updated_at = :updated_at
			WHERE id = :id AND version = :expected_version`, row)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperror.Conflict(apperror.ReasonConcurrentUpdate, "обмен был изменён другим запросом")
		}

		if err := insertResponses(ctx, tx, id, working.Responses[len(current.Responses):]); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, working.History[len(current.History):]); err != nil {
			return err
		}

		result = working
		return nil
	})
	if err != nil {
		return nil, asPersistence(err, "не удалось обновить обмен")
	}
	return result, nil
}

func (r *SwapRepositoryAdapter) ListByParty(ctx context.Context, filter repository.SwapFilter) ([]*entity.Swap, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	args = append(args, filter.UserID)
	switch filter.Type {
	case valueobject.SwapListSent:
		conds = append(conds, "requester_id = $1")
	case valueobject.SwapListReceived:
		conds = append(conds, "provider_id = $1")
	default:
		conds = append(conds, "(requester_id = $1 OR provider_id = $1)")
	}
	args = append(args, filter.Archived)
	conds = append(conds, fmt.Sprintf("is_archived = $%d", len(args)))
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM swaps WHERE `+where, args...); err != nil {
		return nil, 0, apperror.Persistence(err, "не удалось получить список обменов")
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM swaps WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		swapColumns, where, len(args)-1, len(args))

	var rows []swapRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, apperror.Persistence(err, "не удалось получить список обменов")
	}

	swaps, err := hydrateSwaps(ctx, r.db, rows)
	if err != nil {
		return nil, 0, asPersistence(err, "не удалось получить список обменов")
	}
	return swaps, total, nil
}

func (r *SwapRepositoryAdapter) CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.SwapStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := `
		SELECT status, COUNT(*) AS count FROM swaps
		WHERE requester_id = $1 OR provider_id = $1
		GROUP BY status
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, apperror.Persistence(err, "не удалось подсчитать обмены")
	}

	counts := make(map[valueobject.SwapStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.SwapStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *SwapRepositoryAdapter) HasPending(ctx context.Context, requesterID, providerID uuid.UUID, offeredKey, requestedKey string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM swaps
			WHERE requester_id = $1 AND provider_id = $2
			AND skill_offered_key = $3 AND skill_requested_key = $4
			AND status = 'pending'
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, requesterID, providerID, offeredKey, requestedKey); err != nil {
		return false, apperror.Persistence(err, "не удалось проверить обмены")
	}
	return exists, nil
}

func loadSwap(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, forUpdate bool) (*entity.Swap, error) {
	query := `SELECT ` + swapColumns + ` FROM swaps WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row swapRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrSwapNotFound
		}
		return nil, err
	}

	swaps, err := hydrateSwaps(ctx, q, []swapRow{row})
	if err != nil {
		return nil, err
	}
	return swaps[0], nil
}

// hydrateSwaps подгружает переписку и историю статусов одним запросом на таблицу.
func hydrateSwaps(ctx context.Context, q sqlx.QueryerContext, rows []swapRow) ([]*entity.Swap, error) {
	swaps := make([]*entity.Swap, 0, len(rows))
	if len(rows) == 0 {
		return swaps, nil
	}

	ids := make([]string, len(rows))
	byID := make(map[uuid.UUID]*entity.Swap, len(rows))
	for i := range rows {
		s, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		ids[i] = s.ID.String()
		byID[s.ID] = s
		swaps = append(swaps, s)
	}

	var responses []swapResponseRow
	if err := sqlx.SelectContext(ctx, q, &responses, `
		SELECT swap_id, from_user_id, message, created_at FROM swap_responses
		WHERE swap_id = ANY($1::uuid[]) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, resp := range responses {
		s := byID[resp.SwapID]
		s.Responses = append(s.Responses, entity.SwapResponse{From: resp.FromUserID, Message: resp.Message, Timestamp: resp.CreatedAt})
	}

	var history []statusHistoryRow
	if err := sqlx.SelectContext(ctx, q, &history, `
		SELECT swap_id, from_status, to_status, changed_by, changed_at FROM swap_status_history
		WHERE swap_id = ANY($1::uuid[]) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, h := range history {
		s := byID[h.SwapID]
		s.History = append(s.History, entity.StatusChange{
			From: valueobject.SwapStatus(h.FromStatus),
			To:   valueobject.SwapStatus(h.ToStatus),
			By:   h.ChangedBy,
			At:   h.ChangedAt,
		})
	}

	return swaps, nil
}

func insertResponses(ctx context.Context, tx *sqlx.Tx, swapID uuid.UUID, responses []entity.SwapResponse) error {
	bi := newBatchInserter(tx, `INSERT INTO swap_responses (swap_id, from_user_id, message, created_at)`, 4, 0)
	for _, resp := range responses {
		if err := bi.Add(ctx, swapID, resp.From, resp.Message, resp.Timestamp); err != nil {
			return err
		}
	}
	return bi.Flush(ctx)
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, swapID uuid.UUID, changes []entity.StatusChange) error {
	bi := newBatchInserter(tx, `INSERT INTO swap_status_history (swap_id, from_status, to_status, changed_by, changed_at)`, 5, 0)
	for _, ch := range changes {
		if err := bi.Add(ctx, swapID, string(ch.From), string(ch.To), ch.By, ch.At); err != nil {
			return err
		}
	}
	return bi.Flush(ctx)
}

// asPersistence пропускает доменные ошибки как есть, остальные помечает как сбой хранилища.
func asPersistence(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Persistence(err, message)
}

type swapRow struct {
	ID                        uuid.UUID  `db:"id"`
	RequesterID               uuid.UUID  `db:"requester_id"`
	ProviderID                uuid.UUID  `db:"provider_id"`
	SkillOfferedName          string     `db:"skill_offered_name"`
	SkillOfferedDescription   string     `db:"skill_offered_description"`
	SkillOfferedKey           string     `db:"skill_offered_key"`
	SkillRequestedName        string     `db:"skill_requested_name"`
	SkillRequestedDescription string     `db:"skill_requested_description"`
	SkillRequestedKey         string     `db:"skill_requested_key"`
	Message                   string     `db:"message"`
	Status                    string     `db:"status"`
	ProposedSchedule          *string    `db:"proposed_schedule"`
	RequesterRating           *int16     `db:"requester_rating"`
	RequesterComment          *string    `db:"requester_comment"`
	RequesterFeedbackAt       *time.Time `db:"requester_feedback_at"`
	ProviderRating            *int16     `db:"provider_rating"`
	ProviderComment           *string    `db:"provider_comment"`
	ProviderFeedbackAt        *time.Time `db:"provider_feedback_at"`
	AcceptedAt                *time.Time `db:"accepted_at"`
	RejectedAt                *time.Time `db:"rejected_at"`
	CompletedAt               *time.Time `db:"completed_at"`
	CancelledAt               *time.Time `db:"cancelled_at"`
	IsArchived                bool       `db:"is_archived"`
	Version                   int        `db:"version"`
	CreatedAt                 time.Time  `db:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at"`
	ExpectedVersion           int        `db:"expected_version"`
}

type swapResponseRow struct {
	SwapID     uuid.UUID `db:"swap_id"`
	FromUserID uuid.UUID `db:"from_user_id"`
	Message    string    `db:"message"`
	CreatedAt  time.Time `db:"created_at"`
}

type statusHistoryRow struct {
	SwapID     uuid.UUID `db:"swap_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ChangedBy  uuid.UUID `db:"changed_by"`
	ChangedAt  time.Time `db:"changed_at"`
}

func fromSwapEntity(s *entity.Swap) (*swapRow, error) {
	row := &swapRow{
		ID:                        s.ID,
		RequesterID:               s.RequesterID,
		ProviderID:                s.ProviderID,
		SkillOfferedName:          s.SkillOffered.Name,
		SkillOfferedDescription:   s.SkillOffered.Description,
		SkillOfferedKey:           s.SkillOffered.Key(),
		SkillRequestedName:        s.SkillRequested.Name,
		SkillRequestedDescription: s.SkillRequested.Description,
		SkillRequestedKey:         s.SkillRequested.Key(),
		Message:                   s.Message,
		Status:                    string(s.Status),
		AcceptedAt:                s.AcceptedAt,
		RejectedAt:                s.RejectedAt,
		CompletedAt:               s.CompletedAt,
		CancelledAt:               s.CancelledAt,
		IsArchived:                s.IsArchived,
		Version:                   s.Version,
		CreatedAt:                 s.CreatedAt,
		UpdatedAt:                 s.UpdatedAt,
	}
	if !s.ProposedSchedule.IsEmpty() {
		raw, err := json.Marshal(s.ProposedSchedule)
		if err != nil {
			return nil, fmt.Errorf("marshal schedule: %w", err)
		}
		str := string(raw)
		row.ProposedSchedule = &str
	}
	if fb := s.Feedback.Requester; fb != nil {
		rating := int16(fb.Rating)
		row.RequesterRating, row.RequesterComment, row.RequesterFeedbackAt = &rating, &fb.Comment, &fb.SubmittedAt
	}
	if fb := s.Feedback.Provider; fb != nil {
		rating := int16(fb.Rating)
		row.ProviderRating, row.ProviderComment, row.ProviderFeedbackAt = &rating, &fb.Comment, &fb.SubmittedAt
	}
	return row, nil
}

func (r *swapRow) toEntity() (*entity.Swap, error) {
	s := &entity.Swap{
		ID:             r.ID,
		RequesterID:    r.RequesterID,
		ProviderID:     r.ProviderID,
		SkillOffered:   valueobject.Skill{Name: r.SkillOfferedName, Description: r.SkillOfferedDescription},
		SkillRequested: valueobject.Skill{Name: r.SkillRequestedName, Description: r.SkillRequestedDescription},
		Message:        r.Message,
		Status:         valueobject.SwapStatus(r.Status),
		AcceptedAt:     r.AcceptedAt,
		RejectedAt:     r.RejectedAt,
		CompletedAt:    r.CompletedAt,
		CancelledAt:    r.CancelledAt,
		IsArchived:     r.IsArchived,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ProposedSchedule != nil {
		var schedule valueobject.Schedule
		if err := json.Unmarshal([]byte(*r.ProposedSchedule), &schedule); err != nil {
			return nil, fmt.Errorf("swap %s: decode schedule: %w", r.ID, err)
		}
		s.ProposedSchedule = &schedule
	}
	s.Feedback.Requester = feedbackFromColumns(r.RequesterRating, r.RequesterComment, r.RequesterFeedbackAt)
	s.Feedback.Provider = feedbackFromColumns(r.ProviderRating, r.ProviderComment, r.ProviderFeedbackAt)
	return s, nil
}

func feedbackFromColumns(rating *int16, comment *string, at *time.Time) *entity.Feedback {
	if rating == nil || at == nil {
		return nil
	}
	fb := &entity.Feedback{Rating: valueobject.Rating(*rating), SubmittedAt: *at}
	if comment != nil {
		fb.Comment = *comment
	}
	return fb
}
