package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

const notificationColumns = `
	id, recipient_id, sender_id, type, title, message, data, is_read, read_at,
	priority, action_url, expires_at, created_at`

type NotificationRepositoryAdapter struct {
	db *sqlx.DB
}

var _ repository.NotificationRepository = (*NotificationRepositoryAdapter)(nil)

func NewNotificationRepositoryAdapter(db *sqlx.DB) *NotificationRepositoryAdapter {
	return &NotificationRepositoryAdapter{db: db}
}

type notificationRow struct {
	ID          uuid.UUID  `db:"id"`
	RecipientID uuid.UUID  `db:"recipient_id"`
	SenderID    *uuid.UUID `db:"sender_id"`
	Type        string     `db:"type"`
	Title       string     `db:"title"`
	Message     string     `db:"message"`
	Data        []byte     `db:"data"`
	IsRead      bool       `db:"is_read"`
	ReadAt      *time.Time `db:"read_at"`
	Priority    string     `db:"priority"`
	ActionURL   string     `db:"action_url"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r notificationRow) toEntity() (*entity.Notification, error) {
	n := &entity.Notification{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		SenderID:    r.SenderID,
		Type:        valueobject.NotificationType(r.Type),
		Title:       r.Title,
		Message:     r.Message,
		IsRead:      r.IsRead,
		ReadAt:      r.ReadAt,
		Priority:    valueobject.Priority(r.Priority),
		ActionURL:   r.ActionURL,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
	}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &n.Data); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (r *NotificationRepositoryAdapter) Create(ctx context.Context, n *entity.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить уведомление")
	}

	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := r.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.SenderID, string(n.Type), n.Title, n.Message, string(data),
		n.IsRead, n.ReadAt, string(n.Priority), n.ActionURL, n.ExpiresAt, n.CreatedAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ErrUserNotFound
		}
		return apperror.Persistence(err, "не удалось создать уведомление")
	}
	return nil
}

func (r *NotificationRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	var row notificationRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrNotificationNotFound
		}
		return nil, apperror.Persistence(err, "не удалось получить уведомление")
	}
	n, err := row.toEntity()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые данные уведомления")
	}
	return n, nil
}

func (r *NotificationRepositoryAdapter) List(ctx context.Context, filter repository.NotificationFilter) ([]*entity.Notification, int, error) {
	where := `recipient_id = $1 AND (expires_at IS NULL OR expires_at > $2)`
	if filter.UnreadOnly {
		where += ` AND NOT is_read`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications WHERE `+where, filter.UserID, filter.Now); err != nil {
		return nil, 0, apperror.Persistence(err, "не удалось получить уведомления")
	}

	var rows []notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + where +
		` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &rows, query, filter.UserID, filter.Now, filter.Limit, filter.Offset); err != nil {
		return nil, 0, apperror.Persistence(err, "не удалось получить уведомления")
	}

	items := make([]*entity.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toEntity()
		if err != nil {
			return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые данные уведомления")
		}
		items = append(items, n)
	}
	return items, total, nil
}

func (r *NotificationRepositoryAdapter) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND NOT is_read AND (expires_at IS NULL OR expires_at > $2)
	`
	if err := r.db.GetContext(ctx, &count, query, userID, now); err != nil {
		return 0, apperror.Persistence(err, "не удалось подсчитать уведомления")
	}
	return count, nil
}

func (r *NotificationRepositoryAdapter) MarkAsRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_id = $2`, id, userID, now)
	if err != nil {
		return apperror.Persistence(err, "не удалось обновить уведомление")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryAdapter) MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = $2
		WHERE recipient_id = $1 AND NOT is_read`, userID, now)
	if err != nil {
		return 0, apperror.Persistence(err, "не удалось обновить уведомления")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *NotificationRepositoryAdapter) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return apperror.Persistence(err, "не удалось удалить уведомление")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryAdapter) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, apperror.Persistence(err, "не удалось удалить просроченные уведомления")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
