package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/pkg/apperror"
)

// UserDirectoryAdapter читает справочник пользователей из таблицы users.
// Таблицу ведёт сервис профилей, здесь только чтение и обновление рейтинга.
type UserDirectoryAdapter struct {
	db *sqlx.DB
}

var _ repository.UserDirectory = (*UserDirectoryAdapter)(nil)

func NewUserDirectoryAdapter(db *sqlx.DB) *UserDirectoryAdapter {
	return &UserDirectoryAdapter{db: db}
}

type userRow struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	Role          string         `db:"role"`
	IsActive      bool           `db:"is_active"`
	SkillsOffered pq.StringArray `db:"skills_offered"`
	SkillsWanted  pq.StringArray `db:"skills_wanted"`
	RatingAverage float64        `db:"rating_average"`
	RatingCount   int            `db:"rating_count"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *UserDirectoryAdapter) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	query := `
		SELECT id, name, role, is_active, skills_offered, skills_wanted,
		rating_average, rating_count, created_at, updated_at
		FROM users WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Persistence(err, "не удалось получить пользователя")
	}

	return &entity.User{
		ID:            row.ID,
		Name:          row.Name,
		Role:          row.Role,
		IsActive:      row.IsActive,
		SkillsOffered: []string(row.SkillsOffered),
		SkillsWanted:  []string(row.SkillsWanted),
		RatingAverage: row.RatingAverage,
		RatingCount:   row.RatingCount,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// UpdateAggregateRating пересчитывает средний рейтинг одним UPDATE.
func (r *UserDirectoryAdapter) UpdateAggregateRating(ctx context.Context, id uuid.UUID, rating int) error {
	query := `
		UPDATE users SET
			rating_average = (rating_average * rating_count + $2) / (rating_count + 1),
			rating_count = rating_count + 1
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, rating)
	if err != nil {
		return apperror.Persistence(err, "не удалось обновить рейтинг")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

func (r *UserDirectoryAdapter) ListActiveUserIDs(ctx context.Context, since *time.Time, byActivity bool) ([]uuid.UUID, error) {
	query := `SELECT id FROM users WHERE is_active`
	var args []interface{}
	if since != nil {
		column := "created_at"
		if byActivity {
			column = "updated_at"
		}
		query += ` AND ` + column + ` >= $1`
		args = append(args, *since)
	}
	query += ` ORDER BY id`

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperror.Persistence(err, "не удалось получить список пользователей")
	}
	return ids, nil
}
