package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var embedded embed.FS

// EmbeddedMigrations возвращает миграции, встроенные в бинарник.
func EmbeddedMigrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PoolConfig задаёт параметры пула соединений.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = 100
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 25
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 5 * time.Minute
	}
	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return conn, nil
}

// RunMigrations выполняет ещё не применённые SQL файлы из fsys в лексикографическом порядке.
// Возвращает имена применённых миграций.
func RunMigrations(ctx context.Context, conn *sqlx.DB, fsys fs.FS) ([]string, error) {
	if err := initMigrationsTable(ctx, conn); err != nil {
		return nil, fmt.Errorf("postgres: не удалось инициализировать таблицу миграций: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var applied []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		name := entry.Name()
		done, err := isMigrationApplied(ctx, conn, name)
		if err != nil {
			return applied, fmt.Errorf("postgres: не удалось проверить статус миграции %s: %w", name, err)
		}
		if done {
			continue
		}

		if err := applyMigration(ctx, conn, fsys, name); err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}

	return applied, nil
}

func initMigrationsTable(ctx context.Context, conn *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := conn.ExecContext(ctx, query)
	return err
}

func isMigrationApplied(ctx context.Context, conn *sqlx.DB, name string) (bool, error) {
	var count int
	if err := conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM schema_migrations WHERE name = $1`, name); err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyMigration выполняет файл и отмечает его в одной транзакции.
func applyMigration(ctx context.Context, conn *sqlx.DB, fsys fs.FS, name string) error {
	sqlBytes, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("postgres: не удалось прочитать миграцию %s: %w", name, err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: не удалось начать транзакцию для миграции %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("postgres: не удалось выполнить миграцию %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("postgres: не удалось отметить миграцию %s как выполненную: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: не удалось зафиксировать транзакцию для миграции %s: %w", name, err)
	}
	return nil
}
