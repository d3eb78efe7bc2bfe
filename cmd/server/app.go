package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skillswap-backend/internal/config"
	"github.com/ignatzorin/skillswap-backend/internal/db"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/http/router"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/skillswap-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/skillswap-backend/internal/interface/http/handler"
	"github.com/ignatzorin/skillswap-backend/internal/logger"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/service"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/feedback"
	"github.com/ignatzorin/skillswap-backend/internal/usecase/swap"
)

// app собирает зависимости процесса: хранилища, доставку уведомлений и сервисы.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *sqlx.DB

	swaps         repository.SwapRepository
	users         repository.UserDirectory
	notifications repository.NotificationRepository

	dispatcher *notification.Dispatcher
	inbox      *service.NotificationService
	cache      *service.CacheService
}

const senderCacheTTL = 5 * time.Minute

func loadConfig(envFile string) (*config.Config, *logrus.Logger, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProduction()})
	return cfg, log, nil
}

func migrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsPath != "" {
		return os.DirFS(cfg.MigrationsPath)
	}
	return db.EmbeddedMigrations()
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	return db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.UseMemoryStore {
		log.Warn("USE_MEMORY_STORE=true: данные хранятся в памяти процесса")
		a.swaps = memory.NewSwapStore()
		a.users = memory.NewUserDirectory()
		a.notifications = memory.NewNotificationRepository()
	} else {
		conn, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("подключение к базе: %w", err)
		}
		applied, err := db.RunMigrations(ctx, conn, migrationsFS(cfg))
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("миграции: %w", err)
		}
		if len(applied) > 0 {
			log.WithField("migrations", applied).Info("Применены миграции")
		}
		a.db = conn
		a.swaps = persistence.NewSwapRepositoryAdapter(conn)
		a.users = persistence.NewUserDirectoryAdapter(conn)
		a.notifications = persistence.NewNotificationRepositoryAdapter(conn)
	}

	catalog, err := notification.DefaultCatalog()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("каталог уведомлений: %w", err)
	}
	a.cache = service.NewCacheService(time.Now)
	senders := service.NewCachedUserDirectory(a.users, a.cache, senderCacheTTL)
	emitter := notification.NewEmitter(catalog, a.notifications, senders,
		notification.WithDefaultTTL(cfg.NotificationTTL))
	a.dispatcher = notification.NewDispatcher(emitter, log, notification.DispatcherConfig{
		Timeout:     cfg.NotificationDispatchTimeout,
		Concurrency: cfg.NotificationConcurrency,
	})
	a.inbox = service.NewNotificationService(a.notifications, logger.Component("inbox"), time.Now)

	return a, nil
}

func (a *app) handlers() router.Handlers {
	now := time.Now
	uc := handler.SwapUseCases{
		Create:            swap.NewCreateSwapUseCase(a.swaps, a.users, a.dispatcher, now),
		Respond:           swap.NewRespondSwapUseCase(a.swaps, a.dispatcher, now),
		Complete:          swap.NewCompleteSwapUseCase(a.swaps, a.dispatcher, now),
		Cancel:            swap.NewCancelSwapUseCase(a.swaps, a.dispatcher, now),
		Archive:           swap.NewArchiveSwapUseCase(a.swaps, now),
		AppendMessage:     swap.NewAppendMessageUseCase(a.swaps, a.dispatcher, now),
		Get:               swap.NewGetSwapUseCase(a.swaps),
		List:              swap.NewListSwapsUseCase(a.swaps),
		Stats:             swap.NewSwapStatsUseCase(a.swaps),
		SubmitFeedback:    feedback.NewSubmitFeedbackUseCase(a.swaps, a.users, a.dispatcher, a.log, now),
		CanSubmitFeedback: feedback.NewCanSubmitFeedbackUseCase(a.swaps),
	}

	var pinger handler.Pinger
	if a.db != nil {
		pinger = a.db
	}
	return router.Handlers{
		Swap:         handler.NewSwapHandler(uc),
		Notification: handler.NewNotificationHandler(a.inbox),
		Health:       handler.NewHealthHandler(pinger, now),
	}
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("Ошибка закрытия базы")
	}
}
