package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/skillswap-backend/internal/db"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/http/router"
	"github.com/ignatzorin/skillswap-backend/internal/notification"
	"github.com/ignatzorin/skillswap-backend/internal/service"
)

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "skillswap",
		Short:         "SkillSwap: обмен навыками между пользователями",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "путь к .env файлу (по умолчанию .env)")

	root.AddCommand(
		newServeCommand(&envFile),
		newMigrateCommand(&envFile),
		newPurgeCommand(&envFile),
		newBroadcastCommand(&envFile),
	)
	return root
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Готовим контекст для graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			engine := router.SetupRouter(cfg, a.handlers(), service.NewTokenVerifier(cfg.JWTSecret), log)
			server := &http.Server{
				Addr:              ":" + cfg.HTTPPort,
				Handler:           engine,
				ReadHeaderTimeout: 10 * time.Second,
			}

			janitorCtx, stopJanitor := context.WithCancel(ctx)
			defer stopJanitor()
			go a.inbox.RunJanitor(janitorCtx, cfg.NotificationPurgeInterval)
			go a.cache.RunCleanup(janitorCtx, senderCacheTTL)

			errCh := make(chan error, 1)
			go func() {
				log.Infof("HTTP сервер запущен на порту %s", cfg.HTTPPort)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http сервер: %w", err)
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("Ошибка остановки http сервера")
			}
			if err := a.dispatcher.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("Не все уведомления доставлены до остановки")
			}
			log.Info("Сервер остановлен")
			return nil
		},
	}
}

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции базы данных",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := db.RunMigrations(cmd.Context(), conn, migrationsFS(cfg))
			if err != nil {
				return err
			}
			log.WithField("applied", len(applied)).Info("Миграции применены")
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newPurgeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-notifications",
		Short: "Удалить просроченные уведомления",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			removed, err := a.inbox.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed: %d\n", removed)
			return nil
		},
	}
}

type broadcastOptions struct {
	title    string
	content  string
	audience string
	priority string
}

func newBroadcastCommand(envFile *string) *cobra.Command {
	var opts broadcastOptions

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Разослать сообщение платформы аудитории",
		RunE: func(cmd *cobra.Command, _ []string) error {
			audience, err := valueobject.NewAudience(opts.audience)
			if err != nil {
				return err
			}
			priority, err := valueobject.NewPriority(opts.priority)
			if err != nil {
				return err
			}
			if opts.title == "" || opts.content == "" {
				return errors.New("--title и --content обязательны")
			}

			cfg, log, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			ev := notification.PlatformMessage(opts.title, opts.content, priority, uuid.New())
			res, err := a.dispatcher.Broadcast(cmd.Context(), a.users, audience, ev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipients: %d, delivered: %d, failed: %d\n", res.Recipients, res.Delivered, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "заголовок сообщения")
	cmd.Flags().StringVar(&opts.content, "content", "", "текст сообщения")
	cmd.Flags().StringVar(&opts.audience, "audience", string(valueobject.AudienceAll), "all, new_users или active_users")
	cmd.Flags().StringVar(&opts.priority, "priority", string(valueobject.PriorityMedium), "low, medium, high или urgent")
	return cmd
}
