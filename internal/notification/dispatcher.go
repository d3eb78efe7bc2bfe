package notification

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
	"github.com/ignatzorin/skillswap-backend/internal/goroutine"
)

const (
	newUsersWindow    = 30 * 24 * time.Hour
	activeUsersWindow = 7 * 24 * time.Hour
)

// Dispatcher доставляет уведомления в фоне. Ошибки доставки логируются и не
// возвращаются вызывающему.
type Dispatcher struct {
	emitter     Emitter
	group       *goroutine.Group
	log         logrus.FieldLogger
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

type DispatcherConfig struct {
	Timeout     time.Duration
	Concurrency int
	Now         func() time.Time
}

func NewDispatcher(emitter Emitter, log *logrus.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		emitter:     emitter,
		group:       goroutine.NewGroup(log),
		log:         log.WithField("component", "notification_dispatcher"),
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
}

// Dispatch запускает отправку событий и сразу возвращает управление. Контекст
// запроса используется только для значений: отмена запроса доставку не прерывает.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	d.group.GoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		for _, ev := range events {
			d.emitOne(ctx, ev)
		}
	})
}

// Wait дожидается завершения всех запущенных доставок.
func (d *Dispatcher) Wait() {
	d.group.Wait()
}

func (d *Dispatcher) Shutdown(ctx context.Context) error {
	return d.group.WaitContext(ctx)
}

func (d *Dispatcher) emitOne(ctx context.Context, ev Event) bool {
	if _, err := d.emitter.Emit(ctx, ev); err != nil {
		fields := logrus.Fields{
			"type":      ev.Type,
			"recipient": ev.RecipientID,
		}
		if ev.SwapID != nil {
			fields["swap_id"] = *ev.SwapID
		}
		d.log.WithFields(fields).WithError(err).Error("Ошибка отправки уведомления")
		return false
	}
	return true
}

// BroadcastResult - итог рассылки по аудитории.
type BroadcastResult struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Broadcast рассылает событие всем пользователям аудитории с ограниченным
// параллелизмом. RecipientID события игнорируется. Ошибка получения аудитории
// прерывает только эту рассылку.
func (d *Dispatcher) Broadcast(ctx context.Context, users repository.UserDirectory, audience valueobject.Audience, ev Event) (BroadcastResult, error) {
	recipients, err := ResolveAudience(ctx, users, audience, d.now())
	if err != nil {
		d.log.WithField("audience", audience).WithError(err).Error("Не удалось получить аудиторию рассылки")
		return BroadcastResult{}, fmt.Errorf("resolve audience %s: %w", audience, err)
	}

	var delivered, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, id := range recipients {
		target := ev
		target.RecipientID = id
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()
			if d.emitOne(ctx, target) {
				atomic.AddInt64(&delivered, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := BroadcastResult{Recipients: len(recipients), Delivered: int(delivered), Failed: int(failed)}
	d.log.WithFields(logrus.Fields{
		"audience":   audience,
		"recipients": res.Recipients,
		"delivered":  res.Delivered,
		"failed":     res.Failed,
	}).Info("Рассылка завершена")
	return res, nil
}

// ResolveAudience выбирает активных пользователей. all берёт всех, new_users
// зарегистрированных за 30 дней, active_users обновлявшихся за 7 дней.
func ResolveAudience(ctx context.Context, users repository.UserDirectory, audience valueobject.Audience, now time.Time) ([]uuid.UUID, error) {
	switch audience {
	case valueobject.AudienceAll:
		return users.ListActiveUserIDs(ctx, nil, false)
	case valueobject.AudienceNewUsers:
		since := now.Add(-newUsersWindow)
		return users.ListActiveUserIDs(ctx, &since, false)
	case valueobject.AudienceActiveUsers:
		since := now.Add(-activeUsersWindow)
		return users.ListActiveUserIDs(ctx, &since, true)
	}
	return nil, fmt.Errorf("unknown audience %q", audience)
}
