// Package notification создаёт пользовательские уведомления о событиях обменов.
// Emitter отвечает за отрисовку и сохранение одного уведомления, Dispatcher
// за фоновую доставку, не блокирующую переходы обменов.
package notification

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillswap-backend/internal/domain/entity"
	"github.com/ignatzorin/skillswap-backend/internal/domain/repository"
	"github.com/ignatzorin/skillswap-backend/internal/domain/valueobject"
)

// Event описывает одно уведомление одному получателю.
type Event struct {
	Type        valueobject.NotificationType
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	SwapID      *uuid.UUID
	SkillID     *uuid.UUID
	MessageID   *uuid.UUID
	// Vars подставляются в шаблоны каталога.
	Vars     map[string]any
	Metadata map[string]any
	// Priority и ExpiresAt переопределяют значения каталога.
	Priority  valueobject.Priority
	ExpiresAt *time.Time
}

type Emitter interface {
	Emit(ctx context.Context, ev Event) (*entity.Notification, error)
}

type emitter struct {
	catalog       *Catalog
	notifications repository.NotificationRepository
	users         repository.UserDirectory
	defaultTTL    time.Duration
	now           func() time.Time
}

type EmitterOption func(*emitter)

func WithClock(now func() time.Time) EmitterOption {
	return func(e *emitter) { e.now = now }
}

// WithDefaultTTL задаёт срок жизни уведомлений, для которых каталог его не указывает.
func WithDefaultTTL(ttl time.Duration) EmitterOption {
	return func(e *emitter) { e.defaultTTL = ttl }
}

func NewEmitter(catalog *Catalog, notifications repository.NotificationRepository, users repository.UserDirectory, opts ...EmitterOption) Emitter {
	e := &emitter{
		catalog:       catalog,
		notifications: notifications,
		users:         users,
		defaultTTL:    30 * 24 * time.Hour,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *emitter) Emit(ctx context.Context, ev Event) (*entity.Notification, error) {
	tpl, ok := e.catalog.lookup(ev.Type)
	if !ok {
		return nil, fmt.Errorf("notification type %q is not in catalog", ev.Type)
	}
	if ev.RecipientID == uuid.Nil {
		return nil, fmt.Errorf("notification %s: empty recipient", ev.Type)
	}

	data := make(map[string]any, len(ev.Vars)+3)
	for k, v := range ev.Vars {
		data[k] = v
	}
	data["SwapID"] = uuidOrEmpty(ev.SwapID)
	data["SkillID"] = uuidOrEmpty(ev.SkillID)
	if tpl.needsSender {
		name, err := e.senderName(ctx, ev.SenderID)
		if err != nil {
			return nil, err
		}
		data["SenderName"] = name
	}

	title, err := render(tpl.title, data)
	if err != nil {
		return nil, fmt.Errorf("render %s title: %w", ev.Type, err)
	}
	message, err := render(tpl.message, data)
	if err != nil {
		return nil, fmt.Errorf("render %s message: %w", ev.Type, err)
	}
	actionURL, err := render(tpl.actionURL, data)
	if err != nil {
		return nil, fmt.Errorf("render %s action url: %w", ev.Type, err)
	}

	now := e.now()
	n := &entity.Notification{
		ID:          uuid.New(),
		RecipientID: ev.RecipientID,
		SenderID:    ev.SenderID,
		Type:        ev.Type,
		Title:       truncate(title, entity.MaxNotificationTitleLength),
		Message:     truncate(message, entity.MaxNotificationMessageLength),
		Data: entity.NotificationData{
			SwapID:    ev.SwapID,
			SkillID:   ev.SkillID,
			MessageID: ev.MessageID,
			Metadata:  ev.Metadata,
		},
		Priority:  tpl.priority,
		ActionURL: actionURL,
		ExpiresAt: ev.ExpiresAt,
		CreatedAt: now,
	}
	if ev.Priority != "" {
		n.Priority = ev.Priority
	}
	if n.ExpiresAt == nil {
		ttl := tpl.ttl
		if ttl == 0 {
			ttl = e.defaultTTL
		}
		if ttl > 0 {
			expires := now.Add(ttl)
			n.ExpiresAt = &expires
		}
	}

	if err := e.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (e *emitter) senderName(ctx context.Context, senderID *uuid.UUID) (string, error) {
	if senderID == nil {
		return "SkillSwap", nil
	}
	user, err := e.users.GetUser(ctx, *senderID)
	if err != nil {
		return "", fmt.Errorf("resolve sender %s: %w", senderID, err)
	}
	return user.DisplayName(), nil
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
