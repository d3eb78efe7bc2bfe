// Package swap содержит сценарии жизненного цикла обмена. Решения о допустимости
// переходов принимает entity.Swap, здесь задан порядок шагов: проверка ввода, поиск,
// атомарное изменение через SwapRepository.Mutate и фоновая отправка уведомлений.
package swap

import (
	"context"
	"time"

	"github.com/ignatzorin/skillswap-backend/internal/notification"
)

// Notifier принимает события для фоновой доставки. Реализация не должна блокировать.
type Notifier interface {
	Dispatch(ctx context.Context, events ...notification.Event)
}

type Clock func() time.Time
