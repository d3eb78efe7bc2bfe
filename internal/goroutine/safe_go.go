package goroutine

import (
	"context"
	"runtime/debug"
	"sync"
)

// Logger интерфейс для логирования ошибок. *logrus.Logger и *logrus.Entry подходят.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// Group запускает фоновые задачи с перехватом panic и позволяет дождаться их завершения.
type Group struct {
	logger Logger
	wg     sync.WaitGroup
}

func NewGroup(logger Logger) *Group {
	return &Group{logger: logger}
}

// Go запускает fn в отдельной горутине. Panic логируется и не роняет процесс.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.recover()
		fn()
	}()
}

// GoWithContext запускает fn с переданным контекстом.
func (g *Group) GoWithContext(ctx context.Context, fn func(context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.recover()
		fn(ctx)
	}()
}

// Wait блокируется до завершения всех запущенных задач.
func (g *Group) Wait() {
	g.wg.Wait()
}

// WaitContext ждёт завершения задач, но не дольше, чем живёт ctx.
func (g *Group) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Group) recover() {
	if r := recover(); r != nil {
		g.logger.Errorf("Panic in goroutine: %v\nStack trace:\n%s", r, debug.Stack())
	}
}
