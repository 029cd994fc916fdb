// Package shutdown реализует корректное завершение приложения
// по сигналам SIGINT и SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ainotes/pkg/logger"
)

// Константы для логирования.
const (
	LogSignalReceived = "shutdown signal received"
	LogHookFailed     = "shutdown hook failed"
	LogHooksTimedOut  = "shutdown hooks did not finish in time"
)

// Hook - функция освобождения ресурса.
type Hook func(context.Context) error

// Wait блокируется до сигнала SIGINT/SIGTERM или отмены ctx,
// затем параллельно выполняет hooks в пределах timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Log(ctx).Info(ctx, LogSignalReceived)

	Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run выполняет hooks параллельно и ждет их завершения не дольше timeout.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	log := logger.Log(ctx)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error(ctx, LogHookFailed, zap.Error(err))
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn(ctx, LogHooksTimedOut, zap.Duration("timeout", timeout))
	}
}

// Sequence объединяет hooks в один, выполняющий их по порядку.
// Ошибка одного hook не отменяет последующие; ошибки объединяются.
func Sequence(hooks ...Hook) Hook {
	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range hooks {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Parallel объединяет hooks в один, выполняющий их одновременно.
func Parallel(hooks ...Hook) Hook {
	return func(ctx context.Context) error {
		errs := make([]error, len(hooks))
		var wg sync.WaitGroup
		for i, fn := range hooks {
			wg.Add(1)
			go func(i int, fn Hook) {
				defer wg.Done()
				errs[i] = fn(ctx)
			}(i, fn)
		}
		wg.Wait()
		return errors.Join(errs...)
	}
}
