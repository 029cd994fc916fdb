package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ainotes/pkg/logger"
)

// TrashJanitor периодически удаляет заметки, пролежавшие в корзине дольше срока хранения.
type TrashJanitor struct {
	notes     *NoteUseCase
	retention time.Duration
	interval  time.Duration

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewTrashJanitor создает janitor; запуск выполняет Start.
func NewTrashJanitor(notes *NoteUseCase, retention, interval time.Duration) *TrashJanitor {
	return &TrashJanitor{
		notes:     notes,
		retention: retention,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start запускает фоновую очистку. Первый проход выполняется сразу.
func (j *TrashJanitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.loop(context.WithoutCancel(ctx))
}

func (j *TrashJanitor) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopCh:
			return
		}
	}
}

func (j *TrashJanitor) sweep(ctx context.Context) {
	purged, err := j.notes.PurgeExpiredTrash(ctx, j.retention)
	if err != nil {
		logger.Log(ctx).Warn(ctx, "trash purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		logger.Log(ctx).Info(ctx, "expired trash purged", zap.Int("count", purged), zap.Duration("retention", j.retention))
	}
}

// Stop останавливает очистку и ждет завершения текущего прохода.
func (j *TrashJanitor) Stop(ctx context.Context) error {
	j.once.Do(func() { close(j.stopCh) })

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
