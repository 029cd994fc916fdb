// Package app implements application business logic for the notes service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/metrics"
	"ainotes/internal/notes/ports/repositories"
	"ainotes/pkg/logger"
)

// Ограничения выборки списка заметок.
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// Имена операций для логов и метрик.
const (
	opCreate        = "create"
	opEdit          = "edit"
	opSoftDelete    = "soft_delete"
	opPermanentDrop = "permanent_delete"
	opRestore       = "restore"
	opPurge         = "purge"
)

// Сообщения об ошибках.
const (
	errCreateNote  = "failed to create note"
	errGetNote     = "failed to get note"
	errUpdateNote  = "failed to update note"
	errDeleteNote  = "failed to delete note"
	errListNotes   = "failed to list notes"
	errPurgeNotes  = "failed to purge trashed notes"
	errRestoreNote = "failed to restore note"
)

// ChangeListener получает уведомление после каждого успешного изменения заметки.
type ChangeListener interface {
	NoteChanged(ctx context.Context, ownerID string, noteID int64)
}

// Option настраивает NoteUseCase.
type Option func(*NoteUseCase)

// WithClock задает источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(uc *NoteUseCase) { uc.now = now }
}

// WithDeletedAtPolicy задает поведение повторного мягкого удаления.
func WithDeletedAtPolicy(policy entities.DeletedAtPolicy) Option {
	return func(uc *NoteUseCase) { uc.deletedAtPolicy = policy }
}

// WithChangeListener добавляет получателя уведомлений об изменениях.
func WithChangeListener(l ChangeListener) Option {
	return func(uc *NoteUseCase) { uc.listeners = append(uc.listeners, l) }
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *NoteUseCase) { uc.metrics = m }
}

// WithQuota заменяет лимит активных заметок.
func WithQuota(q QuotaGate) Option {
	return func(uc *NoteUseCase) { uc.quota = q }
}

// NoteUseCase представляет собой бизнес-логику работы с заметками.
type NoteUseCase struct {
	noteRepo        repositories.NoteRepository
	quota           QuotaGate
	deletedAtPolicy entities.DeletedAtPolicy
	listeners       []ChangeListener
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewNoteUseCase создает новый экземпляр NoteUseCase.
func NewNoteUseCase(noteRepo repositories.NoteRepository, opts ...Option) *NoteUseCase {
	uc := &NoteUseCase{
		noteRepo:        noteRepo,
		quota:           NewQuotaGate(NoteLimit),
		deletedAtPolicy: entities.DeletedAtKeepFirst,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Subscribe добавляет получателя уведомлений. Вызывается при сборке сервиса,
// до обработки запросов.
func (uc *NoteUseCase) Subscribe(l ChangeListener) {
	uc.listeners = append(uc.listeners, l)
}

// CreateNote создает новую заметку, если владелец не достиг лимита активных заметок.
func (uc *NoteUseCase) CreateNote(ctx context.Context, ownerID, title, content string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteUseCase.CreateNote"), zap.String("ownerID", ownerID))

	var created *entities.Note
	err := uc.noteRepo.WithOwnerLock(ctx, ownerID, func(ctx context.Context, repo repositories.NoteRepository) error {
		if err := uc.quota.Check(ctx, repo, ownerID); err != nil {
			return err
		}

		note := entities.NewNote(ownerID, title, content, uc.now())
		id, err := repo.Create(ctx, note)
		if err != nil {
			return err
		}
		note.ID = id
		created = note
		return nil
	})
	if err != nil {
		uc.track(opCreate, err)
		if _, ok := IsLimitExceeded(err); ok {
			log.Info(ctx, "active note limit reached")
			return nil, err
		}
		log.Error(ctx, errCreateNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCreateNote, err)
	}

	uc.track(opCreate, nil)
	uc.notify(ctx, ownerID, created.ID)
	log.Debug(ctx, "note created", zap.Int64("noteID", created.ID))
	return created, nil
}

// GetNote возвращает активную заметку владельца.
func (uc *NoteUseCase) GetNote(ctx context.Context, ownerID string, noteID int64) (*entities.Note, error) {
	note, err := uc.noteRepo.GetByID(ctx, ownerID, noteID, entities.ScopeActive)
	if err != nil {
		logger.Log(ctx).Error(ctx, errGetNote, zap.Int64("noteID", noteID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}
	if note == nil {
		return nil, ErrNotFoundOrDeleted
	}
	return note, nil
}

// EditNote применяет патч к активной заметке и добавляет снимок в историю.
// Чтение и запись выполняются под блокировкой владельца.
func (uc *NoteUseCase) EditNote(ctx context.Context, ownerID string, noteID int64, patch entities.NotePatch) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteUseCase.EditNote"), zap.Int64("noteID", noteID))

	var edited *entities.Note
	err := uc.noteRepo.WithOwnerLock(ctx, ownerID, func(ctx context.Context, repo repositories.NoteRepository) error {
		note, err := uc.lookup(ctx, repo, ownerID, noteID)
		if err != nil {
			return err
		}

		if err := note.Edit(patch, uc.now()); err != nil {
			return ErrNotFoundOrDeleted
		}

		if err := repo.Update(ctx, note); err != nil {
			log.Error(ctx, errUpdateNote, zap.Error(err))
			return fmt.Errorf("%s: %w", errUpdateNote, err)
		}
		edited = note
		return nil
	})
	if err != nil {
		uc.track(opEdit, err)
		return nil, err
	}

	uc.track(opEdit, nil)
	uc.notify(ctx, ownerID, noteID)
	log.Debug(ctx, "note edited", zap.Int("versions", edited.Versions.Len()))
	return edited, nil
}

// SoftDeleteNote перемещает заметку в корзину. Повторный вызов для заметки в корзине успешен.
func (uc *NoteUseCase) SoftDeleteNote(ctx context.Context, ownerID string, noteID int64) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteUseCase.SoftDeleteNote"), zap.Int64("noteID", noteID))

	changed := false
	err := uc.noteRepo.WithOwnerLock(ctx, ownerID, func(ctx context.Context, repo repositories.NoteRepository) error {
		note, err := uc.lookup(ctx, repo, ownerID, noteID)
		if err != nil {
			return err
		}

		if !note.MoveToTrash(uc.now(), uc.deletedAtPolicy) {
			return nil
		}

		if err := repo.Update(ctx, note); err != nil {
			log.Error(ctx, errUpdateNote, zap.Error(err))
			return fmt.Errorf("%s: %w", errUpdateNote, err)
		}
		changed = true
		return nil
	})
	if err != nil {
		uc.track(opSoftDelete, err)
		return err
	}

	uc.track(opSoftDelete, nil)
	if !changed {
		log.Debug(ctx, "note already in trash")
		return nil
	}
	uc.notify(ctx, ownerID, noteID)
	log.Debug(ctx, "note moved to trash")
	return nil
}

// PermanentlyDeleteNote удаляет заметку вместе с историей в любом состоянии.
func (uc *NoteUseCase) PermanentlyDeleteNote(ctx context.Context, ownerID string, noteID int64) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteUseCase.PermanentlyDeleteNote"), zap.Int64("noteID", noteID))

	err := uc.noteRepo.WithOwnerLock(ctx, ownerID, func(ctx context.Context, repo repositories.NoteRepository) error {
		if _, err := uc.lookup(ctx, repo, ownerID, noteID); err != nil {
			return err
		}

		if err := repo.Delete(ctx, ownerID, noteID); err != nil {
			log.Error(ctx, errDeleteNote, zap.Error(err))
			return fmt.Errorf("%s: %w", errDeleteNote, err)
		}
		return nil
	})
	if err != nil {
		uc.track(opPermanentDrop, err)
		return err
	}

	uc.track(opPermanentDrop, nil)
	uc.notify(ctx, ownerID, noteID)
	log.Debug(ctx, "note permanently deleted")
	return nil
}

// RestoreNote возвращает заметку из корзины, если владелец не достиг лимита.
func (uc *NoteUseCase) RestoreNote(ctx context.Context, ownerID string, noteID int64) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteUseCase.RestoreNote"), zap.Int64("noteID", noteID))

	var restored *entities.Note
	err := uc.noteRepo.WithOwnerLock(ctx, ownerID, func(ctx context.Context, repo repositories.NoteRepository) error {
		note, err := repo.GetByID(ctx, ownerID, noteID, entities.ScopeAny)
		if err != nil {
			return err
		}
		if note == nil {
			return ErrNotFound
		}
		if note.State() != entities.StateTrashed {
			return ErrNotFoundInTrash
		}

		if err := uc.quota.Check(ctx, repo, ownerID); err != nil {
			return err
		}

		if err := note.Restore(); err != nil {
			return ErrNotFoundInTrash
		}
		if err := repo.Update(ctx, note); err != nil {
			return err
		}
		restored = note
		return nil
	})
	if err != nil {
		uc.track(opRestore, err)
		if _, ok := IsLimitExceeded(err); ok {
			log.Info(ctx, "active note limit reached")
			return nil, err
		}
		if IsNotFound(err) {
			return nil, err
		}
		log.Error(ctx, errRestoreNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errRestoreNote, err)
	}

	uc.track(opRestore, nil)
	uc.notify(ctx, ownerID, noteID)
	log.Debug(ctx, "note restored")
	return restored, nil
}

// GetVersionHistory возвращает историю версий заметки в любом состоянии.
func (uc *NoteUseCase) GetVersionHistory(ctx context.Context, ownerID string, noteID int64) (entities.Versions, error) {
	note, err := uc.lookup(ctx, uc.noteRepo, ownerID, noteID)
	if err != nil {
		return entities.Versions{}, err
	}
	return note.Versions, nil
}

// ListNotes возвращает заметки владельца, упорядоченные по UpdatedAt и ID по убыванию.
func (uc *NoteUseCase) ListNotes(ctx context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error) {
	if offset < 0 || limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidParams, offset, limit)
	}

	notes, err := uc.noteRepo.List(ctx, ownerID, includeDeleted, offset, limit)
	if err != nil {
		logger.Log(ctx).Error(ctx, errListNotes, zap.String("ownerID", ownerID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}
	return notes, nil
}

// ListAllNotes возвращает все заметки владельца в любом состоянии.
func (uc *NoteUseCase) ListAllNotes(ctx context.Context, ownerID string) ([]*entities.Note, error) {
	notes, err := uc.noteRepo.ListAll(ctx, ownerID)
	if err != nil {
		logger.Log(ctx).Error(ctx, errListNotes, zap.String("ownerID", ownerID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}
	return notes, nil
}

// PurgeExpiredTrash безвозвратно удаляет заметки, пролежавшие в корзине дольше retention.
func (uc *NoteUseCase) PurgeExpiredTrash(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", ErrInvalidParams)
	}

	purged, err := uc.noteRepo.PurgeTrashed(ctx, uc.now().Add(-retention))
	if err != nil {
		uc.track(opPurge, err)
		logger.Log(ctx).Error(ctx, errPurgeNotes, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errPurgeNotes, err)
	}

	uc.track(opPurge, nil)
	uc.metrics.TrackPurged(len(purged))
	for _, note := range purged {
		uc.notify(ctx, note.OwnerID, note.ID)
	}
	return len(purged), nil
}

// lookup находит заметку в любом состоянии; отсутствие заметки превращается в ErrNotFound.
func (uc *NoteUseCase) lookup(ctx context.Context, repo repositories.NoteRepository, ownerID string, noteID int64) (*entities.Note, error) {
	note, err := repo.GetByID(ctx, ownerID, noteID, entities.ScopeAny)
	if err != nil {
		logger.Log(ctx).Error(ctx, errGetNote, zap.Int64("noteID", noteID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}
	if note == nil {
		return nil, ErrNotFound
	}
	return note, nil
}

func (uc *NoteUseCase) notify(ctx context.Context, ownerID string, noteID int64) {
	for _, l := range uc.listeners {
		l.NoteChanged(ctx, ownerID, noteID)
	}
}

func (uc *NoteUseCase) track(operation string, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case IsNotFound(err):
		result = metrics.ResultNotFound
	default:
		var limitErr *LimitExceededError
		if errors.As(err, &limitErr) {
			result = metrics.ResultLimit
		} else {
			result = metrics.ResultError
		}
	}
	uc.metrics.TrackNoteOperation(operation, result)
}
