// Package memory provides an in-process implementation of the note repository.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/ports/repositories"
)

// ErrNoteNotFoundOrNotOwned возвращается, когда заметка не существует или принадлежит другому владельцу.
var ErrNoteNotFoundOrNotOwned = errors.New("note not found or not owned by user")

// NoteRepository хранит заметки в памяти процесса.
type NoteRepository struct {
	mu     sync.RWMutex
	notes  map[int64]*entities.Note
	nextID int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewNoteRepository создает пустой репозиторий.
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{
		notes: make(map[int64]*entities.Note),
		locks: make(map[string]*sync.Mutex),
	}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

func clone(n *entities.Note) *entities.Note {
	c := *n
	if n.DeletedAt != nil {
		deletedAt := *n.DeletedAt
		c.DeletedAt = &deletedAt
	}
	return &c
}

func visible(n *entities.Note, ownerID string, scope entities.Scope) bool {
	if n.OwnerID != ownerID {
		return false
	}
	return scope == entities.ScopeAny || !n.IsDeleted
}

// Create сохраняет новую заметку и возвращает ее ID.
func (r *NoteRepository) Create(_ context.Context, note *entities.Note) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := clone(note)
	stored.ID = r.nextID
	r.notes[stored.ID] = stored
	return stored.ID, nil
}

// GetByID возвращает копию заметки или nil, nil.
func (r *NoteRepository) GetByID(_ context.Context, ownerID string, noteID int64, scope entities.Scope) (*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[noteID]
	if !ok || !visible(n, ownerID, scope) {
		return nil, nil
	}
	return clone(n), nil
}

func (r *NoteRepository) sorted(ownerID string, includeDeleted bool) []*entities.Note {
	scope := entities.ScopeActive
	if includeDeleted {
		scope = entities.ScopeAny
	}

	out := make([]*entities.Note, 0)
	for _, n := range r.notes {
		if visible(n, ownerID, scope) {
			out = append(out, clone(n))
		}
	}
	slices.SortFunc(out, func(a, b *entities.Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// List возвращает страницу заметок владельца.
func (r *NoteRepository) List(_ context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(ownerID, includeDeleted)
	if offset >= len(all) {
		return []*entities.Note{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

// ListAll возвращает все заметки владельца.
func (r *NoteRepository) ListAll(_ context.Context, ownerID string) ([]*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(ownerID, true), nil
}

// CountActive считает активные заметки владельца.
func (r *NoteRepository) CountActive(_ context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notes {
		if n.OwnerID == ownerID && !n.IsDeleted {
			count++
		}
	}
	return count, nil
}

// Update перезаписывает заметку целиком.
func (r *NoteRepository) Update(_ context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[note.ID]
	if !ok || n.OwnerID != note.OwnerID {
		return ErrNoteNotFoundOrNotOwned
	}
	r.notes[note.ID] = clone(note)
	return nil
}

// Delete удаляет заметку в любом состоянии.
func (r *NoteRepository) Delete(_ context.Context, ownerID string, noteID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return ErrNoteNotFoundOrNotOwned
	}
	delete(r.notes, noteID)
	return nil
}

// PurgeTrashed удаляет заметки, попавшие в корзину раньше cutoff.
func (r *NoteRepository) PurgeTrashed(_ context.Context, cutoff time.Time) ([]*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := make([]*entities.Note, 0)
	for id, n := range r.notes {
		if n.TrashedBefore(cutoff) {
			purged = append(purged, clone(n))
			delete(r.notes, id)
		}
	}
	return purged, nil
}

// WithOwnerLock сериализует fn с другими вызовами для того же владельца.
func (r *NoteRepository) WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context, repo repositories.NoteRepository) error) error {
	lock := r.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, r)
}

func (r *NoteRepository) ownerLock(ownerID string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock, ok := r.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[ownerID] = lock
	}
	return lock
}
