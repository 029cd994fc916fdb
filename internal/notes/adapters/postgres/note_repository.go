// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/ports/repositories"
	"ainotes/pkg/logger"
)

// ErrNoteNotFoundOrNotOwned is returned when a note doesn't exist or belongs to another user.
var ErrNoteNotFoundOrNotOwned = errors.New("note not found or not owned by user")

const noteColumns = `id, owner_id, title, content, created_at, updated_at, is_deleted, deleted_at, versions`

// NoteRepository реализует интерфейс repositories.NoteRepository.
type NoteRepository struct {
	pool PgxPoolInterface
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(pool PgxPoolInterface) repositories.NoteRepository {
	return &NoteRepository{pool: pool}
}

func scanNote(row pgx.Row) (*entities.Note, error) {
	var (
		note     entities.Note
		versions []byte
	)
	err := row.Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content,
		&note.CreatedAt, &note.UpdatedAt, &note.IsDeleted, &note.DeletedAt, &versions)
	if err != nil {
		return nil, err
	}

	if len(versions) > 0 {
		if err := json.Unmarshal(versions, &note.Versions); err != nil {
			return nil, fmt.Errorf("decode versions of note %d: %w", note.ID, err)
		}
	}
	return &note, nil
}

// Create сохраняет новую заметку в БД.
func (r *NoteRepository) Create(ctx context.Context, note *entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Create"))
	log.Debug(ctx, "creating new note", zap.String("ownerID", note.OwnerID))

	versions, err := json.Marshal(note.Versions)
	if err != nil {
		return 0, fmt.Errorf("encode versions: %w", err)
	}

	var noteID int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO notes (owner_id, title, content, created_at, updated_at, is_deleted, deleted_at, versions)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		note.OwnerID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt, note.IsDeleted, note.DeletedAt, versions,
	).Scan(&noteID)
	if err != nil {
		log.Error(ctx, "failed to create note", zap.Error(err))
		return 0, fmt.Errorf("failed to create note: %w", err)
	}

	log.Debug(ctx, "note created", zap.Int64("noteID", noteID))
	return noteID, nil
}

// GetByID получает заметку владельца по ID.
func (r *NoteRepository) GetByID(ctx context.Context, ownerID string, noteID int64, scope entities.Scope) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.GetByID"))

	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND owner_id = $2`
	if scope == entities.ScopeActive {
		query += ` AND is_deleted = FALSE`
	}

	note, err := scanNote(r.pool.QueryRow(ctx, query, noteID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.Int64("noteID", noteID))
			return nil, nil
		}
		log.Error(ctx, "failed to get note", zap.Error(err))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) queryNotes(ctx context.Context, query string, args ...any) ([]*entities.Note, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notes, nil
}

// List получает страницу заметок владельца.
func (r *NoteRepository) List(ctx context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.List"))
	log.Debug(ctx, "listing notes", zap.String("ownerID", ownerID), zap.Int("limit", limit), zap.Int("offset", offset))

	notes, err := r.queryNotes(ctx,
		`SELECT `+noteColumns+`
         FROM notes
         WHERE owner_id = $1 AND ($2 OR is_deleted = FALSE)
         ORDER BY updated_at DESC, id DESC
         LIMIT $3 OFFSET $4`,
		ownerID, includeDeleted, limit, offset,
	)
	if err != nil {
		log.Error(ctx, "failed to list notes", zap.Error(err))
		return nil, err
	}
	return notes, nil
}

// ListAll получает все заметки владельца в любом состоянии.
func (r *NoteRepository) ListAll(ctx context.Context, ownerID string) ([]*entities.Note, error) {
	notes, err := r.queryNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 ORDER BY updated_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		logger.Log(ctx).Error(ctx, "failed to list all notes", zap.String("ownerID", ownerID), zap.Error(err))
		return nil, err
	}
	return notes, nil
}

// CountActive считает активные заметки владельца.
func (r *NoteRepository) CountActive(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notes WHERE owner_id = $1 AND is_deleted = FALSE`,
		ownerID,
	).Scan(&count)
	if err != nil {
		logger.Log(ctx).Error(ctx, "failed to count notes", zap.String("ownerID", ownerID), zap.Error(err))
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// Update сохраняет текущее состояние заметки одной записью.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"))
	log.Debug(ctx, "updating note", zap.Int64("noteID", note.ID))

	versions, err := json.Marshal(note.Versions)
	if err != nil {
		return fmt.Errorf("encode versions: %w", err)
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE notes
         SET title = $1, content = $2, updated_at = $3, is_deleted = $4, deleted_at = $5, versions = $6
         WHERE id = $7 AND owner_id = $8`,
		note.Title, note.Content, note.UpdatedAt, note.IsDeleted, note.DeletedAt, versions, note.ID, note.OwnerID,
	)
	if err != nil {
		log.Error(ctx, "failed to update note", zap.Error(err))
		return fmt.Errorf("failed to update note: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found or not owned by user")
		return ErrNoteNotFoundOrNotOwned
	}
	return nil
}

// Delete удаляет заметку.
func (r *NoteRepository) Delete(ctx context.Context, ownerID string, noteID int64) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"))
	log.Debug(ctx, "deleting note", zap.Int64("noteID", noteID))

	result, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND owner_id = $2`, noteID, ownerID)
	if err != nil {
		log.Error(ctx, "failed to delete note", zap.Error(err))
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found or not owned by user")
		return ErrNoteNotFoundOrNotOwned
	}
	return nil
}

// PurgeTrashed удаляет заметки, находящиеся в корзине с момента раньше cutoff.
func (r *NoteRepository) PurgeTrashed(ctx context.Context, cutoff time.Time) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.PurgeTrashed"))

	rows, err := r.pool.Query(ctx,
		`DELETE FROM notes WHERE is_deleted = TRUE AND deleted_at < $1 RETURNING id, owner_id`,
		cutoff,
	)
	if err != nil {
		log.Error(ctx, "failed to purge trashed notes", zap.Error(err))
		return nil, fmt.Errorf("failed to purge trashed notes: %w", err)
	}
	defer rows.Close()

	purged := make([]*entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		if err := rows.Scan(&note.ID, &note.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan purged note: %w", err)
		}
		purged = append(purged, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	log.Debug(ctx, "trashed notes purged", zap.Int("count", len(purged)))
	return purged, nil
}

// WithOwnerLock выполняет fn в транзакции, удерживающей advisory-блокировку владельца.
func (r *NoteRepository) WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context, repo repositories.NoteRepository) error) (err error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.WithOwnerLock"))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, "failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Warn(ctx, "failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			log.Error(ctx, "failed to commit transaction", zap.Error(err))
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		log.Error(ctx, "failed to acquire owner lock", zap.Error(err))
		return fmt.Errorf("failed to acquire owner lock: %w", err)
	}

	return fn(ctx, &NoteRepository{pool: tx})
}
