package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/ports/repositories"
	"ainotes/internal/notes/ports/services"
)

var ErrDatabaseOperation = errors.New("database error")

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// clock выдает время, сдвигающееся на минуту при каждом вызове.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: t0} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func strPtr(s string) *string { return &s }

type mockNoteRepository struct {
	mock.Mock
}

var _ repositories.NoteRepository = (*mockNoteRepository)(nil)

func (m *mockNoteRepository) Create(ctx context.Context, note *entities.Note) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) GetByID(ctx context.Context, ownerID string, noteID int64, scope entities.Scope) (*entities.Note, error) {
	args := m.Called(ctx, ownerID, noteID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) List(ctx context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error) {
	args := m.Called(ctx, ownerID, includeDeleted, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) ListAll(ctx context.Context, ownerID string) ([]*entities.Note, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) CountActive(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, note *entities.Note) error {
	return m.Called(ctx, note).Error(0)
}

func (m *mockNoteRepository) Delete(ctx context.Context, ownerID string, noteID int64) error {
	return m.Called(ctx, ownerID, noteID).Error(0)
}

func (m *mockNoteRepository) PurgeTrashed(ctx context.Context, cutoff time.Time) ([]*entities.Note, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Note), args.Error(1)
}

// WithOwnerLock вызывает fn с самим моком, если ожидание не вернуло ошибку.
func (m *mockNoteRepository) WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context, repo repositories.NoteRepository) error) error {
	if err := m.Called(ctx, ownerID).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// recordingListener запоминает уведомления об изменениях.
type recordingListener struct {
	mu    sync.Mutex
	calls []int64
}

func (l *recordingListener) NoteChanged(_ context.Context, _ string, noteID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, noteID)
}

func (l *recordingListener) Calls() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.calls...)
}

// mapCache - кеш в памяти с возможностью вернуть ошибку.
type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	deleted []string
	err     error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	v, ok := c.data[key]
	if !ok {
		return "", services.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	if c.err != nil {
		return c.err
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, instruction, text string) (string, error) {
	args := m.Called(ctx, instruction, text)
	return args.String(0), args.Error(1)
}
