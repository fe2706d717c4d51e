package handlers

import (
	"context"
	"sync"

	"github.com/dhima/dbhelper/internal/database"
)

// Store is the slice of *database.Client the console drives.
type Store interface {
	Select(ctx context.Context, table string, opts ...database.SelectOption) (*database.Result, error)
	Get(shape database.Shape) ([]database.Row, error)
	Insert(ctx context.Context, table string, data any) (int64, bool, error)
	Update(ctx context.Context, table string, data any, where string) (*database.Result, bool, error)
	Delete(ctx context.Context, table, where string) (*database.Result, error)
	Query(ctx context.Context, sqlText string) (*database.Result, error)
	Ping(ctx context.Context) error
	Stats() database.Stats
}

// Session serialises every request around one Store. The client keeps a
// single last result and insert id per session, so a statement and the
// fetch that follows it must run without interleaving.
type Session struct {
	mu    sync.Mutex
	store Store
}

// NewSession wraps store.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// With runs fn while holding the session.
func (s *Session) With(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}
