// Package memstore is an in-memory store.Store used when no database driver
// is configured and in tests. Transactions are serialised by one mutex and
// work on a copy of the state that replaces the original only on commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hjiwane/apartment-society-backend/internal/models"
	"github.com/hjiwane/apartment-society-backend/internal/store"
)

type voteKey struct{ requestID, userID uint }

type state struct {
	seq         map[string]uint // последовательности id по таблицам
	users       map[uint]models.User
	buildings   map[uint]models.Building
	units       map[uint]models.Unit
	memberships map[uint]models.Membership
	requests    map[uint]models.MaintenanceRequest
	votes       map[voteKey]models.Vote
}

func newState() *state {
	return &state{
		seq:         make(map[string]uint),
		users:       make(map[uint]models.User),
		buildings:   make(map[uint]models.Building),
		units:       make(map[uint]models.Unit),
		memberships: make(map[uint]models.Membership),
		requests:    make(map[uint]models.MaintenanceRequest),
		votes:       make(map[voteKey]models.Vote),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:         cloneMap(s.seq),
		users:       cloneMap(s.users),
		buildings:   cloneMap(s.buildings),
		units:       cloneMap(s.units),
		memberships: cloneMap(s.memberships),
		requests:    cloneMap(s.requests),
		votes:       cloneMap(s.votes),
	}
}

func (s *state) id(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type Option func(*Store)

// WithClock подменяет источник времени (для тестов сортировки).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Tx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txStore{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

type txStore struct {
	st  *state
	now func() time.Time
}

var _ store.Tx = (*txStore)(nil)

func missing(what string, id uint) error {
	return fmt.Errorf("memstore: %s %d: %w", what, id, store.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("memstore: duplicate %s: %w", what, store.ErrConflict)
}

func sortedIDs[V any](m map[uint]V, keep func(V) bool) []uint {
	ids := make([]uint, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
