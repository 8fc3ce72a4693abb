// Package session keeps one dashboard filter state per browser session in
// memory. State is lost on restart.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"evdash/internal/infrastructure"
	"evdash/pkg/contracts/domain"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// DefaultSweepInterval is used when Options.SweepInterval is not positive.
const DefaultSweepInterval = 10 * time.Minute

// Options configures a Store.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type entry struct {
	state     domain.FilterState
	createdAt time.Time
	lastSeen  time.Time
}

// Stats describes the store for the health endpoint.
type Stats struct {
	Active  int   `json:"active"`
	Created int64 `json:"created"`
	Expired int64 `json:"expired"`
}

// Store is an in-memory FilterState store keyed by session id. Sessions
// expire TTL after they were last used.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	created  int64
	expired  int64

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
	metrics       *infrastructure.BusinessMetrics
}

// NewStore creates an empty store. metrics may be nil.
func NewStore(opts Options, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Store {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Store{
		sessions:      make(map[string]*entry),
		ttl:           opts.TTL,
		sweepInterval: opts.SweepInterval,
		now:           time.Now,
		logger:        infrastructure.WithComponent(logger, "session_store"),
		metrics:       metrics,
	}
}

// Create stores state under a fresh id.
func (s *Store) Create(ctx context.Context, state domain.FilterState) string {
	id := uuid.New().String()
	now := s.now()

	s.mu.Lock()
	s.sessions[id] = &entry{state: state, createdAt: now, lastSeen: now}
	s.created++
	s.mu.Unlock()

	infrastructure.RecordSessionChange(ctx, s.metrics, 1)
	s.logger.DebugContext(ctx, "session created", slog.String("session_id", id))
	return id
}

// Get returns the state of a live session and marks it used.
func (s *Store) Get(ctx context.Context, id string) (domain.FilterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(ctx, id)
	if !ok {
		return domain.FilterState{}, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.state, nil
}

// GetOrCreate returns the state of id, or creates a session holding
// initial() when id is empty, unknown or expired. created reports which.
func (s *Store) GetOrCreate(ctx context.Context, id string, initial func() domain.FilterState) (string, domain.FilterState, bool) {
	if id != "" {
		if state, err := s.Get(ctx, id); err == nil {
			return id, state, false
		}
	}
	state := initial()
	return s.Create(ctx, state), state, true
}

// Update replaces the state of id with fn(current) atomically.
func (s *Store) Update(ctx context.Context, id string, fn func(domain.FilterState) (domain.FilterState, error)) (domain.FilterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(ctx, id)
	if !ok {
		return domain.FilterState{}, ErrNotFound
	}
	next, err := fn(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = next
	e.lastSeen = s.now()
	return next, nil
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Active: len(s.sessions), Created: s.created, Expired: s.expired}
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	s.expired += int64(removed)
	s.mu.Unlock()

	if removed > 0 {
		infrastructure.RecordSessionChange(ctx, s.metrics, -int64(removed))
		s.logger.InfoContext(ctx, "expired sessions swept", slog.Int("removed", removed))
	}
	return removed
}

// Run sweeps on every interval until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "session sweeper started",
		slog.Duration("interval", s.sweepInterval),
		slog.Duration("ttl", s.ttl))

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopped")
			return nil
		}
	}
}

// lookup returns a live entry and drops an expired one. Callers hold mu.
func (s *Store) lookup(ctx context.Context, id string) (*entry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		s.expired++
		infrastructure.RecordSessionChange(ctx, s.metrics, -1)
		return nil, false
	}
	return e, true
}
