package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/model"
)

// Registry holds the live booking sessions.  Idle sessions are evicted by
// Sweep.
type Registry struct {
	gw     gateway.Gateway
	pub    Publisher
	people PeopleRange
	idle   time.Duration
	now    func() time.Time
	log    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	People  PeopleRange
	IdleTTL time.Duration
	Now     func() time.Time
}

// NewRegistry builds an empty registry.  pub may be nil.
func NewRegistry(gw gateway.Gateway, pub Publisher, opts RegistryOptions, log *zap.Logger) *Registry {
	if gw == nil {
		panic("nil gateway")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		gw:       gw,
		pub:      pub,
		people:   opts.People,
		idle:     opts.IdleTTL,
		now:      opts.Now,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session on the venue's current layout.
func (r *Registry) Create(ctx context.Context, venueID string) (*Session, error) {
	if venueID == "" {
		return nil, fmt.Errorf("%w: venue_id is required", model.ErrInvalidField)
	}
	l, err := r.gw.FetchLayout(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	ids := make([]string, 0, len(l.Seats))
	for _, s := range l.Seats {
		ids = append(ids, s.ID)
	}
	s := NewSession(venueID, ids, r.gw, r.pub, Options{People: r.people, Now: r.now, Log: r.log})

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.log.Debug("booking session opened",
		zap.String("session_id", s.ID()),
		zap.String("venue_id", venueID),
		zap.Int("seats", len(ids)))
	return s, nil
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return s, nil
}

// Close drops a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the idle TTL and returns how
// many were removed.  A zero TTL disables eviction.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info("idle booking sessions evicted", zap.Int("count", n))
			}
		}
	}
}
