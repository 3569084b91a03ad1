// Package widget keeps one auth flow coordinator per browser session.
package widget

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/yauth/internal/authflow"
)

const (
	// DefaultIdleTTL is how long an untouched widget survives.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultMaxWidgets bounds the number of live widgets.
	DefaultMaxWidgets = 10000
)

// Factory builds the coordinator for a freshly created widget.
type Factory func(id string) *authflow.Coordinator

type entry struct {
	coord    *authflow.Coordinator
	lastSeen time.Time
}

// Store maps widget ids to live coordinators and evicts idle ones.
type Store struct {
	mu      sync.Mutex
	widgets map[string]*entry
	factory Factory
	logger  *slog.Logger
	now     func() time.Time

	idleTTL       time.Duration
	maxWidgets    int
	sweepInterval time.Duration
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// Option is a function that configures a Store.
type Option func(*Store)

// WithIdleTTL sets how long an untouched widget is kept.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithMaxWidgets sets how many widgets may be live at once. Creating one past
// the limit evicts the least recently used widget.
func WithMaxWidgets(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxWidgets = n
		}
	}
}

// WithSweepInterval sets how often idle widgets are evicted. Zero disables
// the background sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store that builds coordinators with factory.
func NewStore(factory Factory, opts ...Option) *Store {
	s := &Store{
		widgets:       make(map[string]*entry),
		factory:       factory,
		logger:        slog.Default().With("service", "widget"),
		now:           time.Now,
		idleTTL:       DefaultIdleTTL,
		maxWidgets:    DefaultMaxWidgets,
		sweepInterval: time.Minute,
		stopCleanup:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepInterval > 0 {
		go s.startCleanup()
	}
	return s
}

// Create mounts a new widget and returns its id.
func (s *Store) Create() (string, *authflow.Coordinator) {
	id := uuid.NewString()
	coord := s.factory(id)

	s.mu.Lock()
	var evicted *entry
	if len(s.widgets) >= s.maxWidgets {
		evicted = s.evictOldestLocked()
	}
	s.widgets[id] = &entry{coord: coord, lastSeen: s.now()}
	count := len(s.widgets)
	s.mu.Unlock()

	if evicted != nil {
		evicted.coord.View().Discard()
		s.logger.Warn("Widget limit reached, evicted least recently used", "limit", s.maxWidgets)
	}
	s.logger.Debug("Widget created", "widget_id", id, "live", count)
	return id, coord
}

func (s *Store) evictOldestLocked() *entry {
	var (
		oldestID string
		oldest   *entry
	)
	for id, e := range s.widgets {
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, e
		}
	}
	if oldest != nil {
		delete(s.widgets, oldestID)
	}
	return oldest
}

// Get returns the coordinator for id and marks it as recently used.
func (s *Store) Get(id string) (*authflow.Coordinator, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.widgets[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.coord, true
}

// GetOrCreate returns the widget for id, creating a new one when id is
// unknown or expired. The returned id may differ from the one passed in.
func (s *Store) GetOrCreate(id string) (string, *authflow.Coordinator) {
	if coord, ok := s.Get(id); ok {
		return id, coord
	}
	return s.Create()
}

// Remove unmounts the widget. In-flight submissions it started are dropped.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	e, ok := s.widgets[id]
	delete(s.widgets, id)
	s.mu.Unlock()

	if ok {
		e.coord.View().Discard()
		s.logger.Debug("Widget removed", "widget_id", id)
	}
}

// Len reports the number of live widgets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.widgets)
}

// Sweep removes widgets idle for longer than the configured TTL and returns
// how many were evicted.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var stale []*entry
	for id, e := range s.widgets {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(s.widgets, id)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		e.coord.View().Discard()
	}
	if len(stale) > 0 {
		s.logger.Info("Evicted idle widgets", "count", len(stale))
	}
	return len(stale)
}

func (s *Store) startCleanup() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

// Shutdown stops the background sweeper.
func (s *Store) Shutdown() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}
