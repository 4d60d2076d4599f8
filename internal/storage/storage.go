package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/eugenenazirov/stylecfg/internal/resolver"
)

var (
	// ErrEmpty indicates no configuration has been stored yet.
	ErrEmpty = errors.New("no configuration has been resolved yet")
	// ErrInvalidConfiguration indicates the configuration is not fully resolved.
	ErrInvalidConfiguration = errors.New("configuration must be fully resolved before it is stored")
)

// Snapshot is the stored configuration together with its bookkeeping.
type Snapshot struct {
	Config    resolver.Configuration
	UpdatedAt time.Time
	Revision  int
}

// Storage provides access to the configuration currently served to consumers.
type Storage interface {
	Current() (Snapshot, error)
	Set(cfg resolver.Configuration) error
}

// MemoryStorage keeps the latest configuration in memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	snapshot Snapshot
	set      bool
	clock    func() time.Time
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a defensive copy of the stored snapshot.
func (s *MemoryStorage) Current() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return Snapshot{}, ErrEmpty
	}
	snap := s.snapshot
	snap.Config = snap.Config.Clone()
	return snap, nil
}

// Set stores a copy of cfg and bumps the revision.
func (s *MemoryStorage) Set(cfg resolver.Configuration) error {
	if !cfg.DarkMode.Valid() || cfg.Theme == nil || cfg.Content == nil || cfg.Plugins == nil {
		return ErrInvalidConfiguration
	}
	stored := cfg.Clone()
	now := s.clock()

	s.mu.Lock()
	s.snapshot = Snapshot{
		Config:    stored,
		UpdatedAt: now,
		Revision:  s.snapshot.Revision + 1,
	}
	s.set = true
	s.mu.Unlock()

	return nil
}
