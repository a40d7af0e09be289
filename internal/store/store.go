package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// Loader supplies a normalized listing snapshot
type Loader interface {
	LoadListings(ctx context.Context) ([]model.Listing, error)
}

// Store holds the in-memory listing pool. A search reads one immutable snapshot;
// Reload swaps in a new one without affecting searches already holding the old slice.
type Store struct {
	loader Loader
	logger *zap.Logger

	mu       sync.RWMutex
	listings []model.Listing
	byID     map[string]int
	loadedAt time.Time
}

// New creates an empty store backed by loader
func New(loader Loader, logger *zap.Logger) *Store {
	return &Store{
		loader: loader,
		logger: logger,
		byID:   map[string]int{},
	}
}

// NewFromListings creates a store preloaded with listings and no loader
func NewFromListings(listings []model.Listing) *Store {
	s := &Store{logger: zap.NewNop()}
	s.replace(listings)
	return s
}

// Reload fetches a fresh snapshot from the loader and returns its size
func (s *Store) Reload(ctx context.Context) (int, error) {
	if s.loader == nil {
		return 0, fmt.Errorf("store has no loader")
	}

	start := time.Now()
	listings, err := s.loader.LoadListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reload listings: %w", err)
	}

	n := s.replace(listings)
	s.logger.Info("Listing snapshot loaded",
		zap.Int("listings", n),
		zap.Duration("elapsed", time.Since(start)))
	return n, nil
}

// Snapshot returns a copy of the pool, in load order
func (s *Store) Snapshot() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// Get returns a copy of one listing
func (s *Store) Get(id string) (model.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return model.Listing{}, false
	}
	return s.listings[idx], true
}

// Len returns the pool size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// LoadedAt returns when the current snapshot was installed
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// replace installs listings, dropping entries without an id and duplicate ids (first wins).
// Housing types are normalized; unrecognized ones become unknown.
func (s *Store) replace(listings []model.Listing) int {
	pool := make([]model.Listing, 0, len(listings))
	byID := make(map[string]int, len(listings))

	for _, l := range listings {
		if l.ID == "" {
			continue
		}
		if _, dup := byID[l.ID]; dup {
			continue
		}
		if t, ok := utils.NormalizeHousingType(string(l.HousingType)); ok {
			l.HousingType = t
		} else {
			l.HousingType = model.HousingUnknown
		}
		byID[l.ID] = len(pool)
		pool = append(pool, l)
	}

	s.mu.Lock()
	s.listings = pool
	s.byID = byID
	s.loadedAt = time.Now()
	s.mu.Unlock()

	return len(pool)
}
