package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no fix young enough is available.
	ErrNotFound = errors.New("no position fix available")
)

// Fix is a device position obtained at a point in time.
type Fix struct {
	Coordinate weather.Coordinate
	ObtainedAt time.Time
}

// FixStore is a concurrency-safe in-memory history of position fixes.
type FixStore struct {
	mu sync.RWMutex

	fixes []Fix

	// retention configuration
	maxHistory int // max number of fixes kept
}

// NewFixStore creates a new FixStore. If maxHistory is <= 0, it is treated as 1.
func NewFixStore(maxHistory int) *FixStore {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &FixStore{maxHistory: maxHistory}
}

// Save appends a new fix and enforces retention.
func (s *FixStore) Save(fix Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fixes = append(s.fixes, fix)

	// Enforce retention by count.
	if len(s.fixes) > s.maxHistory {
		over := len(s.fixes) - s.maxHistory
		s.fixes = s.fixes[over:]
	}
}

// Latest returns the most recent fix if it is at most maxAge old at now.
func (s *FixStore) Latest(maxAge time.Duration, now time.Time) (Fix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.fixes) == 0 {
		return Fix{}, ErrNotFound
	}
	latest := s.fixes[len(s.fixes)-1]
	if now.Sub(latest.ObtainedAt) > maxAge {
		return Fix{}, ErrNotFound
	}
	return latest, nil
}
