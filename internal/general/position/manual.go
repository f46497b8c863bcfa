package position

import (
	"errors"
	"sync"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/ports"
)

var ErrNotAcquired = errors.New("position: source not acquired")

// Manual holds the latest fix pushed from outside (control API, a GPS bridge).
// Fixes are only accepted between Acquire and Release.
type Manual struct {
	mu       sync.RWMutex
	acquired bool
	latest   geo.Sample
	has      bool
	maxAge   time.Duration
	now      func() time.Time
}

// NewManual creates a source. Fixes older than maxAge are reported as absent; zero keeps them forever.
func NewManual(maxAge time.Duration) *Manual {
	return &Manual{maxAge: maxAge, now: time.Now}
}

// Acquire starts accepting fixes and returns the source as a provider.
func (m *Manual) Acquire() (ports.LocationProvider, error) {
	m.mu.Lock()
	m.acquired = true
	m.mu.Unlock()
	return m, nil
}

// Release stops accepting fixes and forgets the last one.
func (m *Manual) Release() {
	m.mu.Lock()
	m.acquired = false
	m.has = false
	m.latest = geo.Sample{}
	m.mu.Unlock()
}

// Update records a validated fix.
func (m *Manual) Update(sample geo.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.acquired {
		return ErrNotAcquired
	}
	m.latest = sample
	m.has = true
	return nil
}

// Latest returns the newest fix, if any. It never waits.
func (m *Manual) Latest() (geo.Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.has {
		return geo.Sample{}, false
	}
	if m.maxAge > 0 && m.now().Sub(m.latest.CapturedAt) > m.maxAge {
		return geo.Sample{}, false
	}
	return m.latest, true
}
