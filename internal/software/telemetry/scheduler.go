package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/logger"
	"driver-link/internal/ports"
)

const DefaultInterval = 30 * time.Second

// Sender is the part of the dispatch session the scheduler needs.
type Sender interface {
	IsConnected() bool
	SendLocation(sample geo.Sample) error
}

// Scheduler sends the latest position on a fixed interval while the sender is connected.
type Scheduler struct {
	sender Sender
	logger *logger.Logger
	logCtx context.Context

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewScheduler(sender Sender, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{sender: sender, logger: log, logCtx: context.Background()}
}

// Start begins periodic sampling. A running schedule is replaced. interval <= 0 means DefaultInterval.
func (s *Scheduler) Start(interval time.Duration, provider ports.LocationProvider) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	stop := make(chan struct{})
	s.stop = stop
	s.wg.Add(1)
	go s.loop(interval, provider, stop)

	s.logger.Debug(s.logCtx, "telemetry_started", "Location reporting started", map[string]any{
		"interval": interval.String(),
	})
}

// Stop ends sampling. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopLocked() {
		s.logger.Debug(s.logCtx, "telemetry_stopped", "Location reporting stopped", nil)
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// stopLocked signals the loop and waits for it. Caller holds s.mu.
func (s *Scheduler) stopLocked() bool {
	if s.stop == nil {
		return false
	}
	close(s.stop)
	s.stop = nil
	s.wg.Wait()
	return true
}

func (s *Scheduler) loop(interval time.Duration, provider ports.LocationProvider, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(provider)
		}
	}
}

// tick sends one sample if connected and a fix is at hand. It never waits for a fix.
func (s *Scheduler) tick(provider ports.LocationProvider) {
	if !s.sender.IsConnected() || provider == nil {
		return
	}
	sample, ok := provider.Latest()
	if !ok {
		s.logger.Debug(s.logCtx, "telemetry_no_fix", "No position available, skipping tick", nil)
		return
	}
	if err := s.sender.SendLocation(sample); err != nil {
		if errors.Is(err, geo.ErrInvalidLatitude) || errors.Is(err, geo.ErrInvalidLongitude) {
			s.logger.Warn(s.logCtx, "telemetry_invalid_sample", "Position out of range, not sent", err, nil)
			return
		}
		s.logger.Debug(s.logCtx, "telemetry_send_failed", "Location not sent", map[string]any{"error": err.Error()})
	}
}
