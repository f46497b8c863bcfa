package telemetry

import (
	"sync"
	"testing"
	"time"

	"driver-link/internal/domain/geo"
)

type fakeSender struct {
	mu        sync.Mutex
	connected bool
	sent      []geo.Sample
}

func (f *fakeSender) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSender) SendLocation(s geo.Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeSender) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixedProvider struct {
	sample geo.Sample
	ok     bool
}

func (p fixedProvider) Latest() (geo.Sample, bool) { return p.sample, p.ok }

func fix(lat, lng float64) geo.Sample {
	return geo.Sample{Latitude: lat, Longitude: lng, CapturedAt: time.Now()}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSchedulerSendsWhileConnected(t *testing.T) {
	sender := &fakeSender{connected: true}
	s := NewScheduler(sender, nil)
	s.Start(10*time.Millisecond, fixedProvider{sample: fix(12.97, 77.59), ok: true})
	defer s.Stop()

	waitFor(t, func() bool { return sender.count() >= 2 })
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if got := sender.sent[0]; got.Latitude != 12.97 || got.Longitude != 77.59 {
		t.Fatalf("unexpected sample %+v", got)
	}
}

func TestSchedulerSkipsWhenDisconnectedOrNoFix(t *testing.T) {
	sender := &fakeSender{}
	s := NewScheduler(sender, nil)

	s.Start(5*time.Millisecond, fixedProvider{sample: fix(1, 1), ok: true})
	time.Sleep(40 * time.Millisecond)
	s.Stop()
	if n := sender.count(); n != 0 {
		t.Fatalf("sent %d samples while disconnected", n)
	}

	sender.setConnected(true)
	s.Start(5*time.Millisecond, fixedProvider{})
	time.Sleep(40 * time.Millisecond)
	s.Stop()
	if n := sender.count(); n != 0 {
		t.Fatalf("sent %d samples without a fix", n)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	sender := &fakeSender{connected: true}
	s := NewScheduler(sender, nil)

	s.Stop()
	s.Start(5*time.Millisecond, fixedProvider{sample: fix(1, 1), ok: true})
	if !s.Running() {
		t.Fatal("expected running after Start")
	}
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped")
	}

	n := sender.count()
	time.Sleep(30 * time.Millisecond)
	if sender.count() != n {
		t.Fatal("samples sent after Stop")
	}
}

func TestSchedulerStartReplacesTimer(t *testing.T) {
	sender := &fakeSender{connected: true}
	s := NewScheduler(sender, nil)
	defer s.Stop()

	s.Start(time.Hour, fixedProvider{sample: fix(1, 1), ok: true})
	s.Start(5*time.Millisecond, fixedProvider{sample: fix(2, 2), ok: true})

	waitFor(t, func() bool { return sender.count() >= 1 })
	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, got := range sender.sent {
		if got.Latitude != 2 {
			t.Fatalf("sample from replaced schedule: %+v", got)
		}
	}
}
