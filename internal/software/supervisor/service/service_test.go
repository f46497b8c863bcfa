package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/position"
	"driver-link/internal/general/statestore"
	"driver-link/internal/general/websocket"
	"driver-link/internal/ports"
)

type fakeSession struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	connected   bool
	connectErr  error
	tokens      []string
}

func (f *fakeSession) Connect(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.tokens = append(f.tokens, token)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeSession) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.connected = false
}

func (f *fakeSession) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSession) State() websocket.State {
	if f.IsConnected() {
		return websocket.StateConnected
	}
	return websocket.StateDisconnected
}

func (f *fakeSession) LastError() error { return nil }

func (f *fakeSession) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}

type fakeTelemetry struct {
	mu      sync.Mutex
	starts  int
	running bool

	// when set, Start signals entered and blocks until gate is closed
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeTelemetry) Start(time.Duration, ports.LocationProvider) {
	if f.gate != nil {
		close(f.entered)
		<-f.gate
	}
	f.mu.Lock()
	f.starts++
	f.running = true
	f.mu.Unlock()
}

func (f *fakeTelemetry) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *fakeTelemetry) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fakeIndicator struct {
	mu      sync.Mutex
	shown   int
	cleared int
	last    ports.StatusReport
}

func (f *fakeIndicator) Show(r ports.StatusReport) error {
	f.mu.Lock()
	f.shown++
	f.last = r
	f.mu.Unlock()
	return nil
}

func (f *fakeIndicator) Clear() error {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
	return nil
}

type fakeLauncher struct {
	mu      sync.Mutex
	delays  []time.Duration
	reasons []string
}

func (f *fakeLauncher) ScheduleWake(_ context.Context, d time.Duration, reason string) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.reasons = append(f.reasons, reason)
	f.mu.Unlock()
	return nil
}

type fixture struct {
	sup       *Supervisor
	store     *statestore.Store
	session   *fakeSession
	telemetry *fakeTelemetry
	indicator *fakeIndicator
	launcher  *fakeLauncher
}

const bootID = "boot-a"

func newFixture(t *testing.T, online bool, marker string) fixture {
	t.Helper()
	ctx := context.Background()
	store := statestore.New(statestore.NewMemory())
	if err := store.SetOnline(ctx, online); err != nil {
		t.Fatal(err)
	}
	if err := store.SetSessionToken(ctx, "token-1"); err != nil {
		t.Fatal(err)
	}
	if marker != "" {
		if err := store.SetCleanShutdownMarker(ctx, marker); err != nil {
			t.Fatal(err)
		}
	}

	f := fixture{
		store:     store,
		session:   &fakeSession{},
		telemetry: &fakeTelemetry{},
		indicator: &fakeIndicator{},
		launcher:  &fakeLauncher{},
	}
	f.sup = NewSupervisor(nil, store, f.session, f.telemetry, position.NewManual(0), f.indicator, f.launcher, nil,
		Options{BootID: bootID, TelemetryInterval: time.Second, DismissWakeDelay: 2 * time.Second})
	return f
}

func TestResumeHappensExactlyOnce(t *testing.T) {
	f := newFixture(t, true, "")
	ctx := context.Background()

	resumed, err := f.sup.Start(ctx, ReasonWake)
	if err != nil || !resumed {
		t.Fatalf("Start = %v, %v", resumed, err)
	}
	// a second trigger in the same process and a repeated GoOnline must not open another session
	if resumed, err := f.sup.Start(ctx, ReasonWatchdog); err != nil || !resumed {
		t.Fatalf("second Start = %v, %v", resumed, err)
	}
	if err := f.sup.GoOnline(ctx); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}

	f.sup.OnConnected()
	f.sup.OnConnected()

	connects, _ := f.session.counts()
	if connects != 1 {
		t.Fatalf("expected one connect, got %d", connects)
	}
	if !f.telemetry.Running() {
		t.Fatal("telemetry should run after connect")
	}
	if online, _ := f.store.IsOnline(ctx); !online {
		t.Fatal("online flag should stay set")
	}
	if f.indicator.shown == 0 || f.indicator.last.State != "ONLINE" {
		t.Fatalf("indicator not shown: %+v", f.indicator.last)
	}
}

func TestManualColdStartResetsOnlineFlag(t *testing.T) {
	f := newFixture(t, true, "")
	ctx := context.Background()

	resumed, err := f.sup.Start(ctx, ReasonManual)
	if err != nil || resumed {
		t.Fatalf("Start = %v, %v", resumed, err)
	}
	if online, _ := f.store.IsOnline(ctx); online {
		t.Fatal("cold start must clear the online flag")
	}
	if connects, _ := f.session.counts(); connects != 0 {
		t.Fatalf("no session expected, got %d connects", connects)
	}
}

func TestManualStartAfterCleanShutdownResumes(t *testing.T) {
	f := newFixture(t, true, bootID)
	ctx := context.Background()

	resumed, err := f.sup.Start(ctx, ReasonManual)
	if err != nil || !resumed {
		t.Fatalf("Start = %v, %v", resumed, err)
	}
	if marker, _ := f.store.CleanShutdownMarker(ctx); marker != "" {
		t.Fatalf("marker should be consumed, got %q", marker)
	}
}

func TestMarkerFromAnotherBootDoesNotCount(t *testing.T) {
	f := newFixture(t, true, "boot-old")
	if resumed, _ := f.sup.Start(context.Background(), ReasonManual); resumed {
		t.Fatal("marker from a previous boot must not resume")
	}
}

func TestOfflineStartAllocatesNothing(t *testing.T) {
	f := newFixture(t, false, "")

	resumed, err := f.sup.Start(context.Background(), ReasonBoot)
	if err != nil || resumed {
		t.Fatalf("Start = %v, %v", resumed, err)
	}
	if connects, _ := f.session.counts(); connects != 0 {
		t.Fatalf("unexpected connect")
	}
	if f.telemetry.starts != 0 || f.indicator.shown != 0 {
		t.Fatal("no resources expected while offline")
	}
}

func TestGoOfflineIsIdempotent(t *testing.T) {
	f := newFixture(t, false, "")
	ctx := context.Background()

	if err := f.sup.GoOnline(ctx); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}
	f.sup.OnConnected()

	for i := 0; i < 2; i++ {
		if err := f.sup.GoOffline(ctx); err != nil {
			t.Fatalf("GoOffline: %v", err)
		}
	}
	if online, _ := f.store.IsOnline(ctx); online {
		t.Fatal("online flag should be cleared")
	}
	if f.telemetry.Running() || f.session.IsConnected() || f.sup.Online() {
		t.Fatal("resources still held after going offline")
	}
	if err := f.sup.UpdatePosition(fixAt(1, 1)); !errors.Is(err, position.ErrNotAcquired) {
		t.Fatalf("position source should be released, got %v", err)
	}

	// late connect events after going offline are ignored
	f.sup.OnConnected()
	if f.telemetry.Running() {
		t.Fatal("telemetry started while offline")
	}
}

func TestGoOfflineDuringConnectStopsTelemetry(t *testing.T) {
	f := newFixture(t, false, "")
	ctx := context.Background()

	if err := f.sup.GoOnline(ctx); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}
	f.telemetry.entered = make(chan struct{})
	f.telemetry.gate = make(chan struct{})

	connected := make(chan struct{})
	go func() {
		f.sup.OnConnected()
		close(connected)
	}()
	<-f.telemetry.entered

	offline := make(chan error, 1)
	go func() { offline <- f.sup.GoOffline(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(f.telemetry.gate)

	<-connected
	if err := <-offline; err != nil {
		t.Fatalf("GoOffline: %v", err)
	}
	if f.telemetry.Running() {
		t.Fatal("telemetry left running after going offline")
	}
	if f.sup.Status().Telemetry {
		t.Fatal("status reports telemetry while offline")
	}
}

func TestAuthErrorWaitsForNewToken(t *testing.T) {
	f := newFixture(t, false, "")
	ctx := context.Background()
	f.session.connectErr = websocket.ErrAuth

	if err := f.sup.GoOnline(ctx); !errors.Is(err, websocket.ErrAuth) {
		t.Fatalf("GoOnline: %v", err)
	}
	if f.sup.Status().LastAuthError == "" {
		t.Fatal("auth error should be reported")
	}

	f.session.mu.Lock()
	f.session.connectErr = nil
	f.session.mu.Unlock()

	if err := f.sup.UpdateToken(ctx, "token-2"); err != nil {
		t.Fatalf("UpdateToken: %v", err)
	}
	if tok, _ := f.store.SessionToken(ctx); tok != "token-2" {
		t.Fatalf("token = %q", tok)
	}
	f.session.mu.Lock()
	last := f.session.tokens[len(f.session.tokens)-1]
	f.session.mu.Unlock()
	if last != "token-2" || !f.session.IsConnected() {
		t.Fatalf("expected reconnect with the new token, got %q", last)
	}
	if f.sup.Status().LastAuthError != "" {
		t.Fatal("auth error should clear after a new token")
	}
}

func TestShutdownWhileOnline(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, false, "")
	if err := f.sup.GoOnline(ctx); err != nil {
		t.Fatal(err)
	}
	f.sup.Shutdown(ctx, ShutdownDismissed)

	if online, _ := f.store.IsOnline(ctx); !online {
		t.Fatal("shutdown must keep the online flag")
	}
	if marker, _ := f.store.CleanShutdownMarker(ctx); marker != bootID {
		t.Fatalf("marker = %q", marker)
	}
	if len(f.launcher.reasons) != 1 || f.launcher.delays[0] != 2*time.Second {
		t.Fatalf("wake not scheduled: %v %v", f.launcher.reasons, f.launcher.delays)
	}
	if _, disconnects := f.session.counts(); disconnects == 0 {
		t.Fatal("session should be closed")
	}

	stopped := newFixture(t, false, "")
	if err := stopped.sup.GoOnline(ctx); err != nil {
		t.Fatal(err)
	}
	stopped.sup.Shutdown(ctx, ShutdownStop)
	if len(stopped.launcher.reasons) != 0 {
		t.Fatal("operator stop must not schedule a wake")
	}
	if marker, _ := stopped.store.CleanShutdownMarker(ctx); marker != bootID {
		t.Fatalf("marker = %q", marker)
	}
}

func TestShutdownWhileOfflineLeavesNoMarker(t *testing.T) {
	f := newFixture(t, false, "")
	f.sup.Shutdown(context.Background(), ShutdownDismissed)

	if marker, _ := f.store.CleanShutdownMarker(context.Background()); marker != "" {
		t.Fatalf("marker = %q", marker)
	}
	if len(f.launcher.reasons) != 0 {
		t.Fatal("no wake expected while offline")
	}
}

func fixAt(lat, lng float64) geo.Sample {
	return geo.Sample{Latitude: lat, Longitude: lng, CapturedAt: time.Now()}
}
