package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/jwt"
	"driver-link/internal/general/logger"

	"github.com/gorilla/websocket"
)

var (
	ErrAuth         = errors.New("session: authentication failed")
	ErrTransport    = errors.New("session: transport failure")
	ErrNotConnected = errors.New("session: not connected")
)

const (
	defaultReconnectDelay   = 5 * time.Second
	defaultPingInterval     = 20 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultHandshakeTimeout = 30 * time.Second
	defaultEventBuffer      = 64
	maxFrameBytes           = 1 << 20 // 1 MiB
)

// State of the single logical connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// Options configures a Session. Zero durations take the defaults.
type Options struct {
	URL              string
	ReconnectDelay   time.Duration
	PingInterval     time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	EventBuffer      int
	Dialer           *websocket.Dialer
}

func (o *Options) applyDefaults() {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = defaultReconnectDelay
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
		}
	}
}

// Session owns one logical authenticated connection to dispatch and keeps it alive until Disconnect.
type Session struct {
	opts   Options
	logger *logger.Logger
	logCtx context.Context
	events chan Event

	mu              sync.Mutex
	state           State
	token           string
	link            *link
	gen             uint64 // bumped on every dial and Disconnect; stale goroutines compare against it
	shouldReconnect bool
	reconnectTimer  *time.Timer
	lastErr         error
}

// NewSession creates a disconnected session.
func NewSession(opts Options, log *logger.Logger) *Session {
	opts.applyDefaults()
	if log == nil {
		log = logger.Discard()
	}
	return &Session{
		opts:   opts,
		logger: log,
		logCtx: context.Background(),
		events: make(chan Event, opts.EventBuffer),
	}
}

// Events is the single outbound stream of connection events and inbound frames.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// ShouldReconnect reports whether a dropped connection will be redialed.
func (s *Session) ShouldReconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldReconnect
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Connect dials dispatch with token as bearer credential.
// An empty or expired token fails with ErrAuth before any dial.
// Connecting while already connected re-signals EventConnected and keeps the current connection.
// A failed first dial still arms the reconnect timer; the returned error only reports that attempt.
func (s *Session) Connect(ctx context.Context, token string) error {
	if err := jwt.CheckUsable(token, time.Now()); err != nil {
		authErr := fmt.Errorf("%w: %v", ErrAuth, err)
		s.mu.Lock()
		s.lastErr = authErr
		s.mu.Unlock()
		s.logger.Warn(s.logCtx, "ws_auth_rejected", "Session token rejected before dialing", err, nil)
		s.signal(Event{Kind: EventAuthError, Err: authErr})
		return authErr
	}

	s.mu.Lock()
	switch s.state {
	case StateConnected:
		s.mu.Unlock()
		s.signal(Event{Kind: EventConnected})
		return nil
	case StateConnecting:
		s.mu.Unlock()
		return nil
	}
	s.token = token
	s.shouldReconnect = true
	s.stopTimerLocked()
	s.state = StateConnecting
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	return s.dial(ctx, gen, token)
}

// Disconnect closes the connection with a normal-closure frame and stops reconnecting. Safe to call repeatedly.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.shouldReconnect = false
	s.stopTimerLocked()
	s.gen++
	l := s.link
	s.link = nil
	was := s.state
	s.state = StateDisconnected
	s.mu.Unlock()

	if l != nil {
		l.writeClose(websocket.CloseNormalClosure, "bye", s.opts.WriteTimeout)
		l.close()
	}
	if was != StateDisconnected {
		s.logger.Info(s.logCtx, "ws_disconnected", "Session closed by client", nil)
		s.signal(Event{Kind: EventClosed})
	}
}

// Send writes frame if connected. Otherwise the frame is dropped and ErrNotConnected returned.
func (s *Session) Send(frame contracts.Frame) error {
	s.mu.Lock()
	l, state := s.link, s.state
	s.mu.Unlock()

	if state != StateConnected || l == nil {
		s.logger.Debug(s.logCtx, "ws_send_dropped", "Frame dropped while not connected", map[string]any{
			"type":  frame.Type,
			"state": state.String(),
		})
		return ErrNotConnected
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if err := l.write(websocket.TextMessage, payload, s.opts.WriteTimeout); err != nil {
		// unblock the reader so the drop is handled in one place
		l.close()
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// SendLocation validates sample and sends it as a LOCATION frame. Invalid samples never reach the wire.
func (s *Session) SendLocation(sample geo.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now()
	}
	frame, err := contracts.NewFrame(contracts.MessageLocation,
		contracts.NewLocationPayload(sample.Latitude, sample.Longitude, sample.CapturedAt))
	if err != nil {
		return err
	}
	return s.Send(frame)
}

// --- internals ---

func (s *Session) dial(ctx context.Context, gen uint64, token string) error {
	header := http.Header{}
	header.Set("Authorization", jwt.BearerHeader(token))

	dialCtx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()

	conn, resp, err := s.opts.Dialer.DialContext(dialCtx, s.opts.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return s.authFailed(gen, fmt.Errorf("%w: handshake status %d", ErrAuth, resp.StatusCode))
		}
		return s.transportFailed(gen, fmt.Errorf("%w: dial: %v", ErrTransport, err))
	}

	s.mu.Lock()
	if s.gen != gen || !s.shouldReconnect {
		// Disconnect raced the dial
		s.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("%w: disconnected while connecting", ErrNotConnected)
	}
	l := newLink(conn)
	s.link = l
	s.state = StateConnected
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info(s.logCtx, "ws_connected", "Dispatch session connected", map[string]any{"url": s.opts.URL})
	s.signal(Event{Kind: EventConnected})

	go s.pingLoop(l)
	go s.readLoop(l, gen)
	return nil
}

func (s *Session) authFailed(gen uint64, err error) error {
	s.mu.Lock()
	if s.gen == gen {
		s.state = StateDisconnected
		s.shouldReconnect = false
		s.stopTimerLocked()
	}
	s.lastErr = err
	s.mu.Unlock()

	s.logger.Error(s.logCtx, "ws_auth_failed", "Dispatch rejected the session token", err, nil)
	s.signal(Event{Kind: EventAuthError, Err: err})
	return err
}

func (s *Session) transportFailed(gen uint64, err error) error {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return err
	}
	s.state = StateDisconnected
	s.lastErr = err
	if s.shouldReconnect {
		s.scheduleReconnectLocked()
	}
	s.mu.Unlock()

	s.logger.Warn(s.logCtx, "ws_dial_failed", "Failed to reach dispatch", err, map[string]any{
		"retry_in": s.opts.ReconnectDelay.String(),
	})
	s.signal(Event{Kind: EventTransportError, Err: err})
	return err
}

func (s *Session) readLoop(l *link, gen uint64) {
	pongWait := 3 * s.opts.PingInterval
	l.conn.SetReadLimit(maxFrameBytes)
	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := l.conn.ReadMessage()
		if err != nil {
			s.dropped(l, gen, err)
			return
		}
		_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case s.events <- Event{Kind: EventFrame, Data: payload}:
		case <-l.done:
			return
		}
	}
}

func (s *Session) pingLoop(l *link) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.ping(s.opts.WriteTimeout); err != nil {
				// close socket to unblock reader; it reports the drop
				l.close()
				return
			}
		case <-l.done:
			return
		}
	}
}

// dropped handles the end of a read loop. Only a normal closure from the peer stops reconnecting.
func (s *Session) dropped(l *link, gen uint64, cause error) {
	l.close()

	s.mu.Lock()
	if s.gen != gen || s.link != l {
		s.mu.Unlock()
		return
	}
	s.link = nil
	s.state = StateDisconnected

	if websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
		s.shouldReconnect = false
		s.lastErr = nil
		s.mu.Unlock()
		s.logger.Info(s.logCtx, "ws_connection_closed", "Dispatch closed the session normally", nil)
		s.signal(Event{Kind: EventClosed})
		return
	}

	err := fmt.Errorf("%w: %v", ErrTransport, cause)
	s.lastErr = err
	if s.shouldReconnect {
		s.scheduleReconnectLocked()
	}
	s.mu.Unlock()

	s.logger.Warn(s.logCtx, "ws_unexpected_close", "Dispatch connection dropped", err, map[string]any{
		"retry_in": s.opts.ReconnectDelay.String(),
	})
	s.signal(Event{Kind: EventTransportError, Err: err})
}

// scheduleReconnectLocked arms the single reconnect timer. Caller holds s.mu.
func (s *Session) scheduleReconnectLocked() {
	if s.reconnectTimer != nil {
		return
	}
	s.reconnectTimer = time.AfterFunc(s.opts.ReconnectDelay, s.reconnect)
}

func (s *Session) stopTimerLocked() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

func (s *Session) reconnect() {
	s.mu.Lock()
	s.reconnectTimer = nil
	if !s.shouldReconnect || s.state != StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.gen++
	gen, token := s.gen, s.token
	s.mu.Unlock()

	s.logger.Info(s.logCtx, "ws_reconnecting", "Reconnecting to dispatch", nil)
	_ = s.dial(context.Background(), gen, token)
}

// signal delivers a connection event without blocking the caller. Frames use the blocking path in readLoop.
func (s *Session) signal(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn(s.logCtx, "ws_event_dropped", "Event buffer full, connection event dropped", ev.Err, map[string]any{
			"kind": ev.Kind.String(),
		})
	}
}
