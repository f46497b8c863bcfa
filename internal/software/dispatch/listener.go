package dispatch

import (
	"context"
	"errors"
	"sync"

	"driver-link/internal/general/contracts"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/websocket"
)

const defaultSubscriptionBuffer = 16

// Listener is the single consumer of a session's event stream.
// It decodes frames, fans messages out to subscribers and runs the connection hooks,
// all on the goroutine that calls Run.
type Listener struct {
	events <-chan websocket.Event
	logger *logger.Logger
	logCtx context.Context

	mu   sync.Mutex
	subs map[*Subscription]struct{}

	onConnected       func()
	onConnectionError func(error)
	onAuthError       func(error)
}

// Subscription receives every decoded message except Unknown ones.
type Subscription struct {
	C <-chan contracts.DispatchMessage

	ch       chan contracts.DispatchMessage
	done     chan struct{}
	once     sync.Once
	listener *Listener
}

func NewListener(events <-chan websocket.Event, log *logger.Logger) *Listener {
	if log == nil {
		log = logger.Discard()
	}
	return &Listener{
		events: events,
		logger: log,
		logCtx: context.Background(),
		subs:   make(map[*Subscription]struct{}),
	}
}

// OnConnected sets the hook run after each successful (re)connect. Set hooks before Run.
func (l *Listener) OnConnected(fn func()) { l.onConnected = fn }

// OnConnectionError sets the hook run on transport failures.
func (l *Listener) OnConnectionError(fn func(error)) { l.onConnectionError = fn }

// OnAuthError sets the hook run when dispatch rejects the token.
func (l *Listener) OnAuthError(fn func(error)) { l.onAuthError = fn }

// Subscribe registers a new subscriber with its own buffered channel.
func (l *Listener) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	ch := make(chan contracts.DispatchMessage, buffer)
	sub := &Subscription{C: ch, ch: ch, done: make(chan struct{}), listener: l}

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()
	return sub
}

// Close unregisters the subscription. C is not closed; pending sends are abandoned.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.listener.mu.Lock()
		delete(s.listener.subs, s)
		s.listener.mu.Unlock()
		close(s.done)
	})
}

// Run consumes events until ctx is done or the event channel is closed.
func (l *Listener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-l.events:
			if !ok {
				return nil
			}
			l.handle(ctx, ev)
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev websocket.Event) {
	switch ev.Kind {
	case websocket.EventConnected:
		if l.onConnected != nil {
			l.onConnected()
		}
	case websocket.EventTransportError:
		if l.onConnectionError != nil {
			l.onConnectionError(ev.Err)
		}
	case websocket.EventAuthError:
		if l.onAuthError != nil {
			l.onAuthError(ev.Err)
		}
	case websocket.EventClosed:
		l.logger.Debug(l.logCtx, "dispatch_closed", "Session closed", nil)
	case websocket.EventFrame:
		l.handleFrame(ctx, ev.Data)
	}
}

func (l *Listener) handleFrame(ctx context.Context, data []byte) {
	msg, err := Decode(data)
	if errors.Is(err, ErrProtocol) {
		l.logger.Warn(l.logCtx, "dispatch_protocol_error", "Malformed frame from dispatch", err, map[string]any{
			"size": len(data),
		})
	}

	if u, ok := msg.(contracts.Unknown); ok {
		l.logger.Info(l.logCtx, "dispatch_unknown_type", "Ignoring frame of unknown type", map[string]any{
			"type": u.RawType,
		})
		return
	}
	if o, ok := msg.(contracts.NewOrder); ok {
		l.logger.Info(l.logger.WithOrderID(l.logCtx, o.OrderID), "dispatch_new_order", "New order offered", nil)
	}

	l.publish(ctx, msg)
}

// publish delivers msg to every subscriber, waiting for room in each buffer.
func (l *Listener) publish(ctx context.Context, msg contracts.DispatchMessage) {
	l.mu.Lock()
	subs := make([]*Subscription, 0, len(l.subs))
	for s := range l.subs {
		subs = append(subs, s)
	}
	l.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			return
		}
	}
}
