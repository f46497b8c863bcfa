package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeAckWindow = 2 * time.Second

// link is one physical connection. All writes go through its mutex.
type link struct {
	conn *websocket.Conn
	mu   sync.Mutex
	done chan struct{}
	once sync.Once
}

func newLink(conn *websocket.Conn) *link {
	return &link{conn: conn, done: make(chan struct{})}
}

// write sets a write deadline and writes a message.
func (l *link) write(mt int, payload []byte, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(timeout))
	return l.conn.WriteMessage(mt, payload)
}

func (l *link) ping(timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// writeClose sends a close control frame with the given code and reason.
func (l *link) writeClose(code int, reason string, timeout time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wait := closeAckWindow
	if timeout < wait {
		wait = timeout
	}
	_ = l.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wait),
	)
}

// close is idempotent and releases both the socket and anyone waiting on done.
func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}
