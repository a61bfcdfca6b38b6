package transport

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket binds the client to a host reachable over a websocket. The
// connection owns a write pump so sends never interleave, and a read
// loop that feeds the bound handler in arrival order.
type WebSocket struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	handler func([]byte)
	closed  bool
}

const sendBuffer = 64

// DialWebSocket connects to url and starts the read/write pumps. A nil
// logger falls back to slog.Default().
func DialWebSocket(url string, logger *slog.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	w := &WebSocket{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.writePump()
	go w.readPump()
	return w, nil
}

// Send queues data for the write pump.
func (w *WebSocket) Send(data []byte) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}

	select {
	case w.send <- data:
		return nil
	case <-w.done:
		return ErrClosed
	}
}

// Bind attaches the inbound handler.
func (w *WebSocket) Bind(handler func(data []byte)) (func(), error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.handler != nil {
		return nil, ErrAlreadyBound
	}
	w.handler = handler

	return func() {
		w.mu.Lock()
		w.handler = nil
		w.mu.Unlock()
	}, nil
}

// Close tears the connection down. Idempotent.
func (w *WebSocket) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.handler = nil
	w.mu.Unlock()

	close(w.done)
	if err := w.conn.Close(); err != nil {
		w.logger.Warn("websocket close failed", slog.String("error", err.Error()))
	}
}

func (w *WebSocket) writePump() {
	for {
		select {
		case data := <-w.send:
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				w.logger.Warn("websocket write failed", slog.String("error", err.Error()))
				w.Close()
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *WebSocket) readPump() {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				w.logger.Warn("websocket read failed", slog.String("error", err.Error()))
				w.Close()
			}
			return
		}

		w.mu.Lock()
		handler := w.handler
		w.mu.Unlock()

		if handler != nil {
			handler(data)
		}
	}
}
