// Package transport defines the injected send/receive capability the
// client is bound to, plus two concrete bindings: an in-memory pipe
// for tests and co-located hosts, and a websocket binding.
//
// The client never resolves a transport from ambient state (a parent
// frame, a global object); one must be supplied explicitly at
// construction.
package transport

import (
	"errors"
	"sync"
)

// Transport is a fire-and-forget message channel. Send failures are
// reported synchronously; delivery is never guaranteed. Bind attaches
// the single inbound handler and returns a detach function. Inbound
// messages must be delivered to the handler in arrival order.
type Transport interface {
	Send(data []byte) error
	Bind(handler func(data []byte)) (unbind func(), err error)
}

// Errors shared by the bundled transports.
var (
	ErrClosed       = errors.New("transport closed")
	ErrAlreadyBound = errors.New("transport already bound")
	ErrNilHandler   = errors.New("nil inbound handler")
)

// Pipe is an in-memory transport linked to a peer. A send on one end
// is delivered synchronously to the handler bound on the other end,
// preserving send order. Messages sent while the peer is unbound are
// dropped, matching the fire-and-forget channel contract.
type Pipe struct {
	mu      sync.Mutex
	peer    *Pipe
	handler func([]byte)
	closed  bool
}

// NewPipe creates a linked pair of pipe ends.
func NewPipe() (*Pipe, *Pipe) {
	a := &Pipe{}
	b := &Pipe{}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers data to the peer's bound handler.
func (p *Pipe) Send(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	peer := p.peer
	p.mu.Unlock()

	peer.mu.Lock()
	handler := peer.handler
	closed := peer.closed
	peer.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if handler != nil {
		handler(data)
	}
	return nil
}

// Bind attaches the inbound handler for this end.
func (p *Pipe) Bind(handler func(data []byte)) (func(), error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.handler != nil {
		return nil, ErrAlreadyBound
	}
	p.handler = handler

	return func() {
		p.mu.Lock()
		p.handler = nil
		p.mu.Unlock()
	}, nil
}

// Close marks this end closed. Subsequent sends from either end fail
// with ErrClosed.
func (p *Pipe) Close() {
	p.mu.Lock()
	p.closed = true
	p.handler = nil
	p.mu.Unlock()
}
