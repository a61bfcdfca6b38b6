package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	hberrors "github.com/randalmurphal/hostbridge/pkg/hostbridge/errors"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/event"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/journal"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/observability"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/transport"
)

// ErrNoTransport is returned by New when no transport is supplied.
var ErrNoTransport = errors.New("transport is required")

// Client is the correlation engine binding a widget to its host frame.
// It owns message-id allocation, the pending-request table, the
// listener registry, and the implicit-correlation trackers. Instances
// are independent: nothing is shared across clients.
type Client struct {
	id        string
	logger    *slog.Logger
	debug     bool
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	journal   journal.Store
	transport transport.Transport
	registry  *event.Registry

	mu          sync.Mutex
	nextID      int64
	pending     map[int64]*Call
	lastOpenID  *int64
	lastDirtyID *int64
	closed      bool
	unbind      func()
}

// New constructs a client and binds its router to the transport's
// inbound delivery. Construction fails loudly when no transport is
// supplied or the binding cannot be established; the returned error
// leaves no attached instance behind.
func New(t transport.Transport, opts ...Option) (*Client, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	id := uuid.New().String()
	logger := observability.EnrichLogger(s.logger, id)

	metrics := observability.MetricsRecorder(observability.NoopMetrics{})
	if s.metrics {
		metrics = observability.NewMetricsRecorder()
	}
	spans := observability.SpanManager(observability.NoopSpanManager{})
	if s.tracing {
		spans = observability.NewSpanManager()
	}

	c := &Client{
		id:        id,
		logger:    logger,
		debug:     s.debug,
		metrics:   metrics,
		spans:     spans,
		journal:   s.journal,
		transport: t,
		registry:  event.NewRegistry(logger),
		pending:   make(map[int64]*Call),
	}
	c.registry.SetFailureHook(func(name string) {
		c.metrics.RecordListenerFailure(context.Background(), name)
	})

	if t == nil {
		logger.Error("no transport supplied; client cannot receive messages")
		return nil, ErrNoTransport
	}

	unbind, err := t.Bind(c.route)
	if err != nil {
		logger.Error("transport bind failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("bind transport: %w", err)
	}
	c.unbind = unbind

	if c.debug {
		observability.LogAttached(logger, id)
	}
	return c, nil
}

// ClientID returns the instance identity used in logs and journal rows.
func (c *Client) ClientID() string {
	return c.id
}

// Request sends a correlated request and blocks until the matching
// reply arrives, the client is torn down, or ctx is cancelled. The
// payload's name is preserved; any caller-supplied messageId is
// overwritten with a freshly allocated one.
//
// There is no timeout: a request with no matching reply stays pending
// until teardown.
func (c *Client) Request(ctx context.Context, msg message.Message) (message.Message, error) {
	return c.Start(msg).Await(ctx)
}

// Start sends a correlated request without blocking. The pending entry
// is registered before the transport send, so a reply arriving before
// Start returns still settles the call. A synchronous send failure
// removes the entry and rejects immediately.
func (c *Client) Start(msg message.Message) *Call {
	name := msg.Name()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		call := newCall(0, name)
		call.settle(nil, hberrors.Destroyed())
		return call
	}
	c.nextID++
	id := c.nextID
	out := msg.Clone()
	out.SetMessageID(id)
	call := newCall(id, name)
	c.pending[id] = call
	c.mu.Unlock()

	_, span := c.spans.StartRequestSpan(context.Background(), name, id)
	call.span = span
	c.metrics.RecordRequest(context.Background(), name)

	data, err := out.Encode()
	if err == nil {
		err = c.transport.Send(data)
	}
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		c.settle(call, nil, fmt.Errorf("send %q: %w", name, err))
		return call
	}

	c.journalMessage(journal.DirectionSent, out, data)
	if c.debug {
		observability.LogRequestSent(c.logger, name, id)
	}
	return call
}

// FireAndForget sends a message with no pending-request bookkeeping. A
// fresh messageId is stamped only when the payload specifies neither a
// messageId nor a correlationId of its own. Transport failures are
// logged and swallowed: there is no completion contract to break.
func (c *Client) FireAndForget(msg message.Message) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	out := msg.Clone()
	if _, hasID := out.MessageID(); !hasID {
		if _, hasCorr := out.CorrelationID(); !hasCorr {
			c.nextID++
			out.SetMessageID(c.nextID)
		}
	}
	c.mu.Unlock()

	data, err := out.Encode()
	if err == nil {
		err = c.transport.Send(data)
	}
	if err != nil {
		c.logger.Warn("fire-and-forget send failed",
			slog.String("name", out.Name()),
			slog.String("error", err.Error()),
		)
		return
	}

	c.journalMessage(journal.DirectionSent, out, data)
}

// Subscribe registers a listener for unsolicited messages with the
// given name and returns an unsubscribe capability.
func (c *Client) Subscribe(name string, cb event.Callback) *event.Subscription {
	return c.registry.Subscribe(name, cb)
}

// Unsubscribe removes the first registration of cb for the named event.
func (c *Client) Unsubscribe(name string, cb event.Callback) {
	c.registry.Unsubscribe(name, cb)
}

// Teardown irreversibly terminates the instance: every pending request
// is rejected with the SDKDestroyed rejection while the table is still
// populated, the listener registry is cleared, and the transport
// binding is detached. Safe to call more than once.
//
// Afterwards Request rejects immediately with SDKDestroyed, and
// FireAndForget and the reply helpers are no-ops.
func (c *Client) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	rejected := 0
	for _, call := range c.pending {
		c.settle(call, nil, hberrors.Destroyed())
		rejected++
	}
	c.pending = make(map[int64]*Call)
	c.lastOpenID = nil
	c.lastDirtyID = nil
	unbind := c.unbind
	c.unbind = nil
	c.mu.Unlock()

	c.registry.Clear()
	if unbind != nil {
		unbind()
	}
	if c.debug {
		observability.LogTeardown(c.logger, c.id, rejected)
	}
}

// PendingCount returns the number of unsettled requests.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ListenerCount returns the number of listeners registered for name.
func (c *Client) ListenerCount(name string) int {
	return c.registry.Len(name)
}

// Subscriptions returns all event names with at least one listener.
func (c *Client) Subscriptions() []string {
	return c.registry.Names()
}

// route handles one inbound raw message. Order matters: correlation
// settlement takes priority over event dispatch, so a reply that also
// carries a subscribed name is never dispatched as an event.
func (c *Client) route(raw []byte) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	msg, err := message.Decode(raw)
	if err != nil {
		if c.debug {
			observability.LogDropped(c.logger, err)
		}
		return
	}

	c.journalMessage(journal.DirectionReceived, msg, raw)

	if corrID, ok := msg.CorrelationID(); ok {
		c.mu.Lock()
		call, exists := c.pending[corrID]
		if exists {
			// Remove before settling so a re-entrant message carrying
			// the same correlation id finds no entry.
			delete(c.pending, corrID)
		}
		c.mu.Unlock()

		if exists {
			if msg.Name() == message.NameInvalidMessageError {
				c.settle(call, nil, hberrors.FromMessage(msg))
			} else {
				c.settle(call, msg, nil)
			}
			return
		}
	}

	if id, ok := msg.MessageID(); ok {
		switch msg.Name() {
		case message.NameOpenSDKEvent:
			c.mu.Lock()
			v := id
			c.lastOpenID = &v
			c.mu.Unlock()
		case message.NameDirtyStateChangedEvent:
			c.mu.Lock()
			v := id
			c.lastDirtyID = &v
			c.mu.Unlock()
		}
	}

	if name := msg.Name(); name != "" {
		listeners := c.registry.Len(name)
		c.registry.Dispatch(name, msg)
		c.metrics.RecordEventDispatch(context.Background(), name, listeners)
		if c.debug {
			observability.LogEventDispatched(c.logger, name, listeners)
		}
	}
}

// settle finalizes a call exactly once, recording metrics, the span,
// and a diagnostic log entry for the first settlement only.
func (c *Client) settle(call *Call, reply message.Message, err error) {
	if !call.settle(reply, err) {
		return
	}
	duration := time.Since(call.start)
	c.metrics.RecordSettlement(context.Background(), call.name, duration, err)
	c.spans.EndSpanWithError(call.span, err)
	if c.debug {
		observability.LogSettled(c.logger, call.id, float64(duration.Milliseconds()), err)
	}
}

func (c *Client) journalMessage(dir journal.Direction, msg message.Message, raw []byte) {
	if c.journal == nil {
		return
	}

	e := journal.Entry{
		ClientID:  c.id,
		Direction: dir,
		Name:      msg.Name(),
		Payload:   raw,
	}
	if id, ok := msg.MessageID(); ok {
		e.MessageID = &id
	}
	if corrID, ok := msg.CorrelationID(); ok {
		e.CorrelationID = &corrID
	}

	if err := c.journal.Append(e); err != nil {
		c.logger.Warn("journal append failed",
			slog.String("direction", string(dir)),
			slog.String("error", err.Error()),
		)
	}
}
