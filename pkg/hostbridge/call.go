package hostbridge

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

// Call is an in-flight correlated request. It settles at most once:
// either resolved with the matching inbound message, or rejected with
// a normalized error.
type Call struct {
	id    int64
	name  string
	start time.Time
	span  trace.Span

	once  sync.Once
	done  chan struct{}
	reply message.Message
	err   error
}

func newCall(id int64, name string) *Call {
	return &Call{
		id:    id,
		name:  name,
		start: time.Now(),
		done:  make(chan struct{}),
	}
}

// ID returns the messageId allocated for this request. Zero only for
// requests started after teardown, which never reach the wire.
func (c *Call) ID() int64 {
	return c.id
}

// Done returns a channel closed when the call settles.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Await blocks until the call settles or ctx is cancelled. Cancelling
// the context abandons the wait only; the pending entry survives until
// a correlated reply arrives or the client is torn down.
func (c *Call) Await(ctx context.Context) (message.Message, error) {
	select {
	case <-c.done:
		return c.reply, c.err
	default:
	}

	select {
	case <-c.done:
		return c.reply, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle records the outcome. Returns true only for the first
// settlement; later calls have no effect.
func (c *Call) settle(reply message.Message, err error) bool {
	settled := false
	c.once.Do(func() {
		c.reply = reply
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}
