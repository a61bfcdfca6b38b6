package hostbridge

import (
	"log/slog"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

// The client tracks the messageId of the most recently routed inbound
// message for two names: the open notification and the dirty-state
// notification. Reply helpers resolve their correlation target from an
// explicit caller-supplied id first, falling back to the tracked id.
// Absence is distinct from zero: only a missing tracker counts as
// absent, and any recorded id is honored.

// OpenCorrelationID resolves the correlation id a reply to the open
// notification would use. An explicit id wins over the tracked one;
// the second return value is false when neither is available.
func (c *Client) OpenCorrelationID(explicitID ...int64) (int64, bool) {
	return c.resolveCorrelation(explicitID, func() *int64 { return c.lastOpenID })
}

// DirtyCorrelationID resolves the correlation id a dirty-state reply
// would use, with the same precedence as OpenCorrelationID.
func (c *Client) DirtyCorrelationID(explicitID ...int64) (int64, bool) {
	return c.resolveCorrelation(explicitID, func() *int64 { return c.lastDirtyID })
}

// OpenFeedback sends an OpenFeedbackMessage correlated to the open
// notification. When no correlation target can be resolved the send is
// refused: a warning is logged, false is returned, and the transport is
// never contacted. Returns true when the reply was handed to the
// transport.
func (c *Client) OpenFeedback(fields map[string]any, explicitID ...int64) bool {
	corrID, ok := c.OpenCorrelationID(explicitID...)
	return c.reply(message.NameOpenFeedbackMessage, fields, corrID, ok)
}

// ValidationFeedback sends a ValidationFeedbackMessage correlated to
// the open notification, guarded the same way as OpenFeedback.
func (c *Client) ValidationFeedback(fields map[string]any, explicitID ...int64) bool {
	corrID, ok := c.OpenCorrelationID(explicitID...)
	return c.reply(message.NameValidationFeedbackMessage, fields, corrID, ok)
}

// SetDirty sends a SetDirtyMessage correlated to the dirty-state
// notification, guarded the same way as OpenFeedback.
func (c *Client) SetDirty(dirty bool, explicitID ...int64) bool {
	corrID, ok := c.DirtyCorrelationID(explicitID...)
	return c.reply(message.NameSetDirtyMessage, map[string]any{"dirty": dirty}, corrID, ok)
}

func (c *Client) reply(name string, fields map[string]any, corrID int64, ok bool) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}

	if !ok {
		// Sending a correlated reply with no valid target is
		// protocol-invalid and must never reach the wire.
		c.logger.Warn("reply dropped: no notification received and no correlation id supplied",
			slog.String("name", name),
		)
		return false
	}

	msg := message.New(name, fields)
	msg.SetCorrelationID(corrID)
	c.FireAndForget(msg)
	return true
}

func (c *Client) resolveCorrelation(explicit []int64, tracked func() *int64) (int64, bool) {
	if len(explicit) > 0 {
		return explicit[0], true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if last := tracked(); last != nil {
		return *last, true
	}
	return 0, false
}
