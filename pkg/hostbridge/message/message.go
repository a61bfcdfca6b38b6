// Package message defines the wire envelope exchanged between an
// embedded widget and its host frame.
//
// A message is a JSON object carrying at least a "name" field.
// Request-class messages additionally carry "messageId" (a positive
// integer allocated by the sender); response- and error-class messages
// carry "correlationId" equal to the messageId of the request they
// answer. All remaining fields are protocol-specific and untyped.
// Two unrelated messages may share a name; identity comes only from
// messageId/correlationId.
package message

import (
	"encoding/json"
	"fmt"
)

// Well-known field keys shared by every message class.
const (
	KeyName          = "name"
	KeyMessageID     = "messageId"
	KeyCorrelationID = "correlationId"
	KeyErrors        = "errors"
)

// Names recognized by the client. The catalog is open: hosts may define
// further names, which flow through the event registry untouched.
const (
	// NameInvalidMessageError marks a protocol error reply. It carries
	// an "errors" sequence of objects, each with an "error" text field.
	NameInvalidMessageError = "InvalidMessageError"

	// NameOpenSDKEvent is the host's context/open notification.
	NameOpenSDKEvent = "OpenSDKEvent"

	// NameDirtyStateChangedEvent is the host's unsaved-state-change
	// notification.
	NameDirtyStateChangedEvent = "DirtyStateChangedEvent"

	// Reply-class names sent by the widget, correlated to the two
	// notifications above.
	NameOpenFeedbackMessage       = "OpenFeedbackMessage"
	NameSetDirtyMessage           = "SetDirtyMessage"
	NameValidationFeedbackMessage = "ValidationFeedbackMessage"

	// Dialog request/response pair.
	NameShowDialogRequest  = "ShowDialogRequest"
	NameShowDialogResponse = "ShowDialogResponse"
)

// Message is the unit exchanged over the channel. Outbound messages are
// immutable once sent; inbound messages are read-only to the client.
type Message map[string]any

// New creates a message with the given name and protocol-specific
// fields. The fields map is copied.
func New(name string, fields map[string]any) Message {
	m := make(Message, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m[KeyName] = name
	return m
}

// Name returns the message name, or "" if absent or not a string.
func (m Message) Name() string {
	s, _ := m[KeyName].(string)
	return s
}

// MessageID returns the messageId field. The second return value is
// false when the field is absent or not an integer. A present id of any
// positive value counts, including values a caller might mistake for
// falsy.
func (m Message) MessageID() (int64, bool) {
	return intField(m[KeyMessageID])
}

// CorrelationID returns the correlationId field, reporting absence the
// same way MessageID does.
func (m Message) CorrelationID() (int64, bool) {
	return intField(m[KeyCorrelationID])
}

// SetMessageID stamps the messageId field, overwriting any prior value.
func (m Message) SetMessageID(id int64) {
	m[KeyMessageID] = id
}

// SetCorrelationID stamps the correlationId field, overwriting any
// prior value.
func (m Message) SetCorrelationID(id int64) {
	m[KeyCorrelationID] = id
}

// Get returns the raw value for key.
func (m Message) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Clone creates a shallow copy. Nested values are shared; the client
// only ever stamps top-level id fields.
func (m Message) Clone() Message {
	clone := make(Message, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Encode serializes the message for transport.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message %q: %w", m.Name(), err)
	}
	return data, nil
}

// Decode parses an inbound raw message. Anything that is not a JSON
// object is an error; the router drops such input with a diagnostic
// log rather than surfacing it.
func Decode(data []byte) (Message, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("decode message: not an object")
	}
	return Message(m), nil
}

// intField coerces the id representations seen on the wire. JSON
// numbers arrive as float64; only integral values are accepted.
func intField(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}
