// Package journal provides diagnostic persistence of the messages a
// client exchanges with its host.
//
// Journaling is optional and never affects routing: append failures are
// logged by the client and swallowed.
package journal

import (
	"errors"
	"time"
)

// Direction distinguishes outbound and inbound entries.
type Direction string

// Journal directions.
const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Entry records one message that crossed the channel.
type Entry struct {
	// ID uniquely identifies the entry. Filled on append when empty.
	ID string

	// ClientID identifies the client instance that handled the message.
	ClientID string

	// Direction is sent or received.
	Direction Direction

	// Name is the message name, "" when absent.
	Name string

	// MessageID and CorrelationID are nil when the message carried no
	// such field. Zero and absence are distinct.
	MessageID     *int64
	CorrelationID *int64

	// Timestamp is when the entry was appended. Filled when zero.
	Timestamp time.Time

	// Payload is the raw wire data.
	Payload []byte
}

// Store persists journal entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append records an entry.
	Append(e Entry) error

	// List returns all entries for a client, in append order.
	// Returns an empty slice (not an error) for unknown clients.
	List(clientID string) ([]Entry, error)

	// Close releases store resources. Subsequent operations fail with
	// ErrStoreClosed.
	Close() error
}

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("journal store is closed")
