// Package errors defines the normalized rejection types delivered to
// callers of the hostbridge client.
package errors

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

// Distinguished rejection names.
const (
	// NameInvalidMessage is the default name for protocol error replies.
	NameInvalidMessage = message.NameInvalidMessageError

	// NameDestroyed marks rejections produced solely by client teardown.
	NameDestroyed = "SDKDestroyed"
)

// fallbackText is used when an error reply carries no readable detail.
const fallbackText = "host reported an invalid message"

// Detail is one entry of an error reply's "errors" sequence.
type Detail struct {
	Error string `json:"error"`
}

// Rejection is the normalized error delivered to a pending request. It
// exposes the original error's name, a human-readable message, the
// original details sequence (nil when absent), and the full original
// inbound message (nil for teardown rejections).
type Rejection struct {
	Name    string
	Message string
	Details []Detail
	Raw     message.Message
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Name, r.Message)
}

// FromMessage normalizes a protocol error reply into a Rejection. The
// name defaults to InvalidMessageError when the reply carries none; the
// message text comes from the first entry of the "errors" sequence,
// falling back to a fixed text when the sequence is empty or unreadable.
func FromMessage(msg message.Message) *Rejection {
	name := msg.Name()
	if name == "" {
		name = NameInvalidMessage
	}

	details := decodeDetails(msg)
	text := fallbackText
	if len(details) > 0 && details[0].Error != "" {
		text = details[0].Error
	}

	return &Rejection{
		Name:    name,
		Message: text,
		Details: details,
		Raw:     msg,
	}
}

// Destroyed returns the rejection every request still pending at
// teardown receives. It carries no details or raw payload.
func Destroyed() *Rejection {
	return &Rejection{
		Name:    NameDestroyed,
		Message: "client destroyed before a reply arrived",
	}
}

// IsDestroyed reports whether err is (or wraps) a teardown rejection.
func IsDestroyed(err error) bool {
	var rej *Rejection
	return errors.As(err, &rej) && rej.Name == NameDestroyed
}

// AsRejection extracts a Rejection from err, if present.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func decodeDetails(msg message.Message) []Detail {
	raw, ok := msg.Get(message.KeyErrors)
	if !ok {
		return nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil
	}

	details := make([]Detail, 0, len(seq))
	for _, item := range seq {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := entry["error"].(string)
		details = append(details, Detail{Error: text})
	}
	return details
}
