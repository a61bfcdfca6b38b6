// Package event provides the listener registry that distributes
// unsolicited host messages to subscribers.
//
// Dispatch is synchronous and runs on the caller's goroutine in
// registration order. A panicking listener is recovered individually
// and logged as a warning; the remaining listeners still run.
package event

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

// Callback handles one dispatched message.
type Callback func(msg message.Message)

// Subscription is the capability returned by Subscribe. Unsubscribing
// twice, or after Clear, is a safe no-op.
type Subscription struct {
	registry *Registry
	name     string
	key      uintptr
}

// Unsubscribe removes the subscription from its registry.
func (s *Subscription) Unsubscribe() {
	if s.registry == nil {
		return
	}
	s.registry.remove(s.name, s.key)
}

// entry pairs a callback with its identity key. Go functions are not
// comparable, so identity is the address of the function value itself:
// stable for one func value, distinct for each closure or method value
// even when they share code.
type entry struct {
	key uintptr
	cb  Callback
}

// Registry holds ordered per-name listener lists.
type Registry struct {
	mu        sync.Mutex
	listeners map[string][]entry
	logger    *slog.Logger
	onFailure func(name string)
}

// NewRegistry creates an empty registry. A nil logger falls back to
// slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		listeners: make(map[string][]entry),
		logger:    logger,
	}
}

// SetFailureHook installs a callback invoked after a listener panic is
// recovered. Used for metrics; may be nil.
func (r *Registry) SetFailureHook(fn func(name string)) {
	r.mu.Lock()
	r.onFailure = fn
	r.mu.Unlock()
}

// Subscribe registers cb for the named event and returns an unsubscribe
// capability. Registering a callback already present for the same name
// is a no-op, but the returned capability is still valid and removes
// the existing registration.
func (r *Registry) Subscribe(name string, cb Callback) *Subscription {
	if cb == nil {
		return &Subscription{}
	}

	key := callbackKey(cb)
	sub := &Subscription{registry: r, name: name, key: key}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.listeners[name] {
		if e.key == key {
			return sub
		}
	}
	r.listeners[name] = append(r.listeners[name], entry{key: key, cb: cb})
	return sub
}

// Unsubscribe removes the first registration of cb for the named event.
// cb must be the same func value that was subscribed; a freshly created
// closure or method value never matches. Removing a callback that is
// not present is a safe no-op.
func (r *Registry) Unsubscribe(name string, cb Callback) {
	if cb == nil {
		return
	}
	r.remove(name, callbackKey(cb))
}

// Dispatch invokes every listener currently registered for name, in
// registration order. Listener failures are isolated: a panic is
// caught, logged, and dispatch continues.
func (r *Registry) Dispatch(name string, msg message.Message) {
	r.mu.Lock()
	entries := make([]entry, len(r.listeners[name]))
	copy(entries, r.listeners[name])
	r.mu.Unlock()

	for _, e := range entries {
		r.invoke(name, e.cb, msg)
	}
}

// Clear drops all registrations. Used only at teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[string][]entry)
}

// Len returns the number of listeners registered for name.
func (r *Registry) Len(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[name])
}

// Names returns all event names with at least one listener.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.listeners))
	for name, entries := range r.listeners {
		if len(entries) > 0 {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) invoke(name string, cb Callback, msg message.Message) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Warn("event listener failed",
				slog.String("event", name),
				slog.Any("panic", v),
			)
			r.mu.Lock()
			hook := r.onFailure
			r.mu.Unlock()
			if hook != nil {
				hook(name)
			}
		}
	}()
	cb(msg)
}

func (r *Registry) remove(name string, key uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.listeners[name]
	for i, e := range entries {
		if e.key == key {
			r.listeners[name] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// callbackKey returns the funcval address backing cb. The registry
// keeps cb alive for as long as the key is registered, so the address
// cannot be recycled while it matters. reflect's Pointer() is not
// usable here: it returns the code pointer, which closures created at
// the same source location share.
func callbackKey(cb Callback) uintptr {
	return *(*uintptr)(unsafe.Pointer(&cb))
}
