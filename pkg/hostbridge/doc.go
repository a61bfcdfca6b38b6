/*
Package hostbridge turns the fire-and-forget message channel between an
embedded widget and its host frame into a request/response protocol
with event subscriptions and deterministic teardown.

# Overview

The channel itself has no request/response semantics: it delivers
untyped JSON objects in arrival order and guarantees nothing else.
hostbridge layers a correlation engine on top:

  - Request sends a message stamped with a monotonically allocated
    messageId and blocks until an inbound message carrying the matching
    correlationId arrives.
  - Unsolicited inbound messages are dispatched to subscribed listeners
    by name, with per-listener failure isolation.
  - Teardown rejects everything outstanding with a distinguishable
    SDKDestroyed rejection and detaches from the transport.

The transport is an injected capability (see the transport subpackage);
the client never resolves one from ambient state.

# Basic Usage

	widgetEnd, hostEnd := transport.NewPipe()
	// hostEnd is driven by the embedding host.

	client, err := hostbridge.New(widgetEnd, hostbridge.WithDebug(true))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Teardown()

	reply, err := client.Request(ctx, message.New("ShowDialogRequest", map[string]any{
		"dialogText": "Hi",
		"buttons":    []any{map[string]any{"name": "Ok"}},
	}))

A rejected request carries a normalized *errors.Rejection: the host's
error name, the first error text, the full details sequence, and the
raw inbound message.

# Events

	sub := client.Subscribe(message.NameOpenSDKEvent, func(msg message.Message) {
		// react to the host's open notification
	})
	defer sub.Unsubscribe()

Dispatch is synchronous and in registration order. A listener that
panics is recovered and logged; the remaining listeners still run.

# Implicit correlation

The host's open and dirty-state notifications are tracked by messageId.
Reply helpers (OpenFeedback, ValidationFeedback, SetDirty) resolve
their correlation target from an explicit id when supplied, falling
back to the tracked id. With no target available the helper refuses to
send, logs a warning, and returns false.

# Teardown

Teardown is the only cancellation primitive: there is no per-request
timeout or cancellation. Each pending request is rejected with
SDKDestroyed while the pending table is still populated, then the
listener registry is cleared and the transport binding detached.
After teardown Request rejects immediately and FireAndForget is a
no-op.

# Thread Safety

  - Client IS safe for concurrent use.
  - Inbound messages are routed strictly in delivery order.
  - A pending request settles at most once; later messages carrying the
    same correlationId are ignored.

# Subpackages

  - message: wire envelope and protocol name catalog
  - errors: normalized rejection types
  - event: listener registry
  - transport: injected send/receive capability (pipe, websocket)
  - journal: diagnostic message journal (memory, SQLite)
  - config: yaml/json configuration loading
  - observability: logging, metrics, and tracing helpers
*/
package hostbridge
