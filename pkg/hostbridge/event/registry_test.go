package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/event"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

func TestRegistry_DispatchOrder(t *testing.T) {
	registry := event.NewRegistry(nil)

	var order []int
	registry.Subscribe("evt", func(message.Message) { order = append(order, 1) })
	registry.Subscribe("evt", func(message.Message) { order = append(order, 2) })
	registry.Subscribe("evt", func(message.Message) { order = append(order, 3) })

	registry.Dispatch("evt", message.Message{"name": "evt"})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestRegistry_DispatchPayload(t *testing.T) {
	registry := event.NewRegistry(nil)

	var got message.Message
	registry.Subscribe("evt", func(msg message.Message) { got = msg })

	msg := message.Message{"name": "evt", "detail": "x"}
	registry.Dispatch("evt", msg)

	assert.Equal(t, msg, got)
}

func TestRegistry_SubscribeDeduplicates(t *testing.T) {
	registry := event.NewRegistry(nil)

	calls := 0
	cb := func(message.Message) { calls++ }

	registry.Subscribe("evt", cb)
	dup := registry.Subscribe("evt", cb)
	assert.Equal(t, 1, registry.Len("evt"))

	registry.Dispatch("evt", message.Message{})
	assert.Equal(t, 1, calls)

	// The duplicate's capability still removes the registration.
	dup.Unsubscribe()
	assert.Equal(t, 0, registry.Len("evt"))
}

func TestRegistry_ClosuresFromOneLiteral(t *testing.T) {
	registry := event.NewRegistry(nil)

	// Two closures born from the same source literal share code but are
	// distinct callbacks; both must register and both must run.
	var order []string
	for _, label := range []string{"first", "second"} {
		registry.Subscribe("evt", func(message.Message) { order = append(order, label) })
	}
	require.Equal(t, 2, registry.Len("evt"))

	registry.Dispatch("evt", message.Message{})
	assert.Equal(t, []string{"first", "second"}, order)
}

type hitCounter struct{ hits int }

func (c *hitCounter) handle(message.Message) { c.hits++ }

func TestRegistry_MethodValuesFromDistinctReceivers(t *testing.T) {
	registry := event.NewRegistry(nil)

	a := &hitCounter{}
	b := &hitCounter{}
	registry.Subscribe("evt", a.handle)
	registry.Subscribe("evt", b.handle)
	require.Equal(t, 2, registry.Len("evt"))

	registry.Dispatch("evt", message.Message{})
	assert.Equal(t, 1, a.hits)
	assert.Equal(t, 1, b.hits)
}

func TestRegistry_Unsubscribe(t *testing.T) {
	registry := event.NewRegistry(nil)

	calls := 0
	cb := func(message.Message) { calls++ }

	registry.Subscribe("evt", cb)
	registry.Unsubscribe("evt", cb)
	registry.Dispatch("evt", message.Message{})
	assert.Zero(t, calls)

	// Removing a callback not present is a safe no-op.
	assert.NotPanics(t, func() {
		registry.Unsubscribe("evt", cb)
		registry.Unsubscribe("other", cb)
	})
}

func TestRegistry_UnsubscribeOnlyNamedEvent(t *testing.T) {
	registry := event.NewRegistry(nil)

	calls := 0
	cb := func(message.Message) { calls++ }

	registry.Subscribe("a", cb)
	registry.Subscribe("b", cb)
	registry.Unsubscribe("a", cb)

	registry.Dispatch("a", message.Message{})
	registry.Dispatch("b", message.Message{})
	assert.Equal(t, 1, calls)
}

func TestRegistry_SubscriptionCapability(t *testing.T) {
	registry := event.NewRegistry(nil)

	sub := registry.Subscribe("evt", func(message.Message) {})
	require.Equal(t, 1, registry.Len("evt"))

	sub.Unsubscribe()
	assert.Equal(t, 0, registry.Len("evt"))

	// Unsubscribing twice is a safe no-op.
	assert.NotPanics(t, sub.Unsubscribe)
}

func TestRegistry_PanicIsolation(t *testing.T) {
	registry := event.NewRegistry(nil)

	var failures []string
	registry.SetFailureHook(func(name string) { failures = append(failures, name) })

	secondRan := false
	registry.Subscribe("evt", func(message.Message) { panic("boom") })
	registry.Subscribe("evt", func(message.Message) { secondRan = true })

	assert.NotPanics(t, func() {
		registry.Dispatch("evt", message.Message{})
	})
	assert.True(t, secondRan)
	assert.Equal(t, []string{"evt"}, failures)
}

func TestRegistry_Clear(t *testing.T) {
	registry := event.NewRegistry(nil)

	registry.Subscribe("a", func(message.Message) {})
	registry.Subscribe("b", func(message.Message) {})
	require.Len(t, registry.Names(), 2)

	registry.Clear()
	assert.Empty(t, registry.Names())
	assert.Equal(t, 0, registry.Len("a"))
}

func TestRegistry_NilCallback(t *testing.T) {
	registry := event.NewRegistry(nil)

	sub := registry.Subscribe("evt", nil)
	require.NotNil(t, sub)
	assert.Equal(t, 0, registry.Len("evt"))
	assert.NotPanics(t, sub.Unsubscribe)
	assert.NotPanics(t, func() { registry.Unsubscribe("evt", nil) })
}

func TestRegistry_DispatchUnknownName(t *testing.T) {
	registry := event.NewRegistry(nil)
	assert.NotPanics(t, func() {
		registry.Dispatch("nobody-listens", message.Message{})
	})
}
