package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hberrors "github.com/randalmurphal/hostbridge/pkg/hostbridge/errors"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

func TestFromMessage(t *testing.T) {
	msg, err := message.Decode([]byte(`{
		"name": "InvalidMessageError",
		"correlationId": 1,
		"errors": [{"error": "Bad payload"}, {"error": "Unknown field"}]
	}`))
	require.NoError(t, err)

	rej := hberrors.FromMessage(msg)
	assert.Equal(t, "InvalidMessageError", rej.Name)
	assert.Equal(t, "Bad payload", rej.Message)
	require.Len(t, rej.Details, 2)
	assert.Equal(t, "Unknown field", rej.Details[1].Error)
	assert.Equal(t, msg, rej.Raw)
	assert.Equal(t, "InvalidMessageError: Bad payload", rej.Error())
}

func TestFromMessage_Fallbacks(t *testing.T) {
	t.Run("missing errors sequence", func(t *testing.T) {
		rej := hberrors.FromMessage(message.Message{"name": "InvalidMessageError"})
		assert.Equal(t, "host reported an invalid message", rej.Message)
		assert.Nil(t, rej.Details)
	})

	t.Run("missing name", func(t *testing.T) {
		rej := hberrors.FromMessage(message.Message{})
		assert.Equal(t, "InvalidMessageError", rej.Name)
	})

	t.Run("malformed errors sequence", func(t *testing.T) {
		rej := hberrors.FromMessage(message.Message{
			"name":   "InvalidMessageError",
			"errors": "oops",
		})
		assert.Nil(t, rej.Details)
		assert.Equal(t, "host reported an invalid message", rej.Message)
	})

	t.Run("empty detail text", func(t *testing.T) {
		rej := hberrors.FromMessage(message.Message{
			"name":   "InvalidMessageError",
			"errors": []any{map[string]any{"error": ""}},
		})
		assert.Equal(t, "host reported an invalid message", rej.Message)
		assert.Len(t, rej.Details, 1)
	})
}

func TestDestroyed(t *testing.T) {
	rej := hberrors.Destroyed()
	assert.Equal(t, "SDKDestroyed", rej.Name)
	assert.Nil(t, rej.Details)
	assert.Nil(t, rej.Raw)

	assert.True(t, hberrors.IsDestroyed(rej))
	assert.True(t, hberrors.IsDestroyed(fmt.Errorf("wrapped: %w", rej)))
	assert.False(t, hberrors.IsDestroyed(hberrors.FromMessage(message.Message{})))
	assert.False(t, hberrors.IsDestroyed(nil))
}

func TestAsRejection(t *testing.T) {
	rej, ok := hberrors.AsRejection(fmt.Errorf("send: %w", hberrors.Destroyed()))
	require.True(t, ok)
	assert.Equal(t, "SDKDestroyed", rej.Name)

	_, ok = hberrors.AsRejection(fmt.Errorf("plain"))
	assert.False(t, ok)
}
