package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/transport"
)

// echoServer upgrades each connection and echoes every text message.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ws, err := transport.DialWebSocket(wsURL(srv), nil)
	require.NoError(t, err)
	defer ws.Close()

	received := make(chan []byte, 1)
	unbind, err := ws.Bind(func(data []byte) { received <- data })
	require.NoError(t, err)
	defer unbind()

	require.NoError(t, ws.Send([]byte(`{"name":"ping"}`)))

	select {
	case data := <-received:
		assert.JSONEq(t, `{"name":"ping"}`, string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestWebSocket_DialFailure(t *testing.T) {
	_, err := transport.DialWebSocket("ws://127.0.0.1:1/nowhere", nil)
	assert.Error(t, err)
}

func TestWebSocket_BindErrors(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ws, err := transport.DialWebSocket(wsURL(srv), nil)
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Bind(nil)
	assert.ErrorIs(t, err, transport.ErrNilHandler)

	_, err = ws.Bind(func([]byte) {})
	require.NoError(t, err)
	_, err = ws.Bind(func([]byte) {})
	assert.ErrorIs(t, err, transport.ErrAlreadyBound)
}

func TestWebSocket_Close(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ws, err := transport.DialWebSocket(wsURL(srv), nil)
	require.NoError(t, err)

	ws.Close()
	assert.ErrorIs(t, ws.Send([]byte("x")), transport.ErrClosed)

	_, err = ws.Bind(func([]byte) {})
	assert.ErrorIs(t, err, transport.ErrClosed)

	// Idempotent.
	assert.NotPanics(t, ws.Close)
}
