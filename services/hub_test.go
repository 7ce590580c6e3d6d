package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn, r.URL.Query().Get("gameCode"), 7)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialHub(t *testing.T, server *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?gameCode=" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversInvalidationsByCode(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := newHubServer(t, hub)

	watcher := dialHub(t, server, "abc234")
	other := dialHub(t, server, "XYZ789")

	require.Eventually(t, func() bool {
		return len(hub.ConnectedPlayers("ABC234")) == 1 && len(hub.ConnectedPlayers("xyz789")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint{7}, hub.ConnectedPlayers("abc234"))

	hub.Notify("ABC234")

	var msg Message
	require.NoError(t, watcher.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, watcher.ReadJSON(&msg))
	assert.Equal(t, "invalidate", msg.Type)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other games hear nothing")
}

func TestHubAnswersPing(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := newHubServer(t, hub)
	conn := dialHub(t, server, "ABC234")

	require.Eventually(t, func() bool {
		return len(hub.ConnectedPlayers("ABC234")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := newHubServer(t, hub)
	conn := dialHub(t, server, "ABC234")

	require.Eventually(t, func() bool {
		return len(hub.ConnectedPlayers("ABC234")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return len(hub.ConnectedPlayers("ABC234")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
