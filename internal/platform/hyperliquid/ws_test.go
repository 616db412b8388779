package hyperliquid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialTestConn stands up a websocket server that drains incoming frames and
// returns a client-side connection to it.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStaleConnectionLoopsExit(t *testing.T) {
	first := dialTestConn(t)
	second := dialTestConn(t)

	w := NewWSClient("")
	w.conn = first

	require.True(t, w.connCurrent(first))
	require.False(t, w.connCurrent(second))

	// Simulate a reconnect replacing the connection: loops bound to the
	// first connection must observe they are stale.
	w.mu.Lock()
	w.conn = second
	w.mu.Unlock()

	require.False(t, w.connCurrent(first))
	require.True(t, w.connCurrent(second))
}
