package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseUint(r.URL.Query().Get("user"), 10, 64)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, userID, zap.NewNop())
		if hub.Register(r.Context(), client) {
			client.Serve()
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, userID uint64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + strconv.FormatUint(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitConnected(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(hub.ConnectedUsers()) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SendToUserReachesOnlyThatUser(t *testing.T) {
	hub, srv, _ := startHub(t)
	alice := dial(t, srv, 1)
	bob := dial(t, srv, 2)
	waitConnected(t, hub, 2)

	require.NoError(t, hub.SendToUser(1, "permanence.transitioned", map[string]interface{}{"permanence_id": 12}))

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "permanence.transitioned", env.Type)
	assert.EqualValues(t, 12, env.Payload["permanence_id"])

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "bob ne doit rien recevoir")
}

func TestHub_SeveralTabsOfSameUser(t *testing.T) {
	hub, srv, _ := startHub(t)
	first := dial(t, srv, 7)
	second := dial(t, srv, 7)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.byUser[7]) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint64{7}, hub.ConnectedUsers())

	require.NoError(t, hub.SendToUser(7, "ping", nil))
	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		assert.NoError(t, err)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv, 3)
	waitConnected(t, hub, 1)

	require.NoError(t, conn.Close())
	waitConnected(t, hub, 0)
	assert.NoError(t, hub.SendToUser(3, "ping", nil))
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv, 4)
	waitConnected(t, hub, 1)

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Empty(t, hub.ConnectedUsers())
	assert.False(t, hub.Register(context.Background(), NewClient(hub, nil, 5, zap.NewNop())))
}
