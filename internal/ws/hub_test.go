package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(nil, ConnInfo{ConnID: "c1"})
	if hub.ClientCount() != 1 {
		t.Fatalf("expected client to be registered")
	}

	hub.RemoveClient(nil)
	if hub.ClientCount() != 0 {
		t.Fatalf("expected client to be removed")
	}
}

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

// Dropping a dead connection during broadcast must not touch the active
// connection gauge; the read loop is the only place that decrements it.
func TestBroadcastDropDoesNotDecrementGauge(t *testing.T) {
	hub := NewHub()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	conn := <-serverConns
	hub.AddClient(conn, ConnInfo{ConnID: "c1", Identity: "ana"})
	before := gaugeValue(t, "relay_ws_active_connections")

	require.NoError(t, conn.UnderlyingConn().Close())
	require.Eventually(t, func() bool {
		hub.BroadcastEvent(models.RelayEvent{Type: "participant_left", Participant: "ana"})
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, before, gaugeValue(t, "relay_ws_active_connections"))
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()

	// must not panic with an empty client set
	hub.BroadcastEvent(models.RelayEvent{Type: "participant_left", Participant: "ana"})
	hub.BroadcastMessage(models.Message{ID: 1, From: "ana"})
}
