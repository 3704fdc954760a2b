package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthd/internal/domain"
	"healthd/internal/event"
	"healthd/internal/logger"
	"healthd/internal/metrics"
)

func newTestServer(t *testing.T, store *metrics.SnapshotStore) *httptest.Server {
	t.Helper()

	exporter := metrics.NewExporter(event.New(logger.Discard()), nil)
	s := NewServer("", store, exporter.Handler(), 20*time.Millisecond, logger.Discard())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestSnapshotEndpoint(t *testing.T) {
	store := metrics.NewSnapshotStore()
	store.Set(domain.Snapshot{
		Samples: []domain.UtilizationSample{
			{Core: domain.AggregateCore(), Percent: 12.5},
			{Core: domain.IndexedCore(0), Percent: 25},
		},
		Line: "12.50 25.00\n",
	})
	ts := newTestServer(t, store)

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Line    string `json:"line"`
		Samples []struct {
			Core    string  `json:"core"`
			Percent float64 `json:"percent"`
		} `json:"samples"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "12.50 25.00\n", body.Line)
	require.Len(t, body.Samples, 2)
	assert.Equal(t, "all", body.Samples[0].Core)
	assert.Equal(t, "0", body.Samples[1].Core)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, metrics.NewSnapshotStore())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketPushesChanges(t *testing.T) {
	store := metrics.NewSnapshotStore()
	store.Set(domain.Snapshot{Line: "1.00\n"})
	ts := newTestServer(t, store)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "1.00\n", string(msg))

	store.Set(domain.Snapshot{Line: "2.00\n"})

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "2.00\n", string(msg))
}
