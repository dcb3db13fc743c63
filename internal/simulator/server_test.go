package simulator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, interval time.Duration) (*Server, *httptest.Server) {
	t.Helper()
	sim := New(Options{Interval: interval, Logger: zerolog.Nop()})
	ts := httptest.NewServer(sim.Handler())
	t.Cleanup(ts.Close)
	return sim, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), "payload %s", data)
	return out
}

// readUntil skips periodic readings until a message carrying key arrives.
func readUntil(t *testing.T, conn *websocket.Conn, key string) map[string]any {
	t.Helper()
	for i := 0; i < 50; i++ {
		msg := readJSON(t, conn)
		if _, ok := msg[key]; ok {
			return msg
		}
	}
	t.Fatalf("no message with %q", key)
	return nil
}

func TestServer_GreetsWithTargetAndHeater(t *testing.T) {
	_, ts := newTestServer(t, time.Hour)
	conn := dial(t, ts)

	greeting := readJSON(t, conn)
	assert.Equal(t, map[string]any{"target_temperature": 50.0, "heater_state": false}, greeting)

	reading := readJSON(t, conn)
	assert.Contains(t, reading, "current_temperature")
	assert.Len(t, reading, 1)
}

func TestServer_TargetBroadcastToAllClients(t *testing.T) {
	sim, ts := newTestServer(t, time.Hour)
	a := dial(t, ts)
	b := dial(t, ts)
	readUntil(t, a, "current_temperature")
	readUntil(t, b, "current_temperature")
	require.Eventually(t, func() bool { return sim.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"target_temperature":42}`)))

	assert.Equal(t, map[string]any{"target_temperature": 42.0}, readUntil(t, a, "target_temperature"))
	assert.Equal(t, map[string]any{"target_temperature": 42.0}, readUntil(t, b, "target_temperature"))
	assert.Equal(t, 42.0, sim.Model().Snapshot().TargetTemperature)
}

func TestServer_HeaterEchoAndAlias(t *testing.T) {
	sim, ts := newTestServer(t, time.Hour)
	conn := dial(t, ts)
	readUntil(t, conn, "current_temperature")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"heater_state":true}`)))
	assert.Equal(t, map[string]any{"heater_state": true}, readUntil(t, conn, "heater_state"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"is_heating_on":false}`)))
	assert.Equal(t, map[string]any{"heater_state": false}, readUntil(t, conn, "heater_state"))
	assert.False(t, sim.Model().Snapshot().HeaterState)
}

func TestServer_InvalidJSONIsIgnored(t *testing.T) {
	sim, ts := newTestServer(t, time.Hour)
	conn := dial(t, ts)
	readUntil(t, conn, "current_temperature")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"target_temperature":33.5}`)))

	assert.Equal(t, map[string]any{"target_temperature": 33.5}, readUntil(t, conn, "target_temperature"))
	assert.Equal(t, 33.5, sim.Model().Snapshot().TargetTemperature)
}

func TestServer_RunBroadcastsReadings(t *testing.T) {
	sim, ts := newTestServer(t, 10*time.Millisecond)
	conn := dial(t, ts)
	readUntil(t, conn, "current_temperature")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	msg := readUntil(t, conn, "current_temperature")
	assert.Len(t, msg, 1)

	cancel()
	<-done

	// Run closes every client on the way out.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return sim.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_HTTPEndpoints(t *testing.T) {
	sim, ts := newTestServer(t, time.Hour)
	sim.Model().SetTarget(61)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var st struct {
		TargetTemperature float64 `json:"target_temperature"`
		HeaterState       bool    `json:"heater_state"`
		Clients           int     `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 61.0, st.TargetTemperature)
	assert.False(t, st.HeaterState)
	assert.Zero(t, st.Clients)

	resp, err = http.Post(ts.URL+"/api/state", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
