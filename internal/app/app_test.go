package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/internal/config"
)

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "text",
			Output: "console",
		},
		Paths: config.PathsConfig{
			DataDir:    dir,
			InputsDir:  filepath.Join(dir, "inputs"),
			ReportsDir: filepath.Join(dir, "reports"),
			LogsDir:    filepath.Join(dir, "logs"),
		},
		Planning: config.PlanningConfig{
			Classes:            []string{"argyll", "pvc"},
			HoldingCostPerHour: 200,
			DeficitCost:        1000,
			Horizon:            6,
			HoldoutMonths:      3,
			MaxConcurrency:     2,
		},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// The OpenTelemetry Prometheus exporter registers collectors globally, so a
// single application instance is shared across the subtests.
func TestApplication(t *testing.T) {
	app, err := NewApplication(testAppConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		app.OperationService.Close()
	})

	server := httptest.NewServer(app.Router)
	t.Cleanup(server.Close)

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	})

	t.Run("version endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/version")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, Version, payload["version"])
	})

	t.Run("readiness endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health/ready")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("results listing", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/results")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("operations listing", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/operations")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("websocket connect", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		if resp != nil {
			defer resp.Body.Close()
		}
		defer conn.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var message map[string]interface{}
		require.NoError(t, conn.ReadJSON(&message))
		assert.Equal(t, "connection", message["type"])
	})
}
