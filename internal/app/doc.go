// Package app wires the planning server together: configuration, logging,
// OpenTelemetry, the WebSocket hub, the planning services and the HTTP
// router, plus graceful startup and shutdown.
package app
