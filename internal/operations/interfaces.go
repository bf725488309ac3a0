package operations

// WebSocketHub is the outbound interface for pushing operation updates
// to connected clients.
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}
