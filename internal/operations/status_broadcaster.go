package operations

import (
	"log/slog"
	"time"
)

// EventOperationSnapshot is the WebSocket event type carrying a full
// snapshot of an operation's state.
const EventOperationSnapshot = "operation:snapshot"

// OperationSnapshot is the wire form of an operation broadcast.
type OperationSnapshot struct {
	OperationID string         `json:"operation_id"`
	Status      string         `json:"status"`
	Steps       []StepSnapshot `json:"steps"`
	Error       string         `json:"error,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// StepSnapshot is the wire form of one step within a snapshot.
type StepSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type updateRequest struct {
	state *OperationState
	done  chan struct{}
}

// StatusBroadcaster serializes operation updates onto a single goroutine so
// snapshots reach the hub in a consistent order regardless of which step
// goroutine produced them.
type StatusBroadcaster struct {
	hub     WebSocketHub
	logger  *slog.Logger
	updates chan updateRequest
	closed  chan struct{}
}

// NewStatusBroadcaster creates a broadcaster and starts its update loop.
// A nil hub yields a broadcaster that drops updates, which keeps callers
// free of nil checks.
func NewStatusBroadcaster(hub WebSocketHub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	b := &StatusBroadcaster{
		hub:     hub,
		logger:  logger,
		updates: make(chan updateRequest, 64),
		closed:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *StatusBroadcaster) run() {
	for {
		select {
		case req := <-b.updates:
			b.broadcast(req.state)
			if req.done != nil {
				close(req.done)
			}
		case <-b.closed:
			// Drain pending updates before exiting.
			for {
				select {
				case req := <-b.updates:
					b.broadcast(req.state)
					if req.done != nil {
						close(req.done)
					}
				default:
					return
				}
			}
		}
	}
}

func (b *StatusBroadcaster) broadcast(state *OperationState) {
	if b.hub == nil || state == nil {
		return
	}
	snapshot := buildSnapshot(state)
	b.hub.BroadcastUpdate(EventOperationSnapshot, "", snapshot.Status, snapshot)
	b.logger.Debug("broadcast operation snapshot",
		slog.String("operation_id", snapshot.OperationID),
		slog.String("status", snapshot.Status),
		slog.Int("steps", len(snapshot.Steps)))
}

// BroadcastState queues a snapshot of the operation for delivery. It never
// blocks the caller; when the queue is full the update is dropped because a
// newer snapshot will follow.
func (b *StatusBroadcaster) BroadcastState(state *OperationState) {
	select {
	case b.updates <- updateRequest{state: state}:
	case <-b.closed:
	default:
		b.logger.Warn("status update queue full, dropping snapshot",
			slog.String("operation_id", state.ID()))
	}
}

// Flush queues a snapshot and waits until it has been delivered. Used for
// terminal states so the last snapshot is never lost.
func (b *StatusBroadcaster) Flush(state *OperationState) {
	done := make(chan struct{})
	select {
	case b.updates <- updateRequest{state: state, done: done}:
		<-done
	case <-b.closed:
	}
}

// Close stops the update loop after draining queued updates.
func (b *StatusBroadcaster) Close() {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
}

func buildSnapshot(state *OperationState) OperationSnapshot {
	snapshot := OperationSnapshot{
		OperationID: state.ID(),
		Status:      state.Status(),
		Timestamp:   time.Now(),
	}
	if err := state.Error(); err != nil {
		snapshot.Error = err.Error()
	}
	for _, step := range state.Steps() {
		stepSnap := StepSnapshot{
			ID:       step.ID(),
			Name:     step.Name(),
			Status:   step.Status(),
			Progress: step.Progress(),
			Message:  step.Message(),
		}
		if err := step.Error(); err != nil {
			stepSnap.Error = err.Error()
		}
		snapshot.Steps = append(snapshot.Steps, stepSnap)
	}
	return snapshot
}
