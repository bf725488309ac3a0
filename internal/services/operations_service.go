package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"soleplan/internal/config"
	"soleplan/internal/operations"
)

// OperationService owns the pipeline manager and exposes run control to the
// HTTP layer. Runs execute asynchronously; status is read back through the
// manager and pushed live through the status broadcaster.
type OperationService struct {
	manager     *operations.Manager
	broadcaster *operations.StatusBroadcaster
	planning    config.PlanningConfig
	logger      *slog.Logger
}

// NewOperationService wires the step registry, broadcaster and manager.
func NewOperationService(cfg *config.Config, paths *config.Paths, hub operations.WebSocketHub, logger *slog.Logger) (*OperationService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := operations.NewRegistry()
	err := operations.RegisterPlanningSteps(registry, operations.StepDeps{
		Paths:    paths,
		Planning: cfg.Planning,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("register planning steps: %w", err)
	}

	broadcaster := operations.NewStatusBroadcaster(hub, logger)
	manager := operations.NewManager(registry, operations.NewConfig(), broadcaster, logger)

	return &OperationService{
		manager:     manager,
		broadcaster: broadcaster,
		planning:    cfg.Planning,
		logger:      logger.With(slog.String("service", "operations")),
	}, nil
}

// ValidateRequest rejects requests that reference unknown classes or an
// out-of-range horizon before anything starts running.
func (s *OperationService) ValidateRequest(req operations.OperationRequest) error {
	known := make(map[string]bool, len(s.planning.Classes))
	for _, class := range s.planning.Classes {
		known[class] = true
	}
	for _, class := range req.Classes {
		if !known[class] {
			return fmt.Errorf("unknown class %q", class)
		}
	}
	if req.Horizon < 0 || req.Horizon > 24 {
		return fmt.Errorf("horizon %d out of range", req.Horizon)
	}
	return nil
}

// StartOperation launches a pipeline run in the background and returns once
// the run is registered, so callers can poll or subscribe for its progress.
func (s *OperationService) StartOperation(ctx context.Context, req operations.OperationRequest) (string, error) {
	if err := s.ValidateRequest(req); err != nil {
		return "", err
	}

	state, err := s.manager.Prepare(req)
	if err != nil {
		return "", err
	}

	go func() {
		// The run outlives the HTTP request that started it.
		if err := s.manager.Run(context.WithoutCancel(ctx), state); err != nil {
			s.logger.Error("operation failed",
				slog.String("operation_id", state.ID()),
				slog.String("error", err.Error()))
		}
	}()

	s.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", state.ID()),
		slog.Any("classes", req.Classes))
	return state.ID(), nil
}

// GetOperation returns the response snapshot for one operation.
func (s *OperationService) GetOperation(id string) (operations.OperationResponse, bool) {
	state, ok := s.manager.GetOperation(id)
	if !ok {
		return operations.OperationResponse{}, false
	}
	return state.Response(), true
}

// ListOperations returns response snapshots for all known operations,
// newest first.
func (s *OperationService) ListOperations() []operations.OperationResponse {
	states := s.manager.ListOperations()
	responses := make([]operations.OperationResponse, 0, len(states))
	for _, state := range states {
		responses = append(responses, state.Response())
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].StartTime.After(responses[j].StartTime)
	})
	return responses
}

// Close flushes and stops the status broadcaster.
func (s *OperationService) Close() {
	s.broadcaster.Close()
}
