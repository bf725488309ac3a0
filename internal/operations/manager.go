package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "soleplan/operations"

// Manager owns the step registry and executes pipeline runs.
type Manager struct {
	registry    *Registry
	config      *Config
	broadcaster *StatusBroadcaster
	logger      *slog.Logger

	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a Manager. A nil config selects the defaults and a nil
// broadcaster disables status broadcasting.
func NewManager(registry *Registry, config *Config, broadcaster *StatusBroadcaster, logger *slog.Logger) *Manager {
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if broadcaster == nil {
		broadcaster = NewStatusBroadcaster(nil, logger)
	}
	return &Manager{
		registry:    registry,
		config:      config,
		broadcaster: broadcaster,
		logger:      logger,
		operations:  make(map[string]*OperationState),
	}
}

// GetOperation returns the state of a previously started operation.
func (m *Manager) GetOperation(id string) (*OperationState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.operations[id]
	return state, ok
}

// ListOperations returns the states of all known operations.
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		states = append(states, state)
	}
	return states
}

// Prepare resolves the step order and registers a new pending operation.
// The returned state is not running yet; pass it to Run.
func (m *Manager) Prepare(req OperationRequest) (*OperationState, error) {
	order, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, fmt.Errorf("resolve step order: %w", err)
	}

	state := NewOperationState(uuid.New().String(), req)
	for _, id := range order {
		step, _ := m.registry.Get(id)
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	m.mu.Lock()
	m.operations[state.ID()] = state
	m.mu.Unlock()
	return state, nil
}

// Execute prepares and runs an operation synchronously.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationState, error) {
	state, err := m.Prepare(req)
	if err != nil {
		return nil, err
	}
	return state, m.Run(ctx, state)
}

// Run executes a prepared operation's steps in dependency order. Failed
// steps cause their dependents to be skipped; whether independent steps
// still run is controlled by Config.ContinueOnError.
func (m *Manager) Run(ctx context.Context, state *OperationState) error {
	order := make([]string, 0, len(state.Steps()))
	for _, step := range state.Steps() {
		order = append(order, step.ID())
	}
	operationID := state.ID()
	ctx = context.WithValue(ctx, ContextKeyOperationID, operationID)

	state.Start()
	m.broadcaster.BroadcastState(state)
	m.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", operationID),
		slog.Int("steps", len(order)))

	skipped := make(map[string]string)
	var firstErr error

	for _, id := range order {
		step, _ := m.registry.Get(id)
		stepState, _ := state.GetStep(id)

		if ctx.Err() != nil {
			stepState.Cancel()
			m.broadcaster.BroadcastState(state)
			if firstErr == nil {
				firstErr = NewCancellationError(id)
			}
			continue
		}

		if reason, skip := skipped[id]; skip {
			stepState.Skip(reason)
			m.broadcaster.BroadcastState(state)
			m.logger.InfoContext(ctx, "step skipped",
				slog.String("operation_id", operationID),
				slog.String("step", id),
				slog.String("reason", reason))
			continue
		}

		if err := m.checkDependencies(state, step); err != nil {
			stepState.Skip(err.Error())
			m.skipDependents(id, skipped)
			m.broadcaster.BroadcastState(state)
			continue
		}

		if err := m.executeStep(ctx, step, stepState, state); err != nil {
			stepState.Fail(err)
			m.broadcaster.BroadcastState(state)
			m.logger.ErrorContext(ctx, "step failed",
				slog.String("operation_id", operationID),
				slog.String("step", id),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
			m.skipDependents(id, skipped)
			if !m.config.ContinueOnError {
				m.skipRemaining(order, id, skipped)
			}
			continue
		}

		stepState.Complete()
		m.broadcaster.BroadcastState(state)
		m.logger.InfoContext(ctx, "step completed",
			slog.String("operation_id", operationID),
			slog.String("step", id),
			slog.Duration("duration", stepState.Duration()))
	}

	if firstErr != nil {
		state.Fail(firstErr)
	} else {
		state.Complete()
	}
	m.broadcaster.Flush(state)
	m.logger.InfoContext(ctx, "operation finished",
		slog.String("operation_id", operationID),
		slog.String("status", state.Status()))

	return firstErr
}

// executeStep validates and runs one step with its configured timeout,
// retrying retryable failures with exponential backoff.
func (m *Manager) executeStep(ctx context.Context, step Step, stepState *StepState, state *OperationState) error {
	if err := step.Validate(state); err != nil {
		return WrapError(step.ID(), err)
	}

	var span trace.Span
	ctx, span = otel.Tracer(tracerName).Start(ctx, "step."+step.ID(),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID()),
			attribute.String("step.id", step.ID()),
		))
	defer span.End()

	stepState.Start()
	m.broadcaster.BroadcastState(state)

	retry := m.config.RetryConfig
	delay := retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, m.config.GetStepTimeout(step.ID()))
		err := step.Execute(stepCtx, state)
		cancel()

		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = NewTimeoutError(step.ID(),
				fmt.Sprintf("step exceeded timeout of %s", m.config.GetStepTimeout(step.ID())))
		}
		lastErr = WrapError(step.ID(), err)

		if ctx.Err() != nil || !IsRetryable(lastErr) || attempt == retry.MaxAttempts {
			break
		}

		m.logger.WarnContext(ctx, "retrying step",
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			err := NewCancellationError(step.ID())
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		delay = time.Duration(float64(delay) * retry.Multiplier)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

// checkDependencies verifies every dependency of the step completed.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState, ok := state.GetStep(dep)
		if !ok {
			return fmt.Errorf("dependency %s not scheduled", dep)
		}
		if depState.Status() != StepStatusCompleted {
			return fmt.Errorf("dependency %s is %s", dep, depState.Status())
		}
	}
	return nil
}

// skipDependents marks every transitive dependent of the failed step.
func (m *Manager) skipDependents(failedID string, skipped map[string]string) {
	for _, id := range m.registry.Dependents(failedID) {
		if _, ok := skipped[id]; !ok {
			skipped[id] = fmt.Sprintf("dependency %s failed", failedID)
		}
	}
}

// skipRemaining marks every step after the failed one that is not already
// skipped, used when ContinueOnError is off.
func (m *Manager) skipRemaining(order []string, failedID string, skipped map[string]string) {
	past := false
	for _, id := range order {
		if id == failedID {
			past = true
			continue
		}
		if !past {
			continue
		}
		if _, ok := skipped[id]; !ok {
			skipped[id] = fmt.Sprintf("aborted after %s failed", failedID)
		}
	}
}
