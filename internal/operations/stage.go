package operations

import (
	"context"
	"sync"
	"time"
)

// Step defines one stage of the planning pipeline.
type Step interface {
	// ID returns the unique identifier of the step.
	ID() string

	// Name returns a human-readable step name.
	Name() string

	// Execute runs the step against the shared operation state.
	Execute(ctx context.Context, state *OperationState) error

	// Validate checks that the state carries what the step needs.
	Validate(state *OperationState) error

	// GetDependencies returns the IDs of steps that must complete first.
	GetDependencies() []string
}

// StepState tracks the execution state of a single step.
type StepState struct {
	mu sync.RWMutex

	id        string
	name      string
	status    string
	progress  float64
	message   string
	err       error
	startTime time.Time
	endTime   time.Time
	metadata  map[string]any
}

// NewStepState creates a StepState in the pending status.
func NewStepState(id, name string) *StepState {
	return &StepState{
		id:       id,
		name:     name,
		status:   StepStatusPending,
		metadata: make(map[string]any),
	}
}

func (s *StepState) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *StepState) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *StepState) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *StepState) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *StepState) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

func (s *StepState) Error() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Start marks the step as active and records the start time.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusActive
	s.startTime = time.Now()
	s.progress = 0
}

// Complete marks the step as completed.
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusCompleted
	s.endTime = time.Now()
	s.progress = 100
}

// Fail marks the step as failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusFailed
	s.endTime = time.Now()
	s.err = err
	if err != nil {
		s.message = err.Error()
	}
}

// Skip marks the step as skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusSkipped
	s.endTime = time.Now()
	s.message = reason
}

// Cancel marks the step as cancelled.
func (s *StepState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepStatusCancelled
	s.endTime = time.Now()
}

// UpdateProgress records progress in percent with an optional message.
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.progress = progress
	if message != "" {
		s.message = message
	}
}

// Duration returns the elapsed time of the step.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}

// SetMetadata stores a named value on the step state.
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// GetMetadata retrieves a named value from the step state.
func (s *StepState) GetMetadata(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.metadata[key]
	return v, ok
}

// Summary returns an immutable snapshot suitable for API responses.
func (s *StepState) Summary() StepSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := StepSummary{
		ID:       s.id,
		Name:     s.name,
		Status:   s.status,
		Progress: s.progress,
	}
	if !s.startTime.IsZero() {
		end := s.endTime
		if end.IsZero() {
			end = time.Now()
		}
		summary.Duration = end.Sub(s.startTime)
	}
	if s.err != nil {
		summary.Error = s.err.Error()
	}
	return summary
}

// BaseStep provides common fields for Step implementations.
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a BaseStep with the given identity and dependencies.
func NewBaseStep(id, name string, dependencies ...string) BaseStep {
	return BaseStep{id: id, name: name, dependencies: dependencies}
}

func (b BaseStep) ID() string   { return b.id }
func (b BaseStep) Name() string { return b.name }

func (b BaseStep) GetDependencies() []string {
	deps := make([]string, len(b.dependencies))
	copy(deps, b.dependencies)
	return deps
}
