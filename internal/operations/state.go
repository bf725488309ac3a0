package operations

import (
	"sync"
	"time"
)

// Operation status values.
const (
	OperationStatusPending   = "pending"
	OperationStatusRunning   = "running"
	OperationStatusCompleted = "completed"
	OperationStatusFailed    = "failed"
	OperationStatusCancelled = "cancelled"
)

// Artifact keys written and read by the planning steps.
const (
	ArtifactHistories  = "histories"
	ArtifactCatalogs   = "catalogs"
	ArtifactStock      = "stock"
	ArtifactTimes      = "standard_times"
	ArtifactCalendars  = "calendars"
	ArtifactForecasts  = "forecasts"
	ArtifactProfiles   = "profiles"
	ArtifactAggregates = "aggregates"
	ArtifactAssigns    = "assignments"
	ArtifactMasters    = "master_plans"
	ArtifactMRP        = "mrp"
	ArtifactPlans      = "class_plans"
	ArtifactShop       = "flow_shop"
	ArtifactSchedule   = "schedule"
)

// OperationState is the shared state of one pipeline run. Steps read the
// artifacts of their dependencies and publish their own results through it.
type OperationState struct {
	mu sync.RWMutex

	id        string
	status    string
	startTime time.Time
	endTime   time.Time
	err       error

	request OperationRequest

	steps map[string]*StepState
	order []string

	artifacts map[string]any
}

// NewOperationState creates a pending OperationState for the given request.
func NewOperationState(id string, req OperationRequest) *OperationState {
	return &OperationState{
		id:        id,
		status:    OperationStatusPending,
		request:   req,
		steps:     make(map[string]*StepState),
		artifacts: make(map[string]any),
	}
}

func (s *OperationState) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *OperationState) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *OperationState) Error() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Request returns the request that started the operation.
func (s *OperationState) Request() OperationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.request
}

// Start marks the operation as running.
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = OperationStatusRunning
	s.startTime = time.Now()
}

// Complete marks the operation as completed.
func (s *OperationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = OperationStatusCompleted
	s.endTime = time.Now()
}

// Fail marks the operation as failed with the given error.
func (s *OperationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = OperationStatusFailed
	s.endTime = time.Now()
	s.err = err
}

// Cancel marks the operation as cancelled.
func (s *OperationState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = OperationStatusCancelled
	s.endTime = time.Now()
}

// AddStep registers a step state, preserving registration order.
func (s *OperationState) AddStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.steps[step.ID()]; !exists {
		s.order = append(s.order, step.ID())
	}
	s.steps[step.ID()] = step
}

// GetStep returns the state of a step by ID.
func (s *OperationState) GetStep(id string) (*StepState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	step, ok := s.steps[id]
	return step, ok
}

// Steps returns the step states in registration order.
func (s *OperationState) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]*StepState, 0, len(s.order))
	for _, id := range s.order {
		steps = append(steps, s.steps[id])
	}
	return steps
}

// SetArtifact publishes a step result under a named key.
func (s *OperationState) SetArtifact(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[key] = value
}

// GetArtifact retrieves a step result by key.
func (s *OperationState) GetArtifact(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.artifacts[key]
	return v, ok
}

// Response builds an OperationResponse snapshot of the current state.
func (s *OperationState) Response() OperationResponse {
	s.mu.RLock()
	id := s.id
	status := s.status
	start := s.startTime
	end := s.endTime
	err := s.err
	order := make([]string, len(s.order))
	copy(order, s.order)
	steps := make([]*StepState, 0, len(order))
	for _, stepID := range order {
		steps = append(steps, s.steps[stepID])
	}
	s.mu.RUnlock()

	resp := OperationResponse{
		OperationID: id,
		Status:      status,
		StartTime:   start,
	}
	if !end.IsZero() {
		endCopy := end
		resp.EndTime = &endCopy
		resp.Duration = end.Sub(start)
	} else if !start.IsZero() {
		resp.Duration = time.Since(start)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	for _, step := range steps {
		resp.Steps = append(resp.Steps, step.Summary())
	}
	return resp
}
