package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepStateTransitions(t *testing.T) {
	s := NewStepState(StepIDForecast, StepNameForecast)
	assert.Equal(t, StepStatusPending, s.Status())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.Status())

	s.UpdateProgress(42, "halfway there")
	assert.Equal(t, 42.0, s.Progress())
	assert.Equal(t, "halfway there", s.Message())

	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.Status())
	assert.Equal(t, 100.0, s.Progress())
	assert.GreaterOrEqual(t, s.Duration().Nanoseconds(), int64(0))
}

func TestStepStateFail(t *testing.T) {
	s := NewStepState(StepIDAssign, StepNameAssign)
	s.Start()
	s.Fail(errors.New("no feasible assignment"))

	assert.Equal(t, StepStatusFailed, s.Status())
	assert.EqualError(t, s.Error(), "no feasible assignment")

	summary := s.Summary()
	assert.Equal(t, StepIDAssign, summary.ID)
	assert.Equal(t, "no feasible assignment", summary.Error)
}

func TestStepStateProgressClamped(t *testing.T) {
	s := NewStepState("x", "x")
	s.UpdateProgress(150, "")
	assert.Equal(t, 100.0, s.Progress())
	s.UpdateProgress(-5, "")
	assert.Equal(t, 0.0, s.Progress())
}

func TestStepStateMetadata(t *testing.T) {
	s := NewStepState("x", "x")
	_, ok := s.GetMetadata("references")
	assert.False(t, ok)

	s.SetMetadata("references", 12)
	v, ok := s.GetMetadata("references")
	require.True(t, ok)
	assert.Equal(t, 12, v)
}

func TestOperationStateLifecycle(t *testing.T) {
	state := NewOperationState("op-1", OperationRequest{Classes: []string{"argyll"}})
	assert.Equal(t, OperationStatusPending, state.Status())
	assert.Equal(t, []string{"argyll"}, state.Request().Classes)

	state.AddStep(NewStepState("a", "A"))
	state.AddStep(NewStepState("b", "B"))
	state.Start()
	assert.Equal(t, OperationStatusRunning, state.Status())

	steps := state.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].ID())
	assert.Equal(t, "b", steps[1].ID())

	state.Complete()
	resp := state.Response()
	assert.Equal(t, "op-1", resp.OperationID)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
	require.NotNil(t, resp.EndTime)
	require.Len(t, resp.Steps, 2)
}

func TestOperationStateFailResponse(t *testing.T) {
	state := NewOperationState("op-2", OperationRequest{})
	state.Start()
	state.Fail(errors.New("validate blew up"))

	resp := state.Response()
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, "validate blew up", resp.Error)
}

func TestOperationStateArtifacts(t *testing.T) {
	state := NewOperationState("op-3", OperationRequest{})
	_, ok := state.GetArtifact(ArtifactForecasts)
	assert.False(t, ok)

	state.SetArtifact(ArtifactForecasts, map[string]int{"argyll": 3})
	raw, ok := state.GetArtifact(ArtifactForecasts)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"argyll": 3}, raw)
}

func TestTypedArtifactHelper(t *testing.T) {
	state := NewOperationState("op-4", OperationRequest{})
	state.SetArtifact("counts", map[string]int{"pvc": 2})

	counts, err := artifact[map[string]int](state, "counts", "step")
	require.NoError(t, err)
	assert.Equal(t, 2, counts["pvc"])

	t.Run("missing", func(t *testing.T) {
		_, err := artifact[map[string]int](state, "absent", "step")
		assert.ErrorContains(t, err, "missing artifact absent")
	})
	t.Run("wrong type", func(t *testing.T) {
		_, err := artifact[[]string](state, "counts", "step")
		assert.ErrorContains(t, err, "unexpected type")
	})
}
