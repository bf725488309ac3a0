package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad payload")
	assert.Equal(t, "bad payload", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "missing", "operation op-1")
	assert.Equal(t, "operation op-1", err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("horizon", "must be between 1 and 24")
	require.IsType(t, ValidationError{}, err.Details)
	detail := err.Details.(ValidationError)
	assert.Equal(t, "horizon", detail.Field)
}

func TestPlanInfeasibleError(t *testing.T) {
	err := PlanInfeasibleError(errors.New("class argyll short 250 hours in month 1"))
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, "PLAN_INFEASIBLE", err.ErrorCode)
	assert.Contains(t, err.Details, "short 250 hours")
}

func TestCorruptedInputError(t *testing.T) {
	err := CorruptedInputError(errors.New("monthly_sales.csv line 3: mojibake"))
	assert.Equal(t, "CORRUPTED_INPUT", err.ErrorCode)
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrOperationNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OPERATION_NOT_FOUND", resp.Error.ErrorCode)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "classes", Message: "unknown class"},
		{Field: "horizon", Message: "too large"},
	})
	detail := err.Details.(ValidationErrors)
	assert.Len(t, detail.Errors, 2)
}

func TestErrPanic(t *testing.T) {
	err := ErrPanic("boom")
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	detail := err.Details.(PanicRecovery)
	assert.Equal(t, "boom", detail.Message)
}
