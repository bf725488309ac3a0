package operations

import "time"

// Step status values shared by StepState and OperationState.
const (
	StepStatusPending   = "pending"
	StepStatusActive    = "active"
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
	StepStatusSkipped   = "skipped"
	StepStatusCancelled = "cancelled"
)

// Step IDs for the planning pipeline.
const (
	StepIDValidate   = "validate"
	StepIDForecast   = "forecast"
	StepIDAggregate  = "aggregate"
	StepIDAssign     = "assign"
	StepIDMasterPlan = "masterplan"
	StepIDMRP        = "mrp"
	StepIDSchedule   = "schedule"
	StepIDExport     = "export"
)

// Display names for the planning steps.
const (
	StepNameValidate   = "Input Validation"
	StepNameForecast   = "Demand Forecasting"
	StepNameAggregate  = "Aggregate Planning"
	StepNameAssign     = "Hour Assignment"
	StepNameMasterPlan = "Master Production Plan"
	StepNameMRP        = "Material Requirements"
	StepNameSchedule   = "Order Scheduling"
	StepNameExport     = "Results Export"
)

// Default timeouts per step.
const (
	DefaultStepTimeout     = 5 * time.Minute
	DefaultValidateTimeout = 1 * time.Minute
	DefaultForecastTimeout = 10 * time.Minute
	DefaultAssignTimeout   = 10 * time.Minute
	DefaultExportTimeout   = 5 * time.Minute
)

// Context keys for values propagated through step execution.
type contextKey string

const (
	// ContextKeyOperationID carries the operation ID through step contexts.
	ContextKeyOperationID contextKey = "operation_id"
)

// RetryConfig controls how failed steps are retried.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Config represents the operation execution configuration.
type Config struct {
	// Step-specific timeouts, keyed by step ID.
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Retry configuration applied to retryable step failures.
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue executing independent steps after a failure.
	ContinueOnError bool `json:"continue_on_error"`
}

// NewConfig returns the default operation configuration.
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDValidate: DefaultValidateTimeout,
			StepIDForecast: DefaultForecastTimeout,
			StepIDAssign:   DefaultAssignTimeout,
			StepIDExport:   DefaultExportTimeout,
		},
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: false,
	}
}

// GetStepTimeout returns the timeout for a specific step.
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific step.
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// OperationRequest describes a pipeline run submitted over the API.
type OperationRequest struct {
	// Classes selects which footwear classes to plan. Empty means all
	// classes configured for the installation.
	Classes []string `json:"classes,omitempty" validate:"omitempty,dive,alpha"`

	// Horizon overrides the configured forecast horizon in months.
	Horizon int `json:"horizon,omitempty" validate:"omitempty,min=1,max=24"`

	// SkipScheduling disables the order scheduling step even when an
	// orders workbook is present.
	SkipScheduling bool `json:"skip_scheduling,omitempty"`
}

// OperationResponse summarizes a finished or in-flight pipeline run.
type OperationResponse struct {
	OperationID string        `json:"operation_id"`
	Status      string        `json:"status"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Duration    time.Duration `json:"duration"`
	Steps       []StepSummary `json:"steps"`
	Error       string        `json:"error,omitempty"`
}

// StepSummary is the per-step portion of an OperationResponse.
type StepSummary struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Progress float64       `json:"progress"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
