// Package flow defines the automation flow domain model shared by the store,
// the scheduler driver and the execution engine.
package flow

import "time"

// TriggerType selects how a flow is started.
type TriggerType string

const (
	TriggerSchedule TriggerType = "schedule"
	TriggerManual   TriggerType = "manual"
)

// Status gates whether a flow is eligible for triggering.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Run outcome recorded in ScheduleState.LastStatus.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// TriggerConfig holds the trigger-type-specific configuration. For schedule
// triggers only Cron is meaningful.
type TriggerConfig struct {
	Cron string `json:"cron,omitempty"`
}

// ScheduleState is the per-flow bookkeeping the scheduler driver maintains:
// the minute-key dedup token plus the outcome of the last run. It is written
// once per evaluated tick, after the execution attempt.
type ScheduleState struct {
	LastRunMinuteKey string    `json:"last_run_minute_key"`
	LastRunAt        time.Time `json:"last_run_at"`
	LastStatus       string    `json:"last_status"`
	LastError        string    `json:"last_error,omitempty"`
	LastExecutionID  string    `json:"last_execution_id,omitempty"`
}

// Flow is one stored automation definition.
type Flow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	TriggerType TriggerType    `json:"trigger_type"`
	Status      Status         `json:"status"`
	Trigger     TriggerConfig  `json:"trigger_config"`
	Action      string         `json:"action"`
	Params      map[string]any `json:"params,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Schedule    *ScheduleState `json:"schedule,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	TriggerType TriggerType
	Status      Status
}

// Match reports whether f passes the filter.
func (fl Filter) Match(f Flow) bool {
	if fl.TriggerType != "" && f.TriggerType != fl.TriggerType {
		return false
	}
	if fl.Status != "" && f.Status != fl.Status {
		return false
	}
	return true
}

// TriggerData is handed to the execution engine when a flow fires.
type TriggerData struct {
	Cron      string    `json:"cron,omitempty"`
	RunAt     time.Time `json:"run_at"`
	MinuteKey string    `json:"minute_key"`
}

// Result is what an execution attempt reports back to the driver. A non-empty
// Errors slice is the non-exceptional failure channel: the execution machinery
// ran, but the flow itself reported problems.
type Result struct {
	ExecutionID string   `json:"execution_id,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}
