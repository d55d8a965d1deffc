// oreon/defense · watchthelight <wtl>

package events

import (
	"time"
)

// EventType identifies the pipeline stage being logged.
type EventType string

const (
	EventTypeLoad        EventType = "load"
	EventTypeRule        EventType = "rule"
	EventTypeDedup       EventType = "dedup"
	EventTypeSink        EventType = "sink"
	EventTypePipelineRun EventType = "pipeline_run"
)

// Event represents a wide event / canonical log line.
// One Event is emitted per pipeline stage, containing all relevant context.
type Event struct {
	// Core identification
	Type        EventType `json:"event_type"`
	OperationID string    `json:"operation_id"`
	RunID       string    `json:"run_id,omitempty"`
	Component   string    `json:"component"`

	// Timing
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`

	// Outcome
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Stage-specific fields
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Standard field names for consistency across events.
const (
	FieldOperationID   = "operation_id"
	FieldRunID         = "run_id"
	FieldDurationMs    = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldDataset       = "dataset"
	FieldPath          = "path"
	FieldRows          = "rows"
	FieldRuleName      = "rule_name"
	FieldAlerts        = "alerts"
	FieldAlertsBefore  = "alerts_before"
	FieldAlertsAfter   = "alerts_after"
	FieldSinkKind      = "sink"
	FieldWritten       = "written"
	FieldEnrichRDNS    = "enrich_rdns"
	FieldHostEvents    = "host_events"
	FieldFlows         = "flows"
	FieldHighSeverity  = "high_severity"
	FieldSummaryPath   = "summary_path"
	FieldNotifications = "notifications"
)
