// oreon/defense · watchthelight <wtl>

// Package model holds the canonical input records and the alert produced
// by every detection rule.
package model

import (
	"time"
)

// HostEvent is one normalized process-execution record.
// A nil field means no source column matched or the value was unparsable.
type HostEvent struct {
	Timestamp   *time.Time
	User        *string
	CommandLine *string
	EventID     *int
	Computer    *string
}

// Flow is one normalized network-flow record.
type Flow struct {
	Timestamp *time.Time
	SrcIP     *string
	DstIP     *string
	DstPort   *int
	Protocol  *string
}

// Dataset labels carried in Alert.DatasetSource.
const (
	DatasetSysmon     = "Sysmon"
	DatasetCICIDS2017 = "CIC-IDS2017"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Rank orders severities from Low (1) to High (3); unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// AlertColumns is the column order every sink writes.
var AlertColumns = []string{
	"rule_name",
	"timestamp",
	"source",
	"dest_or_command",
	"description",
	"severity",
	"dataset_source",
}

// TimestampLayout is the textual form of alert timestamps.
const TimestampLayout = time.RFC3339

// Alert is the output unit of every rule.
type Alert struct {
	RuleName      string     `json:"rule_name" yaml:"rule_name"`
	Timestamp     *time.Time `json:"timestamp" yaml:"timestamp"`
	Source        string     `json:"source" yaml:"source"`
	DestOrCommand string     `json:"dest_or_command" yaml:"dest_or_command"`
	Description   string     `json:"description" yaml:"description"`
	Severity      Severity   `json:"severity" yaml:"severity"`
	DatasetSource string     `json:"dataset_source" yaml:"dataset_source"`
}

// Record renders the alert as a row in AlertColumns order.
func (a Alert) Record() []string {
	return []string{
		a.RuleName,
		FormatTime(a.Timestamp),
		a.Source,
		a.DestOrCommand,
		a.Description,
		string(a.Severity),
		a.DatasetSource,
	}
}

// FormatTime renders t with TimestampLayout, or "" when t is nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimestampLayout)
}

// Str dereferences an optional string, returning "" for nil.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
