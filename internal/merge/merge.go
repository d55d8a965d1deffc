// oreon/defense · watchthelight <wtl>

// Package merge concatenates rule outputs and collapses near-duplicate
// alerts.
package merge

import (
	"time"

	"github.com/oreonproject/detect/internal/model"
)

// Result is the deduplicated alert table and its row counts.
type Result struct {
	Alerts []model.Alert
	Before int
	After  int
}

// Removed returns how many alerts dedup collapsed.
func (r Result) Removed() int {
	return r.Before - r.After
}

// key identifies an event for dedup purposes. A nil timestamp is its own
// key value, so alerts without time collapse per rule/source/dataset.
type key struct {
	rule    string
	source  string
	minute  int64
	hasTime bool
	dataset string
}

func keyOf(a model.Alert) key {
	k := key{rule: a.RuleName, source: a.Source, dataset: a.DatasetSource}
	if a.Timestamp != nil {
		k.minute = FloorMinute(*a.Timestamp).Unix()
		k.hasTime = true
	}
	return k
}

// FloorMinute truncates t to the start of its minute, in UTC.
func FloorMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// Merge concatenates the groups in argument order and deduplicates them.
func Merge(groups ...[]model.Alert) Result {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	all := make([]model.Alert, 0, total)
	for _, g := range groups {
		all = append(all, g...)
	}
	return Dedup(all)
}

// Dedup keeps the first alert of every (rule_name, source, minute,
// dataset_source) key, preserving input order.
func Dedup(alerts []model.Alert) Result {
	seen := make(map[key]struct{}, len(alerts))
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		k := keyOf(a)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return Result{Alerts: out, Before: len(alerts), After: len(out)}
}
