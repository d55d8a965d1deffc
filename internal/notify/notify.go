// oreon/defense · watchthelight <wtl>

// Package notify raises a desktop notification when a run produces
// alerts at or above a severity threshold.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oreonproject/detect/internal/model"
)

// maxBodyLines caps the per-rule lines in a notification body.
const maxBodyLines = 5

// Notifier delivers a single message to the user.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
	Close() error
}

// Dispatcher filters alerts by severity and sends one notification per run.
type Dispatcher struct {
	notifier  Notifier
	threshold model.Severity
}

// NewDispatcher creates a dispatcher sending through n. An invalid
// threshold falls back to High.
func NewDispatcher(n Notifier, threshold model.Severity) *Dispatcher {
	if !threshold.Valid() {
		threshold = model.SeverityHigh
	}
	return &Dispatcher{notifier: n, threshold: threshold}
}

// Dispatch notifies about the alerts at or above the threshold and returns
// how many qualified. Nothing is sent when none do.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []model.Alert) (int, error) {
	summary, body, n := d.Compose(alerts)
	if n == 0 {
		return 0, nil
	}
	if err := d.notifier.Notify(ctx, summary, body); err != nil {
		return n, fmt.Errorf("send notification: %w", err)
	}
	return n, nil
}

// Compose builds the notification text for alerts at or above the
// threshold.
func (d *Dispatcher) Compose(alerts []model.Alert) (summary, body string, n int) {
	perRule := make(map[string]int)
	for _, a := range alerts {
		if a.Severity.Rank() < d.threshold.Rank() {
			continue
		}
		perRule[a.RuleName]++
		n++
	}
	if n == 0 {
		return "", "", 0
	}

	names := make([]string, 0, len(perRule))
	for name := range perRule {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if perRule[names[i]] != perRule[names[j]] {
			return perRule[names[i]] > perRule[names[j]]
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, maxBodyLines+1)
	for i, name := range names {
		if i == maxBodyLines {
			lines = append(lines, fmt.Sprintf("and %d more rules", len(names)-maxBodyLines))
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %d", name, perRule[name]))
	}

	noun := "alerts"
	if n == 1 {
		noun = "alert"
	}
	summary = fmt.Sprintf("Detect: %d %s at %s or above", n, noun, d.threshold)
	return summary, strings.Join(lines, "\n"), n
}
