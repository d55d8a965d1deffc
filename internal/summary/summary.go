// oreon/defense · watchthelight <wtl>

// Package summary condenses an alert table into per-rule counts and an
// hourly timeline, written as a YAML report.
package summary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oreonproject/detect/internal/model"
)

// ErrNoAlerts is returned by WriteYAML for an empty summary.
var ErrNoAlerts = errors.New("no alerts to summarize")

// Summary is the report for one run.
type Summary struct {
	RunID       string    `yaml:"run_id,omitempty"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Total       int       `yaml:"total"`
	Rules       []Rule    `yaml:"rules"`
}

// Rule aggregates the alerts of a single rule.
type Rule struct {
	Name       string         `yaml:"name"`
	Count      int            `yaml:"count"`
	BySeverity map[string]int `yaml:"by_severity"`
	Untimed    int            `yaml:"untimed,omitempty"`
	Timeline   []Bucket       `yaml:"timeline,omitempty"`
}

// Bucket is the alert count within one UTC hour.
type Bucket struct {
	Hour  time.Time `yaml:"hour"`
	Count int       `yaml:"count"`
}

// Summarize groups alerts by rule. Rules are sorted by name and each
// timeline by hour; alerts without a timestamp count as untimed.
func Summarize(alerts []model.Alert) Summary {
	s := Summary{GeneratedAt: time.Now().UTC(), Total: len(alerts)}

	byRule := make(map[string]*Rule)
	hours := make(map[string]map[int64]int)
	for _, a := range alerts {
		r, ok := byRule[a.RuleName]
		if !ok {
			r = &Rule{Name: a.RuleName, BySeverity: make(map[string]int)}
			byRule[a.RuleName] = r
			hours[a.RuleName] = make(map[int64]int)
		}
		r.Count++
		r.BySeverity[string(a.Severity)]++
		if a.Timestamp == nil {
			r.Untimed++
			continue
		}
		h := a.Timestamp.UTC().Truncate(time.Hour).Unix()
		hours[a.RuleName][h]++
	}

	for name, r := range byRule {
		for h, n := range hours[name] {
			r.Timeline = append(r.Timeline, Bucket{Hour: time.Unix(h, 0).UTC(), Count: n})
		}
		sort.Slice(r.Timeline, func(i, j int) bool {
			return r.Timeline[i].Hour.Before(r.Timeline[j].Hour)
		})
		s.Rules = append(s.Rules, *r)
	}
	sort.Slice(s.Rules, func(i, j int) bool { return s.Rules[i].Name < s.Rules[j].Name })
	return s
}

// Counts returns the alert count per rule name.
func (s Summary) Counts() map[string]int {
	out := make(map[string]int, len(s.Rules))
	for _, r := range s.Rules {
		out[r.Name] = r.Count
	}
	return out
}

// WriteYAML writes s to path. Nothing is written when s holds no alerts.
func WriteYAML(path string, s Summary) error {
	if s.Total == 0 {
		return ErrNoAlerts
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create summary dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}
