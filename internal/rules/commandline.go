// oreon/defense · watchthelight <wtl>

package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oreonproject/detect/internal/model"
)

// RuleCommandLine is the rule_name of command-line alerts.
const RuleCommandLine = "Suspicious PowerShell Command"

// Detection parameters of the command-line rule.
var (
	commandKeywords = []string{
		"invoke-expression",
		"downloadstring",
		"frombase64string",
		"iex",
		"-encodedcommand",
		"new-object",
		"start-process",
	}
	keywordPattern = regexp.MustCompile(`(?i)(` + strings.Join(quoteAll(commandKeywords), "|") + `)`)
	base64Pattern  = regexp.MustCompile(`[A-Za-z0-9+/]{80,}={0,2}`)
)

const longCommandThreshold = 200

// CommandLine flags obfuscated or download-and-execute style command lines.
type CommandLine struct{}

// Name returns the rule_name of the alerts this rule produces.
func (CommandLine) Name() string { return RuleCommandLine }

// Evaluate returns at most one High alert per event, in input order.
func (CommandLine) Evaluate(events []model.HostEvent) []model.Alert {
	alerts := make([]model.Alert, 0)
	for _, ev := range events {
		cmd := model.Str(ev.CommandLine)

		var parts []string
		if keywordPattern.MatchString(cmd) {
			parts = append(parts, "matches suspicious keywords")
		}
		if base64Pattern.MatchString(cmd) {
			parts = append(parts, "contains base64 payload-like string")
		}
		if utf8.RuneCountInString(cmd) > longCommandThreshold {
			parts = append(parts, "very long one-line command")
		}
		if len(parts) == 0 {
			continue
		}

		alerts = append(alerts, model.Alert{
			RuleName:      RuleCommandLine,
			Timestamp:     ev.Timestamp,
			Source:        model.Str(ev.User),
			DestOrCommand: cmd,
			Description:   strings.Join(parts, "; "),
			Severity:      model.SeverityHigh,
			DatasetSource: model.DatasetSysmon,
		})
	}
	return alerts
}

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}
