// oreon/defense · watchthelight <wtl>

package rules

import (
	"fmt"
	"strings"

	"github.com/oreonproject/detect/internal/model"
)

// RulePrivilege is the rule_name of privilege-escalation alerts.
const RulePrivilege = "User Privilege Escalation"

// Detection parameters of the privilege rule. The admin event ids are a
// sample of Windows security events, not an exhaustive list.
var (
	privilegeKeywords = []string{
		"added to administrators",
		"net localgroup administrators",
		"runas",
		"service install",
		"create service",
	}
	adminEventIDs = map[int]struct{}{
		4672: {},
		4728: {},
		4732: {},
		4727: {},
		1102: {},
	}
)

const (
	localAdminsPhrase    = "net localgroup administrators"
	privilegePlaceholder = "privilege escalation indicator"
)

// Privilege flags admin-group changes, special logons and elevation commands.
type Privilege struct{}

// Name returns the rule_name of the alerts this rule produces.
func (Privilege) Name() string { return RulePrivilege }

// Evaluate returns at most one Medium alert per event, in input order.
func (Privilege) Evaluate(events []model.HostEvent) []model.Alert {
	alerts := make([]model.Alert, 0)
	for _, ev := range events {
		cmd := model.Str(ev.CommandLine)
		lower := strings.ToLower(cmd)

		hit := false
		var parts []string
		if ev.EventID != nil {
			if _, ok := adminEventIDs[*ev.EventID]; ok {
				hit = true
				parts = append(parts, fmt.Sprintf("eventid=%d", *ev.EventID))
			}
		}
		for _, kw := range privilegeKeywords {
			if strings.Contains(lower, kw) {
				hit = true
				parts = append(parts, fmt.Sprintf("command contains '%s'", kw))
			}
		}
		// Checked again on its own so the local admins case never depends
		// on the keyword list; the duplicate note is expected.
		if strings.Contains(lower, localAdminsPhrase) {
			hit = true
			parts = append(parts, "net localgroup administrators add")
		}
		if !hit {
			continue
		}

		desc := strings.Join(parts, "; ")
		if desc == "" {
			desc = privilegePlaceholder
		}
		alerts = append(alerts, model.Alert{
			RuleName:      RulePrivilege,
			Timestamp:     ev.Timestamp,
			Source:        model.Str(ev.User),
			DestOrCommand: cmd,
			Description:   desc,
			Severity:      model.SeverityMedium,
			DatasetSource: model.DatasetSysmon,
		})
	}
	return alerts
}
