// oreon/defense · watchthelight <wtl>

package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oreonproject/detect/internal/model"
)

// RuleNetwork is the rule_name of network-anomaly alerts.
const RuleNetwork = "External IP on Unusual Port"

// Detection parameters of the network rule.
var (
	benignPorts = map[int]struct{}{
		80:   {},
		443:  {},
		22:   {},
		3389: {},
		53:   {},
	}
	c2Ports = map[int]struct{}{
		6667:  {},
		8080:  {},
		8443:  {},
		31337: {},
		4444:  {},
		5555:  {},
		135:   {},
	}
)

// nullPort renders a missing destination port.
const nullPort = "null"

// Resolver performs reverse-DNS lookups. *net.Resolver satisfies it.
// Implementations bound their own latency; the rule enforces no timeout.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Network flags connections to public addresses on ports outside the
// benign allowlist.
type Network struct {
	// EnrichRDNS appends reverse-DNS names of the destination.
	EnrichRDNS bool
	Resolver   Resolver
}

// Name returns the rule_name of the alerts this rule produces.
func (Network) Name() string { return RuleNetwork }

// Evaluate returns at most one alert per flow, in input order.
// Lookup failures only drop the enrichment.
func (n Network) Evaluate(ctx context.Context, flows []model.Flow) []model.Alert {
	alerts := make([]model.Alert, 0)
	for _, fl := range flows {
		dst := model.Str(fl.DstIP)
		if dst == "" || !IsPublic(dst) {
			continue
		}
		if fl.DstPort != nil {
			if _, ok := benignPorts[*fl.DstPort]; ok {
				continue
			}
		}

		port := nullPort
		if fl.DstPort != nil {
			port = strconv.Itoa(*fl.DstPort)
		}

		parts := []string{"dst_port=" + port}
		severity := model.SeverityLow
		if fl.DstPort != nil {
			if _, ok := c2Ports[*fl.DstPort]; ok {
				severity = model.SeverityHigh
				parts = append(parts, "known C2 port")
			}
		}
		if n.EnrichRDNS {
			if names := n.reverse(ctx, dst); names != "" {
				parts = append(parts, "rDNS="+names)
			}
		}

		alerts = append(alerts, model.Alert{
			RuleName:      RuleNetwork,
			Timestamp:     fl.Timestamp,
			Source:        model.Str(fl.SrcIP),
			DestOrCommand: fmt.Sprintf("%s:%s", dst, port),
			Description:   strings.Join(parts, "; "),
			Severity:      severity,
			DatasetSource: model.DatasetCICIDS2017,
		})
	}
	return alerts
}

// reverse returns the PTR names joined by ";", or "" on any failure.
func (n Network) reverse(ctx context.Context, ip string) string {
	if n.Resolver == nil {
		return ""
	}
	names, err := n.Resolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.Join(names, ";")
}
