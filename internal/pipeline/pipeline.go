// oreon/defense · watchthelight <wtl>

// Package pipeline runs one detection batch: load both telemetry sources,
// evaluate every rule, merge and deduplicate, then hand the alert table to
// the sinks and reporters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oreonproject/detect/internal/loader"
	"github.com/oreonproject/detect/internal/merge"
	"github.com/oreonproject/detect/internal/metrics"
	"github.com/oreonproject/detect/internal/model"
	"github.com/oreonproject/detect/internal/notify"
	"github.com/oreonproject/detect/internal/rules"
	"github.com/oreonproject/detect/internal/sink"
	"github.com/oreonproject/detect/internal/summary"
	"github.com/oreonproject/detect/pkg/events"
)

// Detection is the output of the rule and merge stages.
type Detection struct {
	merge.Result
	// PerRule holds each rule's alert count before deduplication.
	PerRule map[string]int
}

// Detect evaluates the three rules and merges their alerts in
// command-line, privilege, network order.
func Detect(ctx context.Context, hosts []model.HostEvent, flows []model.Flow, network rules.Network) Detection {
	cmd := rules.CommandLine{}.Evaluate(hosts)
	priv := rules.Privilege{}.Evaluate(hosts)
	nw := network.Evaluate(ctx, flows)

	return Detection{
		Result: merge.Merge(cmd, priv, nw),
		PerRule: map[string]int{
			rules.RuleCommandLine: len(cmd),
			rules.RulePrivilege:   len(priv),
			rules.RuleNetwork:     len(nw),
		},
	}
}

// Options configures a Run. Zero values disable the optional stages.
type Options struct {
	HostEventsPath string
	FlowsPath      string
	Network        rules.Network

	Sinks           []sink.Sink
	SummaryPath     string
	MetricsTextfile string
	Metrics         *metrics.Metrics
	Notifier        *notify.Dispatcher

	Logger  *slog.Logger
	Emitter *events.Emitter
}

// Result describes a completed run.
type Result struct {
	RunID      string
	HostEvents int
	Flows      int
	Detection

	// SummaryPath is empty when no summary was written.
	SummaryPath string

	// Notified is the number of alerts that met the notification threshold.
	Notified int
}

// Run executes one batch. Load and sink failures are returned; summary,
// metrics and notification failures are only logged.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	network := opts.Network
	if network.EnrichRDNS && network.Resolver != nil {
		network.Resolver = m.WrapResolver(network.Resolver)
	}

	started := time.Now()
	run := events.StartRun(network.EnrichRDNS)
	runID := run.ID()
	logger = logger.With(events.FieldRunID, runID)

	res, err := execute(ctx, runID, opts, network, m, logger)
	if res != nil {
		run.Inputs(res.HostEvents, res.Flows).Alerts(len(res.Alerts), countSeverity(res.Alerts, model.SeverityHigh))
		run.Reports(res.SummaryPath, res.Notified)
	}
	run.SetError(err)
	opts.Emitter.Emit(run.End())
	if err != nil {
		return nil, err
	}

	m.ObserveRun(time.Since(started), time.Now())
	if opts.MetricsTextfile != "" {
		if err := m.WriteTextfile(opts.MetricsTextfile); err != nil {
			logger.Warn("failed to write metrics", "path", opts.MetricsTextfile, "error", err)
		}
	}
	return res, nil
}

func execute(ctx context.Context, runID string, opts Options, network rules.Network, m *metrics.Metrics, logger *slog.Logger) (*Result, error) {
	res := &Result{RunID: runID}

	evt := events.StartLoad(model.DatasetSysmon, opts.HostEventsPath)
	evt.Run(runID)
	hosts, err := loader.LoadHostEvents(opts.HostEventsPath, logger)
	evt.SetError(err)
	opts.Emitter.Emit(evt.Rows(len(hosts)).End())
	if err != nil {
		return nil, err
	}
	m.RowsLoaded.WithLabelValues(model.DatasetSysmon).Add(float64(len(hosts)))
	res.HostEvents = len(hosts)

	evt = events.StartLoad(model.DatasetCICIDS2017, opts.FlowsPath)
	evt.Run(runID)
	flows, err := loader.LoadFlows(opts.FlowsPath, logger)
	evt.SetError(err)
	opts.Emitter.Emit(evt.Rows(len(flows)).End())
	if err != nil {
		return nil, err
	}
	m.RowsLoaded.WithLabelValues(model.DatasetCICIDS2017).Add(float64(len(flows)))
	res.Flows = len(flows)

	res.Detection = detect(ctx, runID, hosts, flows, network, opts.Emitter)
	for _, name := range ruleOrder {
		n := res.PerRule[name]
		m.Alerts.WithLabelValues(name).Add(float64(n))
		logger.Info("rule evaluated", "rule", name, "alerts", n)
	}

	opts.Emitter.Emit(events.StartDedup().Counts(res.Before, res.After).Run(runID).End())
	m.DedupRemoved.Add(float64(res.Removed()))
	logger.Info("alerts merged", "before", res.Before, "after", res.After)

	for _, s := range opts.Sinks {
		if err := write(ctx, runID, s, res.Alerts, opts.Emitter); err != nil {
			m.SinkErrors.WithLabelValues(s.Name()).Inc()
			return nil, err
		}
		logger.Info("alerts saved", "sink", s.Name(), "alerts", len(res.Alerts), "target", target(s))
	}

	if report(runID, opts.SummaryPath, res.Alerts, logger) {
		res.SummaryPath = opts.SummaryPath
	}

	if opts.Notifier != nil {
		n, err := opts.Notifier.Dispatch(ctx, res.Alerts)
		res.Notified = n
		if err != nil {
			logger.Warn("failed to send notification", "alerts", n, "error", err)
		}
	}
	return res, nil
}

var ruleOrder = []string{rules.RuleCommandLine, rules.RulePrivilege, rules.RuleNetwork}

// detect wraps Detect with one rule event per rule.
func detect(ctx context.Context, runID string, hosts []model.HostEvent, flows []model.Flow, network rules.Network, em *events.Emitter) Detection {
	d := Detect(ctx, hosts, flows, network)
	for _, name := range ruleOrder {
		em.Emit(events.StartRule(name).Alerts(d.PerRule[name]).Run(runID).End())
	}
	return d
}

func write(ctx context.Context, runID string, s sink.Sink, alerts []model.Alert, em *events.Emitter) error {
	evt := events.StartSink(s.Name())
	evt.Run(runID)
	err := s.Write(ctx, runID, alerts)
	if err != nil {
		err = fmt.Errorf("write %s alerts: %w", s.Name(), err)
		evt.SetError(err)
	} else {
		evt.Written(len(alerts))
	}
	em.Emit(evt.End())
	return err
}

func target(s sink.Sink) string {
	if c, ok := s.(*sink.CSV); ok {
		return c.Path()
	}
	return s.Name()
}

// report writes the YAML summary and reports whether a file was written.
func report(runID, path string, alerts []model.Alert, logger *slog.Logger) bool {
	if path == "" {
		return false
	}
	sum := summary.Summarize(alerts)
	sum.RunID = runID
	err := summary.WriteYAML(path, sum)
	switch {
	case errors.Is(err, summary.ErrNoAlerts):
		logger.Info("no alerts to summarize")
	case err != nil:
		logger.Warn("failed to write summary", "path", path, "error", err)
	default:
		logger.Info("summary written", "path", path, "rules", len(sum.Rules))
		return true
	}
	return false
}

func countSeverity(alerts []model.Alert, sev model.Severity) int {
	n := 0
	for _, a := range alerts {
		if a.Severity == sev {
			n++
		}
	}
	return n
}
