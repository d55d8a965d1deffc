// oreon/defense · watchthelight <wtl>

// Package metrics holds the Prometheus counters of a detection run and
// exports them in the node_exporter textfile format.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oreonproject/detect/internal/rules"
)

const namespace = "detect"

// rDNS lookup outcomes.
const (
	LookupOK    = "ok"
	LookupError = "error"
	LookupEmpty = "empty"
)

// Metrics holds all the Prometheus metrics for a run.
type Metrics struct {
	registry *prometheus.Registry

	RowsLoaded   *prometheus.CounterVec
	Alerts       *prometheus.CounterVec
	DedupRemoved prometheus.Counter
	RDNSLookups  *prometheus.CounterVec
	SinkErrors   *prometheus.CounterVec
	RunDuration  prometheus.Gauge
	LastRun      prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Canonical records loaded per dataset",
		}, []string{"dataset"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts produced per rule before deduplication",
		}, []string{"rule"}),
		DedupRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_removed_total",
			Help:      "Alerts dropped as duplicates",
		}),
		RDNSLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rdns_lookups_total",
			Help:      "Reverse-DNS lookups by result",
		}, []string{"result"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sink writes",
		}, []string{"sink"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	m.registry.MustRegister(
		m.RowsLoaded,
		m.Alerts,
		m.DedupRemoved,
		m.RDNSLookups,
		m.SinkErrors,
		m.RunDuration,
		m.LastRun,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRun records the run's wall time and completion time.
func (m *Metrics) ObserveRun(d time.Duration, finished time.Time) {
	m.RunDuration.Set(d.Seconds())
	m.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile atomically writes the current values to path.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// WrapResolver counts every lookup made through next.
func (m *Metrics) WrapResolver(next rules.Resolver) rules.Resolver {
	return &countingResolver{next: next, lookups: m.RDNSLookups}
}

type countingResolver struct {
	next    rules.Resolver
	lookups *prometheus.CounterVec
}

func (c *countingResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	names, err := c.next.LookupAddr(ctx, addr)
	switch {
	case err != nil:
		c.lookups.WithLabelValues(LookupError).Inc()
	case len(names) == 0:
		c.lookups.WithLabelValues(LookupEmpty).Inc()
	default:
		c.lookups.WithLabelValues(LookupOK).Inc()
	}
	return names, err
}
