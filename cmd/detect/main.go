// oreon/defense · watchthelight <wtl>

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oreonproject/detect/internal/metrics"
	"github.com/oreonproject/detect/internal/model"
	"github.com/oreonproject/detect/internal/notify"
	"github.com/oreonproject/detect/internal/pipeline"
	"github.com/oreonproject/detect/internal/resolver"
	"github.com/oreonproject/detect/internal/rules"
	"github.com/oreonproject/detect/internal/sink"
	"github.com/oreonproject/detect/pkg/config"
	"github.com/oreonproject/detect/pkg/events"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to detect.toml")
	hostEvents := flag.String("host-events", "", "process-execution CSV (overrides config)")
	flows := flag.String("flows", "", "network-flow CSV (overrides config)")
	out := flag.String("out", "", "alert CSV output (overrides config)")
	sqlitePath := flag.String("sqlite", "", "also append alerts to this SQLite database")
	summaryPath := flag.String("summary", "", "YAML summary output (overrides config)")
	noRDNS := flag.Bool("no-rdns", false, "disable reverse-DNS enrichment")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("oreon-detect v%s\n", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		return 1
	}
	override(&cfg.Input.HostEvents, *hostEvents)
	override(&cfg.Input.Flows, *flows)
	override(&cfg.Output.CSV, *out)
	override(&cfg.Output.SQLite, *sqlitePath)
	override(&cfg.Output.Summary, *summaryPath)
	if *noRDNS {
		cfg.Enrichment.RDNS = false
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	emitter := events.NewEmitter(
		events.WithLogger(logger),
		events.WithSampleRate(cfg.Logging.SampleRate),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := openSinks(ctx, cfg.Output)
	if err != nil {
		logger.Error("failed to open sinks", "error", err)
		return 1
	}
	defer func() {
		if err := sink.CloseAll(sinks); err != nil {
			logger.Warn("failed to close sinks", "error", err)
		}
	}()

	network, err := networkRule(cfg.Enrichment)
	if err != nil {
		logger.Error("failed to set up enrichment", "error", err)
		return 1
	}

	opts := pipeline.Options{
		HostEventsPath:  cfg.Input.HostEvents,
		FlowsPath:       cfg.Input.Flows,
		Network:         network,
		Sinks:           sinks,
		SummaryPath:     cfg.Output.Summary,
		MetricsTextfile: cfg.Output.MetricsTextfile,
		Metrics:         metrics.New(),
		Logger:          logger,
		Emitter:         emitter,
	}
	if cfg.Notify.Desktop {
		desktop, err := notify.NewDesktop()
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			defer desktop.Close()
			opts.Notifier = notify.NewDispatcher(desktop, model.Severity(cfg.Notify.MinSeverity))
		}
	}

	res, err := pipeline.Run(ctx, opts)
	if err != nil {
		logger.Error("detection run failed", "error", err)
		return 1
	}

	logger.Info("detection complete",
		"run_id", res.RunID,
		"alerts", len(res.Alerts),
		"duplicates_removed", res.Removed(),
	)
	return 0
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// openSinks opens every configured output. Already opened sinks are
// closed when a later one fails.
func openSinks(ctx context.Context, out config.Output) ([]sink.Sink, error) {
	var sinks []sink.Sink
	fail := func(err error) ([]sink.Sink, error) {
		sink.CloseAll(sinks)
		return nil, err
	}

	if out.CSV != "" {
		sinks = append(sinks, sink.NewCSV(out.CSV))
	}
	if out.SQLite != "" {
		s, err := sink.OpenSQLite(out.SQLite)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if out.PostgresDSN != "" {
		s, err := sink.OpenPostgres(ctx, out.PostgresDSN)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if out.NATSURL != "" {
		s, err := sink.ConnectNATS(out.NATSURL, out.NATSSubject)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func networkRule(e config.Enrichment) (rules.Network, error) {
	if !e.RDNS {
		return rules.Network{}, nil
	}
	cached, err := resolver.NewCached(resolver.NewDNS(e.Nameserver, e.Timeout.Duration), e.CacheSize)
	if err != nil {
		return rules.Network{}, err
	}
	return rules.Network{EnrichRDNS: true, Resolver: cached}, nil
}
