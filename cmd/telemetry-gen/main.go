// oreon/defense · watchthelight <wtl>

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oreonproject/detect/internal/synth"
	"github.com/oreonproject/detect/internal/table"
)

func main() {
	defaults := synth.DefaultOptions()
	outDir := flag.String("out", "data/real", "output directory")
	hosts := flag.Int("hosts", defaults.Hosts, "number of host events")
	flows := flag.Int("flows", defaults.Flows, "number of network flows")
	seed := flag.Uint64("seed", 0, "random seed (0 = random)")
	ratio := flag.Float64("suspicious", defaults.SuspiciousRatio, "share of rows meant to trigger a rule")
	flag.Parse()

	if *hosts < 0 || *flows < 0 || *ratio < 0 || *ratio > 1 {
		fmt.Fprintln(os.Stderr, "telemetry-gen: counts must be >= 0 and -suspicious within [0,1]")
		os.Exit(2)
	}

	opts := defaults
	opts.Hosts, opts.Flows, opts.Seed, opts.SuspiciousRatio = *hosts, *flows, *seed, *ratio
	g := synth.New(opts)

	outputs := []struct {
		name string
		t    *table.Table
	}{
		{"sysmon_sample.csv", g.HostEvents()},
		{"cicflows_sample.csv", g.Flows()},
	}
	for _, o := range outputs {
		path := filepath.Join(*outDir, o.name)
		if err := table.WriteCSV(path, o.t); err != nil {
			slog.Error("failed to write sample", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("wrote sample", "path", path, "rows", o.t.Len())
	}
}
