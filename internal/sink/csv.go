// oreon/defense · watchthelight <wtl>

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oreonproject/detect/internal/model"
)

// CSV writes the alert table to a delimited file, replacing it each run.
type CSV struct {
	path string
}

// NewCSV creates a CSV sink for path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Name implements Sink.
func (c *CSV) Name() string { return "csv" }

// Path returns the output file.
func (c *CSV) Path() string { return c.path }

// Write implements Sink. The header is written even for zero alerts.
func (c *CSV) Write(_ context.Context, _ string, alerts []model.Alert) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(model.AlertColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range alerts {
		if err := w.Write(a.Record()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

// Close implements Sink.
func (c *CSV) Close() error { return nil }
