// oreon/defense · watchthelight <wtl>

// Package sink persists the final alert table.
package sink

import (
	"context"
	"errors"

	"github.com/oreonproject/detect/internal/model"
)

// Sink persists one run's alerts. Every implementation keeps the
// model.AlertColumns order.
type Sink interface {
	Name() string
	Write(ctx context.Context, runID string, alerts []model.Alert) error
	Close() error
}

// CloseAll closes every sink and joins their errors.
func CloseAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// nullableTime converts an optional timestamp for database drivers.
func nullableTime(a *model.Alert) any {
	if a.Timestamp == nil {
		return nil
	}
	return a.Timestamp.UTC()
}
