// oreon/defense · watchthelight <wtl>

package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oreonproject/detect/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id              BIGSERIAL PRIMARY KEY,
	run_id          TEXT NOT NULL,
	rule_name       TEXT NOT NULL,
	timestamp       TIMESTAMPTZ,
	source          TEXT NOT NULL,
	dest_or_command TEXT NOT NULL,
	description     TEXT NOT NULL,
	severity        TEXT NOT NULL,
	dataset_source  TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS alerts_run_id ON alerts(run_id);
`

var postgresColumns = []string{
	"run_id", "rule_name", "timestamp", "source", "dest_or_command",
	"description", "severity", "dataset_source",
}

// Postgres bulk-loads alerts into a shared database with COPY.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the alerts table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Name implements Sink.
func (p *Postgres) Name() string { return "postgres" }

// Write implements Sink.
func (p *Postgres) Write(ctx context.Context, runID string, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	n, err := p.pool.CopyFrom(ctx, pgx.Identifier{"alerts"}, postgresColumns, pgx.CopyFromRows(postgresRows(runID, alerts)))
	if err != nil {
		return fmt.Errorf("copy postgres alerts: %w", err)
	}
	if int(n) != len(alerts) {
		return fmt.Errorf("copy postgres alerts: wrote %d of %d rows", n, len(alerts))
	}
	return nil
}

func postgresRows(runID string, alerts []model.Alert) [][]any {
	rows := make([][]any, len(alerts))
	for i := range alerts {
		a := &alerts[i]
		rows[i] = []any{
			runID,
			a.RuleName,
			nullableTime(a),
			a.Source,
			a.DestOrCommand,
			a.Description,
			string(a.Severity),
			a.DatasetSource,
		}
	}
	return rows
}

// Close implements Sink.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
