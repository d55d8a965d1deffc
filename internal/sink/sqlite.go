// oreon/defense · watchthelight <wtl>

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oreonproject/detect/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	rule_name       TEXT NOT NULL,
	timestamp       TEXT,
	source          TEXT NOT NULL,
	dest_or_command TEXT NOT NULL,
	description     TEXT NOT NULL,
	severity        TEXT NOT NULL,
	dataset_source  TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_run_id ON alerts(run_id);
CREATE INDEX IF NOT EXISTS alerts_rule_time ON alerts(rule_name, timestamp);
`

// SQLite appends alerts to a local database, one row per alert, tagged
// with the run id.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Name implements Sink.
func (s *SQLite) Name() string { return "sqlite" }

// Write implements Sink. All rows of a run commit together.
func (s *SQLite) Write(ctx context.Context, runID string, alerts []model.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO alerts
		(run_id, rule_name, timestamp, source, dest_or_command, description, severity, dataset_source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sqlite insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range alerts {
		a := &alerts[i]
		var ts any
		if a.Timestamp != nil {
			ts = model.FormatTime(a.Timestamp)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, a.RuleName, ts, a.Source, a.DestOrCommand,
			a.Description, string(a.Severity), a.DatasetSource, now,
		); err != nil {
			return fmt.Errorf("insert sqlite alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite alerts: %w", err)
	}
	return nil
}

// Count returns the number of stored alerts for a run, or for all runs
// when runID is empty.
func (s *SQLite) Count(ctx context.Context, runID string) (int, error) {
	q := `SELECT COUNT(*) FROM alerts`
	args := []any{}
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sqlite alerts: %w", err)
	}
	return n, nil
}

// Close implements Sink.
func (s *SQLite) Close() error {
	return s.db.Close()
}
