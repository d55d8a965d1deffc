// oreon/defense · watchthelight <wtl>

package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreonproject/detect/internal/model"
)

func sampleAlerts() []model.Alert {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []model.Alert{
		{
			RuleName:      "Suspicious PowerShell Command",
			Timestamp:     &ts,
			Source:        "alice",
			DestOrCommand: "powershell iex, \"quoted\"",
			Description:   "matches suspicious keywords",
			Severity:      model.SeverityHigh,
			DatasetSource: model.DatasetSysmon,
		},
		{
			RuleName:      "External IP on Unusual Port",
			Source:        "10.0.0.5",
			DestOrCommand: "8.8.8.8:12345",
			Description:   "dst_port=12345",
			Severity:      model.SeverityLow,
			DatasetSource: model.DatasetCICIDS2017,
		},
	}
}

func TestCSV_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "alerts.csv")
	s := NewCSV(path)
	require.NoError(t, s.Write(context.Background(), "run-1", sampleAlerts()))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, model.AlertColumns, rows[0])
	assert.Equal(t, "powershell iex, \"quoted\"", rows[1][3])
	assert.Equal(t, "2024-01-01T10:00:00Z", rows[1][1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "CIC-IDS2017", rows[2][6])
}

func TestCSV_EmptyWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.csv")
	require.NoError(t, NewCSV(path).Write(context.Background(), "run-1", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rule_name,timestamp,source,dest_or_command,description,severity,dataset_source\n", string(data))
}

func TestSQLite_WriteAndCount(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write(ctx, "run-1", sampleAlerts()))
	require.NoError(t, s.Write(ctx, "run-2", sampleAlerts()[:1]))

	n, err := s.Count(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var ts *string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT timestamp FROM alerts WHERE run_id = ? AND dataset_source = ?`, "run-1", "CIC-IDS2017").Scan(&ts))
	assert.Nil(t, ts, "nil timestamp stored as NULL")
}

func TestSQLite_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alerts.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "run-1", sampleAlerts()))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPostgresRows(t *testing.T) {
	rows := postgresRows("run-9", sampleAlerts())
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(postgresColumns))
	assert.Equal(t, "run-9", rows[0][0])
	assert.IsType(t, time.Time{}, rows[0][2])
	assert.Nil(t, rows[1][2])
	assert.Equal(t, "Low", rows[1][6])
}

type fakePublisher struct {
	msgs     []*nats.Msg
	flushes  int
	closed   bool
	failNext bool
}

func (f *fakePublisher) PublishMsg(m *nats.Msg) error {
	if f.failNext {
		return errors.New("nats: connection closed")
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakePublisher) FlushTimeout(time.Duration) error {
	f.flushes++
	return nil
}

func (f *fakePublisher) Close() { f.closed = true }

func TestNATS_Write(t *testing.T) {
	pub := &fakePublisher{}
	s := newNATS(pub, "")

	require.NoError(t, s.Write(context.Background(), "run-1", sampleAlerts()))
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, 1, pub.flushes)

	assert.Equal(t, "detect.alerts.sysmon", pub.msgs[0].Subject)
	assert.Equal(t, "detect.alerts.cic-ids2017", pub.msgs[1].Subject)
	assert.Equal(t, "run-1", pub.msgs[0].Header.Get(headerRunID))
	assert.Equal(t, "High", pub.msgs[0].Header.Get(headerSeverity))

	var decoded model.Alert
	require.NoError(t, json.Unmarshal(pub.msgs[1].Data, &decoded))
	assert.Equal(t, "8.8.8.8:12345", decoded.DestOrCommand)
	assert.Nil(t, decoded.Timestamp)

	require.NoError(t, s.Close())
	assert.True(t, pub.closed)
}

func TestNATS_NoAlertsNoFlush(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, newNATS(pub, "x").Write(context.Background(), "run-1", nil))
	assert.Equal(t, 0, pub.flushes)
}

func TestNATS_PublishError(t *testing.T) {
	pub := &fakePublisher{failNext: true}
	err := newNATS(pub, "x").Write(context.Background(), "run-1", sampleAlerts())
	assert.Error(t, err)
}

type closeErrSink struct{ *CSV }

func (closeErrSink) Close() error { return errors.New("boom") }

func TestCloseAll(t *testing.T) {
	err := CloseAll([]Sink{NewCSV("a.csv"), closeErrSink{NewCSV("b.csv")}, closeErrSink{NewCSV("c.csv")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSubjectToken(t *testing.T) {
	assert.Equal(t, "cic-ids2017", subjectToken("CIC-IDS2017"))
	assert.Equal(t, "a_b", subjectToken("a.b"))
	assert.Equal(t, "unknown", subjectToken(""))
}
