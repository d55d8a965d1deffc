// oreon/defense · watchthelight <wtl>

package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestEmitter(buf *bytes.Buffer, opts ...EmitterOption) *Emitter {
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return NewEmitter(append([]EmitterOption{WithLogger(logger)}, opts...)...)
}

func TestEmit_Success(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Emit(StartRule("Suspicious PowerShell Command").Alerts(3).End())

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["msg"] != "rule" {
		t.Errorf("msg = %v, want rule", line["msg"])
	}
	if line[FieldAlerts] != float64(3) {
		t.Errorf("alerts = %v, want 3", line[FieldAlerts])
	}
	if line[FieldRuleName] != "Suspicious PowerShell Command" {
		t.Errorf("rule_name = %v", line[FieldRuleName])
	}
	if e.Emitted() != 1 {
		t.Errorf("Emitted() = %d, want 1", e.Emitted())
	}
}

func TestEmit_ZeroSampleRateDropsSuccess(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf, WithSampleRate(0))

	e.Emit(StartDedup().Counts(4, 2).End())

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestEmit_ErrorsAlwaysEmitted(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf, WithSampleRate(0))

	b := StartSink("sqlite")
	b.SetError(errors.New("disk full"))
	e.Emit(b.End())

	out := buf.String()
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("expected ERROR level, got %q", out)
	}
	if !strings.Contains(out, "disk full") {
		t.Errorf("expected error text, got %q", out)
	}
}

func TestEmit_SlowAlwaysEmitted(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf, WithSampleRate(0), WithSlowThreshold(time.Nanosecond))

	evt := StartLoad("Sysmon", "x.csv").Rows(1).End()
	evt.Duration = time.Millisecond
	e.Emit(evt)

	if buf.Len() == 0 {
		t.Fatal("slow event was dropped")
	}
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), `"slow":true`) {
		t.Errorf("slow event not flagged: %q", buf.String())
	}
	if e.EmittedOf(EventTypeLoad) != 1 || e.EmittedOf(EventTypeRule) != 0 {
		t.Errorf("per-stage counts wrong: load=%d rule=%d", e.EmittedOf(EventTypeLoad), e.EmittedOf(EventTypeRule))
	}
}

func TestEmit_NilEmitter(t *testing.T) {
	var e *Emitter
	e.Emit(StartDedup().End())
}

func TestStartRun_SharesRunID(t *testing.T) {
	run := StartRun(true)
	if run.ID() == "" {
		t.Fatal("run id is empty")
	}
	evt := run.Inputs(2, 3).Alerts(1, 1).End()
	if evt.RunID != evt.OperationID {
		t.Errorf("RunID = %q, OperationID = %q", evt.RunID, evt.OperationID)
	}
	if evt.Fields[FieldEnrichRDNS] != true {
		t.Errorf("enrich_rdns = %v", evt.Fields[FieldEnrichRDNS])
	}
}

func TestBuilder_SetErrorNil(t *testing.T) {
	evt := Start(EventTypeLoad, "loader").SetError(nil).End()
	if !evt.Success {
		t.Error("nil error marked event as failed")
	}
}

func TestRunBuilder_Reports(t *testing.T) {
	run := StartRun(false)
	evt := run.Reports("", 2).End()
	if _, ok := evt.Fields[FieldSummaryPath]; ok {
		t.Errorf("summary_path set for empty path")
	}
	if evt.Fields[FieldNotifications] != 2 {
		t.Errorf("notifications = %v, want 2", evt.Fields[FieldNotifications])
	}

	evt = StartRun(false).Reports("alerts_summary.yaml", 0).End()
	if evt.Fields[FieldSummaryPath] != "alerts_summary.yaml" {
		t.Errorf("summary_path = %v", evt.Fields[FieldSummaryPath])
	}
}
