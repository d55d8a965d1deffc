// oreon/defense · watchthelight <wtl>

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oreonproject/detect/internal/model"
)

const (
	// DefaultSubject receives one message per alert.
	DefaultSubject = "detect.alerts"

	// ConnectTimeout bounds the initial NATS connection.
	ConnectTimeout = 10 * time.Second

	// FlushTimeout bounds waiting for the server to ack a run's messages.
	FlushTimeout = 5 * time.Second

	headerRunID    = "Detect-Run-Id"
	headerSeverity = "Detect-Severity"
)

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATS publishes every alert as a JSON message on subject.<dataset>.
type NATS struct {
	conn    publisher
	subject string
}

// ConnectNATS dials url and returns a publishing sink.
func ConnectNATS(url, subject string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Timeout(ConnectTimeout), nats.Name("oreon-detect"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return newNATS(conn, subject), nil
}

func newNATS(conn publisher, subject string) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{conn: conn, subject: subject}
}

// Name implements Sink.
func (n *NATS) Name() string { return "nats" }

// Subject returns the subject an alert is published on.
func (n *NATS) Subject(a model.Alert) string {
	return n.subject + "." + subjectToken(a.DatasetSource)
}

// Write implements Sink.
func (n *NATS) Write(_ context.Context, runID string, alerts []model.Alert) error {
	for _, a := range alerts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal alert: %w", err)
		}
		msg := nats.NewMsg(n.Subject(a))
		msg.Header.Set(headerRunID, runID)
		msg.Header.Set(headerSeverity, string(a.Severity))
		msg.Data = data
		if err := n.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish alert: %w", err)
		}
	}
	if len(alerts) == 0 {
		return nil
	}
	if err := n.conn.FlushTimeout(FlushTimeout); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

// Close implements Sink.
func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}

// subjectToken makes a dataset label usable as one subject token.
func subjectToken(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}
