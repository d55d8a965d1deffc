// oreon/defense · watchthelight <wtl>

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreonproject/detect/internal/model"
)

type message struct{ summary, body string }

type fakeNotifier struct {
	sent []message
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, summary, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message{summary, body})
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

func alert(rule string, sev model.Severity) model.Alert {
	return model.Alert{RuleName: rule, Severity: sev}
}

func TestDispatch_HighOnly(t *testing.T) {
	f := &fakeNotifier{}
	d := NewDispatcher(f, model.SeverityHigh)

	n, err := d.Dispatch(context.Background(), []model.Alert{
		alert("Suspicious PowerShell Command", model.SeverityHigh),
		alert("User Privilege Escalation", model.SeverityMedium),
		alert("External IP on Unusual Port", model.SeverityHigh),
		alert("Suspicious PowerShell Command", model.SeverityHigh),
		alert("External IP on Unusual Port", model.SeverityLow),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, f.sent, 1)
	assert.Equal(t, "Detect: 3 alerts at High or above", f.sent[0].summary)
	assert.Equal(t, "Suspicious PowerShell Command: 2\nExternal IP on Unusual Port: 1", f.sent[0].body)
}

func TestDispatch_NothingQualifies(t *testing.T) {
	f := &fakeNotifier{}
	n, err := NewDispatcher(f, model.SeverityHigh).Dispatch(context.Background(), []model.Alert{
		alert("User Privilege Escalation", model.SeverityMedium),
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.sent)
}

func TestDispatch_MediumThreshold(t *testing.T) {
	f := &fakeNotifier{}
	n, err := NewDispatcher(f, model.SeverityMedium).Dispatch(context.Background(), []model.Alert{
		alert("User Privilege Escalation", model.SeverityMedium),
		alert("External IP on Unusual Port", model.SeverityLow),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Detect: 1 alert at Medium or above", f.sent[0].summary)
}

func TestDispatch_InvalidThresholdIsHigh(t *testing.T) {
	d := NewDispatcher(&fakeNotifier{}, "Critical")
	_, _, n := d.Compose([]model.Alert{alert("r", model.SeverityMedium)})
	assert.Zero(t, n)
}

func TestDispatch_Error(t *testing.T) {
	f := &fakeNotifier{err: errors.New("no session bus")}
	n, err := NewDispatcher(f, model.SeverityLow).Dispatch(context.Background(), []model.Alert{
		alert("r", model.SeverityLow),
	})
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "no session bus")
}

func TestCompose_TruncatesRules(t *testing.T) {
	var alerts []model.Alert
	for _, r := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		alerts = append(alerts, alert(r, model.SeverityHigh))
	}
	_, body, n := NewDispatcher(nil, model.SeverityHigh).Compose(alerts)
	assert.Equal(t, 7, n)
	assert.Equal(t, "a: 1\nb: 1\nc: 1\nd: 1\ne: 1\nand 2 more rules", body)
}
