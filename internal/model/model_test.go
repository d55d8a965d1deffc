// oreon/defense · watchthelight <wtl>

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlert_Record(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)
	a := Alert{
		RuleName:      "User Privilege Escalation",
		Timestamp:     &ts,
		Source:        "bob",
		DestOrCommand: "runas /user:admin cmd",
		Description:   "command contains 'runas'",
		Severity:      SeverityMedium,
		DatasetSource: "Sysmon",
	}

	rec := a.Record()
	assert.Len(t, rec, len(AlertColumns))
	assert.Equal(t, []string{
		"User Privilege Escalation",
		"2024-03-01T10:15:30Z",
		"bob",
		"runas /user:admin cmd",
		"command contains 'runas'",
		"Medium",
		"Sysmon",
	}, rec)
}

func TestAlert_RecordNilTimestamp(t *testing.T) {
	rec := Alert{RuleName: "r", Severity: SeverityLow}.Record()
	assert.Equal(t, "", rec[1])
}

func TestSeverity_Rank(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Equal(t, 0, Severity("Critical").Rank())
	assert.False(t, Severity("high").Valid())
	assert.True(t, SeverityHigh.Valid())
}

func TestStr(t *testing.T) {
	s := "alice"
	assert.Equal(t, "alice", Str(&s))
	assert.Equal(t, "", Str(nil))
}
