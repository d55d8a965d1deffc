// oreon/defense · watchthelight <wtl>

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindColumn(t *testing.T) {
	tests := []struct {
		name       string
		columns    []string
		candidates []string
		want       int
		found      bool
	}{
		{
			name:       "exact match is case-insensitive",
			columns:    []string{"Time", "SRC_IP"},
			candidates: []string{"src_ip", "source ip"},
			want:       1,
			found:      true,
		},
		{
			name:       "candidate priority beats column order",
			columns:    []string{"time", "timestamp"},
			candidates: []string{"timestamp", "time"},
			want:       1,
			found:      true,
		},
		{
			name:       "exact beats substring",
			columns:    []string{"ProcessCommandLineHash", "cmdline"},
			candidates: []string{"commandline", "cmdline"},
			want:       1,
			found:      true,
		},
		{
			name:       "substring scans columns in order",
			columns:    []string{"Flow ID", " Source IP", " Destination IP"},
			candidates: []string{"dst_ip", "destination ip", "dstip", "dip"},
			want:       2,
			found:      true,
		},
		{
			name:       "exact match wins before the substring phase",
			columns:    []string{"ProcessId", "EventID"},
			candidates: []string{"eventid", "event id", "id"},
			want:       1,
			found:      true,
		},
		{
			name:       "permissive substring picks first column",
			columns:    []string{"ProcessId", "Level"},
			candidates: []string{"eventid", "event id", "id"},
			want:       0,
			found:      true,
		},
		{
			name:       "not found",
			columns:    []string{"a", "b"},
			candidates: []string{"protocol", "proto"},
			want:       -1,
			found:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindColumn(tt.columns, tt.candidates)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	m := Mapping{
		{Name: "timestamp", Candidates: []string{"timestamp", "time"}},
		{Name: "user", Candidates: []string{"user", "account"}},
		{Name: "computer", Candidates: []string{"computer", "host"}},
	}
	res := Resolve([]string{"TimeCreated", "AccountName"}, m)

	assert.Equal(t, 0, res.Column("timestamp"))
	assert.Equal(t, 1, res.Column("user"))
	assert.Equal(t, -1, res.Column("computer"))
	assert.Equal(t, []string{"computer"}, res.Unresolved(m))
	assert.Equal(t, []string{"timestamp", "user", "computer"}, m.Names())
}
