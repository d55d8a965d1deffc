// oreon/defense · watchthelight <wtl>

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detect.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "data/real/sysmon_sample.csv", cfg.Input.HostEvents)
	assert.Equal(t, "data/real/cicflows_sample.csv", cfg.Input.Flows)
	assert.True(t, cfg.Enrichment.RDNS)
	assert.Equal(t, 2*time.Second, cfg.Enrichment.Timeout.Duration)
	assert.Equal(t, "alerts.csv", cfg.Output.CSV)
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
[input]
host_events = "in/hosts.csv"
flows = "in/flows.csv"

[enrichment]
rdns = false
nameserver = "9.9.9.9:53"
timeout = "750ms"
cache_size = 16

[output]
csv = "out/alerts.csv"
sqlite = "out/alerts.db"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "in/hosts.csv", cfg.Input.HostEvents)
	assert.Equal(t, "in/flows.csv", cfg.Input.Flows)
	assert.False(t, cfg.Enrichment.RDNS)
	assert.Equal(t, "9.9.9.9:53", cfg.Enrichment.Nameserver)
	assert.Equal(t, 750*time.Millisecond, cfg.Enrichment.Timeout.Duration)
	assert.Equal(t, 16, cfg.Enrichment.CacheSize)
	assert.Equal(t, "out/alerts.db", cfg.Output.SQLite)
	assert.Equal(t, "alerts_summary.yaml", cfg.Output.Summary, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "[enrichment]\ntimeout = \"soon\"\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DETECT_FLOWS", "env/flows.csv")
	t.Setenv("DETECT_RDNS", "false")
	t.Setenv("DETECT_RDNS_TIMEOUT", "3s")
	t.Setenv("DETECT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env/flows.csv", cfg.Input.Flows)
	assert.False(t, cfg.Enrichment.RDNS)
	assert.Equal(t, 3*time.Second, cfg.Enrichment.Timeout.Duration)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DETECT_SQLITE=dotenv.db\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DETECT_SQLITE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv.db", cfg.Output.SQLite)
}

func TestLoad_BadEnvBool(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DETECT_RDNS", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative timeout", func(c *Config) { c.Enrichment.Timeout.Duration = -time.Second }},
		{"negative cache", func(c *Config) { c.Enrichment.CacheSize = -1 }},
		{"sample rate", func(c *Config) { c.Logging.SampleRate = 1.5 }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"severity", func(c *Config) { c.Notify.MinSeverity = "critical" }},
		{"nats subject", func(c *Config) { c.Output.NATSURL = "nats://x"; c.Output.NATSSubject = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Logging{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json handler")
	assert.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}
