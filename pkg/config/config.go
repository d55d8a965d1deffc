// oreon/defense · watchthelight <wtl>

// Package config loads detect's TOML configuration and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full run configuration.
type Config struct {
	Input      Input      `toml:"input"`
	Enrichment Enrichment `toml:"enrichment"`
	Output     Output     `toml:"output"`
	Notify     Notify     `toml:"notify"`
	Logging    Logging    `toml:"logging"`
}

// Input names the two telemetry sources.
type Input struct {
	HostEvents string `toml:"host_events"`
	Flows      string `toml:"flows"`
}

// Enrichment configures reverse-DNS lookups of flagged destinations.
type Enrichment struct {
	RDNS       bool     `toml:"rdns"`
	Nameserver string   `toml:"nameserver"`
	Timeout    Duration `toml:"timeout"`
	CacheSize  int      `toml:"cache_size"`
}

// Output lists where alerts and reports go. Empty values disable a sink.
type Output struct {
	CSV             string `toml:"csv"`
	SQLite          string `toml:"sqlite"`
	PostgresDSN     string `toml:"postgres_dsn"`
	NATSURL         string `toml:"nats_url"`
	NATSSubject     string `toml:"nats_subject"`
	Summary         string `toml:"summary"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

// Notify configures desktop notifications.
type Notify struct {
	Desktop     bool   `toml:"desktop"`
	MinSeverity string `toml:"min_severity"`
}

// Logging configures the slog handler and event sampling.
type Logging struct {
	Level      string  `toml:"level"`
	Format     string  `toml:"format"`
	SampleRate float64 `toml:"sample_rate"`
}

// Duration decodes TOML strings such as "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: Input{
			HostEvents: "data/real/sysmon_sample.csv",
			Flows:      "data/real/cicflows_sample.csv",
		},
		Enrichment: Enrichment{
			RDNS:      true,
			Timeout:   Duration{2 * time.Second},
			CacheSize: 1024,
		},
		Output: Output{
			CSV:         "alerts.csv",
			NATSSubject: "detect.alerts",
			Summary:     "alerts_summary.yaml",
		},
		Notify: Notify{
			MinSeverity: "High",
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			SampleRate: 1.0,
		},
	}
}

// Load reads path over the defaults, then applies .env and DETECT_*
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DETECT_HOST_EVENTS":     &c.Input.HostEvents,
		"DETECT_FLOWS":           &c.Input.Flows,
		"DETECT_RDNS_NAMESERVER": &c.Enrichment.Nameserver,
		"DETECT_OUTPUT_CSV":      &c.Output.CSV,
		"DETECT_SQLITE":          &c.Output.SQLite,
		"DETECT_POSTGRES_DSN":    &c.Output.PostgresDSN,
		"DETECT_NATS_URL":        &c.Output.NATSURL,
		"DETECT_NATS_SUBJECT":    &c.Output.NATSSubject,
		"DETECT_SUMMARY":         &c.Output.Summary,
		"DETECT_METRICS_FILE":    &c.Output.MetricsTextfile,
		"DETECT_LOG_LEVEL":       &c.Logging.Level,
		"DETECT_LOG_FORMAT":      &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DETECT_RDNS":           &c.Enrichment.RDNS,
		"DETECT_NOTIFY_DESKTOP": &c.Notify.Desktop,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = b
	}

	if v, ok := lookup("DETECT_RDNS_TIMEOUT"); ok {
		if err := c.Enrichment.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("parse DETECT_RDNS_TIMEOUT: %w", err)
		}
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Enrichment.Timeout.Duration < 0 {
		return fmt.Errorf("enrichment.timeout must not be negative")
	}
	if c.Enrichment.CacheSize < 0 {
		return fmt.Errorf("enrichment.cache_size must not be negative")
	}
	if c.Logging.SampleRate < 0 || c.Logging.SampleRate > 1 {
		return fmt.Errorf("logging.sample_rate must be between 0 and 1")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Notify.MinSeverity {
	case "Low", "Medium", "High":
	default:
		return fmt.Errorf("notify.min_severity must be Low, Medium or High, got %q", c.Notify.MinSeverity)
	}
	if c.Output.NATSURL != "" && c.Output.NATSSubject == "" {
		return fmt.Errorf("output.nats_subject is required with output.nats_url")
	}
	return nil
}
