package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// Config is the daemon configuration. Files may be JSON or YAML; decoding is
// strict (unknown fields are rejected) and all durations are Go duration
// strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging   LoggingConfig   `json:"logging,omitempty"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
	Parser    ParserConfig    `json:"parser,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`
	// Console is a pointer so an omitted field defaults to true.
	Console *bool      `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

func (c LoggingConfig) Logx() logx.Config {
	console := true
	if c.Console != nil {
		console = *c.Console
	}
	return logx.Config{
		Level:   c.Level,
		Console: console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// SchedulerConfig controls the poll loop and deferred timers.
//
// Poll accepts either a duration ("30s") or a cron expression
// ("*/1 * * * *", "@every 30s").
type SchedulerConfig struct {
	Poll            string `json:"poll,omitempty"`
	ErrorBackoff    string `json:"error_backoff,omitempty"`
	TimerHorizon    string `json:"timer_horizon,omitempty"`
	DispatchTimeout string `json:"dispatch_timeout,omitempty"`
}

type ParserConfig struct {
	DefaultLanguage string   `json:"default_language,omitempty"`
	AI              AIConfig `json:"ai,omitempty"`
}

// AIConfig configures the optional reasoning-service tier of the parser.
// When disabled, the daemon runs pattern-only.
type AIConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	Model      string `json:"model,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// Validate checks fields that cannot be verified by decoding alone.
func (c *Config) Validate() error {
	for _, d := range []struct{ path, raw string }{
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"scheduler.error_backoff", c.Scheduler.ErrorBackoff},
		{"scheduler.timer_horizon", c.Scheduler.TimerHorizon},
		{"scheduler.dispatch_timeout", c.Scheduler.DispatchTimeout},
		{"parser.ai.timeout", c.Parser.AI.Timeout},
	} {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}
	if c.Parser.AI.Enabled && strings.TrimSpace(c.Parser.AI.BaseURL) == "" {
		return fmt.Errorf("parser.ai.base_url is required when parser.ai.enabled")
	}
	return nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
