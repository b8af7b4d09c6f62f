package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/optimize"
	"github.com/JPM1118/spritegif/internal/params"
)

// Config holds all configuration for spritegif.
type Config struct {
	Defaults      PlaybackConfig     `yaml:"defaults"`
	Export        ExportConfig       `yaml:"export"`
	Preview       PreviewConfig      `yaml:"preview"`
	Watch         WatchConfig        `yaml:"watch"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// PlaybackConfig holds the initial playback parameters.
type PlaybackConfig struct {
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	Duration  float64 `yaml:"duration"`
	LoopMode  string  `yaml:"loop_mode"`
	Direction string  `yaml:"direction"`
	Scale     float64 `yaml:"scale"`
}

// ExportConfig controls GIF export.
type ExportConfig struct {
	Quality       int    `yaml:"quality"`
	OutputDir     string `yaml:"output_dir"`
	Optimize      bool   `yaml:"optimize"`
	OptimizeLevel int    `yaml:"optimize_level"`
	Lossy         int    `yaml:"lossy"`
}

// PreviewConfig controls the interactive preview.
type PreviewConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
}

// WatchConfig controls source file watching.
type WatchConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
}

// NotificationConfig controls how the user is notified of exports.
type NotificationConfig struct {
	TerminalBell bool     `yaml:"terminal_bell"`
	BellDebounce Duration `yaml:"bell_debounce"`
}

// LoggingConfig controls the structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration wraps time.Duration for YAML unmarshalling from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	p := params.Defaults()
	return Config{
		Defaults: PlaybackConfig{
			Rows:      p.Grid.Rows,
			Cols:      p.Grid.Cols,
			Duration:  p.Duration,
			LoopMode:  string(p.LoopMode),
			Direction: string(p.Direction),
			Scale:     p.Scale,
		},
		Export: ExportConfig{
			Quality:       encode.DefaultQuality,
			OutputDir:     ".",
			OptimizeLevel: 2,
		},
		Preview: PreviewConfig{
			TickInterval: Duration{33 * time.Millisecond},
		},
		Watch: WatchConfig{
			PollInterval: Duration{time.Second},
		},
		Notifications: NotificationConfig{
			TerminalBell: true,
			BellDebounce: Duration{5 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Playback converts the configured defaults into playback parameters.
func (c Config) Playback() (params.Playback, error) {
	loop, err := params.ParseLoopMode(c.Defaults.LoopMode)
	if err != nil {
		return params.Playback{}, err
	}
	dir, err := params.ParseDirection(c.Defaults.Direction)
	if err != nil {
		return params.Playback{}, err
	}
	p := params.Playback{
		Grid:      params.GridSpec{Rows: c.Defaults.Rows, Cols: c.Defaults.Cols},
		Duration:  c.Defaults.Duration,
		LoopMode:  loop,
		Direction: dir,
		Scale:     c.Defaults.Scale,
	}
	if err := p.Validate(); err != nil {
		return params.Playback{}, err
	}
	return p, nil
}

// Load reads the config file and merges with defaults.
// Missing file is not an error; defaults are used silently.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads config from a specific path.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Defaults(), fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.Playback(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if q := c.Export.Quality; q < encode.MinQuality || q > encode.MaxQuality {
		return fmt.Errorf("quality must be between %d and %d, got %d", encode.MinQuality, encode.MaxQuality, q)
	}
	if l := c.Export.OptimizeLevel; l < 1 || l > 3 {
		return fmt.Errorf("optimize_level must be between 1 and 3, got %d", l)
	}
	if l := c.Export.Lossy; l < 0 || l > optimize.MaxLossy {
		return fmt.Errorf("lossy must be between 0 and %d, got %d", optimize.MaxLossy, l)
	}

	ti := c.Preview.TickInterval.Duration
	if ti < 10*time.Millisecond || ti > time.Second {
		return fmt.Errorf("tick_interval must be between 10ms and 1s, got %s", ti)
	}

	pi := c.Watch.PollInterval.Duration
	if pi < 100*time.Millisecond || pi > time.Minute {
		return fmt.Errorf("poll_interval must be between 100ms and 1m, got %s", pi)
	}

	if c.Notifications.BellDebounce.Duration < 0 {
		return fmt.Errorf("bell_debounce must not be negative, got %s", c.Notifications.BellDebounce)
	}

	if _, err := ctxlog.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

// Path returns the default config file location.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "spritegif", "config.yml")
}
