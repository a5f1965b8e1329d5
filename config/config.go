// Package config loads the swaybar-status configuration file.
//
// Configuration is a single YAML document.  Values not present in the
// file keep their defaults, so an empty or missing file yields a
// working setup (a clock refreshed every second).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable that points at the
// configuration file, overriding the default search locations.
const EnvConfigFile = "SWAYBAR_STATUS_CONFIG"

// Output modes for the swaybar-status command.
const (
	OutputAuto = "auto" // protocol when piped, preview on a terminal
	OutputJSON = "json" // always the protocol stream
	OutputTerm = "term" // always the terminal preview
)

// Source types accepted in the sources list.
const (
	SourceClock   = "clock"
	SourceCommand = "command"
	SourceCPU     = "cpu"
	SourceMemory  = "memory"
	SourceLoad    = "load"
	SourceBattery = "battery"
)

// Log formats accepted by LogConfig.
const (
	LogFormatConsole = "console" // human readable
	LogFormatJSON    = "json"    // one JSON object per line
)

// A Duration is a time.Duration that reads from YAML in the syntax of
// time.ParseDuration, for example "500ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full configuration of the swaybar-status command.
type Config struct {
	// Interval between snapshots.
	Interval Duration `yaml:"interval"`

	// ClickEvents announces to the host that click events are wanted.
	ClickEvents bool `yaml:"click_events"`

	// ConstSignal and StopSignal are advertised in the protocol header
	// when non-zero.  They are advisory signal numbers for the host.
	ConstSignal int `yaml:"const_signal"`
	StopSignal  int `yaml:"stop_signal"`

	// Output selects between the protocol stream and the terminal
	// preview: OutputAuto, OutputJSON or OutputTerm.
	Output string `yaml:"output"`

	Log LogConfig `yaml:"log"`

	// Sources describe the status line, in display order.
	Sources []SourceConfig `yaml:"sources"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level string `yaml:"level"`

	// Format is LogFormatConsole or LogFormatJSON.
	Format string `yaml:"format"`
}

// ConfigureZerolog applies the configured level and format to the
// process-wide logger.
func (l LogConfig) ConfigureZerolog() error {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	var logger zerolog.Logger
	switch l.Format {
	case LogFormatConsole:
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	case LogFormatJSON:
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return nil
}

// A SourceConfig describes one source in the status line.  Type is
// required; the other fields apply to specific types only.
type SourceConfig struct {
	Type string `yaml:"type"`

	// Name identifies command sources in logs and click events.
	Name string `yaml:"name"`

	// Layout is the time layout for clock sources.
	Layout string `yaml:"layout"`

	// Command and Timeout configure command sources.
	Command []string `yaml:"command"`
	Timeout Duration `yaml:"timeout"`

	// UrgentBelow is the urgency threshold for battery sources.
	UrgentBelow float64 `yaml:"urgent_below"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Interval: Duration(time.Second),
		Output:   OutputAuto,
		Log:      LogConfig{Level: "info", Format: LogFormatConsole},
		Sources:  []SourceConfig{{Type: SourceClock}},
	}
}

// Load reads the configuration from path.  An empty path means the
// first file found by FindConfigFile; when there is none, the defaults
// are returned as is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindConfigFile returns the first configuration file present among
// the default locations: $SWAYBAR_STATUS_CONFIG, then config.yaml
// under $XDG_CONFIG_HOME/swaybar-status, ~/.config/swaybar-status and
// /etc/swaybar-status.  It returns "" when there is none.
func FindConfigFile() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "swaybar-status", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "swaybar-status", "config.yaml"))
	}
	candidates = append(candidates, filepath.Join("/etc", "swaybar-status", "config.yaml"))
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the configuration for values that cannot be mapped
// to a running feed.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	switch c.Output {
	case OutputAuto, OutputJSON, OutputTerm:
	default:
		return fmt.Errorf("unknown output mode %q", c.Output)
	}
	if c.ConstSignal < 0 || c.StopSignal < 0 {
		return errors.New("signal numbers must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	for i := range c.Sources {
		if err := c.Sources[i].validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *SourceConfig) validate() error {
	switch s.Type {
	case SourceCommand:
		if len(s.Command) == 0 {
			return errors.New("command source needs a command to run")
		}
	case SourceClock, SourceCPU, SourceMemory, SourceLoad, SourceBattery:
	case "":
		return errors.New("source needs a type")
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	return nil
}
