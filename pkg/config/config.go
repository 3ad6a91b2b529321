// Package config loads the runner configuration used by "schtick run".
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/schyntax/pkg/schedule"
)

// Environment variables that override file values.
const (
	EnvLogLevel  = "SCHTICK_LOG_LEVEL"
	EnvLogFormat = "SCHTICK_LOG_FORMAT"
	EnvStateDir  = "SCHTICK_STATE_DIR"
)

// Config is the complete configuration.
type Config struct {
	Log   LogConfig    `yaml:"log" toml:"log"`
	State StateConfig  `yaml:"state" toml:"state"`
	Tasks []TaskConfig `yaml:"tasks" toml:"tasks"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // text or json
}

// StateConfig locates the task state store.
type StateConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	InMemory bool   `yaml:"in_memory" toml:"in_memory"`
}

// TaskConfig describes one command task.
type TaskConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Schedule string `yaml:"schedule" toml:"schedule"`
	// Command runs through the shell unless Args is set, in which case
	// Command is the program and Args its arguments.
	Command      string            `yaml:"command" toml:"command"`
	Args         []string          `yaml:"args,omitempty" toml:"args"`
	Dir          string            `yaml:"dir,omitempty" toml:"dir"`
	Env          map[string]string `yaml:"env,omitempty" toml:"env"`
	Timeout      Duration          `yaml:"timeout,omitempty" toml:"timeout"`
	Window       Duration          `yaml:"window,omitempty" toml:"window"`
	RunAllMissed bool              `yaml:"run_all_missed,omitempty" toml:"run_all_missed"`
	Disabled     bool              `yaml:"disabled,omitempty" toml:"disabled"`
}

// Argv returns the command line handed to the runner.
func (t TaskConfig) Argv() []string {
	if len(t.Args) == 0 {
		return []string{t.Command}
	}
	return append([]string{t.Command}, t.Args...)
}

// Duration wraps time.Duration so it can be written as "90s" in both
// YAML and TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{
		Log: LogConfig{Level: "info", Format: "text"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.State.Dir = filepath.Join(home, ".schtick", "state")
	} else {
		cfg.State.InMemory = true
	}
	return cfg
}

// ProjectFiles are the names searched for in the project directory, in order.
var ProjectFiles = []string{".schtick.yaml", ".schtick.yml", ".schtick.toml"}

// Discover finds the configuration for projectDir.
// Precedence: project file → user (~/.schtick/config.yaml) → defaults.
func Discover(projectDir string) (*Config, error) {
	for _, name := range ProjectFiles {
		cfg, err := Load(filepath.Join(projectDir, name))
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg, err := Load(filepath.Join(home, ".schtick", "config.yaml"))
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return Default(), nil
}

// Load reads one file, choosing the decoder by extension. Values the file
// leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("config: %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with the SCHTICK_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvStateDir); v != "" {
		c.State.Dir = v
		c.State.InMemory = false
	}
}

// SlogLevel parses Log.Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: %w", c.Level, err)
	}
	return level, nil
}

// Validate checks every setting, compiling each task schedule, and
// returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log format %q: want text or json", c.Log.Format))
	}
	if c.State.Dir == "" && !c.State.InMemory {
		errs = append(errs, errors.New("config: state.dir is required unless state.in_memory is set"))
	}

	seen := make(map[string]bool)
	for i, t := range c.Tasks {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errs = append(errs, fmt.Errorf("config: task %s: name is required", label))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("config: task %s: duplicate name", label))
		}
		seen[t.Name] = true

		if strings.TrimSpace(t.Command) == "" {
			errs = append(errs, fmt.Errorf("config: task %s: command is required", label))
		}
		if _, err := schedule.Compile(t.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: task %s: schedule: %w", label, err))
		}
		if t.Timeout.Duration < 0 || t.Window.Duration < 0 {
			errs = append(errs, fmt.Errorf("config: task %s: durations must not be negative", label))
		}
	}
	return errors.Join(errs...)
}
