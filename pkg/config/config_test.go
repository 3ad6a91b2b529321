package config_test

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thomasrohde/schyntax/pkg/config"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const yamlConfig = `
log:
  level: debug
  format: json
state:
  dir: /var/lib/schtick
tasks:
  - name: backup
    schedule: "dow(mon..fri) h(2)"
    command: "tar czf /tmp/backup.tgz /srv"
    timeout: 10m
    window: 1h
  - name: ping
    schedule: "m(*%5)"
    command: curl
    args: ["-fsS", "https://example.com/health"]
    run_all_missed: true
`

const tomlConfig = `
[log]
level = "warn"

[[tasks]]
name = "report"
schedule = "dom(-1) h(18)"
command = "make report"
timeout = "90s"
`

func TestLoadYAML(t *testing.T) {
	path := write(t, t.TempDir(), "schtick.yaml", yamlConfig)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.State.Dir != "/var/lib/schtick" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("got %d tasks", len(cfg.Tasks))
	}
	backup := cfg.Tasks[0]
	if backup.Timeout.Duration != 10*time.Minute || backup.Window.Duration != time.Hour {
		t.Errorf("durations = %s, %s", backup.Timeout, backup.Window)
	}
	if argv := backup.Argv(); len(argv) != 1 {
		t.Errorf("shell task argv = %q", argv)
	}
	ping := cfg.Tasks[1]
	if argv := ping.Argv(); len(argv) != 3 || argv[0] != "curl" {
		t.Errorf("argv = %q", argv)
	}
	if !ping.RunAllMissed {
		t.Error("run_all_missed not decoded")
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	cfg, err := config.Load(write(t, t.TempDir(), "schtick.toml", tomlConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("format should keep its default, got %q", cfg.Log.Format)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Timeout.Duration != 90*time.Second {
		t.Errorf("tasks = %+v", cfg.Tasks)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
	if _, err := config.Load(write(t, dir, "schtick.ini", "x=1")); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := config.Load(write(t, dir, "bad.yaml", "log: [")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestDiscoverProjectFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".schtick.toml", tomlConfig)
	cfg, err := config.Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(cfg.Path, ".schtick.toml") {
		t.Errorf("Path = %q", cfg.Path)
	}

	write(t, dir, ".schtick.yaml", yamlConfig)
	cfg, err = config.Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(cfg.Path, ".schtick.yaml") {
		t.Errorf("YAML should take precedence, got %q", cfg.Path)
	}
}

func TestDiscoverDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.Log.Level != "info" || len(cfg.Tasks) != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvLogFormat, "json")
	t.Setenv(config.EnvStateDir, "/tmp/state")

	cfg := config.Default()
	cfg.State.InMemory = true
	cfg.ApplyEnv()
	if cfg.Log.Level != "error" || cfg.Log.Format != "json" || cfg.State.Dir != "/tmp/state" || cfg.State.InMemory {
		t.Errorf("env not applied: %+v", cfg)
	}
	if level, err := cfg.Log.SlogLevel(); err != nil || level != slog.LevelError {
		t.Errorf("SlogLevel = %v, %v", level, err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := config.LoadDotEnv(dir); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}

	t.Setenv(config.EnvLogFormat, "")
	os.Unsetenv(config.EnvLogFormat)
	write(t, dir, ".env", config.EnvLogFormat+"=json\n")
	if err := config.LoadDotEnv(dir); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(config.EnvLogFormat); got != "json" {
		t.Errorf("%s = %q", config.EnvLogFormat, got)
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Tasks = []config.TaskConfig{
		{Name: "a", Schedule: "h(25)", Command: "true"},
		{Name: "a", Schedule: "h(1)"},
		{Schedule: "h(1)", Command: "true"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"log level", "log format", "E_VALIDATE", "duplicate name", "command is required", "name is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q:\n%v", want, err)
		}
	}
}
