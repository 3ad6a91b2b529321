package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/schyntax/pkg/config"
	"github.com/thomasrohde/schyntax/pkg/runner"
	"github.com/thomasrohde/schyntax/pkg/store"
)

// shutdownTimeout bounds how long "run" waits for callbacks on exit.
const shutdownTimeout = 30 * time.Second

func newRunCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the tasks of a configuration file until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTasks(ctx, cfg, logger)
		},
	}
}

// loadConfig applies the precedence: --config, then discovery, then the
// environment, then the logging flags.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(wd); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Discover(wd)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(c config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

// runTasks registers every enabled task and blocks until ctx is done.
func runTasks(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(store.Options{Dir: cfg.State.Dir, InMemory: cfg.State.InMemory, Logger: logger})
	if err != nil {
		return err
	}
	defer st.Close()

	r := runner.New(runner.WithLogger(logger), runner.WithStore(st))
	for _, tc := range cfg.Tasks {
		if tc.Disabled {
			logger.Info("task disabled", "task", tc.Name)
			continue
		}
		fn, err := runner.Command(tc.Argv(), runner.CommandOptions{
			Dir:     tc.Dir,
			Env:     tc.Env,
			Timeout: tc.Timeout.Duration,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("task %s: %w", tc.Name, err)
		}
		t, err := r.AddTask(tc.Name, tc.Schedule, fn, runner.TaskOptions{
			Window:       tc.Window.Duration,
			RunAllMissed: tc.RunAllMissed,
		})
		if err != nil {
			logger.Error("task not scheduled", "task", tc.Name, "error", err)
			continue
		}
		logger.Info("task scheduled", "task", tc.Name, "schedule", tc.Schedule, "next", t.NextEvent())
	}
	logger.Info("runner started", "tasks", len(r.Tasks()), "config", cfg.Path)

	<-ctx.Done()
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.Shutdown(sctx); err != nil {
		logger.Warn("callbacks still running at exit", "error", err)
	}
	if err := st.RunGC(); err != nil {
		logger.Debug("value log gc", "error", err)
	}
	return nil
}
