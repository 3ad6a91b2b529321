package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a command when CommandOptions.Timeout is zero.
const DefaultCommandTimeout = 30 * time.Second

const commandWaitDelay = 500 * time.Millisecond

// CommandOptions configures Command.
type CommandOptions struct {
	Dir     string
	Env     map[string]string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Command returns a Func that executes argv. A single element is run
// through the shell. The child sees SCHTICK_TASK, SCHTICK_RUN_ID and
// SCHTICK_EVENT in its environment. A non-zero exit is an error.
func Command(argv []string, opts CommandOptions) (Func, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("runner: empty command")
	}
	if len(argv) == 1 {
		if runtime.GOOS == "windows" {
			argv = []string{"cmd", "/c", argv[0]}
		} else {
			argv = []string{"sh", "-c", argv[0]}
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, run Run) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = opts.Dir
		cmd.Env = append(os.Environ(),
			"SCHTICK_TASK="+run.Task,
			"SCHTICK_RUN_ID="+run.ID,
			"SCHTICK_EVENT="+run.Event.UTC().Format(time.RFC3339),
		)
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		// grandchildren of sh can hold the output pipes open after a kill
		cmd.WaitDelay = commandWaitDelay

		start := time.Now()
		err := cmd.Run()
		exitCode := 0
		if err != nil {
			exitCode = -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			}
		}
		logger.Info("command finished",
			"task", run.Task,
			"run_id", run.ID,
			"exit_code", exitCode,
			"stdout_bytes", stdout.Len(),
			"stderr_bytes", stderr.Len(),
			"duration", time.Since(start),
		)

		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command %q timed out after %s", argv, timeout)
		}
		if err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return fmt.Errorf("command %q exited with code %d: %w", argv, exitCode, err)
			}
			return fmt.Errorf("command %q exited with code %d: %s", argv, exitCode, msg)
		}
		return nil
	}, nil
}
