// Command schtick checks, formats and searches schedule expressions, and
// runs scheduled commands from a configuration file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitDiagnostics = 2
	exitNoValidTime = 4
)

// now is replaced in tests.
var now = time.Now

// exitError carries an exit code out of a command. A nil err means the
// command already reported the failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	pretty     bool
	configPath string
	logLevel   string
	logFormat  string
}

func (o *globalOptions) register(fs *pflag.FlagSet) {
	fs.BoolVar(&o.pretty, "pretty", false, "human readable diagnostics")
	fs.StringVar(&o.configPath, "config", "", "configuration file (default: .schtick.yaml, .schtick.toml or ~/.schtick/config.yaml)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json")
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "schtick",
		Short: "Schedule expressions: check, search and run",
		Long: `schtick compiles Schyntax schedule expressions such as "dow(mon..fri) h(9) m(30)",
finds the instants they match and runs commands on them.

Run "schtick help syntax" for the language reference.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	opts.register(root.PersistentFlags())

	root.AddCommand(
		newCheckCmd(opts),
		newSearchCmd(opts, "next", "Print the next instants a schedule matches", false),
		newSearchCmd(opts, "prev", "Print the most recent instants a schedule matched", true),
		newFmtCmd(opts),
		newIRCmd(opts),
		newRunCmd(opts),
	)
	root.SetHelpCommand(newHelpCmd(root))
	return root
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "error: %s\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return exitUsage
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// readSchedule joins the positional arguments into one schedule. A single
// "-" reads the schedule from stdin.
func readSchedule(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", &exitError{code: exitUsage, err: fmt.Errorf("read stdin: %w", err)}
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return strings.Join(args, " "), nil
}
