package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/schyntax/pkg/codec"
	"github.com/thomasrohde/schyntax/pkg/diagnostics"
	"github.com/thomasrohde/schyntax/pkg/schedule"
)

// compile compiles text, reporting diagnostics on stderr.
func compile(cmd *cobra.Command, opts *globalOptions, text string, scheduleOpts ...schedule.Option) (*schedule.Schedule, error) {
	s, err := schedule.Compile(text, scheduleOpts...)
	if err == nil {
		return s, nil
	}
	var de *schedule.DiagnosticError
	if errors.As(err, &de) {
		printDiagnostics(opts, cmd.ErrOrStderr(), de.Diagnostics, de.Source)
		return nil, &exitError{code: exitDiagnostics}
	}
	return nil, &exitError{code: exitUsage, err: err}
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <schedule|->",
		Short: "Validate a schedule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSchedule(cmd, args)
			if err != nil {
				return err
			}
			if _, err := compile(cmd, opts, text); err != nil {
				return err
			}
			if opts.pretty {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("No errors found."))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "[]")
			}
			return nil
		},
	}
}

func newSearchCmd(opts *globalOptions, use, short string, backward bool) *cobra.Command {
	var (
		from    string
		count   int
		horizon int
	)
	cmd := &cobra.Command{
		Use:   use + " <schedule|->",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return &exitError{code: exitUsage, err: fmt.Errorf("--count must be at least 1, got %d", count)}
			}
			anchor := now()
			earlier, later := "ago", "from now"
			if from != "" {
				t, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return &exitError{code: exitUsage, err: fmt.Errorf("--from: %w", err)}
				}
				anchor = t
				earlier, later = "earlier", "later"
			}

			text, err := readSchedule(cmd, args)
			if err != nil {
				return err
			}
			s, err := compile(cmd, opts, text, schedule.WithHorizon(horizon))
			if err != nil {
				return err
			}

			var found []time.Time
			if backward {
				found, err = s.Recent(anchor, count)
			} else {
				found, err = s.Upcoming(anchor, count)
			}
			for _, t := range found {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
					t.UTC().Format(time.RFC3339), humanize.RelTime(t, anchor, earlier, later))
			}

			var nv *schedule.NoValidTimeError
			if errors.As(err, &nv) {
				printDiagnostics(opts, cmd.ErrOrStderr(), []diagnostics.Diagnostic{nv.Diagnostic()}, text)
				return &exitError{code: exitNoValidTime}
			}
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&from, "from", "", "anchor instant in RFC 3339 (default: now)")
	fs.IntVarP(&count, "count", "n", 1, "number of instants to print")
	fs.IntVar(&horizon, "horizon", 0, "search horizon in days (default: one 400 year cycle)")
	return cmd
}

func newFmtCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <schedule|->",
		Short: "Print the canonical form of a schedule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSchedule(cmd, args)
			if err != nil {
				return err
			}
			s, err := compile(cmd, opts, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Format())
			return nil
		},
	}
}

func newIRCmd(opts *globalOptions) *cobra.Command {
	var asCBOR bool
	cmd := &cobra.Command{
		Use:   "ir <schedule|->",
		Short: "Print the compiled form of a schedule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSchedule(cmd, args)
			if err != nil {
				return err
			}
			s, err := compile(cmd, opts, text)
			if err != nil {
				return err
			}

			if asCBOR {
				var buf bytes.Buffer
				if err := codec.NewEncoder(&buf).Encode(s.IR()); err != nil {
					return fmt.Errorf("encode ir: %w", err)
				}
				diag, err := codec.Diagnose(buf.Bytes())
				if err != nil {
					return fmt.Errorf("diagnose ir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), diag)
				return nil
			}

			b, err := json.MarshalIndent(s.IR(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode ir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCBOR, "cbor", false, "print CBOR diagnostic notation instead of JSON")
	return cmd
}
