package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/thomasrohde/schyntax/pkg/diagnostics"
	"github.com/thomasrohde/schyntax/pkg/evaluator"
)

// ErrNoValidTime matches every *NoValidTimeError through errors.Is.
var ErrNoValidTime = evaluator.ErrNoValidTime

// DiagnosticError wraps the diagnostics of a failed compile together with
// the source text they point into.
type DiagnosticError struct {
	Source      string
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Code returns the code of the first diagnostic.
func (e *DiagnosticError) Code() string {
	if len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].Code
}

// Index returns the source offset of the first diagnostic, or -1.
func (e *DiagnosticError) Index() int {
	if len(e.Diagnostics) == 0 {
		return -1
	}
	return e.Diagnostics[0].Index()
}

// Pretty renders the diagnostics with caret pointers into the source.
func (e *DiagnosticError) Pretty() string {
	return diagnostics.FormatDiagnostics(e.Diagnostics, e.Source, true)
}

// NoValidTimeError reports a search that found no matching instant.
type NoValidTimeError struct {
	Schedule  string
	Anchor    time.Time
	Direction string
}

func (e *NoValidTimeError) Error() string {
	return fmt.Sprintf("no valid time found %s from %s for schedule %q",
		e.Direction, e.Anchor.Format(time.RFC3339), e.Schedule)
}

func (e *NoValidTimeError) Unwrap() error { return ErrNoValidTime }

// Diagnostic converts the error for JSON reporting.
func (e *NoValidTimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.ENoValidTime, e.Error(), nil,
		"check for contradictory fields such as months(feb) dom(30)")
}
