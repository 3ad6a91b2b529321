// Package schedule is the public entry point: it compiles schedule text
// and answers next/previous queries against the compiled form.
//
//	s, err := schedule.Compile("dow(mon..fri) h(9) m(30)")
//	if err != nil {
//		return err
//	}
//	at, err := s.Next(time.Now())
//
// A *Schedule is immutable and safe for concurrent use.
package schedule

import (
	"time"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/evaluator"
	"github.com/thomasrohde/schyntax/pkg/formatter"
	"github.com/thomasrohde/schyntax/pkg/ir"
	"github.com/thomasrohde/schyntax/pkg/parser"
	"github.com/thomasrohde/schyntax/pkg/validator"
)

// Schedule is a compiled schedule expression.
type Schedule struct {
	text    string
	program *ast.Program
	ir      *ir.Program
	budget  evaluator.Budget
	now     func() time.Time
}

// Option is a functional option for configuring a Schedule.
type Option func(*Schedule)

// WithHorizon sets how many calendar days a search may examine before
// giving up. Values <= 0 select the default of one 400-year cycle.
func WithHorizon(days int) Option {
	return func(s *Schedule) {
		s.budget.HorizonDays = days
	}
}

// WithNow sets the time source used by NextNow and PreviousNow.
func WithNow(now func() time.Time) Option {
	return func(s *Schedule) {
		s.now = now
	}
}

// Compile parses, validates and lowers text. Failures are returned as a
// *DiagnosticError.
func Compile(text string, opts ...Option) (*Schedule, error) {
	program, diags := parser.Parse(text)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Source: text, Diagnostics: diags}
	}
	if vDiags := validator.Validate(program); len(vDiags) > 0 {
		return nil, &DiagnosticError{Source: text, Diagnostics: vDiags}
	}

	s := &Schedule{
		text:    text,
		program: program,
		ir:      ir.Compile(program),
		budget:  evaluator.DefaultBudget(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// schedules written as constants.
func MustCompile(text string, opts ...Option) *Schedule {
	s, err := Compile(text, opts...)
	if err != nil {
		panic("schedule: Compile(" + text + "): " + err.Error())
	}
	return s
}

// Next returns the earliest matching instant strictly after after, in UTC.
func (s *Schedule) Next(after time.Time) (time.Time, error) {
	return s.search(after, evaluator.Forward)
}

// Previous returns the latest matching instant at or before atOrBefore, in UTC.
func (s *Schedule) Previous(atOrBefore time.Time) (time.Time, error) {
	return s.search(atOrBefore, evaluator.Backward)
}

// NextNow is Next anchored at the current time.
func (s *Schedule) NextNow() (time.Time, error) {
	return s.Next(s.now())
}

// PreviousNow is Previous anchored at the current time.
func (s *Schedule) PreviousNow() (time.Time, error) {
	return s.Previous(s.now())
}

// Upcoming returns up to n consecutive matches strictly after after. It
// stops early, returning what it found with the error, when the search
// runs out of matches. A non-positive n returns an empty slice.
func (s *Schedule) Upcoming(after time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, n)
	for len(out) < n {
		t, err := s.Next(after)
		if err != nil {
			return out, err
		}
		out = append(out, t)
		after = t
	}
	return out, nil
}

// Recent is Upcoming walking backwards from atOrBefore.
func (s *Schedule) Recent(atOrBefore time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, n)
	for len(out) < n {
		t, err := s.Previous(atOrBefore)
		if err != nil {
			return out, err
		}
		out = append(out, t)
		atOrBefore = t.Add(-time.Second)
	}
	return out, nil
}

// Matches reports whether t, truncated to the second, is part of the schedule.
func (s *Schedule) Matches(t time.Time) bool {
	return evaluator.Matches(s.ir, t)
}

// String returns the text the schedule was compiled from.
func (s *Schedule) String() string { return s.text }

// Format returns the canonical form of the schedule text.
func (s *Schedule) Format() string { return formatter.Format(s.program) }

// IR returns the compiled program. Callers must not modify it.
func (s *Schedule) IR() *ir.Program { return s.ir }

func (s *Schedule) search(anchor time.Time, dir evaluator.Direction) (time.Time, error) {
	t, err := evaluator.Search(s.ir, anchor, dir, s.budget)
	if err != nil {
		return time.Time{}, &NoValidTimeError{Schedule: s.text, Anchor: anchor.UTC(), Direction: dir.String()}
	}
	return t, nil
}
