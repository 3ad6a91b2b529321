// Package validator implements semantic validation of schedule syntax trees.
package validator

import (
	"fmt"
	"time"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/diagnostics"
	"github.com/thomasrohde/schyntax/pkg/fields"
)

// Year bounds for dates written with a year.
const (
	MinYear = 1900
	MaxYear = 2200
)

// leapYear is used to check month/day dates written without a year, so
// that 2/29 is always accepted.
const leapYear = 2000

type validator struct {
	reg *fields.Registry
}

// Validate checks a parsed program and returns the first violation found,
// if any. The program is never modified.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{reg: fields.Default()}
	if d := v.program(program); d != nil {
		return []diagnostics.Diagnostic{*d}
	}
	return nil
}

func fail(span ast.Span, msg, hint string) *diagnostics.Diagnostic {
	d := diagnostics.MakeDiag(diagnostics.EValidate, msg, &span, hint)
	return &d
}

func (v *validator) program(p *ast.Program) *diagnostics.Diagnostic {
	all := p.AllExpressions()
	if len(all) == 0 {
		d := diagnostics.At(diagnostics.EValidate, 0, "Schedule must contain at least one expression.")
		return &d
	}
	for _, e := range all {
		if d := v.expression(e); d != nil {
			return d
		}
	}
	return nil
}

func (v *validator) expression(e *ast.Expression) *diagnostics.Diagnostic {
	if len(e.Arguments) == 0 {
		return fail(e.Span, "Expression has no arguments.", "")
	}
	def := v.reg.Get(e.Field)

	for _, arg := range e.Arguments {
		if arg.HasInterval() && arg.Interval.Value == 0 {
			return fail(arg.Interval.Span,
				fmt.Sprintf("\"%%0\" is not a valid interval. If your intention was to include all %s use the wildcard operator \"*\" instead of an interval", humanName(e.Field)),
				"use * instead of %0")
		}

		if arg.IsWildcard() {
			if arg.Exclude && !arg.HasInterval() {
				return fail(arg.Span, "Wildcards can't be excluded with the ! operator, except when part of an interval (using %)", "")
			}
		} else if d := v.rangeNode(def, arg.Range); d != nil {
			return d
		}

		if arg.HasInterval() {
			if d := v.interval(def, arg.Interval); d != nil {
				return d
			}
		}
	}
	return nil
}

func (v *validator) rangeNode(def *fields.Def, r *ast.Range) *diagnostics.Diagnostic {
	if d := v.value(def, r.Start); d != nil {
		return d
	}
	if !r.IsRange() {
		return nil
	}
	if d := v.value(def, r.End); d != nil {
		return d
	}

	if def.Field == ast.Dates {
		start := r.Start.(*ast.DateValue)
		end := r.End.(*ast.DateValue)
		if start.HasYear() || end.HasYear() {
			if !start.HasYear() || !end.HasYear() {
				return fail(start.Span, "Cannot mix full and partial dates in a date range.", "")
			}
			if compareDates(start, end) > 0 {
				return fail(start.Span, "End date of range is before the start date.", "")
			}
		}
		if r.HalfOpen && compareDates(start, end) == 0 {
			return fail(r.Span, "Half-open range endpoints cannot be equal.", "the range would match nothing; use a single date instead")
		}
		return nil
	}

	if r.HalfOpen && r.Start.(*ast.IntValue).Value == r.End.(*ast.IntValue).Value {
		return fail(r.Span, "Half-open range endpoints cannot be equal.", "the range would match nothing; use a single value instead")
	}
	return nil
}

func (v *validator) value(def *fields.Def, val ast.Value) *diagnostics.Diagnostic {
	switch n := val.(type) {
	case *ast.DateValue:
		return v.date(n)
	case *ast.IntValue:
		return v.integer(def, n)
	}
	return fail(val.NodeSpan(), fmt.Sprintf("Unexpected value node %s.", val.Kind()), "")
}

func (v *validator) integer(def *fields.Def, n *ast.IntValue) *diagnostics.Diagnostic {
	if def.InDomain(n.Value) {
		return nil
	}
	if n.Value == 0 && def.AllowNegative {
		switch def.Field {
		case ast.DaysOfYear:
			return fail(n.Span, "Day of year cannot be zero.", "use -1 for the last day of the year")
		default:
			return fail(n.Span, "Day of month cannot be zero.", "use -1 for the last day of the month")
		}
	}
	return fail(n.Span, fmt.Sprintf("%s cannot be %d. Value must be between %d and %d.",
		humanName(def.Field), n.Value, def.Min, def.Max), "")
}

func (v *validator) interval(def *fields.Def, n *ast.IntValue) *diagnostics.Diagnostic {
	if def.Field == ast.Dates {
		return nil
	}
	if n.Value > def.Max {
		return fail(n.Span, fmt.Sprintf("interval cannot be %d. Value must be between 1 and %d.", n.Value, def.Max), "")
	}
	return nil
}

func (v *validator) date(d *ast.DateValue) *diagnostics.Diagnostic {
	if d.HasYear() && (d.Year < MinYear || d.Year > MaxYear) {
		return fail(d.Span, fmt.Sprintf("Year %d is not a valid year. Must be between %d and %d.", d.Year, MinYear, MaxYear), "")
	}
	if d.Month < 1 || d.Month > 12 {
		return fail(d.Span, fmt.Sprintf("Month %d is not a valid month. Must be between 1 and 12.", d.Month), "")
	}
	year := d.Year
	if !d.HasYear() {
		year = leapYear
	}
	days := daysIn(year, d.Month)
	if d.Day < 1 || d.Day > days {
		return fail(d.Span, fmt.Sprintf("%d is not a valid day for the month specified. Must be between 1 and %d", d.Day, days), "")
	}
	return nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// compareDates orders two dates by year, month and day.
func compareDates(a, b *ast.DateValue) int {
	switch {
	case a.Year != b.Year:
		return a.Year - b.Year
	case a.Month != b.Month:
		return a.Month - b.Month
	default:
		return a.Day - b.Day
	}
}

func humanName(f ast.Field) string {
	switch f {
	case ast.DaysOfWeek:
		return "days of the week"
	case ast.DaysOfMonth:
		return "days of the month"
	case ast.DaysOfYear:
		return "days of the year"
	default:
		return f.String()
	}
}
