package evaluator

import (
	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/fields"
	"github.com/thomasrohde/schyntax/pkg/ir"
)

// Cycle lengths of the fixed-length fields, used when an interval
// continues across a wrap and to bound the clock walk.
var (
	secondsPerMinute = fields.Get(ast.Seconds).UnitLength
	minutesPerHour   = fields.Get(ast.Minutes).UnitLength
	hoursPerDay      = fields.Get(ast.Hours).UnitLength
	daysPerWeek      = fields.Get(ast.DaysOfWeek).UnitLength
	monthsPerYear    = fields.Get(ast.Months).UnitLength
)

// matchesInts applies the include-then-exclude rule of one integer field.
// An empty include list places no constraint.
func matchesInts(r *ir.IntRules, value, unit int) bool {
	if len(r.Include) > 0 && !anyInt(r.Include, value, unit) {
		return false
	}
	return !anyInt(r.Exclude, value, unit)
}

func anyInt(ranges []ir.Range, value, unit int) bool {
	for _, r := range ranges {
		if inIntRange(r, value, unit) {
			return true
		}
	}
	return false
}

// inIntRange tests value against one range. unit is the length of the
// field's cycle and is only consulted for split ranges with an interval.
func inIntRange(r ir.Range, value, unit int) bool {
	if !r.IsRange {
		return value == r.Start
	}
	if r.HalfOpen && value == r.End {
		return false
	}

	if r.Split {
		if value > r.End && value < r.Start {
			return false
		}
		if !r.HasInterval() {
			return true
		}
		if value >= r.Start {
			return (value-r.Start)%r.Interval == 0
		}
		return (value+unit-r.Start)%r.Interval == 0
	}

	if value < r.Start || value > r.End {
		return false
	}
	return !r.HasInterval() || (value-r.Start)%r.Interval == 0
}

// matchesDays is matchesInts for day-of-month and day-of-year, whose
// negative bounds count back from length (the days in the current month
// or year). unit is the length of the previous month or year.
func matchesDays(r *ir.IntRules, value, length, unit int) bool {
	if len(r.Include) > 0 && !anyDay(r.Include, value, length, unit) {
		return false
	}
	return !anyDay(r.Exclude, value, length, unit)
}

func anyDay(ranges []ir.Range, value, length, unit int) bool {
	for _, r := range ranges {
		if inIntRange(resolveDays(r, length), value, unit) {
			return true
		}
	}
	return false
}

// resolveDays replaces negative bounds with their position in a month or
// year of the given length. A range is split when its resolved start
// falls after its resolved end, except that a positive start with a
// negative end never wraps: such a range is empty in short months.
func resolveDays(r ir.Range, length int) ir.Range {
	if r.Start >= 0 && (!r.IsRange || r.End >= 0) {
		return r
	}

	start, end := r.Start, r.End
	if start < 0 {
		start = length + start + 1
	}
	if r.IsRange && end < 0 {
		end = length + end + 1
	}
	out := r.WithBounds(start, end)
	if r.IsRange {
		out.Split = start > end && !(r.Start > 0 && r.End < 0)
	}
	return out
}

// matchesDates applies the include-then-exclude rule of the dates field.
func matchesDates(r *ir.DateRules, d day) bool {
	if len(r.Include) > 0 && !anyDate(r.Include, d) {
		return false
	}
	for _, dr := range r.Exclude {
		if inDateRange(dr, d) {
			return false
		}
	}
	return true
}

func anyDate(ranges []ir.DateRange, d day) bool {
	for _, dr := range ranges {
		if inDateRange(dr, d) {
			return true
		}
	}
	return false
}

func inDateRange(r ir.DateRange, d day) bool {
	if !r.IsRange {
		if r.Start.Year != 0 && r.Start.Year != d.year {
			return false
		}
		return r.Start.Month == d.month && r.Start.Day == d.dom
	}

	cur := ir.Date{Month: d.month, Day: d.dom}
	if r.HasYear() {
		cur.Year = d.year
	}

	switch {
	case r.HasYear() || !r.Split:
		if cur.Before(r.Start) || r.End.Before(cur) {
			return false
		}
	default:
		if cur.Before(r.Start) && r.End.Before(cur) {
			return false
		}
	}

	if r.HalfOpen && cur == r.End {
		return false
	}

	if !r.HasInterval() {
		return true
	}

	startYear := d.year
	switch {
	case r.HasYear():
		startYear = r.Start.Year
	case r.Split && cur.Before(r.Start):
		startYear = d.year - 1
	}
	startDay := r.Start.Day
	if r.Start.Month == 2 && startDay == 29 && !isLeap(startYear) {
		startDay = 28
	}
	elapsed := d.number() - dayNumber(startYear, r.Start.Month, startDay)
	return elapsed%r.Interval == 0
}

// matchesDate reports whether every date-level field of g accepts d.
// Fields are checked from the most to the least selective.
func matchesDate(g *ir.Group, d day) bool {
	if !matchesDates(&g.Dates, d) {
		return false
	}
	if !matchesDays(&g.DaysOfYear, d.yday, daysInYear(d.year), daysInYear(d.year-1)) {
		return false
	}
	if !matchesDays(&g.DaysOfMonth, d.dom, d.daysInMonth(), d.daysInPreviousMonth()) {
		return false
	}
	if !matchesInts(&g.Months, d.month, monthsPerYear) {
		return false
	}
	return matchesInts(&g.DaysOfWeek, d.weekday, daysPerWeek)
}
