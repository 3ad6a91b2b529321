package ir

import (
	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/fields"
)

// Compile lowers a validated program. It performs no validation of its own.
func Compile(program *ast.Program) *Program {
	p := &Program{}

	// free-floating expressions form an implicit group
	if g := compileGroup(program.Expressions); g != nil {
		p.Groups = append(p.Groups, g)
	}
	for _, group := range program.Groups {
		if g := compileGroup(group.Expressions); g != nil {
			p.Groups = append(p.Groups, g)
		}
	}
	return p
}

func compileGroup(exprs []*ast.Expression) *Group {
	if len(exprs) == 0 {
		return nil
	}
	g := &Group{}

	for _, e := range exprs {
		if e.Field == ast.Dates {
			for _, arg := range e.Arguments {
				r := compileDateArgument(arg)
				if arg.Exclude {
					g.Dates.Exclude = append(g.Dates.Exclude, r)
				} else {
					g.Dates.Include = append(g.Dates.Include, r)
				}
			}
			continue
		}

		def := fields.Get(e.Field)
		rules := g.Ints(e.Field)
		for _, arg := range e.Arguments {
			r := compileIntArgument(def, arg)
			if arg.Exclude {
				rules.Exclude = append(rules.Exclude, r)
			} else {
				rules.Include = append(rules.Include, r)
			}
		}
	}

	// Finer fields left unspecified collapse to zero instead of matching
	// everything: h(9) means 09:00:00, not every second of that hour.
	zero := []Range{{Start: 0}}
	switch {
	case g.Seconds.Present():
	case g.Minutes.Present():
		g.Seconds.Include = zero
	case g.Hours.Present():
		g.Seconds.Include = zero
		g.Minutes.Include = zero
	default:
		g.Seconds.Include = zero
		g.Minutes.Include = zero
		g.Hours.Include = zero
	}
	return g
}

func compileIntArgument(def *fields.Def, arg *ast.Argument) Range {
	r := Range{Interval: arg.IntervalValue()}

	if arg.IsWildcard() {
		r.Start = def.WildcardStart
		r.End = def.WildcardEnd
		r.IsRange = true
		return r
	}

	r.Start = arg.Range.Start.(*ast.IntValue).Value
	r.HalfOpen = arg.Range.HalfOpen
	switch {
	case arg.Range.IsRange():
		r.End = arg.Range.End.(*ast.IntValue).Value
		r.IsRange = true
	case arg.HasInterval():
		// an interval without an end runs to the top of the field
		r.End = def.WildcardEnd
		r.IsRange = true
	}

	// A positive start with a negative end (dom(5..-1)) is not split: the
	// end is resolved against the month length during the search.
	if r.IsRange && r.End < r.Start && (r.Start < 0 || r.End > 0) {
		r.Split = true
	}
	return r
}

func compileDateArgument(arg *ast.Argument) DateRange {
	r := DateRange{Interval: arg.IntervalValue()}

	if arg.IsWildcard() {
		r.Start = Date{Month: 1, Day: 1}
		r.End = Date{Month: 12, Day: 31}
		r.IsRange = true
		return r
	}

	start := arg.Range.Start.(*ast.DateValue)
	r.Start = Date{Year: start.Year, Month: start.Month, Day: start.Day}
	r.HalfOpen = arg.Range.HalfOpen
	switch {
	case arg.Range.IsRange():
		end := arg.Range.End.(*ast.DateValue)
		r.End = Date{Year: end.Year, Month: end.Month, Day: end.Day}
		r.IsRange = true
	case arg.HasInterval():
		r.End = Date{Year: start.Year, Month: 12, Day: 31}
		r.IsRange = true
	}

	// ranges without years that cross January 1st wrap around
	if r.IsRange && !start.HasYear() && r.End.Before(r.Start) {
		r.Split = true
	}
	return r
}
