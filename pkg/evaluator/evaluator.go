// Package evaluator searches a compiled schedule for matching instants.
//
// All arithmetic happens in UTC at one-second resolution. A search walks
// calendar days away from the anchor, and within the first day that passes
// the date-level rules walks hours, minutes and seconds. Each group is
// searched independently: Next keeps the earliest result and Previous the
// latest.
package evaluator

import (
	"errors"
	"time"

	"github.com/thomasrohde/schyntax/pkg/ir"
)

// ErrNoValidTime is returned when no instant within the budget matches.
var ErrNoValidTime = errors.New("no valid time found")

// Direction selects which way a search walks from its anchor.
type Direction int

const (
	// Forward finds the earliest instant strictly after the anchor.
	Forward Direction = iota
	// Backward finds the latest instant at or before the anchor.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Next returns the earliest matching instant strictly after after.
func Next(p *ir.Program, after time.Time) (time.Time, error) {
	return Search(p, after, Forward, DefaultBudget())
}

// Previous returns the latest matching instant at or before atOrBefore.
func Previous(p *ir.Program, atOrBefore time.Time) (time.Time, error) {
	return Search(p, atOrBefore, Backward, DefaultBudget())
}

// Search runs a search with an explicit budget. The returned time is
// always in UTC with zero nanoseconds.
func Search(p *ir.Program, anchor time.Time, dir Direction, b Budget) (time.Time, error) {
	if p == nil {
		return time.Time{}, ErrNoValidTime
	}

	base := anchor.UTC().Truncate(time.Second)
	if dir == Forward {
		base = base.Add(time.Second)
	}

	var (
		best  time.Time
		found bool
	)
	for _, g := range p.Groups {
		t, ok := searchGroup(g, base, dir, b.horizon())
		if !ok {
			continue
		}
		if !found || (dir == Forward && t.Before(best)) || (dir == Backward && t.After(best)) {
			best = t
			found = true
		}
	}
	if !found {
		return time.Time{}, ErrNoValidTime
	}
	return best, nil
}

// Matches reports whether t, truncated to the second, satisfies any group.
func Matches(p *ir.Program, t time.Time) bool {
	if p == nil {
		return false
	}
	t = t.UTC()
	d := dayOf(t)
	h, m, s := t.Clock()
	for _, g := range p.Groups {
		if matchesDate(g, d) &&
			matchesInts(&g.Hours, h, hoursPerDay) &&
			matchesInts(&g.Minutes, m, minutesPerHour) &&
			matchesInts(&g.Seconds, s, secondsPerMinute) {
			return true
		}
	}
	return false
}

// searchGroup looks for the closest match of g starting at base inclusive.
func searchGroup(g *ir.Group, base time.Time, dir Direction, horizon int) (time.Time, bool) {
	inc := 1
	initHour, initMinute, initSecond := 0, 0, 0
	if dir == Backward {
		inc = -1
		initHour, initMinute, initSecond = 23, 59, 59
	}

	// Every day after the first starts its clock walk at the same edge, so
	// the walk is done once. A walk from a later start on the first day
	// visits a subset of the same times.
	edgeHour, edgeMinute, edgeSecond, ok := searchClock(g, initHour, initMinute, initSecond, dir)
	if !ok {
		return time.Time{}, false
	}

	d := dayOf(base)
	hour, minute, second := base.Clock()
	fromEdge := false

	if lo, hi, ok := datedWindow(&g.Dates); ok {
		n := d.number()
		switch {
		case dir == Forward && n > hi, dir == Backward && n < lo:
			return time.Time{}, false
		case dir == Forward && n < lo:
			d = dayOf(time.Unix(int64(lo)*86400, 0).UTC())
			fromEdge = true
		case dir == Backward && n > hi:
			d = dayOf(time.Unix(int64(hi)*86400, 0).UTC())
			fromEdge = true
		}
	}

	for i := 0; i < horizon; i++ {
		if i > 0 {
			d.step(inc)
			fromEdge = true
		}
		if !matchesDate(g, d) {
			continue
		}
		if fromEdge {
			return d.at(edgeHour, edgeMinute, edgeSecond), true
		}
		if h, m, s, ok := searchClock(g, hour, minute, second, dir); ok {
			return d.at(h, m, s), true
		}
	}
	return time.Time{}, false
}

// searchClock walks the time of day from hour:minute:second. Once an outer
// field steps, the inner fields restart from the edge of their range.
func searchClock(g *ir.Group, hour, minute, second int, dir Direction) (int, int, int, bool) {
	inc := 1
	initMinute, initSecond := 0, 0
	if dir == Backward {
		inc = -1
		initMinute, initSecond = 59, 59
	}

	for hc := remaining(hour, hoursPerDay, dir); hc > 0; hc-- {
		if matchesInts(&g.Hours, hour, hoursPerDay) {
			for mc := remaining(minute, minutesPerHour, dir); mc > 0; mc-- {
				if matchesInts(&g.Minutes, minute, minutesPerHour) {
					for sc := remaining(second, secondsPerMinute, dir); sc > 0; sc-- {
						if matchesInts(&g.Seconds, second, secondsPerMinute) {
							return hour, minute, second, true
						}
						second += inc
					}
				}
				minute += inc
				second = initSecond
			}
		}
		hour += inc
		minute = initMinute
		second = initSecond
	}
	return 0, 0, 0, false
}

// remaining counts the values left in a cycle of length n when walking
// from v in direction dir, v included.
func remaining(v, n int, dir Direction) int {
	if dir == Forward {
		return n - v
	}
	return v + 1
}

// datedWindow returns the day numbers spanned by the inclusions of r when
// every inclusion is year-qualified. No instant outside the window can
// match, so the search skips straight to it.
func datedWindow(r *ir.DateRules) (lo, hi int, ok bool) {
	if len(r.Include) == 0 {
		return 0, 0, false
	}
	for i, dr := range r.Include {
		if !dr.HasYear() {
			return 0, 0, false
		}
		end := dr.Start
		if dr.IsRange {
			end = dr.End
		}
		s := dayNumber(dr.Start.Year, dr.Start.Month, dr.Start.Day)
		e := dayNumber(end.Year, end.Month, end.Day)
		if i == 0 || s < lo {
			lo = s
		}
		if i == 0 || e > hi {
			hi = e
		}
	}
	return lo, hi, true
}
