// Package ir defines the compiled form of a schedule: per group, per
// field, ordered lists of inclusion and exclusion ranges.
//
// The IR is built once by Compile and never modified afterwards, so a
// *Program may be shared between goroutines.
package ir

import "github.com/thomasrohde/schyntax/pkg/ast"

// Program is a compiled schedule. An instant matches when it matches any group.
type Program struct {
	Groups []*Group `cbor:"groups" json:"groups"`
}

// Group holds the rules of one group. Every field present in a group must
// match for an instant to match the group.
type Group struct {
	Seconds     IntRules  `cbor:"seconds" json:"seconds"`
	Minutes     IntRules  `cbor:"minutes" json:"minutes"`
	Hours       IntRules  `cbor:"hours" json:"hours"`
	DaysOfWeek  IntRules  `cbor:"days_of_week" json:"daysOfWeek"`
	DaysOfMonth IntRules  `cbor:"days_of_month" json:"daysOfMonth"`
	DaysOfYear  IntRules  `cbor:"days_of_year" json:"daysOfYear"`
	Months      IntRules  `cbor:"months" json:"months"`
	Dates       DateRules `cbor:"dates" json:"dates"`
}

// Ints returns the rules for an integer field, or nil for Dates.
func (g *Group) Ints(f ast.Field) *IntRules {
	switch f {
	case ast.Seconds:
		return &g.Seconds
	case ast.Minutes:
		return &g.Minutes
	case ast.Hours:
		return &g.Hours
	case ast.DaysOfWeek:
		return &g.DaysOfWeek
	case ast.DaysOfMonth:
		return &g.DaysOfMonth
	case ast.DaysOfYear:
		return &g.DaysOfYear
	case ast.Months:
		return &g.Months
	}
	return nil
}

// IntRules is the inclusion and exclusion lists of one integer field. A
// nil or empty list means the field places no constraint of that kind.
type IntRules struct {
	Include []Range `cbor:"include,omitempty" json:"include,omitempty"`
	Exclude []Range `cbor:"exclude,omitempty" json:"exclude,omitempty"`
}

// Present reports whether the field has any rule at all.
func (r *IntRules) Present() bool {
	return len(r.Include) > 0 || len(r.Exclude) > 0
}

// DateRules is the inclusion and exclusion lists of the dates field.
type DateRules struct {
	Include []DateRange `cbor:"include,omitempty" json:"include,omitempty"`
	Exclude []DateRange `cbor:"exclude,omitempty" json:"exclude,omitempty"`
}

// Present reports whether the field has any rule at all.
func (r *DateRules) Present() bool {
	return len(r.Include) > 0 || len(r.Exclude) > 0
}

// Range is an integer range. When IsRange is false only Start is
// meaningful. Negative bounds of day-of-month and day-of-year ranges are
// kept signed and resolved against the calendar during the search.
type Range struct {
	Start    int  `cbor:"start" json:"start"`
	End      int  `cbor:"end,omitempty" json:"end,omitempty"`
	IsRange  bool `cbor:"is_range,omitempty" json:"isRange,omitempty"`
	HalfOpen bool `cbor:"half_open,omitempty" json:"halfOpen,omitempty"`
	Split    bool `cbor:"split,omitempty" json:"split,omitempty"`
	Interval int  `cbor:"interval,omitempty" json:"interval,omitempty"`
}

// HasInterval reports whether the range carries a %n stride.
func (r Range) HasInterval() bool { return r.Interval != 0 }

// WithBounds returns a copy of r with its bounds replaced.
func (r Range) WithBounds(start, end int) Range {
	r.Start = start
	r.End = end
	return r
}

// Date is a calendar date. Year is 0 when the date applies to every year.
type Date struct {
	Year  int `cbor:"year,omitempty" json:"year,omitempty"`
	Month int `cbor:"month" json:"month"`
	Day   int `cbor:"day" json:"day"`
}

// Before reports whether d is earlier than o, comparing years only when
// both are set.
func (d Date) Before(o Date) bool {
	if d.Year != 0 && o.Year != 0 && d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// DateRange is a range of the dates field.
type DateRange struct {
	Start    Date `cbor:"start" json:"start"`
	End      Date `cbor:"end,omitempty" json:"end,omitempty"`
	IsRange  bool `cbor:"is_range,omitempty" json:"isRange,omitempty"`
	HalfOpen bool `cbor:"half_open,omitempty" json:"halfOpen,omitempty"`
	Split    bool `cbor:"split,omitempty" json:"split,omitempty"`
	Interval int  `cbor:"interval,omitempty" json:"interval,omitempty"`
}

// HasInterval reports whether the range carries a %n stride.
func (r DateRange) HasInterval() bool { return r.Interval != 0 }

// HasYear reports whether the range is bounded by full dates.
func (r DateRange) HasYear() bool { return r.Start.Year != 0 }
