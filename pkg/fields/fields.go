// Package fields holds the static definitions of the schedule fields:
// keyword synonyms, value domains and wildcard ranges, plus the day and
// month name tables.
package fields

import (
	"strings"

	"github.com/thomasrohde/schyntax/pkg/ast"
)

// Def describes one schedule field.
type Def struct {
	Field    ast.Field
	Name     string
	Synonyms []string

	// Min and Max bound the values an argument may use.
	Min, Max int

	// WildcardStart and WildcardEnd are the range a '*' lowers to.
	WildcardStart, WildcardEnd int

	// AllowNegative marks fields whose negative values count back from the
	// end of the month or year.
	AllowNegative bool

	// UnitLength is the modulus used to keep intervals continuous across a
	// split range. Zero means it depends on the calendar.
	UnitLength int
}

// InDomain reports whether v is an acceptable value for the field.
func (d *Def) InDomain(v int) bool {
	if v < d.Min || v > d.Max {
		return false
	}
	if d.AllowNegative && v == 0 {
		return false
	}
	return true
}

// Registry maps keywords and fields to their definitions. A Registry is
// read-only once built.
type Registry struct {
	byField   map[ast.Field]*Def
	byKeyword map[string]*Def
	order     []*Def
}

// NewRegistry builds a registry from the given definitions.
func NewRegistry(defs ...Def) *Registry {
	r := &Registry{
		byField:   make(map[ast.Field]*Def, len(defs)),
		byKeyword: make(map[string]*Def),
	}
	for i := range defs {
		d := defs[i]
		r.byField[d.Field] = &d
		r.order = append(r.order, &d)
		for _, syn := range d.Synonyms {
			r.byKeyword[strings.ToLower(syn)] = &d
		}
	}
	return r
}

// Get returns the definition for a field, or nil.
func (r *Registry) Get(f ast.Field) *Def {
	return r.byField[f]
}

// Lookup resolves a field keyword case-insensitively.
func (r *Registry) Lookup(keyword string) *Def {
	return r.byKeyword[strings.ToLower(keyword)]
}

// All returns the definitions in declaration order.
func (r *Registry) All() []*Def {
	return r.order
}

var std = NewRegistry(
	Def{
		Field:         ast.Seconds,
		Name:          "seconds",
		Synonyms:      []string{"s", "sec", "second", "seconds", "secondofminute", "secondsofminute"},
		Min:           0,
		Max:           59,
		WildcardStart: 0,
		WildcardEnd:   59,
		UnitLength:    60,
	},
	Def{
		Field:         ast.Minutes,
		Name:          "minutes",
		Synonyms:      []string{"m", "min", "minute", "minutes", "minuteofhour", "minutesofhour"},
		Min:           0,
		Max:           59,
		WildcardStart: 0,
		WildcardEnd:   59,
		UnitLength:    60,
	},
	Def{
		Field:         ast.Hours,
		Name:          "hours",
		Synonyms:      []string{"h", "hour", "hours", "hourofday", "hoursofday"},
		Min:           0,
		Max:           23,
		WildcardStart: 0,
		WildcardEnd:   23,
		UnitLength:    24,
	},
	Def{
		Field:         ast.DaysOfWeek,
		Name:          "daysOfWeek",
		Synonyms:      []string{"day", "days", "dow", "dayofweek", "daysofweek"},
		Min:           1,
		Max:           7,
		WildcardStart: 1,
		WildcardEnd:   7,
		UnitLength:    7,
	},
	Def{
		Field:         ast.DaysOfMonth,
		Name:          "daysOfMonth",
		Synonyms:      []string{"dom", "dayofmonth", "daysofmonth"},
		Min:           -31,
		Max:           31,
		WildcardStart: 1,
		WildcardEnd:   31,
		AllowNegative: true,
	},
	Def{
		Field:         ast.DaysOfYear,
		Name:          "daysOfYear",
		Synonyms:      []string{"doy", "dayofyear", "daysofyear"},
		Min:           -366,
		Max:           366,
		WildcardStart: 1,
		WildcardEnd:   366,
		AllowNegative: true,
	},
	Def{
		Field:         ast.Months,
		Name:          "months",
		Synonyms:      []string{"month", "months", "monthofyear", "monthsofyear"},
		Min:           1,
		Max:           12,
		WildcardStart: 1,
		WildcardEnd:   12,
		UnitLength:    12,
	},
	Def{
		Field:    ast.Dates,
		Name:     "dates",
		Synonyms: []string{"date", "dates"},
	},
)

// Default returns the registry of built-in fields.
func Default() *Registry { return std }

// Get returns the built-in definition for a field.
func Get(f ast.Field) *Def { return std.Get(f) }

// Lookup resolves a built-in field keyword.
func Lookup(keyword string) *Def { return std.Lookup(keyword) }
