// Package ast defines the schedule syntax tree.
package ast

// Span is a half-open range of byte offsets into the schedule text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Field identifies the calendar axis an expression constrains.
type Field int

const (
	FieldUnknown Field = iota
	Seconds
	Minutes
	Hours
	DaysOfWeek
	DaysOfMonth
	DaysOfYear
	Months
	Dates
)

var fieldNames = [...]string{
	FieldUnknown: "unknown",
	Seconds:      "seconds",
	Minutes:      "minutes",
	Hours:        "hours",
	DaysOfWeek:   "daysOfWeek",
	DaysOfMonth:  "daysOfMonth",
	DaysOfYear:   "daysOfYear",
	Months:       "months",
	Dates:        "dates",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fieldNames[FieldUnknown]
	}
	return fieldNames[f]
}

// --- Program structure ---

// Program is the root of a parsed schedule. Free expressions outside any
// braces form one implicit group.
type Program struct {
	Span        Span
	Groups      []*Group
	Expressions []*Expression
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

type Group struct {
	Span        Span
	Expressions []*Expression
}

func (n *Group) Kind() string   { return "Group" }
func (n *Group) NodeSpan() Span { return n.Span }

// Expression is a field selector with its arguments, e.g. hours(9..17).
type Expression struct {
	Span      Span
	Field     Field
	Arguments []*Argument
}

func (n *Expression) Kind() string   { return "Expression" }
func (n *Expression) NodeSpan() Span { return n.Span }

// Argument is one comma-separated entry of an expression. Range is nil
// for wildcards and bare intervals.
type Argument struct {
	Span     Span
	Exclude  bool
	Wildcard bool
	Range    *Range
	Interval *IntValue
}

func (n *Argument) Kind() string   { return "Argument" }
func (n *Argument) NodeSpan() Span { return n.Span }

// IsWildcard reports whether the argument covers the field's full domain,
// either through '*' or through a bare interval such as %5.
func (n *Argument) IsWildcard() bool { return n.Wildcard || n.Range == nil }

// HasInterval reports whether the argument carries a %n suffix.
func (n *Argument) HasInterval() bool { return n.Interval != nil }

// IntervalValue returns the interval, or 0 when there is none.
func (n *Argument) IntervalValue() int {
	if n.Interval == nil {
		return 0
	}
	return n.Interval.Value
}

// Range is a single value or a start..end pair. End is nil for single values.
type Range struct {
	Span     Span
	Start    Value
	End      Value
	HalfOpen bool
}

func (n *Range) Kind() string   { return "Range" }
func (n *Range) NodeSpan() Span { return n.Span }

// IsRange reports whether the range has an end value.
func (n *Range) IsRange() bool { return n.End != nil }

// --- Values ---

type Value interface {
	Node
	valueNode() // sealed marker
}

// IntValue is an integer, day-name or month-name literal. Names are
// resolved to their number at parse time.
type IntValue struct {
	Span  Span
	Value int
}

func (n *IntValue) Kind() string   { return "IntValue" }
func (n *IntValue) NodeSpan() Span { return n.Span }
func (n *IntValue) valueNode()     {}

// DateValue is a month/day or year/month/day literal. Year is 0 when omitted.
type DateValue struct {
	Span  Span
	Year  int
	Month int
	Day   int
}

func (n *DateValue) Kind() string   { return "DateValue" }
func (n *DateValue) NodeSpan() Span { return n.Span }
func (n *DateValue) valueNode()     {}

// HasYear reports whether the date was written with a year.
func (n *DateValue) HasYear() bool { return n.Year != 0 }

// AllExpressions returns the free expressions followed by the expressions
// of every group, in source order within each.
func (n *Program) AllExpressions() []*Expression {
	all := make([]*Expression, 0, len(n.Expressions))
	all = append(all, n.Expressions...)
	for _, g := range n.Groups {
		all = append(all, g.Expressions...)
	}
	return all
}
