// Package formatter prints a schedule AST back as canonical source text.
//
// The output always re-parses to an equivalent program: field names use
// their long form, days of the week and months are written by name, and
// wildcards are written as "*" even when the source used a bare interval.
// Free-floating expressions come first, followed by the groups in order.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/fields"
)

// Format pretty-prints a program.
func Format(program *ast.Program) string {
	parts := make([]string, 0, len(program.Expressions)+len(program.Groups))
	for _, e := range program.Expressions {
		parts = append(parts, formatExpression(e))
	}
	for _, g := range program.Groups {
		parts = append(parts, formatGroup(g))
	}
	return strings.Join(parts, " ")
}

func formatGroup(g *ast.Group) string {
	exprs := make([]string, len(g.Expressions))
	for i, e := range g.Expressions {
		exprs[i] = formatExpression(e)
	}
	return "{" + strings.Join(exprs, " ") + "}"
}

func formatExpression(e *ast.Expression) string {
	def := fields.Get(e.Field)
	args := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = formatArgument(e.Field, a)
	}
	return def.Name + "(" + strings.Join(args, ", ") + ")"
}

func formatArgument(f ast.Field, a *ast.Argument) string {
	var b strings.Builder
	if a.Exclude {
		b.WriteByte('!')
	}
	if a.IsWildcard() {
		b.WriteByte('*')
	} else {
		b.WriteString(formatValue(f, a.Range.Start))
		if a.Range.IsRange() {
			if a.Range.HalfOpen {
				b.WriteString("...")
			} else {
				b.WriteString("..")
			}
			b.WriteString(formatValue(f, a.Range.End))
		}
	}
	if a.HasInterval() {
		b.WriteByte('%')
		b.WriteString(strconv.Itoa(a.IntervalValue()))
	}
	return b.String()
}

func formatValue(f ast.Field, v ast.Value) string {
	switch val := v.(type) {
	case *ast.DateValue:
		md := strconv.Itoa(val.Month) + "/" + strconv.Itoa(val.Day)
		if val.HasYear() {
			return strconv.Itoa(val.Year) + "/" + md
		}
		return md
	case *ast.IntValue:
		switch f {
		case ast.DaysOfWeek:
			if name := fields.DayName(val.Value); name != "" {
				return name
			}
		case ast.Months:
			if name := fields.MonthName(val.Value); name != "" {
				return name
			}
		}
		return strconv.Itoa(val.Value)
	}
	return ""
}
