package ast_test

import (
	"testing"

	"github.com/thomasrohde/schyntax/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.Program{},
		&ast.Group{},
		&ast.Expression{},
		&ast.Argument{},
		&ast.Range{},
		&ast.IntValue{Value: 42},
		&ast.DateValue{Month: 12, Day: 25},
	}

	expected := []string{
		"Program", "Group", "Expression", "Argument", "Range", "IntValue", "DateValue",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestFieldString(t *testing.T) {
	tests := []struct {
		field ast.Field
		want  string
	}{
		{ast.Seconds, "seconds"},
		{ast.DaysOfWeek, "daysOfWeek"},
		{ast.DaysOfYear, "daysOfYear"},
		{ast.Dates, "dates"},
		{ast.Field(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.field.String(); got != tt.want {
			t.Errorf("Field(%d).String() = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestArgumentWildcard(t *testing.T) {
	bare := &ast.Argument{Interval: &ast.IntValue{Value: 5}}
	if !bare.IsWildcard() {
		t.Error("bare interval should be treated as a wildcard")
	}
	if bare.IntervalValue() != 5 {
		t.Errorf("IntervalValue() = %d, want 5", bare.IntervalValue())
	}

	ranged := &ast.Argument{Range: &ast.Range{Start: &ast.IntValue{Value: 1}}}
	if ranged.IsWildcard() {
		t.Error("ranged argument should not be a wildcard")
	}
	if ranged.HasInterval() {
		t.Error("ranged argument has no interval")
	}
}

func TestAllExpressions(t *testing.T) {
	free := &ast.Expression{Field: ast.Hours}
	grouped := &ast.Expression{Field: ast.Minutes}
	p := &ast.Program{
		Expressions: []*ast.Expression{free},
		Groups:      []*ast.Group{{Expressions: []*ast.Expression{grouped}}},
	}
	all := p.AllExpressions()
	if len(all) != 2 || all[0] != free || all[1] != grouped {
		t.Fatalf("AllExpressions() = %v", all)
	}
}
