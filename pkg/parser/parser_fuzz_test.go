package parser_test

import (
	"testing"

	"github.com/thomasrohde/schyntax/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; it should return diagnostics for invalid input.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`s(*)`,
		`min(*%5, !30)`,
		`h(9..17) dow(mon..fri)`,
		`{s(0)} {s(30)}`,
		`dom(-1) h(0)`,
		`doy(-7..-1)`,
		`month(jan, jul..aug)`,
		`dates(12/20..1/5)`,
		`dates(2021/2/28...2024/2/29 %3)`,
		`h(%2)`,
		`s(!*%3)`,
		// Edge cases
		``,
		`{}`,
		`h()`,
		`,h(1)`,
		`h(!)`,
		`h(-1)`,
		`s(mon)`,
		`{h(1)`,
		`s(99999999999999999999)`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		prog, diags := parser.Parse(input)
		if prog == nil && len(diags) == 0 {
			t.Fatalf("Parse(%q) returned neither a program nor diagnostics", input)
		}
		if len(diags) > 1 {
			t.Fatalf("Parse(%q) returned %d diagnostics; parsing is fail-fast", input, len(diags))
		}
	})
}
