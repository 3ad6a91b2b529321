package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{Start: 2, End: 4}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
	if d.Index() != 2 {
		t.Errorf("got Index() = %d, want 2", d.Index())
	}
}

func TestIndexWithoutSpan(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ENoValidTime, "no valid time", nil, "")
	if d.Index() != -1 {
		t.Errorf("got Index() = %d, want -1", d.Index())
	}
}

func TestPointer(t *testing.T) {
	tests := []struct {
		name   string
		source string
		index  int
		want   string
	}{
		{"start", "h(25)", 0, "h(25)\n^"},
		{"middle", "h(25)", 2, "h(25)\n  ^"},
		{"end of input", "h(1", 3, "h(1\n   ^"},
		{
			"window",
			"seconds(0) minutes(0) hours(0) daysOfMonth(1..15) dates(1/1..12/31)",
			40,
			") hours(0) daysOfMonth(1..15) dates(1/1..12/31)\n                    ^",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diagnostics.Pointer(tt.source, tt.index); got != tt.want {
				t.Errorf("Pointer() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.EValidate, "hours cannot be 25", &ast.Span{Start: 2, End: 4}, "use a value between 0 and 23")

	out := diagnostics.FormatDiagnostic(d, "h(25)", true)
	if !strings.Contains(out, "error[E_VALIDATE]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "--> index 2") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "    h(25)\n      ^") {
		t.Errorf("expected caret pointer in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.At(diagnostics.ELex, 3, "bad token")
	out := diagnostics.FormatDiagnostic(d, "h(1#)", false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
	if !strings.Contains(out, `"span":{"start":3,"end":3}`) {
		t.Errorf("expected JSON span in output, got: %s", out)
	}
}

func TestFormatDiagnostics(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.At(diagnostics.EParse, 0, "first"),
		diagnostics.At(diagnostics.EParse, 1, "second"),
	}
	out := diagnostics.FormatDiagnostics(diags, "ab", true)
	if strings.Count(out, "error[E_PARSE]") != 2 {
		t.Errorf("expected two diagnostics, got: %s", out)
	}
	if !strings.HasPrefix(diagnostics.FormatDiagnostics(diags, "ab", false), "[") {
		t.Error("expected JSON array")
	}
}
