// Package diagnostics defines the positioned error values produced while
// compiling and evaluating schedules.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/schyntax/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EParse       = "E_PARSE"
	EValidate    = "E_VALIDATE"
	ENoValidTime = "E_NO_VALID_TIME"
	EInternal    = "E_INTERNAL"
	EConfig      = "E_CONFIG"
	EIO          = "E_IO"
)

// Diagnostic represents a lexical, syntax, validation or search failure.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// At is shorthand for a diagnostic whose span starts and ends at index.
func At(code string, index int, message string) Diagnostic {
	return MakeDiag(code, message, &ast.Span{Start: index, End: index}, "")
}

// Index returns the source offset the diagnostic points at, or -1.
func (d Diagnostic) Index() int {
	if d.Span == nil {
		return -1
	}
	return d.Span.Start
}

// Pointer renders up to 50 characters of source around index with a caret
// line underneath. The window starts 20 characters before the index.
func Pointer(source string, index int) string {
	if index < 0 {
		index = 0
	}
	if index > len(source) {
		index = len(source)
	}
	start := index - 20
	if start < 0 {
		start = 0
	}
	length := len(source) - start
	if length > 50 {
		length = 50
	}

	var sb strings.Builder
	sb.WriteString(source[start : start+length])
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", index-start))
	sb.WriteByte('^')
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic for display. Pretty output
// includes a caret pointer into source when the diagnostic has a span.
func FormatDiagnostic(d Diagnostic, source string, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s", d.Code, d.Message)
	if d.Span != nil {
		out += fmt.Sprintf("\n  --> index %d\n", d.Span.Start)
		for _, line := range strings.Split(Pointer(source, d.Span.Start), "\n") {
			out += "\n    " + line
		}
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, source string, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, source, true)
	}
	return strings.Join(parts, "\n\n")
}
