package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thomasrohde/schyntax/pkg/diagnostics"
)

var (
	colorError  = lipgloss.Color("#EF4444")
	colorAccent = lipgloss.Color("#F59E0B")
	colorOK     = lipgloss.Color("#10B981")
	colorMuted  = lipgloss.Color("#6B7280")
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	caretStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	okStyle    = lipgloss.NewStyle().Foreground(colorOK)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// renderDiagnostics is the styled counterpart of
// diagnostics.FormatDiagnostics in pretty mode.
func renderDiagnostics(diags []diagnostics.Diagnostic, source string) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		var b strings.Builder
		b.WriteString(errorStyle.Render(fmt.Sprintf("error[%s]", d.Code)))
		b.WriteString(": " + d.Message)
		if d.Span != nil {
			b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("  --> index %d", d.Span.Start)))
			snippet, caret, _ := strings.Cut(diagnostics.Pointer(source, d.Span.Start), "\n")
			b.WriteString("\n\n    " + snippet)
			b.WriteString("\n    " + strings.TrimSuffix(caret, "^") + caretStyle.Render("^"))
		}
		if d.Hint != "" {
			b.WriteString("\n" + mutedStyle.Render("  hint: "+d.Hint))
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n\n")
}

// printDiagnostics writes diags as JSON, or styled when pretty is set.
func printDiagnostics(opts *globalOptions, w io.Writer, diags []diagnostics.Diagnostic, source string) {
	if opts.pretty {
		fmt.Fprintln(w, renderDiagnostics(diags, source))
		return
	}
	fmt.Fprintln(w, diagnostics.FormatDiagnostics(diags, source, false))
}
