// Package parser implements the schedule parser.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/diagnostics"
	"github.com/thomasrohde/schyntax/pkg/fields"
	"github.com/thomasrohde/schyntax/pkg/lexer"
)

type parser struct {
	lex     *lexer.Lexer
	lastEnd int
}

// syntaxError wraps a diagnostic for parse errors.
type syntaxError struct {
	diag diagnostics.Diagnostic
}

func (e *syntaxError) Error() string { return e.diag.Message }

// Parse tokenizes source and parses it into an AST. Parsing stops at the
// first error, so at most one diagnostic is returned.
func Parse(source string) (*ast.Program, []diagnostics.Diagnostic) {
	p := &parser{lex: lexer.New(source)}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, []diagnostics.Diagnostic{toDiag(err)}
	}
	return prog, nil
}

func toDiag(err error) diagnostics.Diagnostic {
	var se *syntaxError
	var le *lexer.LexError
	var ie *lexer.InternalError
	switch {
	case errors.As(err, &se):
		return se.diag
	case errors.As(err, &le):
		return le.Diag
	case errors.As(err, &ie):
		return ie.Diag
	default:
		return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
	}
}

// --- Token cursor ---

func (p *parser) peek() (lexer.Token, error) {
	return p.lex.Peek()
}

func (p *parser) isNext(typ lexer.TokenType) (bool, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return false, err
	}
	return tok.Type == typ, nil
}

func (p *parser) advance() (lexer.Token, error) {
	tok, err := p.lex.Advance()
	if err != nil {
		return tok, err
	}
	p.lastEnd = tok.Span.End
	return tok, nil
}

func (p *parser) expect(types ...lexer.TokenType) (lexer.Token, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return tok, err
	}
	for _, typ := range types {
		if tok.Type == typ {
			return p.advance()
		}
	}
	return tok, wrongToken(tok, types...)
}

// skipComma consumes an optional separating comma.
func (p *parser) skipComma() error {
	comma, err := p.isNext(lexer.TokComma)
	if err != nil || !comma {
		return err
	}
	_, err = p.advance()
	return err
}

func wrongToken(tok lexer.Token, expected ...lexer.TokenType) error {
	names := make([]string, len(expected))
	for i, t := range expected {
		names[i] = t.String()
	}
	msg := fmt.Sprintf("Unexpected token type %s at index %d. Was expecting one of: %s",
		tok.Type, tok.Index(), strings.Join(names, ", "))
	return &syntaxError{diag: diagnostics.MakeDiag(diagnostics.EParse, msg, &tok.Span, "")}
}

func (p *parser) errorAt(span ast.Span, msg, hint string) error {
	return &syntaxError{diag: diagnostics.MakeDiag(diagnostics.EParse, msg, &span, hint)}
}

// --- Program ---

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{Span: ast.Span{Start: 0, End: len(p.lex.Input())}}

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == lexer.TokEOF {
			break
		}

		if tok.Type == lexer.TokOpenBrace {
			g, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			prog.Groups = append(prog.Groups, g)
		} else {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			prog.Expressions = append(prog.Expressions, e)
		}

		if err := p.skipComma(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TokEOF); err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *parser) parseGroup() (*ast.Group, error) {
	open, err := p.expect(lexer.TokOpenBrace)
	if err != nil {
		return nil, err
	}
	g := &ast.Group{}

	for {
		closing, err := p.isNext(lexer.TokCloseBrace)
		if err != nil {
			return nil, err
		}
		if closing {
			break
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		g.Expressions = append(g.Expressions, e)
		if err := p.skipComma(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TokCloseBrace); err != nil {
		return nil, err
	}
	g.Span = ast.Span{Start: open.Span.Start, End: p.lastEnd}
	return g, nil
}

// --- Expressions ---

func (p *parser) parseExpression() (*ast.Expression, error) {
	name, err := p.expect(lexer.TokFieldName)
	if err != nil {
		return nil, err
	}
	def := fields.Lookup(name.Value)
	if def == nil {
		return nil, p.errorAt(name.Span, fmt.Sprintf("Unknown expression name %q.", name.Raw), "")
	}
	if _, err := p.expect(lexer.TokOpenParen); err != nil {
		return nil, err
	}

	e := &ast.Expression{Field: def.Field}
	for {
		closing, err := p.isNext(lexer.TokCloseParen)
		if err != nil {
			return nil, err
		}
		if closing {
			break
		}
		arg, err := p.parseArgument(def)
		if err != nil {
			return nil, err
		}
		e.Arguments = append(e.Arguments, arg)
		if err := p.skipComma(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TokCloseParen); err != nil {
		return nil, err
	}
	e.Span = ast.Span{Start: name.Span.Start, End: p.lastEnd}
	return e, nil
}

func (p *parser) parseArgument(def *fields.Def) (*ast.Argument, error) {
	first, err := p.peek()
	if err != nil {
		return nil, err
	}
	arg := &ast.Argument{}

	if not, err := p.isNext(lexer.TokNot); err != nil {
		return nil, err
	} else if not {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		arg.Exclude = true
	}

	wildcard, err := p.isNext(lexer.TokWildcard)
	if err != nil {
		return nil, err
	}
	interval, err := p.isNext(lexer.TokInterval)
	if err != nil {
		return nil, err
	}
	switch {
	case wildcard:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		arg.Wildcard = true
	case !interval:
		rng, err := p.parseRange(def)
		if err != nil {
			return nil, err
		}
		arg.Range = rng
	}

	if interval, err = p.isNext(lexer.TokInterval); err != nil {
		return nil, err
	} else if interval {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		tok, err := p.expect(lexer.TokPositiveInt)
		if err != nil {
			return nil, err
		}
		n, err := p.atoi(tok)
		if err != nil {
			return nil, err
		}
		arg.Interval = &ast.IntValue{Span: tok.Span, Value: n}
	}

	arg.Span = ast.Span{Start: first.Span.Start, End: p.lastEnd}
	return arg, nil
}

func (p *parser) parseRange(def *fields.Def) (*ast.Range, error) {
	start, err := p.parseValue(def)
	if err != nil {
		return nil, err
	}
	rng := &ast.Range{Start: start}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == lexer.TokRangeInclusive || tok.Type == lexer.TokRangeHalfOpen {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rng.HalfOpen = tok.Type == lexer.TokRangeHalfOpen
		end, err := p.parseValue(def)
		if err != nil {
			return nil, err
		}
		rng.End = end
	}

	rng.Span = ast.Span{Start: start.NodeSpan().Start, End: p.lastEnd}
	return rng, nil
}

// --- Values ---

func (p *parser) parseValue(def *fields.Def) (ast.Value, error) {
	if def.Field == ast.Dates {
		return p.parseDate()
	}
	return p.parseInteger(def)
}

// parseInteger accepts the literal kinds the field allows: negative
// integers only where they count from the end, day names only for days
// of the week and month names only for months.
func (p *parser) parseInteger(def *fields.Def) (*ast.IntValue, error) {
	accepted := []lexer.TokenType{lexer.TokPositiveInt}
	if def.AllowNegative {
		accepted = append(accepted, lexer.TokNegativeInt)
	}
	switch def.Field {
	case ast.DaysOfWeek:
		accepted = append(accepted, lexer.TokDayLiteral)
	case ast.Months:
		accepted = append(accepted, lexer.TokMonthLiteral)
	}

	tok, err := p.expect(accepted...)
	if err != nil {
		return nil, err
	}
	n, err := p.atoi(tok)
	if err != nil {
		return nil, err
	}
	return &ast.IntValue{Span: tok.Span, Value: n}, nil
}

func (p *parser) parseDate() (*ast.DateValue, error) {
	first, err := p.expect(lexer.TokPositiveInt)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSlash); err != nil {
		return nil, err
	}
	second, err := p.expect(lexer.TokPositiveInt)
	if err != nil {
		return nil, err
	}

	parts := []lexer.Token{first, second}
	slash, err := p.isNext(lexer.TokSlash)
	if err != nil {
		return nil, err
	}
	if slash {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		third, err := p.expect(lexer.TokPositiveInt)
		if err != nil {
			return nil, err
		}
		parts = append(parts, third)
	}

	nums := make([]int, len(parts))
	for i, tok := range parts {
		if nums[i], err = p.atoi(tok); err != nil {
			return nil, err
		}
	}

	d := &ast.DateValue{Span: ast.Span{Start: first.Span.Start, End: p.lastEnd}}
	if len(nums) == 3 {
		d.Year, d.Month, d.Day = nums[0], nums[1], nums[2]
	} else {
		d.Month, d.Day = nums[0], nums[1]
	}
	return d, nil
}

func (p *parser) atoi(tok lexer.Token) (int, error) {
	n, err := strconv.Atoi(tok.Value)
	if err != nil {
		return 0, p.errorAt(tok.Span, fmt.Sprintf("Integer value %q is out of range.", tok.Raw), "")
	}
	return n, nil
}
