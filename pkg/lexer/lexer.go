// Package lexer implements the schedule tokenizer.
//
// The lexer is lazy: tokens are produced on demand as the parser peeks
// and advances. A stack of context modes (program, group, expression)
// decides what the same punctuation means at each position.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/schyntax/pkg/ast"
	"github.com/thomasrohde/schyntax/pkg/diagnostics"
	"github.com/thomasrohde/schyntax/pkg/fields"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Punctuation
	TokOpenParen TokenType = iota // (
	TokCloseParen                 // )
	TokOpenBrace                  // {
	TokCloseBrace                 // }
	TokComma                      // ,
	TokSlash                      // /
	TokNot                        // !
	TokWildcard                   // *
	TokInterval                   // %
	TokRangeInclusive             // ..
	TokRangeHalfOpen              // ...

	// Literals
	TokPositiveInt
	TokNegativeInt
	TokDayLiteral
	TokMonthLiteral
	TokFieldName

	// Special
	TokEOF
)

var tokenNames = [...]string{
	TokOpenParen:      "OpenParen",
	TokCloseParen:     "CloseParen",
	TokOpenBrace:      "OpenCurly",
	TokCloseBrace:     "CloseCurly",
	TokComma:          "Comma",
	TokSlash:          "ForwardSlash",
	TokNot:            "Not",
	TokWildcard:       "Wildcard",
	TokInterval:       "Interval",
	TokRangeInclusive: "RangeInclusive",
	TokRangeHalfOpen:  "RangeHalfOpen",
	TokPositiveInt:    "PositiveInteger",
	TokNegativeInt:    "NegativeInteger",
	TokDayLiteral:     "DayLiteral",
	TokMonthLiteral:   "MonthLiteral",
	TokFieldName:      "ExpressionName",
	TokEOF:            "EndOfInput",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenNames[t]
}

// Token represents a single lexer token. Raw is the text as written;
// Value is the canonical form (field name, or the number a day or month
// name stands for).
type Token struct {
	Type  TokenType
	Raw   string
	Value string
	Span  ast.Span
}

// Index returns the source offset of the token.
func (t Token) Index() int { return t.Span.Start }

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// InternalError reports a lexer state that a correct parser never reaches,
// such as advancing past the end of input.
type InternalError struct {
	Diag diagnostics.Diagnostic
}

func (e *InternalError) Error() string {
	return e.Diag.Message
}

type contextMode int

const (
	modeProgram contextMode = iota
	modeGroup
	modeExpression
)

type stateFn func(*Lexer) (stateFn, error)

// Lexer is a lazy tokenizer with a single-token lookahead.
type Lexer struct {
	input    string
	pos      int
	contexts []contextMode
	queue    []Token
	state    stateFn
	err      error
}

// New returns a lexer over input.
func New(input string) *Lexer {
	return &Lexer{
		input:    input,
		contexts: []contextMode{modeProgram},
		state:    lexList,
	}
}

// Input returns the text being tokenized.
func (l *Lexer) Input() string { return l.input }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if err := l.fill(); err != nil {
		return Token{}, err
	}
	return l.queue[0], nil
}

// Advance consumes and returns the next token.
func (l *Lexer) Advance() (Token, error) {
	tok, err := l.Peek()
	if err != nil {
		return Token{}, err
	}
	l.queue = l.queue[1:]
	return tok, nil
}

// fill runs state functions until at least one token is queued. Tokens
// queued before a failure are still delivered; the error surfaces once
// they are consumed.
func (l *Lexer) fill() error {
	for len(l.queue) == 0 {
		if l.err != nil {
			return l.err
		}
		if l.state == nil {
			return l.internalError("lexer was advanced past the end of the input")
		}
		l.state, l.err = l.state(l)
	}
	return nil
}

// Tokenize breaks schedule text into a slice of tokens ending with TokEOF.
func Tokenize(source string) ([]Token, error) {
	l := New(source)
	var tokens []Token
	for {
		tok, err := l.Advance()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			return tokens, nil
		}
	}
}

// --- Context stack ---

func (l *Lexer) context() contextMode {
	return l.contexts[len(l.contexts)-1]
}

func (l *Lexer) enterContext(m contextMode) {
	l.contexts = append(l.contexts, m)
}

func (l *Lexer) exitContext() error {
	if len(l.contexts) == 1 {
		return l.internalError("lexer attempted to exit the last context")
	}
	l.contexts = l.contexts[:len(l.contexts)-1]
	return nil
}

// --- State functions ---

func lexList(l *Lexer) (stateFn, error) {
	l.consumeOptional(TokComma, ",")

	if l.atEnd() {
		if len(l.contexts) > 1 {
			closer := TokCloseParen
			if l.context() == modeGroup {
				closer = TokCloseBrace
			}
			return nil, l.lexError(l.pos, fmt.Sprintf("Unexpected end of input. Was expecting %s.", closer))
		}
		l.emit(TokEOF, "", "", l.pos)
		return nil, nil
	}

	switch l.context() {
	case modeProgram:
		if l.consumeOptional(TokOpenBrace, "{") {
			l.enterContext(modeGroup)
			return lexList, nil
		}
	case modeGroup:
		if l.consumeOptional(TokCloseBrace, "}") {
			return lexList, l.exitContext()
		}
	case modeExpression:
		if l.consumeOptional(TokCloseParen, ")") {
			return lexList, l.exitContext()
		}
		return lexArgument, nil
	}
	return lexExpression, nil
}

func lexExpression(l *Lexer) (stateFn, error) {
	start, word := l.peekWord()
	def := fields.Lookup(word)
	if def == nil {
		return nil, l.unexpectedText(TokFieldName)
	}
	l.pos = start + len(word)
	l.emit(TokFieldName, word, def.Name, start)

	if err := l.consume(TokOpenParen, "("); err != nil {
		return nil, err
	}
	l.enterContext(modeExpression)
	return lexList, nil
}

func lexArgument(l *Lexer) (stateFn, error) {
	before := len(l.queue)

	l.consumeOptional(TokNot, "!")

	if !l.consumeOptional(TokWildcard, "*") {
		ok, err := l.consumeValue(false)
		if err != nil {
			return nil, err
		}
		if ok {
			if l.consumeOptional(TokRangeHalfOpen, "...") || l.consumeOptional(TokRangeInclusive, "..") {
				if _, err := l.consumeValue(true); err != nil {
					return nil, err
				}
			}
		}
	}

	if l.consumeOptional(TokInterval, "%") {
		if !l.consumeInteger(TokPositiveInt) {
			return nil, l.unexpectedText(TokPositiveInt)
		}
	}

	if len(l.queue) == before {
		return nil, l.unexpectedText(TokNot, TokWildcard, TokPositiveInt, TokNegativeInt,
			TokDayLiteral, TokMonthLiteral, TokInterval, TokCloseParen)
	}
	return lexList, nil
}

// consumeValue lexes an integer, day name, month name or date.
func (l *Lexer) consumeValue(required bool) (bool, error) {
	if l.consumeInteger(TokPositiveInt) {
		if l.consumeOptional(TokSlash, "/") {
			if !l.consumeInteger(TokPositiveInt) {
				return false, l.unexpectedText(TokPositiveInt)
			}
			if l.consumeOptional(TokSlash, "/") {
				if !l.consumeInteger(TokPositiveInt) {
					return false, l.unexpectedText(TokPositiveInt)
				}
			}
		}
		return true, nil
	}

	if l.consumeInteger(TokNegativeInt) || l.consumeName() {
		return true, nil
	}

	if required {
		return false, l.unexpectedText(TokPositiveInt, TokNegativeInt, TokDayLiteral, TokMonthLiteral)
	}
	return false, nil
}

// --- Terminals ---

func (l *Lexer) atEnd() bool {
	l.skipWhitespace()
	return l.pos >= len(l.input)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) emit(typ TokenType, raw, value string, start int) {
	l.queue = append(l.queue, Token{
		Type:  typ,
		Raw:   raw,
		Value: value,
		Span:  ast.Span{Start: start, End: start + len(raw)},
	})
}

func (l *Lexer) consumeOptional(typ TokenType, lit string) bool {
	l.skipWhitespace()
	if !strings.HasPrefix(l.input[l.pos:], lit) {
		return false
	}
	start := l.pos
	l.pos += len(lit)
	l.emit(typ, lit, lit, start)
	return true
}

func (l *Lexer) consume(typ TokenType, lit string) error {
	if !l.consumeOptional(typ, lit) {
		return l.unexpectedText(typ)
	}
	return nil
}

// consumeInteger matches [0-9]+ or -[0-9]+ greedily.
func (l *Lexer) consumeInteger(typ TokenType) bool {
	l.skipWhitespace()
	start := l.pos
	i := start
	if typ == TokNegativeInt {
		if i >= len(l.input) || l.input[i] != '-' {
			return false
		}
		i++
	}
	digits := i
	for i < len(l.input) && isDigit(l.input[i]) {
		i++
	}
	if i == digits {
		return false
	}
	raw := l.input[start:i]
	l.pos = i
	l.emit(typ, raw, raw, start)
	return true
}

// consumeName matches a whole-word day or month name.
func (l *Lexer) consumeName() bool {
	start, word := l.peekWord()
	if word == "" {
		return false
	}
	if n, ok := fields.DayNumber(word); ok {
		l.pos = start + len(word)
		l.emit(TokDayLiteral, word, strconv.Itoa(n), start)
		return true
	}
	if n, ok := fields.MonthNumber(word); ok {
		l.pos = start + len(word)
		l.emit(TokMonthLiteral, word, strconv.Itoa(n), start)
		return true
	}
	return false
}

// peekWord returns the run of word characters at the cursor, or "" when
// that run contains anything other than letters.
func (l *Lexer) peekWord() (int, string) {
	l.skipWhitespace()
	start := l.pos
	i := start
	for i < len(l.input) && isWordChar(l.input[i]) {
		i++
	}
	word := l.input[start:i]
	for j := 0; j < len(word); j++ {
		if !isAlpha(word[j]) {
			return start, ""
		}
	}
	return start, word
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '_'
}

// --- Errors ---

func (l *Lexer) lexError(index int, msg string) error {
	return &LexError{Diag: diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{Start: index, End: index + 1},
		"",
	)}
}

func (l *Lexer) unexpectedText(expected ...TokenType) error {
	names := make([]string, len(expected))
	for i, t := range expected {
		names[i] = t.String()
	}
	return l.lexError(l.pos, fmt.Sprintf("Unexpected input at index %d. Was expecting %s.", l.pos, strings.Join(names, " or ")))
}

func (l *Lexer) internalError(msg string) error {
	d := diagnostics.At(diagnostics.EInternal, l.pos, msg)
	d.Hint = "this indicates a bug in the schedule lexer"
	return &InternalError{Diag: d}
}
