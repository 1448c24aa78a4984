// Package qasmerr defines the failure kinds shared by the OpenQASM lexers and parsers.
//
// Every failure is a *Error carrying the offending token, its index in the token
// stream and, for lexer failures, the offending source line. Nothing recovers from
// these errors: a lex or parse call that fails returns no partial result.
package qasmerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names one violated grammar rule.
type Kind int

const (
	BadArgument Kind = iota
	BadQreg
	BadCreg
	BadBarrier
	BadMeasurement
	BadGate
	BadParameter
	BadEquals
	BadConditional
	BadStringLiteral
	BadClassicalType
	BadExpression
	BadLoop
	BadQuantumInstruction
	BadSubroutine
	MissingSemicolon
	MissingBrace
	UnsupportedVersion
	NestingTooDeep
)

var kindNames = [...]string{
	BadArgument:           "BadArgumentError",
	BadQreg:               "BadQregError",
	BadCreg:               "BadCregError",
	BadBarrier:            "BadBarrierError",
	BadMeasurement:        "BadMeasurementError",
	BadGate:               "BadGateError",
	BadParameter:          "BadParameterError",
	BadEquals:             "BadEqualsError",
	BadConditional:        "BadConditionalError",
	BadStringLiteral:      "BadStringLiteralError",
	BadClassicalType:      "BadClassicalTypeError",
	BadExpression:         "BadExpressionError",
	BadLoop:               "BadLoopError",
	BadQuantumInstruction: "BadQuantumInstructionError",
	BadSubroutine:         "BadSubroutineError",
	MissingSemicolon:      "MissingSemicolonError",
	MissingBrace:          "MissingBraceError",
	UnsupportedVersion:    "UnsupportedOpenQASMVersionError",
	NestingTooDeep:        "NestingTooDeepError",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrBadArgument           = &Error{Kind: BadArgument, Index: -1}
	ErrBadQreg               = &Error{Kind: BadQreg, Index: -1}
	ErrBadCreg               = &Error{Kind: BadCreg, Index: -1}
	ErrBadBarrier            = &Error{Kind: BadBarrier, Index: -1}
	ErrBadMeasurement        = &Error{Kind: BadMeasurement, Index: -1}
	ErrBadGate               = &Error{Kind: BadGate, Index: -1}
	ErrBadParameter          = &Error{Kind: BadParameter, Index: -1}
	ErrBadEquals             = &Error{Kind: BadEquals, Index: -1}
	ErrBadConditional        = &Error{Kind: BadConditional, Index: -1}
	ErrBadStringLiteral      = &Error{Kind: BadStringLiteral, Index: -1}
	ErrBadClassicalType      = &Error{Kind: BadClassicalType, Index: -1}
	ErrBadExpression         = &Error{Kind: BadExpression, Index: -1}
	ErrBadLoop               = &Error{Kind: BadLoop, Index: -1}
	ErrBadQuantumInstruction = &Error{Kind: BadQuantumInstruction, Index: -1}
	ErrBadSubroutine         = &Error{Kind: BadSubroutine, Index: -1}
	ErrMissingSemicolon      = &Error{Kind: MissingSemicolon, Index: -1}
	ErrMissingBrace          = &Error{Kind: MissingBrace, Index: -1}
	ErrUnsupportedVersion    = &Error{Kind: UnsupportedVersion, Index: -1}
	ErrNestingTooDeep        = &Error{Kind: NestingTooDeep, Index: -1}
)

// Position is a 1-based line/column location in the source text.
type Position struct {
	Line   int
	Column int
}

// Error is a lexing or parsing failure.
type Error struct {
	Kind    Kind
	Message string

	// Offending token. Index is the absolute position in the token stream,
	// -1 when the failure happened before tokens existed.
	Token     string
	TokenType string
	Index     int
	Position  Position

	// Offending source line, set by the lexer.
	Line       string
	LineNumber int

	Suggestion string
}

// New creates an error of the given kind without token information.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
	}
}

// WithToken records the offending token.
func (e *Error) WithToken(tokenType, text string, index int, pos Position) *Error {
	e.TokenType = tokenType
	e.Token = text
	e.Index = index
	e.Position = pos
	return e
}

// WithLine records the offending source line and its 1-based number.
func (e *Error) WithLine(number int, line string) *Error {
	e.LineNumber = number
	e.Line = line
	return e
}

// WithSuggestion attaches a "did you mean" hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " [token %d %s", e.Index, e.TokenType)
		if e.Token != "" {
			fmt.Fprintf(&b, " %q", e.Token)
		}
		b.WriteString("]")
	}
	if e.Position.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", e.Position.Line, e.Position.Column)
	}
	if e.Line != "" {
		b.WriteString("\n")
		b.WriteString(e.snippet())
	}
	return b.String()
}

// snippet renders the offending line with a caret under the error column.
func (e *Error) snippet() string {
	var b strings.Builder
	fmt.Fprintf(&b, "   |\n%2d | %s\n   | ", e.LineNumber, e.Line)
	col := e.Position.Column
	if col <= 0 {
		col = firstNonSpace(e.Line) + 1
	}
	if col <= len(e.Line)+1 {
		b.WriteString(strings.Repeat(" ", col-1) + "^")
	}
	return b.String()
}

func firstNonSpace(s string) int {
	for i, r := range s {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return 0
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err and whether err is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is (or wraps) a *Error of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
