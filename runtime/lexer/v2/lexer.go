// Package v2 tokenizes OpenQASM 2 source text.
package v2

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/runtime/lexer"
)

// MajorVersion is the only OpenQASM major version this lexer accepts.
const MajorVersion = 2

var blockKeywords = []string{"gate"}

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + timing per type
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry          TelemetryMode
	logger             *slog.Logger
	skipTerminatorScan bool
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per type)
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithLogger routes debug tracing of every emitted token to logger
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// WithSkipTerminatorCheck disables the line-level ';' pre-scan
func WithSkipTerminatorCheck() LexerOpt {
	return func(c *LexerConfig) {
		c.skipTerminatorScan = true
	}
}

// TokenTelemetry holds per-token type telemetry
type TokenTelemetry struct {
	Type      TokenType
	Count     int
	TotalTime time.Duration
	AvgTime   time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Lexer represents the OpenQASM 2 lexer
type Lexer struct {
	input    string
	position int
	line     int
	column   int

	config LexerConfig
	logger *slog.Logger

	// nil when telemetry is off
	tokenTelemetry map[TokenType]*TokenTelemetry
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := LexerConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.logger
	if logger == nil {
		logger = lexer.DiscardLogger()
	}

	l := &Lexer{
		input:  input,
		line:   1,
		column: 1,
		config: config,
		logger: logger,
	}
	if config.telemetry > TelemetryOff {
		l.tokenTelemetry = make(map[TokenType]*TokenTelemetry)
	}
	return l
}

// GetTokenTelemetry returns a copy of the per-token type telemetry, or nil
// when telemetry is off.
func (l *Lexer) GetTokenTelemetry() map[TokenType]*TokenTelemetry {
	if l.tokenTelemetry == nil {
		return nil
	}

	result := make(map[TokenType]*TokenTelemetry, len(l.tokenTelemetry))
	for k, v := range l.tokenTelemetry {
		telemetryCopy := *v
		result[k] = &telemetryCopy
	}
	return result
}

// Lex tokenizes the whole input. The returned slice always ends with EOF.
func (l *Lexer) Lex() ([]Token, error) {
	if !l.config.skipTerminatorScan {
		if err := lexer.VerifyTerminators(l.input, blockKeywords...); err != nil {
			return nil, err
		}
	}

	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.logger.Debug("token", "type", tok.Type.String(), "literal", tok.Literal,
			"line", tok.Position.Line, "column", tok.Position.Column)
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// nextToken lexes one token and records telemetry when enabled
func (l *Lexer) nextToken() (Token, error) {
	var start time.Time
	if l.config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	tok, err := l.lexToken()
	if err != nil {
		return Token{}, err
	}

	if l.config.telemetry > TelemetryOff {
		var elapsed time.Duration
		if l.config.telemetry >= TelemetryTiming {
			elapsed = time.Since(start)
		}
		l.recordTokenTelemetry(tok.Type, elapsed)
	}
	return tok, nil
}

func (l *Lexer) recordTokenTelemetry(tokenType TokenType, elapsed time.Duration) {
	telemetry, exists := l.tokenTelemetry[tokenType]
	if !exists {
		telemetry = &TokenTelemetry{Type: tokenType, MinTime: elapsed, MaxTime: elapsed}
		l.tokenTelemetry[tokenType] = telemetry
	}

	telemetry.Count++

	if l.config.telemetry >= TelemetryTiming {
		telemetry.TotalTime += elapsed
		telemetry.AvgTime = telemetry.TotalTime / time.Duration(telemetry.Count)
		if elapsed < telemetry.MinTime {
			telemetry.MinTime = elapsed
		}
		if elapsed > telemetry.MaxTime {
			telemetry.MaxTime = elapsed
		}
	}
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() (Token, error) {
	l.skipWhitespaceAndComments()

	start := l.pos()
	if l.position >= len(l.input) {
		return Token{Type: EOF, Position: start}, nil
	}

	ch := l.currentChar()
	switch {
	case ch == '"' || strings.HasPrefix(l.input[l.position:], "’"):
		return l.lexString(start)
	case isIdentStart(ch):
		return l.lexIdentifier(start)
	case lexer.IsDigit(rune(ch)) || (ch == '.' && lexer.IsDigit(rune(l.peekChar()))):
		return l.lexNumber(start), nil
	}

	switch ch {
	case ';':
		return l.single(SEMICOLON, start), nil
	case ',':
		return l.single(COMMA, start), nil
	case '(':
		return l.single(LPAREN, start), nil
	case ')':
		return l.single(RPAREN, start), nil
	case '[':
		return l.single(LSQUARE, start), nil
	case ']':
		return l.single(RSQUARE, start), nil
	case '{':
		return l.single(LBRACE, start), nil
	case '}':
		return l.single(RBRACE, start), nil
	case '+':
		return l.single(PLUS, start), nil
	case '*':
		return l.single(MULTIPLY, start), nil
	case '/':
		return l.single(DIVIDE, start), nil
	case '^':
		return l.single(POWER, start), nil
	case '-':
		return l.lexMinus(start), nil
	case '=':
		return l.lexEquals(start)
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.position:])
	l.advanceChar()
	return Token{Type: ILLEGAL, Literal: string(r), Position: start}, nil
}

func (l *Lexer) single(tt TokenType, start Position) Token {
	l.advanceChar()
	return Token{Type: tt, Position: start}
}

// lexMinus handles '-' and '->'
func (l *Lexer) lexMinus(start Position) Token {
	l.advanceChar()
	if l.currentChar() == '>' {
		l.advanceChar()
		return Token{Type: ARROW, Position: start}
	}
	return Token{Type: MINUS, Position: start}
}

// lexEquals handles '=='. OpenQASM 2 has no assignment, so a lone '=' is an error.
func (l *Lexer) lexEquals(start Position) (Token, error) {
	l.advanceChar()
	if l.currentChar() != '=' {
		return Token{}, l.errorAt(qasmerr.BadEquals, start, "expected '==', found a single '='")
	}
	l.advanceChar()
	return Token{Type: EQ_EQ, Position: start}, nil
}

// skipWhitespaceAndComments skips whitespace and comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.position < len(l.input) {
		ch := l.currentChar()
		switch {
		case lexer.IsWhitespace(rune(ch)):
			l.advanceChar()
		case ch == '/' && l.peekChar() == '/':
			for l.position < len(l.input) && l.currentChar() != '\n' {
				l.advanceChar()
			}
		case ch == '/' && l.peekChar() == '*':
			l.advanceChar()
			l.advanceChar()
			for l.position < len(l.input) {
				if l.currentChar() == '*' && l.peekChar() == '/' {
					l.advanceChar()
					l.advanceChar()
					break
				}
				l.advanceChar()
			}
		default:
			return
		}
	}
}

// lexIdentifier reads identifiers, keywords and the version header
func (l *Lexer) lexIdentifier(start Position) (Token, error) {
	startPos := l.position
	for l.position < len(l.input) && isIdentPart(l.currentChar()) {
		l.advanceChar()
	}
	text := l.input[startPos:l.position]

	if text == "OPENQASM" {
		return l.lexVersionHeader(start)
	}
	if tt, ok := Keywords[text]; ok {
		if tt == MATH_FUNCTION {
			return Token{Type: tt, Literal: text, Position: start}, nil
		}
		return Token{Type: tt, Position: start}, nil
	}
	return Token{Type: IDENTIFIER, Literal: text, Position: start}, nil
}

// lexVersionHeader reads the version after OPENQASM and rejects any major
// version other than 2.
func (l *Lexer) lexVersionHeader(start Position) (Token, error) {
	for l.currentChar() == ' ' || l.currentChar() == '\t' {
		l.advanceChar()
	}
	versionStart := l.position
	for lexer.IsDigit(rune(l.currentChar())) || l.currentChar() == '.' {
		l.advanceChar()
	}
	version := l.input[versionStart:l.position]

	canonical := "v" + version
	if version == "" || !semver.IsValid(canonical) {
		return Token{}, l.errorAt(qasmerr.UnsupportedVersion, start, "malformed OpenQASM version %q", version)
	}
	if semver.Major(canonical) != "v2" {
		return Token{}, l.errorAt(qasmerr.UnsupportedVersion, start,
			"OpenQASM %s is not supported by the version %d lexer", version, MajorVersion)
	}
	return Token{Type: OPENQASM, Literal: version, Position: start}, nil
}

// lexNumber reads integers and reals with optional fraction and exponent
func (l *Lexer) lexNumber(start Position) Token {
	startPos := l.position
	isReal := false

	l.readDigits()
	if l.currentChar() == '.' {
		l.advanceChar()
		l.readDigits()
		isReal = true
	}
	if ch := l.currentChar(); ch == 'e' || ch == 'E' {
		next := l.peekChar()
		skip := 1
		if next == '+' || next == '-' {
			next = l.charAt(l.position + 2)
			skip = 2
		}
		if lexer.IsDigit(rune(next)) {
			for i := 0; i < skip; i++ {
				l.advanceChar()
			}
			l.readDigits()
			isReal = true
		}
	}

	text := l.input[startPos:l.position]
	if isReal {
		return Token{Type: REAL, Literal: text, Position: start}
	}
	return Token{Type: INTEGER, Literal: text, Position: start}
}

func (l *Lexer) readDigits() {
	for lexer.IsDigit(rune(l.currentChar())) {
		l.advanceChar()
	}
}

// lexString reads a string closed by '"' or ’
func (l *Lexer) lexString(start Position) (Token, error) {
	l.advanceChar()

	contentStart := l.position
	for {
		if l.position >= len(l.input) || l.currentChar() == '\n' {
			return Token{}, l.errorAt(qasmerr.BadStringLiteral, start, "unterminated string literal")
		}
		if l.currentChar() == '"' || strings.HasPrefix(l.input[l.position:], "’") {
			break
		}
		l.advanceChar()
	}
	content := l.input[contentStart:l.position]
	l.advanceChar()
	return Token{Type: STRING, Literal: content, Position: start}, nil
}

// Identifiers are ASCII in OpenQASM 2
func isIdentStart(ch byte) bool {
	return ch < utf8.RuneSelf && lexer.IsIdentStart(rune(ch))
}

func isIdentPart(ch byte) bool {
	return ch < utf8.RuneSelf && lexer.IsIdentPart(rune(ch))
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// currentChar returns the current byte, or 0 at EOF
func (l *Lexer) currentChar() byte {
	return l.charAt(l.position)
}

func (l *Lexer) peekChar() byte {
	return l.charAt(l.position + 1)
}

func (l *Lexer) charAt(offset int) byte {
	if offset >= len(l.input) {
		return 0
	}
	return l.input[offset]
}

// advanceChar moves past the current character, which may be multi-byte
func (l *Lexer) advanceChar() {
	if l.position >= len(l.input) {
		return
	}
	if l.input[l.position] == '\n' {
		l.line++
		l.column = 1
		l.position++
		return
	}
	_, size := utf8.DecodeRuneInString(l.input[l.position:])
	l.position += size
	l.column++
}

func (l *Lexer) errorAt(kind qasmerr.Kind, at Position, format string, args ...any) *qasmerr.Error {
	return qasmerr.New(kind, format, args...).
		WithToken("", "", -1, at.Err()).
		WithLine(at.Line, lexer.LineAt(l.input, at.Line))
}
