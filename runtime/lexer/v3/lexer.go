// Package v3 tokenizes OpenQASM 3 source text.
package v3

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/runtime/lexer"
)

// MajorVersion is the only OpenQASM major version this lexer accepts.
const MajorVersion = 3

// blockKeywords start lines that may legitimately lack a ';' because they
// open a block on the same or the following line.
var blockKeywords = []string{
	"gate", "def", "if", "else", "for", "while", "switch", "case", "default", "box", "extern",
}

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	logger             *slog.Logger
	skipTerminatorScan bool
}

// WithLogger routes debug tracing of every emitted token to logger
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// WithSkipTerminatorCheck disables the line-level ';' pre-scan. Useful for
// tokenizing fragments such as single expressions.
func WithSkipTerminatorCheck() LexerOpt {
	return func(c *LexerConfig) {
		c.skipTerminatorScan = true
	}
}

// Lexer represents the OpenQASM 3 lexer
type Lexer struct {
	input    string
	position int // byte offset of the current character
	line     int
	column   int

	config LexerConfig
	logger *slog.Logger
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

	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
		config: config,
		logger: logger,
	}
}

// Lex tokenizes the whole input. The returned slice always ends with EOF.
// The first error aborts lexing and no tokens are returned.
func (l *Lexer) Lex() ([]Token, error) {
	if !l.config.skipTerminatorScan {
		if err := lexer.VerifyTerminators(l.input, blockKeywords...); err != nil {
			return nil, err
		}
	}

	tokens := make([]Token, 0, len(l.input)/3+1)
	for {
		tok, err := l.lexToken()
		if err != nil {
			l.logger.Debug("lex failed", "error", err)
			return nil, err
		}
		l.logger.Debug("token",
			"type", tok.Type.String(),
			"literal", tok.Literal,
			"line", tok.Position.Line,
			"column", tok.Position.Column)
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
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

	ch := l.currentRune()

	if lexer.IsIdentStart(ch) {
		return l.lexIdentifier(start)
	}

	if lexer.IsDigit(ch) || (ch == '.' && lexer.IsDigit(l.peekRune())) {
		return l.lexNumber(start), nil
	}

	if ch == '"' || ch == '’' {
		return l.lexString(start)
	}

	switch ch {
	case ';':
		return l.single(SEMICOLON, start), nil
	case ',':
		return l.single(COMMA, start), nil
	case ':':
		return l.single(COLON, start), nil
	case '.':
		return l.single(DOT, start), nil
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
	case '@':
		return l.single(AT, start), nil
	case '~':
		return l.single(TILDE, start), nil
	case '=':
		return l.lexOperator(start, EQUALS, pair{'=', EQ_EQ}), nil
	case '!':
		return l.lexOperator(start, NOT, pair{'=', NOT_EQ}), nil
	case '+':
		return l.lexOperator(start, PLUS, pair{'=', PLUS_ASSIGN}, pair{'+', CONCAT}), nil
	case '-':
		return l.lexOperator(start, MINUS, pair{'>', ARROW}, pair{'=', MINUS_ASSIGN}), nil
	case '*':
		return l.lexStar(start), nil
	case '/':
		return l.lexOperator(start, DIVIDE, pair{'=', DIVIDE_ASSIGN}), nil
	case '%':
		return l.lexOperator(start, MODULO, pair{'=', MODULO_ASSIGN}), nil
	case '&':
		return l.lexOperator(start, AMPERSAND, pair{'&', AND_AND}, pair{'=', AND_ASSIGN}), nil
	case '|':
		return l.lexOperator(start, PIPE, pair{'|', OR_OR}, pair{'=', OR_ASSIGN}), nil
	case '^':
		return l.lexOperator(start, CARET, pair{'=', XOR_ASSIGN}), nil
	case '<':
		return l.lexShift(start, '<', LT, LT_EQ, LSHIFT, LSHIFT_ASSIGN), nil
	case '>':
		return l.lexShift(start, '>', GT, GT_EQ, RSHIFT, RSHIFT_ASSIGN), nil
	}

	// Unrecognized character - advance and mark as illegal
	l.advanceChar()
	return Token{Type: ILLEGAL, Literal: string(ch), Position: start}, nil
}

// pair maps a second character to the two-character token it forms
type pair struct {
	next rune
	tok  TokenType
}

// lexOperator consumes one character and resolves two-character operators by
// one character of lookahead.
func (l *Lexer) lexOperator(start Position, single TokenType, pairs ...pair) Token {
	l.advanceChar()
	next := l.currentRune()
	for _, p := range pairs {
		if next == p.next {
			l.advanceChar()
			return Token{Type: p.tok, Position: start}
		}
	}
	return Token{Type: single, Position: start}
}

// lexStar handles '*', '*=', '**' and '**='
func (l *Lexer) lexStar(start Position) Token {
	l.advanceChar()
	switch l.currentRune() {
	case '=':
		l.advanceChar()
		return Token{Type: MULTIPLY_ASSIGN, Position: start}
	case '*':
		l.advanceChar()
		if l.currentRune() == '=' {
			l.advanceChar()
			return Token{Type: POWER_ASSIGN, Position: start}
		}
		return Token{Type: POWER, Position: start}
	}
	return Token{Type: MULTIPLY, Position: start}
}

// lexShift handles '<', '<=', '<<', '<<=' and their '>' counterparts
func (l *Lexer) lexShift(start Position, ch rune, single, orEqual, shift, shiftAssign TokenType) Token {
	l.advanceChar()
	switch l.currentRune() {
	case '=':
		l.advanceChar()
		return Token{Type: orEqual, Position: start}
	case ch:
		l.advanceChar()
		if l.currentRune() == '=' {
			l.advanceChar()
			return Token{Type: shiftAssign, Position: start}
		}
		return Token{Type: shift, Position: start}
	}
	return Token{Type: single, Position: start}
}

func (l *Lexer) single(tt TokenType, start Position) Token {
	l.advanceChar()
	return Token{Type: tt, Position: start}
}

// skipWhitespaceAndComments skips whitespace, // line comments and /* */ block comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.position < len(l.input) {
		ch := l.currentRune()
		switch {
		case lexer.IsWhitespace(ch):
			l.advanceChar()
		case ch == '/' && l.peekRune() == '/':
			for l.position < len(l.input) && l.currentRune() != '\n' {
				l.advanceChar()
			}
		case ch == '/' && l.peekRune() == '*':
			// An unterminated block comment runs to end of input
			l.advanceChar()
			l.advanceChar()
			for l.position < len(l.input) {
				if l.currentRune() == '*' && l.peekRune() == '/' {
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

// lexIdentifier reads an identifier, keyword, version header or gate modifier
func (l *Lexer) lexIdentifier(start Position) (Token, error) {
	startPos := l.position
	for l.position < len(l.input) && lexer.IsIdentPart(l.currentRune()) {
		l.advanceChar()
	}
	text := l.input[startPos:l.position]

	if text == "OPENQASM" {
		return l.lexVersionHeader(start)
	}

	if tt, ok := modifiers[text]; ok {
		if l.modifierFollows() {
			return Token{Type: tt, Position: start}, nil
		}
		if tt == POW {
			return Token{Type: MATH_FUNCTION, Literal: text, Position: start}, nil
		}
		return Token{Type: IDENTIFIER, Literal: text, Position: start}, nil
	}

	if tt, ok := Keywords[text]; ok {
		if literalKeywords[tt] {
			return Token{Type: tt, Literal: text, Position: start}, nil
		}
		return Token{Type: tt, Position: start}, nil
	}

	return Token{Type: IDENTIFIER, Literal: text, Position: start}, nil
}

// modifierFollows scans ahead, at most to the next ';', for the '@' that turns
// ctrl/negctrl/inv/pow into a gate modifier. Without it the word is an
// ordinary identifier. An '@' or ';' inside a comment or string literal
// does not count.
func (l *Lexer) modifierFollows() bool {
	rest := l.input[l.position:]
	for i := 0; i < len(rest); i++ {
		switch c := rest[i]; {
		case c == ';':
			return false
		case c == '@':
			return true
		case strings.HasPrefix(rest[i:], "//"):
			end := strings.IndexByte(rest[i:], '\n')
			if end < 0 {
				return false
			}
			i += end
		case strings.HasPrefix(rest[i:], "/*"):
			end := strings.Index(rest[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == '"' || strings.HasPrefix(rest[i:], "’"):
			_, open := utf8.DecodeRuneInString(rest[i:])
			end := strings.IndexAny(rest[i+open:], "\"’")
			if end < 0 {
				return false
			}
			_, closing := utf8.DecodeRuneInString(rest[i+open+end:])
			i += open + end + closing - 1
		}
	}
	return false
}

// lexVersionHeader reads the version after OPENQASM and rejects any major
// version other than 3.
func (l *Lexer) lexVersionHeader(start Position) (Token, error) {
	for l.position < len(l.input) && (l.currentRune() == ' ' || l.currentRune() == '\t') {
		l.advanceChar()
	}

	versionStart := l.position
	for l.position < len(l.input) && (lexer.IsDigit(l.currentRune()) || l.currentRune() == '.') {
		l.advanceChar()
	}
	version := l.input[versionStart:l.position]

	canonical := "v" + version
	if version == "" || !semver.IsValid(canonical) {
		return Token{}, l.errorAt(qasmerr.UnsupportedVersion, start, "malformed OpenQASM version %q", version)
	}
	if semver.Major(canonical) != "v3" {
		return Token{}, l.errorAt(qasmerr.UnsupportedVersion, start,
			"OpenQASM %s is not supported by the version %d lexer", version, MajorVersion)
	}

	return Token{Type: OPENQASM, Literal: version, Position: start}, nil
}

// lexNumber tokenizes numeric literals: integers in four radixes, floats,
// imaginary literals and durations.
func (l *Lexer) lexNumber(start Position) Token {
	startPos := l.position

	if l.currentRune() == '0' {
		radix := 0
		switch l.peekRune() {
		case 'b', 'B':
			radix = 2
		case 'o':
			radix = 8
		case 'x', 'X':
			radix = 16
		}
		if radix != 0 {
			l.advanceChar()
			l.advanceChar()
			l.readDigits(radix)
			return Token{Type: INTEGER, Literal: stripUnderscores(l.input[startPos:l.position]), Position: start}
		}
	}

	isFloat := false
	l.readDigits(10)

	if l.currentRune() == '.' && !lexer.IsIdentStart(l.peekRune()) {
		l.advanceChar()
		l.readDigits(10)
		isFloat = true
	}

	// Exponent only when digits follow, so "2e" stays INTEGER(2) IDENTIFIER(e)
	if ch := l.currentRune(); ch == 'e' || ch == 'E' {
		next := l.peekRune()
		skip := 1
		if next == '+' || next == '-' {
			next = l.runeAt(l.position + 2)
			skip = 2
		}
		if lexer.IsDigit(next) {
			for i := 0; i < skip; i++ {
				l.advanceChar()
			}
			l.readDigits(10)
			isFloat = true
		}
	}

	text := stripUnderscores(l.input[startPos:l.position])

	if l.suffix("im") {
		return Token{Type: IMAGINARY, Literal: text, Position: start}
	}
	for _, unit := range durationUnits {
		if l.suffix(unit) {
			return Token{Type: DURATION_LITERAL, Literal: text + unit, Position: start}
		}
	}

	if isFloat {
		return Token{Type: FLOAT, Literal: text, Position: start}
	}
	return Token{Type: INTEGER, Literal: text, Position: start}
}

// durationUnits lists duration suffixes, longer spellings before "s"
var durationUnits = []string{"ns", "us", "µs", "ms", "dt", "s"}

// suffix consumes word when it directly follows the number and is not the
// start of a longer identifier.
func (l *Lexer) suffix(word string) bool {
	if !strings.HasPrefix(l.input[l.position:], word) {
		return false
	}
	if lexer.IsIdentPart(l.runeAt(l.position + len(word))) {
		return false
	}
	for range word {
		l.advanceChar()
	}
	return true
}

// readDigits reads digits of the radix and '_' separators
func (l *Lexer) readDigits(radix int) {
	for l.position < len(l.input) {
		ch := l.currentRune()
		if ch != '_' && !lexer.IsRadixDigit(ch, radix) {
			return
		}
		l.advanceChar()
	}
}

func stripUnderscores(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

// lexString reads a string literal. Both '"' and the right single quote ’
// close a string, whichever comes first; a string made only of 0, 1 and '_'
// is a bit string.
func (l *Lexer) lexString(start Position) (Token, error) {
	l.advanceChar() // opening quote

	contentStart := l.position
	for {
		if l.position >= len(l.input) || l.currentRune() == '\n' {
			return Token{}, l.errorAt(qasmerr.BadStringLiteral, start, "unterminated string literal")
		}
		ch := l.currentRune()
		if ch == '"' || ch == '’' {
			break
		}
		l.advanceChar()
	}
	content := l.input[contentStart:l.position]
	l.advanceChar() // closing quote

	if isBitString(content) {
		return Token{Type: BITSTRING, Literal: stripUnderscores(content), Position: start}, nil
	}
	return Token{Type: STRING, Literal: content, Position: start}, nil
}

func isBitString(s string) bool {
	if s == "" || s[0] == '_' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' && s[i] != '_' {
			return false
		}
	}
	return true
}

// pos returns the current source position
func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// currentRune returns the rune at the current position, or 0 at EOF
func (l *Lexer) currentRune() rune {
	return l.runeAt(l.position)
}

// peekRune returns the rune after the current one, or 0 at EOF
func (l *Lexer) peekRune() rune {
	if l.position >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.position:])
	return l.runeAt(l.position + size)
}

func (l *Lexer) runeAt(offset int) rune {
	if offset >= len(l.input) {
		return 0
	}
	ch := l.input[offset]
	if ch < utf8.RuneSelf {
		return rune(ch)
	}
	r, _ := utf8.DecodeRuneInString(l.input[offset:])
	return r
}

// advanceChar moves to the next character, tracking line and column
func (l *Lexer) advanceChar() {
	if l.position >= len(l.input) {
		return
	}

	ch := l.input[l.position]
	if ch < utf8.RuneSelf {
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.position++
		return
	}

	_, size := utf8.DecodeRuneInString(l.input[l.position:])
	l.position += size
	l.column++ // Unicode characters count as 1 column for display
}

// errorAt builds a lexer error carrying the offending source line
func (l *Lexer) errorAt(kind qasmerr.Kind, at Position, format string, args ...any) *qasmerr.Error {
	return qasmerr.New(kind, format, args...).
		WithToken("", "", -1, at.Err()).
		WithLine(at.Line, lexer.LineAt(l.input, at.Line))
}
