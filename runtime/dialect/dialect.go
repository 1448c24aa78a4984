// Package dialect picks the OpenQASM lexer and parser pair for a source text
// and runs them.
package dialect

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fxamacker/cbor/v2"

	astv2 "github.com/aledsdavies/qasm/core/ast/v2"
	astv3 "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/astfmt"
	"github.com/aledsdavies/qasm/core/qasmerr"
	baselexer "github.com/aledsdavies/qasm/runtime/lexer"
	lexv2 "github.com/aledsdavies/qasm/runtime/lexer/v2"
	lexv3 "github.com/aledsdavies/qasm/runtime/lexer/v3"
	parsev2 "github.com/aledsdavies/qasm/runtime/parser/v2"
	parsev3 "github.com/aledsdavies/qasm/runtime/parser/v3"
)

// Dialect is an OpenQASM language version family.
type Dialect int

const (
	Auto Dialect = iota // detect from the version header
	V2
	V3
)

// Default is used when a source has no version header.
const Default = V3

func (d Dialect) String() string {
	switch d {
	case Auto:
		return "auto"
	case V2:
		return "OpenQASM 2"
	case V3:
		return "OpenQASM 3"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// Major returns the major language version, or 0 for Auto.
func (d Dialect) Major() int {
	switch d {
	case V2:
		return lexv2.MajorVersion
	case V3:
		return lexv3.MajorVersion
	}
	return 0
}

// FromMajor maps a major version number to its dialect.
func FromMajor(major int) (Dialect, error) {
	return ForVersion(fmt.Sprint(major))
}

var supported = []struct {
	constraint *semver.Constraints
	dialect    Dialect
}{
	{mustConstraint("^2"), V2},
	{mustConstraint("^3"), V3},
}

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("invalid constraint %q: %v", c, err))
	}
	return constraint
}

// ForVersion maps a version such as "2.0" or "3" to its dialect.
func ForVersion(version string) (Dialect, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return Auto, qasmerr.New(qasmerr.UnsupportedVersion, "malformed OpenQASM version %q", version)
	}
	for _, s := range supported {
		if s.constraint.Check(v) {
			return s.dialect, nil
		}
	}
	return Auto, qasmerr.New(qasmerr.UnsupportedVersion, "OpenQASM %s is not supported", version)
}

// Detect reads the version header at the top of source. A source without a
// header is reported as Default with a nil version.
func Detect(source string) (Dialect, *semver.Version, error) {
	rest := skipTrivia(source)
	if !strings.HasPrefix(rest, "OPENQASM") {
		return Default, nil, nil
	}
	rest = strings.TrimLeft(rest[len("OPENQASM"):], " \t")
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !baselexer.IsDigit(r) && r != '.'
	})
	if end < 0 {
		end = len(rest)
	}
	number := rest[:end]

	d, err := ForVersion(number)
	if err != nil {
		return Auto, nil, err
	}
	v, _ := semver.NewVersion(number)
	return d, v, nil
}

// skipTrivia drops leading whitespace and comments.
func skipTrivia(s string) string {
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return baselexer.IsWhitespace(r) })
		switch {
		case strings.HasPrefix(s, "//"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s[2:], "*/"); i >= 0 {
				s = s[i+4:]
			} else {
				return ""
			}
		default:
			return s
		}
	}
}

// Opt configures Lex and Parse.
type Opt func(*Config)

// Config holds dispatch configuration.
type Config struct {
	dialect  Dialect
	maxDepth int
	logger   *slog.Logger
	skipScan bool
}

// WithDialect forces a dialect instead of detecting it.
func WithDialect(d Dialect) Opt {
	return func(c *Config) {
		c.dialect = d
	}
}

// WithMaxDepth sets the parser nesting budget.
func WithMaxDepth(depth int) Opt {
	return func(c *Config) {
		c.maxDepth = depth
	}
}

// WithLogger passes logger to the lexer and parser.
func WithLogger(logger *slog.Logger) Opt {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithSkipTerminatorCheck disables the lexer's line-level ';' pre-scan.
func WithSkipTerminatorCheck() Opt {
	return func(c *Config) {
		c.skipScan = true
	}
}

func newConfig(source string, opts []Opt) (Config, error) {
	var config Config
	for _, opt := range opts {
		opt(&config)
	}
	if config.logger == nil {
		config.logger = baselexer.DiscardLogger()
	}
	if config.dialect == Auto {
		d, _, err := Detect(source)
		if err != nil {
			return config, err
		}
		config.dialect = d
	}
	return config, nil
}

// Token is a dialect-neutral view of one lexed token.
type Token struct {
	Type    string `json:"type" cbor:"1,keyasint"`
	Literal string `json:"literal,omitempty" cbor:"2,keyasint,omitempty"`
	Line    int    `json:"line" cbor:"3,keyasint"`
	Column  int    `json:"column" cbor:"4,keyasint"`
}

func (t Token) String() string {
	if t.Literal != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type
}

// EncodeTokens encodes tokens as canonical CBOR, so equal token streams
// always produce equal bytes.
func EncodeTokens(tokens []Token) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// DecodeTokens reverses EncodeTokens.
func DecodeTokens(data []byte) ([]Token, error) {
	var tokens []Token
	if err := cbor.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	return tokens, nil
}

// Lex tokenizes source with the selected dialect's lexer.
func Lex(source string, opts ...Opt) (Dialect, []Token, error) {
	config, err := newConfig(source, opts)
	if err != nil {
		return Auto, nil, err
	}

	switch config.dialect {
	case V2:
		tokens, err := lexV2(source, config)
		if err != nil {
			return V2, nil, err
		}
		out := make([]Token, len(tokens))
		for i, t := range tokens {
			out[i] = Token{Type: t.Type.String(), Literal: t.Literal, Line: t.Position.Line, Column: t.Position.Column}
		}
		return V2, out, nil
	case V3:
		tokens, err := lexV3(source, config)
		if err != nil {
			return V3, nil, err
		}
		out := make([]Token, len(tokens))
		for i, t := range tokens {
			out[i] = Token{Type: t.Type.String(), Literal: t.Literal, Line: t.Position.Line, Column: t.Position.Column}
		}
		return V3, out, nil
	}
	return Auto, nil, fmt.Errorf("dialect: unknown dialect %s", config.dialect)
}

// Program is the result of parsing one source text. Exactly one of V2 and V3
// is set, matching Dialect.
type Program struct {
	Dialect    Dialect
	TokenCount int
	V2         []astv2.Statement
	V3         []astv3.Statement
}

// Len returns the number of top-level statements.
func (p *Program) Len() int {
	if p.Dialect == V2 {
		return len(p.V2)
	}
	return len(p.V3)
}

// String renders the program one statement per line.
func (p *Program) String() string {
	if p.Dialect == V2 {
		return astv2.Program(p.V2)
	}
	return astv3.Program(p.V3)
}

// Canonical returns the canonical tree of the program.
func (p *Program) Canonical() (*astfmt.Tree, error) {
	if p.Dialect == V2 {
		return astfmt.FromV2(p.V2)
	}
	return astfmt.FromV3(p.V3)
}

// Parse lexes and parses source with the selected dialect.
func Parse(source string, opts ...Opt) (*Program, error) {
	config, err := newConfig(source, opts)
	if err != nil {
		return nil, err
	}
	config.logger.Debug("parsing", "dialect", config.dialect.String(), "bytes", len(source))

	switch config.dialect {
	case V2:
		tokens, err := lexV2(source, config)
		if err != nil {
			return nil, err
		}
		popts := []parsev2.ParserOpt{parsev2.WithLogger(config.logger)}
		if config.maxDepth > 0 {
			popts = append(popts, parsev2.WithMaxDepth(config.maxDepth))
		}
		stmts, err := parsev2.NewParser(tokens, popts...).Parse()
		if err != nil {
			return nil, err
		}
		return &Program{Dialect: V2, TokenCount: len(tokens), V2: stmts}, nil
	case V3:
		tokens, err := lexV3(source, config)
		if err != nil {
			return nil, err
		}
		popts := []parsev3.ParserOpt{parsev3.WithLogger(config.logger)}
		if config.maxDepth > 0 {
			popts = append(popts, parsev3.WithMaxDepth(config.maxDepth))
		}
		stmts, err := parsev3.NewParser(tokens, popts...).Parse()
		if err != nil {
			return nil, err
		}
		return &Program{Dialect: V3, TokenCount: len(tokens), V3: stmts}, nil
	}
	return nil, fmt.Errorf("dialect: unknown dialect %s", config.dialect)
}

func lexV2(source string, config Config) ([]lexv2.Token, error) {
	opts := []lexv2.LexerOpt{lexv2.WithLogger(config.logger)}
	if config.skipScan {
		opts = append(opts, lexv2.WithSkipTerminatorCheck())
	}
	return lexv2.NewLexer(source, opts...).Lex()
}

func lexV3(source string, config Config) ([]lexv3.Token, error) {
	opts := []lexv3.LexerOpt{lexv3.WithLogger(config.logger)}
	if config.skipScan {
		opts = append(opts, lexv3.WithSkipTerminatorCheck())
	}
	return lexv3.NewLexer(source, opts...).Lex()
}
