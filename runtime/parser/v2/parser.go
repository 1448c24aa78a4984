// Package v2 parses OpenQASM 2 token streams into syntax trees.
//
// The parser walks one cursor over the token buffer. Each top-level statement
// is first bounded by scanning to its terminating ';', treating a braced gate
// body as a single span, and is then parsed by the sub-parser for its leading
// token. Gate names are checked against an allow-list that starts with U and
// CX and grows with every gate and opaque declaration.
package v2

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	ast "github.com/aledsdavies/qasm/core/ast/v2"
	"github.com/aledsdavies/qasm/core/invariant"
	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/core/suggest"
	baselexer "github.com/aledsdavies/qasm/runtime/lexer"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v2"
)

// QelibInclude is the include file that makes the qelib1 gates known.
const QelibInclude = "qelib1.inc"

var builtinGates = []string{"U", "CX"}

// qelibGates are the gates declared by qelib1.inc.
var qelibGates = []string{
	"u3", "u2", "u1", "cx", "id", "u0", "u", "p", "x", "y", "z", "h", "s", "sdg", "t", "tdg",
	"rx", "ry", "rz", "sx", "sxdg", "cz", "cy", "swap", "ch", "ccx", "cswap", "crx", "cry",
	"crz", "cu1", "cp", "cu3", "csx", "cu", "rxx", "rzz", "rccx", "rc3x", "c3x", "c3sqrtx", "c4x",
}

// Parser turns one token stream into statements. A Parser is single use.
type Parser struct {
	tokens []lexer.Token
	pos    int
	gates  map[string]bool
	config ParserConfig
	logger *slog.Logger

	depth     int
	used      bool
	telemetry *ParseTelemetry // nil when telemetry is off
}

// NewParser creates a parser over tokens. A missing trailing EOF is added.
func NewParser(tokens []lexer.Token, opts ...ParserOpt) *Parser {
	config := ParserConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&config)
	}
	if config.maxDepth < 1 {
		config.maxDepth = DefaultMaxDepth
	}
	logger := config.logger
	if logger == nil {
		logger = baselexer.DiscardLogger()
	}

	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		var pos lexer.Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Position
		}
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Type: lexer.EOF, Position: pos})
	}

	p := &Parser{
		tokens: tokens,
		gates:  make(map[string]bool),
		config: config,
		logger: logger,
	}
	for _, g := range builtinGates {
		p.gates[g] = true
	}
	if config.telemetry > TelemetryOff {
		p.telemetry = &ParseTelemetry{TokenCount: len(tokens)}
	}
	return p
}

// Telemetry returns a copy of the collected metrics, or nil when telemetry is off.
func (p *Parser) Telemetry() *ParseTelemetry {
	if p.telemetry == nil {
		return nil
	}
	t := *p.telemetry
	return &t
}

// Parse parses the whole token stream into top-level statements.
func (p *Parser) Parse() ([]ast.Statement, error) {
	invariant.Precondition(!p.used, "Parser is single use; create a new one per token stream")
	p.used = true

	var start time.Time
	if p.config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	var stmts []ast.Statement
	for !p.at(lexer.EOF) {
		from := p.pos
		end, err := p.statementEnd()
		if err != nil {
			p.logger.Debug("parse failed", "error", err)
			return nil, err
		}
		stmt, err := p.statement()
		if err != nil {
			p.logger.Debug("parse failed", "error", err)
			return nil, err
		}
		invariant.Invariant(p.pos == end+1, "statement at token %d ended at %d, expected %d", from, p.pos, end+1)

		if stmt != nil {
			p.logger.Debug("statement", "node", fmt.Sprintf("%T", stmt), "index", from, "tokens", p.pos-from)
			stmts = append(stmts, stmt)
		}
	}
	invariant.Postcondition(p.depth == 0, "call depth %d after parse", p.depth)

	if p.telemetry != nil {
		p.telemetry.StatementCount = len(stmts)
		p.telemetry.GateCount = len(p.gates)
		if p.config.telemetry >= TelemetryTiming {
			p.telemetry.ParseTime = time.Since(start)
		}
	}
	return stmts, nil
}

// statementEnd returns the index of the token that ends the statement at the
// cursor: the first ';' outside braces, or the '}' that closes a braced span.
func (p *Parser) statementEnd() (int, error) {
	depth := 0
	for k := p.pos; ; k++ {
		switch p.tokens[k].Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
			if depth < 0 {
				return 0, p.errorAt(qasmerr.MissingBrace, k, "'}' without a matching '{'")
			}
			if depth == 0 {
				return k, nil
			}
		case lexer.SEMICOLON:
			if depth == 0 {
				return k, nil
			}
		case lexer.EOF:
			if depth > 0 {
				return 0, p.errorAt(qasmerr.MissingBrace, k, "'{' is never closed")
			}
			return 0, p.errorAt(qasmerr.MissingSemicolon, k, "missing ';' at end of statement")
		}
	}
}

// statement dispatches on the leading token. A nil statement means an empty
// statement was consumed.
func (p *Parser) statement() (ast.Statement, error) {
	switch p.current().Type {
	case lexer.OPENQASM:
		return p.version()
	case lexer.INCLUDE:
		return p.include()
	case lexer.QREG:
		return p.qreg()
	case lexer.CREG:
		return p.creg()
	case lexer.GATE:
		return p.gateDefinition()
	case lexer.OPAQUE:
		return p.opaque()
	case lexer.MEASURE:
		return p.measure()
	case lexer.BARRIER:
		return p.barrier(true)
	case lexer.RESET:
		return p.reset()
	case lexer.IF:
		return p.conditional()
	case lexer.IDENTIFIER:
		return p.applyGate(nil, true)
	case lexer.SEMICOLON:
		p.advance()
		return nil, nil
	}
	return nil, p.errorAt(qasmerr.BadArgument, p.pos, "unexpected %s at start of statement", describe(p.current()))
}

func (p *Parser) version() (ast.Statement, error) {
	number := p.current().Literal
	if v := "v" + number; !semver.IsValid(v) || semver.Major(v) != "v2" {
		return nil, p.errorAt(qasmerr.UnsupportedVersion, p.pos,
			"OPENQASM %s is not supported by the version 2 parser", number)
	}
	p.advance()
	if err := p.expect(lexer.SEMICOLON, qasmerr.MissingSemicolon, "after version header"); err != nil {
		return nil, err
	}
	return &ast.Version{Number: number}, nil
}

func (p *Parser) include() (ast.Statement, error) {
	toks, err := p.require(qasmerr.BadStringLiteral, "include", lexer.INCLUDE, lexer.STRING, lexer.SEMICOLON)
	if err != nil {
		return nil, err
	}
	file := toks[1].Literal
	if file == QelibInclude {
		for _, g := range qelibGates {
			p.gates[g] = true
		}
	}
	return &ast.Include{Filename: file}, nil
}

func (p *Parser) qreg() (ast.Statement, error) {
	name, size, err := p.register(qasmerr.BadQreg, "qreg declaration", lexer.QREG)
	if err != nil {
		return nil, err
	}
	return &ast.QReg{Name: name, Size: size}, nil
}

func (p *Parser) creg() (ast.Statement, error) {
	name, size, err := p.register(qasmerr.BadCreg, "creg declaration", lexer.CREG)
	if err != nil {
		return nil, err
	}
	return &ast.CReg{Name: name, Size: size}, nil
}

// register parses keyword name[size];.
func (p *Parser) register(kind qasmerr.Kind, what string, keyword lexer.TokenType) (string, int, error) {
	at := p.pos
	toks, err := p.require(kind, what, keyword, lexer.IDENTIFIER, lexer.LSQUARE, lexer.INTEGER, lexer.RSQUARE, lexer.SEMICOLON)
	if err != nil {
		return "", 0, err
	}
	size, err := strconv.Atoi(toks[3].Literal)
	if err != nil || size < 1 {
		return "", 0, p.errorAt(kind, at+3, "register size must be a positive integer, got %s", toks[3].Literal)
	}
	return toks[1].Literal, size, nil
}

// gateDefinition parses gate name(params) qubits { body }. The name becomes
// callable once the body is parsed.
func (p *Parser) gateDefinition() (ast.Statement, error) {
	p.advance() // gate
	name, params, qubits, err := p.gateSignature("gate")
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.LBRACE, qasmerr.BadGate, "to open the body of gate "+name); err != nil {
		return nil, err
	}

	vars := make(map[string]bool, len(params))
	for _, v := range params {
		vars[v] = true
	}
	gate := &ast.Gate{Name: name, Params: params, Qubits: qubits}
	for !p.at(lexer.RBRACE) {
		var (
			stmt ast.Statement
			err  error
		)
		switch p.current().Type {
		case lexer.IDENTIFIER:
			stmt, err = p.applyGate(vars, false)
		case lexer.BARRIER:
			stmt, err = p.barrier(false)
		case lexer.EOF:
			return nil, p.errorAt(qasmerr.MissingBrace, p.pos, "body of gate %s is not closed", name)
		default:
			return nil, p.errorAt(qasmerr.BadGate, p.pos,
				"only gate applications and barriers may appear in a gate body, found %s", describe(p.current()))
		}
		if err != nil {
			return nil, err
		}
		gate.Body = append(gate.Body, stmt)
	}
	p.advance() // }

	p.gates[name] = true
	return gate, nil
}

func (p *Parser) opaque() (ast.Statement, error) {
	p.advance() // opaque
	name, params, qubits, err := p.gateSignature("opaque")
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMICOLON, qasmerr.BadGate, "after opaque declaration"); err != nil {
		return nil, err
	}
	p.gates[name] = true
	return &ast.Opaque{Name: name, Params: params, Qubits: qubits}, nil
}

// gateSignature parses name [(params)] qubits after gate or opaque.
func (p *Parser) gateSignature(keyword string) (string, []string, []string, error) {
	name := p.current()
	if name.Type != lexer.IDENTIFIER {
		return "", nil, nil, p.errorAt(qasmerr.BadGate, p.pos, "expected a name after %s, found %s", keyword, describe(name))
	}
	p.advance()

	var params []string
	if p.at(lexer.LPAREN) {
		p.advance()
		if !p.at(lexer.RPAREN) {
			names, err := p.identifiers("gate parameter")
			if err != nil {
				return "", nil, nil, err
			}
			params = names
		}
		if err := p.expect(lexer.RPAREN, qasmerr.BadGate, "to close the parameters of "+name.Literal); err != nil {
			return "", nil, nil, err
		}
	}

	qubits, err := p.identifiers("gate qubit")
	if err != nil {
		return "", nil, nil, err
	}
	return name.Literal, params, qubits, nil
}

// identifiers parses a non-empty comma separated identifier list.
func (p *Parser) identifiers(what string) ([]string, error) {
	var names []string
	for {
		tok := p.current()
		if tok.Type != lexer.IDENTIFIER {
			return nil, p.errorAt(qasmerr.BadGate, p.pos, "expected %s name, found %s", what, describe(tok))
		}
		names = append(names, tok.Literal)
		p.advance()
		if !p.at(lexer.COMMA) {
			return names, nil
		}
		p.advance()
	}
}

// applyGate parses name [(params)] args;. vars holds the parameter names in
// scope inside a gate body and is nil at top level. Arguments may be indexed
// only outside gate bodies.
func (p *Parser) applyGate(vars map[string]bool, indexed bool) (ast.Statement, error) {
	name := p.current()
	if !p.gates[name.Literal] {
		return nil, p.unknownGate(name.Literal)
	}
	p.advance()

	call := &ast.ApplyGate{Name: name.Literal}
	if p.at(lexer.LPAREN) {
		params, err := p.parameters(vars)
		if err != nil {
			return nil, err
		}
		call.Params = params
	}
	args, err := p.arguments(qasmerr.BadArgument, indexed)
	if err != nil {
		return nil, err
	}
	call.Args = args
	if err := p.expect(lexer.SEMICOLON, qasmerr.BadGate, "after application of "+name.Literal); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) unknownGate(name string) *qasmerr.Error {
	err := p.errorAt(qasmerr.BadGate, p.pos, "unknown gate %q", name)
	names := make([]string, 0, len(p.gates))
	for g := range p.gates {
		names = append(names, g)
	}
	sort.Strings(names)
	if s := suggest.Closest(name, names); s != "" && s != name {
		err.WithSuggestion(s)
	}
	return err
}

func (p *Parser) measure() (ast.Statement, error) {
	p.advance() // measure
	source, err := p.argument(qasmerr.BadMeasurement, true)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.ARROW, qasmerr.BadMeasurement, "between measured qubit and target bit"); err != nil {
		return nil, err
	}
	target, err := p.argument(qasmerr.BadMeasurement, true)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMICOLON, qasmerr.BadMeasurement, "after measurement"); err != nil {
		return nil, err
	}
	return &ast.Measure{Source: source, Target: target}, nil
}

func (p *Parser) barrier(indexed bool) (ast.Statement, error) {
	p.advance() // barrier
	args, err := p.arguments(qasmerr.BadBarrier, indexed)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMICOLON, qasmerr.BadBarrier, "after barrier"); err != nil {
		return nil, err
	}
	return &ast.Barrier{Args: args}, nil
}

func (p *Parser) reset() (ast.Statement, error) {
	p.advance() // reset
	arg, err := p.argument(qasmerr.BadArgument, true)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMICOLON, qasmerr.BadArgument, "after reset"); err != nil {
		return nil, err
	}
	return &ast.Reset{Arg: arg}, nil
}

// conditional parses if (creg == n) followed by one quantum operation.
func (p *Parser) conditional() (ast.Statement, error) {
	at := p.pos
	toks, err := p.require(qasmerr.BadConditional, "if condition",
		lexer.IF, lexer.LPAREN, lexer.IDENTIFIER, lexer.EQ_EQ, lexer.INTEGER, lexer.RPAREN)
	if err != nil {
		return nil, err
	}
	value, err := strconv.Atoi(toks[4].Literal)
	if err != nil {
		return nil, p.errorAt(qasmerr.BadConditional, at+4, "invalid comparison value %s", toks[4].Literal)
	}

	var body ast.Statement
	switch p.current().Type {
	case lexer.IDENTIFIER:
		body, err = p.applyGate(nil, true)
	case lexer.MEASURE:
		body, err = p.measure()
	case lexer.RESET:
		body, err = p.reset()
	default:
		return nil, p.errorAt(qasmerr.BadConditional, p.pos,
			"if must be followed by a quantum operation, found %s", describe(p.current()))
	}
	if err != nil {
		return nil, err
	}
	return &ast.If{Register: toks[2].Literal, Value: value, Body: body}, nil
}

// arguments parses a non-empty comma separated argument list.
func (p *Parser) arguments(kind qasmerr.Kind, indexed bool) ([]ast.Argument, error) {
	var args []ast.Argument
	for {
		arg, err := p.argument(kind, indexed)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.at(lexer.COMMA) {
			return args, nil
		}
		p.advance()
	}
}

// argument parses name or name[index].
func (p *Parser) argument(kind qasmerr.Kind, indexed bool) (ast.Argument, error) {
	tok := p.current()
	if tok.Type != lexer.IDENTIFIER {
		return ast.Argument{}, p.errorAt(kind, p.pos, "expected a register name, found %s", describe(tok))
	}
	p.advance()
	arg := ast.Argument{Register: tok.Literal, Index: -1}
	if !p.at(lexer.LSQUARE) {
		return arg, nil
	}
	if !indexed {
		return ast.Argument{}, p.errorAt(kind, p.pos, "gate bodies address whole qubits; %s cannot be indexed", tok.Literal)
	}
	at := p.pos
	toks, err := p.require(kind, "register index", lexer.LSQUARE, lexer.INTEGER, lexer.RSQUARE)
	if err != nil {
		return ast.Argument{}, err
	}
	index, err := strconv.Atoi(toks[1].Literal)
	if err != nil {
		return ast.Argument{}, p.errorAt(kind, at+1, "invalid register index %s", toks[1].Literal)
	}
	arg.Index = index
	return arg, nil
}

// matchNext reports whether the tokens from the cursor on have exactly the
// given types.
func (p *Parser) matchNext(pattern ...lexer.TokenType) bool {
	return p.mismatch(pattern) < 0
}

// mismatch returns the offset of the first token that differs from pattern,
// or -1.
func (p *Parser) mismatch(pattern []lexer.TokenType) int {
	for i, tt := range pattern {
		if p.peek(i).Type != tt {
			return i
		}
	}
	return -1
}

// require consumes tokens matching pattern and returns them, or fails with
// kind at the first token that differs.
func (p *Parser) require(kind qasmerr.Kind, what string, pattern ...lexer.TokenType) ([]lexer.Token, error) {
	if !p.matchNext(pattern...) {
		i := p.mismatch(pattern)
		return nil, p.errorAt(kind, p.pos+i, "malformed %s: expected %s, found %s",
			what, describeType(pattern[i]), describe(p.peek(i)))
	}
	toks := p.tokens[p.pos : p.pos+len(pattern)]
	p.pos += len(pattern)
	return toks, nil
}

// expect consumes one token of type tt or fails with kind.
func (p *Parser) expect(tt lexer.TokenType, kind qasmerr.Kind, context string) *qasmerr.Error {
	if p.at(tt) {
		p.advance()
		return nil
	}
	return p.errorAt(kind, p.pos, "expected %s %s, found %s", describeType(tt), context, describe(p.current()))
}

func (p *Parser) at(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

func (p *Parser) current() lexer.Token {
	return p.peek(0)
}

// peek returns the token k places after the cursor, or the trailing EOF.
func (p *Parser) peek(k int) lexer.Token {
	if i := p.pos + k; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) errorAt(kind qasmerr.Kind, index int, format string, args ...any) *qasmerr.Error {
	if index >= len(p.tokens) {
		index = len(p.tokens) - 1
	}
	invariant.InRange(index, 0, len(p.tokens)-1, "error token index")
	tok := p.tokens[index]
	return qasmerr.New(kind, format, args...).
		WithToken(tok.Type.String(), tok.Symbol(), index, tok.Position.Err())
}

func describe(tok lexer.Token) string {
	switch {
	case tok.Type == lexer.EOF:
		return "end of input"
	case tok.Literal != "":
		return fmt.Sprintf("%s %q", strings.ToLower(tok.Type.String()), tok.Literal)
	}
	return describeType(tok.Type)
}

func describeType(tt lexer.TokenType) string {
	if s := (lexer.Token{Type: tt}).Symbol(); s != "" {
		return "'" + s + "'"
	}
	return strings.ToLower(tt.String())
}
