// Package v3 parses OpenQASM 3 token streams into syntax trees.
//
// Every sub-parser takes a view of the token buffer that starts at the
// construct it parses and returns the node, the number of tokens it consumed
// and an error. Views are sub-slices of one buffer; nothing copies tokens and
// nothing moves a shared cursor. The first error aborts the whole parse.
//
// The grammar is context sensitive: whether an identifier starts a gate call,
// a subroutine call, a measurement or an assignment depends on the gates,
// subroutines and arrays declared earlier in the same token stream, including
// whether include "stdgates.inc" has been seen yet.
package v3

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/invariant"
	"github.com/aledsdavies/qasm/core/qasmerr"
	baselexer "github.com/aledsdavies/qasm/runtime/lexer"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
)

// Parser turns one token stream into statements. A Parser is single use.
type Parser struct {
	tokens []lexer.Token
	env    *env
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
		env:    newEnv(),
		config: config,
		logger: logger,
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
	tokens := p.tokens
	for i := 0; tokens[i].Type != lexer.EOF; {
		stmt, n, err := p.parseNode(tokens[i:])
		if err != nil {
			p.logger.Debug("parse failed", "error", err)
			return nil, err
		}
		invariant.Progress(n, len(tokens)-i, "parseNode")

		if stmt != nil {
			p.logger.Debug("statement", "node", fmt.Sprintf("%T", stmt), "index", i, "tokens", n)
			stmts = append(stmts, stmt)
		}
		i += n
	}
	invariant.Postcondition(p.depth == 0, "nesting depth %d after parse", p.depth)

	if p.telemetry != nil {
		p.telemetry.StatementCount = len(stmts)
		if p.config.telemetry >= TelemetryTiming {
			p.telemetry.ParseTime = time.Since(start)
		}
	}
	return stmts, nil
}

// parseNode dispatches on the leading token of one statement. A nil statement
// with a positive count means tokens were consumed without producing a node.
func (p *Parser) parseNode(tokens []lexer.Token) (ast.Statement, int, error) {
	switch tokens[0].Type {
	case lexer.OPENQASM:
		return p.parseVersion(tokens)
	case lexer.INCLUDE:
		return p.parseInclude(tokens)
	case lexer.CONST:
		stmt, n, err := p.parseClassicalDeclaration(tokens[1:], true)
		if err != nil {
			return nil, 0, err
		}
		return stmt, n + 1, nil
	case lexer.INT, lexer.UINT, lexer.FLOAT_TYPE, lexer.ANGLE, lexer.BOOL, lexer.COMPLEX,
		lexer.DURATION, lexer.STRETCH, lexer.CREG:
		if castAhead(tokens) {
			return p.parseExpressionStatement(tokens)
		}
		return p.parseClassicalDeclaration(tokens, false)
	case lexer.BIT:
		if p.measurementAhead(tokens, lexer.LBRACE, lexer.SEMICOLON, lexer.EQUALS) {
			return p.parseDeclaredMeasurement(tokens)
		}
		if castAhead(tokens) {
			return p.parseExpressionStatement(tokens)
		}
		return p.parseClassicalDeclaration(tokens, false)
	case lexer.QUBIT, lexer.QREG:
		return p.parseQubitDeclaration(tokens)
	case lexer.BREAK:
		return p.parseKeywordStatement(tokens, &ast.BreakStatement{})
	case lexer.CONTINUE:
		return p.parseKeywordStatement(tokens, &ast.ContinueStatement{})
	case lexer.RESET:
		return p.parseReset(tokens)
	case lexer.LET:
		return p.parseAlias(tokens)
	case lexer.MEASURE:
		return p.parseMeasure(tokens)
	case lexer.GATE:
		return p.parseGateDefinition(tokens)
	case lexer.RETURN:
		return p.parseReturn(tokens)
	case lexer.DEF:
		return p.parseSubroutineDefinition(tokens)
	case lexer.EXTERN:
		return p.parseExtern(tokens)
	case lexer.CTRL, lexer.NEGCTRL, lexer.INV, lexer.POW:
		return p.parseGateCall(tokens)
	case lexer.MATH_FUNCTION, lexer.TRIG_FUNCTION, lexer.DURATIONOF, lexer.SIZEOF:
		return p.parseExpressionStatement(tokens)
	case lexer.OPAQUE:
		return p.skipOpaque(tokens)
	case lexer.DELAY:
		return p.parseDelay(tokens)
	case lexer.IF:
		return p.parseIf(tokens)
	case lexer.FOR:
		return p.parseFor(tokens)
	case lexer.WHILE:
		return p.parseWhile(tokens)
	case lexer.SWITCH:
		return p.parseSwitch(tokens)
	case lexer.ARRAY:
		return p.parseArrayDeclaration(tokens)
	case lexer.BOX:
		return p.parseBox(tokens)
	case lexer.BARRIER:
		return p.parseBarrier(tokens)
	case lexer.INPUT, lexer.OUTPUT:
		return p.parseIODeclaration(tokens)
	case lexer.IDENTIFIER:
		return p.parseIdentifierStatement(tokens)
	case lexer.LBRACE:
		block, n, err := p.parseProgramBlock(tokens)
		if err != nil {
			return nil, 0, err
		}
		return block, n, nil
	case lexer.SEMICOLON:
		return nil, 1, nil
	case lexer.INTEGER, lexer.FLOAT, lexer.IMAGINARY, lexer.BOOLEAN, lexer.BITSTRING,
		lexer.DURATION_LITERAL, lexer.PI, lexer.EULER, lexer.TAU,
		lexer.MINUS, lexer.NOT, lexer.TILDE, lexer.LPAREN:
		return p.parseExpressionStatement(tokens)
	case lexer.RBRACE:
		return nil, 0, p.errorf(qasmerr.MissingBrace, tokens, 0, "'}' without a matching '{'")
	}
	return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "unexpected %s at start of statement", describe(tokens[0]))
}

// parseIdentifierStatement resolves a statement led by an identifier, in
// order: gate call, subroutine call, measurement assignment, classical
// assignment, and finally a bare expression statement.
func (p *Parser) parseIdentifierStatement(tokens []lexer.Token) (ast.Statement, int, error) {
	name := tokens[0].Literal
	switch {
	case p.env.isGate(name):
		return p.parseGateCall(tokens)
	case p.env.isSubroutine(name):
		return p.parseExpressionStatement(tokens)
	case p.measurementAhead(tokens, lexer.SEMICOLON, lexer.EQUALS):
		return p.parseMeasurementAssignment(tokens)
	case p.assignmentAhead(tokens):
		return p.parseAssignment(tokens)
	}
	return p.parseExpressionStatement(tokens)
}

// measurementAhead scans forward to the first stop token and reports whether
// it is '=' directly followed by measure.
func (p *Parser) measurementAhead(tokens []lexer.Token, stops ...lexer.TokenType) bool {
	k := scanTo(tokens, 1, stops...)
	return peek(tokens, k).Type == lexer.EQUALS && peek(tokens, k+1).Type == lexer.MEASURE
}

// assignmentAhead reports whether an assignment operator follows the leading
// identifier, directly or after a subscript, before the statement ends.
func (p *Parser) assignmentAhead(tokens []lexer.Token) bool {
	for k := 1; ; k++ {
		t := peek(tokens, k).Type
		if assignOps[t] {
			return true
		}
		switch t {
		case lexer.SEMICOLON, lexer.LBRACE, lexer.RBRACE, lexer.EOF:
			return false
		}
	}
}

// castAhead reports whether the type keyword at tokens[0], with its optional
// bracketed designator, is followed by '(' and so starts a cast.
func castAhead(tokens []lexer.Token) bool {
	k := 1
	if peek(tokens, k).Type == lexer.LSQUARE {
		depth := 0
		for ; ; k++ {
			switch peek(tokens, k).Type {
			case lexer.LSQUARE:
				depth++
			case lexer.RSQUARE:
				depth--
			case lexer.EOF, lexer.SEMICOLON:
				return false
			}
			if depth == 0 {
				break
			}
		}
		k++
	}
	return peek(tokens, k).Type == lexer.LPAREN
}

// scanTo returns the index of the first token at or after from whose type is
// one of stops, or the index of the end of the view.
func scanTo(tokens []lexer.Token, from int, stops ...lexer.TokenType) int {
	for k := from; k < len(tokens); k++ {
		t := tokens[k].Type
		if t == lexer.EOF {
			return k
		}
		for _, s := range stops {
			if t == s {
				return k
			}
		}
	}
	return len(tokens)
}

func (p *Parser) parseExpressionStatement(tokens []lexer.Token) (ast.Statement, int, error) {
	expr, n, err := p.parseExpression(tokens)
	if err != nil {
		return nil, 0, err
	}
	if err := p.expectSemicolon(tokens, n, qasmerr.BadExpression, "expression"); err != nil {
		if id, ok := expr.(*ast.Identifier); ok && p.env.isStandardGate(id.Name) && !p.env.isGate(id.Name) {
			err.Message += fmt.Sprintf("; %q is a standard gate, include %q before using it", id.Name, StdgatesInclude)
		}
		return nil, 0, err
	}
	return &ast.ExpressionStatement{Expression: expr}, n + 1, nil
}

func (p *Parser) parseKeywordStatement(tokens []lexer.Token, stmt ast.Statement) (ast.Statement, int, error) {
	if err := p.expectSemicolon(tokens, 1, qasmerr.BadLoop, tokens[0].Symbol()); err != nil {
		return nil, 0, err
	}
	return stmt, 2, nil
}

// enter records one more level of nesting and fails once the budget is spent.
// Callers defer leave whether or not enter failed.
func (p *Parser) enter(tokens []lexer.Token) error {
	p.depth++
	if p.telemetry != nil && p.depth > p.telemetry.MaxDepth {
		p.telemetry.MaxDepth = p.depth
	}
	if p.depth > p.config.maxDepth {
		return p.errorf(qasmerr.NestingTooDeep, tokens, 0, "nesting exceeds the limit of %d", p.config.maxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// peek returns tokens[k], or an EOF token once k runs past the view.
func peek(tokens []lexer.Token, k int) lexer.Token {
	if k < len(tokens) {
		return tokens[k]
	}
	var pos lexer.Position
	if len(tokens) > 0 {
		pos = tokens[len(tokens)-1].Position
	}
	return lexer.Token{Type: lexer.EOF, Position: pos}
}

// index converts position k of a view into an index in the full token stream.
// Views are always two-index sub-slices of p.tokens, so they share its capacity.
func (p *Parser) index(tokens []lexer.Token, k int) int {
	i := cap(p.tokens) - cap(tokens) + k
	invariant.InRange(i, 0, cap(p.tokens), "token index")
	return i
}

func (p *Parser) errorf(kind qasmerr.Kind, tokens []lexer.Token, k int, format string, args ...any) *qasmerr.Error {
	tok := peek(tokens, k)
	return qasmerr.New(kind, format, args...).
		WithToken(tok.Type.String(), tok.Symbol(), p.index(tokens, k), tok.Position.Err())
}

// expect fails with kind unless tokens[k] has type tt.
func (p *Parser) expect(tokens []lexer.Token, k int, tt lexer.TokenType, kind qasmerr.Kind, context string) *qasmerr.Error {
	tok := peek(tokens, k)
	if tok.Type == tt {
		return nil
	}
	return p.errorf(kind, tokens, k, "expected %s %s, found %s", describeType(tt), context, describe(tok))
}

// expectSemicolon checks a statement terminator. Running into the end of the
// input or of the enclosing block is a missing semicolon; any other token is a
// malformed statement of the given kind.
func (p *Parser) expectSemicolon(tokens []lexer.Token, k int, kind qasmerr.Kind, what string) *qasmerr.Error {
	tok := peek(tokens, k)
	switch tok.Type {
	case lexer.SEMICOLON:
		return nil
	case lexer.EOF, lexer.RBRACE:
		return p.errorf(qasmerr.MissingSemicolon, tokens, k, "missing ';' after %s", what)
	}
	return p.errorf(kind, tokens, k, "expected ';' after %s, found %s", what, describe(tok))
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
