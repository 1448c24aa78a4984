package v3

import (
	"strconv"
	"strings"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/core/suggest"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
)

type operatorClass int

const (
	arithmetic operatorClass = iota
	logical
	concatenation
)

// infixOperators are the tokens that continue a binary expression.
var infixOperators = map[lexer.TokenType]operatorClass{
	lexer.PLUS:      arithmetic,
	lexer.MINUS:     arithmetic,
	lexer.MULTIPLY:  arithmetic,
	lexer.DIVIDE:    arithmetic,
	lexer.MODULO:    arithmetic,
	lexer.POWER:     arithmetic,
	lexer.EQ_EQ:     logical,
	lexer.NOT_EQ:    logical,
	lexer.LT:        logical,
	lexer.LT_EQ:     logical,
	lexer.GT:        logical,
	lexer.GT_EQ:     logical,
	lexer.AND_AND:   logical,
	lexer.OR_OR:     logical,
	lexer.AMPERSAND: logical,
	lexer.PIPE:      logical,
	lexer.CARET:     logical,
	lexer.LSHIFT:    logical,
	lexer.RSHIFT:    logical,
	lexer.CONCAT:    concatenation,
}

// assignOps are '=' and the compound assignment operators.
var assignOps = map[lexer.TokenType]bool{
	lexer.EQUALS:          true,
	lexer.PLUS_ASSIGN:     true,
	lexer.MINUS_ASSIGN:    true,
	lexer.MULTIPLY_ASSIGN: true,
	lexer.DIVIDE_ASSIGN:   true,
	lexer.MODULO_ASSIGN:   true,
	lexer.POWER_ASSIGN:    true,
	lexer.AND_ASSIGN:      true,
	lexer.OR_ASSIGN:       true,
	lexer.XOR_ASSIGN:      true,
	lexer.LSHIFT_ASSIGN:   true,
	lexer.RSHIFT_ASSIGN:   true,
}

var durationUnits = []string{"ns", "us", "µs", "ms", "dt", "s"}

// parseExpression folds unary operands left to right across infix operators.
// There is no precedence: a + b * c groups as (a + b) * c.
func (p *Parser) parseExpression(tokens []lexer.Token) (ast.Expression, int, error) {
	left, n, err := p.parseUnary(tokens)
	if err != nil {
		return nil, 0, err
	}
	for {
		op := peek(tokens, n)
		class, ok := infixOperators[op.Type]
		if !ok {
			return left, n, nil
		}
		right, m, err := p.parseUnary(tokens[n+1:])
		if err != nil {
			return nil, 0, err
		}
		switch class {
		case arithmetic:
			left = &ast.Arithmetic{Op: op.Symbol(), Left: left, Right: right}
		case concatenation:
			left = &ast.Concatenation{Left: left, Right: right}
		default:
			left = &ast.Binary{Op: op.Symbol(), Left: left, Right: right}
		}
		n += 1 + m
	}
}

func (p *Parser) parseUnary(tokens []lexer.Token) (ast.Expression, int, error) {
	err := p.enter(tokens)
	defer p.leave()
	if err != nil {
		return nil, 0, err
	}

	tok := peek(tokens, 0)
	switch tok.Type {
	case lexer.INTEGER:
		v, err := parseInteger(tok.Literal)
		if err != nil {
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "invalid integer literal %q", tok.Literal)
		}
		return &ast.IntegerLiteral{Value: v}, 1, nil
	case lexer.FLOAT:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "invalid float literal %q", tok.Literal)
		}
		return &ast.FloatLiteral{Value: v}, 1, nil
	case lexer.IMAGINARY:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "invalid imaginary literal %q", tok.Literal)
		}
		return &ast.ImaginaryLiteral{Value: v}, 1, nil
	case lexer.DURATION_LITERAL:
		return p.parseDurationLiteral(tokens)
	case lexer.BOOLEAN:
		return &ast.BooleanLiteral{Value: tok.Literal == "true"}, 1, nil
	case lexer.BITSTRING:
		return &ast.BitstringLiteral{Value: tok.Literal}, 1, nil
	case lexer.STRING:
		return &ast.StringLiteral{Value: tok.Literal}, 1, nil
	case lexer.PI, lexer.EULER, lexer.TAU:
		return &ast.MathConstant{Name: tok.Symbol()}, 1, nil
	case lexer.MINUS, lexer.NOT, lexer.TILDE:
		operand, n, err := p.parseUnary(tokens[1:])
		if err != nil {
			return nil, 0, err
		}
		return &ast.Unary{Op: tok.Symbol(), Operand: operand}, n + 1, nil
	case lexer.MATH_FUNCTION:
		args, n, err := p.parseArguments(tokens[1:], qasmerr.BadExpression)
		if err != nil {
			return nil, 0, err
		}
		return &ast.MathFunction{Name: tok.Literal, Args: args}, n + 1, nil
	case lexer.TRIG_FUNCTION:
		args, n, err := p.parseArguments(tokens[1:], qasmerr.BadExpression)
		if err != nil {
			return nil, 0, err
		}
		if len(args) != 1 {
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "%s takes exactly one argument, got %d", tok.Literal, len(args))
		}
		return &ast.TrigFunction{Name: tok.Literal, Arg: args[0]}, n + 1, nil
	case lexer.SIZEOF:
		args, n, err := p.parseArguments(tokens[1:], qasmerr.BadExpression)
		if err != nil {
			return nil, 0, err
		}
		if len(args) < 1 || len(args) > 2 {
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "sizeof takes one or two arguments, got %d", len(args))
		}
		expr := &ast.SizeOf{Target: args[0]}
		if len(args) == 2 {
			expr.Dimension = args[1]
		}
		return expr, n + 1, nil
	case lexer.DURATIONOF:
		return p.parseDurationOf(tokens)
	case lexer.LPAREN:
		values, n, err := p.parseArguments(tokens, qasmerr.BadExpression)
		if err != nil {
			return nil, 0, err
		}
		return &ast.Parameters{Values: values}, n, nil
	case lexer.INT, lexer.UINT, lexer.FLOAT_TYPE, lexer.ANGLE, lexer.BOOL, lexer.BIT,
		lexer.COMPLEX, lexer.DURATION, lexer.STRETCH:
		return p.parseCast(tokens)
	case lexer.IDENTIFIER:
		return p.parseIdentifierExpression(tokens)
	}
	return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "unexpected %s in expression", describe(tok))
}

// parseInteger reads decimal, binary, octal and hex literals. A leading zero
// alone does not select octal.
func parseInteger(lit string) (int64, error) {
	base := 10
	if len(lit) > 2 && lit[0] == '0' && strings.ContainsRune("bBoOxX", rune(lit[1])) {
		base = 0
	}
	return strconv.ParseInt(lit, base, 64)
}

func (p *Parser) parseDurationLiteral(tokens []lexer.Token) (ast.Expression, int, error) {
	lit := tokens[0].Literal
	for _, unit := range durationUnits {
		if !strings.HasSuffix(lit, unit) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(lit, unit), 64)
		if err != nil {
			break
		}
		return &ast.DurationLiteral{Value: v, Unit: unit}, 1, nil
	}
	return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "invalid duration literal %q", lit)
}

func (p *Parser) parseDurationOf(tokens []lexer.Token) (ast.Expression, int, error) {
	if err := p.expect(tokens, 1, lexer.LPAREN, qasmerr.BadExpression, "after durationof"); err != nil {
		return nil, 0, err
	}
	if err := p.expect(tokens, 2, lexer.LBRACE, qasmerr.BadExpression, "to open the durationof scope"); err != nil {
		return nil, 0, err
	}
	scope, n, err := p.parseProgramBlock(tokens[2:])
	if err != nil {
		return nil, 0, err
	}
	k := 2 + n
	if err := p.expect(tokens, k, lexer.RPAREN, qasmerr.BadExpression, "to close durationof"); err != nil {
		return nil, 0, err
	}
	return &ast.DurationOf{Scope: scope}, k + 1, nil
}

func (p *Parser) parseCast(tokens []lexer.Token) (ast.Expression, int, error) {
	typ, n, err := p.parseClassicalType(tokens)
	if err != nil {
		return nil, 0, err
	}
	args, m, err := p.parseArguments(tokens[n:], qasmerr.BadExpression)
	if err != nil {
		return nil, 0, err
	}
	if len(args) != 1 {
		return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 0, "a cast takes exactly one value, got %d", len(args))
	}
	return &ast.Cast{Type: typ, Value: args[0]}, n + m, nil
}

// parseArguments parses a parenthesised, comma separated expression list.
// tokens[0] must be '('; the count includes the closing ')'.
func (p *Parser) parseArguments(tokens []lexer.Token, kind qasmerr.Kind) ([]ast.Expression, int, error) {
	if err := p.expect(tokens, 0, lexer.LPAREN, kind, "to open the argument list"); err != nil {
		return nil, 0, err
	}
	n := 1
	var args []ast.Expression
	if peek(tokens, n).Type == lexer.RPAREN {
		return args, n + 1, nil
	}
	for {
		arg, m, err := p.parseExpression(tokens[n:])
		if err != nil {
			return nil, 0, err
		}
		args = append(args, arg)
		n += m

		switch tok := peek(tokens, n); tok.Type {
		case lexer.COMMA:
			n++
		case lexer.RPAREN:
			return args, n + 1, nil
		default:
			return nil, 0, p.errorf(kind, tokens, n, "expected ',' or ')' in argument list, found %s", describe(tok))
		}
	}
}

func (p *Parser) parseIdentifierExpression(tokens []lexer.Token) (ast.Expression, int, error) {
	name := tokens[0].Literal
	switch peek(tokens, 1).Type {
	case lexer.LPAREN:
		if !p.env.isSubroutine(name) {
			return nil, 0, p.unknownSubroutine(tokens, name)
		}
		args, n, err := p.parseArguments(tokens[1:], qasmerr.BadSubroutine)
		if err != nil {
			return nil, 0, err
		}
		return &ast.SubroutineCall{Name: name, Args: args}, n + 1, nil
	case lexer.LSQUARE:
		return p.parseOperand(tokens, qasmerr.BadExpression, "identifier")
	}
	return &ast.Identifier{Name: name}, 1, nil
}

func (p *Parser) unknownSubroutine(tokens []lexer.Token, name string) *qasmerr.Error {
	names := make([]string, 0, len(p.env.subroutines))
	for s := range p.env.subroutines {
		names = append(names, s)
	}
	err := p.errorf(qasmerr.BadSubroutine, tokens, 0, "call to undeclared subroutine %q", name)
	if s := suggest.Closest(name, names); s != "" {
		err.WithSuggestion(s)
	}
	return err
}

// parseOperand parses an identifier with optional subscripts. It is used for
// qubit operands, assignment targets and indexed reads.
func (p *Parser) parseOperand(tokens []lexer.Token, kind qasmerr.Kind, what string) (ast.Expression, int, error) {
	tok := peek(tokens, 0)
	if tok.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(kind, tokens, 0, "expected %s, found %s", what, describe(tok))
	}
	if peek(tokens, 1).Type != lexer.LSQUARE {
		return &ast.Identifier{Name: tok.Literal}, 1, nil
	}
	subs, n, err := p.parseSubscripts(tokens[1:], tok.Literal)
	if err != nil {
		return nil, 0, err
	}
	return &ast.SubscriptedIdentifier{Name: tok.Literal, Subscripts: subs}, n + 1, nil
}

// parseSubscripts parses one or more bracketed subscripts. Commas inside a
// bracket select several dimensions and are only valid on declared arrays.
func (p *Parser) parseSubscripts(tokens []lexer.Token, name string) ([]ast.Expression, int, error) {
	n := 0
	var subs []ast.Expression
	for peek(tokens, n).Type == lexer.LSQUARE {
		n++
		for {
			sub, m, err := p.parseSubscript(tokens[n:])
			if err != nil {
				return nil, 0, err
			}
			subs = append(subs, sub)
			n += m
			if peek(tokens, n).Type != lexer.COMMA {
				break
			}
			if !p.env.isArray(name) {
				return nil, 0, p.errorf(qasmerr.BadExpression, tokens, n,
					"%q is not an array; select several elements with an index set {a, b}", name)
			}
			n++
		}
		if err := p.expect(tokens, n, lexer.RSQUARE, qasmerr.BadExpression, "to close subscript"); err != nil {
			return nil, 0, err
		}
		n++
	}
	return subs, n, nil
}

// parseSubscript parses one subscript entry: an index set, a range with
// optional bounds, or a single expression.
func (p *Parser) parseSubscript(tokens []lexer.Token) (ast.Expression, int, error) {
	if peek(tokens, 0).Type == lexer.LBRACE {
		return p.parseIndexSet(tokens)
	}

	var start ast.Expression
	n := 0
	if peek(tokens, 0).Type != lexer.COLON {
		expr, m, err := p.parseExpression(tokens)
		if err != nil {
			return nil, 0, err
		}
		if peek(tokens, m).Type != lexer.COLON {
			return expr, m, nil
		}
		start, n = expr, m
	}

	n++ // ':'
	r := &ast.Range{Start: start}
	second, m, err := p.parseRangeBound(tokens[n:])
	if err != nil {
		return nil, 0, err
	}
	n += m
	if peek(tokens, n).Type != lexer.COLON {
		r.Stop = second
		return r, n, nil
	}
	n++
	third, m, err := p.parseRangeBound(tokens[n:])
	if err != nil {
		return nil, 0, err
	}
	r.Step, r.Stop = second, third
	return r, n + m, nil
}

func (p *Parser) parseRangeBound(tokens []lexer.Token) (ast.Expression, int, error) {
	switch peek(tokens, 0).Type {
	case lexer.RSQUARE, lexer.COLON, lexer.COMMA:
		return nil, 0, nil
	}
	return p.parseExpression(tokens)
}

// parseIndexSet parses {a, b, ...}; tokens[0] must be '{'.
func (p *Parser) parseIndexSet(tokens []lexer.Token) (ast.Expression, int, error) {
	n := 1
	set := &ast.IndexSet{}
	for {
		value, m, err := p.parseExpression(tokens[n:])
		if err != nil {
			return nil, 0, err
		}
		set.Values = append(set.Values, value)
		n += m

		switch tok := peek(tokens, n); tok.Type {
		case lexer.COMMA:
			n++
		case lexer.RBRACE:
			return set, n + 1, nil
		default:
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, n, "expected ',' or '}' in index set, found %s", describe(tok))
		}
	}
}

// parseArrayInitializer parses a possibly nested {...} literal; tokens[0]
// must be '{'.
func (p *Parser) parseArrayInitializer(tokens []lexer.Token) (*ast.ArrayInitializer, int, error) {
	err := p.enter(tokens)
	defer p.leave()
	if err != nil {
		return nil, 0, err
	}

	n := 1
	init := &ast.ArrayInitializer{}
	if peek(tokens, n).Type == lexer.RBRACE {
		return init, n + 1, nil
	}
	for {
		var value ast.Expression
		var m int
		if peek(tokens, n).Type == lexer.LBRACE {
			value, m, err = p.parseArrayInitializer(tokens[n:])
		} else {
			value, m, err = p.parseExpression(tokens[n:])
		}
		if err != nil {
			return nil, 0, err
		}
		init.Values = append(init.Values, value)
		n += m

		switch tok := peek(tokens, n); tok.Type {
		case lexer.COMMA:
			n++
		case lexer.RBRACE:
			return init, n + 1, nil
		default:
			return nil, 0, p.errorf(qasmerr.BadExpression, tokens, n, "expected ',' or '}' in array initializer, found %s", describe(tok))
		}
	}
}
