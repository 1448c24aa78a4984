package v2

import (
	"strconv"

	ast "github.com/aledsdavies/qasm/core/ast/v2"
	"github.com/aledsdavies/qasm/core/qasmerr"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v2"
)

var operatorTerms = map[lexer.TokenType]string{
	lexer.PLUS:     "+",
	lexer.MINUS:    "-",
	lexer.MULTIPLY: "*",
	lexer.DIVIDE:   "/",
	lexer.POWER:    "^",
}

// parameters parses (expr, expr, ...). The list may be empty.
func (p *Parser) parameters(vars map[string]bool) ([]ast.Expression, error) {
	p.advance() // (
	if p.at(lexer.RPAREN) {
		p.advance()
		return nil, nil
	}

	var params []ast.Expression
	for {
		expr, err := p.expression(vars)
		if err != nil {
			return nil, err
		}
		params = append(params, expr)
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if err := p.expect(lexer.RPAREN, qasmerr.BadParameter, "to close gate parameters"); err != nil {
		return nil, err
	}
	return params, nil
}

// expression collects terms up to the ',' or ')' that ends it. Grouping
// parentheses are kept as operator terms.
func (p *Parser) expression(vars map[string]bool) (ast.Expression, error) {
	var expr ast.Expression
	parens := 0
	for {
		tok := p.current()
		switch tok.Type {
		case lexer.COMMA:
			if parens == 0 {
				return p.finish(expr)
			}
			return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "',' inside parentheses")
		case lexer.RPAREN:
			if parens == 0 {
				return p.finish(expr)
			}
			parens--
			expr.Terms = append(expr.Terms, &ast.Operator{Symbol: ")"})
		case lexer.LPAREN:
			parens++
			expr.Terms = append(expr.Terms, &ast.Operator{Symbol: "("})
		case lexer.INTEGER:
			v, err := strconv.ParseInt(tok.Literal, 10, 64)
			if err != nil {
				return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "integer %s out of range", tok.Literal)
			}
			expr.Terms = append(expr.Terms, &ast.Integer{Value: v})
		case lexer.REAL:
			v, err := strconv.ParseFloat(tok.Literal, 64)
			if err != nil {
				return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "invalid real %s", tok.Literal)
			}
			expr.Terms = append(expr.Terms, &ast.Real{Value: v})
		case lexer.PI:
			expr.Terms = append(expr.Terms, &ast.Pi{})
		case lexer.IDENTIFIER:
			if !vars[tok.Literal] {
				return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "%s is not a gate parameter in scope", tok.Literal)
			}
			expr.Terms = append(expr.Terms, &ast.Variable{Name: tok.Literal})
		case lexer.MATH_FUNCTION:
			call, err := p.call(vars)
			if err != nil {
				return ast.Expression{}, err
			}
			expr.Terms = append(expr.Terms, call)
			continue
		default:
			if sym, ok := operatorTerms[tok.Type]; ok {
				expr.Terms = append(expr.Terms, &ast.Operator{Symbol: sym})
				break
			}
			return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "unexpected %s in parameter", describe(tok))
		}
		p.advance()
	}
}

func (p *Parser) finish(expr ast.Expression) (ast.Expression, error) {
	if len(expr.Terms) == 0 {
		return ast.Expression{}, p.errorAt(qasmerr.BadParameter, p.pos, "empty parameter")
	}
	return expr, nil
}

// call parses name(expr) for a built-in function.
func (p *Parser) call(vars map[string]bool) (*ast.Call, error) {
	name := p.current().Literal
	at := p.pos
	p.advance()

	if p.depth >= p.config.maxDepth {
		return nil, p.errorAt(qasmerr.NestingTooDeep, at, "calls nested deeper than %d", p.config.maxDepth)
	}
	p.depth++
	defer func() { p.depth-- }()

	if err := p.expect(lexer.LPAREN, qasmerr.BadParameter, "after "+name); err != nil {
		return nil, err
	}
	arg, err := p.expression(vars)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN, qasmerr.BadParameter, "to close "+name); err != nil {
		return nil, err
	}
	return &ast.Call{Name: name, Arg: arg}, nil
}
