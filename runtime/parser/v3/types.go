package v3

import (
	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/qasmerr"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
)

// parseClassicalType parses a type annotation such as int[8], complex[float[64]]
// or array[int[8], 4, 2].
func (p *Parser) parseClassicalType(tokens []lexer.Token) (ast.ClassicalType, int, error) {
	tok := peek(tokens, 0)
	switch tok.Type {
	case lexer.INT, lexer.UINT, lexer.FLOAT_TYPE, lexer.ANGLE, lexer.BIT:
		size, n, err := p.parseDesignator(tokens[1:], qasmerr.BadClassicalType)
		if err != nil {
			return nil, 0, err
		}
		return sizedType(tok.Type, size), n + 1, nil
	case lexer.BOOL:
		return &ast.BoolType{}, 1, nil
	case lexer.DURATION:
		return &ast.DurationType{}, 1, nil
	case lexer.STRETCH:
		return &ast.StretchType{}, 1, nil
	case lexer.COMPLEX:
		if peek(tokens, 1).Type != lexer.LSQUARE {
			return &ast.ComplexType{}, 1, nil
		}
		base, n, err := p.parseClassicalType(tokens[2:])
		if err != nil {
			return nil, 0, err
		}
		if _, ok := base.(*ast.FloatType); !ok {
			return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, 2, "complex components must be float, got %s", base)
		}
		k := 2 + n
		if err := p.expect(tokens, k, lexer.RSQUARE, qasmerr.BadClassicalType, "to close complex type"); err != nil {
			return nil, 0, err
		}
		return &ast.ComplexType{Base: base}, k + 1, nil
	case lexer.ARRAY:
		return p.parseArrayType(tokens)
	}
	return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, 0, "expected a classical type, found %s", describe(tok))
}

func sizedType(tt lexer.TokenType, size ast.Expression) ast.ClassicalType {
	switch tt {
	case lexer.INT:
		return &ast.IntType{Size: size}
	case lexer.UINT:
		return &ast.UIntType{Size: size}
	case lexer.FLOAT_TYPE:
		return &ast.FloatType{Size: size}
	case lexer.ANGLE:
		return &ast.AngleType{Size: size}
	}
	return &ast.BitType{Size: size}
}

func (p *Parser) parseArrayType(tokens []lexer.Token) (*ast.ArrayType, int, error) {
	if err := p.expect(tokens, 1, lexer.LSQUARE, qasmerr.BadClassicalType, "after array"); err != nil {
		return nil, 0, err
	}
	elem, n, err := p.parseClassicalType(tokens[2:])
	if err != nil {
		return nil, 0, err
	}
	if _, ok := elem.(*ast.ArrayType); ok {
		return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, 2, "array elements cannot be arrays; add dimensions instead")
	}
	k := 2 + n

	typ := &ast.ArrayType{Element: elem}
	for peek(tokens, k).Type == lexer.COMMA {
		dim, m, err := p.parseExpression(tokens[k+1:])
		if err != nil {
			return nil, 0, err
		}
		typ.Dimensions = append(typ.Dimensions, dim)
		k += 1 + m
	}
	if len(typ.Dimensions) == 0 {
		return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, k, "array type needs at least one dimension")
	}
	if err := p.expect(tokens, k, lexer.RSQUARE, qasmerr.BadClassicalType, "to close array type"); err != nil {
		return nil, 0, err
	}
	return typ, k + 1, nil
}

// parseDesignator parses an optional [size]. It returns a nil size and zero
// count when tokens[0] is not '['.
func (p *Parser) parseDesignator(tokens []lexer.Token, kind qasmerr.Kind) (ast.Expression, int, error) {
	if peek(tokens, 0).Type != lexer.LSQUARE {
		return nil, 0, nil
	}
	size, n, err := p.parseExpression(tokens[1:])
	if err != nil {
		return nil, 0, err
	}
	if err := p.expect(tokens, n+1, lexer.RSQUARE, kind, "to close size designator"); err != nil {
		return nil, 0, err
	}
	return size, n + 2, nil
}
