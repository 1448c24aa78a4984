package v3

import (
	"golang.org/x/mod/semver"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/qasmerr"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
)

func (p *Parser) parseVersion(tokens []lexer.Token) (ast.Statement, int, error) {
	number := tokens[0].Literal
	if v := "v" + number; !semver.IsValid(v) || semver.Major(v) != "v3" {
		return nil, 0, p.errorf(qasmerr.UnsupportedVersion, tokens, 0,
			"OPENQASM %s is not supported by the version 3 parser", number)
	}
	if err := p.expectSemicolon(tokens, 1, qasmerr.UnsupportedVersion, "version header"); err != nil {
		return nil, 0, err
	}
	return &ast.Version{Number: number}, 2, nil
}

func (p *Parser) parseInclude(tokens []lexer.Token) (ast.Statement, int, error) {
	file := peek(tokens, 1)
	if file.Type != lexer.STRING {
		return nil, 0, p.errorf(qasmerr.BadStringLiteral, tokens, 1, "include expects a quoted file name, found %s", describe(file))
	}
	if err := p.expectSemicolon(tokens, 2, qasmerr.BadStringLiteral, "include"); err != nil {
		return nil, 0, err
	}
	if file.Literal == StdgatesInclude {
		p.env.includeStdgates()
	}
	return &ast.Include{Filename: file.Literal}, 3, nil
}

// parseClassicalDeclaration parses type name [= value];. The const keyword,
// when present, has already been consumed.
func (p *Parser) parseClassicalDeclaration(tokens []lexer.Token, isConst bool) (ast.Statement, int, error) {
	if peek(tokens, 0).Type == lexer.CREG {
		return p.parseCreg(tokens)
	}
	typ, n, err := p.parseClassicalType(tokens)
	if err != nil {
		return nil, 0, err
	}
	name := peek(tokens, n)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, n, "expected a variable name after %s, found %s", typ, describe(name))
	}
	n++

	decl := &ast.ClassicalDeclaration{Const: isConst, Type: typ, Name: name.Literal}
	if peek(tokens, n).Type == lexer.EQUALS {
		value, m, err := p.parseExpression(tokens[n+1:])
		if err != nil {
			return nil, 0, err
		}
		decl.Value = value
		n += 1 + m
	}
	if err := p.expectSemicolon(tokens, n, qasmerr.BadClassicalType, "declaration of "+name.Literal); err != nil {
		return nil, 0, err
	}
	return decl, n + 1, nil
}

// parseCreg parses the legacy creg name[size]; form as a bit declaration.
func (p *Parser) parseCreg(tokens []lexer.Token) (ast.Statement, int, error) {
	name := peek(tokens, 1)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadCreg, tokens, 1, "expected register name after creg, found %s", describe(name))
	}
	size, n, err := p.parseDesignator(tokens[2:], qasmerr.BadCreg)
	if err != nil {
		return nil, 0, err
	}
	k := 2 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadCreg, "creg declaration"); err != nil {
		return nil, 0, err
	}
	return &ast.ClassicalDeclaration{Type: &ast.BitType{Size: size}, Name: name.Literal}, k + 1, nil
}

// parseQubitDeclaration parses qubit[size] name; and qreg name[size];.
func (p *Parser) parseQubitDeclaration(tokens []lexer.Token) (ast.Statement, int, error) {
	var (
		size ast.Expression
		name lexer.Token
		k    int
	)
	if tokens[0].Type == lexer.QREG {
		name = peek(tokens, 1)
		if name.Type != lexer.IDENTIFIER {
			return nil, 0, p.errorf(qasmerr.BadQreg, tokens, 1, "expected register name after qreg, found %s", describe(name))
		}
		s, n, err := p.parseDesignator(tokens[2:], qasmerr.BadQreg)
		if err != nil {
			return nil, 0, err
		}
		size, k = s, 2+n
		if err := p.expectSemicolon(tokens, k, qasmerr.BadQreg, "qreg declaration"); err != nil {
			return nil, 0, err
		}
		return &ast.QubitDeclaration{Name: name.Literal, Size: size}, k + 1, nil
	}

	s, n, err := p.parseDesignator(tokens[1:], qasmerr.BadQuantumInstruction)
	if err != nil {
		return nil, 0, err
	}
	size, k = s, 1+n
	name = peek(tokens, k)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadQuantumInstruction, tokens, k, "expected qubit name, found %s", describe(name))
	}
	k++
	if err := p.expectSemicolon(tokens, k, qasmerr.BadQuantumInstruction, "qubit declaration"); err != nil {
		return nil, 0, err
	}
	return &ast.QubitDeclaration{Name: name.Literal, Size: size}, k + 1, nil
}

// parseArrayDeclaration parses array[type, dims...] name [= initializer];.
func (p *Parser) parseArrayDeclaration(tokens []lexer.Token) (ast.Statement, int, error) {
	typ, n, err := p.parseArrayType(tokens)
	if err != nil {
		return nil, 0, err
	}
	name := peek(tokens, n)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, n, "expected array name, found %s", describe(name))
	}
	n++
	p.env.arrays[name.Literal] = true

	decl := &ast.ArrayDeclaration{Type: typ, Name: name.Literal}
	if peek(tokens, n).Type == lexer.EQUALS {
		n++
		var (
			value ast.Expression
			m     int
		)
		if peek(tokens, n).Type == lexer.LBRACE {
			value, m, err = p.parseArrayInitializer(tokens[n:])
		} else {
			value, m, err = p.parseExpression(tokens[n:])
		}
		if err != nil {
			return nil, 0, err
		}
		decl.Value = value
		n += m
	}
	if err := p.expectSemicolon(tokens, n, qasmerr.BadClassicalType, "array declaration"); err != nil {
		return nil, 0, err
	}
	return decl, n + 1, nil
}

// parseAlias parses let name = value; and records the alias.
func (p *Parser) parseAlias(tokens []lexer.Token) (ast.Statement, int, error) {
	name := peek(tokens, 1)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadExpression, tokens, 1, "expected alias name after let, found %s", describe(name))
	}
	if err := p.expect(tokens, 2, lexer.EQUALS, qasmerr.BadExpression, "in alias"); err != nil {
		return nil, 0, err
	}
	value, n, err := p.parseExpression(tokens[3:])
	if err != nil {
		return nil, 0, err
	}
	k := 3 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadExpression, "alias"); err != nil {
		return nil, 0, err
	}
	p.env.alias(name.Literal, value)
	return &ast.AliasStatement{Name: name.Literal, Value: value}, k + 1, nil
}

func (p *Parser) parseIODeclaration(tokens []lexer.Token) (ast.Statement, int, error) {
	typ, n, err := p.parseClassicalType(tokens[1:])
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	name := peek(tokens, k)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadClassicalType, tokens, k, "expected a variable name after %s, found %s", typ, describe(name))
	}
	k++
	if err := p.expectSemicolon(tokens, k, qasmerr.BadClassicalType, tokens[0].Symbol()+" declaration"); err != nil {
		return nil, 0, err
	}
	if _, ok := typ.(*ast.ArrayType); ok {
		p.env.arrays[name.Literal] = true
	}
	return &ast.IODeclaration{Output: tokens[0].Type == lexer.OUTPUT, Type: typ, Name: name.Literal}, k + 1, nil
}

// parseGateDefinition parses gate name(params) qubits { body }. The name is
// only callable after the definition.
func (p *Parser) parseGateDefinition(tokens []lexer.Token) (ast.Statement, int, error) {
	name := peek(tokens, 1)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadGate, tokens, 1, "expected gate name, found %s", describe(name))
	}
	k := 2

	var params []string
	if peek(tokens, k).Type == lexer.LPAREN {
		names, n, err := p.parseNameList(tokens[k+1:], lexer.RPAREN, "gate parameter")
		if err != nil {
			return nil, 0, err
		}
		params = names
		k += n + 2
	}

	qubits, n, err := p.parseNameList(tokens[k:], lexer.LBRACE, "gate qubit")
	if err != nil {
		return nil, 0, err
	}
	if len(qubits) == 0 {
		return nil, 0, p.errorf(qasmerr.BadGate, tokens, k, "gate %s must act on at least one qubit", name.Literal)
	}
	k += n

	body, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	k += n

	p.env.userGates[name.Literal] = true
	return &ast.GateDefinition{Name: name.Literal, Params: params, Qubits: qubits, Body: body}, k, nil
}

// parseNameList parses a comma separated identifier list ending at closer.
// The count stops before closer, which the caller consumes.
func (p *Parser) parseNameList(tokens []lexer.Token, closer lexer.TokenType, what string) ([]string, int, error) {
	var names []string
	n := 0
	if peek(tokens, 0).Type == closer {
		return names, 0, nil
	}
	for {
		tok := peek(tokens, n)
		if tok.Type != lexer.IDENTIFIER {
			return nil, 0, p.errorf(qasmerr.BadGate, tokens, n, "expected %s name, found %s", what, describe(tok))
		}
		names = append(names, tok.Literal)
		n++

		switch tok := peek(tokens, n); tok.Type {
		case lexer.COMMA:
			n++
		case closer:
			return names, n, nil
		default:
			return nil, 0, p.errorf(qasmerr.BadGate, tokens, n, "expected ',' or %s after %s, found %s",
				describeType(closer), what, describe(tok))
		}
	}
}

// parseSubroutineDefinition parses def name(params) [-> type] { body }. The
// name is registered before the body so the body may recurse.
func (p *Parser) parseSubroutineDefinition(tokens []lexer.Token) (ast.Statement, int, error) {
	name := peek(tokens, 1)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadSubroutine, tokens, 1, "expected subroutine name after def, found %s", describe(name))
	}
	if err := p.expect(tokens, 2, lexer.LPAREN, qasmerr.BadSubroutine, "after subroutine name"); err != nil {
		return nil, 0, err
	}
	p.env.subroutines[name.Literal] = true

	def := &ast.SubroutineDefinition{Name: name.Literal}
	k := 3
	if peek(tokens, k).Type != lexer.RPAREN {
		for {
			param, n, err := p.parseSubroutineParam(tokens[k:])
			if err != nil {
				return nil, 0, err
			}
			def.Params = append(def.Params, param)
			k += n
			if peek(tokens, k).Type != lexer.COMMA {
				break
			}
			k++
		}
	}
	if err := p.expect(tokens, k, lexer.RPAREN, qasmerr.BadSubroutine, "to close parameter list"); err != nil {
		return nil, 0, err
	}
	k++

	if peek(tokens, k).Type == lexer.ARROW {
		ret, n, err := p.parseClassicalType(tokens[k+1:])
		if err != nil {
			return nil, 0, err
		}
		def.Return = ret
		k += 1 + n
	}

	body, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	def.Body = body
	return def, k + n, nil
}

func (p *Parser) parseSubroutineParam(tokens []lexer.Token) (*ast.SubroutineParam, int, error) {
	param := &ast.SubroutineParam{}
	k := 0
	if t := peek(tokens, 0).Type; t == lexer.READONLY || t == lexer.MUTABLE {
		param.Access = tokens[0].Symbol()
		k++
	}

	if peek(tokens, k).Type == lexer.QUBIT {
		size, n, err := p.parseDesignator(tokens[k+1:], qasmerr.BadSubroutine)
		if err != nil {
			return nil, 0, err
		}
		param.Qubit, param.Size = true, size
		k += 1 + n
	} else {
		typ, n, err := p.parseClassicalType(tokens[k:])
		if err != nil {
			return nil, 0, err
		}
		param.Type = typ
		k += n
	}

	name := peek(tokens, k)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadSubroutine, tokens, k, "expected parameter name, found %s", describe(name))
	}
	param.Name = name.Literal
	if _, ok := param.Type.(*ast.ArrayType); ok {
		p.env.arrays[name.Literal] = true
	}
	return param, k + 1, nil
}

// parseExtern parses extern name(types) [-> type];.
func (p *Parser) parseExtern(tokens []lexer.Token) (ast.Statement, int, error) {
	name := peek(tokens, 1)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadSubroutine, tokens, 1, "expected name after extern, found %s", describe(name))
	}
	if err := p.expect(tokens, 2, lexer.LPAREN, qasmerr.BadSubroutine, "after extern name"); err != nil {
		return nil, 0, err
	}

	sig := &ast.ExternSignature{Name: name.Literal}
	k := 3
	if peek(tokens, k).Type != lexer.RPAREN {
		for {
			typ, n, err := p.parseClassicalType(tokens[k:])
			if err != nil {
				return nil, 0, err
			}
			sig.Params = append(sig.Params, typ)
			k += n
			// Parameter names are optional in extern signatures.
			if peek(tokens, k).Type == lexer.IDENTIFIER {
				k++
			}
			if peek(tokens, k).Type != lexer.COMMA {
				break
			}
			k++
		}
	}
	if err := p.expect(tokens, k, lexer.RPAREN, qasmerr.BadSubroutine, "to close extern parameters"); err != nil {
		return nil, 0, err
	}
	k++

	if peek(tokens, k).Type == lexer.ARROW {
		ret, n, err := p.parseClassicalType(tokens[k+1:])
		if err != nil {
			return nil, 0, err
		}
		sig.Return = ret
		k += 1 + n
	}
	if err := p.expectSemicolon(tokens, k, qasmerr.BadSubroutine, "extern signature"); err != nil {
		return nil, 0, err
	}
	p.env.subroutines[name.Literal] = true
	return sig, k + 1, nil
}

// skipOpaque consumes an opaque gate declaration. It produces no node but
// makes the gate name callable.
func (p *Parser) skipOpaque(tokens []lexer.Token) (ast.Statement, int, error) {
	end := scanTo(tokens, 1, lexer.SEMICOLON)
	if peek(tokens, end).Type != lexer.SEMICOLON {
		return nil, 0, p.errorf(qasmerr.MissingSemicolon, tokens, end, "missing ';' after opaque declaration")
	}
	if name := peek(tokens, 1); name.Type == lexer.IDENTIFIER {
		p.env.userGates[name.Literal] = true
	}
	return nil, end + 1, nil
}
