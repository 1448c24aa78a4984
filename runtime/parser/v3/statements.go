package v3

import (
	"fmt"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/invariant"
	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/core/suggest"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
)

var modifierKinds = map[lexer.TokenType]ast.ModifierKind{
	lexer.CTRL:    ast.Ctrl,
	lexer.NEGCTRL: ast.NegCtrl,
	lexer.INV:     ast.Inv,
	lexer.POW:     ast.Pow,
}

// parseGateCall parses [modifier @]... name[(params)] qubits;.
func (p *Parser) parseGateCall(tokens []lexer.Token) (ast.Statement, int, error) {
	call := &ast.QuantumGateCall{}
	k := 0
	for {
		kind, ok := modifierKinds[peek(tokens, k).Type]
		if !ok {
			break
		}
		mod := &ast.QuantumGateModifier{Kind: kind}
		k++
		if peek(tokens, k).Type == lexer.LPAREN {
			args, n, err := p.parseArguments(tokens[k:], qasmerr.BadGate)
			if err != nil {
				return nil, 0, err
			}
			if len(args) != 1 {
				return nil, 0, p.errorf(qasmerr.BadGate, tokens, k, "%s takes one argument, got %d", kind, len(args))
			}
			mod.Argument = args[0]
			k += n
		}
		if err := p.expect(tokens, k, lexer.AT, qasmerr.BadGate, "after "+kind.String()); err != nil {
			return nil, 0, err
		}
		k++
		call.Modifiers = append(call.Modifiers, mod)
	}

	name := peek(tokens, k)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadGate, tokens, k, "expected gate name, found %s", describe(name))
	}
	if !p.env.isGate(name.Literal) {
		return nil, 0, p.unknownGate(tokens, k, name.Literal)
	}
	call.Name = name.Literal
	k++

	if peek(tokens, k).Type == lexer.LPAREN {
		params, n, err := p.parseArguments(tokens[k:], qasmerr.BadParameter)
		if err != nil {
			return nil, 0, err
		}
		call.Params = params
		k += n
	}

	qubits, n, err := p.parseQubitList(tokens[k:], qasmerr.BadQuantumInstruction)
	if err != nil {
		return nil, 0, err
	}
	call.Qubits = qubits
	k += n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadQuantumInstruction, "gate call "+call.Name); err != nil {
		return nil, 0, err
	}
	return call, k + 1, nil
}

func (p *Parser) unknownGate(tokens []lexer.Token, k int, name string) *qasmerr.Error {
	err := p.errorf(qasmerr.BadGate, tokens, k, "unknown gate %q", name)
	if p.env.isStandardGate(name) {
		err.Message += fmt.Sprintf("; include %q to use the standard gates", StdgatesInclude)
	}
	if s := suggest.Closest(name, p.env.gateNames()); s != "" && s != name {
		err.WithSuggestion(s)
	}
	return err
}

// parseQubitList parses a possibly empty comma separated operand list ending
// before ';'.
func (p *Parser) parseQubitList(tokens []lexer.Token, kind qasmerr.Kind) ([]ast.Expression, int, error) {
	var qubits []ast.Expression
	if peek(tokens, 0).Type != lexer.IDENTIFIER {
		return qubits, 0, nil
	}
	n := 0
	for {
		q, m, err := p.parseOperand(tokens[n:], kind, "qubit operand")
		if err != nil {
			return nil, 0, err
		}
		qubits = append(qubits, q)
		n += m
		if peek(tokens, n).Type != lexer.COMMA {
			return qubits, n, nil
		}
		n++
	}
}

// parseMeasure parses measure q; and the legacy measure q -> c; form.
func (p *Parser) parseMeasure(tokens []lexer.Token) (ast.Statement, int, error) {
	qubit, n, err := p.parseOperand(tokens[1:], qasmerr.BadMeasurement, "qubit to measure")
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	measure := &ast.QuantumMeasurement{Qubit: qubit}

	if peek(tokens, k).Type != lexer.ARROW {
		if err := p.expectSemicolon(tokens, k, qasmerr.BadMeasurement, "measurement"); err != nil {
			return nil, 0, err
		}
		return measure, k + 1, nil
	}

	target, n, err := p.parseOperand(tokens[k+1:], qasmerr.BadMeasurement, "measurement target after '->'")
	if err != nil {
		return nil, 0, err
	}
	k += 1 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadMeasurement, "measurement"); err != nil {
		return nil, 0, err
	}
	return &ast.QuantumMeasurementAssignment{Target: target, Measure: measure}, k + 1, nil
}

// parseDeclaredMeasurement parses bit[n] c = measure q;.
func (p *Parser) parseDeclaredMeasurement(tokens []lexer.Token) (ast.Statement, int, error) {
	typ, n, err := p.parseClassicalType(tokens)
	if err != nil {
		return nil, 0, err
	}
	name := peek(tokens, n)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadMeasurement, tokens, n, "expected a variable name after %s, found %s", typ, describe(name))
	}
	stmt, m, err := p.finishMeasurement(tokens[n+1:], &ast.Identifier{Name: name.Literal})
	if err != nil {
		return nil, 0, err
	}
	stmt.Type = typ
	return stmt, n + 1 + m, nil
}

// parseMeasurementAssignment parses c = measure q; and c[i] = measure q[i];.
func (p *Parser) parseMeasurementAssignment(tokens []lexer.Token) (ast.Statement, int, error) {
	target, n, err := p.parseOperand(tokens, qasmerr.BadMeasurement, "measurement target")
	if err != nil {
		return nil, 0, err
	}
	stmt, m, err := p.finishMeasurement(tokens[n:], target)
	if err != nil {
		return nil, 0, err
	}
	return stmt, n + m, nil
}

// finishMeasurement parses = measure qubit; after the target.
func (p *Parser) finishMeasurement(tokens []lexer.Token, target ast.Expression) (*ast.QuantumMeasurementAssignment, int, error) {
	if err := p.expect(tokens, 0, lexer.EQUALS, qasmerr.BadMeasurement, "after measurement target"); err != nil {
		return nil, 0, err
	}
	if err := p.expect(tokens, 1, lexer.MEASURE, qasmerr.BadMeasurement, "after '='"); err != nil {
		return nil, 0, err
	}
	qubit, n, err := p.parseOperand(tokens[2:], qasmerr.BadMeasurement, "qubit to measure")
	if err != nil {
		return nil, 0, err
	}
	k := 2 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadMeasurement, "measurement"); err != nil {
		return nil, 0, err
	}
	return &ast.QuantumMeasurementAssignment{
		Target:  target,
		Measure: &ast.QuantumMeasurement{Qubit: qubit},
	}, k + 1, nil
}

// parseAssignment parses target op value; for = and the compound operators.
func (p *Parser) parseAssignment(tokens []lexer.Token) (ast.Statement, int, error) {
	target, n, err := p.parseOperand(tokens, qasmerr.BadExpression, "assignment target")
	if err != nil {
		return nil, 0, err
	}
	op := peek(tokens, n)
	if !assignOps[op.Type] {
		return nil, 0, p.errorf(qasmerr.BadExpression, tokens, n, "expected an assignment operator after %s, found %s", target, describe(op))
	}
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
	n += m
	if err := p.expectSemicolon(tokens, n, qasmerr.BadExpression, "assignment"); err != nil {
		return nil, 0, err
	}
	return &ast.ClassicalAssignment{Target: target, Op: op.Symbol(), Value: value}, n + 1, nil
}

func (p *Parser) parseReset(tokens []lexer.Token) (ast.Statement, int, error) {
	qubit, n, err := p.parseOperand(tokens[1:], qasmerr.BadQuantumInstruction, "qubit to reset")
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadQuantumInstruction, "reset"); err != nil {
		return nil, 0, err
	}
	return &ast.QuantumReset{Qubit: qubit}, k + 1, nil
}

func (p *Parser) parseBarrier(tokens []lexer.Token) (ast.Statement, int, error) {
	qubits, n, err := p.parseQubitList(tokens[1:], qasmerr.BadBarrier)
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadBarrier, "barrier"); err != nil {
		return nil, 0, err
	}
	return &ast.QuantumBarrier{Qubits: qubits}, k + 1, nil
}

// parseDelay parses delay[duration] qubits;.
func (p *Parser) parseDelay(tokens []lexer.Token) (ast.Statement, int, error) {
	if err := p.expect(tokens, 1, lexer.LSQUARE, qasmerr.BadQuantumInstruction, "after delay"); err != nil {
		return nil, 0, err
	}
	duration, n, err := p.parseExpression(tokens[2:])
	if err != nil {
		return nil, 0, err
	}
	k := 2 + n
	if err := p.expect(tokens, k, lexer.RSQUARE, qasmerr.BadQuantumInstruction, "to close delay duration"); err != nil {
		return nil, 0, err
	}
	k++
	qubits, n, err := p.parseQubitList(tokens[k:], qasmerr.BadQuantumInstruction)
	if err != nil {
		return nil, 0, err
	}
	k += n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadQuantumInstruction, "delay"); err != nil {
		return nil, 0, err
	}
	return &ast.QuantumDelay{Duration: duration, Qubits: qubits}, k + 1, nil
}

// parseBox parses box [duration] { body }.
func (p *Parser) parseBox(tokens []lexer.Token) (ast.Statement, int, error) {
	box := &ast.BoxStatement{}
	k := 1
	if peek(tokens, k).Type == lexer.LSQUARE {
		duration, n, err := p.parseExpression(tokens[k+1:])
		if err != nil {
			return nil, 0, err
		}
		k += 1 + n
		if err := p.expect(tokens, k, lexer.RSQUARE, qasmerr.BadQuantumInstruction, "to close box duration"); err != nil {
			return nil, 0, err
		}
		k++
		box.Duration = duration
	}
	body, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	box.Body = body
	return box, k + n, nil
}

// parseReturn parses return;, return value; and return measure qubit;.
func (p *Parser) parseReturn(tokens []lexer.Token) (ast.Statement, int, error) {
	switch peek(tokens, 1).Type {
	case lexer.SEMICOLON:
		return &ast.ReturnStatement{}, 2, nil
	case lexer.MEASURE:
		qubit, n, err := p.parseOperand(tokens[2:], qasmerr.BadMeasurement, "qubit to measure")
		if err != nil {
			return nil, 0, err
		}
		k := 2 + n
		if err := p.expectSemicolon(tokens, k, qasmerr.BadMeasurement, "returned measurement"); err != nil {
			return nil, 0, err
		}
		return &ast.ReturnStatement{Measure: &ast.QuantumMeasurement{Qubit: qubit}}, k + 1, nil
	}
	value, n, err := p.parseExpression(tokens[1:])
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	if err := p.expectSemicolon(tokens, k, qasmerr.BadSubroutine, "return"); err != nil {
		return nil, 0, err
	}
	return &ast.ReturnStatement{Value: value}, k + 1, nil
}

// parseCondition parses a parenthesised condition starting at tokens[0].
func (p *Parser) parseCondition(tokens []lexer.Token, kind qasmerr.Kind, keyword string) (ast.Expression, int, error) {
	if err := p.expect(tokens, 0, lexer.LPAREN, kind, "after "+keyword); err != nil {
		return nil, 0, err
	}
	cond, n, err := p.parseExpression(tokens[1:])
	if err != nil {
		return nil, 0, err
	}
	if err := p.expect(tokens, 1+n, lexer.RPAREN, kind, "to close "+keyword+" condition"); err != nil {
		return nil, 0, err
	}
	return cond, n + 2, nil
}

// parseIf parses if (cond) block [else block]. An else if chain is an else
// block holding a single if statement.
func (p *Parser) parseIf(tokens []lexer.Token) (ast.Statement, int, error) {
	cond, n, err := p.parseCondition(tokens[1:], qasmerr.BadConditional, "if")
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	then, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	k += n

	stmt := &ast.BranchingStatement{Condition: cond, Then: then}
	if peek(tokens, k).Type == lexer.ELSE {
		k++
		if peek(tokens, k).Type == lexer.EOF {
			return nil, 0, p.errorf(qasmerr.BadConditional, tokens, k, "else without a body")
		}
		els, n, err := p.parseProgramBlock(tokens[k:])
		if err != nil {
			return nil, 0, err
		}
		stmt.Else = els
		k += n
	}
	return stmt, k, nil
}

// parseFor parses for [type] name in iterable block. The iterable is a
// bracketed range, an index set or an expression naming a register or array.
func (p *Parser) parseFor(tokens []lexer.Token) (ast.Statement, int, error) {
	loop := &ast.ForLoopStatement{}
	k := 1
	if !(peek(tokens, 1).Type == lexer.IDENTIFIER && peek(tokens, 2).Type == lexer.IN) {
		typ, n, err := p.parseClassicalType(tokens[1:])
		if err != nil {
			return nil, 0, err
		}
		loop.Type = typ
		k += n
	}

	name := peek(tokens, k)
	if name.Type != lexer.IDENTIFIER {
		return nil, 0, p.errorf(qasmerr.BadLoop, tokens, k, "expected loop variable, found %s", describe(name))
	}
	loop.Variable = name.Literal
	k++
	if err := p.expect(tokens, k, lexer.IN, qasmerr.BadLoop, "after loop variable"); err != nil {
		return nil, 0, err
	}
	k++

	switch peek(tokens, k).Type {
	case lexer.LSQUARE:
		r, n, err := p.parseSubscript(tokens[k+1:])
		if err != nil {
			return nil, 0, err
		}
		if err := p.expect(tokens, k+1+n, lexer.RSQUARE, qasmerr.BadLoop, "to close loop range"); err != nil {
			return nil, 0, err
		}
		loop.Iterable = r
		k += n + 2
	case lexer.LBRACE:
		set, n, err := p.parseIndexSet(tokens[k:])
		if err != nil {
			return nil, 0, err
		}
		loop.Iterable = set
		k += n
	default:
		iter, n, err := p.parseExpression(tokens[k:])
		if err != nil {
			return nil, 0, err
		}
		loop.Iterable = iter
		k += n
	}

	body, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	loop.Body = body
	return loop, k + n, nil
}

func (p *Parser) parseWhile(tokens []lexer.Token) (ast.Statement, int, error) {
	cond, n, err := p.parseCondition(tokens[1:], qasmerr.BadLoop, "while")
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	body, n, err := p.parseProgramBlock(tokens[k:])
	if err != nil {
		return nil, 0, err
	}
	return &ast.WhileLoopStatement{Condition: cond, Body: body}, k + n, nil
}

// parseSwitch parses switch (control) { case v, ... block ... default block }.
func (p *Parser) parseSwitch(tokens []lexer.Token) (ast.Statement, int, error) {
	control, n, err := p.parseCondition(tokens[1:], qasmerr.BadConditional, "switch")
	if err != nil {
		return nil, 0, err
	}
	k := 1 + n
	if err := p.expect(tokens, k, lexer.LBRACE, qasmerr.BadConditional, "to open switch body"); err != nil {
		return nil, 0, err
	}

	err = p.enter(tokens[k:])
	defer p.leave()
	if err != nil {
		return nil, 0, err
	}
	k++

	stmt := &ast.SwitchStatement{Control: control}
	for {
		switch tok := peek(tokens, k); tok.Type {
		case lexer.CASE:
			k++
			c := &ast.CaseStatement{}
			for {
				value, n, err := p.parseExpression(tokens[k:])
				if err != nil {
					return nil, 0, err
				}
				c.Values = append(c.Values, value)
				k += n
				if peek(tokens, k).Type != lexer.COMMA {
					break
				}
				k++
			}
			body, n, err := p.parseProgramBlock(tokens[k:])
			if err != nil {
				return nil, 0, err
			}
			c.Body = body
			k += n
			stmt.Cases = append(stmt.Cases, c)
		case lexer.DEFAULT:
			if stmt.Default != nil {
				return nil, 0, p.errorf(qasmerr.BadConditional, tokens, k, "switch has more than one default")
			}
			body, n, err := p.parseProgramBlock(tokens[k+1:])
			if err != nil {
				return nil, 0, err
			}
			stmt.Default = &ast.DefaultStatement{Body: body}
			k += 1 + n
		case lexer.RBRACE:
			return stmt, k + 1, nil
		case lexer.EOF:
			return nil, 0, p.errorf(qasmerr.MissingBrace, tokens, k, "switch body is not closed")
		default:
			return nil, 0, p.errorf(qasmerr.BadConditional, tokens, k, "expected case, default or '}' in switch, found %s", describe(tok))
		}
	}
}

// parseProgramBlock parses a braced block, or a single statement when
// tokens[0] is not '{'. The matching '}' is found by counting brace depth, and
// the statements between are parsed from that bounded view.
func (p *Parser) parseProgramBlock(tokens []lexer.Token) (*ast.ProgramBlock, int, error) {
	err := p.enter(tokens)
	defer p.leave()
	if err != nil {
		return nil, 0, err
	}

	block := &ast.ProgramBlock{}
	switch peek(tokens, 0).Type {
	case lexer.EOF:
		return nil, 0, p.errorf(qasmerr.MissingBrace, tokens, 0, "expected '{' or a statement")
	case lexer.LBRACE:
	default:
		stmt, n, err := p.parseNode(tokens)
		if err != nil {
			return nil, 0, err
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		return block, n, nil
	}

	end := matchingBrace(tokens)
	if end < 0 {
		return nil, 0, p.errorf(qasmerr.MissingBrace, tokens, 0, "'{' is never closed")
	}
	body := tokens[1:end]
	for i := 0; i < len(body); {
		stmt, n, err := p.parseNode(body[i:])
		if err != nil {
			return nil, 0, err
		}
		invariant.Progress(n, len(body)-i, "parseNode")
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		i += n
	}
	return block, end + 1, nil
}

// matchingBrace returns the index of the '}' closing tokens[0], or -1.
func matchingBrace(tokens []lexer.Token) int {
	depth := 0
	for i, tok := range tokens {
		switch tok.Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
			if depth == 0 {
				return i
			}
		case lexer.EOF:
			return -1
		}
	}
	return -1
}
