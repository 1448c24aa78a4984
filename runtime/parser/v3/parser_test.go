package v3

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/qasmerr"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v3"
	"github.com/aledsdavies/qasm/testing/golden"
)

func lex(t *testing.T, src string) []lexer.Token {
	t.Helper()
	tokens, err := lexer.NewLexer(src).Lex()
	require.NoError(t, err)
	return tokens
}

func parseSource(t *testing.T, src string, opts ...ParserOpt) ([]ast.Statement, error) {
	t.Helper()
	return NewParser(lex(t, src), opts...).Parse()
}

func mustParse(t *testing.T, src string, opts ...ParserOpt) []ast.Statement {
	t.Helper()
	stmts, err := parseSource(t, src, opts...)
	require.NoError(t, err)
	return stmts
}

func fromGolden(t *testing.T, recorded []golden.Token) []lexer.Token {
	t.Helper()
	tokens := make([]lexer.Token, len(recorded))
	for i, r := range recorded {
		tt, ok := lexer.LookupTokenType(r.Type)
		require.True(t, ok, "unknown token type %q", r.Type)
		tokens[i] = lexer.Token{Type: tt, Literal: r.Literal}
	}
	return tokens
}

func assertStatements(t *testing.T, want, got []ast.Statement) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func assertKind(t *testing.T, err error, kind qasmerr.Kind) *qasmerr.Error {
	t.Helper()
	require.Error(t, err)
	var qe *qasmerr.Error
	require.True(t, errors.As(err, &qe), "expected *qasmerr.Error, got %T", err)
	assert.Equal(t, kind, qe.Kind, qe.Error())
	return qe
}

func id(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func intLit(v int64) *ast.IntegerLiteral { return &ast.IntegerLiteral{Value: v} }

func index(name string, subs ...ast.Expression) *ast.SubscriptedIdentifier {
	return &ast.SubscriptedIdentifier{Name: name, Subscripts: subs}
}

func TestGoldenFixtures(t *testing.T) {
	fixtures, err := golden.All(lexer.MajorVersion)
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, f := range fixtures {
		t.Run(f.Name, func(t *testing.T) {
			stmts, err := NewParser(fromGolden(t, f.Tokens)).Parse()
			require.NoError(t, err)
			if diff := cmp.Diff(f.AST, ast.Program(stmts)); diff != "" {
				t.Errorf("rendered tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGoldenQFTStructure(t *testing.T) {
	f, err := golden.Load(lexer.MajorVersion, "qft")
	require.NoError(t, err)
	stmts, err := NewParser(fromGolden(t, f.Tokens)).Parse()
	require.NoError(t, err)

	want := []ast.Statement{
		&ast.Version{Number: "3.0"},
		&ast.Include{Filename: "stdgates.inc"},
		&ast.QubitDeclaration{Name: "q", Size: intLit(4)},
		&ast.ClassicalDeclaration{Type: &ast.BitType{Size: intLit(4)}, Name: "c"},
		&ast.QuantumGateCall{Name: "h", Qubits: []ast.Expression{index("q", intLit(3))}},
		&ast.QuantumGateCall{
			Name:   "cp",
			Params: []ast.Expression{&ast.Arithmetic{Op: "/", Left: &ast.MathConstant{Name: "pi"}, Right: intLit(2)}},
			Qubits: []ast.Expression{index("q", intLit(2)), index("q", intLit(3))},
		},
	}
	assertStatements(t, want, stmts[:len(want)])
	assertStatements(t, []ast.Statement{
		&ast.QuantumMeasurementAssignment{Target: id("c"), Measure: &ast.QuantumMeasurement{Qubit: id("q")}},
	}, stmts[len(stmts)-1:])
}

func TestIdempotence(t *testing.T) {
	for _, name := range []string{"qft", "teleport", "adder"} {
		t.Run(name, func(t *testing.T) {
			f, err := golden.Load(lexer.MajorVersion, name)
			require.NoError(t, err)
			tokens := fromGolden(t, f.Tokens)

			first, err := NewParser(tokens).Parse()
			require.NoError(t, err)
			second, err := NewParser(tokens).Parse()
			require.NoError(t, err)
			assertStatements(t, first, second)
		})
	}
}

func TestParserIsSingleUse(t *testing.T) {
	p := NewParser(lex(t, "qubit q;"))
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = p.Parse() })
}

func TestVersionBoundary(t *testing.T) {
	tokens := []lexer.Token{
		{Type: lexer.OPENQASM, Literal: "2.0"},
		{Type: lexer.SEMICOLON},
		{Type: lexer.EOF},
	}
	_, err := NewParser(tokens).Parse()
	qe := assertKind(t, err, qasmerr.UnsupportedVersion)
	assert.Equal(t, 0, qe.Index)

	_, err = lexer.NewLexer("OPENQASM 2.0;\n").Lex()
	assertKind(t, err, qasmerr.UnsupportedVersion)

	stmts := mustParse(t, "OPENQASM 3;\n")
	assertStatements(t, []ast.Statement{&ast.Version{Number: "3"}}, stmts)
}

func TestMissingEOFIsAdded(t *testing.T) {
	stmts, err := NewParser([]lexer.Token{
		{Type: lexer.QUBIT},
		{Type: lexer.IDENTIFIER, Literal: "q"},
		{Type: lexer.SEMICOLON},
	}).Parse()
	require.NoError(t, err)
	assertStatements(t, []ast.Statement{&ast.QubitDeclaration{Name: "q"}}, stmts)

	stmts, err = NewParser(nil).Parse()
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestIncludeOrder(t *testing.T) {
	_, err := parseSource(t, "qubit q;\nh q;\ninclude \"stdgates.inc\";\n")
	qe := assertKind(t, err, qasmerr.BadExpression)
	assert.Contains(t, qe.Message, "stdgates.inc")
	assert.Equal(t, 4, qe.Index, "the qubit operand is the first token that cannot continue the expression")

	stmts := mustParse(t, "include \"stdgates.inc\";\nqubit q;\nh q;\n")
	assertStatements(t, []ast.Statement{
		&ast.Include{Filename: "stdgates.inc"},
		&ast.QubitDeclaration{Name: "q"},
		&ast.QuantumGateCall{Name: "h", Qubits: []ast.Expression{id("q")}},
	}, stmts)
}

func TestBuiltinGatesNeedNoInclude(t *testing.T) {
	stmts := mustParse(t, "qubit q;\nU(pi, 0, pi) q;\ngphase(pi);\n")
	assertStatements(t, []ast.Statement{
		&ast.QubitDeclaration{Name: "q"},
		&ast.QuantumGateCall{
			Name:   "U",
			Params: []ast.Expression{&ast.MathConstant{Name: "pi"}, intLit(0), &ast.MathConstant{Name: "pi"}},
			Qubits: []ast.Expression{id("q")},
		},
		&ast.QuantumGateCall{Name: "gphase", Params: []ast.Expression{&ast.MathConstant{Name: "pi"}}},
	}, stmts)
}

func TestMeasurementAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []ast.Statement
	}{
		{
			name: "declaration then measurement",
			src:  "bit c;\nc = measure q;\n",
			want: []ast.Statement{
				&ast.ClassicalDeclaration{Type: &ast.BitType{}, Name: "c"},
				&ast.QuantumMeasurementAssignment{Target: id("c"), Measure: &ast.QuantumMeasurement{Qubit: id("q")}},
			},
		},
		{
			name: "inline declaration",
			src:  "bit c = measure q;\n",
			want: []ast.Statement{
				&ast.QuantumMeasurementAssignment{
					Type:    &ast.BitType{},
					Target:  id("c"),
					Measure: &ast.QuantumMeasurement{Qubit: id("q")},
				},
			},
		},
		{
			name: "sized inline declaration",
			src:  "bit[2] c = measure q[0:1];\n",
			want: []ast.Statement{
				&ast.QuantumMeasurementAssignment{
					Type:    &ast.BitType{Size: intLit(2)},
					Target:  id("c"),
					Measure: &ast.QuantumMeasurement{Qubit: index("q", &ast.Range{Start: intLit(0), Stop: intLit(1)})},
				},
			},
		},
		{
			name: "indexed target",
			src:  "c[1] = measure q[1];\n",
			want: []ast.Statement{
				&ast.QuantumMeasurementAssignment{
					Target:  index("c", intLit(1)),
					Measure: &ast.QuantumMeasurement{Qubit: index("q", intLit(1))},
				},
			},
		},
		{
			name: "bare measurement",
			src:  "measure q;\n",
			want: []ast.Statement{&ast.QuantumMeasurement{Qubit: id("q")}},
		},
		{
			name: "arrow measurement",
			src:  "measure q[0] -> c[0];\n",
			want: []ast.Statement{
				&ast.QuantumMeasurementAssignment{
					Target:  index("c", intLit(0)),
					Measure: &ast.QuantumMeasurement{Qubit: index("q", intLit(0))},
				},
			},
		},
		{
			name: "bit initialized from expression",
			src:  "bit c = 1;\n",
			want: []ast.Statement{&ast.ClassicalDeclaration{Type: &ast.BitType{}, Name: "c", Value: intLit(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStatements(t, tt.want, mustParse(t, tt.src))
		})
	}
}

func TestIdentifierResolution(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ast.Statement
	}{
		{
			name: "bare identifier is an expression",
			src:  "foo;\n",
			want: &ast.ExpressionStatement{Expression: id("foo")},
		},
		{
			name: "assignment",
			src:  "x = 2;\n",
			want: &ast.ClassicalAssignment{Target: id("x"), Op: "=", Value: intLit(2)},
		},
		{
			name: "compound assignment",
			src:  "x += 2;\n",
			want: &ast.ClassicalAssignment{Target: id("x"), Op: "+=", Value: intLit(2)},
		},
		{
			name: "indexed assignment",
			src:  "x[0] <<= 1;\n",
			want: &ast.ClassicalAssignment{Target: index("x", intLit(0)), Op: "<<=", Value: intLit(1)},
		},
		{
			name: "comparison is not an assignment",
			src:  "x == 2;\n",
			want: &ast.ExpressionStatement{Expression: &ast.Binary{Op: "==", Left: id("x"), Right: intLit(2)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStatements(t, []ast.Statement{tt.want}, mustParse(t, tt.src))
		})
	}
}

func TestArrayDeclaration(t *testing.T) {
	stmts := mustParse(t, "array[int[8], 4] xs = {1,2,3,4};\n")
	want := []ast.Statement{
		&ast.ArrayDeclaration{
			Type: &ast.ArrayType{
				Element:    &ast.IntType{Size: intLit(8)},
				Dimensions: []ast.Expression{intLit(4)},
			},
			Name: "xs",
			Value: &ast.ArrayInitializer{Values: []ast.Expression{
				intLit(1), intLit(2), intLit(3), intLit(4),
			}},
		},
	}
	assertStatements(t, want, stmts)
}

func TestArraySubscripts(t *testing.T) {
	stmts := mustParse(t, "array[float[32], 2, 2] m = {{1.5, 2}, {3, 4}};\nm[0, 1] = 0.5;\n")
	require.Len(t, stmts, 2)

	decl := stmts[0].(*ast.ArrayDeclaration)
	assert.Len(t, decl.Type.Dimensions, 2)
	assert.Equal(t, "{{1.5, 2}, {3, 4}}", decl.Value.String())

	assertStatements(t, []ast.Statement{
		&ast.ClassicalAssignment{
			Target: index("m", intLit(0), intLit(1)),
			Op:     "=",
			Value:  &ast.FloatLiteral{Value: 0.5},
		},
	}, stmts[1:])

	_, err := parseSource(t, "qubit[4] q;\nreset q[0, 1];\n")
	assertKind(t, err, qasmerr.BadExpression)
}

func TestSubscriptForms(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expression
	}{
		{"q[1];", index("q", intLit(1))},
		{"q[1:3];", index("q", &ast.Range{Start: intLit(1), Stop: intLit(3)})},
		{"q[0:2:6];", index("q", &ast.Range{Start: intLit(0), Step: intLit(2), Stop: intLit(6)})},
		{"q[:3];", index("q", &ast.Range{Stop: intLit(3)})},
		{"q[1:];", index("q", &ast.Range{Start: intLit(1)})},
		{"q[{0, 2}];", index("q", &ast.IndexSet{Values: []ast.Expression{intLit(0), intLit(2)}})},
		{"q[0][1];", index("q", intLit(0), intLit(1))},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := mustParse(t, tt.src+"\n")
			assertStatements(t, []ast.Statement{&ast.ExpressionStatement{Expression: tt.want}}, stmts)
		})
	}
}

func TestExpressionsFoldLeft(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expression
	}{
		{
			"x = 1 + 2 * 3;",
			&ast.Arithmetic{Op: "*", Left: &ast.Arithmetic{Op: "+", Left: intLit(1), Right: intLit(2)}, Right: intLit(3)},
		},
		{
			"x = 1 + (2 * 3);",
			&ast.Arithmetic{Op: "+", Left: intLit(1), Right: &ast.Parameters{Values: []ast.Expression{
				&ast.Arithmetic{Op: "*", Left: intLit(2), Right: intLit(3)},
			}}},
		},
		{
			"x = a < b && c;",
			&ast.Binary{Op: "&&", Left: &ast.Binary{Op: "<", Left: id("a"), Right: id("b")}, Right: id("c")},
		},
		{
			"x = -a ** 2;",
			&ast.Arithmetic{Op: "**", Left: &ast.Unary{Op: "-", Operand: id("a")}, Right: intLit(2)},
		},
		{
			"x = !~b;",
			&ast.Unary{Op: "!", Operand: &ast.Unary{Op: "~", Operand: id("b")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := mustParse(t, tt.src+"\n")
			require.Len(t, stmts, 1)
			assign := stmts[0].(*ast.ClassicalAssignment)
			if diff := cmp.Diff(tt.want, assign.Value); diff != "" {
				t.Errorf("expression mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expression
	}{
		{"0x1F", intLit(31)},
		{"0b101", intLit(5)},
		{"0o17", intLit(15)},
		{"010", intLit(10)},
		{"1_000", intLit(1000)},
		{"2.5e3", &ast.FloatLiteral{Value: 2500}},
		{".5", &ast.FloatLiteral{Value: 0.5}},
		{"2im", &ast.ImaginaryLiteral{Value: 2}},
		{"100ns", &ast.DurationLiteral{Value: 100, Unit: "ns"}},
		{"1.5us", &ast.DurationLiteral{Value: 1.5, Unit: "us"}},
		{"3s", &ast.DurationLiteral{Value: 3, Unit: "s"}},
		{"true", &ast.BooleanLiteral{Value: true}},
		{`"0110"`, &ast.BitstringLiteral{Value: "0110"}},
		{"τ", &ast.MathConstant{Name: "tau"}},
		{"euler", &ast.MathConstant{Name: "euler"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := mustParse(t, "x = "+tt.src+";\n")
			assign := stmts[0].(*ast.ClassicalAssignment)
			if diff := cmp.Diff(tt.want, assign.Value); diff != "" {
				t.Errorf("literal mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuiltinCalls(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expression
	}{
		{"sin(pi)", &ast.TrigFunction{Name: "sin", Arg: &ast.MathConstant{Name: "pi"}}},
		{"sqrt(2)", &ast.MathFunction{Name: "sqrt", Args: []ast.Expression{intLit(2)}}},
		{"mod(7, 3)", &ast.MathFunction{Name: "mod", Args: []ast.Expression{intLit(7), intLit(3)}}},
		{"sizeof(xs)", &ast.SizeOf{Target: id("xs")}},
		{"sizeof(xs, 1)", &ast.SizeOf{Target: id("xs"), Dimension: intLit(1)}},
		{"int[32](2.5)", &ast.Cast{Type: &ast.IntType{Size: intLit(32)}, Value: &ast.FloatLiteral{Value: 2.5}}},
		{"float(x)", &ast.Cast{Type: &ast.FloatType{}, Value: id("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := mustParse(t, "y = "+tt.src+";\n")
			assign := stmts[0].(*ast.ClassicalAssignment)
			if diff := cmp.Diff(tt.want, assign.Value); diff != "" {
				t.Errorf("call mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := parseSource(t, "y = sin(1, 2);\n")
	assertKind(t, err, qasmerr.BadExpression)
}

func TestCastStatement(t *testing.T) {
	stmts := mustParse(t, "int[8](x);\n")
	assertStatements(t, []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.Cast{Type: &ast.IntType{Size: intLit(8)}, Value: id("x")}},
	}, stmts)
}

func TestDurationOf(t *testing.T) {
	stmts := mustParse(t, "include \"stdgates.inc\";\nqubit q;\nduration d = durationof({x q;});\n")
	require.Len(t, stmts, 3)
	assertStatements(t, []ast.Statement{
		&ast.ClassicalDeclaration{
			Type: &ast.DurationType{},
			Name: "d",
			Value: &ast.DurationOf{Scope: &ast.ProgramBlock{Statements: []ast.Statement{
				&ast.QuantumGateCall{Name: "x", Qubits: []ast.Expression{id("q")}},
			}}},
		},
	}, stmts[2:])
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Statement
	}{
		{"qubit q;", &ast.QubitDeclaration{Name: "q"}},
		{"qubit[2] q;", &ast.QubitDeclaration{Name: "q", Size: intLit(2)}},
		{"qreg q[3];", &ast.QubitDeclaration{Name: "q", Size: intLit(3)}},
		{"creg c[3];", &ast.ClassicalDeclaration{Type: &ast.BitType{Size: intLit(3)}, Name: "c"}},
		{"const int[8] n = 4;", &ast.ClassicalDeclaration{Const: true, Type: &ast.IntType{Size: intLit(8)}, Name: "n", Value: intLit(4)}},
		{"angle[20] theta = pi / 2;", &ast.ClassicalDeclaration{
			Type:  &ast.AngleType{Size: intLit(20)},
			Name:  "theta",
			Value: &ast.Arithmetic{Op: "/", Left: &ast.MathConstant{Name: "pi"}, Right: intLit(2)},
		}},
		{"bool flag = false;", &ast.ClassicalDeclaration{Type: &ast.BoolType{}, Name: "flag", Value: &ast.BooleanLiteral{}}},
		{"complex[float[64]] z;", &ast.ClassicalDeclaration{Type: &ast.ComplexType{Base: &ast.FloatType{Size: intLit(64)}}, Name: "z"}},
		{"stretch s;", &ast.ClassicalDeclaration{Type: &ast.StretchType{}, Name: "s"}},
		{"input float[64] gamma;", &ast.IODeclaration{Type: &ast.FloatType{Size: intLit(64)}, Name: "gamma"}},
		{"output bit result;", &ast.IODeclaration{Output: true, Type: &ast.BitType{}, Name: "result"}},
		{"let both = a ++ b;", &ast.AliasStatement{Name: "both", Value: &ast.Concatenation{Left: id("a"), Right: id("b")}}},
		{"let first = q[0:1];", &ast.AliasStatement{Name: "first", Value: index("q", &ast.Range{Start: intLit(0), Stop: intLit(1)})}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assertStatements(t, []ast.Statement{tt.want}, mustParse(t, tt.src+"\n"))
		})
	}

	_, err := parseSource(t, "complex[int] z;\n")
	assertKind(t, err, qasmerr.BadClassicalType)
	_, err = parseSource(t, "qreg 3;\n")
	assertKind(t, err, qasmerr.BadQreg)
	_, err = parseSource(t, "creg;\n")
	assertKind(t, err, qasmerr.BadCreg)
}

func TestGateDefinitionAndModifiers(t *testing.T) {
	src := `include "stdgates.inc";
gate rot(theta, phi) a, b {
    rz(theta) a;
    cx a, b;
    ry(phi) b;
}
qubit[3] q;
rot(pi, pi / 2) q[0], q[1];
ctrl @ rot(pi, 0) q[2], q[0], q[1];
negctrl(2) @ inv @ x q[0], q[1], q[2];
pow(2) @ s q[0];
`
	stmts := mustParse(t, src)
	require.Len(t, stmts, 7)

	def := stmts[1].(*ast.GateDefinition)
	assert.Equal(t, "rot", def.Name)
	assert.Equal(t, []string{"theta", "phi"}, def.Params)
	assert.Equal(t, []string{"a", "b"}, def.Qubits)
	assert.Len(t, def.Body.Statements, 3)

	assertStatements(t, []ast.Statement{
		&ast.QuantumGateCall{
			Modifiers: []*ast.QuantumGateModifier{{Kind: ast.Ctrl}},
			Name:      "rot",
			Params:    []ast.Expression{&ast.MathConstant{Name: "pi"}, intLit(0)},
			Qubits:    []ast.Expression{index("q", intLit(2)), index("q", intLit(0)), index("q", intLit(1))},
		},
		&ast.QuantumGateCall{
			Modifiers: []*ast.QuantumGateModifier{{Kind: ast.NegCtrl, Argument: intLit(2)}, {Kind: ast.Inv}},
			Name:      "x",
			Qubits:    []ast.Expression{index("q", intLit(0)), index("q", intLit(1)), index("q", intLit(2))},
		},
		&ast.QuantumGateCall{
			Modifiers: []*ast.QuantumGateModifier{{Kind: ast.Pow, Argument: intLit(2)}},
			Name:      "s",
			Qubits:    []ast.Expression{index("q", intLit(0))},
		},
	}, stmts[4:])
}

func TestGateIsUsableOnlyAfterDefinition(t *testing.T) {
	_, err := parseSource(t, "qubit q;\nctrl @ mine q;\ngate mine a {\n  U(0, 0, 0) a;\n}\n")
	assertKind(t, err, qasmerr.BadGate)

	stmts := mustParse(t, "qubit q;\nopaque mine a;\nmine q;\n")
	assertStatements(t, []ast.Statement{
		&ast.QubitDeclaration{Name: "q"},
		&ast.QuantumGateCall{Name: "mine", Qubits: []ast.Expression{id("q")}},
	}, stmts)
}

func TestUnknownGateSuggestion(t *testing.T) {
	_, err := parseSource(t, "include \"stdgates.inc\";\nqubit[2] q;\nctrl @ swapp q[0], q[1];\n")
	qe := assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, "swap", qe.Suggestion)
	assert.Contains(t, qe.Error(), `did you mean "swap"?`)
	assert.Equal(t, 11, qe.Index)
}

func TestSubroutines(t *testing.T) {
	src := `def add(int[8] a, readonly array[int[8], 2] xs, qubit[2] q) -> int[8] {
    return a + xs[0, 1];
}
extern shift(int[8], float[64] amount) -> int[8];
int[8] y = add(1, ys, r);
shift(y, 2.0);
`
	stmts := mustParse(t, src)
	require.Len(t, stmts, 4)

	def := stmts[0].(*ast.SubroutineDefinition)
	if diff := cmp.Diff([]*ast.SubroutineParam{
		{Type: &ast.IntType{Size: intLit(8)}, Name: "a"},
		{Access: "readonly", Type: &ast.ArrayType{Element: &ast.IntType{Size: intLit(8)}, Dimensions: []ast.Expression{intLit(2)}}, Name: "xs"},
		{Qubit: true, Size: intLit(2), Name: "q"},
	}, def.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "int[8]", def.Return.String())
	assertStatements(t, []ast.Statement{
		&ast.ReturnStatement{Value: &ast.Arithmetic{Op: "+", Left: id("a"), Right: index("xs", intLit(0), intLit(1))}},
	}, def.Body.Statements)

	assertStatements(t, []ast.Statement{
		&ast.ExternSignature{
			Name:   "shift",
			Params: []ast.ClassicalType{&ast.IntType{Size: intLit(8)}, &ast.FloatType{Size: intLit(64)}},
			Return: &ast.IntType{Size: intLit(8)},
		},
		&ast.ClassicalDeclaration{
			Type:  &ast.IntType{Size: intLit(8)},
			Name:  "y",
			Value: &ast.SubroutineCall{Name: "add", Args: []ast.Expression{intLit(1), id("ys"), id("r")}},
		},
		&ast.ExpressionStatement{Expression: &ast.SubroutineCall{Name: "shift", Args: []ast.Expression{id("y"), &ast.FloatLiteral{Value: 2}}}},
	}, stmts[1:])

	stmts = mustParse(t, "def flip(qubit q) -> bit {\n  return measure q;\n}\nqubit r;\nbit c = flip(r);\n")
	require.Len(t, stmts, 3)
	flip := stmts[0].(*ast.SubroutineDefinition)
	assert.Equal(t, &ast.BitType{}, flip.Return)
	assertStatements(t, []ast.Statement{
		&ast.ReturnStatement{Measure: &ast.QuantumMeasurement{Qubit: id("q")}},
	}, flip.Body.Statements)
	assert.Equal(t, "return measure q;", flip.Body.Statements[0].String())

	_, err := parseSource(t, "def g(qubit q) -> bit {\n  return measure;\n}\n")
	assertKind(t, err, qasmerr.BadMeasurement)
}

func TestAliasesOfArrays(t *testing.T) {
	stmts := mustParse(t, "array[int[8], 2, 2] a;\nlet b = a;\nlet c = b;\nb[0, 1] = 1;\nc[1, 0] = 2;\n")
	require.Len(t, stmts, 5)
	assertStatements(t, []ast.Statement{
		&ast.ClassicalAssignment{Target: index("b", intLit(0), intLit(1)), Op: "=", Value: intLit(1)},
		&ast.ClassicalAssignment{Target: index("c", intLit(1), intLit(0)), Op: "=", Value: intLit(2)},
	}, stmts[3:])

	// An alias of a register is not an array.
	_, err := parseSource(t, "qubit[4] q;\nlet r = q;\nreset r[0, 1];\n")
	assertKind(t, err, qasmerr.BadExpression)

	_, err = parseSource(t, "let s = s;\ns[0, 1] = 1;\n")
	assertKind(t, err, qasmerr.BadExpression)
}

func TestRecursiveSubroutine(t *testing.T) {
	src := "def fact(int n) -> int {\n  if (n == 0) return 1;\n  return n * fact(n - 1);\n}\n"
	stmts := mustParse(t, src)
	require.Len(t, stmts, 1)
	body := stmts[0].(*ast.SubroutineDefinition).Body
	require.Len(t, body.Statements, 2)
	assert.Equal(t, "return n * fact(n - 1);", body.Statements[1].String())
}

func TestUnknownSubroutine(t *testing.T) {
	_, err := parseSource(t, "def run() {\n  return;\n}\nrnu();\n")
	qe := assertKind(t, err, qasmerr.BadSubroutine)
	assert.Equal(t, "run", qe.Suggestion)
}

func TestControlFlow(t *testing.T) {
	src := `include "stdgates.inc";
qubit q;
bit c;
if (c == 1) {
    x q;
} else if (c == 0) {
    z q;
} else {
    h q;
}
for uint i in {1, 3, 5} {
    if (i > 2) break;
    continue;
}
while (c != 0) c = measure q;
box[100ns] {
    delay[20ns] q;
}
barrier;
`
	stmts := mustParse(t, src)
	require.Len(t, stmts, 8)

	assertStatements(t, []ast.Statement{
		&ast.BranchingStatement{
			Condition: &ast.Binary{Op: "==", Left: id("c"), Right: intLit(1)},
			Then:      &ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumGateCall{Name: "x", Qubits: []ast.Expression{id("q")}}}},
			Else: &ast.ProgramBlock{Statements: []ast.Statement{
				&ast.BranchingStatement{
					Condition: &ast.Binary{Op: "==", Left: id("c"), Right: intLit(0)},
					Then:      &ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumGateCall{Name: "z", Qubits: []ast.Expression{id("q")}}}},
					Else:      &ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumGateCall{Name: "h", Qubits: []ast.Expression{id("q")}}}},
				},
			}},
		},
		&ast.ForLoopStatement{
			Type:     &ast.UIntType{},
			Variable: "i",
			Iterable: &ast.IndexSet{Values: []ast.Expression{intLit(1), intLit(3), intLit(5)}},
			Body: &ast.ProgramBlock{Statements: []ast.Statement{
				&ast.BranchingStatement{
					Condition: &ast.Binary{Op: ">", Left: id("i"), Right: intLit(2)},
					Then:      &ast.ProgramBlock{Statements: []ast.Statement{&ast.BreakStatement{}}},
				},
				&ast.ContinueStatement{},
			}},
		},
		&ast.WhileLoopStatement{
			Condition: &ast.Binary{Op: "!=", Left: id("c"), Right: intLit(0)},
			Body: &ast.ProgramBlock{Statements: []ast.Statement{
				&ast.QuantumMeasurementAssignment{Target: id("c"), Measure: &ast.QuantumMeasurement{Qubit: id("q")}},
			}},
		},
		&ast.BoxStatement{
			Duration: &ast.DurationLiteral{Value: 100, Unit: "ns"},
			Body: &ast.ProgramBlock{Statements: []ast.Statement{
				&ast.QuantumDelay{Duration: &ast.DurationLiteral{Value: 20, Unit: "ns"}, Qubits: []ast.Expression{id("q")}},
			}},
		},
		&ast.QuantumBarrier{},
	}, stmts[3:])
}

func TestForLoopForms(t *testing.T) {
	stmts := mustParse(t, "for i in xs {\n  x = i;\n}\nfor int j in [0:2:10] {\n}\n")
	require.Len(t, stmts, 2)

	first := stmts[0].(*ast.ForLoopStatement)
	assert.Nil(t, first.Type)
	assert.Equal(t, id("xs"), first.Iterable)

	second := stmts[1].(*ast.ForLoopStatement)
	assert.Equal(t, &ast.Range{Start: intLit(0), Step: intLit(2), Stop: intLit(10)}, second.Iterable)
	assert.Empty(t, second.Body.Statements)
	assert.Equal(t, "for int j in [0:2:10] {}", second.String())

	_, err := parseSource(t, "for int j of xs {\n}\n")
	assertKind(t, err, qasmerr.BadLoop)
}

func TestSwitch(t *testing.T) {
	src := `include "stdgates.inc";
qubit q;
int i = 1;
switch (i) {
    case 1, 2 {
        x q;
    }
    case 3 {
    }
    default {
        z q;
    }
}
`
	stmts := mustParse(t, src)
	require.Len(t, stmts, 4)
	assertStatements(t, []ast.Statement{
		&ast.SwitchStatement{
			Control: id("i"),
			Cases: []*ast.CaseStatement{
				{
					Values: []ast.Expression{intLit(1), intLit(2)},
					Body:   &ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumGateCall{Name: "x", Qubits: []ast.Expression{id("q")}}}},
				},
				{Values: []ast.Expression{intLit(3)}, Body: &ast.ProgramBlock{}},
			},
			Default: &ast.DefaultStatement{
				Body: &ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumGateCall{Name: "z", Qubits: []ast.Expression{id("q")}}}},
			},
		},
	}, stmts[3:])

	_, err := parseSource(t, "switch (i) {\n  default {\n  }\n  default {\n  }\n}\n")
	assertKind(t, err, qasmerr.BadConditional)
}

func TestResetAndNestedBlock(t *testing.T) {
	stmts := mustParse(t, "qubit[2] q;\n{\n  reset q[0];\n  ;\n}\n")
	assertStatements(t, []ast.Statement{
		&ast.QubitDeclaration{Name: "q", Size: intLit(2)},
		&ast.ProgramBlock{Statements: []ast.Statement{&ast.QuantumReset{Qubit: index("q", intLit(0))}}},
	}, stmts)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  qasmerr.Kind
		index int
	}{
		{"include needs a string", "include stdgates;\n", qasmerr.BadStringLiteral, 1},
		{"unclosed block", "if (true) { x = 1;\n", qasmerr.MissingBrace, 4},
		{"stray closing brace", "}\n", qasmerr.MissingBrace, 0},
		{"if without parenthesis", "if true {\n}\n", qasmerr.BadConditional, 1},
		{"while without parenthesis", "while true {\n}\n", qasmerr.BadLoop, 1},
		{"measure without operand", "measure;\n", qasmerr.BadMeasurement, 1},
		{"qubit without name", "qubit[2];\n", qasmerr.BadQuantumInstruction, 4},
		{"gate without qubits", "gate g {\n}\n", qasmerr.BadGate, 2},
		{"def without parameters", "def f {\n}\n", qasmerr.BadSubroutine, 2},
		{"reset extra operand", "reset q r;\n", qasmerr.BadQuantumInstruction, 2},
		{"barrier bad operand", "barrier q, 1;\n", qasmerr.BadBarrier, 3},
		{"unexpected token", "else;\n", qasmerr.BadExpression, 0},
		{"modifier without at", "include \"stdgates.inc\";\nqubit q;\npow(2) @ inv x q;\n", qasmerr.BadGate, 12},
		{"nested error index", "qubit q;\nif (true) {\n  foo q;\n}\n", qasmerr.BadExpression, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.src)
			qe := assertKind(t, err, tt.kind)
			assert.Equal(t, tt.index, qe.Index, qe.Error())
		})
	}
}

func TestMissingSemicolonInParser(t *testing.T) {
	tokens, err := lexer.NewLexer("qubit q", lexer.WithSkipTerminatorCheck()).Lex()
	require.NoError(t, err)
	_, err = NewParser(tokens).Parse()
	qe := assertKind(t, err, qasmerr.MissingSemicolon)
	assert.Equal(t, 2, qe.Index)
	assert.True(t, errors.Is(err, qasmerr.ErrMissingSemicolon))

	_, err = parseSource(t, "{ x = 1 }\n")
	assertKind(t, err, qasmerr.MissingSemicolon)
}

func TestDepthLimit(t *testing.T) {
	_, err := parseSource(t, "x = ((((1))));\n", WithMaxDepth(3))
	assertKind(t, err, qasmerr.NestingTooDeep)

	stmts := mustParse(t, "x = ((((1))));\n")
	assert.Equal(t, "x = ((((1))));", stmts[0].String())

	deep := strings.Repeat("{", DefaultMaxDepth+1) + strings.Repeat("}", DefaultMaxDepth+1) + "\n"
	_, err = parseSource(t, deep)
	assertKind(t, err, qasmerr.NestingTooDeep)

	shallow := strings.Repeat("{", 10) + strings.Repeat("}", 10) + "\n"
	_, err = parseSource(t, shallow)
	assert.NoError(t, err)

	// Values below one fall back to the default budget.
	_, err = parseSource(t, "x = ((1));\n", WithMaxDepth(0))
	assert.NoError(t, err)
}

func TestTelemetry(t *testing.T) {
	tokens := lex(t, "qubit q;\nbit c;\nif (c) {\n  c = measure q;\n}\n")

	p := NewParser(tokens)
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Nil(t, p.Telemetry())

	p = NewParser(tokens, WithTelemetryTiming())
	_, err = p.Parse()
	require.NoError(t, err)
	tel := p.Telemetry()
	require.NotNil(t, tel)
	assert.Equal(t, len(tokens), tel.TokenCount)
	assert.Equal(t, 3, tel.StatementCount)
	assert.Equal(t, 1, tel.MaxDepth)
	assert.Positive(t, int64(tel.ParseTime))
}

func TestLoggerTracesStatements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := parseSource(t, "qubit q;\n", WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "QubitDeclaration")
}
