package v2

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ast "github.com/aledsdavies/qasm/core/ast/v2"
	"github.com/aledsdavies/qasm/core/qasmerr"
	lexer "github.com/aledsdavies/qasm/runtime/lexer/v2"
	"github.com/aledsdavies/qasm/testing/golden"
)

// lex skips the line terminator scan so that malformed statements reach the parser.
func lex(t *testing.T, src string) []lexer.Token {
	t.Helper()
	tokens, err := lexer.NewLexer(src, lexer.WithSkipTerminatorCheck()).Lex()
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

func assertKind(t *testing.T, err error, kind qasmerr.Kind) *qasmerr.Error {
	t.Helper()
	require.Error(t, err)
	var qe *qasmerr.Error
	require.True(t, errors.As(err, &qe), "expected *qasmerr.Error, got %T", err)
	assert.Equal(t, kind, qe.Kind, qe.Error())
	return qe
}

func arg(reg string, index int) ast.Argument { return ast.Argument{Register: reg, Index: index} }

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

			// The recorded stream and a fresh lex of the source agree.
			fresh, err := NewParser(lex(t, f.Source)).Parse()
			require.NoError(t, err)
			assert.Equal(t, f.AST, ast.Program(fresh))
		})
	}
}

func TestGoldenTeleportStructure(t *testing.T) {
	f, err := golden.Load(lexer.MajorVersion, "teleport")
	require.NoError(t, err)
	stmts, err := NewParser(fromGolden(t, f.Tokens)).Parse()
	require.NoError(t, err)

	want := []ast.Statement{
		&ast.Version{Number: "2.0"},
		&ast.QReg{Name: "q", Size: 3},
		&ast.CReg{Name: "c0", Size: 1},
		&ast.CReg{Name: "c1", Size: 1},
		&ast.CReg{Name: "c2", Size: 1},
		&ast.Gate{Name: "h", Qubits: []string{"a"}, Body: []ast.Statement{
			&ast.ApplyGate{
				Name: "U",
				Params: []ast.Expression{
					{Terms: []ast.Term{&ast.Pi{}, &ast.Operator{Symbol: "/"}, &ast.Integer{Value: 2}}},
					{Terms: []ast.Term{&ast.Integer{Value: 0}}},
					{Terms: []ast.Term{&ast.Pi{}}},
				},
				Args: []ast.Argument{arg("a", -1)},
			},
		}},
	}
	if diff := cmp.Diff(want, stmts[:len(want)], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("leading statements mismatch (-want +got):\n%s", diff)
	}

	last := []ast.Statement{
		&ast.If{Register: "c1", Value: 1, Body: &ast.ApplyGate{Name: "x", Args: []ast.Argument{arg("q", 2)}}},
		&ast.Measure{Source: arg("q", 2), Target: arg("c2", 0)},
	}
	if diff := cmp.Diff(last, stmts[len(stmts)-2:], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("trailing statements mismatch (-want +got):\n%s", diff)
	}
}

func TestIdempotence(t *testing.T) {
	f, err := golden.Load(lexer.MajorVersion, "teleport")
	require.NoError(t, err)
	tokens := fromGolden(t, f.Tokens)

	first, err := NewParser(tokens).Parse()
	require.NoError(t, err)
	second, err := NewParser(tokens).Parse()
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second parse differs (-first +second):\n%s", diff)
	}
}

func TestParserIsSingleUse(t *testing.T) {
	p := NewParser(lex(t, "qreg q[1];\n"))
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = p.Parse() })
}

func TestMissingEOFIsAdded(t *testing.T) {
	tokens := lex(t, "qreg q[1];\n")
	stmts, err := NewParser(tokens[:len(tokens)-1]).Parse()
	require.NoError(t, err)
	assert.Len(t, stmts, 1)

	stmts, err = NewParser(nil).Parse()
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestVersionBoundary(t *testing.T) {
	tokens := []lexer.Token{
		{Type: lexer.OPENQASM, Literal: "3.0"},
		{Type: lexer.SEMICOLON},
		{Type: lexer.EOF},
	}
	_, err := NewParser(tokens).Parse()
	qe := assertKind(t, err, qasmerr.UnsupportedVersion)
	assert.Equal(t, 0, qe.Index)

	stmts := mustParse(t, "OPENQASM 2.0;\n")
	assert.Equal(t, []ast.Statement{&ast.Version{Number: "2.0"}}, stmts)
}

func TestQelibInclude(t *testing.T) {
	src := "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\nh q[0];\ncx q[0],q[1];\nu3(0,0,pi) q[1];\n"
	stmts := mustParse(t, src)
	require.Len(t, stmts, 6)
	assert.Equal(t, &ast.Include{Filename: "qelib1.inc"}, stmts[1])
	assert.Equal(t, "cx q[0],q[1];", stmts[4].String())

	// Without the include only U and CX exist.
	_, err := parseSource(t, "qreg q[1];\nh q[0];\n")
	qe := assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, 6, qe.Index)

	// Other includes are recorded but declare nothing.
	_, err = parseSource(t, "include \"mine.inc\";\nqreg q[1];\nh q[0];\n")
	assertKind(t, err, qasmerr.BadGate)
}

func TestGateDefinitions(t *testing.T) {
	src := "qreg q[2];\n" +
		"gate rot(theta, phi) a, b {\n  U(theta, phi, 0) a;\n  barrier a, b;\n  CX a, b;\n}\n" +
		"opaque magic(lambda) a;\n" +
		"rot(pi, 0.5) q[0], q[1];\n" +
		"magic(1) q;\n"
	stmts := mustParse(t, src)
	require.Len(t, stmts, 5)

	want := &ast.Gate{
		Name:   "rot",
		Params: []string{"theta", "phi"},
		Qubits: []string{"a", "b"},
		Body: []ast.Statement{
			&ast.ApplyGate{
				Name: "U",
				Params: []ast.Expression{
					{Terms: []ast.Term{&ast.Variable{Name: "theta"}}},
					{Terms: []ast.Term{&ast.Variable{Name: "phi"}}},
					{Terms: []ast.Term{&ast.Integer{Value: 0}}},
				},
				Args: []ast.Argument{arg("a", -1)},
			},
			&ast.Barrier{Args: []ast.Argument{arg("a", -1), arg("b", -1)}},
			&ast.ApplyGate{Name: "CX", Args: []ast.Argument{arg("a", -1), arg("b", -1)}},
		},
	}
	if diff := cmp.Diff(want, stmts[1]); diff != "" {
		t.Errorf("gate mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "gate rot(theta,phi) a,b {\n  U(theta,phi,0) a;\n  barrier a,b;\n  CX a,b;\n}", stmts[1].String())
	assert.Equal(t, &ast.Opaque{Name: "magic", Params: []string{"lambda"}, Qubits: []string{"a"}}, stmts[2])
	assert.Equal(t, "rot(pi,0.5) q[0],q[1];", stmts[3].String())
	assert.Equal(t, "magic(1) q;", stmts[4].String())
}

func TestGateIsUsableOnlyAfterDefinition(t *testing.T) {
	_, err := parseSource(t, "qreg q[1];\ng q[0];\ngate g a { U(0,0,0) a; }\n")
	qe := assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, 6, qe.Index)

	// A gate cannot call itself.
	_, err = parseSource(t, "gate g a { g a; }\n")
	qe = assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, 4, qe.Index)
}

func TestUnknownGateSuggestion(t *testing.T) {
	src := "gate hadamard a { U(pi/2,0,pi) a; }\nqreg q[1];\nhadamrd q[0];\n"
	_, err := parseSource(t, src)
	qe := assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, "hadamard", qe.Suggestion)
	assert.Equal(t, "hadamrd", qe.Token)
	assert.Contains(t, qe.Error(), `did you mean "hadamard"?`)

	_, err = parseSource(t, "qreg q[2];\nhx q[0],q[1];\n")
	qe = assertKind(t, err, qasmerr.BadGate)
	assert.Equal(t, "CX", qe.Suggestion)
}

func TestParameterExpressions(t *testing.T) {
	stmts := mustParse(t, "qreg q[1];\nU(-pi/2, 2*(0.5+1), sin(pi)^2) q[0];\n")
	require.Len(t, stmts, 2)

	want := &ast.ApplyGate{
		Name: "U",
		Params: []ast.Expression{
			{Terms: []ast.Term{
				&ast.Operator{Symbol: "-"}, &ast.Pi{}, &ast.Operator{Symbol: "/"}, &ast.Integer{Value: 2},
			}},
			{Terms: []ast.Term{
				&ast.Integer{Value: 2}, &ast.Operator{Symbol: "*"}, &ast.Operator{Symbol: "("},
				&ast.Real{Value: 0.5}, &ast.Operator{Symbol: "+"}, &ast.Integer{Value: 1},
				&ast.Operator{Symbol: ")"},
			}},
			{Terms: []ast.Term{
				&ast.Call{Name: "sin", Arg: ast.Expression{Terms: []ast.Term{&ast.Pi{}}}},
				&ast.Operator{Symbol: "^"}, &ast.Integer{Value: 2},
			}},
		},
		Args: []ast.Argument{arg("q", 0)},
	}
	if diff := cmp.Diff(want, stmts[1]); diff != "" {
		t.Errorf("expression mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "U(- pi / 2,2 * ( 0.5 + 1 ),sin(pi) ^ 2) q[0];", stmts[1].String())
}

func TestMeasureBarrierResetConditional(t *testing.T) {
	src := "qreg q[2];\ncreg c[2];\nmeasure q -> c;\nbarrier q[0], q[1];\nreset q;\n" +
		"if (c == 3) measure q[1] -> c[1];\nif (c == 0) reset q[0];\n"
	stmts := mustParse(t, src)
	require.Len(t, stmts, 7)

	want := []ast.Statement{
		&ast.Measure{Source: arg("q", -1), Target: arg("c", -1)},
		&ast.Barrier{Args: []ast.Argument{arg("q", 0), arg("q", 1)}},
		&ast.Reset{Arg: arg("q", -1)},
		&ast.If{Register: "c", Value: 3, Body: &ast.Measure{Source: arg("q", 1), Target: arg("c", 1)}},
		&ast.If{Register: "c", Value: 0, Body: &ast.Reset{Arg: arg("q", 0)}},
	}
	if diff := cmp.Diff(want, stmts[2:]); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "if(c==3) measure q[1] -> c[1];", stmts[5].String())
}

func TestEmptyStatementsAreSkipped(t *testing.T) {
	stmts := mustParse(t, ";\nqreg q[1];;\n")
	assert.Equal(t, []ast.Statement{&ast.QReg{Name: "q", Size: 1}}, stmts)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kind  qasmerr.Kind
		index int
	}{
		{"zero sized qreg", "qreg q[0];", qasmerr.BadQreg, 3},
		{"qreg without size", "qreg q;", qasmerr.BadQreg, 2},
		{"creg without name", "creg 5[1];", qasmerr.BadCreg, 1},
		{"measure without arrow", "qreg q[1];\nmeasure q[0] c[0];", qasmerr.BadMeasurement, 11},
		{"empty barrier", "qreg q[1];\nbarrier ;", qasmerr.BadBarrier, 7},
		{"reset of a number", "qreg q[1];\nreset 0;", qasmerr.BadArgument, 7},
		{"if before barrier", "qreg q[1];\nif (c == 1) barrier q;", qasmerr.BadConditional, 12},
		{"if without parenthesis", "if c == 1) U(0,0,0) q;", qasmerr.BadConditional, 1},
		{"unbound parameter", "U(0,0,x) q;", qasmerr.BadParameter, 6},
		{"empty parameter", "U(0,,0) q;", qasmerr.BadParameter, 4},
		{"unclosed parameters", "U(0,0,0 q;", qasmerr.BadParameter, 7},
		{"gate without qubits", "gate g { U(0,0,0) a; }", qasmerr.BadGate, 2},
		{"unknown gate in body", "gate g a { h a; }", qasmerr.BadGate, 4},
		{"indexed qubit in body", "gate g a { U(0,0,0) a[0]; }", qasmerr.BadArgument, 13},
		{"measure in body", "gate g a { measure a -> a; }", qasmerr.BadGate, 4},
		{"opaque without name", "opaque ;", qasmerr.BadGate, 1},
		{"malformed include", "OPENQASM 2.0;\ninclude qelib1;", qasmerr.BadStringLiteral, 3},
		{"unexpected start", "pi;", qasmerr.BadArgument, 0},
		{"stray closing brace", "qreg q[1];\n}", qasmerr.MissingBrace, 6},
		{"unclosed gate body", "gate g a { U(0,0,0) a;", qasmerr.MissingBrace, 14},
		{"missing semicolon", "qreg q[1]", qasmerr.MissingSemicolon, 5},
		{"missing semicolon after measure", "qreg q[1];\nmeasure q[0] -> c[0]", qasmerr.MissingSemicolon, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.src)
			qe := assertKind(t, err, tt.kind)
			assert.Equal(t, tt.index, qe.Index, qe.Error())
		})
	}
}

func TestMissingSemicolonFromLexer(t *testing.T) {
	_, err := lexer.NewLexer("qreg q[1]\n").Lex()
	assertKind(t, err, qasmerr.MissingSemicolon)
}

func TestDepthLimit(t *testing.T) {
	src := "qreg q[1];\nU(sin(sin(sin(0))),0,0) q[0];\n"
	_, err := parseSource(t, src, WithMaxDepth(2))
	qe := assertKind(t, err, qasmerr.NestingTooDeep)
	assert.Equal(t, 12, qe.Index)

	stmts := mustParse(t, src)
	assert.Equal(t, "U(sin(sin(sin(0))),0,0) q[0];", stmts[1].String())

	// Values below one fall back to the default budget.
	_, err = parseSource(t, src, WithMaxDepth(0))
	assert.NoError(t, err)
}

func TestTelemetry(t *testing.T) {
	tokens := lex(t, "qreg q[1];\ngate g a { U(0,0,0) a; }\ng q[0];\n")

	p := NewParser(tokens)
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Nil(t, p.Telemetry())

	p = NewParser(tokens, WithTelemetryBasic())
	_, err = p.Parse()
	require.NoError(t, err)
	tel := p.Telemetry()
	require.NotNil(t, tel)
	assert.Equal(t, len(tokens), tel.TokenCount)
	assert.Equal(t, 3, tel.StatementCount)
	assert.Equal(t, 3, tel.GateCount)
	assert.Zero(t, tel.ParseTime)
}

func TestLoggerTracesStatements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := parseSource(t, "qreg q[1];\n", WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "QReg")
}
