package v2

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/testing/golden"
)

type tok struct {
	Type    TokenType
	Literal string
}

func assertPairs(t *testing.T, input string, want []tok, opts ...LexerOpt) {
	t.Helper()
	tokens, err := NewLexer(input, opts...).Lex()
	require.NoError(t, err)

	var got []tok
	for _, token := range tokens {
		got = append(got, tok{token.Type, token.Literal})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token mismatch for %q (-want +got):\n%s", input, diff)
	}
}

func TestHeaderAndInclude(t *testing.T) {
	assertPairs(t, "OPENQASM 2.0;\ninclude \"qelib1.inc\";", []tok{
		{OPENQASM, "2.0"}, {SEMICOLON, ""},
		{INCLUDE, ""}, {STRING, "qelib1.inc"}, {SEMICOLON, ""},
		{EOF, ""},
	})
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []tok
	}{
		{
			name:  "registers",
			input: "qreg q[2]; creg c[2];",
			want: []tok{
				{QREG, ""}, {IDENTIFIER, "q"}, {LSQUARE, ""}, {INTEGER, "2"}, {RSQUARE, ""}, {SEMICOLON, ""},
				{CREG, ""}, {IDENTIFIER, "c"}, {LSQUARE, ""}, {INTEGER, "2"}, {RSQUARE, ""}, {SEMICOLON, ""},
				{EOF, ""},
			},
		},
		{
			name:  "measure",
			input: "measure q[0] -> c[0];",
			want: []tok{
				{MEASURE, ""}, {IDENTIFIER, "q"}, {LSQUARE, ""}, {INTEGER, "0"}, {RSQUARE, ""},
				{ARROW, ""}, {IDENTIFIER, "c"}, {LSQUARE, ""}, {INTEGER, "0"}, {RSQUARE, ""},
				{SEMICOLON, ""}, {EOF, ""},
			},
		},
		{
			name:  "conditional",
			input: "if(c==1) x q[0];",
			want: []tok{
				{IF, ""}, {LPAREN, ""}, {IDENTIFIER, "c"}, {EQ_EQ, ""}, {INTEGER, "1"}, {RPAREN, ""},
				{IDENTIFIER, "x"}, {IDENTIFIER, "q"}, {LSQUARE, ""}, {INTEGER, "0"}, {RSQUARE, ""},
				{SEMICOLON, ""}, {EOF, ""},
			},
		},
		{
			name:  "parameterised gate",
			input: "U(pi/2, -0.5, sin(1e-3)^2) q[0];",
			want: []tok{
				{IDENTIFIER, "U"}, {LPAREN, ""}, {PI, ""}, {DIVIDE, ""}, {INTEGER, "2"}, {COMMA, ""},
				{MINUS, ""}, {REAL, "0.5"}, {COMMA, ""},
				{MATH_FUNCTION, "sin"}, {LPAREN, ""}, {REAL, "1e-3"}, {RPAREN, ""}, {POWER, ""}, {INTEGER, "2"},
				{RPAREN, ""}, {IDENTIFIER, "q"}, {LSQUARE, ""}, {INTEGER, "0"}, {RSQUARE, ""},
				{SEMICOLON, ""}, {EOF, ""},
			},
		},
		{
			name:  "gate definition across lines",
			input: "gate majority a,b,c\n{\n  cx c,b;\n}",
			want: []tok{
				{GATE, ""}, {IDENTIFIER, "majority"}, {IDENTIFIER, "a"}, {COMMA, ""}, {IDENTIFIER, "b"},
				{COMMA, ""}, {IDENTIFIER, "c"}, {LBRACE, ""},
				{IDENTIFIER, "cx"}, {IDENTIFIER, "c"}, {COMMA, ""}, {IDENTIFIER, "b"}, {SEMICOLON, ""},
				{RBRACE, ""}, {EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPairs(t, tt.input, tt.want)
		})
	}
}

func TestSingleEqualsIsRejected(t *testing.T) {
	tokens, err := NewLexer("if(c=1) x q[0];").Lex()
	require.Error(t, err)
	assert.Nil(t, tokens)
	assert.True(t, errors.Is(err, qasmerr.ErrBadEquals), "got %v", err)

	var qe *qasmerr.Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 1, qe.LineNumber)
	assert.Equal(t, 5, qe.Position.Column)
}

func TestVersionBoundary(t *testing.T) {
	for _, input := range []string{"OPENQASM 3.0;", "OPENQASM 1;", "OPENQASM x;"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewLexer(input).Lex()
			require.Error(t, err)
			assert.True(t, qasmerr.IsKind(err, qasmerr.UnsupportedVersion), "got %v", err)
		})
	}
}

func TestMissingSemicolon(t *testing.T) {
	_, err := NewLexer("OPENQASM 2.0;\nqreg q[1]\nh q[0];").Lex()
	require.Error(t, err)

	var qe *qasmerr.Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, qasmerr.MissingSemicolon, qe.Kind)
	assert.Equal(t, 2, qe.LineNumber)
	assert.Equal(t, "qreg q[1]", qe.Line)
}

func TestStringQuotes(t *testing.T) {
	assertPairs(t, "include \"qelib1.inc’;", []tok{
		{INCLUDE, ""}, {STRING, "qelib1.inc"}, {SEMICOLON, ""}, {EOF, ""},
	})

	_, err := NewLexer("include \"qelib1.inc;\n").Lex()
	assert.True(t, qasmerr.IsKind(err, qasmerr.BadStringLiteral), "got %v", err)
}

func TestCommentsAndIllegal(t *testing.T) {
	assertPairs(t, "// header\nreset q; /* note */ $", []tok{
		{RESET, ""}, {IDENTIFIER, "q"}, {SEMICOLON, ""}, {ILLEGAL, "$"}, {EOF, ""},
	})
}

func TestTelemetry(t *testing.T) {
	l := NewLexer("qreg q[2]; creg c[2];", WithTelemetryBasic())
	_, err := l.Lex()
	require.NoError(t, err)

	telemetry := l.GetTokenTelemetry()
	require.NotNil(t, telemetry)
	assert.Equal(t, 2, telemetry[IDENTIFIER].Count)
	assert.Equal(t, 2, telemetry[SEMICOLON].Count)
	assert.Equal(t, 1, telemetry[EOF].Count)
	assert.Zero(t, telemetry[IDENTIFIER].TotalTime)

	assert.Nil(t, NewLexer("qreg q[2];").GetTokenTelemetry())
}

func TestGoldenTokens(t *testing.T) {
	fixtures, err := golden.All(MajorVersion)
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, f := range fixtures {
		t.Run(f.Name, func(t *testing.T) {
			tokens, err := NewLexer(f.Source).Lex()
			require.NoError(t, err)

			got := make([]string, len(tokens))
			for i, token := range tokens {
				got[i] = token.String()
			}
			want := make([]string, len(f.Tokens))
			for i, token := range f.Tokens {
				want[i] = token.String()
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("token mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookupTokenType(t *testing.T) {
	for _, tt := range []TokenType{EOF, IDENTIFIER, SEMICOLON, OPENQASM} {
		got, ok := LookupTokenType(tt.String())
		require.True(t, ok, tt.String())
		assert.Equal(t, tt, got)
	}
	_, ok := LookupTokenType("NOT_A_TOKEN")
	assert.False(t, ok)
}
