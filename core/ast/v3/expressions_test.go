package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfixRendering(t *testing.T) {
	a, b, c := &Identifier{Name: "a"}, &Identifier{Name: "b"}, &Identifier{Name: "c"}
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{"flat", &Arithmetic{Op: "+", Left: a, Right: b}, "a + b"},
		{
			"folded left operand",
			&Arithmetic{Op: "*", Left: &Arithmetic{Op: "+", Left: a, Right: b}, Right: c},
			"(a + b) * c",
		},
		{
			"nested right operand",
			&Arithmetic{Op: "-", Left: a, Right: &Arithmetic{Op: "-", Left: b, Right: c}},
			"a - (b - c)",
		},
		{
			"comparison inside logic",
			&Binary{Op: "&&", Left: &Binary{Op: "<", Left: a, Right: b}, Right: c},
			"(a < b) && c",
		},
		{
			"concatenation of a concatenation",
			&Concatenation{Left: &Concatenation{Left: a, Right: b}, Right: c},
			"(a ++ b) ++ c",
		},
		{
			"source parentheses are kept once",
			&Arithmetic{Op: "+", Left: a, Right: &Parameters{Values: []Expression{&Arithmetic{Op: "*", Left: b, Right: c}}}},
			"a + (b * c)",
		},
		{"unary operand", &Arithmetic{Op: "**", Left: &Unary{Op: "-", Operand: a}, Right: &IntegerLiteral{Value: 2}}, "-a ** 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestReturnRendering(t *testing.T) {
	assert.Equal(t, "return;", (&ReturnStatement{}).String())
	assert.Equal(t, "return a;", (&ReturnStatement{Value: &Identifier{Name: "a"}}).String())
	assert.Equal(t, "return measure q;",
		(&ReturnStatement{Measure: &QuantumMeasurement{Qubit: &Identifier{Name: "q"}}}).String())
}
