package v3

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier is a bare name.
type Identifier struct {
	Name string
}

func (e *Identifier) String() string { return e.Name }

// SubscriptedIdentifier is name[s0][s1]... where each subscript is an
// expression, a *Range or an *IndexSet.
type SubscriptedIdentifier struct {
	Name       string
	Subscripts []Expression
}

func (e *SubscriptedIdentifier) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	for _, s := range e.Subscripts {
		b.WriteString("[" + s.String() + "]")
	}
	return b.String()
}

// Range is start:stop or start:step:stop. Any bound may be nil.
type Range struct {
	Start Expression
	Step  Expression
	Stop  Expression
}

func (e *Range) String() string {
	part := func(x Expression) string {
		if x == nil {
			return ""
		}
		return x.String()
	}
	if e.Step != nil {
		return part(e.Start) + ":" + part(e.Step) + ":" + part(e.Stop)
	}
	return part(e.Start) + ":" + part(e.Stop)
}

// IndexSet is {v0, v1, ...}.
type IndexSet struct {
	Values []Expression
}

func (e *IndexSet) String() string { return "{" + join(e.Values, ", ") + "}" }

// IntegerLiteral holds the value of a decimal, binary, octal or hex literal.
type IntegerLiteral struct {
	Value int64
}

func (e *IntegerLiteral) String() string { return strconv.FormatInt(e.Value, 10) }

// FloatLiteral is a real number literal.
type FloatLiteral struct {
	Value float64
}

func (e *FloatLiteral) String() string { return strconv.FormatFloat(e.Value, 'g', -1, 64) }

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Value bool
}

func (e *BooleanLiteral) String() string { return strconv.FormatBool(e.Value) }

// BitstringLiteral is a quoted string of 0s and 1s.
type BitstringLiteral struct {
	Value string
}

func (e *BitstringLiteral) String() string { return strconv.Quote(e.Value) }

// DurationLiteral is a number with a time unit (ns, us, µs, ms, s, dt).
type DurationLiteral struct {
	Value float64
	Unit  string
}

func (e *DurationLiteral) String() string {
	return strconv.FormatFloat(e.Value, 'g', -1, 64) + e.Unit
}

// ImaginaryLiteral is a number with the im suffix.
type ImaginaryLiteral struct {
	Value float64
}

func (e *ImaginaryLiteral) String() string {
	return strconv.FormatFloat(e.Value, 'g', -1, 64) + "im"
}

// MathConstant is pi, euler or tau.
type MathConstant struct {
	Name string
}

func (e *MathConstant) String() string { return e.Name }

// Unary is a prefix operator: -, ! or ~.
type Unary struct {
	Op      string
	Operand Expression
}

func (e *Unary) String() string { return e.Op + e.Operand.String() }

// Binary is a comparison, logical or bitwise infix operation.
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

func (e *Binary) String() string { return infix(e.Left, e.Op, e.Right) }

// Arithmetic is +, -, *, /, % or ** between two operands.
type Arithmetic struct {
	Op    string
	Left  Expression
	Right Expression
}

func (e *Arithmetic) String() string { return infix(e.Left, e.Op, e.Right) }

// Cast converts Value to Type, as in int[8](x).
type Cast struct {
	Type  ClassicalType
	Value Expression
}

func (e *Cast) String() string { return fmt.Sprintf("%s(%s)", e.Type, e.Value) }

// MathFunction is a built-in call such as sqrt(x) or mod(a, b).
type MathFunction struct {
	Name string
	Args []Expression
}

func (e *MathFunction) String() string { return fmt.Sprintf("%s(%s)", e.Name, join(e.Args, ", ")) }

// TrigFunction is sin, cos, tan or an inverse.
type TrigFunction struct {
	Name string
	Arg  Expression
}

func (e *TrigFunction) String() string { return fmt.Sprintf("%s(%s)", e.Name, e.Arg) }

// SizeOf is sizeof(target) or sizeof(target, dimension).
type SizeOf struct {
	Target    Expression
	Dimension Expression
}

func (e *SizeOf) String() string {
	if e.Dimension == nil {
		return fmt.Sprintf("sizeof(%s)", e.Target)
	}
	return fmt.Sprintf("sizeof(%s, %s)", e.Target, e.Dimension)
}

// DurationOf is durationof({ ... }).
type DurationOf struct {
	Scope *ProgramBlock
}

func (e *DurationOf) String() string { return fmt.Sprintf("durationof(%s)", e.Scope) }

// Parameters is a parenthesized, comma separated list. A parenthesized
// sub-expression is a Parameters with one value.
type Parameters struct {
	Values []Expression
}

func (e *Parameters) String() string { return "(" + join(e.Values, ", ") + ")" }

// SubroutineCall invokes a user-defined subroutine.
type SubroutineCall struct {
	Name string
	Args []Expression
}

func (e *SubroutineCall) String() string { return fmt.Sprintf("%s(%s)", e.Name, join(e.Args, ", ")) }

// Concatenation is left ++ right in an alias.
type Concatenation struct {
	Left  Expression
	Right Expression
}

func (e *Concatenation) String() string { return infix(e.Left, "++", e.Right) }

// infix renders left op right. Nested infix operands are parenthesised so the
// grouping of the left fold survives printing: (a + b) * c.
func infix(left Expression, op string, right Expression) string {
	return operand(left) + " " + op + " " + operand(right)
}

func operand(e Expression) string {
	switch e.(type) {
	case *Binary, *Arithmetic, *Concatenation:
		return "(" + e.String() + ")"
	}
	return e.String()
}

// ArrayInitializer is {v0, v1, ...}; values may themselves be initializers
// for multi-dimensional arrays.
type ArrayInitializer struct {
	Values []Expression
}

func (e *ArrayInitializer) String() string { return "{" + join(e.Values, ", ") + "}" }

// StringLiteral is a quoted string that is not a bit string.
type StringLiteral struct {
	Value string
}

func (e *StringLiteral) String() string { return strconv.Quote(e.Value) }

func (*Identifier) expressionNode()            {}
func (*SubscriptedIdentifier) expressionNode() {}
func (*Range) expressionNode()                 {}
func (*IndexSet) expressionNode()              {}
func (*IntegerLiteral) expressionNode()        {}
func (*FloatLiteral) expressionNode()          {}
func (*BooleanLiteral) expressionNode()        {}
func (*BitstringLiteral) expressionNode()      {}
func (*DurationLiteral) expressionNode()       {}
func (*ImaginaryLiteral) expressionNode()      {}
func (*MathConstant) expressionNode()          {}
func (*Unary) expressionNode()                 {}
func (*Binary) expressionNode()                {}
func (*Arithmetic) expressionNode()            {}
func (*Cast) expressionNode()                  {}
func (*MathFunction) expressionNode()          {}
func (*TrigFunction) expressionNode()          {}
func (*SizeOf) expressionNode()                {}
func (*DurationOf) expressionNode()            {}
func (*Parameters) expressionNode()            {}
func (*SubroutineCall) expressionNode()        {}
func (*Concatenation) expressionNode()         {}
func (*ArrayInitializer) expressionNode()      {}
func (*StringLiteral) expressionNode()         {}
