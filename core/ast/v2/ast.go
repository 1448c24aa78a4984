// Package v2 defines the syntax tree produced by the OpenQASM 2 parser.
//
// Gate parameters are kept as flat term sequences in source order; OpenQASM 2
// consumers evaluate them, the parser does not.
package v2

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is implemented by every syntax tree node.
type Node interface {
	String() string
}

// Statement is a top-level statement or a gate body statement.
type Statement interface {
	Node
	statementNode()
}

// Program renders statements as source text, one per line.
func Program(stmts []Statement) string {
	var b strings.Builder
	for i, s := range stmts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Term is one element of a flat parameter expression.
type Term interface {
	Node
	termNode()
}

// Expression is a gate parameter as a sequence of terms, e.g. pi / 2 is
// [Pi, Operator(/), Integer(2)].
type Expression struct {
	Terms []Term
}

func (e Expression) String() string {
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Integer is a non-negative integer literal.
type Integer struct {
	Value int64
}

func (t *Integer) String() string { return strconv.FormatInt(t.Value, 10) }

// Real is a real literal.
type Real struct {
	Value float64
}

func (t *Real) String() string { return strconv.FormatFloat(t.Value, 'g', -1, 64) }

// Pi is the constant pi.
type Pi struct{}

func (t *Pi) String() string { return "pi" }

// Variable is a gate parameter name.
type Variable struct {
	Name string
}

func (t *Variable) String() string { return t.Name }

// Operator is + - * / ^ or a parenthesis.
type Operator struct {
	Symbol string
}

func (t *Operator) String() string { return t.Symbol }

// Call is sin, cos, tan, exp, ln or sqrt applied to an expression.
type Call struct {
	Name string
	Arg  Expression
}

func (t *Call) String() string { return fmt.Sprintf("%s(%s)", t.Name, t.Arg) }

func (*Integer) termNode()  {}
func (*Real) termNode()     {}
func (*Pi) termNode()       {}
func (*Variable) termNode() {}
func (*Operator) termNode() {}
func (*Call) termNode()     {}

// Argument is a register or one element of it. Index is -1 for a whole register.
type Argument struct {
	Register string
	Index    int
}

func (a Argument) String() string {
	if a.Index < 0 {
		return a.Register
	}
	return fmt.Sprintf("%s[%d]", a.Register, a.Index)
}

// Version is the OPENQASM header.
type Version struct {
	Number string
}

func (s *Version) String() string { return "OPENQASM " + s.Number + ";" }

// Include is include "file";.
type Include struct {
	Filename string
}

func (s *Include) String() string { return fmt.Sprintf("include %q;", s.Filename) }

// QReg is qreg name[size];.
type QReg struct {
	Name string
	Size int
}

func (s *QReg) String() string { return fmt.Sprintf("qreg %s[%d];", s.Name, s.Size) }

// CReg is creg name[size];.
type CReg struct {
	Name string
	Size int
}

func (s *CReg) String() string { return fmt.Sprintf("creg %s[%d];", s.Name, s.Size) }

// Gate is a gate definition.
type Gate struct {
	Name   string
	Params []string
	Qubits []string
	Body   []Statement
}

func (s *Gate) String() string {
	var b strings.Builder
	b.WriteString("gate " + s.Name)
	if len(s.Params) > 0 {
		b.WriteString("(" + strings.Join(s.Params, ",") + ")")
	}
	b.WriteString(" " + strings.Join(s.Qubits, ",") + " {")
	for _, st := range s.Body {
		b.WriteString("\n  " + st.String())
	}
	b.WriteString("\n}")
	return b.String()
}

// ApplyGate applies a gate to arguments.
type ApplyGate struct {
	Name   string
	Params []Expression
	Args   []Argument
}

func (s *ApplyGate) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Params) > 0 {
		parts := make([]string, len(s.Params))
		for i, p := range s.Params {
			parts[i] = p.String()
		}
		b.WriteString("(" + strings.Join(parts, ",") + ")")
	}
	b.WriteString(" " + joinArgs(s.Args) + ";")
	return b.String()
}

// Opaque declares a gate without a body.
type Opaque struct {
	Name   string
	Params []string
	Qubits []string
}

func (s *Opaque) String() string {
	head := "opaque " + s.Name
	if len(s.Params) > 0 {
		head += "(" + strings.Join(s.Params, ",") + ")"
	}
	return head + " " + strings.Join(s.Qubits, ",") + ";"
}

// Measure is measure source -> target;.
type Measure struct {
	Source Argument
	Target Argument
}

func (s *Measure) String() string { return fmt.Sprintf("measure %s -> %s;", s.Source, s.Target) }

// Barrier is barrier args;.
type Barrier struct {
	Args []Argument
}

func (s *Barrier) String() string { return "barrier " + joinArgs(s.Args) + ";" }

// Reset is reset arg;.
type Reset struct {
	Arg Argument
}

func (s *Reset) String() string { return fmt.Sprintf("reset %s;", s.Arg) }

// If is if(creg==value) body;.
type If struct {
	Register string
	Value    int
	Body     Statement
}

func (s *If) String() string { return fmt.Sprintf("if(%s==%d) %s", s.Register, s.Value, s.Body) }

func joinArgs(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func (*Version) statementNode()   {}
func (*Include) statementNode()   {}
func (*QReg) statementNode()      {}
func (*CReg) statementNode()      {}
func (*Gate) statementNode()      {}
func (*ApplyGate) statementNode() {}
func (*Opaque) statementNode()    {}
func (*Measure) statementNode()   {}
func (*Barrier) statementNode()   {}
func (*Reset) statementNode()     {}
func (*If) statementNode()        {}
