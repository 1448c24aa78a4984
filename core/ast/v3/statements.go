package v3

import (
	"fmt"
	"strings"
)

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

// QubitDeclaration declares a qubit or qubit register (qubit[n] q; or qreg q[n];).
type QubitDeclaration struct {
	Name string
	Size Expression
}

func (s *QubitDeclaration) String() string { return sized("qubit", s.Size) + " " + s.Name + ";" }

// ClassicalDeclaration declares a typed classical variable, optionally const
// and optionally initialized.
type ClassicalDeclaration struct {
	Const bool
	Type  ClassicalType
	Name  string
	Value Expression
}

func (s *ClassicalDeclaration) String() string {
	var b strings.Builder
	if s.Const {
		b.WriteString("const ")
	}
	b.WriteString(s.Type.String() + " " + s.Name)
	if s.Value != nil {
		b.WriteString(" = " + s.Value.String())
	}
	b.WriteString(";")
	return b.String()
}

// ArrayDeclaration declares an array with an optional initializer.
type ArrayDeclaration struct {
	Type  *ArrayType
	Name  string
	Value Expression
}

func (s *ArrayDeclaration) String() string {
	if s.Value == nil {
		return fmt.Sprintf("%s %s;", s.Type, s.Name)
	}
	return fmt.Sprintf("%s %s = %s;", s.Type, s.Name, s.Value)
}

// AliasStatement is let name = value;.
type AliasStatement struct {
	Name  string
	Value Expression
}

func (s *AliasStatement) String() string { return fmt.Sprintf("let %s = %s;", s.Name, s.Value) }

// IODeclaration is input or output of a classical type.
type IODeclaration struct {
	Output bool
	Type   ClassicalType
	Name   string
}

func (s *IODeclaration) String() string {
	dir := "input"
	if s.Output {
		dir = "output"
	}
	return fmt.Sprintf("%s %s %s;", dir, s.Type, s.Name)
}

// GateDefinition is gate name(params) qubits { body }.
type GateDefinition struct {
	Name   string
	Params []string
	Qubits []string
	Body   *ProgramBlock
}

func (s *GateDefinition) String() string {
	head := "gate " + s.Name
	if len(s.Params) > 0 {
		head += "(" + strings.Join(s.Params, ", ") + ")"
	}
	return head + " " + strings.Join(s.Qubits, ", ") + " " + s.Body.String()
}

// SubroutineParam is one parameter of a def. Qubit parameters leave Type nil.
type SubroutineParam struct {
	Access string // "", "readonly" or "mutable"
	Type   ClassicalType
	Qubit  bool
	Size   Expression
	Name   string
}

func (p *SubroutineParam) String() string {
	if p.Qubit {
		return sized("qubit", p.Size) + " " + p.Name
	}
	if p.Access != "" {
		return fmt.Sprintf("%s %s %s", p.Access, p.Type, p.Name)
	}
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

// SubroutineDefinition is def name(params) -> return { body }.
type SubroutineDefinition struct {
	Name   string
	Params []*SubroutineParam
	Return ClassicalType
	Body   *ProgramBlock
}

func (s *SubroutineDefinition) String() string {
	head := fmt.Sprintf("def %s(%s)", s.Name, join(s.Params, ", "))
	if s.Return != nil {
		head += " -> " + s.Return.String()
	}
	return head + " " + s.Body.String()
}

// ExternSignature is extern name(types) -> return;.
type ExternSignature struct {
	Name   string
	Params []ClassicalType
	Return ClassicalType
}

func (s *ExternSignature) String() string {
	head := fmt.Sprintf("extern %s(%s)", s.Name, join(s.Params, ", "))
	if s.Return != nil {
		head += " -> " + s.Return.String()
	}
	return head + ";"
}

// ClassicalAssignment is target op value; where op is = or a compound form.
type ClassicalAssignment struct {
	Target Expression
	Op     string
	Value  Expression
}

func (s *ClassicalAssignment) String() string {
	return fmt.Sprintf("%s %s %s;", s.Target, s.Op, s.Value)
}

// QuantumMeasurement is measure qubit;.
type QuantumMeasurement struct {
	Qubit Expression
}

func (s *QuantumMeasurement) String() string { return fmt.Sprintf("measure %s;", s.Qubit) }

// QuantumMeasurementAssignment stores a measurement result. Type is set when
// the target is declared inline, as in bit c = measure q;.
type QuantumMeasurementAssignment struct {
	Type    ClassicalType
	Target  Expression
	Measure *QuantumMeasurement
}

func (s *QuantumMeasurementAssignment) String() string {
	if s.Type != nil {
		return fmt.Sprintf("%s %s = measure %s;", s.Type, s.Target, s.Measure.Qubit)
	}
	return fmt.Sprintf("%s = measure %s;", s.Target, s.Measure.Qubit)
}

// ModifierKind is a gate modifier keyword.
type ModifierKind int

const (
	Ctrl ModifierKind = iota
	NegCtrl
	Inv
	Pow
)

var modifierNames = [...]string{Ctrl: "ctrl", NegCtrl: "negctrl", Inv: "inv", Pow: "pow"}

func (k ModifierKind) String() string { return modifierNames[k] }

// QuantumGateModifier is one ctrl/negctrl/inv/pow prefix. Argument is the
// optional control count or exponent.
type QuantumGateModifier struct {
	Kind     ModifierKind
	Argument Expression
}

func (m *QuantumGateModifier) String() string {
	if m.Argument == nil {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", m.Kind, m.Argument)
}

// QuantumGateCall applies a gate, possibly modified, to qubits.
type QuantumGateCall struct {
	Modifiers []*QuantumGateModifier
	Name      string
	Params    []Expression
	Qubits    []Expression
}

func (s *QuantumGateCall) String() string {
	var b strings.Builder
	for _, m := range s.Modifiers {
		b.WriteString(m.String() + " @ ")
	}
	b.WriteString(s.Name)
	if len(s.Params) > 0 {
		b.WriteString("(" + join(s.Params, ", ") + ")")
	}
	if len(s.Qubits) > 0 {
		b.WriteString(" " + join(s.Qubits, ", "))
	}
	b.WriteString(";")
	return b.String()
}

// QuantumReset is reset qubit;.
type QuantumReset struct {
	Qubit Expression
}

func (s *QuantumReset) String() string { return fmt.Sprintf("reset %s;", s.Qubit) }

// QuantumDelay is delay[duration] qubits;.
type QuantumDelay struct {
	Duration Expression
	Qubits   []Expression
}

func (s *QuantumDelay) String() string {
	return fmt.Sprintf("delay[%s] %s;", s.Duration, join(s.Qubits, ", "))
}

// QuantumBarrier is barrier qubits;.
type QuantumBarrier struct {
	Qubits []Expression
}

func (s *QuantumBarrier) String() string {
	if len(s.Qubits) == 0 {
		return "barrier;"
	}
	return "barrier " + join(s.Qubits, ", ") + ";"
}

// BranchingStatement is if (cond) then else otherwise. Else is nil without
// an else branch; else-if chains nest a BranchingStatement in Else.
type BranchingStatement struct {
	Condition Expression
	Then      *ProgramBlock
	Else      *ProgramBlock
}

func (s *BranchingStatement) String() string {
	out := fmt.Sprintf("if (%s) %s", s.Condition, s.Then)
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

// ForLoopStatement is for type var in iterable { body }.
type ForLoopStatement struct {
	Type     ClassicalType
	Variable string
	Iterable Expression
	Body     *ProgramBlock
}

func (s *ForLoopStatement) String() string {
	iter := s.Iterable.String()
	if _, ok := s.Iterable.(*Range); ok {
		iter = "[" + iter + "]"
	}
	if s.Type == nil {
		return fmt.Sprintf("for %s in %s %s", s.Variable, iter, s.Body)
	}
	return fmt.Sprintf("for %s %s in %s %s", s.Type, s.Variable, iter, s.Body)
}

// WhileLoopStatement is while (cond) { body }.
type WhileLoopStatement struct {
	Condition Expression
	Body      *ProgramBlock
}

func (s *WhileLoopStatement) String() string {
	return fmt.Sprintf("while (%s) %s", s.Condition, s.Body)
}

// CaseStatement is case v0, v1 { body }.
type CaseStatement struct {
	Values []Expression
	Body   *ProgramBlock
}

func (s *CaseStatement) String() string {
	return fmt.Sprintf("case %s %s", join(s.Values, ", "), s.Body)
}

// DefaultStatement is default { body }.
type DefaultStatement struct {
	Body *ProgramBlock
}

func (s *DefaultStatement) String() string { return "default " + s.Body.String() }

// SwitchStatement is switch (control) { cases default }.
type SwitchStatement struct {
	Control Expression
	Cases   []*CaseStatement
	Default *DefaultStatement
}

func (s *SwitchStatement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "switch (%s) {", s.Control)
	for _, c := range s.Cases {
		b.WriteString("\n" + indent(c.String()))
	}
	if s.Default != nil {
		b.WriteString("\n" + indent(s.Default.String()))
	}
	b.WriteString("\n}")
	return b.String()
}

// BreakStatement is break;.
type BreakStatement struct{}

func (s *BreakStatement) String() string { return "break;" }

// ContinueStatement is continue;.
type ContinueStatement struct{}

func (s *ContinueStatement) String() string { return "continue;" }

// ReturnStatement is return;, return value; or return measure qubit;. At
// most one of Value and Measure is set.
type ReturnStatement struct {
	Value   Expression
	Measure *QuantumMeasurement
}

func (s *ReturnStatement) String() string {
	switch {
	case s.Measure != nil:
		return "return " + s.Measure.String()
	case s.Value == nil:
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

// BoxStatement is box[duration] { body }. Duration is optional.
type BoxStatement struct {
	Duration Expression
	Body     *ProgramBlock
}

func (s *BoxStatement) String() string {
	if s.Duration == nil {
		return "box " + s.Body.String()
	}
	return fmt.Sprintf("box[%s] %s", s.Duration, s.Body)
}

// ProgramBlock is an ordered list of statements, braced or a single
// unbraced statement.
type ProgramBlock struct {
	Statements []Statement
}

func (s *ProgramBlock) String() string {
	if len(s.Statements) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{")
	for _, st := range s.Statements {
		b.WriteString("\n" + indent(st.String()))
	}
	b.WriteString("\n}")
	return b.String()
}

// ExpressionStatement is an expression evaluated for effect.
type ExpressionStatement struct {
	Expression Expression
}

func (s *ExpressionStatement) String() string { return s.Expression.String() + ";" }

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func (*Version) statementNode()                      {}
func (*Include) statementNode()                      {}
func (*QubitDeclaration) statementNode()             {}
func (*ClassicalDeclaration) statementNode()         {}
func (*ArrayDeclaration) statementNode()             {}
func (*AliasStatement) statementNode()               {}
func (*IODeclaration) statementNode()                {}
func (*GateDefinition) statementNode()               {}
func (*SubroutineDefinition) statementNode()         {}
func (*ExternSignature) statementNode()              {}
func (*ClassicalAssignment) statementNode()          {}
func (*QuantumMeasurement) statementNode()           {}
func (*QuantumMeasurementAssignment) statementNode() {}
func (*QuantumGateCall) statementNode()              {}
func (*QuantumReset) statementNode()                 {}
func (*QuantumDelay) statementNode()                 {}
func (*QuantumBarrier) statementNode()               {}
func (*BranchingStatement) statementNode()           {}
func (*ForLoopStatement) statementNode()             {}
func (*WhileLoopStatement) statementNode()           {}
func (*SwitchStatement) statementNode()              {}
func (*BreakStatement) statementNode()               {}
func (*ContinueStatement) statementNode()            {}
func (*ReturnStatement) statementNode()              {}
func (*BoxStatement) statementNode()                 {}
func (*ProgramBlock) statementNode()                 {}
func (*ExpressionStatement) statementNode()          {}

func (*QuantumMeasurement) quantumInstructionNode()           {}
func (*QuantumMeasurementAssignment) quantumInstructionNode() {}
func (*QuantumGateCall) quantumInstructionNode()              {}
func (*QuantumReset) quantumInstructionNode()                 {}
func (*QuantumDelay) quantumInstructionNode()                 {}
func (*QuantumBarrier) quantumInstructionNode()               {}
