// Package v3 defines the syntax tree produced by the OpenQASM 3 parser.
//
// Each family (Statement, Expression, ClassicalType) is a sealed interface:
// only types in this package can implement it. Nodes are built once by the
// parser and never mutated; parents own their children and nothing points back
// up the tree.
package v3

import (
	"strings"
)

// Node is implemented by every syntax tree node.
type Node interface {
	String() string
}

// Statement is a top-level or block-level statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a value-producing node.
type Expression interface {
	Node
	expressionNode()
}

// ClassicalType is a classical type annotation such as int[8] or array[float, 4].
type ClassicalType interface {
	Node
	classicalTypeNode()
}

// QuantumInstruction is a statement acting on qubits.
type QuantumInstruction interface {
	Statement
	quantumInstructionNode()
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

func join[T Node](nodes []T, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

// sized renders "name" or "name[size]".
func sized(name string, size Expression) string {
	if size == nil {
		return name
	}
	return name + "[" + size.String() + "]"
}
