package v2

import (
	"fmt"

	"github.com/aledsdavies/qasm/runtime/lexer"
)

// TokenType represents lexical tokens of the OpenQASM 2 dialect
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENTIFIER // q, theta, U, CX
	INTEGER    // 0, 42
	REAL       // 3.14, 1e-3
	STRING     // "qelib1.inc"

	// Program structure
	OPENQASM // OPENQASM 2.0 (literal carries the version)
	INCLUDE  // include

	// Declarations
	QREG   // qreg
	CREG   // creg
	GATE   // gate
	OPAQUE // opaque

	// Quantum operations
	MEASURE // measure
	RESET   // reset
	BARRIER // barrier

	// Classical control
	IF // if

	// Expression atoms
	PI            // pi
	MATH_FUNCTION // sin, cos, tan, exp, ln, sqrt

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	LSQUARE   // [
	RSQUARE   // ]
	LBRACE    // {
	RBRACE    // }
	ARROW     // ->
	EQ_EQ     // ==

	// Arithmetic operators
	PLUS     // +
	MINUS    // -
	MULTIPLY // *
	DIVIDE   // /
	POWER    // ^
)

// Position represents a position in the source code
type Position = lexer.Position

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Literal  string
	Position Position
}

// String returns a debugging representation of the token
func (t Token) String() string {
	if t.Literal != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type.String()
}

// Symbol returns the token's literal, or its fixed spelling.
func (t Token) Symbol() string {
	if t.Literal != "" {
		return t.Literal
	}
	return symbols[t.Type]
}

var tokenNames = [...]string{
	EOF:           "EOF",
	ILLEGAL:       "ILLEGAL",
	IDENTIFIER:    "IDENTIFIER",
	INTEGER:       "INTEGER",
	REAL:          "REAL",
	STRING:        "STRING",
	OPENQASM:      "OPENQASM",
	INCLUDE:       "INCLUDE",
	QREG:          "QREG",
	CREG:          "CREG",
	GATE:          "GATE",
	OPAQUE:        "OPAQUE",
	MEASURE:       "MEASURE",
	RESET:         "RESET",
	BARRIER:       "BARRIER",
	IF:            "IF",
	PI:            "PI",
	MATH_FUNCTION: "MATH_FUNCTION",
	SEMICOLON:     "SEMICOLON",
	COMMA:         "COMMA",
	LPAREN:        "LPAREN",
	RPAREN:        "RPAREN",
	LSQUARE:       "LSQUARE",
	RSQUARE:       "RSQUARE",
	LBRACE:        "LBRACE",
	RBRACE:        "RBRACE",
	ARROW:         "ARROW",
	EQ_EQ:         "EQ_EQ",
	PLUS:          "PLUS",
	MINUS:         "MINUS",
	MULTIPLY:      "MULTIPLY",
	DIVIDE:        "DIVIDE",
	POWER:         "POWER",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// LookupTokenType returns the type whose String form is name.
func LookupTokenType(name string) (TokenType, bool) {
	for i, n := range tokenNames {
		if n == name && n != "" {
			return TokenType(i), true
		}
	}
	return 0, false
}

var symbols = map[TokenType]string{
	INCLUDE: "include", QREG: "qreg", CREG: "creg", GATE: "gate", OPAQUE: "opaque",
	MEASURE: "measure", RESET: "reset", BARRIER: "barrier", IF: "if", PI: "pi",
	SEMICOLON: ";", COMMA: ",", LPAREN: "(", RPAREN: ")", LSQUARE: "[", RSQUARE: "]",
	LBRACE: "{", RBRACE: "}", ARROW: "->", EQ_EQ: "==",
	PLUS: "+", MINUS: "-", MULTIPLY: "*", DIVIDE: "/", POWER: "^",
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"include": INCLUDE,
	"qreg":    QREG,
	"creg":    CREG,
	"gate":    GATE,
	"opaque":  OPAQUE,
	"measure": MEASURE,
	"reset":   RESET,
	"barrier": BARRIER,
	"if":      IF,
	"pi":      PI,
	"sin":     MATH_FUNCTION,
	"cos":     MATH_FUNCTION,
	"tan":     MATH_FUNCTION,
	"exp":     MATH_FUNCTION,
	"ln":      MATH_FUNCTION,
	"sqrt":    MATH_FUNCTION,
}
