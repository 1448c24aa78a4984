package v3

import (
	"fmt"

	"github.com/aledsdavies/qasm/runtime/lexer"
)

// TokenType represents lexical tokens of the OpenQASM 3 dialect
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals and content
	IDENTIFIER       // q, theta, my_gate
	INTEGER          // 42, 1_000, 0b1010, 0o17, 0xFF
	FLOAT            // 3.14, .5, 1e-3
	IMAGINARY        // 2im, 1.5im
	BITSTRING        // "0101"
	STRING           // "stdgates.inc"
	DURATION_LITERAL // 100ns, 2.5us, 10dt
	BOOLEAN          // true, false

	// Program structure
	OPENQASM // OPENQASM 3.0 (literal carries the version)
	INCLUDE  // include

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	LSQUARE   // [
	RSQUARE   // ]
	LBRACE    // {
	RBRACE    // }
	ARROW     // ->
	AT        // @

	// Arithmetic operators
	EQUALS   // =
	PLUS     // +
	MINUS    // -
	MULTIPLY // *
	DIVIDE   // /
	MODULO   // %
	POWER    // **
	CONCAT   // ++ (register concatenation in aliases)

	// Comparison and logical operators
	EQ_EQ   // ==
	NOT_EQ  // !=
	LT      // <
	LT_EQ   // <=
	GT      // >
	GT_EQ   // >=
	AND_AND // &&
	OR_OR   // ||
	NOT     // !

	// Bitwise operators
	TILDE     // ~
	AMPERSAND // &
	PIPE      // |
	CARET     // ^
	LSHIFT    // <<
	RSHIFT    // >>

	// Compound assignment operators
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	MULTIPLY_ASSIGN // *=
	DIVIDE_ASSIGN   // /=
	MODULO_ASSIGN   // %=
	POWER_ASSIGN    // **=
	AND_ASSIGN      // &=
	OR_ASSIGN       // |=
	XOR_ASSIGN      // ^=
	LSHIFT_ASSIGN   // <<=
	RSHIFT_ASSIGN   // >>=

	// Mathematical constants
	PI    // pi, π
	EULER // euler, ℇ
	TAU   // tau, τ

	// Built-in functions (literal carries the function name)
	MATH_FUNCTION // exp, ln, log, sqrt, ceiling, floor, mod, popcount, pow, rotl, rotr
	TRIG_FUNCTION // sin, cos, tan, arcsin, arccos, arctan

	// Quantum types
	QREG  // qreg
	QUBIT // qubit

	// Classical types
	CREG       // creg
	BIT        // bit
	INT        // int
	UINT       // uint
	FLOAT_TYPE // float
	ANGLE      // angle
	BOOL       // bool
	COMPLEX    // complex
	DURATION   // duration
	STRETCH    // stretch
	ARRAY      // array

	// Declaration keywords
	CONST    // const
	MUTABLE  // mutable
	READONLY // readonly
	LET      // let
	INPUT    // input
	OUTPUT   // output
	GATE     // gate
	DEF      // def
	EXTERN   // extern
	OPAQUE   // opaque
	VOID     // void

	// Quantum instructions
	MEASURE // measure
	RESET   // reset
	BARRIER // barrier
	DELAY   // delay
	BOX     // box

	// Gate modifiers (only emitted when followed by '@' before the next ';')
	CTRL    // ctrl
	NEGCTRL // negctrl
	INV     // inv
	POW     // pow

	// Control flow
	IF       // if
	ELSE     // else
	FOR      // for
	IN       // in
	WHILE    // while
	SWITCH   // switch
	CASE     // case
	DEFAULT  // default
	BREAK    // break
	CONTINUE // continue
	RETURN   // return

	// Compile-time queries
	DURATIONOF // durationof
	SIZEOF     // sizeof
)

// Position represents a position in the source code
type Position = lexer.Position

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Literal  string // Normalized lexeme for identifiers and literals, empty otherwise
	Position Position
}

// String returns a debugging representation of the token
func (t Token) String() string {
	if t.Literal != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type.String()
}

// Symbol returns the token's literal, or its fixed spelling for operators,
// punctuation and keywords.
func (t Token) Symbol() string {
	if t.Literal != "" {
		return t.Literal
	}
	if s, ok := symbols[t.Type]; ok {
		return s
	}
	return ""
}

var tokenNames = [...]string{
	EOF:              "EOF",
	ILLEGAL:          "ILLEGAL",
	IDENTIFIER:       "IDENTIFIER",
	INTEGER:          "INTEGER",
	FLOAT:            "FLOAT",
	IMAGINARY:        "IMAGINARY",
	BITSTRING:        "BITSTRING",
	STRING:           "STRING",
	DURATION_LITERAL: "DURATION_LITERAL",
	BOOLEAN:          "BOOLEAN",
	OPENQASM:         "OPENQASM",
	INCLUDE:          "INCLUDE",
	SEMICOLON:        "SEMICOLON",
	COMMA:            "COMMA",
	COLON:            "COLON",
	DOT:              "DOT",
	LPAREN:           "LPAREN",
	RPAREN:           "RPAREN",
	LSQUARE:          "LSQUARE",
	RSQUARE:          "RSQUARE",
	LBRACE:           "LBRACE",
	RBRACE:           "RBRACE",
	ARROW:            "ARROW",
	AT:               "AT",
	EQUALS:           "EQUALS",
	PLUS:             "PLUS",
	MINUS:            "MINUS",
	MULTIPLY:         "MULTIPLY",
	DIVIDE:           "DIVIDE",
	MODULO:           "MODULO",
	POWER:            "POWER",
	CONCAT:           "CONCAT",
	EQ_EQ:            "EQ_EQ",
	NOT_EQ:           "NOT_EQ",
	LT:               "LT",
	LT_EQ:            "LT_EQ",
	GT:               "GT",
	GT_EQ:            "GT_EQ",
	AND_AND:          "AND_AND",
	OR_OR:            "OR_OR",
	NOT:              "NOT",
	TILDE:            "TILDE",
	AMPERSAND:        "AMPERSAND",
	PIPE:             "PIPE",
	CARET:            "CARET",
	LSHIFT:           "LSHIFT",
	RSHIFT:           "RSHIFT",
	PLUS_ASSIGN:      "PLUS_ASSIGN",
	MINUS_ASSIGN:     "MINUS_ASSIGN",
	MULTIPLY_ASSIGN:  "MULTIPLY_ASSIGN",
	DIVIDE_ASSIGN:    "DIVIDE_ASSIGN",
	MODULO_ASSIGN:    "MODULO_ASSIGN",
	POWER_ASSIGN:     "POWER_ASSIGN",
	AND_ASSIGN:       "AND_ASSIGN",
	OR_ASSIGN:        "OR_ASSIGN",
	XOR_ASSIGN:       "XOR_ASSIGN",
	LSHIFT_ASSIGN:    "LSHIFT_ASSIGN",
	RSHIFT_ASSIGN:    "RSHIFT_ASSIGN",
	PI:               "PI",
	EULER:            "EULER",
	TAU:              "TAU",
	MATH_FUNCTION:    "MATH_FUNCTION",
	TRIG_FUNCTION:    "TRIG_FUNCTION",
	QREG:             "QREG",
	QUBIT:            "QUBIT",
	CREG:             "CREG",
	BIT:              "BIT",
	INT:              "INT",
	UINT:             "UINT",
	FLOAT_TYPE:       "FLOAT_TYPE",
	ANGLE:            "ANGLE",
	BOOL:             "BOOL",
	COMPLEX:          "COMPLEX",
	DURATION:         "DURATION",
	STRETCH:          "STRETCH",
	ARRAY:            "ARRAY",
	CONST:            "CONST",
	MUTABLE:          "MUTABLE",
	READONLY:         "READONLY",
	LET:              "LET",
	INPUT:            "INPUT",
	OUTPUT:           "OUTPUT",
	GATE:             "GATE",
	DEF:              "DEF",
	EXTERN:           "EXTERN",
	OPAQUE:           "OPAQUE",
	VOID:             "VOID",
	MEASURE:          "MEASURE",
	RESET:            "RESET",
	BARRIER:          "BARRIER",
	DELAY:            "DELAY",
	BOX:              "BOX",
	CTRL:             "CTRL",
	NEGCTRL:          "NEGCTRL",
	INV:              "INV",
	POW:              "POW",
	IF:               "IF",
	ELSE:             "ELSE",
	FOR:              "FOR",
	IN:               "IN",
	WHILE:            "WHILE",
	SWITCH:           "SWITCH",
	CASE:             "CASE",
	DEFAULT:          "DEFAULT",
	BREAK:            "BREAK",
	CONTINUE:         "CONTINUE",
	RETURN:           "RETURN",
	DURATIONOF:       "DURATIONOF",
	SIZEOF:           "SIZEOF",
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
	SEMICOLON: ";", COMMA: ",", COLON: ":", DOT: ".",
	LPAREN: "(", RPAREN: ")", LSQUARE: "[", RSQUARE: "]", LBRACE: "{", RBRACE: "}",
	ARROW: "->", AT: "@",
	EQUALS: "=", PLUS: "+", MINUS: "-", MULTIPLY: "*", DIVIDE: "/", MODULO: "%", POWER: "**", CONCAT: "++",
	EQ_EQ: "==", NOT_EQ: "!=", LT: "<", LT_EQ: "<=", GT: ">", GT_EQ: ">=",
	AND_AND: "&&", OR_OR: "||", NOT: "!",
	TILDE: "~", AMPERSAND: "&", PIPE: "|", CARET: "^", LSHIFT: "<<", RSHIFT: ">>",
	PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", MULTIPLY_ASSIGN: "*=", DIVIDE_ASSIGN: "/=",
	MODULO_ASSIGN: "%=", POWER_ASSIGN: "**=", AND_ASSIGN: "&=", OR_ASSIGN: "|=",
	XOR_ASSIGN: "^=", LSHIFT_ASSIGN: "<<=", RSHIFT_ASSIGN: ">>=",
	PI: "pi", EULER: "euler", TAU: "tau",
	QREG: "qreg", QUBIT: "qubit", CREG: "creg", BIT: "bit", INT: "int", UINT: "uint",
	FLOAT_TYPE: "float", ANGLE: "angle", BOOL: "bool", COMPLEX: "complex",
	DURATION: "duration", STRETCH: "stretch", ARRAY: "array",
	CONST: "const", MUTABLE: "mutable", READONLY: "readonly", LET: "let",
	INPUT: "input", OUTPUT: "output", GATE: "gate", DEF: "def", EXTERN: "extern",
	OPAQUE: "opaque", VOID: "void", INCLUDE: "include",
	MEASURE: "measure", RESET: "reset", BARRIER: "barrier", DELAY: "delay", BOX: "box",
	CTRL: "ctrl", NEGCTRL: "negctrl", INV: "inv", POW: "pow",
	IF: "if", ELSE: "else", FOR: "for", IN: "in", WHILE: "while", SWITCH: "switch",
	CASE: "case", DEFAULT: "default", BREAK: "break", CONTINUE: "continue", RETURN: "return",
	DURATIONOF: "durationof", SIZEOF: "sizeof",
}

// Keywords maps reserved words to their token types. Words not listed here
// lex as IDENTIFIER.
var Keywords = map[string]TokenType{
	"include":    INCLUDE,
	"qreg":       QREG,
	"qubit":      QUBIT,
	"creg":       CREG,
	"bit":        BIT,
	"int":        INT,
	"uint":       UINT,
	"float":      FLOAT_TYPE,
	"angle":      ANGLE,
	"bool":       BOOL,
	"complex":    COMPLEX,
	"duration":   DURATION,
	"stretch":    STRETCH,
	"array":      ARRAY,
	"const":      CONST,
	"mutable":    MUTABLE,
	"readonly":   READONLY,
	"let":        LET,
	"input":      INPUT,
	"output":     OUTPUT,
	"gate":       GATE,
	"def":        DEF,
	"extern":     EXTERN,
	"opaque":     OPAQUE,
	"void":       VOID,
	"measure":    MEASURE,
	"reset":      RESET,
	"barrier":    BARRIER,
	"delay":      DELAY,
	"box":        BOX,
	"if":         IF,
	"else":       ELSE,
	"for":        FOR,
	"in":         IN,
	"while":      WHILE,
	"switch":     SWITCH,
	"case":       CASE,
	"default":    DEFAULT,
	"break":      BREAK,
	"continue":   CONTINUE,
	"return":     RETURN,
	"durationof": DURATIONOF,
	"sizeof":     SIZEOF,
	"true":       BOOLEAN,
	"false":      BOOLEAN,
	"pi":         PI,
	"π":          PI,
	"euler":      EULER,
	"ℇ":          EULER,
	"tau":        TAU,
	"τ":          TAU,
	"exp":        MATH_FUNCTION,
	"ln":         MATH_FUNCTION,
	"log":        MATH_FUNCTION,
	"sqrt":       MATH_FUNCTION,
	"ceiling":    MATH_FUNCTION,
	"floor":      MATH_FUNCTION,
	"mod":        MATH_FUNCTION,
	"popcount":   MATH_FUNCTION,
	"rotl":       MATH_FUNCTION,
	"rotr":       MATH_FUNCTION,
	"sin":        TRIG_FUNCTION,
	"cos":        TRIG_FUNCTION,
	"tan":        TRIG_FUNCTION,
	"arcsin":     TRIG_FUNCTION,
	"arccos":     TRIG_FUNCTION,
	"arctan":     TRIG_FUNCTION,
}

// modifiers are keywords that only act as gate modifiers when an '@' follows
// before the end of the statement.
var modifiers = map[string]TokenType{
	"ctrl":    CTRL,
	"negctrl": NEGCTRL,
	"inv":     INV,
	"pow":     POW,
}

// literalKeywords keep their spelling as the token literal.
var literalKeywords = map[TokenType]bool{
	BOOLEAN:       true,
	MATH_FUNCTION: true,
	TRIG_FUNCTION: true,
}
