package lexer

import "unicode"

// ASCII character lookup tables for fast classification.
//
// Use inline bounds-checked lookups on hot paths:
//
//	if ch < 128 && isLetter[ch] { ... }
//
// Runes outside ASCII fall back to the unicode package so identifiers such as
// π and τ lex like any other letter.
var (
	isWhitespace [128]bool // Space, tab, carriage return, form feed, newline
	isLetter     [128]bool // a-z, A-Z, _
	isDigit      [128]bool // 0-9
	isIdentStart [128]bool // Letter or _
	isIdentPart  [128]bool // Letter, digit or _
	isHexDigit   [128]bool // 0-9, a-f, A-F
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)

		// Newlines carry no meaning in OpenQASM, statements end with ';'
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\n' || ch == '\v'

		isLetter[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isDigit[i] = '0' <= ch && ch <= '9'

		isIdentStart[i] = isLetter[i]
		isIdentPart[i] = isLetter[i] || isDigit[i]

		isHexDigit[i] = isDigit[i] || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
	}
}

// IsWhitespace reports whether r is skipped between tokens.
func IsWhitespace(r rune) bool {
	if r < 128 {
		return r >= 0 && isWhitespace[r]
	}
	return unicode.IsSpace(r)
}

// IsDigit reports whether r is an ASCII decimal digit.
func IsDigit(r rune) bool {
	return r >= 0 && r < 128 && isDigit[r]
}

// IsIdentStart reports whether r can begin an identifier.
func IsIdentStart(r rune) bool {
	if r < 128 {
		return r >= 0 && isIdentStart[r]
	}
	return unicode.IsLetter(r)
}

// IsIdentPart reports whether r can continue an identifier.
func IsIdentPart(r rune) bool {
	if r < 128 {
		return r >= 0 && isIdentPart[r]
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsRadixDigit reports whether r is a digit in the given radix (2, 8, 10 or 16).
func IsRadixDigit(r rune, radix int) bool {
	switch radix {
	case 2:
		return r == '0' || r == '1'
	case 8:
		return r >= '0' && r <= '7'
	case 16:
		return r >= 0 && r < 128 && isHexDigit[r]
	default:
		return IsDigit(r)
	}
}
