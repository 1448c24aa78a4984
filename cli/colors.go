package main

import (
	"io"
	"os"

	"github.com/xyproto/env/v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// literalTokens are printed in ColorCyan by lex. Names cover both dialects.
var literalTokens = map[string]bool{
	"INTEGER":          true,
	"REAL":             true,
	"FLOAT":            true,
	"IMAGINARY":        true,
	"BOOLEAN":          true,
	"BITSTRING":        true,
	"STRING":           true,
	"DURATION_LITERAL": true,
}

// Colorize wraps text in color when enabled. An empty color leaves text as is.
func Colorize(text, color string, useColor bool) string {
	if !useColor || color == "" {
		return text
	}
	return color + text + ColorReset
}

// tokenColor picks the color lex uses for a token type name.
func tokenColor(tokenType string) string {
	switch {
	case tokenType == "OPENQASM":
		return ColorYellow
	case tokenType == "ILLEGAL":
		return ColorRed
	case literalTokens[tokenType]:
		return ColorCyan
	}
	return ""
}

// ShouldUseColor reports whether output to w gets ANSI colors: never with
// --no-color or NO_COLOR set, and only when w is a terminal.
func ShouldUseColor(noColorFlag bool, w io.Writer) bool {
	if noColorFlag || env.Has("NO_COLOR") {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
