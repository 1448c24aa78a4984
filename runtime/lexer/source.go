// Package lexer holds the pieces shared by the dialect lexers in v2 and v3:
// character classes, source positions and the line-level terminator check that
// runs before tokenization.
package lexer

import (
	"log/slog"
	"strings"

	"github.com/aledsdavies/qasm/core/qasmerr"
)

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Err converts the position for error reporting.
func (p Position) Err() qasmerr.Position {
	return qasmerr.Position{Line: p.Line, Column: p.Column}
}

// DiscardLogger is the default logger for lexers and parsers.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LineAt returns the 1-based line n of input without its line terminator.
func LineAt(input string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := 1; i < n; i++ {
		idx := strings.IndexByte(input, '\n')
		if idx < 0 {
			return ""
		}
		input = input[idx+1:]
	}
	if idx := strings.IndexByte(input, '\n'); idx >= 0 {
		input = input[:idx]
	}
	return strings.TrimRight(input, "\r")
}

// VerifyTerminators scans source lines once before tokenization and fails with
// MissingSemicolon on the first line that holds code but no ';'.
//
// The check is line oriented and deliberately shallow. A line is exempt when
// it is blank or comment-only, when its code starts or ends with a brace, when
// it contains ';', or when it starts with one of blockKeywords (gate headers,
// control-flow heads and similar lines that open a block). Statements split
// across lines are not understood.
func VerifyTerminators(input string, blockKeywords ...string) error {
	keywords := make(map[string]bool, len(blockKeywords))
	for _, kw := range blockKeywords {
		keywords[kw] = true
	}

	inBlockComment := false
	lines := strings.Split(input, "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		code := stripComments(line, &inBlockComment)
		trimmed := strings.TrimSpace(code)

		if isTerminatedLine(trimmed, keywords) {
			continue
		}

		return qasmerr.New(qasmerr.MissingSemicolon, "statement is missing its terminating ';'").
			WithLine(i+1, line).
			WithToken("", "", -1, qasmerr.Position{
				Line:   i + 1,
				Column: len(strings.TrimRight(code, " \t")) + 1,
			})
	}
	return nil
}

func isTerminatedLine(code string, keywords map[string]bool) bool {
	switch {
	case code == "":
		return true
	case strings.Contains(code, ";"):
		return true
	case strings.HasPrefix(code, "{"), strings.HasSuffix(code, "{"):
		return true
	case strings.HasPrefix(code, "}"), strings.HasSuffix(code, "}"):
		return true
	}
	return keywords[leadingWord(code)]
}

// leadingWord returns the identifier that starts code, if any.
func leadingWord(code string) string {
	end := 0
	for i, r := range code {
		if !IsIdentPart(r) {
			break
		}
		end = i + len(string(r))
	}
	return code[:end]
}

// stripComments removes // and /* */ comments from line. inBlock carries the
// open block-comment state across lines. Comment markers inside string
// literals are left alone.
func stripComments(line string, inBlock *bool) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if *inBlock {
			if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
				*inBlock = false
				i++
			}
			continue
		}
		if inString {
			if ch == '"' {
				inString = false
			}
			b.WriteByte(ch)
			continue
		}
		switch {
		case ch == '"':
			inString = true
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return b.String()
		case ch == '/' && i+1 < len(line) && line[i+1] == '*':
			*inBlock = true
			i++
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
