package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/qasm/core/qasmerr"
	"github.com/aledsdavies/qasm/runtime/lexer"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "lex", "parse", "config", "io"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// withSource attaches the offending source line to syntax errors that only
// carry a position.
func withSource(err error, source string) error {
	var qe *qasmerr.Error
	if errors.As(err, &qe) && qe.Line == "" && qe.Position.Line > 0 {
		qe.WithLine(qe.Position.Line, lexer.LineAt(source, qe.Position.Line))
	}
	return err
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var qe *qasmerr.Error
	var ce *CLIError
	switch {
	case errors.As(err, &qe):
		formatCLIError(w, syntaxError(qe), useColor)
	case errors.As(err, &ce):
		formatCLIError(w, ce, useColor)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// syntaxError splits a lexing or parsing failure into headline, location and hint.
func syntaxError(qe *qasmerr.Error) *CLIError {
	ce := &CLIError{Type: "parse", Message: qe.Kind.String()}
	if qe.Message != "" {
		ce.Message += ": " + qe.Message
	}

	var details []string
	if qe.Position.Line > 0 {
		loc := fmt.Sprintf("  at line %d, column %d", qe.Position.Line, qe.Position.Column)
		if qe.Index >= 0 {
			loc += fmt.Sprintf(" (token %d)", qe.Index)
		}
		details = append(details, loc)
	}
	if qe.Line != "" {
		details = append(details, fmt.Sprintf("  %d | %s", qe.LineNumber, qe.Line))
		if col := qe.Position.Column; col > 0 {
			prefix := fmt.Sprintf("  %d | ", qe.LineNumber)
			details = append(details, strings.Repeat(" ", len(prefix)+col-1)+"^")
		}
	}
	ce.Details = strings.Join(details, "\n")

	if qe.Suggestion != "" {
		ce.Hint = fmt.Sprintf("did you mean %q?", qe.Suggestion)
	}
	return ce
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "%s\n", Colorize(err.Details, ColorGray, useColor))
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
