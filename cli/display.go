package main

import (
	"fmt"
	"io"

	"github.com/aledsdavies/qasm/runtime/dialect"
)

// DisplayTokens prints one token per line with its position
func DisplayTokens(w io.Writer, tokens []dialect.Token, useColor bool) {
	for _, tok := range tokens {
		pos := fmt.Sprintf("%d:%d", tok.Line, tok.Column)
		_, _ = fmt.Fprintf(w, "%s\t%s\n",
			Colorize(pos, ColorGray, useColor),
			Colorize(tok.String(), tokenColor(tok.Type), useColor))
	}
}

// DisplayProgram prints the program's statements as source, one per line
func DisplayProgram(w io.Writer, prog *dialect.Program) {
	if prog.Len() == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, prog.String())
}
