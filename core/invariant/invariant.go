// Package invariant provides contract assertions for the lexers and parsers.
//
// Assertions guard programming errors, never malformed input: a malformed
// program is reported through qasmerr, while a violated invariant means the
// parser itself is broken. All functions panic on violation.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
//
//	func NewParser(tokens []lexer.Token) *Parser {
//	    invariant.Precondition(len(tokens) > 0, "token stream must end with EOF")
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before return.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks internal consistency during execution.
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// Progress panics unless a sub-parser consumed at least one token and did not
// run past the tokens it was given. Every top-level and block loop calls it so
// a grammar bug shows up as a panic instead of an infinite loop.
//
//	nodes, consumed, err := p.parseNode(tokens[i:])
//	invariant.Progress(consumed, len(tokens)-i, "parseNode")
func Progress(consumed, available int, where string) {
	if consumed <= 0 {
		fail("INVARIANT", "%s must consume at least one token, consumed %d", where, consumed)
	}
	if consumed > available {
		fail("INVARIANT", "%s consumed %d tokens but only %d were available", where, consumed, available)
	}
}

// NotNil panics if value is nil, including typed nils such as (*T)(nil).
func NotNil(value any, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// InRange panics if value is outside [minVal, maxVal].
func InRange(value, minVal, maxVal int, name string) {
	if value < minVal || value > maxVal {
		fail("PRECONDITION", "%s must be in range [%d, %d], got %d", name, minVal, maxVal, value)
	}
}

// fail panics with the violation message and the caller location.
func fail(kind, format string, args ...any) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
