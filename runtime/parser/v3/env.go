package v3

import (
	"sort"

	ast "github.com/aledsdavies/qasm/core/ast/v3"
)

// StdgatesInclude is the include file that makes the standard gates known.
const StdgatesInclude = "stdgates.inc"

var builtinGates = []string{"U", "gphase"}

// standardGates are the gates declared by stdgates.inc.
var standardGates = []string{
	"p", "x", "y", "z", "h", "s", "sdg", "t", "tdg", "sx",
	"rx", "ry", "rz", "cx", "cy", "cz", "cp", "crx", "cry", "crz", "ch",
	"swap", "ccx", "cswap", "cu", "CX", "phase", "cphase", "id", "u1", "u2", "u3",
}

// env is the symbol table threaded through one parse. It only grows, and it
// is discarded with the Parser.
type env struct {
	builtinGates map[string]bool
	stdGates     map[string]bool // empty until include "stdgates.inc"
	userGates    map[string]bool
	subroutines  map[string]bool
	arrays       map[string]bool
	aliases      map[string]ast.Expression
}

func newEnv() *env {
	e := &env{
		builtinGates: make(map[string]bool, len(builtinGates)),
		stdGates:     make(map[string]bool, len(standardGates)),
		userGates:    make(map[string]bool),
		subroutines:  make(map[string]bool),
		arrays:       make(map[string]bool),
		aliases:      make(map[string]ast.Expression),
	}
	for _, g := range builtinGates {
		e.builtinGates[g] = true
	}
	return e
}

func (e *env) includeStdgates() {
	for _, g := range standardGates {
		e.stdGates[g] = true
	}
}

func (e *env) isGate(name string) bool {
	return e.builtinGates[name] || e.stdGates[name] || e.userGates[name]
}

func (e *env) isStandardGate(name string) bool {
	for _, g := range standardGates {
		if g == name {
			return true
		}
	}
	return false
}

func (e *env) isSubroutine(name string) bool { return e.subroutines[name] }

// isArray reports whether name, or the name an alias of it stands for, was
// declared as an array.
func (e *env) isArray(name string) bool { return e.arrays[name] || e.arrays[e.resolve(name)] }

// alias records let name = value.
func (e *env) alias(name string, value ast.Expression) {
	e.aliases[name] = value
}

// resolve follows aliases from name to the name they were taken from. Alias
// chains are bounded by the table size, so a self-referencing alias stops.
func (e *env) resolve(name string) string {
	for i := 0; i <= len(e.aliases); i++ {
		target, ok := e.aliases[name]
		if !ok {
			return name
		}
		base := aliasBase(target)
		if base == "" || base == name {
			return name
		}
		name = base
	}
	return name
}

// aliasBase is the declared name an alias value refers to, or "" when the
// value is not a plain or subscripted name.
func aliasBase(value ast.Expression) string {
	switch v := value.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.SubscriptedIdentifier:
		return v.Name
	}
	return ""
}

// gateNames lists every gate currently in scope, sorted.
func (e *env) gateNames() []string {
	names := make([]string, 0, len(e.builtinGates)+len(e.stdGates)+len(e.userGates))
	for _, set := range []map[string]bool{e.builtinGates, e.stdGates, e.userGates} {
		for name := range set {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
