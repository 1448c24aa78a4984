// Package golden loads the recorded lexer and parser fixtures: sample
// programs, the token sequence each one lexes to and the canonical rendering
// of the syntax tree each token sequence parses to.
//
// Fixtures live in fixtures/v<major>/ as three files sharing a base name:
// <name>.qasm (source), <name>.tokens.json (tokens, validated against
// fixtures/tokens.schema.json) and <name>.ast (rendered tree).
package golden

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

//go:embed fixtures
var fixtures embed.FS

const (
	schemaPath = "fixtures/tokens.schema.json"
	schemaURL  = "golden://tokens.schema.json"
)

// Token is a recorded token: its type name and literal.
type Token struct {
	Type    string
	Literal string
}

// String renders TYPE, or TYPE(literal) when the literal is set. It matches
// the String form of the lexer tokens.
func (t Token) String() string {
	if t.Literal == "" {
		return t.Type
	}
	return t.Type + "(" + t.Literal + ")"
}

// ParseToken reads the form produced by Token.String.
func ParseToken(s string) (Token, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" {
			return Token{}, fmt.Errorf("empty token")
		}
		return Token{Type: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return Token{}, fmt.Errorf("token %q: literal is not closed", s)
	}
	return Token{Type: s[:open], Literal: s[open+1 : len(s)-1]}, nil
}

// Fixture is one recorded program.
type Fixture struct {
	Name    string
	Version string // header version, e.g. "3.0"
	Source  string
	Tokens  []Token
	AST     string // one rendered statement per line, no trailing newline
}

type tokenFile struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Tokens  []string `json:"tokens"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func tokenSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := fixtures.ReadFile(schemaPath)
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		compiler.Formats["qasm-version"] = func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // type validation happens separately
			}
			return semver.IsValid("v" + s)
		}
		if err := compiler.AddResource(schemaURL, strings.NewReader(string(data))); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Names lists the fixtures recorded for an OpenQASM major version, sorted.
func Names(major int) ([]string, error) {
	entries, err := fs.ReadDir(fixtures, dir(major))
	if err != nil {
		return nil, fmt.Errorf("golden: no fixtures for OpenQASM %d: %w", major, err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".qasm"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and validates one fixture.
func Load(major int, name string) (*Fixture, error) {
	base := path.Join(dir(major), name)

	source, err := fixtures.ReadFile(base + ".qasm")
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	rendered, err := fixtures.ReadFile(base + ".ast")
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	raw, err := fixtures.ReadFile(base + ".tokens.json")
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}

	tf, err := decodeTokens(raw)
	if err != nil {
		return nil, fmt.Errorf("golden: %s: %w", base, err)
	}
	if tf.Name != name {
		return nil, fmt.Errorf("golden: %s: recorded name is %q", base, tf.Name)
	}
	if got := semver.Major("v" + tf.Version); got != fmt.Sprintf("v%d", major) {
		return nil, fmt.Errorf("golden: %s: version %s does not belong under v%d", base, tf.Version, major)
	}

	f := &Fixture{
		Name:    name,
		Version: tf.Version,
		Source:  string(source),
		AST:     strings.TrimRight(string(rendered), "\n"),
	}
	for i, s := range tf.Tokens {
		tok, err := ParseToken(s)
		if err != nil {
			return nil, fmt.Errorf("golden: %s: token %d: %w", base, i, err)
		}
		f.Tokens = append(f.Tokens, tok)
	}
	if last := f.Tokens[len(f.Tokens)-1]; last.Type != "EOF" {
		return nil, fmt.Errorf("golden: %s: token sequence ends with %s, not EOF", base, last)
	}
	return f, nil
}

// All loads every fixture for a major version.
func All(major int) ([]*Fixture, error) {
	names, err := Names(major)
	if err != nil {
		return nil, err
	}
	out := make([]*Fixture, 0, len(names))
	for _, name := range names {
		f, err := Load(major, name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeTokens(raw []byte) (*tokenFile, error) {
	s, err := tokenSchema()
	if err != nil {
		return nil, fmt.Errorf("compile token schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, err
	}

	var tf tokenFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, err
	}
	return &tf, nil
}

func dir(major int) string {
	return fmt.Sprintf("fixtures/v%d", major)
}
