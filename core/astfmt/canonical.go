// Package astfmt converts syntax trees of either OpenQASM dialect into one
// canonical tree that can be encoded deterministically, rendered as JSON and
// hashed.
package astfmt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"

	astv2 "github.com/aledsdavies/qasm/core/ast/v2"
	astv3 "github.com/aledsdavies/qasm/core/ast/v3"
	"github.com/aledsdavies/qasm/core/invariant"
)

// FormatVersion is bumped whenever the canonical shape changes.
const FormatVersion = 1

// Node is one canonical tree node. Structs become a Type with named Fields,
// slices become a "list" with Items, and scalars carry their text in Value.
type Node struct {
	Type   string  `cbor:"1,keyasint" json:"type"`
	Value  string  `cbor:"2,keyasint,omitempty" json:"value,omitempty"`
	Fields []Field `cbor:"3,keyasint,omitempty" json:"fields,omitempty"`
	Items  []Node  `cbor:"4,keyasint,omitempty" json:"items,omitempty"`
}

// Field is a named child of a struct node, in declaration order.
type Field struct {
	Name string `cbor:"1,keyasint" json:"name"`
	Node Node   `cbor:"2,keyasint" json:"node"`
}

// Tree is the canonical form of a whole program.
type Tree struct {
	Format     uint8  `cbor:"1,keyasint" json:"format"`
	Major      int    `cbor:"2,keyasint" json:"major"`
	Statements []Node `cbor:"3,keyasint" json:"statements"`
}

// FromV2 canonicalizes OpenQASM 2 statements.
func FromV2(stmts []astv2.Statement) (*Tree, error) {
	return build(2, stmts)
}

// FromV3 canonicalizes OpenQASM 3 statements.
func FromV3(stmts []astv3.Statement) (*Tree, error) {
	return build(3, stmts)
}

func build[S any](major int, stmts []S) (*Tree, error) {
	t := &Tree{Format: FormatVersion, Major: major, Statements: make([]Node, len(stmts))}
	for i, s := range stmts {
		invariant.NotNil(s, "statement")
		n, err := canonicalize(reflect.ValueOf(&s).Elem())
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		t.Statements[i] = n
	}
	return t, nil
}

func canonicalize(v reflect.Value) (Node, error) {
	switch v.Kind() {
	case reflect.Invalid:
		return Node{Type: "nil"}, nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return Node{Type: "nil"}, nil
		}
		return canonicalize(v.Elem())
	case reflect.Struct:
		t := v.Type()
		n := Node{Type: t.Name()}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			child, err := canonicalize(v.Field(i))
			if err != nil {
				return Node{}, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
			}
			n.Fields = append(n.Fields, Field{Name: f.Name, Node: child})
		}
		return n, nil
	case reflect.Slice, reflect.Array:
		n := Node{Type: "list"}
		for i := 0; i < v.Len(); i++ {
			item, err := canonicalize(v.Index(i))
			if err != nil {
				return Node{}, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Items = append(n.Items, item)
		}
		return n, nil
	case reflect.String:
		return Node{Type: "string", Value: v.String()}, nil
	case reflect.Bool:
		return Node{Type: "bool", Value: strconv.FormatBool(v.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Node{Type: "int", Value: strconv.FormatInt(v.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Node{Type: "int", Value: strconv.FormatUint(v.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		return Node{Type: "float", Value: strconv.FormatFloat(v.Float(), 'g', -1, 64)}, nil
	}
	return Node{}, fmt.Errorf("unsupported kind %s", v.Kind())
}

// MarshalBinary produces the deterministic CBOR encoding of the tree.
func (t *Tree) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias so that encoding does not recurse into MarshalBinary.
	type treeAlias Tree
	data, err := encMode.Marshal((*treeAlias)(t))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a tree written by MarshalBinary.
func (t *Tree) UnmarshalBinary(data []byte) error {
	type treeAlias Tree
	var decoded treeAlias
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if decoded.Format != FormatVersion {
		return fmt.Errorf("unsupported canonical format %d", decoded.Format)
	}
	*t = Tree(decoded)
	return nil
}

// Digest is the SHA3-256 hash of the CBOR encoding. Equal trees have equal
// digests.
func (t *Tree) Digest() ([32]byte, error) {
	data, err := t.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return sha3.Sum256(data), nil
}

// DigestHex returns Digest as lowercase hex.
func (t *Tree) DigestHex() (string, error) {
	sum, err := t.Digest()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}

// JSON renders the tree as indented JSON.
func (t *Tree) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
