package v3

import "fmt"

// IntType is int or int[Size].
type IntType struct {
	Size Expression
}

func (t *IntType) String() string { return sized("int", t.Size) }

// UIntType is uint or uint[Size].
type UIntType struct {
	Size Expression
}

func (t *UIntType) String() string { return sized("uint", t.Size) }

// FloatType is float or float[Size].
type FloatType struct {
	Size Expression
}

func (t *FloatType) String() string { return sized("float", t.Size) }

// AngleType is angle or angle[Size].
type AngleType struct {
	Size Expression
}

func (t *AngleType) String() string { return sized("angle", t.Size) }

// BoolType is bool.
type BoolType struct{}

func (t *BoolType) String() string { return "bool" }

// BitType is bit, bit[Size], or the legacy creg form.
type BitType struct {
	Size Expression
}

func (t *BitType) String() string { return sized("bit", t.Size) }

// ComplexType is complex or complex[float[N]].
type ComplexType struct {
	Base ClassicalType
}

func (t *ComplexType) String() string {
	if t.Base == nil {
		return "complex"
	}
	return fmt.Sprintf("complex[%s]", t.Base)
}

// DurationType is duration.
type DurationType struct{}

func (t *DurationType) String() string { return "duration" }

// StretchType is stretch.
type StretchType struct{}

func (t *StretchType) String() string { return "stretch" }

// ArrayType is array[Element, d0, d1, ...].
type ArrayType struct {
	Element    ClassicalType
	Dimensions []Expression
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("array[%s, %s]", t.Element, join(t.Dimensions, ", "))
}

func (*IntType) classicalTypeNode()      {}
func (*UIntType) classicalTypeNode()     {}
func (*FloatType) classicalTypeNode()    {}
func (*AngleType) classicalTypeNode()    {}
func (*BoolType) classicalTypeNode()     {}
func (*BitType) classicalTypeNode()      {}
func (*ComplexType) classicalTypeNode()  {}
func (*DurationType) classicalTypeNode() {}
func (*StretchType) classicalTypeNode()  {}
func (*ArrayType) classicalTypeNode()    {}
