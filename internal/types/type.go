// Package types implements the type & member model: immutable handles
// identifying primitive, user-defined, and compound types, plus the
// method/field/parameter handles every other component treats as opaque.
//
// Types are compared structurally. Compound types (Array, Byref, Ptr,
// Pinned, FuncPtr, Spec, MDArray) are interned by a Store so that two
// structurally-equal compound types are the same Go pointer, making
// equality a pointer comparison after construction.
package types

import (
	"fmt"
	"strings"
)

// Kind distinguishes value classes from reference classes, mirroring the
// CLI's split between types that live inline (structs, primitives) and
// types that are always accessed through a reference.
type Kind int

const (
	ValueClass Kind = iota
	ReferenceClass
)

func (k Kind) String() string {
	if k == ReferenceClass {
		return "reference"
	}
	return "value"
}

// StackType is the evaluation-stack category a value collapses to. The
// bytecode standard collapses sub-32-bit integers and Bool/Char into
// Int32; NInt (native int), Object, ByRef, Float, and Struct remain
// distinct categories of their own.
type StackType int

const (
	StackVoid StackType = iota
	StackInt32
	StackInt64
	StackNInt
	StackFloat
	StackObject
	StackByRef
	StackStruct
)

func (s StackType) String() string {
	switch s {
	case StackVoid:
		return "void"
	case StackInt32:
		return "int32"
	case StackInt64:
		return "int64"
	case StackNInt:
		return "nint"
	case StackFloat:
		return "float"
	case StackObject:
		return "object"
	case StackByRef:
		return "byref"
	case StackStruct:
		return "struct"
	default:
		return "?"
	}
}

// Type is the sum type over every shape a CIL-style type can take. Variants
// are the unexported structs below; Type itself is a closed interface —
// callers use its methods and the AsDef accessor rather than type-switching on
// unexported concrete types outside this package.
type Type interface {
	// Kind reports whether values of this type are copied by value or
	// always accessed through a reference.
	Kind() Kind
	// StackType reports how a value of this type appears on the
	// evaluation stack.
	StackType() StackType
	// String renders the type's textual postfix form, e.g. "int32[]",
	// "MyType&", "int32*".
	String() string
	// Equal reports structural equality with other.
	Equal(other Type) bool

	sealed()
}

// ---- primitive types -------------------------------------------------

// PrimitiveCode enumerates the built-in scalar and well-known reference
// types.
type PrimitiveCode int

const (
	PVoid PrimitiveCode = iota
	PBool
	PSByte
	PByte
	PInt16
	PUInt16
	PInt32
	PUInt32
	PInt64
	PUInt64
	PIntPtr
	PUIntPtr
	PFloat32
	PFloat64
	PChar
	PString
	PObject
)

var primitiveNames = map[PrimitiveCode]string{
	PVoid: "void", PBool: "bool", PSByte: "int8", PByte: "uint8",
	PInt16: "int16", PUInt16: "uint16", PInt32: "int32", PUInt32: "uint32",
	PInt64: "int64", PUInt64: "uint64", PIntPtr: "nint", PUIntPtr: "nuint",
	PFloat32: "float32", PFloat64: "float64", PChar: "char", PString: "string",
	PObject: "object",
}

var primitiveStackTypes = map[PrimitiveCode]StackType{
	PVoid: StackVoid,
	PBool: StackInt32, PSByte: StackInt32, PByte: StackInt32,
	PInt16: StackInt32, PUInt16: StackInt32, PInt32: StackInt32, PUInt32: StackInt32,
	PInt64: StackInt64, PUInt64: StackInt64,
	PIntPtr: StackNInt, PUIntPtr: StackNInt,
	PFloat32: StackFloat, PFloat64: StackFloat,
	PChar: StackInt32,
	PString: StackObject, PObject: StackObject,
}

type primitive struct{ code PrimitiveCode }

func (p *primitive) sealed() {}
func (p *primitive) Kind() Kind {
	if p.code == PString || p.code == PObject {
		return ReferenceClass
	}
	return ValueClass
}
func (p *primitive) StackType() StackType { return primitiveStackTypes[p.code] }
func (p *primitive) String() string       { return primitiveNames[p.code] }
func (p *primitive) Equal(other Type) bool {
	o, ok := other.(*primitive)
	return ok && o.code == p.code
}

var primitiveSingletons = func() map[PrimitiveCode]*primitive {
	m := make(map[PrimitiveCode]*primitive, len(primitiveNames))
	for code := range primitiveNames {
		m[code] = &primitive{code: code}
	}
	return m
}()

// Primitive returns the singleton Type for a primitive code.
func Primitive(code PrimitiveCode) Type { return primitiveSingletons[code] }

var (
	Void    = Primitive(PVoid)
	Bool    = Primitive(PBool)
	SByte   = Primitive(PSByte)
	Byte    = Primitive(PByte)
	Int16   = Primitive(PInt16)
	UInt16  = Primitive(PUInt16)
	Int32   = Primitive(PInt32)
	UInt32  = Primitive(PUInt32)
	Int64   = Primitive(PInt64)
	UInt64  = Primitive(PUInt64)
	IntPtr  = Primitive(PIntPtr)
	UIntPtr = Primitive(PUIntPtr)
	Float32 = Primitive(PFloat32)
	Float64 = Primitive(PFloat64)
	Char    = Primitive(PChar)
	String  = Primitive(PString)
	Object  = Primitive(PObject)
)

// ---- user-defined / handle types -------------------------------------

// DefKind distinguishes class, struct, interface, and enum definitions —
// only the value/reference split matters to the core, but the kind is
// kept for diagnostics.
type DefKind int

const (
	DefClass DefKind = iota
	DefStruct
	DefInterface
	DefEnum
)

// TypeHandle identifies a user-defined (non-primitive) type by a module
// plus a row index in that module's type table. The core treats this as
// opaque data supplied by the (out-of-scope) metadata reader.
type TypeHandle struct {
	Module string
	Row    int
	Name   string
	Kind   DefKind
}

type def struct{ handle TypeHandle }

func (d *def) sealed() {}
func (d *def) Kind() Kind {
	if d.handle.Kind == DefStruct || d.handle.Kind == DefEnum {
		return ValueClass
	}
	return ReferenceClass
}
func (d *def) StackType() StackType {
	if d.Kind() == ValueClass {
		return StackStruct
	}
	return StackObject
}
func (d *def) String() string { return d.handle.Name }
func (d *def) Equal(other Type) bool {
	o, ok := other.(*def)
	return ok && o.handle == d.handle
}

// Def wraps a TypeHandle as a Type. Definitions are not interned by the
// Store (identity comes from the handle itself, which the metadata reader
// already deduplicates).
func Def(handle TypeHandle) Type { return &def{handle: handle} }

// AsDef reports whether t is a user-defined type, returning its handle.
func AsDef(t Type) (TypeHandle, bool) {
	d, ok := t.(*def)
	if !ok {
		return TypeHandle{}, false
	}
	return d.handle, true
}

// ---- generic instantiation -------------------------------------------

type spec struct {
	generic Type
	args    []Type
}

func (s *spec) sealed()       {}
func (s *spec) Kind() Kind    { return s.generic.Kind() }
func (s *spec) StackType() StackType {
	return s.generic.StackType()
}
func (s *spec) String() string {
	parts := make([]string, len(s.args))
	for i, a := range s.args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", s.generic.String(), strings.Join(parts, ","))
}
func (s *spec) Equal(other Type) bool {
	o, ok := other.(*spec)
	if !ok || len(o.args) != len(s.args) || !o.generic.Equal(s.generic) {
		return false
	}
	for i := range s.args {
		if !s.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// ---- compound types ---------------------------------------------------

type array struct{ elem Type }

func (a *array) sealed()              {}
func (a *array) Kind() Kind           { return ReferenceClass }
func (a *array) StackType() StackType { return StackObject }
func (a *array) String() string       { return a.elem.String() + "[]" }
func (a *array) Equal(other Type) bool {
	o, ok := other.(*array)
	return ok && o.elem.Equal(a.elem)
}

// MDArray is a multi-dimensional array with explicit rank, and optionally
// known lower bounds / sizes (both nil when unspecified, per ECMA-335
// II.14.2 — a rank-N array need not fix its bounds).
type mdArray struct {
	elem        Type
	rank        int
	lowerBounds []int
	sizes       []int
}

func (m *mdArray) sealed()              {}
func (m *mdArray) Kind() Kind           { return ReferenceClass }
func (m *mdArray) StackType() StackType { return StackObject }
func (m *mdArray) String() string {
	return fmt.Sprintf("%s[%s]", m.elem.String(), strings.Repeat(",", m.rank-1))
}
func (m *mdArray) Equal(other Type) bool {
	o, ok := other.(*mdArray)
	if !ok || !o.elem.Equal(m.elem) || o.rank != m.rank {
		return false
	}
	return intsEqual(o.lowerBounds, m.lowerBounds) && intsEqual(o.sizes, m.sizes)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type byref struct{ elem Type }

func (b *byref) sealed()              {}
func (b *byref) Kind() Kind           { return ValueClass }
func (b *byref) StackType() StackType { return StackByRef }
func (b *byref) String() string       { return b.elem.String() + "&" }
func (b *byref) Equal(other Type) bool {
	o, ok := other.(*byref)
	return ok && o.elem.Equal(b.elem)
}

type ptr struct{ elem Type }

func (p *ptr) sealed()              {}
func (p *ptr) Kind() Kind           { return ValueClass }
func (p *ptr) StackType() StackType { return StackNInt }
func (p *ptr) String() string       { return p.elem.String() + "*" }
func (p *ptr) Equal(other Type) bool {
	o, ok := other.(*ptr)
	return ok && o.elem.Equal(p.elem)
}

type pinned struct{ elem Type }

func (p *pinned) sealed()              {}
func (p *pinned) Kind() Kind           { return p.elem.Kind() }
func (p *pinned) StackType() StackType { return p.elem.StackType() }
func (p *pinned) String() string       { return "pinned(" + p.elem.String() + ")" }
func (p *pinned) Equal(other Type) bool {
	o, ok := other.(*pinned)
	return ok && o.elem.Equal(p.elem)
}

// Signature is a method-pointer signature: a return type plus ordered
// parameter types. Used by FuncPtr and by Member (§4.1.1).
type Signature struct {
	Return Type
	Params []Type
}

func (s Signature) equal(o Signature) bool {
	if !s.Return.Equal(o.Return) || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Return.String(), strings.Join(parts, ","))
}

type funcPtr struct{ sig Signature }

func (f *funcPtr) sealed()              {}
func (f *funcPtr) Kind() Kind           { return ValueClass }
func (f *funcPtr) StackType() StackType { return StackNInt }
func (f *funcPtr) String() string       { return "*(" + f.sig.String() + ")" }
func (f *funcPtr) Equal(other Type) bool {
	o, ok := other.(*funcPtr)
	return ok && o.sig.equal(f.sig)
}

// GenericParamKind distinguishes type-level from method-level generic
// parameters.
type GenericParamKind int

const (
	GenericTypeParam GenericParamKind = iota
	GenericMethodParam
)

type genericParam struct {
	kind  GenericParamKind
	index int
}

func (g *genericParam) sealed()              {}
func (g *genericParam) Kind() Kind           { return ReferenceClass }
func (g *genericParam) StackType() StackType { return StackObject }
func (g *genericParam) String() string {
	if g.kind == GenericMethodParam {
		return fmt.Sprintf("!!%d", g.index)
	}
	return fmt.Sprintf("!%d", g.index)
}
func (g *genericParam) Equal(other Type) bool {
	o, ok := other.(*genericParam)
	return ok && o.kind == g.kind && o.index == g.index
}
