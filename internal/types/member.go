package types

import "fmt"

// MethodHandle identifies a method: either a user-defined method resolved
// from the metadata reader, or one of the five synthesized multi-dim-array
// intrinsics (§4.1).
type MethodHandle struct {
	DeclaringType Type
	Name          string
	Signature     Signature
}

func (m MethodHandle) String() string {
	return fmt.Sprintf("%s::%s%s", m.DeclaringType.String(), m.Name, m.Signature.String())
}

// FieldHandle identifies a field.
type FieldHandle struct {
	DeclaringType Type
	Name          string
	FieldType     Type
}

func (f FieldHandle) String() string {
	return fmt.Sprintf("%s::%s", f.DeclaringType.String(), f.Name)
}

// ParamHandle identifies a formal parameter by position within its owning
// method's signature.
type ParamHandle struct {
	Method MethodHandle
	Index  int
	Name   string
	Type   Type
}

// Multi-dim array intrinsic names, per ECMA-335 II.14.2: a rank-N array
// type synthesizes a sizes-constructor, a ranges-constructor, Get, Set,
// and Address, all with signatures derived from rank and element type.
const (
	MDCtorSizes  = ".ctor"  // N Int32 size arguments
	MDCtorRanges = ".ctor"  // N (Int32 lower, Int32 size) pairs
	MDGet        = "Get"
	MDSet        = "Set"
	MDAddress    = "Address"
)

// MDArrayIntrinsics synthesizes the five intrinsic methods ECMA-335
// defines for a rank-N multi-dimensional array type. The two constructors
// share the name ".ctor" and are disambiguated by arity/signature, matching
// how overload resolution already disambiguates constructors elsewhere.
func MDArrayIntrinsics(store *Store, elemType Type, rank int) []MethodHandle {
	md := store.GetMDArray(elemType, rank, nil, nil)
	int32Params := func(n int) []Type {
		ps := make([]Type, n)
		for i := range ps {
			ps[i] = Int32
		}
		return ps
	}
	return []MethodHandle{
		{DeclaringType: md, Name: MDCtorSizes, Signature: Signature{Return: Void, Params: int32Params(rank)}},
		{DeclaringType: md, Name: MDCtorRanges, Signature: Signature{Return: Void, Params: int32Params(rank * 2)}},
		{DeclaringType: md, Name: MDGet, Signature: Signature{Return: elemType, Params: int32Params(rank)}},
		{DeclaringType: md, Name: MDSet, Signature: Signature{Return: Void, Params: append(int32Params(rank), elemType)}},
		{DeclaringType: md, Name: MDAddress, Signature: Signature{Return: store.GetByref(elemType), Params: int32Params(rank)}},
	}
}

// Provider is the callback surface the (out-of-scope) metadata reader
// invokes during signature decoding. Implementations must be referentially
// transparent for equal inputs: calling the same Get* method twice with
// equal arguments must return Type values that compare Equal.
//
// RawHandle stands in for whatever opaque token/row representation the
// metadata reader uses (e.g. a TypeDef/TypeRef/TypeSpec row index); the
// core never inspects it beyond forwarding it into TypeHandle.Row.
type Provider interface {
	GetPrimitiveType(code PrimitiveCode) Type
	GetTypeFromDefinition(rawHandle int, name string) Type
	GetTypeFromReference(rawHandle int, name string) Type
	GetTypeFromSpecification(rawHandle int) Type
	GetSZArrayType(elem Type) Type
	GetArrayType(elem Type, rank int, lowerBounds, sizes []int) Type
	GetByReferenceType(elem Type) Type
	GetPointerType(elem Type) Type
	GetPinnedType(elem Type) Type
	GetFunctionPointerType(sig Signature) Type
	GetGenericInstantiation(generic Type, typeArgs []Type) Type
	GetGenericMethodParameter(index int) Type
	GetGenericTypeParameter(index int) Type
	GetModifiedType(modifier Type, unmodified Type, isRequired bool) Type
}

// StoreProvider adapts a Store to the Provider interface, which is all a
// Store needs plus a module-scoped name for Def construction. It is the
// reference Provider used when no real metadata reader is wired (tests,
// fixtures).
type StoreProvider struct {
	Store  *Store
	Module string
}

func NewStoreProvider(module string) *StoreProvider {
	return &StoreProvider{Store: NewStore(), Module: module}
}

func (p *StoreProvider) GetPrimitiveType(code PrimitiveCode) Type { return Primitive(code) }

func (p *StoreProvider) GetTypeFromDefinition(rawHandle int, name string) Type {
	return Def(TypeHandle{Module: p.Module, Row: rawHandle, Name: name, Kind: DefClass})
}

func (p *StoreProvider) GetTypeFromReference(rawHandle int, name string) Type {
	return Def(TypeHandle{Module: p.Module, Row: rawHandle, Name: name, Kind: DefClass})
}

func (p *StoreProvider) GetTypeFromSpecification(rawHandle int) Type {
	return Def(TypeHandle{Module: p.Module, Row: rawHandle, Name: fmt.Sprintf("spec#%d", rawHandle), Kind: DefClass})
}

func (p *StoreProvider) GetSZArrayType(elem Type) Type { return p.Store.GetArray(elem) }
func (p *StoreProvider) GetArrayType(elem Type, rank int, lowerBounds, sizes []int) Type {
	return p.Store.GetMDArray(elem, rank, lowerBounds, sizes)
}
func (p *StoreProvider) GetByReferenceType(elem Type) Type { return p.Store.GetByref(elem) }
func (p *StoreProvider) GetPointerType(elem Type) Type     { return p.Store.GetPointer(elem) }
func (p *StoreProvider) GetPinnedType(elem Type) Type      { return p.Store.GetPinned(elem) }
func (p *StoreProvider) GetFunctionPointerType(sig Signature) Type {
	return p.Store.GetFuncPtr(sig)
}
func (p *StoreProvider) GetGenericInstantiation(generic Type, typeArgs []Type) Type {
	return p.Store.GetGenericInstantiation(generic, typeArgs)
}
func (p *StoreProvider) GetGenericMethodParameter(index int) Type {
	return p.Store.GetGenericMethodParameter(index)
}
func (p *StoreProvider) GetGenericTypeParameter(index int) Type {
	return p.Store.GetGenericTypeParameter(index)
}
func (p *StoreProvider) GetModifiedType(modifier Type, unmodified Type, isRequired bool) Type {
	return p.Store.GetModifiedType(modifier, unmodified, isRequired)
}
