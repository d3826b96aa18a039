package types

import (
	"fmt"
	"strings"
)

// Store interns compound types so that two structurally-equal compound
// types constructed through it are the same Go pointer. Primitive
// singletons need no interning (they already share one instance per
// PrimitiveCode); Def types are not interned here because their identity
// already comes from the (externally deduplicated) TypeHandle.
//
// A Store is not safe for concurrent use without external synchronization;
// per §5 of the design, shared immutable state (of which an already-built
// Store is an instance) must only be mutated single-threaded during
// construction.
type Store struct {
	arrays    map[string]*array
	mdArrays  map[string]*mdArray
	byrefs    map[string]*byref
	ptrs      map[string]*ptr
	pinneds   map[string]*pinned
	funcPtrs  map[string]*funcPtr
	specs     map[string]*spec
	genParams map[string]*genericParam
}

// NewStore creates an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{
		arrays:    make(map[string]*array),
		mdArrays:  make(map[string]*mdArray),
		byrefs:    make(map[string]*byref),
		ptrs:      make(map[string]*ptr),
		pinneds:   make(map[string]*pinned),
		funcPtrs:  make(map[string]*funcPtr),
		specs:     make(map[string]*spec),
		genParams: make(map[string]*genericParam),
	}
}

// GetArray returns the (interned) single-dimensional, zero-based array
// type over elem.
func (s *Store) GetArray(elem Type) Type {
	key := elem.String()
	if existing, ok := s.arrays[key]; ok {
		return existing
	}
	t := &array{elem: elem}
	s.arrays[key] = t
	return t
}

// GetMDArray returns the (interned) multi-dimensional array type. Equality
// of MDArray per spec.md §4.1 compares element type, rank, lower bounds,
// and sizes.
func (s *Store) GetMDArray(elem Type, rank int, lowerBounds, sizes []int) Type {
	key := fmt.Sprintf("%s|%d|%v|%v", elem.String(), rank, lowerBounds, sizes)
	if existing, ok := s.mdArrays[key]; ok {
		return existing
	}
	t := &mdArray{elem: elem, rank: rank, lowerBounds: lowerBounds, sizes: sizes}
	s.mdArrays[key] = t
	return t
}

// GetByref returns the (interned) by-reference type over elem.
func (s *Store) GetByref(elem Type) Type {
	key := elem.String()
	if existing, ok := s.byrefs[key]; ok {
		return existing
	}
	t := &byref{elem: elem}
	s.byrefs[key] = t
	return t
}

// GetPointer returns the (interned) unmanaged pointer type over elem.
func (s *Store) GetPointer(elem Type) Type {
	key := elem.String()
	if existing, ok := s.ptrs[key]; ok {
		return existing
	}
	t := &ptr{elem: elem}
	s.ptrs[key] = t
	return t
}

// GetPinned returns the (interned) pinned wrapper over elem.
func (s *Store) GetPinned(elem Type) Type {
	key := elem.String()
	if existing, ok := s.pinneds[key]; ok {
		return existing
	}
	t := &pinned{elem: elem}
	s.pinneds[key] = t
	return t
}

// GetFuncPtr returns the (interned) function-pointer type for sig.
func (s *Store) GetFuncPtr(sig Signature) Type {
	key := sig.String()
	if existing, ok := s.funcPtrs[key]; ok {
		return existing
	}
	t := &funcPtr{sig: sig}
	s.funcPtrs[key] = t
	return t
}

// GetGenericInstantiation returns the (interned) instantiation of a
// generic definition with the given type arguments.
func (s *Store) GetGenericInstantiation(generic Type, args []Type) Type {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	key := generic.String() + "<" + strings.Join(parts, ",") + ">"
	if existing, ok := s.specs[key]; ok {
		return existing
	}
	t := &spec{generic: generic, args: append([]Type(nil), args...)}
	s.specs[key] = t
	return t
}

// GetGenericTypeParameter returns the (interned) !index type-level generic
// parameter.
func (s *Store) GetGenericTypeParameter(index int) Type {
	return s.genericParam(GenericTypeParam, index)
}

// GetGenericMethodParameter returns the (interned) !!index method-level
// generic parameter.
func (s *Store) GetGenericMethodParameter(index int) Type {
	return s.genericParam(GenericMethodParam, index)
}

func (s *Store) genericParam(kind GenericParamKind, index int) Type {
	key := fmt.Sprintf("%d:%d", kind, index)
	if existing, ok := s.genParams[key]; ok {
		return existing
	}
	t := &genericParam{kind: kind, index: index}
	s.genParams[key] = t
	return t
}

// GetModifiedType returns the unmodified type, discarding the custom
// modifier. Per spec.md §4.1 and the open question in §9, custom modifiers
// are recorded only where a downstream pass needs them; today nothing in
// the core consumes them, so they are dropped entirely rather than
// threaded through as dead weight.
//
// TODO: if a downstream pass ever needs to distinguish modreq from
// modopt (e.g. to honor IsVolatile), reintroduce a Modified wrapper Type
// here and update every call site that currently assumes
// GetModifiedType(...) == inner.
func (s *Store) GetModifiedType(modifier Type, unmodified Type, isRequired bool) Type {
	_ = modifier
	_ = isRequired
	return unmodified
}
