package ir

import "cilopt/internal/types"

// VarFlags is the bit-set the importer's variable-analysis pass (§4.4
// step 2) populates per argument/local slot.
type VarFlags uint16

const (
	VarLoaded VarFlags = 1 << iota
	VarStored
	VarAddrTaken
	VarIsArg
	VarIsLocal
	VarCrossesBlock
	VarCrossesRegions
	VarMultipleStores
	VarLoadBeforeStore
)

func (f VarFlags) Has(bit VarFlags) bool { return f&bit != 0 }

// Variable is a local-like named slot. Slots with IsExposed are always
// memory-backed (LoadVarInst/StoreVarInst against the Variable). Locals
// without it are promoted to plain SSA values during import and never
// appear as a LoadVarInst/StoreVarInst operand; an argument slot without
// it (stored to, address never taken) is still read and written through
// LoadVarInst/StoreVarInst.
type Variable struct {
	useListHead
	name       string
	typ        types.Type
	flags      VarFlags
	isExposed  bool
	isArgSlot  bool // true for the "a_<index>" slots materialized in §4.4 step 5
}

func NewVariable(name string, typ types.Type, flags VarFlags) *Variable {
	v := &Variable{name: name, typ: typ, flags: flags, isArgSlot: flags.Has(VarIsArg)}
	v.isExposed = flags.Has(VarAddrTaken) || flags.Has(VarCrossesRegions)
	return v
}

func (v *Variable) ResultType() types.Type { return v.typ }
func (v *Variable) IsVoid() bool           { return v.typ == types.Void }
func (v *Variable) useHead() *useListHead  { return &v.useListHead }
func (v *Variable) String() string         { return "var:" + v.name }
func (v *Variable) Name() string           { return v.name }
func (v *Variable) Flags() VarFlags        { return v.flags }
func (v *Variable) IsExposed() bool        { return v.isExposed }

// SetFlags merges additional flags into the variable's flag set and
// refreshes IsExposed, matching §3's invariant that AddrTaken or
// CrossesRegions forces exposure.
func (v *Variable) SetFlags(f VarFlags) {
	v.flags |= f
	v.isExposed = v.flags.Has(VarAddrTaken) || v.flags.Has(VarCrossesRegions)
}
