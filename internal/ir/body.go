package ir

import (
	"cilopt/internal/types"

	"github.com/google/uuid"
)

// MethodBody owns every block, instruction, and variable belonging to one
// method: the two-layer ownership model from §9 (the body owns blocks,
// each block owns instructions; every cross-reference — operand, phi
// predecessor, guard handler — is a non-owning pointer whose validity is
// tied to the body). ID is a build-scoped UUID used only to disambiguate
// debug dumps of several bodies side by side; it plays no part in IR
// identity or equality.
type MethodBody struct {
	ID         uuid.UUID
	Name       string
	Args       []*Argument
	EntryBlock *BasicBlock

	blocks    []*BasicBlock
	nextBlock int
	variables []*Variable

	intInterned    map[intConstKey]*Const
	floatInterned  map[floatConstKey]*Const
	stringInterned map[string]*Const
	nullInterned   map[types.Type]*Const
}

// NewMethodBody creates an empty body with a single entry block and the
// given parameter types materialized as Arguments.
func NewMethodBody(name string, paramTypes []types.Type) *MethodBody {
	mb := &MethodBody{
		ID:             uuid.New(),
		Name:           name,
		intInterned:    make(map[intConstKey]*Const),
		floatInterned:  make(map[floatConstKey]*Const),
		stringInterned: make(map[string]*Const),
		nullInterned:   make(map[types.Type]*Const),
	}
	for idx, t := range paramTypes {
		mb.Args = append(mb.Args, &Argument{index: idx, typ: t})
	}
	mb.EntryBlock = mb.CreateBlock(nil)
	return mb
}

// Blocks returns every live block in layout order: a block created with a
// non-nil insertAfter sits right after that block, any other at the end.
func (mb *MethodBody) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(mb.blocks))
	for _, b := range mb.blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Variables returns every variable slot allocated in this body.
func (mb *MethodBody) Variables() []*Variable { return append([]*Variable(nil), mb.variables...) }

// NewVariableSlot allocates a variable slot owned by this body.
func (mb *MethodBody) NewVariableSlot(name string, typ types.Type, flags VarFlags) *Variable {
	v := NewVariable(name, typ, flags)
	mb.variables = append(mb.variables, v)
	return v
}

// CreateBlock allocates a new block owned by this body. If insertAfter is
// non-nil the new block has no particular positional meaning beyond
// bookkeeping order (layout is a printer/codegen concern outside the
// core); insertAfter only affects where the block lands in mb.blocks for
// iteration order.
func (mb *MethodBody) CreateBlock(insertAfter *BasicBlock) *BasicBlock {
	id := mb.nextBlock
	mb.nextBlock++
	blk := &BasicBlock{id: id, body: mb}
	if insertAfter == nil {
		mb.blocks = append(mb.blocks, blk)
		return blk
	}
	for i, b := range mb.blocks {
		if b == insertAfter {
			mb.blocks = append(mb.blocks, nil)
			copy(mb.blocks[i+2:], mb.blocks[i+1:])
			mb.blocks[i+1] = blk
			return blk
		}
	}
	mb.blocks = append(mb.blocks, blk)
	return blk
}

// RemoveBlock detaches blk from the body. Callers must have already
// cleared blk's contribution to every surviving successor's phis (DCE's
// unreachable-block removal does this before calling RemoveBlock).
func (mb *MethodBody) RemoveBlock(blk *BasicBlock) {
	for _, s := range blk.succs {
		s.removePredRaw(blk)
	}
	blk.succs = nil
	for _, p := range blk.preds {
		p.removeSuccRaw(blk)
	}
	blk.preds = nil
	for i, b := range mb.blocks {
		if b == blk {
			mb.blocks[i] = nil
			return
		}
	}
}

func (b *BasicBlock) removeSuccRaw(s *BasicBlock) {
	for idx, x := range b.succs {
		if x == s {
			b.succs = append(b.succs[:idx], b.succs[idx+1:]...)
			return
		}
	}
}

// ---- constant interning (§3, §4.2.1) -----------------------------------

// intConstKey and floatConstKey key the int/float interning tables on
// both the value and its type, so requesting the same numeric value under
// two different types (e.g. ConstInt(Int32, 0) and ConstInt(Int64, 0))
// interns two distinct Consts instead of the second request silently
// reusing — and overwriting the type of — the first.
type intConstKey struct {
	typ types.Type
	v   int64
}

type floatConstKey struct {
	typ types.Type
	v   float64
}

func (mb *MethodBody) ConstInt(typ types.Type, v int64) *Const {
	key := intConstKey{typ: typ, v: v}
	if c, ok := mb.intInterned[key]; ok {
		return c
	}
	c := &Const{kind: ConstKindInt, typ: typ, intVal: v}
	mb.intInterned[key] = c
	return c
}

func (mb *MethodBody) ConstFloat(typ types.Type, v float64) *Const {
	key := floatConstKey{typ: typ, v: v}
	if c, ok := mb.floatInterned[key]; ok {
		return c
	}
	c := &Const{kind: ConstKindFloat, typ: typ, floatVal: v}
	mb.floatInterned[key] = c
	return c
}

func (mb *MethodBody) ConstString(v string) *Const {
	if c, ok := mb.stringInterned[v]; ok {
		return c
	}
	c := &Const{kind: ConstKindString, typ: types.String, strVal: v}
	mb.stringInterned[v] = c
	return c
}

func (mb *MethodBody) ConstNull(typ types.Type) *Const {
	if c, ok := mb.nullInterned[typ]; ok {
		return c
	}
	c := &Const{kind: ConstKindNull, typ: typ}
	mb.nullInterned[typ] = c
	return c
}
