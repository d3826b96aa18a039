package analysis

import "cilopt/internal/ir"

// Forest classifies every instruction of a body as a leaf (folded inline
// into its sole user's expression tree by codegen) or a tree root (emitted
// as its own statement), per §4.5. It holds no state beyond the
// classification map — building a new Forest with NewForest after an edit
// recomputes it from scratch, since nothing here tracks incremental
// invalidation.
type Forest struct {
	mb    *ir.MethodBody
	alias AliasOracle
	leaf  map[*ir.Instruction]bool
}

// NewForest builds a Forest for mb. A nil alias oracle defaults to
// StructuralAlias.
func NewForest(mb *ir.MethodBody, alias AliasOracle) *Forest {
	if alias == nil {
		alias = StructuralAlias{}
	}
	f := &Forest{mb: mb, alias: alias, leaf: make(map[*ir.Instruction]bool)}
	f.build()
	return f
}

func (f *Forest) IsLeaf(inst *ir.Instruction) bool     { return f.leaf[inst] }
func (f *Forest) IsTreeRoot(inst *ir.Instruction) bool { return !f.leaf[inst] }
func (f *Forest) SetLeaf(inst *ir.Instruction, v bool) { f.leaf[inst] = v }

func (f *Forest) build() {
	for _, blk := range f.mb.Blocks() {
		insts := blk.Instructions()
		pos := make(map[*ir.Instruction]int, len(insts))
		for idx, inst := range insts {
			pos[inst] = idx
		}
		for i := len(insts) - 1; i >= 0; i-- {
			f.considerOperandsOf(blk, insts, pos, insts[i])
		}
	}
}

// considerOperandsOf examines each operand of user that is itself an
// instruction defined in the same block, marking it a leaf when eligible
// and recursing into its own operands when it was single-use (§4.5).
func (f *Forest) considerOperandsOf(blk *ir.BasicBlock, insts []*ir.Instruction, pos map[*ir.Instruction]int, user *ir.Instruction) {
	for opIdx := 0; opIdx < user.NumOperands(); opIdx++ {
		cand, ok := user.Operand(opIdx).(*ir.Instruction)
		if !ok || cand == nil || cand.Block() != blk || cand.Kind() == ir.InstPhi {
			continue
		}
		if f.leaf[cand] {
			continue
		}
		if !f.eligible(cand, user) {
			continue
		}
		f.leaf[cand] = true
		if cand.NumUses() == 1 {
			if idx, ok := pos[cand]; ok {
				f.considerOperandsOf(blk, insts, pos, insts[idx])
			}
		}
	}
}

func (f *Forest) eligible(cand, user *ir.Instruction) bool {
	cheap := f.cheapToRematerialize(cand)
	if cand.NumUses() != 1 && !cheap {
		return false
	}
	if cheap {
		for _, u := range ir.Users(cand) {
			if u.Kind() == ir.InstPhi {
				return false
			}
		}
	}
	return f.hazardFree(cand, user)
}

// cheapToRematerialize names the instruction shapes Forest will still
// inline even with more than one use, because recomputing them at each
// use site is cheaper than spilling to a temporary (§4.5).
func (f *Forest) cheapToRematerialize(inst *ir.Instruction) bool {
	switch inst.Kind() {
	case ir.InstFieldAddr, ir.InstExtractField:
		return true
	case ir.InstIntrinsicCall:
		return inst.Intrinsic() == ir.IntrinsicArrayLen || inst.Intrinsic() == ir.IntrinsicSizeOf
	default:
		return false
	}
}

// hazardFree walks strictly between def and use (both already known to be
// in the same block, def preceding use), rejecting inlining if an
// intervening, not-already-leaf instruction would observably reorder past
// the def (§4.5).
func (f *Forest) hazardFree(def, use *ir.Instruction) bool {
	for cur := def.Next(); cur != nil && cur != use; cur = cur.Next() {
		if f.leaf[cur] {
			continue // already folded into something past def; no reorder risk
		}
		if f.blocksHazard(def, cur) {
			return false
		}
	}
	return true
}

func (f *Forest) blocksHazard(def, cur *ir.Instruction) bool {
	if isNonWritingMemoryAccess(cur) {
		return false // ArrayAddr/FieldAddr/Load always commute with each other
	}
	if cur.MayWriteToMemory() {
		defAddr, defOK := memoryAddress(def)
		curAddr, curOK := memoryAddress(cur)
		if !defOK || !curOK {
			return def.MayReadFromMemory() || def.MayWriteToMemory()
		}
		return f.alias.MayAlias(defAddr, curAddr)
	}
	return cur.HasSideEffects()
}

func isNonWritingMemoryAccess(inst *ir.Instruction) bool {
	switch inst.Kind() {
	case ir.InstArrayAddr, ir.InstFieldAddr, ir.InstLoad:
		return true
	default:
		return false
	}
}

func memoryAddress(inst *ir.Instruction) (ir.Value, bool) {
	switch inst.Kind() {
	case ir.InstLoad:
		return inst.Address(), true
	case ir.InstStore:
		return inst.StoreAddress(), true
	case ir.InstArrayAddr:
		return inst.ArrayBase(), true
	case ir.InstFieldAddr, ir.InstExtractField:
		return inst.FieldBase(), true
	default:
		return nil, false
	}
}
