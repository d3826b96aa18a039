package analysis

import "cilopt/internal/ir"

// SimplifyCFG implements §4.5's two CFG cleanups — compare-to-zero branch
// inversion and single-predecessor jump-chain merging — iterated to a
// fixpoint per method.
type SimplifyCFG struct{}

func (SimplifyCFG) Run(mb *ir.MethodBody) InvalidationMask {
	var mask InvalidationMask
	for {
		changed := false
		for _, blk := range mb.Blocks() {
			if invertCompareToZero(blk) {
				changed = true
			}
		}
		for _, blk := range mb.Blocks() {
			if mergeJumpChain(mb, blk) {
				changed = true
			}
		}
		if !changed {
			break
		}
		mask |= ControlFlow | Uses
	}
	return mask
}

// invertCompareToZero rewrites "br (x == 0) ? T : F" into a branch on x
// directly with T and F swapped, and "br (x != 0) ? T : F" into a branch on
// x with T and F unchanged, deleting the now-dead compare if it has no
// other users (§4.5, §8 scenario 7).
func invertCompareToZero(blk *ir.BasicBlock) bool {
	term := blk.Terminator()
	if term == nil || term.Kind() != ir.InstBranch || term.IsUnconditional() {
		return false
	}
	cmp, ok := term.Cond().(*ir.Instruction)
	if !ok || cmp.Kind() != ir.InstCompare {
		return false
	}
	if cmp.CmpOp() != ir.CmpEq && cmp.CmpOp() != ir.CmpNe {
		return false
	}
	x, ok := nonZeroOperand(cmp)
	if !ok {
		return false
	}

	then, els := term.Then(), term.Else()
	if cmp.CmpOp() == ir.CmpEq {
		then, els = els, then
	}

	fresh := ir.NewBranch(x, then, els)
	fresh.InsertBefore(term)
	term.Remove()
	if cmp.NumUses() == 0 {
		cmp.Remove()
	}
	return true
}

// nonZeroOperand returns the non-constant operand of a two-operand compare
// against a constant zero, or false if the compare isn't shaped that way.
func nonZeroOperand(cmp *ir.Instruction) (ir.Value, bool) {
	l, r := cmp.Left(), cmp.Right()
	lz, rz := isZeroConst(l), isZeroConst(r)
	switch {
	case rz && !lz:
		return l, true
	case lz && !rz:
		return r, true
	default:
		return nil, false
	}
}

func isZeroConst(v ir.Value) bool {
	c, ok := v.(*ir.Const)
	return ok && c.Kind() == ir.ConstKindInt && c.IntValue() == 0
}

// mergeJumpChain absorbs b's sole successor s into b when b ends in an
// unconditional jump to s and b is s's only predecessor: s's instructions
// move into b, s's outgoing edges become b's, and s is deleted (§4.5, §8
// scenario 3).
func mergeJumpChain(mb *ir.MethodBody, b *ir.BasicBlock) bool {
	term := b.Terminator()
	if term == nil || term.Kind() != ir.InstBranch || !term.IsUnconditional() {
		return false
	}
	s := term.Then()
	if s == nil || s == b || s.NumPreds() != 1 || s.HasHeader() {
		return false
	}

	term.Remove()
	if first := s.First(); first != nil {
		ir.MoveRange(b, b.Last(), first, s.Last())
	}
	b.RedirectSuccPhis(s)
	mb.RemoveBlock(s)
	return true
}
