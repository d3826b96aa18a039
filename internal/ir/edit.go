package ir

// This file is the IR editing surface named by §4.2: the handful of
// primitives every analysis (DCE, SimplifyCFG, the importer's own
// block-splitting for guard materialization) composes instead of poking
// block/instruction links directly.

// InsertBefore splices inst into ref's block immediately before ref.
// inst must not already be attached to a block.
func (inst *Instruction) InsertBefore(ref *Instruction) {
	assertInvariant(inst.block == nil, "InsertBefore: instruction already attached to a block")
	blk := ref.block
	blk.linkBetween(ref.prev, ref, inst)
}

// InsertAfter splices inst into ref's block immediately after ref.
func (inst *Instruction) InsertAfter(ref *Instruction) {
	assertInvariant(inst.block == nil, "InsertAfter: instruction already attached to a block")
	blk := ref.block
	blk.linkBetween(ref, ref.next, inst)
}

// Append adds inst as the new last instruction of b. Used by the importer
// while it is still laying down a block's body, before the terminator
// exists.
func (b *BasicBlock) Append(inst *Instruction) {
	assertInvariant(inst.block == nil, "Append: instruction already attached to a block")
	assertInvariant(b.Terminator() == nil, "Append: block %s already has a terminator", b.Name())
	b.linkBetween(b.last, nil, inst)
}

// InsertAnteLast inserts inst immediately before b's terminator (§4.2). If
// b has no terminator yet, this is equivalent to Append.
func (b *BasicBlock) InsertAnteLast(inst *Instruction) {
	if term := b.Terminator(); term != nil {
		inst.InsertBefore(term)
		return
	}
	b.Append(inst)
}

// PrependHeader inserts inst as the last instruction of b's header run
// (after any existing PhiInst/GuardInst, before the first non-header
// instruction). Phis created lazily, mid-interpretation, during SSA
// construction still need to land ahead of the body instructions already
// emitted by the time the need for a phi is discovered; Append alone would
// leave them at the tail, violating the header-precedes-body invariant.
func (b *BasicBlock) PrependHeader(inst *Instruction) {
	if b.firstNonHeader != nil {
		inst.InsertBefore(b.firstNonHeader)
		return
	}
	b.Append(inst)
}

// linkBetween splices inst between prev and next (either may be nil for a
// block boundary), fixes up first/last/firstNonHeader, and resyncs the CFG
// edge set when the block's tail instruction changed.
func (b *BasicBlock) linkBetween(prev, next *Instruction, inst *Instruction) {
	inst.block = b
	inst.prev = prev
	inst.next = next
	if prev != nil {
		prev.next = inst
	} else {
		b.first = inst
	}
	if next != nil {
		next.prev = inst
	} else {
		b.last = inst
	}
	b.fixupFirstNonHeader()
	if next == nil {
		b.syncSuccessors()
	}
}

// fixupFirstNonHeader recomputes the header/non-header boundary. Blocks
// are small (a handful of phis/guards followed by a body), so a linear
// scan on every edit is simpler than incremental bookkeeping and not worth
// avoiding.
func (b *BasicBlock) fixupFirstNonHeader() {
	cur := b.first
	for cur != nil && cur.IsHeader() {
		cur = cur.next
	}
	b.firstNonHeader = cur
}

// Remove detaches inst from its block and clears its operand slots. inst
// must have no remaining uses; removing a still-used instruction is an
// InvariantViolation; callers that want to repoint users first should use
// ReplaceWith.
func (inst *Instruction) Remove() {
	assertInvariant(inst.NumUses() == 0, "Remove: %s still has %d use(s)", inst, inst.NumUses())
	blk := inst.block
	prev, next := inst.prev, inst.next
	if prev != nil {
		prev.next = next
	} else if blk != nil {
		blk.first = next
	}
	if next != nil {
		next.prev = prev
	} else if blk != nil {
		blk.last = prev
	}
	inst.prev, inst.next = nil, nil
	inst.clearOperands()
	if blk != nil {
		blk.fixupFirstNonHeader()
		if next == nil {
			blk.syncSuccessors()
		}
	}
	inst.block = nil
}

// ReplaceWith repoints every user of inst to v, then removes inst.
func (inst *Instruction) ReplaceWith(v Value) {
	ReplaceUses(inst, v)
	inst.Remove()
}

// MoveRange relocates the contiguous instruction range [first, last]
// (inclusive, all from the same block) into destBlock, positioned
// immediately after afterInst (or at destBlock's head if afterInst is
// nil). Used by SimplifyCFG's jump-chain merge to splice a successor
// block's body into its sole predecessor.
func MoveRange(destBlock *BasicBlock, afterInst *Instruction, first, last *Instruction) {
	srcBlock := first.block
	assertInvariant(srcBlock != nil, "MoveRange: first instruction is unattached")

	prev, next := first.prev, last.next
	if prev != nil {
		prev.next = next
	} else {
		srcBlock.first = next
	}
	if next != nil {
		next.prev = prev
	} else {
		srcBlock.last = prev
	}
	srcBlock.fixupFirstNonHeader()
	if next == nil {
		srcBlock.syncSuccessors()
	}

	var destNext *Instruction
	if afterInst != nil {
		destNext = afterInst.next
	} else {
		destNext = destBlock.first
	}
	for cur := first; ; cur = cur.next {
		cur.block = destBlock
		if cur == last {
			break
		}
	}
	if afterInst != nil {
		afterInst.next = first
	} else {
		destBlock.first = first
	}
	first.prev = afterInst
	if destNext != nil {
		destNext.prev = last
	} else {
		destBlock.last = last
	}
	last.next = destNext

	destBlock.fixupFirstNonHeader()
	if destNext == nil {
		destBlock.syncSuccessors()
	}
}

// SetBranch rewrites a BranchInst terminator into an unconditional jump to
// target, dropping the condition operand and stripping this block's
// contribution from whichever old arm is no longer reachable (§4.5's
// constant-branch folding uses this directly).
func (inst *Instruction) SetBranch(target *BasicBlock) {
	assertInvariant(inst.kind == InstBranch, "SetBranch: %s is not a branch", inst)
	blk := inst.block
	oldThen, oldElse := inst.branchThen, inst.branchElse

	inst.SetOperand(0, nil)
	inst.branchThen = target
	inst.branchElse = nil
	if blk != nil {
		blk.syncSuccessors()
	}

	if oldThen != nil && oldThen != target {
		oldThen.RedirectPhis(blk, nil)
	}
	if oldElse != nil && oldElse != target {
		oldElse.RedirectPhis(blk, nil)
	}
}

// RedirectPhis rewrites, for every phi at the head of b, the incoming edge
// from fromBlock to newPred. Passing a nil newPred deletes the argument
// entirely (§4.2).
func (b *BasicBlock) RedirectPhis(fromBlock, newPred *BasicBlock) {
	for inst := b.first; inst != nil && inst.IsHeader(); inst = inst.next {
		if inst.kind != InstPhi {
			continue
		}
		for idx := 0; idx < len(inst.phiPreds); idx++ {
			if inst.phiPreds[idx] != fromBlock {
				continue
			}
			if newPred == nil {
				removePhiArgAt(inst, idx)
				idx-- // slot idx now holds the swapped-in argument; recheck it
			} else {
				inst.phiPreds[idx] = newPred
			}
		}
	}
}

// RedirectSuccPhis tells every successor of b that incoming edges
// currently attributed to fromBlock should now be attributed to b. Used
// when b absorbs fromBlock's instructions (jump-chain merging) and so
// becomes the real predecessor those successors should name.
func (b *BasicBlock) RedirectSuccPhis(fromBlock *BasicBlock) {
	for _, s := range b.succs {
		s.RedirectPhis(fromBlock, b)
	}
}

// AddPhiArg appends a new (pred, value) argument to a PhiInst. Used by the
// importer when a block gains a predecessor after the phi was already
// created (e.g. a loop back-edge discovered after the loop header).
func (inst *Instruction) AddPhiArg(pred *BasicBlock, v Value) {
	assertInvariant(inst.kind == InstPhi, "AddPhiArg: %s is not a phi", inst)
	inst.phiPreds = append(inst.phiPreds, pred)
	inst.appendOperand(v)
}

// removePhiArgAt deletes phi argument idx via swap-with-last-then-shrink:
// shrinking operands/useLinks in place (rather than slicing out the
// middle) would leave every subsequent slot's use-list entries pointing at
// the wrong index. Swapping avoids touching any slot but the one that
// moved, and SetOperand keeps that slot's use-list bookkeeping correct.
func removePhiArgAt(inst *Instruction, idx int) {
	last := len(inst.operands) - 1
	inst.SetOperand(idx, nil)
	if idx != last {
		moved := inst.operands[last]
		inst.SetOperand(last, nil)
		inst.phiPreds[idx] = inst.phiPreds[last]
		inst.SetOperand(idx, moved)
	}
	inst.phiPreds = inst.phiPreds[:last]
	inst.operands = inst.operands[:last]
	inst.useLinks = inst.useLinks[:last]
}
