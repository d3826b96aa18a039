package ir

import "fmt"

// BasicBlock owns an ordered, intrusively-linked list of instructions.
// Header instructions (PhiInst, GuardInst) must precede every other
// instruction in the block (§3); FirstNonHeader tracks the boundary so
// callers inserting ordinary instructions don't have to scan past them.
type BasicBlock struct {
	id   int
	body *MethodBody

	first, last   *Instruction
	firstNonHeader *Instruction

	preds []*BasicBlock
	succs []*BasicBlock
}

func (b *BasicBlock) ID() int { return b.id }

func (b *BasicBlock) Name() string { return fmt.Sprintf("B%d", b.id) }

func (b *BasicBlock) First() *Instruction          { return b.first }
func (b *BasicBlock) Last() *Instruction           { return b.last }
func (b *BasicBlock) FirstNonHeader() *Instruction { return b.firstNonHeader }

// HasHeader reports whether this block has at least one header
// instruction (PhiInst/GuardInst).
func (b *BasicBlock) HasHeader() bool { return b.first != nil && b.first.IsHeader() }

func (b *BasicBlock) NumPreds() int { return len(b.preds) }
func (b *BasicBlock) NumSuccs() int { return len(b.succs) }
func (b *BasicBlock) Preds() []*BasicBlock { return b.preds }
func (b *BasicBlock) Succs() []*BasicBlock { return b.succs }

func (b *BasicBlock) HasPred(p *BasicBlock) bool {
	for _, x := range b.preds {
		if x == p {
			return true
		}
	}
	return false
}

// Terminator returns the block's terminating instruction, or nil if the
// block is currently malformed (under construction) and has none yet.
func (b *BasicBlock) Terminator() *Instruction {
	if b.last != nil && b.last.IsTerminator() {
		return b.last
	}
	return nil
}

// Instructions returns the block's instructions, in order, as a freshly
// built slice; edits made while ranging over it do not change the slice.
// The same walk without allocating is
// `for i := blk.First(); i != nil; i = i.Next() { ... }`.
func (b *BasicBlock) Instructions() []*Instruction {
	var out []*Instruction
	for i := b.first; i != nil; i = i.next {
		out = append(out, i)
	}
	return out
}

func (b *BasicBlock) addPredRaw(p *BasicBlock) {
	b.preds = append(b.preds, p)
}

func (b *BasicBlock) removePredRaw(p *BasicBlock) {
	for idx, x := range b.preds {
		if x == p {
			b.preds = append(b.preds[:idx], b.preds[idx+1:]...)
			return
		}
	}
}

func successorsOf(term *Instruction) []*BasicBlock {
	if term == nil {
		return nil
	}
	switch term.kind {
	case InstBranch:
		if term.IsUnconditional() {
			return []*BasicBlock{term.branchThen}
		}
		return []*BasicBlock{term.branchThen, term.branchElse}
	case InstLeave:
		return []*BasicBlock{term.leaveTarget}
	default:
		return nil
	}
}

// syncSuccessors recomputes b.succs (and the mirrored preds of those
// successors) from b's current terminator. Every editing primitive that
// can change a block's terminator shape (insertion of the terminator,
// removal, SetBranch, block splicing) calls this so NumPreds/NumSuccs stay
// accurate without a separate recompute-whole-CFG pass.
func (b *BasicBlock) syncSuccessors() {
	for _, s := range b.succs {
		s.removePredRaw(b)
	}
	b.succs = nil
	for _, s := range successorsOf(b.Terminator()) {
		b.succs = append(b.succs, s)
		s.addPredRaw(b)
	}
}
