package analysis

import "cilopt/internal/ir"

// DCE implements §4.5's dead-code elimination: unreachable-block removal
// (folding constant branches as it goes), mark-and-sweep removal of
// useless instructions, and trivial-phi peeling.
type DCE struct{}

// Run applies all three DCE stages once and reports which analyses may
// have been invalidated. Running Run twice in a row with no intervening
// edit is a no-op on the second call (§8).
func (DCE) Run(mb *ir.MethodBody) InvalidationMask {
	var mask InvalidationMask
	if removeUnreachableBlocks(mb) {
		mask |= ControlFlow | Uses
	}
	if removeUselessInstructions(mb) {
		mask |= Uses
	}
	if peelTrivialPhis(mb) {
		mask |= Uses
	}
	return mask
}

// removeUnreachableBlocks walks the CFG from the entry block, folding any
// constant-conditioned branch it meets along the way into an unconditional
// jump to the taken arm before following successors, then deletes every
// block the walk never reached (clearing its contribution to surviving
// phis first).
func removeUnreachableBlocks(mb *ir.MethodBody) bool {
	changed := false
	visited := make(map[*ir.BasicBlock]bool)
	var walk func(b *ir.BasicBlock)
	walk = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		if term := b.Terminator(); term != nil && term.Kind() == ir.InstBranch && !term.IsUnconditional() {
			if truth, ok := constTruth(term.Cond()); ok {
				target := term.Else()
				if truth {
					target = term.Then()
				}
				term.SetBranch(target)
				changed = true
			}
		}
		for _, s := range b.Succs() {
			walk(s)
		}
	}
	walk(mb.EntryBlock)

	for _, blk := range mb.Blocks() {
		if visited[blk] {
			continue
		}
		for _, s := range blk.Succs() {
			s.RedirectPhis(blk, nil)
		}
		mb.RemoveBlock(blk)
		changed = true
	}
	return changed
}

func constTruth(v ir.Value) (truth bool, ok bool) {
	c, isConst := v.(*ir.Const)
	if !isConst || c.Kind() != ir.ConstKindInt {
		return false, false
	}
	return c.IntValue() != 0, true
}

// removeUselessInstructions marks every instruction reachable (through the
// use-def graph) from a non-SafeToRemove root as live, then sweeps
// everything else. Doomed instructions are removed in reverse-dependency
// order: an instruction only has zero uses once every other doomed
// instruction using it has already gone, so repeated passes converge.
func removeUselessInstructions(mb *ir.MethodBody) bool {
	live := make(map[*ir.Instruction]bool)
	var worklist []*ir.Instruction
	for _, blk := range mb.Blocks() {
		for _, inst := range blk.Instructions() {
			if !inst.SafeToRemove() && !live[inst] {
				live[inst] = true
				worklist = append(worklist, inst)
			}
		}
	}
	for len(worklist) > 0 {
		inst := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for i := 0; i < inst.NumOperands(); i++ {
			if op, ok := inst.Operand(i).(*ir.Instruction); ok && op != nil && !live[op] {
				live[op] = true
				worklist = append(worklist, op)
			}
		}
	}

	var doomed []*ir.Instruction
	for _, blk := range mb.Blocks() {
		for _, inst := range blk.Instructions() {
			if !live[inst] {
				doomed = append(doomed, inst)
			}
		}
	}
	if len(doomed) == 0 {
		return false
	}
	for {
		progressed := false
		remaining := doomed[:0]
		for _, inst := range doomed {
			if inst.NumUses() == 0 {
				inst.Remove()
				progressed = true
				continue
			}
			remaining = append(remaining, inst)
		}
		doomed = remaining
		if !progressed {
			break
		}
	}
	return true
}

// peelTrivialPhis removes phis whose arguments all resolve to a single
// value once self-references are ignored, iteratively following chains of
// phis that only became trivial once an earlier phi in the same pass was
// peeled.
func peelTrivialPhis(mb *ir.MethodBody) bool {
	changed := false
	for {
		progressed := false
		for _, blk := range mb.Blocks() {
			for _, inst := range blk.Instructions() {
				if inst.Kind() != ir.InstPhi {
					continue
				}
				if v, ok := trivialPhiValue(inst); ok {
					inst.ReplaceWith(v)
					progressed = true
				}
			}
		}
		if progressed {
			changed = true
		} else {
			break
		}
	}
	return changed
}

func trivialPhiValue(phi *ir.Instruction) (ir.Value, bool) {
	var uniq ir.Value
	for idx := 0; idx < phi.NumPhiArgs(); idx++ {
		v := phi.PhiArg(idx).Value
		if v == ir.Value(phi) {
			continue
		}
		if uniq == nil {
			uniq = v
		} else if uniq != v {
			return nil, false
		}
	}
	if uniq == nil {
		return nil, false
	}
	return uniq, true
}
