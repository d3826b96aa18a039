package importer

import "cilopt/internal/bytecode"

// staticEdges computes the block-level (not opcode-level) predecessor
// relation directly from the decoded stream, independent of any IR that
// has been built yet. The per-block import pass (stack.go) needs this
// ahead of time to decide up front how many phi arguments a merge block
// will eventually receive, including contributions from not-yet-imported
// back-edge predecessors.
type staticEdges struct {
	predsOf map[int][]int // leader offset -> predecessor leader offsets, deduped
}

func computeStaticEdges(s *bytecode.Stream, leaders []int) *staticEdges {
	se := &staticEdges{predsOf: make(map[int][]int)}
	seen := make(map[[2]int]bool)
	add := func(src, dst int) {
		key := [2]int{src, dst}
		if seen[key] {
			return
		}
		seen[key] = true
		se.predsOf[dst] = append(se.predsOf[dst], src)
	}

	for idx, inst := range s.Instructions {
		src := leaders[blockIndexOf(leaders, inst.Offset)]
		switch op := inst.Operand.(type) {
		case bytecode.BranchTarget:
			add(src, int(op))
		case bytecode.SwitchTargets:
			for _, t := range op {
				add(src, t)
			}
		}
		if inst.OpCode.IsTerminator() {
			switch inst.OpCode {
			case bytecode.OpBrTrue, bytecode.OpBrFalse, bytecode.OpSwitch:
				if idx+1 < len(s.Instructions) {
					add(src, s.Instructions[idx+1].Offset)
				}
			}
			continue
		}
		if idx+1 < len(s.Instructions) && s.Instructions[idx+1].Offset != inst.Offset {
			// Falls through to the next instruction; only an edge if that
			// next instruction actually starts a new block.
			next := s.Instructions[idx+1].Offset
			if next != src && isLeader(leaders, next) {
				add(src, next)
			}
		}
	}
	return se
}

func isLeader(leaders []int, offset int) bool {
	idx := blockIndexOf(leaders, offset)
	return idx >= 0 && leaders[idx] == offset
}

// NumPreds returns how many distinct predecessor blocks a leader offset
// has, per the static edge computation.
func (se *staticEdges) NumPreds(leaderOffset int) int { return len(se.predsOf[leaderOffset]) }

// Preds returns the predecessor leader offsets of a block.
func (se *staticEdges) Preds(leaderOffset int) []int { return se.predsOf[leaderOffset] }
