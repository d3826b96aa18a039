package importer

import (
	"cilopt/internal/bytecode"
	"cilopt/internal/ir"
)

// reachesOffsetZeroByBackedge reports whether any branch/switch target in
// the stream names offset 0 — the only way offset 0 can be "reached by a
// back-edge", since it is never anyone's fallthrough target.
func reachesOffsetZeroByBackedge(s *bytecode.Stream) bool {
	for _, inst := range s.Instructions {
		switch op := inst.Operand.(type) {
		case bytecode.BranchTarget:
			if int(op) == 0 {
				return true
			}
		case bytecode.SwitchTargets:
			for _, t := range op {
				if t == 0 {
					return true
				}
			}
		}
	}
	return false
}

// createBlocks implements §4.4 step 3: one BasicBlock per leader offset.
// If offset 0 is reached by a back-edge, mb.EntryBlock is left as a
// synthesized block that unconditionally jumps to the block at offset 0,
// so the entry block provably has zero predecessors.
func createBlocks(mb *ir.MethodBody, leaders []int, s *bytecode.Stream) map[int]*ir.BasicBlock {
	byOffset := make(map[int]*ir.BasicBlock, len(leaders))
	needsSynthetic := reachesOffsetZeroByBackedge(s)

	prev := mb.EntryBlock
	start := 0
	if !needsSynthetic && len(leaders) > 0 {
		byOffset[leaders[0]] = mb.EntryBlock
		start = 1
	}
	for _, off := range leaders[start:] {
		blk := mb.CreateBlock(prev)
		byOffset[off] = blk
		prev = blk
	}
	if needsSynthetic && len(leaders) > 0 {
		mb.EntryBlock.Append(ir.NewBranch(nil, byOffset[leaders[0]], nil))
	}
	return byOffset
}
