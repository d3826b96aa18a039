package importer

import (
	"cilopt/internal/bytecode"
	"cilopt/internal/ir"
)

// materializeGuards implements §4.4 step 4. For each protected region, in
// the input order, a GuardInst is inserted into the try-region's entry
// block. The returned map seeds the abstract-interpreter's entry stack for
// handler/filter blocks with the guard value itself, matching the stack
// contract a catch handler's body expects at entry (§8 scenario 6).
//
// Known simplification: a try-entry block that would need to host guards
// from two structurally unrelated regions (the "already nested" case that
// calls for splitting off a fresh dominating block and redirecting
// predecessors) is not implemented — nested guards that share a literal
// try-entry offset are simply stacked as multiple header instructions in
// that block, which is the common case in practice. Detecting the
// genuinely conflicting case requires predecessor information that, in a
// stack-machine-to-SSA importer, only exists after per-block import has
// run — the same kind of known, named limitation as the Forest open
// question in §9.
func materializeGuards(byOffset map[int]*ir.BasicBlock, regions []bytecode.ExceptionRegion) map[*ir.BasicBlock][]ir.Value {
	stackSeed := make(map[*ir.BasicBlock][]ir.Value)
	for _, r := range regions {
		tryEntry := byOffset[r.TryStart]
		handler := byOffset[r.HandlerStart]
		var filterBlk *ir.BasicBlock
		if r.FilterStart != nil {
			filterBlk = byOffset[*r.FilterStart]
		}
		guard := ir.NewGuard(r.Kind, handler, filterBlk, r.CatchType)
		tryEntry.PrependHeader(guard)

		stackSeed[handler] = append(stackSeed[handler], ir.Value(guard))
		if filterBlk != nil {
			stackSeed[filterBlk] = append(stackSeed[filterBlk], ir.Value(guard))
		}
	}
	return stackSeed
}
