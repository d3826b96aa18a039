package importer

import (
	"fmt"

	"cilopt/internal/ir"
	"cilopt/internal/types"

	"golang.org/x/exp/slices"
)

// materializeArgSlots implements §4.4 step 5: any argument whose flags
// include AddrTaken or Stored gets a backing variable slot, initialized
// from the incoming Argument value at the top of the method's real entry
// block (not the synthesized jump-only entry, when one exists).
func materializeArgSlots(mb *ir.MethodBody, realEntry *ir.BasicBlock, argTypes []types.Type, argFlags map[int]ir.VarFlags) map[int]*ir.Variable {
	slots := make(map[int]*ir.Variable)
	idxs := make([]int, 0, len(argFlags))
	for idx := range argFlags {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)
	for _, idx := range idxs {
		flags := argFlags[idx]
		if !flags.Has(ir.VarAddrTaken) && !flags.Has(ir.VarStored) {
			continue
		}
		if idx < 0 || idx >= len(mb.Args) {
			continue
		}
		v := mb.NewVariableSlot(fmt.Sprintf("a_%d", idx), argTypes[idx], flags)
		realEntry.Append(ir.NewStoreVar(v, ir.Value(mb.Args[idx])))
		slots[idx] = v
	}
	return slots
}
