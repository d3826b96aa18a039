package importer

import (
	"sort"

	"cilopt/internal/bytecode"
	"cilopt/internal/ir"
	"cilopt/internal/region"
)

// slotUse records one ldarg/ldloc/starg/stloc/ldarga/ldloca sighting during
// variable analysis.
type slotUse struct {
	offset     int
	isStore    bool
	isAddrTake bool
}

// analyzeVariables implements §4.4 step 2. It walks the stream once,
// classifying each local/argument slot's uses, and returns the resulting
// flags keyed by slot index within their own namespace (argument 0 and
// local 0 are distinct slots, kept in separate maps).
func analyzeVariables(s *bytecode.Stream, leaders []int, regions *region.Tree) (argFlags, localFlags map[int]ir.VarFlags) {
	argUses := make(map[int][]slotUse)
	localUses := make(map[int][]slotUse)

	for _, inst := range s.Instructions {
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			continue
		}
		switch inst.OpCode {
		case bytecode.OpLdarg:
			argUses[slot] = append(argUses[slot], slotUse{offset: inst.Offset})
		case bytecode.OpLdarga:
			argUses[slot] = append(argUses[slot], slotUse{offset: inst.Offset, isAddrTake: true})
		case bytecode.OpStarg:
			argUses[slot] = append(argUses[slot], slotUse{offset: inst.Offset, isStore: true})
		case bytecode.OpLdloc:
			localUses[slot] = append(localUses[slot], slotUse{offset: inst.Offset})
		case bytecode.OpLdloca:
			localUses[slot] = append(localUses[slot], slotUse{offset: inst.Offset, isAddrTake: true})
		case bytecode.OpStloc:
			localUses[slot] = append(localUses[slot], slotUse{offset: inst.Offset, isStore: true})
		}
	}

	argFlags = classifyAll(argUses, leaders, regions)
	for slot := range argFlags {
		argFlags[slot] |= ir.VarIsArg
	}
	localFlags = classifyAll(localUses, leaders, regions)
	for slot := range localFlags {
		localFlags[slot] |= ir.VarIsLocal
	}
	return argFlags, localFlags
}

func slotOperand(op bytecode.Operand) (int, bool) {
	i, ok := op.(bytecode.IntOperand)
	if !ok {
		return 0, false
	}
	return int(i), true
}

func classifyAll(uses map[int][]slotUse, leaders []int, regions *region.Tree) map[int]ir.VarFlags {
	out := make(map[int]ir.VarFlags, len(uses))
	for slot, list := range uses {
		out[slot] = classifyOne(list, leaders, regions)
	}
	return out
}

func classifyOne(uses []slotUse, leaders []int, regions *region.Tree) ir.VarFlags {
	sort.Slice(uses, func(i, j int) bool { return uses[i].offset < uses[j].offset })

	var flags ir.VarFlags
	storeCount := 0
	sawStore := false
	sawLoadBeforeStore := false
	blocksSeen := make(map[int]bool)
	var enclosingRegions []*region.Node
	seenRegion := make(map[*region.Node]bool)

	for _, u := range uses {
		if u.isAddrTake {
			flags |= ir.VarAddrTaken
		}
		if u.isStore {
			flags |= ir.VarStored
			if sawStore {
				flags |= ir.VarMultipleStores
			}
			sawStore = true
			storeCount++
		} else if !sawStore {
			sawLoadBeforeStore = true
			flags |= ir.VarLoaded
		} else {
			flags |= ir.VarLoaded
		}

		blocksSeen[blockIndexOf(leaders, u.offset)] = true

		node := regions.Enclosing(u.offset)
		if !seenRegion[node] {
			seenRegion[node] = true
			enclosingRegions = append(enclosingRegions, node)
		}
	}

	if sawLoadBeforeStore {
		flags |= ir.VarLoadBeforeStore
	}
	if len(blocksSeen) > 1 {
		flags |= ir.VarCrossesBlock
	}
	if len(enclosingRegions) > 1 {
		flags |= ir.VarCrossesRegions
	}
	return flags
}

// blockIndexOf returns the index into leaders of the greatest leader
// offset not exceeding offset — i.e. which leader-delimited block offset
// belongs to.
func blockIndexOf(leaders []int, offset int) int {
	return sort.Search(len(leaders), func(i int) bool { return leaders[i] > offset }) - 1
}
