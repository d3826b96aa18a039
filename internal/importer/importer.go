// Package importer builds SSA-form MethodBody values out of decoded
// stack-machine bytecode, per §4.4: leader discovery, variable analysis,
// block materialization, guard placement, argument-slot materialization,
// and the stack-machine-to-SSA interpretation pass proper.
package importer

import (
	"sort"

	"cilopt/internal/bytecode"
	"cilopt/internal/ir"
	"cilopt/internal/region"
	"cilopt/internal/types"
)

// MethodSignature carries the parameter, local, and return types a method
// body needs for import. The metadata/signature reader that would resolve
// these from a real assembly is out of scope (§1's Non-goals); callers
// supply the already-resolved shape.
type MethodSignature struct {
	Name   string
	Params []types.Type
	Locals []types.Type
	Return types.Type
}

// Import runs the full §4.4 pipeline over a decoded instruction stream and
// returns the resulting SSA MethodBody.
func Import(sig MethodSignature, s *bytecode.Stream, provider types.Provider) (*ir.MethodBody, error) {
	leaders := computeLeaders(s)
	regionTree := region.Build(s.Regions)
	argFlags, localFlags := analyzeVariables(s, leaders, regionTree)

	mb := ir.NewMethodBody(sig.Name, sig.Params)
	byOffset := createBlocks(mb, leaders, s)

	var realEntry *ir.BasicBlock
	if len(leaders) > 0 {
		realEntry = byOffset[leaders[0]]
	} else {
		realEntry = mb.EntryBlock
	}

	argSlots := materializeArgSlots(mb, realEntry, sig.Params, argFlags)
	stackSeed := materializeGuards(byOffset, s.Regions)
	edges := computeStaticEdges(s, leaders)

	m := &machine{
		mb:             mb,
		provider:       provider,
		stream:         s,
		byOffset:       byOffset,
		order:          leaders,
		edges:          edges,
		argTypes:       sig.Params,
		localTypes:     sig.Locals,
		argSlots:       argSlots,
		localVars:      make(map[int]*ir.Variable),
		localFlags:     localFlags,
		stackSeed:      stackSeed,
		localPhis:      make(map[int]map[int]*ir.Instruction),
		finishedLocals: make(map[int]map[int]ir.Value),
		zeroConsts:     make(map[int]ir.Value),
	}

	blocksInsts := partitionByLeader(s, leaders)
	for _, off := range leaders {
		if err := m.importBlock(off, blocksInsts[off]); err != nil {
			return nil, err
		}
	}
	m.resolveDeferred()

	return mb, nil
}

// partitionByLeader groups the stream's instructions by which leader
// offset (block) they belong to, preserving stream order within a block.
func partitionByLeader(s *bytecode.Stream, leaders []int) map[int][]bytecode.Instruction {
	out := make(map[int][]bytecode.Instruction, len(leaders))
	insts := append([]bytecode.Instruction(nil), s.Instructions...)
	sort.Slice(insts, func(i, j int) bool { return insts[i].Offset < insts[j].Offset })
	for _, inst := range insts {
		off := leaders[blockIndexOf(leaders, inst.Offset)]
		out[off] = append(out[off], inst)
	}
	return out
}
