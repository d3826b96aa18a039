package importer

import (
	"fmt"

	"cilopt/internal/bytecode"
	cilerr "cilopt/internal/errors"
	"cilopt/internal/ir"
	"cilopt/internal/types"

	"golang.org/x/exp/slices"
)

// deferredContribution records a phi argument that could not be resolved
// during the single forward pass over blocks (in offset order) because
// its source is a back-edge predecessor that had not been imported yet.
type deferredContribution struct {
	predOffset  int
	blockOffset int
	slot        int
	typ         types.Type
}

// machine holds the state shared across every block's per-block
// interpretation (§4.4 step 6): the structural information computed in
// earlier steps, plus the lazily-built local-variable SSA graph.
type machine struct {
	mb       *ir.MethodBody
	provider types.Provider
	stream   *bytecode.Stream
	byOffset map[int]*ir.BasicBlock
	order    []int
	edges    *staticEdges

	argTypes   []types.Type
	localTypes []types.Type

	argSlots   map[int]*ir.Variable // materialized, memory-backed argument slots
	localVars  map[int]*ir.Variable // exposed locals, created on first reference
	localFlags map[int]ir.VarFlags

	stackSeed map[*ir.BasicBlock][]ir.Value

	localPhis      map[int]map[int]*ir.Instruction // blockOffset -> slot -> phi
	finishedLocals map[int]map[int]ir.Value         // blockOffset -> slot -> exit value
	zeroConsts     map[int]ir.Value                 // local slot -> cached zero value

	deferred []deferredContribution
}

func (m *machine) localType(slot int) types.Type {
	if slot >= 0 && slot < len(m.localTypes) {
		return m.localTypes[slot]
	}
	return types.Object
}

func (m *machine) zeroValue(slot int, typ types.Type) ir.Value {
	if v, ok := m.zeroConsts[slot]; ok {
		return v
	}
	var v ir.Value
	switch typ.StackType() {
	case types.StackFloat:
		v = ir.Value(m.mb.ConstFloat(typ, 0))
	case types.StackObject, types.StackByRef:
		v = ir.Value(m.mb.ConstNull(typ))
	default:
		v = ir.Value(m.mb.ConstInt(typ, 0))
	}
	m.zeroConsts[slot] = v
	return v
}

// readLocalEntry resolves the SSA value a non-exposed local slot carries
// at the entry of blockOffset, creating (or reusing) a phi when the block
// has more than one predecessor. Predecessors that have not been imported
// yet (back-edges) are recorded in m.deferred and patched in once the
// whole method has been walked.
func (m *machine) readLocalEntry(blockOffset, slot int, typ types.Type) ir.Value {
	preds := m.edges.Preds(blockOffset)
	switch len(preds) {
	case 0:
		return m.zeroValue(slot, typ)
	case 1:
		p := preds[0]
		if vals, ok := m.finishedLocals[p]; ok {
			if v, ok := vals[slot]; ok {
				return v
			}
		}
		return m.readLocalEntry(p, slot, typ)
	default:
		phi := m.getOrCreatePhi(blockOffset, slot, typ)
		for _, p := range preds {
			if vals, ok := m.finishedLocals[p]; ok {
				if v, ok := vals[slot]; ok {
					if _, already := phi.PhiValueForPred(m.byOffset[p]); !already {
						phi.AddPhiArg(m.byOffset[p], v)
					}
					continue
				}
			}
			m.deferred = append(m.deferred, deferredContribution{predOffset: p, blockOffset: blockOffset, slot: slot, typ: typ})
		}
		return ir.Value(phi)
	}
}

func (m *machine) getOrCreatePhi(blockOffset, slot int, typ types.Type) *ir.Instruction {
	if m.localPhis[blockOffset] == nil {
		m.localPhis[blockOffset] = make(map[int]*ir.Instruction)
	}
	if phi, ok := m.localPhis[blockOffset][slot]; ok {
		return phi
	}
	phi := ir.NewPhi(typ)
	m.byOffset[blockOffset].PrependHeader(phi)
	m.localPhis[blockOffset][slot] = phi
	return phi
}

// resolveDeferred patches every phi argument that was deferred during the
// forward pass. By the time the whole method has been imported, every
// block's finishedLocals entry is populated for every cross-block slot
// (importBlock forces this at the end of each block), so this is a single
// non-recursive sweep.
func (m *machine) resolveDeferred() {
	for _, d := range m.deferred {
		phi, ok := m.localPhis[d.blockOffset][d.slot]
		if !ok {
			continue
		}
		pred := m.byOffset[d.predOffset]
		if _, already := phi.PhiValueForPred(pred); already {
			continue
		}
		var val ir.Value
		if vals, ok := m.finishedLocals[d.predOffset]; ok {
			if v, ok := vals[d.slot]; ok {
				val = v
			}
		}
		if val == nil {
			val = m.zeroValue(d.slot, d.typ)
		}
		phi.AddPhiArg(pred, val)
	}
}

// localVariable returns (creating if necessary) the memory-backed
// Variable for an exposed local slot.
func (m *machine) localVariable(slot int) *ir.Variable {
	if v, ok := m.localVars[slot]; ok {
		return v
	}
	v := m.mb.NewVariableSlot(fmt.Sprintf("l_%d", slot), m.localType(slot), m.localFlags[slot])
	m.localVars[slot] = v
	return v
}

// blockCtx is the per-block abstract-interpreter state: an evaluation
// stack and the non-exposed locals touched so far in this block. It is a
// local value-type bundle, not shared global state (§9 design notes).
type blockCtx struct {
	offset  int
	block   *ir.BasicBlock
	stack   []ir.Value
	current map[int]ir.Value
}

func (bc *blockCtx) push(v ir.Value) { bc.stack = append(bc.stack, v) }

// emit appends inst to this block before returning it, so every
// value-producing instruction the interpreter builds is attached to the
// block it belongs to (§3: an Instruction carries an owning BasicBlock,
// and a BasicBlock owns an ordered list of instructions) rather than
// dangling off the abstract stack as an orphan.
func (bc *blockCtx) emit(inst *ir.Instruction) *ir.Instruction {
	bc.block.Append(inst)
	return inst
}

func (bc *blockCtx) pop() (ir.Value, error) {
	if len(bc.stack) == 0 {
		return nil, cilerr.New(cilerr.InvalidInput, "stack underflow in block at offset %#x", bc.offset)
	}
	v := bc.stack[len(bc.stack)-1]
	bc.stack = bc.stack[:len(bc.stack)-1]
	return v, nil
}

// importBlock implements the core of §4.4 step 6 for one block: it
// abstract-interprets the instruction range belonging to this block
// against an evaluation stack, resolving variable references through SSA
// or through LoadVar/StoreVar as appropriate, and wires the terminator's
// successor edges.
func (m *machine) importBlock(off int, insts []bytecode.Instruction) error {
	blk := m.byOffset[off]
	bc := &blockCtx{offset: off, block: blk, current: make(map[int]ir.Value)}
	bc.stack = append(bc.stack, m.stackSeed[blk]...)

	for _, inst := range insts {
		if err := m.step(bc, inst); err != nil {
			return err
		}
	}

	if blk.Terminator() == nil {
		// Implicit fallthrough: an unconditional jump to whichever block
		// physically follows this one.
		idx := blockIndexOf(m.order, off)
		if idx+1 < len(m.order) {
			blk.Append(ir.NewBranch(nil, m.byOffset[m.order[idx+1]], nil))
		} else {
			blk.Append(ir.NewReturn(nil))
		}
	}

	m.finalizeLocals(off, bc)
	return nil
}

// finalizeLocals records this block's exit value for every non-exposed
// local slot that the method ever references across block boundaries,
// even slots this particular block never touched — their value simply
// passes through from entry to exit unchanged.
func (m *machine) finalizeLocals(off int, bc *blockCtx) {
	exit := make(map[int]ir.Value, len(bc.current))
	for slot, v := range bc.current {
		exit[slot] = v
	}
	slots := make([]int, 0, len(m.localFlags))
	for slot := range m.localFlags {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	for _, slot := range slots {
		flags := m.localFlags[slot]
		if flags.Has(ir.VarAddrTaken) || flags.Has(ir.VarCrossesRegions) {
			continue // exposed, memory-backed: not tracked here
		}
		if !flags.Has(ir.VarCrossesBlock) {
			continue
		}
		if _, ok := exit[slot]; ok {
			continue
		}
		exit[slot] = m.readLocalEntry(off, slot, m.localType(slot))
	}
	m.finishedLocals[off] = exit
}
