package importer

import (
	"testing"

	"cilopt/internal/bytecode"
	"cilopt/internal/ir"
	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestImportStraightLineArithmetic(t *testing.T) {
	// ldc.i4 2; ldc.i4 3; add; ret
	s := bytecode.NewStream()
	s.AppendAt(0, bytecode.OpLdcI4, bytecode.IntOperand(2), bytecode.DebugInfo{})
	s.AppendAt(1, bytecode.OpLdcI4, bytecode.IntOperand(3), bytecode.DebugInfo{})
	s.AppendAt(2, bytecode.OpAdd, nil, bytecode.DebugInfo{})
	s.AppendAt(3, bytecode.OpRet, nil, bytecode.DebugInfo{})

	provider := types.NewStoreProvider("test")
	mb, err := Import(MethodSignature{Name: "Sum", Return: types.Int32}, s, provider)
	require.NoError(t, err)
	require.Len(t, mb.Blocks(), 1)

	ret := mb.EntryBlock.Terminator()
	require.Equal(t, ir.InstReturn, ret.Kind())

	add, ok := ret.ReturnValue().(*ir.Instruction)
	require.True(t, ok, "the returned value should be the add instruction")
	require.Equal(t, ir.InstBinary, add.Kind())
	require.Same(t, mb.EntryBlock, add.Block(), "add must be attached to the block it was built in")
	requireInstructionInBlock(t, mb.EntryBlock, add)
	requireOperandsAttached(t, mb.EntryBlock)
}

// requireInstructionInBlock fails unless inst appears in blk.Instructions(),
// guarding against value-producing instructions that get pushed onto the
// abstract stack but never attached to the block they were built in.
func requireInstructionInBlock(t *testing.T, blk *ir.BasicBlock, inst *ir.Instruction) {
	t.Helper()
	for _, i := range blk.Instructions() {
		if i == inst {
			return
		}
	}
	require.Fail(t, "instruction missing from block", "%s not found in %s's instruction list", inst, blk.Name())
}

// requireOperandsAttached walks every instruction of blk and, for each
// operand that is itself an Instruction, asserts it is reachable through
// blk.Instructions() — catching the case where an instruction is wired as
// an operand but was never Append-ed anywhere.
func requireOperandsAttached(t *testing.T, blk *ir.BasicBlock) {
	t.Helper()
	present := make(map[*ir.Instruction]bool)
	for _, i := range blk.Instructions() {
		present[i] = true
	}
	for _, i := range blk.Instructions() {
		for idx := 0; idx < i.NumOperands(); idx++ {
			op, ok := i.Operand(idx).(*ir.Instruction)
			if !ok || op == nil || op.Block() != blk {
				continue
			}
			require.True(t, present[op], "%s is used by %s but is not a member of %s", op, i, blk.Name())
		}
	}
}

func TestImportBranchMergeProducesLocalPhi(t *testing.T) {
	// local 0 starts at 0.
	// ldarg 0; brtrue L1
	// ldc.i4 1; stloc 0; br L2
	// L1: ldc.i4 2; stloc 0
	// L2: ldloc 0; ret
	s := bytecode.NewStream()
	s.AppendAt(0, bytecode.OpLdarg, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(1, bytecode.OpBrTrue, bytecode.BranchTarget(5), bytecode.DebugInfo{})
	s.AppendAt(2, bytecode.OpLdcI4, bytecode.IntOperand(1), bytecode.DebugInfo{})
	s.AppendAt(3, bytecode.OpStloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(4, bytecode.OpBr, bytecode.BranchTarget(7), bytecode.DebugInfo{})
	s.AppendAt(5, bytecode.OpLdcI4, bytecode.IntOperand(2), bytecode.DebugInfo{})
	s.AppendAt(6, bytecode.OpStloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(7, bytecode.OpLdloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(8, bytecode.OpRet, nil, bytecode.DebugInfo{})

	provider := types.NewStoreProvider("test")
	sig := MethodSignature{Name: "Pick", Params: []types.Type{types.Bool}, Locals: []types.Type{types.Int32}, Return: types.Int32}
	mb, err := Import(sig, s, provider)
	require.NoError(t, err)
	require.Len(t, mb.Blocks(), 4)

	merge := mb.Blocks()[3]
	var phi *ir.Instruction
	for _, inst := range merge.Instructions() {
		if inst.Kind() == ir.InstPhi {
			phi = inst
			break
		}
	}
	require.NotNil(t, phi, "expected a phi for the merged local")
	require.Equal(t, 2, phi.NumOperands())
}

func TestImportLoopBackedgePatchesDeferredPhi(t *testing.T) {
	// stloc 0 (init 0); L0: ldloc 0; brfalse L1; ldloc 0; stloc 0; br L0; L1: ldloc 0; ret
	s := bytecode.NewStream()
	s.AppendAt(0, bytecode.OpLdcI4, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(1, bytecode.OpStloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(2, bytecode.OpLdloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(3, bytecode.OpBrFalse, bytecode.BranchTarget(7), bytecode.DebugInfo{})
	s.AppendAt(4, bytecode.OpLdloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(5, bytecode.OpStloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(6, bytecode.OpBr, bytecode.BranchTarget(2), bytecode.DebugInfo{})
	s.AppendAt(7, bytecode.OpLdloc, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(8, bytecode.OpRet, nil, bytecode.DebugInfo{})

	provider := types.NewStoreProvider("test")
	sig := MethodSignature{Name: "Loop", Locals: []types.Type{types.Int32}, Return: types.Int32}
	mb, err := Import(sig, s, provider)
	require.NoError(t, err)

	var header *ir.BasicBlock
	for _, blk := range mb.Blocks() {
		if len(blk.Preds()) == 2 {
			header = blk
		}
	}
	require.NotNil(t, header, "expected a loop header with two predecessors")

	var phi *ir.Instruction
	for _, inst := range header.Instructions() {
		if inst.Kind() == ir.InstPhi {
			phi = inst
		}
	}
	require.NotNil(t, phi)
	require.Equal(t, 2, phi.NumOperands(), "both the preheader and the back-edge should have patched in an argument")
}

func TestImportTryCatchSeedsHandlerStackWithGuard(t *testing.T) {
	// try { throw } catch { ret }
	s := bytecode.NewStream()
	s.AppendAt(0, bytecode.OpLdNull, nil, bytecode.DebugInfo{})
	s.AppendAt(1, bytecode.OpThrow, nil, bytecode.DebugInfo{})
	s.AppendAt(2, bytecode.OpPop, nil, bytecode.DebugInfo{})
	s.AppendAt(3, bytecode.OpRet, nil, bytecode.DebugInfo{})

	catchType := types.TypeHandle{Module: "test", Name: "Exception"}
	s.Regions = []bytecode.ExceptionRegion{
		{Kind: ir.GuardCatch, TryStart: 0, TryEnd: 2, HandlerStart: 2, HandlerEnd: 4, CatchType: &catchType},
	}

	provider := types.NewStoreProvider("test")
	mb, err := Import(MethodSignature{Name: "TryCatch", Return: types.Void}, s, provider)
	require.NoError(t, err)

	entry := mb.EntryBlock
	var guard *ir.Instruction
	var handler *ir.BasicBlock
	for _, inst := range entry.Instructions() {
		if inst.Kind() == ir.InstGuard {
			guard = inst
			handler = guard.GuardHandler()
		}
	}
	require.NotNil(t, guard, "entry block should host the try's guard header")
	require.Equal(t, ir.GuardCatch, guard.GuardKind())
	require.NotNil(t, handler)

	// pop discards the seeded guard value with no IR instruction of its
	// own, so the handler's only instruction is the trailing return.
	insts := handler.Instructions()
	require.Len(t, insts, 1)
	require.Equal(t, ir.InstReturn, insts[0].Kind())
}

func TestImportArrayLoadAndConvertAreBlockMembers(t *testing.T) {
	// ldc.i4 4; newarr int32; ldc.i4 0; ldelem int32; conv int64; ret
	elem := types.TypeHandle{Module: "test", Name: "Int32"}
	target := types.Int64
	s := bytecode.NewStream()
	s.AppendAt(0, bytecode.OpLdcI4, bytecode.IntOperand(4), bytecode.DebugInfo{})
	s.AppendAt(1, bytecode.OpNewarr, bytecode.MemberToken{Type: &elem}, bytecode.DebugInfo{})
	s.AppendAt(2, bytecode.OpLdcI4, bytecode.IntOperand(0), bytecode.DebugInfo{})
	s.AppendAt(3, bytecode.OpLdelem, bytecode.MemberToken{Type: &elem}, bytecode.DebugInfo{})
	s.AppendAt(4, bytecode.OpConv, bytecode.ConvOperand{Kind: ir.ConvNumeric, Target: target}, bytecode.DebugInfo{})
	s.AppendAt(5, bytecode.OpRet, nil, bytecode.DebugInfo{})

	provider := types.NewStoreProvider("test")
	mb, err := Import(MethodSignature{Name: "Elem", Return: target}, s, provider)
	require.NoError(t, err)
	requireOperandsAttached(t, mb.EntryBlock)

	var kinds []ir.InstKind
	for _, inst := range mb.EntryBlock.Instructions() {
		kinds = append(kinds, inst.Kind())
		requireInstructionInBlock(t, mb.EntryBlock, inst)
	}
	require.Equal(t, []ir.InstKind{
		ir.InstNewArray,
		ir.InstArrayAddr,
		ir.InstLoad,
		ir.InstConvert,
		ir.InstReturn,
	}, kinds, "every value-producing instruction must be attached to the block in program order")
}
