package ir

import (
	"testing"

	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestNewMethodBodyHasEmptyEntryBlock(t *testing.T) {
	mb := NewMethodBody("M", []types.Type{types.Int32})
	require.Equal(t, 0, mb.EntryBlock.NumPreds(), "entry block must never have predecessors")
	require.Len(t, mb.Args, 1)
	require.Equal(t, types.Int32, mb.Args[0].ResultType())
}

func TestUseListTracksAndZeroesOnReplace(t *testing.T) {
	mb := NewMethodBody("M", nil)
	blk := mb.EntryBlock

	c1 := mb.ConstInt(types.Int32, 1)
	c2 := mb.ConstInt(types.Int32, 2)
	add := NewBinary(BinAdd, types.Int32, c1, c2)
	blk.Append(add)

	mul := NewBinary(BinMul, types.Int32, add, add)
	blk.Append(mul)

	require.Equal(t, 2, add.NumUses(), "add is referenced by both mul operands")
	require.Equal(t, 1, c1.NumUses())
	require.Equal(t, 1, c2.NumUses())

	replacement := mb.ConstInt(types.Int32, 99)
	ReplaceUses(add, replacement)
	require.Equal(t, 0, add.NumUses(), "ReplaceUses must zero the source's use count")
	require.Equal(t, 2, replacement.NumUses())
	require.Same(t, replacement, mul.Left())
	require.Same(t, replacement, mul.Right())
}

func TestSetOperandRewiresUseListInPlace(t *testing.T) {
	mb := NewMethodBody("M", nil)
	c1 := mb.ConstInt(types.Int32, 1)
	c2 := mb.ConstInt(types.Int32, 2)
	c3 := mb.ConstInt(types.Int32, 3)

	add := NewBinary(BinAdd, types.Int32, c1, c2)
	require.Equal(t, 1, c1.NumUses())
	require.Equal(t, 1, c2.NumUses())

	add.SetOperand(0, c3)
	require.Equal(t, 0, c1.NumUses())
	require.Equal(t, 1, c3.NumUses())
	require.Same(t, c3, add.Left())
}

func TestRemoveRejectsStillUsedInstruction(t *testing.T) {
	mb := NewMethodBody("M", nil)
	blk := mb.EntryBlock
	c1 := mb.ConstInt(types.Int32, 1)
	c2 := mb.ConstInt(types.Int32, 2)
	add := NewBinary(BinAdd, types.Int32, c1, c2)
	blk.Append(add)
	mul := NewBinary(BinMul, types.Int32, add, c2)
	blk.Append(mul)

	require.Panics(t, func() { add.Remove() }, "removing a used instruction must be an invariant violation")
}

func TestReplaceWithDetachesInstruction(t *testing.T) {
	mb := NewMethodBody("M", nil)
	blk := mb.EntryBlock
	c1 := mb.ConstInt(types.Int32, 1)
	c2 := mb.ConstInt(types.Int32, 2)
	add := NewBinary(BinAdd, types.Int32, c1, c2)
	blk.Append(add)
	mul := NewBinary(BinMul, types.Int32, add, c2)
	blk.Append(mul)

	add.ReplaceWith(c1)
	require.Same(t, c1, mul.Left())
	require.Nil(t, add.Block(), "ReplaceWith must detach the replaced instruction from its block")
}

func TestBranchSyncsSuccessorsAndPreds(t *testing.T) {
	mb := NewMethodBody("M", nil)
	entry := mb.EntryBlock
	thenB := mb.CreateBlock(entry)
	elseB := mb.CreateBlock(thenB)

	cond := mb.ConstInt(types.Bool, 1)
	br := NewBranch(cond, thenB, elseB)
	entry.Append(br)

	require.Equal(t, 2, entry.NumSuccs())
	require.True(t, thenB.HasPred(entry))
	require.True(t, elseB.HasPred(entry))

	thenB.Append(NewReturn(nil))
	elseB.Append(NewReturn(nil))

	require.Equal(t, 0, thenB.NumSuccs())
}

func TestSetBranchFoldsConstantAndKeepsJoinPhi(t *testing.T) {
	mb := NewMethodBody("M", nil)
	entry := mb.EntryBlock
	thenB := mb.CreateBlock(entry)
	elseB := mb.CreateBlock(thenB)
	join := mb.CreateBlock(elseB)

	cond := mb.ConstInt(types.Bool, 1)
	br := NewBranch(cond, thenB, elseB)
	entry.Append(br)

	thenVal := mb.ConstInt(types.Int32, 10)
	elseVal := mb.ConstInt(types.Int32, 20)
	thenB.Append(NewBranch(nil, join, nil))
	elseB.Append(NewBranch(nil, join, nil))

	phi := NewPhi(types.Int32)
	phi.AddPhiArg(thenB, thenVal)
	phi.AddPhiArg(elseB, elseVal)
	join.Append(phi)
	join.Append(NewReturn(phi))

	require.Equal(t, 2, phi.NumPhiArgs())

	// Fold the entry branch down to the taken (then) arm, as DCE's
	// constant-condition fold would.
	br.SetBranch(thenB)
	require.True(t, br.IsUnconditional())
	require.Equal(t, 1, entry.NumSuccs())
	require.False(t, elseB.HasPred(entry))

	// elseB is no longer reachable through entry, but it is still a
	// predecessor of join via its own unconditional jump, so join's phi is
	// untouched by SetBranch itself; it only strips edges that SetBranch's
	// own block contributed.
	require.Equal(t, 2, phi.NumPhiArgs())
}

func TestRedirectPhisDeletesArgumentWhenNewPredNil(t *testing.T) {
	mb := NewMethodBody("M", nil)
	a := mb.CreateBlock(nil)
	b := mb.CreateBlock(a)
	join := mb.CreateBlock(b)

	v1 := mb.ConstInt(types.Int32, 1)
	v2 := mb.ConstInt(types.Int32, 2)
	v3 := mb.ConstInt(types.Int32, 3)

	phi := NewPhi(types.Int32)
	phi.AddPhiArg(a, v1)
	phi.AddPhiArg(b, v2)
	join.Append(phi)

	_, ok := phi.PhiValueForPred(b)
	require.True(t, ok)

	join.RedirectPhis(b, nil)
	require.Equal(t, 1, phi.NumPhiArgs())
	_, ok = phi.PhiValueForPred(b)
	require.False(t, ok)
	val, ok := phi.PhiValueForPred(a)
	require.True(t, ok)
	require.Same(t, v1, val)
	require.Equal(t, 0, v2.NumUses())
	_ = v3
}

func TestRedirectSuccPhisRenamesPredecessor(t *testing.T) {
	mb := NewMethodBody("M", nil)
	outer := mb.CreateBlock(nil)
	inner := mb.CreateBlock(outer)
	join := mb.CreateBlock(inner)

	v := mb.ConstInt(types.Int32, 7)
	phi := NewPhi(types.Int32)
	phi.AddPhiArg(inner, v)
	join.Append(phi)
	inner.Append(NewBranch(nil, join, nil))
	outer.Append(NewBranch(nil, join, nil))

	// Simulate SimplifyCFG absorbing inner's instructions into outer: outer
	// becomes join's real predecessor in inner's place.
	outer.RedirectSuccPhis(inner)

	_, ok := phi.PhiValueForPred(inner)
	require.False(t, ok)
	val, ok := phi.PhiValueForPred(outer)
	require.True(t, ok)
	require.Same(t, v, val)
}

func TestHeaderInstructionsPrecedeBody(t *testing.T) {
	mb := NewMethodBody("M", nil)
	blk := mb.CreateBlock(mb.EntryBlock)

	phi := NewPhi(types.Int32)
	blk.Append(phi)
	add := NewBinary(BinAdd, types.Int32, phi, phi)
	blk.Append(add)

	require.True(t, blk.HasHeader())
	require.Same(t, add, blk.FirstNonHeader())
	require.Same(t, phi, blk.First())
}

func TestMoveRangeRelocatesContiguousRun(t *testing.T) {
	mb := NewMethodBody("M", nil)
	src := mb.CreateBlock(mb.EntryBlock)
	dst := mb.CreateBlock(src)

	c1 := mb.ConstInt(types.Int32, 1)
	a := NewUnary(UnaryNeg, types.Int32, c1)
	b := NewUnary(UnaryNeg, types.Int32, a)
	src.Append(a)
	src.Append(b)

	anchor := NewUnary(UnaryNeg, types.Int32, c1)
	dst.Append(anchor)

	MoveRange(dst, anchor, a, b)

	require.Nil(t, src.First())
	require.Same(t, anchor, dst.First())
	require.Same(t, a, anchor.Next())
	require.Same(t, b, a.Next())
	require.Same(t, dst, a.Block())
	require.Same(t, dst, b.Block())
}
