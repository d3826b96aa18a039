package analysis

import (
	"testing"

	"cilopt/internal/ir"
	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestSimplifyCFGMergesSinglePredJumpChain(t *testing.T) {
	mb := ir.NewMethodBody("M", nil)
	b0 := mb.EntryBlock
	b1 := mb.CreateBlock(b0)

	b0.Append(ir.NewBranch(nil, b1, nil))
	val := mb.ConstInt(types.Int32, 42)
	b1.Append(ir.NewReturn(val))

	mask := SimplifyCFG{}.Run(mb)
	require.True(t, mask.Has(ControlFlow))

	require.Len(t, mb.Blocks(), 1)
	term := b0.Terminator()
	require.Equal(t, ir.InstReturn, term.Kind())
	require.Same(t, val, term.ReturnValue())
}

func TestSimplifyCFGMergeRenamesSuccessorPhis(t *testing.T) {
	mb := ir.NewMethodBody("M", nil)
	b0 := mb.EntryBlock
	b1 := mb.CreateBlock(b0)
	join := mb.CreateBlock(b1)

	b0.Append(ir.NewBranch(nil, b1, nil))
	v := mb.ConstInt(types.Int32, 9)
	b1.Append(ir.NewBranch(nil, join, nil))

	phi := ir.NewPhi(types.Int32)
	phi.AddPhiArg(b1, v)
	join.Append(phi)
	join.Append(ir.NewReturn(phi))

	SimplifyCFG{}.Run(mb)

	require.Len(t, mb.Blocks(), 2)
	_, stillNamesB1 := phi.PhiValueForPred(b1)
	require.False(t, stillNamesB1)
	got, ok := phi.PhiValueForPred(b0)
	require.True(t, ok)
	require.Same(t, v, got)
}

func TestSimplifyCFGInvertsCompareToZero(t *testing.T) {
	mb := ir.NewMethodBody("M", []types.Type{types.Int32})
	entry := mb.EntryBlock
	thenB := mb.CreateBlock(entry)
	elseB := mb.CreateBlock(thenB)

	x := ir.Value(mb.Args[0])
	cmp := ir.NewCompare(ir.CmpNe, types.Bool, x, mb.ConstInt(types.Int32, 0))
	entry.Append(cmp)
	entry.Append(ir.NewBranch(cmp, thenB, elseB))
	thenB.Append(ir.NewReturn(nil))
	elseB.Append(ir.NewReturn(nil))

	mask := SimplifyCFG{}.Run(mb)
	require.True(t, mask.Has(ControlFlow))

	term := entry.Terminator()
	require.Same(t, x, term.Cond())
	require.Same(t, thenB, term.Then())
	require.Same(t, elseB, term.Else())
	require.Nil(t, cmp.Block(), "the dead compare should have been removed")
}

func TestSimplifyCFGInvertsEqualityAndSwapsArms(t *testing.T) {
	mb := ir.NewMethodBody("M", []types.Type{types.Int32})
	entry := mb.EntryBlock
	thenB := mb.CreateBlock(entry)
	elseB := mb.CreateBlock(thenB)

	x := ir.Value(mb.Args[0])
	cmp := ir.NewCompare(ir.CmpEq, types.Bool, mb.ConstInt(types.Int32, 0), x)
	entry.Append(cmp)
	entry.Append(ir.NewBranch(cmp, thenB, elseB))
	thenB.Append(ir.NewReturn(nil))
	elseB.Append(ir.NewReturn(nil))

	SimplifyCFG{}.Run(mb)

	term := entry.Terminator()
	require.Same(t, x, term.Cond())
	require.Same(t, elseB, term.Then())
	require.Same(t, thenB, term.Else())
}
