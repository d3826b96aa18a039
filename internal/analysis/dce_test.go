package analysis

import (
	"testing"

	"cilopt/internal/ir"
	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestDCEFoldsConstantConditional(t *testing.T) {
	mb := ir.NewMethodBody("M", nil)
	entry := mb.EntryBlock
	b1 := mb.CreateBlock(entry)
	b2 := mb.CreateBlock(b1)

	cond := mb.ConstInt(types.Bool, 1)
	entry.Append(ir.NewBranch(cond, b1, b2))
	b1.Append(ir.NewReturn(mb.ConstInt(types.Int32, 1)))
	b2.Append(ir.NewReturn(mb.ConstInt(types.Int32, 2)))

	mask := DCE{}.Run(mb)
	require.True(t, mask.Has(ControlFlow))

	require.Len(t, mb.Blocks(), 2, "B2 should have been removed")
	term := entry.Terminator()
	require.True(t, term.IsUnconditional())
	require.Same(t, b1, term.Then())
}

func TestDCEPeelsTrivialPhi(t *testing.T) {
	mb := ir.NewMethodBody("M", []types.Type{types.Bool})
	p1 := mb.CreateBlock(mb.EntryBlock)
	p2 := mb.CreateBlock(p1)
	join := mb.CreateBlock(p2)

	mb.EntryBlock.Append(ir.NewBranch(ir.Value(mb.Args[0]), p1, p2))
	p1.Append(ir.NewBranch(nil, join, nil))
	p2.Append(ir.NewBranch(nil, join, nil))

	seven := mb.ConstInt(types.Int32, 7)
	phi := ir.NewPhi(types.Int32)
	phi.AddPhiArg(p1, seven)
	phi.AddPhiArg(p2, seven)
	join.Append(phi)
	ret := ir.NewReturn(phi)
	join.Append(ret)

	mask := DCE{}.Run(mb)
	require.True(t, mask.Has(Uses))
	require.Same(t, seven, ret.ReturnValue())
}

func TestDCERemovesUselessInstructions(t *testing.T) {
	mb := ir.NewMethodBody("M", nil)
	entry := mb.EntryBlock

	a := mb.ConstInt(types.Int32, 1)
	b := mb.ConstInt(types.Int32, 2)
	dead := ir.NewBinary(ir.BinAdd, types.Int32, a, b) // never used
	entry.Append(dead)
	entry.Append(ir.NewReturn(a))

	mask := DCE{}.Run(mb)
	require.True(t, mask.Has(Uses))
	require.Nil(t, dead.Block(), "the unused add should have been swept")
}
