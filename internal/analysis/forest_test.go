package analysis

import (
	"testing"

	"cilopt/internal/ir"
	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestForestSingleUseChainIsLeafUntilSharedAgain(t *testing.T) {
	mb := ir.NewMethodBody("M", []types.Type{types.Int32, types.Int32, types.Int32})
	blk := mb.EntryBlock
	x, y, z := ir.Value(mb.Args[0]), ir.Value(mb.Args[1]), ir.Value(mb.Args[2])

	a := ir.NewBinary(ir.BinAdd, types.Int32, x, y)
	blk.Append(a)
	b := ir.NewBinary(ir.BinMul, types.Int32, a, z)
	blk.Append(b)
	// b has no users of its own, so nothing ever considers it as a
	// candidate operand to fold — it stays a tree root by default.

	f := NewForest(mb, nil)
	require.True(t, f.IsLeaf(a), "single-use add should fold into its sole user")
	require.False(t, f.IsLeaf(b), "an instruction with no users is never marked a leaf")

	// Give a a second user in the same block; it's no longer single-use and
	// isn't on the cheap-to-rematerialize list, so it stops being a leaf.
	extra := ir.NewUnary(ir.UnaryNeg, types.Int32, a)
	extra.InsertBefore(b)

	f2 := NewForest(mb, nil)
	require.False(t, f2.IsLeaf(a))
}

type fixedAlias struct{ mayAlias bool }

func (o fixedAlias) MayAlias(a, b ir.Value) bool { return o.mayAlias }

func TestForestHazardGatedByAliasOracle(t *testing.T) {
	build := func(oracle AliasOracle) (*Forest, *ir.Instruction) {
		mb := ir.NewMethodBody("M", []types.Type{types.Object, types.Object, types.Int32})
		blk := mb.EntryBlock
		p, q, v := ir.Value(mb.Args[0]), ir.Value(mb.Args[1]), ir.Value(mb.Args[2])

		a := ir.NewLoad(types.Int32, p)
		blk.Append(a)
		st := ir.NewStore(q, v)
		blk.Append(st)
		bInst := ir.NewBinary(ir.BinAdd, types.Int32, a, mb.ConstInt(types.Int32, 1))
		blk.Append(bInst)
		blk.Append(ir.NewReturn(bInst))

		return NewForest(mb, oracle), a
	}

	f, a := build(fixedAlias{mayAlias: true})
	require.False(t, f.IsLeaf(a), "an intervening store to a maybe-aliasing address blocks inlining")

	f2, a2 := build(fixedAlias{mayAlias: false})
	require.True(t, f2.IsLeaf(a2), "a provably non-aliasing store does not block inlining")
}
