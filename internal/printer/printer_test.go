package printer

import (
	"strings"
	"testing"

	"cilopt/internal/ir"
	"cilopt/internal/types"

	"github.com/stretchr/testify/require"
)

func TestPrintStraightLineBody(t *testing.T) {
	mb := ir.NewMethodBody("Sum", []types.Type{types.Int32, types.Int32})
	blk := mb.EntryBlock
	x, y := ir.Value(mb.Args[0]), ir.Value(mb.Args[1])
	add := ir.NewBinary(ir.BinAdd, types.Int32, x, y)
	blk.Append(add)
	blk.Append(ir.NewReturn(add))

	out := Print(mb)
	require.True(t, strings.Contains(out, "method Sum("))
	require.True(t, strings.Contains(out, "add"))
	require.True(t, strings.Contains(out, "ret %v0"), out)
	require.True(t, strings.Contains(out, "1 block(s), 2 instruction(s)"), out)
}

func TestSymbolTableNamesAreStablePerValue(t *testing.T) {
	mb := ir.NewMethodBody("M", nil)
	st := NewSymbolTable()
	c := mb.ConstInt(types.Int32, 5)
	require.Equal(t, "5", st.NameOf(c))

	add := ir.NewBinary(ir.BinAdd, types.Int32, c, c)
	first := st.NameOf(add)
	second := st.NameOf(add)
	require.Equal(t, first, second)
}

func TestPrintShowsPhiArgumentsAndPredecessors(t *testing.T) {
	mb := ir.NewMethodBody("Pick", []types.Type{types.Bool})
	entry := mb.EntryBlock
	thenB := mb.CreateBlock(entry)
	elseB := mb.CreateBlock(thenB)
	join := mb.CreateBlock(elseB)

	entry.Append(ir.NewBranch(ir.Value(mb.Args[0]), thenB, elseB))
	tv := mb.ConstInt(types.Int32, 1)
	ev := mb.ConstInt(types.Int32, 2)
	thenB.Append(ir.NewBranch(nil, join, nil))
	elseB.Append(ir.NewBranch(nil, join, nil))

	phi := ir.NewPhi(types.Int32)
	phi.AddPhiArg(thenB, tv)
	phi.AddPhiArg(elseB, ev)
	join.Append(phi)
	join.Append(ir.NewReturn(phi))

	out := Print(mb)
	require.True(t, strings.Contains(out, "phi"), out)
	require.True(t, strings.Contains(out, "preds=B1, B2"), out)
}
