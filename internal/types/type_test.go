package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cilopt/internal/types"
)

func TestPrimitiveStackTypes(t *testing.T) {
	require.Equal(t, types.StackInt32, types.Bool.StackType())
	require.Equal(t, types.StackInt32, types.Char.StackType())
	require.Equal(t, types.StackNInt, types.IntPtr.StackType())
	require.Equal(t, types.StackObject, types.String.StackType())
	require.Equal(t, types.ValueClass, types.Int32.Kind())
	require.Equal(t, types.ReferenceClass, types.String.Kind())
}

func TestStoreInterning(t *testing.T) {
	store := types.NewStore()

	a1 := store.GetArray(types.Int32)
	a2 := store.GetArray(types.Int32)
	require.Same(t, a1, a2, "equal array types must intern to the same pointer")
	require.True(t, a1.Equal(a2))

	b1 := store.GetByref(types.Int32)
	require.False(t, a1.Equal(b1))

	md1 := store.GetMDArray(types.Float64, 2, []int{0, 0}, []int{4, 4})
	md2 := store.GetMDArray(types.Float64, 2, []int{0, 0}, []int{4, 4})
	require.Same(t, md1, md2)

	md3 := store.GetMDArray(types.Float64, 2, []int{0, 0}, []int{4, 5})
	require.False(t, md1.Equal(md3), "MDArray equality must compare sizes")
}

func TestMDArrayIntrinsics(t *testing.T) {
	store := types.NewStore()
	methods := types.MDArrayIntrinsics(store, types.Int32, 3)
	require.Len(t, methods, 5)
	var names []string
	for _, m := range methods {
		names = append(names, m.Name)
	}
	require.Contains(t, names, types.MDGet)
	require.Contains(t, names, types.MDSet)
	require.Contains(t, names, types.MDAddress)

	get := methods[2]
	require.Equal(t, types.Int32, get.Signature.Return)
	require.Len(t, get.Signature.Params, 3)
}

func TestGetModifiedTypeIsTransparent(t *testing.T) {
	store := types.NewStore()
	mod := store.GetArray(types.Object)
	got := store.GetModifiedType(mod, types.Int32, true)
	require.Equal(t, types.Int32, got)
}
