package region

import (
	"testing"

	"cilopt/internal/ir"

	"github.com/stretchr/testify/require"
)

// Nested try/catch: inner [10,20) catch at [20,25), outer [0,40) catch at
// [40,50). Input order is innermost-first, matching the mandated table
// order.
func nestedFixture() []Protected {
	return []Protected{
		{Kind: ir.GuardCatch, TryStart: 10, TryEnd: 20, HandlerStart: 20, HandlerEnd: 25},
		{Kind: ir.GuardCatch, TryStart: 0, TryEnd: 40, HandlerStart: 40, HandlerEnd: 50},
	}
}

func TestBuildNestsInnerUnderOuter(t *testing.T) {
	tree := Build(nestedFixture())
	roots := tree.Roots()
	require.Len(t, roots, 1, "the inner region must be absorbed as a child, leaving one root")
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, 10, roots[0].Children[0].TryStart)
}

func TestAreOnSameRegionWithinInnerTry(t *testing.T) {
	tree := Build(nestedFixture())
	require.True(t, tree.AreOnSameRegion(11, 15), "both offsets are inside the inner try")
}

func TestAreOnSameRegionInnerVsOuterDiffer(t *testing.T) {
	tree := Build(nestedFixture())
	require.False(t, tree.AreOnSameRegion(11, 30), "11 is in the inner try, 30 only in the outer")
}

func TestAreOnSameRegionBothOutsideAllRegions(t *testing.T) {
	tree := Build(nestedFixture())
	require.True(t, tree.AreOnSameRegion(100, 200), "both offsets lie outside every region")
}

func TestAreOnSameRegionHandlerRange(t *testing.T) {
	tree := Build(nestedFixture())
	require.True(t, tree.AreOnSameRegion(21, 23), "both offsets are inside the inner handler")
	require.False(t, tree.AreOnSameRegion(21, 5), "5 is only in the outer try, 21 is in the inner handler")
}

func TestFilterRangeIsCoveredByEnclosing(t *testing.T) {
	filterStart := 18
	regions := []Protected{
		{Kind: ir.GuardCatch, TryStart: 0, TryEnd: 10, HandlerStart: 20, HandlerEnd: 30, FilterStart: &filterStart},
	}
	tree := Build(regions)
	node := tree.Enclosing(19)
	require.NotNil(t, node, "an offset inside the filter body must resolve to its region")
	require.Equal(t, 0, node.TryStart)
}
