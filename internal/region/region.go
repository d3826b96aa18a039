// Package region builds the exception-handler nesting tree used by the
// importer's variable analysis (CrossesRegions) and by codegen-adjacent
// passes that need to know whether two bytecode offsets are protected by
// the same handler.
package region

import (
	"cilopt/internal/ir"
	"cilopt/internal/types"
)

// Protected describes one entry of the bytecode's exception-handler table,
// given in the input order the format mandates: inner try regions precede
// the outer regions that contain them.
type Protected struct {
	Kind         ir.GuardKind
	TryStart     int
	TryEnd       int
	HandlerStart int
	HandlerEnd   int
	// FilterStart is non-nil only for a GuardCatch with an exception
	// filter; the filter body runs in [*FilterStart, HandlerStart).
	FilterStart *int
	CatchType   *types.TypeHandle
}

func (p Protected) containsTry(other Protected) bool {
	return p.TryStart <= other.TryStart && other.TryEnd <= p.TryEnd
}

func (p Protected) coversOffset(offset int) bool {
	if p.TryStart <= offset && offset < p.TryEnd {
		return true
	}
	filterStart := p.HandlerStart
	if p.FilterStart != nil {
		filterStart = *p.FilterStart
	}
	return filterStart <= offset && offset < p.HandlerEnd
}

// Node is one region in the nesting tree.
type Node struct {
	Protected
	Index    int // position in the original input order
	Parent   *Node
	Children []*Node
}

// Tree is the forest of top-level (outermost) regions built from a flat
// exception-handler table.
type Tree struct {
	roots []*Node
}

// Build constructs the nesting tree. regions must already be ordered
// deepest-nesting-first, matching the format's mandated table order (§4.3):
// each region is inserted in turn, absorbing any previously-inserted root
// whose try range it contains.
func Build(regions []Protected) *Tree {
	t := &Tree{}
	for idx, r := range regions {
		t.insert(&Node{Protected: r, Index: idx})
	}
	return t
}

func (t *Tree) insert(node *Node) {
	var remaining []*Node
	for _, root := range t.roots {
		if node.containsTry(root.Protected) {
			root.Parent = node
			node.Children = append(node.Children, root)
		} else {
			remaining = append(remaining, root)
		}
	}
	remaining = append(remaining, node)
	t.roots = remaining
}

// Roots returns the outermost regions, in input order.
func (t *Tree) Roots() []*Node { return t.roots }

// innermost returns the most specific node whose try or handler/filter
// range contains offset, or nil if offset lies outside every region.
func innermost(nodes []*Node, offset int) *Node {
	for _, n := range nodes {
		if !n.coversOffset(offset) {
			continue
		}
		if child := innermost(n.Children, offset); child != nil {
			return child
		}
		return n
	}
	return nil
}

// Enclosing returns the innermost region covering offset, or nil if
// offset is not protected by any handler.
func (t *Tree) Enclosing(offset int) *Node {
	return innermost(t.roots, offset)
}

// AreOnSameRegion reports whether offsetA and offsetB are covered by the
// same innermost protected region. Two offsets that both lie outside
// every region are considered on the same (top-level) region.
func (t *Tree) AreOnSameRegion(offsetA, offsetB int) bool {
	return t.Enclosing(offsetA) == t.Enclosing(offsetB)
}
