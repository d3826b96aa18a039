// Package analysis implements the Forest leaf/root classification and the
// DCE/SimplifyCFG transforms that consume it, per §4.5.
package analysis

// InvalidationMask is the bit set a transform returns describing which
// cheaper-to-maintain analyses it may have invalidated, per §4.5's
// "Invalidation" paragraph. There is no manager here to consume it — per
// SPEC_FULL.md §4.5.1, the pass-pipeline driver that would schedule reruns
// from this signal is explicitly out of scope; this package only produces
// the bits.
type InvalidationMask uint8

const (
	// ControlFlow is set whenever a block's successor/predecessor edges
	// changed (a branch was folded, a block was merged or removed).
	ControlFlow InvalidationMask = 1 << iota
	// Uses is set whenever any value's use-list changed shape (an
	// instruction was removed, uses were redirected).
	Uses
	// Variables is set whenever a Variable's StoreVar/LoadVar set changed
	// (none of the passes in this package touch variables directly today,
	// but the bit exists so a future pass has somewhere to report it).
	Variables
)

func (m InvalidationMask) Has(bit InvalidationMask) bool { return m&bit != 0 }
