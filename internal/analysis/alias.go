package analysis

import "cilopt/internal/ir"

// AliasOracle answers whether two addresses may refer to overlapping
// storage. Forest's hazard check consults one for Load/Store pairs (§4.5);
// nothing else in this core needs general points-to information, so the
// interface is intentionally this small.
type AliasOracle interface {
	MayAlias(a, b ir.Value) bool
}

// StructuralAlias is a conservative oracle that only rules out aliasing
// when the two addresses are syntactically distinguishable: distinct
// fields of the same base object, or distinct constant indices of the
// same array. Everything else — different bases, unresolved indices,
// anything it cannot prove apart — is reported as "may alias". This is
// deliberately the default: a real implementation backed by escape
// analysis or points-to sets is out of scope (§1), but Forest still needs
// some oracle wired in to exercise its hazard path at all.
type StructuralAlias struct{}

func (StructuralAlias) MayAlias(a, b ir.Value) bool {
	if a == nil || b == nil || a == b {
		return true
	}
	ai, aok := a.(*ir.Instruction)
	bi, bok := b.(*ir.Instruction)
	if !aok || !bok {
		return true
	}
	if ai.Kind() == ir.InstFieldAddr && bi.Kind() == ir.InstFieldAddr {
		if ai.FieldBase() == bi.FieldBase() && ai.Field() != bi.Field() {
			return false
		}
	}
	if ai.Kind() == ir.InstArrayAddr && bi.Kind() == ir.InstArrayAddr {
		if ai.ArrayBase() == bi.ArrayBase() {
			if ac, ok := ai.ArrayIndex().(*ir.Const); ok && ac.Kind() == ir.ConstKindInt {
				if bc, ok := bi.ArrayIndex().(*ir.Const); ok && bc.Kind() == ir.ConstKindInt {
					if ac.IntValue() != bc.IntValue() {
						return false
					}
				}
			}
		}
	}
	return true
}
