package importer

import (
	"cilopt/internal/bytecode"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// computeLeaders implements §4.4 step 1: scan the instruction stream and
// mark as a leader the target of every branch/switch, the fallthrough
// offset after every terminator, and the start of every try/handler/
// filter range. Leaders are returned sorted by offset so downstream
// passes get a deterministic block order instead of depending on map
// iteration.
func computeLeaders(s *bytecode.Stream) []int {
	set := make(map[int]bool)
	if len(s.Instructions) > 0 {
		set[s.Instructions[0].Offset] = true
	}

	for idx, inst := range s.Instructions {
		switch op := inst.Operand.(type) {
		case bytecode.BranchTarget:
			set[int(op)] = true
		case bytecode.SwitchTargets:
			for _, t := range op {
				set[t] = true
			}
		}
		if inst.OpCode.IsTerminator() && idx+1 < len(s.Instructions) {
			set[s.Instructions[idx+1].Offset] = true
		}
	}

	for _, r := range s.Regions {
		set[r.TryStart] = true
		set[r.HandlerStart] = true
		if r.FilterStart != nil {
			set[*r.FilterStart] = true
		}
	}

	leaders := maps.Keys(set)
	slices.Sort(leaders)
	return leaders
}
