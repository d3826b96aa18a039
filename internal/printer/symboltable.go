// Package printer renders a MethodBody as stable, human-readable text, per
// §6's "Output" interface: blocks in a stable order, a header-terminator
// layout per block, and per-value symbolic names issued by a SymbolTable
// scoped to the body.
package printer

import (
	"fmt"

	"cilopt/internal/ir"
)

// SymbolTable issues stable symbolic names for a single MethodBody's
// values. Constants print as their literal; arguments and variables print
// under their declared name (falling back to a positional name); every
// other value (an instruction result) gets a name lazily on first
// reference, in the order the printer encounters it, so two printer runs
// over the same body produce identical output.
type SymbolTable struct {
	names map[ir.Value]string
	next  int
}

// NewSymbolTable creates an empty table. One table must not be shared
// across bodies: names are only unique within the body they were issued
// for.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{names: make(map[ir.Value]string)}
}

// NameOf returns the symbol for v, issuing one if this is the first time
// v has been named by this table.
func (st *SymbolTable) NameOf(v ir.Value) string {
	if v == nil {
		return "<void>"
	}
	switch val := v.(type) {
	case *ir.Const:
		return val.String()
	case *ir.Argument:
		if val.Name() != "" {
			return "%" + val.Name()
		}
		return fmt.Sprintf("%%a%d", val.Index())
	case *ir.Variable:
		return "%" + val.Name()
	}
	if name, ok := st.names[v]; ok {
		return name
	}
	name := fmt.Sprintf("%%v%d", st.next)
	st.next++
	st.names[v] = name
	return name
}
