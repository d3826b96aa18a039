// Package ir implements the core: method bodies, basic blocks, instructions,
// values, constants, variables, and the use-def graph that ties them
// together. This package owns every SSA invariant the rest of the system
// depends on.
package ir

import (
	"fmt"

	"cilopt/internal/types"
)

// Value is the abstract base of everything that can appear as an
// instruction operand: constants, arguments, variables, and instructions
// themselves.
type Value interface {
	// ResultType is the type of this value when it appears on the
	// evaluation stack or as an operand.
	ResultType() types.Type
	// IsVoid reports whether this value's type kind is Void — used to
	// guard against e.g. wiring a void call's result as an operand.
	IsVoid() bool
	// String renders a short symbolic form for debugging; MethodBody's
	// printer issues stable per-body names instead of relying on this for
	// user-facing output.
	String() string
}

// useLink is one node of a value's doubly-linked use list. Per the design
// notes, the prev/next pointers are NOT separately allocated: they live in
// a slot of the *user* instruction's useLinks array, parallel to its
// operands array, so walking or splicing a use list allocates nothing.
type useLink struct {
	prevUser *Instruction
	prevIdx  int
	nextUser *Instruction
	nextIdx  int
}

// useListHead is embedded into every TrackedValue implementation. It is
// the list's head and count; individual nodes live inside user
// instructions (see useLink).
type useListHead struct {
	firstUser *Instruction
	firstIdx  int
	count     int
}

func (h *useListHead) NumUses() int { return h.count }

// TrackedValue is any Value that maintains a use list: constants,
// arguments, variables, and instructions all qualify. NumUses always
// equals the number of (user, operandIndex) pairs currently referencing
// this value.
type TrackedValue interface {
	Value
	NumUses() int
	useHead() *useListHead
}

// UseIterator walks the (user, operandIndex) pairs referencing a
// TrackedValue. Order is unspecified. Per §4.2, mutating the IR
// (insert/remove/replace-uses) mid-iteration is undefined.
type UseIterator struct {
	cur *Instruction
	idx int
}

// Uses returns an iterator over every use of v.
func Uses(v TrackedValue) *UseIterator {
	h := v.useHead()
	return &UseIterator{cur: h.firstUser, idx: h.firstIdx}
}

// Next advances the iterator, returning false once exhausted.
func (it *UseIterator) Next() (user *Instruction, operandIndex int, ok bool) {
	if it.cur == nil {
		return nil, 0, false
	}
	user, operandIndex = it.cur, it.idx
	link := it.cur.useLinks[it.idx]
	it.cur, it.idx = link.nextUser, link.nextIdx
	return user, operandIndex, true
}

// Users returns the distinct instructions referencing v, each once
// regardless of how many operand slots reference it.
func Users(v TrackedValue) []*Instruction {
	seen := make(map[*Instruction]bool)
	var out []*Instruction
	it := Uses(v)
	for user, _, ok := it.Next(); ok; user, _, ok = it.Next() {
		if !seen[user] {
			seen[user] = true
			out = append(out, user)
		}
	}
	return out
}

func addUse(v TrackedValue, user *Instruction, idx int) {
	h := v.useHead()
	link := useLink{prevUser: nil, prevIdx: -1, nextUser: h.firstUser, nextIdx: h.firstIdx}
	if h.firstUser != nil {
		h.firstUser.useLinks[h.firstIdx].prevUser = user
		h.firstUser.useLinks[h.firstIdx].prevIdx = idx
	}
	user.useLinks[idx] = link
	h.firstUser = user
	h.firstIdx = idx
	h.count++
}

func removeUse(v TrackedValue, user *Instruction, idx int) {
	h := v.useHead()
	link := user.useLinks[idx]
	if link.prevUser != nil {
		link.prevUser.useLinks[link.prevIdx].nextUser = link.nextUser
		link.prevUser.useLinks[link.prevIdx].nextIdx = link.nextIdx
	} else {
		h.firstUser = link.nextUser
		h.firstIdx = link.nextIdx
	}
	if link.nextUser != nil {
		link.nextUser.useLinks[link.nextIdx].prevUser = link.prevUser
		link.nextUser.useLinks[link.nextIdx].prevIdx = link.prevIdx
	}
	user.useLinks[idx] = useLink{prevIdx: -1, nextIdx: -1}
	h.count--
}

// ReplaceUses redirects every use of v to w, leaving v with zero uses. It
// is a no-op if w equals v or v already has no uses, and it is O(uses):
// each iteration pops the current head of v's list and re-attaches it to
// w's list without allocating.
func ReplaceUses(v TrackedValue, w Value) {
	if Value(v) == w {
		return
	}
	h := v.useHead()
	for h.firstUser != nil {
		user := h.firstUser
		idx := h.firstIdx
		user.SetOperand(idx, w)
	}
}

// asTracked returns v as a TrackedValue if it is one (Value(nil) and
// block-target placeholders are not).
func asTracked(v Value) (TrackedValue, bool) {
	if v == nil {
		return nil, false
	}
	tv, ok := v.(TrackedValue)
	return tv, ok
}

// ---- constants ---------------------------------------------------------

// ConstKind discriminates the four constant shapes the core needs.
type ConstKind int

const (
	ConstKindInt ConstKind = iota
	ConstKindFloat
	ConstKindNull
	ConstKindString
)

// Const is an interned literal value. MethodBody interns constants so that
// equal constants of the same type share one Const, which matters for
// Forest/DCE (fewer distinct values to track) and for the trivial-phi peel
// (phi users compare resolved values, not pointers-that-happen-to-hold-
// equal data).
type Const struct {
	useListHead
	kind     ConstKind
	typ      types.Type
	intVal   int64
	floatVal float64
	strVal   string
}

func (c *Const) ResultType() types.Type  { return c.typ }
func (c *Const) IsVoid() bool            { return c.typ == types.Void }
func (c *Const) useHead() *useListHead   { return &c.useListHead }
func (c *Const) Kind() ConstKind         { return c.kind }
func (c *Const) IntValue() int64         { return c.intVal }
func (c *Const) FloatValue() float64     { return c.floatVal }
func (c *Const) StringValue() string     { return c.strVal }

func (c *Const) String() string {
	switch c.kind {
	case ConstKindInt:
		return fmt.Sprintf("%d", c.intVal)
	case ConstKindFloat:
		return fmt.Sprintf("%g", c.floatVal)
	case ConstKindNull:
		return "null"
	case ConstKindString:
		return fmt.Sprintf("%q", c.strVal)
	default:
		return "<const>"
	}
}

// ---- arguments -----------------------------------------------------

// Argument is the SSA value corresponding to an incoming parameter. When a
// parameter's flags mark it AddrTaken or Stored (§4.4 step 5), the importer
// additionally materializes a backing Variable and stores this Argument
// into it; the Argument value itself always remains the pristine
// entry-time value.
type Argument struct {
	useListHead
	index int
	typ   types.Type
	name  string
}

func (a *Argument) ResultType() types.Type { return a.typ }
func (a *Argument) IsVoid() bool           { return a.typ == types.Void }
func (a *Argument) useHead() *useListHead  { return &a.useListHead }
func (a *Argument) Index() int             { return a.index }
func (a *Argument) Name() string           { return a.name }
func (a *Argument) String() string         { return "arg:" + a.name }
