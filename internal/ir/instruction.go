package ir

import (
	"fmt"

	"cilopt/internal/types"
)

// PhiArg is one (predecessor block, incoming value) pair of a PhiInst.
type PhiArg struct {
	Pred  *BasicBlock
	Value Value
}

// Instruction is the single concrete representation for every instruction
// kind the core recognizes (§9 design notes: a closed sum type plus
// accessors, not a class hierarchy). Kind-specific data lives in the
// fields below the common header; operand Values are always stored in the
// homogeneous operands slice so the intrusive use-list machinery in
// value.go needs no per-kind special-casing.
type Instruction struct {
	useListHead // this instruction as a producer (a Value)

	kind       InstKind
	resultType types.Type
	block      *BasicBlock
	prev, next *Instruction // intrusive block-list links

	operands []Value   // this instruction as a consumer
	useLinks []useLink  // parallel to operands; see useLink doc

	// Binary / Compare / Unary
	binOp   BinOp
	cmpOp   CmpOp
	unaryOp UnaryOp

	// Branch: operands[0] is Cond (nil/absent for an unconditional jump)
	branchThen *BasicBlock
	branchElse *BasicBlock

	// Phi: phiPreds[i] pairs with operands[i]
	phiPreds []*BasicBlock

	// Guard
	guardKind      GuardKind
	guardHandler   *BasicBlock
	guardFilter    *BasicBlock
	guardCatchType *types.TypeHandle

	// StoreVar / LoadVar
	variable *Variable

	// FieldAddr / ExtractField
	field types.FieldHandle

	// MDArray
	mdOp MDArrayOp

	// IntrinsicCall
	intrinsic   CilIntrinsic
	intrinsicTy types.Type // operand type for SizeOf

	// Call
	callee    types.MethodHandle
	isVirtual bool
	isNewObj  bool

	// Convert
	convKind ConvKind

	// Leave: target block when leaving a protected region
	leaveTarget *BasicBlock

	// NewArray / MDArray element type
	elemType types.Type
}

func (i *Instruction) useHead() *useListHead { return &i.useListHead }

func (i *Instruction) ResultType() types.Type { return i.resultType }
func (i *Instruction) IsVoid() bool           { return i.resultType == nil || i.resultType == types.Void }
func (i *Instruction) Kind() InstKind         { return i.kind }
func (i *Instruction) Block() *BasicBlock     { return i.block }
func (i *Instruction) Prev() *Instruction     { return i.prev }
func (i *Instruction) Next() *Instruction     { return i.next }

// NumOperands returns the number of operand slots, including nil
// placeholders (e.g. an unconditional Branch's absent Cond is still slot
// 0, left nil).
func (i *Instruction) NumOperands() int { return len(i.operands) }

// Operand returns the value at slot idx, or nil if that slot is unset.
func (i *Instruction) Operand(idx int) Value { return i.operands[idx] }

// SetOperand rewrites slot idx to newVal, detaching the old value's use
// (if tracked) and attaching newVal's use (if tracked). This is the only
// primitive that mutates operand slots; every other editing operation
// funnels through it so the use-list invariant in §3/§8 always holds.
func (i *Instruction) SetOperand(idx int, newVal Value) {
	old := i.operands[idx]
	if old == newVal {
		return
	}
	if tv, ok := asTracked(old); ok {
		removeUse(tv, i, idx)
	}
	i.operands[idx] = newVal
	if tv, ok := asTracked(newVal); ok {
		addUse(tv, i, idx)
	}
}

// appendOperand grows the operand/useLinks arrays by one slot and sets it
// via SetOperand, keeping the two arrays in lockstep.
func (i *Instruction) appendOperand(v Value) {
	i.operands = append(i.operands, nil)
	i.useLinks = append(i.useLinks, useLink{prevIdx: -1, nextIdx: -1})
	i.SetOperand(len(i.operands)-1, v)
}

// clearOperands detaches every operand's use, leaving the instruction with
// zero live operands. Used by Remove.
func (i *Instruction) clearOperands() {
	for idx := range i.operands {
		i.SetOperand(idx, nil)
	}
}

// ---- predicates (§3) ---------------------------------------------------

// HasSideEffects reports whether this instruction must be kept even if
// its result is unused.
func (i *Instruction) HasSideEffects() bool {
	switch i.kind {
	case InstStore, InstStoreVar, InstCall, InstThrow, InstRethrow,
		InstReturn, InstBranch, InstLeave:
		return true
	case InstMDArray:
		return i.mdOp == MDArraySet || i.mdOp == MDArraySizeCtor || i.mdOp == MDArrayRangeCtor
	default:
		return false
	}
}

// MayReadFromMemory reports whether this instruction may observe the
// heap/locals beyond its explicit operands.
func (i *Instruction) MayReadFromMemory() bool {
	switch i.kind {
	case InstLoad, InstLoadVar, InstCall:
		return true
	case InstMDArray:
		return i.mdOp == MDArrayGet
	default:
		return false
	}
}

// MayWriteToMemory reports whether this instruction may mutate the
// heap/locals beyond its explicit result.
func (i *Instruction) MayWriteToMemory() bool {
	switch i.kind {
	case InstStore, InstStoreVar, InstCall:
		return true
	case InstMDArray:
		return i.mdOp == MDArraySet || i.mdOp == MDArraySizeCtor || i.mdOp == MDArrayRangeCtor
	default:
		return false
	}
}

// SafeToRemove reports whether this instruction may be dropped by DCE
// when it has no users: no side effects and not a terminator or a
// GuardInst. A PhiInst with no users is removable.
func (i *Instruction) SafeToRemove() bool {
	if i.HasSideEffects() {
		return false
	}
	switch i.kind {
	case InstBranch, InstReturn, InstThrow, InstRethrow, InstLeave, InstGuard:
		return false
	default:
		return true
	}
}

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.kind {
	case InstBranch, InstReturn, InstThrow, InstRethrow, InstLeave:
		return true
	default:
		return false
	}
}

// IsHeader reports whether this instruction is a header instruction
// (PhiInst or GuardInst), which must precede all non-header instructions
// in its block (§3).
func (i *Instruction) IsHeader() bool {
	return i.kind == InstPhi || i.kind == InstGuard
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%s#%p", i.kind, i)
}

// ---- kind-specific accessors -------------------------------------------

func (i *Instruction) BinOp() BinOp     { return i.binOp }
func (i *Instruction) Left() Value      { return i.operands[0] }
func (i *Instruction) Right() Value     { return i.operands[1] }
func (i *Instruction) CmpOp() CmpOp     { return i.cmpOp }
func (i *Instruction) UnaryOp() UnaryOp { return i.unaryOp }
func (i *Instruction) UnaryOperand() Value { return i.operands[0] }

func (i *Instruction) Cond() Value          { return i.operands[0] }
func (i *Instruction) Then() *BasicBlock    { return i.branchThen }
func (i *Instruction) Else() *BasicBlock    { return i.branchElse }
func (i *Instruction) IsUnconditional() bool { return i.operands[0] == nil }

func (i *Instruction) NumPhiArgs() int { return len(i.phiPreds) }
func (i *Instruction) PhiArg(idx int) PhiArg {
	return PhiArg{Pred: i.phiPreds[idx], Value: i.operands[idx]}
}

// PhiValueForPred returns the incoming value for pred, and whether one
// exists.
func (i *Instruction) PhiValueForPred(pred *BasicBlock) (Value, bool) {
	for idx, p := range i.phiPreds {
		if p == pred {
			return i.operands[idx], true
		}
	}
	return nil, false
}

func (i *Instruction) Address() Value { return i.operands[0] }   // Load
func (i *Instruction) StoreAddress() Value { return i.operands[0] } // Store
func (i *Instruction) StoreValue() Value   { return i.operands[1] } // Store

func (i *Instruction) ArrayBase() Value  { return i.operands[0] } // ArrayAddr
func (i *Instruction) ArrayIndex() Value { return i.operands[1] } // ArrayAddr

func (i *Instruction) FieldBase() Value          { return i.operands[0] } // FieldAddr/ExtractField
func (i *Instruction) Field() types.FieldHandle   { return i.field }

func (i *Instruction) GuardKind() GuardKind           { return i.guardKind }
func (i *Instruction) GuardHandler() *BasicBlock      { return i.guardHandler }
func (i *Instruction) GuardFilter() *BasicBlock       { return i.guardFilter }
func (i *Instruction) GuardCatchType() *types.TypeHandle { return i.guardCatchType }

func (i *Instruction) Variable() *Variable { return i.variable } // StoreVar/LoadVar
func (i *Instruction) StoreVarValue() Value { return i.operands[0] }

func (i *Instruction) MDArrayOp() MDArrayOp { return i.mdOp }

func (i *Instruction) Intrinsic() CilIntrinsic  { return i.intrinsic }
func (i *Instruction) IntrinsicType() types.Type { return i.intrinsicTy }

func (i *Instruction) Callee() types.MethodHandle { return i.callee }
func (i *Instruction) IsVirtualCall() bool        { return i.isVirtual }
func (i *Instruction) IsNewObj() bool             { return i.isNewObj }
func (i *Instruction) Args() []Value              { return i.operands }

func (i *Instruction) ConvKind() ConvKind  { return i.convKind }
func (i *Instruction) ConvOperand() Value  { return i.operands[0] }

func (i *Instruction) ReturnValue() Value {
	if len(i.operands) == 0 {
		return nil
	}
	return i.operands[0]
}

func (i *Instruction) ThrowValue() Value { return i.operands[0] }

func (i *Instruction) LeaveTarget() *BasicBlock { return i.leaveTarget }

func (i *Instruction) NewArrayElemType() types.Type { return i.elemType }
func (i *Instruction) NewArrayLength() Value        { return i.operands[0] }

func (i *Instruction) MDArrayElemType() types.Type { return i.elemType }
