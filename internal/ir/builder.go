package ir

import "cilopt/internal/types"

// This file is the only place *Instruction values come into existence.
// Every constructor below allocates the struct, sizes its operand/use-link
// arrays, and wires operands through appendOperand so the use-list
// invariant holds from the moment the instruction exists — it is not yet
// attached to a block; callers attach it with Append/InsertBefore/
// InsertAfter/InsertAnteLast.

func newInst(kind InstKind, resultType types.Type) *Instruction {
	return &Instruction{kind: kind, resultType: resultType}
}

func NewBinary(op BinOp, resultType types.Type, lhs, rhs Value) *Instruction {
	i := newInst(InstBinary, resultType)
	i.binOp = op
	i.appendOperand(lhs)
	i.appendOperand(rhs)
	return i
}

func NewCompare(op CmpOp, resultType types.Type, lhs, rhs Value) *Instruction {
	i := newInst(InstCompare, resultType)
	i.cmpOp = op
	i.appendOperand(lhs)
	i.appendOperand(rhs)
	return i
}

func NewUnary(op UnaryOp, resultType types.Type, operand Value) *Instruction {
	i := newInst(InstUnary, resultType)
	i.unaryOp = op
	i.appendOperand(operand)
	return i
}

// NewBranch builds an unconditional jump when cond is nil, a conditional
// branch otherwise.
func NewBranch(cond Value, then, els *BasicBlock) *Instruction {
	i := newInst(InstBranch, nil)
	i.appendOperand(cond)
	i.branchThen = then
	i.branchElse = els
	return i
}

// NewPhi builds an empty phi; arguments are added with AddPhiArg as each
// predecessor's incoming value becomes known.
func NewPhi(resultType types.Type) *Instruction {
	return newInst(InstPhi, resultType)
}

func NewLoad(resultType types.Type, addr Value) *Instruction {
	i := newInst(InstLoad, resultType)
	i.appendOperand(addr)
	return i
}

func NewStore(addr, val Value) *Instruction {
	i := newInst(InstStore, nil)
	i.appendOperand(addr)
	i.appendOperand(val)
	return i
}

func NewArrayAddr(resultType types.Type, base, index Value) *Instruction {
	i := newInst(InstArrayAddr, resultType)
	i.appendOperand(base)
	i.appendOperand(index)
	return i
}

func NewFieldAddr(resultType types.Type, base Value, field types.FieldHandle) *Instruction {
	i := newInst(InstFieldAddr, resultType)
	i.appendOperand(base)
	i.field = field
	return i
}

func NewExtractField(resultType types.Type, base Value, field types.FieldHandle) *Instruction {
	i := newInst(InstExtractField, resultType)
	i.appendOperand(base)
	i.field = field
	return i
}

// NewGuard builds a header instruction marking entry into a protected
// region. filter is non-nil only for GuardCatch with an exception filter
// (§4.4 step 4).
func NewGuard(kind GuardKind, handler, filter *BasicBlock, catchType *types.TypeHandle) *Instruction {
	i := newInst(InstGuard, nil)
	i.guardKind = kind
	i.guardHandler = handler
	i.guardFilter = filter
	i.guardCatchType = catchType
	return i
}

func NewStoreVar(v *Variable, val Value) *Instruction {
	i := newInst(InstStoreVar, nil)
	i.variable = v
	i.appendOperand(val)
	return i
}

func NewLoadVar(v *Variable) *Instruction {
	i := newInst(InstLoadVar, v.ResultType())
	i.variable = v
	return i
}

// NewMDArraySizeCtor/NewMDArrayRangeCtor/NewMDArrayGet/NewMDArraySet/
// NewMDArrayAddress cover the five multi-dim-array shapes (§3). dims holds
// the per-dimension size (size-ctor) or lower/length pairs (range-ctor) or
// index operands (get/set/address); array is operand 0 except for the two
// constructor ops, which have no base array operand.

func NewMDArraySizeCtor(resultType, elemType types.Type, dims []Value) *Instruction {
	i := newInst(InstMDArray, resultType)
	i.mdOp = MDArraySizeCtor
	i.elemType = elemType
	for _, d := range dims {
		i.appendOperand(d)
	}
	return i
}

func NewMDArrayRangeCtor(resultType, elemType types.Type, lowerUpper []Value) *Instruction {
	i := newInst(InstMDArray, resultType)
	i.mdOp = MDArrayRangeCtor
	i.elemType = elemType
	for _, v := range lowerUpper {
		i.appendOperand(v)
	}
	return i
}

func NewMDArrayGet(resultType, elemType types.Type, array Value, indices []Value) *Instruction {
	i := newInst(InstMDArray, resultType)
	i.mdOp = MDArrayGet
	i.elemType = elemType
	i.appendOperand(array)
	for _, idx := range indices {
		i.appendOperand(idx)
	}
	return i
}

func NewMDArraySet(elemType types.Type, array Value, indices []Value, val Value) *Instruction {
	i := newInst(InstMDArray, nil)
	i.mdOp = MDArraySet
	i.elemType = elemType
	i.appendOperand(array)
	for _, idx := range indices {
		i.appendOperand(idx)
	}
	i.appendOperand(val)
	return i
}

func NewMDArrayAddress(resultType, elemType types.Type, array Value, indices []Value) *Instruction {
	i := newInst(InstMDArray, resultType)
	i.mdOp = MDArrayAddress
	i.elemType = elemType
	i.appendOperand(array)
	for _, idx := range indices {
		i.appendOperand(idx)
	}
	return i
}

func NewIntrinsicArrayLen(resultType types.Type, array Value) *Instruction {
	i := newInst(InstIntrinsicCall, resultType)
	i.intrinsic = IntrinsicArrayLen
	i.appendOperand(array)
	return i
}

func NewIntrinsicSizeOf(resultType types.Type, operandType types.Type) *Instruction {
	i := newInst(InstIntrinsicCall, resultType)
	i.intrinsic = IntrinsicSizeOf
	i.intrinsicTy = operandType
	return i
}

func NewCall(resultType types.Type, callee types.MethodHandle, args []Value, isVirtual, isNewObj bool) *Instruction {
	i := newInst(InstCall, resultType)
	i.callee = callee
	i.isVirtual = isVirtual
	i.isNewObj = isNewObj
	for _, a := range args {
		i.appendOperand(a)
	}
	return i
}

func NewConvert(kind ConvKind, resultType types.Type, operand Value) *Instruction {
	i := newInst(InstConvert, resultType)
	i.convKind = kind
	i.appendOperand(operand)
	return i
}

func NewNewArray(resultType, elemType types.Type, length Value) *Instruction {
	i := newInst(InstNewArray, resultType)
	i.elemType = elemType
	i.appendOperand(length)
	return i
}

// NewReturn builds a return; val is nil for a void method.
func NewReturn(val Value) *Instruction {
	i := newInst(InstReturn, nil)
	if val != nil {
		i.appendOperand(val)
	}
	return i
}

func NewThrow(val Value) *Instruction {
	i := newInst(InstThrow, nil)
	i.appendOperand(val)
	return i
}

func NewRethrow() *Instruction {
	return newInst(InstRethrow, nil)
}

func NewLeave(target *BasicBlock) *Instruction {
	i := newInst(InstLeave, nil)
	i.leaveTarget = target
	return i
}
