package importer

import (
	"cilopt/internal/bytecode"
	cilerr "cilopt/internal/errors"
	"cilopt/internal/ir"
	"cilopt/internal/types"
)

// step abstract-interprets a single decoded instruction against bc's
// evaluation stack, per §4.4 step 6 and the opcode coverage in §4.4.1.
// Opcodes outside that coverage report InvalidInput, and Switch, for which
// the IR has no N-way branch, reports UnsupportedConstruct; neither panics
// (§7).
func (m *machine) step(bc *blockCtx, inst bytecode.Instruction) error {
	switch inst.OpCode {

	case bytecode.OpDup:
		v, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(v)
		bc.push(v)

	case bytecode.OpPop:
		_, err := bc.pop()
		return err

	case bytecode.OpLdcI4, bytecode.OpLdcI8:
		iv, ok := inst.Operand.(bytecode.IntOperand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires an int operand", inst.OpCode)
		}
		typ := types.Int32
		if inst.OpCode == bytecode.OpLdcI8 {
			typ = types.Int64
		}
		bc.push(ir.Value(m.mb.ConstInt(typ, int64(iv))))

	case bytecode.OpLdcR4, bytecode.OpLdcR8:
		fv, ok := inst.Operand.(bytecode.FloatOperand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires a float operand", inst.OpCode)
		}
		typ := types.Float32
		if inst.OpCode == bytecode.OpLdcR8 {
			typ = types.Float64
		}
		bc.push(ir.Value(m.mb.ConstFloat(typ, float64(fv))))

	case bytecode.OpLdStr:
		sv, ok := inst.Operand.(bytecode.StringOperand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldstr requires a string operand")
		}
		bc.push(ir.Value(m.mb.ConstString(string(sv))))

	case bytecode.OpLdNull:
		bc.push(ir.Value(m.mb.ConstNull(types.Object)))

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem,
		bytecode.OpAnd, bytecode.OpOr, bytecode.OpXor, bytecode.OpShl, bytecode.OpShr:
		rhs, err := bc.pop()
		if err != nil {
			return err
		}
		lhs, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewBinary(binOpFor(inst.OpCode), lhs.ResultType(), lhs, rhs))))

	case bytecode.OpNeg, bytecode.OpNot:
		v, err := bc.pop()
		if err != nil {
			return err
		}
		op := ir.UnaryNeg
		if inst.OpCode == bytecode.OpNot {
			op = ir.UnaryNot
		}
		bc.push(ir.Value(bc.emit(ir.NewUnary(op, v.ResultType(), v))))

	case bytecode.OpCeq, bytecode.OpCgt, bytecode.OpClt:
		rhs, err := bc.pop()
		if err != nil {
			return err
		}
		lhs, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewCompare(cmpOpFor(inst.OpCode), types.Int32, lhs, rhs))))

	case bytecode.OpLdloc:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldloc requires a slot operand")
		}
		bc.push(m.readLocal(bc, slot))

	case bytecode.OpStloc:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "stloc requires a slot operand")
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		m.writeLocal(bc, slot, v)

	case bytecode.OpLdloca:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldloca requires a slot operand")
		}
		v := m.localVariable(slot)
		bc.push(ir.Value(v))

	case bytecode.OpLdarg:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldarg requires a slot operand")
		}
		if v, ok := m.argSlots[slot]; ok {
			bc.push(ir.Value(bc.emit(ir.NewLoadVar(v))))
		} else if slot >= 0 && slot < len(m.mb.Args) {
			bc.push(ir.Value(m.mb.Args[slot]))
		} else {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldarg: slot %d out of range", slot)
		}

	case bytecode.OpStarg:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "starg requires a slot operand")
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		if vv, ok := m.argSlots[slot]; ok {
			bc.block.InsertAnteLast(ir.NewStoreVar(vv, v))
		}

	case bytecode.OpLdarga:
		slot, ok := slotOperand(inst.Operand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldarga requires a slot operand")
		}
		if v, ok := m.argSlots[slot]; ok {
			bc.push(ir.Value(v))
		} else {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "ldarga: slot %d was not materialized", slot)
		}

	case bytecode.OpBr:
		target, err := branchTarget(inst)
		if err != nil {
			return err
		}
		bc.block.Append(ir.NewBranch(nil, m.byOffset[target], nil))

	case bytecode.OpBrTrue, bytecode.OpBrFalse:
		target, err := branchTarget(inst)
		if err != nil {
			return err
		}
		cond, err := bc.pop()
		if err != nil {
			return err
		}
		fallthroughOff, ok := m.fallthroughOf(inst)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "%s has no fallthrough successor", inst.OpCode)
		}
		then, els := m.byOffset[target], m.byOffset[fallthroughOff]
		if inst.OpCode == bytecode.OpBrFalse {
			then, els = els, then
		}
		bc.block.Append(ir.NewBranch(cond, then, els))

	case bytecode.OpRet:
		if len(bc.stack) > 0 {
			v, err := bc.pop()
			if err != nil {
				return err
			}
			bc.block.Append(ir.NewReturn(v))
		} else {
			bc.block.Append(ir.NewReturn(nil))
		}

	case bytecode.OpThrow:
		v, err := bc.pop()
		if err != nil {
			return err
		}
		bc.block.Append(ir.NewThrow(v))

	case bytecode.OpRethrow:
		bc.block.Append(ir.NewRethrow())

	case bytecode.OpLeave:
		target, err := branchTarget(inst)
		if err != nil {
			return err
		}
		bc.block.Append(ir.NewLeave(m.byOffset[target]))

	case bytecode.OpNewarr:
		elemType, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		length, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewNewArray(m.provider.GetSZArrayType(elemType), elemType, length))))

	case bytecode.OpLdlen:
		arr, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewIntrinsicArrayLen(types.Int32, arr))))

	case bytecode.OpLdelem:
		elemType, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		idx, err := bc.pop()
		if err != nil {
			return err
		}
		arr, err := bc.pop()
		if err != nil {
			return err
		}
		addr := bc.emit(ir.NewArrayAddr(m.provider.GetByReferenceType(elemType), arr, idx))
		bc.push(ir.Value(bc.emit(ir.NewLoad(elemType, ir.Value(addr)))))

	case bytecode.OpStelem:
		elemType, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		val, err := bc.pop()
		if err != nil {
			return err
		}
		idx, err := bc.pop()
		if err != nil {
			return err
		}
		arr, err := bc.pop()
		if err != nil {
			return err
		}
		addr := ir.NewArrayAddr(m.provider.GetByReferenceType(elemType), arr, idx)
		bc.block.Append(addr)
		bc.block.Append(ir.NewStore(ir.Value(addr), val))

	case bytecode.OpLdelema:
		elemType, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		idx, err := bc.pop()
		if err != nil {
			return err
		}
		arr, err := bc.pop()
		if err != nil {
			return err
		}
		addr := ir.NewArrayAddr(m.provider.GetByReferenceType(elemType), arr, idx)
		bc.block.Append(addr)
		bc.push(ir.Value(addr))

	case bytecode.OpLdfld, bytecode.OpLdsfld:
		field, err := memberFieldOperand(inst)
		if err != nil {
			return err
		}
		var base ir.Value
		if inst.OpCode == bytecode.OpLdfld {
			base, err = bc.pop()
			if err != nil {
				return err
			}
		}
		bc.push(ir.Value(bc.emit(ir.NewExtractField(field.FieldType, base, field))))

	case bytecode.OpStfld, bytecode.OpStsfld:
		field, err := memberFieldOperand(inst)
		if err != nil {
			return err
		}
		val, err := bc.pop()
		if err != nil {
			return err
		}
		var base ir.Value
		if inst.OpCode == bytecode.OpStfld {
			base, err = bc.pop()
			if err != nil {
				return err
			}
		}
		addr := ir.NewFieldAddr(m.provider.GetByReferenceType(field.FieldType), base, field)
		bc.block.Append(addr)
		bc.block.Append(ir.NewStore(ir.Value(addr), val))

	case bytecode.OpLdflda:
		field, err := memberFieldOperand(inst)
		if err != nil {
			return err
		}
		base, err := bc.pop()
		if err != nil {
			return err
		}
		addr := ir.NewFieldAddr(m.provider.GetByReferenceType(field.FieldType), base, field)
		bc.block.Append(addr)
		bc.push(ir.Value(addr))

	case bytecode.OpCall, bytecode.OpCallvirt, bytecode.OpNewobj:
		method, err := memberMethodOperand(inst)
		if err != nil {
			return err
		}
		n := len(method.Signature.Params)
		if inst.OpCode != bytecode.OpNewobj {
			n++ // receiver, for an instance call
		}
		args := make([]ir.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := bc.pop()
			if err != nil {
				return err
			}
			args[i] = v
		}
		resultType := method.Signature.Return
		if inst.OpCode == bytecode.OpNewobj {
			resultType = method.DeclaringType
		}
		call := ir.NewCall(resultType, method, args, inst.OpCode == bytecode.OpCallvirt, inst.OpCode == bytecode.OpNewobj)
		bc.block.Append(call)
		if !call.IsVoid() {
			bc.push(ir.Value(call))
		}

	case bytecode.OpCastclass, bytecode.OpIsinst:
		target, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		kind := ir.ConvCastClass
		if inst.OpCode == bytecode.OpIsinst {
			kind = ir.ConvIsInst
		}
		bc.push(ir.Value(bc.emit(ir.NewConvert(kind, target, v))))

	case bytecode.OpBox:
		target, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewConvert(ir.ConvBox, target, v))))

	case bytecode.OpUnbox:
		target, err := memberTypeOperand(inst)
		if err != nil {
			return err
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewConvert(ir.ConvUnbox, target, v))))

	case bytecode.OpConv:
		conv, ok := inst.Operand.(bytecode.ConvOperand)
		if !ok {
			return cilerr.At(cilerr.InvalidInput, inst.Offset, "conv requires a ConvOperand")
		}
		v, err := bc.pop()
		if err != nil {
			return err
		}
		bc.push(ir.Value(bc.emit(ir.NewConvert(conv.Kind, conv.Target, v))))

	case bytecode.OpSwitch:
		return cilerr.At(cilerr.UnsupportedConstruct, inst.Offset, "opcode %s is not handled by this importer", inst.OpCode)

	default:
		return cilerr.At(cilerr.InvalidInput, inst.Offset, "unknown opcode %s", inst.OpCode)
	}
	return nil
}

func binOpFor(op bytecode.OpCode) ir.BinOp {
	switch op {
	case bytecode.OpAdd:
		return ir.BinAdd
	case bytecode.OpSub:
		return ir.BinSub
	case bytecode.OpMul:
		return ir.BinMul
	case bytecode.OpDiv:
		return ir.BinDiv
	case bytecode.OpRem:
		return ir.BinRem
	case bytecode.OpAnd:
		return ir.BinAnd
	case bytecode.OpOr:
		return ir.BinOr
	case bytecode.OpXor:
		return ir.BinXor
	case bytecode.OpShl:
		return ir.BinShl
	case bytecode.OpShr:
		return ir.BinShr
	default:
		return ir.BinAdd
	}
}

func cmpOpFor(op bytecode.OpCode) ir.CmpOp {
	switch op {
	case bytecode.OpCeq:
		return ir.CmpEq
	case bytecode.OpCgt:
		return ir.CmpGt
	case bytecode.OpClt:
		return ir.CmpLt
	default:
		return ir.CmpEq
	}
}

func branchTarget(inst bytecode.Instruction) (int, error) {
	bt, ok := inst.Operand.(bytecode.BranchTarget)
	if !ok {
		return 0, cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires a branch target operand", inst.OpCode)
	}
	return int(bt), nil
}

func memberTypeOperand(inst bytecode.Instruction) (types.Type, error) {
	tok, ok := inst.Operand.(bytecode.MemberToken)
	if !ok || tok.Type == nil {
		return nil, cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires a type token", inst.OpCode)
	}
	return types.Def(*tok.Type), nil
}

func memberFieldOperand(inst bytecode.Instruction) (types.FieldHandle, error) {
	tok, ok := inst.Operand.(bytecode.MemberToken)
	if !ok || tok.Field == nil {
		return types.FieldHandle{}, cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires a field token", inst.OpCode)
	}
	return *tok.Field, nil
}

func memberMethodOperand(inst bytecode.Instruction) (types.MethodHandle, error) {
	tok, ok := inst.Operand.(bytecode.MemberToken)
	if !ok || tok.Method == nil {
		return types.MethodHandle{}, cilerr.At(cilerr.InvalidInput, inst.Offset, "%s requires a method token", inst.OpCode)
	}
	return *tok.Method, nil
}

// fallthroughOf returns the offset of the instruction physically
// following inst in the stream, if any.
func (m *machine) fallthroughOf(inst bytecode.Instruction) (int, bool) {
	for i, in := range m.stream.Instructions {
		if in.Offset == inst.Offset {
			if i+1 < len(m.stream.Instructions) {
				return m.stream.Instructions[i+1].Offset, true
			}
			return 0, false
		}
	}
	return 0, false
}

// readLocal resolves a non-exposed local's current SSA value within a
// block, either from this block's own prior store or by reaching back
// through readLocalEntry, and for exposed locals via its backing Variable.
func (m *machine) readLocal(bc *blockCtx, slot int) ir.Value {
	if flags, ok := m.localFlags[slot]; ok && (flags.Has(ir.VarAddrTaken) || flags.Has(ir.VarCrossesRegions)) {
		return ir.Value(bc.emit(ir.NewLoadVar(m.localVariable(slot))))
	}
	if v, ok := bc.current[slot]; ok {
		return v
	}
	v := m.readLocalEntry(bc.offset, slot, m.localType(slot))
	bc.current[slot] = v
	return v
}

func (m *machine) writeLocal(bc *blockCtx, slot int, v ir.Value) {
	if flags, ok := m.localFlags[slot]; ok && (flags.Has(ir.VarAddrTaken) || flags.Has(ir.VarCrossesRegions)) {
		bc.block.InsertAnteLast(ir.NewStoreVar(m.localVariable(slot), v))
		return
	}
	bc.current[slot] = v
}
