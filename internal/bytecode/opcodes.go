// Package bytecode defines the decoded input format the importer
// (internal/importer) consumes: a flat opcode stream plus a side
// exception-region table, kept deliberately close to ECMA-335 II.3/II.4/
// II.6 so the "CIL-style" framing holds (§4.4.1).
package bytecode

// OpCode enumerates the opcode categories the importer understands.
// Anything decoded outside this set is reported as InvalidInput (§7)
// rather than silently accepted — this table is deliberately partial,
// not an attempt at exhaustive ECMA-335 coverage.
type OpCode byte

const (
	// Stack manipulation
	OpDup OpCode = iota
	OpPop

	// Constant loads
	OpLdcI4
	OpLdcI8
	OpLdcR4
	OpLdcR8
	OpLdStr
	OpLdNull

	// Arithmetic / bitwise / compare
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpNot
	OpCeq
	OpCgt
	OpClt

	// Locals / arguments
	OpLdloc
	OpStloc
	OpLdarg
	OpStarg
	OpLdloca
	OpLdarga

	// Control flow
	OpBr
	OpBrTrue
	OpBrFalse
	OpSwitch
	OpRet
	OpThrow
	OpRethrow
	OpLeave

	// Fields
	OpLdfld
	OpStfld
	OpLdflda
	OpLdsfld
	OpStsfld

	// Arrays
	OpNewarr
	OpLdlen
	OpLdelem
	OpStelem
	OpLdelema

	// Calls
	OpCall
	OpCallvirt
	OpNewobj

	// Casts / conversions
	OpCastclass
	OpIsinst
	OpBox
	OpUnbox
	OpConv
)

var opcodeNames = map[OpCode]string{
	OpDup: "dup", OpPop: "pop",
	OpLdcI4: "ldc.i4", OpLdcI8: "ldc.i8", OpLdcR4: "ldc.r4", OpLdcR8: "ldc.r8",
	OpLdStr: "ldstr", OpLdNull: "ldnull",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem",
	OpNeg: "neg", OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpShr: "shr",
	OpNot: "not", OpCeq: "ceq", OpCgt: "cgt", OpClt: "clt",
	OpLdloc: "ldloc", OpStloc: "stloc", OpLdarg: "ldarg", OpStarg: "starg",
	OpLdloca: "ldloca", OpLdarga: "ldarga",
	OpBr: "br", OpBrTrue: "brtrue", OpBrFalse: "brfalse", OpSwitch: "switch",
	OpRet: "ret", OpThrow: "throw", OpRethrow: "rethrow", OpLeave: "leave",
	OpLdfld: "ldfld", OpStfld: "stfld", OpLdflda: "ldflda",
	OpLdsfld: "ldsfld", OpStsfld: "stsfld",
	OpNewarr: "newarr", OpLdlen: "ldlen", OpLdelem: "ldelem", OpStelem: "stelem",
	OpLdelema: "ldelema",
	OpCall: "call", OpCallvirt: "callvirt", OpNewobj: "newobj",
	OpCastclass: "castclass", OpIsinst: "isinst", OpBox: "box", OpUnbox: "unbox",
	OpConv: "conv",
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsTerminator reports whether this opcode ends a basic block.
func (op OpCode) IsTerminator() bool {
	switch op {
	case OpBr, OpBrTrue, OpBrFalse, OpSwitch, OpRet, OpThrow, OpRethrow, OpLeave:
		return true
	default:
		return false
	}
}

// IsBranch reports whether this opcode carries one or more branch targets.
func (op OpCode) IsBranch() bool {
	switch op {
	case OpBr, OpBrTrue, OpBrFalse, OpSwitch:
		return true
	default:
		return false
	}
}
