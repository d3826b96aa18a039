package printer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"cilopt/internal/ir"
)

// Print renders mb as text: blocks in the layout order MethodBody.Blocks
// returns, each block's header instructions
// (phis, guards) printed before its body, terminator last, followed by a
// summary footer.
func Print(mb *ir.MethodBody) string {
	p := &printer{st: NewSymbolTable()}
	p.printBody(mb)
	return p.out.String()
}

type printer struct {
	out strings.Builder
	st  *SymbolTable
}

func (p *printer) printBody(mb *ir.MethodBody) {
	fmt.Fprintf(&p.out, "method %s(", mb.Name)
	for i, a := range mb.Args {
		if i > 0 {
			p.out.WriteString(", ")
		}
		fmt.Fprintf(&p.out, "%s: %s", p.st.NameOf(a), a.ResultType())
	}
	p.out.WriteString(") {\n")

	var instCount, useTotal int
	for _, blk := range mb.Blocks() {
		fmt.Fprintf(&p.out, "%s:", blk.Name())
		if len(blk.Preds()) > 0 {
			p.out.WriteString("  ; preds=")
			for i, pred := range blk.Preds() {
				if i > 0 {
					p.out.WriteString(", ")
				}
				p.out.WriteString(pred.Name())
			}
		}
		p.out.WriteString("\n")
		for _, inst := range blk.Instructions() {
			p.out.WriteString("  ")
			p.printInstruction(inst)
			p.out.WriteString("\n")
			instCount++
			useTotal += inst.NumUses()
		}
	}
	p.out.WriteString("}\n")

	fmt.Fprintf(&p.out, "; %s block(s), %s instruction(s), %s use(s)\n",
		humanize.Comma(int64(len(mb.Blocks()))),
		humanize.Comma(int64(instCount)),
		humanize.Comma(int64(useTotal)))
}

func (p *printer) printInstruction(inst *ir.Instruction) {
	v := func(val ir.Value) string { return p.st.NameOf(val) }
	name := func() string {
		if inst.IsVoid() {
			return ""
		}
		return p.st.NameOf(inst) + " = "
	}

	switch inst.Kind() {
	case ir.InstBinary:
		fmt.Fprintf(&p.out, "%s%s %s, %s", name(), binOpName(inst.BinOp()), v(inst.Left()), v(inst.Right()))
	case ir.InstCompare:
		fmt.Fprintf(&p.out, "%scmp.%s %s, %s", name(), cmpOpName(inst.CmpOp()), v(inst.Left()), v(inst.Right()))
	case ir.InstUnary:
		fmt.Fprintf(&p.out, "%s%s %s", name(), unaryOpName(inst.UnaryOp()), v(inst.UnaryOperand()))
	case ir.InstBranch:
		if inst.IsUnconditional() {
			fmt.Fprintf(&p.out, "br %s", inst.Then().Name())
		} else {
			fmt.Fprintf(&p.out, "br %s, %s, %s", v(inst.Cond()), inst.Then().Name(), inst.Else().Name())
		}
	case ir.InstPhi:
		args := make([]string, inst.NumPhiArgs())
		for i := 0; i < inst.NumPhiArgs(); i++ {
			a := inst.PhiArg(i)
			args[i] = fmt.Sprintf("[%s: %s]", a.Pred.Name(), v(a.Value))
		}
		fmt.Fprintf(&p.out, "%sphi %s", name(), strings.Join(args, ", "))
	case ir.InstLoad:
		fmt.Fprintf(&p.out, "%sload %s", name(), v(inst.Address()))
	case ir.InstStore:
		fmt.Fprintf(&p.out, "store %s, %s", v(inst.StoreAddress()), v(inst.StoreValue()))
	case ir.InstArrayAddr:
		fmt.Fprintf(&p.out, "%sarrayaddr %s[%s]", name(), v(inst.ArrayBase()), v(inst.ArrayIndex()))
	case ir.InstFieldAddr:
		fmt.Fprintf(&p.out, "%sfieldaddr %s.%s", name(), v(inst.FieldBase()), inst.Field().Name)
	case ir.InstExtractField:
		fmt.Fprintf(&p.out, "%sextractfield %s.%s", name(), v(inst.FieldBase()), inst.Field().Name)
	case ir.InstGuard:
		switch inst.GuardKind() {
		case ir.GuardCatch:
			ct := "?"
			if t := inst.GuardCatchType(); t != nil {
				ct = t.Name
			}
			fmt.Fprintf(&p.out, "guard.catch %s -> %s", ct, inst.GuardHandler().Name())
		default:
			fmt.Fprintf(&p.out, "guard.%s -> %s", inst.GuardKind(), inst.GuardHandler().Name())
		}
	case ir.InstStoreVar:
		fmt.Fprintf(&p.out, "storevar %s, %s", v(inst.Variable()), v(inst.StoreVarValue()))
	case ir.InstLoadVar:
		fmt.Fprintf(&p.out, "%sloadvar %s", name(), v(inst.Variable()))
	case ir.InstMDArray:
		fmt.Fprintf(&p.out, "%smdarray.%d %s", name(), inst.MDArrayOp(), argList(v, inst.Args()))
	case ir.InstIntrinsicCall:
		fmt.Fprintf(&p.out, "%sintrinsic.%s %s", name(), inst.Intrinsic(), argList(v, inst.Args()))
	case ir.InstCall:
		op := "call"
		if inst.IsNewObj() {
			op = "newobj"
		} else if inst.IsVirtualCall() {
			op = "callvirt"
		}
		fmt.Fprintf(&p.out, "%s%s %s(%s)", name(), op, inst.Callee().String(), argList(v, inst.Args()))
	case ir.InstConvert:
		fmt.Fprintf(&p.out, "%sconvert.%s %s", name(), convKindName(inst.ConvKind()), v(inst.ConvOperand()))
	case ir.InstNewArray:
		fmt.Fprintf(&p.out, "%snewarr %s[%s]", name(), inst.NewArrayElemType(), v(inst.NewArrayLength()))
	case ir.InstReturn:
		if rv := inst.ReturnValue(); rv != nil {
			fmt.Fprintf(&p.out, "ret %s", v(rv))
		} else {
			p.out.WriteString("ret")
		}
	case ir.InstThrow:
		fmt.Fprintf(&p.out, "throw %s", v(inst.ThrowValue()))
	case ir.InstRethrow:
		p.out.WriteString("rethrow")
	case ir.InstLeave:
		fmt.Fprintf(&p.out, "leave %s", inst.LeaveTarget().Name())
	default:
		fmt.Fprintf(&p.out, "<%s>", inst.Kind())
	}
}

func argList(v func(ir.Value) string, args []ir.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = v(a)
	}
	return strings.Join(parts, ", ")
}

func binOpName(op ir.BinOp) string {
	switch op {
	case ir.BinAdd:
		return "add"
	case ir.BinSub:
		return "sub"
	case ir.BinMul:
		return "mul"
	case ir.BinDiv:
		return "div"
	case ir.BinRem:
		return "rem"
	case ir.BinAnd:
		return "and"
	case ir.BinOr:
		return "or"
	case ir.BinXor:
		return "xor"
	case ir.BinShl:
		return "shl"
	case ir.BinShr:
		return "shr"
	default:
		return "?"
	}
}

func cmpOpName(op ir.CmpOp) string {
	switch op {
	case ir.CmpEq:
		return "eq"
	case ir.CmpNe:
		return "ne"
	case ir.CmpGt:
		return "gt"
	case ir.CmpLt:
		return "lt"
	case ir.CmpGe:
		return "ge"
	case ir.CmpLe:
		return "le"
	default:
		return "?"
	}
}

func unaryOpName(op ir.UnaryOp) string {
	switch op {
	case ir.UnaryNeg:
		return "neg"
	case ir.UnaryNot:
		return "not"
	default:
		return "?"
	}
}

func convKindName(k ir.ConvKind) string {
	switch k {
	case ir.ConvNumeric:
		return "numeric"
	case ir.ConvCastClass:
		return "castclass"
	case ir.ConvIsInst:
		return "isinst"
	case ir.ConvBox:
		return "box"
	case ir.ConvUnbox:
		return "unbox"
	default:
		return "?"
	}
}
