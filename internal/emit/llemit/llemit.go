// Package llemit is the `-backend=llvm` emitter: a textual low-level IR
// in the same family as LLVM assembly, consuming exactly the same
// internal/lowir.Program + internal/typecheck.Program contract as
// internal/emit/cemit. Global/local naming (`@name` for functions,
// `%t<n>` for instruction results, `%p<n>` for parameters, `L<n>:` for
// block labels) follows the `llir/l`
// textual-IR conventions surfaced by the mewmew-l-tm/asm reference
// assembler in the retrieval pack.
package llemit

import (
	"fmt"
	"io"
	"math"
	"sort"

	"vellum/internal/lowir"
	"vellum/internal/typecheck"
	"vellum/internal/types"
)

// Emit prints a textual low-level-IR module for prog/low to w.
func Emit(w io.Writer, prog *typecheck.Program, low *lowir.Program) error {
	e := &emitter{w: w, prog: prog, low: low}
	e.printf("; generated by vellumc -backend=llvm\n\n")

	names := make([]string, 0, len(low.Bounds))
	for name := range low.Bounds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.emitFunc(name); err != nil {
			return err
		}
	}
	return e.err
}

type emitter struct {
	w    io.Writer
	prog *typecheck.Program
	low  *lowir.Program
	err  error
}

func (e *emitter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = err
	}
}

func (e *emitter) declFor(mangled string) *typecheck.FuncDecl {
	for _, d := range e.prog.Funcs {
		if e.prog.Strs.Get(d.MangledName) == mangled {
			return d
		}
	}
	return nil
}

func (e *emitter) emitFunc(mangled string) error {
	b := e.low.Bounds[mangled]
	d := e.declFor(mangled)
	ret := "void"
	paramCount := 0
	if d != nil {
		ret = llType(e.prog.Types, d.RetType)
		paramCount = len(d.ParamTypes)
	}

	params := make([]string, paramCount)
	for i := range params {
		pt := "i64"
		if d != nil {
			pt = llType(e.prog.Types, d.ParamTypes[i])
		}
		params[i] = fmt.Sprintf("%s %%p%d", pt, i)
	}
	e.printf("define %s @%s(%s) {\n", ret, mangled, join(params))

	targets := map[lowir.InstrID]bool{0: true}
	for i := b.Start; i < b.End; i++ {
		in := e.low.Get(i)
		if in.Op == lowir.OpBr {
			targets[in.Operand] = true
		}
		if in.Op == lowir.OpBrIfNot {
			targets[in.Operand2] = true
		}
	}

	for i := b.Start; i < b.End; i++ {
		in := e.low.Get(i)
		if targets[i] {
			e.printf("L%d:\n", i)
		}
		e.emitInstr(i, in)
	}
	e.printf("}\n\n")
	return e.err
}

func (e *emitter) ref(id lowir.InstrID) string {
	if id == lowir.NoInstr {
		return "0"
	}
	in := e.low.Get(id)
	if in.Op == lowir.OpParam {
		return fmt.Sprintf("%%p%d", in.Index)
	}
	return fmt.Sprintf("%%t%d", id)
}

func (e *emitter) emitInstr(id lowir.InstrID, in lowir.Instr) {
	ty := llType(e.prog.Types, in.Type)
	assign := func(rhs string) { e.printf("  %s = %s\n", e.ref(id), rhs) }

	switch in.Op {
	case lowir.OpAlloc:
		assign(fmt.Sprintf("alloca %s", ty))
	case lowir.OpAssign:
		e.printf("  store %s %s, ptr %s\n", ty, e.ref(in.Operand2), e.ref(in.Operand))
	case lowir.OpAddress:
		assign(fmt.Sprintf("ptrtoint ptr %s to %s", e.ref(in.Operand), ty))
	case lowir.OpDeref:
		assign(fmt.Sprintf("load %s, ptr %s", ty, e.ref(in.Operand)))
	case lowir.OpBinary:
		assign(fmt.Sprintf("%s %s %s, %s", binOpMnemonic(in.Index, ty), ty, e.ref(in.Operand), e.ref(in.Operand2)))
	case lowir.OpUnary:
		assign(fmt.Sprintf("%s %s %s", unOpMnemonic(in.Index), ty, e.ref(in.Operand)))
	case lowir.OpBr:
		e.printf("  br label %%L%d\n", in.Operand)
	case lowir.OpBrIfNot:
		e.printf("  br i1 %s, label %%Lfall%d, label %%L%d\nLfall%d:\n", e.ref(in.Operand), id, in.Operand2, id)
	case lowir.OpGEP, lowir.OpFieldIndex:
		assign(fmt.Sprintf("getelementptr i8, ptr %s, i64 %d", e.ref(in.Operand), in.Index))
	case lowir.OpPtrAdd:
		assign(fmt.Sprintf("getelementptr i8, ptr %s, i64 %s", e.ref(in.Operand), e.ref(in.Operand2)))
	case lowir.OpNewSlice:
		assign(fmt.Sprintf("insertvalue %s undef, i64 %s, 0 ; data=%s", ty, e.ref(in.Operand), e.ref(in.Operand2)))
	case lowir.OpCast:
		assign(fmt.Sprintf("%s %s %s to %s", castMnemonic(e.prog.Types, in.Index, in.Type), srcTypeName(e.prog.Types, in.Index), e.ref(in.Operand), ty))
	case lowir.OpZeroExtend:
		assign(fmt.Sprintf("zext %s %s to %s", srcTypeName(e.prog.Types, in.Index), e.ref(in.Operand), ty))
	case lowir.OpConstInt:
		assign(fmt.Sprintf("add %s 0, %d", ty, int64(lowir.Imm64Join(in.Lo, in.Hi))))
	case lowir.OpConstFloat:
		assign(fmt.Sprintf("fadd %s 0.0, %v", ty, math.Float64frombits(lowir.Imm64Join(in.Lo, in.Hi))))
	case lowir.OpConstString:
		assign(fmt.Sprintf("bitcast ptr @.str.%d to %s", in.Index, ty))
	case lowir.OpSymbol:
		assign(fmt.Sprintf("bitcast ptr @%s to %s", e.low.Strings[in.Index], ty))
	case lowir.OpParam:
		// never referenced by id directly; see ref().
	case lowir.OpConstruct:
		args := e.low.Extras(in.Index, int32(in.Operand2))
		e.printf("  %s = alloca %s\n", e.ref(id), ty)
		for i, a := range args {
			e.printf("  ; field %d <- %s\n", i, e.ref(a))
		}
	case lowir.OpCall:
		args := e.low.Extras(in.Index, int32(in.Operand2))
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%s %s", llType(e.prog.Types, e.low.Get(a).Type), e.ref(a))
		}
		callee := e.low.Strings[e.low.Get(in.Operand).Index]
		call := fmt.Sprintf("call %s @%s(%s)", ty, callee, join(parts))
		if ty == "void" {
			e.printf("  %s\n", call)
		} else {
			assign(call)
		}
	case lowir.OpRet:
		e.printf("  ret %s %s\n", ty, e.ref(in.Operand))
	case lowir.OpRetVoid:
		e.printf("  ret void\n")
	default:
		e.printf("  ; unhandled op %d\n", in.Op)
	}
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// llType maps a types.ID to its textual-IR spelling: spec.md §6's
// integer-width ladder (i1,i8,i16,i32,i64,i{ptrbits}) plus an opaque
// pointer/struct convention for everything composite.
func llType(ts *types.Store, id types.ID) string {
	d := ts.Get(id)
	switch d.Kind {
	case types.KVoid:
		return "void"
	case types.KBool:
		return "i1"
	case types.KI8, types.KByte:
		return "i8"
	case types.KI16:
		return "i16"
	case types.KI32:
		return "i32"
	case types.KI64:
		return "i64"
	case types.KIsize:
		return "i64"
	case types.KChar:
		return "i32"
	case types.KF32:
		return "float"
	case types.KF64:
		return "double"
	case types.KPointer, types.KMutPointer:
		return "ptr"
	case types.KMultiPointer, types.KMutMultiPointer:
		return "{ i64, ptr }"
	case types.KArray:
		return fmt.Sprintf("[%d x %s]", d.Length, llType(ts, d.Elem))
	case types.KStruct:
		return fmt.Sprintf("%%struct.s%d", id)
	case types.KEnum:
		return llType(ts, d.Repr)
	case types.KNewtype:
		return llType(ts, d.Inner)
	case types.KTagged:
		return llType(ts, ts.Get(d.Newtype).Inner)
	case types.KLinear:
		return llType(ts, d.Inner)
	default:
		return "i64"
	}
}

func srcTypeName(ts *types.Store, srcID int32) string {
	return llType(ts, types.ID(srcID))
}

func castMnemonic(ts *types.Store, srcID int32, dstID types.ID) string {
	src := ts.Get(types.ID(srcID))
	dst := ts.Get(dstID)
	srcFloat := src.Kind == types.KF32 || src.Kind == types.KF64
	dstFloat := dst.Kind == types.KF32 || dst.Kind == types.KF64
	switch {
	case src.Kind == types.KPointer || src.Kind == types.KMutPointer:
		return "bitcast"
	case srcFloat && dstFloat:
		if llBits(dst.Kind) > llBits(src.Kind) {
			return "fpext"
		}
		return "fptrunc"
	case srcFloat && !dstFloat:
		return "fptosi"
	case !srcFloat && dstFloat:
		return "sitofp"
	default:
		if llBits(dst.Kind) > llBits(src.Kind) {
			return "sext"
		}
		return "trunc"
	}
}

func llBits(k types.Kind) int {
	switch k {
	case types.KI8, types.KByte, types.KBool:
		return 8
	case types.KI16:
		return 16
	case types.KI32, types.KF32, types.KChar:
		return 32
	default:
		return 64
	}
}

// binOpMnemonic follows internal/syntax.BinOp's exact iota order.
func binOpMnemonic(tag int32, ty string) string {
	isFloat := ty == "float" || ty == "double"
	names := []string{"add", "sub", "mul", "sdiv", "srem", "icmp eq", "icmp ne", "icmp slt", "icmp sle", "icmp sgt", "icmp sge", "and", "or", "and", "or", "xor", "shl", "ashr"}
	if isFloat {
		fnames := []string{"fadd", "fsub", "fmul", "fdiv", "frem", "fcmp oeq", "fcmp one", "fcmp olt", "fcmp ole", "fcmp ogt", "fcmp oge"}
		if int(tag) < len(fnames) {
			return fnames[tag]
		}
	}
	if int(tag) < len(names) {
		return names[tag]
	}
	return "add"
}

func unOpMnemonic(tag int32) string {
	names := []string{"neg", "xor", "xor"}
	if int(tag) < len(names) {
		return names[tag]
	}
	return "neg"
}
