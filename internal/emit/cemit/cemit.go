// Package cemit is the default `-backend=c` emitter spec.md §6 names as
// an external collaborator: it walks internal/lowir.Program alongside
// internal/typecheck.Program's declaration table and prints a single
// translation unit, one C function per entry in low.Bounds. It never
// reaches back into internal/roles, internal/typecheck's checker, or
// internal/ownership -- the low-level IR plus the declared function/
// struct/enum tables are the entire contract, exactly as spec.md §4.5 and
// §6 describe the boundary.
package cemit

import (
	"fmt"
	"io"
	"math"
	"sort"

	"vellum/internal/lowir"
	"vellum/internal/typecheck"
	"vellum/internal/types"
)

// Emit prints a freestanding C translation unit for prog/low to w.
func Emit(w io.Writer, prog *typecheck.Program, low *lowir.Program) error {
	e := &emitter{w: w, prog: prog, low: low}
	e.printf("/* generated by vellumc -backend=c; do not edit */\n")
	e.printf("#include <stdint.h>\n#include <string.h>\n\n")
	e.printf("typedef struct { intptr_t length; uint8_t *data; } vl_slice;\n\n")

	names := make([]string, 0, len(low.Bounds))
	for name := range low.Bounds {
		names = append(names, name)
	}
	sort.Strings(names)

	// Forward-declare every function before any body so recursive calls
	// (spec.md §8 scenario 1, fib) and calls to later functions resolve.
	for _, name := range names {
		e.printSignature(name)
		e.printf(";\n")
	}
	e.printf("\n")

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
	_, err := fmt.Fprintf(e.w, format, args...)
	if err != nil {
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

func (e *emitter) printSignature(mangled string) {
	d := e.declFor(mangled)
	ret := "void"
	var params []types.ID
	if d != nil {
		ret = cType(e.prog.Types, d.RetType)
		params = d.ParamTypes
	}
	e.printf("%s %s(", ret, cIdent(mangled))
	if len(params) == 0 {
		e.printf("void")
	}
	for i, p := range params {
		if i > 0 {
			e.printf(", ")
		}
		e.printf("%s p%d", cType(e.prog.Types, p), i)
	}
	e.printf(")")
}

// emitFunc renders one function's [start,end) slice of the shared
// low.Instrs stream as a goto-threaded C function body: every
// instruction becomes a local named `_t<id>`, and branch targets
// (already patched to concrete instruction indices by internal/lowering)
// become `L<id>:` labels.
func (e *emitter) emitFunc(mangled string) error {
	b := e.low.Bounds[mangled]
	e.printSignature(mangled)
	e.printf(" {\n")

	targets := map[lowir.InstrID]bool{}
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
			e.printf("L%d:;\n", i)
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
		return fmt.Sprintf("p%d", in.Index)
	}
	return fmt.Sprintf("_t%d", id)
}

func (e *emitter) emitInstr(id lowir.InstrID, in lowir.Instr) {
	ty := cType(e.prog.Types, in.Type)
	decl := func(rhs string) { e.printf("%s %s = %s;\n", ty, e.ref(id), rhs) }

	switch in.Op {
	case lowir.OpAlloc:
		e.printf("%s %s;\n", ty, e.ref(id))
	case lowir.OpAssign:
		e.printf("%s = %s;\n", e.ref(in.Operand), e.ref(in.Operand2))
	case lowir.OpAddress:
		decl(fmt.Sprintf("(%s)&%s", ty, e.ref(in.Operand)))
	case lowir.OpDeref:
		decl(fmt.Sprintf("*%s", e.ref(in.Operand)))
	case lowir.OpBinary:
		decl(fmt.Sprintf("%s %s %s", e.ref(in.Operand), binOpSym(in.Index), e.ref(in.Operand2)))
	case lowir.OpUnary:
		decl(fmt.Sprintf("%s%s", unOpSym(in.Index), e.ref(in.Operand)))
	case lowir.OpBr:
		e.printf("goto L%d;\n", in.Operand)
	case lowir.OpBrIfNot:
		e.printf("if (!(%s)) goto L%d;\n", e.ref(in.Operand), in.Operand2)
	case lowir.OpGEP, lowir.OpFieldIndex:
		decl(fmt.Sprintf("(%s)((uint8_t*)%s + %d)", ty, e.ref(in.Operand), in.Index))
	case lowir.OpPtrAdd:
		decl(fmt.Sprintf("(%s)((uint8_t*)%s + %s)", ty, e.ref(in.Operand), e.ref(in.Operand2)))
	case lowir.OpNewSlice:
		decl(fmt.Sprintf("(%s){ .length = %s, .data = (uint8_t*)%s }", ty, e.ref(in.Operand), e.ref(in.Operand2)))
	case lowir.OpCast, lowir.OpZeroExtend:
		decl(fmt.Sprintf("(%s)%s", ty, e.ref(in.Operand)))
	case lowir.OpConstInt:
		decl(fmt.Sprintf("%d", int64(lowir.Imm64Join(in.Lo, in.Hi))))
	case lowir.OpConstFloat:
		bits := lowir.Imm64Join(in.Lo, in.Hi)
		decl(fmt.Sprintf("%v", math.Float64frombits(bits)))
	case lowir.OpConstString:
		decl(fmt.Sprintf("%q", e.low.Strings[in.Index]))
	case lowir.OpSymbol:
		decl(cIdent(e.low.Strings[in.Index]))
	case lowir.OpParam:
		// OpParam instructions are never referenced by id (e.ref rewrites
		// them to p<N> directly); nothing to print.
	case lowir.OpConstruct:
		args := e.low.Extras(in.Index, int32(in.Operand2))
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = e.ref(a)
		}
		decl(fmt.Sprintf("(%s){ %s }", ty, joinComma(parts)))
	case lowir.OpCall:
		args := e.low.Extras(in.Index, int32(in.Operand2))
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = e.ref(a)
		}
		callee := e.low.Strings[e.low.Get(in.Operand).Index]
		call := fmt.Sprintf("%s(%s)", cIdent(callee), joinComma(parts))
		if ty == "void" {
			e.printf("%s;\n", call)
		} else {
			decl(call)
		}
	case lowir.OpRet:
		e.printf("return %s;\n", e.ref(in.Operand))
	case lowir.OpRetVoid:
		e.printf("return;\n")
	default:
		e.printf("/* unhandled op %d */\n", in.Op)
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func cIdent(mangled string) string {
	out := make([]byte, 0, len(mangled)+2)
	out = append(out, "vl_"...)
	for _, c := range []byte(mangled) {
		if c == '{' || c == '}' {
			continue
		}
		if c == '.' || c == ' ' {
			c = '_'
		}
		out = append(out, c)
	}
	return string(out)
}

// cType maps a types.ID to its C spelling, following the backend-visible
// layout spec.md §6 fixes: slices are length-first two-word structs,
// struct field order/padding is left to the C compiler's own layout
// (natural alignment matches spec.md §3's rule for the primitive set
// this emitter targets).
func cType(ts *types.Store, id types.ID) string {
	d := ts.Get(id)
	switch d.Kind {
	case types.KVoid:
		return "void"
	case types.KI8:
		return "int8_t"
	case types.KI16:
		return "int16_t"
	case types.KI32:
		return "int32_t"
	case types.KI64:
		return "int64_t"
	case types.KIsize:
		return "intptr_t"
	case types.KF32:
		return "float"
	case types.KF64:
		return "double"
	case types.KChar:
		return "uint32_t"
	case types.KByte:
		return "uint8_t"
	case types.KBool:
		return "_Bool"
	case types.KPointer, types.KMutPointer:
		return cType(ts, d.Elem) + "*"
	case types.KMultiPointer, types.KMutMultiPointer:
		return "vl_slice"
	case types.KArray:
		return cType(ts, d.Elem)
	case types.KStruct:
		return fmt.Sprintf("struct vl_s%d", id)
	case types.KEnum:
		return cType(ts, d.Repr)
	case types.KNewtype:
		return cType(ts, d.Inner)
	case types.KTagged:
		return cType(ts, ts.Get(d.Newtype).Inner)
	case types.KLinear:
		return cType(ts, d.Inner)
	default:
		return "intptr_t"
	}
}

// binOpSym mirrors internal/syntax.BinOp's exact iota order: Add, Sub,
// Mul, Div, Mod, Eq, Ne, Lt, Le, Gt, Ge, And, Or, BitAnd, BitOr, BitXor,
// Shl, Shr.
func binOpSym(tag int32) string {
	names := []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&&", "||", "&", "|", "^", "<<", ">>"}
	if int(tag) < len(names) {
		return names[tag]
	}
	return "+"
}

// unOpSym mirrors internal/syntax.UnOp's order: Neg, Not, BitNot.
func unOpSym(tag int32) string {
	names := []string{"-", "!", "~"}
	if int(tag) < len(names) {
		return names[tag]
	}
	return "-"
}
