// Package lowering implements spec.md §4.5: walking one function's typed
// IR (internal/typedir) into the flat low-level instruction stream
// internal/lowir defines. It runs after internal/typecheck and
// internal/ownership have both accepted a function, one Lowerer per
// function. Every Lowerer writes into the same shared *lowir.Program, so
// internal/pipeline runs them one after another once the parallel body
// phase (golang.org/x/sync/errgroup) has finished.
package lowering

import (
	"math"

	"vellum/internal/lowir"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/typecheck"
	"vellum/internal/typedir"
	"vellum/internal/types"
	"vellum/internal/values"
)

// loopFrame collects the branch-patch holes a loop's break/continue
// statements need filled in once the loop's exit and continue points are
// known.
type loopFrame struct {
	breaks    []lowir.InstrID
	continues []lowir.InstrID
}

// Lowerer lowers exactly one function's typedir.Func into prog, the
// module-wide lowir.Program every function's instructions are appended
// to.
type Lowerer struct {
	prog   *lowir.Program
	ts     *types.Store
	strs   *strtab.Table
	global *values.Store
	local  *values.LocalPartition
	tir    *typedir.Func
	syn    *syntax.Store

	resultOf     map[values.ID]typedir.InstrID
	coveredStart map[typedir.InstrID]typedir.InstrID

	slots     map[int]lowir.InstrID
	addrCache map[values.ID]lowir.InstrID
	valCache  map[values.ID]lowir.InstrID

	loops []*loopFrame
}

// New prepares a Lowerer for one function body. tir and local are that
// function's own thread-local instruction stream and value partition;
// global/ts/strs/syn are the (already merge-safe) shared stores.
func New(prog *lowir.Program, ts *types.Store, strs *strtab.Table, syn *syntax.Store, global *values.Store, local *values.LocalPartition, tir *typedir.Func) *Lowerer {
	return &Lowerer{
		prog: prog, ts: ts, strs: strs, syn: syn, global: global, local: local, tir: tir,
		resultOf:     make(map[values.ID]typedir.InstrID),
		coveredStart: make(map[typedir.InstrID]typedir.InstrID),
		slots:     make(map[int]lowir.InstrID),
		addrCache: make(map[values.ID]lowir.InstrID),
		valCache:  make(map[values.ID]lowir.InstrID),
	}
}

// LowerFunc lowers a non-extern function's body, allocating one stack slot
// per incoming parameter and storing the result under mangledName in
// prog.Bounds.
func (l *Lowerer) LowerFunc(mangledName string, paramTypes []types.ID, retType types.ID) lowir.Bounds {
	l.index()

	start := lowir.InstrID(len(l.prog.Instrs))
	for i, pt := range paramTypes {
		p := l.prog.Add(lowir.Instr{Op: lowir.OpParam, Type: pt, Index: int32(i)})
		slot := l.prog.Add(lowir.Instr{Op: lowir.OpAlloc, Type: pt})
		l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: slot, Operand2: p})
		l.slots[i] = slot
	}

	l.walkRange(0, typedir.InstrID(l.tir.Len()))

	end := lowir.InstrID(len(l.prog.Instrs))
	bounds := lowir.Bounds{Start: start, End: end}
	l.prog.Bounds[mangledName] = bounds
	return bounds
}

// index scans the whole function once, before any lowering happens,
// building the two reverse maps walkRange and address() need: which
// value a given instruction produced, and which instruction ids begin a
// compound statement's nested [start, end) ranges (so the flat forward
// walk can jump straight to the owning If/While/For/Switch instead of
// executing the nested range unconditionally).
func (l *Lowerer) index() {
	for id := typedir.InstrID(0); id < typedir.InstrID(l.tir.Len()); id++ {
		in := l.tir.Get(id)
		if in.Result != values.NoValue {
			l.resultOf[in.Result] = id
		}
		switch in.Op {
		case typedir.OpIf, typedir.OpWhile, typedir.OpFor, typedir.OpSwitch:
			if len(in.Children) == 0 {
				continue
			}
			l.coveredStart[in.Children[0]] = id
		}
	}
}

func (l *Lowerer) get(v values.ID) values.Data { return l.local.Get(l.global, v) }

func (l *Lowerer) typeOf(v values.ID) types.ID { return l.get(v).Type }

// walkRange lowers the statements in [start, end) in order, treating any
// id registered in coveredStart as the first instruction of a nested
// compound range: it lowers the whole compound via its owning marker
// instruction and skips straight past the range, rather than visiting
// the nested instructions a second time at the top level.
func (l *Lowerer) walkRange(start, end typedir.InstrID) {
	cur := start
	for cur < end {
		if marker, ok := l.coveredStart[cur]; ok {
			l.lowerCompound(marker)
			cur = marker + 1
			continue
		}
		l.lowerSimple(cur)
		cur++
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (l *Lowerer) lowerCompound(id typedir.InstrID) {
	in := l.tir.Get(id)
	switch in.Op {
	case typedir.OpIf:
		l.lowerIf(in)
	case typedir.OpWhile:
		l.lowerWhile(in)
	case typedir.OpFor:
		l.lowerFor(in)
	case typedir.OpSwitch:
		l.lowerSwitch(in)
	}
}

func (l *Lowerer) lowerIf(in typedir.Instr) {
	cond := l.rvalue(in.Values[0])
	brIfNot := l.prog.Add(lowir.Instr{Op: lowir.OpBrIfNot, Operand: cond})

	if len(in.Children) == 4 {
		l.walkRange(in.Children[0], in.Children[1])
	}
	var brEnd lowir.InstrID = lowir.NoInstr
	hasElse := len(in.Children) == 4 && in.Children[2] != in.Children[3]
	if hasElse {
		brEnd = l.prog.Add(lowir.Instr{Op: lowir.OpBr})
	}
	elseTarget := lowir.InstrID(len(l.prog.Instrs))
	l.prog.Patch(brIfNot, elseTarget)

	if len(in.Children) == 4 {
		l.walkRange(in.Children[2], in.Children[3])
	}
	if hasElse {
		l.prog.Patch(brEnd, lowir.InstrID(len(l.prog.Instrs)))
	}
}

// lowerWhile and lowerFor patch break targets to the loop's exit and
// continue targets to its continuation point (the header for while, the
// "next" clause for for), per spec.md §4.5.
func (l *Lowerer) lowerWhile(in typedir.Instr) {
	header := lowir.InstrID(len(l.prog.Instrs))
	cond := l.rvalue(in.Values[0])
	exitHole := l.prog.Add(lowir.Instr{Op: lowir.OpBrIfNot, Operand: cond})

	frame := &loopFrame{}
	l.loops = append(l.loops, frame)
	if len(in.Children) == 2 {
		l.walkRange(in.Children[0], in.Children[1])
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.prog.Add(lowir.Instr{Op: lowir.OpBr, Operand: header})
	exit := lowir.InstrID(len(l.prog.Instrs))
	l.prog.Patch(exitHole, exit)
	for _, b := range frame.breaks {
		l.prog.Patch(b, exit)
	}
	for _, c := range frame.continues {
		l.prog.Patch(c, header)
	}
}

func (l *Lowerer) lowerFor(in typedir.Instr) {
	header := lowir.InstrID(len(l.prog.Instrs))
	cond := l.rvalue(in.Values[0])
	exitHole := l.prog.Add(lowir.Instr{Op: lowir.OpBrIfNot, Operand: cond})

	frame := &loopFrame{}
	l.loops = append(l.loops, frame)
	if len(in.Children) == 4 {
		l.walkRange(in.Children[0], in.Children[1])
	}
	continuePoint := lowir.InstrID(len(l.prog.Instrs))
	if len(in.Children) == 4 {
		l.walkRange(in.Children[2], in.Children[3])
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.prog.Add(lowir.Instr{Op: lowir.OpBr, Operand: header})
	exit := lowir.InstrID(len(l.prog.Instrs))
	l.prog.Patch(exitHole, exit)
	for _, b := range frame.breaks {
		l.prog.Patch(b, exit)
	}
	for _, c := range frame.continues {
		l.prog.Patch(c, continuePoint)
	}
}

// lowerSwitch evaluates the scrutinee once, then per arm compares it
// against the arm's pattern (an else/catch-all arm has no pattern and no
// compare), runs the arm's value block, stores the result, and branches
// to the join point; the last arm with no pattern needs no trailing
// compare-skip since falling through is already correct.
func (l *Lowerer) lowerSwitch(in typedir.Instr) {
	n := len(in.Children) / 2
	resultSlot := l.prog.Add(lowir.Instr{Op: lowir.OpAlloc, Type: l.resultTypeOf(in)})

	var scrutinee lowir.InstrID = lowir.NoInstr
	if in.Values[0] != values.NoValue {
		scrutinee = l.rvalue(in.Values[0])
	}

	var joinHoles []lowir.InstrID
	var nextHole lowir.InstrID = lowir.NoInstr
	for j := 0; j < n; j++ {
		if nextHole != lowir.NoInstr {
			l.prog.Patch(nextHole, lowir.InstrID(len(l.prog.Instrs)))
			nextHole = lowir.NoInstr
		}
		patternVal := in.Values[1+2*j]
		isLast := j == n-1
		if patternVal != values.NoValue {
			pat := l.rvalue(patternVal)
			eq := l.prog.Add(lowir.Instr{Op: lowir.OpBinary, Operand: scrutinee, Operand2: pat, Index: int32(syntax.OpEq), Type: types.Bool()})
			nextHole = l.prog.Add(lowir.Instr{Op: lowir.OpBrIfNot, Operand: eq})
		}
		l.walkRange(in.Children[2*j], in.Children[2*j+1])
		armVal := l.rvalue(in.Values[2+2*j])
		l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: resultSlot, Operand2: armVal})
		if !isLast {
			joinHoles = append(joinHoles, l.prog.Add(lowir.Instr{Op: lowir.OpBr}))
		}
	}
	if nextHole != lowir.NoInstr {
		l.prog.Patch(nextHole, lowir.InstrID(len(l.prog.Instrs)))
	}
	join := lowir.InstrID(len(l.prog.Instrs))
	for _, h := range joinHoles {
		l.prog.Patch(h, join)
	}
	res := l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: resultSlot, Type: l.resultTypeOf(in)})
	if in.Result != values.NoValue {
		l.valCache[in.Result] = res
	}
}

func (l *Lowerer) resultTypeOf(in typedir.Instr) types.ID {
	if in.Result != values.NoValue {
		return l.typeOf(in.Result)
	}
	return types.Void()
}

// lowerSimple lowers one non-compound instruction and caches its result
// (if any) under the value it produced, so later references resolve via
// rvalue/address without re-lowering.
func (l *Lowerer) lowerSimple(id typedir.InstrID) {
	in := l.tir.Get(id)
	switch in.Op {
	case typedir.OpConst:
		// Never emitted by internal/typecheck; defensively treated as a
		// passthrough of its sole operand's value.
		if len(in.Values) == 1 {
			l.valCache[in.Result] = l.rvalue(in.Values[0])
		}

	case typedir.OpBinary:
		lhs, rhs := l.rvalue(in.Values[0]), l.rvalue(in.Values[1])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpBinary, Operand: lhs, Operand2: rhs, Index: in.A, Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res

	case typedir.OpUnary:
		operand := l.rvalue(in.Values[0])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpUnary, Operand: operand, Index: in.A, Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res

	case typedir.OpNot:
		operand := l.rvalue(in.Values[0])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpUnary, Operand: operand, Index: int32(syntax.OpNot), Type: types.Bool()})
		l.valCache[in.Result] = res

	case typedir.OpAddressOf:
		res := l.address(in.Values[0])
		l.valCache[in.Result] = res

	case typedir.OpDeref, typedir.OpFieldAccess, typedir.OpIndex:
		l.lowerPlaceOrValue(id, in)

	case typedir.OpEnumMember:
		// Enum member access is folded to an integer constant by
		// typecheck and never reaches the typed IR as its own instruction.

	case typedir.OpCall:
		l.lowerCall(id, in)

	case typedir.OpConstructorCall:
		l.lowerConstruct(id, in)

	case typedir.OpCast:
		operand := l.rvalue(in.Values[0])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpCast, Operand: operand, Index: in.A, Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res

	case typedir.OpImplicitConvert:
		l.lowerImplicitConvert(id, in)

	case typedir.OpSizeOf, typedir.OpAlignOf:
		// Folded to compile-time constants by typecheck; nothing to lower.

	case typedir.OpAffineWrap:
		// The linear wrapper has its inner value's representation.
		l.valCache[in.Result] = l.rvalue(in.Values[0])

	case typedir.OpZeroExtend:
		operand := l.rvalue(in.Values[0])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpZeroExtend, Operand: operand, Index: int32(l.typeOf(in.Values[0])), Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res

	case typedir.OpSliceBuiltin:
		length, ptr := l.rvalue(in.Values[0]), l.rvalue(in.Values[1])
		res := l.prog.Add(lowir.Instr{Op: lowir.OpNewSlice, Operand: length, Operand2: ptr, Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res

	case typedir.OpLocalDecl:
		idx := int(in.A)
		ty := l.localType(idx, in)
		slot := l.prog.Add(lowir.Instr{Op: lowir.OpAlloc, Type: ty})
		l.slots[idx] = slot
		if in.Values[0] != values.NoValue {
			init := l.rvalue(in.Values[0])
			l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: slot, Operand2: init})
		}

	case typedir.OpAssign:
		dst := l.address(in.Values[0])
		src := l.rvalue(in.Values[1])
		l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: dst, Operand2: src})

	case typedir.OpCompoundAssign:
		dst := l.address(in.Values[0])
		cur := l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: dst, Type: l.typeOf(in.Values[0])})
		rhs := l.rvalue(in.Values[1])
		combined := l.prog.Add(lowir.Instr{Op: lowir.OpBinary, Operand: cur, Operand2: rhs, Index: in.A, Type: l.typeOf(in.Values[0])})
		l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: dst, Operand2: combined})

	case typedir.OpBreak:
		hole := l.prog.Add(lowir.Instr{Op: lowir.OpBr})
		if n := len(l.loops); n > 0 {
			l.loops[n-1].breaks = append(l.loops[n-1].breaks, hole)
		}

	case typedir.OpContinue:
		hole := l.prog.Add(lowir.Instr{Op: lowir.OpBr})
		if n := len(l.loops); n > 0 {
			l.loops[n-1].continues = append(l.loops[n-1].continues, hole)
		}

	case typedir.OpReturn:
		if len(in.Values) == 0 || in.Values[0] == values.NoValue {
			l.prog.Add(lowir.Instr{Op: lowir.OpRetVoid})
		} else {
			v := l.rvalue(in.Values[0])
			l.prog.Add(lowir.Instr{Op: lowir.OpRet, Operand: v})
		}
	}
}

// localType recovers a freshly declared local's type: OpLocalDecl itself
// carries no Result (it declares a binding, not a value), so the type
// comes from whichever later instruction first resolves that local index
// as a Variable/MutableVariable -- in practice, from the value the init
// expression (if any) produced, and otherwise the first use.
func (l *Lowerer) localType(idx int, in typedir.Instr) types.ID {
	if in.Values[0] != values.NoValue {
		return l.typeOf(in.Values[0])
	}
	for v, d := range l.localScan() {
		if d.LocalIndex == idx && (d.Kind == values.KVariable || d.Kind == values.KMutableVariable) {
			return l.typeOf(v)
		}
	}
	return types.NoType
}

// localScan builds a fresh view (not cached) of the values produced as
// results of this function's typed-IR instructions, for localType's
// fallback path only; it is never called in the common case where a
// let-binding has an initializer.
func (l *Lowerer) localScan() map[values.ID]values.Data {
	out := make(map[values.ID]values.Data)
	for v := range l.resultOf {
		out[v] = l.get(v)
	}
	return out
}

func (l *Lowerer) lowerCall(id typedir.InstrID, in typedir.Instr) {
	callee := in.Values[0]
	args := in.Values[1:]
	argIDs := make([]lowir.InstrID, len(args))
	for i, a := range args {
		argIDs[i] = l.rvalue(a)
	}
	offset, count := l.prog.AddExtras(argIDs...)

	var calleeInstr lowir.InstrID
	cd := l.get(callee)
	switch cd.Kind {
	case values.KFunctionRef, values.KExternFunctionRef:
		off := l.prog.AddString(l.strs.Get(cd.Name))
		calleeInstr = l.prog.Add(lowir.Instr{Op: lowir.OpSymbol, Index: off})
	default:
		calleeInstr = l.rvalue(callee)
	}

	res := l.prog.Add(lowir.Instr{
		Op: lowir.OpCall, Operand: calleeInstr, Index: offset, Operand2: lowir.InstrID(count),
		Type: l.resultTypeOf(in),
	})
	if in.Result != values.NoValue {
		l.valCache[in.Result] = res
	}
}

func (l *Lowerer) lowerConstruct(id typedir.InstrID, in typedir.Instr) {
	fieldIDs := make([]lowir.InstrID, len(in.Values))
	for i, v := range in.Values {
		fieldIDs[i] = l.rvalue(v)
	}
	offset, count := l.prog.AddExtras(fieldIDs...)
	res := l.prog.Add(lowir.Instr{Op: lowir.OpConstruct, Index: offset, Operand2: lowir.InstrID(count), Type: l.resultTypeOf(in)})
	l.valCache[in.Result] = res
}

// lowerImplicitConvert implements the three runtime shapes spec.md §4.3's
// conversion table can produce: an array decaying to a slice needs a
// fresh {length, data} pair built via OpNewSlice; a pointer relabeling
// (mut-to-const, T* to byte*, tagged-to-inner) is bit-identical and
// becomes an OpCast so the backend can still pick a representation.
func (l *Lowerer) lowerImplicitConvert(id typedir.InstrID, in typedir.Instr) {
	operand := in.Values[0]
	switch typedir.ConvKind(in.A) {
	case typedir.ConvArrayToSlice:
		// operand is *T[N] or *mut T[N]; its pointee is the array type the
		// length comes from, and the pointer value itself (reinterpreted)
		// is already the slice's data pointer.
		ptrTy := l.typeOf(operand)
		arrTy := l.ts.Get(ptrTy).Elem
		length := l.ts.Get(arrTy).Length
		lenConst := l.prog.Add(lowir.Instr{Op: lowir.OpConstInt, Type: types.Isize()})
		l.setImm(lenConst, uint64(length))
		data := l.rvalue(operand)
		res := l.prog.Add(lowir.Instr{Op: lowir.OpNewSlice, Operand: lenConst, Operand2: data, Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res
	default: // ConvIdentity, ConvPointerCast: representation doesn't change.
		operandVal := l.rvalue(operand)
		res := l.prog.Add(lowir.Instr{Op: lowir.OpCast, Operand: operandVal, Index: int32(l.typeOf(operand)), Type: l.resultTypeOf(in)})
		l.valCache[in.Result] = res
	}
}

func (l *Lowerer) setImm(id lowir.InstrID, v uint64) {
	in := l.prog.Get(id)
	in.Lo, in.Hi = lowir.Imm64(v)
	l.prog.Instrs[id] = in
}

// lowerPlaceOrValue handles the three Ops whose result can be either a
// place (struct field, array/slice element, pointee) or, for a slice's
// synthetic .length/.data fields, a plain value: the distinguishing
// signal is the result value's Kind, which typecheck already set to
// Temporary for the value-shaped cases and Variable/MutableVariable for
// the place-shaped ones.
func (l *Lowerer) lowerPlaceOrValue(id typedir.InstrID, in typedir.Instr) {
	if in.Result == values.NoValue {
		return
	}
	if l.get(in.Result).Kind == values.KTemporary {
		res := l.loadPlaceInstr(id, in)
		l.valCache[in.Result] = res
	}
	// Else: a place. Nothing to emit eagerly -- address() rebuilds it
	// on demand from in.Op/in.Values the first time something reads or
	// writes through it, and caches the result.
}

// loadPlaceInstr computes the address this instruction's place-shaped
// operation would produce, then loads through it -- used for .length/
// .data accesses, which typecheck models as immediate values rather than
// further-indexable places.
func (l *Lowerer) loadPlaceInstr(id typedir.InstrID, in typedir.Instr) lowir.InstrID {
	base := l.address(in.Values[0])
	switch in.Op {
	case typedir.OpFieldAccess:
		// .length is field 0, .data is field 1 of the {length, data} slice
		// layout; struct fields carry their index in in.A, but .length/
		// .data reach here with A == 0, so disambiguate on the result's
		// type instead (isize for .length).
		fieldIdx := int32(0)
		if l.ts.Get(l.typeOf(in.Result)).Kind != types.KIsize {
			fieldIdx = 1
		}
		addr := l.prog.Add(lowir.Instr{Op: lowir.OpFieldIndex, Operand: base, Index: fieldIdx})
		return l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: addr, Type: l.resultTypeOf(in)})
	default:
		return l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: base, Type: l.resultTypeOf(in)})
	}
}

// rvalue returns the loaded value an operand contributes to an
// expression, loading through a place's address if necessary.
func (l *Lowerer) rvalue(v values.ID) lowir.InstrID {
	if r, ok := l.valCache[v]; ok {
		return r
	}
	d := l.get(v)
	switch d.Kind {
	case values.KIntegerConstant:
		r := l.prog.Add(lowir.Instr{Op: lowir.OpConstInt, Type: d.Type})
		l.setImm(r, uint64(d.IntValue))
		l.valCache[v] = r
		return r
	case values.KFloatConstant:
		r := l.prog.Add(lowir.Instr{Op: lowir.OpConstFloat, Type: d.Type})
		l.setImm(r, floatBits(d.FloatValue))
		l.valCache[v] = r
		return r
	case values.KNullConstant:
		r := l.prog.Add(lowir.Instr{Op: lowir.OpConstInt, Type: d.Type})
		l.valCache[v] = r
		return r
	case values.KStringConstant:
		off := l.prog.AddString(l.strs.StringBytes(d.StringID))
		r := l.prog.Add(lowir.Instr{Op: lowir.OpConstString, Index: off, Type: d.Type})
		l.valCache[v] = r
		return r
	case values.KFunctionRef, values.KExternFunctionRef:
		off := l.prog.AddString(l.strs.Get(d.Name))
		r := l.prog.Add(lowir.Instr{Op: lowir.OpSymbol, Index: off, Type: d.Type})
		l.valCache[v] = r
		return r
	case values.KExternVariable:
		off := l.prog.AddString(l.strs.Get(d.Name))
		sym := l.prog.Add(lowir.Instr{Op: lowir.OpSymbol, Index: off, Type: d.Type})
		r := l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: sym, Type: d.Type})
		l.valCache[v] = r
		return r
	case values.KVariable, values.KMutableVariable:
		addr := l.address(v)
		r := l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: addr, Type: d.Type})
		l.valCache[v] = r
		return r
	case values.KTemporary:
		// Produced by an instruction already lowered via lowerSimple, which
		// populates valCache directly; a miss here means the producing
		// instruction hasn't been reached yet, which shouldn't happen since
		// the typed IR only ever references earlier-produced values.
		if instrID, ok := l.resultOf[v]; ok {
			l.lowerSimple(instrID)
			if r, ok := l.valCache[v]; ok {
				return r
			}
		}
	}
	r := l.prog.Add(lowir.Instr{Op: lowir.OpConstInt, Type: d.Type})
	l.valCache[v] = r
	return r
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

// address returns the storage location a place-shaped value lives at,
// spilling a pure rvalue into a fresh stack slot the first time one is
// asked to produce an address (needed when a field/index expression's
// base is itself a temporary, e.g. a function call's returned struct).
func (l *Lowerer) address(v values.ID) lowir.InstrID {
	if a, ok := l.addrCache[v]; ok {
		return a
	}
	d := l.get(v)
	if (d.Kind == values.KVariable || d.Kind == values.KMutableVariable) && d.LocalIndex >= 0 {
		a := l.slots[d.LocalIndex]
		l.addrCache[v] = a
		return a
	}
	if instrID, ok := l.resultOf[v]; ok {
		if a, ok := l.addressFromInstr(instrID); ok {
			l.addrCache[v] = a
			return a
		}
	}
	// Pure rvalue (e.g. a call result) used where a place is needed: spill
	// it into a fresh slot so field/index projection has something to GEP
	// into.
	rv := l.rvalue(v)
	slot := l.prog.Add(lowir.Instr{Op: lowir.OpAlloc, Type: d.Type})
	l.prog.Add(lowir.Instr{Op: lowir.OpAssign, Operand: slot, Operand2: rv})
	l.addrCache[v] = slot
	return slot
}

func (l *Lowerer) addressFromInstr(id typedir.InstrID) (lowir.InstrID, bool) {
	in := l.tir.Get(id)
	switch in.Op {
	case typedir.OpDeref:
		return l.rvalue(in.Values[0]), true

	case typedir.OpFieldAccess:
		base := l.address(in.Values[0])
		return l.prog.Add(lowir.Instr{Op: lowir.OpFieldIndex, Operand: base, Index: in.A}), true

	case typedir.OpIndex:
		base := in.Values[0]
		index := in.Values[1]
		elemTy := l.typeOf(in.Result)
		elemSize := typecheck.SizeOf(l.ts, elemTy)
		idx := l.rvalue(index)
		sizeConst := l.prog.Add(lowir.Instr{Op: lowir.OpConstInt, Type: types.Isize()})
		l.setImm(sizeConst, uint64(elemSize))
		byteOff := l.prog.Add(lowir.Instr{Op: lowir.OpBinary, Operand: idx, Operand2: sizeConst, Index: int32(syntax.OpMul), Type: types.Isize()})

		targetTy := l.typeOf(base)
		switch l.ts.Get(targetTy).Kind {
		case types.KArray:
			baseAddr := l.address(base)
			return l.prog.Add(lowir.Instr{Op: lowir.OpPtrAdd, Operand: baseAddr, Operand2: byteOff}), true
		default: // slice/multipointer: index through the pointer it carries.
			dataAddr := l.multiPointerData(base)
			return l.prog.Add(lowir.Instr{Op: lowir.OpPtrAdd, Operand: dataAddr, Operand2: byteOff}), true
		}
	}
	return lowir.NoInstr, false
}

// multiPointerData loads the data pointer out of a slice value's
// {length, data} representation.
func (l *Lowerer) multiPointerData(v values.ID) lowir.InstrID {
	base := l.address(v)
	addr := l.prog.Add(lowir.Instr{Op: lowir.OpFieldIndex, Operand: base, Index: 1})
	return l.prog.Add(lowir.Instr{Op: lowir.OpDeref, Operand: addr, Type: l.ts.Get(l.typeOf(v)).Elem})
}
