package typecheck

import (
	"math/big"

	"vellum/internal/builtins"
	"vellum/internal/diag"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/typedir"
	"vellum/internal/types"
	"vellum/internal/values"
)

// localVar is one `let`-bound name in a function's scope chain.
type localVar struct {
	index   int
	typ     types.ID
	mutable bool
}

// scope is a block-nested set of locals; function bodies push one scope
// per `{ }`.
type scope struct {
	vars   map[string]localVar
	parent *scope
}

func newScope(parent *scope) *scope { return &scope{vars: make(map[string]localVar), parent: parent} }

func (s *scope) define(name string, lv localVar) { s.vars[name] = lv }

func (s *scope) lookup(name string) (localVar, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if lv, ok := cur.vars[name]; ok {
			return lv, true
		}
	}
	return localVar{}, false
}

// Checker runs spec.md §4.3's body phase for exactly one function. It owns
// a private instruction stream and its own values.LocalPartition, so many
// Checkers can run concurrently (see internal/pipeline, which fans them
// out with golang.org/x/sync/errgroup); types it creates go straight into
// the global types.Store, which is already safe for concurrent hash-cons
// lookups, so no per-function type buffer is needed.
type Checker struct {
	Prog  *Program
	Decl  *FuncDecl
	TIR   *typedir.Func
	VP    *values.LocalPartition
	Diags diag.Bag

	typeParams map[string]types.ID
	top        *scope
	localCount int
	loopDepth  int
}

func NewChecker(p *Program, decl *FuncDecl) *Checker {
	c := &Checker{
		Prog: p, Decl: decl,
		TIR: typedir.NewFunc(),
		VP:  values.NewLocalPartition(p.Values),
		top: newScope(nil),
	}
	c.typeParams = make(map[string]types.ID, len(decl.TypeParams))
	for i, tp := range decl.TypeParams {
		name := p.Syntax.Strings.Get(p.Syntax.TypeParamName(tp))
		c.typeParams[name] = decl.TypeParamIDs[i]
	}
	for i, name := range decl.ParamNames {
		nameStr := p.Syntax.Strings.Get(name)
		idx := c.localCount
		c.localCount++
		c.top.define(nameStr, localVar{index: idx, typ: decl.ParamTypes[i], mutable: false})
	}
	return c
}

// CheckBody walks the function's block and returns whether it completed
// without emitting any error-level diagnostic of its own (this does not
// include ownership errors, which run as a separate pass over the result).
func (c *Checker) CheckBody() bool {
	if c.Decl.IsExtern {
		return true
	}
	s := c.Prog.Syntax
	body := s.FunctionBody(c.Decl.Node)
	terminated := c.checkBlock(body, c.top)
	if c.Decl.RetType != types.Void() && !terminated {
		c.Diags.Errorf(diag.CodeFallOffNonVoid, pos(s, c.Decl.Node), 1,
			"function %q must return a value on every path", c.Decl.Name)
	}
	if !terminated {
		c.TIR.Add(typedir.Instr{Op: typedir.OpReturn, Result: values.NoValue})
	}
	return !c.Diags.HasErrors()
}

// checkBlock returns true if the block is guaranteed to return/break/continue
// on every path (a conservative check: the block counts as terminated if
// any of its statements returns, breaks or continues on every path).
func (c *Checker) checkBlock(block syntax.NodeID, parent *scope) bool {
	if block == syntax.NoNode {
		return false
	}
	s := c.Prog.Syntax
	sc := newScope(parent)
	terminated := false
	for _, stmt := range s.BlockStmts(block) {
		if c.checkStmt(stmt, sc) {
			terminated = true
		}
	}
	if tail := s.BlockTail(block); tail != syntax.NoNode {
		c.checkExpr(tail, c.Decl.RetType)
	}
	return terminated
}

func (c *Checker) checkStmt(stmt syntax.NodeID, sc *scope) bool {
	s := c.Prog.Syntax
	switch s.Kind(stmt) {
	case syntax.KLetStmt:
		c.checkLet(stmt, sc)
		return false
	case syntax.KExprStmt:
		c.checkExpr(s.ExprStmtExpr(stmt), types.NoType)
		return false
	case syntax.KAssignStmt:
		c.checkAssign(stmt)
		return false
	case syntax.KCompoundAssignStmt:
		c.checkCompoundAssign(stmt)
		return false
	case syntax.KReturnStmt:
		c.checkReturn(stmt)
		return true
	case syntax.KBreakStmt:
		if c.loopDepth == 0 {
			c.Diags.Errorf(diag.CodeBreakOutsideLoop, pos(s, stmt), 1, "break outside of a loop")
		}
		c.TIR.Add(typedir.Instr{Op: typedir.OpBreak, Node: stmt})
		return true
	case syntax.KContinueStmt:
		if c.loopDepth == 0 {
			c.Diags.Errorf(diag.CodeContinueOutsideLoop, pos(s, stmt), 1, "continue outside of a loop")
		}
		c.TIR.Add(typedir.Instr{Op: typedir.OpContinue, Node: stmt})
		return true
	case syntax.KIfStmt:
		return c.checkIf(stmt, sc)
	case syntax.KWhileStmt:
		c.checkWhile(stmt, sc)
		return false
	case syntax.KForStmt:
		c.checkFor(stmt, sc)
		return false
	default:
		// A bare expression statement (no trailing semicolon, not the
		// block's tail) is stored as the expression node itself.
		c.checkExpr(stmt, types.NoType)
		return false
	}
}

func (c *Checker) checkLet(stmt syntax.NodeID, sc *scope) {
	s := c.Prog.Syntax
	name := s.Strings.Get(s.LetStmtName(stmt))
	var hint types.ID
	if tn := s.LetStmtType(stmt); tn != syntax.NoNode {
		hint = c.Prog.resolveType(tn, c.typeParams)
	}
	initVal, _ := c.checkExpr(s.LetStmtExpr(stmt), hint)
	if hint != types.NoType {
		initVal = c.tryConvert(initVal, hint, stmt)
	}
	ty := hint
	if ty == types.NoType {
		ty = c.valueType(initVal)
	}
	idx := c.localCount
	c.localCount++
	sc.define(name, localVar{index: idx, typ: ty, mutable: s.LetStmtMut(stmt)})
	c.TIR.Add(typedir.Instr{Op: typedir.OpLocalDecl, A: int32(idx), Values: []values.ID{initVal}, Node: stmt})
}

func (c *Checker) checkAssign(stmt syntax.NodeID) {
	s := c.Prog.Syntax
	target, _ := c.checkExpr(s.AssignTarget(stmt), types.NoType)
	value, _ := c.checkExpr(s.AssignValue(stmt), c.valueType(target))
	value = c.tryConvert(value, c.valueType(target), stmt)
	c.checkMutablePlace(s.AssignTarget(stmt), target)
	c.TIR.Add(typedir.Instr{Op: typedir.OpAssign, Values: []values.ID{target, value}, Node: stmt})
}

func (c *Checker) checkCompoundAssign(stmt syntax.NodeID) {
	s := c.Prog.Syntax
	target, _ := c.checkExpr(s.CompoundAssignTarget(stmt), types.NoType)
	value, _ := c.checkExpr(s.CompoundAssignValue(stmt), c.valueType(target))
	c.checkMutablePlace(s.CompoundAssignTarget(stmt), target)
	c.TIR.Add(typedir.Instr{
		Op: typedir.OpCompoundAssign, A: int32(s.CompoundAssignOp(stmt)),
		Values: []values.ID{target, value}, Node: stmt,
	})
}

func (c *Checker) checkMutablePlace(node syntax.NodeID, v values.ID) {
	if c.isLinearType(c.valueType(v)) {
		c.Diags.Errorf(diag.CodeAssignToLinear, pos(c.Prog.Syntax, node), 1, "cannot assign to a linear-typed place")
	}
}

func (c *Checker) isLinearType(id types.ID) bool {
	d := c.Prog.Types.Get(id)
	return d.Kind == types.KLinear || (d.Kind == types.KStruct && d.IsLinear)
}

func (c *Checker) checkReturn(stmt syntax.NodeID) {
	s := c.Prog.Syntax
	val := s.ReturnValue(stmt)
	var v values.ID = values.NoValue
	if val != syntax.NoNode {
		v, _ = c.checkExpr(val, c.Decl.RetType)
		v = c.tryConvert(v, c.Decl.RetType, stmt)
	} else if c.Decl.RetType != types.Void() {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, stmt), 1, "missing return value")
	}
	c.TIR.Add(typedir.Instr{Op: typedir.OpReturn, Values: []values.ID{v}, Node: stmt})
}

func (c *Checker) checkIf(stmt syntax.NodeID, sc *scope) bool {
	s := c.Prog.Syntax
	cond, _ := c.checkExpr(s.IfCond(stmt), types.Bool())
	thenStart := typedir.InstrID(c.TIR.Len())
	thenTerm := c.checkBlock(s.IfThen(stmt), sc)
	thenEnd := typedir.InstrID(c.TIR.Len())
	elseTerm := false
	elseStart := thenEnd
	elseNode := s.IfElse(stmt)
	if elseNode != syntax.NoNode {
		if s.Kind(elseNode) == syntax.KIfStmt {
			elseTerm = c.checkStmt(elseNode, sc)
		} else {
			elseTerm = c.checkBlock(elseNode, sc)
		}
	}
	elseEnd := typedir.InstrID(c.TIR.Len())
	// Children records the [start, end) instruction ranges of the then and
	// else arms so the substructural pass can snapshot/merge per branch
	// without re-walking the syntax tree.
	c.TIR.Add(typedir.Instr{
		Op: typedir.OpIf, Values: []values.ID{cond}, Node: stmt,
		Children: []typedir.InstrID{thenStart, thenEnd, elseStart, elseEnd},
	})
	return elseNode != syntax.NoNode && thenTerm && elseTerm
}

func (c *Checker) checkWhile(stmt syntax.NodeID, sc *scope) {
	s := c.Prog.Syntax
	cond, _ := c.checkExpr(s.WhileCond(stmt), types.Bool())
	c.loopDepth++
	bodyStart := typedir.InstrID(c.TIR.Len())
	c.checkBlock(s.WhileBody(stmt), sc)
	bodyEnd := typedir.InstrID(c.TIR.Len())
	c.loopDepth--
	c.TIR.Add(typedir.Instr{
		Op: typedir.OpWhile, Values: []values.ID{cond}, Node: stmt,
		Children: []typedir.InstrID{bodyStart, bodyEnd},
	})
}

func (c *Checker) checkFor(stmt syntax.NodeID, sc *scope) {
	s := c.Prog.Syntax
	inner := newScope(sc)
	if init := s.ForInit(stmt); init != syntax.NoNode {
		c.checkStmt(init, inner)
	}
	cond, _ := c.checkExpr(s.ForCond(stmt), types.Bool())
	c.loopDepth++
	bodyStart := typedir.InstrID(c.TIR.Len())
	c.checkBlock(s.ForBody(stmt), inner)
	bodyEnd := typedir.InstrID(c.TIR.Len())
	nextStart := bodyEnd
	if next := s.ForNext(stmt); next != syntax.NoNode {
		c.checkStmt(next, inner)
	}
	nextEnd := typedir.InstrID(c.TIR.Len())
	c.loopDepth--
	c.TIR.Add(typedir.Instr{
		Op: typedir.OpFor, Values: []values.ID{cond}, Node: stmt,
		Children: []typedir.InstrID{bodyStart, bodyEnd, nextStart, nextEnd},
	})
}

func (c *Checker) valueType(v values.ID) types.ID {
	return c.VP.Get(c.Prog.Values, v).Type
}

// checkExpr is the heart of spec.md §4.3: every AST node produces either
// a value id or an error marker, with a type hint flowing downward.
func (c *Checker) checkExpr(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	if node == syntax.NoNode {
		return values.NoValue, typedir.NoInstr
	}
	s := c.Prog.Syntax
	switch s.Kind(node) {
	case syntax.KIntLit:
		v := ParseBigInt(s.Strings.Get(s.LitText(node)))
		ty := InferLiteralType(c.Prog.Types, v, hint)
		if !v.IsInt64() {
			c.Diags.Errorf(diag.CodeOverflow, pos(s, node), 1, "integer literal out of range")
			return c.VP.IntegerConstant(0, ty), typedir.NoInstr
		}
		return c.VP.IntegerConstant(v.Int64(), ty), typedir.NoInstr

	case syntax.KFloatLit:
		ty := types.F64()
		if hint != types.NoType && builtins.IsFloatPrimitive(typeNameOf(c.Prog.Types, hint)) {
			ty = hint
		}
		f := parseFloatLiteral(s.Strings.Get(s.LitText(node)))
		return c.VP.FloatConstant(f, ty), typedir.NoInstr

	case syntax.KBoolLit:
		return c.VP.IntegerConstant(boolToInt(s.BoolLitValue(node)), types.Bool()), typedir.NoInstr

	case syntax.KCharLit:
		return c.VP.IntegerConstant(int64(s.CharLitValue(node)), types.Char()), typedir.NoInstr

	case syntax.KStringLit:
		return c.VP.StringConstant(s.Strings, s.Strings.Get(s.LitText(node)), c.Prog.Types.Slice(types.Byte())), typedir.NoInstr

	case syntax.KNullLit:
		ty := hint
		if ty == types.NoType {
			ty = c.Prog.Types.Pointer(types.Byte())
		}
		return c.VP.NullConstant(ty), typedir.NoInstr

	case syntax.KIdent:
		return c.checkIdent(node)

	case syntax.KParenExpr:
		return c.checkExpr(s.ParenInner(node), hint)

	case syntax.KBinaryExpr:
		return c.checkBinary(node, hint)

	case syntax.KUnaryExpr:
		return c.checkUnary(node)

	case syntax.KAddressOfExpr:
		return c.checkAddressOf(node)

	case syntax.KDerefExpr:
		return c.checkDeref(node)

	case syntax.KCastExpr:
		return c.checkCast(node)

	case syntax.KFieldAccessExpr:
		return c.checkFieldAccess(node)

	case syntax.KIndexExpr:
		return c.checkIndex(node)

	case syntax.KCallExpr:
		return c.checkCall(node, hint)

	case syntax.KBuiltinCall:
		return c.checkBuiltin(node, hint)

	case syntax.KStructLiteral:
		return c.checkStructLiteral(node)

	case syntax.KEnumMemberAccess:
		return c.checkEnumMember(node, hint)

	case syntax.KSwitchExpr:
		return c.checkSwitch(node, hint)

	default:
		return values.NoValue, typedir.NoInstr
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func parseFloatLiteral(lit string) float64 {
	var f float64
	var frac float64 = 0.1
	neg := false
	i := 0
	if len(lit) > 0 && lit[0] == '-' {
		neg = true
		i = 1
	}
	inFrac := false
	for ; i < len(lit); i++ {
		c := lit[i]
		if c == '.' {
			inFrac = true
			continue
		}
		if c == 'e' || c == 'E' {
			break
		}
		if c < '0' || c > '9' {
			continue
		}
		if inFrac {
			f += float64(c-'0') * frac
			frac *= 0.1
		} else {
			f = f*10 + float64(c-'0')
		}
	}
	if neg {
		f = -f
	}
	return f
}

func (c *Checker) checkIdent(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	name := s.Strings.Get(s.IdentName(node))
	if lv, ok := c.top.lookup(name); ok {
		if lv.mutable {
			return c.VP.MutableVariable(s.IdentName(node), lv.index, lv.typ), typedir.NoInstr
		}
		return c.VP.Variable(s.IdentName(node), lv.index, lv.typ), typedir.NoInstr
	}
	if fn, ok := c.Prog.Funcs[name]; ok {
		return fn.Value, typedir.NoInstr
	}
	if cv, ok := c.Prog.Consts[name]; ok {
		return cv, typedir.NoInstr
	}
	c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "undefined name %q", name)
	return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
}

func (c *Checker) checkBinary(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	op := s.BinaryOp(node)

	if op == syntax.OpAnd || op == syntax.OpOr {
		lv, _ := c.checkExpr(s.BinaryLeft(node), types.Bool())
		rv, _ := c.checkExpr(s.BinaryRight(node), types.Bool())
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpBinary, A: int32(op), Values: []values.ID{lv, rv}, Node: node})
		res := c.VP.Temporary(int32(id), types.Bool())
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	}

	lv, _ := c.checkExpr(s.BinaryLeft(node), hint)
	rv, _ := c.checkExpr(s.BinaryRight(node), c.valueType(lv))

	lt, rt := c.valueType(lv), c.valueType(rv)
	if lt != rt {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1, "binary operation requires matching operand types")
	}

	switch op {
	case syntax.OpEq, syntax.OpNe, syntax.OpLt, syntax.OpLe, syntax.OpGt, syntax.OpGe:
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpBinary, A: int32(op), Values: []values.ID{lv, rv}, Node: node})
		res := c.VP.Temporary(int32(id), types.Bool())
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	}

	ld, rd := c.constData(lv), c.constData(rv)
	if isConstKind(ld.Kind) && isConstKind(rd.Kind) {
		if ld.Kind == values.KIntegerConstant && rd.Kind == values.KIntegerConstant {
			if op == syntax.OpShl || op == syntax.OpShr {
				if rd.IntValue < 0 {
					c.Diags.Errorf(diag.CodeNegativeShift, pos(s, node), 1, "shift amount must not be negative")
				}
			}
			if folded, ok := FoldBinaryInt(c.Prog.Types, op, big.NewInt(ld.IntValue), big.NewInt(rd.IntValue), lt); ok {
				return c.VP.IntegerConstant(folded.Int64(), lt), typedir.NoInstr
			}
			c.Diags.Errorf(diag.CodeOverflow, pos(s, node), 1, "constant arithmetic overflowed or is undefined")
			return c.VP.IntegerConstant(0, lt), typedir.NoInstr
		}
	}

	id := c.TIR.Add(typedir.Instr{Op: typedir.OpBinary, A: int32(op), Values: []values.ID{lv, rv}, Node: node})
	res := c.VP.Temporary(int32(id), lt)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func withResult(in typedir.Instr, res values.ID) typedir.Instr {
	in.Result = res
	return in
}

func isConstKind(k values.Kind) bool {
	return k == values.KIntegerConstant || k == values.KFloatConstant
}

func (c *Checker) constData(v values.ID) values.Data {
	return c.VP.Get(c.Prog.Values, v)
}

func (c *Checker) checkUnary(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	op := s.UnaryOp(node)
	operand, _ := c.checkExpr(s.UnaryOperand(node), types.NoType)
	ty := c.valueType(operand)
	if op == syntax.OpNot {
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpNot, Values: []values.ID{operand}, Node: node})
		res := c.VP.Temporary(int32(id), types.Bool())
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpUnary, A: int32(op), Values: []values.ID{operand}, Node: node})
	res := c.VP.Temporary(int32(id), ty)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

// checkAddressOf implements spec.md §4.3's "address-of-temporary silently
// stack-allocates storage; on a place produces *T; on a mutable place
// produces *mut T".
func (c *Checker) checkAddressOf(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	operand, _ := c.checkExpr(s.AddrOperand(node), types.NoType)
	cat := c.categoryOf(operand)
	ty := c.valueType(operand)
	var ptrTy types.ID
	switch cat {
	case values.CatMutablePlace:
		ptrTy = c.Prog.Types.MutPointer(ty)
	default:
		ptrTy = c.Prog.Types.Pointer(ty)
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpAddressOf, Values: []values.ID{operand}, Node: node})
	res := c.VP.Temporary(int32(id), ptrTy)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func (c *Checker) categoryOf(v values.ID) values.Category {
	return values.Categorize(c.constData(v).Kind)
}

func (c *Checker) checkDeref(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	operand, _ := c.checkExpr(s.UnaryOperand(node), types.NoType)
	ty := c.valueType(operand)
	d := c.Prog.Types.Get(ty)
	if d.Kind != types.KPointer && d.Kind != types.KMutPointer {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1, "cannot dereference a non-pointer type")
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpDeref, Values: []values.ID{operand}, Node: node})
	var res values.ID
	if d.Kind == types.KMutPointer {
		res = c.VP.MutableVariable(strtab.NoID, -1, d.Elem)
	} else {
		res = c.VP.Variable(strtab.NoID, -1, d.Elem)
	}
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

// checkCast implements spec.md §4.3's explicit-cast rule table, folding
// compile-time constants immediately under bit-width truncation.
func (c *Checker) checkCast(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	value, _ := c.checkExpr(s.CastValue(node), types.NoType)
	target := c.Prog.resolveType(s.CastType(node), c.typeParams)
	srcTy := c.valueType(value)

	if !castAllowed(c.Prog.Types, srcTy, target) {
		c.Diags.Errorf(diag.CodeBadCast, pos(s, node), 1, "cast not permitted between these types")
		return c.VP.IntegerConstant(0, target), typedir.NoInstr
	}

	if d := c.constData(value); isConstKind(d.Kind) && d.Kind == values.KIntegerConstant {
		folded := truncateToWidth(c.Prog.Types, target, d.IntValue)
		return c.VP.IntegerConstant(folded, target), typedir.NoInstr
	}

	id := c.TIR.Add(typedir.Instr{Op: typedir.OpCast, A: int32(srcTy), Values: []values.ID{value}, Node: node})
	res := c.VP.Temporary(int32(id), target)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func castAllowed(ts *types.Store, from, to types.ID) bool {
	fk, tk := ts.Get(from).Kind, ts.Get(to).Kind
	isPtr := func(k types.Kind) bool { return k == types.KPointer || k == types.KMutPointer }
	isInt := func(k types.Kind) bool {
		return k == types.KI8 || k == types.KI16 || k == types.KI32 || k == types.KI64 || k == types.KIsize || k == types.KChar || k == types.KByte
	}
	isFloat := func(k types.Kind) bool { return k == types.KF32 || k == types.KF64 }
	switch {
	case isPtr(fk) && isPtr(tk):
		return true
	case isInt(fk) && isFloat(tk), isFloat(fk) && isInt(tk), isInt(fk) && isInt(tk), isFloat(fk) && isFloat(tk):
		return true
	default:
		return false
	}
}

func truncateToWidth(ts *types.Store, ty types.ID, v int64) int64 {
	switch ts.Get(ty).Kind {
	case types.KI8:
		return int64(int8(v))
	case types.KI16:
		return int64(int16(v))
	case types.KI32:
		return int64(int32(v))
	case types.KChar, types.KByte:
		return int64(uint8(v))
	default:
		return v
	}
}

func (c *Checker) checkFieldAccess(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	target, _ := c.checkExpr(s.FieldAccessTarget(node), types.NoType)
	ty := c.valueType(target)
	fieldName := s.Strings.Get(s.FieldAccessField(node))

	d := c.Prog.Types.Get(ty)
	switch {
	case d.Kind == types.KArray && fieldName == "length":
		return c.VP.IntegerConstant(d.Length, types.Isize()), typedir.NoInstr
	case (d.Kind == types.KMultiPointer || d.Kind == types.KMutMultiPointer) && fieldName == "length":
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpFieldAccess, Values: []values.ID{target}, Node: node})
		res := c.VP.Temporary(int32(id), types.Isize())
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	case (d.Kind == types.KMultiPointer || d.Kind == types.KMutMultiPointer) && fieldName == "data":
		ptrTy := c.Prog.Types.Pointer(d.Elem)
		if d.Kind == types.KMutMultiPointer {
			ptrTy = c.Prog.Types.MutPointer(d.Elem)
		}
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpFieldAccess, Values: []values.ID{target}, Node: node})
		res := c.VP.Temporary(int32(id), ptrTy)
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	case d.Kind == types.KStruct:
		structDecl := c.structDeclForType(ty)
		if structDecl == nil {
			break
		}
		idx, ok := structDecl.FieldIndex[s.FieldAccessField(node)]
		if !ok {
			c.Diags.Errorf(diag.CodeFieldNotFound, pos(s, node), 1, "field %q not found", fieldName)
			return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
		}
		fieldTy := structDecl.FieldTypes[idx]
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpFieldAccess, A: int32(idx), Values: []values.ID{target}, Node: node})
		cat := c.categoryOf(target)
		var res values.ID
		if cat == values.CatMutablePlace {
			res = c.VP.MutableVariable(strtab.NoID, -1, fieldTy)
		} else {
			res = c.VP.Variable(strtab.NoID, -1, fieldTy)
		}
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id
	}
	c.Diags.Errorf(diag.CodeFieldNotFound, pos(s, node), 1, "field %q not found", fieldName)
	return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
}

func (c *Checker) structDeclForType(ty types.ID) *StructDecl {
	for _, sd := range c.Prog.Structs {
		if sd.Type == ty {
			return sd
		}
	}
	return nil
}

func (c *Checker) checkIndex(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	target, _ := c.checkExpr(s.IndexTarget(node), types.NoType)
	index, _ := c.checkExpr(s.IndexIndex(node), types.Isize())
	ty := c.valueType(target)
	d := c.Prog.Types.Get(ty)
	var elem types.ID
	switch d.Kind {
	case types.KArray, types.KMultiPointer, types.KMutMultiPointer:
		elem = d.Elem
	default:
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1, "cannot index a non-array/slice type")
		elem = types.I64()
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpIndex, Values: []values.ID{target, index}, Node: node})
	cat := c.categoryOf(target)
	var res values.ID
	if cat == values.CatMutablePlace || d.Kind == types.KMutMultiPointer {
		res = c.VP.MutableVariable(strtab.NoID, -1, elem)
	} else {
		res = c.VP.Variable(strtab.NoID, -1, elem)
	}
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

// checkCall implements both plain calls and generic-inference calls per
// spec.md §4.3: when the callee's declared type parameters aren't fixed
// by an explicit instantiation, each parameter type is unified against
// the corresponding argument's type, binding each index's first witness.
func (c *Checker) checkCall(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	calleeNode := s.CallCallee(node)
	argNodes := s.CallArgs(node)

	if s.Kind(calleeNode) == syntax.KIdent {
		name := s.Strings.Get(s.IdentName(calleeNode))
		if fn, ok := c.Prog.Funcs[name]; ok {
			return c.checkFunctionCall(node, fn, argNodes)
		}
		if sd, ok := c.Prog.Structs[name]; ok {
			return c.checkConstructorCall(node, sd, argNodes)
		}
	}

	callee, _ := c.checkExpr(calleeNode, types.NoType)
	args := make([]values.ID, len(argNodes))
	for i, a := range argNodes {
		args[i], _ = c.checkExpr(a, types.NoType)
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpCall, Values: append([]values.ID{callee}, args...), Node: node})
	ret := hint
	if fd := c.Prog.Types.Get(c.valueType(callee)); fd.Kind == types.KFunc {
		ret = fd.Ret
	}
	res := c.VP.Temporary(int32(id), ret)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func (c *Checker) checkFunctionCall(node syntax.NodeID, fn *FuncDecl, argNodes []syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	if len(argNodes) != len(fn.ParamTypes) {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1,
			"function %q expects %d arguments, got %d", fn.Name, len(fn.ParamTypes), len(argNodes))
	}

	generic := len(fn.TypeParams) > 0
	bindings := make(map[int]types.ID)
	args := make([]values.ID, len(argNodes))
	n := len(argNodes)
	if len(fn.ParamTypes) < n {
		n = len(fn.ParamTypes)
	}
	for i := 0; i < n; i++ {
		args[i], _ = c.checkExpr(argNodes[i], fn.ParamTypes[i])
		if generic {
			unify(c.Prog.Types, fn.ParamTypes[i], c.valueType(args[i]), bindings)
		}
	}
	for i := n; i < len(argNodes); i++ {
		args[i], _ = c.checkExpr(argNodes[i], types.NoType)
	}

	if generic && len(bindings) < len(fn.TypeParams) {
		c.Diags.Errorf(diag.CodeInferenceFailed, pos(s, node), 1,
			"couldn't infer type arguments for %q", fn.Name)
	}

	// Once inference settles, substitute the bound type arguments into
	// the parameter/return types and re-check arguments against the
	// substituted parameters (spec.md §4.3: "argument types are
	// re-checked against the substituted parameter types").
	retType := fn.RetType
	if generic {
		retType = substitute(c.Prog.Types, fn.RetType, bindings)
		for i := 0; i < n; i++ {
			paramType := substitute(c.Prog.Types, fn.ParamTypes[i], bindings)
			args[i] = c.tryConvert(args[i], paramType, argNodes[i])
		}
	} else {
		for i := 0; i < n; i++ {
			args[i] = c.tryConvert(args[i], fn.ParamTypes[i], argNodes[i])
		}
	}

	id := c.TIR.Add(typedir.Instr{Op: typedir.OpCall, Values: append([]values.ID{fn.Value}, args...), Node: node})
	res := c.VP.Temporary(int32(id), retType)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func (c *Checker) checkConstructorCall(node syntax.NodeID, sd *StructDecl, argNodes []syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	if len(argNodes) != len(sd.FieldTypes) {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1,
			"struct %q expects %d fields, got %d", sd.Name, len(sd.FieldTypes), len(argNodes))
	}
	args := make([]values.ID, len(argNodes))
	for i, a := range argNodes {
		var hint types.ID
		if i < len(sd.FieldTypes) {
			hint = sd.FieldTypes[i]
		}
		args[i], _ = c.checkExpr(a, hint)
		if hint != types.NoType {
			args[i] = c.tryConvert(args[i], hint, a)
		}
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpConstructorCall, Values: args, Node: node})
	res := c.VP.Temporary(int32(id), sd.Type)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

// unify binds each type-parameter index's first witnessed argument type,
// recursing structurally through composites; a later disagreement is left
// for the caller to detect via an incomplete bindings map.
func unify(ts *types.Store, param, arg types.ID, bindings map[int]types.ID) {
	pd := ts.Get(param)
	if pd.Kind == types.KTypeParam {
		if existing, ok := bindings[pd.Index]; ok {
			if existing != arg {
				delete(bindings, pd.Index) // disagreement: mark unresolved
			}
			return
		}
		bindings[pd.Index] = arg
		return
	}
	ad := ts.Get(arg)
	switch pd.Kind {
	case types.KArray, types.KPointer, types.KMutPointer, types.KMultiPointer, types.KMutMultiPointer:
		if ad.Elem != types.NoType {
			unify(ts, pd.Elem, ad.Elem, bindings)
		}
	}
}

// substitute rebuilds ty with every bound type-parameter index replaced
// by its inferred argument type, recursing through the same structural
// composites unify walks. Composites are rebuilt via the Store's
// structural constructors so the result is the properly hash-consed
// monomorphized type, not a stand-in.
func substitute(ts *types.Store, ty types.ID, bindings map[int]types.ID) types.ID {
	d := ts.Get(ty)
	switch d.Kind {
	case types.KTypeParam:
		if bound, ok := bindings[d.Index]; ok {
			return bound
		}
		return ty
	case types.KArray:
		elem := substitute(ts, d.Elem, bindings)
		if elem == d.Elem {
			return ty
		}
		return ts.Array(d.Length, elem)
	case types.KPointer:
		if elem := substitute(ts, d.Elem, bindings); elem != d.Elem {
			return ts.Pointer(elem)
		}
		return ty
	case types.KMutPointer:
		if elem := substitute(ts, d.Elem, bindings); elem != d.Elem {
			return ts.MutPointer(elem)
		}
		return ty
	case types.KMultiPointer:
		if elem := substitute(ts, d.Elem, bindings); elem != d.Elem {
			return ts.Slice(elem)
		}
		return ty
	case types.KMutMultiPointer:
		if elem := substitute(ts, d.Elem, bindings); elem != d.Elem {
			return ts.MutSlice(elem)
		}
		return ty
	default:
		return ty
	}
}

// checkBuiltin implements spec.md §4.3's `size_of`/`align_of`/
// `zero_extend`/`slice`/`Affine` backtick macros.
func (c *Checker) checkBuiltin(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	name := s.Strings.Get(s.BuiltinCallName(node))
	macro, ok := builtins.LookupMacro(name)
	if !ok {
		c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "unknown builtin %q", name)
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}

	typeArgs := s.BuiltinCallTypeArgs(node)
	args := s.BuiltinCallArgs(node)

	switch macro {
	case builtins.MacroSizeOf, builtins.MacroAlignOf:
		if len(typeArgs) != 1 {
			c.Diags.Errorf(diag.CodeInferenceFailed, pos(s, node), 1, "%s expects exactly one type argument", name)
			return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
		}
		ty := c.Prog.resolveType(typeArgs[0], c.typeParams)
		align, size := primitiveLayout(c.Prog.Types, ty)
		v := int64(size)
		if macro == builtins.MacroAlignOf {
			v = int64(align)
		}
		return c.VP.IntegerConstant(v, types.I64()), typedir.NoInstr

	case builtins.MacroZeroExtend:
		if len(args) != 1 {
			c.Diags.Errorf(diag.CodeInferenceFailed, pos(s, node), 1, "`zero_extend expects exactly one argument")
			return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
		}
		width := hint
		if width == types.NoType {
			width = types.I64()
		}
		v, _ := c.checkExpr(args[0], types.NoType)
		if d := c.constData(v); d.Kind == values.KIntegerConstant {
			masked := maskToWidth(c.Prog.Types, width, d.IntValue)
			return c.VP.IntegerConstant(masked, width), typedir.NoInstr
		}
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpZeroExtend, Values: []values.ID{v}, Node: node})
		res := c.VP.Temporary(int32(id), width)
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id

	case builtins.MacroSlice:
		if len(args) != 2 {
			c.Diags.Errorf(diag.CodeInferenceFailed, pos(s, node), 1, "`slice expects (length, pointer)")
			return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
		}
		length, _ := c.checkExpr(args[0], types.Isize())
		ptr, _ := c.checkExpr(args[1], types.NoType)
		ptrTy := c.valueType(ptr)
		elem := c.Prog.Types.Get(ptrTy).Elem
		sliceTy := c.Prog.Types.Slice(elem)
		if c.Prog.Types.Get(ptrTy).Kind == types.KMutPointer {
			sliceTy = c.Prog.Types.MutSlice(elem)
		}
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpSliceBuiltin, Values: []values.ID{length, ptr}, Node: node})
		res := c.VP.Temporary(int32(id), sliceTy)
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id

	case builtins.MacroAffine:
		// `Affine[T](value)` wraps value in the Linear[T] affine type the
		// parser folds into one KBuiltinCall node regardless of type args
		// vs. call args, so a value-position `Affine[T](v)` reaches here
		// with typeArgs=[T] and args=[v] exactly like any other macro call.
		if len(typeArgs) != 1 || len(args) != 1 {
			c.Diags.Errorf(diag.CodeInferenceFailed, pos(s, node), 1, "`Affine expects one type argument and one value argument")
			return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
		}
		inner := c.Prog.resolveType(typeArgs[0], c.typeParams)
		v, _ := c.checkExpr(args[0], inner)
		v = c.tryConvert(v, inner, args[0])
		linearTy := c.Prog.Types.Linear(inner)
		id := c.TIR.Add(typedir.Instr{Op: typedir.OpAffineWrap, Values: []values.ID{v}, Node: node})
		res := c.VP.Temporary(int32(id), linearTy)
		c.TIR.Set(id, withResult(c.TIR.Get(id), res))
		return res, id

	default:
		c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "unknown builtin %q", name)
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}
}

func maskToWidth(ts *types.Store, ty types.ID, v int64) int64 {
	switch ts.Get(ty).Kind {
	case types.KI8:
		return int64(uint8(v))
	case types.KI16:
		return int64(uint16(v))
	case types.KI32:
		return int64(uint32(v))
	default:
		return v
	}
}

func (c *Checker) checkStructLiteral(node syntax.NodeID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	typeNode := s.StructLiteralType(node)
	name := s.Strings.Get(s.IdentName(typeNode))
	sd, ok := c.Prog.Structs[name]
	if !ok {
		c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "unknown struct %q", name)
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}
	fields := s.StructLiteralFields(node)
	seen := make(map[string]bool, len(fields))
	argVals := make([]values.ID, len(sd.FieldTypes))
	for _, f := range fields {
		fname := s.Strings.Get(s.StructLiteralFieldName(f))
		if seen[fname] {
			c.Diags.Errorf(diag.CodeDuplicateField, pos(s, f), 1, "duplicate field %q in struct literal", fname)
			continue
		}
		seen[fname] = true
		idx, ok := sd.FieldIndex[s.StructLiteralFieldName(f)]
		if !ok {
			c.Diags.Errorf(diag.CodeFieldNotFound, pos(s, f), 1, "unknown field %q", fname)
			continue
		}
		v, _ := c.checkExpr(s.StructLiteralFieldValue(f), sd.FieldTypes[idx])
		v = c.tryConvert(v, sd.FieldTypes[idx], f)
		argVals[idx] = v
	}
	if len(seen) != len(sd.FieldTypes) {
		c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, node), 1, "struct literal %q is missing fields", name)
	}
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpConstructorCall, Values: argVals, Node: node})
	res := c.VP.Temporary(int32(id), sd.Type)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func (c *Checker) checkEnumMember(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	enumNode := s.EnumAccessEnum(node)
	memberName := s.EnumAccessMember(node)

	var ed *EnumDecl
	if enumNode != syntax.NoNode {
		name := s.Strings.Get(s.IdentName(enumNode))
		ed = c.Prog.Enums[name]
	} else if hint != types.NoType && c.Prog.Types.Get(hint).Kind == types.KEnum {
		ed = c.enumDeclForType(hint)
	}
	if ed == nil {
		c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "cannot resolve enum member %q", s.Strings.Get(memberName))
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}
	v, ok := ed.Members[memberName]
	if !ok {
		c.Diags.Errorf(diag.CodeUndefinedName, pos(s, node), 1, "enum %q has no member %q", ed.Name, s.Strings.Get(memberName))
		return c.VP.IntegerConstant(0, types.I64()), typedir.NoInstr
	}
	return c.VP.IntegerConstant(v, ed.Type), typedir.NoInstr
}

func (c *Checker) enumDeclForType(ty types.ID) *EnumDecl {
	for _, ed := range c.Prog.Enums {
		if ed.Type == ty {
			return ed
		}
	}
	return nil
}

// checkSwitch implements spec.md §4.3's exhaustiveness/unreachable-else
// rule for an enum scrutinee, and the general arm-value type agreement
// rule for every switch.
func (c *Checker) checkSwitch(node syntax.NodeID, hint types.ID) (values.ID, typedir.InstrID) {
	s := c.Prog.Syntax
	scrutineeNode := s.SwitchScrutinee(node)
	var scrutinee values.ID = values.NoValue
	var scrutineeType types.ID
	if scrutineeNode != syntax.NoNode {
		scrutinee, _ = c.checkExpr(scrutineeNode, types.NoType)
		scrutineeType = c.valueType(scrutinee)
	}

	arms := s.SwitchArms(node)
	seenPatterns := make(map[string]bool)
	var elseArm syntax.NodeID
	coveredDiscriminants := make(map[int64]bool)
	resultType := hint
	// armPatternValues/armValues hold one entry per arm (NoValue for an
	// else arm's pattern); interleaved into the OpSwitch instruction as
	// (pattern, value) pairs so lowering can rebuild the compare chain
	// spec.md §4.5 describes without re-walking the syntax tree.
	armPatternValues := make([]values.ID, 0, len(arms))
	armValues := make([]values.ID, 0, len(arms))
	// armRanges records each arm's value-expression [start, end) instruction
	// range, flattened as pairs, so the substructural pass can snapshot and
	// merge state across arms the same way it does for if/else.
	var armRanges []typedir.InstrID

	for _, arm := range arms {
		pattern := s.SwitchArmPattern(arm)
		patternVal := values.NoValue
		if pattern == syntax.NoNode {
			elseArm = arm
		} else {
			key := patternKey(s, pattern)
			if seenPatterns[key] {
				c.Diags.Errorf(diag.CodeDuplicatePattern, pos(s, arm), 1, "duplicate switch pattern")
			}
			seenPatterns[key] = true
			patternVal, _ = c.checkExpr(pattern, scrutineeType)
			if s.Kind(pattern) == syntax.KEnumMemberAccess {
				coveredDiscriminants[c.constData(patternVal).IntValue] = true
			}
		}
		armPatternValues = append(armPatternValues, patternVal)
		armStart := typedir.InstrID(c.TIR.Len())
		v, _ := c.checkExpr(s.SwitchArmValue(arm), resultType)
		armEnd := typedir.InstrID(c.TIR.Len())
		armRanges = append(armRanges, armStart, armEnd)
		if resultType == types.NoType {
			resultType = c.valueType(v)
		} else if c.valueType(v) != resultType {
			c.Diags.Errorf(diag.CodeTypeMismatch, pos(s, arm), 1, "switch arm value type disagrees with earlier arms")
		}
		armValues = append(armValues, v)
	}

	if ed := c.enumDeclForType(scrutineeType); ed != nil {
		exhaustive := len(coveredDiscriminants) == len(ed.Members)
		if !exhaustive && elseArm == syntax.NoNode {
			c.Diags.Errorf(diag.CodeNonExhaustiveSwitch, pos(s, node), 1, "switch must cover all possible values of enum %q", ed.Name)
		}
		if exhaustive && elseArm != syntax.NoNode {
			c.Diags.Errorf(diag.CodeUnreachableElse, pos(s, elseArm), 1, "else arm is unreachable: every enum member is already covered")
		}
	}

	vals := make([]values.ID, 0, 1+2*len(armValues))
	vals = append(vals, scrutinee)
	for i := range armValues {
		vals = append(vals, armPatternValues[i], armValues[i])
	}
	id := c.TIR.Add(typedir.Instr{
		Op: typedir.OpSwitch, Values: vals, Node: node,
		Children: armRanges,
	})
	res := c.VP.Temporary(int32(id), resultType)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res, id
}

func patternKey(s *syntax.Store, node syntax.NodeID) string {
	switch s.Kind(node) {
	case syntax.KEnumMemberAccess:
		return "enum:" + s.Strings.Get(s.EnumAccessMember(node))
	case syntax.KIntLit:
		return "int:" + s.Strings.Get(s.LitText(node))
	default:
		return "expr"
	}
}
