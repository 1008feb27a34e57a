package syntax

import "vellum/internal/strtab"

// This file layers friendly constructor/accessor pairs over the raw
// tag+two-word Node representation. Every accessor decodes its payload
// words according to the fixed convention documented next to the Kind it
// serves; nothing here is stored beyond what Node already holds — these
// are pure interpretations of A, B and (when a node needs more than two
// children) an auxiliary KList the node's B slot points at.

// aux packs an ordered, fixed-arity list of child ids behind a single
// NodeID so a Kind whose payload needs more than two words can still fit
// in the two-word Node shape: the outer node stores the aux node's id in
// one payload slot, and the aux node's own A/B (via AddList) hold the
// real (start, count) pair into the side buffer.
func (s *Store) aux(ids ...NodeID) NodeID {
	start, count := s.AddList(ids)
	return s.Add(Node{Kind: KList, A: start, B: count})
}

func (s *Store) auxAt(id NodeID, i int) NodeID {
	n := s.Node(id)
	list := s.List(n.A, n.B)
	if i >= len(list) {
		return NoNode
	}
	return list[i]
}

func (s *Store) auxList(id NodeID) []NodeID {
	n := s.Node(id)
	return s.List(n.A, n.B)
}

// ---- Module ----

func (s *Store) NewModule(name StrID, items []NodeID, pos Position) NodeID {
	itemsID := s.aux(items...)
	return s.Add(Node{Kind: KModule, A: int32(name), B: int32(itemsID), Pos: pos})
}

func (s *Store) ModuleName(id NodeID) StrID  { return StrID(s.Node(id).A) }
func (s *Store) ModuleItems(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

// ---- Use ----

func (s *Store) NewUse(path StrID, names []NodeID, pos Position) NodeID {
	namesID := s.aux(names...)
	return s.Add(Node{Kind: KUse, A: int32(path), B: int32(namesID), Pos: pos})
}

func (s *Store) UsePath(id NodeID) StrID    { return StrID(s.Node(id).A) }
func (s *Store) UseNames(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

// ---- Struct ----

func (s *Store) NewStruct(name StrID, typeParams, fields []NodeID, isLinear bool, pos Position) NodeID {
	linear := int32(0)
	if isLinear {
		linear = 1
	}
	aux := s.aux(s.aux(typeParams...), s.aux(fields...), s.Add(Node{Kind: KIntLit, A: linear}))
	return s.Add(Node{Kind: KStruct, A: int32(name), B: int32(aux), Pos: pos})
}

func (s *Store) StructName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) StructTypeParams(id NodeID) []NodeID {
	aux := NodeID(s.Node(id).B)
	return s.auxList(s.auxAt(aux, 0))
}
func (s *Store) StructFields(id NodeID) []NodeID {
	aux := NodeID(s.Node(id).B)
	return s.auxList(s.auxAt(aux, 1))
}
func (s *Store) StructIsLinear(id NodeID) bool {
	aux := NodeID(s.Node(id).B)
	flag := s.auxAt(aux, 2)
	return s.Node(flag).A != 0
}

func (s *Store) NewStructField(name StrID, typ NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KStructField, A: int32(name), B: int32(typ), Pos: pos})
}
func (s *Store) StructFieldName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) StructFieldType(id NodeID) NodeID { return NodeID(s.Node(id).B) }

// ---- Enum ----

func (s *Store) NewEnum(name StrID, repr NodeID, members []NodeID, pos Position) NodeID {
	aux := s.aux(repr, s.aux(members...))
	return s.Add(Node{Kind: KEnum, A: int32(name), B: int32(aux), Pos: pos})
}
func (s *Store) EnumName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) EnumRepr(id NodeID) NodeID {
	return s.auxAt(NodeID(s.Node(id).B), 0)
}
func (s *Store) EnumMembers(id NodeID) []NodeID {
	return s.auxList(s.auxAt(NodeID(s.Node(id).B), 1))
}

func (s *Store) NewEnumMember(name StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KEnumMember, A: int32(name), Pos: pos})
}
func (s *Store) EnumMemberName(id NodeID) StrID { return StrID(s.Node(id).A) }

// ---- Newtype ----

func (s *Store) NewNewtype(name StrID, tagArity int32, inner NodeID, pos Position) NodeID {
	aux := s.aux(inner, s.Add(Node{Kind: KIntLit, A: tagArity}))
	return s.Add(Node{Kind: KNewtype, A: int32(name), B: int32(aux), Pos: pos})
}
func (s *Store) NewtypeName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) NewtypeInner(id NodeID) NodeID {
	return s.auxAt(NodeID(s.Node(id).B), 0)
}
func (s *Store) NewtypeTagArity(id NodeID) int32 {
	arity := s.auxAt(NodeID(s.Node(id).B), 1)
	return s.Node(arity).A
}

// ---- Const / type alias ----

func (s *Store) NewConst(name StrID, expr NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KConst, A: int32(name), B: int32(expr), Pos: pos})
}
func (s *Store) ConstName(id NodeID) StrID  { return StrID(s.Node(id).A) }
func (s *Store) ConstExpr(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewTypeAlias(name StrID, typ NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KTypeAlias, A: int32(name), B: int32(typ), Pos: pos})
}
func (s *Store) TypeAliasName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) TypeAliasType(id NodeID) NodeID { return NodeID(s.Node(id).B) }

// ---- Function ----

func (s *Store) NewFunction(name StrID, typeParams, params []NodeID, ret NodeID, body NodeID, isExtern, isExternMut bool, pos Position) NodeID {
	flags := int32(0)
	if isExtern {
		flags |= 1
	}
	if isExternMut {
		flags |= 2
	}
	aux := s.aux(s.aux(typeParams...), s.aux(params...), ret, body, s.Add(Node{Kind: KIntLit, A: flags}))
	return s.Add(Node{Kind: KFunction, A: int32(name), B: int32(aux), Pos: pos})
}
func (s *Store) FunctionName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) FunctionTypeParams(id NodeID) []NodeID {
	return s.auxList(s.auxAt(NodeID(s.Node(id).B), 0))
}
func (s *Store) FunctionParams(id NodeID) []NodeID {
	return s.auxList(s.auxAt(NodeID(s.Node(id).B), 1))
}
func (s *Store) FunctionReturn(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 2) }
func (s *Store) FunctionBody(id NodeID) NodeID   { return s.auxAt(NodeID(s.Node(id).B), 3) }
func (s *Store) FunctionIsExtern(id NodeID) bool {
	f := s.auxAt(NodeID(s.Node(id).B), 4)
	return s.Node(f).A&1 != 0
}
func (s *Store) FunctionIsExternMut(id NodeID) bool {
	f := s.auxAt(NodeID(s.Node(id).B), 4)
	return s.Node(f).A&2 != 0
}

func (s *Store) NewParam(name StrID, typ NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KParam, A: int32(name), B: int32(typ), Pos: pos})
}
func (s *Store) ParamName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) ParamType(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewTypeParam(name StrID, index int32, pos Position) NodeID {
	return s.Add(Node{Kind: KTypeParam, A: int32(name), B: index, Pos: pos})
}
func (s *Store) TypeParamName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) TypeParamIndex(id NodeID) int32 { return s.Node(id).B }

// ---- Type expressions ----

func (s *Store) NewTypeNamed(name StrID, typeArgs []NodeID, pos Position) NodeID {
	argsID := s.aux(typeArgs...)
	return s.Add(Node{Kind: KTypeNamed, A: int32(name), B: int32(argsID), Pos: pos})
}
func (s *Store) TypeNamedName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) TypeNamedArgs(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

func (s *Store) NewTypePointer(mut bool, elem NodeID, pos Position) NodeID {
	k := KTypePointer
	if mut {
		k = KTypeMutPointer
	}
	return s.Add(Node{Kind: k, B: int32(elem), Pos: pos})
}
func (s *Store) NewTypeSlice(mut bool, elem NodeID, pos Position) NodeID {
	k := KTypeSlice
	if mut {
		k = KTypeMutSlice
	}
	return s.Add(Node{Kind: k, B: int32(elem), Pos: pos})
}
func (s *Store) TypeElem(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewTypeArray(length, elem NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KTypeArray, A: int32(length), B: int32(elem), Pos: pos})
}
func (s *Store) TypeArrayLength(id NodeID) NodeID { return NodeID(s.Node(id).A) }
func (s *Store) TypeArrayElem(id NodeID) NodeID   { return NodeID(s.Node(id).B) }

func (s *Store) NewTypeFunc(params []NodeID, ret NodeID, pos Position) NodeID {
	aux := s.aux(s.aux(params...), ret)
	return s.Add(Node{Kind: KTypeFunc, B: int32(aux), Pos: pos})
}
func (s *Store) TypeFuncParams(id NodeID) []NodeID { return s.auxList(s.auxAt(NodeID(s.Node(id).B), 0)) }
func (s *Store) TypeFuncReturn(id NodeID) NodeID   { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewTypeTagged(newtype NodeID, args []NodeID, pos Position) NodeID {
	argsID := s.aux(args...)
	return s.Add(Node{Kind: KTypeTagged, A: int32(newtype), B: int32(argsID), Pos: pos})
}
func (s *Store) TypeTaggedNewtype(id NodeID) NodeID { return NodeID(s.Node(id).A) }
func (s *Store) TypeTaggedArgs(id NodeID) []NodeID  { return s.auxList(NodeID(s.Node(id).B)) }

// ---- Statements / blocks ----

func (s *Store) NewBlock(stmts []NodeID, tail NodeID, pos Position) NodeID {
	aux := s.aux(s.aux(stmts...), tail)
	return s.Add(Node{Kind: KBlock, B: int32(aux), Pos: pos})
}
func (s *Store) BlockStmts(id NodeID) []NodeID { return s.auxList(s.auxAt(NodeID(s.Node(id).B), 0)) }
func (s *Store) BlockTail(id NodeID) NodeID    { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewExprStmt(expr NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KExprStmt, B: int32(expr), Pos: pos})
}
func (s *Store) ExprStmtExpr(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewLetStmt(name StrID, mut bool, typ, expr NodeID, pos Position) NodeID {
	m := int32(0)
	if mut {
		m = 1
	}
	aux := s.aux(typ, expr, s.Add(Node{Kind: KIntLit, A: m}))
	return s.Add(Node{Kind: KLetStmt, A: int32(name), B: int32(aux), Pos: pos})
}
func (s *Store) LetStmtName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) LetStmtType(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) LetStmtExpr(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 1) }
func (s *Store) LetStmtMut(id NodeID) bool {
	flag := s.auxAt(NodeID(s.Node(id).B), 2)
	return s.Node(flag).A != 0
}

func (s *Store) NewAssignStmt(target, value NodeID, pos Position) NodeID {
	aux := s.aux(target, value)
	return s.Add(Node{Kind: KAssignStmt, B: int32(aux), Pos: pos})
}
func (s *Store) AssignTarget(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) AssignValue(id NodeID) NodeID  { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewCompoundAssignStmt(op BinOp, target, value NodeID, pos Position) NodeID {
	aux := s.aux(target, value)
	return s.Add(Node{Kind: KCompoundAssignStmt, A: int32(op), B: int32(aux), Pos: pos})
}
func (s *Store) CompoundAssignOp(id NodeID) BinOp { return BinOp(s.Node(id).A) }
func (s *Store) CompoundAssignTarget(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) CompoundAssignValue(id NodeID) NodeID  { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewReturnStmt(value NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KReturnStmt, B: int32(value), Pos: pos})
}
func (s *Store) ReturnValue(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewBreakStmt(pos Position) NodeID    { return s.Add(Node{Kind: KBreakStmt, Pos: pos}) }
func (s *Store) NewContinueStmt(pos Position) NodeID { return s.Add(Node{Kind: KContinueStmt, Pos: pos}) }

func (s *Store) NewIfStmt(cond, then, els NodeID, pos Position) NodeID {
	aux := s.aux(cond, then, els)
	return s.Add(Node{Kind: KIfStmt, B: int32(aux), Pos: pos})
}
func (s *Store) IfCond(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) IfThen(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 1) }
func (s *Store) IfElse(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 2) }

func (s *Store) NewWhileStmt(cond, body NodeID, pos Position) NodeID {
	aux := s.aux(cond, body)
	return s.Add(Node{Kind: KWhileStmt, B: int32(aux), Pos: pos})
}
func (s *Store) WhileCond(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) WhileBody(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 1) }

// NewForStmt models `for init; cond; next { body }`. The initializer is
// hoisted by the parser into a paired LetStmt/ExprStmt that lives outside
// the loop's own scope, per spec.md §4.3.
func (s *Store) NewForStmt(init, cond, next, body NodeID, pos Position) NodeID {
	aux := s.aux(init, cond, next, body)
	return s.Add(Node{Kind: KForStmt, B: int32(aux), Pos: pos})
}
func (s *Store) ForInit(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) ForCond(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 1) }
func (s *Store) ForNext(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 2) }
func (s *Store) ForBody(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 3) }

// ---- Expressions ----

func (s *Store) NewBinaryExpr(op BinOp, left, right NodeID, pos Position) NodeID {
	aux := s.aux(left, right)
	return s.Add(Node{Kind: KBinaryExpr, A: int32(op), B: int32(aux), Pos: pos})
}
func (s *Store) BinaryOp(id NodeID) BinOp      { return BinOp(s.Node(id).A) }
func (s *Store) BinaryLeft(id NodeID) NodeID   { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) BinaryRight(id NodeID) NodeID  { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewUnaryExpr(op UnOp, operand NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KUnaryExpr, A: int32(op), B: int32(operand), Pos: pos})
}
func (s *Store) UnaryOp(id NodeID) UnOp        { return UnOp(s.Node(id).A) }
func (s *Store) UnaryOperand(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewCallExpr(callee NodeID, args []NodeID, pos Position) NodeID {
	aux := s.aux(args...)
	return s.Add(Node{Kind: KCallExpr, A: int32(callee), B: int32(aux), Pos: pos})
}
func (s *Store) CallCallee(id NodeID) NodeID { return NodeID(s.Node(id).A) }
func (s *Store) CallArgs(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

func (s *Store) NewIndexExpr(target, index NodeID, pos Position) NodeID {
	aux := s.aux(target, index)
	return s.Add(Node{Kind: KIndexExpr, B: int32(aux), Pos: pos})
}
func (s *Store) IndexTarget(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) IndexIndex(id NodeID) NodeID  { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewFieldAccessExpr(target NodeID, field StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KFieldAccessExpr, A: int32(target), B: int32(field), Pos: pos})
}
func (s *Store) FieldAccessTarget(id NodeID) NodeID { return NodeID(s.Node(id).A) }
func (s *Store) FieldAccessField(id NodeID) StrID   { return StrID(s.Node(id).B) }

func (s *Store) NewEnumMemberAccess(enumOrNone NodeID, member StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KEnumMemberAccess, A: int32(enumOrNone), B: int32(member), Pos: pos})
}
func (s *Store) EnumAccessEnum(id NodeID) NodeID { return NodeID(s.Node(id).A) }
func (s *Store) EnumAccessMember(id NodeID) StrID { return StrID(s.Node(id).B) }

func (s *Store) NewDerefExpr(operand NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KDerefExpr, B: int32(operand), Pos: pos})
}
func (s *Store) NewAddressOfExpr(operand NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KAddressOfExpr, B: int32(operand), Pos: pos})
}
func (s *Store) AddrOperand(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewCastExpr(value, typ NodeID, pos Position) NodeID {
	aux := s.aux(value, typ)
	return s.Add(Node{Kind: KCastExpr, B: int32(aux), Pos: pos})
}
func (s *Store) CastValue(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) CastType(id NodeID) NodeID  { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewParenExpr(inner NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KParenExpr, B: int32(inner), Pos: pos})
}
func (s *Store) ParenInner(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewSwitchExpr(scrutinee NodeID, arms []NodeID, pos Position) NodeID {
	aux := s.aux(scrutinee, s.aux(arms...))
	return s.Add(Node{Kind: KSwitchExpr, B: int32(aux), Pos: pos})
}
func (s *Store) SwitchScrutinee(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) SwitchArms(id NodeID) []NodeID    { return s.auxList(s.auxAt(NodeID(s.Node(id).B), 1)) }

// NewSwitchArm: pattern == NoNode means an `else` arm.
func (s *Store) NewSwitchArm(pattern, value NodeID, pos Position) NodeID {
	aux := s.aux(pattern, value)
	return s.Add(Node{Kind: KSwitchArm, B: int32(aux), Pos: pos})
}
func (s *Store) SwitchArmPattern(id NodeID) NodeID { return s.auxAt(NodeID(s.Node(id).B), 0) }
func (s *Store) SwitchArmValue(id NodeID) NodeID   { return s.auxAt(NodeID(s.Node(id).B), 1) }

func (s *Store) NewStructLiteral(typ NodeID, fields []NodeID, pos Position) NodeID {
	aux := s.aux(fields...)
	return s.Add(Node{Kind: KStructLiteral, A: int32(typ), B: int32(aux), Pos: pos})
}
func (s *Store) StructLiteralType(id NodeID) NodeID    { return NodeID(s.Node(id).A) }
func (s *Store) StructLiteralFields(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

func (s *Store) NewStructLiteralField(name StrID, value NodeID, pos Position) NodeID {
	return s.Add(Node{Kind: KStructLiteralField, A: int32(name), B: int32(value), Pos: pos})
}
func (s *Store) StructLiteralFieldName(id NodeID) StrID  { return StrID(s.Node(id).A) }
func (s *Store) StructLiteralFieldValue(id NodeID) NodeID { return NodeID(s.Node(id).B) }

func (s *Store) NewTupleExpr(elems []NodeID, pos Position) NodeID {
	aux := s.aux(elems...)
	return s.Add(Node{Kind: KTupleExpr, B: int32(aux), Pos: pos})
}
func (s *Store) TupleElems(id NodeID) []NodeID { return s.auxList(NodeID(s.Node(id).B)) }

// NewBuiltinCall models `` `name(args) `` macro invocations (`size_of,
// `align_of, `zero_extend, `slice, `Affine, ...); the macro name is
// interned like any identifier.
func (s *Store) NewBuiltinCall(name StrID, typeArgs, args []NodeID, pos Position) NodeID {
	aux := s.aux(s.aux(typeArgs...), s.aux(args...))
	return s.Add(Node{Kind: KBuiltinCall, A: int32(name), B: int32(aux), Pos: pos})
}
func (s *Store) BuiltinCallName(id NodeID) StrID { return StrID(s.Node(id).A) }
func (s *Store) BuiltinCallTypeArgs(id NodeID) []NodeID {
	return s.auxList(s.auxAt(NodeID(s.Node(id).B), 0))
}
func (s *Store) BuiltinCallArgs(id NodeID) []NodeID {
	return s.auxList(s.auxAt(NodeID(s.Node(id).B), 1))
}

// ---- Leaves ----

func (s *Store) NewIdent(name StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KIdent, A: int32(name), Pos: pos})
}
func (s *Store) IdentName(id NodeID) StrID { return StrID(s.Node(id).A) }

func (s *Store) NewIntLit(text StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KIntLit, A: int32(text), Pos: pos})
}
func (s *Store) NewFloatLit(text StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KFloatLit, A: int32(text), Pos: pos})
}
func (s *Store) NewCharLit(value int32, pos Position) NodeID {
	return s.Add(Node{Kind: KCharLit, A: value, Pos: pos})
}
func (s *Store) NewStringLit(text StrID, pos Position) NodeID {
	return s.Add(Node{Kind: KStringLit, A: int32(text), Pos: pos})
}
func (s *Store) NewBoolLit(value bool, pos Position) NodeID {
	v := int32(0)
	if value {
		v = 1
	}
	return s.Add(Node{Kind: KBoolLit, A: v, Pos: pos})
}
func (s *Store) NewNullLit(pos Position) NodeID { return s.Add(Node{Kind: KNullLit, Pos: pos}) }

func (s *Store) LitText(id NodeID) StrID  { return StrID(s.Node(id).A) }
func (s *Store) CharLitValue(id NodeID) int32 { return s.Node(id).A }
func (s *Store) BoolLitValue(id NodeID) bool  { return s.Node(id).A != 0 }

// StrID aliases strtab.ID for readability within this package's API.
type StrID = strtab.ID
