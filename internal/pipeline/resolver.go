package pipeline

import (
	"vellum/internal/roles"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
)

// itemGraph implements roles.DependencyResolver over one module's
// top-level items: it walks a declaration's signature, initializer, and
// (for functions) body looking for identifiers that name another
// top-level item, so roles.Module.Analyze can order declarations and
// catch recursive type/const cycles ahead of internal/typecheck.Declare.
//
// Local bindings (parameters, type parameters, let-names) are tracked in
// a per-branch shadow set so a local that happens to reuse a top-level
// name is never mistaken for a dependency on it.
type itemGraph struct {
	s      *syntax.Store
	byName map[string]syntax.NodeID
}

func newItemGraph(s *syntax.Store, items []syntax.NodeID) *itemGraph {
	g := &itemGraph{s: s, byName: make(map[string]syntax.NodeID, len(items))}
	for _, item := range items {
		if name, ok := itemName(s, item); ok {
			g.byName[name] = item
		}
	}
	return g
}

// itemName returns a top-level item's declared name, for the Kinds that
// introduce one into module scope.
func itemName(s *syntax.Store, item syntax.NodeID) (string, bool) {
	switch s.Kind(item) {
	case syntax.KStruct:
		return s.Strings.Get(s.StructName(item)), true
	case syntax.KEnum:
		return s.Strings.Get(s.EnumName(item)), true
	case syntax.KNewtype:
		return s.Strings.Get(s.NewtypeName(item)), true
	case syntax.KTypeAlias:
		return s.Strings.Get(s.TypeAliasName(item)), true
	case syntax.KConst:
		return s.Strings.Get(s.ConstName(item)), true
	case syntax.KFunction:
		return s.Strings.Get(s.FunctionName(item)), true
	default:
		return "", false
	}
}

func (g *itemGraph) PosOf(id syntax.NodeID) syntax.Position { return g.s.Pos(id) }

// InferRole assigns the fixed role each item kind settles into once its
// dependencies have all resolved; newtype declarations get RoleTagType
// since DeriveIndex's `Foo[T]` bracket application is defined over that
// role (spec.md §4.1's role lattice), everything else that introduces a
// type gets RoleType, and functions/consts are RoleValue.
func (g *itemGraph) InferRole(id syntax.NodeID, _ *roles.Module) roles.Role {
	switch g.s.Kind(id) {
	case syntax.KStruct, syntax.KEnum, syntax.KTypeAlias:
		return roles.RoleType
	case syntax.KNewtype:
		return roles.RoleTagType
	case syntax.KFunction, syntax.KConst:
		return roles.RoleValue
	default:
		return roles.RoleInvalid
	}
}

func (g *itemGraph) Dependencies(id syntax.NodeID) []syntax.NodeID {
	s := g.s
	seen := make(map[syntax.NodeID]bool)
	var out []syntax.NodeID
	add := func(name strtab.ID) {
		dep, ok := g.byName[s.Strings.Get(name)]
		if !ok || dep == id || seen[dep] {
			return
		}
		seen[dep] = true
		out = append(out, dep)
	}

	switch s.Kind(id) {
	case syntax.KStruct:
		for _, f := range s.StructFields(id) {
			g.walkType(s.StructFieldType(f), add)
		}
	case syntax.KEnum:
		if repr := s.EnumRepr(id); repr != syntax.NoNode {
			g.walkType(repr, add)
		}
	case syntax.KNewtype:
		g.walkType(s.NewtypeInner(id), add)
	case syntax.KTypeAlias:
		g.walkType(s.TypeAliasType(id), add)
	case syntax.KConst:
		g.walkExpr(s.ConstExpr(id), map[string]bool{}, add)
	case syntax.KFunction:
		shadow := make(map[string]bool)
		for _, tp := range s.FunctionTypeParams(id) {
			shadow[s.Strings.Get(s.TypeParamName(tp))] = true
		}
		for _, p := range s.FunctionParams(id) {
			g.walkType(s.ParamType(p), add)
			shadow[s.Strings.Get(s.ParamName(p))] = true
		}
		if ret := s.FunctionReturn(id); ret != syntax.NoNode {
			g.walkType(ret, add)
		}
		if body := s.FunctionBody(id); body != syntax.NoNode {
			g.walkBlock(body, shadow, add)
		}
	}
	return out
}

func (g *itemGraph) walkType(t syntax.NodeID, add func(strtab.ID)) {
	if t == syntax.NoNode {
		return
	}
	s := g.s
	switch s.Kind(t) {
	case syntax.KTypeNamed:
		add(s.TypeNamedName(t))
		for _, a := range s.TypeNamedArgs(t) {
			g.walkType(a, add)
		}
	case syntax.KTypePointer, syntax.KTypeMutPointer, syntax.KTypeSlice, syntax.KTypeMutSlice:
		g.walkType(s.TypeElem(t), add)
	case syntax.KTypeArray:
		g.walkType(s.TypeArrayElem(t), add)
	case syntax.KTypeFunc:
		for _, p := range s.TypeFuncParams(t) {
			g.walkType(p, add)
		}
		g.walkType(s.TypeFuncReturn(t), add)
	case syntax.KTypeTagged:
		g.walkType(s.TypeTaggedNewtype(t), add)
		for _, a := range s.TypeTaggedArgs(t) {
			g.walkType(a, add)
		}
	}
}

func cloneShadow(shadow map[string]bool) map[string]bool {
	out := make(map[string]bool, len(shadow))
	for k := range shadow {
		out[k] = true
	}
	return out
}

func (g *itemGraph) walkBlock(block syntax.NodeID, shadow map[string]bool, add func(strtab.ID)) {
	if block == syntax.NoNode {
		return
	}
	s := g.s
	sc := cloneShadow(shadow)
	for _, stmt := range s.BlockStmts(block) {
		g.walkStmt(stmt, sc, add)
	}
	if tail := s.BlockTail(block); tail != syntax.NoNode {
		g.walkExpr(tail, sc, add)
	}
}

func (g *itemGraph) walkStmt(stmt syntax.NodeID, shadow map[string]bool, add func(strtab.ID)) {
	s := g.s
	switch s.Kind(stmt) {
	case syntax.KExprStmt:
		g.walkExpr(s.ExprStmtExpr(stmt), shadow, add)
	case syntax.KLetStmt:
		if t := s.LetStmtType(stmt); t != syntax.NoNode {
			g.walkType(t, add)
		}
		if e := s.LetStmtExpr(stmt); e != syntax.NoNode {
			g.walkExpr(e, shadow, add)
		}
		shadow[s.Strings.Get(s.LetStmtName(stmt))] = true
	case syntax.KAssignStmt:
		g.walkExpr(s.AssignTarget(stmt), shadow, add)
		g.walkExpr(s.AssignValue(stmt), shadow, add)
	case syntax.KCompoundAssignStmt:
		g.walkExpr(s.CompoundAssignTarget(stmt), shadow, add)
		g.walkExpr(s.CompoundAssignValue(stmt), shadow, add)
	case syntax.KReturnStmt:
		if v := s.ReturnValue(stmt); v != syntax.NoNode {
			g.walkExpr(v, shadow, add)
		}
	case syntax.KIfStmt:
		g.walkExpr(s.IfCond(stmt), shadow, add)
		g.walkBlock(s.IfThen(stmt), shadow, add)
		if els := s.IfElse(stmt); els != syntax.NoNode {
			if s.Kind(els) == syntax.KBlock {
				g.walkBlock(els, shadow, add)
			} else {
				g.walkStmt(els, shadow, add)
			}
		}
	case syntax.KWhileStmt:
		g.walkExpr(s.WhileCond(stmt), shadow, add)
		g.walkBlock(s.WhileBody(stmt), shadow, add)
	case syntax.KForStmt:
		sc := cloneShadow(shadow)
		if init := s.ForInit(stmt); init != syntax.NoNode {
			g.walkStmt(init, sc, add)
		}
		if cond := s.ForCond(stmt); cond != syntax.NoNode {
			g.walkExpr(cond, sc, add)
		}
		if next := s.ForNext(stmt); next != syntax.NoNode {
			g.walkStmt(next, sc, add)
		}
		g.walkBlock(s.ForBody(stmt), sc, add)
	}
}

func (g *itemGraph) walkExpr(e syntax.NodeID, shadow map[string]bool, add func(strtab.ID)) {
	if e == syntax.NoNode {
		return
	}
	s := g.s
	switch s.Kind(e) {
	case syntax.KIdent:
		name := s.IdentName(e)
		if !shadow[s.Strings.Get(name)] {
			add(name)
		}
	case syntax.KBinaryExpr:
		g.walkExpr(s.BinaryLeft(e), shadow, add)
		g.walkExpr(s.BinaryRight(e), shadow, add)
	case syntax.KUnaryExpr:
		g.walkExpr(s.UnaryOperand(e), shadow, add)
	case syntax.KCallExpr:
		g.walkExpr(s.CallCallee(e), shadow, add)
		for _, a := range s.CallArgs(e) {
			g.walkExpr(a, shadow, add)
		}
	case syntax.KIndexExpr:
		g.walkExpr(s.IndexTarget(e), shadow, add)
		g.walkExpr(s.IndexIndex(e), shadow, add)
	case syntax.KFieldAccessExpr:
		g.walkExpr(s.FieldAccessTarget(e), shadow, add)
	case syntax.KEnumMemberAccess:
		if en := s.EnumAccessEnum(e); en != syntax.NoNode {
			g.walkExpr(en, shadow, add)
		}
	case syntax.KDerefExpr, syntax.KAddressOfExpr:
		g.walkExpr(s.AddrOperand(e), shadow, add)
	case syntax.KCastExpr:
		g.walkExpr(s.CastValue(e), shadow, add)
		g.walkType(s.CastType(e), add)
	case syntax.KParenExpr:
		g.walkExpr(s.ParenInner(e), shadow, add)
	case syntax.KSwitchExpr:
		if scr := s.SwitchScrutinee(e); scr != syntax.NoNode {
			g.walkExpr(scr, shadow, add)
		}
		for _, arm := range s.SwitchArms(e) {
			if pat := s.SwitchArmPattern(arm); pat != syntax.NoNode {
				g.walkExpr(pat, shadow, add)
			}
			g.walkExpr(s.SwitchArmValue(arm), shadow, add)
		}
	case syntax.KStructLiteral:
		g.walkExpr(s.StructLiteralType(e), shadow, add)
		for _, f := range s.StructLiteralFields(e) {
			g.walkExpr(s.StructLiteralFieldValue(f), shadow, add)
		}
	case syntax.KTupleExpr:
		for _, el := range s.TupleElems(e) {
			g.walkExpr(el, shadow, add)
		}
	case syntax.KBuiltinCall:
		for _, t := range s.BuiltinCallTypeArgs(e) {
			g.walkType(t, add)
		}
		for _, a := range s.BuiltinCallArgs(e) {
			g.walkExpr(a, shadow, add)
		}
	}
}
