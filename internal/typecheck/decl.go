// Package typecheck implements spec.md §4.2/§4.3: a single-threaded
// declaration phase that populates the global type/value partitions, and
// a per-function body phase (driven in parallel by internal/pipeline via
// golang.org/x/sync/errgroup) that lowers each function's syntax subtree
// into a internal/typedir instruction stream.
package typecheck

import (
	"vellum/internal/builtins"
	"vellum/internal/diag"
	"vellum/internal/roles"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/types"
	"vellum/internal/values"
)

// FuncDecl is everything the declaration phase settles about a function
// before any body is analyzed.
type FuncDecl struct {
	Name         string
	MangledName  strtab.ID
	Node         syntax.NodeID
	TypeParams   []syntax.NodeID
	TypeParamIDs []types.ID
	ParamTypes   []types.ID
	ParamNames   []strtab.ID
	RetType      types.ID
	FuncType     types.ID
	Value        values.ID
	IsExtern     bool
	IsMain       bool
}

type StructDecl struct {
	Name       string
	Type       types.ID
	FieldIndex map[strtab.ID]int
	FieldTypes []types.ID
}

type EnumDecl struct {
	Name      string
	Type      types.ID
	ReprType  types.ID
	Members   map[strtab.ID]int64
	MemberOrd []strtab.ID
}

type NewtypeDecl struct {
	Name  string
	Type  types.ID
	Inner types.ID
	Arity int
}

// Program is the fully declared module: every top-level name resolved to
// a concrete type/value, ready for the body phase to run per function.
type Program struct {
	Strs    *strtab.Table
	Types   *types.Store
	Values  *values.Store
	Syntax  *syntax.Store

	Funcs    map[string]*FuncDecl
	Structs  map[string]*StructDecl
	Enums    map[string]*EnumDecl
	Newtypes map[string]*NewtypeDecl
	Consts   map[string]values.ID
	Aliases  map[string]types.ID

	Main *FuncDecl

	Diags diag.Bag
}

func NewProgram(strs *strtab.Table, ts *types.Store, vs *values.Store, ss *syntax.Store) *Program {
	return &Program{
		Strs: strs, Types: ts, Values: vs, Syntax: ss,
		Funcs: make(map[string]*FuncDecl), Structs: make(map[string]*StructDecl),
		Enums: make(map[string]*EnumDecl), Newtypes: make(map[string]*NewtypeDecl),
		Consts: make(map[string]values.ID), Aliases: make(map[string]types.ID),
	}
}

// resolveType walks a type syntax node to a concrete types.ID, consulting
// the program's struct/enum/newtype/alias tables and the builtin
// primitive table for named types, and typeParams for a function/struct's
// own in-scope type parameters.
func (p *Program) resolveType(node syntax.NodeID, typeParams map[string]types.ID) types.ID {
	s := p.Syntax
	switch s.Kind(node) {
	case syntax.KTypeNamed:
		name := s.Strings.Get(s.TypeNamedName(node))
		if id, ok := builtins.TypeIDOf(name); ok {
			return id
		}
		if tp, ok := typeParams[name]; ok {
			return tp
		}
		if sd, ok := p.Structs[name]; ok {
			return sd.Type
		}
		if ed, ok := p.Enums[name]; ok {
			return ed.Type
		}
		if nt, ok := p.Newtypes[name]; ok {
			args := s.TypeNamedArgs(node)
			if len(args) == 0 {
				return nt.Type
			}
			argIDs := make([]types.ID, len(args))
			for i, a := range args {
				argIDs[i] = p.resolveType(a, typeParams)
			}
			return p.Types.Tagged(nt.Type, argIDs)
		}
		if at, ok := p.Aliases[name]; ok {
			return at
		}
		return types.NoType
	case syntax.KTypePointer:
		return p.Types.Pointer(p.resolveType(s.TypeElem(node), typeParams))
	case syntax.KTypeMutPointer:
		return p.Types.MutPointer(p.resolveType(s.TypeElem(node), typeParams))
	case syntax.KTypeSlice:
		return p.Types.Slice(p.resolveType(s.TypeElem(node), typeParams))
	case syntax.KTypeMutSlice:
		return p.Types.MutSlice(p.resolveType(s.TypeElem(node), typeParams))
	case syntax.KTypeArray:
		length := ConstIntOf(s, s.TypeArrayLength(node))
		return p.Types.Array(length, p.resolveType(s.TypeArrayElem(node), typeParams))
	case syntax.KTypeFunc:
		params := s.TypeFuncParams(node)
		paramIDs := make([]types.ID, len(params))
		for i, pn := range params {
			paramIDs[i] = p.resolveType(pn, typeParams)
		}
		ret := p.resolveType(s.TypeFuncReturn(node), typeParams)
		return p.Types.Func(0, len(paramIDs), paramIDs, ret)
	case syntax.KTypeTagged:
		nt := p.resolveType(s.TypeTaggedNewtype(node), typeParams)
		args := s.TypeTaggedArgs(node)
		argIDs := make([]types.ID, len(args))
		for i, a := range args {
			argIDs[i] = p.resolveType(a, typeParams)
		}
		return p.Types.Tagged(nt, argIDs)
	default:
		return types.NoType
	}
}

// ConstIntOf evaluates a constant-integer-literal node to an int64, used
// for array lengths in type position (which spec.md treats as a
// compile-time i64 constant, never a runtime value).
func ConstIntOf(s *syntax.Store, node syntax.NodeID) int64 {
	if s.Kind(node) != syntax.KIntLit {
		return 0
	}
	lit := s.Strings.Get(s.LitText(node))
	return parseIntLiteral(lit)
}

func parseIntLiteral(lit string) int64 {
	var neg bool
	if len(lit) > 0 && lit[0] == '-' {
		neg = true
		lit = lit[1:]
	}
	var v int64
	if len(lit) > 1 && (lit[1] == 'x' || lit[1] == 'X') {
		for _, c := range lit[2:] {
			if c == '_' {
				continue
			}
			v = v*16 + int64(hexDigit(byte(c)))
		}
	} else {
		for _, c := range lit {
			if c == '_' {
				continue
			}
			if c < '0' || c > '9' {
				break
			}
			v = v*10 + int64(c-'0')
		}
	}
	if neg {
		v = -v
	}
	return v
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// Declare runs the single-threaded declaration phase of spec.md §4.2 over
// every item in the module, in the dependency order roles.Module.Order
// produced. The caller (internal/pipeline) is expected to have already
// run role analysis and pass the resulting order in.
func Declare(p *Program, items []syntax.NodeID, mod *roles.Module) {
	s := p.Syntax

	// Structs/enums/newtypes/aliases first: function signatures can name
	// them, and declaration order within this phase is single-threaded so
	// there is no race, but forward references need the type to already
	// exist in the tables it's looked up from.
	for _, item := range items {
		switch s.Kind(item) {
		case syntax.KStruct:
			p.declareStruct(item)
		case syntax.KEnum:
			p.declareEnum(item)
		case syntax.KNewtype:
			p.declareNewtype(item)
		case syntax.KTypeAlias:
			name := s.Strings.Get(s.TypeAliasName(item))
			p.Aliases[name] = p.resolveType(s.TypeAliasType(item), nil)
		}
	}
	for _, item := range items {
		switch s.Kind(item) {
		case syntax.KFunction:
			p.declareFunction(item)
		case syntax.KConst:
			p.declareConst(item)
		}
	}
}

func (p *Program) declareStruct(item syntax.NodeID) {
	s := p.Syntax
	name := s.Strings.Get(s.StructName(item))
	fields := s.StructFields(item)
	if len(fields) == 0 {
		p.Diags.Errorf(diag.CodeEmptyStruct, pos(s, item), 1, "struct %q must declare at least one field", name)
	}

	fieldIndex := make(map[strtab.ID]int, len(fields))
	fieldTypes := make([]types.ID, len(fields))
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		fname := s.StructFieldName(f)
		fnameStr := s.Strings.Get(fname)
		if seen[fnameStr] {
			p.Diags.Errorf(diag.CodeDuplicateField, pos(s, f), 1, "duplicate field %q in struct %q", fnameStr, name)
			continue
		}
		seen[fnameStr] = true
		fieldIndex[fname] = i
		fieldTypes[i] = p.resolveType(s.StructFieldType(f), nil)
	}

	typeParams := s.StructTypeParams(item)
	ty := p.Types.NewStruct(int32(item), s.StructName(item), len(typeParams), fieldTypes, s.StructIsLinear(item))
	align, size := layoutStruct(p.Types, fieldTypes)
	p.Types.SetStructLayout(ty, align, size)

	p.Structs[name] = &StructDecl{Name: name, Type: ty, FieldIndex: fieldIndex, FieldTypes: fieldTypes}
}

// layoutStruct computes alignment/size via sequential field placement,
// alignment = max of field alignments, per spec.md §3.
func layoutStruct(ts *types.Store, fields []types.ID) (align, size int) {
	align = 1
	offset := 0
	for _, f := range fields {
		fa, fs := primitiveLayout(ts, f)
		if fa > align {
			align = fa
		}
		if offset%fa != 0 {
			offset += fa - offset%fa
		}
		offset += fs
	}
	if align > 0 && offset%align != 0 {
		offset += align - offset%align
	}
	return align, offset
}

// SizeOf and AlignOf expose primitiveLayout to internal/lowering, which
// needs per-element byte sizes to turn array/slice indexing into GEP/
// OpPtrAdd byte-offset arithmetic.
func SizeOf(ts *types.Store, id types.ID) int {
	_, size := primitiveLayout(ts, id)
	return size
}

func AlignOf(ts *types.Store, id types.ID) int {
	align, _ := primitiveLayout(ts, id)
	return align
}

// primitiveLayout returns a conservative alignment/size for a type id;
// unknown-size composites (open type parameters) report (1, 0) so layout
// computation doesn't panic, matching spec.md's "unknown-sized types"
// carve-out.
func primitiveLayout(ts *types.Store, id types.ID) (align, size int) {
	d := ts.Get(id)
	switch d.Kind {
	case types.KI8, types.KByte, types.KBool, types.KChar:
		return 1, 1
	case types.KI16:
		return 2, 2
	case types.KI32, types.KF32:
		return 4, 4
	case types.KI64, types.KIsize, types.KF64, types.KPointer, types.KMutPointer:
		return 8, 8
	case types.KMultiPointer, types.KMutMultiPointer:
		return 8, 16
	case types.KStruct:
		if d.SizeKnown {
			return d.Align, d.Size
		}
		return 1, 0
	case types.KArray:
		a, sz := primitiveLayout(ts, d.Elem)
		return a, sz * int(d.Length)
	case types.KEnum:
		return primitiveLayout(ts, d.Repr)
	case types.KNewtype, types.KLinear:
		return primitiveLayout(ts, d.Inner)
	case types.KTagged:
		return primitiveLayout(ts, ts.Get(d.Newtype).Inner)
	default:
		return 1, 0
	}
}

func (p *Program) declareEnum(item syntax.NodeID) {
	s := p.Syntax
	name := s.Strings.Get(s.EnumName(item))
	reprNode := s.EnumRepr(item)
	repr := types.I64()
	if reprNode != syntax.NoNode {
		repr = p.resolveType(reprNode, nil)
	}
	if !builtins.IsIntegerPrimitive(typeNameOf(p.Types, repr)) {
		p.Diags.Errorf(diag.CodeTypeMismatch, pos(s, item), 1, "enum %q representation must be an integer type", name)
	}

	ty := p.Types.NewEnum(int32(item), s.EnumName(item), repr)
	members := s.EnumMembers(item)
	decl := &EnumDecl{Name: name, Type: ty, ReprType: repr, Members: make(map[strtab.ID]int64, len(members))}
	var next int64
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		mname := s.Strings.Get(s.EnumMemberName(m))
		if seen[mname] {
			p.Diags.Errorf(diag.CodeDuplicateDiscriminant, pos(s, m), 1, "duplicate enum member %q", mname)
			continue
		}
		seen[mname] = true
		decl.Members[s.EnumMemberName(m)] = next
		decl.MemberOrd = append(decl.MemberOrd, s.EnumMemberName(m))
		next++
	}
	p.Enums[name] = decl
}

func typeNameOf(ts *types.Store, id types.ID) string {
	switch ts.Get(id).Kind {
	case types.KI8:
		return "i8"
	case types.KI16:
		return "i16"
	case types.KI32:
		return "i32"
	case types.KI64:
		return "i64"
	case types.KIsize:
		return "isize"
	case types.KF32:
		return "f32"
	case types.KF64:
		return "f64"
	case types.KChar:
		return "char"
	case types.KByte:
		return "byte"
	case types.KBool:
		return "bool"
	default:
		return ""
	}
}

func (p *Program) declareNewtype(item syntax.NodeID) {
	s := p.Syntax
	name := s.Strings.Get(s.NewtypeName(item))
	inner := p.resolveType(s.NewtypeInner(item), nil)
	arity := int(s.NewtypeTagArity(item))
	ty := p.Types.NewNewtype(s.NewtypeName(item), arity, inner)
	p.Newtypes[name] = &NewtypeDecl{Name: name, Type: ty, Inner: inner, Arity: arity}
}

func (p *Program) declareConst(item syntax.NodeID) {
	s := p.Syntax
	name := s.Strings.Get(s.ConstName(item))
	expr := s.ConstExpr(item)
	val, ok := FoldConstExpr(p, expr, types.I64())
	if !ok {
		return
	}
	p.Consts[name] = val
}

func (p *Program) declareFunction(item syntax.NodeID) *FuncDecl {
	s := p.Syntax
	name := s.Strings.Get(s.FunctionName(item))

	typeParamNodes := s.FunctionTypeParams(item)
	typeParams := make(map[string]types.ID, len(typeParamNodes))
	typeParamIDs := make([]types.ID, len(typeParamNodes))
	for i, tp := range typeParamNodes {
		tpname := s.Strings.Get(s.TypeParamName(tp))
		id := p.Types.NewTypeParam(i, s.TypeParamName(tp))
		typeParams[tpname] = id
		typeParamIDs[i] = id
	}

	params := s.FunctionParams(item)
	paramTypes := make([]types.ID, len(params))
	paramNames := make([]strtab.ID, len(params))
	for i, pn := range params {
		paramTypes[i] = p.resolveType(s.ParamType(pn), typeParams)
		paramNames[i] = s.ParamName(pn)
	}

	ret := types.Void()
	if s.FunctionReturn(item) != syntax.NoNode {
		ret = p.resolveType(s.FunctionReturn(item), typeParams)
	}

	isMain := name == "main"
	if isMain && (len(params) != 0 || ret != types.Void()) {
		p.Diags.Errorf(diag.CodeMissingMain, pos(s, item), 1, "main must take no parameters and return nothing")
	}

	funcTy := p.Types.Func(len(typeParamNodes), len(paramTypes), paramTypes, ret)

	var mangled strtab.ID
	var val values.ID
	if s.FunctionIsExtern(item) {
		mangled = s.FunctionName(item)
		val = p.Values.ExternFunctionRef(mangled, funcTy)
	} else {
		mangled = p.Strs.Intern("file0_" + name)
		val = p.Values.FunctionRef(mangled, funcTy)
	}

	decl := &FuncDecl{
		Name: name, MangledName: mangled, Node: item, TypeParams: typeParamNodes,
		TypeParamIDs: typeParamIDs,
		ParamTypes: paramTypes, ParamNames: paramNames, RetType: ret, FuncType: funcTy,
		Value: val, IsExtern: s.FunctionIsExtern(item), IsMain: isMain,
	}
	p.Funcs[name] = decl
	if isMain {
		p.Main = decl
	}
	return decl
}

func pos(s *syntax.Store, node syntax.NodeID) diag.Position {
	p := s.Pos(node)
	return diag.Position{File: p.File, Line: p.Line, Column: p.Column}
}
