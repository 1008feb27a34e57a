// Package builtins registers Vellum's primitive type names and builtin
// macros (`size_of`, `align_of`, `zero_extend`, `slice`, `Affine`) into
// the process-wide global scope and type store, per spec.md §3/§4.3.
// Grounded on kanso's internal/builtins.BuiltinType registry, generalized
// from its fixed blockchain-flavored U8..U256/Address set to Vellum's
// signed-integer/float/char/byte/bool primitive lattice plus macros.
package builtins

import (
	"vellum/internal/roles"
	"vellum/internal/strtab"
	"vellum/internal/types"
)

// PrimitiveName is one of the source-level spellings that resolve
// directly to a types.ID primitive.
type PrimitiveName string

const (
	I8    PrimitiveName = "i8"
	I16   PrimitiveName = "i16"
	I32   PrimitiveName = "i32"
	I64   PrimitiveName = "i64"
	Isize PrimitiveName = "isize"
	F32   PrimitiveName = "f32"
	F64   PrimitiveName = "f64"
	Char  PrimitiveName = "char"
	Byte  PrimitiveName = "byte"
	Bool  PrimitiveName = "bool"
)

var primitiveIDs = map[PrimitiveName]func() types.ID{
	I8:    types.I8,
	I16:   types.I16,
	I32:   types.I32,
	I64:   types.I64,
	Isize: types.Isize,
	F32:   types.F32,
	F64:   types.F64,
	Char:  types.Char,
	Byte:  types.Byte,
	Bool:  types.Bool,
}

// IsPrimitiveName reports whether name is one of Vellum's reserved
// primitive type spellings.
func IsPrimitiveName(name string) bool {
	_, ok := primitiveIDs[PrimitiveName(name)]
	return ok
}

// IsIntegerPrimitive reports whether name is one of the signed integer
// widths eligible for arithmetic/implicit-widening rules (spec.md §4.3).
func IsIntegerPrimitive(name string) bool {
	switch PrimitiveName(name) {
	case I8, I16, I32, I64, Isize:
		return true
	default:
		return false
	}
}

func IsFloatPrimitive(name string) bool {
	switch PrimitiveName(name) {
	case F32, F64:
		return true
	default:
		return false
	}
}

// TypeIDOf resolves a primitive spelling to its stable types.ID.
func TypeIDOf(name string) (types.ID, bool) {
	f, ok := primitiveIDs[PrimitiveName(name)]
	if !ok {
		return types.NoType, false
	}
	return f(), true
}

// Macro identifies one of the four backtick builtin macros spec.md §4.3
// names, plus the `Affine[T](v)` wrapper, which is written with a
// backtick like the others.
type Macro string

const (
	MacroSizeOf     Macro = "size_of"
	MacroAlignOf    Macro = "align_of"
	MacroZeroExtend Macro = "zero_extend"
	MacroSlice      Macro = "slice"
	MacroAffine     Macro = "Affine"
)

// MacroOutputRole is the role DeriveCall/DeriveIndex needs for a given
// macro: size_of/align_of produce values, slice produces a value, Affine
// produces a type (it wraps a type in the linear type).
func MacroOutputRole(m Macro) roles.Role {
	if m == MacroAffine {
		return roles.RoleType
	}
	return roles.RoleValue
}

var macroNames = map[string]Macro{
	string(MacroSizeOf):     MacroSizeOf,
	string(MacroAlignOf):    MacroAlignOf,
	string(MacroZeroExtend): MacroZeroExtend,
	string(MacroSlice):      MacroSlice,
	string(MacroAffine):     MacroAffine,
}

func LookupMacro(name string) (Macro, bool) {
	m, ok := macroNames[name]
	return m, ok
}

// RegisterGlobalScope populates the process-wide builtin Scope (spec.md
// §4.1's `global_scope`) with every primitive type name and macro name,
// so roles.Module.Lookup finds them as the fallback tier of its search
// order. Called once per compile, before any file scope is built.
func RegisterGlobalScope(global *roles.Scope, strs *strtab.Table) {
	for name := range primitiveIDs {
		sym := &roles.Symbol{Name: strs.Intern(string(name)), Role: roles.RoleType}
		global.Define(sym)
	}
	for name, m := range macroNames {
		sym := &roles.Symbol{Name: strs.Intern(name), Role: roles.RoleBuiltinMacro}
		_ = m
		global.Define(sym)
	}
}
