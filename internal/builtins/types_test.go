package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/roles"
	"vellum/internal/strtab"
	"vellum/internal/types"
)

func TestIsPrimitiveName(t *testing.T) {
	assert.True(t, IsPrimitiveName("i32"))
	assert.True(t, IsPrimitiveName("bool"))
	assert.False(t, IsPrimitiveName("Foo"), "Foo should not be a primitive")
}

func TestIsIntegerAndFloatPrimitive(t *testing.T) {
	assert.True(t, IsIntegerPrimitive("i64"))
	assert.False(t, IsIntegerPrimitive("f64"))
	assert.True(t, IsFloatPrimitive("f32"))
	assert.False(t, IsFloatPrimitive("i8"))
}

func TestTypeIDOfMatchesStorePrimitives(t *testing.T) {
	ts := types.NewStore()
	id, ok := TypeIDOf("i32")
	require.True(t, ok, "expected i32 to resolve")
	assert.Equal(t, types.I32(), id, "expected i32 to resolve to the store's I32 id")

	_, ok = TypeIDOf("nope")
	assert.False(t, ok, "unknown name should not resolve")
	_ = ts
}

func TestLookupMacro(t *testing.T) {
	m, ok := LookupMacro("size_of")
	require.True(t, ok)
	assert.Equal(t, MacroSizeOf, m)

	_, ok = LookupMacro("nope")
	assert.False(t, ok, "unknown macro should not resolve")
}

func TestMacroOutputRole(t *testing.T) {
	assert.Equal(t, roles.RoleType, MacroOutputRole(MacroAffine), "Affine should yield RoleType")
	assert.Equal(t, roles.RoleValue, MacroOutputRole(MacroSizeOf), "size_of should yield RoleValue")
}

func TestRegisterGlobalScope(t *testing.T) {
	strs := strtab.New()
	global := roles.NewScope(nil)
	RegisterGlobalScope(global, strs)

	i32Name := strs.Intern("i32")
	sym := global.LookupLocal(i32Name)
	require.NotNil(t, sym, "expected i32 registered in global scope")
	assert.Equal(t, roles.RoleType, sym.Role, "expected i32 registered as a Type role")

	macroName := strs.Intern("size_of")
	msym := global.LookupLocal(macroName)
	require.NotNil(t, msym, "expected size_of registered in global scope")
	assert.Equal(t, roles.RoleBuiltinMacro, msym.Role, "expected size_of registered as a BuiltinMacro role")
}
