package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/strtab"
	"vellum/internal/syntax"
)

func parseSrc(t *testing.T, src string) (*syntax.Store, syntax.NodeID) {
	t.Helper()
	store := syntax.NewStore(strtab.New())
	mod, errs := Parse(store, "t.vl", src)
	require.Empty(t, errs, "unexpected parse errors")
	return store, mod
}

func TestParseSimpleFunction(t *testing.T) {
	store, mod := parseSrc(t, `
function add(a i32, b i32) -> i32 {
	return a + b
}
`)
	items := store.ModuleItems(mod)
	require.Len(t, items, 1)
	fn := items[0]
	assert.Equal(t, syntax.KFunction, store.Kind(fn))
	assert.Len(t, store.FunctionParams(fn), 2)
	body := store.FunctionBody(fn)
	stmts := store.BlockStmts(body)
	require.Len(t, stmts, 1, "expected 1 stmt in body")
	ret := stmts[0]
	assert.Equal(t, syntax.KReturnStmt, store.Kind(ret))
	val := store.ReturnValue(ret)
	assert.Equal(t, syntax.KBinaryExpr, store.Kind(val))
	assert.Equal(t, syntax.OpAdd, store.BinaryOp(val))
}

func TestParsePrecedenceClimbing(t *testing.T) {
	_, mod := parseSrc(t, `
function f() -> i32 {
	return 1 + 2 * 3
}
`)
	_ = mod
}

func TestParseBinaryPrecedenceStructure(t *testing.T) {
	store, mod := parseSrc(t, `
function f() -> i32 {
	return 1 + 2 * 3
}
`)
	fn := store.ModuleItems(mod)[0]
	ret := store.BlockStmts(store.FunctionBody(fn))[0]
	top := store.ReturnValue(ret)
	assert.Equal(t, syntax.OpAdd, store.BinaryOp(top), "expected top-level op to be '+' (lowest precedence of the two)")

	right := store.BinaryRight(top)
	assert.Equal(t, syntax.KBinaryExpr, store.Kind(right))
	assert.Equal(t, syntax.OpMul, store.BinaryOp(right), "expected '2 * 3' to bind tighter and nest under '+'")
}

func TestParseIfElseStmt(t *testing.T) {
	store, mod := parseSrc(t, `
function f(x i32) -> i32 {
	if x > 0 {
		return 1
	} else {
		return 0
	}
}
`)
	fn := store.ModuleItems(mod)[0]
	stmts := store.BlockStmts(store.FunctionBody(fn))
	ifStmt := stmts[0]
	assert.Equal(t, syntax.KIfStmt, store.Kind(ifStmt))
	assert.NotEqual(t, syntax.NoNode, store.IfElse(ifStmt), "expected an else branch")
}

func TestParseStructAndLiteral(t *testing.T) {
	store, mod := parseSrc(t, `
struct Point {
	x: i32,
	y: i32,
}
function f() -> Point {
	return Point { x: 1, y: 2 }
}
`)
	items := store.ModuleItems(mod)
	require.Len(t, items, 2, "expected struct + function")
	assert.Equal(t, syntax.KStruct, store.Kind(items[0]), "expected KStruct first")
	assert.Len(t, store.StructFields(items[0]), 2)
}

func TestParseBuiltinCall(t *testing.T) {
	store, mod := parseSrc(t, `
function f() -> i64 {
	return `+"`size_of(i32)"+`
}
`)
	fn := store.ModuleItems(mod)[0]
	ret := store.BlockStmts(store.FunctionBody(fn))[0]
	val := store.ReturnValue(ret)
	assert.Equal(t, syntax.KBuiltinCall, store.Kind(val))
}

func TestParseAffineBuiltinCallFoldsTypeArgsAndValueArgs(t *testing.T) {
	store, mod := parseSrc(t, `
newtype File[0] = i32
function f() -> i32 {
	return `+"`Affine[File](1)"+`
}
`)
	fn := store.ModuleItems(mod)[1]
	stmts := store.BlockStmts(store.FunctionBody(fn))
	ret := stmts[0]
	require.Equal(t, syntax.KReturnStmt, store.Kind(ret))
	val := store.ReturnValue(ret)
	require.Equal(t, syntax.KBuiltinCall, store.Kind(val))
	assert.Len(t, store.BuiltinCallTypeArgs(val), 1, "Affine's type argument")
	assert.Len(t, store.BuiltinCallArgs(val), 1, "Affine's value argument")
}

func TestParseForLoopHoistsInit(t *testing.T) {
	store, mod := parseSrc(t, `
function f() -> i32 {
	for let i i32 = 0; i < 10; i += 1 {
		return i
	}
	return 0
}
`)
	fn := store.ModuleItems(mod)[0]
	stmts := store.BlockStmts(store.FunctionBody(fn))
	forStmt := stmts[0]
	assert.Equal(t, syntax.KForStmt, store.Kind(forStmt))
	assert.Equal(t, syntax.KLetStmt, store.Kind(store.ForInit(forStmt)), "expected hoisted let as for-init")
}

func TestParseNewtypeAndTagged(t *testing.T) {
	store, mod := parseSrc(t, `
newtype Meters[1] = i64
`)
	items := store.ModuleItems(mod)
	assert.Equal(t, syntax.KNewtype, store.Kind(items[0]))
	assert.Equal(t, int32(1), store.NewtypeTagArity(items[0]), "expected tag arity 1")
}

func TestParseBareEnumMemberPattern(t *testing.T) {
	store, mod := parseSrc(t, `
function f(c Color) -> i32 {
	return switch c {
		.R -> 0,
		.G -> 1,
	}
}
`)
	fn := store.ModuleItems(mod)[0]
	ret := store.BlockStmts(store.FunctionBody(fn))[0]
	sw := store.ReturnValue(ret)
	require.Equal(t, syntax.KSwitchExpr, store.Kind(sw))
	arms := store.SwitchArms(sw)
	require.Len(t, arms, 2)

	pattern := store.SwitchArmPattern(arms[0])
	require.Equal(t, syntax.KEnumMemberAccess, store.Kind(pattern))
	assert.Equal(t, syntax.NoNode, store.EnumAccessEnum(pattern), "bare '.R' carries no enum-type operand; resolved type-directed by the checker")
}
