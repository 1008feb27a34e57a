package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/diag"
	"vellum/internal/parser"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/typedir"
	"vellum/internal/types"
	"vellum/internal/values"
)

func buildProgram(t *testing.T, src string) *Program {
	t.Helper()
	strs := strtab.New()
	store := syntax.NewStore(strs)
	mod, errs := parser.Parse(store, "t.vl", src)
	require.Empty(t, errs, "unexpected parse errors")
	ts := types.NewStore()
	vs := values.NewStore()
	prog := NewProgram(strs, ts, vs, store)

	items := store.ModuleItems(mod)
	Declare(prog, items, nil)
	return prog
}

func TestCheckSimpleArithmeticFunction(t *testing.T) {
	prog := buildProgram(t, `
function add(a i32, b i32) -> i32 {
	return a + b
}
`)
	require.Empty(t, prog.Diags.All(), "unexpected declaration diagnostics")
	fn := prog.Funcs["add"]
	require.NotNil(t, fn, "expected function 'add' to be declared")
	c := NewChecker(prog, fn)
	require.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
	assert.NotZero(t, c.TIR.Len(), "expected at least one instruction to be emitted")
}

func TestCheckConstantFoldsBinaryIntegerOps(t *testing.T) {
	prog := buildProgram(t, `
function f() -> i32 {
	return 1 + 2 * 3
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	require.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
	// A fully constant expression should fold without emitting any
	// OpBinary instruction for the arithmetic itself.
	for i := 0; i < c.TIR.Len(); i++ {
		assert.NotEqual(t, typedir.OpBinary, c.TIR.Get(typedir.InstrID(i)).Op, "expected constant expression to fold away, found OpBinary at %d", i)
	}
}

func TestCheckIfElseBothReturningIsTerminated(t *testing.T) {
	prog := buildProgram(t, `
function f(x i32) -> i32 {
	if x > 0 {
		return 1
	} else {
		return 0
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckMissingReturnOnNonVoidFunctionIsAnError(t *testing.T) {
	prog := buildProgram(t, `
function f(x i32) -> i32 {
	if x > 0 {
		return 1
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.False(t, c.CheckBody(), "expected a fall-off-non-void diagnostic")
}

func TestCheckBreakOutsideLoopIsAnError(t *testing.T) {
	prog := buildProgram(t, `
function f() -> i32 {
	break
	return 0
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	c.CheckBody()
	assert.NotEmpty(t, c.Diags.All(), "expected a break-outside-loop diagnostic")
}

func TestCheckWhileLoopAllowsBreak(t *testing.T) {
	prog := buildProgram(t, `
function f() -> i32 {
	while true {
		break
	}
	return 0
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckStructFieldAccess(t *testing.T) {
	prog := buildProgram(t, `
struct Point {
	x: i32,
	y: i32,
}
function f() -> i32 {
	let p Point = Point { x: 1, y: 2 }
	return p.x
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckSizeOfBuiltin(t *testing.T) {
	prog := buildProgram(t, "function f() -> i64 {\n\treturn `size_of(i32)\n}\n")
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckGenericFunctionInfersTypeArgument(t *testing.T) {
	prog := buildProgram(t, `
function identity[T](x T) -> T {
	return x
}
function f() -> i64 {
	return identity(42)
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckEnumSwitchExhaustiveness(t *testing.T) {
	prog := buildProgram(t, `
enum Color {
	Red,
	Green,
	Blue,
}
function f(c Color) -> i32 {
	return switch c {
		Color::Red -> 1,
		Color::Green -> 2,
		Color::Blue -> 3,
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckEnumSwitchBareMemberPatternIsTypeDirected(t *testing.T) {
	prog := buildProgram(t, `
enum Color {
	Red,
	Green,
	Blue,
}
function f(c Color) -> i32 {
	return switch c {
		.Red -> 1,
		.Green -> 2,
		.Blue -> 3,
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())
}

func TestCheckEnumSwitchNonExhaustiveIsError(t *testing.T) {
	prog := buildProgram(t, `
enum Color {
	Red,
	Green,
	Blue,
}
function f(c Color) -> i32 {
	return switch c {
		.Red -> 0,
		.Green -> 1,
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.False(t, c.CheckBody(), "expected non-exhaustive switch to fail checking")

	found := false
	for _, d := range c.Diags.All() {
		if d.Code == diag.CodeNonExhaustiveSwitch {
			found = true
		}
	}
	assert.True(t, found, "expected %s diagnostic, got %v", diag.CodeNonExhaustiveSwitch, c.Diags.All())
}

func TestCheckEnumSwitchExhaustiveWithElseIsUnreachable(t *testing.T) {
	prog := buildProgram(t, `
enum Color {
	Red,
	Green,
}
function f(c Color) -> i32 {
	return switch c {
		.Red -> 0,
		.Green -> 1,
		else -> 2,
	}
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.False(t, c.CheckBody(), "expected unreachable-else switch to fail checking")

	found := false
	for _, d := range c.Diags.All() {
		if d.Code == diag.CodeUnreachableElse {
			found = true
		}
	}
	assert.True(t, found, "expected %s diagnostic, got %v", diag.CodeUnreachableElse, c.Diags.All())
}

func TestCheckAffineBuiltinWrapsValueInLinearType(t *testing.T) {
	prog := buildProgram(t, `
newtype File[0] = i32
function f() -> i32 {
	`+"`Affine[File](3)"+`
	return 0
}
`)
	fn := prog.Funcs["f"]
	require.NotNil(t, fn, "expected function 'f' to be declared")
	c := NewChecker(prog, fn)
	require.True(t, c.CheckBody(), "unexpected check errors: %v", c.Diags.All())

	foundAffineWrap := false
	for i := 0; i < c.TIR.Len(); i++ {
		instr := c.TIR.Get(typedir.InstrID(i))
		if instr.Op == typedir.OpAffineWrap {
			foundAffineWrap = true
			resultTy := c.valueType(instr.Result)
			assert.Equal(t, types.KLinear, c.Prog.Types.Get(resultTy).Kind, "`Affine(v) result should carry a Linear type")
		}
	}
	assert.True(t, foundAffineWrap, "expected an OpAffineWrap instruction for `Affine(...)")
}

func TestCheckAffineBuiltinInValuePositionWithWrongArityIsAnError(t *testing.T) {
	prog := buildProgram(t, `
newtype File[0] = i32
function f() -> i32 {
	return `+"`Affine[File]()"+`
}
`)
	fn := prog.Funcs["f"]
	c := NewChecker(prog, fn)
	assert.False(t, c.CheckBody(), "expected a missing-argument diagnostic for `Affine")
}
