package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/parser"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/typecheck"
	"vellum/internal/types"
	"vellum/internal/values"
)

func runOwnership(t *testing.T, src, fnName string) (*typecheck.Checker, *Checker) {
	t.Helper()
	strs := strtab.New()
	store := syntax.NewStore(strs)
	mod, errs := parser.Parse(store, "t.vl", src)
	require.Empty(t, errs, "unexpected parse errors")
	ts := types.NewStore()
	vs := values.NewStore()
	prog := typecheck.NewProgram(strs, ts, vs, store)
	typecheck.Declare(prog, store.ModuleItems(mod), nil)
	require.Empty(t, prog.Diags.All(), "unexpected declaration diagnostics")

	fn := prog.Funcs[fnName]
	require.NotNil(t, fn, "expected function %q to be declared", fnName)
	tc := typecheck.NewChecker(prog, fn)
	require.True(t, tc.CheckBody(), "unexpected type-check errors: %v", tc.Diags.All())

	oc := NewChecker(store, tc.TIR, tc.VP, vs, ts, len(fn.ParamNames))
	return tc, oc
}

func TestOwnershipAllowsFieldReadOfLinearLocal(t *testing.T) {
	_, oc := runOwnership(t, `
linear struct Box {
	v: i32,
}
function f() -> i32 {
	let b Box = Box { v: 1 }
	return b.v
}
`, "f")
	assert.True(t, oc.Check(), "unexpected ownership errors: %v", oc.Diags.All())
}

func TestOwnershipRejectsDoubleConsume(t *testing.T) {
	_, oc := runOwnership(t, `
linear struct Box {
	v: i32,
}
function consume(b Box) -> i32 {
	return b.v
}
function f() -> i32 {
	let a Box = Box { v: 1 }
	let x i32 = consume(a)
	let y i32 = consume(a)
	return x + y
}
`, "f")
	assert.False(t, oc.Check(), "expected a use-of-consumed diagnostic")

	found := false
	for _, d := range oc.Diags.All() {
		if d.Code == "O4001" {
			found = true
		}
	}
	assert.True(t, found, "expected CodeUseOfConsumed, got: %v", oc.Diags.All())
}

func TestOwnershipMergesIfElseBranchesConsumingBothArmsOk(t *testing.T) {
	_, oc := runOwnership(t, `
linear struct Box {
	v: i32,
}
function consume(b Box) -> i32 {
	return b.v
}
function f(cond bool) -> i32 {
	let a Box = Box { v: 1 }
	if cond {
		return consume(a)
	} else {
		return consume(a)
	}
}
`, "f")
	assert.True(t, oc.Check(), "unexpected ownership errors: %v", oc.Diags.All())
}

func TestOwnershipConsumedInLoopIsAnError(t *testing.T) {
	_, oc := runOwnership(t, `
linear struct Box {
	v: i32,
}
function consume(b Box) -> i32 {
	return b.v
}
function f() -> i32 {
	let a Box = Box { v: 1 }
	while true {
		let x i32 = consume(a)
		break
	}
	return 0
}
`, "f")
	oc.Check()
	found := false
	for _, d := range oc.Diags.All() {
		if d.Code == "O4002" {
			found = true
		}
	}
	assert.True(t, found, "expected CodeConsumedInLoop, got: %v", oc.Diags.All())
}
