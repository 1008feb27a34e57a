package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/diag"
)

func diagCodes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestCompileFibonacciEndToEnd(t *testing.T) {
	res, ok := Compile("fib.vl", `
module m

function fib(n i32) -> i32 {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}

function main() {
}
`)
	assert.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	require.NotNil(t, res.Low)
	_, ok1 := res.Low.Bounds["file0_fib"]
	_, ok2 := res.Low.Bounds["file0_main"]
	assert.True(t, ok1, "expected lowered bounds for fib")
	assert.True(t, ok2, "expected lowered bounds for main")
}

func TestCompileSliceSumEndToEnd(t *testing.T) {
	res, ok := Compile("sum.vl", `
module m

function sum(xs @i32) -> i32 {
	let mut s i32 = 0
	for let mut i i32 = 0; i < xs.length; i += 1 {
		s += xs[i]
	}
	return s
}

function main() {
}
`)
	assert.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	bounds, ok1 := res.Low.Bounds["file0_sum"]
	require.True(t, ok1, "expected lowered bounds for sum")
	assert.True(t, bounds.End > bounds.Start, "expected sum to lower to at least one instruction")
}

func TestCompileAffineDoubleConsumeIsAnError(t *testing.T) {
	res, ok := Compile("affine.vl", `
newtype File[0] = i32

function g(f Linear[File]) -> i32 {
	return 0
}

function main() {
	let f Linear[File] = `+"`Affine[File](3)"+`
	g(f)
	g(f)
}
`)
	assert.False(t, ok, "expected the second consume of f to fail ownership checking")
	assert.Contains(t, diagCodes(res.Diags), diag.CodeUseOfConsumed, "expected a use-of-consumed diagnostic, got %v", res.Diags)
}

func TestCompileNonExhaustiveEnumSwitchIsAnError(t *testing.T) {
	res, ok := Compile("exhaustive.vl", `
enum Color {
	Red,
	Green,
	Blue,
}

function classify(c Color) -> i32 {
	return switch c {
		.Red -> 0,
		.Green -> 1,
	}
}

function main() {
}
`)
	assert.False(t, ok, "expected a non-exhaustive switch to fail")
	assert.Contains(t, diagCodes(res.Diags), diag.CodeNonExhaustiveSwitch, "expected CodeNonExhaustiveSwitch, got %v", res.Diags)
}

func TestCompileGenericInferenceEndToEnd(t *testing.T) {
	res, ok := Compile("generic.vl", `
function id[T](x T) -> T {
	return x
}

function f() -> i64 {
	return id(7)
}

function main() {
}
`)
	assert.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	_, ok1 := res.Low.Bounds["file0_f"]
	assert.True(t, ok1, "expected lowered bounds for f")
}

func TestCompileRecursiveConstDependencyIsAnError(t *testing.T) {
	res, ok := Compile("cycle.vl", `
module m

const a = b
const b = a
`)
	assert.False(t, ok, "expected a recursive const dependency to fail")
	assert.Contains(t, diagCodes(res.Diags), diag.CodeRecursiveDependency, "expected CodeRecursiveDependency, got %v", res.Diags)
}
