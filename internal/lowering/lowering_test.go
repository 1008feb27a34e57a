package lowering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/lowir"
	"vellum/internal/pipeline"
)

// assertTerminated checks that a function's lowered [Start, End) region
// ends in a terminator, per spec.md §8's "every function ends with a
// terminator" invariant.
func assertTerminated(t *testing.T, prog *lowir.Program, name string) {
	t.Helper()
	bounds, ok := prog.Bounds[name]
	require.True(t, ok, "expected lowered bounds for %q", name)
	require.True(t, bounds.End > bounds.Start, "expected at least one instruction for %q", name)
	last := prog.Get(bounds.End - 1)
	assert.Contains(t, []lowir.Op{lowir.OpRet, lowir.OpRetVoid}, last.Op,
		"expected %q to end in a terminator, got op %v", name, last.Op)
}

// assertBranchTargetsValid walks every branch instruction in a function's
// region and checks its patched target lands on a valid instruction index
// within the whole program stream, per spec.md §8's basic-block
// well-formedness invariant.
func assertBranchTargetsValid(t *testing.T, prog *lowir.Program, name string) {
	t.Helper()
	bounds, ok := prog.Bounds[name]
	require.True(t, ok, "expected lowered bounds for %q", name)
	for id := bounds.Start; id < bounds.End; id++ {
		in := prog.Get(id)
		switch in.Op {
		case lowir.OpBr:
			assert.True(t, in.Operand >= 0 && int(in.Operand) < len(prog.Instrs),
				"%q: OpBr at %d targets out-of-range instruction %d", name, id, in.Operand)
		case lowir.OpBrIfNot:
			assert.True(t, in.Operand2 >= 0 && int(in.Operand2) < len(prog.Instrs),
				"%q: OpBrIfNot at %d targets out-of-range instruction %d", name, id, in.Operand2)
		}
	}
}

func TestLowerFibonacciIsWellFormed(t *testing.T) {
	res, ok := pipeline.Compile("fib.vl", `
function fib(n i32) -> i32 {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}

function main() {
}
`)
	require.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	assertTerminated(t, res.Low, "file0_fib")
	assertTerminated(t, res.Low, "file0_main")
	assertBranchTargetsValid(t, res.Low, "file0_fib")
}

func TestLowerSliceSumLoopIsWellFormed(t *testing.T) {
	res, ok := pipeline.Compile("sum.vl", `
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
	require.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	assertTerminated(t, res.Low, "file0_sum")
	assertBranchTargetsValid(t, res.Low, "file0_sum")

	bounds := res.Low.Bounds["file0_sum"]
	sawBr, sawBrIfNot := false, false
	for id := bounds.Start; id < bounds.End; id++ {
		switch res.Low.Get(id).Op {
		case lowir.OpBr:
			sawBr = true
		case lowir.OpBrIfNot:
			sawBrIfNot = true
		}
	}
	assert.True(t, sawBr, "expected the loop's back-edge to lower to an OpBr")
	assert.True(t, sawBrIfNot, "expected the loop's condition check to lower to an OpBrIfNot")
}

func TestLowerIfElseBothReturningIsWellFormed(t *testing.T) {
	res, ok := pipeline.Compile("ifelse.vl", `
function f(x i32) -> i32 {
	if x > 0 {
		return 1
	} else {
		return 0
	}
}

function main() {
}
`)
	require.True(t, ok, "unexpected diagnostics: %v", res.Diags)
	assertTerminated(t, res.Low, "file0_f")
	assertBranchTargetsValid(t, res.Low, "file0_f")
}
