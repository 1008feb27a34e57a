package lowir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImm64RoundTrip(t *testing.T) {
	lo, hi := Imm64(0x0102030405060708)
	assert.Equal(t, uint64(0x0102030405060708), Imm64Join(lo, hi))
}

func TestPatchBranchHole(t *testing.T) {
	p := NewProgram()
	hole := p.Add(Instr{Op: OpBr})
	target := p.Add(Instr{Op: OpRetVoid})
	p.Patch(hole, target)
	assert.Equal(t, target, p.Get(hole).Operand, "patch did not update the branch target")
}

func TestPatchBrIfNotUsesOperand2(t *testing.T) {
	p := NewProgram()
	cond := p.Add(Instr{Op: OpConstInt})
	hole := p.Add(Instr{Op: OpBrIfNot, Operand: cond})
	target := p.Add(Instr{Op: OpRetVoid})
	p.Patch(hole, target)
	got := p.Get(hole)
	assert.Equal(t, cond, got.Operand)
	assert.Equal(t, target, got.Operand2)
}

func TestExtrasRoundTrip(t *testing.T) {
	p := NewProgram()
	a := p.Add(Instr{Op: OpConstInt})
	b := p.Add(Instr{Op: OpConstInt})
	offset, count := p.AddExtras(a, b)
	got := p.Extras(offset, count)
	assert.Equal(t, []InstrID{a, b}, got)
}

func TestBoundsRecordsFunctionRange(t *testing.T) {
	p := NewProgram()
	start := p.Add(Instr{Op: OpAlloc})
	p.Add(Instr{Op: OpRetVoid})
	end := InstrID(len(p.Instrs))
	p.Bounds["main"] = Bounds{Start: start, End: end}
	b := p.Bounds["main"]
	assert.Equal(t, start, b.Start)
	assert.Equal(t, end, b.End)
}
