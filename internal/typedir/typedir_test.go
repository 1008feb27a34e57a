package typedir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vellum/internal/values"
)

func TestAddAndGetRoundTrip(t *testing.T) {
	f := NewFunc()
	id := f.Add(Instr{Op: OpConst, A: int32(values.NoValue), Result: values.NoValue})
	got := f.Get(id)
	assert.Equal(t, OpConst, got.Op)
	assert.Equal(t, 1, f.Len())
}

func TestExtrasRoundTrip(t *testing.T) {
	f := NewFunc()
	a := f.Add(Instr{Op: OpLocalDecl})
	b := f.Add(Instr{Op: OpLocalDecl})
	c := f.Add(Instr{Op: OpLocalDecl})
	offset, count := f.AddExtras(a, b, c)
	got := f.Extras(offset, count)
	assert.Equal(t, []InstrID{a, b, c}, got)
}

func TestSetMutatesInPlace(t *testing.T) {
	f := NewFunc()
	id := f.Add(Instr{Op: OpBreak})
	f.Set(id, Instr{Op: OpContinue})
	assert.Equal(t, OpContinue, f.Get(id).Op, "expected mutation to stick")
}
