package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/strtab"
	"vellum/internal/types"
)

func TestCategorizeFollowsSpecTable(t *testing.T) {
	cases := []struct {
		k    Kind
		want Category
	}{
		{KErrorPlaceholder, CatTemporary},
		{KFunctionRef, CatTemporary},
		{KExternFunctionRef, CatTemporary},
		{KIntegerConstant, CatTemporary},
		{KFloatConstant, CatTemporary},
		{KNullConstant, CatTemporary},
		{KTemporary, CatTemporary},
		{KExternVariable, CatPlace},
		{KStringConstant, CatPlace},
		{KVariable, CatPlace},
		{KMutableVariable, CatMutablePlace},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Categorize(c.k), "Categorize(%v)", c.k)
	}
}

func TestStoreDeclarationPhaseRefs(t *testing.T) {
	ts := types.NewStore()
	strs := strtab.New()
	s := NewStore()

	name := strs.Intern("add")
	fnTy := ts.Func(0, 2, []types.ID{types.I32(), types.I32()}, types.I32())
	fn := s.FunctionRef(name, fnTy)

	d := s.Get(fn)
	assert.Equal(t, KFunctionRef, d.Kind)
	assert.Equal(t, name, d.Name)
	assert.Equal(t, fnTy, d.Type)
	assert.Equal(t, CatTemporary, s.Category(fn), "function refs should categorize as temporary")
}

func TestLocalPartitionMergeAppendsWithoutHashConsing(t *testing.T) {
	ts := types.NewStore()
	s := NewStore()
	lp := NewLocalPartition(s)

	a := lp.IntegerConstant(1, types.I32())
	b := lp.IntegerConstant(1, types.I32())
	assert.NotEqual(t, a, b, "two separately created constants should not share an id before merge")

	remap := lp.MergeInto(s)
	ga, gb := remap[a], remap[b]
	assert.NotEqual(t, ga, gb, "merge must not hash-cons values")
	require.Equal(t, int64(1), s.Get(ga).IntValue, "merged constant lost its payload")
	assert.Equal(t, types.I32(), s.Get(ga).Type)
	_ = ts
}

func TestStringConstantInternsLengthPrefixed(t *testing.T) {
	strs := strtab.New()
	s := NewStore()
	lp := NewLocalPartition(s)
	id := lp.StringConstant(strs, "hi", types.I64())
	remap := lp.MergeInto(s)
	d := s.Get(remap[id])
	assert.Equal(t, "hi", strs.StringBytes(d.StringID))
}

func TestRemapPassthrough(t *testing.T) {
	remap := map[ID]ID{3: 30}
	assert.Equal(t, ID(30), Remap(3, remap), "expected remap")
	assert.Equal(t, ID(9), Remap(9, remap), "expected passthrough")
}
