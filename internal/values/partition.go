package values

import (
	"vellum/internal/strtab"
	"vellum/internal/types"
)

// LocalPartition is the per-function thread-local value buffer, touched
// by exactly one goroutine during the body phase (spec.md §4.3/§5), with
// ids disjoint from the global Store until MergeInto folds them back.
type LocalPartition struct {
	base ID
	data []Data
}

func NewLocalPartition(global *Store) *LocalPartition {
	return &LocalPartition{base: ID(global.Len())}
}

func (p *LocalPartition) Get(global *Store, id ID) Data {
	if id < p.base {
		return global.Get(id)
	}
	idx := int(id) - int(p.base)
	if idx < 0 || idx >= len(p.data) {
		return Data{Kind: KErrorPlaceholder}
	}
	return p.data[idx]
}

func (p *LocalPartition) append(d Data) ID {
	id := p.base + ID(len(p.data))
	p.data = append(p.data, d)
	return id
}

func (p *LocalPartition) IntegerConstant(v int64, ty types.ID) ID {
	return p.append(Data{Kind: KIntegerConstant, IntValue: v, Type: ty})
}
func (p *LocalPartition) FloatConstant(v float64, ty types.ID) ID {
	return p.append(Data{Kind: KFloatConstant, FloatValue: v, Type: ty})
}
func (p *LocalPartition) NullConstant(ty types.ID) ID {
	return p.append(Data{Kind: KNullConstant, Type: ty})
}
func (p *LocalPartition) StringConstant(strs *strtab.Table, s string, ty types.ID) ID {
	return p.append(Data{Kind: KStringConstant, StringID: strs.InternString(s), Type: ty})
}
func (p *LocalPartition) Variable(name strtab.ID, localIndex int, ty types.ID) ID {
	return p.append(Data{Kind: KVariable, Name: name, LocalIndex: localIndex, Type: ty})
}
func (p *LocalPartition) MutableVariable(name strtab.ID, localIndex int, ty types.ID) ID {
	return p.append(Data{Kind: KMutableVariable, Name: name, LocalIndex: localIndex, Type: ty})
}
func (p *LocalPartition) Temporary(instrID int32, ty types.ID) ID {
	return p.append(Data{Kind: KTemporary, InstrID: instrID, Type: ty})
}

// MergeInto appends every local value onto the global Store verbatim
// (values, unlike structural types, are never hash-consed -- two
// temporaries with the same type are still different results) and
// returns the id remap the caller must apply to any stored references.
func (p *LocalPartition) MergeInto(global *Store) map[ID]ID {
	remap := make(map[ID]ID, len(p.data))
	for i, d := range p.data {
		local := p.base + ID(i)
		remap[local] = global.append(d)
	}
	return remap
}

func Remap(id ID, remap map[ID]ID) ID {
	if r, ok := remap[id]; ok {
		return r
	}
	return id
}
