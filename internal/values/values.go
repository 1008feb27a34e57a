// Package values is the value catalog of spec.md §3: every value a
// typed-IR instruction reads or produces is an entry here, carrying the
// types.ID it has and a Category derived from its Kind (temporary, place,
// or mutable-place). Values are never mutated once created; a value that
// needs a new type (e.g. after an implicit conversion) is a new entry.
package values

import (
	"sync"

	"vellum/internal/strtab"
	"vellum/internal/types"
)

type ID int32

const NoValue ID = 0

type Kind uint8

const (
	KErrorPlaceholder Kind = iota
	KFunctionRef
	KExternFunctionRef
	KExternVariable
	KIntegerConstant
	KFloatConstant
	KNullConstant
	KStringConstant
	KVariable
	KMutableVariable
	KTemporary
)

// Category is derived from Kind, never stored independently, per spec.md
// §3: "A value category derives from tag."
type Category uint8

const (
	CatTemporary Category = iota
	CatPlace
	CatMutablePlace
)

// Categorize returns the base category for a Kind before any
// dereference/index adjustment (those live in the typecheck package,
// which has the typed-IR context needed to apply them; see spec.md §4).
func Categorize(k Kind) Category {
	switch k {
	case KVariable, KExternVariable, KStringConstant:
		return CatPlace
	case KMutableVariable:
		return CatMutablePlace
	default:
		// temporary/constant/function -> temporary
		return CatTemporary
	}
}

// Data holds every field any value Kind might need.
type Data struct {
	Kind Kind
	Type types.ID

	Name strtab.ID // FunctionRef / ExternFunctionRef / ExternVariable / Variable / MutableVariable

	IntValue   int64  // IntegerConstant (sign-extended; unsigned literals keep their bit pattern)
	FloatValue float64 // FloatConstant
	StringID   strtab.ID // StringConstant, interned via strtab.InternString (length-prefixed)

	LocalIndex int   // Variable / MutableVariable: slot index within the function
	InstrID    int32 // Temporary: the typed-IR instruction id that produced it
}

// Store is the global, append-only value partition, mirroring
// types.Store: declaration-phase values (extern refs, function refs) are
// written single-threaded, and LocalPartition folds per-function values
// back in under the same lock discipline.
type Store struct {
	mu   sync.Mutex
	data []Data
}

func NewStore() *Store {
	s := &Store{}
	s.data = append(s.data, Data{Kind: KErrorPlaceholder}) // NoValue sentinel
	return s
}

func (s *Store) Get(id ID) Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == NoValue || int(id) >= len(s.data) {
		return Data{Kind: KErrorPlaceholder}
	}
	return s.data[id]
}

func (s *Store) append(d Data) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ID(len(s.data))
	s.data = append(s.data, d)
	return id
}

func (s *Store) ErrorPlaceholder(ty types.ID) ID {
	return s.append(Data{Kind: KErrorPlaceholder, Type: ty})
}
func (s *Store) FunctionRef(name strtab.ID, ty types.ID) ID {
	return s.append(Data{Kind: KFunctionRef, Name: name, Type: ty})
}
func (s *Store) ExternFunctionRef(name strtab.ID, ty types.ID) ID {
	return s.append(Data{Kind: KExternFunctionRef, Name: name, Type: ty})
}
func (s *Store) ExternVariable(name strtab.ID, ty types.ID) ID {
	return s.append(Data{Kind: KExternVariable, Name: name, Type: ty})
}

// IntegerConstant, FloatConstant, NullConstant and StringConstant mint
// declaration-phase constants directly into the global store (`const`
// values) -- the single-threaded
// counterpart to LocalPartition's body-phase versions of the same thing.
func (s *Store) IntegerConstant(v int64, ty types.ID) ID {
	return s.append(Data{Kind: KIntegerConstant, IntValue: v, Type: ty})
}
func (s *Store) FloatConstant(v float64, ty types.ID) ID {
	return s.append(Data{Kind: KFloatConstant, FloatValue: v, Type: ty})
}
func (s *Store) NullConstant(ty types.ID) ID {
	return s.append(Data{Kind: KNullConstant, Type: ty})
}
func (s *Store) StringConstant(strs *strtab.Table, v string, ty types.ID) ID {
	return s.append(Data{Kind: KStringConstant, StringID: strs.InternString(v), Type: ty})
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Category reports the base value category for an id, per spec.md §3.
// Dereference/index adjustments are applied by the caller, which has the
// typed-IR context needed to see through a place to its pointee.
func (s *Store) Category(id ID) Category {
	return Categorize(s.Get(id).Kind)
}
