// Package types is the hash-consed type catalog of spec.md §3/§4. Two
// types compared structurally are equal iff their ids are equal, except
// that primitives, structs, enums, newtypes, and type-parameters are
// compared by identity rather than structure (nominal); arrays, pointers,
// slices, functions, tagged types, and the linear wrapper are structural
// and therefore hash-consed.
package types

import (
	"fmt"
	"sync"

	"vellum/internal/strtab"
)

type ID int32

const NoType ID = 0

type Kind uint8

const (
	KVoid Kind = iota
	KI8
	KI16
	KI32
	KI64
	KIsize // pointer-width signed integer
	KF32
	KF64
	KChar
	KByte
	KBool

	numPrimitives // sentinel: first non-primitive id

	KArray
	KArrayLen // array-length literal type, carries an i64 value
	KPointer
	KMutPointer
	KMultiPointer    // slice: @T
	KMutMultiPointer // mutable slice: @mut T
	KFunc
	KStruct
	KEnum
	KNewtype
	KTagged
	KLinear
	KTypeParam
)

// Data holds every field any Kind might need; unused fields are zero for
// kinds that don't use them. This mirrors spec.md §3's tagged-union type
// description directly rather than introducing per-kind Go types, so
// traversals can dispatch on Kind with a single exhaustive switch (see
// DESIGN.md, "open recursion over tagged unions").
type Data struct {
	Kind Kind

	// Array / pointer / slice
	Elem   ID
	Length int64 // for KArrayLen

	// Func
	TypeParamCount int
	ValueParamCount int
	Params         []ID
	Ret            ID

	// Struct
	ScopeID   int32
	Name      strtab.ID
	Align     int
	Size      int
	SizeKnown bool
	Fields    []ID
	IsLinear  bool

	// Enum
	Repr ID

	// Newtype
	TagArity int

	// Tagged
	Newtype ID
	Args    []ID

	// Inner (Linear wrapper, Newtype's underlying type)
	Inner ID

	// TypeParam
	Index int
}

// Store is the global, append-only type partition. It is safe for
// concurrent use: the declaration phase writes it single-threaded, the
// parallel body phase adds structural types only through
// internStructural's hash-cons lookup under Store's lock, and Get and Len
// read under the same lock.
type Store struct {
	mu     sync.Mutex
	data   []Data
	intern map[string]ID // structural-kind key -> id, global scope only
}

func NewStore() *Store {
	s := &Store{intern: make(map[string]ID)}
	s.data = append(s.data, Data{}) // NoType sentinel
	for k := Kind(1); k < numPrimitives; k++ {
		id := ID(len(s.data))
		s.data = append(s.data, Data{Kind: k})
		if id != primitiveID(k) {
			panic("primitive id drifted from its Kind constant")
		}
	}
	return s
}

// primitiveID returns the fixed, stable id reserved for a primitive kind;
// primitives occupy a fixed low-numbered prefix of the id space (spec.md
// §3), so `k` itself is the id. KVoid is 0, so Void() shares id 0 with
// the NoType sentinel, whose zero Data also has Kind KVoid.
func primitiveID(k Kind) ID { return ID(k) }

func Void() ID    { return primitiveID(KVoid) }
func I8() ID      { return primitiveID(KI8) }
func I16() ID     { return primitiveID(KI16) }
func I32() ID     { return primitiveID(KI32) }
func I64() ID     { return primitiveID(KI64) }
func Isize() ID   { return primitiveID(KIsize) }
func F32() ID     { return primitiveID(KF32) }
func F64() ID     { return primitiveID(KF64) }
func Char() ID    { return primitiveID(KChar) }
func Byte() ID    { return primitiveID(KByte) }
func Bool() ID    { return primitiveID(KBool) }

func (s *Store) Get(id ID) Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == NoType || int(id) >= len(s.data) {
		return Data{}
	}
	return s.data[id]
}

func (s *Store) append(d Data) ID {
	id := ID(len(s.data))
	s.data = append(s.data, d)
	return id
}

func structuralKey(d Data) string {
	switch d.Kind {
	case KArray:
		return fmt.Sprintf("arr:%d:%d", d.Elem, d.Length)
	case KArrayLen:
		return fmt.Sprintf("arrlen:%d", d.Length)
	case KPointer:
		return fmt.Sprintf("ptr:%d", d.Elem)
	case KMutPointer:
		return fmt.Sprintf("mptr:%d", d.Elem)
	case KMultiPointer:
		return fmt.Sprintf("slice:%d", d.Elem)
	case KMutMultiPointer:
		return fmt.Sprintf("mslice:%d", d.Elem)
	case KFunc:
		return fmt.Sprintf("fn:%d:%d:%v:%d", d.TypeParamCount, d.ValueParamCount, d.Params, d.Ret)
	case KTagged:
		return fmt.Sprintf("tagged:%d:%v", d.Newtype, d.Args)
	case KLinear:
		return fmt.Sprintf("linear:%d", d.Inner)
	default:
		return ""
	}
}

// internStructural hash-cons looks up or inserts a structural type under
// the Store's lock, returning the existing id if an equal one was already
// interned.
func (s *Store) internStructural(d Data) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := structuralKey(d)
	if id, ok := s.intern[key]; ok {
		return id
	}
	id := s.append(d)
	s.intern[key] = id
	return id
}

func (s *Store) Array(length int64, elem ID) ID {
	lenTy := s.internStructural(Data{Kind: KArrayLen, Length: length})
	return s.internStructural(Data{Kind: KArray, Elem: elem, Length: length, Ret: lenTy})
}
func (s *Store) Pointer(elem ID) ID       { return s.internStructural(Data{Kind: KPointer, Elem: elem}) }
func (s *Store) MutPointer(elem ID) ID    { return s.internStructural(Data{Kind: KMutPointer, Elem: elem}) }
func (s *Store) Slice(elem ID) ID         { return s.internStructural(Data{Kind: KMultiPointer, Elem: elem}) }
func (s *Store) MutSlice(elem ID) ID      { return s.internStructural(Data{Kind: KMutMultiPointer, Elem: elem}) }
func (s *Store) Func(typeParamCount, valueParamCount int, params []ID, ret ID) ID {
	return s.internStructural(Data{Kind: KFunc, TypeParamCount: typeParamCount, ValueParamCount: valueParamCount, Params: append([]ID(nil), params...), Ret: ret})
}
func (s *Store) Tagged(newtype ID, args []ID) ID {
	return s.internStructural(Data{Kind: KTagged, Newtype: newtype, Args: append([]ID(nil), args...)})
}
func (s *Store) Linear(inner ID) ID { return s.internStructural(Data{Kind: KLinear, Inner: inner}) }

// Nominal constructors: every call allocates a fresh id, matching the
// "compared by identity" rule -- two textually identical struct decls are
// still two distinct types.

func (s *Store) NewStruct(scope int32, name strtab.ID, typeParamCount int, fields []ID, isLinear bool) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(Data{Kind: KStruct, ScopeID: scope, Name: name, TypeParamCount: typeParamCount, Fields: append([]ID(nil), fields...), IsLinear: isLinear})
}

func (s *Store) SetStructLayout(id ID, align, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data[id]
	d.Align, d.Size, d.SizeKnown = align, size, true
	s.data[id] = d
}

func (s *Store) NewEnum(scope int32, name strtab.ID, repr ID) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(Data{Kind: KEnum, ScopeID: scope, Name: name, Repr: repr})
}

func (s *Store) NewNewtype(name strtab.ID, tagArity int, inner ID) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(Data{Kind: KNewtype, Name: name, TagArity: tagArity, Inner: inner})
}

func (s *Store) NewTypeParam(index int, name strtab.ID) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(Data{Kind: KTypeParam, Index: index, Name: name})
}

// Len reports how many entries the global partition currently holds,
// counting the NoType sentinel at id 0.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
