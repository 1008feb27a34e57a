// Package typedir is the typed-IR instruction stream spec.md §3/§4.3
// describes: each instruction is a tag, a back-reference to the syntax
// node it came from (for diagnostics), one scalar payload word (A), a
// list of value-id operands and a list of nested instruction ranges (see
// Instr), in one per-function instruction stream.
package typedir

import (
	"vellum/internal/syntax"
	"vellum/internal/values"
)

type InstrID int32

const NoInstr InstrID = -1

// ConvKind enumerates spec.md §4.3's implicit-conversion table; it is
// carried in OpImplicitConvert's A field so lowering can tell which of
// the three runtime shapes (repack into a slice, relabel a pointer,
// truncate a tagged type to its inner type) to emit.
type ConvKind int32

const (
	ConvIdentity ConvKind = iota
	ConvArrayToSlice
	ConvPointerCast
)

type Op uint8

const (
	OpInvalid Op = iota
	OpConst             // not emitted by typecheck
	OpBinary            // A: BinOp, Values: lhs, rhs
	OpUnary             // A: UnOp, Values: operand
	OpNot               // Values: operand
	OpAddressOf         // Values: operand (temporary | place | mutable-place)
	OpDeref             // Values: operand
	OpFieldAccess       // A: field index (0 for slice .length/.data), Values: operand
	OpIndex             // Values: base, index
	OpEnumMember        // not emitted by typecheck
	OpCall              // Values: callee, then arguments
	OpConstructorCall    // Values: field values in declaration order
	OpCast              // A: source-type id, Values: operand
	OpImplicitConvert    // A: ConvKind, Values: operand
	OpSizeOf            // not emitted by typecheck (folded to a constant)
	OpAlignOf           // not emitted by typecheck (folded to a constant)
	OpZeroExtend         // Values: operand; the width is the result's type
	OpSliceBuiltin       // Values: length, ptr
	OpAffineWrap         // Values: wrapped value; the result has the Linear type

	OpIf                // Values: cond; Children: thenStart, thenEnd, elseStart, elseEnd
	OpWhile             // Values: cond; Children: bodyStart, bodyEnd
	OpForInit           // not emitted by typecheck
	OpFor               // Values: cond; Children: bodyStart, bodyEnd, nextStart, nextEnd
	OpBreak
	OpContinue
	OpReturn            // Values: operand or values.NoValue (empty for the implicit return)
	OpSwitch            // Values: scrutinee, then (pattern, value) per arm; Children: [start, end) per arm
	OpSwitchArm         // not emitted by typecheck

	OpLocalDecl         // A: local index, Values: init value
	OpAssign            // Values: place, rvalue
	OpCompoundAssign     // A: BinOp, Values: place, rvalue
	OpBlock             // not emitted by typecheck
)

// Instr is one entry in a function's typed-IR stream. Op-specific scalar
// tags (a BinOp/UnOp, a field index, a local slot) live in A; Values
// holds the value-id operands an Op needs (lhs/rhs, place/rvalue, a call's
// callee) and Children holds [start, end) instruction-id ranges of the
// nested blocks (if/else arms, loop bodies, switch arm values) -- a
// slightly more ergonomic stand-in for the spec's literal "two 32-bit
// payload words" encoding, which internal/syntax and internal/lowir
// implement exactly. B is not set by typecheck.
type Instr struct {
	Op   Op
	A    int32
	B    int32
	Node syntax.NodeID

	Values   []values.ID
	Children []InstrID

	// Result is the value this instruction produced, if any (NoValue for
	// control-flow instructions that don't themselves yield a value).
	Result values.ID
}

// Func is one function's owned instruction stream plus its extras
// side-buffer, exclusively owned by the function it belongs to per
// spec.md §3's ownership rule.
type Func struct {
	instrs []Instr
	extras []InstrID
}

func NewFunc() *Func { return &Func{} }

func (f *Func) Add(in Instr) InstrID {
	id := InstrID(len(f.instrs))
	f.instrs = append(f.instrs, in)
	return id
}

func (f *Func) Get(id InstrID) Instr { return f.instrs[id] }

func (f *Func) Set(id InstrID, in Instr) { f.instrs[id] = in }

func (f *Func) Len() int { return len(f.instrs) }

// AddExtras appends a variable-length list of instruction ids (a block's
// contents, a call's argument list, a switch's arms) and returns the
// (offset, count) pair a payload word pair can carry.
func (f *Func) AddExtras(ids ...InstrID) (offset, count int32) {
	offset = int32(len(f.extras))
	f.extras = append(f.extras, ids...)
	return offset, int32(len(ids))
}

func (f *Func) Extras(offset, count int32) []InstrID {
	return f.extras[offset : offset+count]
}
