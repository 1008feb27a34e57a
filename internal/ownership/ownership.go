// Package ownership is spec.md §4.4's substructural analysis: a
// flow-sensitive walk over one function's typed IR enforcing move/consume
// discipline and borrow rules for affine/linear-typed locals, including
// branch and loop merging. It runs after internal/typecheck has produced
// a function's typedir.Func and values.LocalPartition and reports into
// the same diag.Bag family (the O4xxx codes).
package ownership

import (
	"vellum/internal/diag"
	"vellum/internal/syntax"
	"vellum/internal/typedir"
	"vellum/internal/types"
	"vellum/internal/values"
)

// State is a local's substructural status, per spec.md §4.4.
type State uint8

const (
	NotConsumed State = iota
	Consumed
	Borrowed
	BorrowedMut
)

// Access is what a particular value reference asks of the local behind
// it: consume it, read it, write through it, or nothing at all.
type Access uint8

const (
	RValue Access = iota
	LValue
	LValueMut
	Statement
)

// Checker runs the pass over exactly one function, mirroring
// typecheck.Checker's one-per-function shape so the pipeline can run many
// of these concurrently; a Checker only reads its function's typed IR and
// local value partition, never the global stores beyond lookups.
type Checker struct {
	Syntax  *syntax.Store
	TIR     *typedir.Func
	VP      *values.LocalPartition
	Globals *values.Store
	Types   *types.Store
	Diags   diag.Bag

	state       map[int]State
	loopTop     int // highest declared local index in scope at the nearest enclosing loop header; -1 outside any loop
	declaredUpTo int

	coveredStart map[typedir.InstrID]typedir.InstrID
}

// NewChecker prepares a Checker for one function. paramCount is the
// number of parameter locals bound at function entry (indices 0..paramCount-1),
// which never go through an OpLocalDecl instruction of their own.
func NewChecker(s *syntax.Store, tir *typedir.Func, vp *values.LocalPartition, globals *values.Store, ts *types.Store, paramCount int) *Checker {
	return &Checker{
		Syntax: s, TIR: tir, VP: vp, Globals: globals, Types: ts,
		state:        make(map[int]State),
		loopTop:      -1,
		declaredUpTo: paramCount - 1,
		coveredStart: make(map[typedir.InstrID]typedir.InstrID),
	}
}

// Check walks the whole function and returns whether it completed without
// emitting an error diagnostic. It does not modify the typed IR.
func (c *Checker) Check() bool {
	c.index()
	c.walk(0, typedir.InstrID(c.TIR.Len()))
	return !c.Diags.HasErrors()
}

// index pre-scans the function, recording which instruction id begins each
// compound statement's nested [start, end) range. typedir emits a nested
// block's own instructions before the compound instruction that owns them,
// so a flat forward walk would otherwise visit a branch or loop body twice:
// once as ordinary top-level instructions, and again via stepIf/stepWhile/
// stepFor/stepSwitch's own recursive walk. walk consults this map to skip
// straight past a covered range instead.
func (c *Checker) index() {
	for id := typedir.InstrID(0); id < typedir.InstrID(c.TIR.Len()); id++ {
		in := c.TIR.Get(id)
		switch in.Op {
		case typedir.OpIf, typedir.OpWhile, typedir.OpFor, typedir.OpSwitch:
			if len(in.Children) == 0 {
				continue
			}
			c.coveredStart[in.Children[0]] = id
		}
	}
}

func (c *Checker) walk(start, end typedir.InstrID) {
	cur := start
	for cur < end {
		if marker, ok := c.coveredStart[cur]; ok {
			c.step(marker)
			cur = marker + 1
			continue
		}
		c.step(cur)
		cur++
	}
}

func (c *Checker) step(id typedir.InstrID) {
	in := c.TIR.Get(id)
	switch in.Op {
	case typedir.OpIf:
		c.stepIf(in)
		return
	case typedir.OpWhile:
		c.stepWhile(in)
		return
	case typedir.OpFor:
		c.stepFor(in)
		return
	case typedir.OpSwitch:
		c.stepSwitch(in)
		return
	}
	for idx, v := range in.Values {
		c.access(in, idx, v)
	}
	if in.Op == typedir.OpLocalDecl && int(in.A) > c.declaredUpTo {
		c.declaredUpTo = int(in.A)
	}
}

func cloneState(m map[int]State) map[int]State {
	out := make(map[int]State, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// stepIf snapshots state at the condition, evaluates the then/else ranges
// independently from that snapshot, and on exit unions the outcomes: a
// local that ended in different states across the two arms is marked
// Consumed (spec.md §4.4's merge rule). A missing else arm has an empty
// [elseStart, elseEnd) range, which leaves its snapshot untouched --
// exactly the "implicit else does nothing" case the merge rule expects.
func (c *Checker) stepIf(in typedir.Instr) {
	c.access(in, 0, in.Values[0])
	if len(in.Children) != 4 {
		return
	}
	thenStart, thenEnd, elseStart, elseEnd := in.Children[0], in.Children[1], in.Children[2], in.Children[3]

	pre := cloneState(c.state)
	c.walk(thenStart, thenEnd)
	thenSt := c.state

	c.state = cloneState(pre)
	c.walk(elseStart, elseEnd)
	elseSt := c.state

	c.state = mergeArms(pre, thenSt, elseSt)
}

func mergeArms(pre map[int]State, arms ...map[int]State) map[int]State {
	merged := make(map[int]State, len(pre))
	for k := range pre {
		common := arms[0][k]
		agree := true
		for _, arm := range arms[1:] {
			if arm[k] != common {
				agree = false
				break
			}
		}
		if agree {
			merged[k] = common
		} else {
			merged[k] = Consumed
		}
	}
	return merged
}

// stepWhile and stepFor widen the loop-top cursor to the set of locals
// already declared at loop entry, so a consume of one of them inside the
// body reads as a repeated consume across iterations. Borrow state never
// survives past the loop (a loop iterates to completion or not at all,
// so no borrow taken inside it can still be outstanding afterward); a
// real consume, by contrast, persists.
func (c *Checker) stepWhile(in typedir.Instr) {
	c.access(in, 0, in.Values[0])
	if len(in.Children) != 2 {
		return
	}
	c.runLoopBody(cloneState(c.state), func() {
		c.walk(in.Children[0], in.Children[1])
	})
}

func (c *Checker) stepFor(in typedir.Instr) {
	c.access(in, 0, in.Values[0])
	if len(in.Children) != 4 {
		return
	}
	c.runLoopBody(cloneState(c.state), func() {
		c.walk(in.Children[0], in.Children[1])
		c.walk(in.Children[2], in.Children[3])
	})
}

func (c *Checker) runLoopBody(pre map[int]State, body func()) {
	savedTop := c.loopTop
	c.loopTop = c.declaredUpTo
	body()
	for k, v := range c.state {
		if v != Borrowed && v != BorrowedMut {
			continue
		}
		if pv, ok := pre[k]; ok {
			c.state[k] = pv
		} else {
			delete(c.state, k)
		}
	}
	c.loopTop = savedTop
}

// stepSwitch treats each arm's value expression as an independent branch
// from the scrutinee's snapshot, the same merge rule as stepIf generalized
// to N arms.
// Values is laid out as [scrutinee, pattern0, value0, pattern1, value1, ...]
// (see typecheck.checkSwitch), so arm j's pattern/value sit at indices
// 1+2j and 2+2j.
func (c *Checker) stepSwitch(in typedir.Instr) {
	c.access(in, 0, in.Values[0])
	n := len(in.Children) / 2
	if n == 0 || len(in.Values) != 1+2*n {
		for idx := 1; idx < len(in.Values); idx++ {
			c.access(in, idx, in.Values[idx])
		}
		return
	}
	pre := cloneState(c.state)
	armStates := make([]map[int]State, n)
	for j := 0; j < n; j++ {
		c.state = cloneState(pre)
		c.access(in, 1+2*j, in.Values[1+2*j])
		c.walk(in.Children[2*j], in.Children[2*j+1])
		c.access(in, 2+2*j, in.Values[2+2*j])
		armStates[j] = c.state
	}
	c.state = mergeArms(pre, armStates...)
}

func (c *Checker) access(in typedir.Instr, idx int, v values.ID) {
	localIdx, ok := c.localIndexOf(v)
	if !ok {
		return
	}
	c.transition(in, localIdx, c.accessKind(in, idx))
}

// localIndexOf reports the local slot a value refers to, if it is a
// variable/mutable-variable reference to an affine-typed named local.
// Non-affine locals bypass the whole state machine: move/borrow conflicts
// are meaningless for Copy-like types. A negative LocalIndex marks a
// place manufactured by a field-access/index expression rather than a
// named local (typecheck reuses the Variable/MutableVariable value kinds
// for those too); such places aren't individually addressable here, so
// per-field move tracking is out of scope and they bypass the state
// machine the same way non-affine values do.
func (c *Checker) localIndexOf(id values.ID) (int, bool) {
	d := c.VP.Get(c.Globals, id)
	if d.Kind != values.KVariable && d.Kind != values.KMutableVariable {
		return 0, false
	}
	if d.LocalIndex < 0 {
		return 0, false
	}
	if !c.isAffine(d.Type) {
		return 0, false
	}
	return d.LocalIndex, true
}

func (c *Checker) isAffine(ty types.ID) bool {
	d := c.Types.Get(ty)
	return d.Kind == types.KLinear || (d.Kind == types.KStruct && d.IsLinear)
}

// accessKind derives the Access a particular (Op, Values-index) pair asks
// of its operand. Most operands are rvalue reads-through-consumption;
// assignment targets, field/index/deref bases, and address-of operands
// need the place-shaped variants.
func (c *Checker) accessKind(in typedir.Instr, idx int) Access {
	switch in.Op {
	case typedir.OpAssign, typedir.OpCompoundAssign:
		if idx == 0 {
			return LValueMut
		}
		return RValue
	case typedir.OpFieldAccess, typedir.OpDeref:
		return LValue
	case typedir.OpIndex:
		if idx == 0 {
			return LValue
		}
		return RValue
	case typedir.OpAddressOf:
		resTy := c.VP.Get(c.Globals, in.Result).Type
		if c.Types.Get(resTy).Kind == types.KMutPointer {
			return LValueMut
		}
		return LValue
	default:
		return RValue
	}
}

// transition applies spec.md §4.4's table for one local under one access.
func (c *Checker) transition(in typedir.Instr, localIdx int, kind Access) {
	if kind == Statement {
		return
	}
	p := pos(c.Syntax, in.Node)
	st := c.state[localIdx]
	switch kind {
	case RValue:
		switch st {
		case NotConsumed:
			c.state[localIdx] = Consumed
			if c.loopTop >= 0 && localIdx <= c.loopTop {
				c.Diags.Errorf(diag.CodeConsumedInLoop, p, 1, "value may be consumed more than once across loop iterations")
			}
		case Consumed:
			c.Diags.Errorf(diag.CodeUseOfConsumed, p, 1, "use of consumed value")
		case Borrowed:
			c.Diags.Errorf(diag.CodeMoveOfBorrowed, p, 1, "cannot move a value that is currently borrowed")
		case BorrowedMut:
			c.Diags.Errorf(diag.CodeMoveOfBorrowed, p, 1, "cannot move a value that is currently mutably borrowed")
		}
	case LValue:
		switch st {
		case Consumed:
			c.Diags.Errorf(diag.CodeUseOfConsumed, p, 1, "use of consumed value")
		case BorrowedMut:
			c.Diags.Errorf(diag.CodeBorrowConflict, p, 1, "cannot read a value that is currently mutably borrowed")
		case NotConsumed:
			c.state[localIdx] = Borrowed
		}
	case LValueMut:
		switch st {
		case Consumed:
			c.Diags.Errorf(diag.CodeUseOfConsumed, p, 1, "use of consumed value")
		case Borrowed:
			c.Diags.Errorf(diag.CodeBorrowConflict, p, 1, "cannot mutably borrow a value that is currently borrowed")
		case BorrowedMut:
			c.Diags.Errorf(diag.CodeBorrowConflict, p, 1, "cannot mutably borrow a value more than once")
		case NotConsumed:
			c.state[localIdx] = BorrowedMut
		}
	}
}

func pos(s *syntax.Store, node syntax.NodeID) diag.Position {
	p := s.Pos(node)
	return diag.Position{File: p.File, Line: p.Line, Column: p.Column}
}
