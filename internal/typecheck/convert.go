package typecheck

import (
	"vellum/internal/diag"
	"vellum/internal/syntax"
	"vellum/internal/typedir"
	"vellum/internal/types"
	"vellum/internal/values"
)

// tryConvert implements spec.md §4.3's implicit-conversion table: applied
// at every place a typed value is expected against a desired type. The
// table is tried in the order spec.md lists it; the first row that
// matches wins and emits an OpImplicitConvert. No match and unequal types
// is a type-mismatch error. want == types.NoType means "no expectation",
// in which case v passes through unchanged.
func (c *Checker) tryConvert(v values.ID, want types.ID, node syntax.NodeID) values.ID {
	if want == types.NoType {
		return v
	}
	have := c.valueType(v)
	if have == want {
		return v
	}
	ts := c.Prog.Types
	hd, wd := ts.Get(have), ts.Get(want)

	// Tagged[Args...] (= inner U) -> U
	if hd.Kind == types.KTagged {
		if inner := ts.Get(hd.Newtype).Inner; inner == want {
			return c.emitConvert(v, typedir.ConvIdentity, want, node)
		}
	}

	switch hd.Kind {
	case types.KMutPointer:
		switch {
		case wd.Kind == types.KPointer && wd.Elem == hd.Elem:
			return c.emitConvert(v, typedir.ConvIdentity, want, node)
		case wd.Kind == types.KMutPointer && wd.Elem == types.Byte():
			return c.emitConvert(v, typedir.ConvPointerCast, want, node)
		case wd.Kind == types.KPointer && wd.Elem == types.Byte():
			return c.emitConvert(v, typedir.ConvPointerCast, want, node)
		case (wd.Kind == types.KMutMultiPointer || wd.Kind == types.KMultiPointer) && arrayElemMatches(ts, hd.Elem, wd.Elem):
			return c.emitConvert(v, typedir.ConvArrayToSlice, want, node)
		}

	case types.KPointer:
		switch {
		case wd.Kind == types.KPointer && wd.Elem == types.Byte():
			return c.emitConvert(v, typedir.ConvPointerCast, want, node)
		case wd.Kind == types.KMultiPointer && arrayElemMatches(ts, hd.Elem, wd.Elem):
			return c.emitConvert(v, typedir.ConvArrayToSlice, want, node)
		}

	case types.KMutMultiPointer:
		if wd.Kind == types.KMultiPointer && wd.Elem == hd.Elem {
			return c.emitConvert(v, typedir.ConvIdentity, want, node)
		}
	}

	c.Diags.Errorf(diag.CodeTypeMismatch, pos(c.Prog.Syntax, node), 1,
		"type mismatch: value of this type cannot convert to the expected type")
	return v
}

// arrayElemMatches reports whether `ptrElem` is `elem[N]` for some N, the
// shape `*T[N]` / `*mut T[N]` must have before it can implicitly convert
// to a slice of T.
func arrayElemMatches(ts *types.Store, ptrElem, elem types.ID) bool {
	if ptrElem == types.NoType {
		return false
	}
	d := ts.Get(ptrElem)
	return d.Kind == types.KArray && d.Elem == elem
}

func (c *Checker) emitConvert(v values.ID, kind typedir.ConvKind, want types.ID, node syntax.NodeID) values.ID {
	id := c.TIR.Add(typedir.Instr{Op: typedir.OpImplicitConvert, A: int32(kind), Values: []values.ID{v}, Node: node})
	res := c.VP.Temporary(int32(id), want)
	c.TIR.Set(id, withResult(c.TIR.Get(id), res))
	return res
}
