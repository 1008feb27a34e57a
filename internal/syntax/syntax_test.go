package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vellum/internal/strtab"
)

func newTestStore() *Store {
	return NewStore(strtab.New())
}

func TestFunctionRoundTrip(t *testing.T) {
	s := newTestStore()
	name := s.Strings.Intern("fib")
	n := s.Strings.Intern("n")
	i32 := s.NewTypeNamed(s.Strings.Intern("i32"), nil, Position{})
	param := s.NewParam(n, i32, Position{})
	body := s.NewBlock(nil, NoNode, Position{})

	fn := s.NewFunction(name, nil, []NodeID{param}, i32, body, false, false, Position{Line: 3})

	assert.Equal(t, name, s.FunctionName(fn))
	assert.Equal(t, []NodeID{param}, s.FunctionParams(fn))
	assert.Equal(t, i32, s.FunctionReturn(fn))
	assert.Equal(t, body, s.FunctionBody(fn))
	assert.Equal(t, 3, s.Pos(fn).Line, "position not preserved")
}

func TestIfStmtRoundTrip(t *testing.T) {
	s := newTestStore()
	cond := s.NewBoolLit(true, Position{})
	then := s.NewBlock(nil, NoNode, Position{})
	els := s.NewBlock(nil, NoNode, Position{})

	ifID := s.NewIfStmt(cond, then, els, Position{})
	assert.Equal(t, cond, s.IfCond(ifID))
	assert.Equal(t, then, s.IfThen(ifID))
	assert.Equal(t, els, s.IfElse(ifID))
}

func TestBinaryExprRoundTrip(t *testing.T) {
	s := newTestStore()
	one := s.NewIntLit(s.Strings.Intern("1"), Position{})
	two := s.NewIntLit(s.Strings.Intern("2"), Position{})
	add := s.NewBinaryExpr(OpAdd, one, two, Position{})

	assert.Equal(t, OpAdd, s.BinaryOp(add))
	assert.Equal(t, one, s.BinaryLeft(add))
	assert.Equal(t, two, s.BinaryRight(add))
}

func TestNoNodeIsZeroValue(t *testing.T) {
	s := newTestStore()
	assert.Equal(t, Illegal, s.Kind(NoNode), "NoNode should report Illegal kind")
}
