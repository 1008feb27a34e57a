package roles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/strtab"
	"vellum/internal/syntax"
)

func newModule() (*Module, *strtab.Table) {
	strs := strtab.New()
	global := NewScope(nil)
	return NewModule(global), strs
}

func TestLookupSearchOrder(t *testing.T) {
	m, strs := newModule()
	name := strs.Intern("x")

	builtin := &Symbol{Name: name, Role: RoleType}
	m.Global.Define(builtin)

	pub := &Symbol{Name: name, Role: RoleValue}
	m.Public.Define(pub)

	file := m.FileScope()
	assert.Same(t, pub, m.Lookup(file, name), "expected public scope to shadow builtin")

	priv := &Symbol{Name: name, Role: RoleTagType}
	m.Private.Define(priv)
	assert.Same(t, priv, m.Lookup(file, name), "expected private scope to shadow public")

	local := &Symbol{Name: name, Role: RoleModule}
	file.Define(local)
	assert.Same(t, local, m.Lookup(file, name), "expected file scope to shadow private")

	other := strs.Intern("y")
	assert.Nil(t, m.Lookup(file, other), "name absent everywhere should resolve to nil")
}

// fakeResolver drives Analyze over a tiny hand-built dependency graph
// keyed directly by syntax.NodeID, standing in for the real AST-walking
// resolver internal/pipeline supplies (itemGraph).
type fakeResolver struct {
	deps map[syntax.NodeID][]syntax.NodeID
	role map[syntax.NodeID]Role
}

func (r *fakeResolver) Dependencies(id syntax.NodeID) []syntax.NodeID { return r.deps[id] }
func (r *fakeResolver) InferRole(id syntax.NodeID, m *Module) Role     { return r.role[id] }
func (r *fakeResolver) PosOf(syntax.NodeID) syntax.Position            { return syntax.Position{} }

func TestAnalyzeBuildsDependencyOrder(t *testing.T) {
	m, _ := newModule()
	r := &fakeResolver{
		deps: map[syntax.NodeID][]syntax.NodeID{1: {2}, 2: {3}, 3: nil},
		role: map[syntax.NodeID]Role{1: RoleValue, 2: RoleValue, 3: RoleType},
	}
	got := m.Analyze(1, r)
	assert.Equal(t, RoleValue, got)
	order := m.Order()
	want := []syntax.NodeID{3, 2, 1}
	assert.Equal(t, want, order)
}

func TestAnalyzeDetectsRecursiveDependency(t *testing.T) {
	m, _ := newModule()
	r := &fakeResolver{
		deps: map[syntax.NodeID][]syntax.NodeID{1: {2}, 2: {1}},
		role: map[syntax.NodeID]Role{1: RoleValue, 2: RoleValue},
	}
	got := m.Analyze(1, r)
	assert.Equal(t, RoleInvalid, got, "expected cyclic definition to settle on RoleInvalid")
	assert.NotEmpty(t, m.Errors(), "expected a recursive-dependency error")
}

func TestAnalyzeMemoizes(t *testing.T) {
	m, _ := newModule()
	calls := 0
	r := &countingResolver{fakeResolver: fakeResolver{
		deps: map[syntax.NodeID][]syntax.NodeID{1: {2, 2}, 2: nil},
		role: map[syntax.NodeID]Role{1: RoleValue, 2: RoleType},
	}, calls: &calls}
	m.Analyze(1, r)
	assert.Equal(t, 1, calls, "expected node 2 to be analyzed exactly once")
}

type countingResolver struct {
	fakeResolver
	calls *int
}

func (r *countingResolver) InferRole(id syntax.NodeID, m *Module) Role {
	if id == 2 {
		*r.calls++
	}
	return r.fakeResolver.InferRole(id, m)
}

func TestNoteUndefinedIsOneShotPerModule(t *testing.T) {
	m, strs := newModule()
	name := strs.Intern("missing_mod")
	m.NoteUndefined(name, syntax.Position{}, true, false)
	m.NoteUndefined(name, syntax.Position{}, true, false)
	notes := 0
	for _, e := range m.Errors() {
		if strings.Contains(e.Message, "was not imported") {
			notes++
		}
	}
	require.Equal(t, 1, notes, "expected exactly one forgot-to-import note")
}

func TestDeriveRules(t *testing.T) {
	assert.Equal(t, RoleType, DeriveUnary(RoleType), "* on Type should stay Type")
	assert.Equal(t, RoleValue, DeriveUnary(RoleValue), "* on Value should stay Value")
	assert.Equal(t, RoleTagType, DeriveDot(RoleModule, RoleTagType), "dot after Module should yield the symbol's own role")
	assert.Equal(t, RoleValue, DeriveDot(RoleType, RoleInvalid), "dot after Type should yield a scope-access value")
	assert.Equal(t, RoleValue, DeriveCall(RoleType, RoleInvalid), "call on Type should yield a constructor value")
	assert.Equal(t, RoleType, DeriveCall(RoleBuiltinMacro, RoleType), "call on a macro should yield the macro's declared output role")
	assert.Equal(t, RoleTagType, DeriveIndex(RoleTagType, RoleInvalid), "index on TagType should yield a tagged type")
}
