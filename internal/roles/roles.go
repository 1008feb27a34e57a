// Package roles implements spec.md §4.1: per-file scope chains over a
// process-wide builtin scope and a module's public/private scopes,
// dependency-ordered definition analysis with cycle detection, and the
// role-inference rules an identifier's resolved symbol carries forward.
// Grounded on kanso's internal/semantic.SymbolTable (parent-chained scope
// with Define/Lookup), generalized to the role lattice spec.md names.
package roles

import (
	"fmt"

	"vellum/internal/strtab"
	"vellum/internal/syntax"
)

// Role is the lattice every definition and expression settles into.
type Role uint8

const (
	RoleInvalid Role = iota
	RoleValue
	RoleType
	RoleTagType
	RoleModule
	RoleBuiltinMacro
)

func (r Role) String() string {
	switch r {
	case RoleValue:
		return "Value"
	case RoleType:
		return "Type"
	case RoleTagType:
		return "TagType"
	case RoleModule:
		return "Module"
	case RoleBuiltinMacro:
		return "BuiltinMacro"
	default:
		return "Invalid"
	}
}

// Symbol is one name binding in a scope: a definition's node plus its
// settled role, mirroring kanso's Symbol but keyed to a role instead of a
// blockchain-flavored SymbolKind.
type Symbol struct {
	Name strtab.ID
	Role Role
	Def  syntax.NodeID
	Pos  syntax.Position
}

// visitState tracks the analyze() DFS coloring used to detect recursive
// (cyclic) definition dependencies.
type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

// Scope is a parent-chained symbol table, one per file/block nesting
// level, the same shape as kanso's SymbolTable.
type Scope struct {
	symbols map[strtab.ID]*Symbol
	parent  *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{symbols: make(map[strtab.ID]*Symbol), parent: parent}
}

func (s *Scope) Define(sym *Symbol) { s.symbols[sym.Name] = sym }

func (s *Scope) LookupLocal(name strtab.ID) *Symbol { return s.symbols[name] }

func (s *Scope) Lookup(name strtab.ID) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil
}

// Error is a role-analysis diagnostic: a recursive dependency, an
// undefined name, or one of the one-shot import notes.
type Error struct {
	Message string
	Pos     syntax.Position
}

func (e Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message) }

// Module holds the two scopes every file in the module shares, plus the
// per-name flags that make the "forgot-to-import" / "private-definition"
// notes one-shot and the dependency-ordered definition list analyze()
// builds up.
type Module struct {
	Global  *Scope // process-wide builtin names, never written to after init
	Public  *Scope
	Private *Scope

	state map[syntax.NodeID]visitState
	role  map[syntax.NodeID]Role

	order []syntax.NodeID
	errs  []Error

	notedImport  map[strtab.ID]bool // one-shot "forgot-to-import" per module name
	notedPrivate map[strtab.ID]bool // one-shot "private-definition" per name
}

func NewModule(global *Scope) *Module {
	return &Module{
		Global:       global,
		Public:       NewScope(nil),
		Private:      NewScope(nil),
		state:        make(map[syntax.NodeID]visitState),
		role:         make(map[syntax.NodeID]Role),
		notedImport:  make(map[strtab.ID]bool),
		notedPrivate: make(map[strtab.ID]bool),
	}
}

func (m *Module) Errors() []Error            { return m.errs }
func (m *Module) Order() []syntax.NodeID     { return m.order }
func (m *Module) RoleOf(id syntax.NodeID) Role { return m.role[id] }

func (m *Module) errorf(pos syntax.Position, format string, args ...any) {
	m.errs = append(m.errs, Error{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// FileScope opens a fresh per-file scope chained under Public (imports
// and top-level file-local aliases live here; the module-wide Public and
// Private scopes are shared across every file in the module).
func (m *Module) FileScope() *Scope { return NewScope(m.Public) }

// Lookup implements spec.md §4.1's search order: file_scope -> private ->
// public -> builtins. A hit in Global is reported as a builtin via its
// Role (already RoleBuiltinMacro or RoleType for builtin types).
func (m *Module) Lookup(file *Scope, name strtab.ID) *Symbol {
	if sym := file.LookupLocal(name); sym != nil {
		return sym
	}
	if sym := m.Private.LookupLocal(name); sym != nil {
		return sym
	}
	if sym := m.Public.LookupLocal(name); sym != nil {
		return sym
	}
	return m.Global.LookupLocal(name)
}

// DependencyResolver supplies analyze() with a definition's identifier
// references (inside its type, initializer, and signature) so the DFS can
// recurse before committing a final role. internal/pipeline's itemGraph
// implements this over its own AST walk; roles itself stays AST-agnostic
// beyond the Node id used as a key.
type DependencyResolver interface {
	// Dependencies returns the definition ids `id` directly refers to.
	Dependencies(id syntax.NodeID) []syntax.NodeID
	// InferRole computes `id`'s role given that every dependency already
	// has a settled role recorded in the Module.
	InferRole(id syntax.NodeID, m *Module) Role
	PosOf(id syntax.NodeID) syntax.Position
}

// Analyze runs spec.md §4.1's analyze(definition-id): marks the node
// Visiting, recurses into dependencies, assigns the final role on
// completion, and appends to the dependency-ordered list. A back-edge to
// a Visiting node is a recursive-dependency error and leaves that
// definition (and, transitively, anything only reachable through it)
// with role Invalid -- still inserted so downstream lookups don't cascade
// into spurious "undefined name" errors.
func (m *Module) Analyze(id syntax.NodeID, dr DependencyResolver) Role {
	switch m.state[id] {
	case done:
		return m.role[id]
	case visiting:
		m.errorf(dr.PosOf(id), "recursive dependency involving this definition")
		m.role[id] = RoleInvalid
		return RoleInvalid
	}

	m.state[id] = visiting
	ok := true
	for _, dep := range dr.Dependencies(id) {
		if m.Analyze(dep, dr) == RoleInvalid {
			ok = false
		}
	}

	role := RoleInvalid
	if ok {
		role = dr.InferRole(id, m)
	}
	m.role[id] = role
	m.state[id] = done
	m.order = append(m.order, id)
	return role
}

// NoteUndefined emits the "forgot-to-import" / "private-definition" notes
// spec.md §4.1 calls for, each at most once per module per compile.
func (m *Module) NoteUndefined(name strtab.ID, pos syntax.Position, knownModule, isPrivateSymbol bool) {
	switch {
	case knownModule && !m.notedImport[name]:
		m.notedImport[name] = true
		m.errorf(pos, "undefined name: module exists but was not imported in this file")
	case isPrivateSymbol && !m.notedPrivate[name]:
		m.notedPrivate[name] = true
		m.errorf(pos, "undefined name: a private definition with this name exists")
	default:
		m.errorf(pos, "undefined name")
	}
}

// DeriveUnary implements the Role rules for prefix `*` and `@`: on a Type
// they build a pointer/slice type (stay Type); on a Value they read
// through it (stay Value, meaning "dereference"/"slice-address").
func DeriveUnary(operand Role) Role {
	switch operand {
	case RoleType:
		return RoleType
	case RoleValue:
		return RoleValue
	default:
		return RoleInvalid
	}
}

// DeriveDot implements `.`: after a Module yields the symbol's own role;
// after a Type yields a scope-access value; after a Value yields a
// field-access value.
func DeriveDot(base Role, resolvedSymbolRole Role) Role {
	switch base {
	case RoleModule:
		return resolvedSymbolRole
	case RoleType:
		return RoleValue
	case RoleValue:
		return RoleValue
	default:
		return RoleInvalid
	}
}

// DeriveCall implements parenthesized call: on a Type it's a constructor
// value, on a Value a call value, on a BuiltinMacro the macro's declared
// output role (passed in as macroOutput).
func DeriveCall(callee Role, macroOutput Role) Role {
	switch callee {
	case RoleType, RoleValue:
		return RoleValue
	case RoleBuiltinMacro:
		return macroOutput
	default:
		return RoleInvalid
	}
}

// DeriveIndex implements bracket index: on a TagType it's a tagged type,
// on a Value an index value, on a BuiltinMacro the macro's output role.
func DeriveIndex(base Role, macroOutput Role) Role {
	switch base {
	case RoleTagType:
		return RoleTagType
	case RoleValue:
		return RoleValue
	case RoleBuiltinMacro:
		return macroOutput
	default:
		return RoleInvalid
	}
}
