// Package pipeline wires the four semantic passes (internal/roles,
// internal/typecheck, internal/ownership, internal/lowering) together
// with the external parser and diagnostic model into spec.md §5's
// end-to-end compile: role analysis decides declaration order, a
// single-threaded declaration phase populates the global type/value
// stores, then every function body runs type analysis and substructural
// analysis concurrently via golang.org/x/sync/errgroup, and lowering runs
// single-threaded afterward since it writes into one shared lowir.Program.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vellum/internal/builtins"
	"vellum/internal/diag"
	"vellum/internal/lowering"
	"vellum/internal/lowir"
	"vellum/internal/ownership"
	"vellum/internal/parser"
	"vellum/internal/roles"
	"vellum/internal/strtab"
	"vellum/internal/syntax"
	"vellum/internal/typecheck"
	"vellum/internal/types"
	"vellum/internal/values"
)

// Result is everything a compile produced: the shared stores, the
// declared program, the lowered instruction stream, and the aggregated
// diagnostics across every phase that ran.
type Result struct {
	Strs   *strtab.Table
	Syntax *syntax.Store
	Types  *types.Store
	Values *values.Store
	Prog   *typecheck.Program
	Low    *lowir.Program
	Roles  *roles.Module
	Diags  []diag.Diagnostic
}

// funcResult holds one function's body-phase output, filled in
// concurrently and consumed by the single-threaded lowering pass
// afterward.
type funcResult struct {
	decl  *typecheck.FuncDecl
	tc    *typecheck.Checker
	ok    bool
	diags []diag.Diagnostic
}

// Compile runs the whole pipeline over one file's source and reports
// whether it completed without any error-level diagnostic. A fatal parse
// failure halts immediately (there is no syntax to analyze); failures in
// later phases are recorded per function/item and the pipeline continues
// as far as it can, per spec.md §7's propagation rules.
func Compile(filename, src string) (*Result, bool) {
	strs := strtab.New()
	ss := syntax.NewStore(strs)

	moduleNode, parseErrs := parser.Parse(ss, filename, src)
	res := &Result{Strs: strs, Syntax: ss}
	for _, pe := range parseErrs {
		res.Diags = append(res.Diags, diag.Diagnostic{
			Level: diag.LevelError, Code: diag.CodeUnexpectedToken, Message: pe.Message,
			Pos: diag.Position{File: pe.Pos.File, Line: pe.Pos.Line, Column: pe.Pos.Column}, Length: 1,
		})
	}
	if len(parseErrs) > 0 {
		return res, false
	}

	ts := types.NewStore()
	vs := values.NewStore()
	res.Types, res.Values = ts, vs

	items := ss.ModuleItems(moduleNode)

	global := roles.NewScope(nil)
	builtins.RegisterGlobalScope(global, strs)
	mod := roles.NewModule(global)
	res.Roles = mod

	graph := newItemGraph(ss, items)
	for name, item := range graph.byName {
		mod.Public.Define(&roles.Symbol{Name: strs.Intern(name), Def: item, Pos: ss.Pos(item)})
	}
	for _, item := range items {
		if _, ok := itemName(ss, item); ok {
			mod.Analyze(item, graph)
		}
	}
	for _, re := range mod.Errors() {
		res.Diags = append(res.Diags, diag.Diagnostic{
			Level: diag.LevelError, Code: diag.CodeRecursiveDependency, Message: re.Message,
			Pos: diag.Position{File: re.Pos.File, Line: re.Pos.Line, Column: re.Pos.Column}, Length: 1,
		})
	}
	// Symbols were defined before their role was known; back-fill now that
	// analyze() has settled one for every item.
	for name, item := range graph.byName {
		if sym := mod.Public.LookupLocal(strs.Intern(name)); sym != nil {
			sym.Role = mod.RoleOf(item)
		}
	}

	prog := typecheck.NewProgram(strs, ts, vs, ss)
	res.Prog = prog
	typecheck.Declare(prog, mod.Order(), mod)
	res.Diags = append(res.Diags, prog.Diags.All()...)
	if prog.Diags.HasErrors() {
		return res, false
	}

	var funcs []*typecheck.FuncDecl
	for _, order := range mod.Order() {
		if ss.Kind(order) != syntax.KFunction {
			continue
		}
		name := strs.Get(ss.FunctionName(order))
		if d, ok := prog.Funcs[name]; ok && !d.IsExtern {
			funcs = append(funcs, d)
		}
	}

	results := make([]*funcResult, len(funcs))
	g, _ := errgroup.WithContext(context.Background())
	for i, d := range funcs {
		i, d := i, d
		g.Go(func() error {
			c := typecheck.NewChecker(prog, d)
			bodyOK := c.CheckBody()

			oc := ownership.NewChecker(ss, c.TIR, c.VP, vs, ts, len(d.ParamTypes))
			ownOK := oc.Check()

			fd := make([]diag.Diagnostic, 0, len(c.Diags.All())+len(oc.Diags.All()))
			fd = append(fd, c.Diags.All()...)
			fd = append(fd, oc.Diags.All()...)
			results[i] = &funcResult{decl: d, tc: c, ok: bodyOK && ownOK, diags: fd}
			return nil // a single function's failure never halts the others
		})
	}
	_ = g.Wait()

	// All per-function diagnostics are folded back in here, serially, now
	// that every goroutine above has returned -- res.Diags is never
	// touched from inside the fan-out.
	for _, r := range results {
		if r != nil {
			res.Diags = append(res.Diags, r.diags...)
		}
	}

	low := lowir.NewProgram()
	res.Low = low
	allOK := !prog.Diags.HasErrors()
	for _, r := range results {
		if r == nil {
			continue
		}
		if !r.ok {
			allOK = false
			continue
		}
		lw := lowering.New(low, ts, strs, ss, vs, r.tc.VP, r.tc.TIR)
		lw.LowerFunc(strs.Get(r.decl.MangledName), r.decl.ParamTypes, r.decl.RetType)
		r.tc.VP.MergeInto(vs)
	}

	return res, allOK && !res.hasErrors()
}

func (r *Result) hasErrors() bool {
	for _, d := range r.Diags {
		if d.Level == diag.LevelError {
			return true
		}
	}
	return false
}
