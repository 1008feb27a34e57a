// Command vellumc is the Vellum compiler's CLI front end (spec.md §6):
// it reads one or more source files, drives internal/pipeline over
// each, prints diagnostics with internal/diag's colored renderer, and
// on success hands the lowered program to internal/emit/cemit or
// internal/emit/llemit depending on -backend. Grounded on kanso's
// cmd/kanso-cli/main.go (flag-free arg handling + fatih/color error
// reporting), generalized to flag-based backend selection and
// multi-file compiles.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"vellum/internal/diag"
	"vellum/internal/emit/cemit"
	"vellum/internal/emit/llemit"
	"vellum/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("vellumc", flag.ContinueOnError)
	backend := fs.String("backend", "c", "code generator to use: c or llvm")
	printDebug := fs.Bool("print-debug", false, "print each lowered function's instruction count (no token, AST or typed-IR dump)")
	help := fs.Bool("help", false, "print usage")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return -1
	}

	if *help || fs.NArg() == 0 {
		printUsage(fs)
		if *help {
			return 0
		}
		return -1
	}
	if *backend != "c" && *backend != "llvm" {
		color.Red("vellumc: unknown backend %q (want c or llvm)", *backend)
		return -1
	}

	ok := true
	for _, path := range fs.Args() {
		if !compileOne(path, *backend, *printDebug) {
			ok = false
		}
	}
	if !ok {
		return -1
	}
	return 0
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: vellumc [-backend=c|llvm] [-print-debug] [-help] file...")
	fs.PrintDefaults()
}

func compileOne(path, backend string, printDebug bool) bool {
	src, err := os.ReadFile(path)
	if err != nil {
		color.Red("vellumc: %s: %v", path, err)
		return false
	}

	res, ok := pipeline.Compile(path, string(src))
	reporter := diag.NewReporter(path, string(src))
	for _, d := range res.Diags {
		fmt.Fprint(os.Stderr, reporter.Format(d))
	}
	if !ok {
		return false
	}

	if printDebug {
		dumpDebug(res)
	}

	outPath := "a.c"
	var emitErr error
	out, createErr := os.Create(outPath)
	if backend == "llvm" {
		outPath = "a.ll"
		out, createErr = os.Create(outPath)
	}
	if createErr != nil {
		color.Red("vellumc: %s: %v", outPath, createErr)
		return false
	}
	defer out.Close()

	if backend == "llvm" {
		emitErr = llemit.Emit(out, res.Prog, res.Low)
	} else {
		emitErr = cemit.Emit(out, res.Prog, res.Low)
	}
	if emitErr != nil {
		color.Red("vellumc: %s: %v", outPath, emitErr)
		return false
	}

	color.Green("compiled %s -> %s", path, outPath)
	return true
}

// dumpDebug prints a terse per-function instruction count of the lowered
// program; it does not dump tokens, the AST or the typed IR.
func dumpDebug(res *pipeline.Result) {
	fmt.Println("-- debug: lowered functions --")
	for name, b := range res.Low.Bounds {
		fmt.Printf("%s: %d instructions\n", name, int(b.End-b.Start))
	}
}
