// Package diag is the diagnostic model and Rust-style renderer spec.md
// §7 calls for: a Code per phase family (P0xxx parse, R1xxx resolution,
// T2xxx type, F3xxx flow, O4xxx ownership), collected into a Bag and
// rendered with source context, underline markers, and notes. Grounded
// on kanso's internal/errors (CompilerError + ErrorReporter), generalized
// from its single E00xx numbering to Vellum's per-phase families and
// from kanso's ast.Position to syntax.Position/token.Position.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelHelp    Level = "help"
)

type Code string

const (
	// P0xxx: parser
	CodeUnexpectedToken   Code = "P0001"
	CodeUnterminatedLit   Code = "P0002"
	CodeInvalidEscape     Code = "P0003"

	// R1xxx: role/resolution
	CodeUndefinedName        Code = "R1001"
	CodeRecursiveDependency  Code = "R1002"
	CodeForgotImport         Code = "R1003"
	CodePrivateDefinition    Code = "R1004"
	CodeDuplicateField       Code = "R1005"
	CodeDuplicateDiscriminant Code = "R1006"

	// T2xxx: type analysis
	CodeTypeMismatch        Code = "T2001"
	CodeOverflow             Code = "T2002"
	CodeDivisionByZero       Code = "T2003"
	CodeNegativeShift        Code = "T2004"
	CodeBadCast              Code = "T2005"
	CodeInferenceFailed      Code = "T2006"
	CodeNonExhaustiveSwitch  Code = "T2007"
	CodeUnreachableElse      Code = "T2008"
	CodeDuplicatePattern     Code = "T2009"
	CodeMissingMain          Code = "T2010"
	CodeFallOffNonVoid       Code = "T2011"
	CodeBreakOutsideLoop     Code = "T2012"
	CodeContinueOutsideLoop  Code = "T2013"
	CodeFieldNotFound        Code = "T2014"
	CodeEmptyStruct          Code = "T2015"

	// F3xxx: flow / lowering sanity
	CodeUnresolvedBranch Code = "F3001"

	// O4xxx: ownership / substructural
	CodeUseOfConsumed     Code = "O4001"
	CodeConsumedInLoop    Code = "O4002"
	CodeMoveOfBorrowed    Code = "O4003"
	CodeBorrowConflict    Code = "O4004"
	CodeAssignToLinear    Code = "O4005"
)

// Position mirrors syntax.Position/token.Position; diag takes its own
// copy so it never needs to import either AST-facing package.
type Position struct {
	File   string
	Line   int
	Column int
}

type Suggestion struct {
	Message     string
	Replacement string
}

type Diagnostic struct {
	Level    Level
	Code     Code
	Message  string
	Pos      Position
	Length   int
	Notes    []string
	HelpText string
	Suggestions []Suggestion
}

// Bag collects diagnostics across a compile; it is the unit the role,
// type, and ownership passes all report into.
type Bag struct {
	diags []Diagnostic
}

func (b *Bag) Add(d Diagnostic) { b.diags = append(b.diags, d) }

func (b *Bag) Errorf(code Code, pos Position, length int, format string, args ...any) {
	b.Add(Diagnostic{Level: LevelError, Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, Length: length})
}

func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

func (b *Bag) All() []Diagnostic { return b.diags }

// Reporter renders diagnostics against one file's source, Rust-compiler
// style: a colored header line, a `-->` location line, source context,
// an underline marker, then notes/help.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder
	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	width := lineNumberWidth(d.Pos.Line)
	indent := strings.Repeat(" ", width)
	out.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Pos.Line, d.Pos.Column))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if d.Pos.Line > 0 && d.Pos.Line <= len(r.lines) {
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, d.Pos.Line)), dim("│"), r.lines[d.Pos.Line-1]))
		marker := r.marker(d.Pos.Column, d.Length, d.Level)
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
	}

	for i, s := range d.Suggestions {
		helpColor := color.New(color.FgCyan).SprintFunc()
		if i == 0 {
			out.WriteString(fmt.Sprintf("%s %s %s: %s\n", indent, helpColor("help"), helpColor("try"), s.Message))
		} else {
			out.WriteString(fmt.Sprintf("%s %s\n", indent, s.Message))
		}
	}
	for _, n := range d.Notes {
		noteColor := color.New(color.FgCyan).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("note:"), n))
	}
	if d.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), helpColor("help:"), d.HelpText))
	}
	out.WriteString("\n")
	return out.String()
}

func (r *Reporter) levelColor(l Level) func(...any) string {
	switch l {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgCyan, color.Bold).SprintFunc()
	case LevelHelp:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(column, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	lead := column - 1
	if lead < 0 {
		lead = 0
	}
	mc := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == LevelWarning {
		mc = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return strings.Repeat(" ", lead) + mc(strings.Repeat("^", length))
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}
