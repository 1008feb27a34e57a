package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBagHasErrorsIgnoresWarnings(t *testing.T) {
	var b Bag
	b.Add(Diagnostic{Level: LevelWarning, Message: "hm"})
	assert.False(t, b.HasErrors(), "a warning alone should not count as an error")

	b.Errorf(CodeTypeMismatch, Position{Line: 1, Column: 1}, 1, "bad type")
	assert.True(t, b.HasErrors(), "expected HasErrors to be true after Errorf")
	assert.Len(t, b.All(), 2, "expected both diagnostics retained")
}

func TestReporterFormatIncludesCodeAndSourceLine(t *testing.T) {
	src := "let x = 1\nlet y = x + true\n"
	r := NewReporter("t.vl", src)
	out := r.Format(Diagnostic{
		Level: LevelError, Code: CodeTypeMismatch, Message: "type mismatch",
		Pos: Position{File: "t.vl", Line: 2, Column: 13}, Length: 4,
	})
	assert.Contains(t, out, "T2001", "expected code in output")
	assert.Contains(t, out, "t.vl:2:13", "expected location in output")
	assert.Contains(t, out, "let y = x + true", "expected source context line in output")
}
