package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	var ks []Kind
	for _, t := range toks {
		ks = append(ks, t.Kind)
	}
	return ks
}

func TestScanBasicTokens(t *testing.T) {
	s := NewScanner("t.vl", "function fib(n i32) -> i32 { return n }")
	toks := s.ScanAll()
	want := []Kind{KW_FUNCTION, IDENT, LPAREN, IDENT, IDENT, RPAREN, ARROW, IDENT, LBRACE, KW_RETURN, IDENT, RBRACE, EOF}
	assert.Equal(t, want, kinds(toks))
}

func TestScanLineComment(t *testing.T) {
	s := NewScanner("t.vl", "# comment\nlet x = 1")
	toks := s.ScanAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, KW_LET, toks[0].Kind, "comment not skipped")
}

func TestScanHexIntLiteral(t *testing.T) {
	s := NewScanner("t.vl", "0xFF")
	toks := s.ScanAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, INT, toks[0].Kind)
	assert.Equal(t, "0xFF", toks[0].Literal)
}

func TestScanFloatLiteral(t *testing.T) {
	s := NewScanner("t.vl", "1.5e-3")
	toks := s.ScanAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, FLOAT, toks[0].Kind)
}

func TestScanStringEscapes(t *testing.T) {
	s := NewScanner("t.vl", `"a\nb\x41"`)
	toks := s.ScanAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, STRING, toks[0].Kind)
	assert.Equal(t, "a\nbA", toks[0].Literal)
}

func TestScanBuiltinIdent(t *testing.T) {
	s := NewScanner("t.vl", "`size_of(T)")
	toks := s.ScanAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, BUILTIN, toks[0].Kind)
	assert.Equal(t, "size_of", toks[0].Literal)
}

func TestScanUnterminatedStringError(t *testing.T) {
	s := NewScanner("t.vl", `"abc`)
	s.ScanAll()
	assert.NotEmpty(t, s.Errors(), "expected a scan error for unterminated string")
}

// FatArrow ('=>') is not a switch-arm separator in this language; it
// scans as two separate tokens (ASSIGN, GT), never as a single ARROW.
// Only '->' produces ARROW. A scanner regression here would silently
// make '=>' parse as assignment-then-greater-than instead of failing
// at the parser the way it should.
func TestFatArrowIsNotAnArrowToken(t *testing.T) {
	s := NewScanner("t.vl", "=>")
	toks := s.ScanAll()
	want := []Kind{ASSIGN, GT, EOF}
	assert.Equal(t, want, kinds(toks))
}
