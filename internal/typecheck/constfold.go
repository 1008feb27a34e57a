// constfold.go implements spec.md §4.3's constant folding: matching
// compile-time-constant operands are folded immediately with overflow
// checks, using math/big so the check itself never silently overflows a
// machine int before the range check runs. Grounded on kanso's
// validateNumericLiteralRange/inferNumericLiteralType (internal/parser,
// now superseded), generalized from Kanso's U8..U256 ladder to Vellum's
// signed i8..i64/isize widths.
package typecheck

import (
	"math/big"

	"vellum/internal/syntax"
	"vellum/internal/types"
	"vellum/internal/values"
)

// IntRange reports the inclusive [min, max] a signed integer type can
// hold; used both for literal-fits-hint inference and overflow checks.
func IntRange(ts *types.Store, id types.ID) (min, max *big.Int) {
	bits := 64
	switch ts.Get(id).Kind {
	case types.KI8:
		bits = 8
	case types.KI16:
		bits = 16
	case types.KI32:
		bits = 32
	case types.KI64, types.KIsize:
		bits = 64
	}
	max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)), big.NewInt(1))
	min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)))
	return min, max
}

func fitsRange(ts *types.Store, id types.ID, v *big.Int) bool {
	min, max := IntRange(ts, id)
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// InferLiteralType picks i64 unless hint is a smaller integer type the
// literal's value actually fits in, per spec.md §4.3.
func InferLiteralType(ts *types.Store, v *big.Int, hint types.ID) types.ID {
	if hint != types.NoType {
		switch ts.Get(hint).Kind {
		case types.KI8, types.KI16, types.KI32, types.KI64, types.KIsize:
			if fitsRange(ts, hint, v) {
				return hint
			}
		}
	}
	return types.I64()
}

// FoldBinaryInt applies checked integer arithmetic via math/big and
// reports whether the result is in range for resultType; division/modulo
// by zero and INT_MIN / -1 are rejected regardless of width.
func FoldBinaryInt(ts *types.Store, op syntax.BinOp, a, b *big.Int, resultType types.ID) (*big.Int, bool) {
	var r big.Int
	switch op {
	case syntax.OpAdd:
		r.Add(a, b)
	case syntax.OpSub:
		r.Sub(a, b)
	case syntax.OpMul:
		r.Mul(a, b)
	case syntax.OpDiv:
		if b.Sign() == 0 {
			return nil, false
		}
		min, _ := IntRange(ts, resultType)
		if a.Cmp(min) == 0 && b.Cmp(big.NewInt(-1)) == 0 {
			return nil, false
		}
		r.Quo(a, b)
	case syntax.OpMod:
		if b.Sign() == 0 {
			return nil, false
		}
		r.Rem(a, b)
	case syntax.OpBitAnd:
		r.And(a, b)
	case syntax.OpBitOr:
		r.Or(a, b)
	case syntax.OpBitXor:
		r.Xor(a, b)
	case syntax.OpShl:
		if b.Sign() < 0 {
			return nil, false
		}
		r.Lsh(a, uint(b.Int64()))
	case syntax.OpShr:
		if b.Sign() < 0 {
			return nil, false
		}
		r.Rsh(a, uint(b.Int64()))
	default:
		return nil, false
	}
	if !fitsRange(ts, resultType, &r) {
		return nil, false
	}
	return &r, true
}

var (
	two32 = new(big.Int).Lsh(big.NewInt(1), 32)
	two64 = new(big.Int).Lsh(big.NewInt(1), 64)
	hex32Lo = big.NewInt(0x80000000)
	hex32Hi = new(big.Int).Sub(two32, big.NewInt(1)) // 0xFFFFFFFF
	hex64Lo = new(big.Int).Lsh(big.NewInt(1), 63)     // 0x8000000000000000
)

// ParseBigInt parses a decimal or 0x-hex integer literal (with optional
// `_` digit separators) into a big.Int, applying spec.md §6's hex
// sign-extension rules: a hex literal of 9-16 digits whose raw value
// falls in [0x80000000, 0xFFFFFFFF] is sign-extended from 32 to 64 bits,
// and a 16-digit hex literal whose raw value is >= 0x8000000000000000 is
// sign-extended from 64 bits -- the two's-complement reading that lets
// `0x8000000000000000` denote INT64_MIN (spec.md §8) while the
// equivalent decimal literal is rejected as out of range.
func ParseBigInt(lit string) *big.Int {
	clean := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); i++ {
		if lit[i] != '_' {
			clean = append(clean, lit[i])
		}
	}
	s := string(clean)
	if len(s) > 1 && (s[1] == 'x' || s[1] == 'X') {
		digits := s[2:]
		v := new(big.Int)
		v.SetString(digits, 16)
		n := len(digits)
		switch {
		case n == 16 && v.Cmp(hex64Lo) >= 0:
			v.Sub(v, two64)
		case n >= 9 && n <= 16 && v.Cmp(hex32Lo) >= 0 && v.Cmp(hex32Hi) <= 0:
			v.Sub(v, two32)
		}
		return v
	}
	v := new(big.Int)
	v.SetString(s, 10)
	return v
}

// FoldConstExpr evaluates a restricted constant-expression grammar
// (integer literal, unary minus, binary arithmetic between constants)
// used for `const` declarations and array-length positions.
func FoldConstExpr(p *Program, node syntax.NodeID, hint types.ID) (values.ID, bool) {
	s := p.Syntax
	switch s.Kind(node) {
	case syntax.KIntLit:
		v := ParseBigInt(s.Strings.Get(s.LitText(node)))
		ty := InferLiteralType(p.Types, v, hint)
		if !v.IsInt64() {
			return values.NoValue, false
		}
		return p.Values.IntegerConstant(v.Int64(), ty), true
	case syntax.KUnaryExpr:
		if s.UnaryOp(node) != syntax.OpNeg {
			return values.NoValue, false
		}
		inner, ok := FoldConstExpr(p, s.UnaryOperand(node), hint)
		if !ok {
			return values.NoValue, false
		}
		d := p.Values.Get(inner)
		return p.Values.IntegerConstant(-d.IntValue, d.Type), true
	case syntax.KBinaryExpr:
		l, ok1 := FoldConstExpr(p, s.BinaryLeft(node), hint)
		r, ok2 := FoldConstExpr(p, s.BinaryRight(node), hint)
		if !ok1 || !ok2 {
			return values.NoValue, false
		}
		ld, rd := p.Values.Get(l), p.Values.Get(r)
		if ld.Type != rd.Type {
			return values.NoValue, false
		}
		folded, ok := FoldBinaryInt(p.Types, s.BinaryOp(node), big.NewInt(ld.IntValue), big.NewInt(rd.IntValue), ld.Type)
		if !ok {
			return values.NoValue, false
		}
		return p.Values.IntegerConstant(folded.Int64(), ld.Type), true
	default:
		return values.NoValue, false
	}
}
