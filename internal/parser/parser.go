// Package parser is a hand-written recursive-descent + Pratt parser over
// internal/token, producing internal/syntax.Store nodes directly (no
// separate conventional AST). spec.md frames lexing/parsing as an
// external collaborator outside the analyzer's own scope, but a complete
// compiler still needs one to drive the rest of the pipeline end to end.
//
// Expression precedence climbing is grounded on kanso's
// internal/parser/parser_pratt.go; the overall recursive-descent
// structure (match/check/consume/advance helpers, one parseXxx per
// grammar production) follows the same file's surrounding parser.
//
// participle (kanso's struct-tag parser combinator) was considered and
// dropped for this grammar: type-parameter lists, pointer/slice sigils,
// and backtick builtin macro calls don't fit its declarative struct-tag
// style cleanly alongside a precedence-climbing expression grammar, so a
// hand parser was written instead (see DESIGN.md).
package parser

import (
	"fmt"

	"vellum/internal/syntax"
	"vellum/internal/token"
)

type ParseError struct {
	Message string
	Pos     token.Position
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

type Parser struct {
	store *syntax.Store
	toks  []token.Token
	idx   int
	errs  []ParseError
}

func New(store *syntax.Store, toks []token.Token) *Parser {
	return &Parser{store: store, toks: toks}
}

func Parse(store *syntax.Store, file, src string) (syntax.NodeID, []ParseError) {
	sc := token.NewScanner(file, src)
	toks := sc.ScanAll()
	p := New(store, toks)
	for _, e := range sc.Errors() {
		p.errs = append(p.errs, ParseError{Message: e.Message, Pos: e.Pos})
	}
	mod := p.parseModule()
	return mod, p.errs
}

func (p *Parser) Errors() []ParseError { return p.errs }

func (p *Parser) peek() token.Token { return p.toks[p.idx] }
func (p *Parser) peekAt(off int) token.Token {
	i := p.idx + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}
func (p *Parser) previous() token.Token { return p.toks[p.idx-1] }
func (p *Parser) atEnd() bool           { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.idx++
	}
	return p.previous()
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k token.Kind, msg string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorf(msg)
	return p.peek()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, ParseError{Message: fmt.Sprintf(format, args...), Pos: p.peek().Pos})
}

func (p *Parser) pos() syntax.Position       { return p.posOf(p.peek()) }
func (p *Parser) posAt(t token.Token) syntax.Position { return p.posOf(t) }

func (p *Parser) posOf(t token.Token) syntax.Position {
	return syntax.Position{File: t.Pos.File, Line: t.Pos.Line, Column: t.Pos.Column, Offset: t.Pos.Offset}
}

func (p *Parser) intern(s string) syntax.StrID { return p.store.Strings.Intern(s) }

// synchronize skips tokens until a likely statement/declaration boundary,
// so one malformed construct doesn't cascade into spurious downstream
// errors.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		switch p.peek().Kind {
		case token.KW_FUNCTION, token.KW_STRUCT, token.KW_ENUM, token.KW_NEWTYPE,
			token.KW_CONST, token.KW_LET, token.KW_RETURN, token.KW_IF, token.KW_WHILE,
			token.KW_FOR, token.RBRACE:
			return
		}
		p.advance()
	}
}

// ---- Top level ----

func (p *Parser) parseModule() syntax.NodeID {
	pos := p.pos()
	name := syntax.StrID(0)
	if p.match(token.KW_MODULE) {
		ident := p.consume(token.IDENT, "expected module name after 'module'")
		name = p.intern(ident.Literal)
	}

	var items []syntax.NodeID
	for !p.atEnd() {
		item := p.parseItem()
		if item != syntax.NoNode {
			items = append(items, item)
		}
	}
	return p.store.NewModule(name, items, pos)
}

func (p *Parser) parseItem() syntax.NodeID {
	switch {
	case p.check(token.KW_IMPORT):
		return p.parseUse()
	case p.check(token.KW_STRUCT):
		return p.parseStruct()
	case p.check(token.IDENT) && p.peek().Literal == "linear" && p.peekAt(1).Kind == token.KW_STRUCT:
		return p.parseStruct()
	case p.check(token.KW_ENUM):
		return p.parseEnum()
	case p.check(token.KW_NEWTYPE):
		return p.parseNewtype()
	case p.check(token.KW_CONST):
		return p.parseConstOrAlias()
	case p.check(token.KW_EXTERN):
		return p.parseExternItem()
	case p.check(token.KW_FUNCTION):
		return p.parseFunction(false, false)
	default:
		p.errorf("unexpected token %q at top level", p.peek().Literal)
		p.advance()
		p.synchronize()
		return syntax.NoNode
	}
}

func (p *Parser) parseUse() syntax.NodeID {
	pos := p.pos()
	p.advance() // import
	path := p.consume(token.IDENT, "expected import path")
	var names []syntax.NodeID
	if p.match(token.DCOLON) {
		p.consume(token.LBRACE, "expected '{' after '::'")
		for !p.check(token.RBRACE) && !p.atEnd() {
			n := p.consume(token.IDENT, "expected imported name")
			names = append(names, p.store.NewIdent(p.intern(n.Literal), p.posAt(n)))
			if !p.match(token.COMMA) {
				break
			}
		}
		p.consume(token.RBRACE, "expected '}' to close import list")
	}
	return p.store.NewUse(p.intern(path.Literal), names, pos)
}

func (p *Parser) parseTypeParamList() []syntax.NodeID {
	var params []syntax.NodeID
	if !p.match(token.LBRACKET) {
		return nil
	}
	idx := int32(0)
	for !p.check(token.RBRACKET) && !p.atEnd() {
		name := p.consume(token.IDENT, "expected type parameter name")
		params = append(params, p.store.NewTypeParam(p.intern(name.Literal), idx, p.posAt(name)))
		idx++
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACKET, "expected ']' to close type parameter list")
	return params
}

func (p *Parser) parseStruct() syntax.NodeID {
	pos := p.pos()
	isLinear := false
	if p.check(token.IDENT) && p.peek().Literal == "linear" {
		isLinear = true
		p.advance()
	}
	p.consume(token.KW_STRUCT, "expected 'struct'")
	name := p.consume(token.IDENT, "expected struct name")
	typeParams := p.parseTypeParamList()
	p.consume(token.LBRACE, "expected '{' after struct name")
	var fields []syntax.NodeID
	for !p.check(token.RBRACE) && !p.atEnd() {
		fname := p.consume(token.IDENT, "expected field name")
		p.consume(token.COLON, "expected ':' after field name")
		ftype := p.parseType()
		fields = append(fields, p.store.NewStructField(p.intern(fname.Literal), ftype, p.posAt(fname)))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACE, "expected '}' to close struct body")
	return p.store.NewStruct(p.intern(name.Literal), typeParams, fields, isLinear, pos)
}

func (p *Parser) parseEnum() syntax.NodeID {
	pos := p.pos()
	p.advance() // enum
	name := p.consume(token.IDENT, "expected enum name")
	var repr syntax.NodeID
	if p.match(token.COLON) {
		repr = p.parseType()
	}
	p.consume(token.LBRACE, "expected '{' after enum name")
	var members []syntax.NodeID
	for !p.check(token.RBRACE) && !p.atEnd() {
		m := p.consume(token.IDENT, "expected enum member name")
		members = append(members, p.store.NewEnumMember(p.intern(m.Literal), p.posAt(m)))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACE, "expected '}' to close enum body")
	return p.store.NewEnum(p.intern(name.Literal), repr, members, pos)
}

func (p *Parser) parseNewtype() syntax.NodeID {
	pos := p.pos()
	p.advance() // newtype
	name := p.consume(token.IDENT, "expected newtype name")
	arity := int32(0)
	if p.match(token.LBRACKET) {
		n := p.consume(token.INT, "expected tag arity")
		arity = parseIntLiteralArity(n.Literal)
		p.consume(token.RBRACKET, "expected ']' after tag arity")
	}
	p.consume(token.ASSIGN, "expected '=' in newtype declaration")
	inner := p.parseType()
	return p.store.NewNewtype(p.intern(name.Literal), arity, inner, pos)
}

func parseIntLiteralArity(lit string) int32 {
	var n int32
	for _, c := range lit {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int32(c-'0')
	}
	return n
}

func (p *Parser) parseConstOrAlias() syntax.NodeID {
	pos := p.pos()
	p.advance() // const
	name := p.consume(token.IDENT, "expected name after 'const'")
	p.consume(token.ASSIGN, "expected '=' after const name")
	if p.looksLikeType() {
		typ := p.parseType()
		return p.store.NewTypeAlias(p.intern(name.Literal), typ, pos)
	}
	expr := p.parseExpr()
	return p.store.NewConst(p.intern(name.Literal), expr, pos)
}

// looksLikeType is a one-token heuristic: a bare identifier could begin
// either a type alias target or a constant expression, but pointer/slice
// sigils and array brackets only begin a type.
func (p *Parser) looksLikeType() bool {
	switch p.peek().Kind {
	case token.STAR, token.AT, token.LBRACKET:
		return true
	default:
		return false
	}
}

func (p *Parser) parseExternItem() syntax.NodeID {
	p.advance() // extern
	isMut := p.match(token.KW_MUT)
	return p.parseFunction(true, isMut)
}

func (p *Parser) parseFunction(isExtern, isExternMut bool) syntax.NodeID {
	pos := p.pos()
	if p.check(token.KW_FUNCTION) {
		p.advance()
	}
	name := p.consume(token.IDENT, "expected function name")
	typeParams := p.parseTypeParamList()
	p.consume(token.LPAREN, "expected '(' after function name")
	var params []syntax.NodeID
	for !p.check(token.RPAREN) && !p.atEnd() {
		pname := p.consume(token.IDENT, "expected parameter name")
		ptype := p.parseType()
		params = append(params, p.store.NewParam(p.intern(pname.Literal), ptype, p.posAt(pname)))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN, "expected ')' after parameter list")

	var ret syntax.NodeID
	if p.match(token.ARROW) {
		ret = p.parseType()
	}

	var body syntax.NodeID
	if isExtern {
		if p.check(token.SEMI) {
			p.advance()
		}
	} else {
		body = p.parseBlock()
	}
	return p.store.NewFunction(p.intern(name.Literal), typeParams, params, ret, body, isExtern, isExternMut, pos)
}

// ---- Types ----

func (p *Parser) parseType() syntax.NodeID {
	pos := p.pos()
	switch {
	case p.match(token.STAR):
		mut := p.match(token.KW_MUT)
		elem := p.parseType()
		return p.store.NewTypePointer(mut, elem, pos)
	case p.match(token.AT):
		mut := p.match(token.KW_MUT)
		elem := p.parseType()
		return p.store.NewTypeSlice(mut, elem, pos)
	case p.match(token.LBRACKET):
		length := p.parseExpr()
		p.consume(token.RBRACKET, "expected ']' after array length")
		elem := p.parseType()
		return p.store.NewTypeArray(length, elem, pos)
	default:
		name := p.consume(token.IDENT, "expected type name")
		var args []syntax.NodeID
		if p.match(token.LBRACKET) {
			for !p.check(token.RBRACKET) && !p.atEnd() {
				args = append(args, p.parseType())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.consume(token.RBRACKET, "expected ']' to close type argument list")
		}
		return p.store.NewTypeNamed(p.intern(name.Literal), args, pos)
	}
}

// ---- Statements ----

func (p *Parser) parseBlock() syntax.NodeID {
	pos := p.pos()
	p.consume(token.LBRACE, "expected '{'")
	var stmts []syntax.NodeID
	var tail syntax.NodeID
	for !p.check(token.RBRACE) && !p.atEnd() {
		stmt, isTailExpr := p.parseStmt()
		if isTailExpr && p.check(token.RBRACE) {
			tail = stmt
			break
		}
		stmts = append(stmts, stmt)
	}
	p.consume(token.RBRACE, "expected '}' to close block")
	return p.store.NewBlock(stmts, tail, pos)
}

// parseStmt returns (node, isBareExprWithNoSemicolon). The latter lets
// parseBlock treat a final semicolon-less expression as the block's tail
// value rather than a statement.
func (p *Parser) parseStmt() (syntax.NodeID, bool) {
	pos := p.pos()
	switch {
	case p.check(token.KW_LET):
		return p.parseLetStmt(), false
	case p.check(token.KW_RETURN):
		p.advance()
		var val syntax.NodeID
		if !p.check(token.SEMI) && !p.check(token.RBRACE) {
			val = p.parseExpr()
		}
		p.match(token.SEMI)
		return p.store.NewReturnStmt(val, pos), false
	case p.check(token.KW_BREAK):
		p.advance()
		p.match(token.SEMI)
		return p.store.NewBreakStmt(pos), false
	case p.check(token.KW_CONTINUE):
		p.advance()
		p.match(token.SEMI)
		return p.store.NewContinueStmt(pos), false
	case p.check(token.KW_IF):
		return p.parseIfStmt(), false
	case p.check(token.KW_WHILE):
		return p.parseWhileStmt(), false
	case p.check(token.KW_FOR):
		return p.parseForStmt(), false
	default:
		expr := p.parseExpr()
		if p.isAssignTarget() {
			return p.finishAssign(expr, pos), false
		}
		hadSemi := p.match(token.SEMI)
		if !hadSemi {
			return expr, true
		}
		return p.store.NewExprStmt(expr, pos), false
	}
}

func (p *Parser) isAssignTarget() bool {
	switch p.peek().Kind {
	case token.ASSIGN, token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PERCENT_EQ:
		return true
	default:
		return false
	}
}

func (p *Parser) finishAssign(target syntax.NodeID, pos syntax.Position) syntax.NodeID {
	op := p.advance()
	value := p.parseExpr()
	p.match(token.SEMI)
	switch op.Kind {
	case token.ASSIGN:
		return p.store.NewAssignStmt(target, value, pos)
	case token.PLUS_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpAdd, target, value, pos)
	case token.MINUS_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpSub, target, value, pos)
	case token.STAR_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpMul, target, value, pos)
	case token.SLASH_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpDiv, target, value, pos)
	default:
		return p.store.NewCompoundAssignStmt(syntax.OpMod, target, value, pos)
	}
}

func (p *Parser) parseLetStmt() syntax.NodeID {
	pos := p.pos()
	p.advance() // let
	mut := p.match(token.KW_MUT)
	name := p.consume(token.IDENT, "expected variable name")
	typ := p.parseType()
	p.consume(token.ASSIGN, "expected '=' in let statement")
	expr := p.parseExpr()
	p.match(token.SEMI)
	return p.store.NewLetStmt(p.intern(name.Literal), mut, typ, expr, pos)
}

func (p *Parser) parseIfStmt() syntax.NodeID {
	pos := p.pos()
	p.advance() // if
	cond := p.parseExpr()
	then := p.parseBlock()
	var els syntax.NodeID
	if p.match(token.KW_ELSE) {
		if p.check(token.KW_IF) {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
	}
	return p.store.NewIfStmt(cond, then, els, pos)
}

func (p *Parser) parseWhileStmt() syntax.NodeID {
	pos := p.pos()
	p.advance() // while
	cond := p.parseExpr()
	body := p.parseBlock()
	return p.store.NewWhileStmt(cond, body, pos)
}

// parseForStmt hoists the initializer into its own statement, per
// spec.md §4.3's "for's initializer is hoisted via a paired helper
// statement so the initializer lives outside the loop's scope".
func (p *Parser) parseForStmt() syntax.NodeID {
	pos := p.pos()
	p.advance() // for
	var init syntax.NodeID
	if p.check(token.KW_LET) {
		init = p.parseLetStmt()
	} else {
		p.consume(token.SEMI, "expected ';' after empty for-initializer")
	}
	cond := p.parseExpr()
	p.consume(token.SEMI, "expected ';' after for-condition")
	var next syntax.NodeID
	if !p.check(token.LBRACE) {
		nextPos := p.pos()
		target := p.parseExpr()
		if p.isAssignTarget() {
			next = p.finishAssignNoSemi(target, nextPos)
		} else {
			next = p.store.NewExprStmt(target, nextPos)
		}
	}
	body := p.parseBlock()
	return p.store.NewForStmt(init, cond, next, body, pos)
}

func (p *Parser) finishAssignNoSemi(target syntax.NodeID, pos syntax.Position) syntax.NodeID {
	op := p.advance()
	value := p.parseExpr()
	switch op.Kind {
	case token.ASSIGN:
		return p.store.NewAssignStmt(target, value, pos)
	case token.PLUS_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpAdd, target, value, pos)
	case token.MINUS_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpSub, target, value, pos)
	case token.STAR_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpMul, target, value, pos)
	case token.SLASH_EQ:
		return p.store.NewCompoundAssignStmt(syntax.OpDiv, target, value, pos)
	default:
		return p.store.NewCompoundAssignStmt(syntax.OpMod, target, value, pos)
	}
}

// ---- Expressions (Pratt) ----

var binaryPrecedence = map[token.Kind]int{
	token.KW_OR:   1,
	token.KW_AND:  2,
	token.EQ:      3, token.NE: 3,
	token.LT: 4, token.LE: 4, token.GT: 4, token.GE: 4,
	token.PIPE: 5, token.CARET: 5, token.AMP: 5,
	token.SHL: 6, token.SHR: 6,
	token.PLUS: 7, token.MINUS: 7,
	token.STAR: 8, token.SLASH: 8, token.PERCENT: 8,
}

var binOpFor = map[token.Kind]syntax.BinOp{
	token.KW_OR: syntax.OpOr, token.KW_AND: syntax.OpAnd,
	token.EQ: syntax.OpEq, token.NE: syntax.OpNe,
	token.LT: syntax.OpLt, token.LE: syntax.OpLe, token.GT: syntax.OpGt, token.GE: syntax.OpGe,
	token.PIPE: syntax.OpBitOr, token.CARET: syntax.OpBitXor, token.AMP: syntax.OpBitAnd,
	token.SHL: syntax.OpShl, token.SHR: syntax.OpShr,
	token.PLUS: syntax.OpAdd, token.MINUS: syntax.OpSub,
	token.STAR: syntax.OpMul, token.SLASH: syntax.OpDiv, token.PERCENT: syntax.OpMod,
}

func (p *Parser) parseExpr() syntax.NodeID { return p.parsePratt(0) }

func (p *Parser) parsePratt(minPrec int) syntax.NodeID {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrecedence[p.peek().Kind]
		if !ok || prec < minPrec {
			break
		}
		opTok := p.advance()
		right := p.parsePratt(prec + 1)
		left = p.store.NewBinaryExpr(binOpFor[opTok.Kind], left, right, p.posAt(opTok))
	}
	if minPrec > 0 {
		// A right operand: leave any `as` to the outermost level.
		return left
	}
	return p.parseAsExpr(left)
}

// parseAsExpr handles the postfix `e as T` cast, binding looser than
// binary operators but tighter than assignment.
func (p *Parser) parseAsExpr(left syntax.NodeID) syntax.NodeID {
	for p.match(token.KW_AS) {
		pos := p.previous().Pos
		typ := p.parseType()
		left = p.store.NewCastExpr(left, typ, p.posAt(token.Token{Pos: pos}))
	}
	return left
}

func (p *Parser) parseUnary() syntax.NodeID {
	pos := p.pos()
	switch {
	case p.match(token.AMP):
		_ = p.match(token.KW_MUT) // mutability of the address-of target is inferred from the operand's own category
		operand := p.parseUnary()
		return p.store.NewAddressOfExpr(operand, pos)
	case p.match(token.STAR):
		operand := p.parseUnary()
		return p.store.NewDerefExpr(operand, pos)
	case p.match(token.MINUS):
		operand := p.parseUnary()
		return p.store.NewUnaryExpr(syntax.OpNeg, operand, pos)
	case p.match(token.BANG), p.check(token.KW_NOT):
		if p.check(token.KW_NOT) {
			p.advance()
		}
		operand := p.parseUnary()
		return p.store.NewUnaryExpr(syntax.OpNot, operand, pos)
	case p.match(token.TILDE):
		operand := p.parseUnary()
		return p.store.NewUnaryExpr(syntax.OpBitNot, operand, pos)
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(expr syntax.NodeID) syntax.NodeID {
	for {
		pos := p.pos()
		switch {
		case p.match(token.DOT):
			field := p.consume(token.IDENT, "expected field or member name after '.'")
			expr = p.store.NewFieldAccessExpr(expr, p.intern(field.Literal), pos)
		case p.match(token.DCOLON):
			member := p.consume(token.IDENT, "expected member name after '::'")
			expr = p.store.NewEnumMemberAccess(expr, p.intern(member.Literal), pos)
		case p.check(token.LPAREN):
			p.advance()
			args := p.parseExprList(token.RPAREN)
			p.consume(token.RPAREN, "expected ')' after call arguments")
			expr = p.store.NewCallExpr(expr, args, pos)
		case p.check(token.LBRACKET):
			p.advance()
			idx := p.parseExpr()
			p.consume(token.RBRACKET, "expected ']' after index")
			expr = p.store.NewIndexExpr(expr, idx, pos)
		default:
			return expr
		}
	}
}

func (p *Parser) parseExprList(end token.Kind) []syntax.NodeID {
	var args []syntax.NodeID
	for !p.check(end) && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.match(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parsePrimary() syntax.NodeID {
	pos := p.pos()
	tok := p.peek()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return p.store.NewIntLit(p.intern(tok.Literal), pos)
	case token.FLOAT:
		p.advance()
		return p.store.NewFloatLit(p.intern(tok.Literal), pos)
	case token.CHAR:
		p.advance()
		var v int32
		if len(tok.Literal) > 0 {
			v = int32(tok.Literal[0])
		}
		return p.store.NewCharLit(v, pos)
	case token.STRING:
		p.advance()
		return p.store.NewStringLit(p.intern(tok.Literal), pos)
	case token.KW_TRUE:
		p.advance()
		return p.store.NewBoolLit(true, pos)
	case token.KW_FALSE:
		p.advance()
		return p.store.NewBoolLit(false, pos)
	case token.KW_NULL:
		p.advance()
		return p.store.NewNullLit(pos)
	case token.BUILTIN:
		return p.parseBuiltinCall()
	case token.LPAREN:
		p.advance()
		if p.check(token.RPAREN) {
			p.advance()
			return p.store.NewTupleExpr(nil, pos)
		}
		inner := p.parseExpr()
		if p.match(token.COMMA) {
			elems := append([]syntax.NodeID{inner}, p.parseExprList(token.RPAREN)...)
			p.consume(token.RPAREN, "expected ')' to close tuple")
			return p.store.NewTupleExpr(elems, pos)
		}
		p.consume(token.RPAREN, "expected ')' to close parenthesized expression")
		return p.store.NewParenExpr(inner, pos)
	case token.KW_SWITCH:
		return p.parseSwitchExpr()
	case token.DOT:
		p.advance()
		member := p.consume(token.IDENT, "expected member name after '.'")
		return p.store.NewEnumMemberAccess(syntax.NoNode, p.intern(member.Literal), pos)
	case token.IDENT:
		p.advance()
		ident := p.store.NewIdent(p.intern(tok.Literal), pos)
		if p.check(token.LBRACE) && p.looksLikeStructLiteral() {
			return p.parseStructLiteral(ident, pos)
		}
		return ident
	default:
		p.errorf("unexpected token %q in expression", tok.Literal)
		p.advance()
		return p.store.NewNullLit(pos)
	}
}

// looksLikeStructLiteral disambiguates `Ident { ... }` as a struct
// literal from an identifier immediately followed by a control-flow
// block (e.g. the condition of `if cond { ... }`): a struct literal's
// brace is followed by either `}` or `ident:`.
func (p *Parser) looksLikeStructLiteral() bool {
	if p.peekAt(1).Kind == token.RBRACE {
		return true
	}
	return p.peekAt(1).Kind == token.IDENT && p.peekAt(2).Kind == token.COLON
}

func (p *Parser) parseStructLiteral(typeIdent syntax.NodeID, pos syntax.Position) syntax.NodeID {
	p.consume(token.LBRACE, "expected '{' to begin struct literal")
	var fields []syntax.NodeID
	for !p.check(token.RBRACE) && !p.atEnd() {
		fpos := p.pos()
		name := p.consume(token.IDENT, "expected field name in struct literal")
		p.consume(token.COLON, "expected ':' after field name")
		value := p.parseExpr()
		fields = append(fields, p.store.NewStructLiteralField(p.intern(name.Literal), value, fpos))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACE, "expected '}' to close struct literal")
	return p.store.NewStructLiteral(typeIdent, fields, pos)
}

func (p *Parser) parseBuiltinCall() syntax.NodeID {
	pos := p.pos()
	tok := p.advance() // BUILTIN
	var typeArgs []syntax.NodeID
	if p.match(token.LBRACKET) {
		for !p.check(token.RBRACKET) && !p.atEnd() {
			typeArgs = append(typeArgs, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.consume(token.RBRACKET, "expected ']' to close builtin type arguments")
	}
	var args []syntax.NodeID
	if p.match(token.LPAREN) {
		args = p.parseExprList(token.RPAREN)
		p.consume(token.RPAREN, "expected ')' after builtin arguments")
	}
	return p.store.NewBuiltinCall(p.intern(tok.Literal), typeArgs, args, pos)
}

func (p *Parser) parseSwitchExpr() syntax.NodeID {
	pos := p.pos()
	p.advance() // switch
	var scrutinee syntax.NodeID
	if !p.check(token.LBRACE) {
		scrutinee = p.parseExpr()
	}
	p.consume(token.LBRACE, "expected '{' to begin switch body")
	var arms []syntax.NodeID
	for !p.check(token.RBRACE) && !p.atEnd() {
		armPos := p.pos()
		var pattern syntax.NodeID
		if p.check(token.KW_ELSE) {
			p.advance()
		} else {
			pattern = p.parseExpr()
		}
		p.consume(token.ARROW, "expected '->' after switch pattern")
		value := p.parseExpr()
		arms = append(arms, p.store.NewSwitchArm(pattern, value, armPos))
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RBRACE, "expected '}' to close switch body")
	return p.store.NewSwitchExpr(scrutinee, arms, pos)
}
