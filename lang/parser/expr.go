package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// parseExpr parses a full expression, including the loosest-binding pipe
// chain `x |> f(...) |> g(...)`.
func (p *parser) parseExpr() ast.Expr {
	return p.parsePipeFrom(p.parseOrExpr())
}

// parseExprContinuedFrom resumes the full operator-precedence chain (mul,
// add, compare, and, or, pipe) from an already-parsed operand x. Used when
// parseArg has to parse one identifier ahead to disambiguate a keyword
// argument from a positional expression starting with that identifier.
func (p *parser) parseExprContinuedFrom(x ast.Expr) ast.Expr {
	x = p.mulFrom(x)
	x = p.addFrom(x)
	x = p.compareFrom(x)
	x = p.andFrom(x)
	x = p.orFrom(x)
	return p.parsePipeFrom(x)
}

func (p *parser) parsePipeFrom(x ast.Expr) ast.Expr {
	for p.tok == token.PIPEGT {
		pipePos := p.expect(token.PIPEGT)
		stage := p.parseOrExpr()
		x = &ast.PipeExpr{X: x, PipePos: pipePos, Stage: stage}
	}
	return x
}

func (p *parser) parseOrExpr() ast.Expr { return p.orFrom(p.parseAndExpr()) }

func (p *parser) orFrom(x ast.Expr) ast.Expr {
	for p.tok == token.OR {
		opPos := p.expect(token.OR)
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: token.OR, Y: p.parseAndExpr()}
	}
	return x
}

func (p *parser) parseAndExpr() ast.Expr { return p.andFrom(p.parseCompareExpr()) }

func (p *parser) andFrom(x ast.Expr) ast.Expr {
	for p.tok == token.AND {
		opPos := p.expect(token.AND)
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: token.AND, Y: p.parseCompareExpr()}
	}
	return x
}

var compareOps = []token.Token{token.EQEQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE}

func (p *parser) parseCompareExpr() ast.Expr { return p.compareFrom(p.parseAddExpr()) }

func (p *parser) compareFrom(x ast.Expr) ast.Expr {
	for tokenIn(p.tok, compareOps...) {
		op := p.tok
		opPos := p.val.Pos
		p.advance()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseAddExpr()}
	}
	return x
}

func (p *parser) parseAddExpr() ast.Expr { return p.addFrom(p.parseMulExpr()) }

func (p *parser) addFrom(x ast.Expr) ast.Expr {
	for tokenIn(p.tok, token.PLUS, token.MINUS) {
		op := p.tok
		opPos := p.val.Pos
		p.advance()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseMulExpr()}
	}
	return x
}

func (p *parser) parseMulExpr() ast.Expr { return p.mulFrom(p.parseUnaryExpr()) }

func (p *parser) mulFrom(x ast.Expr) ast.Expr {
	for tokenIn(p.tok, token.STAR, token.SLASH) {
		op := p.tok
		opPos := p.val.Pos
		p.advance()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: p.parseUnaryExpr()}
	}
	return x
}

func (p *parser) parseUnaryExpr() ast.Expr {
	if p.tok.IsUnop() {
		op := p.tok
		opPos := p.val.Pos
		p.advance()
		return &ast.UnaryExpr{OpPos: opPos, Op: op, X: p.parseUnaryExpr()}
	}
	return p.parsePostfixExpr()
}

func (p *parser) parsePostfixExpr() ast.Expr {
	return p.parsePostfixFrom(p.parsePrimaryExpr())
}

// parsePostfixFrom continues a member/index/call/try-suffix chain from an
// already-parsed primary expression x.
func (p *parser) parsePostfixFrom(x ast.Expr) ast.Expr {
loop:
	for {
		switch p.tok {
		case token.DOT:
			dot := p.expect(token.DOT)
			name := p.parseIdent()
			x = &ast.MemberExpr{X: x, Dot: dot, Name: name}
		case token.LBRACK:
			lbrack := p.expect(token.LBRACK)
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			x = &ast.IndexExpr{X: x, Lbrack: lbrack, Rbrack: rbrack, Index: idx}
		case token.LPAREN:
			lparen := p.expect(token.LPAREN)
			args, commas := p.parseArgs()
			rparen := p.expect(token.RPAREN)
			x = &ast.CallExpr{Fun: x, Lparen: lparen, Rparen: rparen, Args: args, Commas: commas}
		case token.QMARK:
			qpos := p.expect(token.QMARK)
			x = &ast.TrySuffixExpr{X: x, QmarkPos: qpos}
		default:
			break loop
		}
	}
	return x
}

// parseArgs parses a comma-separated call argument list: positional, keyword
// (`name = value`), `*spread`, or `**spread`.
func (p *parser) parseArgs() (args []*ast.Arg, commas []token.Pos) {
	for !tokenIn(p.tok, token.RPAREN, token.EOF) {
		args = append(args, p.parseArg())
		if pos, ok := p.accept(token.COMMA); ok {
			commas = append(commas, pos)
		} else {
			break
		}
	}
	return args, commas
}

func (p *parser) parseArg() *ast.Arg {
	var arg ast.Arg
	if tokenIn(p.tok, token.STAR, token.STARSTAR) {
		arg.Double = p.tok == token.STARSTAR
		arg.Spread = p.val.Pos
		p.advance()
		arg.Value = p.parseExpr()
		return &arg
	}

	if p.tok == token.IDENT {
		name := p.parseIdent()
		if pos, ok := p.accept(token.EQ); ok {
			arg.Name = name
			arg.Eq = pos
			arg.Value = p.parseExpr()
			return &arg
		}
		arg.Value = p.parseExprContinuedFrom(p.parsePostfixFrom(name))
		return &arg
	}

	arg.Value = p.parseExpr()
	return &arg
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	switch {
	case p.tok.IsAtom() && p.tok != token.IDENT:
		return p.parseLiteralExpr()
	case p.tok == token.IDENT:
		return p.parseIdentOrQualified()
	case p.tok == token.LBRACK:
		return p.parseArrayExpr()
	case p.tok == token.LBRACE:
		return p.parseRecordExpr()
	case p.tok == token.LPAREN:
		return p.parseParenOrTupleExpr()
	case p.tok == token.MATCH:
		return p.parseMatchExpr()
	case p.tok == token.AWAIT:
		return p.parseAwaitExpr()
	case p.tok == token.CALL:
		return p.parseCallSectorExpr()
	case p.tok == token.RPC:
		return p.parseRpcExpr()
	case p.tok == token.PROCEED:
		return p.parseProceedExpr()
	case tokenIn(p.tok, token.OK, token.ERR, token.SOME, token.NONE):
		return p.parseConstructorExpr()
	default:
		pos := p.val.Pos
		p.errorExpected(pos, "expression")
		panic(errPanicMode)
	}
}

func (p *parser) parseLiteralExpr() *ast.LiteralExpr {
	lit := &ast.LiteralExpr{TokPos: p.val.Pos, Tok: p.tok, Value: p.val}
	p.advance()
	return lit
}

func (p *parser) parseIdent() *ast.Ident {
	name := p.val.Raw
	pos := p.expect(token.IDENT)
	return &ast.Ident{NamePos: pos, Name: name}
}

// parseVariantName parses a sum-type variant's name. Unlike parseIdent, it
// also accepts the Ok/Err/Some/None constructor keywords, so stdlib sum
// types can declare the variants the expression grammar treats specially
// (parseConstructorExpr) without those names ceasing to be ordinary symbols
// everywhere else: `type Result = Ok(Any) | Err(Any)`.
func (p *parser) parseVariantName() *ast.Ident {
	if tokenIn(p.tok, token.OK, token.ERR, token.SOME, token.NONE) {
		pos := p.val.Pos
		name := p.tok.String()
		p.advance()
		return &ast.Ident{NamePos: pos, Name: name}
	}
	return p.parseIdent()
}

// parseIdentOrQualified parses a bare identifier, or a dotted chain of bare
// identifiers as a QualifiedName (used for namespaced stdlib references and
// mixin/sector/type names); any further '.', '[' or '(' suffix is left for
// the postfix loop to apply uniformly over the result.
func (p *parser) parseIdentOrQualified() ast.Expr {
	first := p.parseIdent()
	if p.tok != token.DOT {
		return first
	}

	parts := []*ast.Ident{first}
	var dots []token.Pos
	for p.tok == token.DOT {
		dots = append(dots, p.val.Pos)
		p.advance()
		parts = append(parts, p.parseIdent())
	}
	return &ast.QualifiedName{Parts: parts, DotsPos: dots}
}

// parseQualifiedName parses a dotted identifier chain, always returning a
// QualifiedName even for a single bare identifier, for positions that are
// never a general expression (mixin/use-mixin names).
func (p *parser) parseQualifiedName() *ast.QualifiedName {
	first := p.parseIdent()
	parts := []*ast.Ident{first}
	var dots []token.Pos
	for p.tok == token.DOT {
		dots = append(dots, p.val.Pos)
		p.advance()
		parts = append(parts, p.parseIdent())
	}
	return &ast.QualifiedName{Parts: parts, DotsPos: dots}
}

func (p *parser) parseArrayExpr() *ast.ArrayExpr {
	var expr ast.ArrayExpr
	expr.Lbrack = p.expect(token.LBRACK)
	for !tokenIn(p.tok, token.RBRACK, token.EOF) {
		expr.Elems = append(expr.Elems, p.parseExpr())
		if pos, ok := p.accept(token.COMMA); ok {
			expr.Commas = append(expr.Commas, pos)
		} else {
			break
		}
	}
	expr.Rbrack = p.expect(token.RBRACK)
	return &expr
}

func (p *parser) parseRecordExpr() *ast.RecordExpr {
	var expr ast.RecordExpr
	expr.Lbrace = p.expect(token.LBRACE)
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		name := p.parseIdent()
		colon := p.expect(token.COLON)
		val := p.parseExpr()
		expr.Fields = append(expr.Fields, &ast.RecordField{Name: name, Colon: colon, Value: val})
		if pos, ok := p.accept(token.COMMA); ok {
			expr.Commas = append(expr.Commas, pos)
		} else {
			break
		}
	}
	expr.Rbrace = p.expect(token.RBRACE)
	return &expr
}

func (p *parser) parseParenOrTupleExpr() ast.Expr {
	lparen := p.expect(token.LPAREN)
	if p.tok == token.RPAREN {
		rparen := p.expect(token.RPAREN)
		return &ast.TupleExpr{Lparen: lparen, Rparen: rparen}
	}

	first := p.parseExpr()
	if p.tok == token.RPAREN {
		rparen := p.expect(token.RPAREN)
		return &ast.ParenExpr{Lparen: lparen, Rparen: rparen, X: first}
	}

	elems := []ast.Expr{first}
	var commas []token.Pos
	for p.tok == token.COMMA {
		commas = append(commas, p.expect(token.COMMA))
		if p.tok == token.RPAREN {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	rparen := p.expect(token.RPAREN)
	return &ast.TupleExpr{Lparen: lparen, Rparen: rparen, Elems: elems, Commas: commas}
}

func (p *parser) parseMatchExpr() *ast.MatchExpr {
	var expr ast.MatchExpr
	expr.MatchPos = p.expect(token.MATCH)
	expr.X = p.parseExpr()
	expr.Colon = p.expect(token.COLON)
	expr.Arms = p.parseMatchArms()
	return &expr
}

func (p *parser) parseMatchArms() []*ast.MatchArm {
	p.expect(token.NL)
	p.expect(token.INDENT)

	var arms []*ast.MatchArm
	for tokenIn(p.tok, token.WHEN, token.ELSE) {
		var arm ast.MatchArm
		if p.tok == token.ELSE {
			arm.Else = true
			arm.WhenPos = p.expect(token.ELSE)
		} else {
			arm.WhenPos = p.expect(token.WHEN)
			arm.Pattern = p.parseExpr()
			if p.tok == token.IF {
				p.advance()
				arm.Guard = p.parseExpr()
			}
		}
		arm.Arrow = p.expect(token.ARROW)
		arm.Body = p.parseBody()
		p.terminateBody(arm.Body)
		arms = append(arms, &arm)
	}

	if p.tok == token.DEDENT {
		p.advance()
	}
	return arms
}

func (p *parser) parseAwaitExpr() *ast.AwaitExpr {
	var expr ast.AwaitExpr
	expr.AwaitPos = p.expect(token.AWAIT)
	expr.X = p.parsePostfixExpr()
	return &expr
}

func (p *parser) parseCallSectorExpr() *ast.CallSectorExpr {
	var expr ast.CallSectorExpr
	expr.CallPos = p.expect(token.CALL)
	expr.Target = p.parseIdentOrQualified()
	expr.Lparen = p.expect(token.LPAREN)
	expr.Args, expr.Commas = p.parseArgs()
	expr.Rparen = p.expect(token.RPAREN)
	return &expr
}

func (p *parser) parseRpcExpr() *ast.RpcExpr {
	var expr ast.RpcExpr
	expr.RpcPos = p.expect(token.RPC)
	expr.Target = p.parseIdentOrQualified()
	expr.Lparen = p.expect(token.LPAREN)
	expr.Args, expr.Commas = p.parseArgs()
	expr.Rparen = p.expect(token.RPAREN)
	return &expr
}

func (p *parser) parseProceedExpr() *ast.ProceedExpr {
	var expr ast.ProceedExpr
	expr.ProceedPos = p.expect(token.PROCEED)
	if p.tok == token.LPAREN {
		expr.Lparen = p.expect(token.LPAREN)
		expr.Args, expr.Commas = p.parseArgs()
		expr.Rparen = p.expect(token.RPAREN)
	}
	return &expr
}

// parseConstructorExpr parses `Ok(x)`, `Err(x)`, `Some(x)`, or bare `None`,
// represented as a CallExpr over the keyword-constructor identifier so the
// checker can treat them uniformly with ordinary calls.
func (p *parser) parseConstructorExpr() ast.Expr {
	kw := p.tok
	pos := p.val.Pos
	p.advance()
	name := &ast.Ident{NamePos: pos, Name: kw.String()}

	if p.tok != token.LPAREN {
		return name
	}
	lparen := p.expect(token.LPAREN)
	args, commas := p.parseArgs()
	rparen := p.expect(token.RPAREN)
	return &ast.CallExpr{Fun: name, Lparen: lparen, Rparen: rparen, Args: args, Commas: commas}
}
