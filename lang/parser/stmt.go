package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// parseBlock expects an already-consumed ':' and parses the indented suite
// that follows it: NL INDENT stmt* DEDENT. The grammar has no single-line
// suite form; a header not followed by NL INDENT is an error.
func (p *parser) parseBlock() *ast.Block {
	var block ast.Block
	p.enterBlock(&block)

	p.expect(token.NL)
	p.expect(token.INDENT)

	var list []ast.Stmt
	for !tokenIn(p.tok, token.DEDENT, token.EOF) {
		if stmt := p.parseStmt(); stmt != nil {
			list = append(list, stmt)
		}
	}
	block.Stmts = list
	block.End = p.val.Pos
	if p.tok == token.DEDENT {
		p.advance()
	}

	p.exitBlock(&block)
	return &block
}

var augBinops = []token.Token{token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ}

// parseStmt parses one statement and consumes its terminating NL, except for
// statements ending in a nested indented block, which own their own DEDENT.
func (p *parser) parseStmt() (stmt ast.Stmt) {
	start := p.val.Pos

	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				stmt = &ast.BadStmt{From: start, To: p.syncStmt()}
				return
			}
			panic(err)
		}
	}()

	switch p.tok {
	case token.LET:
		return p.parseLetStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForInStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.EMIT:
		return p.parseEmitStmt()
	case token.STOP:
		return p.parseStopStmt()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) parseLetStmt() *ast.LetStmt {
	var stmt ast.LetStmt
	stmt.LetPos = p.expect(token.LET)
	stmt.Name = p.parseIdent()
	if pos, ok := p.accept(token.COLON); ok {
		stmt.Colon = pos
		stmt.Type = p.parseTypeExpr()
	}
	stmt.Eq = p.expect(token.EQ)
	stmt.Value = p.parseExpr()
	p.expect(token.NL)
	return &stmt
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	var stmt ast.IfStmt
	stmt.IfPos = p.expect(token.IF)
	stmt.Cond = p.parseExpr()
	stmt.Colon = p.expect(token.COLON)
	stmt.Then = p.parseBlock()

	if p.tok == token.ELSE {
		stmt.ElsePos = p.expect(token.ELSE)
		if p.tok == token.IF {
			stmt.ElseIf = p.parseIfStmt()
		} else {
			stmt.Else = p.parseElseBlock()
		}
	}
	return &stmt
}

// parseElseBlock parses the ':' INDENT ... DEDENT suite following a plain
// 'else' keyword (the 'if' case is handled by recursing into parseIfStmt).
func (p *parser) parseElseBlock() *ast.Block {
	p.expect(token.COLON)
	return p.parseBlock()
}

func (p *parser) parseForInStmt() *ast.ForInStmt {
	var stmt ast.ForInStmt
	stmt.ForPos = p.expect(token.FOR)
	stmt.Var = p.parseIdent()
	stmt.InPos = p.expect(token.IN)
	stmt.Iter = p.parseExpr()
	stmt.Colon = p.expect(token.COLON)
	stmt.Body = p.parseBlock()
	return &stmt
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	var stmt ast.ReturnStmt
	stmt.ReturnPos = p.expect(token.RETURN)
	if !tokenIn(p.tok, token.NL, token.EOF) {
		stmt.X = p.parseExpr()
	}
	p.expect(token.NL)
	return &stmt
}

func (p *parser) parseEmitStmt() *ast.EmitStmt {
	var stmt ast.EmitStmt
	stmt.EmitPos = p.expect(token.EMIT)
	stmt.Event = p.parseExpr()
	p.expect(token.NL)
	return &stmt
}

func (p *parser) parseStopStmt() *ast.StopStmt {
	var stmt ast.StopStmt
	stmt.StopPos = p.expect(token.STOP)
	if p.tok == token.LPAREN {
		p.advance()
		p.expect(token.RPAREN)
	}
	p.expect(token.NL)
	return &stmt
}

func (p *parser) parseExprOrAssignStmt() ast.Stmt {
	expr := p.parseExpr()

	if p.tok == token.EQ || p.tok.IsAugBinop() {
		lv := p.exprToLValue(expr)
		var stmt ast.AssignStmt
		stmt.Left = lv
		stmt.OpPos = p.val.Pos
		stmt.Op = p.tok
		p.advance()
		stmt.Right = p.parseExpr()
		p.expect(token.NL)
		return &stmt
	}

	p.expect(token.NL)
	return &ast.ExprStmt{X: expr}
}

// exprToLValue converts a parsed expression into the corresponding LValue,
// reporting an error and returning an LVar placeholder if expr cannot
// appear on the left of an assignment.
func (p *parser) exprToLValue(expr ast.Expr) ast.LValue {
	switch e := ast.Unwrap(expr).(type) {
	case *ast.Ident:
		return &ast.LVar{Name: e}
	case *ast.MemberExpr:
		return &ast.LMember{X: e.X, Dot: e.Dot, Name: e.Name}
	case *ast.IndexExpr:
		return &ast.LIndex{X: e.X, Lbrack: e.Lbrack, Rbrack: e.Rbrack, Index: e.Index}
	default:
		start, _ := expr.Span()
		p.errorExpected(start, "assignable expression")
		return &ast.LVar{Name: &ast.Ident{NamePos: start, Name: ""}}
	}
}

// syncStmt advances past tokens until it reaches a safe resumption point: a
// token at the current nesting depth that starts a new statement, or the NL
// that ends the broken one. It tracks INDENT/DEDENT and bracket depth (the
// scanner already suppresses NL inside brackets) so it never stops inside a
// nested block.
func (p *parser) syncStmt() token.Pos {
	depth := 0
	for p.tok != token.EOF {
		switch p.tok {
		case token.INDENT:
			depth++
		case token.DEDENT:
			if depth == 0 {
				return p.val.Pos
			}
			depth--
		case token.NL:
			if depth == 0 {
				pos := p.val.Pos
				p.advance()
				return pos
			}
		}
		p.advance()
	}
	return p.val.Pos
}
