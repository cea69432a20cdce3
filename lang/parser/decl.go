package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// parseProgram parses a full module file: a sequence of top-level
// declarations, an optional `run()` entry-point marker, followed by EOF.
func (p *parser) parseProgram() *ast.Program {
	var prog ast.Program
	p.skipNL()

	var decls []ast.Decl
	for p.tok != token.EOF {
		if p.tok == token.RUN {
			prog.Run = p.parseRunMarker()
			p.skipNL()
			continue
		}
		if d := p.parseDecl(); d != nil {
			decls = append(decls, d)
		}
		p.skipNL()
	}
	prog.Decls = decls
	prog.EOF = p.expect(token.EOF)

	if p.parseComments {
		p.processComments(&prog)
	}
	return &prog
}

// parseRunMarker parses the top-level `run()` call that marks a module as
// the program's entry point; it is not a declaration item, only a position
// marker on Program.
func (p *parser) parseRunMarker() token.Pos {
	pos := p.expect(token.RUN)
	p.expect(token.LPAREN)
	p.expect(token.RPAREN)
	p.expect(token.NL)
	return pos
}

func (p *parser) parseDecl() (decl ast.Decl) {
	start := p.val.Pos

	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				decl = &ast.BadDecl{From: start, To: p.syncDecl()}
				return
			}
			panic(err)
		}
	}()

	switch p.tok {
	case token.TYPE:
		return p.parseTypeDecl()
	case token.CONST:
		return p.parseConstDecl()
	case token.LET:
		return p.parseLetStmt()
	case token.NEED:
		return p.parseNeedDecl()
	case token.FN:
		return p.parseFnDecl()
	case token.SECTOR:
		return p.parseSectorDecl()
	case token.MIXIN:
		return p.parseMixinDecl()
	case token.USE:
		return p.parseUseOrUseMixin()
	case token.RESOLVE:
		return p.parseResolveMixinStmt()
	case token.PATTERN:
		return p.parsePatternDecl()
	case token.ON:
		return p.parseOnHandler()
	default:
		p.errorExpected(start, "declaration")
		panic(errPanicMode)
	}
}

// syncDecl advances past tokens until it reaches a top-level declaration
// keyword or EOF, tracking INDENT/DEDENT so it never stops inside a nested
// block.
func (p *parser) syncDecl() token.Pos {
	depth := 0
	for p.tok != token.EOF {
		if depth == 0 && (isDeclStart(p.tok) || p.tok == token.RUN) {
			return p.val.Pos
		}
		switch p.tok {
		case token.INDENT:
			depth++
		case token.DEDENT:
			if depth > 0 {
				depth--
			}
		}
		p.advance()
	}
	return p.val.Pos
}

func isDeclStart(tok token.Token) bool {
	switch tok {
	case token.TYPE, token.CONST, token.LET, token.NEED, token.FN, token.SECTOR,
		token.MIXIN, token.USE, token.RESOLVE, token.PATTERN, token.ON:
		return true
	default:
		return false
	}
}

func (p *parser) parseTypeDecl() *ast.TypeDecl {
	var decl ast.TypeDecl
	decl.TypePos = p.expect(token.TYPE)
	decl.Name = p.parseIdent()
	decl.Eq = p.expect(token.EQ)
	decl.RHS = p.parseTypeRHS()
	p.expect(token.NL)
	return &decl
}

// parseTypeRHS parses the right-hand side of a type declaration: a record
// literal type, a bar-separated sum of variants, or a plain type alias. Since
// a sum type's first variant and a plain type name both start with a bare
// identifier, the two are distinguished without backtracking: a '(' or '|'
// immediately following the identifier commits to a sum type; otherwise
// (optionally followed by '[' generic arguments) it is a plain alias.
func (p *parser) parseTypeRHS() *ast.TypeRHS {
	if p.tok == token.LBRACE {
		return &ast.TypeRHS{Record: p.parseRecordType()}
	}

	if p.tok != token.IDENT && !tokenIn(p.tok, token.OK, token.ERR, token.SOME, token.NONE) {
		return &ast.TypeRHS{Alias: &ast.TypeAlias{Type: p.parseTypeExpr()}}
	}

	name := p.parseVariantName()
	if p.tok != token.LPAREN && p.tok != token.BAR {
		tn := &ast.TypeName{Name: name}
		if p.tok == token.LBRACK {
			tn.Lbrack = p.expect(token.LBRACK)
			for !tokenIn(p.tok, token.RBRACK, token.EOF) {
				tn.Args = append(tn.Args, p.parseTypeExpr())
				if pos, ok := p.accept(token.COMMA); ok {
					tn.Commas = append(tn.Commas, pos)
				} else {
					break
				}
			}
			tn.Rbrack = p.expect(token.RBRACK)
		}
		return &ast.TypeRHS{Alias: &ast.TypeAlias{Type: tn}}
	}

	var st ast.SumType
	st.Variants = append(st.Variants, p.parseVariantDeclFrom(name))
	for p.tok == token.BAR {
		st.Bars = append(st.Bars, p.expect(token.BAR))
		st.Variants = append(st.Variants, p.parseVariantDecl())
	}
	return &ast.TypeRHS{Sum: &st}
}

func (p *parser) parseVariantDecl() *ast.VariantDecl {
	return p.parseVariantDeclFrom(p.parseVariantName())
}

func (p *parser) parseVariantDeclFrom(name *ast.Ident) *ast.VariantDecl {
	v := &ast.VariantDecl{Name: name}
	if p.tok == token.LPAREN {
		v.Lparen = p.expect(token.LPAREN)
		for !tokenIn(p.tok, token.RPAREN, token.EOF) {
			v.Fields = append(v.Fields, p.parseTypeExpr())
			if pos, ok := p.accept(token.COMMA); ok {
				v.Commas = append(v.Commas, pos)
			} else {
				break
			}
		}
		v.Rparen = p.expect(token.RPAREN)
	}
	return v
}

func (p *parser) parseRecordType() *ast.RecordType {
	var rt ast.RecordType
	rt.Lbrace = p.expect(token.LBRACE)
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		name := p.parseIdent()
		colon := p.expect(token.COLON)
		typ := p.parseTypeExpr()
		rt.Fields = append(rt.Fields, &ast.FieldDecl{Name: name, Colon: colon, Type: typ})
		if pos, ok := p.accept(token.COMMA); ok {
			rt.Commas = append(rt.Commas, pos)
		} else {
			break
		}
	}
	rt.Rbrace = p.expect(token.RBRACE)
	return &rt
}

// parseTypeExpr parses a type reference: a simple or generic type name, or a
// parenthesized type (used to disambiguate e.g. `(A | B)` used as a type
// argument from a bare sum-type alternative list).
func (p *parser) parseTypeExpr() ast.TypeExpr {
	if p.tok == token.LPAREN {
		lparen := p.expect(token.LPAREN)
		x := p.parseTypeExpr()
		rparen := p.expect(token.RPAREN)
		return &ast.TypeParenExpr{Lparen: lparen, Rparen: rparen, X: x}
	}

	var tn ast.TypeName
	tn.Name = p.parseIdent()
	if p.tok == token.LBRACK {
		tn.Lbrack = p.expect(token.LBRACK)
		for !tokenIn(p.tok, token.RBRACK, token.EOF) {
			tn.Args = append(tn.Args, p.parseTypeExpr())
			if pos, ok := p.accept(token.COMMA); ok {
				tn.Commas = append(tn.Commas, pos)
			} else {
				break
			}
		}
		tn.Rbrack = p.expect(token.RBRACK)
	}
	return &tn
}

func (p *parser) parseConstDecl() *ast.ConstDecl {
	var decl ast.ConstDecl
	decl.ConstPos = p.expect(token.CONST)
	decl.Name = p.parseIdent()
	if pos, ok := p.accept(token.COLON); ok {
		decl.Colon = pos
		decl.Type = p.parseTypeExpr()
	}
	decl.Eq = p.expect(token.EQ)
	decl.Value = p.parseExpr()
	p.expect(token.NL)
	return &decl
}

func (p *parser) parseNeedDecl() *ast.NeedDecl {
	var decl ast.NeedDecl
	decl.NeedPos = p.expect(token.NEED)
	decl.Name = p.parseIdent()
	decl.Colon = p.expect(token.COLON)
	decl.Lbrace = p.expect(token.LBRACE)
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		name := p.parseIdent()
		colon := p.expect(token.COLON)
		typ := p.parseTypeExpr()
		decl.Attrs = append(decl.Attrs, &ast.NeedAttr{Name: name, Colon: colon, Type: typ})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	decl.Rbrace = p.expect(token.RBRACE)
	p.expect(token.NL)
	return &decl
}

func (p *parser) parseFnSignature() *ast.FnSignature {
	var sig ast.FnSignature
	sig.Lparen = p.expect(token.LPAREN)
	for !tokenIn(p.tok, token.RPAREN, token.EOF) {
		sig.Params = append(sig.Params, p.parseParamDecl())
		if pos, ok := p.accept(token.COMMA); ok {
			sig.Commas = append(sig.Commas, pos)
		} else {
			break
		}
	}
	sig.Rparen = p.expect(token.RPAREN)
	if pos, ok := p.accept(token.ARROW); ok {
		sig.Arrow = pos
		sig.Return = p.parseTypeExpr()
	}
	return &sig
}

func (p *parser) parseParamDecl() *ast.ParamDecl {
	var param ast.ParamDecl
	param.Name = p.parseIdent()
	if pos, ok := p.accept(token.COLON); ok {
		param.Colon = pos
		param.Type = p.parseTypeExpr()
	}
	if pos, ok := p.accept(token.EQ); ok {
		param.Eq = pos
		param.Default = p.parseExpr()
	}
	return &param
}

// parseBody parses a function/handler/match-arm/mixin-item body: either a
// `do:` block or a single-line expression.
func (p *parser) parseBody() ast.Expr {
	if p.tok == token.DO {
		return p.parseDoExpr()
	}
	return p.parseExpr()
}

func (p *parser) parseDoExpr() *ast.DoExpr {
	var expr ast.DoExpr
	expr.DoPos = p.expect(token.DO)
	expr.Colon = p.expect(token.COLON)
	expr.Body = p.parseBlock()
	return &expr
}

// terminateBody consumes the trailing NL after a single-line body; a `do:`
// block body owns its own trailing DEDENT and needs no extra consumption.
func (p *parser) terminateBody(body ast.Expr) {
	if _, ok := body.(*ast.DoExpr); !ok {
		p.expect(token.NL)
	}
}

func (p *parser) parseFnDecl() *ast.FnDecl {
	var decl ast.FnDecl
	decl.FnPos = p.expect(token.FN)
	decl.Name = p.parseIdent()
	decl.Sig = p.parseFnSignature()
	decl.Eq = p.expect(token.EQ)
	decl.Body = p.parseBody()
	p.terminateBody(decl.Body)
	return &decl
}

func (p *parser) parseOnHandler() *ast.OnHandler {
	var decl ast.OnHandler
	decl.OnPos = p.expect(token.ON)
	decl.Event = p.parseIdentOrQualified()
	if p.tok == token.LPAREN {
		// Only the parameter list: the `->` that follows introduces the
		// handler body, not a return type.
		sig := &ast.FnSignature{Lparen: p.expect(token.LPAREN)}
		for !tokenIn(p.tok, token.RPAREN, token.EOF) {
			sig.Params = append(sig.Params, p.parseParamDecl())
			if pos, ok := p.accept(token.COMMA); ok {
				sig.Commas = append(sig.Commas, pos)
			} else {
				break
			}
		}
		sig.Rparen = p.expect(token.RPAREN)
		decl.Sig = sig
	}
	decl.Arrow = p.expect(token.ARROW)
	decl.Body = p.parseBody()
	p.terminateBody(decl.Body)
	return &decl
}
