package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// hookPoints are the contextual keywords legal after `hook` in a mixin body;
// they are plain identifiers, not reserved tokens.
var hookPoints = map[string]bool{"head": true, "invoke": true, "tail": true}

func (p *parser) parseMixinDecl() *ast.MixinDecl {
	var decl ast.MixinDecl
	decl.MixinPos = p.expect(token.MIXIN)
	decl.Name = p.parseIdent()
	if p.tok == token.IDENT {
		decl.Version = p.parseIdent()
	}
	decl.Target = p.parseMixinTarget()
	decl.Colon = p.expect(token.COLON)
	decl.Items = p.parseMixinItems()
	decl.End = p.val.Pos
	return &decl
}

func (p *parser) parseMixinTarget() ast.MixinTarget {
	intoPos := p.expect(token.INTO)
	if p.tok == token.SECTOR {
		sectorPos := p.expect(token.SECTOR)
		name := p.parseIdent()
		return &ast.MixinTargetSector{IntoPos: intoPos, SectorPos: sectorPos, Name: name}
	}
	name := p.parseIdent()
	return &ast.MixinTargetType{IntoPos: intoPos, Name: name}
}

func (p *parser) parseMixinItems() []*ast.MixinItem {
	p.expect(token.NL)
	p.expect(token.INDENT)

	var items []*ast.MixinItem
	for !tokenIn(p.tok, token.DEDENT, token.EOF) {
		items = append(items, p.parseMixinItem())
	}
	if p.tok == token.DEDENT {
		p.advance()
	}
	return items
}

// parseMixinItem parses one item of a mixin body. A malformed item panics
// with errPanicMode, recovered by parseDecl at the enclosing mixin's level.
func (p *parser) parseMixinItem() *ast.MixinItem {
	start := p.val.Pos

	switch {
	case p.tok == token.FN:
		return &ast.MixinItem{Fn: p.parseMixinFnAdd()}
	case p.tok == token.AROUND:
		return &ast.MixinItem{Around: p.parseMixinAround()}
	case p.tok == token.IDENT && p.val.Raw == "hook":
		return &ast.MixinItem{Hook: p.parseMixinHookAdd()}
	case p.tok == token.IDENT:
		return &ast.MixinItem{Field: p.parseMixinFieldAdd()}
	default:
		p.errorExpected(start, "mixin item")
		panic(errPanicMode)
	}
}

func (p *parser) parseMixinFieldAdd() *ast.MixinFieldAdd {
	var fa ast.MixinFieldAdd
	fa.Name = p.parseIdent()
	fa.Colon = p.expect(token.COLON)
	fa.Type = p.parseTypeExpr()
	p.expect(token.NL)
	return &fa
}

func (p *parser) parseMixinFnAdd() *ast.MixinFnAdd {
	var fn ast.MixinFnAdd
	fn.FnPos = p.expect(token.FN)
	fn.Name = p.parseIdent()
	fn.Sig = p.parseFnSignature()
	fn.Eq = p.expect(token.EQ)
	fn.Body = p.parseBody()
	p.terminateBody(fn.Body)
	return &fn
}

func (p *parser) parseMixinAround() *ast.MixinAround {
	var a ast.MixinAround
	a.AroundPos = p.expect(token.AROUND)
	a.FnPos = p.expect(token.FN)
	a.Name = p.parseIdent()
	a.Sig = p.parseFnSignature()
	a.Colon = p.expect(token.COLON)
	a.Body = p.parseBlock()
	return &a
}

// parseMixinHookAdd parses `hook <head|invoke|tail> fn name(...) [with(opts)]
// = expr-or-do`. "hook", "with", and the hook points are contextual keywords
// matched on identifier text, since none of them are reserved tokens.
func (p *parser) parseMixinHookAdd() *ast.MixinHookAdd {
	var h ast.MixinHookAdd
	h.HookPos = p.val.Pos
	p.expectIdentText("hook")

	pointPos := p.val.Pos
	if p.tok != token.IDENT || !hookPoints[p.val.Raw] {
		p.errorExpected(pointPos, "one of 'head', 'invoke', 'tail'")
		panic(errPanicMode)
	}
	h.Point = p.parseIdent()

	h.FnPos = p.expect(token.FN)
	h.Name = p.parseIdent()
	h.Sig = p.parseFnSignature()

	if p.tok == token.IDENT && p.val.Raw == "with" {
		h.WithPos = p.val.Pos
		p.advance()
		h.Lparen = p.expect(token.LPAREN)
		for !tokenIn(p.tok, token.RPAREN, token.EOF) {
			h.Options = append(h.Options, p.parseHookOption())
			if pos, ok := p.accept(token.COMMA); ok {
				h.Commas = append(h.Commas, pos)
			} else {
				break
			}
		}
		h.Rparen = p.expect(token.RPAREN)
	}

	h.Eq = p.expect(token.EQ)
	h.Body = p.parseBody()
	p.terminateBody(h.Body)
	return &h
}

func (p *parser) parseHookOption() *ast.HookOption {
	var opt ast.HookOption
	opt.Name = p.parseIdent()
	opt.Eq = p.expect(token.EQ)
	opt.Value = p.parseExpr()
	return &opt
}

// parseUseOrUseMixin dispatches `use "path" [as Name]` versus `use mixin
// Name`, which share the `use` keyword lead-in.
func (p *parser) parseUseOrUseMixin() ast.Decl {
	usePos := p.expect(token.USE)

	if p.tok == token.MIXIN {
		mixinPos := p.expect(token.MIXIN)
		name := p.parseQualifiedName()
		p.expect(token.NL)
		return &ast.UseMixinStmt{UsePos: usePos, MixinPos: mixinPos, Name: name}
	}

	path := p.parseUsePath()
	var as *ast.Ident
	if p.tok == token.AS {
		p.advance()
		as = p.parseIdent()
	}
	p.expect(token.NL)
	return &ast.UseStmt{UsePos: usePos, Path: path, As: as}
}

func (p *parser) parseUsePath() *ast.LiteralExpr {
	if p.tok != token.STRING {
		p.errorExpected(p.val.Pos, "string literal")
		panic(errPanicMode)
	}
	return p.parseLiteralExpr()
}

// parseResolveMixinStmt parses `resolve mixin-conflict: prefer A vN over B
// vM ...`. The surface spelling `mixin-conflict` scans as three tokens
// (`mixin`, `-`, `conflict`), re-assembled here.
func (p *parser) parseResolveMixinStmt() *ast.ResolveMixinStmt {
	var decl ast.ResolveMixinStmt
	decl.ResolvePos = p.expect(token.RESOLVE)
	p.expect(token.MIXIN)
	p.expect(token.MINUS)
	p.expectIdentText("conflict")
	decl.Colon = p.expect(token.COLON)
	decl.Rules = p.parsePreferRules()
	decl.End = p.val.Pos
	return &decl
}

func (p *parser) parsePreferRules() []*ast.PreferRule {
	p.expect(token.NL)
	p.expect(token.INDENT)

	var rules []*ast.PreferRule
	for p.tok == token.PREFER {
		rules = append(rules, p.parsePreferRule())
	}
	if p.tok == token.DEDENT {
		p.advance()
	}
	return rules
}

func (p *parser) parsePreferRule() *ast.PreferRule {
	var r ast.PreferRule
	r.PreferPos = p.expect(token.PREFER)
	r.Winner = p.parseIdent()
	if p.tok == token.IDENT {
		r.WinnerVersion = p.parseIdent()
	}
	r.OverPos = p.expect(token.OVER)
	r.Loser = p.parseIdent()
	if p.tok == token.IDENT {
		r.LoserVersion = p.parseIdent()
	}
	p.expect(token.NL)
	return &r
}

func (p *parser) parsePatternDecl() *ast.PatternDecl {
	var decl ast.PatternDecl
	decl.PatternPos = p.expect(token.PATTERN)
	decl.Name = p.parseIdent()
	decl.Eq = p.expect(token.EQ)
	decl.Value = p.parseExpr()
	p.expect(token.NL)
	return &decl
}

// expectIdentText consumes the current token if it is an IDENT whose raw
// text matches text, used for contextual keywords that aren't part of the
// reserved token set.
func (p *parser) expectIdentText(text string) token.Pos {
	pos := p.val.Pos
	if p.tok != token.IDENT || p.val.Raw != text {
		p.errorExpected(pos, "'"+text+"'")
		panic(errPanicMode)
	}
	p.advance()
	return pos
}
