package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// parseSectorDecl parses `sector Name: [supervise: ...] need* const* let* fn*
// on*`, the unit of isolation and supervision.
func (p *parser) parseSectorDecl() *ast.SectorDecl {
	var decl ast.SectorDecl
	decl.SectorPos = p.expect(token.SECTOR)
	decl.Name = p.parseIdent()
	decl.Colon = p.expect(token.COLON)
	p.expect(token.NL)
	p.expect(token.INDENT)

	if p.tok == token.IDENT && p.val.Raw == "supervise" {
		decl.Supervisor = p.parseSupervisorSpec()
	}

	for !tokenIn(p.tok, token.DEDENT, token.EOF) {
		switch p.tok {
		case token.NEED:
			decl.Needs = append(decl.Needs, p.parseNeedDecl())
		case token.CONST:
			decl.Consts = append(decl.Consts, p.parseConstDecl())
		case token.LET:
			decl.Lets = append(decl.Lets, p.parseLetStmt())
		case token.FN:
			decl.Fns = append(decl.Fns, p.parseFnDecl())
		case token.ON:
			decl.Handlers = append(decl.Handlers, p.parseOnHandler())
		default:
			p.errorExpected(p.val.Pos, "sector item")
			panic(errPanicMode)
		}
	}

	decl.End = p.val.Pos
	if p.tok == token.DEDENT {
		p.advance()
	}
	return &decl
}

// parseSupervisorSpec parses the optional `supervise: strategy, max_restarts:
// N` clause leading a sector body. "supervise" and "max_restarts" are
// contextual keywords, not reserved tokens.
func (p *parser) parseSupervisorSpec() *ast.SupervisorSpec {
	var s ast.SupervisorSpec
	s.SupervisePos = p.val.Pos
	p.expectIdentText("supervise")
	p.expect(token.COLON)
	s.Strategy = p.parseIdent()
	if _, ok := p.accept(token.COMMA); ok {
		p.expectIdentText("max_restarts")
		p.expect(token.COLON)
		s.MaxRestarts = p.parseExpr()
	}
	p.expect(token.NL)
	return &s
}
