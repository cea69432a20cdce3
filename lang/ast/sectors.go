package ast

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

type (
	// SupervisorSpec is the optional `supervise: strategy, max_restarts: N`
	// clause of a SectorDecl, configuring restart behavior for the sector's
	// children.
	SupervisorSpec struct {
		SupervisePos token.Pos
		Strategy     *Ident // one_for_one, one_for_all, rest_for_one
		MaxRestarts  Expr   // nil if not specified
	}

	// OnHandler is an `on Event.Name(params) -> body` handler clause inside a
	// SectorDecl; Event is a bare or dotted event-type reference and Sig is
	// nil when the handler declares no parameter list.
	OnHandler struct {
		OnPos  token.Pos
		Event  Expr // *Ident or *QualifiedName
		Sig    *FnSignature // nil if no parameter list given
		Arrow  token.Pos
		Body   Expr // *DoExpr for a block body, any other Expr for a single-line body

		// Function is filled in by the resolver.
		Function any
	}

	// SectorDecl is `sector Name:` followed by an indented block of need,
	// const, let, fn and on members (closed by dedent), the unit of
	// isolation and supervision.
	SectorDecl struct {
		SectorPos  token.Pos
		Name       *Ident
		Colon      token.Pos
		Supervisor *SupervisorSpec
		Needs      []*NeedDecl
		Consts     []*ConstDecl
		Lets       []*LetStmt
		Fns        []*FnDecl
		Handlers   []*OnHandler
		End        token.Pos
	}
)

func (n *SupervisorSpec) Format(f fmt.State, verb rune) { format(f, verb, n, "supervise", nil) }
func (n *SupervisorSpec) Span() (start, end token.Pos) {
	end = n.SupervisePos + token.Pos(len("supervise"))
	if n.Strategy != nil {
		_, end = n.Strategy.Span()
	}
	if n.MaxRestarts != nil {
		_, end = n.MaxRestarts.Span()
	}
	return n.SupervisePos, end
}
func (n *SupervisorSpec) Walk(v Visitor) {
	if n.Strategy != nil {
		Walk(v, n.Strategy)
	}
	if n.MaxRestarts != nil {
		Walk(v, n.MaxRestarts)
	}
}

// decl lets a top-level `on` handler (hosted by the synthesized or explicit
// main sector) sit directly in Program.Decls alongside ordinary
// declarations; parseOnHandler is reachable both there and inside a
// SectorDecl's body.
func (n *OnHandler) decl() {}

func (n *OnHandler) Format(f fmt.State, verb rune) {
	nparams := 0
	if n.Sig != nil {
		nparams = len(n.Sig.Params)
	}
	format(f, verb, n, fmt.Sprintf("on %v", n.Event), map[string]int{"params": nparams})
}
func (n *OnHandler) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.OnPos, e
}
func (n *OnHandler) Walk(v Visitor) {
	Walk(v, n.Event)
	if n.Sig != nil {
		for _, p := range n.Sig.Params {
			Walk(v, p)
		}
	}
	Walk(v, n.Body)
}

func (n *SectorDecl) decl() {}
func (n *SectorDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "sector "+n.Name.Name, map[string]int{
		"needs": len(n.Needs), "fns": len(n.Fns), "handlers": len(n.Handlers),
	})
}
func (n *SectorDecl) Span() (start, end token.Pos) { return n.SectorPos, n.End }
func (n *SectorDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Supervisor != nil {
		Walk(v, n.Supervisor)
	}
	for _, need := range n.Needs {
		Walk(v, need)
	}
	for _, c := range n.Consts {
		Walk(v, c)
	}
	for _, l := range n.Lets {
		Walk(v, l)
	}
	for _, fn := range n.Fns {
		Walk(v, fn)
	}
	for _, h := range n.Handlers {
		Walk(v, h)
	}
}
