// Package hir defines the high-level intermediate representation that
// lowering produces from a resolved AST: declarations and expressions are
// still shaped close to source, but every name is a symbol.Id instead of an
// *ast.Ident, pipes and try-suffixes are desugared into explicit calls and
// match expressions, and match arms used as statements have been hoisted
// into an explicit MatchStmt over a synthesized result binding.
//
// Grounded on original_source/flavent/hir.py; node types mirror its
// dataclasses, trading Python's duck-typed Any fields for the tagged-struct
// plus Visitor shape lang/ast already uses.
package hir

import (
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// Node is any HIR node. Unlike lang/ast, HIR nodes are never re-printed to
// the user (diagnostics from lowering and checking point back at the AST
// span they were produced from), so Node only needs a Span, not the
// fmt.Formatter machinery lang/ast.Node carries.
type Node interface {
	Span() token.Span
	Walk(v Visitor)
}

// Expr is a HIR expression.
type Expr interface {
	Node
	expr()
}

// Stmt is a HIR statement.
type Stmt interface {
	Node
	stmt()
}

// TypeRef is a resolved type reference: either a reference to a declared
// type's symbol (TypeApp, for named/generic types) or a type variable
// introduced by the checker's unifier (TypeVar). The checker, not lowering,
// fills in TypeVar identities; lowering only ever produces TypeApp nodes for
// syntactically-written type annotations.
type TypeRef interface {
	Node
	typeRef()
}

// TypeVar is a unification metavariable, identified by the checker.
type TypeVar struct {
	ID       int
	TypeSpan token.Span
}

func (t *TypeVar) typeRef()                    {}
func (t *TypeVar) Span() token.Span { return t.TypeSpan }
func (t *TypeVar) Walk(_ Visitor)               {}

// TypeApp is a named type applied to zero or more type argument refs (e.g.
// `Int`, `List[Int]`, `Result[T, E]`).
type TypeApp struct {
	Base     symbol.Id
	Args     []TypeRef
	TypeSpan token.Span
}

func (t *TypeApp) typeRef()                    {}
func (t *TypeApp) Span() token.Span { return t.TypeSpan }
func (t *TypeApp) Walk(v Visitor) {
	for _, a := range t.Args {
		Walk(v, a)
	}
}

// Program is the root of a lowered module: every declaration bucketed by
// kind, plus whether the module carries a top-level `run()` entry point.
type Program struct {
	Types       []*TypeDecl
	Consts      []*ValueDecl
	Globals     []*ValueDecl
	Needs       []*ValueDecl
	Fns         []*FnDecl
	Sectors     []*SectorDecl
	Run         bool
	ProgramSpan token.Span
}

func (p *Program) Span() token.Span { return p.ProgramSpan }
func (p *Program) Walk(v Visitor) {
	for _, t := range p.Types {
		Walk(v, t)
	}
	for _, c := range p.Consts {
		Walk(v, c)
	}
	for _, g := range p.Globals {
		Walk(v, g)
	}
	for _, n := range p.Needs {
		Walk(v, n)
	}
	for _, f := range p.Fns {
		Walk(v, f)
	}
	for _, s := range p.Sectors {
		Walk(v, s)
	}
}

// TypeDecl binds a symbol to its right-hand-side shape (TypeAlias,
// RecordType, or SumType).
type TypeDecl struct {
	Sym      symbol.Id
	RHS      TypeRhs
	DeclSpan token.Span
}

func (d *TypeDecl) Span() token.Span { return d.DeclSpan }
func (d *TypeDecl) Walk(v Visitor)               { Walk(v, d.RHS) }

// TypeRhs is the right-hand side of a type declaration.
type TypeRhs interface {
	Node
	typeRhs()
}

type TypeAlias struct {
	Target  TypeRef
	RhsSpan token.Span
}

func (t *TypeAlias) typeRhs()                     {}
func (t *TypeAlias) Span() token.Span { return t.RhsSpan }
func (t *TypeAlias) Walk(v Visitor)                { Walk(v, t.Target) }

type RecordType struct {
	Fields  []*FieldDecl
	RhsSpan token.Span
}

func (t *RecordType) typeRhs()                    {}
func (t *RecordType) Span() token.Span { return t.RhsSpan }
func (t *RecordType) Walk(v Visitor) {
	for _, f := range t.Fields {
		Walk(v, f)
	}
}

type FieldDecl struct {
	Name      string
	Type      TypeRef
	FieldSpan token.Span
}

func (f *FieldDecl) Span() token.Span { return f.FieldSpan }
func (f *FieldDecl) Walk(v Visitor)               { Walk(v, f.Type) }

type SumType struct {
	Variants []*VariantDecl
	RhsSpan  token.Span
}

func (t *SumType) typeRhs()                    {}
func (t *SumType) Span() token.Span { return t.RhsSpan }
func (t *SumType) Walk(v Visitor) {
	for _, variant := range t.Variants {
		Walk(v, variant)
	}
}

// VariantDecl is one sum-type constructor; Payload is nil for a nullary
// variant (e.g. `None`).
type VariantDecl struct {
	Ctor        symbol.Id
	Payload     []TypeRef
	VariantSpan token.Span
}

func (d *VariantDecl) Span() token.Span { return d.VariantSpan }
func (d *VariantDecl) Walk(v Visitor) {
	for _, p := range d.Payload {
		Walk(v, p)
	}
}

// ValueDecl binds a symbol (const, global let, or sector need) to its
// initializing expression.
type ValueDecl struct {
	Sym      symbol.Id
	Expr     Expr
	DeclSpan token.Span
}

func (d *ValueDecl) Span() token.Span { return d.DeclSpan }
func (d *ValueDecl) Walk(v Visitor)               { Walk(v, d.Expr) }

// ParamKind classifies a function parameter's binding mode.
type ParamKind uint8

const (
	ParamNormal ParamKind = iota
	ParamVarargs
	ParamVarkw
)

type Param struct {
	Sym       symbol.Id
	Type      TypeRef
	Kind      ParamKind
	ParamSpan token.Span
}

func (p *Param) Span() token.Span { return p.ParamSpan }
func (p *Param) Walk(v Visitor) {
	if p.Type != nil {
		Walk(v, p.Type)
	}
}

// FnDecl is a lowered function: a free function if OwnerSector is 0, a
// sector method otherwise.
type FnDecl struct {
	Sym         symbol.Id
	OwnerSector symbol.Id
	Params      []*Param
	RetType     TypeRef // nil if unannotated
	Body        *Block
	DeclSpan    token.Span
}

func (d *FnDecl) Span() token.Span { return d.DeclSpan }
func (d *FnDecl) Walk(v Visitor) {
	for _, p := range d.Params {
		Walk(v, p)
	}
	if d.RetType != nil {
		Walk(v, d.RetType)
	}
	Walk(v, d.Body)
}

// SectorDecl is a lowered sector: its needs, state lets, methods, and event
// handlers.
type SectorDecl struct {
	Sym      symbol.Id
	Fns      []*FnDecl
	Handlers []*HandlerDecl
	Lets     []*ValueDecl
	Needs    []*ValueDecl
	DeclSpan token.Span
}

func (d *SectorDecl) Span() token.Span { return d.DeclSpan }
func (d *SectorDecl) Walk(v Visitor) {
	for _, n := range d.Needs {
		Walk(v, n)
	}
	for _, l := range d.Lets {
		Walk(v, l)
	}
	for _, f := range d.Fns {
		Walk(v, f)
	}
	for _, h := range d.Handlers {
		Walk(v, h)
	}
}

// HandlerDecl is a lowered `on` handler. EventType identifies the sum-type
// variant (or 0, if lowering could not bind it — the checker then treats the
// event payload as fully dynamic) it reacts to; Binder is the symbol the
// payload is bound to in Body, or 0 if the handler discards it.
type HandlerDecl struct {
	Sym         symbol.Id
	EventType   symbol.Id
	Binder      symbol.Id
	When        Expr // nil if the handler has no guard
	Body        *Block
	HandlerSpan token.Span
}

func (d *HandlerDecl) Span() token.Span { return d.HandlerSpan }
func (d *HandlerDecl) Walk(v Visitor) {
	if d.When != nil {
		Walk(v, d.When)
	}
	Walk(v, d.Body)
}

type Block struct {
	Stmts     []Stmt
	BlockSpan token.Span
}

func (b *Block) Span() token.Span { return b.BlockSpan }
func (b *Block) Walk(v Visitor) {
	for _, s := range b.Stmts {
		Walk(v, s)
	}
}
