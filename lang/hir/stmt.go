package hir

import (
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

type LetStmt struct {
	Sym      symbol.Id
	Value    Expr
	StmtSpan token.Span
}

func (s *LetStmt) stmt()                         {}
func (s *LetStmt) Span() token.Span { return s.StmtSpan }
func (s *LetStmt) Walk(v Visitor)                { Walk(v, s.Value) }

// AssignOp names the compound-assignment operator of an AssignStmt, or
// AssignPlain for a bare `=`.
type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
)

type AssignStmt struct {
	Target   LValue
	Op       AssignOp
	Value    Expr
	StmtSpan token.Span
}

func (s *AssignStmt) stmt()                        {}
func (s *AssignStmt) Span() token.Span { return s.StmtSpan }
func (s *AssignStmt) Walk(v Visitor) {
	Walk(v, s.Target)
	Walk(v, s.Value)
}

type ForStmt struct {
	Binder   symbol.Id
	Iterable Expr
	Body     *Block
	StmtSpan token.Span
}

func (s *ForStmt) stmt()                        {}
func (s *ForStmt) Span() token.Span { return s.StmtSpan }
func (s *ForStmt) Walk(v Visitor) {
	Walk(v, s.Iterable)
	Walk(v, s.Body)
}

// IfStmt is a lowered if/elif/else chain: parser-level elif branches are
// lowered into ElseBlock containing a single-statement block wrapping a
// nested IfStmt, matching how resolve.py's lowering flattens its AST
// equivalent.
type IfStmt struct {
	Cond      Expr
	ThenBlock *Block
	ElseBlock *Block // nil if no else/elif
	StmtSpan  token.Span
}

func (s *IfStmt) stmt()                        {}
func (s *IfStmt) Span() token.Span { return s.StmtSpan }
func (s *IfStmt) Walk(v Visitor) {
	Walk(v, s.Cond)
	Walk(v, s.ThenBlock)
	if s.ElseBlock != nil {
		Walk(v, s.ElseBlock)
	}
}

type EmitStmt struct {
	Value    Expr
	StmtSpan token.Span
}

func (s *EmitStmt) stmt()                        {}
func (s *EmitStmt) Span() token.Span { return s.StmtSpan }
func (s *EmitStmt) Walk(v Visitor)               { Walk(v, s.Value) }

type ReturnStmt struct {
	Value    Expr // nil for a bare `return`
	StmtSpan token.Span
}

func (s *ReturnStmt) stmt()                        {}
func (s *ReturnStmt) Span() token.Span { return s.StmtSpan }
func (s *ReturnStmt) Walk(v Visitor) {
	if s.Value != nil {
		Walk(v, s.Value)
	}
}

// AbortHandlerStmt is the lowering of a try-suffixed expression's failure
// path inside an `on` handler body: it stops evaluating the handler and
// reports Cause (the unwrapped Err/None payload) to the sector's supervisor,
// rather than propagating a Result/Option the way a try-suffix does inside a
// plain function body.
type AbortHandlerStmt struct {
	Cause    Expr // nil if the triggering value carries no payload
	StmtSpan token.Span
}

func (s *AbortHandlerStmt) stmt()                        {}
func (s *AbortHandlerStmt) Span() token.Span { return s.StmtSpan }
func (s *AbortHandlerStmt) Walk(v Visitor) {
	if s.Cause != nil {
		Walk(v, s.Cause)
	}
}

type StopStmt struct{ StmtSpan token.Span }

func (s *StopStmt) stmt()                        {}
func (s *StopStmt) Span() token.Span { return s.StmtSpan }
func (s *StopStmt) Walk(_ Visitor)               {}

// YieldStmt is the lowering of a bare `proceed()` call used as a statement
// inside an around-mixin hook body: it resumes the wrapped implementation
// and discards its result.
type YieldStmt struct{ StmtSpan token.Span }

func (s *YieldStmt) stmt()                        {}
func (s *YieldStmt) Span() token.Span { return s.StmtSpan }
func (s *YieldStmt) Walk(_ Visitor)               {}

type ExprStmt struct {
	Value    Expr
	StmtSpan token.Span
}

func (s *ExprStmt) stmt()                        {}
func (s *ExprStmt) Span() token.Span { return s.StmtSpan }
func (s *ExprStmt) Walk(v Visitor)               { Walk(v, s.Value) }

// MatchStmt is the lowering of a match expression used in statement
// position whose arm bodies are themselves blocks: each arm's block runs in
// full (rather than being evaluated down to a single value bound to a
// synthesized temp, as MatchExpr's arms are).
type MatchStmt struct {
	Scrutinee Expr
	Arms      []*MatchArmStmt
	StmtSpan  token.Span
}

func (s *MatchStmt) stmt()                        {}
func (s *MatchStmt) Span() token.Span { return s.StmtSpan }
func (s *MatchStmt) Walk(v Visitor) {
	Walk(v, s.Scrutinee)
	for _, a := range s.Arms {
		Walk(v, a)
	}
}

type MatchArmStmt struct {
	Pat      Pattern
	Body     *Block
	ArmSpan  token.Span
}

func (a *MatchArmStmt) Span() token.Span { return a.ArmSpan }
func (a *MatchArmStmt) Walk(v Visitor) {
	Walk(v, a.Pat)
	Walk(v, a.Body)
}

// LValue is the target of an AssignStmt.
type LValue interface {
	Node
	lvalue()
}

type LVar struct {
	Sym       symbol.Id
	LValSpan  token.Span
}

func (l *LVar) lvalue()                        {}
func (l *LVar) Span() token.Span { return l.LValSpan }
func (l *LVar) Walk(_ Visitor)                 {}

type LMember struct {
	Object   Expr
	Field    string
	LValSpan token.Span
}

func (l *LMember) lvalue()                      {}
func (l *LMember) Span() token.Span { return l.LValSpan }
func (l *LMember) Walk(v Visitor)               { Walk(v, l.Object) }

type LIndex struct {
	Object   Expr
	Index    Expr
	LValSpan token.Span
}

func (l *LIndex) lvalue()                      {}
func (l *LIndex) Span() token.Span { return l.LValSpan }
func (l *LIndex) Walk(v Visitor) {
	Walk(v, l.Object)
	Walk(v, l.Index)
}
