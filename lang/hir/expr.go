package hir

import (
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// LitKind classifies a Literal's payload, matching the kinds lang/token's
// scanner itself distinguishes (int, float, string, byte string, bool,
// unit).
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBytes
	LitBool
	LitUnit
)

// Literal carries a decoded constant value; Value's dynamic type follows
// Kind: int64 for LitInt, float64 for LitFloat, string for LitString and
// LitBytes, bool for LitBool, nil for LitUnit.
type Literal struct {
	Kind  LitKind
	Value any
}

type LitExpr struct {
	Lit      Literal
	ExprSpan token.Span
}

func (e *LitExpr) expr()                        {}
func (e *LitExpr) Span() token.Span { return e.ExprSpan }
func (e *LitExpr) Walk(_ Visitor)               {}

// VarExpr is a reference to a resolved symbol (a value, a sum-type
// constructor used nullary, or a sector referenced as an rpc/call target).
type VarExpr struct {
	Sym      symbol.Id
	ExprSpan token.Span
}

func (e *VarExpr) expr()                        {}
func (e *VarExpr) Span() token.Span { return e.ExprSpan }
func (e *VarExpr) Walk(_ Visitor)               {}

// UndefExpr marks a reference lowering could not bind to any symbol (an
// event tag or dotted constructor access that the resolver left unbound
// under its leniency rule). The checker treats it as an opaque, fully
// dynamic value rather than a type error.
type UndefExpr struct{ ExprSpan token.Span }

func (e *UndefExpr) expr()                        {}
func (e *UndefExpr) Span() token.Span { return e.ExprSpan }
func (e *UndefExpr) Walk(_ Visitor)               {}

type RecordItem struct {
	Key      string
	Value    Expr
	ItemSpan token.Span
}

func (i *RecordItem) Span() token.Span { return i.ItemSpan }
func (i *RecordItem) Walk(v Visitor)               { Walk(v, i.Value) }

type RecordLitExpr struct {
	Items    []*RecordItem
	ExprSpan token.Span
}

func (e *RecordLitExpr) expr()                        {}
func (e *RecordLitExpr) Span() token.Span { return e.ExprSpan }
func (e *RecordLitExpr) Walk(v Visitor) {
	for _, i := range e.Items {
		Walk(v, i)
	}
}

type TupleLitExpr struct {
	Items    []Expr
	ExprSpan token.Span
}

func (e *TupleLitExpr) expr()                        {}
func (e *TupleLitExpr) Span() token.Span { return e.ExprSpan }
func (e *TupleLitExpr) Walk(v Visitor) {
	for _, it := range e.Items {
		Walk(v, it)
	}
}

// CallArg is one argument of a CallExpr: positional, a `*spread` splat, a
// `name = value` keyword, or a `**spread` double-splat.
type CallArg interface {
	Node
	callArg()
}

type CallArgPos struct {
	Value    Expr
	ArgSpan  token.Span
}

func (a *CallArgPos) callArg()                      {}
func (a *CallArgPos) Span() token.Span { return a.ArgSpan }
func (a *CallArgPos) Walk(v Visitor)                { Walk(v, a.Value) }

type CallArgStar struct {
	Value   Expr
	ArgSpan token.Span
}

func (a *CallArgStar) callArg()                     {}
func (a *CallArgStar) Span() token.Span { return a.ArgSpan }
func (a *CallArgStar) Walk(v Visitor)               { Walk(v, a.Value) }

type CallArgKw struct {
	Name    string
	Value   Expr
	ArgSpan token.Span
}

func (a *CallArgKw) callArg()                     {}
func (a *CallArgKw) Span() token.Span { return a.ArgSpan }
func (a *CallArgKw) Walk(v Visitor)               { Walk(v, a.Value) }

type CallArgStarStar struct {
	Value   Expr
	ArgSpan token.Span
}

func (a *CallArgStarStar) callArg()                     {}
func (a *CallArgStarStar) Span() token.Span { return a.ArgSpan }
func (a *CallArgStarStar) Walk(v Visitor)               { Walk(v, a.Value) }

type CallExpr struct {
	Callee   Expr
	Args     []CallArg
	ExprSpan token.Span
}

func (e *CallExpr) expr()                        {}
func (e *CallExpr) Span() token.Span { return e.ExprSpan }
func (e *CallExpr) Walk(v Visitor) {
	Walk(v, e.Callee)
	for _, a := range e.Args {
		Walk(v, a)
	}
}

type MemberExpr struct {
	Object   Expr
	Field    string
	ExprSpan token.Span
}

func (e *MemberExpr) expr()                        {}
func (e *MemberExpr) Span() token.Span { return e.ExprSpan }
func (e *MemberExpr) Walk(v Visitor)               { Walk(v, e.Object) }

type IndexExpr struct {
	Object   Expr
	Index    Expr
	ExprSpan token.Span
}

func (e *IndexExpr) expr()                        {}
func (e *IndexExpr) Span() token.Span { return e.ExprSpan }
func (e *IndexExpr) Walk(v Visitor) {
	Walk(v, e.Object)
	Walk(v, e.Index)
}

// UnaryOp is a lowered unary operator.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

type UnaryExpr struct {
	Op       UnaryOp
	Value    Expr
	ExprSpan token.Span
}

func (e *UnaryExpr) expr()                        {}
func (e *UnaryExpr) Span() token.Span { return e.ExprSpan }
func (e *UnaryExpr) Walk(v Visitor)               { Walk(v, e.Value) }

// BinaryOp is a lowered binary operator; pipe (`|>`) never survives
// lowering (it desugars to a CallExpr) and is not a member of this set.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinAnd
	BinOr
)

type BinaryExpr struct {
	Op       BinaryOp
	Left     Expr
	Right    Expr
	ExprSpan token.Span
}

func (e *BinaryExpr) expr()                        {}
func (e *BinaryExpr) Span() token.Span { return e.ExprSpan }
func (e *BinaryExpr) Walk(v Visitor) {
	Walk(v, e.Left)
	Walk(v, e.Right)
}

// Pattern is a lowered match-arm pattern.
type Pattern interface {
	Node
	pattern()
}

type PWildcard struct{ PatSpan token.Span }

func (p *PWildcard) pattern()                     {}
func (p *PWildcard) Span() token.Span { return p.PatSpan }
func (p *PWildcard) Walk(_ Visitor)               {}

type PVar struct {
	Sym     symbol.Id
	PatSpan token.Span
}

func (p *PVar) pattern()                     {}
func (p *PVar) Span() token.Span { return p.PatSpan }
func (p *PVar) Walk(_ Visitor)               {}

type PBool struct {
	Value   bool
	PatSpan token.Span
}

func (p *PBool) pattern()                     {}
func (p *PBool) Span() token.Span { return p.PatSpan }
func (p *PBool) Walk(_ Visitor)               {}

// PCtor matches a sum-type variant; Args is nil for a nullary variant
// pattern.
type PCtor struct {
	Ctor    symbol.Id
	Args    []Pattern
	PatSpan token.Span
}

func (p *PCtor) pattern()                     {}
func (p *PCtor) Span() token.Span { return p.PatSpan }
func (p *PCtor) Walk(v Visitor) {
	for _, a := range p.Args {
		Walk(v, a)
	}
}

// MatchArmExpr is one arm of a MatchExpr: Body is evaluated to a single
// value when Pat matches.
type MatchArmExpr struct {
	Pat     Pattern
	Body    Expr
	ArmSpan token.Span
}

func (a *MatchArmExpr) Span() token.Span { return a.ArmSpan }
func (a *MatchArmExpr) Walk(v Visitor) {
	Walk(v, a.Pat)
	Walk(v, a.Body)
}

type MatchExpr struct {
	Scrutinee Expr
	Arms      []*MatchArmExpr
	ExprSpan  token.Span
}

func (e *MatchExpr) expr()                        {}
func (e *MatchExpr) Span() token.Span { return e.ExprSpan }
func (e *MatchExpr) Walk(v Visitor) {
	Walk(v, e.Scrutinee)
	for _, a := range e.Arms {
		Walk(v, a)
	}
}

// AwaitEventExpr is the lowering of `await Event.Variant`: it suspends the
// current handler until a matching event arrives, yielding its payload.
type AwaitEventExpr struct {
	EventType symbol.Id
	ExprSpan  token.Span
}

func (e *AwaitEventExpr) expr()                        {}
func (e *AwaitEventExpr) Span() token.Span { return e.ExprSpan }
func (e *AwaitEventExpr) Walk(_ Visitor)               {}

// RpcCallExpr is the lowering of `call sector.fn(args)` (AwaitResult false)
// or `rpc sector.fn(args)` (AwaitResult true, suspends for the reply).
type RpcCallExpr struct {
	Sector      symbol.Id
	Fn          symbol.Id
	Args        []Expr
	AwaitResult bool
	ExprSpan    token.Span
}

func (e *RpcCallExpr) expr()                        {}
func (e *RpcCallExpr) Span() token.Span { return e.ExprSpan }
func (e *RpcCallExpr) Walk(v Visitor) {
	for _, a := range e.Args {
		Walk(v, a)
	}
}
