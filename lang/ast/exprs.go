package ast

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

// Unwrap strips any number of ParenExpr wrappers from e.
func Unwrap(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// IsAssignable reports whether e can appear on the left side of an
// assignment: a bare identifier, a member access, or an index expression.
func IsAssignable(e Expr) bool {
	switch Unwrap(e).(type) {
	case *Ident, *MemberExpr, *IndexExpr:
		return true
	default:
		return false
	}
}

type (
	// BadExpr is a placeholder for an expression that failed to parse, used so
	// the parser can keep going and report more than one error.
	BadExpr struct {
		From, To token.Pos
	}

	// LiteralExpr is an int, float, string, bytes or bool literal.
	LiteralExpr struct {
		TokPos token.Pos
		Tok    token.Token
		Value  token.Value
	}

	// ParenExpr is a parenthesized expression, kept in the tree so Span and
	// pretty-printing round-trip, and so the checker can distinguish `(a, b)`
	// tuple literals from a single parenthesized expression.
	ParenExpr struct {
		Lparen, Rparen token.Pos
		X              Expr
	}

	// TupleExpr is a literal tuple, e.g. (1, 2, 3) or (x,).
	TupleExpr struct {
		Lparen, Rparen token.Pos
		Elems          []Expr
		Commas         []token.Pos
	}

	// RecordField is one name: value pair inside a RecordExpr.
	RecordField struct {
		Name  *Ident
		Colon token.Pos
		Value Expr
	}

	// RecordExpr is a record literal, e.g. { x: 1, y: 2 }.
	RecordExpr struct {
		Lbrace, Rbrace token.Pos
		Fields         []*RecordField
		Commas         []token.Pos
	}

	// ArrayExpr is a list literal, e.g. [1, 2, 3].
	ArrayExpr struct {
		Lbrack, Rbrack token.Pos
		Elems          []Expr
		Commas         []token.Pos
	}

	// MemberExpr is dotted field access, e.g. x.y.
	MemberExpr struct {
		X    Expr
		Dot  token.Pos
		Name *Ident
	}

	// IndexExpr is index access, e.g. x[y].
	IndexExpr struct {
		X              Expr
		Lbrack, Rbrack token.Pos
		Index          Expr
	}

	// Arg is one call argument: positional (Name == nil), keyword
	// (Name != nil), a *-spread of a sequence, or a **-spread of a record
	// into keyword arguments.
	Arg struct {
		Name   *Ident
		Eq     token.Pos
		Spread token.Pos // position of '*' or '**' if this is a spread arg
		Double bool      // true if the spread is '**' rather than '*'
		Value  Expr
	}

	// CallExpr is a function call, e.g. f(x, y, z = 1, *rest, **opts).
	CallExpr struct {
		Fun            Expr
		Lparen, Rparen token.Pos
		Args           []*Arg
		Commas         []token.Pos
	}

	// CallSectorExpr is `call sector.fn(args)`, a fire-and-forget
	// cross-sector invocation distinct from a plain CallExpr: it does not
	// wait for the target and evaluates to Unit.
	CallSectorExpr struct {
		CallPos        token.Pos
		Target         Expr // MemberExpr or QualifiedName naming sector.handler
		Lparen, Rparen token.Pos
		Args           []*Arg
		Commas         []token.Pos
	}

	// RpcExpr is `rpc sector.fn(args)`, a cross-sector invocation that
	// suspends the caller until the target replies and evaluates to that
	// reply.
	RpcExpr struct {
		RpcPos         token.Pos
		Target         Expr
		Lparen, Rparen token.Pos
		Args           []*Arg
		Commas         []token.Pos
	}

	// AwaitExpr is `await x`.
	AwaitExpr struct {
		AwaitPos token.Pos
		X        Expr
	}

	// ProceedExpr is `proceed(args)` or bare `proceed`, valid only inside an
	// around-hook body; the mixin weaver rewrites it into a call to the
	// wrapped implementation.
	ProceedExpr struct {
		ProceedPos     token.Pos
		Lparen, Rparen token.Pos // Rparen is NoPos for bare `proceed`
		Args           []*Arg
		Commas         []token.Pos
	}

	// PipeExpr is `x |> f(...)`, desugared during lowering into f(x, ...).
	PipeExpr struct {
		X       Expr
		PipePos token.Pos
		Stage   Expr // must be a call-shaped expression
	}

	// TrySuffixExpr is `x?`, propagating Err/None out of the enclosing
	// function per its declared return type.
	TrySuffixExpr struct {
		X        Expr
		QmarkPos token.Pos
	}

	// UnaryExpr is a unary operator expression, e.g. -x, not x.
	UnaryExpr struct {
		OpPos token.Pos
		Op    token.Token
		X     Expr
	}

	// BinaryExpr is a binary operator expression, e.g. x + y.
	BinaryExpr struct {
		X     Expr
		OpPos token.Pos
		Op    token.Token
		Y     Expr
	}

	// MatchArm is one `when pattern -> body` (or `else -> body`) arm of a
	// MatchExpr; Body is a single-line expression or a `do:` block.
	MatchArm struct {
		WhenPos token.Pos
		Else    bool
		Pattern Expr // nil if Else
		Guard   Expr // optional `if cond`
		Arrow   token.Pos
		Body    Expr
	}

	// MatchExpr is `match x: when p1 -> ... when p2 -> ... else -> ...`.
	MatchExpr struct {
		MatchPos token.Pos
		X        Expr
		Colon    token.Pos
		Arms     []*MatchArm
	}
)

func (n *BadExpr) expr()                        {}
func (n *BadExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "bad expr", nil) }
func (n *BadExpr) Span() (start, end token.Pos)  { return n.From, n.To }
func (n *BadExpr) Walk(_ Visitor)                {}

func (n *LiteralExpr) expr() {}
func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Tok.Literal(n.Value), nil)
}
func (n *LiteralExpr) Span() (start, end token.Pos) {
	return n.TokPos, n.TokPos + token.Pos(len(n.Value.Raw))
}
func (n *LiteralExpr) Walk(_ Visitor) {}

func (n *ParenExpr) expr()                         {}
func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(...)", nil) }
func (n *ParenExpr) Span() (start, end token.Pos)  { return n.Lparen, n.Rparen + 1 }
func (n *ParenExpr) Walk(v Visitor)                { Walk(v, n.X) }

func (n *TupleExpr) expr() {}
func (n *TupleExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "tuple", map[string]int{"elems": len(n.Elems)})
}
func (n *TupleExpr) Span() (start, end token.Pos) { return n.Lparen, n.Rparen + 1 }
func (n *TupleExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}

func (n *RecordExpr) expr() {}
func (n *RecordExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "record", map[string]int{"fields": len(n.Fields)})
}
func (n *RecordExpr) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *RecordExpr) Walk(v Visitor) {
	for _, fl := range n.Fields {
		Walk(v, fl.Name)
		Walk(v, fl.Value)
	}
}

func (n *ArrayExpr) expr() {}
func (n *ArrayExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array", map[string]int{"elems": len(n.Elems)})
}
func (n *ArrayExpr) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack + 1 }
func (n *ArrayExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}

func (n *MemberExpr) expr() {}
func (n *MemberExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "."+n.Name.Name, nil)
}
func (n *MemberExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	_, e := n.Name.Span()
	return s, e
}
func (n *MemberExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Name) }

func (n *IndexExpr) expr()                        {}
func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "index", nil) }
func (n *IndexExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	return s, n.Rbrack + 1
}
func (n *IndexExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Index) }

func (n *CallExpr) expr() {}
func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Pos) {
	s, _ := n.Fun.Span()
	return s, n.Rparen + 1
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fun)
	for _, a := range n.Args {
		Walk(v, a.Value)
	}
}

func (n *CallSectorExpr) expr() {}
func (n *CallSectorExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call-sector", map[string]int{"args": len(n.Args)})
}
func (n *CallSectorExpr) Span() (start, end token.Pos) { return n.CallPos, n.Rparen + 1 }
func (n *CallSectorExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	for _, a := range n.Args {
		Walk(v, a.Value)
	}
}

func (n *RpcExpr) expr() {}
func (n *RpcExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "rpc", map[string]int{"args": len(n.Args)})
}
func (n *RpcExpr) Span() (start, end token.Pos) { return n.RpcPos, n.Rparen + 1 }
func (n *RpcExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	for _, a := range n.Args {
		Walk(v, a.Value)
	}
}

func (n *AwaitExpr) expr()                        {}
func (n *AwaitExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "await", nil) }
func (n *AwaitExpr) Span() (start, end token.Pos) {
	_, e := n.X.Span()
	return n.AwaitPos, e
}
func (n *AwaitExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *ProceedExpr) expr()                        {}
func (n *ProceedExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "proceed", nil) }
func (n *ProceedExpr) Span() (start, end token.Pos) {
	if n.Rparen.IsValid() {
		return n.ProceedPos, n.Rparen + 1
	}
	return n.ProceedPos, n.ProceedPos + token.Pos(len("proceed"))
}
func (n *ProceedExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a.Value)
	}
}

func (n *PipeExpr) expr()                        {}
func (n *PipeExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "pipe", nil) }
func (n *PipeExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	_, e := n.Stage.Span()
	return s, e
}
func (n *PipeExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Stage) }

func (n *TrySuffixExpr) expr()                        {}
func (n *TrySuffixExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "try-suffix", nil) }
func (n *TrySuffixExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	return s, n.QmarkPos + 1
}
func (n *TrySuffixExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *UnaryExpr) expr() {}
func (n *UnaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Op.GoString(), nil)
}
func (n *UnaryExpr) Span() (start, end token.Pos) {
	_, e := n.X.Span()
	return n.OpPos, e
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *BinaryExpr) expr() {}
func (n *BinaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Op.GoString(), nil)
}
func (n *BinaryExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	_, e := n.Y.Span()
	return s, e
}
func (n *BinaryExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Y) }

func (n *MatchExpr) expr() {}
func (n *MatchExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "match", map[string]int{"arms": len(n.Arms)})
}
func (n *MatchExpr) Span() (start, end token.Pos) {
	if len(n.Arms) > 0 {
		last := n.Arms[len(n.Arms)-1]
		if last.Body != nil {
			_, e := last.Body.Span()
			return n.MatchPos, e
		}
	}
	return n.MatchPos, n.Colon + 1
}
func (n *MatchExpr) Walk(v Visitor) {
	Walk(v, n.X)
	for _, a := range n.Arms {
		if a.Pattern != nil {
			Walk(v, a.Pattern)
		}
		if a.Guard != nil {
			Walk(v, a.Guard)
		}
		Walk(v, a.Body)
	}
}
