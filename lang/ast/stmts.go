package ast

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

// LValue is the left side of an AssignStmt: a bare name, a member access, or
// an index expression.
type LValue interface {
	Node
	lvalue()
}

type (
	// LVar is an lvalue that assigns a bare name, e.g. `x = 1`.
	LVar struct {
		Name *Ident
	}

	// LMember is an lvalue that assigns a field through a dotted path, e.g.
	// `x.y = 1`.
	LMember struct {
		X    Expr
		Dot  token.Pos
		Name *Ident
	}

	// LIndex is an lvalue that assigns through an index, e.g. `x[y] = 1`.
	LIndex struct {
		X              Expr
		Lbrack, Rbrack token.Pos
		Index          Expr
	}
)

func (n *LVar) lvalue()                        {}
func (n *LVar) Format(f fmt.State, verb rune)  { format(f, verb, n, n.Name.Name, nil) }
func (n *LVar) Span() (start, end token.Pos)   { return n.Name.Span() }
func (n *LVar) Walk(v Visitor)                 { Walk(v, n.Name) }

func (n *LMember) lvalue()                       {}
func (n *LMember) Format(f fmt.State, verb rune) { format(f, verb, n, "."+n.Name.Name, nil) }
func (n *LMember) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	_, e := n.Name.Span()
	return s, e
}
func (n *LMember) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Name) }

func (n *LIndex) lvalue()                       {}
func (n *LIndex) Format(f fmt.State, verb rune) { format(f, verb, n, "index", nil) }
func (n *LIndex) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	return s, n.Rbrack + 1
}
func (n *LIndex) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Index) }

type (
	// BadStmt is a placeholder for a statement that failed to parse.
	BadStmt struct {
		From, To token.Pos
	}

	// ExprStmt is a call expression used as a statement.
	ExprStmt struct {
		X Expr
	}

	// LetStmt declares a local binding, e.g. `let x: Int = 1` or `let y = f()`.
	LetStmt struct {
		LetPos token.Pos
		Name   *Ident
		Colon  token.Pos // NoPos if no type annotation
		Type   TypeExpr  // nil if no type annotation
		Eq     token.Pos
		Value  Expr
	}

	// AssignStmt assigns to an existing lvalue, possibly with an augmented
	// operator (+=, -=, *=, /=).
	AssignStmt struct {
		Left  LValue
		OpPos token.Pos
		Op    token.Token // EQ, PLUSEQ, MINUSEQ, STAREQ, or SLASHEQ
		Right Expr
	}

	// ForInStmt is `for x in iterable: ...`.
	ForInStmt struct {
		ForPos token.Pos
		Var    *Ident
		InPos  token.Pos
		Iter   Expr
		Colon  token.Pos
		Body   *Block
	}

	// IfStmt is `if cond: ... else: ...`, with Else chaining into another
	// IfStmt to represent `else if`.
	IfStmt struct {
		IfPos    token.Pos
		Cond     Expr
		Colon    token.Pos
		Then     *Block
		ElsePos  token.Pos // NoPos if no else clause
		ElseIf   *IfStmt   // non-nil for `else if`
		Else     *Block    // non-nil for a plain `else:` (mutually exclusive with ElseIf)
	}

	// ReturnStmt is `return` or `return expr`.
	ReturnStmt struct {
		ReturnPos token.Pos
		X         Expr // nil for bare return
	}

	// EmitStmt is `emit EventName(args)`, raising an event to the enclosing
	// sector's handlers.
	EmitStmt struct {
		EmitPos token.Pos
		Event   Expr // call-shaped expression constructing the event
	}

	// StopStmt is `stop` or `stop()`, terminating the enclosing sector.
	StopStmt struct {
		StopPos token.Pos
	}
)

func (n *BadStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "bad stmt", nil) }
func (n *BadStmt) Span() (start, end token.Pos)  { return n.From, n.To }
func (n *BadStmt) Walk(_ Visitor)                {}
func (n *BadStmt) BlockEnding() bool             { return false }

func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr stmt", nil) }
func (n *ExprStmt) Span() (start, end token.Pos)  { return n.X.Span() }
func (n *ExprStmt) Walk(v Visitor)                { Walk(v, n.X) }
func (n *ExprStmt) BlockEnding() bool             { return false }

func (n *LetStmt) decl()                         {} // also usable as a top-level LetDecl
func (n *LetStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "let "+n.Name.Name, nil) }
func (n *LetStmt) Span() (start, end token.Pos) {
	_, e := n.Value.Span()
	return n.LetPos, e
}
func (n *LetStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Type != nil {
		Walk(v, n.Type)
	}
	Walk(v, n.Value)
}
func (n *LetStmt) BlockEnding() bool { return false }

func (n *AssignStmt) Format(f fmt.State, verb rune) {
	lbl := "assignment"
	if n.Op != token.EQ {
		lbl = "augmented assignment " + n.Op.GoString()
	}
	format(f, verb, n, lbl, nil)
}
func (n *AssignStmt) Span() (start, end token.Pos) {
	s, _ := n.Left.Span()
	_, e := n.Right.Span()
	return s, e
}
func (n *AssignStmt) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *AssignStmt) BlockEnding() bool { return false }

func (n *ForInStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for in", nil) }
func (n *ForInStmt) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.ForPos, e
}
func (n *ForInStmt) Walk(v Visitor) {
	Walk(v, n.Var)
	Walk(v, n.Iter)
	Walk(v, n.Body)
}
func (n *ForInStmt) BlockEnding() bool { return false }

func (n *IfStmt) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.ElseIf != nil {
		lbl = "if else-if"
	} else if n.Else != nil {
		lbl = "if else"
	}
	format(f, verb, n, lbl, nil)
}
func (n *IfStmt) Span() (start, end token.Pos) {
	_, end = n.Then.Span()
	if n.ElseIf != nil {
		_, end = n.ElseIf.Span()
	} else if n.Else != nil {
		_, end = n.Else.Span()
	}
	return n.IfPos, end
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.ElseIf != nil {
		Walk(v, n.ElseIf)
	} else if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfStmt) BlockEnding() bool { return false }

func (n *ReturnStmt) Format(f fmt.State, verb rune) {
	var n1 int
	if n.X != nil {
		n1 = 1
	}
	format(f, verb, n, "return", map[string]int{"expr": n1})
}
func (n *ReturnStmt) Span() (start, end token.Pos) {
	end = n.ReturnPos + token.Pos(len("return"))
	if n.X != nil {
		_, end = n.X.Span()
	}
	return n.ReturnPos, end
}
func (n *ReturnStmt) Walk(v Visitor) {
	if n.X != nil {
		Walk(v, n.X)
	}
}
func (n *ReturnStmt) BlockEnding() bool { return true }

func (n *EmitStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "emit", nil) }
func (n *EmitStmt) Span() (start, end token.Pos) {
	_, e := n.Event.Span()
	return n.EmitPos, e
}
func (n *EmitStmt) Walk(v Visitor)     { Walk(v, n.Event) }
func (n *EmitStmt) BlockEnding() bool  { return false }

func (n *StopStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "stop", nil) }
func (n *StopStmt) Span() (start, end token.Pos) {
	return n.StopPos, n.StopPos + token.Pos(len("stop"))
}
func (n *StopStmt) Walk(_ Visitor)    {}
func (n *StopStmt) BlockEnding() bool { return true }
