package ast

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

// TypeExpr is a reference to a type in signature/field position: a bare
// name, a qualified (namespaced) name, or a parenthesized type (used to
// disambiguate e.g. `(A | B)` from a top-level sum alternative list).
type TypeExpr interface {
	Node
	typeExpr()
}

type (
	// TypeName is a simple or generic type reference, e.g. Int, List[Int].
	TypeName struct {
		Name           *Ident
		Lbrack, Rbrack token.Pos // NoPos if not generic
		Args           []TypeExpr
		Commas         []token.Pos
	}

	// TypeParenExpr disambiguates a parenthesized type reference.
	TypeParenExpr struct {
		Lparen, Rparen token.Pos
		X              TypeExpr
	}
)

func (n *TypeName) typeExpr() {}
func (n *TypeName) Format(f fmt.State, verb rune) { format(f, verb, n, "type "+n.Name.Name, nil) }
func (n *TypeName) Span() (start, end token.Pos) {
	s, e := n.Name.Span()
	if n.Rbrack.IsValid() {
		e = n.Rbrack + 1
	}
	return s, e
}
func (n *TypeName) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *TypeParenExpr) typeExpr()                        {}
func (n *TypeParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(type)", nil) }
func (n *TypeParenExpr) Span() (start, end token.Pos)  { return n.Lparen, n.Rparen + 1 }
func (n *TypeParenExpr) Walk(v Visitor)                { Walk(v, n.X) }

type (
	// FieldDecl is one field of a RecordType, e.g. `x: Int`.
	FieldDecl struct {
		Name  *Ident
		Colon token.Pos
		Type  TypeExpr
	}

	// RecordType is a `type Name = { field: Type, ... }` right-hand side.
	RecordType struct {
		Lbrace, Rbrace token.Pos
		Fields         []*FieldDecl
		Commas         []token.Pos
	}

	// VariantDecl is one `Name(Type, ...)` alternative of a SumType.
	VariantDecl struct {
		Name           *Ident
		Lparen, Rparen token.Pos // NoPos if the variant carries no payload
		Fields         []TypeExpr
		Commas         []token.Pos
	}

	// SumType is a `type Name = Variant1(...) | Variant2(...) | ...`
	// right-hand side.
	SumType struct {
		Variants []*VariantDecl
		Bars     []token.Pos
	}

	// TypeAlias is a `type Name = OtherType` right-hand side that is neither
	// a record nor a sum, e.g. a plain alias or Option/Result wrapper.
	TypeAlias struct {
		Type TypeExpr
	}

	// TypeRHS is the right-hand side of a TypeDecl: exactly one of Record,
	// Sum, or Alias is non-nil.
	TypeRHS struct {
		Record *RecordType
		Sum    *SumType
		Alias  *TypeAlias
	}

	// TypeDecl is `type Name = <rhs>`.
	TypeDecl struct {
		TypePos token.Pos
		Name    *Ident
		Eq      token.Pos
		RHS     *TypeRHS
	}

	// ConstDecl is `const Name: Type = value` at module scope.
	ConstDecl struct {
		ConstPos token.Pos
		Name     *Ident
		Colon    token.Pos
		Type     TypeExpr // nil if not annotated
		Eq       token.Pos
		Value    Expr
	}

	// NeedAttr is one `attr: Type` entry in a NeedDecl.
	NeedAttr struct {
		Name  *Ident
		Colon token.Pos
		Type  TypeExpr
	}

	// NeedDecl is `need Name: { attr: Type, ... }`, declaring a capability a
	// sector requires from its environment.
	NeedDecl struct {
		NeedPos token.Pos
		Name    *Ident
		Colon   token.Pos
		Lbrace  token.Pos
		Attrs   []*NeedAttr
		Rbrace  token.Pos
	}

	// ParamDecl is one parameter of an FnDecl or HandlerExpr signature.
	ParamDecl struct {
		Name    *Ident
		Colon   token.Pos
		Type    TypeExpr // nil if untyped (rare, e.g. mixin templates)
		Eq      token.Pos
		Default Expr // nil if no default value
	}

	// FnSignature is the `(params) -> ReturnType` part of a function-like
	// declaration.
	FnSignature struct {
		Lparen, Rparen token.Pos
		Params         []*ParamDecl
		Commas         []token.Pos
		Arrow          token.Pos // NoPos if no explicit return type
		Return         TypeExpr  // nil if no explicit return type
	}

	// FnDecl is `fn name(params) -> Type = expr` or `fn name(params) -> Type =
	// do: block`.
	FnDecl struct {
		FnPos token.Pos
		Name  *Ident
		Sig   *FnSignature
		Eq    token.Pos
		Body  Expr // *DoExpr for a block body, any other Expr for a single-line body

		// Function is filled in by the resolver (*resolver.Function); kept as
		// `any` to avoid an import cycle between ast and resolver.
		Function any
	}
)

func (n *FieldDecl) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name+": field", nil) }
func (n *FieldDecl) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	_, e := n.Type.Span()
	return s, e
}
func (n *FieldDecl) Walk(v Visitor) { Walk(v, n.Name); Walk(v, n.Type) }

func (n *RecordType) typeExpr()                       {}
func (n *RecordType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "record type", map[string]int{"fields": len(n.Fields)})
}
func (n *RecordType) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (n *RecordType) Walk(v Visitor) {
	for _, fl := range n.Fields {
		Walk(v, fl)
	}
}

func (n *VariantDecl) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name+" variant", nil) }
func (n *VariantDecl) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	e := s
	if n.Rparen.IsValid() {
		e = n.Rparen + 1
	}
	return s, e
}
func (n *VariantDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, fl := range n.Fields {
		Walk(v, fl)
	}
}

func (n *SumType) typeExpr() {}
func (n *SumType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "sum type", map[string]int{"variants": len(n.Variants)})
}
func (n *SumType) Span() (start, end token.Pos) {
	s, _ := n.Variants[0].Span()
	_, e := n.Variants[len(n.Variants)-1].Span()
	return s, e
}
func (n *SumType) Walk(v Visitor) {
	for _, vr := range n.Variants {
		Walk(v, vr)
	}
}

func (n *TypeAlias) typeExpr()                        {}
func (n *TypeAlias) Format(f fmt.State, verb rune) { format(f, verb, n, "type alias", nil) }
func (n *TypeAlias) Span() (start, end token.Pos)  { return n.Type.Span() }
func (n *TypeAlias) Walk(v Visitor)                { Walk(v, n.Type) }

func (n *TypeDecl) decl() {}
func (n *TypeDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "type "+n.Name.Name, nil) }
func (n *TypeDecl) Span() (start, end token.Pos) {
	switch {
	case n.RHS.Record != nil:
		_, end = n.RHS.Record.Span()
	case n.RHS.Sum != nil:
		_, end = n.RHS.Sum.Span()
	case n.RHS.Alias != nil:
		_, end = n.RHS.Alias.Span()
	}
	return n.TypePos, end
}
func (n *TypeDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	switch {
	case n.RHS.Record != nil:
		Walk(v, n.RHS.Record)
	case n.RHS.Sum != nil:
		Walk(v, n.RHS.Sum)
	case n.RHS.Alias != nil:
		Walk(v, n.RHS.Alias)
	}
}

func (n *ConstDecl) decl() {}
func (n *ConstDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "const "+n.Name.Name, nil) }
func (n *ConstDecl) Span() (start, end token.Pos) {
	_, e := n.Value.Span()
	return n.ConstPos, e
}
func (n *ConstDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Type != nil {
		Walk(v, n.Type)
	}
	Walk(v, n.Value)
}

func (n *NeedAttr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name+": need attr", nil) }
func (n *NeedAttr) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	_, e := n.Type.Span()
	return s, e
}
func (n *NeedAttr) Walk(v Visitor) { Walk(v, n.Name); Walk(v, n.Type) }

func (n *NeedDecl) decl() {}
func (n *NeedDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "need "+n.Name.Name, map[string]int{"attrs": len(n.Attrs)})
}
func (n *NeedDecl) Span() (start, end token.Pos) { return n.NeedPos, n.Rbrace + 1 }
func (n *NeedDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, a := range n.Attrs {
		Walk(v, a)
	}
}

func (n *ParamDecl) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name+" param", nil) }
func (n *ParamDecl) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	e := s
	switch {
	case n.Default != nil:
		_, e = n.Default.Span()
	case n.Type != nil:
		_, e = n.Type.Span()
	}
	return s, e
}
func (n *ParamDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Default != nil {
		Walk(v, n.Default)
	}
}

func (n *FnDecl) decl() {}
func (n *FnDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn "+n.Name.Name, map[string]int{"params": len(n.Sig.Params)})
}
func (n *FnDecl) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.FnPos, e
}

// IsBlockBody reports whether the function's body is a `do:` block, which
// owns its trailing DEDENT and requires no separate terminating NL.
func (n *FnDecl) IsBlockBody() bool { _, ok := n.Body.(*DoExpr); return ok }
func (n *FnDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	if n.Sig.Return != nil {
		Walk(v, n.Sig.Return)
	}
	Walk(v, n.Body)
}
