package ast

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

// MixinTarget is `into Type` or `into sector Name`, naming what a mixin
// applies to.
type MixinTarget interface {
	Node
	mixinTarget()
}

type (
	// MixinTargetType is `into Name`, targeting a type declaration.
	MixinTargetType struct {
		IntoPos token.Pos
		Name    *Ident
	}

	// MixinTargetSector is `into sector Name`, targeting a sector.
	MixinTargetSector struct {
		IntoPos   token.Pos
		SectorPos token.Pos
		Name      *Ident
	}

	// MixinFieldAdd is a bare `name: Type` item inside a mixin body, adding a
	// field to the target record type; only legal when the mixin target is a
	// type.
	MixinFieldAdd struct {
		Name  *Ident
		Colon token.Pos
		Type  TypeExpr
	}

	// MixinFnAdd is a `fn name(...) -> Type = expr` item inside a mixin body,
	// adding a function or handler to the target.
	MixinFnAdd struct {
		FnPos token.Pos
		Name  *Ident
		Sig   *FnSignature
		Eq    token.Pos
		Body  Expr
	}

	// MixinAround is an `around fn name(...): block` item inside a mixin
	// body, wrapping an existing function or handler of the same name and
	// signature shape; the block's `proceed(...)` calls are rewritten by the
	// weaver into a call to the wrapped implementation.
	MixinAround struct {
		AroundPos token.Pos
		FnPos     token.Pos
		Name      *Ident
		Sig       *FnSignature
		Colon     token.Pos
		Body      *Block
	}

	// HookOption is one `key = value` pair in a hook's `with(...)` option
	// list, e.g. `with(id = "log", priority = 10, strict = false)`.
	HookOption struct {
		Name  *Ident
		Eq    token.Pos
		Value Expr
	}

	// MixinHookAdd is a `hook <head|invoke|tail> fn name(...) with(opts) =
	// expr` item inside a mixin body. Point is a contextual keyword (not a
	// reserved token), stored verbatim from the identifier text.
	MixinHookAdd struct {
		HookPos        token.Pos
		Point          *Ident // "head", "invoke", or "tail"
		FnPos          token.Pos
		Name           *Ident
		Sig            *FnSignature
		WithPos        token.Pos
		Lparen, Rparen token.Pos
		Options        []*HookOption
		Commas         []token.Pos
		Eq             token.Pos
		Body           Expr
	}

	// MixinItem is exactly one of Field, Fn, Around, or Hook.
	MixinItem struct {
		Field  *MixinFieldAdd
		Fn     *MixinFnAdd
		Around *MixinAround
		Hook   *MixinHookAdd
	}

	// MixinDecl is `mixin Name [vN] into <target>: item*`.
	MixinDecl struct {
		MixinPos token.Pos
		Name     *Ident
		Version  *Ident // nil if unversioned
		Target   MixinTarget
		Colon    token.Pos
		Items    []*MixinItem
		End      token.Pos
	}

	// UseStmt is `use "path/to/module"`, loading another module by path.
	UseStmt struct {
		UsePos token.Pos
		Path   *LiteralExpr // STRING literal
		As     *Ident       // nil if no alias
	}

	// UseMixinStmt is `use mixin Name`, applying a mixin without a prefer
	// clause.
	UseMixinStmt struct {
		UsePos   token.Pos
		MixinPos token.Pos
		Name     *QualifiedName
	}

	// PreferRule is one `prefer A vN over B vM` rule inside a resolve-mixin
	// statement, establishing a precedence edge for conflict resolution.
	PreferRule struct {
		PreferPos     token.Pos
		Winner        *Ident
		WinnerVersion *Ident // nil if unversioned
		OverPos       token.Pos
		Loser         *Ident
		LoserVersion  *Ident // nil if unversioned
	}

	// ResolveMixinStmt is `resolve mixin-conflict: prefer A vN over B vM
	// ...`, applying mixins together with explicit conflict-resolution
	// rules. The surface spelling `mixin-conflict` is three tokens (`mixin`,
	// `-`, `conflict`) re-assembled by the parser.
	ResolveMixinStmt struct {
		ResolvePos token.Pos
		Colon      token.Pos
		Rules      []*PreferRule
		End        token.Pos
	}

	// PatternDecl is `pattern Name = expr`, a reusable named match pattern.
	PatternDecl struct {
		PatternPos token.Pos
		Name       *Ident
		Eq         token.Pos
		Value      Expr
	}
)

func (n *MixinTargetType) mixinTarget()           {}
func (n *MixinTargetType) Format(f fmt.State, verb rune) { format(f, verb, n, "into "+n.Name.Name, nil) }
func (n *MixinTargetType) Span() (start, end token.Pos) {
	_, e := n.Name.Span()
	return n.IntoPos, e
}
func (n *MixinTargetType) Walk(v Visitor) { Walk(v, n.Name) }

func (n *MixinTargetSector) mixinTarget() {}
func (n *MixinTargetSector) Format(f fmt.State, verb rune) {
	format(f, verb, n, "into sector "+n.Name.Name, nil)
}
func (n *MixinTargetSector) Span() (start, end token.Pos) {
	_, e := n.Name.Span()
	return n.IntoPos, e
}
func (n *MixinTargetSector) Walk(v Visitor) { Walk(v, n.Name) }

func (n *MixinFieldAdd) Format(f fmt.State, verb rune) {
	format(f, verb, n, "field "+n.Name.Name, nil)
}
func (n *MixinFieldAdd) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	_, e := n.Type.Span()
	return s, e
}
func (n *MixinFieldAdd) Walk(v Visitor) { Walk(v, n.Name); Walk(v, n.Type) }

func (n *MixinFnAdd) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn-add "+n.Name.Name, nil)
}
func (n *MixinFnAdd) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.FnPos, e
}
func (n *MixinFnAdd) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}

func (n *HookOption) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name+": option", nil) }
func (n *HookOption) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	_, e := n.Value.Span()
	return s, e
}
func (n *HookOption) Walk(v Visitor) { Walk(v, n.Name); Walk(v, n.Value) }

func (n *MixinAround) Format(f fmt.State, verb rune) {
	format(f, verb, n, "around "+n.Name.Name, nil)
}
func (n *MixinAround) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.AroundPos, e
}
func (n *MixinAround) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}

func (n *MixinHookAdd) Format(f fmt.State, verb rune) {
	format(f, verb, n, "hook "+n.Point.Name+" "+n.Name.Name, map[string]int{"options": len(n.Options)})
}
func (n *MixinHookAdd) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.HookPos, e
}
func (n *MixinHookAdd) Walk(v Visitor) {
	Walk(v, n.Point)
	Walk(v, n.Name)
	for _, p := range n.Sig.Params {
		Walk(v, p)
	}
	for _, o := range n.Options {
		Walk(v, o)
	}
	Walk(v, n.Body)
}

func (n *MixinItem) node() Node {
	switch {
	case n.Field != nil:
		return n.Field
	case n.Fn != nil:
		return n.Fn
	case n.Around != nil:
		return n.Around
	default:
		return n.Hook
	}
}
func (n *MixinItem) Format(f fmt.State, verb rune) { n.node().Format(f, verb) }
func (n *MixinItem) Span() (start, end token.Pos)  { return n.node().Span() }
func (n *MixinItem) Walk(v Visitor)                { Walk(v, n.node()) }

func (n *MixinDecl) decl() {}
func (n *MixinDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "mixin "+n.Name.Name, map[string]int{"items": len(n.Items)})
}
func (n *MixinDecl) Span() (start, end token.Pos) { return n.MixinPos, n.End }
func (n *MixinDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Version != nil {
		Walk(v, n.Version)
	}
	Walk(v, n.Target)
	for _, it := range n.Items {
		Walk(v, it)
	}
}

func (n *UseStmt) decl()                        {}
func (n *UseStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "use", nil) }
func (n *UseStmt) Span() (start, end token.Pos) {
	_, e := n.Path.Span()
	if n.As != nil {
		_, e = n.As.Span()
	}
	return n.UsePos, e
}
func (n *UseStmt) Walk(v Visitor) {
	Walk(v, n.Path)
	if n.As != nil {
		Walk(v, n.As)
	}
}

func (n *UseMixinStmt) decl() {}
func (n *UseMixinStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "use mixin", nil) }
func (n *UseMixinStmt) Span() (start, end token.Pos) {
	_, e := n.Name.Span()
	return n.UsePos, e
}
func (n *UseMixinStmt) Walk(v Visitor) { Walk(v, n.Name) }

func (n *PreferRule) Format(f fmt.State, verb rune) { format(f, verb, n, "prefer", nil) }
func (n *PreferRule) Span() (start, end token.Pos) {
	_, end = n.Loser.Span()
	if n.LoserVersion != nil {
		_, end = n.LoserVersion.Span()
	}
	return n.PreferPos, end
}
func (n *PreferRule) Walk(v Visitor) {
	Walk(v, n.Winner)
	if n.WinnerVersion != nil {
		Walk(v, n.WinnerVersion)
	}
	Walk(v, n.Loser)
	if n.LoserVersion != nil {
		Walk(v, n.LoserVersion)
	}
}

func (n *ResolveMixinStmt) decl() {}
func (n *ResolveMixinStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "resolve mixin-conflict", map[string]int{"rules": len(n.Rules)})
}
func (n *ResolveMixinStmt) Span() (start, end token.Pos) { return n.ResolvePos, n.End }
func (n *ResolveMixinStmt) Walk(v Visitor) {
	for _, r := range n.Rules {
		Walk(v, r)
	}
}

func (n *PatternDecl) decl() {}
func (n *PatternDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "pattern "+n.Name.Name, nil) }
func (n *PatternDecl) Span() (start, end token.Pos) {
	_, e := n.Value.Span()
	return n.PatternPos, e
}
func (n *PatternDecl) Walk(v Visitor) { Walk(v, n.Name); Walk(v, n.Value) }
