// Package ast defines the types that represent the abstract syntax tree of a
// .flv module: declarations (types, consts, lets, needs, fns, sectors,
// mixins, patterns), the use/resolve-mixin directives that wire modules and
// mixins together, and the statement/expression grammar of function and
// handler bodies.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oranpie/flavent/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so it can print a description of
	// itself. The only supported verbs are 'v' and 's'. The '#' flag prints
	// count information about children nodes. A width pads or truncates the
	// description; '-' pads right instead of left, '+' disables padding.
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk enters each child node to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr represents an expression in the AST.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node

	// BlockEnding reports whether the statement may only appear last in a
	// block (return, stop, emit-then-stop style early exits do not count;
	// only return and stop truly end control flow).
	BlockEnding() bool
}

// Decl represents a top-level (or mixin-body) declaration.
type Decl interface {
	Node
	decl()
}

type (
	// Program is the root node of a parsed module file.
	Program struct {
		Name  string // filename, may be empty
		Decls []Decl

		// Run is the position of a top-level `run()` call marking this module
		// as the program's entry point, or NoPos if absent.
		Run token.Pos

		// Comments is filled only if parsing comments was requested, ordered by
		// position. Each Comment.Node is the node it was most likely associated
		// with during post-processing, not necessarily the Program itself.
		Comments []*Comment

		EOF token.Pos
	}

	// Comment represents a single "//"-introduced line comment (or a
	// "/* ... */" block comment, recorded as one Comment spanning the whole
	// delimited run).
	Comment struct {
		Node     Node // best-effort association, nil if orphaned
		Start    token.Pos
		Raw, Val string
	}

	// Block represents a sequence of statements inside a : INDENT ... DEDENT
	// suite.
	Block struct {
		Start token.Pos
		End   token.Pos
		Stmts []Stmt
	}

	// Ident is a bare identifier used as an expression, lvalue, or name.
	Ident struct {
		NamePos token.Pos
		Name    string
	}

	// QualifiedName is a dotted reference such as stdlib.time.Now, used for
	// namespaced stdlib member access and for mixin/type/sector references.
	QualifiedName struct {
		Parts    []*Ident
		DotsPos  []token.Pos // len(Parts)-1
	}

	// BadDecl is a placeholder for a top-level declaration that failed to
	// parse, covering the source range skipped during error recovery.
	BadDecl struct {
		From, To token.Pos
	}

	// DoExpr is a `do: NEWLINE INDENT stmt* DEDENT` block used as a function,
	// handler, or match-arm body; it evaluates to its last statement's value
	// when that statement is an ExprStmt, or is used purely for its ReturnStmt
	// control flow otherwise.
	DoExpr struct {
		DoPos token.Pos
		Colon token.Pos
		Body  *Block
	}
)

func (n *BadDecl) decl()                        {}
func (n *BadDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "bad decl", nil) }
func (n *BadDecl) Span() (start, end token.Pos)  { return n.From, n.To }
func (n *BadDecl) Walk(_ Visitor)                {}

func (n *DoExpr) expr()                        {}
func (n *DoExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "do", nil) }
func (n *DoExpr) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.DoPos, e
}
func (n *DoExpr) Walk(v Visitor) { Walk(v, n.Body) }

func (n *Program) Format(f fmt.State, verb rune) { format(f, verb, n, "program", map[string]int{"decls": len(n.Decls)}) }
func (n *Program) Span() (start, end token.Pos) {
	if len(n.Decls) > 0 {
		s, _ := n.Decls[0].Span()
		return s, n.EOF
	}
	return n.EOF, n.EOF
}
func (n *Program) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d)
	}
}

func (n *Comment) Format(f fmt.State, verb rune) { format(f, verb, n, n.Val, nil) }
func (n *Comment) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Raw))
}
func (n *Comment) Walk(_ Visitor) {}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

func (n *Ident) expr()                         {}
func (n *Ident) Format(f fmt.State, verb rune)  { format(f, verb, n, n.Name, nil) }
func (n *Ident) Span() (start, end token.Pos)   { return n.NamePos, n.NamePos + token.Pos(len(n.Name)) }
func (n *Ident) Walk(_ Visitor)                 {}

func (n *QualifiedName) expr() {}
func (n *QualifiedName) Format(f fmt.State, verb rune) {
	names := make([]string, len(n.Parts))
	for i, p := range n.Parts {
		names[i] = p.Name
	}
	format(f, verb, n, strings.Join(names, "."), nil)
}
func (n *QualifiedName) Span() (start, end token.Pos) {
	s, _ := n.Parts[0].Span()
	_, e := n.Parts[len(n.Parts)-1].Span()
	return s, e
}
func (n *QualifiedName) Walk(v Visitor) {
	for _, p := range n.Parts {
		Walk(v, p)
	}
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")
	label = strings.ReplaceAll(label, "\v", "⭿")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
