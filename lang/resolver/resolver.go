// Package resolver implements the two-pass resolver that ties every
// identifier in a parsed module to the symbol it denotes: a first pass
// collects every top-level, sector, and mixin declaration into a symbol
// table (so forward references to types, sectors, and functions resolve
// regardless of declaration order), and a second pass walks function and
// handler bodies resolving each use-site against the scope chain built by
// the first pass.
//
// # Namespaces
//
// Names live in one of four independent namespaces (see package symbol):
// values (let/const/need/fn/handler/ctor), types, sectors, and mixins. A
// type and a sector may share a name without conflict.
//
// # Scopes
//
// The module's top-level declarations live in a root Scope. Each sector
// gets a child scope for its own lets/needs/fns/handlers. Each function or
// handler body gets a further child scope for its parameters and locals.
// There is no free-variable/closure analysis: .flv has no nested function
// literals capturing enclosing locals, only top-level and sector-owned fns.
package resolver

import (
	"context"
	"fmt"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// Result is the output of a successful (or partially successful) resolve:
// the symbol table built by pass A, the root scope, the per-sector scopes,
// and a map from every bound/referenced *ast.Ident to the symbol it
// resolves to.
type Result struct {
	Table        *symbol.Table
	Global       *symbol.Scope
	SectorScopes map[symbol.Id]*symbol.Scope
	IdentSyms    map[*ast.Ident]symbol.Id

	// MainSector is the symbol id of the "main" sector (explicit or
	// synthesized to host top-level `on` handlers), or 0 if the module has
	// neither.
	MainSector symbol.Id
}

// DiscardNames is the set of identifier names that may be repeatedly
// re-declared with `let` in the same scope without a duplicate-name error,
// and that are never themselves resolvable as a value reference. The zero
// value is not usable; use DefaultDiscardNames or a set loaded from a
// flvdiscard file by package config.
type DiscardNames map[string]bool

// DefaultDiscardNames is the discard set used when no flvdiscard
// configuration file is found: just the conventional `_`.
func DefaultDiscardNames() DiscardNames { return DiscardNames{"_": true} }

// Resolve runs both passes of the resolver over prog and returns the
// resulting symbol table and scopes. The returned error, if non-nil, is a
// scanner.ErrorList; a non-nil error does not mean Result is useless — it
// reflects as much of the program as was successfully resolved, the way a
// parse error still returns a best-effort AST.
func Resolve(_ context.Context, fset *token.FileSet, file *token.File, prog *ast.Program, discard DiscardNames) (*Result, error) {
	if discard == nil {
		discard = DefaultDiscardNames()
	}

	r := &resolver{
		file:    file,
		discard: discard,
		table:   symbol.New(),
		global:  symbol.NewRootScope(),
		res: &Result{
			SectorScopes: map[symbol.Id]*symbol.Scope{},
			IdentSyms:    map[*ast.Ident]symbol.Id{},
		},
	}
	r.res.Table = r.table
	r.res.Global = r.global

	r.installBuiltins()
	r.collectDecls(prog)
	r.resolveUses(prog)

	r.errors.Sort()
	return r.res, r.errors.Err()
}

type resolver struct {
	file    *token.File
	discard DiscardNames

	table  *symbol.Table
	global *symbol.Scope
	res    *Result

	errors scanner.ErrorList
}

func (r *resolver) errorf(pos token.Pos, format string, args ...any) {
	r.errors.Add(r.file.Position(pos), fmt.Sprintf(format, args...))
}

func (r *resolver) spanOf(start, end token.Pos) token.Span {
	return token.SpanFromFile(r.file, start, end)
}

// declare records sym in the table and binds it into scope's ns namespace
// under name, returning the new symbol id.
func (r *resolver) declare(scope *symbol.Scope, ns symbol.Namespace, name string, sym symbol.Symbol) symbol.Id {
	id := r.table.Declare(sym)
	scope.Define(ns, name, id)
	return id
}

// bindIdent records that ident resolves to id, for consumers (the weaver,
// the lowering pass, diagnostics) that need to map an AST node back to its
// symbol.
func (r *resolver) bindIdent(ident *ast.Ident, id symbol.Id) {
	r.res.IdentSyms[ident] = id
}

// installBuiltins seeds the root scope with the primitive types every
// module can reference without a `use`, plus the two sum types the
// try-suffix and match machinery is built around: Result (Ok/Err) and
// Option (Some/None).
//
// Ok, Err, Some, and None are keyword tokens (lang/token), not ordinary
// identifiers; the parser accepts them only in variant-name position.
// stdlib/prelude.flv declares the same shapes (`type Result = Ok(Any) |
// Err(Any)`), but lang/analyze does not merge the prelude into the program
// it resolves, so the symbols are seeded here directly, matching what
// resolving that source would produce.
func (r *resolver) installBuiltins() {
	for _, name := range []string{"Unit", "Int", "Float", "Bool", "Str", "Bytes", "Any"} {
		id := r.table.Declare(symbol.Symbol{Kind: symbol.TypeSym, Name: name})
		r.global.Define(symbol.Types, name, id)
	}

	resultID := r.table.Declare(symbol.Symbol{Kind: symbol.TypeSym, Name: "Result"})
	r.global.Define(symbol.Types, "Result", resultID)
	for _, name := range []string{"Ok", "Err"} {
		id := r.table.Declare(symbol.Symbol{Kind: symbol.Ctor, Name: name, Owner: resultID})
		r.global.Define(symbol.Values, name, id)
	}

	optionID := r.table.Declare(symbol.Symbol{Kind: symbol.TypeSym, Name: "Option"})
	r.global.Define(symbol.Types, "Option", optionID)
	for _, name := range []string{"Some", "None"} {
		id := r.table.Declare(symbol.Symbol{Kind: symbol.Ctor, Name: name, Owner: optionID})
		r.global.Define(symbol.Values, name, id)
	}
}

func qualifiedString(qn *ast.QualifiedName) string {
	s := qn.Parts[0].Name
	for _, p := range qn.Parts[1:] {
		s += "." + p.Name
	}
	return s
}
