// Package symbol defines the Symbol table built by the resolver: every
// declaration in a module (or mixin body) is assigned a SymbolId, and Scopes
// chain together the four independent namespaces a name can live in.
package symbol

import (
	"fmt"

	"github.com/oranpie/flavent/lang/token"
)

// Id uniquely identifies a Symbol within a single resolver run.
type Id int

// Kind classifies what a Symbol denotes.
type Kind uint8

const (
	Undefined Kind = iota
	TypeSym
	Sector
	Mixin
	Fn
	Var
	Const
	Need
	Handler
	Ctor
)

var kindNames = [...]string{
	Undefined: "undefined",
	TypeSym:   "type",
	Sector:    "sector",
	Mixin:     "mixin",
	Fn:        "fn",
	Var:       "var",
	Const:     "const",
	Need:      "need",
	Handler:   "handler",
	Ctor:      "ctor",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("<invalid Kind %d>", k)
	}
	return kindNames[k]
}

// Symbol is one declaration recorded by the resolver: a type, sector, mixin,
// function, handler, variable, constant, need, or sum-type constructor.
type Symbol struct {
	ID    Id
	Kind  Kind
	Name  string
	Span  token.Span
	Owner Id // enclosing symbol (e.g. a handler's owning sector), or 0

	// Data carries kind-specific resolver payload (e.g. a sector's
	// SupervisorSpec, a ctor's field count) without coupling this package to
	// lang/ast.
	Data any
}

// Namespace names one of the four independent lookup tables a Scope keeps.
// A name in one namespace never shadows or conflicts with the same name in
// another: `type Counter` and `sector Counter` coexist.
type Namespace uint8

const (
	Values Namespace = iota
	Types
	Sectors
	Mixins
)

// Scope is one lexical level of name resolution: a module, a sector body, a
// function body, or a mixin body. Each namespace maps a name to the list of
// symbol ids declared under it in this scope, in declaration order. The
// resolver only adds a second entry for a name in its discard set, which may
// be re-declared in the same scope; any other repeated name, a function's
// included, is reported as a duplicate definition and keeps its first entry.
type Scope struct {
	parent  *Scope
	values  map[string][]Id
	types   map[string][]Id
	sectors map[string][]Id
	mixins  map[string][]Id
}

// NewRootScope returns a new scope with no parent, used for a module's
// top-level declarations.
func NewRootScope() *Scope {
	return &Scope{
		values:  map[string][]Id{},
		types:   map[string][]Id{},
		sectors: map[string][]Id{},
		mixins:  map[string][]Id{},
	}
}

// Child returns a new scope nested under s, used for a sector, function, or
// mixin body.
func (s *Scope) Child() *Scope {
	child := NewRootScope()
	child.parent = s
	return child
}

// Parent returns s's enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) table(ns Namespace) map[string][]Id {
	switch ns {
	case Types:
		return s.types
	case Sectors:
		return s.sectors
	case Mixins:
		return s.mixins
	default:
		return s.values
	}
}

// Define records a new binding for name in namespace ns of this scope.
func (s *Scope) Define(ns Namespace, name string, id Id) {
	table := s.table(ns)
	table[name] = append(table[name], id)
}

// LookupLocal returns the ids bound to name in namespace ns of this scope
// only, without walking to parent scopes.
func (s *Scope) LookupLocal(ns Namespace, name string) []Id {
	return s.table(ns)[name]
}

// Lookup returns the ids bound to name in namespace ns, walking outward
// through enclosing scopes until a non-empty binding is found.
func (s *Scope) Lookup(ns Namespace, name string) []Id {
	for sc := s; sc != nil; sc = sc.parent {
		if ids := sc.table(ns)[name]; len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// Table is the symbol store for one resolver run: every Symbol ever defined,
// indexed by Id.
type Table struct {
	syms []Symbol
}

// New returns a new, empty symbol table.
func New() *Table { return &Table{} }

// Declare adds sym to the table, assigning it the next Id, and returns that
// Id. Callers are expected to pass sym.ID as the zero value; Declare fills it
// in and returns the same value for convenience.
func (t *Table) Declare(sym Symbol) Id {
	id := Id(len(t.syms) + 1)
	sym.ID = id
	t.syms = append(t.syms, sym)
	return id
}

// Lookup returns the Symbol for id. It panics if id was never returned by
// Declare on this table, since that indicates a resolver bug rather than a
// recoverable user error.
func (t *Table) Lookup(id Id) Symbol {
	if id <= 0 || int(id) > len(t.syms) {
		panic(fmt.Sprintf("symbol: invalid id %d", id))
	}
	return t.syms[id-1]
}

// All returns every declared symbol, in declaration order.
func (t *Table) All() []Symbol {
	return t.syms
}
