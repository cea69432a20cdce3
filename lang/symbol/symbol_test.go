package symbol_test

import (
	"testing"

	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeNamespacesAreIndependent(t *testing.T) {
	root := symbol.NewRootScope()
	root.Define(symbol.Types, "Counter", 1)
	root.Define(symbol.Sectors, "Counter", 2)

	assert.Equal(t, []symbol.Id{1}, root.Lookup(symbol.Types, "Counter"))
	assert.Equal(t, []symbol.Id{2}, root.Lookup(symbol.Sectors, "Counter"))
	assert.Empty(t, root.Lookup(symbol.Values, "Counter"))
}

func TestScopeLookupWalksParents(t *testing.T) {
	root := symbol.NewRootScope()
	root.Define(symbol.Values, "x", 1)

	child := root.Child()
	child.Define(symbol.Values, "y", 2)

	assert.Equal(t, []symbol.Id{1}, child.Lookup(symbol.Values, "x"))
	assert.Empty(t, child.LookupLocal(symbol.Values, "x"))
	assert.Equal(t, []symbol.Id{2}, child.Lookup(symbol.Values, "y"))
	assert.Empty(t, root.Lookup(symbol.Values, "y"))
}

func TestScopeShadowing(t *testing.T) {
	root := symbol.NewRootScope()
	root.Define(symbol.Values, "x", 1)

	child := root.Child()
	child.Define(symbol.Values, "x", 2)

	assert.Equal(t, []symbol.Id{2}, child.Lookup(symbol.Values, "x"))
	assert.Equal(t, []symbol.Id{1}, root.Lookup(symbol.Values, "x"))
}

func TestTableDeclareAndLookup(t *testing.T) {
	tbl := symbol.New()
	id := tbl.Declare(symbol.Symbol{
		Kind: symbol.Sector,
		Name: "Counter",
		Span: token.Span{File: "m.flv", StartByte: 0, EndByte: 7, Line: 1, Column: 1},
	})

	sym := tbl.Lookup(id)
	assert.Equal(t, "Counter", sym.Name)
	assert.Equal(t, symbol.Sector, sym.Kind)
	assert.Equal(t, id, sym.ID)
	require.Len(t, tbl.All(), 1)
}

func TestTableLookupInvalidIdPanics(t *testing.T) {
	tbl := symbol.New()
	assert.Panics(t, func() { tbl.Lookup(99) })
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sector", symbol.Sector.String())
	assert.Equal(t, "handler", symbol.Handler.String())
}
