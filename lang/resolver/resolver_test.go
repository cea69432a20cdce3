package resolver_test

import (
	"context"
	"testing"

	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResolve(t *testing.T, src string) (*resolver.Result, error) {
	t.Helper()
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.NoError(t, err)
	file := fset.File(prog.EOF)
	return resolver.Resolve(context.Background(), fset, file, prog, nil)
}

func TestResolveForwardReference(t *testing.T) {
	src := "fn a() -> Int = b()\nfn b() -> Int = 1\n"
	res, err := mustResolve(t, src)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Table.All(), 2+13) // two fns + seven primitive types + Result/Ok/Err + Option/Some/None
}

func TestResolveDuplicateTypeIsError(t *testing.T) {
	src := "type Meters = Float\ntype Meters = Int\n"
	_, err := mustResolve(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate type")
}

func TestResolveUndefinedNameIsError(t *testing.T) {
	_, err := mustResolve(t, "fn a() -> Int = missing()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined name")
}

func TestResolveDiscardNameMayRepeat(t *testing.T) {
	src := "fn a() -> Int = do:\n    let _ = 1\n    let _ = 2\n    return 0\n"
	_, err := mustResolve(t, src)
	assert.NoError(t, err)
}

func TestResolveDiscardNameNotReferenceable(t *testing.T) {
	src := "fn a() -> Int = do:\n    let _ = 1\n    return _\n"
	_, err := mustResolve(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discarded")
}

func TestResolveSumTypeConstructor(t *testing.T) {
	src := "type Opt = Some(Int) | None\nlet x = Some(1)\n"
	res, err := mustResolve(t, src)
	require.NoError(t, err)

	ids := res.Global.Lookup(symbol.Values, "Some")
	require.Len(t, ids, 1)
	assert.Equal(t, symbol.Ctor, res.Table.Lookup(ids[0]).Kind)
}

func TestResolveSynthesizesMainSectorForBareHandler(t *testing.T) {
	src := "on Tick -> do:\n    stop()\n"
	res, err := mustResolve(t, src)
	require.NoError(t, err)
	require.NotZero(t, res.MainSector)
	assert.Equal(t, symbol.Sector, res.Table.Lookup(res.MainSector).Kind)
}

func TestResolveSectorScopedNeedAndFn(t *testing.T) {
	src := `sector Counter:
    need config: {limit: Int}
    let count = 0
    fn bump() -> Int = count + 1
    on Event.Increment -> do:
        count = bump()
`
	res, err := mustResolve(t, src)
	require.NoError(t, err)

	ids := res.Global.Lookup(symbol.Sectors, "Counter")
	require.Len(t, ids, 1)

	scope, ok := res.SectorScopes[ids[0]]
	require.True(t, ok)
	assert.NotEmpty(t, scope.LookupLocal(symbol.Values, "config"))
	assert.NotEmpty(t, scope.LookupLocal(symbol.Values, "count"))
	assert.NotEmpty(t, scope.LookupLocal(symbol.Values, "bump"))
}

func TestResolveHandlerParamScopedToBody(t *testing.T) {
	src := `sector Counter:
    on Event.Reset(amount: Int) -> do:
        let n = amount
`
	_, err := mustResolve(t, src)
	assert.NoError(t, err)
}

func TestResolveMatchArmBindsPatternVar(t *testing.T) {
	src := "type Opt = Some(Int) | None\n" +
		"fn unwrap(o: Opt) -> Int = match o:\n" +
		"    when Some(n) -> n\n" +
		"    else -> 0\n"
	_, err := mustResolve(t, src)
	assert.NoError(t, err)
}

func TestResolveUndefinedSectorInCall(t *testing.T) {
	src := `sector A:
    on Event.Go -> do:
        let r = call B.handle(1)
`
	_, err := mustResolve(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined sector")
}
