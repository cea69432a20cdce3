package lower_test

import (
	"context"
	"testing"

	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/lower"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLower(t *testing.T, src string) (*hir.Program, error) {
	t.Helper()
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.NoError(t, err)
	file := fset.File(prog.EOF)
	res, err := resolver.Resolve(context.Background(), fset, file, prog, nil)
	require.NoError(t, err)
	return lower.Lower(context.Background(), file, prog, res)
}

func TestLowerFreeFunction(t *testing.T) {
	out, err := mustLower(t, "fn add(a: Int, b: Int) -> Int = a + b\n")
	require.NoError(t, err)
	require.Len(t, out.Fns, 1)

	fn := out.Fns[0]
	assert.Zero(t, fn.OwnerSector)
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Body.Stmts, 1)

	ret, ok := fn.Body.Stmts[0].(*hir.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*hir.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, hir.BinAdd, bin.Op)
}

func TestLowerConstInitializer(t *testing.T) {
	out, err := mustLower(t, "const Limit: Int = 10\n")
	require.NoError(t, err)
	require.Len(t, out.Consts, 1)
	lit, ok := out.Consts[0].Expr.(*hir.LitExpr)
	require.True(t, ok)
	assert.Equal(t, hir.LitInt, lit.Lit.Kind)
	assert.Equal(t, int64(10), lit.Lit.Value)
}

func TestLowerNeedDeclHasNoInitializerExpr(t *testing.T) {
	src := "sector Store:\n    need db: {url: Str}\n    fn ping() -> Int = 1\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)
	require.Len(t, out.Sectors, 1)
	require.Len(t, out.Sectors[0].Needs, 1)
	_, ok := out.Sectors[0].Needs[0].Expr.(*hir.UndefExpr)
	assert.True(t, ok)
}

func TestLowerSectorConstFoldsIntoLets(t *testing.T) {
	src := "sector Store:\n    const Cap: Int = 5\n    let count = 0\n    fn ping() -> Int = 1\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)
	require.Len(t, out.Sectors, 1)
	assert.Len(t, out.Sectors[0].Lets, 2)
}

func TestLowerTrySuffixResultMode(t *testing.T) {
	src := "fn get() -> Result = Ok(1)\n" +
		"fn wrap() -> Result = do:\n" +
		"    let v = get()?\n" +
		"    return Ok(v)\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)

	var use *hir.FnDecl
	for _, fn := range out.Fns {
		if len(fn.Body.Stmts) > 1 {
			use = fn
		}
	}
	require.NotNil(t, use)

	var sawMatch bool
	for _, s := range use.Body.Stmts {
		if _, ok := s.(*hir.MatchStmt); ok {
			sawMatch = true
		}
	}
	assert.True(t, sawMatch, "try-suffix should desugar into a MatchStmt over Ok/Err")
}

func TestLowerTrySuffixForbiddenInConstInitializer(t *testing.T) {
	src := "fn get() -> Result = Ok(1)\n" +
		"const V: Int = get()?\n"
	_, err := mustLower(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "try-suffix not valid")
}

func TestLowerPipeDesugarsToCall(t *testing.T) {
	src := "fn inc(x: Int) -> Int = x + 1\n" +
		"fn piped() -> Int = 1 |> inc()\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)

	var run *hir.FnDecl
	for _, fn := range out.Fns {
		if len(fn.Params) == 0 {
			run = fn
		}
	}
	require.NotNil(t, run)
	ret := run.Body.Stmts[0].(*hir.ReturnStmt)
	call, ok := ret.Value.(*hir.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	_, ok = call.Args[0].(*hir.CallArgPos)
	assert.True(t, ok)
}

func TestLowerMatchExprSimpleArmsNoHoist(t *testing.T) {
	src := "type Opt = Some(Int) | None\n" +
		"fn unwrap(o: Opt) -> Int = match o:\n" +
		"    when Some(n) -> n\n" +
		"    else -> 0\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)

	fn := out.Fns[0]
	ret := fn.Body.Stmts[0].(*hir.ReturnStmt)
	match, ok := ret.Value.(*hir.MatchExpr)
	require.True(t, ok)
	require.Len(t, match.Arms, 2)
	_, isWildcard := match.Arms[1].Pat.(*hir.PWildcard)
	assert.True(t, isWildcard)
}

func TestLowerMatchExprBlockArmHoists(t *testing.T) {
	src := "type Opt = Some(Int) | None\n" +
		"fn unwrap(o: Opt) -> Int = match o:\n" +
		"    when Some(n) -> do:\n" +
		"        let m = n + 1\n" +
		"        m\n" +
		"    else -> 0\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)

	fn := out.Fns[0]
	require.True(t, len(fn.Body.Stmts) > 1, "a hoisted match needs pre-statements before the return")

	var sawMatchStmt bool
	for _, s := range fn.Body.Stmts {
		if _, ok := s.(*hir.MatchStmt); ok {
			sawMatchStmt = true
		}
	}
	assert.True(t, sawMatchStmt)
}

func TestLowerArrayLiteralRejected(t *testing.T) {
	_, err := mustLower(t, "const Xs: Int = [1, 2, 3]\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array literals")
}

func TestLowerHandlerBindsEventAndPayload(t *testing.T) {
	src := "type Event = Tick(Int) | Reset\n" +
		"on Event.Tick(n) -> do:\n" +
		"    stop()\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)
	require.Len(t, out.Sectors, 1)
	require.Len(t, out.Sectors[0].Handlers, 1)

	h := out.Sectors[0].Handlers[0]
	assert.NotZero(t, h.EventType)
	assert.NotZero(t, h.Binder)
}

func TestLowerHandlerDiscardedPayloadHasNoBinder(t *testing.T) {
	src := "type Event = Tick(Int)\n" +
		"on Event.Tick(_) -> do:\n" +
		"    stop()\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)
	h := out.Sectors[0].Handlers[0]
	assert.Zero(t, h.Binder)
}

func TestLowerPatternAliasResolvesToTarget(t *testing.T) {
	src := "type Opt = Some(Int) | None\n" +
		"pattern Nothing = None\n" +
		"fn unwrap(o: Opt) -> Int = match o:\n" +
		"    when Some(n) -> n\n" +
		"    when Nothing -> 0\n"
	out, err := mustLower(t, src)
	require.NoError(t, err)

	fn := out.Fns[0]
	ret := fn.Body.Stmts[0].(*hir.ReturnStmt)
	match, ok := ret.Value.(*hir.MatchExpr)
	require.True(t, ok)
	require.Len(t, match.Arms, 2)
	ctor, ok := match.Arms[1].Pat.(*hir.PCtor)
	require.True(t, ok, "a pattern alias for a nullary constructor should resolve to PCtor, not a fresh binding")
	assert.NotZero(t, ctor.Ctor)
}

func TestLowerPatternAliasCycleRejected(t *testing.T) {
	src := "pattern A = B\n" +
		"pattern B = A\n" +
		"fn f(x: Int) -> Int = match x:\n" +
		"    when A -> 1\n" +
		"    else -> 0\n"
	_, err := mustLower(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined in terms of itself")
}
