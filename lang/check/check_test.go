package check_test

import (
	"context"
	"testing"

	"github.com/oranpie/flavent/lang/check"
	"github.com/oranpie/flavent/lang/lower"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/require"
)

func mustCheck(t *testing.T, src string) error {
	t.Helper()
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.NoError(t, err)
	file := fset.File(prog.EOF)
	res, err := resolver.Resolve(context.Background(), fset, file, prog, nil)
	require.NoError(t, err)
	hirProg, err := lower.Lower(context.Background(), file, prog, res)
	require.NoError(t, err)
	return check.Check(hirProg, res)
}

func TestCheckFreeFunctionArithmetic(t *testing.T) {
	err := mustCheck(t, "fn add(a: Int, b: Int) -> Int = a + b\n")
	require.NoError(t, err)
}

func TestCheckReturnTypeMismatchIsError(t *testing.T) {
	err := mustCheck(t, "fn bad() -> Int = \"oops\"\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

func TestCheckRecordFieldAccess(t *testing.T) {
	src := "type Point = {x: Int, y: Int}\n" +
		"fn getX(p: Point) -> Int = p.x\n"
	require.NoError(t, mustCheck(t, src))
}

func TestCheckRecordLiteralMissingFieldIsError(t *testing.T) {
	src := "type Point = {x: Int, y: Int}\n" +
		"fn origin() -> Point = {x: 0}\n"
	err := mustCheck(t, src)
	require.Error(t, err)
}

func TestCheckRecordLiteralContextuallyTyped(t *testing.T) {
	src := "type Point = {x: Int, y: Int}\n" +
		"fn origin() -> Point = {x: 0, y: 0}\n"
	require.NoError(t, mustCheck(t, src))
}

func TestCheckOkErrAgainstExplicitResultType(t *testing.T) {
	src := `fn safeDiv(a: Int, b: Int) -> Result[Int, Str] = match b == 0:
    when true -> Err("div by zero")
    else -> Ok(a)
`
	require.NoError(t, mustCheck(t, src))
}

func TestCheckSomeNoneAgainstExplicitOptionType(t *testing.T) {
	src := `fn find(x: Int) -> Option[Int] = match x == 0:
    when true -> None
    else -> Some(x)
`
	require.NoError(t, mustCheck(t, src))
}

func TestCheckEmitOutsideSectorIsError(t *testing.T) {
	src := "type Event = Ping | Pong\n" +
		"fn bad() -> Int = do:\n" +
		"    emit Ping()\n" +
		"    return 0\n"
	err := mustCheck(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "emit outside sector")
}

func TestCheckSectorHandlerEmitValidEvent(t *testing.T) {
	src := "type Event = Ping | Pong\n" +
		"sector Counter:\n" +
		"    on Event.Ping -> do:\n" +
		"        emit Pong()\n"
	require.NoError(t, mustCheck(t, src))
}

func TestCheckForOutsideSectorIsError(t *testing.T) {
	src := "fn bad() -> Int = do:\n" +
		"    for x in 0:\n" +
		"        stop()\n" +
		"    return 0\n"
	err := mustCheck(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "for outside sector")
}

func TestCheckSectorFnDirectCallWithinSector(t *testing.T) {
	src := `sector Counter:
    need config: {limit: Int}
    let count = 0
    fn bump() -> Int = count + 1
    on Event.Increment -> do:
        count = bump()
`
	require.NoError(t, mustCheck(t, src))
}

func TestCheckCrossSectorCallViaRpc(t *testing.T) {
	src := `sector A:
    fn ping() -> Int = 1

sector B:
    on Event.Tick -> do:
        let r = rpc A.ping()
        stop()
`
	require.NoError(t, mustCheck(t, src))
}

func TestCheckMatchArmBindsPatternVariable(t *testing.T) {
	src := "type Opt = Some(Int) | None\n" +
		"fn unwrap(o: Opt) -> Int = match o:\n" +
		"    when Some(n) -> n\n" +
		"    else -> 0\n"
	require.NoError(t, mustCheck(t, src))
}
