package parser_test

import (
	"context"
	"testing"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	fset := token.NewFileSet()
	_, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	return err
}

func TestParseTypeDecl(t *testing.T) {
	t.Run("alias", func(t *testing.T) {
		prog := parse(t, "type Meters = Float\n")
		require.Len(t, prog.Decls, 1)
		td := prog.Decls[0].(*ast.TypeDecl)
		assert.Equal(t, "Meters", td.Name.Name)
		require.NotNil(t, td.RHS.Alias)
		tn := td.RHS.Alias.Type.(*ast.TypeName)
		assert.Equal(t, "Float", tn.Name.Name)
	})

	t.Run("generic alias", func(t *testing.T) {
		prog := parse(t, "type Pair = Tuple[Int, Int]\n")
		td := prog.Decls[0].(*ast.TypeDecl)
		tn := td.RHS.Alias.Type.(*ast.TypeName)
		assert.Equal(t, "Tuple", tn.Name.Name)
		assert.Len(t, tn.Args, 2)
	})

	t.Run("sum type", func(t *testing.T) {
		prog := parse(t, "type Shape = Circle(Float) | Square(Float) | Point\n")
		td := prog.Decls[0].(*ast.TypeDecl)
		require.NotNil(t, td.RHS.Sum)
		require.Len(t, td.RHS.Sum.Variants, 3)
		assert.Equal(t, "Circle", td.RHS.Sum.Variants[0].Name.Name)
		assert.Len(t, td.RHS.Sum.Variants[0].Fields, 1)
		assert.Equal(t, "Point", td.RHS.Sum.Variants[2].Name.Name)
		assert.Empty(t, td.RHS.Sum.Variants[2].Fields)
	})

	t.Run("record", func(t *testing.T) {
		prog := parse(t, "type Point = {x: Int, y: Int}\n")
		td := prog.Decls[0].(*ast.TypeDecl)
		require.NotNil(t, td.RHS.Record)
		require.Len(t, td.RHS.Record.Fields, 2)
		assert.Equal(t, "x", td.RHS.Record.Fields[0].Name.Name)
		assert.Equal(t, "y", td.RHS.Record.Fields[1].Name.Name)
	})
}

func TestParseConstAndLet(t *testing.T) {
	prog := parse(t, "const MaxRetries: Int = 3\nlet greeting = \"hi\"\n")
	require.Len(t, prog.Decls, 2)

	cd := prog.Decls[0].(*ast.ConstDecl)
	assert.Equal(t, "MaxRetries", cd.Name.Name)
	require.NotNil(t, cd.Type)

	ld := prog.Decls[1].(*ast.LetStmt)
	assert.Equal(t, "greeting", ld.Name.Name)
	lit := ld.Value.(*ast.LiteralExpr)
	assert.Equal(t, token.STRING, lit.Tok)
	assert.Equal(t, "hi", lit.Value.String)
}

func TestParseFnDecl(t *testing.T) {
	t.Run("single-line body", func(t *testing.T) {
		prog := parse(t, "fn double(x: Int) -> Int = x * 2\n")
		fn := prog.Decls[0].(*ast.FnDecl)
		assert.Equal(t, "double", fn.Name.Name)
		assert.Len(t, fn.Sig.Params, 1)
		assert.False(t, fn.IsBlockBody())
	})

	t.Run("do block body", func(t *testing.T) {
		prog := parse(t, "fn greet(name: String) -> String = do:\n    let msg = name\n    return msg\n")
		fn := prog.Decls[0].(*ast.FnDecl)
		assert.True(t, fn.IsBlockBody())
		doExpr := fn.Body.(*ast.DoExpr)
		require.Len(t, doExpr.Body.Stmts, 2)
	})

	t.Run("default param", func(t *testing.T) {
		prog := parse(t, "fn scale(x: Int, factor: Int = 1) -> Int = x * factor\n")
		fn := prog.Decls[0].(*ast.FnDecl)
		require.Len(t, fn.Sig.Params, 2)
		require.NotNil(t, fn.Sig.Params[1].Default)
	})
}

func TestParseRunMarker(t *testing.T) {
	prog := parse(t, "fn main() -> Int = 0\nrun()\n")
	assert.NotEqual(t, token.NoPos, prog.Run)
}

func TestParseMatchExpr(t *testing.T) {
	src := `fn describe(x: Int) -> String = match x:
    when 0 -> "zero"
    when n if n > 0 -> do:
        let s = "pos"
        return s
    else -> "neg"
`
	prog := parse(t, src)
	fn := prog.Decls[0].(*ast.FnDecl)
	m := fn.Body.(*ast.MatchExpr)
	require.Len(t, m.Arms, 3)
	assert.Nil(t, m.Arms[0].Guard)
	require.NotNil(t, m.Arms[1].Guard)
	_, isDoBody := m.Arms[1].Body.(*ast.DoExpr)
	assert.True(t, isDoBody)
}

func TestParseSectorDecl(t *testing.T) {
	src := `sector Counter:
    supervise: one_for_one, max_restarts: 3
    need config: {limit: Int}
    let count = 0
    on Event.Increment -> do:
        count = count + 1
    on Event.Reset(amount: Int) -> do:
        count = amount
`
	prog := parse(t, src)
	sec := prog.Decls[0].(*ast.SectorDecl)
	assert.Equal(t, "Counter", sec.Name.Name)
	require.NotNil(t, sec.Supervisor)
	assert.Equal(t, "one_for_one", sec.Supervisor.Strategy.Name)
	require.NotNil(t, sec.Supervisor.MaxRestarts)
	require.Len(t, sec.Needs, 1)
	require.Len(t, sec.Lets, 1)
	require.Len(t, sec.Handlers, 2)
	assert.Nil(t, sec.Handlers[0].Sig)
	require.NotNil(t, sec.Handlers[1].Sig)
	assert.Len(t, sec.Handlers[1].Sig.Params, 1)
}

func TestParseMixinDecl(t *testing.T) {
	src := `mixin Loud v2 into Greeter:
    volume: Int
    fn shout(x: String) -> String = x
    around fn greet(name: String) -> String:
        let r = proceed(name)
        return r
    hook head fn log(name: String) -> String with(id = "log", priority = 10) = name
`
	prog := parse(t, src)
	m := prog.Decls[0].(*ast.MixinDecl)
	assert.Equal(t, "Loud", m.Name.Name)
	require.NotNil(t, m.Version)
	assert.Equal(t, "v2", m.Version.Name)
	tgt := m.Target.(*ast.MixinTargetType)
	assert.Equal(t, "Greeter", tgt.Name.Name)

	require.Len(t, m.Items, 4)
	require.NotNil(t, m.Items[0].Field)
	assert.Equal(t, "volume", m.Items[0].Field.Name.Name)
	require.NotNil(t, m.Items[1].Fn)
	assert.Equal(t, "shout", m.Items[1].Fn.Name.Name)
	require.NotNil(t, m.Items[2].Around)
	assert.Equal(t, "greet", m.Items[2].Around.Name.Name)
	require.NotNil(t, m.Items[3].Hook)
	assert.Equal(t, "head", m.Items[3].Hook.Point.Name)
	require.Len(t, m.Items[3].Hook.Options, 2)
	assert.Equal(t, "id", m.Items[3].Hook.Options[0].Name.Name)
}

func TestParseMixinIntoSector(t *testing.T) {
	prog := parse(t, "mixin Logged into sector Counter:\n    fn audit() -> Int = 0\n")
	m := prog.Decls[0].(*ast.MixinDecl)
	tgt := m.Target.(*ast.MixinTargetSector)
	assert.Equal(t, "Counter", tgt.Name.Name)
}

func TestParseUseStmt(t *testing.T) {
	prog := parse(t, "use \"stdlib/time\" as clock\n")
	u := prog.Decls[0].(*ast.UseStmt)
	assert.Equal(t, "stdlib/time", u.Path.Value.String)
	require.NotNil(t, u.As)
	assert.Equal(t, "clock", u.As.Name)
}

func TestParseUseMixinStmt(t *testing.T) {
	prog := parse(t, "use mixin Loud\n")
	u := prog.Decls[0].(*ast.UseMixinStmt)
	assert.Equal(t, "Loud", u.Name.Parts[0].Name)
}

func TestParseResolveMixinStmt(t *testing.T) {
	src := "resolve mixin-conflict:\n    prefer Loud v2 over Quiet v1\n    prefer A over B\n"
	prog := parse(t, src)
	r := prog.Decls[0].(*ast.ResolveMixinStmt)
	require.Len(t, r.Rules, 2)

	first := r.Rules[0]
	assert.Equal(t, "Loud", first.Winner.Name)
	require.NotNil(t, first.WinnerVersion)
	assert.Equal(t, "v2", first.WinnerVersion.Name)
	assert.Equal(t, "Quiet", first.Loser.Name)
	require.NotNil(t, first.LoserVersion)
	assert.Equal(t, "v1", first.LoserVersion.Name)

	second := r.Rules[1]
	assert.Nil(t, second.WinnerVersion)
	assert.Nil(t, second.LoserVersion)
}

func TestParsePatternDecl(t *testing.T) {
	prog := parse(t, "pattern Zero = 0\n")
	pd := prog.Decls[0].(*ast.PatternDecl)
	assert.Equal(t, "Zero", pd.Name.Name)
}

func TestParseStopStmt(t *testing.T) {
	src := `sector S:
    on Event.Done -> do:
        stop()
`
	prog := parse(t, src)
	sec := prog.Decls[0].(*ast.SectorDecl)
	doExpr := sec.Handlers[0].Body.(*ast.DoExpr)
	require.Len(t, doExpr.Body.Stmts, 1)
	_, ok := doExpr.Body.Stmts[0].(*ast.StopStmt)
	assert.True(t, ok)
}

func TestParseErrorRecovery(t *testing.T) {
	src := "type = \nfn ok() -> Int = 1\n"
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.Error(t, err)
	require.Len(t, prog.Decls, 2)
	_, isBad := prog.Decls[0].(*ast.BadDecl)
	assert.True(t, isBad)
	fn, isFn := prog.Decls[1].(*ast.FnDecl)
	require.True(t, isFn)
	assert.Equal(t, "ok", fn.Name.Name)
}

func TestParseErrorUnterminatedType(t *testing.T) {
	err := parseErr(t, "type Foo = (\n")
	require.Error(t, err)
}
