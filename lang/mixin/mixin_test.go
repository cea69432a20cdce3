package mixin_test

import (
	"context"
	"testing"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/mixin"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) (*token.FileSet, *ast.Program) {
	t.Helper()
	fset := token.NewFileSet()
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, t.Name()+".flv", []byte(src))
	require.NoError(t, err)
	return fset, prog
}

func mustWeave(t *testing.T, src string) (*ast.Program, []mixin.HookPlanRow) {
	t.Helper()
	fset, prog := mustParse(t, src)
	woven, plan, err := mixin.Weave(context.Background(), fset, prog, nil)
	require.NoError(t, err)
	return woven, plan
}

func findSector(prog *ast.Program, name string) *ast.SectorDecl {
	for _, d := range prog.Decls {
		if s, ok := d.(*ast.SectorDecl); ok && s.Name.Name == name {
			return s
		}
	}
	return nil
}

func findFn(sec *ast.SectorDecl, name string) *ast.FnDecl {
	for _, fn := range sec.Fns {
		if fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

func TestWeaveNoUseIsNoop(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin Logging into sector Store:\n    around fn ping():\n        proceed()\n"
	_, prog := mustParse(t, src)
	woven, plan, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Same(t, prog, woven)
}

func TestWeaveAroundWrapsProceedIntoOrigCall(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin Logging into sector Store:\n    around fn ping():\n        return proceed()\n" +
		"use mixin Logging\n"
	woven, plan := mustWeave(t, src)

	require.Len(t, plan, 1)
	assert.Equal(t, "active", plan[0].Status)
	assert.Equal(t, "invoke", plan[0].Point)
	assert.Equal(t, "around", plan[0].Origin)

	sec := findSector(woven, "Store")
	require.NotNil(t, sec)
	fn := findFn(sec, "ping")
	require.NotNil(t, fn)

	do, ok := fn.Body.(*ast.DoExpr)
	require.True(t, ok, "around-wrapped fn body should be a do-block")
	require.Len(t, do.Body.Stmts, 1)
	ret, ok := do.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	call, ok := ret.X.(*ast.CallExpr)
	require.True(t, ok, "proceed() should have been rewritten into a direct call")
	callee, ok := call.Fun.(*ast.Ident)
	require.True(t, ok)
	assert.Contains(t, callee.Name, "__mixin_")
	assert.Contains(t, callee.Name, "_orig")

	var sawOrig bool
	for _, f := range sec.Fns {
		if f.Name.Name == callee.Name {
			sawOrig = true
		}
	}
	assert.True(t, sawOrig, "the mangled original implementation should be appended to the sector")
}

func TestWeaveHeadHookRunsBeforeAndForwardsProceed(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin Logging into sector Store:\n    hook head fn ping(n: Int) with(id = \"h1\") = do:\n        emit Noted()\n" +
		"use mixin Logging\n"
	woven, plan := mustWeave(t, src)
	require.Len(t, plan, 1)
	assert.Equal(t, "head", plan[0].Point)
	assert.Equal(t, "h1", plan[0].HookID)

	sec := findSector(woven, "Store")
	fn := findFn(sec, "ping")
	require.NotNil(t, fn)
	do := fn.Body.(*ast.DoExpr)
	require.Len(t, do.Body.Stmts, 2)

	_, isExprStmt := do.Body.Stmts[0].(*ast.ExprStmt)
	assert.True(t, isExprStmt, "a non-cancelable head hook calls its helper for effect only")
	ret, ok := do.Body.Stmts[1].(*ast.ReturnStmt)
	require.True(t, ok)
	_, ok = ret.X.(*ast.CallExpr)
	require.True(t, ok, "head hook should return proceed(...), rewritten to the orig call")

	var sawHelper bool
	for _, f := range sec.Fns {
		if f.Name.Name == "__hook_Logging_Store_ping_1_impl" {
			sawHelper = true
		}
	}
	assert.True(t, sawHelper)
}

func TestWeaveCancelableHeadHookSynthesizesMatch(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin Guard into sector Store:\n    hook head fn ping(n: Int) with(cancelable = true) = do:\n        return None\n" +
		"use mixin Guard\n"
	woven, _ := mustWeave(t, src)
	sec := findSector(woven, "Store")
	fn := findFn(sec, "ping")
	do := fn.Body.(*ast.DoExpr)
	require.Len(t, do.Body.Stmts, 2)

	_, isLet := do.Body.Stmts[0].(*ast.LetStmt)
	assert.True(t, isLet, "a cancelable head hook's choice is bound before being matched")

	ret := do.Body.Stmts[1].(*ast.ReturnStmt)
	match, ok := ret.X.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, match.Arms, 2)

	someArm := match.Arms[0]
	ctorCall, ok := someArm.Pattern.(*ast.CallExpr)
	require.True(t, ok)
	ctorIdent, ok := ctorCall.Fun.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "Some", ctorIdent.Name)

	elseArm := match.Arms[1]
	assert.True(t, elseArm.Else)
	_, ok = elseArm.Body.(*ast.CallExpr)
	assert.True(t, ok, "the else arm falls through to proceed(), rewritten to the orig call")
}

func TestWeaveTailHookReplaceReturnUsesHelperResult(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin Logging into sector Store:\n    hook tail fn ping(n: Int) with(returnDep = \"replace_return\") = do:\n        return 0\n" +
		"use mixin Logging\n"
	woven, _ := mustWeave(t, src)
	sec := findSector(woven, "Store")
	fn := findFn(sec, "ping")
	do := fn.Body.(*ast.DoExpr)
	require.Len(t, do.Body.Stmts, 3)

	letPrev, ok := do.Body.Stmts[0].(*ast.LetStmt)
	require.True(t, ok)
	_, ok = letPrev.Value.(*ast.CallExpr)
	require.True(t, ok, "tail hook binds proceed()'s result, rewritten to the orig call")

	letResult, ok := do.Body.Stmts[1].(*ast.LetStmt)
	require.True(t, ok)
	helperCall, ok := letResult.Value.(*ast.CallExpr)
	require.True(t, ok)
	callee := helperCall.Fun.(*ast.Ident)
	assert.Contains(t, callee.Name, "__hook_")

	ret := do.Body.Stmts[2].(*ast.ReturnStmt)
	retIdent, ok := ret.X.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, letResult.Name.Name, retIdent.Name)
}

func TestWeaveFnAddAmbiguousConflictErrors(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin A into sector Store:\n    fn extra() -> Int = 1\n" +
		"mixin B into sector Store:\n    fn extra() -> Int = 2\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous mixin conflict")
}

func TestWeavePreferResolvesFnAddConflict(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin A into sector Store:\n    fn extra() -> Int = 1\n" +
		"mixin B into sector Store:\n    fn extra() -> Int = 2\n" +
		"use mixin A\n" +
		"use mixin B\n" +
		"resolve mixin-conflict:\n    prefer A over B\n"
	woven, _ := mustWeave(t, src)
	sec := findSector(woven, "Store")
	fn := findFn(sec, "extra")
	require.NotNil(t, fn)
	lit, ok := fn.Body.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, int64(1), lit.Value.Int, "A was preferred over B, so its extra() body should win")
}

func TestWeaveCyclicPreferenceRejected(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin A into sector Store:\n    around fn ping():\n        proceed()\n" +
		"mixin B into sector Store:\n    around fn ping():\n        proceed()\n" +
		"use mixin A\n" +
		"use mixin B\n" +
		"resolve mixin-conflict:\n    prefer A over B\n    prefer B over A\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")
}

func TestWeaveDuplicateHookIDErrorsByDefault(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin A into sector Store:\n    hook head fn ping(n: Int) with(id = \"h1\") = do:\n        emit X()\n" +
		"mixin B into sector Store:\n    hook head fn ping(n: Int) with(id = \"h1\") = do:\n        emit Y()\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate hook id")
}

func TestWeaveDuplicateHookIDPreferPolicyPicksHigherPriority(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin A into sector Store:\n    hook head fn ping(n: Int) with(id = \"h1\", conflict = \"prefer\", priority = 1) = do:\n        emit Low()\n" +
		"mixin B into sector Store:\n    hook head fn ping(n: Int) with(id = \"h1\", conflict = \"prefer\", priority = 5) = do:\n        emit High()\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, plan := mustWeave(t, src)
	require.Len(t, plan, 2, "the plan records both the surviving and the dropped duplicate")
	var active, droppedRow *mixin.HookPlanRow
	for i := range plan {
		switch plan[i].Status {
		case "active":
			active = &plan[i]
		case "dropped":
			droppedRow = &plan[i]
		}
	}
	require.NotNil(t, active)
	require.NotNil(t, droppedRow)
	assert.Equal(t, 5, active.Priority)
	assert.Equal(t, "duplicate_hook_id", droppedRow.DropReason)
}

func TestWeaveHookDependencyOrdering(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin A into sector Store:\n    hook tail fn ping(n: Int) with(id = \"second\", depends = \"first\") = do:\n        emit A2()\n" +
		"mixin B into sector Store:\n    hook tail fn ping(n: Int) with(id = \"first\") = do:\n        emit A1()\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, plan := mustWeave(t, src)
	require.Len(t, plan, 2)
	statuses := map[string]string{}
	for _, row := range plan {
		statuses[row.HookID] = row.Status
	}
	assert.Equal(t, "active", statuses["first"])
	assert.Equal(t, "active", statuses["second"], "a satisfiable dependency chain should not drop either hook")
}

func TestWeaveHookCyclicDependencyRejected(t *testing.T) {
	src := "sector Store:\n    fn ping(n: Int) -> Int = n\n" +
		"mixin A into sector Store:\n    hook tail fn ping(n: Int) with(id = \"x\", depends = \"y\") = do:\n        emit X()\n" +
		"mixin B into sector Store:\n    hook tail fn ping(n: Int) with(id = \"y\", depends = \"x\") = do:\n        emit Y()\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic hook dependencies")
}

func TestWeaveTypeFieldAdd(t *testing.T) {
	src := "type Widget = { name: Str }\n" +
		"mixin Sized into Widget:\n    size: Int\n" +
		"use mixin Sized\n"
	woven, _ := mustWeave(t, src)
	var td *ast.TypeDecl
	for _, d := range woven.Decls {
		if t, ok := d.(*ast.TypeDecl); ok && t.Name.Name == "Widget" {
			td = t
		}
	}
	require.NotNil(t, td)
	require.NotNil(t, td.RHS.Record)
	var names []string
	for _, f := range td.RHS.Record.Fields {
		names = append(names, f.Name.Name)
	}
	assert.Contains(t, names, "name")
	assert.Contains(t, names, "size")
}

func TestWeaveTypeFieldAddAmbiguousConflictErrors(t *testing.T) {
	src := "type Widget = { name: Str }\n" +
		"mixin A into Widget:\n    size: Int\n" +
		"mixin B into Widget:\n    size: Str\n" +
		"use mixin A\n" +
		"use mixin B\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous mixin conflict")
}

func TestWeaveTypeMethodSynthesizedAndCallSiteRewritten(t *testing.T) {
	src := "type Account = { balance: Int }\n" +
		"mixin Ops into Account:\n    fn deposit(self: Account, amount: Int) -> Int = amount\n" +
		"use mixin Ops\n" +
		"sector Store:\n    fn run(acct: Account) -> Int = Account.deposit(acct, 5)\n"
	woven, _ := mustWeave(t, src)

	var synth *ast.FnDecl
	for _, d := range woven.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Name.Name == "__method__Account__deposit" {
			synth = fn
		}
	}
	require.NotNil(t, synth, "mixin fn item on a type target should synthesize a free function")

	sec := findSector(woven, "Store")
	fn := findFn(sec, "run")
	require.NotNil(t, fn)
	call, ok := fn.Body.(*ast.CallExpr)
	require.True(t, ok, "call site should remain a direct call after rewriting")
	callee, ok := call.Fun.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "__method__Account__deposit", callee.Name)
	require.Len(t, call.Args, 2)
	recv, ok := call.Args[0].Value.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "acct", recv.Name, "the receiver should be prepended as the first argument")
	amount, ok := call.Args[1].Value.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, int64(5), amount.Value.Int)
}

func TestWeaveTypeMethodMissingSelfParamErrors(t *testing.T) {
	src := "type Account = { balance: Int }\n" +
		"mixin Ops into Account:\n    fn deposit(amount: Int) -> Int = amount\n" +
		"use mixin Ops\n"
	_, prog := mustParse(t, src)
	_, _, err := mixin.Weave(context.Background(), token.NewFileSet(), prog, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self")
}

func TestWeaveTypeMethodAroundWrapsProceed(t *testing.T) {
	src := "type Account = { balance: Int }\n" +
		"mixin Ops into Account:\n    fn deposit(self: Account, amount: Int) -> Int = amount\n" +
		"mixin Audited into Account:\n    around fn deposit(self: Account, amount: Int):\n        return proceed()\n" +
		"use mixin Ops\n" +
		"use mixin Audited\n"
	woven, plan := mustWeave(t, src)
	require.Len(t, plan, 1)
	assert.Equal(t, "type", plan[0].OwnerKind)
	assert.Equal(t, "Account", plan[0].Owner)

	var synth *ast.FnDecl
	for _, d := range woven.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Name.Name == "__method__Account__deposit" {
			synth = fn
		}
	}
	require.NotNil(t, synth)
	do, ok := synth.Body.(*ast.DoExpr)
	require.True(t, ok, "around-wrapped method body should be a do-block")
	ret, ok := do.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	_, ok = ret.X.(*ast.CallExpr)
	require.True(t, ok, "proceed() should have been rewritten into a direct call")
}

func TestWeaveDropsMixinDeclsFromOutput(t *testing.T) {
	src := "sector Store:\n    fn ping() -> Int = 1\n" +
		"mixin Logging into sector Store:\n    around fn ping():\n        proceed()\n" +
		"use mixin Logging\n"
	woven, _ := mustWeave(t, src)
	for _, d := range woven.Decls {
		switch d.(type) {
		case *ast.MixinDecl, *ast.UseMixinStmt, *ast.ResolveMixinStmt:
			t.Fatalf("woven program should not retain mixin-surface declarations, found %T", d)
		}
	}
}
