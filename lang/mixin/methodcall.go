package mixin

import "github.com/oranpie/flavent/lang/ast"

// synthMethodName returns the synthesized free-function name for a record
// type's mixin-added method, e.g. synthMethodName("Account", "deposit") ==
// "__method__Account__deposit".
func synthMethodName(typeName, methodName string) string {
	return "__method__" + typeName + "__" + methodName
}

// rewriteTypeMethodCallsExpr rewrites every `Type.method(obj, args...)` call
// reachable from e, where "Type.method" is a key of fns, into a call of
// fns["Type.method"] with obj prepended to args. This is a purely syntactic
// rewrite: it does not check that obj actually has type Type, matching the
// weaver's other call-site rewrites (proceed()) in not depending on
// lang/check.
//
// Grounded on original_source/flavent/resolve.py's
// _rewrite_type_method_calls_in_expr.
func rewriteTypeMethodCallsExpr(e ast.Expr, fns map[string]string) ast.Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *ast.CallExpr:
		if m, ok := x.Fun.(*ast.MemberExpr); ok {
			if recv, ok := m.X.(*ast.Ident); ok {
				if synth, ok := fns[recv.Name+"."+m.Name.Name]; ok {
					args := make([]*ast.Arg, 0, len(x.Args)+1)
					args = append(args, &ast.Arg{Value: recv})
					for _, a := range x.Args {
						args = append(args, &ast.Arg{Name: a.Name, Eq: a.Eq, Spread: a.Spread, Double: a.Double, Value: rewriteTypeMethodCallsExpr(a.Value, fns)})
					}
					return &ast.CallExpr{Fun: &ast.Ident{Name: synth}, Lparen: x.Lparen, Rparen: x.Rparen, Args: args, Commas: x.Commas}
				}
			}
		}
		return &ast.CallExpr{Fun: rewriteTypeMethodCallsExpr(x.Fun, fns), Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteTypeMethodCallsArgs(x.Args, fns), Commas: x.Commas}
	case *ast.MemberExpr:
		return &ast.MemberExpr{X: rewriteTypeMethodCallsExpr(x.X, fns), Dot: x.Dot, Name: x.Name}
	case *ast.IndexExpr:
		return &ast.IndexExpr{X: rewriteTypeMethodCallsExpr(x.X, fns), Lbrack: x.Lbrack, Rbrack: x.Rbrack, Index: rewriteTypeMethodCallsExpr(x.Index, fns)}
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{OpPos: x.OpPos, Op: x.Op, X: rewriteTypeMethodCallsExpr(x.X, fns)}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{X: rewriteTypeMethodCallsExpr(x.X, fns), OpPos: x.OpPos, Op: x.Op, Y: rewriteTypeMethodCallsExpr(x.Y, fns)}
	case *ast.PipeExpr:
		return &ast.PipeExpr{X: rewriteTypeMethodCallsExpr(x.X, fns), PipePos: x.PipePos, Stage: rewriteTypeMethodCallsExpr(x.Stage, fns)}
	case *ast.TupleExpr:
		elems := make([]ast.Expr, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = rewriteTypeMethodCallsExpr(el, fns)
		}
		return &ast.TupleExpr{Lparen: x.Lparen, Rparen: x.Rparen, Elems: elems, Commas: x.Commas}
	case *ast.RecordExpr:
		fields := make([]*ast.RecordField, len(x.Fields))
		for i, fl := range x.Fields {
			fields[i] = &ast.RecordField{Name: fl.Name, Colon: fl.Colon, Value: rewriteTypeMethodCallsExpr(fl.Value, fns)}
		}
		return &ast.RecordExpr{Lbrace: x.Lbrace, Rbrace: x.Rbrace, Fields: fields, Commas: x.Commas}
	case *ast.MatchExpr:
		arms := make([]*ast.MatchArm, len(x.Arms))
		for i, a := range x.Arms {
			arms[i] = &ast.MatchArm{WhenPos: a.WhenPos, Else: a.Else, Pattern: a.Pattern, Guard: a.Guard, Arrow: a.Arrow, Body: rewriteTypeMethodCallsExpr(a.Body, fns)}
		}
		return &ast.MatchExpr{MatchPos: x.MatchPos, X: rewriteTypeMethodCallsExpr(x.X, fns), Colon: x.Colon, Arms: arms}
	case *ast.TrySuffixExpr:
		return &ast.TrySuffixExpr{X: rewriteTypeMethodCallsExpr(x.X, fns), QmarkPos: x.QmarkPos}
	case *ast.RpcExpr:
		return &ast.RpcExpr{RpcPos: x.RpcPos, Target: x.Target, Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteTypeMethodCallsArgs(x.Args, fns), Commas: x.Commas}
	case *ast.CallSectorExpr:
		return &ast.CallSectorExpr{CallPos: x.CallPos, Target: x.Target, Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteTypeMethodCallsArgs(x.Args, fns), Commas: x.Commas}
	case *ast.AwaitExpr:
		return &ast.AwaitExpr{AwaitPos: x.AwaitPos, X: rewriteTypeMethodCallsExpr(x.X, fns)}
	case *ast.DoExpr:
		return &ast.DoExpr{DoPos: x.DoPos, Colon: x.Colon, Body: rewriteTypeMethodCallsBlock(x.Body, fns)}
	default:
		return e
	}
}

func rewriteTypeMethodCallsArgs(args []*ast.Arg, fns map[string]string) []*ast.Arg {
	out := make([]*ast.Arg, len(args))
	for i, a := range args {
		out[i] = &ast.Arg{Name: a.Name, Eq: a.Eq, Spread: a.Spread, Double: a.Double, Value: rewriteTypeMethodCallsExpr(a.Value, fns)}
	}
	return out
}

func rewriteTypeMethodCallsStmt(s ast.Stmt, fns map[string]string) ast.Stmt {
	switch x := s.(type) {
	case *ast.ExprStmt:
		return &ast.ExprStmt{X: rewriteTypeMethodCallsExpr(x.X, fns)}
	case *ast.LetStmt:
		return &ast.LetStmt{LetPos: x.LetPos, Name: x.Name, Colon: x.Colon, Type: x.Type, Eq: x.Eq, Value: rewriteTypeMethodCallsExpr(x.Value, fns)}
	case *ast.AssignStmt:
		return &ast.AssignStmt{Left: x.Left, OpPos: x.OpPos, Op: x.Op, Right: rewriteTypeMethodCallsExpr(x.Right, fns)}
	case *ast.ForInStmt:
		return &ast.ForInStmt{ForPos: x.ForPos, Var: x.Var, InPos: x.InPos, Iter: rewriteTypeMethodCallsExpr(x.Iter, fns), Colon: x.Colon, Body: rewriteTypeMethodCallsBlock(x.Body, fns)}
	case *ast.IfStmt:
		return rewriteTypeMethodCallsIf(x, fns)
	case *ast.ReturnStmt:
		if x.X == nil {
			return x
		}
		return &ast.ReturnStmt{ReturnPos: x.ReturnPos, X: rewriteTypeMethodCallsExpr(x.X, fns)}
	case *ast.EmitStmt:
		return &ast.EmitStmt{EmitPos: x.EmitPos, Event: rewriteTypeMethodCallsExpr(x.Event, fns)}
	default:
		return s
	}
}

func rewriteTypeMethodCallsIf(x *ast.IfStmt, fns map[string]string) *ast.IfStmt {
	out := &ast.IfStmt{IfPos: x.IfPos, Cond: rewriteTypeMethodCallsExpr(x.Cond, fns), Colon: x.Colon, Then: rewriteTypeMethodCallsBlock(x.Then, fns), ElsePos: x.ElsePos}
	if x.ElseIf != nil {
		out.ElseIf = rewriteTypeMethodCallsIf(x.ElseIf, fns)
	}
	if x.Else != nil {
		out.Else = rewriteTypeMethodCallsBlock(x.Else, fns)
	}
	return out
}

func rewriteTypeMethodCallsBlock(b *ast.Block, fns map[string]string) *ast.Block {
	if b == nil {
		return nil
	}
	stmts := make([]ast.Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = rewriteTypeMethodCallsStmt(s, fns)
	}
	return &ast.Block{Start: b.Start, End: b.End, Stmts: stmts}
}

// rewriteTypeMethodCallsInDecls rewrites every `Type.method(...)` call site
// reachable from decls, across top-level fns/lets/consts and every sector's
// fns/handlers/lets/consts. Called once, after every mixin target has been
// woven, so a call site can reach a method synthesized by a mixin on a type
// declared anywhere in the program, not just ones local to the same sector.
func rewriteTypeMethodCallsInDecls(decls []ast.Decl, fns map[string]string) []ast.Decl {
	if len(fns) == 0 {
		return decls
	}
	out := make([]ast.Decl, len(decls))
	for i, d := range decls {
		out[i] = rewriteTypeMethodCallsInDecl(d, fns)
	}
	return out
}

func rewriteTypeMethodCallsInDecl(d ast.Decl, fns map[string]string) ast.Decl {
	switch decl := d.(type) {
	case *ast.FnDecl:
		out := *decl
		out.Body = rewriteTypeMethodCallsExpr(decl.Body, fns)
		return &out
	case *ast.LetStmt:
		out := *decl
		out.Value = rewriteTypeMethodCallsExpr(decl.Value, fns)
		return &out
	case *ast.ConstDecl:
		out := *decl
		out.Value = rewriteTypeMethodCallsExpr(decl.Value, fns)
		return &out
	case *ast.SectorDecl:
		newFns := make([]*ast.FnDecl, len(decl.Fns))
		for i, fn := range decl.Fns {
			nf := *fn
			nf.Body = rewriteTypeMethodCallsExpr(fn.Body, fns)
			newFns[i] = &nf
		}
		newHandlers := make([]*ast.OnHandler, len(decl.Handlers))
		for i, h := range decl.Handlers {
			nh := *h
			nh.Body = rewriteTypeMethodCallsExpr(h.Body, fns)
			newHandlers[i] = &nh
		}
		newLets := make([]*ast.LetStmt, len(decl.Lets))
		for i, l := range decl.Lets {
			nl := *l
			nl.Value = rewriteTypeMethodCallsExpr(l.Value, fns)
			newLets[i] = &nl
		}
		newConsts := make([]*ast.ConstDecl, len(decl.Consts))
		for i, c := range decl.Consts {
			nc := *c
			nc.Value = rewriteTypeMethodCallsExpr(c.Value, fns)
			newConsts[i] = &nc
		}
		out := *decl
		out.Fns = newFns
		out.Handlers = newHandlers
		out.Lets = newLets
		out.Consts = newConsts
		return &out
	default:
		return d
	}
}
