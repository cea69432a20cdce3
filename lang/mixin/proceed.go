package mixin

import "github.com/oranpie/flavent/lang/ast"

// rewriteProceedExpr rewrites every ProceedExpr reachable from e through an
// ordinary postfix/operator chain into a call to callee, forwarding
// whatever arguments the proceed(...) call was given. AwaitExpr is left
// untouched: a proceed() awaited inside its own expression is not a shape
// the weaver rewrites through.
//
// Grounded on original_source/flavent/resolve.py's _rewrite_proceed.
func rewriteProceedExpr(e ast.Expr, callee *ast.Ident) ast.Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *ast.ProceedExpr:
		return &ast.CallExpr{Fun: callee, Args: rewriteProceedArgs(x.Args, callee)}
	case *ast.CallExpr:
		return &ast.CallExpr{Fun: rewriteProceedExpr(x.Fun, callee), Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteProceedArgs(x.Args, callee), Commas: x.Commas}
	case *ast.MemberExpr:
		return &ast.MemberExpr{X: rewriteProceedExpr(x.X, callee), Dot: x.Dot, Name: x.Name}
	case *ast.IndexExpr:
		return &ast.IndexExpr{X: rewriteProceedExpr(x.X, callee), Lbrack: x.Lbrack, Rbrack: x.Rbrack, Index: rewriteProceedExpr(x.Index, callee)}
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{OpPos: x.OpPos, Op: x.Op, X: rewriteProceedExpr(x.X, callee)}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{X: rewriteProceedExpr(x.X, callee), OpPos: x.OpPos, Op: x.Op, Y: rewriteProceedExpr(x.Y, callee)}
	case *ast.PipeExpr:
		return &ast.PipeExpr{X: rewriteProceedExpr(x.X, callee), PipePos: x.PipePos, Stage: rewriteProceedExpr(x.Stage, callee)}
	case *ast.TupleExpr:
		elems := make([]ast.Expr, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = rewriteProceedExpr(el, callee)
		}
		return &ast.TupleExpr{Lparen: x.Lparen, Rparen: x.Rparen, Elems: elems, Commas: x.Commas}
	case *ast.RecordExpr:
		fields := make([]*ast.RecordField, len(x.Fields))
		for i, fl := range x.Fields {
			fields[i] = &ast.RecordField{Name: fl.Name, Colon: fl.Colon, Value: rewriteProceedExpr(fl.Value, callee)}
		}
		return &ast.RecordExpr{Lbrace: x.Lbrace, Rbrace: x.Rbrace, Fields: fields, Commas: x.Commas}
	case *ast.MatchExpr:
		arms := make([]*ast.MatchArm, len(x.Arms))
		for i, a := range x.Arms {
			arms[i] = &ast.MatchArm{WhenPos: a.WhenPos, Else: a.Else, Pattern: a.Pattern, Guard: a.Guard, Arrow: a.Arrow, Body: rewriteProceedExpr(a.Body, callee)}
		}
		return &ast.MatchExpr{MatchPos: x.MatchPos, X: rewriteProceedExpr(x.X, callee), Colon: x.Colon, Arms: arms}
	case *ast.TrySuffixExpr:
		return &ast.TrySuffixExpr{X: rewriteProceedExpr(x.X, callee), QmarkPos: x.QmarkPos}
	case *ast.RpcExpr:
		return &ast.RpcExpr{RpcPos: x.RpcPos, Target: x.Target, Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteProceedArgs(x.Args, callee), Commas: x.Commas}
	case *ast.CallSectorExpr:
		return &ast.CallSectorExpr{CallPos: x.CallPos, Target: x.Target, Lparen: x.Lparen, Rparen: x.Rparen, Args: rewriteProceedArgs(x.Args, callee), Commas: x.Commas}
	default:
		return e
	}
}

func rewriteProceedArgs(args []*ast.Arg, callee *ast.Ident) []*ast.Arg {
	out := make([]*ast.Arg, len(args))
	for i, a := range args {
		out[i] = &ast.Arg{Name: a.Name, Eq: a.Eq, Spread: a.Spread, Double: a.Double, Value: rewriteProceedExpr(a.Value, callee)}
	}
	return out
}

func rewriteProceedStmt(s ast.Stmt, callee *ast.Ident) ast.Stmt {
	switch x := s.(type) {
	case *ast.ExprStmt:
		return &ast.ExprStmt{X: rewriteProceedExpr(x.X, callee)}
	case *ast.LetStmt:
		return &ast.LetStmt{LetPos: x.LetPos, Name: x.Name, Colon: x.Colon, Type: x.Type, Eq: x.Eq, Value: rewriteProceedExpr(x.Value, callee)}
	case *ast.AssignStmt:
		return &ast.AssignStmt{Left: x.Left, OpPos: x.OpPos, Op: x.Op, Right: rewriteProceedExpr(x.Right, callee)}
	case *ast.ForInStmt:
		return &ast.ForInStmt{ForPos: x.ForPos, Var: x.Var, InPos: x.InPos, Iter: rewriteProceedExpr(x.Iter, callee), Colon: x.Colon, Body: rewriteProceedInBlockPlain(x.Body, callee)}
	case *ast.IfStmt:
		return rewriteProceedIf(x, callee)
	case *ast.ReturnStmt:
		if x.X == nil {
			return x
		}
		return &ast.ReturnStmt{ReturnPos: x.ReturnPos, X: rewriteProceedExpr(x.X, callee)}
	case *ast.EmitStmt:
		return &ast.EmitStmt{EmitPos: x.EmitPos, Event: rewriteProceedExpr(x.Event, callee)}
	default:
		return s
	}
}

func rewriteProceedIf(x *ast.IfStmt, callee *ast.Ident) *ast.IfStmt {
	out := &ast.IfStmt{IfPos: x.IfPos, Cond: rewriteProceedExpr(x.Cond, callee), Colon: x.Colon, Then: rewriteProceedInBlockPlain(x.Then, callee), ElsePos: x.ElsePos}
	if x.ElseIf != nil {
		out.ElseIf = rewriteProceedIf(x.ElseIf, callee)
	}
	if x.Else != nil {
		out.Else = rewriteProceedInBlockPlain(x.Else, callee)
	}
	return out
}

func rewriteProceedInBlockPlain(b *ast.Block, callee *ast.Ident) *ast.Block {
	out, _ := rewriteProceedInBlock(b, callee)
	return out
}

// rewriteProceedInBlock rewrites every proceed(...) call reachable from b
// into a call to callee.
func rewriteProceedInBlock(b *ast.Block, callee *ast.Ident) (*ast.Block, error) {
	if b == nil {
		return nil, nil
	}
	stmts := make([]ast.Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = rewriteProceedStmt(s, callee)
	}
	return &ast.Block{Start: b.Start, End: b.End, Stmts: stmts}, nil
}

// containsProceedBlock reports whether any proceed(...) call remains
// reachable from b. A well-formed rewrite leaves none; this is the weaver's
// post-rewrite sanity check, mirroring _ensure_no_proceed.
func containsProceedBlock(b *ast.Block) bool {
	if b == nil {
		return false
	}
	for _, s := range b.Stmts {
		if containsProceedStmt(s) {
			return true
		}
	}
	return false
}

func containsProceedStmt(s ast.Stmt) bool {
	switch x := s.(type) {
	case *ast.ExprStmt:
		return containsProceedExpr(x.X)
	case *ast.LetStmt:
		return containsProceedExpr(x.Value)
	case *ast.AssignStmt:
		return containsProceedExpr(x.Right)
	case *ast.ForInStmt:
		return containsProceedExpr(x.Iter) || containsProceedBlock(x.Body)
	case *ast.IfStmt:
		if containsProceedExpr(x.Cond) || containsProceedBlock(x.Then) {
			return true
		}
		if x.ElseIf != nil {
			return containsProceedStmt(x.ElseIf)
		}
		return containsProceedBlock(x.Else)
	case *ast.ReturnStmt:
		return x.X != nil && containsProceedExpr(x.X)
	case *ast.EmitStmt:
		return containsProceedExpr(x.Event)
	default:
		return false
	}
}

func containsProceedExpr(e ast.Expr) bool {
	if e == nil {
		return false
	}
	switch x := e.(type) {
	case *ast.ProceedExpr:
		return true
	case *ast.CallExpr:
		if containsProceedExpr(x.Fun) {
			return true
		}
		for _, a := range x.Args {
			if containsProceedExpr(a.Value) {
				return true
			}
		}
	case *ast.MemberExpr:
		return containsProceedExpr(x.X)
	case *ast.IndexExpr:
		return containsProceedExpr(x.X) || containsProceedExpr(x.Index)
	case *ast.UnaryExpr:
		return containsProceedExpr(x.X)
	case *ast.BinaryExpr:
		return containsProceedExpr(x.X) || containsProceedExpr(x.Y)
	case *ast.PipeExpr:
		return containsProceedExpr(x.X) || containsProceedExpr(x.Stage)
	case *ast.TupleExpr:
		for _, el := range x.Elems {
			if containsProceedExpr(el) {
				return true
			}
		}
	case *ast.RecordExpr:
		for _, fl := range x.Fields {
			if containsProceedExpr(fl.Value) {
				return true
			}
		}
	case *ast.MatchExpr:
		if containsProceedExpr(x.X) {
			return true
		}
		for _, a := range x.Arms {
			if containsProceedExpr(a.Body) {
				return true
			}
		}
	case *ast.TrySuffixExpr:
		return containsProceedExpr(x.X)
	case *ast.RpcExpr:
		for _, a := range x.Args {
			if containsProceedExpr(a.Value) {
				return true
			}
		}
	case *ast.CallSectorExpr:
		for _, a := range x.Args {
			if containsProceedExpr(a.Value) {
				return true
			}
		}
	}
	return false
}
