package lower

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// lowerBlock lowers every statement of b in order, splicing in any
// pre-statements an expression-valued statement produced (from a
// try-suffix, a hoisted match, or a hoisted if-condition).
func (l *Lowerer) lowerBlock(b *ast.Block, tryMode string) *hir.Block {
	var stmts []hir.Stmt
	for _, s := range b.Stmts {
		stmts = append(stmts, l.lowerStmt(s, tryMode)...)
	}
	return &hir.Block{Stmts: stmts, BlockSpan: l.spanOfNode(b)}
}

// lowerStmt lowers one source statement, returning possibly more than one
// hir.Stmt when lowering the statement's expressions required hoisting
// pre-statements above it.
func (l *Lowerer) lowerStmt(s ast.Stmt, tryMode string) []hir.Stmt {
	span := l.spanOfNode(s)

	switch st := s.(type) {
	case *ast.BadStmt:
		return nil

	case *ast.ExprStmt:
		// A bare `proceed()` statement (no suffix, no assignment) is the
		// around-mixin hook's resume-and-discard-result form; any other
		// expression statement lowers generically and keeps any value it
		// produces unused.
		if pe, ok := ast.Unwrap(st.X).(*ast.ProceedExpr); ok {
			pre := l.lowerProceedArgsCheck(pe)
			return append(pre, hir.Stmt(&hir.YieldStmt{StmtSpan: span}))
		}
		pre, v := l.lowerExpr(st.X, tryMode)
		return append(pre, hir.Stmt(&hir.ExprStmt{Value: v, StmtSpan: span}))

	case *ast.LetStmt:
		sym := l.identSym(st.Name)
		pre, v := l.lowerExpr(st.Value, tryMode)
		return append(pre, hir.Stmt(&hir.LetStmt{Sym: sym, Value: v, StmtSpan: span}))

	case *ast.AssignStmt:
		lpre, lv := l.lowerLValue(st.Left, tryMode)
		rpre, rv := l.lowerExpr(st.Right, tryMode)
		pre := append(lpre, rpre...)
		return append(pre, hir.Stmt(&hir.AssignStmt{Target: lv, Op: lowerAssignOp(st.Op), Value: rv, StmtSpan: span}))

	case *ast.ForInStmt:
		binder := l.identSym(st.Var)
		pre, iter := l.lowerExpr(st.Iter, tryMode)
		body := l.lowerBlock(st.Body, tryMode)
		return append(pre, hir.Stmt(&hir.ForStmt{Binder: binder, Iterable: iter, Body: body, StmtSpan: span}))

	case *ast.IfStmt:
		pre, ifStmt := l.lowerIfStmtNode(st, tryMode)
		return append(pre, hir.Stmt(ifStmt))

	case *ast.ReturnStmt:
		if st.X == nil {
			return []hir.Stmt{&hir.ReturnStmt{StmtSpan: span}}
		}
		pre, v := l.lowerExpr(st.X, tryMode)
		return append(pre, hir.Stmt(&hir.ReturnStmt{Value: v, StmtSpan: span}))

	case *ast.EmitStmt:
		pre, v := l.lowerEmitEvent(st.Event)
		return append(pre, hir.Stmt(&hir.EmitStmt{Value: v, StmtSpan: span}))

	case *ast.StopStmt:
		return []hir.Stmt{&hir.StopStmt{StmtSpan: span}}

	default:
		start, _ := s.Span()
		l.errorf(start, "unsupported statement")
		return nil
	}
}

// lowerProceedArgsCheck validates a bare-statement `proceed()`/`proceed(...)`
// call: the mixin weaver is responsible for supplying/validating the actual
// argument list against the wrapped implementation, so lowering only lowers
// any argument expressions present (for their own pre-statement and
// diagnostic side effects) and discards the results.
func (l *Lowerer) lowerProceedArgsCheck(pe *ast.ProceedExpr) []hir.Stmt {
	var pre []hir.Stmt
	for _, a := range pe.Args {
		p, _ := l.lowerExpr(a.Value, "forbid")
		pre = append(pre, p...)
	}
	return pre
}

// lowerIfStmtNode lowers an if/elif/else chain. hir.IfStmt.Cond has no slot
// for pre-statements, so any produced while lowering the condition are
// returned to be spliced in by the caller immediately above the IfStmt.
// An `elif` branch is represented, per hir.IfStmt's doc comment, as an
// ElseBlock containing a single statement: the nested IfStmt, preceded by
// that nested condition's own hoisted pre-statements inside the same block.
func (l *Lowerer) lowerIfStmtNode(st *ast.IfStmt, tryMode string) ([]hir.Stmt, *hir.IfStmt) {
	span := l.spanOfNode(st)
	pre, cond := l.lowerExpr(st.Cond, tryMode)
	then := l.lowerBlock(st.Then, tryMode)

	var elseBlock *hir.Block
	switch {
	case st.ElseIf != nil:
		nestedPre, nested := l.lowerIfStmtNode(st.ElseIf, tryMode)
		nestedSpan := l.spanOfNode(st.ElseIf)
		stmts := append(nestedPre, hir.Stmt(nested))
		elseBlock = &hir.Block{Stmts: stmts, BlockSpan: nestedSpan}
	case st.Else != nil:
		elseBlock = l.lowerBlock(st.Else, tryMode)
	}

	return pre, &hir.IfStmt{Cond: cond, ThenBlock: then, ElseBlock: elseBlock, StmtSpan: span}
}

// lowerLValue lowers an assignment target; member/index bases may themselves
// need hoisted pre-statements (e.g. `a[f()?] = v`).
func (l *Lowerer) lowerLValue(lv ast.LValue, tryMode string) ([]hir.Stmt, hir.LValue) {
	span := l.spanOfNode(lv)
	switch t := lv.(type) {
	case *ast.LVar:
		return nil, &hir.LVar{Sym: l.identSym(t.Name), LValSpan: span}
	case *ast.LMember:
		pre, obj := l.lowerExpr(t.X, tryMode)
		return pre, &hir.LMember{Object: obj, Field: t.Name.Name, LValSpan: span}
	case *ast.LIndex:
		pre, obj := l.lowerExpr(t.X, tryMode)
		ipre, idx := l.lowerExpr(t.Index, tryMode)
		return append(pre, ipre...), &hir.LIndex{Object: obj, Index: idx, LValSpan: span}
	default:
		start, _ := lv.Span()
		l.errorf(start, "unsupported assignment target")
		return nil, &hir.LVar{LValSpan: span}
	}
}

func lowerAssignOp(op token.Token) hir.AssignOp {
	switch op {
	case token.PLUSEQ:
		return hir.AssignAdd
	case token.MINUSEQ:
		return hir.AssignSub
	case token.STAREQ:
		return hir.AssignMul
	case token.SLASHEQ:
		return hir.AssignDiv
	default:
		return hir.AssignPlain
	}
}

// rewriteLastAsAssign rewrites a block's trailing ExprStmt (the value a
// block-bodied match arm falls through with) into an assignment to res.
// Blocks ending in a block-ending statement (return/stop/emit is not
// block-ending, but return/stop are) are left untouched: those arms don't
// fall through to produce a value for the enclosing match, they exit
// through their own control flow.
func rewriteLastAsAssign(b *hir.Block, res symbol.Id) *hir.Block {
	if len(b.Stmts) == 0 {
		return b
	}
	last, ok := b.Stmts[len(b.Stmts)-1].(*hir.ExprStmt)
	if !ok {
		return b
	}
	stmts := make([]hir.Stmt, len(b.Stmts))
	copy(stmts, b.Stmts)
	stmts[len(stmts)-1] = &hir.AssignStmt{
		Target:   &hir.LVar{Sym: res, LValSpan: last.StmtSpan},
		Op:       hir.AssignPlain,
		Value:    last.Value,
		StmtSpan: last.StmtSpan,
	}
	return &hir.Block{Stmts: stmts, BlockSpan: b.BlockSpan}
}
