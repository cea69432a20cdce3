package lower

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// lowerExpr lowers an expression, returning any statements that had to be
// hoisted above it (from a try-suffix or a block-armed match used as a
// value) alongside the expression that now stands in its place. tryMode
// governs what a `?` suffix desugars to at this position: "option",
// "result", "handler", or "forbid" (a position with no sensible
// propagation target, e.g. a const initializer).
func (l *Lowerer) lowerExpr(e ast.Expr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(e)

	switch x := e.(type) {
	case *ast.BadExpr:
		return nil, &hir.UndefExpr{ExprSpan: span}

	case *ast.LiteralExpr:
		return nil, l.lowerLiteral(x)

	case *ast.ParenExpr:
		return l.lowerExpr(x.X, tryMode)

	case *ast.TupleExpr:
		return l.lowerTuple(x, tryMode)

	case *ast.RecordExpr:
		return l.lowerRecord(x, tryMode)

	case *ast.ArrayExpr:
		l.errorf(x.Lbrack, "array literals have no lowered representation")
		return nil, &hir.UndefExpr{ExprSpan: span}

	case *ast.Ident:
		return nil, l.lowerIdentExpr(x)

	case *ast.QualifiedName:
		return nil, l.lowerQualifiedExpr(x)

	case *ast.MemberExpr:
		return l.lowerMemberExpr(x, tryMode)

	case *ast.IndexExpr:
		pre, obj := l.lowerExpr(x.X, tryMode)
		ipre, idx := l.lowerExpr(x.Index, tryMode)
		return append(pre, ipre...), &hir.IndexExpr{Object: obj, Index: idx, ExprSpan: span}

	case *ast.CallExpr:
		return l.lowerCall(x, tryMode)

	case *ast.CallSectorExpr:
		return l.lowerRpcOrCallSector(x.Target, x.Args, false, span, tryMode)

	case *ast.RpcExpr:
		return l.lowerRpcOrCallSector(x.Target, x.Args, true, span, tryMode)

	case *ast.AwaitExpr:
		return l.lowerAwait(x, span)

	case *ast.ProceedExpr:
		return l.lowerProceedValue(x, span)

	case *ast.PipeExpr:
		return l.lowerPipe(x, tryMode)

	case *ast.TrySuffixExpr:
		pre, v := l.lowerExpr(x.X, tryMode)
		trypre, res := l.lowerTrySuffix(v, tryMode, span)
		return append(pre, trypre...), res

	case *ast.UnaryExpr:
		pre, v := l.lowerExpr(x.X, tryMode)
		return pre, &hir.UnaryExpr{Op: lowerUnaryOp(x.Op), Value: v, ExprSpan: span}

	case *ast.BinaryExpr:
		lpre, lv := l.lowerExpr(x.X, tryMode)
		rpre, rv := l.lowerExpr(x.Y, tryMode)
		return append(lpre, rpre...), &hir.BinaryExpr{Op: lowerBinaryOp(x.Op), Left: lv, Right: rv, ExprSpan: span}

	case *ast.MatchExpr:
		return l.lowerMatchExpr(x, tryMode)

	case *ast.DoExpr:
		// A do-block used in expression position has no value-producing
		// representation in HIR; only fn/handler bodies and match arms may be
		// block-shaped, and those are lowered through dedicated paths that
		// never call lowerExpr on the DoExpr itself.
		l.errorf(x.DoPos, "block expression not valid in this position")
		return nil, &hir.UndefExpr{ExprSpan: span}

	default:
		start, _ := e.Span()
		l.errorf(start, "unsupported expression")
		return nil, &hir.UndefExpr{ExprSpan: l.spanOf(start, start)}
	}
}

func (l *Lowerer) lowerLiteral(x *ast.LiteralExpr) hir.Expr {
	span := l.spanOfNode(x)
	switch x.Tok {
	case token.INT:
		return &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitInt, Value: x.Value.Int}, ExprSpan: span}
	case token.FLOAT:
		return &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitFloat, Value: x.Value.Float}, ExprSpan: span}
	case token.STRING:
		return &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitString, Value: x.Value.String}, ExprSpan: span}
	case token.BYTES:
		return &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitBytes, Value: x.Value.String}, ExprSpan: span}
	case token.BOOL:
		return &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitBool, Value: x.Value.Raw == "true"}, ExprSpan: span}
	default:
		l.errorf(x.TokPos, "unsupported literal")
		return &hir.UndefExpr{ExprSpan: span}
	}
}

// lowerTuple lowers a parenthesized tuple. A zero-element tuple `()` is the
// unit value, represented as a LitExpr of kind LitUnit rather than an empty
// TupleLitExpr, matching how hir.LitKind reserves LitUnit for exactly this.
func (l *Lowerer) lowerTuple(x *ast.TupleExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	if len(x.Elems) == 0 {
		return nil, &hir.LitExpr{Lit: hir.Literal{Kind: hir.LitUnit}, ExprSpan: span}
	}
	var pre []hir.Stmt
	items := make([]hir.Expr, 0, len(x.Elems))
	for _, el := range x.Elems {
		p, v := l.lowerExpr(el, tryMode)
		pre = append(pre, p...)
		items = append(items, v)
	}
	return pre, &hir.TupleLitExpr{Items: items, ExprSpan: span}
}

func (l *Lowerer) lowerRecord(x *ast.RecordExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	var pre []hir.Stmt
	items := make([]*hir.RecordItem, 0, len(x.Fields))
	for _, f := range x.Fields {
		p, v := l.lowerExpr(f.Value, tryMode)
		pre = append(pre, p...)
		items = append(items, &hir.RecordItem{Key: f.Name.Name, Value: v, ItemSpan: l.spanOfNode(f)})
	}
	return pre, &hir.RecordLitExpr{Items: items, ExprSpan: span}
}

// lowerIdentExpr lowers a bare identifier reference. By the time a
// successfully-resolved program reaches lowering, resolveIdentValue has
// already hard-errored any genuinely unbound name, so the IdentSyms miss
// case below only defends against a partially-resolved program still being
// lowered for best-effort diagnostics.
func (l *Lowerer) lowerIdentExpr(x *ast.Ident) hir.Expr {
	span := l.spanOfNode(x)
	if id, ok := l.res.IdentSyms[x]; ok {
		return &hir.VarExpr{Sym: id, ExprSpan: span}
	}
	return &hir.UndefExpr{ExprSpan: span}
}

// lowerQualifiedExpr lowers a dotted-identifier chain (`a.b.c`) with no
// intervening call or index. The resolver only ever binds such a chain as a
// whole when it denotes a sector (for `QualifiedName` used as a
// CallSectorExpr/RpcExpr target) — a qualified name used as a plain value
// has no symbol of its own, so it lowers to UndefExpr, matching
// resolveUses's treatment of a QualifiedName outside those contexts.
func (l *Lowerer) lowerQualifiedExpr(x *ast.QualifiedName) hir.Expr {
	return &hir.UndefExpr{ExprSpan: l.spanOfNode(x)}
}

// lowerMemberExpr lowers `x.Name`. resolveMemberBase binds the trailing Name
// against Values only when it happens to name a known constructor
// (`stdlib.Some`-style access through an unresolvable namespace prefix);
// otherwise the base is lowered generically, which already naturally
// produces UndefExpr/VarExpr/a nested MemberExpr as appropriate, and wrapped
// in a MemberExpr field access.
func (l *Lowerer) lowerMemberExpr(x *ast.MemberExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	if id, ok := l.ctorByName[x.Name.Name]; ok {
		if sym, ok2 := l.res.IdentSyms[x.Name]; ok2 && sym == id {
			return nil, &hir.VarExpr{Sym: id, ExprSpan: span}
		}
	}
	pre, obj := l.lowerExpr(x.X, tryMode)
	return pre, &hir.MemberExpr{Object: obj, Field: x.Name.Name, ExprSpan: span}
}

func (l *Lowerer) lowerCall(x *ast.CallExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	pre, callee := l.lowerExpr(x.Fun, tryMode)
	var args []hir.CallArg
	for _, a := range x.Args {
		p, ca := l.lowerCallArg(a, tryMode)
		pre = append(pre, p...)
		args = append(args, ca)
	}
	return pre, &hir.CallExpr{Callee: callee, Args: args, ExprSpan: span}
}

func (l *Lowerer) lowerCallArg(a *ast.Arg, tryMode string) ([]hir.Stmt, hir.CallArg) {
	span := l.spanOf(a.Value.Span())
	pre, v := l.lowerExpr(a.Value, tryMode)
	switch {
	case a.Spread.IsValid() && a.Double:
		return pre, &hir.CallArgStarStar{Value: v, ArgSpan: span}
	case a.Spread.IsValid():
		return pre, &hir.CallArgStar{Value: v, ArgSpan: span}
	case a.Name != nil:
		return pre, &hir.CallArgKw{Name: a.Name.Name, Value: v, ArgSpan: span}
	default:
		return pre, &hir.CallArgPos{Value: v, ArgSpan: span}
	}
}

// lowerRpcOrCallSector lowers `call sector.fn(args)` / `rpc sector.fn(args)`.
// Target is a MemberExpr or QualifiedName naming sector.fn; resolveUses only
// resolves the sector half (the fn half has no symbol of its own and is left
// for structural validation downstream), so lowering independently resolves
// the fn name against that sector's own scope.
func (l *Lowerer) lowerRpcOrCallSector(target ast.Expr, args []*ast.Arg, await bool, span token.Span, tryMode string) ([]hir.Stmt, hir.Expr) {
	sectorIdent, fnName, fnPos := splitSectorTarget(target)
	var sectorSym, fnSym symbol.Id
	if sectorIdent != nil {
		sectorSym = l.identSym(sectorIdent)
		if scope, ok := l.res.SectorScopes[sectorSym]; ok {
			if ids := scope.LookupLocal(symbol.Values, fnName); len(ids) > 0 {
				fnSym = ids[len(ids)-1]
			}
		}
	}
	if fnSym == 0 {
		l.errorf(fnPos, "unknown function %q on sector", fnName)
	}

	var pre []hir.Stmt
	var callArgs []hir.Expr
	for _, a := range args {
		p, v := l.lowerExpr(a.Value, tryMode)
		pre = append(pre, p...)
		callArgs = append(callArgs, v)
	}
	return pre, &hir.RpcCallExpr{Sector: sectorSym, Fn: fnSym, Args: callArgs, AwaitResult: await, ExprSpan: span}
}

// splitSectorTarget extracts the sector identifier and the function name
// from a `sector.fn` call-sector/rpc target, which the grammar restricts to
// a MemberExpr over an Ident base or a two-part QualifiedName.
func splitSectorTarget(target ast.Expr) (sectorIdent *ast.Ident, fnName string, fnPos token.Pos) {
	switch t := target.(type) {
	case *ast.MemberExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id, t.Name.Name, t.Name.NamePos
		}
		_, end := t.X.Span()
		return nil, t.Name.Name, end
	case *ast.QualifiedName:
		if len(t.Parts) >= 2 {
			last := t.Parts[len(t.Parts)-1]
			return t.Parts[0], last.Name, last.NamePos
		}
		if len(t.Parts) == 1 {
			return nil, t.Parts[0].Name, t.Parts[0].NamePos
		}
	}
	start, _ := target.Span()
	return nil, "", start
}

// lowerAwait lowers `await X`. The only await target the grammar and
// resolver treat specially is a bare or dotted event-type reference
// (`await Event.Variant`); resolveUses otherwise resolves X through the
// fully generic expression path, meaning a non-event await target would
// already have been validated or hard-errored by the time lowering runs, so
// the AwaitEventExpr form below covers every reachable case.
func (l *Lowerer) lowerAwait(x *ast.AwaitExpr, span token.Span) ([]hir.Stmt, hir.Expr) {
	return nil, &hir.AwaitEventExpr{EventType: l.lowerEventRefSym(x.X), ExprSpan: span}
}

// lowerEventRefSym resolves an event-type reference the way
// resolveEventRef/resolveMemberBase do: a bare Ident binds directly; a
// QualifiedName binds only its last part; a MemberExpr binds its trailing
// Name only when it names a known constructor. Any of these may miss
// (leniently, matching the resolver) and fall back to symbol id 0, which
// the checker treats as "unbound event type, treat the payload as dynamic".
func (l *Lowerer) lowerEventRefSym(e ast.Expr) symbol.Id {
	switch x := ast.Unwrap(e).(type) {
	case *ast.Ident:
		if id, ok := l.res.IdentSyms[x]; ok {
			return id
		}
		return 0
	case *ast.QualifiedName:
		last := x.Parts[len(x.Parts)-1]
		if id, ok := l.res.IdentSyms[last]; ok {
			return id
		}
		return 0
	case *ast.MemberExpr:
		if id, ok := l.res.IdentSyms[x.Name]; ok {
			return id
		}
		return 0
	default:
		return 0
	}
}

// lowerEmitEvent lowers an `emit Event(...)` statement's event expression.
// resolveEmitEvent resolves a call-shaped emit target's Fun leniently via
// resolveEventRef rather than the generic expression path; lowering mirrors
// that split so a bare event constructor reference (`emit Tick()`) lowers
// through the same symbol resolution the resolver used to validate it,
// rather than falling through the generic Ident/QualifiedName-as-value
// paths above which would produce UndefExpr for an unresolvable
// QualifiedName.
func (l *Lowerer) lowerEmitEvent(e ast.Expr) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(e)
	if call, ok := ast.Unwrap(e).(*ast.CallExpr); ok {
		sym := l.lowerEventRefSym(call.Fun)
		var callee hir.Expr
		if sym != 0 {
			fspan := l.spanOfNode(call.Fun)
			callee = &hir.VarExpr{Sym: sym, ExprSpan: fspan}
		} else {
			fspan := l.spanOfNode(call.Fun)
			callee = &hir.UndefExpr{ExprSpan: fspan}
		}
		var pre []hir.Stmt
		var args []hir.CallArg
		for _, a := range call.Args {
			p, ca := l.lowerCallArg(a, "forbid")
			pre = append(pre, p...)
			args = append(args, ca)
		}
		return pre, &hir.CallExpr{Callee: callee, Args: args, ExprSpan: span}
	}
	return l.lowerExpr(e, "forbid")
}

// lowerProceedValue lowers a value-position `proceed(...)`. By the time a
// fully woven mixin program reaches lowering, the mixin weaver has already
// rewritten every such reference into an ordinary call to the wrapped
// implementation (see ast.ProceedExpr's doc comment); HIR has no node for
// "resume and yield the wrapped result" because a correctly woven program
// never needs one. Reaching here means the input was not woven (or was
// malformed), which is reported as an error with UndefExpr as the
// best-effort fallback.
func (l *Lowerer) lowerProceedValue(x *ast.ProceedExpr, span token.Span) ([]hir.Stmt, hir.Expr) {
	l.errorf(x.ProceedPos, "proceed used as a value must be resolved by mixin weaving first")
	var pre []hir.Stmt
	for _, a := range x.Args {
		p, _ := l.lowerExpr(a.Value, "forbid")
		pre = append(pre, p...)
	}
	return pre, &hir.UndefExpr{ExprSpan: span}
}

// lowerPipe lowers `x |> stage(...)`, rewriting it into a call to stage with
// x spliced in as its first positional argument. A multi-stage pipe is a
// left-nested PipeExpr tree, so lowering the left side recursively produces
// the correct left-to-right evaluation and nesting with no special casing
// here.
func (l *Lowerer) lowerPipe(x *ast.PipeExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	pre, v := l.lowerExpr(x.X, tryMode)

	stage, ok := ast.Unwrap(x.Stage).(*ast.CallExpr)
	if !ok {
		l.errorf(x.PipePos, "pipe stage must be a call expression")
		return pre, &hir.UndefExpr{ExprSpan: span}
	}

	calleePre, callee := l.lowerExpr(stage.Fun, tryMode)
	pre = append(pre, calleePre...)

	args := []hir.CallArg{&hir.CallArgPos{Value: v, ArgSpan: l.spanOfNode(x.X)}}
	for _, a := range stage.Args {
		p, ca := l.lowerCallArg(a, tryMode)
		pre = append(pre, p...)
		args = append(args, ca)
	}
	return pre, &hir.CallExpr{Callee: callee, Args: args, ExprSpan: span}
}

// lowerTrySuffix desugars `expr?` into a match over expr's already-lowered
// value v, binding a synthesized result variable on the success arm and
// propagating on failure according to tryMode: "option" returns a bare
// None(), "result" returns Err(e), and "handler" aborts the enclosing
// handler with e as the abort cause. tryMode == "forbid" means this
// position has no propagation target (e.g. a const initializer), which is
// reported as an error.
func (l *Lowerer) lowerTrySuffix(v hir.Expr, tryMode string, span token.Span) ([]hir.Stmt, hir.Expr) {
	if tryMode == "forbid" {
		l.errAtSpan(span, "try-suffix not valid in this position")
		return nil, &hir.UndefExpr{ExprSpan: span}
	}

	tmp := l.freshVar("tmp", span)
	res := l.freshVar("res", span)

	var stmts []hir.Stmt
	stmts = append(stmts, &hir.LetStmt{Sym: tmp, Value: v, StmtSpan: span})
	stmts = append(stmts, &hir.LetStmt{Sym: res, Value: &hir.UndefExpr{ExprSpan: span}, StmtSpan: span})

	scrutinee := &hir.VarExpr{Sym: tmp, ExprSpan: span}

	switch tryMode {
	case "option":
		bind := l.freshVar("v", span)
		someArm := &hir.MatchArmStmt{
			Pat: &hir.PCtor{Ctor: l.ctorOfName("Some", span), Args: []hir.Pattern{&hir.PVar{Sym: bind, PatSpan: span}}, PatSpan: span},
			Body: &hir.Block{Stmts: []hir.Stmt{&hir.AssignStmt{
				Target: &hir.LVar{Sym: res, LValSpan: span}, Op: hir.AssignPlain,
				Value: &hir.VarExpr{Sym: bind, ExprSpan: span}, StmtSpan: span,
			}}, BlockSpan: span},
			ArmSpan: span,
		}
		noneArm := &hir.MatchArmStmt{
			Pat: &hir.PCtor{Ctor: l.ctorOfName("None", span), PatSpan: span},
			Body: &hir.Block{Stmts: []hir.Stmt{&hir.ReturnStmt{
				Value:    &hir.CallExpr{Callee: &hir.VarExpr{Sym: l.ctorOfName("None", span), ExprSpan: span}, ExprSpan: span},
				StmtSpan: span,
			}}, BlockSpan: span},
			ArmSpan: span,
		}
		stmts = append(stmts, &hir.MatchStmt{Scrutinee: scrutinee, Arms: []*hir.MatchArmStmt{someArm, noneArm}, StmtSpan: span})

	case "result", "handler":
		bind := l.freshVar("v", span)
		errBind := l.freshVar("e", span)
		okArm := &hir.MatchArmStmt{
			Pat: &hir.PCtor{Ctor: l.ctorOfName("Ok", span), Args: []hir.Pattern{&hir.PVar{Sym: bind, PatSpan: span}}, PatSpan: span},
			Body: &hir.Block{Stmts: []hir.Stmt{&hir.AssignStmt{
				Target: &hir.LVar{Sym: res, LValSpan: span}, Op: hir.AssignPlain,
				Value: &hir.VarExpr{Sym: bind, ExprSpan: span}, StmtSpan: span,
			}}, BlockSpan: span},
			ArmSpan: span,
		}

		var errBody hir.Stmt
		if tryMode == "result" {
			errBody = &hir.ReturnStmt{
				Value: &hir.CallExpr{
					Callee: &hir.VarExpr{Sym: l.ctorOfName("Err", span), ExprSpan: span},
					Args:   []hir.CallArg{&hir.CallArgPos{Value: &hir.VarExpr{Sym: errBind, ExprSpan: span}, ArgSpan: span}},
					ExprSpan: span,
				},
				StmtSpan: span,
			}
		} else {
			errBody = &hir.AbortHandlerStmt{Cause: &hir.VarExpr{Sym: errBind, ExprSpan: span}, StmtSpan: span}
		}
		errArm := &hir.MatchArmStmt{
			Pat:     &hir.PCtor{Ctor: l.ctorOfName("Err", span), Args: []hir.Pattern{&hir.PVar{Sym: errBind, PatSpan: span}}, PatSpan: span},
			Body:    &hir.Block{Stmts: []hir.Stmt{errBody}, BlockSpan: span},
			ArmSpan: span,
		}
		stmts = append(stmts, &hir.MatchStmt{Scrutinee: scrutinee, Arms: []*hir.MatchArmStmt{okArm, errArm}, StmtSpan: span})
	}

	return stmts, &hir.VarExpr{Sym: res, ExprSpan: span}
}

// lowerMatchExpr lowers a match expression. When every arm is a plain
// single-expression body with nothing to hoist, it lowers directly to an
// hir.MatchExpr. Otherwise (any arm is block-bodied, or an arm's expression
// itself needed hoisting) it lowers to a synthesized `tmp`/`res` pair and an
// hir.MatchStmt, with every arm rewritten to assign into res, matching the
// hir.MatchStmt doc comment's "lowering of a match expression used in
// statement position whose arm bodies are themselves blocks" — generalized
// here to also cover the value-position case, since both need the same
// shape once any arm can't be expressed as a bare Expr.
func (l *Lowerer) lowerMatchExpr(x *ast.MatchExpr, tryMode string) ([]hir.Stmt, hir.Expr) {
	span := l.spanOfNode(x)
	scrutineePre, scrutinee := l.lowerExpr(x.X, tryMode)

	type loweredArm struct {
		pat      hir.Pattern
		block    *hir.Block // non-nil if the arm body is a do-block
		exprPre  []hir.Stmt
		exprVal  hir.Expr
		armSpan  token.Span
	}

	var arms []loweredArm
	needHoist := len(scrutineePre) > 0
	for _, a := range x.Arms {
		if a.Guard != nil {
			l.errorf(a.WhenPos, "match arm guards are not supported")
		}
		pat := l.armPattern(a)
		as := l.armSpan(a)
		if doExpr, ok := a.Body.(*ast.DoExpr); ok {
			block := l.lowerBlock(doExpr.Body, tryMode)
			arms = append(arms, loweredArm{pat: pat, block: block, armSpan: as})
			needHoist = true
			continue
		}
		pre, v := l.lowerExpr(a.Body, tryMode)
		if len(pre) > 0 {
			needHoist = true
		}
		arms = append(arms, loweredArm{pat: pat, exprPre: pre, exprVal: v, armSpan: as})
	}

	if !needHoist {
		matchArms := make([]*hir.MatchArmExpr, 0, len(arms))
		for _, a := range arms {
			matchArms = append(matchArms, &hir.MatchArmExpr{Pat: a.pat, Body: a.exprVal, ArmSpan: a.armSpan})
		}
		return nil, &hir.MatchExpr{Scrutinee: scrutinee, Arms: matchArms, ExprSpan: span}
	}

	tmp := l.freshVar("tmp", span)
	res := l.freshVar("res", span)
	stmts := append(scrutineePre,
		hir.Stmt(&hir.LetStmt{Sym: tmp, Value: scrutinee, StmtSpan: span}),
		&hir.LetStmt{Sym: res, Value: &hir.UndefExpr{ExprSpan: span}, StmtSpan: span},
	)

	matchArmStmts := make([]*hir.MatchArmStmt, 0, len(arms))
	for _, a := range arms {
		var block *hir.Block
		if a.block != nil {
			block = rewriteLastAsAssign(a.block, res)
		} else {
			assignStmts := append(a.exprPre, hir.Stmt(&hir.AssignStmt{
				Target: &hir.LVar{Sym: res, LValSpan: a.armSpan}, Op: hir.AssignPlain,
				Value: a.exprVal, StmtSpan: a.armSpan,
			}))
			block = &hir.Block{Stmts: assignStmts, BlockSpan: a.armSpan}
		}
		matchArmStmts = append(matchArmStmts, &hir.MatchArmStmt{Pat: a.pat, Body: block, ArmSpan: a.armSpan})
	}

	stmts = append(stmts, &hir.MatchStmt{Scrutinee: &hir.VarExpr{Sym: tmp, ExprSpan: span}, Arms: matchArmStmts, StmtSpan: span})
	return stmts, &hir.VarExpr{Sym: res, ExprSpan: span}
}

func lowerUnaryOp(op token.Token) hir.UnaryOp {
	if op == token.NOT {
		return hir.UnaryNot
	}
	return hir.UnaryNeg
}

func lowerBinaryOp(op token.Token) hir.BinaryOp {
	switch op {
	case token.PLUS:
		return hir.BinAdd
	case token.MINUS:
		return hir.BinSub
	case token.STAR:
		return hir.BinMul
	case token.SLASH:
		return hir.BinDiv
	case token.EQEQ:
		return hir.BinEq
	case token.NEQ:
		return hir.BinNeq
	case token.LT:
		return hir.BinLt
	case token.LTE:
		return hir.BinLte
	case token.GT:
		return hir.BinGt
	case token.GTE:
		return hir.BinGte
	case token.AND:
		return hir.BinAnd
	case token.OR:
		return hir.BinOr
	default:
		return hir.BinAdd
	}
}

