package check

import (
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// inferExpr assigns e a Type and an Effect. expected, when non-nil, is the
// type the surrounding syntax already demands of e (a param's declared
// type, a return type, a record field's declared type, ...): passing it
// through lets a bare constructor reference or an untyped record literal be
// checked contextually instead of only structurally.
func inferExpr(s *scope, e hir.Expr, expected Type) (Type, Effect, error) {
	switch ex := e.(type) {
	case *hir.UndefExpr:
		return s.freshMeta(), PureEffect, nil

	case *hir.LitExpr:
		return litType(s, ex.Lit), PureEffect, nil

	case *hir.VarExpr:
		return inferVar(s, ex, expected)

	case *hir.CallExpr:
		return inferCall(s, ex, expected)

	case *hir.RpcCallExpr:
		return inferRpcCall(s, ex)

	case *hir.AwaitEventExpr:
		if s.currentSector == 0 {
			return nil, Effect{}, &EffectError{Message: "await outside sector", At: ex.ExprSpan}
		}
		return TCon{Sym: ex.EventType}, sectorEffect(s.currentSector), nil

	case *hir.MemberExpr:
		return inferMember(s, ex, expected)

	case *hir.IndexExpr:
		ot, oe, err := inferExpr(s, ex.Object, nil)
		if err != nil {
			return nil, Effect{}, err
		}
		it, ie, err := inferExpr(s, ex.Index, nil)
		if err != nil {
			return nil, Effect{}, err
		}
		eff, err := joinEffect(oe, ie, ex.ExprSpan)
		if err != nil {
			return nil, Effect{}, err
		}
		return TIndex{Obj: ot, Idx: it}, eff, nil

	case *hir.UnaryExpr:
		return inferExpr(s, ex.Value, nil)

	case *hir.BinaryExpr:
		return inferBinary(s, ex)

	case *hir.TupleLitExpr:
		return inferTupleLit(s, ex)

	case *hir.RecordLitExpr:
		return inferRecordLit(s, ex, expected)

	case *hir.MatchExpr:
		return inferMatchExpr(s, ex)

	default:
		return nil, Effect{}, &TypeError{Message: "unsupported expr in typecheck", At: e.Span()}
	}
}

// inferVar resolves a VarExpr against the local env, the global env (for a
// const/let/need already checked), or the symbol table directly for a Fn or
// Ctor reference. A Fn or Ctor reference produces a transient callee marker
// (TFn/TCtor) that only a directly enclosing CallExpr ever consumes — see
// the package doc comment.
func inferVar(s *scope, ex *hir.VarExpr, expected Type) (Type, Effect, error) {
	if t, ok := s.env[ex.Sym]; ok {
		return t, PureEffect, nil
	}
	if t, ok := s.c.globalEnv[ex.Sym]; ok {
		return t, PureEffect, nil
	}

	sym, ok := s.c.symByID[ex.Sym]
	if !ok {
		return nil, Effect{}, &TypeError{Message: "unknown symbol", At: ex.ExprSpan}
	}

	switch sym.Kind {
	case symbol.Fn:
		return TFn{Sym: ex.Sym}, PureEffect, nil

	case symbol.Ctor:
		if expected != nil {
			if sig, ok := s.c.ctorSig[ex.Sym]; ok && len(sig.Payload) == 0 {
				if err := unify(s, expected, sig.Ret, ex.ExprSpan); err != nil {
					return nil, Effect{}, err
				}
				return sig.Ret, PureEffect, nil
			}
		}
		// A bare `None` is usable as a value wherever an Option is expected
		// (`unwrapOr(None, 0)`), even though it has no entry in ctor_sig (see
		// the PCtor case of bindPattern for why None/Some/Ok/Err never do).
		if sym.Name == "None" && expected != nil {
			tOpt := prune(s, expected)
			if m, ok := tOpt.(*TMeta); ok {
				bound := optionType(s)
				s.metaBindings[m.ID] = bound
				tOpt = bound
			}
			if !isOptionType(s, tOpt) {
				return nil, Effect{}, &TypeError{Message: "None must construct Option", At: ex.ExprSpan}
			}
			return tOpt, PureEffect, nil
		}
		return TCtor{Sym: ex.Sym}, PureEffect, nil

	case symbol.Var, symbol.Const, symbol.Need:
		m := s.freshMeta()
		s.c.globalEnv[ex.Sym] = m
		return m, PureEffect, nil

	default:
		return nil, Effect{}, &TypeError{Message: "unsupported var usage", At: ex.ExprSpan}
	}
}

func inferRpcCall(s *scope, ex *hir.RpcCallExpr) (Type, Effect, error) {
	if s.currentSector == 0 {
		return nil, Effect{}, &EffectError{Message: "rpc/call outside sector", At: ex.ExprSpan}
	}
	sig, ok := s.c.fnSig[ex.Fn]
	if !ok {
		return nil, Effect{}, &TypeError{Message: "unknown rpc target", At: ex.ExprSpan}
	}
	if len(sig.Params) != len(ex.Args) {
		return nil, Effect{}, &TypeError{Message: "arity mismatch", At: ex.ExprSpan}
	}
	eff := sectorEffect(s.currentSector)
	for i, a := range ex.Args {
		pt := sig.Params[i]
		at, ae, err := inferExpr(s, a, pt)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, pt, at, a.Span()); err != nil {
			return nil, Effect{}, err
		}
		eff, err = joinEffect(eff, ae, a.Span())
		if err != nil {
			return nil, Effect{}, err
		}
	}
	if !ex.AwaitResult {
		return s.typeByName("Unit"), eff, nil
	}
	return sig.Ret, eff, nil
}

func inferMember(s *scope, ex *hir.MemberExpr, expected Type) (Type, Effect, error) {
	ot, oe, err := inferExpr(s, ex.Object, nil)
	if err != nil {
		return nil, Effect{}, err
	}
	otp := prune(s, ot)

	var tid symbol.Id
	var haveTid bool
	switch ov := otp.(type) {
	case TCon:
		tid, haveTid = ov.Sym, true
	case TApp:
		tid, haveTid = ov.Sym, true
	case *TMeta:
		ft, err := constrainRecordField(s, ov.ID, ex.Field, expected, ex.ExprSpan)
		if err != nil {
			return nil, Effect{}, err
		}
		return ft, oe, nil
	}

	if haveTid {
		if fields, ok := s.c.recordFields[tid]; ok {
			ft, ok := fields[ex.Field]
			if !ok {
				return nil, Effect{}, &TypeError{Message: "unknown record field", At: ex.ExprSpan}
			}
			if expected != nil {
				if err := unify(s, expected, ft, ex.ExprSpan); err != nil {
					return nil, Effect{}, err
				}
			}
			return ft, oe, nil
		}
	}
	return s.freshMeta(), oe, nil
}

func inferBinary(s *scope, ex *hir.BinaryExpr) (Type, Effect, error) {
	lt, le, err := inferExpr(s, ex.Left, nil)
	if err != nil {
		return nil, Effect{}, err
	}
	rt, re, err := inferExpr(s, ex.Right, nil)
	if err != nil {
		return nil, Effect{}, err
	}
	eff, err := joinEffect(le, re, ex.ExprSpan)
	if err != nil {
		return nil, Effect{}, err
	}

	intSym := s.c.typeIDByName["Int"]
	floatSym := s.c.typeIDByName["Float"]
	isInt := func(t Type) bool { c, ok := prune(s, t).(TCon); return ok && c.Sym == intSym }
	isFloat := func(t Type) bool { c, ok := prune(s, t).(TCon); return ok && c.Sym == floatSym }

	switch ex.Op {
	case hir.BinAdd, hir.BinSub, hir.BinMul, hir.BinDiv:
		if (isInt(lt) && isFloat(rt)) || (isFloat(lt) && isInt(rt)) {
			return s.typeByName("Float"), eff, nil
		}
	}

	if err := unify(s, lt, rt, ex.ExprSpan); err != nil {
		return nil, Effect{}, err
	}

	switch ex.Op {
	case hir.BinEq, hir.BinNeq, hir.BinLt, hir.BinLte, hir.BinGt, hir.BinGte:
		return s.typeByName("Bool"), eff, nil
	case hir.BinAnd, hir.BinOr:
		boolT := s.typeByName("Bool")
		if err := unify(s, lt, boolT, ex.Left.Span()); err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, rt, boolT, ex.Right.Span()); err != nil {
			return nil, Effect{}, err
		}
		return boolT, eff, nil
	}
	return lt, eff, nil
}

func inferTupleLit(s *scope, ex *hir.TupleLitExpr) (Type, Effect, error) {
	if len(ex.Items) == 0 {
		return s.typeByName("Unit"), PureEffect, nil
	}
	eff := PureEffect
	ts := make([]Type, 0, len(ex.Items))
	for _, it := range ex.Items {
		t, te, err := inferExpr(s, it, nil)
		if err != nil {
			return nil, Effect{}, err
		}
		ts = append(ts, t)
		eff, err = joinEffect(eff, te, it.Span())
		if err != nil {
			return nil, Effect{}, err
		}
	}
	return TTuple{Elems: ts}, eff, nil
}

func inferRecordLit(s *scope, ex *hir.RecordLitExpr, expected Type) (Type, Effect, error) {
	eff := PureEffect
	var exp Type
	if expected != nil {
		exp = prune(s, expected)
		if _, ok := exp.(*TMeta); ok {
			exp = nil
		}
	}

	var tid symbol.Id
	found := false
	if exp != nil {
		switch ev := exp.(type) {
		case TCon:
			if _, ok := s.c.recordFields[ev.Sym]; ok {
				tid, found = ev.Sym, true
			}
		case TApp:
			if _, ok := s.c.recordFields[ev.Sym]; ok {
				tid, found = ev.Sym, true
			}
		}
	}

	if found {
		fields := s.c.recordFields[tid]
		seen := map[string]bool{}
		for _, it := range ex.Items {
			ft, ok := fields[it.Key]
			if !ok {
				return nil, Effect{}, &TypeError{Message: "unknown record field", At: it.ItemSpan}
			}
			vt, ve, err := inferExpr(s, it.Value, ft)
			if err != nil {
				return nil, Effect{}, err
			}
			if err := unify(s, ft, vt, it.ItemSpan); err != nil {
				return nil, Effect{}, err
			}
			eff, err = joinEffect(eff, ve, it.ItemSpan)
			if err != nil {
				return nil, Effect{}, err
			}
			seen[it.Key] = true
		}
		if len(seen) != len(fields) {
			return nil, Effect{}, &TypeError{Message: "missing record field", At: ex.ExprSpan}
		}
		return exp, eff, nil
	}

	m := s.freshMeta()
	for _, it := range ex.Items {
		vt, ve, err := inferExpr(s, it.Value, nil)
		if err != nil {
			return nil, Effect{}, err
		}
		if _, err := constrainRecordField(s, m.ID, it.Key, vt, it.ItemSpan); err != nil {
			return nil, Effect{}, err
		}
		eff, err = joinEffect(eff, ve, it.ItemSpan)
		if err != nil {
			return nil, Effect{}, err
		}
	}
	return m, eff, nil
}

func inferMatchExpr(s *scope, ex *hir.MatchExpr) (Type, Effect, error) {
	tScrut, eScrut, err := inferExpr(s, ex.Scrutinee, nil)
	if err != nil {
		return nil, Effect{}, err
	}
	outT := s.freshMeta()
	all := eScrut
	for _, arm := range ex.Arms {
		saved := cloneEnv(s.env)
		if err := bindPattern(s, arm.Pat, tScrut); err != nil {
			return nil, Effect{}, err
		}
		bt, be, err := inferExpr(s, arm.Body, outT)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, outT, bt, arm.ArmSpan); err != nil {
			return nil, Effect{}, err
		}
		all, err = joinEffect(all, be, arm.ArmSpan)
		if err != nil {
			return nil, Effect{}, err
		}
		s.env = saved
	}
	return outT, all, nil
}

// callArgSpan pairs a call argument's value expression with the span to
// blame a type error on: the argument's own span, not the call's.
type callArgSpan struct {
	val  hir.Expr
	span token.Span
}

func inferCall(s *scope, e *hir.CallExpr, expected Type) (Type, Effect, error) {
	calleeT, calleeE, err := inferExpr(s, e.Callee, nil)
	if err != nil {
		return nil, Effect{}, err
	}
	switch callee := calleeT.(type) {
	case TFn:
		return inferFnCall(s, callee.Sym, e, calleeE)
	case TCtor:
		return inferCtorCall(s, callee.Sym, e, expected)
	default:
		return nil, Effect{}, &TypeError{Message: "call expects function or constructor", At: e.ExprSpan}
	}
}

func inferFnCall(s *scope, fnSym symbol.Id, e *hir.CallExpr, calleeEff Effect) (Type, Effect, error) {
	sig, ok := s.c.fnSig[fnSym]
	if !ok {
		return nil, Effect{}, &TypeError{Message: "unknown function", At: e.ExprSpan}
	}

	type fixedParam struct {
		name string
		typ  Type
		span token.Span
	}
	var fixed []fixedParam
	var varargs, varkw *Type

	for _, pm := range s.c.fnParamMeta[fnSym] {
		psym := s.c.symByID[pm.Sym]
		switch pm.Kind {
		case hir.ParamVarargs:
			t := pm.Type
			varargs = &t
		case hir.ParamVarkw:
			t := pm.Type
			varkw = &t
		default:
			fixed = append(fixed, fixedParam{name: psym.Name, typ: pm.Type, span: psym.Span})
		}
	}

	fnEff := s.c.fnEffect[fnSym]
	if fnEff != 0 {
		if s.currentSector == 0 {
			return nil, Effect{}, &EffectError{Message: "calling sector function from pure context", At: e.ExprSpan}
		}
		if s.currentSector != fnEff {
			return nil, Effect{}, &EffectError{Message: "direct cross-sector call; use rpc/call", At: e.ExprSpan}
		}
	}

	var pos []callArgSpan
	var kws []struct {
		name string
		callArgSpan
	}
	var star, starstar *callArgSpan
	sawKw := false

	for _, a := range e.Args {
		switch arg := a.(type) {
		case *hir.CallArgPos:
			if sawKw {
				return nil, Effect{}, &TypeError{Message: "positional argument after keyword", At: arg.ArgSpan}
			}
			pos = append(pos, callArgSpan{arg.Value, arg.ArgSpan})
		case *hir.CallArgKw:
			sawKw = true
			kws = append(kws, struct {
				name string
				callArgSpan
			}{arg.Name, callArgSpan{arg.Value, arg.ArgSpan}})
		case *hir.CallArgStar:
			if star != nil || sawKw {
				return nil, Effect{}, &TypeError{Message: "invalid *args position", At: arg.ArgSpan}
			}
			sawKw = true
			star = &callArgSpan{arg.Value, arg.ArgSpan}
		case *hir.CallArgStarStar:
			if starstar != nil {
				return nil, Effect{}, &TypeError{Message: "duplicate **kwargs", At: arg.ArgSpan}
			}
			sawKw = true
			starstar = &callArgSpan{arg.Value, arg.ArgSpan}
		}
	}

	eff := calleeEff
	provided := make(map[string]bool, len(fixed))
	i := 0
	for _, fp := range fixed {
		if i < len(pos) {
			at, ae, err := inferExpr(s, pos[i].val, fp.typ)
			if err != nil {
				return nil, Effect{}, err
			}
			if err := unify(s, fp.typ, at, pos[i].span); err != nil {
				return nil, Effect{}, err
			}
			if eff, err = joinEffect(eff, ae, pos[i].span); err != nil {
				return nil, Effect{}, err
			}
			provided[fp.name] = true
			i++
		} else {
			provided[fp.name] = false
		}
	}

	// Extra positional arguments spill into *args; flavent has no generic
	// container type to unwrap an element type from, so every extra
	// positional checks directly against the varargs parameter's own type.
	if i < len(pos) {
		if varargs == nil {
			return nil, Effect{}, &TypeError{Message: "arity mismatch", At: e.ExprSpan}
		}
		vt := *varargs
		for j := i; j < len(pos); j++ {
			at, ae, err := inferExpr(s, pos[j].val, vt)
			if err != nil {
				return nil, Effect{}, err
			}
			if err := unify(s, vt, at, pos[j].span); err != nil {
				return nil, Effect{}, err
			}
			if eff, err = joinEffect(eff, ae, pos[j].span); err != nil {
				return nil, Effect{}, err
			}
		}
	}

	fixedMap := make(map[string]Type, len(fixed))
	for _, fp := range fixed {
		fixedMap[fp.name] = fp.typ
	}
	for _, kw := range kws {
		if pt, ok := fixedMap[kw.name]; ok {
			if provided[kw.name] {
				return nil, Effect{}, &TypeError{Message: "duplicate keyword", At: kw.span}
			}
			at, ae, err := inferExpr(s, kw.val, pt)
			if err != nil {
				return nil, Effect{}, err
			}
			if err := unify(s, pt, at, kw.span); err != nil {
				return nil, Effect{}, err
			}
			if eff, err = joinEffect(eff, ae, kw.span); err != nil {
				return nil, Effect{}, err
			}
			provided[kw.name] = true
			continue
		}
		if varkw == nil {
			return nil, Effect{}, &TypeError{Message: "unknown keyword", At: kw.span}
		}
		kt := *varkw
		at, ae, err := inferExpr(s, kw.val, kt)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, kt, at, kw.span); err != nil {
			return nil, Effect{}, err
		}
		if eff, err = joinEffect(eff, ae, kw.span); err != nil {
			return nil, Effect{}, err
		}
	}

	for _, fp := range fixed {
		if !provided[fp.name] {
			return nil, Effect{}, &TypeError{Message: "missing argument", At: fp.span}
		}
	}

	if star != nil {
		if varargs == nil {
			return nil, Effect{}, &TypeError{Message: "unexpected *args", At: star.span}
		}
		vt := *varargs
		at, ae, err := inferExpr(s, star.val, vt)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, vt, at, star.span); err != nil {
			return nil, Effect{}, err
		}
		if eff, err = joinEffect(eff, ae, star.span); err != nil {
			return nil, Effect{}, err
		}
	}

	if starstar != nil {
		if varkw == nil {
			return nil, Effect{}, &TypeError{Message: "unexpected **kwargs", At: starstar.span}
		}
		kt := *varkw
		at, ae, err := inferExpr(s, starstar.val, kt)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, kt, at, starstar.span); err != nil {
			return nil, Effect{}, err
		}
		if eff, err = joinEffect(eff, ae, starstar.span); err != nil {
			return nil, Effect{}, err
		}
	}

	return sig.Ret, eff, nil
}

func inferCtorCall(s *scope, ctorSym symbol.Id, e *hir.CallExpr, expected Type) (Type, Effect, error) {
	name := s.c.symByID[ctorSym].Name

	var posArgs []callArgSpan
	for _, a := range e.Args {
		pa, ok := a.(*hir.CallArgPos)
		if !ok {
			return nil, Effect{}, &TypeError{Message: "constructor call expects positional args only", At: a.Span()}
		}
		posArgs = append(posArgs, callArgSpan{pa.Value, pa.ArgSpan})
	}

	switch name {
	case "Ok", "Err":
		tRes := resultType(s)
		if expected != nil {
			tRes = prune(s, expected)
			if m, ok := tRes.(*TMeta); ok {
				bound := resultType(s)
				s.metaBindings[m.ID] = bound
				tRes = bound
			}
		}
		if !isResultType(s, tRes) {
			return nil, Effect{}, &TypeError{Message: "Ok/Err must construct Result", At: e.ExprSpan}
		}
		tOk, tErr := resultArgs(tRes)
		want := tErr
		if name == "Ok" {
			want = tOk
		}
		if len(posArgs) != 1 {
			return nil, Effect{}, &TypeError{Message: name + " expects 1 arg", At: e.ExprSpan}
		}
		at, ae, err := inferExpr(s, posArgs[0].val, want)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, want, at, posArgs[0].span); err != nil {
			return nil, Effect{}, err
		}
		return tRes, ae, nil

	case "Some", "None":
		tOpt := optionType(s)
		if expected != nil {
			tOpt = prune(s, expected)
			if m, ok := tOpt.(*TMeta); ok {
				bound := optionType(s)
				s.metaBindings[m.ID] = bound
				tOpt = bound
			}
		}
		if !isOptionType(s, tOpt) {
			return nil, Effect{}, &TypeError{Message: "Some/None must construct Option", At: e.ExprSpan}
		}
		tInner := optionArg(tOpt)
		if name == "None" {
			if len(posArgs) != 0 {
				return nil, Effect{}, &TypeError{Message: "None expects 0 args", At: e.ExprSpan}
			}
			return tOpt, PureEffect, nil
		}
		if len(posArgs) != 1 {
			return nil, Effect{}, &TypeError{Message: "Some expects 1 arg", At: e.ExprSpan}
		}
		at, ae, err := inferExpr(s, posArgs[0].val, tInner)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, tInner, at, posArgs[0].span); err != nil {
			return nil, Effect{}, err
		}
		return tOpt, ae, nil
	}

	sig, ok := s.c.ctorSig[ctorSym]
	if !ok {
		return nil, Effect{}, &TypeError{Message: "unknown constructor", At: e.ExprSpan}
	}
	if expected != nil {
		if err := unify(s, expected, sig.Ret, e.ExprSpan); err != nil {
			return nil, Effect{}, err
		}
	}
	if len(sig.Payload) != len(posArgs) {
		return nil, Effect{}, &TypeError{Message: "arity mismatch", At: e.ExprSpan}
	}
	eff := PureEffect
	for i, pa := range posArgs {
		pt := sig.Payload[i]
		at, ae, err := inferExpr(s, pa.val, pt)
		if err != nil {
			return nil, Effect{}, err
		}
		if err := unify(s, pt, at, pa.span); err != nil {
			return nil, Effect{}, err
		}
		if eff, err = joinEffect(eff, ae, pa.span); err != nil {
			return nil, Effect{}, err
		}
	}
	return sig.Ret, eff, nil
}

// bindPattern binds pat's variables into scope's env against scrutT, the
// scrutinee's (or scrutinee sub-structure's) type. A PCtor pattern whose
// constructor has no ctor_sig entry — true of Ok/Err/Some/None, which are
// seeded directly into the symbol table rather than declared through a
// hir.TypeDecl (see resolver.installBuiltins) — matches structurally but
// binds none of its payload variables, mirroring
// original_source/flavent/typecheck.py's _bind_pattern exactly.
func bindPattern(s *scope, pat hir.Pattern, scrutT Type) error {
	switch p := pat.(type) {
	case *hir.PWildcard:
		return nil

	case *hir.PBool:
		return unify(s, s.typeByName("Bool"), scrutT, p.PatSpan)

	case *hir.PVar:
		s.env[p.Sym] = scrutT
		return nil

	case *hir.PCtor:
		sig, ok := s.c.ctorSig[p.Ctor]
		if !ok {
			return nil
		}
		if err := unify(s, scrutT, sig.Ret, p.PatSpan); err != nil {
			return err
		}
		if len(p.Args) != len(sig.Payload) {
			return &TypeError{Message: "arity mismatch", At: p.PatSpan}
		}
		for i, ap := range p.Args {
			if err := bindPattern(s, ap, sig.Payload[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		return &TypeError{Message: "unsupported pattern", At: pat.Span()}
	}
}
