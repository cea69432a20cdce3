package check

import (
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/symbol"
)

// checkFn typechecks one function body against its declared signature: owner
// is the sector it belongs to, or 0 for a free function. The body's overall
// effect must be pure for a free function, or bound to owner for a sector
// method — a sector method's body mixing in some other sector's effect is
// always a bug (it could only happen through a direct cross-sector call,
// which inferCall already rejects on its own).
func checkFn(c *checker, fn *hir.FnDecl, owner symbol.Id) error {
	s := newScope(c, owner, false)
	for _, p := range fn.Params {
		s.env[p.Sym] = c.lowerTypeRef(p.Type)
	}

	eff, err := checkBlock(s, fn.Body, c.lowerTypeRef(fn.RetType), false)
	if err != nil {
		return err
	}

	if owner == 0 {
		if !eff.Pure {
			return &EffectError{Message: "pure function body has effects", At: fn.DeclSpan}
		}
		return nil
	}
	if !eff.Pure && eff.Sector != owner {
		return &EffectError{Message: "function body mixes sectors", At: fn.DeclSpan}
	}
	return nil
}

// checkHandler typechecks one `on` handler body: its payload binder (if any)
// is bound to the event's type, and the body's implicit return type is
// always Unit (a handler's final expression is evaluated for its effect,
// never returned to a caller).
func checkHandler(c *checker, h *hir.HandlerDecl, owner symbol.Id) error {
	s := newScope(c, owner, true)
	if h.Binder != 0 {
		s.env[h.Binder] = TCon{Sym: h.EventType}
	}
	_, err := checkBlock(s, h.Body, s.typeByName("Unit"), true)
	return err
}

func checkBlock(s *scope, b *hir.Block, expectedRet Type, inHandler bool) (Effect, error) {
	eff := PureEffect
	for _, st := range b.Stmts {
		se, err := checkStmt(s, st, expectedRet, inHandler)
		if err != nil {
			return Effect{}, err
		}
		eff, err = joinEffect(eff, se, st.Span())
		if err != nil {
			return Effect{}, err
		}
	}
	return eff, nil
}

func checkStmt(s *scope, stmt hir.Stmt, expectedRet Type, inHandler bool) (Effect, error) {
	switch st := stmt.(type) {
	case *hir.LetStmt:
		t, eff, err := inferExpr(s, st.Value, nil)
		if err != nil {
			return Effect{}, err
		}
		s.env[st.Sym] = t
		return eff, nil

	case *hir.AssignStmt:
		var lhs Type
		if lv, ok := st.Target.(*hir.LVar); ok {
			if t, ok := s.env[lv.Sym]; ok {
				lhs = t
			} else if t, ok := s.c.globalEnv[lv.Sym]; ok {
				lhs = t
			} else {
				return Effect{}, &TypeError{Message: "assign to unknown var", At: st.StmtSpan}
			}
		}
		rhs, eff, err := inferExpr(s, st.Value, lhs)
		if err != nil {
			return Effect{}, err
		}
		if lhs != nil {
			if err := unify(s, lhs, rhs, st.StmtSpan); err != nil {
				return Effect{}, err
			}
		}
		return eff, nil

	case *hir.EmitStmt:
		if s.currentSector == 0 {
			return Effect{}, &EffectError{Message: "emit outside sector", At: st.StmtSpan}
		}
		t, _, err := inferExpr(s, st.Value, nil)
		if err != nil {
			return Effect{}, err
		}
		if !isEventType(s, t) {
			return Effect{}, &TypeError{Message: "emit expects Event.* type", At: st.StmtSpan}
		}
		return sectorEffect(s.currentSector), nil

	case *hir.ReturnStmt:
		t, eff, err := inferExpr(s, st.Value, expectedRet)
		if err != nil {
			return Effect{}, err
		}
		if err := unify(s, expectedRet, t, st.StmtSpan); err != nil {
			return Effect{}, err
		}
		return eff, nil

	case *hir.AbortHandlerStmt:
		if !inHandler {
			return Effect{}, &EffectError{Message: "abort_handler outside handler", At: st.StmtSpan}
		}
		if st.Cause != nil {
			if _, _, err := inferExpr(s, st.Cause, nil); err != nil {
				return Effect{}, err
			}
		}
		return sectorEffect(s.currentSector), nil

	case *hir.StopStmt:
		if s.currentSector == 0 {
			return Effect{}, &EffectError{Message: "stop outside sector", At: st.StmtSpan}
		}
		return sectorEffect(s.currentSector), nil

	case *hir.YieldStmt:
		if s.currentSector == 0 {
			return Effect{}, &EffectError{Message: "yield outside sector", At: st.StmtSpan}
		}
		return sectorEffect(s.currentSector), nil

	case *hir.ExprStmt:
		_, eff, err := inferExpr(s, st.Value, nil)
		return eff, err

	case *hir.IfStmt:
		boolT := s.typeByName("Bool")
		tCond, eCond, err := inferExpr(s, st.Cond, boolT)
		if err != nil {
			return Effect{}, err
		}
		if err := unify(s, boolT, tCond, st.StmtSpan); err != nil {
			return Effect{}, err
		}
		eThen, err := checkBlock(s, st.ThenBlock, expectedRet, inHandler)
		if err != nil {
			return Effect{}, err
		}
		eElse := PureEffect
		if st.ElseBlock != nil {
			eElse, err = checkBlock(s, st.ElseBlock, expectedRet, inHandler)
			if err != nil {
				return Effect{}, err
			}
		}
		joined, err := joinEffect(eCond, eThen, st.StmtSpan)
		if err != nil {
			return Effect{}, err
		}
		return joinEffect(joined, eElse, st.StmtSpan)

	case *hir.ForStmt:
		if s.currentSector == 0 {
			return Effect{}, &EffectError{Message: "for outside sector", At: st.StmtSpan}
		}
		_, eIt, err := inferExpr(s, st.Iterable, nil)
		if err != nil {
			return Effect{}, err
		}
		s.env[st.Binder] = s.freshMeta()
		eBody, err := checkBlock(s, st.Body, expectedRet, inHandler)
		if err != nil {
			return Effect{}, err
		}
		return joinEffect(eIt, eBody, st.StmtSpan)

	case *hir.MatchStmt:
		tScrut, eScrut, err := inferExpr(s, st.Scrutinee, nil)
		if err != nil {
			return Effect{}, err
		}
		all := eScrut
		for _, arm := range st.Arms {
			saved := cloneEnv(s.env)
			if err := bindPattern(s, arm.Pat, tScrut); err != nil {
				return Effect{}, err
			}
			eArm, err := checkBlock(s, arm.Body, expectedRet, inHandler)
			if err != nil {
				return Effect{}, err
			}
			all, err = joinEffect(all, eArm, arm.ArmSpan)
			if err != nil {
				return Effect{}, err
			}
			s.env = saved
		}
		return all, nil

	default:
		return Effect{}, &TypeError{Message: "unsupported statement in typecheck", At: stmt.Span()}
	}
}

func cloneEnv(env map[symbol.Id]Type) map[symbol.Id]Type {
	out := make(map[symbol.Id]Type, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
