// Package check implements the bidirectional type and effect checker that
// runs over a lowered hir.Program: it assigns a Type to every expression,
// unifying against an expected type where the surrounding syntax supplies
// one, and tracks an Effect (pure, or bound to a specific sector) for every
// expression and statement so that sector-only operations (emit, rpc/call,
// await, stop/yield, for) never leak into a pure function body and a sector
// function's body never mixes more than one sector's effect.
//
// Grounded on original_source/flavent/typecheck.py. Unlike lang/resolver and
// lang/lower, which accumulate a scanner.ErrorList and keep going to give a
// caller a best-effort result, checking stops at the first error: that is
// what typecheck.py itself does (every failure is a raised exception, never
// collected into a list), and a type error in one function says nothing
// reliable about whether a later function would also fail, so there is
// nothing a partial second pass would usefully recover.
//
// typecheck.py threads a generic-instantiation machinery (_TGen, _instantiate,
// per-function type-parameter schemes) through every one of these helpers,
// driven by a "type_param_ids" entry in a symbol's duck-typed data bag. Go's
// ast/resolver/hir stack has no surface syntax for a generic type parameter
// on a TypeDecl or an FnSignature at all (nothing declares one, so no symbol
// ever carries that data), which makes the whole apparatus unreachable here.
// This package drops it and special-cases the two built-in generics
// (Result[T,E], Option[T]) directly instead of building general instantiation
// support for declarations that cannot exist.
package check

import (
	"fmt"

	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// Type is the checker's internal representation of a flavent type: a
// concrete named type, a generic application, a tuple, an opaque index
// result, a unification metavariable, or (transiently, only ever produced by
// inferring a VarExpr and consumed by the immediately enclosing CallExpr) a
// reference to a callable function or constructor.
type Type interface{ isType() }

// TCon is a concrete, argument-less named type: a primitive (Int, Str, ...),
// a type alias, or a sum/record type referenced without type arguments.
type TCon struct{ Sym symbol.Id }

// TApp is a named type applied to type arguments; the only types that can
// ever appear here are the two built-ins, Result[T, E] and Option[T], since
// .flv has no syntax to declare a user generic type.
type TApp struct {
	Sym  symbol.Id
	Args []Type
}

// TTuple is a fixed-arity tuple literal's type.
type TTuple struct{ Elems []Type }

// TIndex is the type flavent infers for an IndexExpr: recorded faithfully to
// original_source/flavent/typecheck.py's behavior, which is to track the
// indexed object's and index's types but never unify two TIndex values
// against each other, or against anything but a fresh metavariable. flavent
// has no indexable builtin container type to check element access against,
// so indexing an opaque value only ever typechecks where the result flows
// into a position with no fixed expected type.
type TIndex struct{ Obj, Idx Type }

// TMeta is a unification metavariable, identified within the scope of a
// single function or handler check (ids are not unique across an entire
// program check; only comparisons within one scope's meta tables are
// meaningful).
type TMeta struct{ ID int }

// TFn marks a VarExpr resolving to a Fn symbol: a transient callee marker,
// produced only by inferExpr(VarExpr) and consumed immediately by
// inferCall. It is never a "real" type: nothing unifies against it.
type TFn struct{ Sym symbol.Id }

// TCtor marks a VarExpr resolving to a Ctor symbol, the same way TFn marks a
// Fn reference.
type TCtor struct{ Sym symbol.Id }

func (TCon) isType()   {}
func (TApp) isType()   {}
func (TTuple) isType() {}
func (TIndex) isType() {}
func (*TMeta) isType() {}
func (TFn) isType()    {}
func (TCtor) isType()  {}

// Effect classifies a checked expression or statement as pure (no sector
// side effect) or bound to exactly one sector.
type Effect struct {
	Pure   bool
	Sector symbol.Id
}

// PureEffect is the effect of any expression that touches no sector state.
var PureEffect = Effect{Pure: true}

func sectorEffect(sector symbol.Id) Effect { return Effect{Sector: sector} }

// joinEffect merges the effects of two sibling expressions or statements
// evaluated in the same scope (e.g. a binary operator's two operands, or two
// statements in a block): a pure effect is absorbed into whatever the other
// side is, and two sector effects are only compatible if they name the same
// sector. Mixing two different sectors' effects in one expression or block
// is never legal — a handler or sector function can only ever act within
// its own sector.
func joinEffect(a, b Effect, at token.Span) (Effect, error) {
	if a.Pure {
		return b, nil
	}
	if b.Pure {
		return a, nil
	}
	if a.Sector == b.Sector {
		return a, nil
	}
	return Effect{}, &EffectError{Message: "mixed sectors in one expression", At: at}
}

// TypeError reports a type mismatch, arity error, or other static-shape
// violation. Grounded on original_source/flavent/diagnostics.py's TypeError.
type TypeError struct {
	Message string
	At      token.Span
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.At.File, e.At.Line, e.At.Column, e.Message)
}

// EffectError reports a sector-effect violation: a sector-only operation
// used outside a sector, a direct cross-sector call, or mixed-sector
// composition. Grounded on original_source/flavent/diagnostics.py's
// EffectError.
type EffectError struct {
	Message string
	At      token.Span
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.At.File, e.At.Line, e.At.Column, e.Message)
}

// fnSig is a function's parameter and return types, already in declaration
// order (no instantiation step: see the package doc comment).
type fnSig struct {
	Params []Type
	Ret    Type
}

// paramMeta is one function parameter's symbol, binding kind, and type —
// kept separate from fnSig.Params because call-argument binding needs the
// kind (normal/varargs/varkw) and the owning symbol, not just the type.
type paramMeta struct {
	Sym  symbol.Id
	Kind hir.ParamKind
	Type Type
}

// ctorSig is a sum-type constructor's payload types and the type its call
// produces.
type ctorSig struct {
	Payload []Type
	Ret     Type
}

// checker holds the whole-program tables built once from the resolved
// symbol table and the lowered HIR: every lookup a function or handler body
// check needs is already indexed by symbol id before any expression is
// inferred.
type checker struct {
	typeIDByName map[string]symbol.Id
	typeAlias    map[symbol.Id]Type
	fnSig        map[symbol.Id]fnSig
	fnParamMeta  map[symbol.Id][]paramMeta
	fnEffect     map[symbol.Id]symbol.Id // 0 = pure (free function)
	ctorSig      map[symbol.Id]ctorSig
	recordFields map[symbol.Id]map[string]Type
	symByID      map[symbol.Id]symbol.Symbol

	globalEnv map[symbol.Id]Type
	nextMeta  int
}

// scope is the per-function/handler-check state: typecheck.py forks a fresh
// _TypeCtx (fresh env, fresh meta_bindings, current_sector/expected_effect
// pinned to this function's owner) for every top-level fn, sector fn, and
// handler it checks, while sharing the whole-program tables and global_env
// back with the parent checker. scope mirrors that split.
type scope struct {
	c *checker

	currentSector symbol.Id // 0 = pure context
	inHandler     bool

	env              map[symbol.Id]Type
	metaBindings     map[int]Type
	metaRecordFields map[int]map[string]Type
	nextMeta         int
}

func newScope(c *checker, currentSector symbol.Id, inHandler bool) *scope {
	return &scope{
		c:                c,
		currentSector:    currentSector,
		inHandler:        inHandler,
		env:              map[symbol.Id]Type{},
		metaBindings:     map[int]Type{},
		metaRecordFields: map[int]map[string]Type{},
		nextMeta:         c.nextMeta,
	}
}

func (s *scope) freshMeta() *TMeta {
	id := s.nextMeta
	s.nextMeta++
	return &TMeta{ID: id}
}

func (s *scope) typeByName(name string) Type {
	return TCon{Sym: s.c.typeIDByName[name]}
}

// Check runs the whole-program check over hir against the symbol table res
// produced resolving the same module. A nil error means every top-level
// value, function, sector, and handler typechecks; a non-nil error is the
// first TypeError or EffectError encountered, in the same best-effort-free
// register typecheck.py itself raises in.
func Check(hirProg *hir.Program, res *resolver.Result) error {
	c := &checker{
		typeIDByName: map[string]symbol.Id{},
		typeAlias:    map[symbol.Id]Type{},
		fnSig:        map[symbol.Id]fnSig{},
		fnParamMeta:  map[symbol.Id][]paramMeta{},
		fnEffect:     map[symbol.Id]symbol.Id{},
		ctorSig:      map[symbol.Id]ctorSig{},
		recordFields: map[symbol.Id]map[string]Type{},
		symByID:      map[symbol.Id]symbol.Symbol{},
		globalEnv:    map[symbol.Id]Type{},
		nextMeta:     1,
	}
	for _, sym := range res.Table.All() {
		c.symByID[sym.ID] = sym
		if sym.Kind == symbol.TypeSym {
			c.typeIDByName[sym.Name] = sym.ID
		}
	}

	for _, td := range hirProg.Types {
		switch rhs := td.RHS.(type) {
		case *hir.TypeAlias:
			c.typeAlias[td.Sym] = c.lowerTypeRef(rhs.Target)
		case *hir.RecordType:
			fields := make(map[string]Type, len(rhs.Fields))
			for _, f := range rhs.Fields {
				fields[f.Name] = c.lowerTypeRef(f.Type)
			}
			c.recordFields[td.Sym] = fields
		case *hir.SumType:
			ret := Type(TCon{Sym: td.Sym})
			for _, variant := range rhs.Variants {
				payload := make([]Type, 0, len(variant.Payload))
				for _, p := range variant.Payload {
					payload = append(payload, c.lowerTypeRef(p))
				}
				c.ctorSig[variant.Ctor] = ctorSig{Payload: payload, Ret: ret}
			}
		}
	}

	collectFn := func(fn *hir.FnDecl, owner symbol.Id) {
		params := make([]Type, 0, len(fn.Params))
		metas := make([]paramMeta, 0, len(fn.Params))
		for _, p := range fn.Params {
			pt := c.lowerTypeRef(p.Type)
			params = append(params, pt)
			metas = append(metas, paramMeta{Sym: p.Sym, Kind: p.Kind, Type: pt})
		}
		c.fnSig[fn.Sym] = fnSig{Params: params, Ret: c.lowerTypeRef(fn.RetType)}
		c.fnParamMeta[fn.Sym] = metas
		c.fnEffect[fn.Sym] = owner
	}
	for _, fn := range hirProg.Fns {
		collectFn(fn, 0)
	}
	for _, sec := range hirProg.Sectors {
		for _, fn := range sec.Fns {
			collectFn(fn, sec.Sym)
		}
	}

	top := newScope(c, 0, false)
	for _, vd := range hirProg.Consts {
		t, eff, err := inferExpr(top, vd.Expr, nil)
		if err != nil {
			return err
		}
		if !eff.Pure {
			return &EffectError{Message: "top-level initializer must be pure", At: vd.DeclSpan}
		}
		c.globalEnv[vd.Sym] = t
	}
	for _, vd := range hirProg.Globals {
		t, eff, err := inferExpr(top, vd.Expr, nil)
		if err != nil {
			return err
		}
		if !eff.Pure {
			return &EffectError{Message: "top-level initializer must be pure", At: vd.DeclSpan}
		}
		c.globalEnv[vd.Sym] = t
	}
	for _, vd := range hirProg.Needs {
		t, _, err := inferExpr(top, vd.Expr, nil)
		if err != nil {
			return err
		}
		c.globalEnv[vd.Sym] = t
	}
	c.nextMeta = top.nextMeta

	for _, fn := range hirProg.Fns {
		if err := checkFn(c, fn, 0); err != nil {
			return err
		}
	}
	for _, sec := range hirProg.Sectors {
		for _, vd := range sec.Lets {
			t, eff, err := inferExpr(top, vd.Expr, nil)
			if err != nil {
				return err
			}
			if !eff.Pure {
				return &EffectError{Message: "sector let initializer must be pure", At: vd.DeclSpan}
			}
			c.globalEnv[vd.Sym] = t
		}
		c.nextMeta = top.nextMeta
		for _, fn := range sec.Fns {
			if err := checkFn(c, fn, sec.Sym); err != nil {
				return err
			}
		}
		for _, h := range sec.Handlers {
			if err := checkHandler(c, h, sec.Sym); err != nil {
				return err
			}
		}
	}
	return nil
}

// lowerTypeRef converts a hir.TypeRef (always a *hir.TypeApp coming out of
// lowering; *hir.TypeVar is only ever introduced by this package itself) into
// the checker's internal Type.
func (c *checker) lowerTypeRef(tr hir.TypeRef) Type {
	if tr == nil {
		return TCon{Sym: c.typeIDByName["Unit"]}
	}
	switch t := tr.(type) {
	case *hir.TypeApp:
		if len(t.Args) == 0 {
			return TCon{Sym: t.Base}
		}
		args := make([]Type, 0, len(t.Args))
		for _, a := range t.Args {
			args = append(args, c.lowerTypeRef(a))
		}
		return TApp{Sym: t.Base, Args: args}
	default:
		return TCon{Sym: 0}
	}
}

// prune resolves a metavariable through scope's bindings to the type it was
// last unified with, path-compressing as it goes. Any non-metavariable type
// is returned unchanged.
func prune(s *scope, t Type) Type {
	m, ok := t.(*TMeta)
	if !ok {
		return t
	}
	bound, ok := s.metaBindings[m.ID]
	if !ok {
		return m
	}
	pr := prune(s, bound)
	s.metaBindings[m.ID] = pr
	return pr
}

// expandTypeAlias follows t through declared type aliases until it reaches a
// non-alias shape, erroring on a cyclic alias chain.
func expandTypeAlias(s *scope, t Type, at token.Span) (Type, error) {
	cur := prune(s, t)
	seen := map[symbol.Id]bool{}
	for {
		var tid symbol.Id
		switch ct := cur.(type) {
		case TCon:
			tid = ct.Sym
		case TApp:
			tid = ct.Sym
		default:
			return cur, nil
		}
		target, ok := s.c.typeAlias[tid]
		if !ok {
			return cur, nil
		}
		if seen[tid] {
			return nil, &TypeError{Message: "cyclic type alias", At: at}
		}
		seen[tid] = true
		cur = prune(s, target)
	}
}

// unify makes a and b denote the same type, binding whichever metavariables
// it needs to, or erroring if the two shapes can never agree.
func unify(s *scope, a, b Type, at token.Span) error {
	a = prune(s, a)
	b = prune(s, b)

	var err error
	a, err = expandTypeAlias(s, a, at)
	if err != nil {
		return err
	}
	b, err = expandTypeAlias(s, b, at)
	if err != nil {
		return err
	}

	if am, ok := a.(*TMeta); ok {
		if err := applyMetaRecordConstraints(s, am.ID, b, at); err != nil {
			return err
		}
		s.metaBindings[am.ID] = b
		return nil
	}
	if bm, ok := b.(*TMeta); ok {
		if err := applyMetaRecordConstraints(s, bm.ID, a, at); err != nil {
			return err
		}
		s.metaBindings[bm.ID] = a
		return nil
	}

	switch av := a.(type) {
	case TCon:
		if bv, ok := b.(TCon); ok {
			if av.Sym != bv.Sym {
				return &TypeError{Message: "type mismatch", At: at}
			}
			return nil
		}
	case TApp:
		if bv, ok := b.(TApp); ok {
			if av.Sym != bv.Sym || len(av.Args) != len(bv.Args) {
				return &TypeError{Message: "type mismatch", At: at}
			}
			for i := range av.Args {
				if err := unify(s, av.Args[i], bv.Args[i], at); err != nil {
					return err
				}
			}
			return nil
		}
	case TTuple:
		if bv, ok := b.(TTuple); ok {
			if len(av.Elems) != len(bv.Elems) {
				return &TypeError{Message: "type mismatch", At: at}
			}
			for i := range av.Elems {
				if err := unify(s, av.Elems[i], bv.Elems[i], at); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return &TypeError{Message: "type mismatch", At: at}
}

// constrainRecordField records (or checks, if already recorded) that the
// record a metavariable eventually resolves to has a field named field of
// type expected — the structural-typing fallback used when a record literal
// has no contextual expected type to check directly against.
func constrainRecordField(s *scope, mid int, field string, expected Type, at token.Span) (Type, error) {
	fields, ok := s.metaRecordFields[mid]
	if !ok {
		fields = map[string]Type{}
		s.metaRecordFields[mid] = fields
	}
	if ft, ok := fields[field]; ok {
		if expected != nil {
			if err := unify(s, ft, expected, at); err != nil {
				return nil, err
			}
		}
		return ft, nil
	}
	ft := expected
	if ft == nil {
		ft = s.freshMeta()
	}
	fields[field] = ft
	return ft, nil
}

// mergeMetaRecordFields folds src's accumulated structural field constraints
// into dst's, used when two metavariables carrying their own field
// constraints are unified with each other.
func mergeMetaRecordFields(s *scope, src, dst int, at token.Span) error {
	a, ok := s.metaRecordFields[src]
	if !ok {
		return nil
	}
	b, ok := s.metaRecordFields[dst]
	if !ok {
		b = map[string]Type{}
		s.metaRecordFields[dst] = b
	}
	for k, v := range a {
		if existing, ok := b[k]; ok {
			if err := unify(s, existing, v, at); err != nil {
				return err
			}
		} else {
			b[k] = v
		}
	}
	delete(s.metaRecordFields, src)
	return nil
}

// applyMetaRecordConstraints checks t (the type a metavariable mid is about
// to be bound to) against whatever structural field constraints mid
// accumulated from record-literal inference before it was resolved.
func applyMetaRecordConstraints(s *scope, mid int, t Type, at token.Span) error {
	fields, ok := s.metaRecordFields[mid]
	if !ok || len(fields) == 0 {
		return nil
	}
	t = prune(s, t)
	if tm, ok := t.(*TMeta); ok {
		return mergeMetaRecordFields(s, mid, tm.ID, at)
	}

	var tid symbol.Id
	switch tv := t.(type) {
	case TCon:
		tid = tv.Sym
	case TApp:
		tid = tv.Sym
	default:
		return &TypeError{Message: "type mismatch", At: at}
	}
	decl, ok := s.c.recordFields[tid]
	if !ok {
		return &TypeError{Message: "type mismatch", At: at}
	}
	for k, v := range fields {
		ft, ok := decl[k]
		if !ok {
			return &TypeError{Message: "unknown record field", At: at}
		}
		if err := unify(s, ft, v, at); err != nil {
			return err
		}
	}
	delete(s.metaRecordFields, mid)
	return nil
}

func litType(s *scope, lit hir.Literal) Type {
	switch lit.Kind {
	case hir.LitInt:
		return s.typeByName("Int")
	case hir.LitFloat:
		return s.typeByName("Float")
	case hir.LitBool:
		return s.typeByName("Bool")
	case hir.LitString:
		return s.typeByName("Str")
	case hir.LitBytes:
		return s.typeByName("Bytes")
	default:
		return s.typeByName("Unit")
	}
}

// isEventType reports whether t is a legitimate emit/await payload type: a
// user-declared type (a record, a sum type, or one of its variant
// constructors), as opposed to a bare primitive or an unresolved
// metavariable. original_source/flavent/typecheck.py's _is_event_type
// checks a literal "Event." name prefix, but ast.TypeDecl.Name is a plain
// *Ident in this port — a dotted declaration like `type Event.X = {...}`
// can't be parsed at all, so that prefix never becomes reachable symbol
// data here. Declared-type-ness is the closest reachable approximation of
// the same intent: primitives are never sensible event payloads, and
// resolver.resolveEventRef only ever binds a handler's or emit's event
// reference to a TypeSym or a sum-type variant Ctor in the first place.
func isEventType(s *scope, t Type) bool {
	t = prune(s, t)
	con, ok := t.(TCon)
	if !ok || con.Sym == 0 {
		return false
	}
	switch con.Sym {
	case s.c.typeIDByName["Unit"], s.c.typeIDByName["Int"], s.c.typeIDByName["Float"],
		s.c.typeIDByName["Bool"], s.c.typeIDByName["Str"], s.c.typeIDByName["Bytes"],
		s.c.typeIDByName["Any"]:
		return false
	}
	sym, ok := s.c.symByID[con.Sym]
	if !ok {
		return false
	}
	switch sym.Kind {
	case symbol.TypeSym:
		return true
	case symbol.Ctor:
		return sym.Owner != 0
	default:
		return false
	}
}

func resultType(s *scope) Type {
	return TApp{Sym: s.c.typeIDByName["Result"], Args: []Type{s.freshMeta(), s.freshMeta()}}
}

func optionType(s *scope) Type {
	return TApp{Sym: s.c.typeIDByName["Option"], Args: []Type{s.freshMeta()}}
}

func isResultType(s *scope, t Type) bool {
	t = prune(s, t)
	app, ok := t.(TApp)
	return ok && app.Sym == s.c.typeIDByName["Result"] && len(app.Args) == 2
}

func isOptionType(s *scope, t Type) bool {
	t = prune(s, t)
	app, ok := t.(TApp)
	return ok && app.Sym == s.c.typeIDByName["Option"] && len(app.Args) == 1
}

func resultArgs(t Type) (ok, errT Type) {
	app := t.(TApp)
	return app.Args[0], app.Args[1]
}

func optionArg(t Type) Type {
	return t.(TApp).Args[0]
}
