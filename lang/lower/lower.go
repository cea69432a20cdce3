// Package lower lowers a resolved AST into the HIR the type and effect
// checker consumes: names become symbol.Ids, pipes and try-suffixes are
// desugared into explicit calls and match statements, and match expressions
// used for their control flow are hoisted into a synthesized result
// binding.
//
// Grounded on original_source/flavent/lower.py; the bucketing of a
// Program's declarations and the sector lowering order (needs, lets, fns,
// handlers) follow it directly, adapted to the tagged-struct HIR lang/hir
// defines instead of Python's duck-typed dataclasses.
package lower

import (
	"context"
	"fmt"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// Lowerer holds the per-run state lowering needs beyond the resolver's
// Result: the lookup tables it is cheaper to build once than to rederive at
// every reference site, and the accumulated diagnostics.
type Lowerer struct {
	file *token.File
	res  *resolver.Result

	ctorByName     map[string]symbol.Id
	handlerSyms    map[*ast.OnHandler]symbol.Id
	patternAliases map[string]ast.Expr

	errors scanner.ErrorList
}

func newLowerer(file *token.File, res *resolver.Result) *Lowerer {
	l := &Lowerer{
		file:           file,
		res:            res,
		ctorByName:     map[string]symbol.Id{},
		handlerSyms:    map[*ast.OnHandler]symbol.Id{},
		patternAliases: map[string]ast.Expr{},
	}
	for _, sym := range res.Table.All() {
		switch sym.Kind {
		case symbol.Ctor:
			l.ctorByName[sym.Name] = sym.ID
		case symbol.Handler:
			if h, ok := sym.Data.(*ast.OnHandler); ok {
				l.handlerSyms[h] = sym.ID
			}
		}
	}
	return l
}

// Lower produces a *hir.Program from prog, using the symbols and scopes a
// prior resolver.Resolve run over the same file bound. The returned error,
// if non-nil, is a scanner.ErrorList; a non-nil error does not mean the
// returned Program is useless, the way a partially-resolved program is
// still useful to a caller that wants best-effort diagnostics.
func Lower(_ context.Context, file *token.File, prog *ast.Program, res *resolver.Result) (*hir.Program, error) {
	l := newLowerer(file, res)

	var (
		typeDecls    []*ast.TypeDecl
		constDecls   []*ast.ConstDecl
		letDecls     []*ast.LetStmt
		needDecls    []*ast.NeedDecl
		fnDecls      []*ast.FnDecl
		sectorDecls  []*ast.SectorDecl
		topHandlers  []*ast.OnHandler
		patternDecls []*ast.PatternDecl
	)
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.TypeDecl:
			typeDecls = append(typeDecls, decl)
		case *ast.ConstDecl:
			constDecls = append(constDecls, decl)
		case *ast.LetStmt:
			letDecls = append(letDecls, decl)
		case *ast.NeedDecl:
			needDecls = append(needDecls, decl)
		case *ast.FnDecl:
			fnDecls = append(fnDecls, decl)
		case *ast.SectorDecl:
			sectorDecls = append(sectorDecls, decl)
		case *ast.OnHandler:
			topHandlers = append(topHandlers, decl)
		case *ast.PatternDecl:
			patternDecls = append(patternDecls, decl)
		// *ast.UseStmt is expanded by the module loader, *ast.MixinDecl /
		// *ast.UseMixinStmt / *ast.ResolveMixinStmt are consumed by the mixin
		// weaver, and *ast.BadDecl marks a parse error already reported — none
		// of them carry anything for lowering to produce.
		default:
		}
	}

	for _, pd := range patternDecls {
		l.patternAliases[pd.Name.Name] = pd.Value
	}

	out := &hir.Program{Run: prog.Run.IsValid(), ProgramSpan: l.spanOfNode(prog)}

	for _, td := range typeDecls {
		out.Types = append(out.Types, l.lowerTypeDecl(td))
	}
	for _, cd := range constDecls {
		sym := l.identSym(cd.Name)
		out.Consts = append(out.Consts, l.lowerValueDecl(sym, cd.Value, l.spanOfNode(cd)))
	}
	for _, ld := range letDecls {
		sym := l.identSym(ld.Name)
		out.Globals = append(out.Globals, l.lowerValueDecl(sym, ld.Value, l.spanOfNode(ld)))
	}
	for _, nd := range needDecls {
		out.Needs = append(out.Needs, l.lowerNeedDecl(nd))
	}
	for _, fd := range fnDecls {
		out.Fns = append(out.Fns, l.lowerFn(fd, 0))
	}

	var mainExtra []*hir.HandlerDecl
	for _, h := range topHandlers {
		mainExtra = append(mainExtra, l.lowerHandler(h, res.MainSector))
	}

	var sawMain bool
	for _, sd := range sectorDecls {
		sym := l.identSym(sd.Name)
		var extra []*hir.HandlerDecl
		if sym != 0 && sym == res.MainSector {
			extra = mainExtra
			sawMain = true
		}
		out.Sectors = append(out.Sectors, l.lowerSector(sd, extra))
	}
	if !sawMain && len(mainExtra) > 0 {
		out.Sectors = append(out.Sectors, &hir.SectorDecl{
			Sym:      res.MainSector,
			Handlers: mainExtra,
			DeclSpan: out.ProgramSpan,
		})
	}

	l.errors.Sort()
	return out, l.errors.Err()
}

func (l *Lowerer) lowerTypeDecl(td *ast.TypeDecl) *hir.TypeDecl {
	sym := l.identSym(td.Name)
	span := l.spanOfNode(td)
	return &hir.TypeDecl{Sym: sym, RHS: l.lowerTypeRHS(td.RHS), DeclSpan: span}
}

func (l *Lowerer) lowerTypeRHS(rhs *ast.TypeRHS) hir.TypeRhs {
	switch {
	case rhs.Record != nil:
		fields := make([]*hir.FieldDecl, 0, len(rhs.Record.Fields))
		for _, f := range rhs.Record.Fields {
			fields = append(fields, &hir.FieldDecl{
				Name:      f.Name.Name,
				Type:      l.lowerTypeRef(f.Type),
				FieldSpan: l.spanOfNode(f),
			})
		}
		return &hir.RecordType{Fields: fields, RhsSpan: l.spanOfNode(rhs.Record)}

	case rhs.Sum != nil:
		variants := make([]*hir.VariantDecl, 0, len(rhs.Sum.Variants))
		for _, vr := range rhs.Sum.Variants {
			ctor := l.identSym(vr.Name)
			var payload []hir.TypeRef
			for _, ft := range vr.Fields {
				payload = append(payload, l.lowerTypeRef(ft))
			}
			variants = append(variants, &hir.VariantDecl{
				Ctor:        ctor,
				Payload:     payload,
				VariantSpan: l.spanOfNode(vr),
			})
		}
		return &hir.SumType{Variants: variants, RhsSpan: l.spanOfNode(rhs.Sum)}

	default: // Alias
		return &hir.TypeAlias{Target: l.lowerTypeRef(rhs.Alias.Type), RhsSpan: l.spanOfNode(rhs.Alias)}
	}
}

func (l *Lowerer) lowerTypeRef(te ast.TypeExpr) hir.TypeRef {
	switch t := te.(type) {
	case *ast.TypeParenExpr:
		return l.lowerTypeRef(t.X)
	case *ast.TypeName:
		base := l.identSym(t.Name)
		args := make([]hir.TypeRef, 0, len(t.Args))
		for _, a := range t.Args {
			args = append(args, l.lowerTypeRef(a))
		}
		return &hir.TypeApp{Base: base, Args: args, TypeSpan: l.spanOfNode(t)}
	default:
		start, _ := te.Span()
		l.errorf(start, "unsupported type expression")
		return &hir.TypeApp{TypeSpan: l.spanOf(start, start)}
	}
}

// lowerValueDecl lowers a const/global-let initializer, which has nowhere to
// host statements hoisted out of a try-suffix or a block-armed match: the
// result is reported as an error rather than silently dropped.
func (l *Lowerer) lowerValueDecl(sym symbol.Id, value ast.Expr, declSpan token.Span) *hir.ValueDecl {
	pre, v := l.lowerExpr(value, "forbid")
	if len(pre) > 0 {
		start, _ := value.Span()
		l.errorf(start, "initializer must be a simple expression")
	}
	return &hir.ValueDecl{Sym: sym, Expr: v, DeclSpan: declSpan}
}

// lowerNeedDecl lowers a capability declaration. NeedDecl carries only typed
// attrs, no initializer — the value comes from the sector's environment at
// runtime — so the ValueDecl's Expr is a synthesized UndefExpr rather than
// anything derived from source.
func (l *Lowerer) lowerNeedDecl(nd *ast.NeedDecl) *hir.ValueDecl {
	span := l.spanOfNode(nd)
	sym := l.identSym(nd.Name)
	return &hir.ValueDecl{Sym: sym, Expr: &hir.UndefExpr{ExprSpan: span}, DeclSpan: span}
}

func (l *Lowerer) lowerParams(params []*ast.ParamDecl) []*hir.Param {
	out := make([]*hir.Param, 0, len(params))
	for _, p := range params {
		sym := l.identSym(p.Name)
		var t hir.TypeRef
		if p.Type != nil {
			t = l.lowerTypeRef(p.Type)
		}
		out = append(out, &hir.Param{Sym: sym, Type: t, Kind: hir.ParamNormal, ParamSpan: l.spanOfNode(p)})
	}
	return out
}

// tryModeForReturn derives the try-suffix desugaring mode from a function's
// declared return type: Result-returning functions re-wrap a propagated
// error in Err(...), Option-returning functions return bare None(), and
// anything else forbids the try-suffix outright.
func tryModeForReturn(ret ast.TypeExpr) string {
	if ret == nil {
		return "forbid"
	}
	tn, ok := ret.(*ast.TypeName)
	if !ok {
		return "forbid"
	}
	switch tn.Name.Name {
	case "Result":
		return "result"
	case "Option":
		return "option"
	default:
		return "forbid"
	}
}

func (l *Lowerer) lowerFn(fd *ast.FnDecl, owner symbol.Id) *hir.FnDecl {
	sym := l.identSym(fd.Name)
	span := l.spanOfNode(fd)
	params := l.lowerParams(fd.Sig.Params)
	var ret hir.TypeRef
	if fd.Sig.Return != nil {
		ret = l.lowerTypeRef(fd.Sig.Return)
	}
	body := l.lowerFnBody(fd.Body, tryModeForReturn(fd.Sig.Return))
	return &hir.FnDecl{Sym: sym, OwnerSector: owner, Params: params, RetType: ret, Body: body, DeclSpan: span}
}

// lowerFnBody lowers a function body: a `do:` block lowers statement by
// statement, a single-line body becomes an implicit return of its value.
func (l *Lowerer) lowerFnBody(body ast.Expr, tryMode string) *hir.Block {
	if doExpr, ok := body.(*ast.DoExpr); ok {
		return l.lowerBlock(doExpr.Body, tryMode)
	}
	span := l.spanOfNode(body)
	pre, v := l.lowerExpr(body, tryMode)
	stmts := append(pre, hir.Stmt(&hir.ReturnStmt{Value: v, StmtSpan: span}))
	return &hir.Block{Stmts: stmts, BlockSpan: span}
}

// lowerHandlerBody mirrors lowerFnBody, except a single-line body becomes an
// ExprStmt: a handler's implicit value (if any) is not returned to a caller,
// it is simply the last thing the handler does.
func (l *Lowerer) lowerHandlerBody(body ast.Expr) *hir.Block {
	if doExpr, ok := body.(*ast.DoExpr); ok {
		return l.lowerBlock(doExpr.Body, "handler")
	}
	span := l.spanOfNode(body)
	pre, v := l.lowerExpr(body, "handler")
	stmts := append(pre, hir.Stmt(&hir.ExprStmt{Value: v, StmtSpan: span}))
	return &hir.Block{Stmts: stmts, BlockSpan: span}
}

// lowerHandlerBinder resolves a handler's payload parameter, or 0 if it
// declares none, or discards it. defineInScope binds even a discarded
// parameter to a real (if specially marked) symbol, and that marker is not
// visible outside package resolver, so the literal name "_" is the only
// discard signal lowering can observe directly; a module configuring a
// custom discard set via flvdiscard would need that set threaded through
// resolver.Result to be recognized here too.
func (l *Lowerer) lowerHandlerBinder(sig *ast.FnSignature) symbol.Id {
	if sig == nil || len(sig.Params) == 0 {
		return 0
	}
	if len(sig.Params) > 1 {
		start, _ := sig.Params[1].Span()
		l.errorf(start, "a handler binds at most one payload parameter")
	}
	name := sig.Params[0].Name
	if name.Name == "_" {
		return 0
	}
	return l.identSym(name)
}

// lowerHandlerEvent derives the sum-type variant a handler reacts to.
// OnHandler.Event is always a bare *ast.Ident or *ast.QualifiedName per its
// grammar, never a dotted MemberExpr the way a general value reference
// could be.
func (l *Lowerer) lowerHandlerEvent(event ast.Expr) symbol.Id {
	return l.lowerEventRefSym(event)
}

func (l *Lowerer) lowerHandler(h *ast.OnHandler, owner symbol.Id) *hir.HandlerDecl {
	_ = owner // the handler's owning sector is recorded on symbol.Symbol.Owner by the resolver, not duplicated in HandlerDecl
	sym := l.handlerSym(h)
	span := l.spanOfNode(h)
	eventType := l.lowerHandlerEvent(h.Event)
	binder := l.lowerHandlerBinder(h.Sig)
	body := l.lowerHandlerBody(h.Body)
	return &hir.HandlerDecl{Sym: sym, EventType: eventType, Binder: binder, Body: body, HandlerSpan: span}
}

// lowerSector lowers one sector's own needs/consts/lets/fns/handlers and
// appends extraHandlers: the lowered form of top-level `on` handlers hosted
// by this sector when it is the module's main sector. hir.SectorDecl has no
// dedicated bucket for const declarations, so sector-scoped consts are
// folded into Lets alongside ordinary state.
func (l *Lowerer) lowerSector(sd *ast.SectorDecl, extraHandlers []*hir.HandlerDecl) *hir.SectorDecl {
	sym := l.identSym(sd.Name)
	span := l.spanOfNode(sd)

	var needs []*hir.ValueDecl
	for _, n := range sd.Needs {
		needs = append(needs, l.lowerNeedDecl(n))
	}

	var lets []*hir.ValueDecl
	for _, c := range sd.Consts {
		csym := l.identSym(c.Name)
		lets = append(lets, l.lowerValueDecl(csym, c.Value, l.spanOfNode(c)))
	}
	for _, lt := range sd.Lets {
		lsym := l.identSym(lt.Name)
		lets = append(lets, l.lowerValueDecl(lsym, lt.Value, l.spanOfNode(lt)))
	}

	var fns []*hir.FnDecl
	for _, fn := range sd.Fns {
		fns = append(fns, l.lowerFn(fn, sym))
	}

	var handlers []*hir.HandlerDecl
	for _, h := range sd.Handlers {
		handlers = append(handlers, l.lowerHandler(h, sym))
	}
	handlers = append(handlers, extraHandlers...)

	return &hir.SectorDecl{Sym: sym, Fns: fns, Handlers: handlers, Lets: lets, Needs: needs, DeclSpan: span}
}

func (l *Lowerer) identSym(ident *ast.Ident) symbol.Id {
	if id, ok := l.res.IdentSyms[ident]; ok {
		return id
	}
	start, _ := ident.Span()
	l.errorf(start, "internal: %q has no resolved symbol", ident.Name)
	return 0
}

func (l *Lowerer) handlerSym(h *ast.OnHandler) symbol.Id {
	if id, ok := l.handlerSyms[h]; ok {
		return id
	}
	start, _ := h.Span()
	l.errorf(start, "internal: handler has no resolved symbol")
	return 0
}

func (l *Lowerer) ctorOfName(name string, span token.Span) symbol.Id {
	if id, ok := l.ctorByName[name]; ok {
		return id
	}
	l.errAtSpan(span, "unknown constructor %q", name)
	return 0
}

// freshVar declares a new synthesized local variable symbol, used by the
// try-suffix and match-hoisting desugarings. symbol.Table.Declare's
// auto-incrementing Id already gives every call a fresh, stable identity;
// there is no separate counter to thread through.
func (l *Lowerer) freshVar(hint string, span token.Span) symbol.Id {
	return l.res.Table.Declare(symbol.Symbol{Kind: symbol.Var, Name: hint, Span: span})
}

func (l *Lowerer) spanOfNode(n ast.Node) token.Span {
	s, e := n.Span()
	return l.spanOf(s, e)
}

func (l *Lowerer) spanOf(start, end token.Pos) token.Span {
	return token.SpanFromFile(l.file, start, end)
}

func (l *Lowerer) errorf(pos token.Pos, format string, args ...any) {
	l.errors.Add(l.file.Position(pos), fmt.Sprintf(format, args...))
}

// errAtSpan reports a diagnostic anchored to a Span rather than a Pos, for
// call sites (synthesized nodes, or spans carried across a hoist) that no
// longer have a live Pos into this run's File to resolve.
func (l *Lowerer) errAtSpan(span token.Span, format string, args ...any) {
	l.errors.Add(token.Position{Filename: span.File, Offset: span.StartByte, Line: span.Line, Column: span.Column}, fmt.Sprintf(format, args...))
}
