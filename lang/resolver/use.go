package resolver

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/symbol"
)

// resolveUses is pass B: it walks every function, handler, and top-level
// value initializer, resolving each identifier reference against the scope
// chain built by collectDecls.
func (r *resolver) resolveUses(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			r.resolveTypeDecl(d)
		case *ast.ConstDecl:
			r.resolveTypeRef(d.Type, r.global)
			r.resolveExpr(d.Value, r.global)
		case *ast.LetStmt:
			r.resolveTypeRef(d.Type, r.global)
			r.resolveExpr(d.Value, r.global)
		case *ast.NeedDecl:
			for _, a := range d.Attrs {
				r.resolveTypeRef(a.Type, r.global)
			}
		case *ast.FnDecl:
			r.resolveFn(d, r.global)
		case *ast.PatternDecl:
			r.resolvePattern(d.Value, r.global)
		case *ast.SectorDecl:
			r.resolveSector(d)
		case *ast.OnHandler:
			if r.res.MainSector != 0 {
				r.resolveHandler(d, r.res.SectorScopes[r.res.MainSector])
			}
		}
	}
}

func (r *resolver) resolveTypeDecl(td *ast.TypeDecl) {
	switch {
	case td.RHS.Record != nil:
		for _, fl := range td.RHS.Record.Fields {
			r.resolveTypeRef(fl.Type, r.global)
		}
	case td.RHS.Sum != nil:
		for _, v := range td.RHS.Sum.Variants {
			for _, f := range v.Fields {
				r.resolveTypeRef(f, r.global)
			}
		}
	case td.RHS.Alias != nil:
		r.resolveTypeRef(td.RHS.Alias.Type, r.global)
	}
}

// resolveTypeRef resolves a type reference against scope's Types namespace.
// It is a no-op for nil (absent annotation).
func (r *resolver) resolveTypeRef(t ast.TypeExpr, scope *symbol.Scope) {
	if t == nil {
		return
	}
	switch t := t.(type) {
	case *ast.TypeName:
		if ids := scope.Lookup(symbol.Types, t.Name.Name); len(ids) > 0 {
			r.bindIdent(t.Name, ids[0])
		} else {
			start, _ := t.Name.Span()
			r.errorf(start, "undefined type: %s", t.Name.Name)
		}
		for _, a := range t.Args {
			r.resolveTypeRef(a, scope)
		}
	case *ast.TypeParenExpr:
		r.resolveTypeRef(t.X, scope)
	case *ast.RecordType:
		for _, fl := range t.Fields {
			r.resolveTypeRef(fl.Type, scope)
		}
	case *ast.SumType:
		for _, v := range t.Variants {
			for _, f := range v.Fields {
				r.resolveTypeRef(f, scope)
			}
		}
	case *ast.TypeAlias:
		r.resolveTypeRef(t.Type, scope)
	}
}

func (r *resolver) resolveSector(sd *ast.SectorDecl) {
	ids := r.global.Lookup(symbol.Sectors, sd.Name.Name)
	var scope *symbol.Scope
	if len(ids) > 0 {
		scope = r.res.SectorScopes[ids[0]]
	}
	if scope == nil {
		scope = r.global.Child()
	}

	if sd.Supervisor != nil && sd.Supervisor.MaxRestarts != nil {
		r.resolveExpr(sd.Supervisor.MaxRestarts, scope)
	}
	for _, n := range sd.Needs {
		for _, a := range n.Attrs {
			r.resolveTypeRef(a.Type, scope)
		}
	}
	for _, c := range sd.Consts {
		r.resolveTypeRef(c.Type, scope)
		r.resolveExpr(c.Value, scope)
	}
	for _, l := range sd.Lets {
		r.resolveTypeRef(l.Type, scope)
		r.resolveExpr(l.Value, scope)
	}
	for _, fn := range sd.Fns {
		r.resolveFn(fn, scope)
	}
	for _, h := range sd.Handlers {
		r.resolveHandler(h, scope)
	}
}

// resolveFn resolves fn's signature and body in a new scope chained off
// owner (the global scope for a free function, a sector scope for a
// sector-owned one).
func (r *resolver) resolveFn(fd *ast.FnDecl, owner *symbol.Scope) {
	scope := owner.Child()
	r.defineParams(fd.Sig, scope)
	r.resolveTypeRef(fd.Sig.Return, owner)
	r.resolveExpr(fd.Body, scope)
}

func (r *resolver) resolveHandler(h *ast.OnHandler, owner *symbol.Scope) {
	scope := owner.Child()
	r.resolveEventRef(h.Event, owner)
	if h.Sig != nil {
		r.defineParams(h.Sig, scope)
		r.resolveTypeRef(h.Sig.Return, owner)
	}
	r.resolveExpr(h.Body, scope)
}

func (r *resolver) defineParams(sig *ast.FnSignature, scope *symbol.Scope) {
	for _, p := range sig.Params {
		r.resolveTypeRef(p.Type, scope)
		if p.Default != nil {
			r.resolveExpr(p.Default, scope)
		}
		r.defineInScope(scope, p.Name, symbol.Var, 0)
	}
}

func (r *resolver) resolveExpr(e ast.Expr, scope *symbol.Scope) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.BadExpr, *ast.LiteralExpr:
		// nothing to resolve
	case *ast.Ident:
		r.resolveIdentValue(e, scope)
	case *ast.QualifiedName:
		if ids := scope.Lookup(symbol.Values, e.Parts[0].Name); len(ids) > 0 {
			r.bindIdent(e.Parts[0], ids[0])
		}
	case *ast.ParenExpr:
		r.resolveExpr(e.X, scope)
	case *ast.TupleExpr:
		for _, el := range e.Elems {
			r.resolveExpr(el, scope)
		}
	case *ast.RecordExpr:
		for _, fl := range e.Fields {
			r.resolveExpr(fl.Value, scope)
		}
	case *ast.ArrayExpr:
		for _, el := range e.Elems {
			r.resolveExpr(el, scope)
		}
	case *ast.MemberExpr:
		r.resolveMemberBase(e, scope)
	case *ast.IndexExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Index, scope)
	case *ast.CallExpr:
		r.resolveExpr(e.Fun, scope)
		for _, a := range e.Args {
			r.resolveExpr(a.Value, scope)
		}
	case *ast.CallSectorExpr:
		r.resolveSectorTarget(e.Target, scope)
		for _, a := range e.Args {
			r.resolveExpr(a.Value, scope)
		}
	case *ast.RpcExpr:
		r.resolveSectorTarget(e.Target, scope)
		for _, a := range e.Args {
			r.resolveExpr(a.Value, scope)
		}
	case *ast.AwaitExpr:
		r.resolveExpr(e.X, scope)
	case *ast.ProceedExpr:
		for _, a := range e.Args {
			r.resolveExpr(a.Value, scope)
		}
	case *ast.PipeExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Stage, scope)
	case *ast.TrySuffixExpr:
		r.resolveExpr(e.X, scope)
	case *ast.UnaryExpr:
		r.resolveExpr(e.X, scope)
	case *ast.BinaryExpr:
		r.resolveExpr(e.X, scope)
		r.resolveExpr(e.Y, scope)
	case *ast.MatchExpr:
		r.resolveExpr(e.X, scope)
		for _, arm := range e.Arms {
			armScope := scope.Child()
			if arm.Pattern != nil {
				r.resolvePattern(arm.Pattern, armScope)
			}
			if arm.Guard != nil {
				r.resolveExpr(arm.Guard, armScope)
			}
			r.resolveExpr(arm.Body, armScope)
		}
	case *ast.DoExpr:
		r.resolveBlock(e.Body, scope.Child())
	}
}

// resolveSectorTarget resolves the sector-naming half of a `call`/`rpc`
// target; the handler half has no symbol of its own (handlers aren't
// name-addressable), so it is left for the mixin weaver/lowering pass to
// validate structurally.
func (r *resolver) resolveSectorTarget(target ast.Expr, scope *symbol.Scope) {
	switch t := target.(type) {
	case *ast.MemberExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			if ids := scope.Lookup(symbol.Sectors, id.Name); len(ids) > 0 {
				r.bindIdent(id, ids[0])
			} else {
				start, _ := id.Span()
				r.errorf(start, "undefined sector: %s", id.Name)
			}
		}
	case *ast.QualifiedName:
		if len(t.Parts) > 0 {
			name := t.Parts[0]
			if ids := scope.Lookup(symbol.Sectors, name.Name); len(ids) > 0 {
				r.bindIdent(name, ids[0])
			} else {
				start, _ := name.Span()
				r.errorf(start, "undefined sector: %s", name.Name)
			}
		}
	}
}

// resolveMemberBase resolves a dotted access x.y. Unlike a plain value
// reference, an unresolvable base is not an error: `Event.Increment`
// conventionally namespaces a sum-type constructor under its type's name,
// but constructors are flat in the values namespace (see defineType), so
// `Event` itself need not denote anything. If the base does resolve — as a
// value or as a type — it is bound; either way, the trailing name is bound
// if it happens to name a known constructor.
func (r *resolver) resolveMemberBase(e *ast.MemberExpr, scope *symbol.Scope) {
	if id, ok := e.X.(*ast.Ident); ok {
		if ids := scope.Lookup(symbol.Values, id.Name); len(ids) > 0 {
			r.bindIdent(id, ids[0])
		} else if ids := scope.Lookup(symbol.Types, id.Name); len(ids) > 0 {
			r.bindIdent(id, ids[0])
		}
	} else {
		r.resolveExpr(e.X, scope)
	}

	if ids := scope.Lookup(symbol.Values, e.Name.Name); len(ids) > 0 {
		if sym := r.table.Lookup(ids[0]); sym.Kind == symbol.Ctor {
			r.bindIdent(e.Name, ids[0])
		}
	}
}

// resolveEventRef resolves an event name in handler/emit position. Event
// names are never a hard resolve error: a sector may react to or raise an
// event tag with no locally declared sum-type variant (e.g. one defined in
// a module loaded elsewhere, or a bare symbolic tag), so an unresolvable
// event reference is simply left unbound rather than reported.
func (r *resolver) resolveEventRef(e ast.Expr, scope *symbol.Scope) {
	switch e := e.(type) {
	case *ast.Ident:
		if ids := scope.Lookup(symbol.Values, e.Name); len(ids) > 0 {
			r.bindIdent(e, ids[0])
		}
	case *ast.MemberExpr:
		r.resolveMemberBase(e, scope)
	case *ast.QualifiedName:
		if len(e.Parts) > 0 {
			last := e.Parts[len(e.Parts)-1]
			if ids := scope.Lookup(symbol.Values, last.Name); len(ids) > 0 {
				r.bindIdent(last, ids[0])
			}
		}
	}
}

// resolveEmitEvent resolves `emit EventName(args)`: the call-shaped event
// constructor leniently (see resolveEventRef), and its arguments normally.
func (r *resolver) resolveEmitEvent(e ast.Expr, scope *symbol.Scope) {
	if call, ok := e.(*ast.CallExpr); ok {
		r.resolveEventRef(call.Fun, scope)
		for _, a := range call.Args {
			r.resolveExpr(a.Value, scope)
		}
		return
	}
	r.resolveExpr(e, scope)
}

func (r *resolver) resolveIdentValue(id *ast.Ident, scope *symbol.Scope) {
	if r.discard[id.Name] {
		start, _ := id.Span()
		r.errorf(start, "cannot reference discarded name: %s", id.Name)
		return
	}
	ids := scope.Lookup(symbol.Values, id.Name)
	if len(ids) == 0 {
		start, _ := id.Span()
		r.errorf(start, "undefined name: %s", id.Name)
		return
	}
	r.bindIdent(id, ids[0])
}

func (r *resolver) resolveBlock(b *ast.Block, scope *symbol.Scope) {
	for _, s := range b.Stmts {
		r.resolveStmt(s, scope)
	}
}

func (r *resolver) resolveStmt(s ast.Stmt, scope *symbol.Scope) {
	switch s := s.(type) {
	case *ast.BadStmt:
	case *ast.ExprStmt:
		r.resolveExpr(s.X, scope)
	case *ast.LetStmt:
		r.resolveTypeRef(s.Type, scope)
		r.resolveExpr(s.Value, scope)
		r.defineInScope(scope, s.Name, symbol.Var, 0)
	case *ast.AssignStmt:
		r.resolveLValue(s.Left, scope)
		r.resolveExpr(s.Right, scope)
	case *ast.ForInStmt:
		r.resolveExpr(s.Iter, scope)
		inner := scope.Child()
		r.defineInScope(inner, s.Var, symbol.Var, 0)
		r.resolveBlock(s.Body, inner)
	case *ast.IfStmt:
		r.resolveExpr(s.Cond, scope)
		r.resolveBlock(s.Then, scope.Child())
		switch {
		case s.ElseIf != nil:
			r.resolveStmt(s.ElseIf, scope)
		case s.Else != nil:
			r.resolveBlock(s.Else, scope.Child())
		}
	case *ast.ReturnStmt:
		r.resolveExpr(s.X, scope)
	case *ast.EmitStmt:
		r.resolveEmitEvent(s.Event, scope)
	case *ast.StopStmt:
	}
}

func (r *resolver) resolveLValue(l ast.LValue, scope *symbol.Scope) {
	switch l := l.(type) {
	case *ast.LVar:
		r.resolveIdentValue(l.Name, scope)
	case *ast.LMember:
		r.resolveExpr(l.X, scope)
	case *ast.LIndex:
		r.resolveExpr(l.X, scope)
		r.resolveExpr(l.Index, scope)
	}
}

// resolvePattern resolves a match pattern (or a `pattern Name = ...` alias
// body): a bare identifier either names a known nullary sum-type
// constructor (resolved, no binding) or binds a new local name; a call-shaped
// expression names a constructor applied to sub-patterns; everything else is
// walked for nested bindings.
func (r *resolver) resolvePattern(pat ast.Expr, scope *symbol.Scope) {
	switch pat := pat.(type) {
	case *ast.Ident:
		if pat.Name == "_" || r.discard[pat.Name] {
			return
		}
		if ids := scope.Lookup(symbol.Values, pat.Name); len(ids) > 0 {
			sym := r.table.Lookup(ids[0])
			if sym.Kind == symbol.Ctor {
				r.bindIdent(pat, ids[0])
				return
			}
		}
		r.defineInScope(scope, pat, symbol.Var, 0)
	case *ast.CallExpr:
		r.resolvePatternCtor(pat.Fun, scope)
		for _, a := range pat.Args {
			r.resolvePattern(a.Value, scope)
		}
	case *ast.TupleExpr:
		for _, el := range pat.Elems {
			r.resolvePattern(el, scope)
		}
	case *ast.ArrayExpr:
		for _, el := range pat.Elems {
			r.resolvePattern(el, scope)
		}
	case *ast.RecordExpr:
		for _, fl := range pat.Fields {
			r.resolvePattern(fl.Value, scope)
		}
	case *ast.ParenExpr:
		r.resolvePattern(pat.X, scope)
	case *ast.LiteralExpr:
		// literal pattern, nothing to resolve
	default:
		r.resolveExpr(pat, scope)
	}
}

func (r *resolver) resolvePatternCtor(fn ast.Expr, scope *symbol.Scope) {
	switch fn := fn.(type) {
	case *ast.Ident:
		if ids := scope.Lookup(symbol.Values, fn.Name); len(ids) > 0 {
			r.bindIdent(fn, ids[0])
		} else {
			start, _ := fn.Span()
			r.errorf(start, "undefined constructor: %s", fn.Name)
		}
	case *ast.QualifiedName:
		if len(fn.Parts) > 0 {
			last := fn.Parts[len(fn.Parts)-1]
			if ids := scope.Lookup(symbol.Values, last.Name); len(ids) > 0 {
				r.bindIdent(last, ids[0])
			}
		}
	}
}
