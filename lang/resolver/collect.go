package resolver

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/symbol"
)

// collectDecls is pass A: it walks every top-level declaration and defines
// a symbol for it, without looking at expression or statement bodies. This
// lets pass B resolve forward references (a function calling another
// declared later in the file, a handler referencing a sector declared
// after it) regardless of source order.
func (r *resolver) collectDecls(prog *ast.Program) {
	hasTopOn := false
	for _, d := range prog.Decls {
		if h, ok := d.(*ast.OnHandler); ok {
			_ = h
			hasTopOn = true
		}
	}

	var mainSector symbol.Id
	for _, d := range prog.Decls {
		if sd, ok := d.(*ast.SectorDecl); ok && sd.Name.Name == "main" {
			mainSector = r.defineSector(sd)
		}
	}

	if hasTopOn && mainSector == 0 {
		mainSector = r.declare(r.global, symbol.Sectors, "main", symbol.Symbol{Kind: symbol.Sector, Name: "main"})
		r.res.SectorScopes[mainSector] = r.global.Child()
	}
	r.res.MainSector = mainSector

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.TypeDecl:
			r.defineType(d)
		case *ast.ConstDecl:
			r.defineValue(r.global, d.Name, symbol.Const, 0)
		case *ast.LetStmt:
			r.defineValue(r.global, d.Name, symbol.Var, 0)
		case *ast.NeedDecl:
			r.defineValue(r.global, d.Name, symbol.Need, 0)
		case *ast.FnDecl:
			r.defineFn(d, 0)
		case *ast.PatternDecl:
			// Patterns don't define symbols in any namespace; validated at use.
		case *ast.UseStmt:
			// Expanded by the loader before the resolver runs.
		case *ast.MixinDecl:
			r.defineMixin(d)
		case *ast.UseMixinStmt, *ast.ResolveMixinStmt:
			// Consumed by the mixin weaver, which runs before the resolver.
		case *ast.SectorDecl:
			if d.Name.Name != "main" || mainSector == 0 {
				r.defineSector(d)
			}
		case *ast.OnHandler:
			if mainSector != 0 {
				r.defineHandler(d, mainSector)
			}
		case *ast.BadDecl:
			// already reported by the parser
		}
	}
}

func (r *resolver) defineType(td *ast.TypeDecl) symbol.Id {
	name := td.Name.Name
	if existing := r.global.LookupLocal(symbol.Types, name); len(existing) > 0 {
		start, _ := td.Span()
		r.errorf(start, "duplicate type: %s", name)
		return existing[0]
	}

	start, end := td.Span()
	id := r.declare(r.global, symbol.Types, name, symbol.Symbol{
		Kind: symbol.TypeSym, Name: name, Span: r.spanOf(start, end),
	})
	r.bindIdent(td.Name, id)

	if td.RHS != nil && td.RHS.Sum != nil {
		for _, v := range td.RHS.Sum.Variants {
			if existing := r.global.LookupLocal(symbol.Values, v.Name.Name); len(existing) > 0 {
				continue
			}
			vs, ve := v.Span()
			ctorID := r.declare(r.global, symbol.Values, v.Name.Name, symbol.Symbol{
				Kind: symbol.Ctor, Name: v.Name.Name, Span: r.spanOf(vs, ve), Owner: id,
			})
			r.bindIdent(v.Name, ctorID)
		}
	}
	return id
}

func (r *resolver) defineSector(sd *ast.SectorDecl) symbol.Id {
	name := sd.Name.Name
	if existing := r.global.LookupLocal(symbol.Sectors, name); len(existing) > 0 {
		start, _ := sd.Span()
		r.errorf(start, "duplicate sector: %s", name)
		return existing[0]
	}

	start, end := sd.Span()
	id := r.declare(r.global, symbol.Sectors, name, symbol.Symbol{
		Kind: symbol.Sector, Name: name, Span: r.spanOf(start, end),
	})
	r.bindIdent(sd.Name, id)

	scope := r.global.Child()
	r.res.SectorScopes[id] = scope

	for _, need := range sd.Needs {
		r.defineValue(scope, need.Name, symbol.Need, id)
	}
	for _, c := range sd.Consts {
		r.defineValue(scope, c.Name, symbol.Const, id)
	}
	for _, l := range sd.Lets {
		r.defineValue(scope, l.Name, symbol.Var, id)
	}
	for _, fn := range sd.Fns {
		r.defineFnIn(scope, fn, id)
	}
	for _, h := range sd.Handlers {
		r.defineHandler(h, id)
	}
	return id
}

func (r *resolver) defineMixin(md *ast.MixinDecl) symbol.Id {
	key := md.Name.Name
	if md.Version != nil {
		key += "@" + md.Version.Name
	}
	if existing := r.global.LookupLocal(symbol.Mixins, key); len(existing) > 0 {
		start, _ := md.Span()
		r.errorf(start, "duplicate mixin: %s", key)
		return existing[0]
	}
	start, end := md.Span()
	id := r.declare(r.global, symbol.Mixins, key, symbol.Symbol{
		Kind: symbol.Mixin, Name: key, Span: r.spanOf(start, end),
	})
	return id
}

func (r *resolver) defineHandler(h *ast.OnHandler, owner symbol.Id) symbol.Id {
	start, end := h.Span()
	return r.table.Declare(symbol.Symbol{
		Kind: symbol.Handler, Name: "handler", Span: r.spanOf(start, end), Owner: owner, Data: h,
	})
}

func (r *resolver) defineFn(fd *ast.FnDecl, owner symbol.Id) symbol.Id {
	return r.defineFnIn(r.global, fd, owner)
}

func (r *resolver) defineFnIn(scope *symbol.Scope, fd *ast.FnDecl, owner symbol.Id) symbol.Id {
	return r.defineInScope(scope, fd.Name, symbol.Fn, owner)
}

// defineValue defines a value-namespace symbol (let/const/need), applying
// .flv's discard-name rule: a name in the discard set may be redefined
// repeatedly in the same scope without a duplicate-name error, and is
// marked so pass B never resolves a reference to it.
func (r *resolver) defineValue(scope *symbol.Scope, ident *ast.Ident, kind symbol.Kind, owner symbol.Id) symbol.Id {
	return r.defineInScope(scope, ident, kind, owner)
}

func (r *resolver) defineInScope(scope *symbol.Scope, ident *ast.Ident, kind symbol.Kind, owner symbol.Id) symbol.Id {
	name := ident.Name
	start, end := ident.Span()
	sp := r.spanOf(start, end)

	if r.discard[name] {
		id := r.declare(scope, symbol.Values, name, symbol.Symbol{
			Kind: kind, Name: name, Span: sp, Owner: owner, Data: discardMarker{},
		})
		r.bindIdent(ident, id)
		return id
	}

	if existing := scope.LookupLocal(symbol.Values, name); len(existing) > 0 {
		r.errorf(start, "duplicate name in same scope: %s", name)
		r.bindIdent(ident, existing[0])
		return existing[0]
	}

	id := r.declare(scope, symbol.Values, name, symbol.Symbol{Kind: kind, Name: name, Span: sp, Owner: owner})
	r.bindIdent(ident, id)
	return id
}

// discardMarker tags a Symbol.Data as belonging to the project's discard
// set (see DiscardNames): such a symbol is defined for duplicate-check
// purposes only and can never be the target of a name lookup.
type discardMarker struct{}
