package lower

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/symbol"
	"github.com/oranpie/flavent/lang/token"
)

// armPattern lowers one match arm's pattern. A MatchArm with Else set has no
// Pattern node at all (it is the catch-all arm); it lowers to PWildcard.
func (l *Lowerer) armPattern(a *ast.MatchArm) hir.Pattern {
	if a.Else {
		return &hir.PWildcard{PatSpan: l.armSpan(a)}
	}
	return l.lowerPattern(a.Pattern, map[string]bool{})
}

// lowerPattern lowers a match pattern expression. resolvePattern's own
// leniency rules are mirrored exactly: a name that never got an IdentSyms
// entry is a wildcard (covers both the literal "_" and any configured
// discard name, since resolvePattern skips binding either); a name bound to
// a Ctor-kind symbol is a nullary constructor pattern; anything else bound
// is a genuine fresh variable binding. A bare identifier is additionally
// checked against patternAliases before consulting IdentSyms at all, since
// a `pattern` declaration's own name is never given a symbol by the
// resolver and would otherwise be indistinguishable from an ordinary
// wildcard or fresh-variable binding.
func (l *Lowerer) lowerPattern(e ast.Expr, seen map[string]bool) hir.Pattern {
	span := l.spanOfNode(e)

	switch x := ast.Unwrap(e).(type) {
	case *ast.Ident:
		if alias, ok := l.patternAliases[x.Name]; ok {
			if seen[x.Name] {
				l.errorf(x.NamePos, "pattern %q is defined in terms of itself", x.Name)
				return &hir.PWildcard{PatSpan: span}
			}
			nextSeen := make(map[string]bool, len(seen)+1)
			for k := range seen {
				nextSeen[k] = true
			}
			nextSeen[x.Name] = true
			return l.lowerPattern(alias, nextSeen)
		}

		id, ok := l.res.IdentSyms[x]
		if !ok {
			return &hir.PWildcard{PatSpan: span}
		}
		if sym := l.res.Table.Lookup(id); sym.Kind == symbol.Ctor {
			return &hir.PCtor{Ctor: id, PatSpan: span}
		}
		return &hir.PVar{Sym: id, PatSpan: span}

	case *ast.LiteralExpr:
		if x.Tok == token.BOOL {
			return &hir.PBool{Value: x.Value.Raw == "true", PatSpan: span}
		}
		l.errorf(x.TokPos, "only boolean literal patterns are supported")
		return &hir.PWildcard{PatSpan: span}

	case *ast.CallExpr:
		ctor := l.patternCtorSym(x.Fun)
		args := make([]hir.Pattern, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, l.lowerPattern(a.Value, seen))
		}
		return &hir.PCtor{Ctor: ctor, Args: args, PatSpan: span}

	case *ast.TupleExpr, *ast.ArrayExpr, *ast.RecordExpr:
		start, _ := e.Span()
		l.errorf(start, "tuple, array, and record patterns have no lowered representation")
		return &hir.PWildcard{PatSpan: span}

	default:
		start, _ := e.Span()
		l.errorf(start, "unsupported pattern")
		return &hir.PWildcard{PatSpan: span}
	}
}

// patternCtorSym resolves the constructor half of a `Ctor(args...)` pattern,
// mirroring resolvePatternCtor: a bare Ident must resolve against Values (a
// hard error on a genuinely-resolved program never reaches here unbound); a
// QualifiedName binds only its last part, leniently.
func (l *Lowerer) patternCtorSym(fn ast.Expr) symbol.Id {
	switch x := fn.(type) {
	case *ast.Ident:
		if id, ok := l.res.IdentSyms[x]; ok {
			return id
		}
		l.errorf(x.NamePos, "undefined constructor %q", x.Name)
		return 0
	case *ast.QualifiedName:
		last := x.Parts[len(x.Parts)-1]
		if id, ok := l.res.IdentSyms[last]; ok {
			return id
		}
		return 0
	default:
		start, _ := fn.Span()
		l.errorf(start, "unsupported constructor reference in pattern")
		return 0
	}
}

// armSpan derives a MatchArm's span from its constituent fields, since
// ast.MatchArm implements neither Span() nor Walk() (it is not an ast.Node).
func (l *Lowerer) armSpan(a *ast.MatchArm) token.Span {
	_, end := a.Body.Span()
	return l.spanOf(a.WhenPos, end)
}
