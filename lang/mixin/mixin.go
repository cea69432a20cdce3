// Package mixin implements the weaving pass that applies `mixin ... into`
// declarations to the sectors and record types they target: field and
// function additions, `around fn` wrapping, and `hook head|invoke|tail`
// synthesis, resolved through a `prefer`/`over` precedence graph and a
// per-target application order.
//
// Grounded on original_source/flavent/resolve.py's _apply_mixins and its
// nested helpers (topo_sort, choose_preferred, _resolve_specs,
// _apply_around_specs, apply_to_sector, apply_to_type), adapted to the
// ast package's node shapes and to lang/lower's scanner.ErrorList-based
// diagnostic accumulation.
package mixin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dolthub/swiss"
	"github.com/sirupsen/logrus"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
)

// Key identifies a mixin declaration by name and version tag (written
// `mixin Name vN` in source); String renders it as `Name@vN`. A mixin with
// no version tag has an empty Version.
type Key struct {
	Name    string
	Version string
}

func (k Key) String() string {
	if k.Version == "" {
		return k.Name
	}
	return k.Name + "@" + k.Version
}

func keyOf(d *ast.MixinDecl) Key {
	v := ""
	if d.Version != nil {
		v = d.Version.Name
	}
	return Key{Name: d.Name.Name, Version: v}
}

// HookPlanRow is one row of the weaving decision log: a single hook or
// around item, whether it survived conflict/dependency resolution, and
// where in the wrap stack it landed. Analysis and tooling consumers can
// render these directly as a flat audit trail of what the weaver did.
type HookPlanRow struct {
	OwnerKind      string // "sector" or "type"
	Owner          string
	Target         string
	HookID         string
	Point          string // "head", "invoke", "tail"
	Origin         string // "around", "hook"
	ConflictPolicy string
	MixinKey       string
	Priority       int
	Depends        []string
	At             string
	Depth          int
	Status         string // "active" or "dropped"
	DropReason     string
}

// weaver holds the state threaded through one Weave call: the accumulated
// diagnostics, the precedence graph, the emitted hook plan, and a counter
// used to mint deterministic synthesized names (no clock or RNG is
// available mid-weave, so ordinal position is the only source of
// uniqueness).
type weaver struct {
	fset       *token.FileSet
	log        *logrus.Logger
	errors     scanner.ErrorList
	preferOver map[Key]map[Key]bool
	plan       []HookPlanRow
	seq        int
}

func (w *weaver) errorf(pos token.Pos, format string, args ...any) {
	w.errors.Add(w.fset.Position(pos), fmt.Sprintf(format, args...))
}

func (w *weaver) nextSeq() int {
	w.seq++
	return w.seq
}

// Weave applies every mixin prog's `use mixin` statements select, in
// preference order, against the sectors and types they target. log may be
// nil, in which case weave decisions are not logged. It returns the rewoven
// program (prog itself, unmodified, if no mixin is used) and the hook plan
// rows recorded while resolving `around`/`hook` conflicts.
func Weave(_ context.Context, fset *token.FileSet, prog *ast.Program, log *logrus.Logger) (*ast.Program, []HookPlanRow, error) {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	w := &weaver{fset: fset, log: log, preferOver: map[Key]map[Key]bool{}}

	mixins := map[Key]*ast.MixinDecl{}
	var useOrder []Key
	useSeen := map[Key]bool{}

	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.MixinDecl:
			mixins[keyOf(decl)] = decl
		case *ast.UseMixinStmt:
			key, err := mixinRefKey(decl.Name)
			if err != nil {
				w.errorf(decl.UsePos, "%s", err)
				continue
			}
			if !useSeen[key] {
				useSeen[key] = true
				useOrder = append(useOrder, key)
			}
		case *ast.ResolveMixinStmt:
			for _, r := range decl.Rules {
				winner := Key{Name: r.Winner.Name, Version: identName(r.WinnerVersion)}
				loser := Key{Name: r.Loser.Name, Version: identName(r.LoserVersion)}
				if winner == loser {
					w.errorf(r.PreferPos, "mixin %s cannot be preferred over itself", winner)
					continue
				}
				if w.preferOver[winner] == nil {
					w.preferOver[winner] = map[Key]bool{}
				}
				w.preferOver[winner][loser] = true
			}
		}
	}

	if err := w.errors.Err(); err != nil {
		return nil, nil, err
	}
	if len(useOrder) == 0 {
		return prog, nil, nil
	}

	for _, k := range useOrder {
		if _, ok := mixins[k]; !ok {
			return nil, nil, fmt.Errorf("unknown mixin: %s", k)
		}
	}

	applyOrder, err := topoSort(useOrder, w.preferOver)
	if err != nil {
		return nil, nil, err
	}
	weaveOrder := reverseKeys(applyOrder)
	w.log.WithField("order", weaveOrder).Debug("mixin weave order resolved")

	sectorTargets := map[string][]Key{}
	typeTargets := map[string][]Key{}
	var sectorOrder, typeOrder []string
	for _, k := range weaveOrder {
		switch t := mixins[k].Target.(type) {
		case *ast.MixinTargetSector:
			if _, ok := sectorTargets[t.Name.Name]; !ok {
				sectorOrder = append(sectorOrder, t.Name.Name)
			}
			sectorTargets[t.Name.Name] = append(sectorTargets[t.Name.Name], k)
		case *ast.MixinTargetType:
			if _, ok := typeTargets[t.Name.Name]; !ok {
				typeOrder = append(typeOrder, t.Name.Name)
			}
			typeTargets[t.Name.Name] = append(typeTargets[t.Name.Name], k)
		default:
			return nil, nil, fmt.Errorf("mixin %s has an unrecognized target", k)
		}
	}

	wovenSectors := map[string]*ast.SectorDecl{}
	for _, name := range sectorOrder {
		found := findSector(prog, name)
		if found == nil {
			return nil, nil, fmt.Errorf("mixin targets unknown sector %q", name)
		}
		woven, err := w.applyToSector(found, sectorTargets[name], mixins)
		if err != nil {
			return nil, nil, err
		}
		wovenSectors[name] = woven
	}

	wovenTypes := map[string]*ast.TypeDecl{}
	var extraMethodFns []*ast.FnDecl
	methodCallSites := map[string]string{}
	for _, name := range typeOrder {
		found := findType(prog, name)
		if found == nil {
			return nil, nil, fmt.Errorf("mixin targets unknown type %q", name)
		}
		woven, methodFns, callSites, err := w.applyToType(found, typeTargets[name], mixins)
		if err != nil {
			return nil, nil, err
		}
		wovenTypes[name] = woven
		extraMethodFns = append(extraMethodFns, methodFns...)
		for k, v := range callSites {
			methodCallSites[k] = v
		}
	}

	out := make([]ast.Decl, 0, len(prog.Decls)+len(extraMethodFns))
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.MixinDecl, *ast.UseMixinStmt, *ast.ResolveMixinStmt:
			continue
		case *ast.SectorDecl:
			if woven, ok := wovenSectors[decl.Name.Name]; ok {
				out = append(out, woven)
				continue
			}
			out = append(out, decl)
		case *ast.TypeDecl:
			if woven, ok := wovenTypes[decl.Name.Name]; ok {
				out = append(out, woven)
				continue
			}
			out = append(out, decl)
		default:
			out = append(out, d)
		}
	}
	for _, fn := range extraMethodFns {
		out = append(out, fn)
	}
	out = rewriteTypeMethodCallsInDecls(out, methodCallSites)

	rewoven := &ast.Program{Name: prog.Name, Decls: out, Run: prog.Run, Comments: prog.Comments, EOF: prog.EOF}
	return rewoven, w.plan, nil
}

func findSector(prog *ast.Program, name string) *ast.SectorDecl {
	for _, d := range prog.Decls {
		if s, ok := d.(*ast.SectorDecl); ok && s.Name.Name == name {
			return s
		}
	}
	return nil
}

func findType(prog *ast.Program, name string) *ast.TypeDecl {
	for _, d := range prog.Decls {
		if t, ok := d.(*ast.TypeDecl); ok && t.Name.Name == name {
			return t
		}
	}
	return nil
}

func identName(id *ast.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}

// mixinRefKey converts the dotted spelling a `use mixin Name` or `use mixin
// Name.v2` statement parses into, into a Key. Unlike a PreferRule's Winner/
// WinnerVersion ident pair, UseMixinStmt.Name is a single QualifiedName:
// one part for an unversioned reference, two for a versioned one.
func mixinRefKey(qn *ast.QualifiedName) (Key, error) {
	switch len(qn.Parts) {
	case 1:
		return Key{Name: qn.Parts[0].Name}, nil
	case 2:
		return Key{Name: qn.Parts[0].Name, Version: qn.Parts[1].Name}, nil
	default:
		names := make([]string, len(qn.Parts))
		for i, p := range qn.Parts {
			names[i] = p.Name
		}
		return Key{}, fmt.Errorf("invalid mixin reference %q", strings.Join(names, "."))
	}
}

func reverseKeys(keys []Key) []Key {
	out := make([]Key, len(keys))
	for i, k := range keys {
		out[len(keys)-1-i] = k
	}
	return out
}

// isPreferred reports whether a is preferred over b, directly or
// transitively, through the accumulated `prefer A over B` edges.
func isPreferred(pref map[Key]map[Key]bool, a, b Key) bool {
	seen := swiss.NewMap[Key, bool](8)
	stack := []Key{a}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen.Get(cur); ok {
			continue
		}
		seen.Put(cur, true)
		for next := range pref[cur] {
			if next == b {
				return true
			}
			stack = append(stack, next)
		}
	}
	return false
}

// choosePreferred picks the one candidate preferred, directly or
// transitively, over every other candidate in cands. It reports false if no
// such unique candidate exists (no rule, or a genuine cycle/ambiguity).
func choosePreferred(cands []Key, pref map[Key]map[Key]bool) (Key, bool) {
	for _, c := range cands {
		ok := true
		for _, other := range cands {
			if other == c {
				continue
			}
			if !isPreferred(pref, c, other) {
				ok = false
				break
			}
		}
		if ok {
			return c, true
		}
	}
	return Key{}, false
}

// topoSort orders keys so that whenever `prefer A over B` holds for two
// keys both present in keys, A precedes B in the result. It is a stable
// Kahn's algorithm: with no preference edges at all, it returns keys
// unchanged. It errors if the preference edges among keys are cyclic.
func topoSort(keys []Key, pref map[Key]map[Key]bool) ([]Key, error) {
	set := make(map[Key]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	indeg := make(map[Key]int, len(keys))
	adj := make(map[Key][]Key)
	for _, k := range keys {
		indeg[k] = 0
	}
	for winner, losers := range pref {
		if !set[winner] {
			continue
		}
		for loser := range losers {
			if !set[loser] {
				continue
			}
			adj[winner] = append(adj[winner], loser)
			indeg[loser]++
		}
	}

	remaining := make(map[Key]bool, len(keys))
	for _, k := range keys {
		remaining[k] = true
	}

	var out []Key
	for len(remaining) > 0 {
		progressed := false
		for _, k := range keys {
			if !remaining[k] || indeg[k] != 0 {
				continue
			}
			out = append(out, k)
			delete(remaining, k)
			for _, nxt := range adj[k] {
				indeg[nxt]--
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("cyclic mixin preference rules")
		}
	}
	return out, nil
}
