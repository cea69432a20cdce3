package mixin

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// aroundSpec is one around-wrapping obligation resolved against a single
// target function: either a literal `around fn` item (origin "around",
// point always "invoke"), or a `hook` item already synthesized into
// around-shaped wrapper code by hookToAroundSpec.
type aroundSpec struct {
	mixinKey Key
	origin   string // "around" or "hook"
	point    string // "head", "invoke", "tail"
	hookID   string
	priority int
	depends  []string
	at       string
	conflict string // "error", "prefer", "drop"
	strict   bool
	sig      *ast.FnSignature
	body     *ast.Block
	order    int // weave-sequence counter, used as an insertion-order tie-break
}

// resolveSpecs groups specs by hookID (resolving duplicates per their
// conflict policy), drops any whose dependencies are missing, and returns
// the survivors in a dependency-respecting, priority-then-order-tie-broken
// application sequence.
//
// Grounded on original_source/flavent/resolve.py's _resolve_specs.
func resolveSpecs(specs []aroundSpec) ([]aroundSpec, []HookPlanRow, error) {
	type group struct{ specs []aroundSpec }
	groups := map[string]*group{}
	var groupOrder []string
	for _, s := range specs {
		g, ok := groups[s.hookID]
		if !ok {
			g = &group{}
			groups[s.hookID] = g
			groupOrder = append(groupOrder, s.hookID)
		}
		g.specs = append(g.specs, s)
	}

	var dropped []HookPlanRow
	survivors := map[string]aroundSpec{}
	var survivorOrder []string

	for _, id := range groupOrder {
		g := groups[id]
		if len(g.specs) == 1 {
			survivors[id] = g.specs[0]
			survivorOrder = append(survivorOrder, id)
			continue
		}
		var anyError, anyPrefer bool
		for _, s := range g.specs {
			switch s.conflict {
			case "error":
				anyError = true
			case "prefer":
				anyPrefer = true
			}
		}
		if anyError {
			return nil, nil, fmt.Errorf("duplicate hook id %q on the same target", id)
		}
		if anyPrefer {
			best := g.specs[0]
			for _, s := range g.specs[1:] {
				if s.priority > best.priority || (s.priority == best.priority && s.order < best.order) {
					best = s
				}
			}
			survivors[id] = best
			survivorOrder = append(survivorOrder, id)
			for _, s := range g.specs {
				if s.order == best.order {
					continue
				}
				dropped = append(dropped, planRow(s, "dropped", "duplicate_hook_id"))
			}
			continue
		}
		for _, s := range g.specs {
			dropped = append(dropped, planRow(s, "dropped", "duplicate_hook_id"))
		}
	}

	for {
		changed := false
		for _, id := range survivorOrder {
			s, ok := survivors[id]
			if !ok {
				continue
			}
			for _, dep := range s.depends {
				if _, ok := survivors[dep]; ok {
					continue
				}
				if s.strict {
					return nil, nil, fmt.Errorf("hook %q depends on unknown hook %q", id, dep)
				}
				dropped = append(dropped, planRow(s, "dropped", "unknown_dependency:"+dep))
				delete(survivors, id)
				changed = true
				break
			}
		}
		if !changed {
			break
		}
	}

	var remaining []string
	for _, id := range survivorOrder {
		if _, ok := survivors[id]; ok {
			remaining = append(remaining, id)
		}
	}

	indeg := map[string]int{}
	adj := map[string][]string{}
	for _, id := range remaining {
		indeg[id] = 0
	}
	for _, id := range remaining {
		for _, dep := range survivors[id].depends {
			adj[dep] = append(adj[dep], id)
			indeg[id]++
		}
	}

	var ordered []aroundSpec
	done := map[string]bool{}
	for len(done) < len(remaining) {
		var ready []string
		for _, id := range remaining {
			if !done[id] && indeg[id] == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			return nil, nil, fmt.Errorf("cyclic hook dependencies in mixin call stack resolver")
		}
		slices.SortFunc(ready, func(x, y string) bool {
			a, b := survivors[x], survivors[y]
			if a.priority != b.priority {
				return a.priority > b.priority
			}
			if a.order != b.order {
				return a.order < b.order
			}
			return x < y
		})
		pick := ready[0]
		ordered = append(ordered, survivors[pick])
		done[pick] = true
		for _, nxt := range adj[pick] {
			indeg[nxt]--
		}
	}
	return ordered, dropped, nil
}

func planRow(s aroundSpec, status, reason string) HookPlanRow {
	return HookPlanRow{
		HookID: s.hookID, Point: s.point, Origin: s.origin, ConflictPolicy: s.conflict,
		MixinKey: s.mixinKey.String(), Priority: s.priority, Depends: s.depends, At: s.at,
		Status: status, DropReason: reason,
	}
}

// weaveFunction resolves and applies every head/invoke/tail spec targeting
// fn, innermost-first, returning the fully wrapped replacement function.
// Synthesized `__mixin_*_orig` clones of each intermediate version are
// appended to extra so the caller can fold them into the owning sector's fn
// list.
//
// Grounded on original_source/flavent/resolve.py's _apply_around_specs.
func (w *weaver) weaveFunction(ownerKind, owner string, fn *ast.FnDecl, specsByPoint map[string][]aroundSpec, extra *[]*ast.FnDecl) (*ast.FnDecl, error) {
	var headOrdered, invokeOrdered, tailOrdered []aroundSpec
	var dropped []HookPlanRow
	for _, point := range []string{"head", "invoke", "tail"} {
		specs := specsByPoint[point]
		if len(specs) == 0 {
			continue
		}
		ordered, drops, err := resolveSpecs(specs)
		if err != nil {
			return nil, fmt.Errorf("%s %q, target %q: %w", ownerKind, owner, fn.Name.Name, err)
		}
		dropped = append(dropped, drops...)
		switch point {
		case "head":
			headOrdered = ordered
		case "invoke":
			invokeOrdered = ordered
		case "tail":
			tailOrdered = ordered
		}
	}

	outer := make([]aroundSpec, 0, len(headOrdered)+len(invokeOrdered)+len(tailOrdered))
	outer = append(outer, headOrdered...)
	outer = append(outer, invokeOrdered...)
	for i := len(tailOrdered) - 1; i >= 0; i-- {
		outer = append(outer, tailOrdered[i])
	}

	for i, s := range outer {
		row := planRow(s, "active", "")
		row.OwnerKind, row.Owner, row.Target, row.Depth = ownerKind, owner, fn.Name.Name, i
		w.plan = append(w.plan, row)
	}
	for _, row := range dropped {
		row.OwnerKind, row.Owner, row.Target = ownerKind, owner, fn.Name.Name
		w.plan = append(w.plan, row)
	}

	cur := fn
	for i := len(outer) - 1; i >= 0; i-- {
		spec := outer[i]
		if spec.at != "" {
			if err := validateLocator(spec.at, cur, w.fset); err != nil {
				if spec.strict {
					return nil, err
				}
				row := planRow(spec, "dropped", err.Error())
				row.OwnerKind, row.Owner, row.Target, row.Depth = ownerKind, owner, fn.Name.Name, i
				w.plan = append(w.plan, row)
				continue
			}
		}

		origName := fmt.Sprintf("__mixin_%s_%s_%s_%d_orig", safeName(spec.mixinKey.String()), safeName(owner), safeName(cur.Name.Name), w.nextSeq())
		orig := &ast.FnDecl{FnPos: cur.FnPos, Name: &ast.Ident{Name: origName}, Sig: cur.Sig, Eq: cur.Eq, Body: cur.Body}
		*extra = append(*extra, orig)

		callee := &ast.Ident{Name: origName}
		rewritten, _ := rewriteProceedInBlock(spec.body, callee)
		if containsProceedBlock(rewritten) {
			return nil, fmt.Errorf("proceed() appears in an unsupported position while weaving hook %q", spec.hookID)
		}

		cur = &ast.FnDecl{FnPos: cur.FnPos, Name: cur.Name, Sig: cur.Sig, Eq: cur.Eq, Body: &ast.DoExpr{DoPos: cur.FnPos, Body: rewritten}}
	}
	return cur, nil
}

// validateLocator checks a hook's `at = "..."` option against the current
// state of its target function. Supported forms: "line:N" (the function's
// declaration line), "name:X" / "anchor:X" (the function's name), or a bare
// name treated the same as "name:X".
func validateLocator(at string, fn *ast.FnDecl, fset *token.FileSet) error {
	spec := at
	if idx := strings.Index(spec, "#"); idx >= 0 {
		spec = spec[:idx]
	}
	switch {
	case strings.HasPrefix(spec, "line:"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, "line:"))
		if err != nil {
			return fmt.Errorf("invalid hook locator %q", at)
		}
		pos := fset.Position(fn.FnPos)
		if pos.Line != n {
			return fmt.Errorf("hook locator mismatch: expected line %d, function %q is declared at line %d", n, fn.Name.Name, pos.Line)
		}
	case strings.HasPrefix(spec, "anchor:"):
		want := strings.TrimPrefix(spec, "anchor:")
		if fn.Name.Name != want {
			return fmt.Errorf("hook locator mismatch: anchor %q does not name function %q", want, fn.Name.Name)
		}
	case strings.HasPrefix(spec, "name:"):
		want := strings.TrimPrefix(spec, "name:")
		if fn.Name.Name != want {
			return fmt.Errorf("hook locator mismatch: expected name %q, got %q", want, fn.Name.Name)
		}
	default:
		if fn.Name.Name != spec {
			return fmt.Errorf("hook locator mismatch: expected %q, got %q", spec, fn.Name.Name)
		}
	}
	return nil
}

func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// bodyToBlock normalizes an around/hook item's Expr body into a *ast.Block:
// a `do:` body is already one, a single-line body becomes a one-statement
// block returning that expression.
func bodyToBlock(e ast.Expr) (*ast.Block, error) {
	if d, ok := e.(*ast.DoExpr); ok {
		return d.Body, nil
	}
	if e == nil {
		return &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{}}}, nil
	}
	return &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{X: e}}}, nil
}

func forwardArgs(paramNames []string) []*ast.Arg {
	args := make([]*ast.Arg, len(paramNames))
	for i, n := range paramNames {
		args[i] = &ast.Arg{Value: &ast.Ident{Name: n}}
	}
	return args
}

// hookToAroundSpec synthesizes the around-shaped wrapper body for one hook
// item, given the actual signature of the function it targets (used to
// forward parameters by name). An invoke-point hook's body becomes the
// around block directly; head and tail hooks get a synthesized helper
// function holding the hook's own body, called from a small generated
// wrapper around proceed(...).
func (w *weaver) hookToAroundSpec(key Key, owner string, h *ast.MixinHookAdd, target *ast.FnSignature, order int, extra *[]*ast.FnDecl) (aroundSpec, error) {
	point := h.Point.Name
	opts, err := parseHookOptions(h.Options, point)
	if err != nil {
		return aroundSpec{}, fmt.Errorf("hook %q on %q: %w", h.Name.Name, owner, err)
	}
	if point == "head" && opts.returnDep != "" {
		return aroundSpec{}, fmt.Errorf("hook %q: returnDep is only valid on a tail hook", h.Name.Name)
	}
	if point != "head" && opts.cancelable {
		return aroundSpec{}, fmt.Errorf("hook %q: cancelable is only valid on a head hook", h.Name.Name)
	}

	hookID := opts.id
	if hookID == "" {
		hookID = fmt.Sprintf("%s:%s:%d", key, point, order)
	}
	conflict := opts.conflict
	if conflict == "" {
		conflict = "error"
	}

	paramNames := make([]string, len(target.Params))
	for i, p := range target.Params {
		paramNames[i] = p.Name.Name
	}

	helperName := fmt.Sprintf("__hook_%s_%s_%s_%d_impl", safeName(key.String()), safeName(owner), safeName(h.Name.Name), order)
	helper := &ast.FnDecl{FnPos: h.FnPos, Name: &ast.Ident{Name: helperName}, Sig: h.Sig, Eq: h.Eq, Body: h.Body}

	var body *ast.Block
	switch point {
	case "invoke":
		body, err = bodyToBlock(h.Body)
		if err != nil {
			return aroundSpec{}, err
		}

	case "head":
		*extra = append(*extra, helper)
		helperCall := &ast.CallExpr{Fun: &ast.Ident{Name: helperName}, Args: forwardArgs(paramNames)}
		proceedCall := &ast.ProceedExpr{Args: forwardArgs(paramNames)}
		var stmts []ast.Stmt
		if opts.cancelable {
			choiceName := fmt.Sprintf("__hook_choice_%d", order)
			valueName := fmt.Sprintf("__hook_v_%d", order)
			stmts = append(stmts, &ast.LetStmt{Name: &ast.Ident{Name: choiceName}, Value: helperCall})
			stmts = append(stmts, &ast.ReturnStmt{X: &ast.MatchExpr{
				X: &ast.Ident{Name: choiceName},
				Arms: []*ast.MatchArm{
					{
						Pattern: &ast.CallExpr{Fun: &ast.Ident{Name: "Some"}, Args: []*ast.Arg{{Value: &ast.Ident{Name: valueName}}}},
						Body:    &ast.Ident{Name: valueName},
					},
					{Else: true, Body: proceedCall},
				},
			}})
		} else {
			stmts = append(stmts, &ast.ExprStmt{X: helperCall})
			stmts = append(stmts, &ast.ReturnStmt{X: proceedCall})
		}
		body = &ast.Block{Stmts: stmts}

	case "tail":
		*extra = append(*extra, helper)
		prevName := fmt.Sprintf("__hook_prev_%d", order)
		proceedCall := &ast.ProceedExpr{Args: forwardArgs(paramNames)}

		helperArgs := forwardArgs(paramNames)
		if opts.returnDep != "" && opts.returnDep != "none" {
			helperArgs = append(helperArgs, &ast.Arg{Value: &ast.Ident{Name: prevName}})
		}
		for _, c := range opts.constArgs {
			helperArgs = append(helperArgs, &ast.Arg{Value: &ast.LiteralExpr{Tok: token.STRING, Value: token.Value{String: c, Raw: strconv.Quote(c)}}})
		}

		var stmts []ast.Stmt
		stmts = append(stmts, &ast.LetStmt{Name: &ast.Ident{Name: prevName}, Value: proceedCall})
		helperCall := &ast.CallExpr{Fun: &ast.Ident{Name: helperName}, Args: helperArgs}
		if opts.returnDep == "replace_return" {
			resultName := fmt.Sprintf("__hook_result_%d", order)
			stmts = append(stmts, &ast.LetStmt{Name: &ast.Ident{Name: resultName}, Value: helperCall})
			stmts = append(stmts, &ast.ReturnStmt{X: &ast.Ident{Name: resultName}})
		} else {
			stmts = append(stmts, &ast.ExprStmt{X: helperCall})
			stmts = append(stmts, &ast.ReturnStmt{X: &ast.Ident{Name: prevName}})
		}
		body = &ast.Block{Stmts: stmts}

	default:
		return aroundSpec{}, fmt.Errorf("hook %q: unknown hook point %q", h.Name.Name, point)
	}

	return aroundSpec{
		mixinKey: key, origin: "hook", point: point, hookID: hookID,
		priority: opts.priority, depends: opts.depends, at: opts.at,
		conflict: conflict, strict: opts.strict, sig: target, body: body, order: order,
	}, nil
}

// applyToSector weaves every mixin key (already in weave order) targeting
// sec: field additions are not legal on a sector, function additions are
// resolved through choosePreferred on a name collision, and around/hook
// items are collected per target function and applied via weaveFunction.
//
// Grounded on original_source/flavent/resolve.py's apply_to_sector.
func (w *weaver) applyToSector(sec *ast.SectorDecl, keys []Key, mixins map[Key]*ast.MixinDecl) (*ast.SectorDecl, error) {
	fnByName := map[string]*ast.FnDecl{}
	var fnOrder []string
	for _, fn := range sec.Fns {
		fnByName[fn.Name.Name] = fn
		fnOrder = append(fnOrder, fn.Name.Name)
	}

	type addCand struct {
		key  Key
		item *ast.MixinFnAdd
	}
	addCandsByName := map[string][]addCand{}
	var addNameOrder []string

	type rawAround struct {
		key   Key
		item  *ast.MixinAround
		order int
	}
	type rawHook struct {
		key   Key
		item  *ast.MixinHookAdd
		order int
	}
	aroundsByFn := map[string][]rawAround{}
	hooksByFn := map[string][]rawHook{}
	var targetOrder []string
	targetSeen := map[string]bool{}
	markTarget := func(name string) {
		if !targetSeen[name] {
			targetSeen[name] = true
			targetOrder = append(targetOrder, name)
		}
	}

	for _, key := range keys {
		decl := mixins[key]
		if _, ok := decl.Target.(*ast.MixinTargetSector); !ok {
			return nil, fmt.Errorf("mixin %s does not target a sector", key)
		}
		for _, item := range decl.Items {
			switch {
			case item.Field != nil:
				return nil, fmt.Errorf("mixin %s: field-add items are only valid on a type target", key)
			case item.Fn != nil:
				name := item.Fn.Name.Name
				if _, ok := addCandsByName[name]; !ok {
					addNameOrder = append(addNameOrder, name)
				}
				addCandsByName[name] = append(addCandsByName[name], addCand{key, item.Fn})
			case item.Around != nil:
				name := item.Around.Name.Name
				aroundsByFn[name] = append(aroundsByFn[name], rawAround{key, item.Around, w.nextSeq()})
				markTarget(name)
			case item.Hook != nil:
				name := item.Hook.Name.Name
				hooksByFn[name] = append(hooksByFn[name], rawHook{key, item.Hook, w.nextSeq()})
				markTarget(name)
			}
		}
	}

	for _, name := range addNameOrder {
		if _, exists := fnByName[name]; exists {
			return nil, fmt.Errorf("mixin fn-add %q conflicts with an existing function in sector %q", name, sec.Name.Name)
		}
		cands := addCandsByName[name]
		chosen := cands[0].item
		if len(cands) > 1 {
			candKeys := make([]Key, len(cands))
			for i, c := range cands {
				candKeys[i] = c.key
			}
			pick, ok := choosePreferred(candKeys, w.preferOver)
			if !ok {
				return nil, fmt.Errorf("ambiguous mixin conflict for fn add %q in sector %q", name, sec.Name.Name)
			}
			for _, c := range cands {
				if c.key == pick {
					chosen = c.item
				}
			}
		}
		fnByName[name] = &ast.FnDecl{FnPos: chosen.FnPos, Name: chosen.Name, Sig: chosen.Sig, Eq: chosen.Eq, Body: chosen.Body}
		fnOrder = append(fnOrder, name)
	}

	var extra []*ast.FnDecl
	specsByFn := map[string]map[string][]aroundSpec{}
	for _, name := range targetOrder {
		target, ok := fnByName[name]
		if !ok {
			return nil, fmt.Errorf("mixin around/hook targets unknown function %q in sector %q", name, sec.Name.Name)
		}
		for _, r := range aroundsByFn[name] {
			spec := aroundSpec{
				mixinKey: r.key, origin: "around", point: "invoke",
				hookID:   fmt.Sprintf("%s:around:%d", r.key, r.order),
				conflict: "error", strict: true,
				sig: r.item.Sig, body: r.item.Body, order: r.order,
			}
			if specsByFn[name] == nil {
				specsByFn[name] = map[string][]aroundSpec{}
			}
			specsByFn[name]["invoke"] = append(specsByFn[name]["invoke"], spec)
		}
		for _, r := range hooksByFn[name] {
			spec, err := w.hookToAroundSpec(r.key, sec.Name.Name, r.item, target.Sig, r.order, &extra)
			if err != nil {
				return nil, err
			}
			if specsByFn[name] == nil {
				specsByFn[name] = map[string][]aroundSpec{}
			}
			specsByFn[name][spec.point] = append(specsByFn[name][spec.point], spec)
		}
	}

	for _, name := range targetOrder {
		woven, err := w.weaveFunction("sector", sec.Name.Name, fnByName[name], specsByFn[name], &extra)
		if err != nil {
			return nil, err
		}
		fnByName[name] = woven
	}

	newFns := make([]*ast.FnDecl, 0, len(fnOrder)+len(extra))
	for _, name := range fnOrder {
		newFns = append(newFns, fnByName[name])
	}
	newFns = append(newFns, extra...)

	out := *sec
	out.Fns = newFns
	return &out, nil
}

// applyToType weaves field additions and method items (fn/around/hook) onto
// a record type target. Field conflicts and method-name conflicts are each
// resolved through choosePreferred. A method item is synthesized into a
// free function named __method__<Type>__<name> (method_fns's key is
// "<Type>.<name>"); around/hook items targeting a method go through the
// same weaveFunction machinery applyToSector uses for sector functions.
// Weave rewrites every `Type.method(obj, ...)` call site across the whole
// program into a call of the synthesized function once every target has
// been woven.
//
// Grounded on original_source/flavent/resolve.py's apply_to_type.
func (w *weaver) applyToType(td *ast.TypeDecl, keys []Key, mixins map[Key]*ast.MixinDecl) (*ast.TypeDecl, []*ast.FnDecl, map[string]string, error) {
	if td.RHS.Record == nil {
		return nil, nil, nil, fmt.Errorf("mixin target %q must be a record type", td.Name.Name)
	}
	typeName := td.Name.Name
	existing := map[string]bool{}
	for _, f := range td.RHS.Record.Fields {
		existing[f.Name.Name] = true
	}

	type fieldCand struct {
		key  Key
		item *ast.MixinFieldAdd
	}
	fieldCands := map[string][]fieldCand{}
	var fieldOrder []string

	type methodCand struct {
		key  Key
		item *ast.MixinFnAdd
	}
	methodCands := map[string][]methodCand{}
	var methodOrder []string

	type rawAround struct {
		key   Key
		item  *ast.MixinAround
		order int
	}
	type rawHook struct {
		key   Key
		item  *ast.MixinHookAdd
		order int
	}
	aroundsByMethod := map[string][]rawAround{}
	hooksByMethod := map[string][]rawHook{}
	var targetOrder []string
	targetSeen := map[string]bool{}
	markTarget := func(name string) {
		if !targetSeen[name] {
			targetSeen[name] = true
			targetOrder = append(targetOrder, name)
		}
	}

	for _, key := range keys {
		decl := mixins[key]
		for _, item := range decl.Items {
			switch {
			case item.Field != nil:
				name := item.Field.Name.Name
				if _, ok := fieldCands[name]; !ok {
					fieldOrder = append(fieldOrder, name)
				}
				fieldCands[name] = append(fieldCands[name], fieldCand{key, item.Field})
			case item.Fn != nil:
				name := item.Fn.Name.Name
				if _, ok := methodCands[name]; !ok {
					methodOrder = append(methodOrder, name)
				}
				methodCands[name] = append(methodCands[name], methodCand{key, item.Fn})
			case item.Around != nil:
				name := item.Around.Name.Name
				aroundsByMethod[name] = append(aroundsByMethod[name], rawAround{key, item.Around, w.nextSeq()})
				markTarget(name)
			case item.Hook != nil:
				name := item.Hook.Name.Name
				hooksByMethod[name] = append(hooksByMethod[name], rawHook{key, item.Hook, w.nextSeq()})
				markTarget(name)
			}
		}
	}

	newFields := append([]*ast.FieldDecl{}, td.RHS.Record.Fields...)
	for _, name := range fieldOrder {
		if existing[name] {
			return nil, nil, nil, fmt.Errorf("mixin field-add %q conflicts with an existing field on type %q", name, typeName)
		}
		cs := fieldCands[name]
		chosen := cs[0].item
		if len(cs) > 1 {
			candKeys := make([]Key, len(cs))
			for i, c := range cs {
				candKeys[i] = c.key
			}
			pick, ok := choosePreferred(candKeys, w.preferOver)
			if !ok {
				return nil, nil, nil, fmt.Errorf("ambiguous mixin conflict for field add %q on type %q", name, typeName)
			}
			for _, c := range cs {
				if c.key == pick {
					chosen = c.item
				}
			}
		}
		newFields = append(newFields, &ast.FieldDecl{Name: chosen.Name, Colon: chosen.Colon, Type: chosen.Type})
	}

	fnByName := map[string]*ast.FnDecl{}
	callSites := map[string]string{}
	for _, name := range methodOrder {
		cs := methodCands[name]
		chosen := cs[0].item
		if len(cs) > 1 {
			candKeys := make([]Key, len(cs))
			for i, c := range cs {
				candKeys[i] = c.key
			}
			pick, ok := choosePreferred(candKeys, w.preferOver)
			if !ok {
				return nil, nil, nil, fmt.Errorf("ambiguous mixin conflict for method %q on type %q", name, typeName)
			}
			for _, c := range cs {
				if c.key == pick {
					chosen = c.item
				}
			}
		}
		if len(chosen.Sig.Params) == 0 || chosen.Sig.Params[0].Name.Name != "self" {
			return nil, nil, nil, fmt.Errorf("mixin method %q on type %q must take self as its first parameter", name, typeName)
		}
		selfTy, ok := chosen.Sig.Params[0].Type.(*ast.TypeName)
		if !ok || selfTy.Name.Name != typeName {
			return nil, nil, nil, fmt.Errorf("mixin method %q on type %q: self parameter must have type %s", name, typeName, typeName)
		}
		synth := synthMethodName(typeName, name)
		fnByName[name] = &ast.FnDecl{FnPos: chosen.FnPos, Name: &ast.Ident{NamePos: chosen.Name.NamePos, Name: synth}, Sig: chosen.Sig, Eq: chosen.Eq, Body: chosen.Body}
		callSites[typeName+"."+name] = synth
	}

	for _, name := range targetOrder {
		if _, ok := fnByName[name]; !ok {
			return nil, nil, nil, fmt.Errorf("mixin around/hook targets unknown method %q on type %q", name, typeName)
		}
	}

	var extra []*ast.FnDecl
	specsByMethod := map[string]map[string][]aroundSpec{}
	for _, name := range targetOrder {
		target := fnByName[name]
		for _, r := range aroundsByMethod[name] {
			spec := aroundSpec{
				mixinKey: r.key, origin: "around", point: "invoke",
				hookID:   fmt.Sprintf("%s:around:%d", r.key, r.order),
				conflict: "error", strict: true,
				sig: r.item.Sig, body: r.item.Body, order: r.order,
			}
			if specsByMethod[name] == nil {
				specsByMethod[name] = map[string][]aroundSpec{}
			}
			specsByMethod[name]["invoke"] = append(specsByMethod[name]["invoke"], spec)
		}
		for _, r := range hooksByMethod[name] {
			spec, err := w.hookToAroundSpec(r.key, typeName, r.item, target.Sig, r.order, &extra)
			if err != nil {
				return nil, nil, nil, err
			}
			if specsByMethod[name] == nil {
				specsByMethod[name] = map[string][]aroundSpec{}
			}
			specsByMethod[name][spec.point] = append(specsByMethod[name][spec.point], spec)
		}
	}
	for _, name := range targetOrder {
		woven, err := w.weaveFunction("type", typeName, fnByName[name], specsByMethod[name], &extra)
		if err != nil {
			return nil, nil, nil, err
		}
		fnByName[name] = woven
	}

	methodFns := make([]*ast.FnDecl, 0, len(methodOrder)+len(extra))
	for _, name := range methodOrder {
		methodFns = append(methodFns, fnByName[name])
	}
	methodFns = append(methodFns, extra...)

	out := *td
	rhs := *td.RHS
	rec := *td.RHS.Record
	rec.Fields = newFields
	rhs.Record = &rec
	out.RHS = &rhs
	return &out, methodFns, callSites, nil
}
