// Package analyze wires the full compilation pipeline — parse, module
// loading, mixin weaving, resolving, lowering, and type/effect checking —
// behind a single entry point. No direct teacher analogue: nenuphar's
// internal/maincmd commands invoke parser/resolver directly per-command,
// one stage at a time. This package is modeled on that same pipeline shape
// (the stage order maincmd's commands imply) collapsed into one call, the
// way original_source/flavent's own top-level `check`/`run` commands drive
// resolve_program_with_stdlib end to end.
package analyze

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/check"
	"github.com/oranpie/flavent/lang/config"
	"github.com/oranpie/flavent/lang/hir"
	"github.com/oranpie/flavent/lang/loader"
	"github.com/oranpie/flavent/lang/lower"
	"github.com/oranpie/flavent/lang/mixin"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/token"
)

// Options configures one Analyze call. A zero-value Options is usable: it
// looks up the discard-name set from the nearest flvdiscard file via
// lang/config. Module roots are not part of Options; they are Analyze's own
// moduleRoots argument (AnalyzeFile takes them from a config.Env).
//
// Analyze never merges stdlib/prelude.flv into the program the way an
// ordinary `use`d module is merged: resolver.installBuiltins already seeds
// Result/Option and their Ok/Err/Some/None constructors directly (see its
// doc comment), so parsing and splicing in prelude.flv's own `type Result =
// Ok(Any) | Err(Any)` / `type Option = Some(Any) | None` declarations would
// collide with those same names as a "duplicate type" resolve error.
// prelude.flv exists as documentation of that shape, not as a second source
// of truth to merge.
type Options struct {
	// ParseMode is forwarded to parser.ParseModule.
	ParseMode parser.Mode
	// Discard overrides the resolver's discard-name set; nil means "look up
	// the nearest flvdiscard file via lang/config".
	Discard resolver.DiscardNames
	// Log receives mixin-weaving decisions; nil discards them.
	Log *logrus.Logger
	// Cache lets repeated Analyze calls against the same stdlib/module roots
	// share parsed modules; nil allocates a private one-shot cache.
	Cache *loader.ModuleCache
}

// Result collects every stage's output a caller might want to inspect after
// a successful Analyze: the merged (post-use-expansion, post-mixin) AST, the
// resolve result, the plan the mixin weaver recorded, and the checked HIR.
type Result struct {
	Program  *ast.Program
	HookPlan []mixin.HookPlanRow
	Resolved *resolver.Result
	HIR      *hir.Program
}

// Analyze parses filename/src, expands its `use` graph against stdlib and
// moduleRoots, weaves mixins, resolves, lowers to HIR, and runs the type and
// effect checker — in that order, stopping at the first stage that fails.
func Analyze(ctx context.Context, fset *token.FileSet, filename string, src []byte, stdlibRoot string, moduleRoots []string, opts Options) (*Result, error) {
	prog, err := parser.ParseModule(ctx, opts.ParseMode, fset, filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	cache := opts.Cache
	if cache == nil {
		cache = loader.NewModuleCache()
	}
	ld := loader.New(fset, opts.ParseMode, stdlibRoot, moduleRoots, cache)

	prog, err = ld.ExpandUses(ctx, prog)
	if err != nil {
		return nil, fmt.Errorf("use: %w", err)
	}

	prog, hookPlan, err := mixin.Weave(ctx, fset, prog, opts.Log)
	if err != nil {
		return nil, fmt.Errorf("mixin: %w", err)
	}

	discard := opts.Discard
	if discard == nil {
		discard = config.LoadDiscardNames(filename)
	}

	file := fset.File(prog.EOF)
	res, err := resolver.Resolve(ctx, fset, file, prog, discard)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	hirProg, err := lower.Lower(ctx, file, prog, res)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}

	if err := check.Check(hirProg, res); err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	return &Result{Program: prog, HookPlan: hookPlan, Resolved: res, HIR: hirProg}, nil
}

// AnalyzeFile reads filename from disk and runs Analyze over its contents,
// using env for the stdlib root and module roots (see lang/config.Env).
func AnalyzeFile(ctx context.Context, fset *token.FileSet, filename string, env *config.Env, opts Options) (*Result, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return Analyze(ctx, fset, filename, src, env.StdlibRoot, env.ModuleRootList(), opts)
}
