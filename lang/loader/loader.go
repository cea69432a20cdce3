// Package loader resolves `use "path/to/module"` declarations into a single
// merged program: it reads each module's source from the stdlib root or a
// project module root, expands that module's own uses depth-first, detects
// use cycles, and splices every transitively used module's declarations
// ahead of the importing file's own declarations.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dolthub/swiss"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/token"
)

// internalOnlyModules names module paths that may only be used from within
// the stdlib tree itself: they wrap a capability (native interop, process
// control) that user code must not reach directly.
var internalOnlyModules = map[string]bool{
	"_bridge_python": true,
}

// ModuleCache holds the two caches a Loader reads and populates: the parsed
// stdlib prelude, and every stdlib/project module parsed so far, keyed by
// its `use` path. It is safe for concurrent use so a future
// parallel-file-loading caller can share one across goroutines; a fresh
// ModuleCache is also how a test gets an isolated, empty cache.
type ModuleCache struct {
	mu      sync.Mutex
	prelude *ast.Program
	modules map[string]*ast.Program
}

// NewModuleCache returns an empty cache.
func NewModuleCache() *ModuleCache {
	return &ModuleCache{modules: map[string]*ast.Program{}}
}

func (c *ModuleCache) getModule(path string) (*ast.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prog, ok := c.modules[path]
	return prog, ok
}

func (c *ModuleCache) putModule(path string, prog *ast.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[path] = prog
}

func (c *ModuleCache) getPrelude() (*ast.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prelude, c.prelude != nil
}

func (c *ModuleCache) putPrelude(prog *ast.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prelude = prog
}

// Loader loads `.flv` modules by `use` path. Root search order is the
// stdlib root first, then each project module root in the order given (the
// conventional order is project `src`, then `vendor`, then the project
// root itself) — the stdlib always wins a name collision, so a project
// cannot shadow a stdlib module out from under code that expects it.
type Loader struct {
	fset        *token.FileSet
	mode        parser.Mode
	stdlibRoot  string
	moduleRoots []string
	cache       *ModuleCache
}

// New returns a Loader that parses modules into fset using mode, backed by
// cache (use NewModuleCache for a fresh one).
func New(fset *token.FileSet, mode parser.Mode, stdlibRoot string, moduleRoots []string, cache *ModuleCache) *Loader {
	if cache == nil {
		cache = NewModuleCache()
	}
	return &Loader{fset: fset, mode: mode, stdlibRoot: stdlibRoot, moduleRoots: moduleRoots, cache: cache}
}

// findPath resolves a `use` path to a file on disk, trying "<root>/<path>.flv"
// then the package form "<root>/<path>/__init__.flv", across roots in order.
func findPath(path string, roots []string) (string, bool) {
	parts := strings.Split(path, "/")
	for _, root := range roots {
		direct := filepath.Join(append([]string{root}, parts...)...) + ".flv"
		if fileExists(direct) {
			return direct, true
		}
		pkg := filepath.Join(append(append([]string{root}, parts...), "__init__.flv")...)
		if fileExists(pkg) {
			return pkg, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load parses and returns the module named by path (e.g. "time" loading
// stdlib's stdlib/time.flv, or "util/strings" loading a project module),
// searching the stdlib root before the project module roots. Results are
// cached by path in l's ModuleCache.
func (l *Loader) Load(ctx context.Context, path string, fallback token.Pos) (*ast.Program, error) {
	if prog, ok := l.cache.getModule(path); ok {
		return prog, nil
	}

	found, ok := findPath(path, []string{l.stdlibRoot})
	if !ok {
		found, ok = findPath(path, l.moduleRoots)
	}
	if !ok {
		return nil, fmt.Errorf("missing module: %s", path)
	}

	src, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("missing module: %s: %w", path, err)
	}

	prog, err := parser.ParseModule(ctx, l.mode, l.fset, found, src)
	if err != nil {
		return nil, err
	}
	l.cache.putModule(path, prog)
	return prog, nil
}

// Prelude returns the stdlib prelude module (stdlib/prelude.flv), parsed
// once and cached in l's ModuleCache.
func (l *Loader) Prelude(ctx context.Context, fallback token.Pos) (*ast.Program, error) {
	if prog, ok := l.cache.getPrelude(); ok {
		return prog, nil
	}
	prog, err := l.Load(ctx, "prelude", fallback)
	if err != nil {
		return nil, err
	}
	l.cache.putPrelude(prog)
	return prog, nil
}

// IsPrelude reports whether filename names the stdlib prelude module, so
// callers can skip prepending the prelude to itself.
func IsPrelude(filename string) bool {
	norm := filepath.ToSlash(filename)
	return strings.HasSuffix(norm, "/stdlib/prelude.flv") || norm == "stdlib/prelude.flv"
}

// ExpandUses walks prog's `use` declarations depth-first, loading and
// recursively expanding each used module, and returns a new Program whose
// Decls are every transitively used module's declarations (each included at
// most once, in first-use order) followed by prog's own non-use
// declarations. A cycle among `use` paths is reported as an error naming the
// full cycle.
func (l *Loader) ExpandUses(ctx context.Context, prog *ast.Program) (*ast.Program, error) {
	visited := swiss.NewMap[string, struct{}](8)
	var stack []string
	var out []ast.Decl

	inStdlib := func(name string) bool {
		if strings.Contains(filepath.ToSlash(name), "/stdlib/") || IsPrelude(name) {
			return true
		}
		rel, err := filepath.Rel(l.stdlibRoot, name)
		return l.stdlibRoot != "" && err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}

	var visit func(path string, pos token.Pos, fromStdlib bool) error
	visit = func(path string, pos token.Pos, fromStdlib bool) error {
		if _, ok := visited.Get(path); ok {
			return nil
		}
		for _, s := range stack {
			if s == path {
				return fmt.Errorf("cyclic use: %s -> %s", strings.Join(stack, " -> "), path)
			}
		}
		if internalOnlyModules[path] && !fromStdlib {
			return fmt.Errorf("direct use of %s is not allowed", path)
		}

		stack = append(stack, path)
		mod, err := l.Load(ctx, path, pos)
		if err != nil {
			return err
		}
		for _, d := range mod.Decls {
			if u, ok := d.(*ast.UseStmt); ok {
				if err := visit(u.Path.Value.String, u.Path.TokPos, inStdlib(mod.Name)); err != nil {
					return err
				}
			}
		}
		for _, d := range mod.Decls {
			if _, ok := d.(*ast.UseStmt); ok {
				continue
			}
			out = append(out, d)
		}
		stack = stack[:len(stack)-1]
		visited.Put(path, struct{}{})
		return nil
	}

	for _, d := range prog.Decls {
		if u, ok := d.(*ast.UseStmt); ok {
			if err := visit(u.Path.Value.String, u.Path.TokPos, inStdlib(prog.Name)); err != nil {
				return nil, err
			}
		}
	}

	if len(out) == 0 {
		return prog, nil
	}

	kept := make([]ast.Decl, 0, len(prog.Decls))
	for _, d := range prog.Decls {
		if _, ok := d.(*ast.UseStmt); ok {
			continue
		}
		kept = append(kept, d)
	}

	merged := &ast.Program{
		Name:  prog.Name,
		Decls: append(out, kept...),
		Run:   prog.Run,
		EOF:   prog.EOF,
	}
	return merged, nil
}
