package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/loader"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, src string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func newLoader(t *testing.T, stdlibRoot string, moduleRoots ...string) (*loader.Loader, *token.FileSet) {
	t.Helper()
	fset := token.NewFileSet()
	return loader.New(fset, parser.Mode(0), stdlibRoot, moduleRoots, loader.NewModuleCache()), fset
}

func TestLoaderLoadsFromStdlibBeforeProjectRoot(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, stdlib, "time.flv", "const Version = 1\n")
	writeFile(t, project, "time.flv", "const Version = 2\n")

	l, _ := newLoader(t, stdlib, project)
	mod, err := l.Load(context.Background(), "time", token.NoPos)
	require.NoError(t, err)
	require.Len(t, mod.Decls, 1)

	cd := mod.Decls[0].(*ast.ConstDecl)
	lit := cd.Value.(*ast.LiteralExpr)
	assert.Equal(t, int64(1), lit.Value.Int)
}

func TestLoaderFallsBackToProjectRootWhenAbsentFromStdlib(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, project, "util/strings.flv", "const Sep = 0\n")

	l, _ := newLoader(t, stdlib, project)
	mod, err := l.Load(context.Background(), "util/strings", token.NoPos)
	require.NoError(t, err)
	require.Len(t, mod.Decls, 1)
}

func TestLoaderResolvesPackageStyleInitModule(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, project, "collections/__init__.flv", "const Empty = 0\n")

	l, _ := newLoader(t, stdlib, project)
	mod, err := l.Load(context.Background(), "collections", token.NoPos)
	require.NoError(t, err)
	require.Len(t, mod.Decls, 1)
}

func TestLoaderMissingModuleIsError(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	l, _ := newLoader(t, stdlib, project)
	_, err := l.Load(context.Background(), "nope", token.NoPos)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing module")
}

func TestLoaderExpandUsesFlattensInFirstUseOrder(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, project, "a.flv", "const A = 1\n")
	writeFile(t, project, "b.flv", "use \"a\"\nconst B = 2\n")

	l, fset := newLoader(t, stdlib, project)
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, "main.flv", []byte("use \"b\"\nconst Main = 3\n"))
	require.NoError(t, err)

	merged, err := l.ExpandUses(context.Background(), prog)
	require.NoError(t, err)
	require.Len(t, merged.Decls, 3)

	names := []string{}
	for _, d := range merged.Decls {
		names = append(names, d.(*ast.ConstDecl).Name.Name)
	}
	assert.Equal(t, []string{"A", "B", "Main"}, names)
}

func TestLoaderExpandUsesDoesNotDuplicateDiamondDependency(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, project, "base.flv", "const Base = 1\n")
	writeFile(t, project, "left.flv", "use \"base\"\nconst Left = 2\n")
	writeFile(t, project, "right.flv", "use \"base\"\nconst Right = 3\n")

	l, fset := newLoader(t, stdlib, project)
	src := "use \"left\"\nuse \"right\"\nconst Main = 4\n"
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, "main.flv", []byte(src))
	require.NoError(t, err)

	merged, err := l.ExpandUses(context.Background(), prog)
	require.NoError(t, err)
	require.Len(t, merged.Decls, 4)
}

func TestLoaderExpandUsesDetectsCycle(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, project, "a.flv", "use \"b\"\nconst A = 1\n")
	writeFile(t, project, "b.flv", "use \"a\"\nconst B = 2\n")

	l, fset := newLoader(t, stdlib, project)
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, "main.flv", []byte("use \"a\"\n"))
	require.NoError(t, err)

	_, err = l.ExpandUses(context.Background(), prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic use")
}

func TestLoaderRejectsBridgePythonOutsideStdlib(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, stdlib, "_bridge_python.flv", "const Marker = 1\n")

	l, fset := newLoader(t, stdlib, project)
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, "main.flv", []byte("use \"_bridge_python\"\n"))
	require.NoError(t, err)

	_, err = l.ExpandUses(context.Background(), prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "_bridge_python")
}

func TestLoaderAllowsBridgePythonFromWithinStdlib(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, stdlib, "_bridge_python.flv", "const Marker = 1\n")

	l, fset := newLoader(t, stdlib, project)
	src := "use \"_bridge_python\"\nconst Native = 2\n"
	prog, err := parser.ParseModule(context.Background(), parser.Mode(0), fset, filepath.Join(stdlib, "native.flv"), []byte(src))
	require.NoError(t, err)

	merged, err := l.ExpandUses(context.Background(), prog)
	require.NoError(t, err)
	require.Len(t, merged.Decls, 2)
}

func TestLoaderPreludeIsCachedAcrossCalls(t *testing.T) {
	stdlib := t.TempDir()
	project := t.TempDir()

	writeFile(t, stdlib, "prelude.flv", "const Loaded = 1\n")

	l, _ := newLoader(t, stdlib, project)
	first, err := l.Prelude(context.Background(), token.NoPos)
	require.NoError(t, err)
	second, err := l.Prelude(context.Background(), token.NoPos)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestIsPrelude(t *testing.T) {
	assert.True(t, loader.IsPrelude("stdlib/prelude.flv"))
	assert.True(t, loader.IsPrelude("/abs/path/stdlib/prelude.flv"))
	assert.False(t, loader.IsPrelude("stdlib/time.flv"))
}
