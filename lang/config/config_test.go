package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oranpie/flavent/lang/config"
)

func TestLoadDiscardNamesDefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	names := config.LoadDiscardNames(filepath.Join(dir, "mod.flv"))
	require.Equal(t, map[string]bool{"_": true}, map[string]bool(names))
}

func TestLoadDiscardNamesReadsNearestFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	content := "ignored, skip  # trailing comment\n# whole line comment\n_unused\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "flvdiscard"), []byte(content), 0o644))

	names := config.LoadDiscardNames(filepath.Join(sub, "mod.flv"))
	require.Equal(t, map[string]bool{"ignored": true, "skip": true, "_unused": true}, map[string]bool(names))
}

func TestLoadDiscardNamesPrefersCloserFileOverAncestor(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "flvdiscard"), []byte("fromRoot\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "flvdiscard"), []byte("fromSub\n"), 0o644))

	names := config.LoadDiscardNames(filepath.Join(sub, "mod.flv"))
	require.Equal(t, map[string]bool{"fromSub": true}, map[string]bool(names))
}

func TestLoadDiscardNamesIgnoresInvalidTokens(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flvdiscard"), []byte("1bad ok-name good\n"), 0o644))

	names := config.LoadDiscardNames(filepath.Join(dir, "mod.flv"))
	require.Equal(t, map[string]bool{"good": true}, map[string]bool(names))
}

func TestLoadDiscardNamesFallsBackWhenFileHasNoValidTokens(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flvdiscard"), []byte("# only comments\n123\n"), 0o644))

	names := config.LoadDiscardNames(filepath.Join(dir, "mod.flv"))
	require.Equal(t, map[string]bool{"_": true}, map[string]bool(names))
}

func TestEnvLoadDefaults(t *testing.T) {
	t.Setenv("FLAVENT_STDLIB_ROOT", "")
	t.Setenv("FLAVENT_MODULE_ROOTS", "")
	t.Setenv("FLAVENT_DISCARD_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "stdlib", cfg.StdlibRoot)
	require.Equal(t, "flvdiscard", cfg.DiscardFile)
	require.Nil(t, cfg.ModuleRootList())
}

func TestEnvModuleRootListSplitsOnPathSeparator(t *testing.T) {
	sep := string(os.PathListSeparator)
	cfg := &config.Env{ModuleRoots: "src" + sep + "" + sep + "vendor"}
	require.Equal(t, []string{"src", "vendor"}, cfg.ModuleRootList())
}
