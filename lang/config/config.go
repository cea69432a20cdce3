// Package config resolves the process-wide settings that sit outside any
// single `.flv` source file: where the stdlib and project module roots
// live, and which identifier names the resolver should treat as discard
// bindings. Grounded on original_source/flavent/resolve.py's
// _load_discard_names for semantics and on the teacher's mainer.Parser
// EnvVars/EnvPrefix wiring for the idea of environment-driven overrides,
// ported here onto caarlos0/env/v6 struct tags instead of mainer's own flag
// parser, since this package has no command-line surface of its own.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"

	"github.com/oranpie/flavent/lang/resolver"
)

// Env holds every setting overridable through the process environment,
// prefixed FLAVENT_ (e.g. FLAVENT_STDLIB_ROOT, FLAVENT_MODULE_ROOTS).
// ModuleRoots is colon-separated, mirroring $PATH.
type Env struct {
	StdlibRoot  string `env:"FLAVENT_STDLIB_ROOT" envDefault:"stdlib"`
	ModuleRoots string `env:"FLAVENT_MODULE_ROOTS"`
	DiscardFile string `env:"FLAVENT_DISCARD_FILE" envDefault:"flvdiscard"`
}

// Load reads Env from the process environment, applying envDefault tags for
// anything unset.
func Load() (*Env, error) {
	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModuleRootList splits e.ModuleRoots on the OS path-list separator,
// dropping empty entries, so a caller can feed it straight to
// loader.New's moduleRoots parameter.
func (e *Env) ModuleRootList() []string {
	if e.ModuleRoots == "" {
		return nil
	}
	parts := strings.Split(e.ModuleRoots, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isDiscardNameStart and isDiscardNameByte report whether b may start, or
// appear in, a discard-file token,
// mirroring _load_discard_names's `^[A-Za-z_][A-Za-z0-9_]*$` identifier
// check (ASCII only — flvdiscard entries are always plain bare names, never
// arbitrary unicode identifiers).
func isDiscardNameStart(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isDiscardNameByte(b byte) bool {
	return isDiscardNameStart(b) || ('0' <= b && b <= '9')
}

func isValidDiscardName(tok string) bool {
	if tok == "" || !isDiscardNameStart(tok[0]) {
		return false
	}
	for i := 1; i < len(tok); i++ {
		if !isDiscardNameByte(tok[i]) {
			return false
		}
	}
	return true
}

// LoadDiscardNames finds the nearest "flvdiscard" file walking up from
// file's directory (file itself, if file already names a directory) and
// parses it into a resolver.DiscardNames. Each line's text before a "#" is
// split on commas and whitespace into candidate tokens; a token is kept
// only if it looks like a bare identifier. If no flvdiscard file is found,
// or it exists but names no valid tokens, the default discard set (just
// "_") is returned — a malformed or empty override file is never treated
// as "no overrides are discardable at all".
func LoadDiscardNames(file string) resolver.DiscardNames {
	defaults := resolver.DefaultDiscardNames()

	abs, err := filepath.Abs(file)
	if err != nil {
		return defaults
	}
	info, err := os.Stat(abs)
	dir := abs
	if err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	var found string
	for {
		cand := filepath.Join(dir, "flvdiscard")
		if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
			found = cand
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if found == "" {
		return defaults
	}

	raw, err := os.ReadFile(found)
	if err != nil {
		return defaults
	}

	names := resolver.DiscardNames{}
	for _, line := range strings.Split(string(raw), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, tok := range strings.Fields(strings.ReplaceAll(line, ",", " ")) {
			if isValidDiscardName(tok) {
				names[tok] = true
			}
		}
	}
	if len(names) == 0 {
		return defaults
	}
	return names
}
