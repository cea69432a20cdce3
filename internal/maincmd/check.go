package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/oranpie/flavent/lang/analyze"
	"github.com/oranpie/flavent/lang/diag"
	"github.com/oranpie/flavent/lang/token"
)

func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	stdlibRoot := c.StdlibRoot
	if stdlibRoot == "" {
		stdlibRoot = os.Getenv("FLAVENT_STDLIB_ROOT")
	}
	if stdlibRoot == "" {
		stdlibRoot = "stdlib"
	}
	return CheckFiles(ctx, stdio, stdlibRoot, args...)
}

// CheckFiles runs the full pipeline (parse, use-expansion, mixin weaving,
// resolve, lower, type/effect check) over each file in turn and reports any
// failure as a diagnostic. Each file is analyzed on its own, so a failing
// file does not stop the remaining files from being checked; CheckFiles
// reports every failure before returning the first one as its error.
func CheckFiles(ctx context.Context, stdio mainer.Stdio, stdlibRoot string, files ...string) error {
	var firstErr error
	for _, f := range files {
		fset := token.NewFileSet()
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", f, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if _, err := analyze.Analyze(ctx, fset, f, src, stdlibRoot, nil, analyze.Options{}); err != nil {
			d := diag.FromCheckError(err)
			fmt.Fprint(stdio.Stderr, diag.Format(string(src), d))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%s: ok\n", f)
	}
	return firstErr
}
