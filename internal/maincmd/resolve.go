package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/config"
	"github.com/oranpie/flavent/lang/parser"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
)

func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var parseMode parser.Mode
	if c.WithComments {
		parseMode |= parser.Comments
	}
	return ResolveFiles(ctx, stdio, parseMode, token.PosLong, "", args...)
}

// ResolveFiles parses each file, then resolves it on its own (this port has
// no notion of a multi-file "chunk set" sharing one resolve the way
// nenuphar's Starlark dialect does — every `.flv` module resolves against
// its own symbol table, with cross-module references going through `use`,
// not through resolving several files together). The AST is printed
// regardless of resolve errors, matching ParseFiles's best-effort behavior.
func ResolveFiles(ctx context.Context, stdio mainer.Stdio, parseMode parser.Mode, posMode token.PosMode, nodeFmt string, files ...string) error {
	printer := ast.Printer{
		Output:  stdio.Stdout,
		Pos:     posMode,
		NodeFmt: nodeFmt,
	}

	fs, progs, perr := parser.ParseFiles(ctx, parseMode, files...)
	if perr != nil {
		scanner.PrintError(stdio.Stderr, perr)
		return perr
	}

	var firstErr error
	for _, prog := range progs {
		start, _ := prog.Span()
		file := fs.File(start)

		discard := config.LoadDiscardNames(file.Name())
		if _, err := resolver.Resolve(ctx, fs, file, prog, discard); err != nil {
			scanner.PrintError(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if err := printer.Print(prog, file); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	}
	return firstErr
}
