package diag_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oranpie/flavent/lang/check"
	"github.com/oranpie/flavent/lang/diag"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
)

func TestFromCheckErrorTypeError(t *testing.T) {
	err := &check.TypeError{Message: "type mismatch", At: token.Span{File: "m.flv", Line: 2, Column: 5}}
	d := diag.FromCheckError(err)
	require.Equal(t, diag.Type, d.Kind)
	require.Equal(t, "type mismatch", d.Message)
	require.Equal(t, "m.flv:2:5: type: type mismatch", d.Error())
}

func TestFromCheckErrorUnwrapsWrappedError(t *testing.T) {
	inner := &check.TypeError{Message: "type mismatch", At: token.Span{File: "m.flv", Line: 2, Column: 5}}
	wrapped := fmt.Errorf("check: %w", inner)
	d := diag.FromCheckError(wrapped)
	require.Equal(t, diag.Type, d.Kind)
	require.Equal(t, "type mismatch", d.Message)
}

func TestFromCheckErrorEffectError(t *testing.T) {
	err := &check.EffectError{Message: "emit outside sector", At: token.Span{File: "m.flv", Line: 1, Column: 1}}
	d := diag.FromCheckError(err)
	require.Equal(t, diag.Effect, d.Kind)
	require.Contains(t, d.Error(), "effect: emit outside sector")
}

func TestFromScannerErrorList(t *testing.T) {
	var list scanner.ErrorList
	list.Add(token.Position{Filename: "m.flv", Line: 3, Column: 7}, "unexpected token")

	ds := diag.FromScannerErrorList(diag.Parse, list)
	require.Len(t, ds, 1)
	require.Equal(t, diag.Parse, ds[0].Kind)
	require.Equal(t, "unexpected token", ds[0].Message)
	require.Equal(t, 3, ds[0].Span.Line)
}

func TestFormatUnderlinesSpan(t *testing.T) {
	source := "fn add(a: Int, b: Int) -> Int = a + b\n"
	d := diag.Diagnostic{
		Kind:    diag.Type,
		Message: "type mismatch",
		Span:    token.Span{File: "m.flv", StartByte: 32, EndByte: 33, Line: 1, Column: 33},
	}
	out := diag.Format(source, d)
	require.Contains(t, out, "m.flv:1:33: type: type mismatch")
	require.Contains(t, out, source[:len(source)-1])
	require.Contains(t, out, "\n"+strings.Repeat(" ", 32)+strings.Repeat("^", 1)+"\n")
}

func TestFormatClampsCaretWidthToLineEnd(t *testing.T) {
	source := "let x = 1\n"
	d := diag.Diagnostic{
		Kind:    diag.Parse,
		Message: "trailing garbage",
		Span:    token.Span{File: "m.flv", StartByte: 8, EndByte: 40, Line: 1, Column: 9},
	}
	out := diag.Format(source, d)
	require.Contains(t, out, "m.flv:1:9: parse: trailing garbage")
}
