// Package diag renders pipeline errors as source-located diagnostics with a
// caret pointing at the offending span, for CLI surfaces that print
// human-facing output rather than returning bare errors to another package.
// Grounded on original_source/flavent/diagnostics.py's Diagnostic dataclass
// and format_diagnostic, adapted onto token.Span (this port's
// FileSet-independent location type) in place of the original's own Span.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oranpie/flavent/lang/check"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
)

// Kind classifies which pipeline stage raised a Diagnostic. Stage order
// mirrors the compilation pipeline itself (lex before parse before resolve
// before lower before check), matching
// original_source/flavent/diagnostics.py's LexError/ParseError/
// ResolveError/LowerError/TypeError/EffectError hierarchy, collapsed here
// into one Diagnostic type with a Kind tag rather than six Go error types,
// since every one of them carries the exact same (message, span) shape.
type Kind uint8

const (
	Lex Kind = iota
	Parse
	Resolve
	Lower
	Type
	Effect
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Resolve:
		return "resolve"
	case Lower:
		return "lower"
	case Type:
		return "type"
	case Effect:
		return "effect"
	default:
		return "diag"
	}
}

// Diagnostic is one reported problem, tied to the span it occurred at.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    token.Span
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Span.File, d.Span.Line, d.Span.Column, d.Kind, d.Message)
}

// FromCheckError converts err into a Diagnostic. It unwraps (via errors.As)
// to find a *check.TypeError or *check.EffectError, a scanner.ErrorList
// (the shape parser/resolver errors take), or a bare *scanner.Error,
// keeping the span those carry — err need not be one of those concrete
// types itself, only wrap one, so a caller can pass the %w-wrapped error
// lang/analyze.Analyze returns straight through without unwrapping it
// first.
func FromCheckError(err error) Diagnostic {
	var typeErr *check.TypeError
	if errors.As(err, &typeErr) {
		return Diagnostic{Kind: Type, Message: typeErr.Message, Span: typeErr.At}
	}
	var effectErr *check.EffectError
	if errors.As(err, &effectErr) {
		return Diagnostic{Kind: Effect, Message: effectErr.Message, Span: effectErr.At}
	}
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return FromScannerError(Resolve, list[0])
	}
	var scanErr *scanner.Error
	if errors.As(err, &scanErr) {
		return FromScannerError(Resolve, scanErr)
	}
	return Diagnostic{Kind: Resolve, Message: err.Error()}
}

// FromScannerError converts one *scanner.Error, produced by the scanner,
// parser, or resolver stage (all three share scanner.ErrorList), into a
// Diagnostic of the given kind.
func FromScannerError(kind Kind, e *scanner.Error) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Message: e.Msg,
		Span: token.Span{
			File:   e.Pos.Filename,
			Line:   e.Pos.Line,
			Column: e.Pos.Column,
		},
	}
}

// FromScannerErrorList expands a scanner.ErrorList (the shape lex/parse/
// resolve errors are collected into) into one Diagnostic per entry.
func FromScannerErrorList(kind Kind, list scanner.ErrorList) []Diagnostic {
	out := make([]Diagnostic, 0, len(list))
	for _, e := range list {
		out = append(out, FromScannerError(kind, e))
	}
	return out
}

// Format renders d against source (the full text of d.Span.File) as a
// three-line block: "file:line:col: kind: message", the offending source
// line, and a caret line underlining the span's byte width on that line.
// Ported from format_diagnostic; the width/clamp arithmetic is unchanged.
func Format(source string, d Diagnostic) string {
	lines := strings.Split(source, "\n")
	lineIdx := d.Span.Line - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	if lineIdx > len(lines)-1 {
		lineIdx = len(lines) - 1
	}
	var lineText string
	if lineIdx >= 0 && lineIdx < len(lines) {
		lineText = lines[lineIdx]
	}

	caretCol := d.Span.Column
	if caretCol < 1 {
		caretCol = 1
	}
	width := d.Span.EndByte - d.Span.StartByte
	if width < 1 {
		width = 1
	}
	maxWidth := len(lineText) - (caretCol - 1)
	if maxWidth < 1 {
		maxWidth = 1
	}
	if width > maxWidth {
		width = maxWidth
	}
	caretLine := strings.Repeat(" ", caretCol-1) + strings.Repeat("^", width)

	return fmt.Sprintf("%s\n%s\n%s\n", d.Error(), lineText, caretLine)
}

// FormatAll renders each diagnostic in ds against source, in order,
// concatenated with no separator (each Format call already ends in "\n").
func FormatAll(source string, ds []Diagnostic) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(Format(source, d))
	}
	return b.String()
}
