// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oranpie/flavent/lang/token"
)

// Error is one reported error, tied to a resolved, FileSet-independent
// position. Modeled on go/scanner.Error, but carries this package's own
// token.Position (byte-offset-free) rather than the standard library's.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Filename != "" || e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList is a list of *Error, collected across a scan/parse/resolve run.
// Modeled on go/scanner.ErrorList's Add/Sort/Err contract.
type ErrorList []*Error

// Add appends an Error with the given position and message.
func (l *ErrorList) Add(pos token.Position, msg string) {
	*l = append(*l, &Error{Pos: pos, Msg: msg})
}

// Reset clears the list.
func (l *ErrorList) Reset() { *l = (*l)[0:0] }

func (l ErrorList) Len() int      { return len(l) }
func (l ErrorList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l ErrorList) Less(i, j int) bool {
	a, b := l[i].Pos, l[j].Pos
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	return l[i].Msg < l[j].Msg
}

// Sort sorts the list by source position.
func (l ErrorList) Sort() { sort.Sort(l) }

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Err returns an error equivalent to this error list, or nil if the list is
// empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// PrintError writes each error in err (an ErrorList, or any other error) to
// w, one per line.
func PrintError(w interface{ Write([]byte) (int, error) }, err error) {
	if list, ok := err.(ErrorList); ok {
		for _, e := range list {
			fmt.Fprintf(w, "%s\n", e)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(w, "%s\n", err)
	}
}

// TokenAndValue combines the token type with the token value type in the same
// struct.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles is a helper function that tokenizes the source files and returns
// the list of tokens, grouped by the file at the same index, and produces any
// error encountered. The error, if non-nil, is a sorted ErrorList.
func ScanFiles(ctx context.Context, files ...string) (*token.FileSet, [][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var (
		s      Scanner
		tokVal token.Value
		el     ErrorList
	)

	fs := token.NewFileSet()
	tokensByFile := make([][]TokenAndValue, len(files))
	for i, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			el.Add(token.Position{Filename: file}, err.Error())
			continue
		}

		fsf := fs.AddFile(file, -1, len(b))
		s.Init(fsf, b, el.Add)
		for {
			tok := s.Scan(&tokVal)
			tokensByFile[i] = append(tokensByFile[i], TokenAndValue{
				Token: tok,
				Value: tokVal,
			})
			if tok == token.EOF {
				break
			}
		}
	}
	el.Sort()
	return fs, tokensByFile, el.Err()
}

// Scanner tokenizes .flv source files for the parser to consume. Indentation
// is significant: the scanner maintains an indent stack and synthesizes
// INDENT/DEDENT tokens the way Python's tokenizer does, and folds
// continuation lines inside brackets so the parser never sees a spurious NL
// there. There is no backslash line-continuation.
type Scanner struct {
	// immutable state after Init
	file *token.File
	src  []byte
	err  func(pos token.Position, msg string)

	// mutable scanning state
	sb          strings.Builder
	invalidByte byte
	cur         rune
	off         int
	roff        int

	// indentation state
	indents     []int // stack of indent widths, indents[0] == 0
	atLineStart bool  // true when the next token should be checked against the indent stack
	parenDepth  int   // depth of (), [], {} nesting; NL is suppressed while > 0
	pendingDe   int   // DEDENT tokens still owed before resuming normal scanning
	sawContent  bool  // whether the current logical line has emitted a non-trivial token yet
	atEOF       bool  // true once EOF has been synthesized (closes out remaining DEDENTs first)
}

// Init initializes the scanner to tokenize a new file. It panics if the file
// size is not the same as the length of the src slice.
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}

	s.file = file
	s.src = src
	s.err = errHandler

	s.sb.Reset()
	s.invalidByte = 0
	s.cur = ' '
	s.off = 0
	s.roff = 0

	s.indents = []int{0}
	s.atLineStart = true
	s.parenDepth = 0
	s.pendingDe = 0
	s.sawContent = false
	s.atEOF = false

	s.advance()
}

// peek returns the byte following the most recently read character without
// advancing the scanner. If the scanner is at EOF, peek returns 0.
func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// advance reads the next Unicode char into s.cur; s.cur < 0 means
// end-of-file.
func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		if s.cur == '\n' {
			s.file.AddLine(s.off)
		}
		s.cur = -1
		return
	}

	s.off = s.roff
	if s.cur == '\n' {
		s.file.AddLine(s.off)
	}

	s.invalidByte = 0
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.off, "illegal UTF-8 encoding")
			s.invalidByte = s.src[s.roff]
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.file.Pos(off)), msg)
	}
}

func (s *Scanner) errorf(off int, format string, args ...any) {
	s.error(off, fmt.Sprintf(format, args...))
}

// advanceIf advances only if the current char matches any of the specified
// ones.
func (s *Scanner) advanceIf(matches ...byte) bool {
	if bytes.ContainsRune(matches, s.cur) {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token in the source file.
func (s *Scanner) Scan(tokVal *token.Value) (tok token.Token) {
	if s.pendingDe > 0 {
		s.pendingDe--
		pos := s.file.Pos(s.off)
		*tokVal = token.Value{Raw: "", Pos: pos}
		return token.DEDENT
	}

	if s.atLineStart && s.parenDepth == 0 {
		if done, indentTok := s.handleLineStart(tokVal); done {
			return indentTok
		}
	}

	s.skipSpacesAndComments()

	pos := s.file.Pos(s.off)
	start := s.off

	switch cur := s.cur; {
	case cur == -1:
		return s.scanEOF(tokVal, pos)

	case cur == '\n':
		s.advance()
		if s.parenDepth > 0 || !s.sawContent {
			return s.Scan(tokVal)
		}
		s.atLineStart = true
		s.sawContent = false
		*tokVal = token.Value{Raw: "\n", Pos: pos}
		return token.NL

	case cur == 'b' && s.peek() == '"':
		s.advance() // consume 'b'
		s.advance() // consume opening quote
		tok = token.BYTES
		lit, val := s.shortString('"', start)
		*tokVal = token.Value{Raw: lit, Pos: pos, String: val}

	case isLetter(cur):
		lit := s.ident()
		tok = token.IDENT
		if lit == "true" || lit == "false" {
			tok = token.BOOL
		} else if len(lit) > 1 {
			tok = token.LookupKw(lit)
		}
		*tokVal = token.Value{Raw: lit, Pos: pos}

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(s.peek()))):
		var base int
		var lit string
		tok, base, lit = s.number()
		*tokVal = token.Value{Raw: lit, Pos: pos}
		if tok == token.INT {
			v, err := numberToInt(lit, base)
			if err != nil && errors.Is(err, strconv.ErrRange) {
				s.error(start, "integer literal value out of range")
			}
			tokVal.Int = v
		} else if tok == token.FLOAT {
			v, err := numberToFloat(lit)
			if err != nil && errors.Is(err, strconv.ErrRange) {
				s.error(start, "float literal value out of range")
			}
			tokVal.Float = v
		}

	default:
		s.advance() // always make progress
		switch cur {
		case '"':
			tok = token.STRING
			lit, val := s.shortString('"', start)
			*tokVal = token.Value{Raw: lit, Pos: pos, String: val}

		case '(', '[', '{':
			s.parenDepth++
			tok = token.LookupPunct(string(cur))
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ')', ']', '}':
			if s.parenDepth > 0 {
				s.parenDepth--
			}
			tok = token.LookupPunct(string(cur))
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ',', '@':
			tok = token.LookupPunct(string(cur))
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '=':
			tok = token.EQ
			if s.advanceIf('=') {
				tok = token.EQEQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '+':
			tok = token.PLUS
			if s.advanceIf('=') {
				tok = token.PLUSEQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '-':
			tok = token.MINUS
			if s.advanceIf('=') {
				tok = token.MINUSEQ
			} else if s.advanceIf('>') {
				tok = token.ARROW
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '*':
			tok = token.STAR
			if s.advanceIf('*') {
				tok = token.STARSTAR
			} else if s.advanceIf('=') {
				tok = token.STAREQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '/':
			// "//" and "/*" are consumed by skipSpacesAndComments before
			// Scan reaches this switch, so a bare '/' here is always an
			// operator.
			tok = token.SLASH
			if s.advanceIf('=') {
				tok = token.SLASHEQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '!':
			if s.advanceIf('=') {
				tok = token.NEQ
				*tokVal = token.Value{Raw: tok.String(), Pos: pos}
			} else {
				s.errorf(start, "illegal character %#U", cur)
				tok = token.ILLEGAL
				*tokVal = token.Value{Raw: string(cur), Pos: pos}
			}

		case '<':
			tok = token.LT
			if s.advanceIf('=') {
				tok = token.LTE
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '>':
			tok = token.GT
			if s.advanceIf('=') {
				tok = token.GTE
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '|':
			tok = token.BAR
			if s.advanceIf('>') {
				tok = token.PIPEGT
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '.':
			tok = token.DOT
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ':':
			tok = token.COLON
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '?':
			tok = token.QMARK
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		default:
			if cur == utf8.RuneError && s.invalidByte > 0 {
				cur = rune(s.invalidByte)
				s.invalidByte = 0
			}
			s.errorf(start, "illegal character %#U", cur)
			tok = token.ILLEGAL
			*tokVal = token.Value{Raw: string(cur), Pos: pos}
		}
	}
	s.sawContent = true
	return tok
}

// scanEOF emits any DEDENTs owed to return the indent stack to zero, then a
// final NL if content was seen without a trailing newline, then EOF.
func (s *Scanner) scanEOF(tokVal *token.Value, pos token.Pos) token.Token {
	if len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		*tokVal = token.Value{Raw: "", Pos: pos}
		return token.DEDENT
	}
	if s.sawContent {
		s.sawContent = false
		*tokVal = token.Value{Raw: "\n", Pos: pos}
		return token.NL
	}
	*tokVal = token.Value{Raw: "", Pos: pos}
	return token.EOF
}

// handleLineStart measures the indentation of a new logical line and
// synthesizes INDENT/DEDENT tokens as needed. It returns done=true when it
// has produced a token (including recursing into blank-line skipping); the
// caller must return indentTok in that case.
func (s *Scanner) handleLineStart(tokVal *token.Value) (done bool, indentTok token.Token) {
	width := 0
	for {
		switch s.cur {
		case ' ':
			width++
			s.advance()
			continue
		case '\t':
			s.error(s.off, "tab is not allowed")
			s.advance()
			continue
		}
		break
	}

	// a comment run right after the leading whitespace never affects
	// indentation, but (for a block comment) may be followed by real
	// content on the same line, so skip comments before deciding whether
	// this is a blank line.
	for {
		switch {
		case s.cur == '/' && s.peek() == '/':
			s.skipLineComment()
		case s.cur == '/' && s.peek() == '*':
			s.skipBlockComment()
			continue
		}
		break
	}

	// blank line or comment-only line: skip without affecting indentation
	if s.cur == '\n' || s.cur == -1 {
		return false, token.ILLEGAL
	}

	s.atLineStart = false
	top := s.indents[len(s.indents)-1]
	pos := s.file.Pos(s.off)

	switch {
	case width > top:
		s.indents = append(s.indents, width)
		*tokVal = token.Value{Raw: "", Pos: pos}
		return true, token.INDENT
	case width < top:
		n := 0
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			n++
		}
		if s.indents[len(s.indents)-1] != width {
			s.error(s.off, "unindent does not match any outer indentation level")
		}
		s.pendingDe = n - 1
		*tokVal = token.Value{Raw: "", Pos: pos}
		return true, token.DEDENT
	default:
		return false, token.ILLEGAL
	}
}

func (s *Scanner) skipSpacesAndComments() {
	for {
		switch {
		case s.cur == ' ' || s.cur == '\r':
			s.advance()
			continue
		case s.cur == '\t':
			s.error(s.off, "tab is not allowed")
			s.advance()
			continue
		case s.cur == '/' && s.peek() == '/':
			s.skipLineComment()
			continue
		case s.cur == '/' && s.peek() == '*':
			s.skipBlockComment()
			continue
		}
		break
	}
}

// skipLineComment consumes a "//" line comment up to (not including) the
// terminating newline or EOF. The leading "//" has not yet been consumed.
func (s *Scanner) skipLineComment() {
	s.advance() // consume first '/'
	s.advance() // consume second '/'
	for s.cur != '\n' && s.cur != -1 {
		if s.cur == '\t' {
			s.error(s.off, "tab is not allowed")
		}
		s.advance()
	}
}

// skipBlockComment consumes a "/* ... */" block comment, which nests: an
// inner "/*" increases depth and only the matching number of "*/" closes
// the outermost comment. The leading "/*" has not yet been consumed.
func (s *Scanner) skipBlockComment() {
	startOff := s.off
	s.advance() // consume '/'
	s.advance() // consume '*'
	depth := 1
	for depth > 0 {
		switch {
		case s.cur == -1:
			s.error(startOff, "block comment not terminated")
			return
		case s.cur == '/' && s.peek() == '*':
			s.advance()
			s.advance()
			depth++
		case s.cur == '*' && s.peek() == '/':
			s.advance()
			s.advance()
			depth--
		case s.cur == '\t':
			s.error(s.off, "tab is not allowed")
			s.advance()
		default:
			s.advance()
		}
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9' ||
		rn >= utf8.RuneSelf && unicode.IsDigit(rn)
}
