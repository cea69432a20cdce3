// Package parser implements the recursive-descent parser that transforms
// tokenized .flv source into an abstract syntax tree.
package parser

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
)

// Mode is a set of bit flags that configures the parsing. By default (0),
// the AST is parsed fully and all errors are reported.
type Mode uint

// List of supported parsing modes, which can be combined with bitwise or.
const (
	Comments Mode = 1 << iota // parse and report comments, associate them with their AST node.
)

// ParseFiles parses the source files and returns the fileset along with the
// ASTs and any error encountered. The error, if non-nil, is guaranteed to be
// a scanner.ErrorList.
func ParseFiles(ctx context.Context, mode Mode, files ...string) (*token.FileSet, []*ast.Program, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var p parser
	p.parseComments = mode&Comments != 0

	res := make([]*ast.Program, 0, len(files))
	fs := token.NewFileSet()

	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			p.errors.Add(token.Position{Filename: file}, err.Error())
			continue
		}

		p.init(fs, file, b)
		prog := p.parseProgram()
		prog.Name = file
		res = append(res, prog)
	}
	p.errors.Sort()
	return fs, res, p.errors.Err()
}

// ParseModule parses a single module from a slice of bytes and returns the
// AST and any error encountered. The module is added to fset for position
// reporting under filename. The error, if non-nil, is guaranteed to be a
// scanner.ErrorList.
func ParseModule(ctx context.Context, mode Mode, fset *token.FileSet, filename string, src []byte) (*ast.Program, error) {
	var p parser
	p.parseComments = mode&Comments != 0
	p.init(fset, filename, src)
	prog := p.parseProgram()
	prog.Name = filename
	return prog, p.errors.Err()
}

// parser parses a token stream and builds an AST.
type parser struct {
	parseComments bool
	scanner       scanner.Scanner
	errors        scanner.ErrorList
	file          *token.File

	tok token.Token
	val token.Value

	pendingComments []*ast.Comment
	blocksStack     []*ast.Block
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.file = fset.AddFile(filename, -1, len(src))
	p.scanner.Init(p.file, src, p.errors.Add)
	p.pendingComments = nil
	p.blocksStack = p.blocksStack[:0]
	p.advance()
}

func (p *parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
}

func (p *parser) enterBlock(block *ast.Block) {
	block.Start = p.val.Pos
	if p.parseComments {
		for i := len(p.pendingComments) - 1; i >= 0; i-- {
			c := p.pendingComments[i]
			if c.Start < block.Start {
				break
			}
			c.Node = block
		}
		p.blocksStack = append(p.blocksStack, block)
	}
}

func (p *parser) exitBlock(block *ast.Block) {
	if p.parseComments && len(p.blocksStack) > 0 {
		p.blocksStack = p.blocksStack[:len(p.blocksStack)-1]
	}
}

var errPanicMode = errors.New("panic")

// expect returns the position of the current token and consumes it if it is
// one of the expected tokens, otherwise it reports an error and panics with
// errPanicMode, recovered at the statement level to produce a BadStmt/BadExpr.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.val.Pos

	var buf strings.Builder
	var ok bool
	for i, tok := range toks {
		if p.tok == tok {
			ok = true
			break
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(tok.GoString())
	}

	if !ok {
		var lbl string
		if len(toks) > 1 {
			lbl = "one of " + buf.String()
		} else {
			lbl = buf.String()
		}
		p.errorExpected(pos, lbl)
		panic(errPanicMode)
	}

	p.advance()
	return pos
}

// accept consumes and returns true if the current token is tok, otherwise it
// leaves the parser position untouched and returns false.
func (p *parser) accept(tok token.Token) (token.Pos, bool) {
	if p.tok != tok {
		return token.NoPos, false
	}
	pos := p.val.Pos
	p.advance()
	return pos, true
}

func (p *parser) error(pos token.Pos, msg string) {
	lpos := p.file.Position(pos)
	p.errors.Add(lpos, msg)
}

func (p *parser) errorExpected(pos token.Pos, msg string) {
	msg = "expected " + msg
	if pos == p.val.Pos {
		switch lit := p.tok.Literal(p.val); lit {
		case "":
			msg += ", found " + p.tok.GoString()
		default:
			msg += ", found " + lit
		}
	}
	p.error(pos, msg)
}

// skipNL consumes any number of consecutive NL tokens, used between
// declarations and statements where blank lines are insignificant.
func (p *parser) skipNL() {
	for p.tok == token.NL {
		p.advance()
	}
}

func tokenIn(tok token.Token, set ...token.Token) bool {
	for _, t := range set {
		if tok == t {
			return true
		}
	}
	return false
}
