package parser

import (
	"github.com/oranpie/flavent/lang/ast"
	"github.com/oranpie/flavent/lang/token"
)

// processComments associates each pending comment with the nearest enclosing
// statement node, preferring the last node adjacent to it on the same or a
// neighboring line.
func (p *parser) processComments(prog *ast.Program) {
	var av adjacentVisitor

	for _, c := range p.pendingComments {
		if c.Node == nil {
			c.Node = prog
		}

		av.init(c, p.file)
		ast.Walk(&av, c.Node)
		if av.lastAdjacent != nil {
			c.Node = av.lastAdjacent
		}
	}
	prog.Comments = p.pendingComments
}

type adjacentVisitor struct {
	comment      *ast.Comment
	lastAdjacent ast.Node
	file         *token.File
}

func (v *adjacentVisitor) init(c *ast.Comment, file *token.File) {
	v.comment = c
	v.file = file
	v.lastAdjacent = nil
}

func (v *adjacentVisitor) Visit(n ast.Node, dir ast.VisitDirection) ast.Visitor {
	if dir == ast.VisitExit {
		return nil
	}

	if _, ok := n.(ast.Stmt); !ok {
		return v
	}

	if token.PosAdjacent(n, v.comment, v.file) {
		v.lastAdjacent = n
		return v
	}
	return nil
}
