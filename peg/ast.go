package peg

import (
	"strings"
)

// AST is a node of the tree produced by parsing. Nodes are immutable once
// built and are created only by rule evaluation. A nil AST signals a
// failed parse; an *Empty node signals success that produced no content
// (fully optional constructs still return a node).
type AST interface {
	format(b *strings.Builder, level int)
}

// Empty is the structural placeholder for optional or zero-matched
// constructs.
type Empty struct{}

// Terminal holds a matched lexeme. No type label is attached; wrap the
// producing rule in a nonterminal when the tree needs one.
type Terminal struct {
	Token string
}

// Nonterminal tags a subtree with the name of the rule that produced it.
type Nonterminal struct {
	Type  string
	Child AST
}

// Branches is an unlabeled ordered sequence of subtrees.
type Branches struct {
	Children []AST
}

// Format renders the tree one node per line with depth-proportional
// indentation. Terminals print their token, nonterminals their type name
// above their child, branches their children in order; empty nodes print
// nothing.
func Format(a AST) string {
	var b strings.Builder
	if a != nil {
		a.format(&b, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, level int) {
	b.WriteString("|-")
	if level > 0 {
		b.WriteString(strings.Repeat("-", level*5-1))
	}
	b.WriteByte(' ')
}

func (*Empty) format(*strings.Builder, int) {}

func (t *Terminal) format(b *strings.Builder, level int) {
	indent(b, level)
	b.WriteString(t.Token)
	b.WriteByte('\n')
}

func (n *Nonterminal) format(b *strings.Builder, level int) {
	indent(b, level)
	b.WriteString(n.Type)
	b.WriteByte('\n')
	if n.Child != nil {
		n.Child.format(b, level+1)
	}
}

func (br *Branches) format(b *strings.Builder, level int) {
	for _, child := range br.Children {
		child.format(b, level+1)
	}
}
