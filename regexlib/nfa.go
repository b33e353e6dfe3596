package regexlib

import (
	"sort"

	"parsekit/internal/interval"
)

// nfaNode is one state of a Thompson automaton. Epsilon successors and
// interval edges reference other nodes by index into the owning arena, so
// the cycles produced by the Kleene constructions need no back-pointers.
type nfaNode struct {
	final bool
	eps   []int
	edges *interval.Tree[int]
}

// nfa owns all of its nodes. Construction mutates in place: combinators
// absorb the argument automaton's arena and rewire start and final states.
type nfa struct {
	nodes  []*nfaNode
	start  int
	finals []int
}

func (n *nfa) addNode() int {
	n.nodes = append(n.nodes, &nfaNode{edges: interval.New[int]()})
	return len(n.nodes) - 1
}

// emptyNFA matches ε: a single node that is both start and final.
func emptyNFA() *nfa {
	n := &nfa{}
	s := n.addNode()
	n.nodes[s].final = true
	n.start = s
	n.finals = []int{s}
	return n
}

// rangeNFA matches exactly one byte from [lo, hi].
func rangeNFA(lo, hi byte) *nfa {
	n := &nfa{}
	s := n.addNode()
	f := n.addNode()
	n.nodes[s].edges.Insert(lo, hi, f)
	n.nodes[f].final = true
	n.start = s
	n.finals = []int{f}
	return n
}

// absorb copies m's nodes into n's arena and returns the index offset to
// apply to m's node references.
func (n *nfa) absorb(m *nfa) int {
	offset := len(n.nodes)
	for _, nd := range m.nodes {
		shifted := &nfaNode{final: nd.final, edges: interval.New[int]()}
		for _, e := range nd.eps {
			shifted.eps = append(shifted.eps, e+offset)
		}
		for en := range nd.edges.All() {
			shifted.edges.Insert(en.Lo, en.Hi, en.Value+offset)
		}
		n.nodes = append(n.nodes, shifted)
	}
	return offset
}

// concat joins tail onto n: every final gains an ε edge to tail's start and
// loses its final flag; tail's finals become n's finals.
func (n *nfa) concat(tail *nfa) {
	offset := n.absorb(tail)
	for _, f := range n.finals {
		n.nodes[f].eps = append(n.nodes[f].eps, tail.start+offset)
		n.nodes[f].final = false
	}
	n.finals = n.finals[:0]
	for _, f := range tail.finals {
		n.finals = append(n.finals, f+offset)
	}
}

// alt unions n with other under a new start node. The ε edge to n's start
// precedes the edge to other's, preserving alternative order.
func (n *nfa) alt(other *nfa) {
	offset := n.absorb(other)
	head := n.addNode()
	n.nodes[head].eps = append(n.nodes[head].eps, n.start, other.start+offset)
	n.start = head
	for _, f := range other.finals {
		n.finals = append(n.finals, f+offset)
	}
}

// star allows zero or more repetitions: a new start reaches the old start
// and, for the skip case, a new final; old finals loop back to the old
// start and forward to the new final.
func (n *nfa) star() {
	n.plus()
	head := n.start
	tail := n.finals[0]
	n.nodes[head].eps = append(n.nodes[head].eps, tail)
}

// plus is star without the skip edge: one repetition is mandatory.
func (n *nfa) plus() {
	head := n.addNode()
	tail := n.addNode()
	n.nodes[head].eps = append(n.nodes[head].eps, n.start)
	for _, f := range n.finals {
		n.nodes[f].eps = append(n.nodes[f].eps, n.start, tail)
		n.nodes[f].final = false
	}
	n.nodes[tail].final = true
	n.start = head
	n.finals = []int{tail}
}

// optional allows bypassing the automaton entirely.
func (n *nfa) optional() {
	head := n.addNode()
	tail := n.addNode()
	n.nodes[head].eps = append(n.nodes[head].eps, n.start, tail)
	for _, f := range n.finals {
		n.nodes[f].eps = append(n.nodes[f].eps, tail)
		n.nodes[f].final = false
	}
	n.nodes[tail].final = true
	n.start = head
	n.finals = []int{tail}
}

// closure returns the ε-closure of node i, itself included, in ascending
// index order.
func (n *nfa) closure(i int) []int {
	visited := make([]bool, len(n.nodes))
	stack := []int{i}
	visited[i] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range n.nodes[cur].eps {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	var out []int
	for j, ok := range visited {
		if ok {
			out = append(out, j)
		}
	}
	sort.Ints(out)
	return out
}

// buildNFA translates a parsed pattern into its Thompson automaton.
func buildNFA(node *astNode) *nfa {
	switch node.typ {
	case nEmpty:
		return emptyNFA()
	case nRange:
		return rangeNFA(node.lo, node.hi)
	case nConcat:
		n := buildNFA(node.left)
		n.concat(buildNFA(node.right))
		return n
	case nUnion:
		n := buildNFA(node.left)
		n.alt(buildNFA(node.right))
		return n
	case nStar:
		n := buildNFA(node.left)
		n.star()
		return n
	case nPlus:
		n := buildNFA(node.left)
		n.plus()
		return n
	case nQMark:
		n := buildNFA(node.left)
		n.optional()
		return n
	default:
		panic("regexlib: unknown ast node")
	}
}
