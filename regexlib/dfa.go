package regexlib

import (
	"fmt"
	"sort"

	"parsekit/internal/disjoint"
	"parsekit/internal/interval"
)

// dfaNode is one deterministic state. Outgoing intervals are pairwise
// disjoint, so a single stabbing query resolves each input byte.
type dfaNode struct {
	final bool
	edges *interval.Tree[int]
}

// dfa is the deterministic automaton driven during matching. The cursor
// tracks the current state across step calls.
type dfa struct {
	nodes  []*dfaNode
	start  int
	cursor int
}

// newDFA determinizes an NFA. Nodes are first grouped into ε-classes with
// the disjoint-set forest (mutually ε-reachable nodes collapse to one
// representative), then the classes are expanded by worklist subset
// construction. Interval edges gathered from a state set are split at
// every interval boundary so that the outgoing edges of each deterministic
// state never overlap.
func newDFA(n *nfa) *dfa {
	closures := make([][]int, len(n.nodes))
	for i := range n.nodes {
		closures[i] = n.closure(i)
	}

	forest := disjoint.New[int]()
	for i := range n.nodes {
		forest.Create(i)
	}
	for i := range n.nodes {
		for _, j := range closures[i] {
			if j > i && containsInt(closures[j], i) {
				forest.Union(i, j)
			}
		}
	}
	rep := func(i int) int {
		r, _ := forest.Find(i)
		return r
	}

	// Per class: members, whether any member is final, and the
	// representative view of each node's ε-closure.
	members := make(map[int][]int)
	classFinal := make(map[int]bool)
	for i, nd := range n.nodes {
		r := rep(i)
		members[r] = append(members[r], i)
		if nd.final {
			classFinal[r] = true
		}
	}
	repClosure := make([][]int, len(n.nodes))
	for i := range n.nodes {
		set := make(map[int]bool, len(closures[i]))
		for _, j := range closures[i] {
			set[rep(j)] = true
		}
		repClosure[i] = sortedKeys(set)
	}

	d := &dfa{}
	states := make(map[string]int)
	var sets [][]int
	var queue []int
	intern := func(set []int) int {
		key := fmt.Sprint(set)
		if id, ok := states[key]; ok {
			return id
		}
		id := len(d.nodes)
		dn := &dfaNode{edges: interval.New[int]()}
		for _, r := range set {
			if classFinal[r] {
				dn.final = true
				break
			}
		}
		d.nodes = append(d.nodes, dn)
		states[key] = id
		sets = append(sets, set)
		queue = append(queue, id)
		return id
	}

	d.start = intern(repClosure[n.start])
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		type rawEdge struct {
			lo, hi byte
			to     int
		}
		var edges []rawEdge
		for _, r := range sets[id] {
			for _, i := range members[r] {
				for en := range n.nodes[i].edges.All() {
					edges = append(edges, rawEdge{en.Lo, en.Hi, en.Value})
				}
			}
		}
		if len(edges) == 0 {
			continue
		}

		// Elementary segments between interval boundaries.
		cutSet := make(map[int]bool)
		for _, e := range edges {
			cutSet[int(e.lo)] = true
			cutSet[int(e.hi)+1] = true
		}
		cuts := sortedKeys(cutSet)

		// Adjacent segments leading to the same state merge back into one
		// stored interval.
		runLo, runHi, runTo := -1, -1, -1
		runKey := ""
		flush := func() {
			if runLo >= 0 {
				d.nodes[id].edges.Insert(byte(runLo), byte(runHi), runTo)
				runLo = -1
			}
		}
		for k := 0; k+1 < len(cuts); k++ {
			lo, hi := cuts[k], cuts[k+1]-1
			targets := make(map[int]bool)
			for _, e := range edges {
				if int(e.lo) <= lo && lo <= int(e.hi) {
					for _, r := range repClosure[e.to] {
						targets[r] = true
					}
				}
			}
			if len(targets) == 0 {
				flush()
				continue
			}
			next := sortedKeys(targets)
			key := fmt.Sprint(next)
			if runLo >= 0 && key == runKey && runHi == lo-1 {
				runHi = hi
				continue
			}
			flush()
			runLo, runHi, runKey = lo, hi, key
			runTo = intern(next)
		}
		flush()
	}

	d.reset()
	return d
}

// reset places the cursor on the start state.
func (d *dfa) reset() { d.cursor = d.start }

// step advances the cursor along the edge containing c. A miss leaves the
// cursor in place and reports failure.
func (d *dfa) step(c byte) bool {
	to, ok := d.nodes[d.cursor].edges.Find(c, c)
	if !ok {
		return false
	}
	d.cursor = to
	return true
}

// isFinal reports whether the cursor rests on an accepting state.
func (d *dfa) isFinal() bool { return d.nodes[d.cursor].final }

func containsInt(sorted []int, x int) bool {
	k := sort.SearchInts(sorted, x)
	return k < len(sorted) && sorted[k] == x
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
