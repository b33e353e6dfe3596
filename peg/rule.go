package peg

import (
	"parsekit/regexlib"
	"parsekit/scanner"
)

// quantifier is the repetition count attached to every rule.
type quantifier int

const (
	repeatNone       quantifier = iota // exactly once
	repeatZeroOrMore                   // Kleene star
	repeatOneOrMore                    // Kleene plus
	repeatOptional                     // zero or one
)

// table maps nonterminal names to their definitions. References are
// resolved at parse time; a missing name is a local parse failure, not a
// construction error.
type table map[string]*choice

// cont parses everything that follows the current rule. It receives the
// rule's own tree and returns the completed parse, or nil to reject this
// match and send the rule hunting for its next alternative.
//
// Threading the remainder of the parse through a continuation is what
// gives the evaluator prioritized backtracking: alternatives are explored
// strictly in grammar order, and a committed match is reconsidered only
// after everything downstream of it has failed. The first exploration that
// carries through to a completed parse wins, so an earlier alternative
// still shadows a later one that would have consumed more input.
type cont func(AST) AST

// rule is one element of a grammar definition. process attempts a single
// match and runs the continuation over the rest of the input; it returns
// nil once every way of matching here has been exhausted, leaving the
// scanner where it started.
type rule interface {
	process(s *scanner.Scanner, t table, k cont) AST
	quantifier() quantifier
	setQuantifier(q quantifier)
}

// repeatable supplies quantifier storage to every rule variant.
type repeatable struct {
	repeat quantifier
}

func (r *repeatable) quantifier() quantifier     { return r.repeat }
func (r *repeatable) setQuantifier(q quantifier) { r.repeat = q }

// eval runs a rule under its quantifier.
//
// Repetition is greedy: longer runs are explored before shorter ones, and
// a run is shortened only when the continuation fails on it. Zero matches
// still succeed for the star with an Empty node, while the plus rejects
// them; a single match collapses to the child itself. The optional rule
// prefers matching and falls back to Empty.
func eval(r rule, s *scanner.Scanner, t table, k cont) AST {
	switch r.quantifier() {
	case repeatOptional:
		if result := r.process(s, t, k); result != nil {
			return result
		}
		return k(&Empty{})

	case repeatZeroOrMore, repeatOneOrMore:
		var loop func(children []AST) AST
		loop = func(children []AST) AST {
			grown := r.process(s, t, func(a AST) AST {
				return loop(append(children[:len(children):len(children)], a))
			})
			if grown != nil {
				return grown
			}
			if r.quantifier() == repeatOneOrMore && len(children) == 0 {
				return nil
			}
			return k(collapse(children))
		}
		return loop(nil)

	default:
		return r.process(s, t, k)
	}
}

// collapse folds repetition results: no matches become Empty, one match is
// the child itself, several become Branches.
func collapse(children []AST) AST {
	switch len(children) {
	case 0:
		return &Empty{}
	case 1:
		return children[0]
	default:
		return &Branches{Children: children}
	}
}

// terminal matches a regular expression against the scanner.
type terminal struct {
	repeatable
	expr *regexlib.Regex
}

func (tr *terminal) process(s *scanner.Scanner, _ table, k cont) AST {
	handle := s.SaveCheckpoint()
	token, err := s.Next(tr.expr)
	if err != nil {
		// A failed scan leaves the position untouched; the miss simply
		// propagates so an alternative can be tried.
		s.RestoreCheckpoint(handle)
		return nil
	}
	if result := k(&Terminal{Token: token}); result != nil {
		return result
	}
	s.RestoreCheckpoint(handle)
	return nil
}

// nonterminal references another definition by name.
type nonterminal struct {
	repeatable
	name string
}

func (n *nonterminal) process(s *scanner.Scanner, t table, k cont) AST {
	def, ok := t[n.name]
	if !ok {
		return nil
	}
	return eval(def, s, t, func(a AST) AST {
		return k(&Nonterminal{Type: n.name, Child: a})
	})
}

// sequence succeeds only if every item succeeds in order. It checkpoints
// the scanner before its first item and restores once no arrangement of
// its items can satisfy the continuation.
type sequence struct {
	repeatable
	items []rule
}

func (seq *sequence) process(s *scanner.Scanner, t table, k cont) AST {
	handle := s.SaveCheckpoint()
	var rec func(i int, children []AST) AST
	rec = func(i int, children []AST) AST {
		if i == len(seq.items) {
			if len(children) == 1 {
				return k(children[0])
			}
			return k(&Branches{Children: children})
		}
		return eval(seq.items[i], s, t, func(a AST) AST {
			return rec(i+1, append(children[:len(children):len(children)], a))
		})
	}
	if result := rec(0, nil); result != nil {
		return result
	}
	s.RestoreCheckpoint(handle)
	return nil
}

// choice tries its alternatives in order and yields the first one whose
// match carries the rest of the parse to completion. Alternatives restore
// the scanner on their own failure, so the choice saves nothing.
type choice struct {
	repeatable
	alts []*sequence
}

func (c *choice) process(s *scanner.Scanner, t table, k cont) AST {
	for _, alt := range c.alts {
		if result := eval(alt, s, t, k); result != nil {
			return result
		}
	}
	return nil
}
