// Package peg interprets parsing expression grammars.
//
// A Parser is built from a line-oriented grammar file: each line defines a
// nonterminal as an ordered choice of sequences whose atoms are quoted
// terminal regexes, nonterminal references, or parenthesized
// sub-expressions, with the quantifiers * + ? at rule level. A trailing
// apostrophe marks the start symbol. Parsing interprets those definitions
// directly against a scanned input stream with prioritized backtracking:
// alternatives are explored in grammar order, a match is reconsidered only
// after everything after it has failed, and failed sequences rewind the
// scanner through its checkpoint stack. There is no longest-match rule;
// the first exploration that completes wins.
package peg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"parsekit/regexlib"
	"parsekit/scanner"
)

const (
	commentChar    = '#'
	startMark      = '\''
	chooseChar     = '|'
	subStartChar   = '('
	subEndChar     = ')'
	terminalDelim  = '"'
	kleeneStarChar = '*'
	kleenePlusChar = '+'
	optionalChar   = '?'
)

// Expressions for reading the grammar format itself.
const (
	exprMarkedWord = `\A+'?`
	exprArrow      = `\->`
)

// Parser holds an ingested grammar: the start symbol and the rule table.
type Parser struct {
	start string
	rules table
}

// NewParser ingests the grammar file at path. Files beginning with the
// gzip magic bytes are decompressed transparently.
func NewParser(path string) (*Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress grammar %s: %w", path, err)
		}
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("decompress grammar %s: %w", path, err)
		}
	}
	return NewParserFrom(bytes.NewReader(data))
}

// NewParserFrom ingests a grammar from an in-memory stream.
func NewParserFrom(grammar io.ReadSeeker) (*Parser, error) {
	in := scanner.New(grammar)
	markedWord := regexlib.MustFromPool("pparser-marked-word", exprMarkedWord)
	arrow := regexlib.MustFromPool("pparser-arrow", exprArrow)

	p := &Parser{rules: make(table)}
	for {
		c, ok := in.Peek(0)
		if !ok {
			break
		}
		if c == commentChar {
			in.ReadLine()
			continue
		}

		lineNo := in.State().Line

		name, err := in.Next(markedWord)
		if err != nil {
			return nil, grammarErr(in.State(), "expected a rule name")
		}
		if strings.HasSuffix(name, string(startMark)) {
			name = strings.TrimSuffix(name, string(startMark))
			if p.start != "" {
				return nil, grammarErr(in.State(), "multiple start symbols declared")
			}
			p.start = name
		}

		if _, err := in.Next(arrow); err != nil {
			return nil, grammarErr(in.State(), "expected '->' after rule name")
		}

		line, err := in.ReadLine()
		if err != nil {
			return nil, grammarErr(in.State(), "missing definition after '->'")
		}
		def, err := parseDefinition(line)
		if err != nil {
			if ge, ok := err.(*InvalidGrammarError); ok && ge.Line == 0 {
				ge.Line = lineNo
			}
			return nil, err
		}
		p.rules[name] = def
	}

	if p.start == "" {
		return nil, &InvalidGrammarError{Msg: "no start symbol declared"}
	}
	return p, nil
}

func grammarErr(state scanner.State, msg string) error {
	return &InvalidGrammarError{Line: state.Line, Col: state.Column, Msg: msg}
}

// Start returns the name of the start symbol.
func (p *Parser) Start() string { return p.start }

// Parse evaluates the start rule against input. The result is reported
// only when the match consumed the entire stream; the end-of-input test
// participates in backtracking, so a start rule that can match the whole
// input some other way still succeeds. Anything short of a complete match
// yields ok == false.
func (p *Parser) Parse(input io.ReadSeeker) (AST, bool) {
	root, ok := p.rules[p.start]
	if !ok {
		return nil, false
	}
	in := scanner.New(input)
	result := eval(root, in, p.rules, func(a AST) AST {
		if _, more := in.Peek(0); more {
			return nil
		}
		return a
	})
	if result == nil {
		return nil, false
	}
	return &Nonterminal{Type: p.start, Child: result}, true
}

// ParseString is Parse over a string literal.
func (p *Parser) ParseString(input string) (AST, bool) {
	return p.Parse(strings.NewReader(input))
}

// parseDefinition parses one right-hand side with a dedicated mini-scanner
// over the single line.
func parseDefinition(line string) (*choice, error) {
	sc := scanner.New(strings.NewReader(line))
	def, err := parseChoice(sc, 0)
	if err != nil {
		return nil, err
	}
	if err := validateChoice(def); err != nil {
		return nil, err
	}
	return def, nil
}

// parseChoice builds an ordered choice from the mini-scanner. Single
// characters steer the construction; everything alphabetic is read as a
// nonterminal reference. The closing ')' of a sub-expression returns
// control to the caller.
func parseChoice(sc *scanner.Scanner, depth int) (*choice, error) {
	letter := regexlib.MustFromPool(regexlib.PoolLetter, regexlib.ExprLetter)
	def := &choice{alts: []*sequence{{}}}

	for {
		c, ok := sc.Peek(0)
		if !ok {
			if depth > 0 {
				return nil, &InvalidGrammarError{Msg: "unclosed '(' in definition"}
			}
			return def, nil
		}
		// Operator characters are consumed here; letters are left for the
		// word read below so single-letter nonterminals stay intact.
		if !letter.Matches(string(c), 0) {
			sc.Read()
		}

		last := def.alts[len(def.alts)-1]
		switch c {
		case terminalDelim:
			raw := strings.TrimSuffix(sc.ReadUntil(terminalDelim), string(terminalDelim))
			expr, err := regexlib.Compile(raw)
			if err != nil {
				return nil, err
			}
			last.items = append(last.items, &terminal{expr: expr})

		case chooseChar:
			def.alts = append(def.alts, &sequence{})

		case subStartChar:
			sub, err := parseChoice(sc, depth+1)
			if err != nil {
				return nil, err
			}
			last.items = append(last.items, sub)

		case subEndChar:
			if depth == 0 {
				return nil, &InvalidGrammarError{Msg: "unbalanced ')' in definition"}
			}
			return def, nil

		case kleeneStarChar:
			if err := quantifyLast(last, repeatZeroOrMore); err != nil {
				return nil, err
			}
		case kleenePlusChar:
			if err := quantifyLast(last, repeatOneOrMore); err != nil {
				return nil, err
			}
		case optionalChar:
			if err := quantifyLast(last, repeatOptional); err != nil {
				return nil, err
			}

		default:
			word, err := sc.NextWord()
			if err != nil {
				return nil, &InvalidGrammarError{Msg: fmt.Sprintf("unexpected character %q in definition", c)}
			}
			last.items = append(last.items, &nonterminal{name: word})
		}
	}
}

func quantifyLast(seq *sequence, q quantifier) error {
	if len(seq.items) == 0 {
		return &InvalidGrammarError{Msg: "quantifier with nothing to repeat"}
	}
	seq.items[len(seq.items)-1].setQuantifier(q)
	return nil
}

// validateChoice rejects alternatives that ended up empty; a sequence may
// be empty only while under construction.
func validateChoice(def *choice) error {
	for _, alt := range def.alts {
		if len(alt.items) == 0 {
			return &InvalidGrammarError{Msg: "empty alternative in definition"}
		}
		for _, item := range alt.items {
			if sub, ok := item.(*choice); ok {
				if err := validateChoice(sub); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
