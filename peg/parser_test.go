package peg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"parsekit/regexlib"
)

func ingest(t *testing.T, grammar string) *Parser {
	t.Helper()
	p, err := NewParserFrom(strings.NewReader(grammar))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return p
}

// tokens flattens the terminal lexemes of a tree in order.
func tokens(a AST) []string {
	switch n := a.(type) {
	case *Terminal:
		return []string{n.Token}
	case *Nonterminal:
		return tokens(n.Child)
	case *Branches:
		var out []string
		for _, c := range n.Children {
			out = append(out, tokens(c)...)
		}
		return out
	default:
		return nil
	}
}

// ------------------------------------------------------------------- ingest

func TestSingleRule(t *testing.T) {
	p := ingest(t, `Start' -> "a"`)

	ast, ok := p.ParseString("a")
	if !ok {
		t.Fatalf("parse %q failed", "a")
	}
	root, ok := ast.(*Nonterminal)
	if !ok || root.Type != "Start" {
		t.Fatalf("root = %#v, want Nonterminal Start", ast)
	}
	leaf, ok := root.Child.(*Terminal)
	if !ok || leaf.Token != "a" {
		t.Fatalf("child = %#v, want Terminal a", root.Child)
	}

	if _, ok := p.ParseString("aa"); ok {
		t.Fatalf("parse %q must fail: trailing input", "aa")
	}
	if _, ok := p.ParseString(""); ok {
		t.Fatalf("parse of empty input must fail")
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	p := ingest(t, `
# a grammar of one rule
# with comment lines around it

Start' -> "x+"

# trailing commentary
`)
	if p.Start() != "Start" {
		t.Fatalf("start symbol = %q", p.Start())
	}
	if _, ok := p.ParseString("xxx"); !ok {
		t.Fatalf("parse failed")
	}
}

func TestGrammarErrors(t *testing.T) {
	cases := []struct {
		name    string
		grammar string
	}{
		{"no start", `A -> "a"`},
		{"multiple starts", "A' -> \"a\"\nB' -> \"b\""},
		{"missing arrow", `A' "a"`},
		{"empty definition", `A' -> `},
		{"trailing choice", `A' -> "a" |`},
		{"stray quantifier", `A' -> * "a"`},
		{"unbalanced paren", `A' -> "a" )`},
		{"unclosed paren", `A' -> ("a"`},
	}
	for _, tc := range cases {
		_, err := NewParserFrom(strings.NewReader(tc.grammar))
		if err == nil {
			t.Fatalf("%s: grammar accepted but must fail", tc.name)
		}
		var ge *InvalidGrammarError
		if !errors.As(err, &ge) {
			t.Fatalf("%s: error %v is not an InvalidGrammarError", tc.name, err)
		}
	}
}

// A bad terminal regex surfaces as a regex error, not a grammar error.
func TestGrammarBadTerminal(t *testing.T) {
	_, err := NewParserFrom(strings.NewReader(`A' -> "a[]"`))
	var ire *regexlib.InvalidRegexError
	if !errors.As(err, &ire) {
		t.Fatalf("error %v is not an InvalidRegexError", err)
	}
}

// An unknown nonterminal is a parse-time miss, not an ingest error.
func TestUnknownNonterminal(t *testing.T) {
	p := ingest(t, `A' -> Missing | "a"`)
	ast, ok := p.ParseString("a")
	if !ok {
		t.Fatalf("fallback alternative should match")
	}
	if got := tokens(ast); len(got) != 1 || got[0] != "a" {
		t.Fatalf("tokens = %v", got)
	}
	if _, ok := p.ParseString("b"); ok {
		t.Fatalf("no alternative matches %q", "b")
	}
}

// ------------------------------------------------------------------- evaluation

func TestPriority(t *testing.T) {
	// Both alternatives complete on "a"; the first one is committed.
	p := ingest(t, `
S' -> "a" B | "a" C
B -> ""
C -> ""
`)
	ast, ok := p.ParseString("a")
	if !ok {
		t.Fatalf("parse failed")
	}
	out := Format(ast)
	if !strings.Contains(out, "B") {
		t.Fatalf("first alternative was not committed:\n%s", out)
	}
	if strings.Contains(out, "C") {
		t.Fatalf("later alternative leaked into the tree:\n%s", out)
	}
}

func TestPriorityOverLongerMatch(t *testing.T) {
	// The first alternative splits "ab" even though the second consumes it
	// in one piece.
	p := ingest(t, `S' -> "a" "b" | "ab"`)
	ast, ok := p.ParseString("ab")
	if !ok {
		t.Fatalf("parse failed")
	}
	if got := tokens(ast); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("tokens = %v, want [a b]", got)
	}
}

func TestBacktrackIntoCommittedChoice(t *testing.T) {
	// The first alternative of A matches "ab" but strands the final "c";
	// the parse must revisit A and settle on plain "a".
	p := ingest(t, `
S' -> A "bc"
A -> "ab" | "a"
`)
	ast, ok := p.ParseString("abc")
	if !ok {
		t.Fatalf("parse failed")
	}
	if got := tokens(ast); len(got) != 2 || got[0] != "a" || got[1] != "bc" {
		t.Fatalf("tokens = %v, want [a bc]", got)
	}
}

func TestQuantifiers(t *testing.T) {
	p := ingest(t, `S' -> "a"+ "b"? "c"*`)
	for _, input := range []string{"a", "ab", "ac", "abccc", "aaab"} {
		if _, ok := p.ParseString(input); !ok {
			t.Fatalf("parse %q failed", input)
		}
	}
	for _, input := range []string{"", "b", "bc", "cb a"} {
		if _, ok := p.ParseString(input); ok {
			t.Fatalf("parse %q must fail", input)
		}
	}

	// Zero matches of optional and starred rules yield no tokens.
	ast, ok := p.ParseString("a")
	if !ok {
		t.Fatalf("parse failed")
	}
	if got := tokens(ast); len(got) != 1 || got[0] != "a" {
		t.Fatalf("tokens = %v, want [a]", got)
	}
}

func TestPalindromes(t *testing.T) {
	p := ingest(t, `Pal' -> "a" Pal "a" | "b" Pal "b" | "a" | "b" | ""`)
	for _, input := range []string{"", "a", "b", "aa", "bb", "aba", "abba", "babab", "abaaba"} {
		if _, ok := p.ParseString(input); !ok {
			t.Fatalf("palindrome %q rejected", input)
		}
	}
	for _, input := range []string{"ab", "abc", "aab", "abab"} {
		if _, ok := p.ParseString(input); ok {
			t.Fatalf("non-palindrome %q accepted", input)
		}
	}

	wide := ingest(t, `Pal' -> "a" Pal "a" | "b" Pal "b" | "c" Pal "c" | "a" | "b" | "c" | ""`)
	if _, ok := wide.ParseString("abcba"); !ok {
		t.Fatalf("palindrome %q rejected", "abcba")
	}
	if _, ok := wide.ParseString("abc"); ok {
		t.Fatalf("non-palindrome %q accepted", "abc")
	}
}

func TestArithmetic(t *testing.T) {
	p := ingest(t, `
Expr' -> Term (("\+"|"-") Term)*
Term -> Factor (("\*"|"/") Factor)*
Factor -> "\(" Expr "\)" | "\d+"
`)
	ast, ok := p.ParseString("195 + (186 * 32) - 14 / 9")
	if !ok {
		t.Fatalf("parse failed")
	}
	got := tokens(ast)
	want := []string{"195", "+", "(", "186", "*", "32", ")", "-", "14", "/", "9"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, got[i], want[i])
		}
	}

	// The parenthesized group nests a full Expr with its own Term.
	out := Format(ast)
	if strings.Count(out, "Expr") < 2 || strings.Count(out, "Term") < 4 {
		t.Fatalf("unexpected tree shape:\n%s", out)
	}

	if _, ok := p.ParseString("1 + "); ok {
		t.Fatalf("dangling operator must fail")
	}
	if _, ok := p.ParseString("(1"); ok {
		t.Fatalf("unbalanced parenthesis must fail")
	}
}

func TestNestedGroups(t *testing.T) {
	p := ingest(t, `S' -> ("a" ("b" | "c"))+`)
	for _, input := range []string{"ab", "ac", "abac", "a c a b"} {
		if _, ok := p.ParseString(input); !ok {
			t.Fatalf("parse %q failed", input)
		}
	}
	if _, ok := p.ParseString("a"); ok {
		t.Fatalf("parse %q must fail", "a")
	}
}

// ------------------------------------------------------------------- formatting

func TestFormat(t *testing.T) {
	p := ingest(t, `
S' -> A B
A -> "x"
B -> "y"
`)
	ast, ok := p.ParseString("x y")
	if !ok {
		t.Fatalf("parse failed")
	}
	// The two children sit under an unlabeled branch node, which indents
	// its subtree one extra level.
	got := Format(ast)
	want := "|- S\n" +
		"|---------- A\n" +
		"|--------------- x\n" +
		"|---------- B\n" +
		"|--------------- y\n"
	if got != want {
		t.Fatalf("Format:\n%s\nwant:\n%s", got, want)
	}
}

// ------------------------------------------------------------------- files

func TestNewParserFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letters.peg")
	grammar := "S' -> \"a\"+\n"
	if err := os.WriteFile(path, []byte(grammar), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := NewParser(path)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if _, ok := p.ParseString("aaa"); !ok {
		t.Fatalf("parse failed")
	}
}

func TestNewParserGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letters.peg.gz")

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("S' -> \"a\"+\n"))
	zw.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewParser(path)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if _, ok := p.ParseString("aa"); !ok {
		t.Fatalf("parse failed")
	}
}
