// Package driver implements the interactive session of the parsekit
// command. The command language is declared with participle struct tags
// and executed against a session context holding the loaded grammar and
// the most recent parse tree.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"parsekit/peg"
	"parsekit/regexlib"
)

type Command struct {
	Parse *ParseCmd `parser:"@@"`
	File  *FileCmd  `parser:"| @@"`
	Tree  *TreeCmd  `parser:"| @@"`
	Dot   *DotCmd   `parser:"| @@"`
	Quit  *QuitCmd  `parser:"| @@"`
}

type ParseCmd struct {
	Text string `parser:"'parse' @String"`
}

type FileCmd struct {
	Path string `parser:"'file' @String"`
}

type TreeCmd struct {
	Tree bool `parser:"@'tree'"`
}

type DotCmd struct {
	Kind    string `parser:"'dot' @('nfa'|'dfa')"`
	Pattern string `parser:"@String"`
}

type QuitCmd struct {
	Quit bool `parser:"@'quit'"`
}

var parser = participle.MustBuild[Command](participle.Unquote("String"))

// Context carries session state between commands.
type Context struct {
	Grammar *peg.Parser
	Last    peg.AST
	Out     io.Writer
}

// Run reads commands line by line until quit or end of input.
func Run(ctx *Context, in io.Reader) error {
	scan := bufio.NewScanner(in)
	for {
		fmt.Fprint(ctx.Out, "> ")
		if !scan.Scan() {
			return scan.Err()
		}
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		cmd, err := parser.ParseString("input", line)
		if err != nil {
			fmt.Fprintf(ctx.Out, "error: %v\n", err)
			continue
		}
		quit, err := cmd.Exec(ctx)
		if err != nil {
			fmt.Fprintf(ctx.Out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command; the first result reports a quit request.
func (c *Command) Exec(ctx *Context) (bool, error) {
	switch {
	case c.Parse != nil:
		ast, ok := ctx.Grammar.ParseString(c.Parse.Text)
		if !ok {
			return false, fmt.Errorf("input does not match the grammar")
		}
		ctx.Last = ast
		fmt.Fprint(ctx.Out, peg.Format(ast))

	case c.File != nil:
		data, err := os.ReadFile(c.File.Path)
		if err != nil {
			return false, err
		}
		ast, ok := ctx.Grammar.ParseString(string(data))
		if !ok {
			return false, fmt.Errorf("%s does not match the grammar", c.File.Path)
		}
		ctx.Last = ast
		fmt.Fprint(ctx.Out, peg.Format(ast))

	case c.Tree != nil:
		if ctx.Last == nil {
			return false, fmt.Errorf("nothing parsed yet")
		}
		fmt.Fprint(ctx.Out, peg.Format(ctx.Last))

	case c.Dot != nil:
		re, err := regexlib.Compile(c.Dot.Pattern)
		if err != nil {
			return false, err
		}
		if c.Dot.Kind == "nfa" {
			fmt.Fprint(ctx.Out, re.NFADot())
		} else {
			fmt.Fprint(ctx.Out, re.DFADot())
		}

	case c.Quit != nil:
		return true, nil
	}
	return false, nil
}
