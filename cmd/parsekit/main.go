package main

import (
	"fmt"
	"log"
	"os"

	"parsekit/internal/driver"
	"parsekit/peg"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <grammar.peg> [input file]", os.Args[0])
	}

	grammar, err := peg.NewParser(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	if len(os.Args) >= 3 {
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		ast, ok := grammar.ParseString(string(data))
		if !ok {
			log.Fatalf("%s does not match the grammar", os.Args[2])
		}
		fmt.Print(peg.Format(ast))
		return
	}

	ctx := &driver.Context{Grammar: grammar, Out: os.Stdout}
	if err := driver.Run(ctx, os.Stdin); err != nil {
		log.Fatal(err)
	}
}
