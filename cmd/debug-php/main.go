package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
	"github.com/mvp-joe/cakevars/internal/indexer/viewvars"
)

func main() {
	path := "testdata/cake/src/Controller/MovieController.php"
	dumpTree := false
	for _, arg := range os.Args[1:] {
		if arg == "-tree" {
			dumpTree = true
			continue
		}
		path = arg
	}

	parser := parsers.NewPhpParser()
	tree, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		log.Fatal(err)
	}

	if dumpTree {
		fmt.Println("=== NODES ===")
		printNode(tree, tree.Root(), 0)
		fmt.Println()
	}

	id, ok := viewvars.Identify(path)
	if !ok {
		log.Fatalf("%s is not a controller file", path)
	}

	entries := viewvars.NewExtractor("").ExtractFile(tree, id)
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	fmt.Printf("=== BINDINGS (%s) ===\n", id.Controller)
	for _, key := range keys {
		set := entries[extraction.CanonicalKey(key)]
		fmt.Printf("%s\n", key)
		printSet(set, "  ")

		resolved := viewvars.ResolveSet(tree, set)
		if len(resolved) != len(set) {
			fmt.Println("  resolved:")
			printSet(resolved, "    ")
		}
	}
}

func printSet(set extraction.BindingSet, indent string) {
	names := set.Names()
	sort.Strings(names)
	for _, name := range names {
		b := set[name]
		fmt.Printf("%s$%s %s %s %q @%d\n", indent, name, b.VarKind, b.Handle.SourceKind, b.Handle.SymbolName, b.Offset)
	}
}

func printNode(tree *parsers.Tree, id parsers.NodeID, depth int) {
	n := tree.Node(id)
	if n.Named {
		label := n.Type
		if n.Field != "" {
			label = n.Field + ": " + label
		}
		fmt.Printf("%s%s [%d-%d] %s\n", strings.Repeat("  ", depth), label, n.Start, n.End, n.Kind)
		depth++
	}
	for _, child := range tree.Children(id) {
		printNode(tree, child, depth)
	}
}
