package parsers

import (
	"fmt"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse runs tree-sitter over source and copies the result into an arena.
// The tree-sitter tree is released before returning.
func (p *treeSitterParser) parse(source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source", p.lang)
	}
	defer tree.Close()

	return buildArena(tree, source), nil
}

// buildArena flattens a tree-sitter tree into arena nodes in preorder.
// The cursor is driven iteratively; depth is tracked on an explicit stack.
func buildArena(tree *sitter.Tree, source []byte) *Tree {
	offsets := newRuneOffsets(source)
	out := &Tree{Source: source}

	cursor := tree.Walk()
	defer cursor.Close()

	parents := []NodeID{NoNode}
	for {
		n := cursor.Node()
		parent := parents[len(parents)-1]
		grammarType := n.Kind()
		startByte := int(n.StartByte())
		endByte := int(n.EndByte())

		id := NodeID(len(out.nodes))
		out.nodes = append(out.nodes, Node{
			Kind:      KindOf(grammarType),
			Type:      grammarType,
			Field:     cursor.FieldName(),
			Named:     n.IsNamed(),
			Start:     offsets.at(startByte),
			End:       offsets.at(endByte),
			StartByte: startByte,
			EndByte:   endByte,
			Parent:    parent,
		})
		if parent != NoNode {
			out.nodes[parent].children = append(out.nodes[parent].children, id)
		}

		if cursor.GotoFirstChild() {
			parents = append(parents, id)
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return out
			}
			parents = parents[:len(parents)-1]
		}
	}
}

// runeOffsets converts byte offsets into character offsets.
type runeOffsets struct {
	ascii  bool
	prefix []int32
}

func newRuneOffsets(source []byte) runeOffsets {
	ascii := true
	for _, b := range source {
		if b >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return runeOffsets{ascii: true}
	}

	prefix := make([]int32, len(source)+1)
	var count int32
	for i := 0; i < len(source); {
		_, size := utf8.DecodeRune(source[i:])
		for j := 0; j < size && i+j < len(source); j++ {
			prefix[i+j] = count
		}
		i += size
		count++
	}
	prefix[len(source)] = count
	return runeOffsets{prefix: prefix}
}

func (r runeOffsets) at(byteOffset int) int {
	if r.ascii {
		return byteOffset
	}
	if byteOffset >= len(r.prefix) {
		return int(r.prefix[len(r.prefix)-1])
	}
	return int(r.prefix[byteOffset])
}
