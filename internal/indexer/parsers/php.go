package parsers

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// PhpParser parses PHP files into arena trees.
type PhpParser struct {
	*treeSitterParser
}

// NewPhpParser creates a new PHP parser.
func NewPhpParser() *PhpParser {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &PhpParser{
		treeSitterParser: newTreeSitterParser(lang, "php"),
	}
}

// Parse parses PHP source. Syntax errors do not fail the parse; they show
// up as KindError nodes in the returned tree.
func (p *PhpParser) Parse(source []byte) (*Tree, error) {
	return p.parse(source)
}

// ParseFile reads and parses a PHP source file.
func (p *PhpParser) ParseFile(ctx context.Context, filePath string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	tree, err := p.parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return tree, nil
}
