package viewvars

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
)

var integerPattern = regexp.MustCompile(`^\d+$`)

// classifySource derives the handle of a bound value expression.
func classifySource(tree *parsers.Tree, expr parsers.NodeID) extraction.VarHandle {
	expr = unwrap(tree, expr)
	handle := extraction.VarHandle{
		SourceKind: extraction.SourceKindUnknown,
		SymbolName: tree.Text(expr),
		Offset:     tree.Start(expr),
	}

	kind := tree.Kind(expr)
	switch {
	case kind == parsers.KindVariable:
		handle.SourceKind = extraction.SourceKindLocal
		handle.SymbolName = variableName(tree, expr)
	case kind == parsers.KindString || kind == parsers.KindEncapsedString:
		handle.SourceKind = extraction.SourceKindLiteral
		handle.SymbolName = unquote(tree.Text(expr))
	case kind == parsers.KindInteger || integerPattern.MatchString(handle.SymbolName):
		handle.SourceKind = extraction.SourceKindLiteral
	case kind.IsCall():
		handle.SourceKind = extraction.SourceKindCall
	case isThisProperty(tree, expr):
		handle.SourceKind = extraction.SourceKindProperty
		handle.SymbolName = tree.Text(tree.FieldChild(expr, "name"))
	}
	return handle
}

// stringLiteral returns the text of a constant string expression. Strings
// with interpolation are not constants and report false.
func stringLiteral(tree *parsers.Tree, expr parsers.NodeID) (string, bool) {
	expr = unwrap(tree, expr)
	switch tree.Kind(expr) {
	case parsers.KindString:
		return unquote(tree.Text(expr)), true
	case parsers.KindEncapsedString:
		for _, c := range tree.NamedChildren(expr) {
			if tree.Kind(c) != parsers.KindStringContent && tree.Node(c).Type != "escape_sequence" {
				return "", false
			}
		}
		return unquote(tree.Text(expr)), true
	}
	return "", false
}

// unquote strips one pair of surrounding quotes and an optional binary prefix.
func unquote(text string) string {
	if len(text) > 1 && (text[0] == 'b' || text[0] == 'B') && (text[1] == '\'' || text[1] == '"') {
		text = text[1:]
	}
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '\'' || first == '"') && first == last {
			return text[1 : len(text)-1]
		}
	}
	return text
}

// variableName returns a variable's name without the sigil.
func variableName(tree *parsers.Tree, v parsers.NodeID) string {
	return strings.TrimPrefix(tree.Text(v), "$")
}

func isThis(tree *parsers.Tree, id parsers.NodeID) bool {
	return tree.Kind(id) == parsers.KindVariable && tree.Text(id) == "$this"
}

func isThisProperty(tree *parsers.Tree, expr parsers.NodeID) bool {
	kind := tree.Kind(expr)
	if kind != parsers.KindMemberAccess && kind != parsers.KindNullsafeMemberAccess {
		return false
	}
	return isThis(tree, tree.FieldChild(expr, "object"))
}

// unwrap strips redundant parentheses around an expression.
func unwrap(tree *parsers.Tree, expr parsers.NodeID) parsers.NodeID {
	for tree.Kind(expr) == parsers.KindParenthesized {
		inner := tree.NamedChildren(expr)
		if len(inner) != 1 {
			return expr
		}
		expr = inner[0]
	}
	return expr
}

// isCompactCall reports whether expr binds locals by name through compact().
func isCompactCall(tree *parsers.Tree, expr parsers.NodeID) bool {
	switch tree.Kind(expr) {
	case parsers.KindFunctionCall:
		fn := strings.TrimPrefix(tree.Text(tree.FieldChild(expr, "function")), `\`)
		return strings.EqualFold(fn, "compact")
	case parsers.KindError, parsers.KindOther:
		return looksLikeCompactCall(tree.Text(expr))
	}
	return false
}

// looksLikeCompactCall is the text fallback for compact() detection, used
// only when the parser did not produce a function call node (for example
// inside error recovery).
func looksLikeCompactCall(text string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), "compact(")
}

// compactNames returns each constant string passed to a compact() call
// along with the node it came from.
func compactNames(tree *parsers.Tree, expr parsers.NodeID) ([]string, []parsers.NodeID) {
	var candidates []parsers.NodeID
	if tree.Kind(expr) == parsers.KindFunctionCall {
		candidates = arguments(tree, tree.FieldChild(expr, "arguments"))
	} else {
		tree.Walk(expr, func(id parsers.NodeID) bool {
			kind := tree.Kind(id)
			if kind == parsers.KindString || kind == parsers.KindEncapsedString {
				candidates = append(candidates, id)
				return false
			}
			return true
		})
	}

	var names []string
	var nodes []parsers.NodeID
	for _, c := range candidates {
		if name, ok := stringLiteral(tree, c); ok && name != "" {
			names = append(names, name)
			nodes = append(nodes, unwrap(tree, c))
		}
	}
	return names, nodes
}

// arguments returns the value expression of each argument in an argument list.
func arguments(tree *parsers.Tree, list parsers.NodeID) []parsers.NodeID {
	if tree.Kind(list) != parsers.KindArguments {
		return nil
	}
	var out []parsers.NodeID
	for _, arg := range tree.NamedChildren(list) {
		if tree.Kind(arg) != parsers.KindArgument {
			continue
		}
		value := parsers.NoNode
		for _, c := range tree.NamedChildren(arg) {
			if tree.Node(c).Field != "name" {
				value = c
			}
		}
		if value != parsers.NoNode {
			out = append(out, unwrap(tree, value))
		}
	}
	return out
}

// arrayEntry is one element of an array literal. Key is NoNode for
// list-style elements.
type arrayEntry struct {
	Key   parsers.NodeID
	Value parsers.NodeID
}

// arrayEntries returns the elements of an array literal in source order.
func arrayEntries(tree *parsers.Tree, array parsers.NodeID) []arrayEntry {
	var out []arrayEntry
	for _, el := range tree.Children(array) {
		if tree.Kind(el) != parsers.KindArrayElement {
			continue
		}
		named := tree.NamedChildren(el)
		if len(named) == 0 {
			continue
		}
		entry := arrayEntry{Key: parsers.NoNode, Value: named[len(named)-1]}
		if tree.FirstChildOfKind(el, parsers.KindDoubleArrow) != parsers.NoNode && len(named) >= 2 {
			entry.Key = named[0]
		}
		out = append(out, entry)
	}
	return out
}
