// Package viewvars finds the variables a CakePHP controller action hands to
// its template through $this->set(...).
package viewvars

import (
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
)

// ClassifyMethod returns the bindings produced by every $this->set(...)
// call inside method. Calls whose arguments match no known shape are
// skipped. A name bound twice keeps the lexically later binding.
func ClassifyMethod(tree *parsers.Tree, method parsers.NodeID) extraction.BindingSet {
	set := extraction.BindingSet{}
	tree.Walk(method, func(id parsers.NodeID) bool {
		if isSetCall(tree, id) {
			for _, b := range classifyCall(tree, id) {
				set.Put(b)
			}
		}
		return true
	})
	return set
}

// isSetCall matches $this->set(...) with a case-insensitive method name.
func isSetCall(tree *parsers.Tree, id parsers.NodeID) bool {
	if tree.Kind(id) != parsers.KindMemberCall {
		return false
	}
	if !isThis(tree, tree.FieldChild(id, "object")) {
		return false
	}
	return strings.EqualFold(tree.Text(tree.FieldChild(id, "name")), "set")
}

func classifyCall(tree *parsers.Tree, call parsers.NodeID) []extraction.RawBinding {
	args := arguments(tree, tree.FieldChild(call, "arguments"))
	offset := tree.Start(call)

	switch len(args) {
	case 1:
		arg := args[0]
		switch {
		case tree.Kind(arg) == parsers.KindArray:
			return classifyArray(tree, arg, offset)
		case isCompactCall(tree, arg):
			return classifyCompact(tree, arg, offset)
		case tree.Kind(arg) == parsers.KindVariable:
			return classifyVariableArray(tree, arg, offset)
		}
	case 2:
		keys, values := args[0], args[1]
		if name, ok := stringLiteral(tree, keys); ok {
			if name == "" {
				return nil
			}
			return []extraction.RawBinding{{
				VariableName: name,
				VarKind:      extraction.VarKindPair,
				Offset:       offset,
				Handle:       classifySource(tree, values),
			}}
		}
		keysKind, valuesKind := tree.Kind(keys), tree.Kind(values)
		if keysKind == parsers.KindArray && valuesKind == parsers.KindArray {
			return classifyTuple(tree, keys, values, offset)
		}
		if isArrayOrVariable(keysKind) && isArrayOrVariable(valuesKind) {
			return classifyMixedTuple(tree, keys, values, offset)
		}
	}
	return nil
}

// classifyArray handles set(['name' => $value, ...]).
func classifyArray(tree *parsers.Tree, array parsers.NodeID, offset int) []extraction.RawBinding {
	var out []extraction.RawBinding
	for _, entry := range arrayEntries(tree, array) {
		if entry.Key == parsers.NoNode {
			continue
		}
		name, ok := stringLiteral(tree, entry.Key)
		if !ok || name == "" {
			continue
		}
		out = append(out, extraction.RawBinding{
			VariableName: name,
			VarKind:      extraction.VarKindArray,
			Offset:       offset,
			Handle:       classifySource(tree, entry.Value),
		})
	}
	return out
}

// classifyCompact handles set(compact('a', 'b')).
func classifyCompact(tree *parsers.Tree, call parsers.NodeID, offset int) []extraction.RawBinding {
	names, nodes := compactNames(tree, call)
	out := make([]extraction.RawBinding, 0, len(names))
	for i, name := range names {
		out = append(out, extraction.RawBinding{
			VariableName: name,
			VarKind:      extraction.VarKindCompact,
			Offset:       offset,
			Handle: extraction.VarHandle{
				SourceKind: extraction.SourceKindLocal,
				SymbolName: name,
				Offset:     tree.Start(nodes[i]),
			},
		})
	}
	return out
}

// classifyTuple handles set(['a', 'b'], [$x, $y]).
func classifyTuple(tree *parsers.Tree, keys, values parsers.NodeID, offset int) []extraction.RawBinding {
	keyEntries := arrayEntries(tree, keys)
	valueEntries := arrayEntries(tree, values)
	n := min(len(keyEntries), len(valueEntries))

	var out []extraction.RawBinding
	for i := 0; i < n; i++ {
		if keyEntries[i].Key != parsers.NoNode {
			continue
		}
		name, ok := stringLiteral(tree, keyEntries[i].Value)
		if !ok || name == "" {
			continue
		}
		out = append(out, extraction.RawBinding{
			VariableName: name,
			VarKind:      extraction.VarKindTuple,
			Offset:       offset,
			Handle:       classifySource(tree, valueEntries[i].Value),
		})
	}
	return out
}

// classifyVariableArray handles set($vars). The names $vars holds are
// resolved later by ResolveDeferred.
func classifyVariableArray(tree *parsers.Tree, variable parsers.NodeID, offset int) []extraction.RawBinding {
	name := variableName(tree, variable)
	if name == "" || name == "this" {
		return nil
	}
	return []extraction.RawBinding{{
		VariableName: name,
		VarKind:      extraction.VarKindVariableArray,
		Offset:       offset,
		Handle: extraction.VarHandle{
			SourceKind: extraction.SourceKindLocal,
			SymbolName: name,
			Offset:     tree.Start(variable),
		},
	}}
}

// classifyMixedTuple handles set($keys, $values) where at least one side is
// a variable. The placeholder records both variable names for ResolveDeferred.
func classifyMixedTuple(tree *parsers.Tree, keys, values parsers.NodeID, offset int) []extraction.RawBinding {
	keysVar, valuesVar := "", ""
	if tree.Kind(keys) == parsers.KindVariable {
		keysVar = variableName(tree, keys)
	}
	if tree.Kind(values) == parsers.KindVariable {
		valuesVar = variableName(tree, values)
	}
	return []extraction.RawBinding{{
		VariableName: MixedTupleName(keysVar, valuesVar),
		VarKind:      extraction.VarKindMixedTuple,
		Offset:       offset,
		Handle: extraction.VarHandle{
			SourceKind: extraction.SourceKindMixedAssignment,
			SymbolName: keysVar + "|" + valuesVar,
			Offset:     tree.Start(keys),
		},
	}}
}

// MixedTupleName synthesizes the placeholder name of a mixed tuple binding.
// An empty side stands for a literal array.
func MixedTupleName(keysVar, valuesVar string) string {
	if keysVar == "" {
		keysVar = "array"
	}
	if valuesVar == "" {
		valuesVar = "array"
	}
	return keysVar + "_" + valuesVar + "_mixed_tuple"
}

// SplitMixedSymbol splits a mixed tuple handle symbol into its keys and
// values variable names.
func SplitMixedSymbol(symbol string) (keysVar, valuesVar string) {
	keysVar, valuesVar, _ = strings.Cut(symbol, "|")
	return keysVar, valuesVar
}

func isArrayOrVariable(kind parsers.NodeKind) bool {
	return kind == parsers.KindArray || kind == parsers.KindVariable
}
