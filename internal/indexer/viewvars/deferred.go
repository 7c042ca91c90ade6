package viewvars

import (
	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
)

// ResolveDeferred expands a VARIABLE_ARRAY or MIXED_TUPLE placeholder into
// the bindings it stands for, by reading the last assignment to the
// referenced locals before the set() call inside the same method. Other
// bindings are returned unchanged. Placeholders that cannot be resolved
// yield nothing.
func ResolveDeferred(tree *parsers.Tree, b extraction.RawBinding) []extraction.RawBinding {
	switch b.VarKind {
	case extraction.VarKindVariableArray:
		return resolveVariableArray(tree, b)
	case extraction.VarKindMixedTuple:
		return resolveMixedTuple(tree, b)
	}
	return []extraction.RawBinding{b}
}

// ResolveSet expands every placeholder in set and returns a new set.
// Resolved names never replace names bound directly.
func ResolveSet(tree *parsers.Tree, set extraction.BindingSet) extraction.BindingSet {
	out := extraction.BindingSet{}
	var deferred []extraction.RawBinding
	for _, b := range set {
		if b.VarKind.IsDeferred() {
			deferred = append(deferred, b)
			continue
		}
		out.Put(b)
	}
	for _, b := range deferred {
		for _, r := range ResolveDeferred(tree, b) {
			if _, exists := out[r.VariableName]; !exists {
				out.Put(r)
			}
		}
	}
	return out
}

func resolveVariableArray(tree *parsers.Tree, b extraction.RawBinding) []extraction.RawBinding {
	method := methodAt(tree, b.Handle.Offset)
	if method == parsers.NoNode {
		return nil
	}
	rhs := lastAssignment(tree, method, b.Handle.SymbolName, b.Handle.Offset)
	if rhs == parsers.NoNode {
		return nil
	}

	resolved := func(name string, handle extraction.VarHandle) extraction.RawBinding {
		return extraction.RawBinding{
			VariableName: name,
			VarKind:      b.VarKind,
			Offset:       b.Offset,
			Handle:       handle,
		}
	}

	var out []extraction.RawBinding
	switch {
	case tree.Kind(rhs) == parsers.KindArray:
		for _, entry := range arrayEntries(tree, rhs) {
			if entry.Key == parsers.NoNode {
				continue
			}
			if name, ok := stringLiteral(tree, entry.Key); ok && name != "" {
				out = append(out, resolved(name, classifySource(tree, entry.Value)))
			}
		}
	case isCompactCall(tree, rhs):
		names, nodes := compactNames(tree, rhs)
		for i, name := range names {
			out = append(out, resolved(name, extraction.VarHandle{
				SourceKind: extraction.SourceKindLocal,
				SymbolName: name,
				Offset:     tree.Start(nodes[i]),
			}))
		}
	default:
		if name, ok := stringLiteral(tree, rhs); ok && name != "" {
			out = append(out, resolved(name, extraction.VarHandle{
				SourceKind: extraction.SourceKindUnknown,
				SymbolName: tree.Text(rhs),
				Offset:     tree.Start(rhs),
			}))
		}
	}
	return out
}

func resolveMixedTuple(tree *parsers.Tree, b extraction.RawBinding) []extraction.RawBinding {
	call := setCallAt(tree, b.Offset)
	if call == parsers.NoNode {
		return nil
	}
	args := arguments(tree, tree.FieldChild(call, "arguments"))
	if len(args) != 2 {
		return nil
	}
	method := tree.Enclosing(call, parsers.KindMethod)
	if method == parsers.NoNode {
		return nil
	}

	names := tupleKeys(tree, method, args[0], b.Offset)
	values := tupleValues(tree, method, args[1], b.Offset)
	n := min(len(names), len(values))

	var out []extraction.RawBinding
	for i := 0; i < n; i++ {
		if names[i] == "" {
			continue
		}
		out = append(out, extraction.RawBinding{
			VariableName: names[i],
			VarKind:      b.VarKind,
			Offset:       b.Offset,
			Handle:       classifySource(tree, values[i]),
		})
	}
	return out
}

// tupleKeys lists the names on the keys side of a tuple. Positions that
// are not constant strings are kept as empty names so zipping stays aligned.
func tupleKeys(tree *parsers.Tree, method, keys parsers.NodeID, before int) []string {
	if tree.Kind(keys) == parsers.KindVariable {
		keys = lastAssignment(tree, method, variableName(tree, keys), before)
	}
	if keys == parsers.NoNode {
		return nil
	}
	if name, ok := stringLiteral(tree, keys); ok {
		return []string{name}
	}
	if tree.Kind(keys) != parsers.KindArray {
		return nil
	}

	var names []string
	for _, entry := range arrayEntries(tree, keys) {
		name := ""
		if entry.Key == parsers.NoNode {
			name, _ = stringLiteral(tree, entry.Value)
		}
		names = append(names, name)
	}
	return names
}

// tupleValues lists the value expressions of a tuple. A variable assigned
// an array literal contributes its elements; any other variable is a
// single value.
func tupleValues(tree *parsers.Tree, method, values parsers.NodeID, before int) []parsers.NodeID {
	array := values
	if tree.Kind(values) == parsers.KindVariable {
		array = lastAssignment(tree, method, variableName(tree, values), before)
	}
	if tree.Kind(array) != parsers.KindArray {
		if tree.Kind(values) == parsers.KindVariable {
			return []parsers.NodeID{values}
		}
		return nil
	}

	var out []parsers.NodeID
	for _, entry := range arrayEntries(tree, array) {
		out = append(out, entry.Value)
	}
	return out
}

// lastAssignment returns the right-hand side of the last plain assignment
// to $name that starts before offset inside method.
func lastAssignment(tree *parsers.Tree, method parsers.NodeID, name string, before int) parsers.NodeID {
	rhs := parsers.NoNode
	best := -1
	for _, a := range tree.Find(method, parsers.KindAssignment) {
		start := tree.Start(a)
		if start >= before || start < best {
			continue
		}
		left := tree.FieldChild(a, "left")
		if tree.Kind(left) != parsers.KindVariable || variableName(tree, left) != name {
			continue
		}
		right := tree.FieldChild(a, "right")
		if right == parsers.NoNode {
			continue
		}
		rhs = unwrap(tree, right)
		best = start
	}
	return rhs
}

// methodAt returns the method declaration containing offset.
func methodAt(tree *parsers.Tree, offset int) parsers.NodeID {
	found := parsers.NoNode
	tree.Walk(tree.Root(), func(id parsers.NodeID) bool {
		if !tree.Contains(id, offset) {
			return false
		}
		if tree.Kind(id) == parsers.KindMethod {
			found = id
			return false
		}
		return true
	})
	return found
}

// setCallAt returns the $this->set(...) call starting at offset.
func setCallAt(tree *parsers.Tree, offset int) parsers.NodeID {
	found := parsers.NoNode
	tree.Walk(tree.Root(), func(id parsers.NodeID) bool {
		if found != parsers.NoNode || !tree.Contains(id, offset) {
			return false
		}
		if tree.Start(id) == offset && isSetCall(tree, id) {
			found = id
			return false
		}
		return true
	})
	return found
}
