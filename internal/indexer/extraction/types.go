package extraction

import "fmt"

// VarKind records how a binding was produced syntactically.
// Ordinals are persisted by the binary codec; append new kinds at the end only.
type VarKind int32

const (
	VarKindPair VarKind = iota
	VarKindArray
	VarKindCompact
	VarKindTuple
	VarKindVariableArray
	VarKindMixedTuple
)

// VarKinds lists every VarKind in ordinal order.
var VarKinds = []VarKind{
	VarKindPair,
	VarKindArray,
	VarKindCompact,
	VarKindTuple,
	VarKindVariableArray,
	VarKindMixedTuple,
}

var varKindNames = [...]string{
	"PAIR",
	"ARRAY",
	"COMPACT",
	"TUPLE",
	"VARIABLE_ARRAY",
	"MIXED_TUPLE",
}

func (k VarKind) String() string {
	if k.Valid() {
		return varKindNames[k]
	}
	return fmt.Sprintf("VarKind(%d)", int32(k))
}

// Valid reports whether k is a declared ordinal.
func (k VarKind) Valid() bool {
	return k >= 0 && int(k) < len(varKindNames)
}

// IsDeferred reports whether bindings of this kind are placeholders whose
// real view names need a second resolution pass.
func (k VarKind) IsDeferred() bool {
	return k == VarKindVariableArray || k == VarKindMixedTuple
}

// SourceKind records where a bound value's type should be resolved from.
// Ordinals are persisted by the binary codec; append new kinds at the end only.
type SourceKind int32

const (
	SourceKindLocal SourceKind = iota
	SourceKindLiteral
	SourceKindCall
	SourceKindProperty
	SourceKindMixedAssignment
	SourceKindUnknown
)

// SourceKinds lists every SourceKind in ordinal order.
var SourceKinds = []SourceKind{
	SourceKindLocal,
	SourceKindLiteral,
	SourceKindCall,
	SourceKindProperty,
	SourceKindMixedAssignment,
	SourceKindUnknown,
}

var sourceKindNames = [...]string{
	"LOCAL",
	"LITERAL",
	"CALL",
	"PROPERTY",
	"MIXED_ASSIGNMENT",
	"UNKNOWN",
}

func (k SourceKind) String() string {
	if k.Valid() {
		return sourceKindNames[k]
	}
	return fmt.Sprintf("SourceKind(%d)", int32(k))
}

// Valid reports whether k is a declared ordinal.
func (k SourceKind) Valid() bool {
	return k >= 0 && int(k) < len(sourceKindNames)
}

// VarHandle points a later type-resolution step at the expression that
// produced a bound value. Offset is a character offset in the original file.
type VarHandle struct {
	SourceKind SourceKind `json:"sourceKind"`
	SymbolName string     `json:"symbolName"`
	Offset     int        `json:"offset"`
}

// RawBinding is one name made visible to a template by a single
// $this->set(...) occurrence. Offset is the character offset of the call.
type RawBinding struct {
	VariableName string    `json:"variableName"`
	VarKind      VarKind   `json:"varKind"`
	Offset       int       `json:"offset"`
	Handle       VarHandle `json:"handle"`
}

// BindingSet maps a view variable name to its binding. Later writes of
// the same name replace earlier ones.
type BindingSet map[string]RawBinding

// Put records b, replacing any earlier binding of the same name.
func (s BindingSet) Put(b RawBinding) {
	s[b.VariableName] = b
}

// Names returns the bound variable names in unspecified order.
func (s BindingSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// CanonicalKey identifies one action method across the whole index.
type CanonicalKey string

// ControllerPath is the stable identity of a controller derived from its
// file location: Name is the class name without the "Controller" suffix and
// Prefix is the slash-joined directory path below the Controller directory.
type ControllerPath struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// String renders the identity half of a canonical key.
func (c ControllerPath) String() string {
	if c.Prefix == "" {
		return c.Name
	}
	return c.Prefix + ":" + c.Name
}

// Key builds the canonical key of one action method of this controller.
func (c ControllerPath) Key(method string) CanonicalKey {
	return CanonicalKey(c.String() + ":" + method)
}

// FileBindings is the extraction result for one file.
type FileBindings map[CanonicalKey]BindingSet
