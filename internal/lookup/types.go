package lookup

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

// TypeDescriptor names the type of a bound value as a PHP type hint.
type TypeDescriptor string

const (
	TypeMixed  TypeDescriptor = "mixed"
	TypeString TypeDescriptor = "string"
	TypeInt    TypeDescriptor = "int"
	TypeFloat  TypeDescriptor = "float"
	TypeBool   TypeDescriptor = "bool"
	TypeArray  TypeDescriptor = "array"
	TypeNull   TypeDescriptor = "null"
)

// TypeResolver gives a best-effort type for a binding. It never fails;
// TypeMixed means unknown.
type TypeResolver interface {
	ResolveType(b extraction.RawBinding) TypeDescriptor
}

// SyntacticResolver types bindings from the shape of their source
// expression alone.
type SyntacticResolver struct{}

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+|\d+(\.\d*)?[eE][+-]?\d+)$`)
)

// ResolveType implements TypeResolver.
func (SyntacticResolver) ResolveType(b extraction.RawBinding) TypeDescriptor {
	symbol := strings.TrimSpace(b.Handle.SymbolName)
	switch b.Handle.SourceKind {
	case extraction.SourceKindLiteral:
		if intPattern.MatchString(symbol) {
			return TypeInt
		}
		return TypeString
	case extraction.SourceKindUnknown:
		lower := strings.ToLower(symbol)
		switch {
		case floatPattern.MatchString(symbol):
			return TypeFloat
		case lower == "true" || lower == "false":
			return TypeBool
		case lower == "null":
			return TypeNull
		case strings.HasPrefix(symbol, "[") || strings.HasPrefix(lower, "array("):
			return TypeArray
		}
	}
	return TypeMixed
}
