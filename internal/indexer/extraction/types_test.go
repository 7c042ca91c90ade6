package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for binding model:
// - VarKind ordinals are fixed in declaration order (persisted format)
// - SourceKind ordinals are fixed in declaration order (persisted format)
// - String() renders names and falls back for undeclared ordinals
// - BindingSet.Put keeps the last write for a repeated name
// - ControllerPath builds keys with and without a prefix

func TestVarKind_OrdinalsAreStable(t *testing.T) {
	t.Parallel()

	expected := map[VarKind]int32{
		VarKindPair:          0,
		VarKindArray:         1,
		VarKindCompact:       2,
		VarKindTuple:         3,
		VarKindVariableArray: 4,
		VarKindMixedTuple:    5,
	}
	for kind, ordinal := range expected {
		assert.Equal(t, ordinal, int32(kind), kind.String())
	}
	assert.Len(t, VarKinds, len(expected))
	for i, kind := range VarKinds {
		assert.Equal(t, int32(i), int32(kind))
	}
}

func TestSourceKind_OrdinalsAreStable(t *testing.T) {
	t.Parallel()

	expected := map[SourceKind]int32{
		SourceKindLocal:           0,
		SourceKindLiteral:         1,
		SourceKindCall:            2,
		SourceKindProperty:        3,
		SourceKindMixedAssignment: 4,
		SourceKindUnknown:         5,
	}
	for kind, ordinal := range expected {
		assert.Equal(t, ordinal, int32(kind), kind.String())
	}
	assert.Len(t, SourceKinds, len(expected))
	for i, kind := range SourceKinds {
		assert.Equal(t, int32(i), int32(kind))
	}
}

func TestKinds_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PAIR", VarKindPair.String())
	assert.Equal(t, "MIXED_TUPLE", VarKindMixedTuple.String())
	assert.Equal(t, "VarKind(9)", VarKind(9).String())
	assert.Equal(t, "MIXED_ASSIGNMENT", SourceKindMixedAssignment.String())
	assert.Equal(t, "SourceKind(-1)", SourceKind(-1).String())
	assert.False(t, VarKind(6).Valid())
	assert.True(t, SourceKindUnknown.Valid())
}

func TestVarKind_IsDeferred(t *testing.T) {
	t.Parallel()

	assert.True(t, VarKindVariableArray.IsDeferred())
	assert.True(t, VarKindMixedTuple.IsDeferred())
	assert.False(t, VarKindPair.IsDeferred())
	assert.False(t, VarKindTuple.IsDeferred())
}

func TestBindingSet_LastWriteWins(t *testing.T) {
	t.Parallel()

	set := BindingSet{}
	set.Put(RawBinding{VariableName: "x", VarKind: VarKindPair, Offset: 10})
	set.Put(RawBinding{VariableName: "x", VarKind: VarKindPair, Offset: 42})

	assert.Len(t, set, 1)
	assert.Equal(t, 42, set["x"].Offset)
	assert.Equal(t, []string{"x"}, set.Names())
}

func TestControllerPath_Key(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CanonicalKey("Movie:index"), ControllerPath{Name: "Movie"}.Key("index"))
	assert.Equal(t, CanonicalKey("Admin:Movie:index"), ControllerPath{Prefix: "Admin", Name: "Movie"}.Key("index"))
	assert.Equal(t, CanonicalKey("Api/V1:Movie:view"), ControllerPath{Prefix: "Api/V1", Name: "Movie"}.Key("view"))
}
