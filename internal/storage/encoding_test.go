package storage

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for BindingSet encoding:
// - Round-trip: decode(encode(x)) == x for empty, single, unicode and generated sets
// - Byte layout matches the documented big-endian int32/length-prefixed format exactly
// - Equal sets encode to identical bytes regardless of map iteration order
// - Out-of-range enum ordinals fail with ErrFormatMismatch
// - Truncated streams, negative lengths, invalid UTF-8 and trailing bytes fail with ErrCorrupt
// - Unrepresentable bindings (bad kinds, negative offsets, mismatched keys) fail to encode
// - FormatVersion is stable and derived from the ordinal tables

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  extraction.BindingSet
	}{
		{name: "empty", set: extraction.BindingSet{}},
		{
			name: "single pair",
			set: extraction.BindingSet{
				"title": {VariableName: "title", VarKind: extraction.VarKindPair, Offset: 120,
					Handle: extraction.VarHandle{SourceKind: extraction.SourceKindLocal, SymbolName: "x", Offset: 140}},
			},
		},
		{
			name: "unicode and empty symbol",
			set: extraction.BindingSet{
				"überschrift": {VariableName: "überschrift", VarKind: extraction.VarKindArray, Offset: 0,
					Handle: extraction.VarHandle{SourceKind: extraction.SourceKindLiteral, SymbolName: "☃ snow", Offset: 3}},
				"placeholder": {VariableName: "placeholder", VarKind: extraction.VarKindMixedTuple, Offset: 9,
					Handle: extraction.VarHandle{SourceKind: extraction.SourceKindMixedAssignment, SymbolName: "|", Offset: 9}},
			},
		},
		{name: "generated", set: generateBindingSet(rand.New(rand.NewSource(7)), 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeBindingSet(tt.set)
			require.NoError(t, err)

			decoded, err := DecodeBindingSet(data)
			require.NoError(t, err)
			assert.Equal(t, tt.set, decoded)
		})
	}
}

func TestEncodeDecode_GeneratedSets(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		set := generateBindingSet(rng, rng.Intn(20))
		data, err := EncodeBindingSet(set)
		require.NoError(t, err)
		decoded, err := DecodeBindingSet(data)
		require.NoError(t, err)
		require.Equal(t, set, decoded, "iteration %d", i)
	}
}

func TestEncodeBindingSet_ExactLayout(t *testing.T) {
	t.Parallel()

	set := extraction.BindingSet{
		"a": {VariableName: "a", VarKind: extraction.VarKindCompact, Offset: 258,
			Handle: extraction.VarHandle{SourceKind: extraction.SourceKindLocal, SymbolName: "a", Offset: 270}},
	}

	data, err := EncodeBindingSet(set)
	require.NoError(t, err)

	expected := []byte{
		0, 0, 0, 1, // entryCount
		0, 0, 0, 1, 'a', // variableName
		0, 0, 0, 2, // varKind COMPACT
		0, 0, 1, 2, // offset 258
		0, 0, 0, 0, // sourceKind LOCAL
		0, 0, 0, 1, 'a', // symbolName
		0, 0, 1, 14, // handleOffset 270
	}
	assert.Equal(t, expected, data)
}

func TestEncodeBindingSet_Deterministic(t *testing.T) {
	t.Parallel()

	set := generateBindingSet(rand.New(rand.NewSource(3)), 32)
	first, err := EncodeBindingSet(set)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		copied := extraction.BindingSet{}
		for k, v := range set {
			copied[k] = v
		}
		again, err := EncodeBindingSet(copied)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecodeBindingSet_FormatMismatch(t *testing.T) {
	t.Parallel()

	encode := func(varKind, sourceKind int32) []byte {
		buf := binary.BigEndian.AppendUint32(nil, 1)
		buf = binary.BigEndian.AppendUint32(buf, 1)
		buf = append(buf, 'x')
		buf = binary.BigEndian.AppendUint32(buf, uint32(varKind))
		buf = binary.BigEndian.AppendUint32(buf, 0)
		buf = binary.BigEndian.AppendUint32(buf, uint32(sourceKind))
		buf = binary.BigEndian.AppendUint32(buf, 0)
		buf = binary.BigEndian.AppendUint32(buf, 0)
		return buf
	}

	_, err := DecodeBindingSet(encode(6, 0))
	assert.ErrorIs(t, err, ErrFormatMismatch)

	_, err = DecodeBindingSet(encode(0, 6))
	assert.ErrorIs(t, err, ErrFormatMismatch)

	_, err = DecodeBindingSet(encode(-1, 0))
	assert.ErrorIs(t, err, ErrFormatMismatch)

	set, err := DecodeBindingSet(encode(5, 5))
	require.NoError(t, err)
	assert.Equal(t, extraction.VarKindMixedTuple, set["x"].VarKind)
}

func TestDecodeBindingSet_Corrupt(t *testing.T) {
	t.Parallel()

	valid, err := EncodeBindingSet(generateBindingSet(rand.New(rand.NewSource(1)), 3))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil", data: nil},
		{name: "short count", data: []byte{0, 0}},
		{name: "truncated", data: valid[:len(valid)-1]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0)},
		{name: "negative count", data: []byte{0xff, 0xff, 0xff, 0xff}},
		{name: "count larger than data", data: []byte{0, 0, 0, 9}},
		{name: "string overruns", data: []byte{0, 0, 0, 1, 0, 0, 0, 50, 'a'}},
		{name: "invalid utf8", data: []byte{0, 0, 0, 1, 0, 0, 0, 1, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeBindingSet(tt.data)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestEncodeBindingSet_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  extraction.BindingSet
	}{
		{name: "undeclared var kind", set: extraction.BindingSet{"a": {VariableName: "a", VarKind: 99}}},
		{name: "undeclared source kind", set: extraction.BindingSet{"a": {VariableName: "a", Handle: extraction.VarHandle{SourceKind: -2}}}},
		{name: "negative offset", set: extraction.BindingSet{"a": {VariableName: "a", Offset: -1}}},
		{name: "key mismatch", set: extraction.BindingSet{"a": {VariableName: "b"}}},
		{name: "invalid utf8", set: extraction.BindingSet{"\xff": {VariableName: "\xff"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := EncodeBindingSet(tt.set)
			assert.ErrorIs(t, err, ErrInvalidBinding)
		})
	}
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Len(t, FormatVersion, 16)
	assert.Equal(t, FormatVersion, formatVersion())
}

func TestEncodeFileBindings(t *testing.T) {
	t.Parallel()

	entries := extraction.FileBindings{
		"Movie:index": generateBindingSet(rand.New(rand.NewSource(5)), 4),
		"Movie:meta":  {},
	}

	encoded, err := EncodeFileBindings(entries)
	require.NoError(t, err)
	require.Len(t, encoded, 2)

	for key, data := range encoded {
		decoded, err := DecodeBindingSet(data)
		require.NoError(t, err)
		assert.Equal(t, entries[key], decoded)
	}
}

func generateBindingSet(rng *rand.Rand, n int) extraction.BindingSet {
	set := extraction.BindingSet{}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("var%d_%d", i, rng.Intn(1000))
		set.Put(extraction.RawBinding{
			VariableName: name,
			VarKind:      extraction.VarKinds[rng.Intn(len(extraction.VarKinds))],
			Offset:       rng.Intn(1 << 20),
			Handle: extraction.VarHandle{
				SourceKind: extraction.SourceKinds[rng.Intn(len(extraction.SourceKinds))],
				SymbolName: fmt.Sprintf("sym%d", rng.Intn(100)),
				Offset:     rng.Intn(1 << 20),
			},
		})
	}
	return set
}
