package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/zeebo/xxh3"
)

var (
	// ErrFormatMismatch indicates bytes written with a different enum layout.
	// Callers should discard the index and rebuild it.
	ErrFormatMismatch = errors.New("binding format mismatch")

	// ErrCorrupt indicates a truncated or otherwise malformed byte stream.
	ErrCorrupt = errors.New("corrupt binding data")

	// ErrInvalidBinding indicates a binding that cannot be represented.
	ErrInvalidBinding = errors.New("invalid binding")
)

// FormatVersion identifies the binary layout below together with both enum
// ordinal tables. It changes only when one of them changes.
var FormatVersion = formatVersion()

func formatVersion() string {
	var b strings.Builder
	b.WriteString("bindingset/be: count:i32 {name:str varKind:i32 offset:i32 sourceKind:i32 symbol:str handleOffset:i32}; str=len:i32+utf8\n")
	for _, k := range extraction.VarKinds {
		fmt.Fprintf(&b, "varKind %d=%s\n", int32(k), k)
	}
	for _, k := range extraction.SourceKinds {
		fmt.Fprintf(&b, "sourceKind %d=%s\n", int32(k), k)
	}
	return fmt.Sprintf("%016x", xxh3.HashString(b.String()))
}

// EncodeBindingSet serializes one BindingSet. All integers are big-endian
// int32 and strings are int32 length-prefixed UTF-8:
//
//	entryCount
//	repeat entryCount:
//	  variableName varKind offset sourceKind symbolName handleOffset
//
// Entries are written in name order so equal sets encode to equal bytes.
func EncodeBindingSet(set extraction.BindingSet) ([]byte, error) {
	if len(set) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidBinding, len(set))
	}

	names := set.Names()
	sort.Strings(names)

	buf := make([]byte, 0, 4+len(set)*48)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(set)))
	for _, name := range names {
		b := set[name]
		if b.VariableName != name {
			return nil, fmt.Errorf("%w: entry %q holds binding for %q", ErrInvalidBinding, name, b.VariableName)
		}
		if !b.VarKind.Valid() || !b.Handle.SourceKind.Valid() {
			return nil, fmt.Errorf("%w: %q has undeclared kind", ErrInvalidBinding, name)
		}
		if !fitsInt32(b.Offset) || !fitsInt32(b.Handle.Offset) {
			return nil, fmt.Errorf("%w: %q has offset out of range", ErrInvalidBinding, name)
		}

		var err error
		if buf, err = appendString(buf, b.VariableName); err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(b.VarKind))
		buf = binary.BigEndian.AppendUint32(buf, uint32(b.Offset))
		buf = binary.BigEndian.AppendUint32(buf, uint32(b.Handle.SourceKind))
		if buf, err = appendString(buf, b.Handle.SymbolName); err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(b.Handle.Offset))
	}
	return buf, nil
}

// DecodeBindingSet reverses EncodeBindingSet. It fails with
// ErrFormatMismatch when an enum ordinal is outside the current tables and
// with ErrCorrupt when the stream is truncated or has trailing bytes.
func DecodeBindingSet(data []byte) (extraction.BindingSet, error) {
	r := &reader{data: data}

	count, err := r.length()
	if err != nil {
		return nil, err
	}

	set := make(extraction.BindingSet, min(count, len(data)/4))
	for i := 0; i < count; i++ {
		var b extraction.RawBinding
		if b.VariableName, err = r.string(); err != nil {
			return nil, err
		}
		varKind, err := r.int32()
		if err != nil {
			return nil, err
		}
		b.VarKind = extraction.VarKind(varKind)
		if !b.VarKind.Valid() {
			return nil, fmt.Errorf("%w: var kind ordinal %d", ErrFormatMismatch, varKind)
		}
		if b.Offset, err = r.offset(); err != nil {
			return nil, err
		}
		sourceKind, err := r.int32()
		if err != nil {
			return nil, err
		}
		b.Handle.SourceKind = extraction.SourceKind(sourceKind)
		if !b.Handle.SourceKind.Valid() {
			return nil, fmt.Errorf("%w: source kind ordinal %d", ErrFormatMismatch, sourceKind)
		}
		if b.Handle.SymbolName, err = r.string(); err != nil {
			return nil, err
		}
		if b.Handle.Offset, err = r.offset(); err != nil {
			return nil, err
		}
		set[b.VariableName] = b
	}

	if r.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-r.pos)
	}
	return set, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidBinding)
	}
	if len(s) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: string too long", ErrInvalidBinding)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...), nil
}

func fitsInt32(v int) bool {
	return v >= 0 && v <= math.MaxInt32
}

// reader walks an encoded BindingSet.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) int32() (int32, error) {
	if len(r.data)-r.pos < 4 {
		return 0, fmt.Errorf("%w: unexpected end of data at byte %d", ErrCorrupt, r.pos)
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v, nil
}

// length reads a non-negative count or string length.
func (r *reader) length() (int, error) {
	v, err := r.int32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative length %d at byte %d", ErrCorrupt, v, r.pos-4)
	}
	return int(v), nil
}

func (r *reader) offset() (int, error) {
	v, err := r.int32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrCorrupt, v)
	}
	return int(v), nil
}

func (r *reader) string() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	if len(r.data)-r.pos < n {
		return "", fmt.Errorf("%w: string of %d bytes exceeds remaining %d", ErrCorrupt, n, len(r.data)-r.pos)
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrCorrupt)
	}
	return s, nil
}

// EncodeFileBindings serializes each BindingSet of a file, keyed by action.
func EncodeFileBindings(entries extraction.FileBindings) (map[extraction.CanonicalKey][]byte, error) {
	out := make(map[extraction.CanonicalKey][]byte, len(entries))
	for key, set := range entries {
		data, err := EncodeBindingSet(set)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}
