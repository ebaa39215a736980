package classfile

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// reader walks a class file, or an attribute payload cut out of one, and
// reports failures with absolute offsets.
type reader struct {
	s    cryptobyte.String
	base int
	size int
}

func newReader(b []byte, base int) *reader {
	return &reader{s: cryptobyte.String(b), base: base, size: len(b)}
}

func (r *reader) offset() int { return r.base + r.size - len(r.s) }

func (r *reader) fail(kind error, format string, args ...any) error {
	return &FormatError{Offset: r.offset(), Kind: kind, What: fmt.Sprintf(format, args...)}
}

func (r *reader) truncated(format string, args ...any) error {
	return r.fail(ErrTruncated, format, args...)
}

// sub splits off the next n bytes as a reader of their own. Offsets
// reported by the child stay relative to the whole class file.
func (r *reader) sub(n uint32) (*reader, bool) {
	if uint64(n) > uint64(len(r.s)) {
		return nil, false
	}
	start := r.offset()
	var b []byte
	if !r.s.ReadBytes(&b, int(n)) {
		return nil, false
	}
	return newReader(b, start), true
}

// indexList reads a u2 count followed by that many u2 values. The result
// is never nil, so an empty list stays distinguishable from an absent one.
func (r *reader) indexList(what string) ([]uint16, error) {
	var n uint16
	if !r.s.ReadUint16(&n) {
		return nil, r.truncated("%s count", what)
	}
	out := make([]uint16, n)
	for i := range out {
		if !r.s.ReadUint16(&out[i]) {
			return nil, r.truncated("%s %d", what, i)
		}
	}
	return out, nil
}
