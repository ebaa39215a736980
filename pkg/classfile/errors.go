package classfile

import (
	"errors"
	"fmt"
)

// Fatal decode conditions. A *FormatError wraps exactly one of these.
var (
	ErrBadMagic        = errors.New("invalid magic number")
	ErrTruncated       = errors.New("unexpected end of class file")
	ErrTruncatedCode   = errors.New("code array shorter than code_length")
	ErrConstantTag     = errors.New("unknown constant pool tag")
	ErrFrameType       = errors.New("unrecognized stack map frame type")
	ErrAttributeLength = errors.New("attribute length does not match its contents")
)

// ErrMalformedIndex is wrapped by every *IndexError. Resolvers return it;
// decoding never does.
var ErrMalformedIndex = errors.New("malformed constant pool index")

// FormatError reports a structural problem that makes the rest of the
// class file untrustworthy.
type FormatError struct {
	Offset int    // byte offset from the start of the class file
	Kind   error  // one of the Err* sentinels above
	What   string // structure being read, e.g. "method 2 attribute 0 length"
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.What, e.Offset, e.Kind)
}

func (e *FormatError) Unwrap() error { return e.Kind }

// IndexError reports a constant pool reference that does not resolve.
type IndexError struct {
	Index int
	Want  string // expected entry kind
	Tag   uint8  // tag actually found, 0 when out of range or reserved
}

func (e *IndexError) Error() string {
	if e.Tag == 0 || e.Want == "" {
		return fmt.Sprintf("invalid constant pool index %d", e.Index)
	}
	return fmt.Sprintf("constant pool index %d is not %s (tag=%d)", e.Index, e.Want, e.Tag)
}

func (e *IndexError) Unwrap() error { return ErrMalformedIndex }
