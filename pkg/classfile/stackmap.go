package classfile

import "fmt"

// Verification type kinds.
const (
	ItemTop               = 0
	ItemInteger           = 1
	ItemFloat             = 2
	ItemDouble            = 3
	ItemLong              = 4
	ItemNull              = 5
	ItemUninitializedThis = 6
	ItemObject            = 7
	ItemUninitialized     = 8
)

// VerificationType packs a kind byte with its operand as
// (operand << 8) | kind. The operand is a Class pool index for
// ItemObject and a bytecode offset for ItemUninitialized.
type VerificationType uint32

func NewVerificationType(kind uint8, operand uint16) VerificationType {
	return VerificationType(operand)<<8 | VerificationType(kind)
}

func (v VerificationType) Kind() uint8     { return uint8(v) }
func (v VerificationType) Operand() uint16 { return uint16(v >> 8) }

// FrameKind classifies a StackMapTable frame by its frame_type band.
type FrameKind uint8

const (
	FrameSame                         FrameKind = iota // 0-63
	FrameSameLocals1StackItem                          // 64-127
	FrameSameLocals1StackItemExtended                  // 247
	FrameChop                                          // 248-250
	FrameSameExtended                                  // 251
	FrameAppend                                        // 252-254
	FrameFull                                          // 255
)

var frameKindNames = [...]string{
	FrameSame:                         "same",
	FrameSameLocals1StackItem:         "same_locals_1_stack_item",
	FrameSameLocals1StackItemExtended: "same_locals_1_stack_item_frame_extended",
	FrameChop:                         "chop",
	FrameSameExtended:                 "same_frame_extended",
	FrameAppend:                       "append",
	FrameFull:                         "full_frame",
}

func (k FrameKind) String() string {
	if int(k) < len(frameKindNames) {
		return frameKindNames[k]
	}
	return fmt.Sprintf("FrameKind(%d)", k)
}

// StackMapFrame is one entry of a StackMapTable attribute.
type StackMapFrame struct {
	Type        uint8
	Kind        FrameKind
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// StackMapEntry is one entry of the older StackMap attribute, which gives
// absolute offsets and complete lists.
type StackMapEntry struct {
	Offset uint16
	Locals []VerificationType
	Stack  []VerificationType
}

func parseStackMapTable(r *reader) ([]StackMapFrame, error) {
	var n uint16
	if !r.s.ReadUint16(&n) {
		return nil, r.truncated("StackMapTable number_of_entries")
	}
	frames := make([]StackMapFrame, n)
	for i := range frames {
		f := &frames[i]
		start := r.offset()
		if !r.s.ReadUint8(&f.Type) {
			return nil, r.truncated("stack map frame %d", i)
		}

		var err error
		switch t := f.Type; {
		case t < 64:
			f.Kind = FrameSame
			f.OffsetDelta = uint16(t)
		case t < 128:
			f.Kind = FrameSameLocals1StackItem
			f.OffsetDelta = uint16(t - 64)
			f.Stack, err = readVerificationTypes(r, 1, "stack")
		case t < 247:
			return nil, &FormatError{Offset: start, Kind: ErrFrameType, What: fmt.Sprintf("stack map frame %d (frame_type %d)", i, t)}
		case t == 247:
			f.Kind = FrameSameLocals1StackItemExtended
			if err = readOffsetDelta(r, f); err == nil {
				f.Stack, err = readVerificationTypes(r, 1, "stack")
			}
		case t < 251:
			f.Kind = FrameChop
			err = readOffsetDelta(r, f)
		case t == 251:
			f.Kind = FrameSameExtended
			err = readOffsetDelta(r, f)
		case t < 255:
			f.Kind = FrameAppend
			if err = readOffsetDelta(r, f); err == nil {
				f.Locals, err = readVerificationTypes(r, int(t)-251, "locals")
			}
		default:
			f.Kind = FrameFull
			if err = readOffsetDelta(r, f); err == nil {
				f.Locals, f.Stack, err = readLocalsAndStack(r)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("stack map frame %d: %w", i, err)
		}
	}
	return frames, nil
}

func readOffsetDelta(r *reader, f *StackMapFrame) error {
	if !r.s.ReadUint16(&f.OffsetDelta) {
		return r.truncated("offset_delta")
	}
	return nil
}

func parseStackMap(r *reader) ([]StackMapEntry, error) {
	var n uint16
	if !r.s.ReadUint16(&n) {
		return nil, r.truncated("StackMap number_of_entries")
	}
	entries := make([]StackMapEntry, n)
	for i := range entries {
		e := &entries[i]
		if !r.s.ReadUint16(&e.Offset) {
			return nil, r.truncated("stack map entry %d offset", i)
		}
		var err error
		if e.Locals, e.Stack, err = readLocalsAndStack(r); err != nil {
			return nil, fmt.Errorf("stack map entry %d: %w", i, err)
		}
	}
	return entries, nil
}

func readLocalsAndStack(r *reader) (locals, stack []VerificationType, err error) {
	var n uint16
	if !r.s.ReadUint16(&n) {
		return nil, nil, r.truncated("number_of_locals")
	}
	if locals, err = readVerificationTypes(r, int(n), "locals"); err != nil {
		return nil, nil, err
	}
	if !r.s.ReadUint16(&n) {
		return nil, nil, r.truncated("number_of_stack_items")
	}
	if stack, err = readVerificationTypes(r, int(n), "stack"); err != nil {
		return nil, nil, err
	}
	return locals, stack, nil
}

func readVerificationTypes(r *reader, n int, what string) ([]VerificationType, error) {
	out := make([]VerificationType, n)
	for i := range out {
		var kind uint8
		if !r.s.ReadUint8(&kind) {
			return nil, r.truncated("%s entry %d", what, i)
		}
		var operand uint16
		if kind == ItemObject || kind == ItemUninitialized {
			if !r.s.ReadUint16(&operand) {
				return nil, r.truncated("%s entry %d operand", what, i)
			}
		}
		out[i] = NewVerificationType(kind, operand)
	}
	return out, nil
}
