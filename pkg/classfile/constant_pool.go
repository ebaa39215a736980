package classfile

import (
	"fmt"
	"math"
	"unicode/utf16"

	"golang.org/x/crypto/cryptobyte"
)

// Constant pool tags
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

// ConstantPool is 1-indexed: slot 0 and the slot after each Long or
// Double are nil.
type ConstantPool []ConstantPoolEntry

type ConstantUtf8 struct {
	Value string
}

type ConstantInteger struct {
	Value int32
}

type ConstantFloat struct {
	Value float32
}

type ConstantLong struct {
	Value int64
}

type ConstantDouble struct {
	Value float64
}

type ConstantClass struct {
	NameIndex uint16
}

type ConstantString struct {
	StringIndex uint16
}

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

type ConstantMethodType struct {
	DescriptorIndex uint16
}

// ConstantDynamic covers both CONSTANT_Dynamic and CONSTANT_InvokeDynamic.
type ConstantDynamic struct {
	Invoke           bool
	BootstrapMethod  uint16
	NameAndTypeIndex uint16
}

// ConstantModule covers both CONSTANT_Module and CONSTANT_Package.
type ConstantModule struct {
	Package   bool
	NameIndex uint16
}

func (c *ConstantUtf8) Tag() uint8               { return TagUtf8 }
func (c *ConstantInteger) Tag() uint8            { return TagInteger }
func (c *ConstantFloat) Tag() uint8              { return TagFloat }
func (c *ConstantLong) Tag() uint8               { return TagLong }
func (c *ConstantDouble) Tag() uint8             { return TagDouble }
func (c *ConstantClass) Tag() uint8              { return TagClass }
func (c *ConstantString) Tag() uint8             { return TagString }
func (c *ConstantFieldref) Tag() uint8           { return TagFieldref }
func (c *ConstantMethodref) Tag() uint8          { return TagMethodref }
func (c *ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }
func (c *ConstantNameAndType) Tag() uint8        { return TagNameAndType }
func (c *ConstantMethodHandle) Tag() uint8       { return TagMethodHandle }
func (c *ConstantMethodType) Tag() uint8         { return TagMethodType }

func (c *ConstantDynamic) Tag() uint8 {
	if c.Invoke {
		return TagInvokeDynamic
	}
	return TagDynamic
}

func (c *ConstantModule) Tag() uint8 {
	if c.Package {
		return TagPackage
	}
	return TagModule
}

// memberRef is implemented by the three *ref entry kinds.
type memberRef interface {
	ConstantPoolEntry
	refs() (class, nameAndType uint16)
}

func (c *ConstantFieldref) refs() (uint16, uint16)           { return c.ClassIndex, c.NameAndTypeIndex }
func (c *ConstantMethodref) refs() (uint16, uint16)          { return c.ClassIndex, c.NameAndTypeIndex }
func (c *ConstantInterfaceMethodref) refs() (uint16, uint16) { return c.ClassIndex, c.NameAndTypeIndex }

// parseConstantPool reads constant_pool_count and the count-1 entries
// that follow it.
func parseConstantPool(r *reader) (ConstantPool, error) {
	var count uint16
	if !r.s.ReadUint16(&count) {
		return nil, r.truncated("constant pool count")
	}
	pool := make(ConstantPool, count)

	for i := 1; i < int(count); i++ {
		start := r.offset()
		var tag uint8
		if !r.s.ReadUint8(&tag) {
			return nil, r.truncated("constant pool tag at index %d", i)
		}

		ok := true
		switch tag {
		case TagUtf8:
			var b cryptobyte.String
			ok = r.s.ReadUint16LengthPrefixed(&b)
			pool[i] = &ConstantUtf8{Value: decodeModifiedUTF8(b)}

		case TagInteger:
			var v uint32
			ok = r.s.ReadUint32(&v)
			pool[i] = &ConstantInteger{Value: int32(v)}

		case TagFloat:
			var bits uint32
			ok = r.s.ReadUint32(&bits)
			pool[i] = &ConstantFloat{Value: math.Float32frombits(bits)}

		case TagLong:
			var v uint64
			ok = r.s.ReadUint64(&v)
			pool[i] = &ConstantLong{Value: int64(v)}

		case TagDouble:
			var bits uint64
			ok = r.s.ReadUint64(&bits)
			pool[i] = &ConstantDouble{Value: math.Float64frombits(bits)}

		case TagClass:
			c := &ConstantClass{}
			ok = r.s.ReadUint16(&c.NameIndex)
			pool[i] = c

		case TagString:
			c := &ConstantString{}
			ok = r.s.ReadUint16(&c.StringIndex)
			pool[i] = c

		case TagFieldref:
			c := &ConstantFieldref{}
			ok = r.s.ReadUint16(&c.ClassIndex) && r.s.ReadUint16(&c.NameAndTypeIndex)
			pool[i] = c

		case TagMethodref:
			c := &ConstantMethodref{}
			ok = r.s.ReadUint16(&c.ClassIndex) && r.s.ReadUint16(&c.NameAndTypeIndex)
			pool[i] = c

		case TagInterfaceMethodref:
			c := &ConstantInterfaceMethodref{}
			ok = r.s.ReadUint16(&c.ClassIndex) && r.s.ReadUint16(&c.NameAndTypeIndex)
			pool[i] = c

		case TagNameAndType:
			c := &ConstantNameAndType{}
			ok = r.s.ReadUint16(&c.NameIndex) && r.s.ReadUint16(&c.DescriptorIndex)
			pool[i] = c

		case TagMethodHandle:
			c := &ConstantMethodHandle{}
			ok = r.s.ReadUint8(&c.ReferenceKind) && r.s.ReadUint16(&c.ReferenceIndex)
			pool[i] = c

		case TagMethodType:
			c := &ConstantMethodType{}
			ok = r.s.ReadUint16(&c.DescriptorIndex)
			pool[i] = c

		case TagDynamic, TagInvokeDynamic:
			c := &ConstantDynamic{Invoke: tag == TagInvokeDynamic}
			ok = r.s.ReadUint16(&c.BootstrapMethod) && r.s.ReadUint16(&c.NameAndTypeIndex)
			pool[i] = c

		case TagModule, TagPackage:
			c := &ConstantModule{Package: tag == TagPackage}
			ok = r.s.ReadUint16(&c.NameIndex)
			pool[i] = c

		default:
			return nil, &FormatError{Offset: start, Kind: ErrConstantTag, What: fmt.Sprintf("constant pool entry %d (tag %d)", i, tag)}
		}
		if !ok {
			return nil, r.truncated("constant pool entry %d (%s)", i, TagName(tag))
		}
		if tag == TagLong || tag == TagDouble {
			i++ // the next slot is reserved
		}
	}

	return pool, nil
}

// decodeModifiedUTF8 decodes the class-file flavour of UTF-8: NUL is two
// bytes and supplementary characters are encoded surrogate halves.
// Malformed sequences become U+FFFD.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c != 0 && c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}

func (p ConstantPool) entry(index uint16, want string) (ConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(p) || p[index] == nil {
		return nil, &IndexError{Index: int(index), Want: want}
	}
	return p[index], nil
}

// Tag returns the tag of the entry at index, or 0 if there is none.
func (p ConstantPool) Tag(index uint16) uint8 {
	if int(index) >= len(p) || p[index] == nil {
		return 0
	}
	return p[index].Tag()
}

// UTF8 returns the Utf8 string at the given constant pool index.
func (p ConstantPool) UTF8(index uint16) (string, error) {
	e, err := p.entry(index, "Utf8")
	if err != nil {
		return "", err
	}
	u, ok := e.(*ConstantUtf8)
	if !ok {
		return "", &IndexError{Index: int(index), Want: "Utf8", Tag: e.Tag()}
	}
	return u.Value, nil
}

// ClassName returns the internal name referenced by a CONSTANT_Class entry.
func (p ConstantPool) ClassName(index uint16) (string, error) {
	e, err := p.entry(index, "Class")
	if err != nil {
		return "", err
	}
	c, ok := e.(*ConstantClass)
	if !ok {
		return "", &IndexError{Index: int(index), Want: "Class", Tag: e.Tag()}
	}
	return p.UTF8(c.NameIndex)
}

// NameAndType resolves a CONSTANT_NameAndType entry.
func (p ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := p.entry(index, "NameAndType")
	if err != nil {
		return "", "", err
	}
	nat, ok := e.(*ConstantNameAndType)
	if !ok {
		return "", "", &IndexError{Index: int(index), Want: "NameAndType", Tag: e.Tag()}
	}
	if name, err = p.UTF8(nat.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = p.UTF8(nat.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MemberRef holds a resolved field, method or interface method reference.
type MemberRef struct {
	ClassName  string
	Name       string
	Descriptor string
}

// Ref resolves a Fieldref, Methodref or InterfaceMethodref entry.
func (p ConstantPool) Ref(index uint16) (MemberRef, error) {
	e, err := p.entry(index, "member reference")
	if err != nil {
		return MemberRef{}, err
	}
	ref, ok := e.(memberRef)
	if !ok {
		return MemberRef{}, &IndexError{Index: int(index), Want: "member reference", Tag: e.Tag()}
	}
	classIndex, natIndex := ref.refs()

	var m MemberRef
	if m.ClassName, err = p.ClassName(classIndex); err != nil {
		return MemberRef{}, err
	}
	if m.Name, m.Descriptor, err = p.NameAndType(natIndex); err != nil {
		return MemberRef{}, err
	}
	return m, nil
}
