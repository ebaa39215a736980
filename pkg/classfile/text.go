package classfile

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var tagNames = [...]string{
	TagUtf8:               "Asciz",
	TagInteger:            "int",
	TagFloat:              "float",
	TagLong:               "long",
	TagDouble:             "double",
	TagClass:              "class",
	TagString:             "String",
	TagFieldref:           "Field",
	TagMethodref:          "Method",
	TagInterfaceMethodref: "InterfaceMethod",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

// TagName returns the listing name of a constant pool tag.
func TagName(tag uint8) string {
	if int(tag) < len(tagNames) && tagNames[tag] != "" {
		return tagNames[tag]
	}
	return "BOGUS_TAG:" + strconv.Itoa(int(tag))
}

var refKindNames = [...]string{
	1: "REF_getField",
	2: "REF_getStatic",
	3: "REF_putField",
	4: "REF_putStatic",
	5: "REF_invokeVirtual",
	6: "REF_invokeStatic",
	7: "REF_invokeSpecial",
	8: "REF_newInvokeSpecial",
	9: "REF_invokeInterface",
}

// RefKindName names a MethodHandle reference kind.
func RefKindName(kind uint8) string {
	if int(kind) < len(refKindNames) && refKindNames[kind] != "" {
		return refKindNames[kind]
	}
	return "REF_" + strconv.Itoa(int(kind))
}

// JavaName returns name unchanged when it is a slash-separated sequence
// of identifiers, and quoted otherwise ("<init>", "[I", "Foo.java").
func JavaName(name string) string {
	if name == "" {
		return `""`
	}
	prev := '/'
	for _, c := range name {
		if prev == '/' {
			if !identStart(c) {
				return `"` + name + `"`
			}
		} else if c != '/' && !identPart(c) {
			return `"` + name + `"`
		}
		prev = c
	}
	return name
}

func identStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.In(c, unicode.Nl, unicode.Sc, unicode.Pc)
}

func identPart(c rune) bool {
	return identStart(c) || unicode.IsDigit(c) || unicode.In(c, unicode.Mn, unicode.Mc)
}

// TagString names the tag of the entry at index for the pool listing.
func (p ConstantPool) TagString(index int) string {
	if index <= 0 || index >= len(p) {
		return "Incorrect CP index:" + strconv.Itoa(index)
	}
	if p[index] == nil {
		return TagName(0)
	}
	return TagName(p[index].Tag())
}

// Text renders the value of the entry at index. It never fails: broken
// references produce placeholders such as "#0", "<NULL>",
// "<Incorrect CP index:N>" and "<invalid constant pool ref:N>". Each
// reference is followed through a resolver for the tag it must have, so
// reference cycles cannot recurse.
func (p ConstantPool) Text(index int) string {
	if index == 0 {
		return "#0"
	}
	if index < 0 || index >= len(p) {
		return "<Incorrect CP index:" + strconv.Itoa(index) + ">"
	}
	switch e := p[index].(type) {
	case nil:
		return "<NULL>"
	case *ConstantUtf8:
		return escapeString(e.Value)
	case *ConstantInteger:
		return strconv.Itoa(int(e.Value))
	case *ConstantFloat:
		return javaFloat(float64(e.Value), 32) + "f"
	case *ConstantLong:
		return strconv.FormatInt(e.Value, 10) + "l"
	case *ConstantDouble:
		return javaFloat(e.Value, 64) + "d"
	case *ConstantClass:
		return JavaName(p.ClassText(index))
	case *ConstantString:
		return p.UTF8Text(int(e.StringIndex))
	case memberRef:
		return p.refText(e)
	case *ConstantNameAndType:
		return p.natBody(e)
	case *ConstantMethodHandle:
		return RefKindName(e.ReferenceKind) + " " + p.memberRefText(int(e.ReferenceIndex))
	case *ConstantMethodType:
		return p.UTF8Text(int(e.DescriptorIndex))
	case *ConstantDynamic:
		return "#" + strconv.Itoa(int(e.BootstrapMethod)) + ":" + p.NameAndTypeText(int(e.NameAndTypeIndex))
	case *ConstantModule:
		return p.Name(int(e.NameIndex))
	default:
		return "UnknownTag"
	}
}

// UTF8Text renders the Utf8 entry at index, or a placeholder when index
// names anything else.
func (p ConstantPool) UTF8Text(index int) string {
	if index < 0 || index >= len(p) {
		return invalidRef(&IndexError{Index: index, Want: "Utf8"})
	}
	s, err := p.UTF8(uint16(index))
	if err != nil {
		return invalidRef(err)
	}
	return escapeString(s)
}

// NameAndTypeText renders "name:descriptor" for a NameAndType entry, or a
// placeholder when index names anything else.
func (p ConstantPool) NameAndTypeText(index int) string {
	if index < 0 || index >= len(p) {
		return invalidRef(&IndexError{Index: index, Want: "NameAndType"})
	}
	nat, ok := p[index].(*ConstantNameAndType)
	if !ok {
		return invalidRef(&IndexError{Index: index, Want: "NameAndType", Tag: p.Tag(uint16(index))})
	}
	return p.natBody(nat)
}

func (p ConstantPool) natBody(nat *ConstantNameAndType) string {
	return p.Name(int(nat.NameIndex)) + ":" + p.UTF8Text(int(nat.DescriptorIndex))
}

func (p ConstantPool) refText(ref memberRef) string {
	class, nat := ref.refs()
	return JavaName(p.ClassText(int(class))) + "." + p.NameAndTypeText(int(nat))
}

func (p ConstantPool) memberRefText(index int) string {
	if index < 0 || index >= len(p) {
		return invalidRef(&IndexError{Index: index, Want: "member reference"})
	}
	ref, ok := p[index].(memberRef)
	if !ok {
		return invalidRef(&IndexError{Index: index, Want: "member reference", Tag: p.Tag(uint16(index))})
	}
	return p.refText(ref)
}

// invalidRef turns a resolver error into a placeholder: "index" when
// nothing is stored there, "ref" when the entry has the wrong tag.
func invalidRef(err error) string {
	var ie *IndexError
	if !errors.As(err, &ie) {
		return "<" + err.Error() + ">"
	}
	if ie.Tag == 0 {
		return "<invalid constant pool index:" + strconv.Itoa(ie.Index) + ">"
	}
	return "<invalid constant pool ref:" + strconv.Itoa(ie.Index) + ">"
}

// Name renders a Utf8 entry used as a member or file name.
func (p ConstantPool) Name(index int) string {
	if index < 0 || index >= len(p) {
		return "<invalid constant pool index:" + strconv.Itoa(index) + ">"
	}
	u, ok := p[index].(*ConstantUtf8)
	if !ok {
		return "<invalid constant pool ref:" + strconv.Itoa(index) + ">"
	}
	return JavaName(u.Value)
}

// ClassText returns the internal name behind a Class entry, or "#N"
// naming the last index that could be followed.
func (p ConstantPool) ClassText(index int) string {
	if index <= 0 || index >= len(p) {
		return "#" + strconv.Itoa(index)
	}
	c, ok := p[index].(*ConstantClass)
	if !ok {
		return "#" + strconv.Itoa(index)
	}
	name, err := p.UTF8(c.NameIndex)
	if err != nil {
		return "#" + strconv.Itoa(int(c.NameIndex))
	}
	return name
}

// Constant renders a reference the way instruction operands and stack map
// entries show it: the tag name followed by the value. Member references
// into this class omit the class part.
func (cf *ClassFile) Constant(index int) string {
	p := cf.ConstantPool
	if index == 0 {
		return "#0"
	}
	if index < 0 || index >= len(p) {
		return "#" + strconv.Itoa(index)
	}
	if p[index] == nil {
		return TagName(0) + " <NULL>"
	}
	tag := TagName(p[index].Tag())
	if ref, ok := p[index].(memberRef); ok {
		if class, nat := ref.refs(); class == cf.ThisClass {
			return tag + " " + p.NameAndTypeText(int(nat))
		}
	}
	return tag + " " + p.Text(index)
}

func escapeString(s string) string {
	if !strings.ContainsAny(s, "\t\n\r\"") {
		return s
	}
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// javaFloat formats v like Double.toString / Float.toString: plain decimal
// notation between 10^-3 and 10^7, computerized scientific notation
// outside it, and always at least one fractional digit.
func javaFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(v); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'e', -1, bitSize)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(n)
}
