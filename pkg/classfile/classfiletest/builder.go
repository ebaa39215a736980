// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// Builder collects constants, members and attributes and encodes them as
// a class file. Constants are interned, so asking twice for the same
// entry returns the same index.
type Builder struct {
	Minor, Major uint16
	Access       uint16
	This, Super  uint16
	Interfaces   []uint16

	entries  [][]byte
	next     int
	interned map[string]uint16

	fields  [][]byte
	methods [][]byte
	attrs   []Attribute
}

// Attribute is an encoded attribute_info structure.
type Attribute []byte

// New starts a public class named name (internal form) that extends
// java/lang/Object. Pass an empty super name to leave super_class at 0.
func New(name, super string) *Builder {
	b := &Builder{
		Major:    50,
		Access:   0x0021,
		next:     1,
		interned: make(map[string]uint16),
	}
	b.This = b.Class(name)
	if super != "" {
		b.Super = b.Class(super)
	}
	return b
}

// Count is the constant_pool_count the encoded file will carry.
func (b *Builder) Count() int { return b.next }

func (b *Builder) add(key string, slots int, encode func(*cryptobyte.Builder)) uint16 {
	if key != "" {
		if idx, ok := b.interned[key]; ok {
			return idx
		}
	}
	var e cryptobyte.Builder
	encode(&e)
	idx := uint16(b.next)
	b.entries = append(b.entries, e.BytesOrPanic())
	b.next += slots
	if key != "" {
		b.interned[key] = idx
	}
	return idx
}

func (b *Builder) Utf8(s string) uint16 {
	return b.add("utf8:"+s, 1, func(e *cryptobyte.Builder) {
		e.AddUint8(1)
		e.AddUint16LengthPrefixed(func(e *cryptobyte.Builder) { e.AddBytes([]byte(s)) })
	})
}

func (b *Builder) Int(v int32) uint16 {
	return b.add(fmt.Sprintf("int:%d", v), 1, func(e *cryptobyte.Builder) {
		e.AddUint8(3)
		e.AddUint32(uint32(v))
	})
}

func (b *Builder) Float(v float32) uint16 {
	return b.add(fmt.Sprintf("float:%x", math.Float32bits(v)), 1, func(e *cryptobyte.Builder) {
		e.AddUint8(4)
		e.AddUint32(math.Float32bits(v))
	})
}

func (b *Builder) Long(v int64) uint16 {
	return b.add(fmt.Sprintf("long:%d", v), 2, func(e *cryptobyte.Builder) {
		e.AddUint8(5)
		e.AddUint64(uint64(v))
	})
}

func (b *Builder) Double(v float64) uint16 {
	return b.add(fmt.Sprintf("double:%x", math.Float64bits(v)), 2, func(e *cryptobyte.Builder) {
		e.AddUint8(6)
		e.AddUint64(math.Float64bits(v))
	})
}

func (b *Builder) Class(name string) uint16 {
	n := b.Utf8(name)
	return b.add("class:"+name, 1, func(e *cryptobyte.Builder) {
		e.AddUint8(7)
		e.AddUint16(n)
	})
}

func (b *Builder) String(s string) uint16 {
	n := b.Utf8(s)
	return b.add("string:"+s, 1, func(e *cryptobyte.Builder) {
		e.AddUint8(8)
		e.AddUint16(n)
	})
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	return b.add("nat:"+name+":"+desc, 1, func(e *cryptobyte.Builder) {
		e.AddUint8(12)
		e.AddUint16(n)
		e.AddUint16(d)
	})
}

func (b *Builder) ref(tag uint8, class, name, desc string) uint16 {
	c, nat := b.Class(class), b.NameAndType(name, desc)
	return b.add(fmt.Sprintf("ref%d:%s.%s:%s", tag, class, name, desc), 1, func(e *cryptobyte.Builder) {
		e.AddUint8(tag)
		e.AddUint16(c)
		e.AddUint16(nat)
	})
}

func (b *Builder) Fieldref(class, name, desc string) uint16 { return b.ref(9, class, name, desc) }

func (b *Builder) Methodref(class, name, desc string) uint16 { return b.ref(10, class, name, desc) }

func (b *Builder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.ref(11, class, name, desc)
}

// Raw appends an entry with an arbitrary tag and payload and is never
// interned. slots is 2 for entries that should reserve the next index.
func (b *Builder) Raw(slots int, tag uint8, payload ...byte) uint16 {
	return b.add("", slots, func(e *cryptobyte.Builder) {
		e.AddUint8(tag)
		e.AddBytes(payload)
	})
}

// Attr encodes an attribute with an arbitrary payload.
func (b *Builder) Attr(name string, data []byte) Attribute {
	n := b.Utf8(name)
	var e cryptobyte.Builder
	e.AddUint16(n)
	e.AddUint32LengthPrefixed(func(e *cryptobyte.Builder) { e.AddBytes(data) })
	return e.BytesOrPanic()
}

func (b *Builder) SourceFile(name string) Attribute {
	return b.Attr("SourceFile", U2(b.Utf8(name)))
}

func (b *Builder) ConstantValue(index uint16) Attribute {
	return b.Attr("ConstantValue", U2(index))
}

func (b *Builder) Exceptions(classes ...string) Attribute {
	vals := []uint16{uint16(len(classes))}
	for _, c := range classes {
		vals = append(vals, b.Class(c))
	}
	return b.Attr("Exceptions", U2(vals...))
}

// Handler is an exception table row.
type Handler struct {
	Start, End, Handler, CatchType uint16
}

func (b *Builder) Code(maxStack, maxLocals uint16, code []byte, handlers []Handler, attrs ...Attribute) Attribute {
	var e cryptobyte.Builder
	e.AddUint16(maxStack)
	e.AddUint16(maxLocals)
	e.AddUint32LengthPrefixed(func(e *cryptobyte.Builder) { e.AddBytes(code) })
	e.AddUint16(uint16(len(handlers)))
	for _, h := range handlers {
		e.AddUint16(h.Start)
		e.AddUint16(h.End)
		e.AddUint16(h.Handler)
		e.AddUint16(h.CatchType)
	}
	addAttributes(&e, attrs)
	return b.Attr("Code", e.BytesOrPanic())
}

// LineNumbers encodes a LineNumberTable from (start_pc, line) pairs.
func (b *Builder) LineNumbers(pairs ...[2]uint16) Attribute {
	vals := []uint16{uint16(len(pairs))}
	for _, p := range pairs {
		vals = append(vals, p[0], p[1])
	}
	return b.Attr("LineNumberTable", U2(vals...))
}

// LocalVar is a LocalVariableTable row.
type LocalVar struct {
	Start, Length uint16
	Name, Desc    string
	Slot          uint16
}

func (b *Builder) LocalVariables(vars ...LocalVar) Attribute {
	vals := []uint16{uint16(len(vars))}
	for _, v := range vars {
		vals = append(vals, v.Start, v.Length, b.Utf8(v.Name), b.Utf8(v.Desc), v.Slot)
	}
	return b.Attr("LocalVariableTable", U2(vals...))
}

func member(access, name, desc uint16, attrs []Attribute) []byte {
	var e cryptobyte.Builder
	e.AddUint16(access)
	e.AddUint16(name)
	e.AddUint16(desc)
	addAttributes(&e, attrs)
	return e.BytesOrPanic()
}

func addAttributes(e *cryptobyte.Builder, attrs []Attribute) {
	e.AddUint16(uint16(len(attrs)))
	for _, a := range attrs {
		e.AddBytes(a)
	}
}

func (b *Builder) Field(access uint16, name, desc string, attrs ...Attribute) {
	b.fields = append(b.fields, member(access, b.Utf8(name), b.Utf8(desc), attrs))
}

func (b *Builder) Method(access uint16, name, desc string, attrs ...Attribute) {
	b.methods = append(b.methods, member(access, b.Utf8(name), b.Utf8(desc), attrs))
}

// ClassAttr appends class-level attributes.
func (b *Builder) ClassAttr(attrs ...Attribute) {
	b.attrs = append(b.attrs, attrs...)
}

// Bytes encodes the class file.
func (b *Builder) Bytes() []byte {
	var e cryptobyte.Builder
	e.AddUint32(0xCAFEBABE)
	e.AddUint16(b.Minor)
	e.AddUint16(b.Major)
	e.AddUint16(uint16(b.next))
	for _, entry := range b.entries {
		e.AddBytes(entry)
	}
	e.AddUint16(b.Access)
	e.AddUint16(b.This)
	e.AddUint16(b.Super)
	e.AddBytes(U2(append([]uint16{uint16(len(b.Interfaces))}, b.Interfaces...)...))
	e.AddUint16(uint16(len(b.fields)))
	for _, f := range b.fields {
		e.AddBytes(f)
	}
	e.AddUint16(uint16(len(b.methods)))
	for _, m := range b.methods {
		e.AddBytes(m)
	}
	addAttributes(&e, b.attrs)
	return e.BytesOrPanic()
}

// U2 encodes big-endian u2 values.
func U2(vals ...uint16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = append(out, byte(v>>8), byte(v))
	}
	return out
}

// U4 encodes big-endian u4 values.
func U4(vals ...uint32) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return out
}
