package classfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/daimatz/gojavap/pkg/log"
)

const classMagic = 0xCAFEBABE

// MaxMajorVersion is the newest class-file major version this package has
// been checked against. Newer files are still decoded.
const MaxMajorVersion = 68

// ParseFile reads and decodes a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Parse reads a whole .class file from r and decodes it.
func Parse(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class file: %w", err)
	}
	return Decode(data)
}

// Decode decodes a class file held in memory. The returned ClassFile does
// not alias data.
func Decode(data []byte) (*ClassFile, error) {
	r := newReader(data, 0)
	cf := &ClassFile{}

	if !r.s.ReadUint32(&cf.Magic) {
		return nil, r.truncated("magic number")
	}
	if cf.Magic != classMagic {
		return nil, &FormatError{Offset: 0, Kind: ErrBadMagic, What: fmt.Sprintf("magic number 0x%X (expected 0xCAFEBABE)", cf.Magic)}
	}
	if !r.s.ReadUint16(&cf.MinorVersion) || !r.s.ReadUint16(&cf.MajorVersion) {
		return nil, r.truncated("class file version")
	}
	if cf.MajorVersion > MaxMajorVersion {
		log.Debug(log.ClassFile, "class file version is newer than known", "major", cf.MajorVersion, "minor", cf.MinorVersion)
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.ConstantPool = pool

	if !r.s.ReadUint16(&cf.AccessFlags) || !r.s.ReadUint16(&cf.ThisClass) || !r.s.ReadUint16(&cf.SuperClass) {
		return nil, r.truncated("access flags, this_class and super_class")
	}

	if cf.Interfaces, err = r.indexList("interface"); err != nil {
		return nil, err
	}

	if cf.Fields, err = parseFields(r, pool); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	if cf.Methods, err = parseMethods(r, pool); err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	if cf.Attributes, err = readAttributes(r, pool, "class", cf.classAttribute); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	if !r.s.Empty() {
		log.Debug(log.ClassFile, "ignoring trailing bytes", "offset", r.offset(), "count", len(r.s))
	}
	return cf, nil
}

func parseFields(r *reader, pool ConstantPool) ([]FieldInfo, error) {
	var count uint16
	if !r.s.ReadUint16(&count) {
		return nil, r.truncated("fields count")
	}
	fields := make([]FieldInfo, count)
	for i := range fields {
		f := &fields[i]
		if !r.s.ReadUint16(&f.AccessFlags) || !r.s.ReadUint16(&f.NameIndex) || !r.s.ReadUint16(&f.DescriptorIndex) {
			return nil, r.truncated("field %d header", i)
		}
		f.Name, _ = pool.UTF8(f.NameIndex)
		f.Descriptor, _ = pool.UTF8(f.DescriptorIndex)

		attrs, err := readAttributes(r, pool, fmt.Sprintf("field %d", i), f.attribute)
		if err != nil {
			return nil, err
		}
		f.Attributes = attrs
	}
	return fields, nil
}

func parseMethods(r *reader, pool ConstantPool) ([]MethodInfo, error) {
	var count uint16
	if !r.s.ReadUint16(&count) {
		return nil, r.truncated("methods count")
	}
	methods := make([]MethodInfo, count)
	for i := range methods {
		m := &methods[i]
		if !r.s.ReadUint16(&m.AccessFlags) || !r.s.ReadUint16(&m.NameIndex) || !r.s.ReadUint16(&m.DescriptorIndex) {
			return nil, r.truncated("method %d header", i)
		}
		m.Name, _ = pool.UTF8(m.NameIndex)
		m.Descriptor, _ = pool.UTF8(m.DescriptorIndex)

		attrs, err := readAttributes(r, pool, fmt.Sprintf("method %d", i), m.attribute(pool))
		if err != nil {
			return nil, err
		}
		m.Attributes = attrs
	}
	return methods, nil
}

// ClassName returns the internal name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return bytes.Clone(b)
}
