package classfile

import (
	"fmt"

	"github.com/daimatz/gojavap/pkg/log"
)

// attributeHandler decodes a recognised attribute from its payload and
// marks it Recognized. Unrecognised attributes are left alone.
type attributeHandler func(a *AttributeInfo, body *reader) error

// readAttributes reads an attributes_count-prefixed list. Each payload is
// cut out by its declared length before the handler sees it, so a handler
// can never read into the next attribute.
func readAttributes(r *reader, pool ConstantPool, owner string, handle attributeHandler) ([]AttributeInfo, error) {
	var count uint16
	if !r.s.ReadUint16(&count) {
		return nil, r.truncated("%s attributes count", owner)
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		a := &attrs[i]
		var length uint32
		if !r.s.ReadUint16(&a.NameIndex) || !r.s.ReadUint32(&length) {
			return nil, r.truncated("%s attribute %d header", owner, i)
		}
		body, ok := r.sub(length)
		if !ok {
			return nil, r.truncated("%s attribute %d payload (%d bytes)", owner, i, length)
		}
		a.Data = clone(body.s)
		a.Name, _ = pool.UTF8(a.NameIndex)

		if err := handle(a, body); err != nil {
			return nil, fmt.Errorf("%s attribute %s: %w", owner, a.Name, err)
		}
		if !a.Recognized {
			log.Debug(log.ClassFile, "keeping unrecognized attribute", "owner", owner, "name", a.Name, "length", length)
		}
	}
	return attrs, nil
}

func expectLength(a *AttributeInfo, body *reader, n int) error {
	if len(body.s) != n {
		return &FormatError{
			Offset: body.base - 4,
			Kind:   ErrAttributeLength,
			What:   fmt.Sprintf("%s attribute length %d (expected %d)", a.Name, len(body.s), n),
		}
	}
	return nil
}

func expectConsumed(a *AttributeInfo, body *reader) error {
	if !body.s.Empty() {
		return body.fail(ErrAttributeLength, "%s attribute has %d trailing bytes", a.Name, len(body.s))
	}
	return nil
}

func (f *FieldInfo) attribute(a *AttributeInfo, body *reader) error {
	switch a.Name {
	case "ConstantValue":
		if err := expectLength(a, body, 2); err != nil {
			return err
		}
		body.s.ReadUint16(&f.ConstantValue)
	case "Synthetic":
		if err := expectLength(a, body, 0); err != nil {
			return err
		}
		f.Synthetic = true
	case "Deprecated":
		if err := expectLength(a, body, 0); err != nil {
			return err
		}
		f.Deprecated = true
	default:
		return nil
	}
	a.Recognized = true
	return nil
}

func (m *MethodInfo) attribute(pool ConstantPool) attributeHandler {
	return func(a *AttributeInfo, body *reader) error {
		switch a.Name {
		case "Code":
			if m.Code != nil {
				return nil
			}
			code, err := parseCode(body, pool)
			if err != nil {
				return err
			}
			m.Code = code
		case "Exceptions":
			list, err := body.indexList("exception index")
			if err != nil {
				return err
			}
			if err := expectConsumed(a, body); err != nil {
				return err
			}
			if m.Exceptions == nil {
				m.Exceptions = list
			} else {
				m.Exceptions = append(m.Exceptions, list...)
			}
		case "Synthetic":
			if err := expectLength(a, body, 0); err != nil {
				return err
			}
			m.Synthetic = true
		case "Deprecated":
			if err := expectLength(a, body, 0); err != nil {
				return err
			}
			m.Deprecated = true
		default:
			return nil
		}
		a.Recognized = true
		return nil
	}
}

func (cf *ClassFile) classAttribute(a *AttributeInfo, body *reader) error {
	switch a.Name {
	case "SourceFile":
		if err := expectLength(a, body, 2); err != nil {
			return err
		}
		body.s.ReadUint16(&cf.SourceFile)
	case "InnerClasses":
		var n uint16
		if !body.s.ReadUint16(&n) || len(body.s) != 8*int(n) {
			return &FormatError{
				Offset: body.base - 4,
				Kind:   ErrAttributeLength,
				What:   fmt.Sprintf("InnerClasses attribute length %d (expected %d)", len(a.Data), 2+8*int(n)),
			}
		}
		for i := 0; i < int(n); i++ {
			var ic InnerClass
			body.s.ReadUint16(&ic.InnerClassInfo)
			body.s.ReadUint16(&ic.OuterClassInfo)
			body.s.ReadUint16(&ic.InnerName)
			body.s.ReadUint16(&ic.AccessFlags)
			cf.InnerClasses = append(cf.InnerClasses, ic)
		}
	default:
		return nil
	}
	a.Recognized = true
	return nil
}
