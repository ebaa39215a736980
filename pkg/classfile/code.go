package classfile

// parseCode decodes a Code attribute payload.
func parseCode(body *reader, pool ConstantPool) (*CodeAttribute, error) {
	c := &CodeAttribute{}
	var codeLength uint32
	if !body.s.ReadUint16(&c.MaxStack) || !body.s.ReadUint16(&c.MaxLocals) || !body.s.ReadUint32(&codeLength) {
		return nil, body.truncated("Code header")
	}

	var code []byte
	if uint64(codeLength) > uint64(len(body.s)) || !body.s.ReadBytes(&code, int(codeLength)) {
		return nil, body.fail(ErrTruncatedCode, "code array of %d bytes (%d available)", codeLength, len(body.s))
	}
	c.Code = clone(code)

	var n uint16
	if !body.s.ReadUint16(&n) {
		return nil, body.truncated("exception table length")
	}
	c.ExceptionHandlers = make([]ExceptionHandler, n)
	for i := range c.ExceptionHandlers {
		h := &c.ExceptionHandlers[i]
		if !body.s.ReadUint16(&h.StartPC) || !body.s.ReadUint16(&h.EndPC) ||
			!body.s.ReadUint16(&h.HandlerPC) || !body.s.ReadUint16(&h.CatchType) {
			return nil, body.truncated("exception table entry %d", i)
		}
	}

	attrs, err := readAttributes(body, pool, "Code", c.attribute)
	if err != nil {
		return nil, err
	}
	c.Attributes = attrs

	if !body.s.Empty() {
		return nil, body.fail(ErrAttributeLength, "Code attribute has %d trailing bytes", len(body.s))
	}
	return c, nil
}

func (c *CodeAttribute) attribute(a *AttributeInfo, body *reader) error {
	switch a.Name {
	case "LineNumberTable":
		var n uint16
		if !body.s.ReadUint16(&n) {
			return body.truncated("LineNumberTable length")
		}
		for i := 0; i < int(n); i++ {
			var ln LineNumber
			if !body.s.ReadUint16(&ln.StartPC) || !body.s.ReadUint16(&ln.Line) {
				return body.truncated("LineNumberTable entry %d", i)
			}
			c.LineNumbers = append(c.LineNumbers, ln)
		}

	case "LocalVariableTable":
		var n uint16
		if !body.s.ReadUint16(&n) {
			return body.truncated("LocalVariableTable length")
		}
		for i := 0; i < int(n); i++ {
			var lv LocalVariable
			if !body.s.ReadUint16(&lv.StartPC) || !body.s.ReadUint16(&lv.Length) ||
				!body.s.ReadUint16(&lv.NameIndex) || !body.s.ReadUint16(&lv.DescriptorIndex) ||
				!body.s.ReadUint16(&lv.Slot) {
				return body.truncated("LocalVariableTable entry %d", i)
			}
			c.LocalVariables = append(c.LocalVariables, lv)
		}

	case "StackMapTable":
		if c.StackMapTable != nil || c.StackMap != nil {
			return nil
		}
		frames, err := parseStackMapTable(body)
		if err != nil {
			return err
		}
		c.StackMapTable = frames

	case "StackMap":
		if c.StackMapTable != nil || c.StackMap != nil {
			return nil
		}
		entries, err := parseStackMap(body)
		if err != nil {
			return err
		}
		c.StackMap = entries

	default:
		return nil
	}

	if err := expectConsumed(a, body); err != nil {
		return err
	}
	a.Recognized = true
	return nil
}
