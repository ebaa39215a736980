// Package bytecode decodes JVM method bodies into printable instructions.
package bytecode

import (
	"encoding/binary"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// ConstantResolver renders the constant pool entry an operand refers to.
// *classfile.ClassFile implements it.
type ConstantResolver interface {
	Constant(index int) string
}

// Instruction is one decoded instruction. Operands holds the text printed
// after the mnemonic, including its leading separator.
type Instruction struct {
	Offset   int
	Length   int
	Opcode   int // prefix<<8 | opcode for wide, nonpriv and priv forms
	Mnemonic string
	Operands string
}

func (in Instruction) String() string { return in.Mnemonic + in.Operands }

// Disassembler walks a code array one instruction at a time. Lengths of
// the returned instructions always add up to the length of the array:
// an instruction whose operands would run past the end is reported as
// "bytecode N" and takes one byte.
type Disassembler struct {
	code []byte
	pc   int
	pool ConstantResolver
}

// NewDisassembler returns a cursor over code. pool may be nil, in which
// case constant operands are shown by index only.
func NewDisassembler(code []byte, pool ConstantResolver) *Disassembler {
	return &Disassembler{code: code, pool: pool}
}

// Next decodes the instruction at the cursor and advances past it.
func (d *Disassembler) Next() (Instruction, bool) {
	if d.pc >= len(d.code) {
		return Instruction{}, false
	}
	in := d.decode(d.pc)
	d.pc += in.Length
	return in, true
}

// All yields the remaining instructions.
func (d *Disassembler) All() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		for {
			in, ok := d.Next()
			if !ok || !yield(in) {
				return
			}
		}
	}
}

// Disassemble decodes a whole code array.
func Disassemble(code []byte, pool ConstantResolver) []Instruction {
	return slices.Collect(NewDisassembler(code, pool).All())
}

func (d *Disassembler) decode(pc int) Instruction {
	op := d.code[pc]
	bogus := Instruction{Offset: pc, Length: 1, Opcode: int(op), Mnemonic: "bytecode " + strconv.Itoa(int(op))}

	switch op {
	case OpNonpriv, OpPriv:
		if !d.has(pc, 2) {
			return bogus
		}
		op2 := d.code[pc+1]
		name, ok := ExtName(op, op2)
		if !ok {
			prefix := "nonpriv"
			if op == OpPriv {
				prefix = "priv"
			}
			name = prefix + " " + strconv.Itoa(int(op2))
		}
		return Instruction{Offset: pc, Length: 2, Opcode: int(op)<<8 | int(op2), Mnemonic: name}

	case OpWide:
		if !d.has(pc, 2) {
			return bogus
		}
		op2 := d.code[pc+1]
		name, ok := WideName(op2)
		n := 4
		if op2 == OpIinc {
			n = 6
		}
		if !ok || !d.has(pc, n) {
			return bogus
		}
		operands := " " + strconv.Itoa(d.u2(pc+2))
		if op2 == OpIinc {
			operands += ", " + strconv.Itoa(d.s2(pc+4))
		}
		return Instruction{Offset: pc, Length: n, Opcode: int(op)<<8 | int(op2), Mnemonic: name, Operands: operands}
	}

	name := Name(op)
	if name == "" {
		return bogus
	}
	in := Instruction{Offset: pc, Opcode: int(op), Mnemonic: name}

	switch op {
	case OpTableswitch:
		tb := align(pc + 1)
		if !d.has(tb, 12) {
			return bogus
		}
		def, low, high := d.s4(tb), d.s4(tb+4), d.s4(tb+8)
		if high < low {
			return bogus
		}
		in.Length = tb - pc + 16 + (high-low)*4
		if !d.has(pc, in.Length) {
			return bogus
		}
		var b strings.Builder
		b.WriteString("{ //" + strconv.Itoa(low) + " to " + strconv.Itoa(high))
		for i := 0; i <= high-low; i++ {
			b.WriteString("\n\t\t" + strconv.Itoa(low+i) + ": " + strconv.Itoa(pc+d.s4(tb+12+4*i)) + ";")
		}
		b.WriteString("\n\t\tdefault: " + strconv.Itoa(pc+def) + " }")
		in.Operands = b.String()
		return in

	case OpLookupswitch:
		tb := align(pc + 1)
		if !d.has(tb, 8) {
			return bogus
		}
		def, npairs := d.s4(tb), d.s4(tb+4)
		if npairs < 0 {
			return bogus
		}
		in.Length = tb - pc + (npairs+1)*8
		if !d.has(pc, in.Length) {
			return bogus
		}
		var b strings.Builder
		b.WriteString("{ //" + strconv.Itoa(npairs))
		for i := 1; i <= npairs; i++ {
			b.WriteString("\n\t\t" + strconv.Itoa(d.s4(tb+i*8)) + ": " + strconv.Itoa(pc+d.s4(tb+4+i*8)) + ";")
		}
		b.WriteString("\n\t\tdefault: " + strconv.Itoa(pc+def) + " }")
		in.Operands = b.String()
		return in
	}

	in.Length = Length(op)
	if !d.has(pc, in.Length) {
		return bogus
	}

	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore, OpRet:
		in.Operands = "\t" + strconv.Itoa(d.u1(pc+1))

	case OpIinc:
		in.Operands = "\t" + strconv.Itoa(d.u1(pc+1)) + ", " + strconv.Itoa(d.s1(pc+2))

	case OpNewarray:
		in.Operands = " " + arrayType(d.u1(pc+1))

	case OpBipush:
		in.Operands = "\t" + strconv.Itoa(d.s1(pc+1))

	case OpSipush:
		in.Operands = "\t" + strconv.Itoa(d.s2(pc+1))

	case OpLdc:
		in.Operands = d.constant(d.u1(pc+1), "")

	case OpLdcW, OpLdc2W, OpAnewarray, OpInstanceof, OpCheckcast, OpNew,
		OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
		OpInvokevirtual, OpInvokespecial, OpInvokestatic:
		in.Operands = d.constant(d.u2(pc+1), "")

	case OpInvokeinterface, OpMultianewarray:
		in.Operands = d.constant(d.u2(pc+1), strconv.Itoa(d.u1(pc+3)))

	case OpInvokedynamic:
		in.Operands = d.constant(d.u2(pc+1), "0")

	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
		OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple,
		OpIfAcmpeq, OpIfAcmpne, OpGoto, OpJsr, OpIfnull, OpIfnonnull:
		in.Operands = "\t" + strconv.Itoa(pc+d.s2(pc+1))

	case OpGotoW, OpJsrW:
		in.Operands = "\t" + strconv.Itoa(pc+d.s4(pc+1))
	}
	return in
}

// constant formats a pool operand as "\t#12; //Method foo:()V", with an
// optional count after the index.
func (d *Disassembler) constant(index int, count string) string {
	s := "\t#" + strconv.Itoa(index)
	if count != "" {
		s += ",  " + count
	}
	s += "; //"
	if d.pool == nil {
		return s + "#" + strconv.Itoa(index)
	}
	return s + d.pool.Constant(index)
}

func arrayType(t int) string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeByte:
		return "byte"
	case TypeChar:
		return "char"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeClass:
		return "class"
	}
	return "BOGUS TYPE:" + strconv.Itoa(t)
}

// align rounds n up to a multiple of four, as switch operands are
// aligned relative to the start of the code array.
func align(n int) int { return (n + 3) &^ 3 }

func (d *Disassembler) has(at, n int) bool { return n > 0 && at+n <= len(d.code) }

func (d *Disassembler) u1(at int) int { return int(d.code[at]) }
func (d *Disassembler) s1(at int) int { return int(int8(d.code[at])) }
func (d *Disassembler) u2(at int) int { return int(binary.BigEndian.Uint16(d.code[at:])) }
func (d *Disassembler) s2(at int) int { return int(int16(binary.BigEndian.Uint16(d.code[at:]))) }
func (d *Disassembler) s4(at int) int { return int(int32(binary.BigEndian.Uint32(d.code[at:]))) }
