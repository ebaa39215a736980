// Package javap prints decoded class files in the layout of the classic
// javap disassembler.
package javap

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/daimatz/gojavap/pkg/bytecode"
	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/descriptor"
	"github.com/daimatz/gojavap/pkg/log"
)

type modifier struct {
	flag uint16
	word string
}

var (
	classModifiers = []modifier{
		{classfile.AccPublic, "public"},
		{classfile.AccFinal, "final"},
		{classfile.AccAbstract, "abstract"},
	}
	fieldModifiers = []modifier{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccVolatile, "volatile"},
		{classfile.AccTransient, "transient"},
	}
	methodModifiers = []modifier{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccSynchronized, "synchronized"},
		{classfile.AccNative, "native"},
		{classfile.AccAbstract, "abstract"},
		{classfile.AccStrict, "strictfp"},
	}
	innerClassModifiers = []modifier{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccAbstract, "abstract"},
	}
)

// modifiers renders the words for the set bits, each followed by a space.
func modifiers(flags uint16, table []modifier) string {
	var b strings.Builder
	for _, m := range table {
		if flags&m.flag != 0 {
			b.WriteString(m.word)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Printer renders one class file. A Printer holds no output state, so
// Print may be called any number of times, also concurrently.
type Printer struct {
	cf   *classfile.ClassFile
	opts Options
}

func NewPrinter(cf *classfile.ClassFile, opts Options) *Printer {
	return &Printer{cf: cf, opts: opts}
}

// Print is shorthand for NewPrinter(cf, opts).Print(w).
func Print(w io.Writer, cf *classfile.ClassFile, opts Options) error {
	return NewPrinter(cf, opts).Print(w)
}

// Print writes the listing to w and returns the first write error.
func (p *Printer) Print(w io.Writer) error {
	opts := p.opts
	if opts.Verbose {
		opts.AllAttributes = true
	}
	r := &run{
		cf:   p.cf,
		pool: p.cf.ConstantPool,
		opts: opts,
		out:  bufio.NewWriter(w),
	}
	log.Debug(log.Javap, "printing class", "class", r.className(), "access", opts.Access)

	r.header()
	r.fields()
	r.methods()
	r.println("}")
	r.println()
	return r.out.Flush()
}

// run is the state of a single Print call.
type run struct {
	cf   *classfile.ClassFile
	pool classfile.ConstantPool
	opts Options
	out  *bufio.Writer
}

// bufio.Writer keeps the first error and turns later writes into no-ops,
// so the helpers below do not report errors; Flush does.
func (r *run) print(s string)                    { r.out.WriteString(s) }
func (r *run) printf(format string, args ...any) { fmt.Fprintf(r.out, format, args...) }

func (r *run) println(s ...string) {
	for _, x := range s {
		r.out.WriteString(x)
	}
	r.out.WriteByte('\n')
}

func dotted(name string) string { return strings.ReplaceAll(name, "/", ".") }

func (r *run) className() string { return r.pool.ClassText(int(r.cf.ThisClass)) }

// utf8Or returns s when index names a Utf8 entry, else the placeholder the
// pool gives for the broken reference.
func (r *run) utf8Or(s string, index uint16) string {
	if r.pool.Tag(index) == classfile.TagUtf8 {
		return s
	}
	return r.pool.Name(int(index))
}

func (r *run) header() {
	if r.cf.SourceFile != 0 {
		r.println("Compiled from ", dotted(r.pool.Name(int(r.cf.SourceFile))))
	}

	var b strings.Builder
	if r.cf.IsInterface() {
		if r.cf.AccessFlags&classfile.AccPublic != 0 {
			b.WriteString("public ")
		}
		b.WriteString("interface " + dotted(r.className()))
	} else {
		b.WriteString(modifiers(r.cf.AccessFlags, classModifiers))
		b.WriteString("class " + dotted(r.className()))
		if r.cf.SuperClass != 0 {
			if super := r.pool.ClassText(int(r.cf.SuperClass)); super != "java/lang/Object" {
				b.WriteString(" extends " + dotted(super))
			}
		}
	}
	if len(r.cf.Interfaces) > 0 {
		if r.cf.IsInterface() {
			b.WriteString(" extends ")
		} else {
			b.WriteString(" implements ")
		}
		for i, idx := range r.cf.Interfaces {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(dotted(r.pool.ClassText(int(idx))))
		}
	}

	if !r.opts.AllAttributes {
		r.println(b.String(), " {")
		return
	}
	r.println(b.String())
	r.classAttributes()
	if r.opts.Verbose {
		r.printf("  minor version: %d\n", r.cf.MinorVersion)
		r.printf("  major version: %d\n", r.cf.MajorVersion)
		r.println("  Constant pool:")
		r.constantPool()
	}
	r.println("{")
}

func (r *run) classAttributes() {
	for _, a := range r.cf.Attributes {
		switch {
		case a.Recognized && a.Name == "SourceFile":
			r.println("  SourceFile: ", r.pool.Name(int(r.cf.SourceFile)))
		case a.Recognized && a.Name == "InnerClasses":
			r.innerClasses()
		default:
			r.hexDump(a)
		}
	}
}

func (r *run) innerClasses() {
	if len(r.cf.InnerClasses) == 0 {
		return
	}
	r.println("  InnerClass: ")
	for _, ic := range r.cf.InnerClasses {
		if !r.opts.Access.allows(ic.AccessFlags) {
			continue
		}
		r.print("   " + modifiers(ic.AccessFlags, innerClassModifiers))
		if ic.InnerName != 0 {
			r.printf("#%d= ", ic.InnerName)
		}
		r.printf("#%d", ic.InnerClassInfo)
		if ic.OuterClassInfo != 0 {
			r.printf(" of #%d", ic.OuterClassInfo)
		}
		r.print("; //")
		if ic.InnerName != 0 {
			r.print(r.pool.Name(int(ic.InnerName)) + "=")
		}
		r.print(r.cf.Constant(int(ic.InnerClassInfo)))
		if ic.OuterClassInfo != 0 {
			r.print(" of " + r.cf.Constant(int(ic.OuterClassInfo)))
		}
		r.println()
	}
}

func (r *run) constantPool() {
	for i := 1; i < len(r.pool); {
		r.printf("const #%d = %s\t", i, r.pool.TagString(i))
		i += r.constantEntry(i)
	}
	r.println()
}

// constantEntry prints the body of one pool listing line and returns the
// number of slots the entry occupies.
func (r *run) constantEntry(i int) int {
	text := r.pool.Text(i)
	switch e := r.pool[i].(type) {
	case nil:
		r.println("null;")
	case *classfile.ConstantClass:
		r.printf("#%d;\t//  %s\n", e.NameIndex, text)
	case *classfile.ConstantString:
		r.printf("#%d;\t//  %s\n", e.StringIndex, text)
	case *classfile.ConstantFieldref:
		r.printf("#%d.#%d;\t//  %s\n", e.ClassIndex, e.NameAndTypeIndex, text)
	case *classfile.ConstantMethodref:
		r.printf("#%d.#%d;\t//  %s\n", e.ClassIndex, e.NameAndTypeIndex, text)
	case *classfile.ConstantInterfaceMethodref:
		r.printf("#%d.#%d;\t//  %s\n", e.ClassIndex, e.NameAndTypeIndex, text)
	case *classfile.ConstantNameAndType:
		r.printf("#%d:#%d;//  %s\n", e.NameIndex, e.DescriptorIndex, text)
	case *classfile.ConstantMethodHandle:
		r.printf("%d:#%d;\t//  %s\n", e.ReferenceKind, e.ReferenceIndex, text)
	case *classfile.ConstantMethodType:
		r.printf("#%d;\t//  %s\n", e.DescriptorIndex, text)
	case *classfile.ConstantDynamic:
		r.printf("#%d:#%d;\t//  %s\n", e.BootstrapMethod, e.NameAndTypeIndex, text)
	case *classfile.ConstantModule:
		r.printf("#%d;\t//  %s\n", e.NameIndex, text)
	case *classfile.ConstantLong, *classfile.ConstantDouble:
		r.println(text, ";")
		return 2
	default:
		r.println(text, ";")
	}
	return 1
}

func (r *run) fields() {
	for i := range r.cf.Fields {
		f := &r.cf.Fields[i]
		if !r.opts.Access.allows(f.AccessFlags) {
			continue
		}
		if r.opts.plain() {
			r.print("    ")
		}
		r.println(modifiers(f.AccessFlags, fieldModifiers), descriptor.Field(f.Descriptor), " ",
			r.utf8Or(f.Name, f.NameIndex), ";")
		if r.opts.Signatures {
			r.println("  Signature: ", r.utf8Or(f.Descriptor, f.DescriptorIndex))
		}
		if r.opts.AllAttributes {
			r.fieldAttributes(f)
		}
		if r.opts.Disassemble || r.opts.LineAndLocals {
			r.println()
		}
	}
}

func (r *run) fieldAttributes(f *classfile.FieldInfo) {
	if hasAttribute(f.Attributes, "ConstantValue") {
		r.println("  Constant value: ", r.cf.Constant(int(f.ConstantValue)))
	}
	if f.Deprecated {
		r.println("  Deprecated: true")
	}
	if f.Synthetic {
		r.println("  Synthetic: true")
	}
	r.unrecognized(f.Attributes)
	r.println()
}

func (r *run) methods() {
	for i := range r.cf.Methods {
		m := &r.cf.Methods[i]
		if !r.opts.Access.allows(m.AccessFlags) {
			continue
		}
		if r.opts.plain() {
			r.print("    ")
		}
		r.signature(m)
		if m.Exceptions != nil {
			if r.opts.plain() {
				r.print("    ")
			}
			r.print(r.throws(m))
		}
		r.println(";")

		if r.opts.Signatures {
			r.println("  Signature: ", r.utf8Or(m.Descriptor, m.DescriptorIndex))
		}
		if r.opts.Disassemble && !r.opts.AllAttributes {
			r.code(m)
			r.exceptionTable(m.Code)
			r.println()
		}
		if r.opts.LineAndLocals {
			r.lineNumbers(m.Code)
			r.localVariables(m.Code)
			r.println()
		}
		if r.opts.AllAttributes {
			r.methodAttributes(m)
		}
	}
}

func (r *run) signature(m *classfile.MethodInfo) {
	r.print(modifiers(m.AccessFlags, methodModifiers))
	params, ret, _ := descriptor.Method(m.Descriptor)
	switch m.Name {
	case "<init>":
		r.print(dotted(r.className()) + params)
	case "<clinit>":
		r.print("{}")
	default:
		r.print(ret + " " + r.utf8Or(m.Name, m.NameIndex) + params)
	}
}

func (r *run) throws(m *classfile.MethodInfo) string {
	names := make([]string, len(m.Exceptions))
	for i, idx := range m.Exceptions {
		names[i] = dotted(r.pool.ClassText(int(idx)))
	}
	return "   throws " + strings.Join(names, ", ")
}

func (r *run) methodAttributes(m *classfile.MethodInfo) {
	if c := m.Code; c != nil {
		r.code(m)
		r.exceptionTable(c)
		if hasAttribute(c.Attributes, "LineNumberTable") {
			r.lineNumbers(c)
		}
		if hasAttribute(c.Attributes, "LocalVariableTable") {
			r.localVariables(c)
		}
		switch {
		case c.StackMapTable != nil:
			r.stackMapTable(c.StackMapTable)
		case c.StackMap != nil:
			r.stackMap(c.StackMap)
		}
		r.unrecognized(c.Attributes)
	}
	if m.Exceptions != nil {
		r.println("  Exceptions: ")
		r.println(r.throws(m))
	}
	if m.Deprecated {
		r.println("  Deprecated: true")
	}
	if m.Synthetic {
		r.println("  Synthetic: true")
	}
	r.unrecognized(m.Attributes)
	r.println()
}

func (r *run) code(m *classfile.MethodInfo) {
	c := m.Code
	if c == nil {
		return
	}
	r.println("  Code:")
	if r.opts.Verbose {
		_, _, argc := descriptor.Method(m.Descriptor)
		if !m.IsStatic() {
			argc++
		}
		r.printf("   Stack=%d, Locals=%d, Args_size=%d\n", c.MaxStack, c.MaxLocals, argc)
	}
	for in := range bytecode.NewDisassembler(c.Code, r.cf).All() {
		r.printf("   %d:\t%s\n", in.Offset, in)
	}
}

func (r *run) exceptionTable(c *classfile.CodeAttribute) {
	if c == nil || len(c.ExceptionHandlers) == 0 {
		return
	}
	r.println("  Exception table:")
	r.println("   from   to  target type")
	for _, h := range c.ExceptionHandlers {
		r.printf("%6d%6d%6d   ", h.StartPC, h.EndPC, h.HandlerPC)
		if h.CatchType == 0 {
			r.println("any")
			continue
		}
		r.println("Class ", r.pool.ClassText(int(h.CatchType)))
		r.println()
	}
}

func (r *run) lineNumbers(c *classfile.CodeAttribute) {
	if c != nil && len(c.LineNumbers) > 0 {
		r.println("  LineNumberTable: ")
		for _, ln := range c.LineNumbers {
			r.printf("   line %d: %d\n", ln.Line, ln.StartPC)
		}
	}
	r.println()
}

func (r *run) localVariables(c *classfile.CodeAttribute) {
	if c != nil && len(c.LocalVariables) > 0 {
		r.println("  LocalVariableTable: ")
		r.println("   Start  Length  Slot  Name   Signature")
		for _, lv := range c.LocalVariables {
			r.printf("   %d      %d      %d    %s       %s\n", lv.StartPC, lv.Length, lv.Slot,
				r.pool.UTF8Text(int(lv.NameIndex)), r.pool.UTF8Text(int(lv.DescriptorIndex)))
		}
	}
	r.println()
}

func (r *run) stackMapTable(frames []classfile.StackMapFrame) {
	if len(frames) > 0 {
		r.printf("  StackMapTable: number_of_entries = %d\n", len(frames))
		for _, f := range frames {
			r.printf("   frame_type = %d /* %s */\n", f.Type, f.Kind)
			switch f.Kind {
			case classfile.FrameSame:
			case classfile.FrameSameLocals1StackItem:
				r.verificationTypes("     stack = [", f.Stack)
			case classfile.FrameSameLocals1StackItemExtended:
				r.printf("     offset_delta = %d\n", f.OffsetDelta)
				r.verificationTypes("     stack = [", f.Stack)
			case classfile.FrameChop, classfile.FrameSameExtended:
				r.printf("     offset_delta = %d\n", f.OffsetDelta)
			case classfile.FrameAppend:
				r.printf("     offset_delta = %d\n", f.OffsetDelta)
				r.verificationTypes("     locals = [", f.Locals)
			case classfile.FrameFull:
				r.printf("     offset_delta = %d\n", f.OffsetDelta)
				r.verificationTypes("     locals = [", f.Locals)
				r.verificationTypes("     stack = [", f.Stack)
			}
		}
	}
	r.println()
}

func (r *run) stackMap(entries []classfile.StackMapEntry) {
	if len(entries) > 0 {
		r.printf("  StackMap: number_of_entries = %d\n", len(entries))
		for _, e := range entries {
			r.printf("   %d:\n", e.Offset)
			r.verificationTypes("    locals = [", e.Locals)
			r.verificationTypes("    stack = [", e.Stack)
		}
	}
	r.println()
}

var itemNames = [...]string{
	classfile.ItemTop:               "bogus",
	classfile.ItemInteger:           "int",
	classfile.ItemFloat:             "float",
	classfile.ItemDouble:            "double",
	classfile.ItemLong:              "long",
	classfile.ItemNull:              "null",
	classfile.ItemUninitializedThis: "this",
}

func (r *run) verificationTypes(prefix string, types []classfile.VerificationType) {
	r.print(prefix)
	for i, v := range types {
		switch k := v.Kind(); {
		case k == classfile.ItemObject:
			r.print(" " + r.cf.Constant(int(v.Operand())))
		case k == classfile.ItemUninitialized:
			r.printf(" uninitialized %d", v.Operand())
		case int(k) < len(itemNames):
			r.print(" " + itemNames[k])
		default:
			r.printf(" unknown:%d", k)
		}
		if i == len(types)-1 {
			r.print(" ")
		} else {
			r.print(",")
		}
	}
	r.println("]")
}

func (r *run) unrecognized(attrs []classfile.AttributeInfo) {
	for _, a := range attrs {
		if !a.Recognized {
			r.hexDump(a)
		}
	}
}

// hexDump prints an attribute the reader did not interpret, sixteen bytes
// to a line.
func (r *run) hexDump(a classfile.AttributeInfo) {
	r.printf("  %s: length = 0x%X\n", r.utf8Or(a.Name, a.NameIndex), len(a.Data))
	r.print("   ")
	for i, b := range a.Data {
		r.printf("%02X", b)
		if (i+1)%16 == 0 {
			r.print("\n   ")
		} else {
			r.print(" ")
		}
	}
	r.println()
}

func hasAttribute(attrs []classfile.AttributeInfo, name string) bool {
	for _, a := range attrs {
		if a.Recognized && a.Name == name {
			return true
		}
	}
	return false
}
