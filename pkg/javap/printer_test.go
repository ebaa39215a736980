package javap

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/classfile/classfiletest"
)

func renderClass(t *testing.T, b *classfiletest.Builder, opts Options) string {
	t.Helper()
	cf, err := classfile.Decode(b.Bytes())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, cf, opts))
	return buf.String()
}

// helloClass has one member of every visibility.
func helloClass() *classfiletest.Builder {
	b := classfiletest.New("com/example/Hello", "java/lang/Object")
	b.ClassAttr(b.SourceFile("Hello.java"))
	b.Field(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "ANSWER", "I", b.ConstantValue(b.Int(42)))
	b.Field(classfile.AccPrivate, "name", "Ljava/lang/String;")
	b.Field(classfile.AccProtected, "count", "J")
	b.Method(classfile.AccPublic, "<init>", "()V")
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V", b.Exceptions("java/io/IOException"))
	b.Method(classfile.AccStatic, "<clinit>", "()V")
	return b
}

func TestPrintAccessFilter(t *testing.T) {
	const (
		answer = "    public static final int ANSWER;\n"
		name   = "    private java.lang.String name;\n"
		count  = "    protected long count;\n"
		ctor   = "    public com.example.Hello();\n"
		main   = "    public static void main(java.lang.String[])       throws java.io.IOException;\n"
		clinit = "    static {};\n"
	)
	tests := []struct {
		access Access
		body   string
	}{
		{AccessPublic, answer + ctor + main},
		{AccessProtected, answer + count + ctor + main},
		{AccessPackage, answer + count + ctor + main + clinit},
		{AccessPrivate, answer + name + count + ctor + main + clinit},
	}
	for _, tt := range tests {
		t.Run(tt.access.String(), func(t *testing.T) {
			got := renderClass(t, helloClass(), Options{Access: tt.access})
			want := "Compiled from \"Hello.java\"\n" +
				"public class com.example.Hello {\n" +
				tt.body +
				"}\n\n"
			assert.Equal(t, want, got)
		})
	}
}

func TestPrintClassHeader(t *testing.T) {
	t.Run("extends and implements", func(t *testing.T) {
		b := classfiletest.New("p/Impl", "p/Base")
		b.Access = classfile.AccPublic | classfile.AccFinal | classfile.AccSuper
		b.Interfaces = []uint16{b.Class("java/lang/Runnable"), b.Class("java/io/Serializable")}
		got := renderClass(t, b, Options{})
		assert.Equal(t, "public final class p.Impl extends p.Base implements java.lang.Runnable,java.io.Serializable {\n}\n\n", got)
	})

	t.Run("interface", func(t *testing.T) {
		b := classfiletest.New("p/Shape", "java/lang/Object")
		b.Access = classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract
		b.Interfaces = []uint16{b.Class("p/Named")}
		b.Method(classfile.AccPublic|classfile.AccAbstract, "area", "()D")
		got := renderClass(t, b, Options{})
		assert.Equal(t, "public interface p.Shape extends p.Named {\n    public abstract double area();\n}\n\n", got)
	})

	t.Run("package private abstract class", func(t *testing.T) {
		b := classfiletest.New("Shape", "java/lang/Object")
		b.Access = classfile.AccAbstract | classfile.AccSuper
		got := renderClass(t, b, Options{})
		assert.Equal(t, "abstract class Shape {\n}\n\n", got)
	})

	t.Run("no super class", func(t *testing.T) {
		b := classfiletest.New("java/lang/Object", "")
		got := renderClass(t, b, Options{})
		assert.Equal(t, "public class java.lang.Object {\n}\n\n", got)
	})
}

func TestPrintModifiers(t *testing.T) {
	b := classfiletest.New("M", "java/lang/Object")
	b.Field(classfile.AccProtected|classfile.AccVolatile|classfile.AccTransient, "f", "[[I")
	b.Method(classfile.AccPrivate|classfile.AccSynchronized|classfile.AccNative|classfile.AccStrict, "g", "(IJLjava/util/List;)Ljava/lang/Object;")
	got := renderClass(t, b, Options{Access: AccessPrivate})
	assert.Equal(t, "public class M {\n"+
		"    protected volatile transient int[][] f;\n"+
		"    private synchronized native strictfp java.lang.Object g(int, long, java.util.List);\n"+
		"}\n\n", got)
}

func TestPrintDisassembly(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	objInit := b.Methodref("java/lang/Object", "<init>", "()V")
	exc := b.Class("java/lang/Exception")
	b.Field(0, "x", "I")
	b.Method(classfile.AccPublic, "<init>", "()V",
		b.Code(1, 1, []byte{0x2a, 0xb7, byte(objInit >> 8), byte(objInit), 0xb1}, nil))
	b.Method(classfile.AccPublic, "run", "()V",
		b.Code(1, 1, []byte{0x00, 0x00, 0xb1}, []classfiletest.Handler{
			{Start: 0, End: 1, Handler: 2},
			{Start: 0, End: 1, Handler: 2, CatchType: exc},
		}))
	b.Method(classfile.AccPublic|classfile.AccAbstract, "area", "()D")

	got := renderClass(t, b, Options{Disassemble: true})
	want := "public class Hello {\n" +
		"int x;\n" +
		"\n" +
		"public Hello();\n" +
		"  Code:\n" +
		"   0:\taload_0\n" +
		fmt.Sprintf("   1:\tinvokespecial\t#%d; //Method java/lang/Object.\"<init>\":()V\n", objInit) +
		"   4:\treturn\n" +
		"\n" +
		"public void run();\n" +
		"  Code:\n" +
		"   0:\tnop\n" +
		"   1:\tnop\n" +
		"   2:\treturn\n" +
		"  Exception table:\n" +
		"   from   to  target type\n" +
		"     0     1     2   any\n" +
		"     0     1     2   Class java/lang/Exception\n" +
		"\n" +
		"\n" +
		"public abstract double area();\n" +
		"\n" +
		"}\n\n"
	assert.Equal(t, want, got)
}

func TestPrintLineAndLocals(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	b.Method(classfile.AccPublic, "run", "()V",
		b.Code(1, 1, []byte{0x00, 0xb1}, nil,
			b.LineNumbers([2]uint16{0, 3}, [2]uint16{1, 4}),
			b.LocalVariables(classfiletest.LocalVar{Start: 0, Length: 2, Name: "this", Desc: "LHello;"})))

	got := renderClass(t, b, Options{LineAndLocals: true})
	want := "public class Hello {\n" +
		"public void run();\n" +
		"  LineNumberTable: \n" +
		"   line 3: 0\n" +
		"   line 4: 1\n" +
		"\n" +
		"  LocalVariableTable: \n" +
		"   Start  Length  Slot  Name   Signature\n" +
		"   0      2      0    this       LHello;\n" +
		"\n" +
		"\n" +
		"}\n\n"
	assert.Equal(t, want, got)
}

func TestPrintSignatures(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	b.Field(classfile.AccPublic, "x", "I")
	b.Method(classfile.AccPublic, "run", "(Ljava/lang/String;)V")
	got := renderClass(t, b, Options{Signatures: true})
	assert.Equal(t, "public class Hello {\n"+
		"public int x;\n"+
		"  Signature: I\n"+
		"public void run(java.lang.String);\n"+
		"  Signature: (Ljava/lang/String;)V\n"+
		"}\n\n", got)
}

func TestPrintVerboseConstantPool(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	b.ClassAttr(b.SourceFile("Hello.java"))
	b.Long(7)
	require.Equal(t, 9, b.Count())

	got := renderClass(t, b, Options{Verbose: true})
	want := "Compiled from \"Hello.java\"\n" +
		"public class Hello\n" +
		"  SourceFile: \"Hello.java\"\n" +
		"  minor version: 0\n" +
		"  major version: 50\n" +
		"  Constant pool:\n" +
		"const #1 = Asciz\tHello;\n" +
		"const #2 = class\t#1;\t//  Hello\n" +
		"const #3 = Asciz\tjava/lang/Object;\n" +
		"const #4 = class\t#3;\t//  java/lang/Object\n" +
		"const #5 = Asciz\tHello.java;\n" +
		"const #6 = Asciz\tSourceFile;\n" +
		"const #7 = long\t7l;\n" +
		"\n" +
		"{\n" +
		"}\n\n"
	assert.Equal(t, want, got)
}

func TestPrintVerboseReferences(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	ref := b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	str := b.String("hi")
	got := renderClass(t, b, Options{Verbose: true})

	nat := b.NameAndType("out", "Ljava/io/PrintStream;")
	assert.Contains(t, got, fmt.Sprintf("const #%d = Field\t#%d.#%d;\t//  java/lang/System.out:Ljava/io/PrintStream;\n",
		ref, b.Class("java/lang/System"), nat))
	assert.Contains(t, got, fmt.Sprintf("const #%d = NameAndType\t#%d:#%d;//  out:Ljava/io/PrintStream;\n",
		nat, b.Utf8("out"), b.Utf8("Ljava/io/PrintStream;")))
	assert.Contains(t, got, fmt.Sprintf("const #%d = String\t#%d;\t//  hi\n", str, b.Utf8("hi")))
}

func TestPrintVerboseCode(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	b.Method(classfile.AccPublic, "add", "(IJ)V", b.Code(4, 4, []byte{0xb1}, nil))
	b.Method(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V", b.Code(0, 1, []byte{0xb1}, nil))
	got := renderClass(t, b, Options{Verbose: true})

	assert.Contains(t, got, "public void add(int, long);\n  Code:\n   Stack=4, Locals=4, Args_size=3\n   0:\treturn\n\n")
	assert.Contains(t, got, "public static void main(java.lang.String[]);\n  Code:\n   Stack=0, Locals=1, Args_size=1\n")
}

func TestPrintAllAttributes(t *testing.T) {
	b := classfiletest.New("Hello", "java/lang/Object")
	data := make([]byte, 18)
	for i := range data {
		data[i] = byte(i)
	}
	b.ClassAttr(b.Attr("Custom", data))
	b.Field(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "ANSWER", "I",
		b.ConstantValue(b.Int(42)), b.Attr("Deprecated", nil))
	b.Field(classfile.AccPublic, "tmp", "Z", b.Attr("Synthetic", nil), b.Attr("Extra", []byte{0xAB}))
	b.Method(classfile.AccPublic, "run", "()V",
		b.Code(2, 1, []byte{0xb1}, nil, b.LineNumbers([2]uint16{0, 7})),
		b.Exceptions("java/io/IOException"))

	got := renderClass(t, b, Options{AllAttributes: true})
	want := "public class Hello\n" +
		"  Custom: length = 0x12\n" +
		"   00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n" +
		"   10 11 \n" +
		"{\n" +
		"public static final int ANSWER;\n" +
		"  Constant value: int 42\n" +
		"  Deprecated: true\n" +
		"\n" +
		"public boolean tmp;\n" +
		"  Synthetic: true\n" +
		"  Extra: length = 0x1\n" +
		"   AB \n" +
		"\n" +
		"public void run()   throws java.io.IOException;\n" +
		"  Code:\n" +
		"   0:\treturn\n" +
		"  LineNumberTable: \n" +
		"   line 7: 0\n" +
		"\n" +
		"  Exceptions: \n" +
		"   throws java.io.IOException\n" +
		"\n" +
		"}\n\n"
	assert.Equal(t, want, got)
}

func TestPrintInnerClasses(t *testing.T) {
	b := classfiletest.New("Outer", "java/lang/Object")
	inner := b.Class("Outer$Inner")
	hidden := b.Class("Outer$Hidden")
	name := b.Utf8("Inner")
	b.ClassAttr(b.Attr("InnerClasses", classfiletest.U2(2,
		inner, b.This, name, classfile.AccPublic|classfile.AccStatic,
		hidden, 0, 0, classfile.AccPrivate,
	)))

	got := renderClass(t, b, Options{AllAttributes: true})
	assert.Contains(t, got, fmt.Sprintf("  InnerClass: \n   public static #%d= #%d of #%d; //Inner=class Outer$Inner of class Outer\n{\n",
		name, inner, b.This))

	got = renderClass(t, b, Options{AllAttributes: true, Access: AccessPrivate})
	assert.Contains(t, got, fmt.Sprintf("   private #%d; //class Outer$Hidden\n", hidden))
}

func TestPrintStackMapTable(t *testing.T) {
	b := classfiletest.New("Frames", "java/lang/Object")
	str := b.Class("java/lang/String")
	data := []byte{0, 4,
		3,
		66, classfile.ItemInteger,
		252, 0, 5, classfile.ItemObject, byte(str >> 8), byte(str),
		255, 0, 10, 0, 2, classfile.ItemInteger, classfile.ItemUninitialized, 0, 4, 0, 0,
	}
	b.Method(classfile.AccPublic|classfile.AccStatic, "m", "()V",
		b.Code(1, 1, []byte{0xb1}, nil, b.Attr("StackMapTable", data)))

	got := renderClass(t, b, Options{AllAttributes: true})
	want := "  StackMapTable: number_of_entries = 4\n" +
		"   frame_type = 3 /* same */\n" +
		"   frame_type = 66 /* same_locals_1_stack_item */\n" +
		"     stack = [ int ]\n" +
		"   frame_type = 252 /* append */\n" +
		"     offset_delta = 5\n" +
		"     locals = [ class java/lang/String ]\n" +
		"   frame_type = 255 /* full_frame */\n" +
		"     offset_delta = 10\n" +
		"     locals = [ int, uninitialized 4 ]\n" +
		"     stack = []\n" +
		"\n"
	assert.Contains(t, got, want)
}

func TestPrintStackMap(t *testing.T) {
	b := classfiletest.New("Frames", "java/lang/Object")
	data := []byte{0, 1,
		0, 2, 0, 1, classfile.ItemUninitializedThis, 0, 2, classfile.ItemNull, 9,
	}
	b.Method(classfile.AccPublic, "m", "()V",
		b.Code(1, 1, []byte{0xb1}, nil, b.Attr("StackMap", data)))

	got := renderClass(t, b, Options{AllAttributes: true})
	assert.Contains(t, got, "  StackMap: number_of_entries = 1\n"+
		"   2:\n"+
		"    locals = [ this ]\n"+
		"    stack = [ null, unknown:9 ]\n"+
		"\n")
}

func TestPrintBrokenReferences(t *testing.T) {
	b := classfiletest.New("Broken", "java/lang/Object")
	u2 := func(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
	invalid := func(idx uint16) string { return fmt.Sprintf("<invalid constant pool ref:%d>", idx) }

	seven := b.Int(7)
	name := b.Utf8("x")
	selfString := uint16(b.Count())
	b.Raw(1, classfile.TagString, u2(selfString)...)
	badNat := b.Raw(1, classfile.TagNameAndType, append(u2(name), u2(seven)...)...)
	field := b.Raw(1, classfile.TagFieldref, append(u2(b.Class("Other")), u2(selfString)...)...)
	b.Method(classfile.AccPublic, "run", "()V",
		b.Code(1, 1, []byte{0x12, byte(selfString), 0xb2, byte(field >> 8), byte(field), 0xb1}, nil))

	t.Run("disassembly", func(t *testing.T) {
		got := renderClass(t, b, Options{Disassemble: true})
		assert.Contains(t, got, fmt.Sprintf("   0:\tldc\t#%d; //String %s\n", selfString, invalid(selfString)))
		assert.Contains(t, got, fmt.Sprintf("   2:\tgetstatic\t#%d; //Field Other.%s\n", field, invalid(selfString)))
	})

	t.Run("constant pool", func(t *testing.T) {
		got := renderClass(t, b, Options{Verbose: true})
		assert.Contains(t, got, fmt.Sprintf("const #%d = String\t#%d;\t//  %s\n", selfString, selfString, invalid(selfString)))
		assert.Contains(t, got, fmt.Sprintf("const #%d = NameAndType\t#%d:#%d;//  x:%s\n", badNat, name, seven, invalid(seven)))
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrintWriteError(t *testing.T) {
	cf, err := classfile.Decode(helloClass().Bytes())
	require.NoError(t, err)
	err = NewPrinter(cf, Options{}).Print(failingWriter{})
	assert.EqualError(t, err, "disk full")
}

func TestPrinterReusable(t *testing.T) {
	cf, err := classfile.Decode(helloClass().Bytes())
	require.NoError(t, err)
	p := NewPrinter(cf, Options{Verbose: true})

	var first, second bytes.Buffer
	require.NoError(t, p.Print(&first))
	require.NoError(t, p.Print(&second))
	assert.Equal(t, first.String(), second.String())
	assert.False(t, p.opts.AllAttributes)
}

func TestParseAccess(t *testing.T) {
	tests := []struct {
		in      string
		want    Access
		wantErr bool
	}{
		{"", AccessPackage, false},
		{"public", AccessPublic, false},
		{"PROTECTED", AccessProtected, false},
		{"Package", AccessPackage, false},
		{"private", AccessPrivate, false},
		{"friend", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccess(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
