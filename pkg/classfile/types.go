package classfile

// Access flags
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccVolatile     = 0x0040
	AccTransient    = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
)

// ClassFile represents a parsed .class file. It is not modified after
// Decode returns.
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo

	SourceFile   uint16 // Utf8 index from the SourceFile attribute, 0 if absent
	InnerClasses []InnerClass
}

// IsInterface reports whether ACC_INTERFACE is set.
func (cf *ClassFile) IsInterface() bool { return cf.AccessFlags&AccInterface != 0 }

// FieldInfo represents a field in a class file.
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Name            string // empty when NameIndex does not resolve
	Descriptor      string
	Attributes      []AttributeInfo

	ConstantValue uint16 // 0 if there is no ConstantValue attribute
	Synthetic     bool
	Deprecated    bool
}

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Name            string
	Descriptor      string
	Attributes      []AttributeInfo

	Code       *CodeAttribute // nil for abstract and native methods
	Exceptions []uint16       // nil if there is no Exceptions attribute
	Synthetic  bool
	Deprecated bool
}

// IsStatic reports whether ACC_STATIC is set.
func (m *MethodInfo) IsStatic() bool { return m.AccessFlags&AccStatic != 0 }

// AttributeInfo is an attribute as it appeared in the file. Data holds
// the raw payload for every attribute. Recognized is set when the payload
// was decoded into a typed field of the owner.
type AttributeInfo struct {
	NameIndex  uint16
	Name       string
	Data       []byte
	Recognized bool
}

// ExceptionHandler represents an entry in the exception table.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 catches everything
}

// CodeAttribute represents the Code attribute of a method.
type CodeAttribute struct {
	MaxStack          uint16
	MaxLocals         uint16
	Code              []byte
	ExceptionHandlers []ExceptionHandler

	LineNumbers    []LineNumber
	LocalVariables []LocalVariable
	StackMapTable  []StackMapFrame
	StackMap       []StackMapEntry
	Attributes     []AttributeInfo
}

type LineNumber struct {
	StartPC uint16
	Line    uint16
}

type LocalVariable struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Slot            uint16
}

// InnerClass is one row of the InnerClasses attribute.
type InnerClass struct {
	InnerClassInfo uint16
	OuterClassInfo uint16
	InnerName      uint16
	AccessFlags    uint16
}
