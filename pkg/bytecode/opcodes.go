package bytecode

import "strconv"

// Opcodes
const (
	OpNop             = 0x00
	OpIconst0         = 0x03
	OpBipush          = 0x10
	OpSipush          = 0x11
	OpLdc             = 0x12
	OpLdcW            = 0x13
	OpLdc2W           = 0x14
	OpIload           = 0x15
	OpLload           = 0x16
	OpFload           = 0x17
	OpDload           = 0x18
	OpAload           = 0x19
	OpAload0          = 0x2A
	OpIstore          = 0x36
	OpLstore          = 0x37
	OpFstore          = 0x38
	OpDstore          = 0x39
	OpAstore          = 0x3A
	OpDup             = 0x59
	OpIinc            = 0x84
	OpIfeq            = 0x99
	OpIfne            = 0x9A
	OpIflt            = 0x9B
	OpIfge            = 0x9C
	OpIfgt            = 0x9D
	OpIfle            = 0x9E
	OpIfIcmpeq        = 0x9F
	OpIfIcmpne        = 0xA0
	OpIfIcmplt        = 0xA1
	OpIfIcmpge        = 0xA2
	OpIfIcmpgt        = 0xA3
	OpIfIcmple        = 0xA4
	OpIfAcmpeq        = 0xA5
	OpIfAcmpne        = 0xA6
	OpGoto            = 0xA7
	OpJsr             = 0xA8
	OpRet             = 0xA9
	OpTableswitch     = 0xAA
	OpLookupswitch    = 0xAB
	OpIreturn         = 0xAC
	OpReturn          = 0xB1
	OpGetstatic       = 0xB2
	OpPutstatic       = 0xB3
	OpGetfield        = 0xB4
	OpPutfield        = 0xB5
	OpInvokevirtual   = 0xB6
	OpInvokespecial   = 0xB7
	OpInvokestatic    = 0xB8
	OpInvokeinterface = 0xB9
	OpInvokedynamic   = 0xBA
	OpNew             = 0xBB
	OpNewarray        = 0xBC
	OpAnewarray       = 0xBD
	OpAthrow          = 0xBF
	OpCheckcast       = 0xC0
	OpInstanceof      = 0xC1
	OpWide            = 0xC4
	OpMultianewarray  = 0xC5
	OpIfnull          = 0xC6
	OpIfnonnull       = 0xC7
	OpGotoW           = 0xC8
	OpJsrW            = 0xC9
	OpNonpriv         = 0xFE
	OpPriv            = 0xFF
)

// newarray element types
const (
	TypeClass   = 2
	TypeBoolean = 4
	TypeChar    = 5
	TypeFloat   = 6
	TypeDouble  = 7
	TypeByte    = 8
	TypeShort   = 9
	TypeInt     = 10
	TypeLong    = 11
)

var names = [OpJsrW + 1]string{
	"nop", "aconst_null", "iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4",
	"iconst_5", "lconst_0", "lconst_1", "fconst_0", "fconst_1", "fconst_2", "dconst_0", "dconst_1",
	"bipush", "sipush", "ldc", "ldc_w", "ldc2_w", "iload", "lload", "fload",
	"dload", "aload", "iload_0", "iload_1", "iload_2", "iload_3", "lload_0", "lload_1",
	"lload_2", "lload_3", "fload_0", "fload_1", "fload_2", "fload_3", "dload_0", "dload_1",
	"dload_2", "dload_3", "aload_0", "aload_1", "aload_2", "aload_3", "iaload", "laload",
	"faload", "daload", "aaload", "baload", "caload", "saload", "istore", "lstore",
	"fstore", "dstore", "astore", "istore_0", "istore_1", "istore_2", "istore_3", "lstore_0",
	"lstore_1", "lstore_2", "lstore_3", "fstore_0", "fstore_1", "fstore_2", "fstore_3", "dstore_0",
	"dstore_1", "dstore_2", "dstore_3", "astore_0", "astore_1", "astore_2", "astore_3", "iastore",
	"lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore", "pop",
	"pop2", "dup", "dup_x1", "dup_x2", "dup2", "dup2_x1", "dup2_x2", "swap",
	"iadd", "ladd", "fadd", "dadd", "isub", "lsub", "fsub", "dsub",
	"imul", "lmul", "fmul", "dmul", "idiv", "ldiv", "fdiv", "ddiv",
	"irem", "lrem", "frem", "drem", "ineg", "lneg", "fneg", "dneg",
	"ishl", "lshl", "ishr", "lshr", "iushr", "lushr", "iand", "land",
	"ior", "lor", "ixor", "lxor", "iinc", "i2l", "i2f", "i2d",
	"l2i", "l2f", "l2d", "f2i", "f2l", "f2d", "d2i", "d2l",
	"d2f", "i2b", "i2c", "i2s", "lcmp", "fcmpl", "fcmpg", "dcmpl",
	"dcmpg", "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle", "if_icmpeq",
	"if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne", "goto",
	"jsr", "ret", "tableswitch", "lookupswitch", "ireturn", "lreturn", "freturn", "dreturn",
	"areturn", "return", "getstatic", "putstatic", "getfield", "putfield", "invokevirtual", "invokespecial",
	"invokestatic", "invokeinterface", "invokedynamic", "new", "newarray", "anewarray", "arraylength", "athrow",
	"checkcast", "instanceof", "monitorenter", "monitorexit", "wide", "multianewarray", "ifnull", "ifnonnull",
	"goto_w", "jsr_w",
}

// lengths holds the encoded size of every fixed-length opcode. Zero marks
// an opcode whose size depends on its operands or that is not assigned.
var lengths [256]uint8

// Second-byte mnemonics of the two extended opcode spaces.
var nonprivNames, privNames [128]string

func init() {
	for op := OpNop; op <= OpJsrW; op++ {
		lengths[op] = 1
	}
	for _, op := range []int{OpBipush, OpLdc, OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore, OpRet, OpNewarray} {
		lengths[op] = 2
	}
	for _, op := range []int{OpSipush, OpLdcW, OpLdc2W, OpIinc, OpGetstatic, OpPutstatic, OpGetfield,
		OpPutfield, OpInvokevirtual, OpInvokespecial, OpInvokestatic, OpNew, OpAnewarray, OpCheckcast,
		OpInstanceof, OpIfnull, OpIfnonnull} {
		lengths[op] = 3
	}
	for op := OpIfeq; op <= OpJsr; op++ {
		lengths[op] = 3
	}
	lengths[OpMultianewarray] = 4
	for _, op := range []int{OpInvokeinterface, OpInvokedynamic, OpGotoW, OpJsrW} {
		lengths[op] = 5
	}
	for _, op := range []int{OpTableswitch, OpLookupswitch, OpWide} {
		lengths[op] = 0
	}

	ext := func(op int, name string) {
		nonprivNames[op] = name
		privNames[op] = "priv_" + name
	}
	for op, name := range map[int]string{
		0: "load_ubyte", 1: "load_byte", 2: "load_char", 3: "load_short", 4: "load_word",
		10: "load_char_oe", 11: "load_short_oe", 12: "load_word_oe",
		16: "ncload_ubyte", 17: "ncload_byte", 18: "ncload_char", 19: "ncload_short", 20: "ncload_word",
		26: "ncload_char_oe", 27: "ncload_short_oe", 28: "ncload_word_oe",
		30: "cache_flush",
		32: "store_byte", 34: "store_short", 36: "store_word",
		42: "store_short_oe", 44: "store_word_oe",
		48: "ncstore_byte", 50: "ncstore_short", 52: "ncstore_word",
		58: "ncstore_short_oe", 60: "ncstore_word_oe",
		62: "zero_line",
	} {
		ext(op, name)
	}
	nonprivNames[5] = "ret_from_sub"
	nonprivNames[63] = "enter_sync_method"
	for op, name := range map[int]string{
		5: "ret_from_trap", 6: "read_dcache_tag", 7: "read_dcache_data",
		14: "read_icache_tag", 15: "read_icache_data",
		22: "powerdown", 23: "read_scache_data", 31: "cache_index_flush",
		38: "write_dcache_tag", 39: "write_dcache_data",
		46: "write_icache_tag", 47: "write_icache_data",
		54: "reset", 55: "write_scache_data",
	} {
		privNames[op] = "priv_" + name
	}
	for k := 0; k < 32; k++ {
		privNames[64+k] = "priv_read_reg_" + strconv.Itoa(k)
		privNames[96+k] = "priv_write_reg_" + strconv.Itoa(k)
	}
}

// Name returns the mnemonic of a one-byte opcode, or "" if it has none.
func Name(op byte) string {
	if int(op) < len(names) {
		return names[op]
	}
	return ""
}

// Length returns the encoded size of op, or 0 if the size is not fixed.
func Length(op byte) int { return int(lengths[op]) }

// ExtName returns the mnemonic for the second byte of a nonpriv or priv
// instruction.
func ExtName(prefix, op byte) (string, bool) {
	var table *[128]string
	switch prefix {
	case OpNonpriv:
		table = &nonprivNames
	case OpPriv:
		table = &privNames
	default:
		return "", false
	}
	if int(op) >= len(table) || table[op] == "" {
		return "", false
	}
	return table[op], true
}

// WideName returns the mnemonic of op under the wide prefix.
func WideName(op byte) (string, bool) {
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore,
		OpRet, OpIinc:
		return names[op] + "_w", true
	}
	return "", false
}
