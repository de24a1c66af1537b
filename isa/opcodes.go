package isa

// Op identifies a BatBridge opcode. The numeric values match the 6-bit
// field carried in the word encoding.
type Op uint8

// Opcode set. Values match the BB32v0/v1 wire encoding exactly.
const (
	Hlt Op = 0x00

	Ld      Op = 0x10
	St      Op = 0x11
	Push    Op = 0x12
	Pop     Op = 0x13
	PushAll Op = 0x14
	PopAll  Op = 0x15

	IfLt Op = 0x20
	IfLe Op = 0x21
	IfEq Op = 0x22
	IfNe Op = 0x23
	Call Op = 0x24
	Intr Op = 0x25

	Add  Op = 0x30
	Sub  Op = 0x31
	Div  Op = 0x32
	Mod  Op = 0x33
	Mul  Op = 0x34
	And  Op = 0x35
	Or   Op = 0x36
	Nand Op = 0x37
	Xor  Op = 0x38

	Sl  Op = 0x3A
	Sr  Op = 0x3B
	Sal Op = 0x3C
	Sar Op = 0x3D
)

var opNames = map[Op]string{
	Hlt:     "hlt",
	Ld:      "ld",
	St:      "st",
	Push:    "push",
	Pop:     "pop",
	PushAll: "pushall",
	PopAll:  "popall",
	IfLt:    "iflt",
	IfLe:    "ifle",
	IfEq:    "ifeq",
	IfNe:    "ifne",
	Call:    "call",
	Intr:    "intr",
	Add:     "add",
	Sub:     "sub",
	Div:     "div",
	Mod:     "mod",
	Mul:     "mul",
	And:     "and",
	Or:      "or",
	Nand:    "nand",
	Xor:     "xor",
	Sl:      "sl",
	Sr:      "sr",
	Sal:     "sal",
	Sar:     "sar",
}

var namesToOp = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String renders the opcode's assembler mnemonic, e.g. "add".
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// OpByName looks up an opcode by its assembler mnemonic. The second
// return value is false for unrecognized mnemonics.
func OpByName(name string) (Op, bool) {
	op, ok := namesToOp[name]
	return op, ok
}

// Valid reports whether o is a member of the opcode set this core
// knows about. It does not distinguish opcodes with execute-time
// semantics (§4.4) from decode-only v1 opcodes (call/intr/pushall/popall).
func (o Op) Valid() bool {
	_, ok := opNames[o]
	return ok
}

// Macro reports whether o expands to a micro-op sequence at decode time.
func (o Op) Macro() bool {
	return o == Push || o == Pop
}

// Conditional reports whether o is one of the four compare-and-branch
// opcodes, which take no destination register.
func (o Op) Conditional() bool {
	switch o {
	case IfLt, IfLe, IfEq, IfNe:
		return true
	default:
		return false
	}
}

// Register aliases. These are ordinary register indices that the
// operand resolver (§4.3) and register-write side channel (§9) treat
// specially; they are not a distinct storage class.
const (
	RegIMM  = 29
	RegZero = 30
	RegPC   = 31
)

// aliasNames maps the assembler's symbolic register aliases to indices.
var aliasNames = map[string]uint8{
	"r_PC":   RegPC,
	"r_ZERO": RegZero,
	"r_IMM":  RegIMM,
}

// ResolveRegisterAlias normalizes a symbolic register alias (r_PC,
// r_ZERO, r_IMM) to its numeric index. For any other name it returns
// false.
func ResolveRegisterAlias(name string) (uint8, bool) {
	idx, ok := aliasNames[name]
	return idx, ok
}

// Dst identifies the target of a writeback command (§3).
type Dst uint8

const (
	DstRegisters Dst = iota
	DstMemory
	DstHalt
)

func (d Dst) String() string {
	switch d {
	case DstRegisters:
		return "registers"
	case DstMemory:
		return "memory"
	case DstHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// NoOpWord is the canonical no-op: add r30, r30, r30, 0.
// It reads and writes only the zero register, so it has no
// architectural effect beyond advancing pc, and is used as the
// implicit bubble fed to any stage with no latched input.
const NoOpWord uint32 = 0xC3DEF000
