package hart

// Opcodes, matching the RISC-V base opcode map (bits [6:0], always ending
// in 11 for a 32-bit instruction since this implementation has no C
// extension).
const (
	opLoad     = 0b0000011
	opMiscMem  = 0b0001111
	opImm      = 0b0010011
	opAuipc    = 0b0010111
	opStore    = 0b0100011
	opAmo      = 0b0101111
	opOp       = 0b0110011
	opLui      = 0b0110111
	opBranch   = 0b1100011
	opJalr     = 0b1100111
	opJal      = 0b1101111
	opSystem   = 0b1110011
)

// wildcard marks a funct3/funct7 field as "don't care" in a decode table
// entry; every concrete value of that field is unrolled to the same
// handler when the table is built.
const wildcard = ^uint32(0)

// Handler executes one decoded instruction against h. insn is the raw
// 32-bit word, passed through so handlers can re-extract fields (rd, rs1,
// rs2, immediates) without the decoder having to carry them separately.
type Handler func(h *Hart, insn uint32) error

type instruction struct {
	name    string
	opcode  uint32
	funct3  uint32 // wildcard means "any"
	funct7  uint32 // wildcard means "any"; AMO ops are registered separately below
	handler Handler
}

// decodeKey packs the three decode fields into a single dense index.
// opcode is 7 bits, funct3 3 bits, funct7 7 bits: 17 bits total, unrolled
// at build time so that Decode is a single array lookup with no branching.
func decodeKey(opc, f3, f7 uint32) uint32 {
	return (f7 << 10) | (f3 << 7) | opc
}

var decodeTable [1 << 17]Handler
var decodeNames [1 << 17]string

func init() {
	for _, ins := range instructionSet {
		f3s := []uint32{ins.funct3}
		if ins.funct3 == wildcard {
			f3s = allFunct3
		}
		f7s := []uint32{ins.funct7}
		if ins.funct7 == wildcard {
			f7s = allFunct7
		}
		for _, f3 := range f3s {
			for _, f7 := range f7s {
				k := decodeKey(ins.opcode, f3, f7)
				decodeTable[k] = ins.handler
				decodeNames[k] = ins.name
			}
		}
	}
}

var allFunct3 = []uint32{0, 1, 2, 3, 4, 5, 6, 7}

var allFunct7 = func() []uint32 {
	v := make([]uint32, 128)
	for i := range v {
		v[i] = uint32(i)
	}
	return v
}()

// decodeFunct7 returns the raw funct7 field used as the decode table's
// key. AMO instructions still key on the full 7-bit funct7 (funct5<<2 |
// aq | rl): the table build below registers all four aq/rl combinations
// of a given funct5 against the same handler, so no separate masking is
// needed here.
func decodeFunct7(opc, insn uint32) uint32 {
	return funct7(insn)
}

// Decode looks up the handler for insn. A miss (no registered instruction
// for this opcode/funct3/funct7 combination) returns nil; the caller turns
// that into an IllegalInstruction exception with mtval = insn.
func Decode(insn uint32) (Handler, string) {
	opc := opcode(insn)
	f3 := funct3(insn)
	f7 := decodeFunct7(opc, insn)
	k := decodeKey(opc, f3, f7)
	return decodeTable[k], decodeNames[k]
}

var instructionSet = []instruction{
	{"LUI", opLui, wildcard, wildcard, execLUI},
	{"AUIPC", opAuipc, wildcard, wildcard, execAUIPC},
	{"JAL", opJal, wildcard, wildcard, execJAL},
	{"JALR", opJalr, 0b000, wildcard, execJALR},

	{"BEQ", opBranch, 0b000, wildcard, execBranch},
	{"BNE", opBranch, 0b001, wildcard, execBranch},
	{"BLT", opBranch, 0b100, wildcard, execBranch},
	{"BGE", opBranch, 0b101, wildcard, execBranch},
	{"BLTU", opBranch, 0b110, wildcard, execBranch},
	{"BGEU", opBranch, 0b111, wildcard, execBranch},

	{"LB", opLoad, 0b000, wildcard, execLoad},
	{"LH", opLoad, 0b001, wildcard, execLoad},
	{"LW", opLoad, 0b010, wildcard, execLoad},
	{"LBU", opLoad, 0b100, wildcard, execLoad},
	{"LHU", opLoad, 0b101, wildcard, execLoad},

	{"SB", opStore, 0b000, wildcard, execStore},
	{"SH", opStore, 0b001, wildcard, execStore},
	{"SW", opStore, 0b010, wildcard, execStore},

	{"ADDI", opImm, 0b000, wildcard, execOpImm},
	{"SLTI", opImm, 0b010, wildcard, execOpImm},
	{"SLTIU", opImm, 0b011, wildcard, execOpImm},
	{"XORI", opImm, 0b100, wildcard, execOpImm},
	{"ORI", opImm, 0b110, wildcard, execOpImm},
	{"ANDI", opImm, 0b111, wildcard, execOpImm},
	{"SLLI", opImm, 0b001, 0b0000000, execOpImm},
	{"SRLI", opImm, 0b101, 0b0000000, execOpImm},
	{"SRAI", opImm, 0b101, 0b0100000, execOpImm},

	{"ADD", opOp, 0b000, 0b0000000, execOp},
	{"SUB", opOp, 0b000, 0b0100000, execOp},
	{"SLL", opOp, 0b001, 0b0000000, execOp},
	{"SLT", opOp, 0b010, 0b0000000, execOp},
	{"SLTU", opOp, 0b011, 0b0000000, execOp},
	{"XOR", opOp, 0b100, 0b0000000, execOp},
	{"SRL", opOp, 0b101, 0b0000000, execOp},
	{"SRA", opOp, 0b101, 0b0100000, execOp},
	{"OR", opOp, 0b110, 0b0000000, execOp},
	{"AND", opOp, 0b111, 0b0000000, execOp},

	{"MUL", opOp, 0b000, 0b0000001, execOpM},
	{"MULH", opOp, 0b001, 0b0000001, execOpM},
	{"MULHSU", opOp, 0b010, 0b0000001, execOpM},
	{"MULHU", opOp, 0b011, 0b0000001, execOpM},
	{"DIV", opOp, 0b100, 0b0000001, execOpM},
	{"DIVU", opOp, 0b101, 0b0000001, execOpM},
	{"REM", opOp, 0b110, 0b0000001, execOpM},
	{"REMU", opOp, 0b111, 0b0000001, execOpM},

	{"FENCE", opMiscMem, 0b000, wildcard, execFence},
	{"FENCE.I", opMiscMem, 0b001, wildcard, execFence},

	{"SYSTEM-PRIV", opSystem, 0b000, wildcard, execSystemPriv},
	{"CSRRW", opSystem, 0b001, wildcard, execCSR},
	{"CSRRS", opSystem, 0b010, wildcard, execCSR},
	{"CSRRC", opSystem, 0b011, wildcard, execCSR},
	{"CSRRWI", opSystem, 0b101, wildcard, execCSR},
	{"CSRRSI", opSystem, 0b110, wildcard, execCSR},
	{"CSRRCI", opSystem, 0b111, wildcard, execCSR},
}

func init() {
	amoEntries := []struct {
		name   string
		funct5 uint32
	}{
		{"LR.W", 0b00010},
		{"SC.W", 0b00011},
		{"AMOSWAP.W", 0b00001},
		{"AMOADD.W", 0b00000},
		{"AMOXOR.W", 0b00100},
		{"AMOAND.W", 0b01100},
		{"AMOOR.W", 0b01000},
		{"AMOMIN.W", 0b10000},
		{"AMOMAX.W", 0b10100},
		{"AMOMINU.W", 0b11000},
		{"AMOMAXU.W", 0b11100},
	}
	for _, e := range amoEntries {
		for aqrl := uint32(0); aqrl < 4; aqrl++ {
			f7 := (e.funct5 << 2) | aqrl
			k := decodeKey(opAmo, 0b010, f7)
			decodeTable[k] = execAMO
			decodeNames[k] = e.name
		}
	}
}
