package hart

// Field extraction from a 32-bit instruction word. Names match the RISC-V
// unprivileged spec's instruction encoding figures.

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rd(insn uint32) int        { return int((insn >> 7) & 0x1f) }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs1(insn uint32) int       { return int((insn >> 15) & 0x1f) }
func rs2(insn uint32) int       { return int((insn >> 20) & 0x1f) }
func funct7(insn uint32) uint32 { return (insn >> 25) & 0x7f }
func shamt(insn uint32) uint32  { return (insn >> 20) & 0x1f }

// signExtend propagates bit (width-1) of val to all higher bits of a
// 32-bit value: if the sign bit of the natural width is set, OR in the
// high one-bits.
func signExtend(val uint32, width uint) uint32 {
	if width >= 32 {
		return val
	}
	if val&(1<<(width-1)) != 0 {
		mask := ^uint32(0) << width
		return val | mask
	}
	return val
}

// immI decodes an I-type immediate: instr[31:20], sign-extended from 12 bits.
func immI(insn uint32) uint32 {
	raw := insn >> 20
	return signExtend(raw, 12)
}

// immS decodes an S-type immediate: instr[31:25] || instr[11:7].
func immS(insn uint32) uint32 {
	hi := (insn >> 25) & 0x7f
	lo := (insn >> 7) & 0x1f
	raw := (hi << 5) | lo
	return signExtend(raw, 12)
}

// immB decodes a B-type immediate: instr[31]||instr[7]||instr[30:25]||
// instr[11:8]||0, sign-extended from 13 bits.
func immB(insn uint32) uint32 {
	bit12 := (insn >> 31) & 0x1
	bit11 := (insn >> 7) & 0x1
	bits10_5 := (insn >> 25) & 0x3f
	bits4_1 := (insn >> 8) & 0xf
	raw := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(raw, 13)
}

// immU decodes a U-type immediate: instr[31:12] placed in bits 31:12.
func immU(insn uint32) uint32 {
	return insn & 0xfffff000
}

// immJ decodes a J-type immediate: instr[31]||instr[19:12]||instr[20]||
// instr[30:21]||0, sign-extended from 21 bits.
func immJ(insn uint32) uint32 {
	bit20 := (insn >> 31) & 0x1
	bits19_12 := (insn >> 12) & 0xff
	bit11 := (insn >> 20) & 0x1
	bits10_1 := (insn >> 21) & 0x3ff
	raw := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(raw, 21)
}
