package hart

// Handlers for LUI, AUIPC, JAL, JALR, branches, loads, stores, OP-IMM,
// OP, and the Zifencei no-ops. Each handler follows the same shape:
// compute the result, write rd, re-zero x0 (via WriteReg), and advance
// pc by 4 unless it installs a new pc itself.

func execLUI(h *Hart, insn uint32) error {
	h.WriteReg(rd(insn), immU(insn))
	h.PC += 4
	return nil
}

func execAUIPC(h *Hart, insn uint32) error {
	h.WriteReg(rd(insn), h.PC+immU(insn))
	h.PC += 4
	return nil
}

func execJAL(h *Hart, insn uint32) error {
	target := h.PC + immJ(insn)
	if target%4 != 0 {
		return Exception(CauseInstructionAddressMisaligned, target)
	}
	h.WriteReg(rd(insn), h.PC+4)
	h.PC = target
	return nil
}

func execJALR(h *Hart, insn uint32) error {
	target := (h.X[rs1(insn)] + immI(insn)) &^ 1
	if target%4 != 0 {
		return Exception(CauseInstructionAddressMisaligned, target)
	}
	linkPC := h.PC + 4
	h.WriteReg(rd(insn), linkPC)
	h.PC = target
	return nil
}

func execBranch(h *Hart, insn uint32) error {
	a := h.X[rs1(insn)]
	b := h.X[rs2(insn)]
	var taken bool
	switch funct3(insn) {
	case 0b000: // BEQ
		taken = a == b
	case 0b001: // BNE
		taken = a != b
	case 0b100: // BLT
		taken = int32(a) < int32(b)
	case 0b101: // BGE
		taken = int32(a) >= int32(b)
	case 0b110: // BLTU
		taken = a < b
	case 0b111: // BGEU
		taken = a >= b
	}
	if !taken {
		h.PC += 4
		return nil
	}
	target := h.PC + immB(insn)
	if target%4 != 0 {
		return Exception(CauseInstructionAddressMisaligned, target)
	}
	h.PC = target
	return nil
}

func execLoad(h *Hart, insn uint32) error {
	addr := h.X[rs1(insn)] + immI(insn)
	var val uint32
	switch funct3(insn) {
	case 0b000: // LB
		b, err := h.Bus.Read8(addr)
		if err != nil {
			return err
		}
		val = signExtend(uint32(b), 8)
	case 0b001: // LH
		v, err := h.Bus.Read16(addr)
		if err != nil {
			return err
		}
		val = signExtend(uint32(v), 16)
	case 0b010: // LW
		v, err := h.Bus.Read32(addr)
		if err != nil {
			return err
		}
		val = v
	case 0b100: // LBU
		b, err := h.Bus.Read8(addr)
		if err != nil {
			return err
		}
		val = uint32(b)
	case 0b101: // LHU
		v, err := h.Bus.Read16(addr)
		if err != nil {
			return err
		}
		val = uint32(v)
	}
	h.WriteReg(rd(insn), val)
	h.PC += 4
	return nil
}

func execStore(h *Hart, insn uint32) error {
	addr := h.X[rs1(insn)] + immS(insn)
	val := h.X[rs2(insn)]
	var err error
	switch funct3(insn) {
	case 0b000: // SB
		err = h.Bus.Write8(addr, uint8(val))
	case 0b001: // SH
		err = h.Bus.Write16(addr, uint16(val))
	case 0b010: // SW
		err = h.Bus.Write32(addr, val)
	}
	if err != nil {
		return err
	}
	h.PC += 4
	return nil
}

func execOpImm(h *Hart, insn uint32) error {
	a := h.X[rs1(insn)]
	imm := immI(insn)
	var result uint32
	switch funct3(insn) {
	case 0b000: // ADDI
		result = a + imm
	case 0b010: // SLTI
		result = boolToU32(int32(a) < int32(imm))
	case 0b011: // SLTIU
		result = boolToU32(a < imm)
	case 0b100: // XORI
		result = a ^ imm
	case 0b110: // ORI
		result = a | imm
	case 0b111: // ANDI
		result = a & imm
	case 0b001: // SLLI
		result = a << shamt(insn)
	case 0b101:
		if funct7(insn)&0b0100000 != 0 {
			result = uint32(int32(a) >> shamt(insn)) // SRAI
		} else {
			result = a >> shamt(insn) // SRLI
		}
	}
	h.WriteReg(rd(insn), result)
	h.PC += 4
	return nil
}

func execOp(h *Hart, insn uint32) error {
	a := h.X[rs1(insn)]
	b := h.X[rs2(insn)]
	sub := funct7(insn)&0b0100000 != 0
	var result uint32
	switch funct3(insn) {
	case 0b000:
		if sub {
			result = a - b // SUB
		} else {
			result = a + b // ADD
		}
	case 0b001: // SLL
		result = a << (b & 0x1f)
	case 0b010: // SLT
		result = boolToU32(int32(a) < int32(b))
	case 0b011: // SLTU
		result = boolToU32(a < b)
	case 0b100: // XOR
		result = a ^ b
	case 0b101:
		if sub {
			result = uint32(int32(a) >> (b & 0x1f)) // SRA
		} else {
			result = a >> (b & 0x1f) // SRL
		}
	case 0b110: // OR
		result = a | b
	case 0b111: // AND
		result = a & b
	}
	h.WriteReg(rd(insn), result)
	h.PC += 4
	return nil
}

// execFence covers FENCE and FENCE.I (Zifencei): both are no-ops in a
// single-hart, non-reordering interpreter, but must still advance pc.
func execFence(h *Hart, insn uint32) error {
	h.PC += 4
	return nil
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
