package hart

// execAMO implements the A extension: LR.W, SC.W, and the eight AMO
// read-modify-write ops. All of it decodes to this one handler; the
// decode table has already folded away the aq/rl bits.
func execAMO(h *Hart, insn uint32) error {
	addr := h.X[rs1(insn)]
	if addr%4 != 0 {
		return Exception(CauseInstructionAddressMisaligned, addr)
	}

	funct5 := funct7(insn) >> 2

	switch funct5 {
	case 0b00010: // LR.W
		val, err := h.Bus.Read32(addr)
		if err != nil {
			return err
		}
		h.Reservation = Reservation{Addr: addr, Valid: true}
		h.WriteReg(rd(insn), val)
		h.PC += 4
		return nil

	case 0b00011: // SC.W
		if h.Reservation.Valid && h.Reservation.Addr == addr {
			if err := h.Bus.Write32(addr, h.X[rs2(insn)]); err != nil {
				return err
			}
			h.Reservation.Valid = false
			h.WriteReg(rd(insn), 0)
		} else {
			h.WriteReg(rd(insn), 1)
		}
		h.PC += 4
		return nil
	}

	old, err := h.Bus.Read32(addr)
	if err != nil {
		return err
	}
	operand := h.X[rs2(insn)]
	var result uint32
	switch funct5 {
	case 0b00001: // AMOSWAP.W
		result = operand
	case 0b00000: // AMOADD.W
		result = old + operand
	case 0b00100: // AMOXOR.W
		result = old ^ operand
	case 0b01100: // AMOAND.W
		result = old & operand
	case 0b01000: // AMOOR.W
		result = old | operand
	case 0b10000: // AMOMIN.W
		if int32(old) < int32(operand) {
			result = old
		} else {
			result = operand
		}
	case 0b10100: // AMOMAX.W
		if int32(old) > int32(operand) {
			result = old
		} else {
			result = operand
		}
	case 0b11000: // AMOMINU.W
		if old < operand {
			result = old
		} else {
			result = operand
		}
	case 0b11100: // AMOMAXU.W
		if old > operand {
			result = old
		} else {
			result = operand
		}
	}
	if err := h.Bus.Write32(addr, result); err != nil {
		return err
	}
	h.WriteReg(rd(insn), old)
	h.PC += 4
	return nil
}
