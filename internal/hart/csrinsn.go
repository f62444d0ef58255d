package hart

// execCSR implements CSRRW/CSRRS/CSRRC and their immediate forms:
// privilege check, read the old value, advance pc, compute and apply
// the new value (unless this is a read-only no-op form), then write the
// old value back to rd.
func execCSR(h *Hart, insn uint32) error {
	addr := insn >> 20

	old, entry, ok := h.csrRead(addr)
	if !ok || entry.minPriv > h.Priv {
		return Exception(CauseIllegalInstruction, insn)
	}

	// Advance pc before invoking the setter, so a fault raised from
	// inside a setter names the next instruction.
	h.PC += 4

	var source uint32
	var skipWrite bool
	switch funct3(insn) {
	case 0b001: // CSRRW
		source = h.X[rs1(insn)]
	case 0b010: // CSRRS
		source = h.X[rs1(insn)]
		skipWrite = rs1(insn) == 0
	case 0b011: // CSRRC
		source = h.X[rs1(insn)]
		skipWrite = rs1(insn) == 0
	case 0b101: // CSRRWI
		source = uint32(rs1(insn))
	case 0b110: // CSRRSI
		source = uint32(rs1(insn))
		skipWrite = source == 0
	case 0b111: // CSRRCI
		source = uint32(rs1(insn))
		skipWrite = source == 0
	}

	if !skipWrite {
		var newVal uint32
		switch funct3(insn) {
		case 0b001, 0b101: // W/WI
			newVal = source
		case 0b010, 0b110: // S/SI
			newVal = old | source
		case 0b011, 0b111: // C/CI
			newVal = old &^ source
		}
		h.csrWrite(addr, newVal)
	}

	h.WriteReg(rd(insn), old)
	return nil
}

// sysImmECALL, sysImmEBREAK and sysImmMRET identify ECALL, EBREAK and
// MRET within the SYSTEM/funct3=000 sub-space, which the decode table cannot distinguish
// by opcode/funct3/funct7 alone because the distinguishing bits live in
// the normal rs2/funct7 fields but carry no register meaning here.
const (
	sysImmECALL  = 0x000
	sysImmEBREAK = 0x001
	sysImmMRET   = 0x302
)

// execSystemPriv handles ECALL, EBREAK (encoded as ECALL with immediate
// 1), and MRET. Anything else in the SYSTEM/funct3=000 sub-space is an
// illegal instruction.
func execSystemPriv(h *Hart, insn uint32) error {
	imm := insn >> 20
	switch imm {
	case sysImmECALL:
		return Exception(CauseMachineEnvCall, 0)
	case sysImmEBREAK:
		return Exception(CauseBreakpoint, h.PC)
	case sysImmMRET:
		return h.mret()
	default:
		return Exception(CauseIllegalInstruction, insn)
	}
}
