package hart

import "testing"

// TestLUI checks LUI x5, 0xABCDE -> x5 == 0xABCDE000, pc += 4.
func TestLUI(t *testing.T) {
	h := newTestHart()
	if err := execLUI(h, 0xABCDE2B7); err != nil {
		t.Fatalf("execLUI: %v", err)
	}
	if h.X[5] != 0xABCDE000 {
		t.Errorf("x5 = 0x%x, want 0xABCDE000", h.X[5])
	}
	if h.PC != 4 {
		t.Errorf("pc = %d, want 4", h.PC)
	}
}

// TestADDIRoundTrip checks ADDI x1,x0,1 then ADDI x1,x1,-1 leaves x1 == 0.
func TestADDIRoundTrip(t *testing.T) {
	h := newTestHart()
	// addi x1, x0, 1
	if err := execOpImm(h, 0x00100093); err != nil {
		t.Fatalf("execOpImm: %v", err)
	}
	if h.X[1] != 1 {
		t.Fatalf("x1 = %d after first addi, want 1", h.X[1])
	}
	// addi x1, x1, -1
	if err := execOpImm(h, 0xFFF08093); err != nil {
		t.Fatalf("execOpImm: %v", err)
	}
	if h.X[1] != 0 {
		t.Errorf("x1 = %d, want 0", h.X[1])
	}
}

// TestJAL checks JAL x1, 8 at pc=0x80000000.
func TestJAL(t *testing.T) {
	h := newTestHart()
	h.PC = 0x80000000
	if err := execJAL(h, 0x008000EF); err != nil {
		t.Fatalf("execJAL: %v", err)
	}
	if h.X[1] != 0x80000004 {
		t.Errorf("x1 = 0x%x, want 0x80000004", h.X[1])
	}
	if h.PC != 0x80000008 {
		t.Errorf("pc = 0x%x, want 0x80000008", h.PC)
	}
}

// TestBranchTakenBackwards checks BEQ x0,x0,-4 at pc=0x80000100.
func TestBranchTakenBackwards(t *testing.T) {
	h := newTestHart()
	h.PC = 0x80000100
	if err := execBranch(h, 0xFE000EE3); err != nil {
		t.Fatalf("execBranch: %v", err)
	}
	if h.PC != 0x800000FC {
		t.Errorf("pc = 0x%x, want 0x800000FC", h.PC)
	}
}

func TestJALMisalignedTarget(t *testing.T) {
	h := newTestHart()
	h.PC = 0
	// jal x1, 2 (odd half-word offset, misaligned target)
	err := execJAL(h, encodeJ(opJal, 1, 2))
	exc, ok := err.(*ExceptionError)
	if !ok {
		t.Fatalf("expected *ExceptionError, got %v", err)
	}
	if exc.Cause != CauseInstructionAddressMisaligned {
		t.Errorf("cause = %v, want CauseInstructionAddressMisaligned", exc.Cause)
	}
}

func TestWriteRegAlwaysZeroesX0(t *testing.T) {
	h := newTestHart()
	h.WriteReg(0, 0xDEADBEEF)
	if h.X[0] != 0 {
		t.Errorf("x0 = 0x%x, want 0", h.X[0])
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	h := newTestHart()
	h.X[1] = 0x100
	h.X[2] = 0xCAFEBABE
	// sw x2, 0(x1)
	if err := execStore(h, encodeS(opStore, 0b010, 1, 2, 0)); err != nil {
		t.Fatalf("execStore: %v", err)
	}
	// lw x3, 0(x1)
	if err := execLoad(h, encodeI(opLoad, 0b010, 3, 1, 0)); err != nil {
		t.Fatalf("execLoad: %v", err)
	}
	if h.X[3] != 0xCAFEBABE {
		t.Errorf("x3 = 0x%x, want 0xCAFEBABE", h.X[3])
	}
}

// encodeI builds a minimal I-type word for tests needing arbitrary
// rd/rs1/imm combinations the handwritten hex literals above don't cover.
func encodeI(opc, f3 uint32, rd, rs1 int, imm uint32) uint32 {
	return (imm&0xFFF)<<20 | uint32(rs1)<<15 | f3<<12 | uint32(rd)<<7 | opc
}

func encodeS(opc, f3 uint32, rs1, rs2 int, imm uint32) uint32 {
	imm &= 0xFFF
	hi := (imm >> 5) & 0x7F
	lo := imm & 0x1F
	return hi<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | f3<<12 | lo<<7 | opc
}

// encodeJ builds a J-type word from a 21-bit-range signed immediate.
func encodeJ(opc uint32, rd int, imm uint32) uint32 {
	imm &= 0x1FFFFF
	bit20 := (imm >> 20) & 1
	bits19_12 := (imm >> 12) & 0xFF
	bit11 := (imm >> 11) & 1
	bits10_1 := (imm >> 1) & 0x3FF
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | uint32(rd)<<7 | opc
}
