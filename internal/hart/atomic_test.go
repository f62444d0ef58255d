package hart

import "testing"

// TestLRSCSuccess checks that LR.W x5,(x6) then SC.W x7,x8,(x6) succeeds
// and clears the reservation.
func TestLRSCSuccess(t *testing.T) {
	h := newTestHart()
	h.X[6] = 0x1000
	h.X[8] = 0xDEADBEEF
	if err := h.Bus.Write32(0x1000, 0); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	// lr.w x5, (x6)
	if err := execAMO(h, encodeAMO(0b00010, 0, 0, 5, 6, 0)); err != nil {
		t.Fatalf("LR.W: %v", err)
	}
	if !h.Reservation.Valid || h.Reservation.Addr != 0x1000 {
		t.Fatalf("reservation not set: %+v", h.Reservation)
	}

	// sc.w x7, x8, (x6)
	if err := execAMO(h, encodeAMO(0b00011, 0, 0, 7, 6, 8)); err != nil {
		t.Fatalf("SC.W: %v", err)
	}
	if h.X[7] != 0 {
		t.Errorf("x7 = %d, want 0 (SC success)", h.X[7])
	}
	if h.Reservation.Valid {
		t.Error("reservation still valid after successful SC")
	}
	val, err := h.Bus.Read32(0x1000)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if val != 0xDEADBEEF {
		t.Errorf("mem[0x1000] = 0x%x, want 0xDEADBEEF", val)
	}
}

// TestSCFailsWithoutReservation checks that a SC with no prior LR to the
// same address fails (rd != 0).
func TestSCFailsWithoutReservation(t *testing.T) {
	h := newTestHart()
	h.X[6] = 0x1000
	h.X[8] = 0x11111111
	if err := execAMO(h, encodeAMO(0b00011, 0, 0, 7, 6, 8)); err != nil {
		t.Fatalf("SC.W: %v", err)
	}
	if h.X[7] == 0 {
		t.Error("x7 = 0, want nonzero (SC should fail without a reservation)")
	}
}

// TestSecondSCFails checks that a second SC after a reservation was
// already consumed fails.
func TestSecondSCFails(t *testing.T) {
	h := newTestHart()
	h.X[6] = 0x2000
	h.X[8] = 1
	if err := execAMO(h, encodeAMO(0b00010, 0, 0, 5, 6, 0)); err != nil {
		t.Fatalf("LR.W: %v", err)
	}
	if err := execAMO(h, encodeAMO(0b00011, 0, 0, 7, 6, 8)); err != nil {
		t.Fatalf("first SC.W: %v", err)
	}
	if err := execAMO(h, encodeAMO(0b00011, 0, 0, 7, 6, 8)); err != nil {
		t.Fatalf("second SC.W: %v", err)
	}
	if h.X[7] == 0 {
		t.Error("second SC.W succeeded, want failure")
	}
}

func TestAMOAdd(t *testing.T) {
	h := newTestHart()
	h.X[6] = 0x1000
	h.X[8] = 5
	if err := h.Bus.Write32(0x1000, 10); err != nil {
		t.Fatal(err)
	}
	if err := execAMO(h, encodeAMO(0b00000, 0, 0, 5, 6, 8)); err != nil {
		t.Fatalf("AMOADD.W: %v", err)
	}
	if h.X[5] != 10 {
		t.Errorf("x5 (old value) = %d, want 10", h.X[5])
	}
	val, _ := h.Bus.Read32(0x1000)
	if val != 15 {
		t.Errorf("mem[0x1000] = %d, want 15", val)
	}
}

func TestAMOMisalignedAddress(t *testing.T) {
	h := newTestHart()
	h.X[6] = 0x1001
	err := execAMO(h, encodeAMO(0b00010, 0, 0, 5, 6, 0))
	exc, ok := err.(*ExceptionError)
	if !ok {
		t.Fatalf("expected *ExceptionError, got %v", err)
	}
	if exc.Cause != CauseInstructionAddressMisaligned {
		t.Errorf("cause = %v, want CauseInstructionAddressMisaligned", exc.Cause)
	}
}

// encodeAMO builds an AMO-opcode word from a funct5 plus aq/rl bits.
func encodeAMO(funct5, aq, rl uint32, rd, rs1, rs2 int) uint32 {
	f7 := funct5<<2 | aq<<1 | rl
	return f7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | 0b010<<12 | uint32(rd)<<7 | opAmo
}
