package conformance_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tinyrange/rvemu/internal/bus"
	"github.com/tinyrange/rvemu/internal/hart"
	"github.com/tinyrange/rvemu/internal/machine"
)

const pageOffset = 0x80000000

func newMachine() *machine.Machine {
	return machine.New(1<<20, pageOffset, io.Discard, nil)
}

var _ = Describe("literal end-to-end scenarios", func() {
	var m *machine.Machine

	BeforeEach(func() {
		m = newMachine()
		m.Hart.PC = pageOffset
	})

	It("LUI x5, 0xABCDE sets x5 and advances pc by 4", func() {
		Expect(m.Bus.Write32(pageOffset, 0xABCDE2B7)).To(Succeed())
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.X[5]).To(BeEquivalentTo(0xABCDE000))
		Expect(m.Hart.PC).To(BeEquivalentTo(pageOffset + 4))
	})

	It("ADDI x1,x0,1 then ADDI x1,x1,-1 leaves x1 == 0", func() {
		Expect(m.Bus.Write32(pageOffset, 0x00100093)).To(Succeed())   // addi x1, x0, 1
		Expect(m.Bus.Write32(pageOffset+4, 0xFFF08093)).To(Succeed()) // addi x1, x1, -1
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.X[1]).To(BeEquivalentTo(0))
	})

	It("JAL x1, 8 at pc=0x80000000 links and jumps", func() {
		Expect(m.Bus.Write32(pageOffset, 0x008000EF)).To(Succeed()) // jal x1, 8
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.X[1]).To(BeEquivalentTo(pageOffset + 4))
		Expect(m.Hart.PC).To(BeEquivalentTo(pageOffset + 8))
	})

	It("BEQ x0,x0,-4 at pc=0x80000100 branches backwards", func() {
		m.Hart.PC = 0x80000100
		Expect(m.Bus.Write32(0x80000100, 0xFE000EE3)).To(Succeed()) // beq x0, x0, -4
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.PC).To(BeEquivalentTo(uint32(0x800000FC)))
	})

	It("writing the poweroff magic to SYSCON requests a process exit of 0", func() {
		Expect(m.Bus.Write32(machine.SysconBase, bus.SysconPoweroff)).To(Succeed())
		Expect(m.Syscon.Pending()).To(Equal(bus.SysconActionPoweroff))
	})

	It("a timer interrupt redirects to mtvec with mcause=MTI", func() {
		// mstatus.MIE is already 1 out of reset; program mtvec and mie.MTIE
		// through real CSRRW instructions before forcing the interrupt.
		program := []uint32{
			encodeLUI(1, 0x80000),             // lui x1, 0x80000
			encodeADDI(1, 1, 0x200),            // addi x1, x1, 0x200
			encodeCSRRW(0, csrMtvec, 1),         // csrrw x0, mtvec, x1
			encodeADDI(2, 0, 1<<7),              // addi x2, x0, 128 (MTIE)
			encodeCSRRW(0, csrMie, 2),            // csrrw x0, mie, x2
		}
		for i, insn := range program {
			Expect(m.Bus.Write32(pageOffset+uint32(i*4), insn)).To(Succeed())
			Expect(m.Hart.Step()).To(Succeed())
		}

		// Force expiry directly, the way the owning Run loop's CLINT.Tick
		// would once mtime reaches a configured mtimecmp.
		m.Hart.RaiseTimerInterruptPending()

		preFaultPC := m.Hart.PC
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.PC).To(BeEquivalentTo(pageOffset + 0x200))
		Expect(m.Hart.CSR.Read(hart.CSRMcause)).To(BeEquivalentTo(uint32(hart.CauseMachineTimerInterrupt)))
		Expect(m.Hart.CSR.Read(hart.CSRMepc)).To(BeEquivalentTo(preFaultPC))
		Expect(m.Hart.CSR.Read(hart.CSRMstatus) & (1 << 3)).To(BeZero())
	})

	It("LR.W then SC.W to the same address succeeds and stores the value", func() {
		m.Hart.X[6] = pageOffset + 0x1000
		m.Hart.X[8] = 0xDEADBEEF
		Expect(m.Bus.Write32(pageOffset, encodeLR(5, 6))).To(Succeed())
		Expect(m.Bus.Write32(pageOffset+4, encodeSC(7, 6, 8))).To(Succeed())

		Expect(m.Hart.Step()).To(Succeed()) // LR.W
		Expect(m.Hart.Step()).To(Succeed()) // SC.W

		Expect(m.Hart.X[7]).To(BeEquivalentTo(0))
		mem, err := m.Bus.Read32(pageOffset + 0x1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(mem).To(BeEquivalentTo(0xDEADBEEF))
	})
})

var _ = Describe("invariants", func() {
	It("x0 always reads back as 0 after any write", func() {
		m := newMachine()
		m.Hart.PC = pageOffset
		Expect(m.Bus.Write32(pageOffset, 0x00500013)).To(Succeed()) // addi x0, x0, 5
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.X[0]).To(BeEquivalentTo(0))
	})

	It("DIV by 0 yields -1 and REM by 0 yields rs1", func() {
		m := newMachine()
		m.Hart.PC = pageOffset
		m.Hart.X[1] = 42
		m.Hart.X[2] = 0
		// div x3, x1, x2
		Expect(m.Bus.Write32(pageOffset, 0x0220C1B3)).To(Succeed())
		// rem x4, x1, x2
		Expect(m.Bus.Write32(pageOffset+4, 0x0220E233)).To(Succeed())
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.Step()).To(Succeed())
		Expect(m.Hart.X[3]).To(BeEquivalentTo(0xFFFFFFFF))
		Expect(m.Hart.X[4]).To(BeEquivalentTo(42))
	})
})

// CSR addresses used by the timer-interrupt test program above; the same
// values as hart.CSRMtvec and hart.CSRMie.
const (
	csrMtvec = 0x305
	csrMie   = 0x304
)

func encodeLUI(rd int, imm20 uint32) uint32 {
	return imm20<<12 | uint32(rd)<<7 | 0b0110111
}

func encodeADDI(rd, rs1 int, imm12 uint32) uint32 {
	return (imm12&0xFFF)<<20 | uint32(rs1)<<15 | uint32(rd)<<7 | 0b0010011
}

func encodeCSRRW(rd int, csrAddr uint32, rs1 int) uint32 {
	return csrAddr<<20 | uint32(rs1)<<15 | 0b001<<12 | uint32(rd)<<7 | 0b1110011
}

func encodeLR(rd, rs1 int) uint32 {
	return (0b00010<<2)<<25 | uint32(rs1)<<15 | 0b010<<12 | uint32(rd)<<7 | 0b0101111
}

func encodeSC(rd, rs1, rs2 int) uint32 {
	return (0b00011<<2)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | 0b010<<12 | uint32(rd)<<7 | 0b0101111
}
