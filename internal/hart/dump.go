package hart

import (
	"fmt"
	"io"
)

var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// DumpRegisters prints all 32 GPRs with their ABI names plus the trap
// CSRs, for use when a non-trap fatal error terminates the process.
func (h *Hart) DumpRegisters(w io.Writer) {
	fmt.Fprintf(w, "pc=0x%08x priv=%d\n", h.PC, h.Priv)
	for i := 0; i < 32; i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Fprintf(w, "x%-2d/%-4s=0x%08x ", j, abiNames[j], h.X[j])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "mstatus=0x%08x mcause=0x%08x mepc=0x%08x mtval=0x%08x\n",
		h.CSR.Read(CSRMstatus), h.CSR.Read(CSRMcause), h.CSR.Read(CSRMepc), h.CSR.Read(CSRMtval))
}
