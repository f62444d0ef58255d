// Package monitor implements an optional debug dashboard: a live
// register/CSR snapshot drawn above the guest's own UART output. It is
// strictly a presentation layer over hart.Hart state and never
// participates in guest-visible semantics.
package monitor

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"

	"github.com/tinyrange/rvemu/internal/hart"
)

// abiNames are the ABI register names, used the same way a register dump
// in this codebase's RISC-V package labels x0..x31.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Dashboard draws a register/CSR snapshot to Out each time Refresh is
// called, redrawing in place via cursor-positioning escapes rather than
// scrolling the terminal.
type Dashboard struct {
	Out     io.Writer
	profile colorprofile.Profile
}

// New detects the output's color profile up front so Refresh never
// emits cursor-repositioning escapes into a redirected file or pipe
// that can't interpret them.
func New(out io.Writer) *Dashboard {
	return &Dashboard{Out: out, profile: colorprofile.Detect(out, os.Environ())}
}

// Refresh implements machine.Monitor.
func (d *Dashboard) Refresh(h *hart.Hart) {
	if d.profile == colorprofile.NoTTY {
		fmt.Fprintln(d.Out, "----")
	} else {
		fmt.Fprint(d.Out, ansi.CursorPosition(1, 1))
		fmt.Fprint(d.Out, ansi.EraseEntireScreen)
	}

	fmt.Fprintf(d.Out, "pc=0x%08x  priv=%d  mcause=0x%08x  mepc=0x%08x\r\n",
		h.PC, h.Priv, h.CSR.Read(hart.CSRMcause), h.CSR.Read(hart.CSRMepc))
	fmt.Fprintf(d.Out, "mstatus=0x%08x  mie=0x%08x  mip=0x%08x\r\n",
		h.CSR.Read(hart.CSRMstatus), h.CSR.Read(hart.CSRMie), h.CSR.Read(hart.CSRMip))

	for row := 0; row < 8; row++ {
		for col := 0; col < 4; col++ {
			i := row + col*8
			fmt.Fprintf(d.Out, "x%-2d/%-4s=0x%08x  ", i, abiNames[i], h.X[i])
		}
		fmt.Fprint(d.Out, "\r\n")
	}
}
