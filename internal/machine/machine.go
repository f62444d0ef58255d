// Package machine wires a Hart to a Bus and the platform's three devices
// (UART, CLINT, SYSCON), loads a kernel image and DTB into guest RAM, and
// drives the cycle loop to completion.
package machine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tinyrange/rvemu/internal/bus"
	"github.com/tinyrange/rvemu/internal/dtb"
	"github.com/tinyrange/rvemu/internal/hart"
	"github.com/tinyrange/rvemu/internal/kernel"
)

// Platform MMIO base addresses.
const (
	UARTBase   = 0x10000000
	UARTSize   = 0x1000
	CLINTBase  = 0x11000000
	CLINTSize  = 0xC000
	SysconBase = 0x11100000
	SysconSize = 0x1000

	// DefaultPageOffset is where RAM begins and the kernel is loaded.
	DefaultPageOffset = 0x80000000
)

// Machine owns one Hart plus its bus and devices.
type Machine struct {
	Hart   *hart.Hart
	Bus    *bus.Bus
	CLINT  *bus.CLINT
	UART   *bus.UART
	Syscon *bus.Syscon

	log *slog.Logger
}

// New builds a Machine with memSize bytes of RAM starting at pageOffset,
// the console wired to out, and diagnostics wired to logger (nil is
// replaced with a discarding logger).
func New(memSize int, pageOffset uint32, out io.Writer, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	b := bus.New(memSize, pageOffset)
	h := hart.NewHart(b)
	h.DebugLog = func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	}

	m := &Machine{
		Hart:   h,
		Bus:    b,
		CLINT:  bus.NewCLINT(h),
		UART:   bus.NewUART(out),
		Syscon: bus.NewSyscon(),
		log:    logger,
	}

	b.AddDevice(UARTBase, UARTSize, m.UART)
	b.AddDevice(CLINTBase, CLINTSize, m.CLINT)
	b.AddDevice(SysconBase, SysconSize, m.Syscon)

	return m
}

// LoadKernel writes img's payload into RAM at the bus's page offset,
// where a flat RISC-V kernel image always expects to run.
func (m *Machine) LoadKernel(img *kernel.Image) error {
	base := m.Bus.PageOffset()
	if err := m.Bus.LoadBytes(base, img.Payload()); err != nil {
		return fmt.Errorf("load kernel: %w", err)
	}
	m.log.Info("loaded kernel", "base", fmt.Sprintf("0x%08x", base), "size", img.Size())
	return nil
}

// LoadDTB validates data as a flattened device tree and places it at the
// end of RAM. It returns the guest physical address the DTB was placed
// at, to be passed to the kernel in a1.
func (m *Machine) LoadDTB(data []byte) (uint32, error) {
	hdr, err := dtb.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("load dtb: %w", err)
	}

	memTop := m.Bus.PageOffset() + m.Bus.MemSize()
	addr := memTop - hdr.TotalSize
	// Keep the DTB 8-byte aligned, matching common platform conventions.
	addr &^= 0x7

	if err := m.Bus.LoadBytes(addr, data); err != nil {
		return 0, fmt.Errorf("load dtb: %w", err)
	}
	m.log.Info("loaded dtb", "addr", fmt.Sprintf("0x%08x", addr), "size", hdr.TotalSize)
	return addr, nil
}

// SetupBootRegisters sets a0=hartid(0), a1=dtbAddr, and pc=entry, the
// register convention a no-MMU Linux/RISC-V kernel entry expects.
// dtbAddr is 0 when no DTB was loaded.
func (m *Machine) SetupBootRegisters(entry, dtbAddr uint32) {
	m.Hart.X[10] = 0
	m.Hart.X[11] = dtbAddr
	m.Hart.PC = entry
}
