// Package bus implements the Memory Bus: a byte-addressable view that
// routes addresses at or above PageOffset to RAM and everything below it
// to a small set of memory-mapped devices (UART, CLINT, SYSCON).
package bus

import (
	"github.com/tinyrange/rvemu/internal/hart"
)

// Device is a memory-mapped peripheral. Offsets passed to it are already
// relative to the device's base address.
type Device interface {
	Read8(off uint32) (uint8, error)
	Read16(off uint32) (uint16, error)
	Read32(off uint32) (uint32, error)
	Write8(off uint32, val uint8) error
	Write16(off uint32, val uint16) error
	Write32(off uint32, val uint32) error
}

type mapping struct {
	base uint32
	size uint32
	dev  Device
}

// Bus is the interpreter's memory bus: a flat RAM buffer addressed as
// ram[addr-PageOffset], with an explicit bounds check rather than a
// negative-offset pointer trick, plus a linear scan over a small
// number of MMIO device mappings below PageOffset.
type Bus struct {
	ram        []byte
	pageOffset uint32
	devices    []mapping
}

// New builds a Bus with memSize bytes of RAM starting at pageOffset.
func New(memSize int, pageOffset uint32) *Bus {
	return &Bus{
		ram:        make([]byte, memSize),
		pageOffset: pageOffset,
	}
}

// PageOffset returns the guest physical address of the first RAM byte.
func (b *Bus) PageOffset() uint32 { return b.pageOffset }

// MemSize returns the number of RAM bytes backing the bus.
func (b *Bus) MemSize() uint32 { return uint32(len(b.ram)) }

// AddDevice registers dev to handle addresses in [base, base+size).
func (b *Bus) AddDevice(base, size uint32, dev Device) {
	b.devices = append(b.devices, mapping{base: base, size: size, dev: dev})
}

// LoadBytes copies data into RAM starting at guest physical address addr.
// It is used once at boot to place the kernel image and DTB; it bypasses
// device dispatch since addr is always within RAM for those callers.
func (b *Bus) LoadBytes(addr uint32, data []byte) error {
	if addr < b.pageOffset {
		return errOutOfRange(addr)
	}
	off := uint64(addr - b.pageOffset)
	if off+uint64(len(data)) > uint64(len(b.ram)) {
		return errOutOfRange(addr)
	}
	copy(b.ram[off:], data)
	return nil
}

func errOutOfRange(addr uint32) error {
	return hart.Exception(hart.CauseStoreAccessFault, addr)
}

func (b *Bus) findDevice(addr uint32) (Device, uint32, bool) {
	for _, m := range b.devices {
		if addr >= m.base && addr < m.base+m.size {
			return m.dev, addr - m.base, true
		}
	}
	return nil, 0, false
}

func (b *Bus) ramOffset(addr uint32, width uint32) (uint64, bool) {
	if addr < b.pageOffset {
		return 0, false
	}
	off := uint64(addr - b.pageOffset)
	if off+uint64(width) > uint64(len(b.ram)) {
		return 0, false
	}
	return off, true
}

// Read8 reads one byte. addr>=PageOffset is RAM, addr==0 is softened to
// an ordinary LoadAccessFault instead of a hard process abort, and
// everything else below PageOffset dispatches to a device.
func (b *Bus) Read8(addr uint32) (uint8, error) {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 1)
		if !ok {
			return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
		}
		return b.ram[off], nil
	}
	if addr == 0 {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	return dev.Read8(off)
}

func (b *Bus) Read16(addr uint32) (uint16, error) {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 2)
		if !ok {
			return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
		}
		return uint16(b.ram[off]) | uint16(b.ram[off+1])<<8, nil
	}
	if addr == 0 {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	return dev.Read16(off)
}

func (b *Bus) Read32(addr uint32) (uint32, error) {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 4)
		if !ok {
			return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
		}
		return uint32(b.ram[off]) | uint32(b.ram[off+1])<<8 |
			uint32(b.ram[off+2])<<16 | uint32(b.ram[off+3])<<24, nil
	}
	if addr == 0 {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return 0, hart.Exception(hart.CauseLoadAccessFault, addr)
	}
	return dev.Read32(off)
}

func (b *Bus) Write8(addr uint32, val uint8) error {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 1)
		if !ok {
			return hart.Exception(hart.CauseStoreAccessFault, addr)
		}
		b.ram[off] = val
		return nil
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return hart.Exception(hart.CauseStoreAccessFault, addr)
	}
	return dev.Write8(off, val)
}

func (b *Bus) Write16(addr uint32, val uint16) error {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 2)
		if !ok {
			return hart.Exception(hart.CauseStoreAccessFault, addr)
		}
		b.ram[off] = uint8(val)
		b.ram[off+1] = uint8(val >> 8)
		return nil
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return hart.Exception(hart.CauseStoreAccessFault, addr)
	}
	return dev.Write16(off, val)
}

func (b *Bus) Write32(addr uint32, val uint32) error {
	if addr >= b.pageOffset {
		off, ok := b.ramOffset(addr, 4)
		if !ok {
			return hart.Exception(hart.CauseStoreAccessFault, addr)
		}
		b.ram[off] = uint8(val)
		b.ram[off+1] = uint8(val >> 8)
		b.ram[off+2] = uint8(val >> 16)
		b.ram[off+3] = uint8(val >> 24)
		return nil
	}
	dev, off, ok := b.findDevice(addr)
	if !ok {
		return hart.Exception(hart.CauseStoreAccessFault, addr)
	}
	return dev.Write32(off, val)
}
