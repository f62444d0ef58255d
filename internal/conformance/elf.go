// Package conformance holds the instruction-set and boot conformance
// suite: a flat-binary/ELF loader for the rv32ui-p-* test set plus
// end-to-end tests driving a Hart through real instruction streams.
package conformance

import (
	"debug/elf"
	"fmt"
)

// Segment is one PT_LOAD program header's contents, ready to be written
// into guest RAM at PhysAddr.
type Segment struct {
	PhysAddr uint32
	Data     []byte
}

// ELFImage is a loaded rv32ui-p-* conformance binary: its loadable
// segments plus entry point.
type ELFImage struct {
	Entry    uint32
	Segments []Segment
}

// LoadELF reads path as a 32-bit RISC-V ELF and extracts its PT_LOAD
// segments as a flat 32-bit physical load with no relocation: this
// interpreter never runs a loader or dynamic linker, so only the raw
// segment bytes and their physical addresses matter.
func LoadELF(path string) (*ELFImage, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("conformance: open %s: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("conformance: %s is not a 32-bit ELF", path)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("conformance: %s is not a RISC-V ELF", path)
	}

	img := &ELFImage{Entry: uint32(f.Entry)}
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Memsz)
		n, err := prog.ReadAt(data[:prog.Filesz], 0)
		if err != nil {
			return nil, fmt.Errorf("conformance: read segment at 0x%x: %w", prog.Paddr, err)
		}
		if uint64(n) != prog.Filesz {
			return nil, fmt.Errorf("conformance: short read of segment at 0x%x", prog.Paddr)
		}
		img.Segments = append(img.Segments, Segment{
			PhysAddr: uint32(prog.Paddr),
			Data:     data,
		})
	}
	return img, nil
}
