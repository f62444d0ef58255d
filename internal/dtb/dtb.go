// Package dtb reads and validates a flattened Device Tree Blob supplied
// by the caller: a DTB here is always an external input placed at the
// end of RAM at boot, so this package only needs enough of the format
// to sanity check the blob and report its size, not construct one.
package dtb

import (
	"encoding/binary"
	"fmt"
)

// Header field layout, matching the flattened devicetree format.
const (
	Magic          = 0xd00dfeed
	headerSize     = 40
	lastCompatible = 16
)

// Header is the fixed 40-byte FDT header, all fields big-endian.
type Header struct {
	Magic            uint32
	TotalSize        uint32
	OffDTStruct      uint32
	OffDTStrings     uint32
	OffMemRsvmap     uint32
	Version          uint32
	LastCompVersion  uint32
	BootCPUIDPhys    uint32
	SizeDTStrings    uint32
	SizeDTStruct     uint32
}

// Parse validates data as a flattened device tree and returns its header.
// It does not walk the structure block; the guest kernel is the consumer
// of the tree's contents, this package only needs to confirm the blob is
// well-formed enough to place in guest memory.
func Parse(data []byte) (Header, error) {
	var h Header
	if len(data) < headerSize {
		return h, fmt.Errorf("dtb: blob too small (%d bytes)", len(data))
	}
	h.Magic = binary.BigEndian.Uint32(data[0:4])
	if h.Magic != Magic {
		return h, fmt.Errorf("dtb: bad magic 0x%08x (want 0x%08x)", h.Magic, uint32(Magic))
	}
	h.TotalSize = binary.BigEndian.Uint32(data[4:8])
	h.OffDTStruct = binary.BigEndian.Uint32(data[8:12])
	h.OffDTStrings = binary.BigEndian.Uint32(data[12:16])
	h.OffMemRsvmap = binary.BigEndian.Uint32(data[16:20])
	h.Version = binary.BigEndian.Uint32(data[20:24])
	h.LastCompVersion = binary.BigEndian.Uint32(data[24:28])
	h.BootCPUIDPhys = binary.BigEndian.Uint32(data[28:32])
	h.SizeDTStrings = binary.BigEndian.Uint32(data[32:36])
	h.SizeDTStruct = binary.BigEndian.Uint32(data[36:40])

	if h.LastCompVersion > lastCompatible {
		return h, fmt.Errorf("dtb: unsupported last-compatible-version %d", h.LastCompVersion)
	}
	if uint64(h.TotalSize) > uint64(len(data)) {
		return h, fmt.Errorf("dtb: header totalsize %d exceeds blob length %d", h.TotalSize, len(data))
	}
	return h, nil
}
