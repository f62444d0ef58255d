// Package kernel loads the flat RISC-V Linux kernel image executed by
// the interpreter, auto-detecting gzip compression. Grounded on this
// codebase's own RISC-V kernel loader, stripped of the 64-bit/OpenSBI
// boot-stage addresses this spec's no-MMU Machine-mode boot never uses.
package kernel

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Image is a loaded, decompressed flat kernel image ready to be written
// into guest RAM at PageOffset.
type Image struct {
	payload []byte
}

// Load reads size bytes from r and decompresses them if they carry a
// gzip magic header.
func Load(r io.ReaderAt, size int64) (*Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("kernel: invalid image size %d", size)
	}

	payload := make([]byte, size)
	n, err := r.ReadAt(payload, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("kernel: read image: %w", err)
	}
	payload = payload[:n]

	if len(payload) >= 2 && payload[0] == 0x1f && payload[1] == 0x8b {
		decompressed, err := gunzip(payload)
		if err != nil {
			return nil, fmt.Errorf("kernel: decompress image: %w", err)
		}
		payload = decompressed
	}

	return &Image{payload: payload}, nil
}

// Payload returns the raw, decompressed kernel bytes.
func (k *Image) Payload() []byte { return k.payload }

// Size returns the length of the decompressed payload.
func (k *Image) Size() int64 { return int64(len(k.payload)) }

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
