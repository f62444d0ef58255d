package bus

import "io"

// UART is the write-only console device at 0x10000000: writing a byte
// to offset 0 sends it to the console, reads of RX always return 0, and
// the LSR register at offset 5 always reports THR-empty (0x60) so a
// polling guest driver never stalls waiting for transmit-ready.
type UART struct {
	Out io.Writer
}

const (
	uartOffsetData = 0x0
	uartOffsetLSR  = 0x5

	uartLSRTHREmpty = 0x60
)

func NewUART(out io.Writer) *UART {
	return &UART{Out: out}
}

func (u *UART) Read8(off uint32) (uint8, error) {
	switch off {
	case uartOffsetLSR:
		return uartLSRTHREmpty, nil
	default:
		return 0, nil
	}
}

func (u *UART) Read16(off uint32) (uint16, error) {
	v, err := u.Read8(off)
	return uint16(v), err
}

func (u *UART) Read32(off uint32) (uint32, error) {
	v, err := u.Read8(off)
	return uint32(v), err
}

func (u *UART) Write8(off uint32, val uint8) error {
	if off == uartOffsetData && u.Out != nil {
		_, err := u.Out.Write([]byte{val})
		return err
	}
	return nil
}

func (u *UART) Write16(off uint32, val uint16) error {
	return u.Write8(off, uint8(val))
}

func (u *UART) Write32(off uint32, val uint32) error {
	return u.Write8(off, uint8(val))
}
