package bus

import (
	"time"

	"github.com/tinyrange/rvemu/internal/hart"
)

// CLINT implements the Core-Local Interruptor's timer subset: MSIP
// (inert), mtimecmp, and mtime. It is mapped at 0x11000000 with the
// offsets below relative to that base.
const (
	clintOffsetMSIP         = 0x0000
	clintOffsetMtimecmpLow  = 0x4000
	clintOffsetMtimecmpHigh = 0x4004
	clintOffsetMtimeLow     = 0xBFF8
	clintOffsetMtimeHigh    = 0xBFFC
)

// CLINT is the Clock component: a monotonic microsecond mtime derived
// from the host clock, and a 64-bit mtimecmp comparator written by the
// guest.
type CLINT struct {
	hart     *hart.Hart
	start    time.Time
	mtimecmp uint64
	msip     uint32
}

// NewCLINT builds a CLINT whose mtime is relative to the call time; hart
// receives direct mip.MTIP updates on expiry and on a rearming mtimecmp
// write, bypassing the normal CSR write mask.
func NewCLINT(h *hart.Hart) *CLINT {
	return &CLINT{hart: h, start: time.Now(), mtimecmp: ^uint64(0)}
}

func (c *CLINT) mtime() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}

// Tick checks whether mtime has reached mtimecmp and, if so, ORs MTIP
// into mip storage directly rather than through the CSR setter. It is
// called once per cycle by the owning machine's run loop, before
// Hart.Step.
func (c *CLINT) Tick() {
	if c.mtime() >= c.mtimecmp {
		c.hart.RaiseTimerInterruptPending()
	}
}

func (c *CLINT) Read8(off uint32) (uint8, error) {
	v, err := c.Read32(off &^ 0x3)
	return uint8(v >> ((off & 0x3) * 8)), err
}

func (c *CLINT) Read16(off uint32) (uint16, error) {
	v, err := c.Read32(off &^ 0x3)
	return uint16(v >> ((off & 0x3) * 8)), err
}

func (c *CLINT) Read32(off uint32) (uint32, error) {
	switch off {
	case clintOffsetMSIP:
		return c.msip, nil
	case clintOffsetMtimecmpLow:
		return uint32(c.mtimecmp), nil
	case clintOffsetMtimecmpHigh:
		return uint32(c.mtimecmp >> 32), nil
	case clintOffsetMtimeLow:
		return uint32(c.mtime()), nil
	case clintOffsetMtimeHigh:
		return uint32(c.mtime() >> 32), nil
	default:
		return 0, nil
	}
}

func (c *CLINT) Write8(off uint32, val uint8) error  { return c.Write32(off, uint32(val)) }
func (c *CLINT) Write16(off uint32, val uint16) error { return c.Write32(off, uint32(val)) }

func (c *CLINT) Write32(off uint32, val uint32) error {
	switch off {
	case clintOffsetMSIP:
		// MSIP is treated as zero/no-op: storage is kept only for
		// read-back symmetry, never used to raise MSI.
		c.msip = val
	case clintOffsetMtimecmpLow:
		c.setMtimecmp((c.mtimecmp &^ 0xffffffff) | uint64(val))
	case clintOffsetMtimecmpHigh:
		c.setMtimecmp((c.mtimecmp & 0xffffffff) | (uint64(val) << 32))
	}
	return nil
}

func (c *CLINT) setMtimecmp(new uint64) {
	c.mtimecmp = new
	if new > c.mtime() {
		c.hart.ClearTimerInterruptPending()
	}
}
