package bus

import (
	"testing"

	"github.com/tinyrange/rvemu/internal/hart"
)

func TestRAMReadWriteRoundTrip(t *testing.T) {
	b := New(4096, 0x80000000)
	if err := b.Write32(0x80000000, 0xCAFEBABE); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	got, err := b.Read32(0x80000000)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0xCAFEBABE {
		t.Errorf("Read32 = 0x%x, want 0xCAFEBABE", got)
	}
}

func TestRAMBoundsCheck(t *testing.T) {
	b := New(16, 0x80000000)
	_, err := b.Read32(0x80000000 + 16)
	if err == nil {
		t.Fatal("expected an error reading past the end of RAM")
	}
	if exc, ok := err.(*hart.ExceptionError); !ok || exc.Cause != hart.CauseLoadAccessFault {
		t.Errorf("err = %v, want a LoadAccessFault ExceptionError", err)
	}
}

func TestNullReadIsSoftenedFault(t *testing.T) {
	b := New(4096, 0x80000000)
	_, err := b.Read32(0)
	exc, ok := err.(*hart.ExceptionError)
	if !ok {
		t.Fatalf("expected *hart.ExceptionError, got %v", err)
	}
	if exc.Cause != hart.CauseLoadAccessFault {
		t.Errorf("cause = %v, want CauseLoadAccessFault", exc.Cause)
	}
}

func TestDeviceDispatch(t *testing.T) {
	b := New(4096, 0x80000000)
	uart := NewUART(nil)
	b.AddDevice(0x10000000, 0x1000, uart)

	if err := b.Write8(0x10000000, 'A'); err != nil {
		t.Fatalf("Write8 to UART: %v", err)
	}
	lsr, err := b.Read8(0x10000005)
	if err != nil {
		t.Fatalf("Read8 LSR: %v", err)
	}
	if lsr != uartLSRTHREmpty {
		t.Errorf("LSR = 0x%x, want 0x%x", lsr, uartLSRTHREmpty)
	}
}

func TestUnmappedLowAddressFaults(t *testing.T) {
	b := New(4096, 0x80000000)
	_, err := b.Read32(0x40000000)
	if _, ok := err.(*hart.ExceptionError); !ok {
		t.Errorf("expected an ExceptionError for an unmapped address, got %v", err)
	}
}

func TestLoadBytes(t *testing.T) {
	b := New(64, 0x80000000)
	payload := []byte{1, 2, 3, 4}
	if err := b.LoadBytes(0x80000000, payload); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	got, err := b.Read32(0x80000000)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x04030201 {
		t.Errorf("Read32 = 0x%x, want 0x04030201", got)
	}
}
