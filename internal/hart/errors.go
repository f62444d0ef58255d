// Package hart implements the RV32IMA_Zicsr_Zifencei instruction set: hart
// state, the CSR file, the decoder, instruction handlers, and the trap unit.
package hart

import "fmt"

// Cause identifies why a trap was taken. The low bits match the RISC-V
// privileged spec's mcause encoding; bit 31 distinguishes interrupts from
// synchronous exceptions.
type Cause uint32

const causeInterruptBit = uint32(1) << 31

// Synchronous exception causes.
const (
	CauseInstructionAddressMisaligned Cause = 0
	CauseIllegalInstruction           Cause = 2
	CauseBreakpoint                   Cause = 3
	CauseLoadAddressMisaligned        Cause = 4
	CauseLoadAccessFault              Cause = 5
	CauseStoreAddressMisaligned       Cause = 6
	CauseStoreAccessFault             Cause = 7
	CauseMachineEnvCall               Cause = 11
)

// Asynchronous (interrupt) causes, stored with the interrupt bit already set.
const (
	CauseMachineSoftwareInterrupt Cause = Cause(causeInterruptBit) | 3
	CauseMachineTimerInterrupt    Cause = Cause(causeInterruptBit) | 7
	CauseMachineExternalInterrupt Cause = Cause(causeInterruptBit) | 11
)

// IsInterrupt reports whether c names an asynchronous interrupt rather than
// a synchronous exception.
func (c Cause) IsInterrupt() bool {
	return uint32(c)&causeInterruptBit != 0
}

func (c Cause) String() string {
	switch c {
	case CauseInstructionAddressMisaligned:
		return "instruction-address-misaligned"
	case CauseIllegalInstruction:
		return "illegal-instruction"
	case CauseBreakpoint:
		return "breakpoint"
	case CauseLoadAddressMisaligned:
		return "load-address-misaligned"
	case CauseLoadAccessFault:
		return "load-access-fault"
	case CauseStoreAddressMisaligned:
		return "store-address-misaligned"
	case CauseStoreAccessFault:
		return "store-access-fault"
	case CauseMachineEnvCall:
		return "machine-ecall"
	case CauseMachineSoftwareInterrupt:
		return "machine-software-interrupt"
	case CauseMachineTimerInterrupt:
		return "machine-timer-interrupt"
	case CauseMachineExternalInterrupt:
		return "machine-external-interrupt"
	default:
		return fmt.Sprintf("cause(0x%x)", uint32(c))
	}
}

// ExceptionError is a recoverable fault raised by a handler or the cycle
// driver. The Trap Unit consumes it and redirects the hart into its trap
// handler; it never unwinds past the cycle loop.
type ExceptionError struct {
	Cause Cause
	Tval  uint32
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("%s (tval=0x%08x)", e.Cause, e.Tval)
}

// Exception builds an ExceptionError for the given synchronous or
// asynchronous cause.
func Exception(cause Cause, tval uint32) error {
	return &ExceptionError{Cause: cause, Tval: tval}
}

// FatalError marks a developer-facing condition that is not part of the
// guest-visible trap taxonomy: an unimplemented handler, a decoder miss
// that somehow escaped IllegalInstruction, insufficient privilege detected
// outside the CSR path, or an mtvec mode this implementation refuses to
// honor. cmd/rvemu maps these to the non-zero exit codes in the CLI
// contract.
type FatalError struct {
	Code    int
	Message string
}

func (e *FatalError) Error() string { return e.Message }

// Fatal exit codes, matching the CLI contract.
const (
	ExitUnknownInstruction  = 1
	ExitNotImplemented      = 2
	ExitInsufficientPriv    = 3
	ExitUnhandledTrapVector = 4
)

func fatalf(code int, format string, args ...any) error {
	return &FatalError{Code: code, Message: fmt.Sprintf(format, args...)}
}
