package hart

// Step executes exactly one fetch-decode-execute cycle: check for a
// misaligned PC, check for a pending interrupt, fetch, decode, execute,
// then advance the cycle counters. It returns a non-nil error only when
// a fault is not an ExceptionError: a FatalError (developer-facing,
// process-ending) or an error from a device, such as a failed console
// write. Ordinary guest-visible faults are absorbed into the trap-entry
// path and Step returns nil so the caller can keep stepping.
func (h *Hart) Step() error {
	if h.PC%4 != 0 {
		// A misaligned fetch address faults immediately and never
		// reaches the counter-advancing path below.
		return h.takeFault(Exception(CauseInstructionAddressMisaligned, h.PC), h.PC)
	}

	if cause, ok := h.checkForInterrupt(); ok {
		if err := h.enterTrap(cause, 0, h.PC); err != nil {
			return err
		}
		h.advanceCounters()
		return nil
	}

	faultPC := h.PC
	insnWord, err := h.Bus.Read32(h.PC)
	if err != nil {
		if err := h.takeFault(err, faultPC); err != nil {
			return err
		}
		h.advanceCounters()
		return nil
	}

	handler, _ := Decode(insnWord)
	if handler == nil {
		if err := h.takeFault(Exception(CauseIllegalInstruction, insnWord), faultPC); err != nil {
			return err
		}
		h.advanceCounters()
		return nil
	}

	if err := handler(h, insnWord); err != nil {
		if err := h.takeFault(err, faultPC); err != nil {
			return err
		}
		h.advanceCounters()
		return nil
	}

	h.X[0] = 0
	h.advanceCounters()
	return nil
}

// advanceCounters increments mcycle with carry into mcycleh, and keeps
// minstret/minstreth tracking it lockstep (this implementation never
// stalls, so one cycle is always one retired instruction, one trap
// entry, or one interrupt entry).
func (h *Hart) advanceCounters() {
	h.CSR.storage[CSRMcycle]++
	if h.CSR.storage[CSRMcycle] == 0 {
		h.CSR.storage[CSRMcycleh]++
	}
	h.CSR.storage[CSRMinstret] = h.CSR.storage[CSRMcycle]
	h.CSR.storage[CSRMinstreth] = h.CSR.storage[CSRMcycleh]
}

// takeFault classifies err: an ExceptionError enters the trap handler and
// returns nil (recoverable from the guest's perspective); a FatalError or
// any other error propagates up to terminate the process.
func (h *Hart) takeFault(err error, faultPC uint32) error {
	if exc, ok := err.(*ExceptionError); ok {
		return h.enterTrap(exc.Cause, exc.Tval, faultPC)
	}
	return err
}

// RaiseTimerInterruptPending is called by the owning machine loop once
// per cycle, before Step, when the bus-owned CLINT reports mtime has
// reached mtimecmp. It ORs mip.MTIP into storage directly, bypassing
// the mip setter's write mask.
func (h *Hart) RaiseTimerInterruptPending() {
	h.CSR.storage[CSRMip] |= mipMTIP
}

// ClearTimerInterruptPending is called by the CLINT device when a write
// to mtimecmp raises the comparator above the current mtime, which must
// also clear mip.MTIP. Like RaiseTimerInterruptPending this bypasses the
// mip setter's write mask.
func (h *Hart) ClearTimerInterruptPending() {
	h.CSR.storage[CSRMip] &^= mipMTIP
}
