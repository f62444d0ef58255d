package hart

// enterTrap implements exception entry for both synchronous exceptions
// and interrupts. faultPC is the pc of the instruction being executed
// (or, for an interrupt, the pc the hart was about to execute).
func (h *Hart) enterTrap(cause Cause, tval uint32, faultPC uint32) error {
	mtvec := h.CSR.storage[CSRMtvec]
	mode := mtvec & 0b11
	if mode != 0 {
		h.debugf("unhandled trap-vector mode %d (mtvec=0x%08x)", mode, mtvec)
		return fatalf(ExitUnhandledTrapVector, "unhandled trap-vector mode %d", mode)
	}

	h.CSR.storage[CSRMcause] = uint32(cause)
	h.CSR.storage[CSRMtval] = tval

	status := h.CSR.storage[CSRMstatus]
	status &^= mstatusMPPMask
	status |= uint32(h.Priv) << mstatusMPPShift
	mie := status & mstatusMIE
	status &^= mstatusMPIE
	if mie != 0 {
		status |= mstatusMPIE
	}
	status &^= mstatusMIE
	h.CSR.storage[CSRMstatus] = status

	h.CSR.storage[CSRMepc] = faultPC
	h.PC = mtvec &^ 0b11
	return nil
}

// checkForInterrupt evaluates pending interrupts: when mip has a bit
// set, the hart is in Machine mode, and MIE is set, the highest-priority
// enabled pending interrupt (MEI > MSI > MTI, the only three this
// implementation evaluates) is taken.
func (h *Hart) checkForInterrupt() (Cause, bool) {
	status := h.CSR.storage[CSRMstatus]
	if h.Priv != PrivilegeMachine || status&mstatusMIE == 0 {
		return 0, false
	}
	pending := h.CSR.storage[CSRMip] & h.CSR.storage[CSRMie]
	if pending == 0 {
		return 0, false
	}
	switch {
	case pending&mipMEIP != 0:
		return CauseMachineExternalInterrupt, true
	case pending&mipMSIP != 0:
		return CauseMachineSoftwareInterrupt, true
	case pending&mipMTIP != 0:
		return CauseMachineTimerInterrupt, true
	}
	return 0, false
}

// mret implements the MRET instruction's state restoration as pure OR
// logic rather than the privileged architecture's clear-then-set
// sequence: the new mstatus is the old value OR'd with 0x00001880
// (re-arm MPIE, force MPP=Machine) OR'd with the old MPIE bit shifted
// down into MIE's position. Because this is pure OR logic it can set
// MIE but never clear it; see DESIGN.md for why this is kept as-is.
func (h *Hart) mret() error {
	h.Priv = PrivilegeMachine

	old := h.CSR.storage[CSRMstatus]
	h.CSR.storage[CSRMstatus] = old | 0x00001880 | ((old & mstatusMPIE) >> 4)

	h.PC = h.CSR.storage[CSRMepc]
	return nil
}
