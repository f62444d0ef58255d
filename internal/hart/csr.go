package hart

// CSR addresses used by this implementation. Unlisted 12-bit CSR numbers
// have no table entry and raise IllegalInstruction on any access.
const (
	CSRMstatus    = 0x300
	CSRMisa       = 0x301
	CSRMedeleg    = 0x302
	CSRMideleg    = 0x303
	CSRMie        = 0x304
	CSRMtvec      = 0x305
	CSRMcounteren = 0x306
	CSRMscratch   = 0x340
	CSRMepc       = 0x341
	CSRMcause     = 0x342
	CSRMtval      = 0x343
	CSRMip        = 0x344

	CSRPmpcfg0  = 0x3A0
	CSRPmpaddr0 = 0x3B0

	CSRCycle    = 0xC00
	CSRCycleh   = 0xC80
	CSRInstret  = 0xC02
	CSRInstreth = 0xC82

	CSRMcycle    = 0xB00
	CSRMcycleh   = 0xB80
	CSRMinstret  = 0xB02
	CSRMinstreth = 0xB82

	CSRMvendorid = 0xF11
	CSRMarchid   = 0xF12
	CSRMimpid    = 0xF13
	CSRMhartid   = 0xF14
)

// mip/mie/mstatus bit positions referenced by the CSR write masks and the
// interrupt evaluator.
const (
	mstatusMIE      = 1 << 3
	mstatusMPIE     = 1 << 7
	mstatusMPPShift = 11
	mstatusMPPMask  = 0b11 << mstatusMPPShift

	mipMSIP = 1 << 3
	mipMTIP = 1 << 7
	mipMEIP = 1 << 11
	mipSSIP = 1 << 1
	mipSTIP = 1 << 5
	mipSEIP = 1 << 9

	mieMask = mipMSIP | mipMTIP | mipMEIP
)

// csrEntry describes one CSR: its minimum privilege and, when set, a
// custom setter run in place of a plain store. Custom setters implement
// a register's write mask (which bits are software-writable at all, and
// which ones are forced to a fixed value on every write).
type csrEntry struct {
	name     string
	minPriv  Privilege
	readOnly bool
	set      func(h *Hart, val uint32)
}

// CSRFile is the 4096-entry CSR table: a flat array of plain storage plus
// a parallel array of behavior descriptors, one per CSR address.
type CSRFile struct {
	storage [4096]uint32
	entries [4096]*csrEntry
}

func (c *CSRFile) init() {
	reg := func(addr int, e csrEntry) {
		entry := e
		c.entries[addr] = &entry
	}

	reg(CSRMstatus, csrEntry{name: "mstatus", minPriv: PrivilegeMachine, set: setMstatus})
	reg(CSRMisa, csrEntry{name: "misa", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMedeleg, csrEntry{name: "medeleg", minPriv: PrivilegeMachine})
	reg(CSRMideleg, csrEntry{name: "mideleg", minPriv: PrivilegeMachine, set: setMideleg})
	reg(CSRMie, csrEntry{name: "mie", minPriv: PrivilegeMachine, set: setMie})
	reg(CSRMtvec, csrEntry{name: "mtvec", minPriv: PrivilegeMachine})
	reg(CSRMcounteren, csrEntry{name: "mcounteren", minPriv: PrivilegeMachine})
	reg(CSRMscratch, csrEntry{name: "mscratch", minPriv: PrivilegeMachine})
	reg(CSRMepc, csrEntry{name: "mepc", minPriv: PrivilegeMachine, set: setMepc})
	reg(CSRMcause, csrEntry{name: "mcause", minPriv: PrivilegeMachine})
	reg(CSRMtval, csrEntry{name: "mtval", minPriv: PrivilegeMachine})
	reg(CSRMip, csrEntry{name: "mip", minPriv: PrivilegeMachine, set: setMip})

	for a := CSRPmpcfg0; a < CSRPmpcfg0+16; a++ {
		reg(a, csrEntry{name: "pmpcfg", minPriv: PrivilegeMachine, readOnly: true})
	}
	for a := CSRPmpaddr0; a < CSRPmpaddr0+64; a++ {
		reg(a, csrEntry{name: "pmpaddr", minPriv: PrivilegeMachine, readOnly: true})
	}

	reg(CSRCycle, csrEntry{name: "cycle", minPriv: PrivilegeUser, readOnly: true})
	reg(CSRCycleh, csrEntry{name: "cycleh", minPriv: PrivilegeUser, readOnly: true})
	reg(CSRInstret, csrEntry{name: "instret", minPriv: PrivilegeUser, readOnly: true})
	reg(CSRInstreth, csrEntry{name: "instreth", minPriv: PrivilegeUser, readOnly: true})
	reg(CSRMcycle, csrEntry{name: "mcycle", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMcycleh, csrEntry{name: "mcycleh", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMinstret, csrEntry{name: "minstret", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMinstreth, csrEntry{name: "minstreth", minPriv: PrivilegeMachine, readOnly: true})

	reg(CSRMvendorid, csrEntry{name: "mvendorid", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMarchid, csrEntry{name: "marchid", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMimpid, csrEntry{name: "mimpid", minPriv: PrivilegeMachine, readOnly: true})
	reg(CSRMhartid, csrEntry{name: "mhartid", minPriv: PrivilegeMachine, readOnly: true})
}

// Read returns the raw storage value at addr, for diagnostics (register
// dumps, the debug monitor). It does not apply the counter aliasing or
// privilege checks csrRead does for CSR instructions.
func (c *CSRFile) Read(addr uint32) uint32 {
	return c.storage[addr]
}

// csrRead returns the live value of addr, honoring the counter aliases
// (cycle/instret read the same live storage as their m-prefixed source).
func (h *Hart) csrRead(addr uint32) (uint32, *csrEntry, bool) {
	e := h.CSR.entries[addr]
	if e == nil {
		return 0, nil, false
	}
	switch addr {
	case CSRCycle:
		return h.CSR.storage[CSRMcycle], e, true
	case CSRCycleh:
		return h.CSR.storage[CSRMcycleh], e, true
	case CSRInstret:
		return h.CSR.storage[CSRMinstret], e, true
	case CSRInstreth:
		return h.CSR.storage[CSRMinstreth], e, true
	}
	return h.CSR.storage[addr], e, true
}

// csrWrite stores val into addr via its custom setter, or plainly if the
// entry has none. Read-only entries (misa, mvendorid/marchid/mimpid,
// PMP config/address, and the counters) are silent no-ops.
func (h *Hart) csrWrite(addr uint32, val uint32) {
	e := h.CSR.entries[addr]
	if e == nil || e.readOnly {
		return
	}
	if e.set != nil {
		e.set(h, val)
		return
	}
	h.CSR.storage[addr] = val
}

// setMstatus applies mstatus's write mask: forces MPP=Machine, clears
// the S-mode/virtualization fields this implementation never uses, and
// preserves everything else.
func setMstatus(h *Hart, val uint32) {
	const clearMask = 0 |
		(1 << 20) | // TVM
		(1 << 21) | // TW
		(1 << 17) | // MPRV
		(1 << 18) | // SUM
		(1 << 19) | // MXR
		(0b11 << 13) | // FS
		(0b11 << 9) | // VS
		(0b11 << 15) | // XS
		(1 << 31) // SD
	newVal := val &^ clearMask
	newVal = (newVal &^ mstatusMPPMask) | (uint32(PrivilegeMachine) << mstatusMPPShift)
	h.CSR.storage[CSRMstatus] = newVal
}

// setMie clears the S-mode enable bits; this implementation never
// delegates to S-mode, so they stay reserved-zero.
func setMie(h *Hart, val uint32) {
	h.CSR.storage[CSRMie] = val &^ (mipSSIP | mipSTIP | mipSEIP)
}

// setMip clears the S-mode pending bits. mip.MTIP is also set directly
// by the cycle driver outside this setter when the timer comparator
// expires; checkForInterrupt reads mip/mie/mstatus fresh every cycle,
// so no cached interrupt state needs invalidating here.
func setMip(h *Hart, val uint32) {
	h.CSR.storage[CSRMip] = val &^ (mipSSIP | mipSTIP | mipSEIP)
}

// setMideleg is a no-op on storage: this implementation never delegates
// traps to a lower privilege, so mideleg always reads 0.
func setMideleg(h *Hart, val uint32) {
	h.CSR.storage[CSRMideleg] = 0
}

// setMepc clears the low bit, matching the mepc write contract (IALIGN=32
// makes bit 0 always reserved-zero for this no-C implementation).
func setMepc(h *Hart, val uint32) {
	h.CSR.storage[CSRMepc] = val &^ 1
}
