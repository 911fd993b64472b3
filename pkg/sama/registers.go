// Package sama implements a stepping emulator for the lawa ISA: register
// and memory state, a peripheral device bus with asynchronous interrupt
// delivery, and the instruction decode/execute loop.
package sama

import "github.com/crashandsideburns/lawa/pkg/isa"

// Registers is the 32-entry general-purpose register file. Index 0 is not
// naturally expressible via plain array indexing without special-casing,
// so Read/Write enforce the "R0 reads 0, discards writes" invariant at
// every access rather than leaving callers to remember it.
type Registers [isa.NumRegisters]uint16

func (r *Registers) Read(idx isa.Register) uint16 {
	if idx == 0 {
		return 0
	}
	return r[idx]
}

func (r *Registers) Write(idx isa.Register, value uint16) {
	if idx == 0 {
		return
	}
	r[idx] = value
}

// ControlStatusRegisters is the 32-entry control/status register file
// described in §4.6. Reserved indices are not trapped here: Read/Write
// report Reserved back to the caller (Emulator.Step), which raises the
// implementation-defined trap, since a CSR access reaching this file is
// always guest-triggered via RCSR/WCSR and must not crash the host
// process the way the reference implementation's bounds-check panic
// would.
type ControlStatusRegisters struct {
	// im is shared with every attached device's InterruptHandle (see
	// devices.go), so it is a pointer to a mutex-guarded table rather
	// than a plain array: a device goroutine must be able to read the
	// mask concurrently with the CPU's step loop updating it.
	im  *InterruptMask
	iv  uint16
	ipc uint16
	ic  uint16

	mpc [2]uint16
	mpa [8]uint16
}

// NewControlStatusRegisters returns a CSR file sharing the given
// interrupt mask table, which the emulator's device bus also holds so
// every InterruptHandle observes the same mask.
func NewControlStatusRegisters(mask *InterruptMask) *ControlStatusRegisters {
	return &ControlStatusRegisters{im: mask}
}

// Read returns the CSR's value and true, or false if idx is a reserved
// index that should instead trap.
func (c *ControlStatusRegisters) Read(idx isa.ControlStatusRegister) (uint16, bool) {
	if idx.Reserved() {
		return 0, false
	}
	switch {
	case idx.IsInterruptMask():
		return c.im.get(int(idx - isa.IM0)), true
	case idx == isa.IV:
		return c.iv, true
	case idx == isa.IPC:
		return c.ipc, true
	case idx == isa.IC:
		return c.ic, true
	case idx == isa.MPC0:
		return c.mpc[0], true
	case idx == isa.MPC1:
		return c.mpc[1], true
	case idx.IsMemoryProtectionAddress():
		return c.mpa[idx-isa.MPALow], true
	default:
		return 0, false
	}
}

// Write sets the CSR's value, returning false (without writing) if idx is
// reserved.
func (c *ControlStatusRegisters) Write(idx isa.ControlStatusRegister, value uint16) bool {
	if idx.Reserved() {
		return false
	}
	switch {
	case idx.IsInterruptMask():
		c.im.set(int(idx-isa.IM0), value)
	case idx == isa.IV:
		c.iv = value
	case idx == isa.IPC:
		c.ipc = value
	case idx == isa.IC:
		c.ic = value
	case idx == isa.MPC0:
		c.mpc[0] = value
	case idx == isa.MPC1:
		c.mpc[1] = value
	case idx.IsMemoryProtectionAddress():
		c.mpa[idx-isa.MPALow] = value
	default:
		return false
	}
	return true
}

// InterruptVector returns IV, the PC value interrupts dispatch to.
func (c *ControlStatusRegisters) InterruptVector() uint16 { return c.iv }

// SetInterruptedPC sets IPC, the PC to resume at once an interrupt
// handler returns.
func (c *ControlStatusRegisters) SetInterruptedPC(pc uint16) { c.ipc = pc }

// InterruptedPC returns IPC.
func (c *ControlStatusRegisters) InterruptedPC() uint16 { return c.ipc }

// SetInterruptContext sets IC to a packed value whose high byte
// identifies the interrupt's origin (a device index for hardware
// interrupts, a fault code for software interrupts) and whose low byte
// carries the fine-grained context (device-supplied for hardware
// interrupts, always 0 for software interrupts).
func (c *ControlStatusRegisters) SetInterruptContext(value uint16) { c.ic = value }

// SetGlobalInterruptMask sets IM[0] bit 0, the global interrupt-disable.
// Step sets this before draining the interrupt channel, per §4.7 step 1,
// so no device can observe an emptied channel and fire a second
// interrupt before the mask takes effect.
func (c *ControlStatusRegisters) SetGlobalInterruptMask() {
	c.im.setBit(0, 0)
}
