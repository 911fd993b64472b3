package sama

import (
	"github.com/crashandsideburns/lawa/pkg/isa"
)

// Fault codes carried in IC's high byte by software interrupts, per the
// opcode table in §4.7.
const (
	faultExecution        uint8 = 0b00000001
	faultStoreFault       uint8 = 0b00000010
	faultLoadFault        uint8 = 0b00000100
	faultDEOUnprivileged  uint8 = 0b00001010
	faultDEIUnprivileged  uint8 = 0b00001100
	faultWCSRUnprivileged uint8 = 0b00010010
	faultRCSRUnprivileged uint8 = 0b00010100
	faultSWPRUnprivileged uint8 = 0b00000000

	// faultReservedOpcode and faultReservedCSR are not assigned values
	// by §4.7's table; it only says executing a reserved opcode or
	// accessing a reserved CSR index "traps" without naming a code. This
	// module picks the two unused high values in the fault-code space
	// and documents the choice rather than leaving the trap silent.
	faultReservedOpcode uint8 = 0b00011111
	faultReservedCSR    uint8 = 0b00011110
)

// Emulator is one lawa CPU: register files, memory, a device bus, and the
// single-slot interrupt channel that decouples device goroutines from the
// step loop.
type Emulator struct {
	PC         uint16
	Privileged bool
	Registers  Registers
	CSR        *ControlStatusRegisters
	RAM        Ram
	Devices    Devices

	mask          *InterruptMask
	interruptChan chan uint16
}

// NewEmulator returns a freshly reset Emulator with an empty device bus.
func NewEmulator() *Emulator {
	mask := &InterruptMask{}
	return &Emulator{
		CSR:           NewControlStatusRegisters(mask),
		mask:          mask,
		interruptChan: make(chan uint16, 1),
	}
}

// Attach installs a device at index, sharing this emulator's interrupt
// mask and channel with it.
func (e *Emulator) Attach(index uint8, device Device) {
	e.Devices.Attach(index, device, e.mask, e.interruptChan)
}

// Step executes exactly one instruction, or services one pending hardware
// interrupt if one is waiting.
func (e *Emulator) Step() {
	if len(e.interruptChan) > 0 {
		e.deliverHardwareInterrupt()
		return
	}

	if !e.RAM.Executable(e.PC) {
		e.softwareInterrupt(faultExecution, 1)
		return
	}

	instr := e.RAM.Read(e.PC)
	opcode, dstIdx, srcIdx := isa.DecodeFields(instr)
	dst, src := isa.Register(dstIdx), isa.Register(srcIdx)
	takesImm := opcode.TakesImmediate()
	length := uint16(1)
	if takesImm {
		length = 2
		if !e.RAM.Executable(e.PC + 1) {
			e.softwareInterrupt(faultExecution, length)
			return
		}
	}

	var imm uint16
	if takesImm {
		imm = e.RAM.Read(e.PC + 1)
	}

	if e.execute(opcode, dst, src, imm, instr, length) {
		e.PC += length
	}
}

// deliverHardwareInterrupt implements §4.7's interrupt service sequence.
// The global mask bit is set before the channel is drained so that a
// device observing the freshly emptied channel cannot squeeze a second
// interrupt in before the mask takes effect.
func (e *Emulator) deliverHardwareInterrupt() {
	e.CSR.SetGlobalInterruptMask()
	context := <-e.interruptChan

	e.CSR.SetInterruptedPC(e.PC)
	e.CSR.SetInterruptContext(context)
	e.PC = e.CSR.InterruptVector()
	e.Privileged = true
}

// softwareInterrupt implements the helper described in §4.7: it sets the
// global mask, records where to resume, packs the fault code into IC's
// high byte (software interrupts always carry a zero low byte, per the
// glossary), and dispatches to the interrupt vector.
func (e *Emulator) softwareInterrupt(context uint8, instructionLength uint16) {
	e.CSR.SetGlobalInterruptMask()
	e.CSR.SetInterruptedPC(e.PC + instructionLength)
	e.CSR.SetInterruptContext(uint16(context) << 8)
	e.PC = e.CSR.InterruptVector()
	e.Privileged = true
}

// signed views a register value as i16 for the opcodes whose semantics
// are defined over signed comparisons/shifts.
func signed(v uint16) int16 { return int16(v) }

// shiftLeft, shiftRightLogical and shiftRightArithmetic implement the
// "positive amount = nominal direction, negative
// amount = opposite direction" convention shared by SLL/SRL/SRA (and
// their immediate forms): a negative shift amount is two's-complement
// negated and applied in the opposite direction.
func shiftLeft(value uint16, amount int16) uint16 {
	if amount >= 0 {
		return value << uint16(amount)
	}
	return value >> uint16(-amount)
}

func shiftRightLogical(value uint16, amount int16) uint16 {
	if amount >= 0 {
		return value >> uint16(amount)
	}
	return value << uint16(-amount)
}

func shiftRightArithmetic(value uint16, amount int16) uint16 {
	if amount >= 0 {
		return uint16(signed(value) >> uint16(amount))
	}
	return value << uint16(-amount)
}

// execute runs one decoded instruction and reports whether Step should
// still advance PC by length itself: branch/jump opcodes set PC
// themselves and return false.
func (e *Emulator) execute(opcode isa.Opcode, dst, src isa.Register, imm, instr, length uint16) bool {
	switch opcode {
	case isa.ADD:
		e.Registers.Write(dst, e.Registers.Read(dst)+e.Registers.Read(src))
	case isa.SUB:
		e.Registers.Write(dst, e.Registers.Read(dst)-e.Registers.Read(src))
	case isa.AND:
		e.Registers.Write(dst, e.Registers.Read(dst)&e.Registers.Read(src))
	case isa.OR:
		e.Registers.Write(dst, e.Registers.Read(dst)|e.Registers.Read(src))
	case isa.XOR:
		e.Registers.Write(dst, e.Registers.Read(dst)^e.Registers.Read(src))
	case isa.SLL:
		e.Registers.Write(dst, shiftLeft(e.Registers.Read(dst), signed(e.Registers.Read(src))))
	case isa.SRL:
		e.Registers.Write(dst, shiftRightLogical(e.Registers.Read(dst), signed(e.Registers.Read(src))))
	case isa.SRA:
		e.Registers.Write(dst, shiftRightArithmetic(e.Registers.Read(dst), signed(e.Registers.Read(src))))

	case isa.ADDI:
		e.Registers.Write(dst, e.Registers.Read(src)+imm)
	case isa.ANDI:
		e.Registers.Write(dst, e.Registers.Read(src)&imm)
	case isa.ORI:
		e.Registers.Write(dst, e.Registers.Read(src)|imm)
	case isa.XORI:
		e.Registers.Write(dst, e.Registers.Read(src)^imm)
	case isa.SLLI:
		e.Registers.Write(dst, shiftLeft(e.Registers.Read(src), signed(imm)))
	case isa.SRAI:
		e.Registers.Write(dst, shiftRightArithmetic(e.Registers.Read(src), signed(imm)))

	case isa.LD:
		addr := e.Registers.Read(src)
		if !e.RAM.Readable(addr) {
			e.softwareInterrupt(faultLoadFault, length)
			return false
		}
		e.Registers.Write(dst, e.RAM.Read(addr))
	case isa.ST:
		addr := e.Registers.Read(src)
		if !e.RAM.Writable(addr) {
			e.softwareInterrupt(faultStoreFault, length)
			return false
		}
		e.RAM.Write(addr, e.Registers.Read(dst))

	case isa.DEI:
		if !e.Privileged {
			e.softwareInterrupt(faultDEIUnprivileged, length)
			return false
		}
		operand := e.Registers.Read(src)
		device := e.Devices.Get(byte(operand >> 8))
		if device != nil {
			e.Registers.Write(dst, device.Input(byte(operand)))
		}
	case isa.DEO:
		if !e.Privileged {
			e.softwareInterrupt(faultDEOUnprivileged, length)
			return false
		}
		operand := e.Registers.Read(src)
		device := e.Devices.Get(byte(operand >> 8))
		if device != nil {
			device.Output(byte(operand), e.Registers.Read(dst))
		}

	case isa.RCSR:
		if !e.Privileged {
			e.softwareInterrupt(faultRCSRUnprivileged, length)
			return false
		}
		value, ok := e.CSR.Read(isa.ControlStatusRegister(src))
		if !ok {
			e.softwareInterrupt(faultReservedCSR, length)
			return false
		}
		e.Registers.Write(dst, value)
	case isa.WCSR:
		if !e.Privileged {
			e.softwareInterrupt(faultWCSRUnprivileged, length)
			return false
		}
		if !e.CSR.Write(isa.ControlStatusRegister(dst), e.Registers.Read(src)) {
			e.softwareInterrupt(faultReservedCSR, length)
			return false
		}

	case isa.SWPR:
		if !e.Privileged {
			e.softwareInterrupt(faultSWPRUnprivileged, length)
			return false
		}
		e.PC = e.CSR.InterruptedPC()
		e.Privileged = false
		return false

	case isa.LDIO:
		addr := e.Registers.Read(src) + imm
		if !e.RAM.Readable(addr) {
			e.softwareInterrupt(faultLoadFault, length)
			return false
		}
		e.Registers.Write(dst, e.RAM.Read(addr))
	case isa.STIO:
		addr := e.Registers.Read(src) + imm
		if !e.RAM.Writable(addr) {
			e.softwareInterrupt(faultStoreFault, length)
			return false
		}
		e.RAM.Write(addr, e.Registers.Read(dst))

	case isa.JAL:
		e.Registers.Write(dst, e.PC+2)
		e.PC = e.Registers.Read(src) + imm
		return false
	case isa.JSH:
		e.PC += uint16(isa.DecodeJSHDisplacement(instr))
		return false

	case isa.BEQ:
		if e.Registers.Read(dst) == e.Registers.Read(src) {
			e.PC = imm
			return false
		}
	case isa.BNE:
		if e.Registers.Read(dst) != e.Registers.Read(src) {
			e.PC = imm
			return false
		}
	case isa.BLT:
		if signed(e.Registers.Read(dst)) < signed(e.Registers.Read(src)) {
			e.PC = imm
			return false
		}
	case isa.BGE:
		if signed(e.Registers.Read(dst)) >= signed(e.Registers.Read(src)) {
			e.PC = imm
			return false
		}
	case isa.BLTU:
		if e.Registers.Read(dst) < e.Registers.Read(src) {
			e.PC = imm
			return false
		}
	case isa.BGEU:
		if e.Registers.Read(dst) >= e.Registers.Read(src) {
			e.PC = imm
			return false
		}

	default:
		e.softwareInterrupt(faultReservedOpcode, length)
		return false
	}

	return true
}
