package sama

// Ram is the emulator's flat, 16-bit-addressed memory: 65536 words,
// wrapping on overflowing addresses since the address type itself is
// uint16.
type Ram [0x10000]uint16

func (m *Ram) Read(addr uint16) uint16 {
	return m[addr]
}

func (m *Ram) Write(addr uint16, value uint16) {
	m[addr] = value
}

// Readable, Writable, and Executable are the memory-protection predicates
// named in §4.6. The MPC/MPA mechanism they would consult is declared by
// the CSR layout but left undefined by this revision, so every address is
// permissive, matching the spec's explicit instruction to default to
// permissive while still providing the hook.
func (m *Ram) Readable(addr uint16) bool   { return true }
func (m *Ram) Writable(addr uint16) bool   { return true }
func (m *Ram) Executable(addr uint16) bool { return true }
