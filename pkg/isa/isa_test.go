package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupOpcode(t *testing.T) {
	op, ok := LookupOpcode("addi")
	assert.True(t, ok)
	assert.Equal(t, ADDI, op)

	_, ok = LookupOpcode("notanopcode")
	assert.False(t, ok)
}

func TestOpcodeTakesImmediate(t *testing.T) {
	assert.True(t, ADDI.TakesImmediate())
	assert.False(t, ADD.TakesImmediate())
	assert.False(t, JSH.TakesImmediate(), "JSH embeds its displacement and never carries a trailing word")
	assert.True(t, LDIO.TakesImmediate())
}

func TestOpcodeIsBranch(t *testing.T) {
	assert.True(t, BEQ.IsBranch())
	assert.True(t, BGEU.IsBranch())
	assert.False(t, JAL.IsBranch())
	assert.False(t, ADD.IsBranch())
}

func TestOpcodeDefined(t *testing.T) {
	assert.True(t, ADD.Defined())
	assert.False(t, Opcode(0b111111).Defined())
}

func TestLookupRegister(t *testing.T) {
	r, ok := LookupRegister("r17")
	assert.True(t, ok)
	assert.Equal(t, Register(17), r)

	_, ok = LookupRegister("r32")
	assert.False(t, ok)
}

func TestLookupControlStatusRegister(t *testing.T) {
	tests := []struct {
		name string
		want ControlStatusRegister
	}{
		{"iv", IV},
		{"ipc", IPC},
		{"ic", IC},
		{"mpc0", MPC0},
		{"mpc1", MPC1},
		{"im0", IM0},
		{"im15", IM0 + 15},
		{"mpa0", MPALow},
		{"mpa7", MPAHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csr, ok := LookupControlStatusRegister(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.want, csr)
		})
	}

	_, ok := LookupControlStatusRegister("im16")
	assert.False(t, ok, "only im0..im15 are valid")

	_, ok = LookupControlStatusRegister("mpa8")
	assert.False(t, ok, "only mpa0..mpa7 are valid")
}

func TestControlStatusRegisterReserved(t *testing.T) {
	assert.True(t, ReservedCSRLow.Reserved())
	assert.True(t, ReservedCSRHigh.Reserved())
	assert.False(t, IV.Reserved())
	assert.False(t, IM0.Reserved())
}

func TestSegmentPermissionsEncodeIndex(t *testing.T) {
	tests := []struct {
		name  string
		perms SegmentPermissions
		index int
	}{
		{"rwx", SegmentPermissions{Readable: true, Writable: true, Executable: true}, 0b111},
		{"r", SegmentPermissions{Readable: true}, 0b100},
		{"none", SegmentPermissions{}, 0b000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.index, tt.perms.Index())
		})
	}
}

func TestParseSegmentPermissions(t *testing.T) {
	perms, ok := ParseSegmentPermissions("rwx")
	assert.True(t, ok)
	assert.True(t, perms.Readable)
	assert.True(t, perms.Writable)
	assert.True(t, perms.Executable)

	_, ok = ParseSegmentPermissions("bogus")
	assert.False(t, ok)
}
