package pali

import (
	"testing"

	"github.com/crashandsideburns/lawa/pkg/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_PlainInstruction(t *testing.T) {
	object, err := Assemble("(segment rwx (add r1 r2))")
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.Contents, 1)

	opcode, dst, src := isa.DecodeFields(seg.Contents[0])
	assert.Equal(t, isa.ADD, opcode)
	assert.Equal(t, uint16(1), dst)
	assert.Equal(t, uint16(2), src)
}

func TestAssemble_ImmediateInstructionWithResolvedLabel(t *testing.T) {
	object, err := Assemble(`(segment rwx (block target 0) (addi r1 r2 target))`)
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.Contents, 3, "target's literal 0 plus the two-word addi")
	require.Len(t, seg.RelocationTable, 1)

	reloc := seg.RelocationTable[0]
	assert.False(t, reloc.Unresolved())
	assert.Equal(t, uint16(0b111), reloc.SegmentIndex)
	assert.Equal(t, uint16(0), reloc.SegmentOffset)
	assert.Equal(t, uint16(2), reloc.Offset, "the immediate word follows the one-word instruction word")
}

func TestAssemble_UnresolvedLabelInternedOnce(t *testing.T) {
	object, err := Assemble(`(segment rwx (addi r1 r2 missing) (addi r1 r2 missing))`)
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.RelocationTable, 2)
	require.Len(t, object.UnresolvedTable, 1, "the same label is interned once, not twice")
	assert.Equal(t, "missing", object.UnresolvedTable[0])

	for _, reloc := range seg.RelocationTable {
		assert.True(t, reloc.Unresolved())
		assert.Equal(t, uint16(0), reloc.SegmentOffset)
	}
}

func TestAssemble_ExportTable(t *testing.T) {
	object, err := Assemble(`(export entry) (segment rwx (block entry (add r1 r2)))`)
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.ExportTable, 1)
	assert.Equal(t, "entry", seg.ExportTable[0].Label)
	assert.Equal(t, uint16(0), seg.ExportTable[0].Offset)
}

func TestAssemble_ExportOfUndefinedLabelFails(t *testing.T) {
	_, err := Assemble(`(export missing)`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedExport)
}

func TestAssemble_JSHWithLiteralDisplacement(t *testing.T) {
	object, err := Assemble("(segment rwx (jsh 4))")
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.Contents, 1)
	assert.Empty(t, seg.RelocationTable)
	assert.Equal(t, int16(4), isa.DecodeJSHDisplacement(seg.Contents[0]))
}

func TestAssemble_JSHWithLabelEmitsRelocation(t *testing.T) {
	object, err := Assemble(`(segment rwx (block here (jsh here)))`)
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.RelocationTable, 1)
	assert.False(t, seg.RelocationTable[0].Unresolved())
}

func TestAssemble_StringLiteralEmitsUTF16Words(t *testing.T) {
	object, err := Assemble(`(segment rwx "hi")`)
	require.NoError(t, err)

	seg := object.Segments[0b111]
	require.Len(t, seg.Contents, 2)
	assert.Equal(t, uint16('h'), seg.Contents[0])
	assert.Equal(t, uint16('i'), seg.Contents[1])
}
