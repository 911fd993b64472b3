package poki

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_Empty(t *testing.T) {
	p := NewEmpty()

	var buf bytes.Buffer
	require.NoError(t, p.Serialize(&buf))

	got, err := Deserialize(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRoundTrip_ContentsRelocationsExports(t *testing.T) {
	p := NewEmpty()
	p.Segments[0b111] = Segment{
		Contents: []uint16{0x1234, 0x5678, 0x0000},
		RelocationTable: []RelocationEntry{
			{Offset: 2, SegmentIndex: 0b011, SegmentOffset: 5},
			{Offset: 1, SegmentIndex: UnresolvedSentinel, SegmentOffset: 0},
		},
		ExportTable: []ExportEntry{
			{Label: "entry", Offset: 0},
			{Label: "helper", Offset: 2},
		},
	}
	p.UnresolvedTable = []string{"missing_symbol"}

	var buf bytes.Buffer
	require.NoError(t, p.Serialize(&buf))

	got, err := Deserialize(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRelocationEntry_Unresolved(t *testing.T) {
	r := RelocationEntry{SegmentIndex: UnresolvedSentinel}
	assert.True(t, r.Unresolved())

	r = RelocationEntry{SegmentIndex: 0b101}
	assert.False(t, r.Unresolved())
}

func TestDeserialize_InvalidMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	_, err := Deserialize(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDeserialize_TruncatedStreamIsNotCleanEOF(t *testing.T) {
	p := NewEmpty()
	p.Segments[0] = Segment{Contents: []uint16{1, 2, 3}}

	var buf bytes.Buffer
	require.NoError(t, p.Serialize(&buf))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-4])
	_, err := Deserialize(truncated)
	require.Error(t, err)
}

func TestDeserialize_InvalidRelocationTableSize(t *testing.T) {
	var buf bytes.Buffer
	for _, w := range magic {
		require.NoError(t, writeWord(&buf, w))
	}
	// Segment 0's header: contentsSize=0, relocSize=1 (not a multiple of 3).
	require.NoError(t, writeWord(&buf, 0))
	require.NoError(t, writeWord(&buf, 1))
	require.NoError(t, writeWord(&buf, 0))

	_, err := Deserialize(&buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRelocationTableSize)
}

func TestSerialize_OversizedExportTableFails(t *testing.T) {
	p := NewEmpty()
	// 0x10000 one-character exports take 3 words each, so the export
	// table's computed size overflows u16 and checkU16 rejects it.
	big := make([]ExportEntry, 0x10000)
	for i := range big {
		big[i] = ExportEntry{Label: "x", Offset: 0}
	}
	p.Segments[0].ExportTable = big

	var buf bytes.Buffer
	err := p.Serialize(&buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOversizedExportTable)
}
