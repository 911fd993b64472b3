package pali

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSymbols_OffsetsAdvanceBySize(t *testing.T) {
	prog, err := Parse(`(segment rwx (block a 1 2) (block b (add r1 r2)))`)
	require.NoError(t, err)

	table, err := ResolveSymbols(prog)
	require.NoError(t, err)

	a, ok := table["a"]
	require.True(t, ok)
	assert.Equal(t, uint16(0), a.SegmentOffset)

	b, ok := table["b"]
	require.True(t, ok)
	assert.Equal(t, uint16(2), b.SegmentOffset, "block a contains two one-word numbers")
}

func TestResolveSymbols_QualifiedNestedLabels(t *testing.T) {
	prog, err := Parse(`(segment rwx (block outer (block inner 1)))`)
	require.NoError(t, err)

	table, err := ResolveSymbols(prog)
	require.NoError(t, err)

	_, ok := table["outer"]
	assert.True(t, ok)
	_, ok = table["outer.inner"]
	assert.True(t, ok, "inner block qualifies under its parent's dotted path")
}

func TestResolveSymbols_DuplicateLabel(t *testing.T) {
	prog, err := Parse(`(segment rwx (block dup 1) (block dup 2))`)
	require.NoError(t, err)

	_, err = ResolveSymbols(prog)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLabel)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.NotNil(t, parseErr.RelatedSpan, "duplicate label error cites the first definition's span")
}

func TestResolveSymbols_SameLabelInDistinctSegmentsCollides(t *testing.T) {
	prog, err := Parse(`(segment r (block shared 1)) (segment rwx (block shared 2))`)
	require.NoError(t, err)

	_, err = ResolveSymbols(prog)
	assert.Error(t, err, "qualified label is a flat map across all segments, so this collides too")
}
