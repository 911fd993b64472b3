package sama

import (
	"context"
	"testing"
	"time"

	"github.com/crashandsideburns/lawa/pkg/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_RunStepsAsFastAsPossible(t *testing.T) {
	e := NewEmulator()
	e.RAM.Write(0, isa.EncodeFields(isa.ADDI, 1, 0))
	e.RAM.Write(1, 1)

	h := NewHost(e)
	ctx := context.Background()

	require.NoError(t, h.RunSteps(ctx, 1, 0))

	h.WithEmulator(func(e *Emulator) {
		assert.Equal(t, uint16(1), e.Registers.Read(1))
	})
}

func TestHost_RunStepsRespectsContextCancellation(t *testing.T) {
	e := NewEmulator()
	h := NewHost(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.RunSteps(ctx, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHost_RunStepsPacedByHz(t *testing.T) {
	e := NewEmulator()
	h := NewHost(e)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.RunSteps(ctx, 0, 1000)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
