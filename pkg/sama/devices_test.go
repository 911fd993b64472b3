package sama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptHandle_MaskedReturnsError(t *testing.T) {
	mask := &InterruptMask{}
	mask.setBit(0, 0) // global mask

	sender := make(chan uint16, 1)
	handle := &InterruptHandle{deviceIndex: 3, sender: sender, mask: mask}

	err := handle.TryInterrupt(0x55)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterruptMasked)
}

func TestInterruptHandle_BusyReturnsError(t *testing.T) {
	mask := &InterruptMask{}
	sender := make(chan uint16, 1)
	sender <- 0xFFFF // fill the single slot

	handle := &InterruptHandle{deviceIndex: 3, sender: sender, mask: mask}

	err := handle.TryInterrupt(0x55)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterruptBusy)
}

func TestInterruptHandle_PacksDeviceIndexInHighByte(t *testing.T) {
	mask := &InterruptMask{}
	sender := make(chan uint16, 1)
	handle := &InterruptHandle{deviceIndex: 3, sender: sender, mask: mask}

	require.NoError(t, handle.TryInterrupt(0x55))

	select {
	case v := <-sender:
		assert.Equal(t, uint16(0x0355), v)
	default:
		t.Fatal("expected a value on the interrupt channel")
	}
}

func TestDevices_AttachAndGet(t *testing.T) {
	var d Devices
	mask := &InterruptMask{}
	sender := make(chan uint16, 1)

	dev := &fakeDevice{}
	d.Attach(5, dev, mask, sender)

	assert.Same(t, dev, d.Get(5))
	assert.NotNil(t, dev.handle)
}
