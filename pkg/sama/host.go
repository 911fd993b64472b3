package sama

import (
	"context"
	"sync"
	"time"
)

// Host wraps an Emulator behind a mutex so a stepping goroutine and any
// inspecting goroutine (a future TUI's render loop, a debugger snapshot)
// can share it safely, per §9's "global, shared emulator state" note:
// contention is expected to be rare since an inspector only needs
// snapshots between steps, not a lock held across a whole step.
type Host struct {
	mu        sync.Mutex
	emulator  *Emulator
}

// NewHost wraps an emulator for host-controlled stepping.
func NewHost(e *Emulator) *Host {
	return &Host{emulator: e}
}

// WithEmulator runs fn with exclusive access to the wrapped emulator, for
// callers that need a consistent snapshot (e.g. a debugger dump) rather
// than driving steps themselves.
func (h *Host) WithEmulator(fn func(*Emulator)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.emulator)
}

// RunSteps drives the emulator at a fixed cadence of hz steps per second
// until n steps have run or ctx is cancelled, whichever comes first. A
// non-positive n runs until ctx is cancelled. A non-positive hz steps as
// fast as the host can acquire the lock.
func (h *Host) RunSteps(ctx context.Context, n int, hz float64) error {
	if hz <= 0 {
		for i := 0; n <= 0 || i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.WithEmulator((*Emulator).Step)
		}
		return nil
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	for i := 0; n <= 0 || i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.WithEmulator((*Emulator).Step)
		}
	}
	return nil
}
