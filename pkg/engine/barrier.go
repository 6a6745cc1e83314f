package engine

import (
	"runtime"
	"sync/atomic"
)

// spins before a waiting worker starts yielding its thread
const barrierSpins = 1 << 12

// barrier releases its participants once all of them have called Wait. It
// spins rather than parking because a frame is a few microseconds long.
type barrier struct {
	total int32
	count atomic.Int32
	step  atomic.Uint32
}

func newBarrier(total int) *barrier {
	return &barrier{total: int32(total)}
}

// Wait blocks until total goroutines have called it. The last one to arrive
// releases the rest. Writes made before Wait are visible to every
// participant after it returns.
func (b *barrier) Wait() {
	if b.total <= 1 {
		return
	}
	step := b.step.Load()
	if b.count.Add(1) == b.total {
		b.count.Store(0)
		b.step.Add(1)
		return
	}
	for spins := 0; b.step.Load() == step; spins++ {
		if spins >= barrierSpins {
			runtime.Gosched()
		}
	}
}
