package height

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Clock deriva a altura do tempo decorrido desde a gênese:
// floor((now - genesis) / interval). Antes da gênese a altura é 0.
type Clock struct {
	clock    clock.Clock
	genesis  time.Time
	interval time.Duration
}

func NewClock(c clock.Clock, genesis time.Time, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{clock: c, genesis: genesis, interval: interval}
}

func (c *Clock) CurrentHeight() uint64 {
	elapsed := c.clock.Now().Sub(c.genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// Manual é uma altura controlada à mão (testes e dev local)
type Manual struct {
	h atomic.Uint64
}

func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.h.Store(start)
	return m
}

func (m *Manual) CurrentHeight() uint64 { return m.h.Load() }

// Advance soma n à altura e devolve o novo valor
func (m *Manual) Advance(n uint64) uint64 { return m.h.Add(n) }

// Set só avança; valores menores que o atual são ignorados
func (m *Manual) Set(h uint64) {
	for {
		cur := m.h.Load()
		if h <= cur || m.h.CompareAndSwap(cur, h) {
			return
		}
	}
}
