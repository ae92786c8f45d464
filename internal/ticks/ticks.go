// Package ticks provides the free-running decisecond counter.
//
// The counter is advanced from its own goroutine at 100 Hz and read from
// others (status reporting), so it is kept in an atomic and never torn.
package ticks

import (
	"context"
	"sync/atomic"
	"time"
)

// Rate is the tick frequency.
const Rate = 100

// TicksPerDecisec is the number of ticks per counter increment.
const TicksPerDecisec = 10

// Service counts ticks and deciseconds.
type Service struct {
	ticks    uint8 // owned by the ticking goroutine
	decisecs atomic.Uint32
}

// New returns a stopped Service with a zero counter.
func New() *Service {
	return &Service{}
}

// Start ticks the service at Rate until ctx is done. It blocks.
func (s *Service) Start(ctx context.Context) {
	t := time.NewTicker(time.Second / Rate)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Tick advances the service by one tick. Every TicksPerDecisec ticks the
// decisecond counter is incremented. Tick must only be called from one
// goroutine.
func (s *Service) Tick() {
	s.ticks++
	if s.ticks >= TicksPerDecisec {
		s.ticks = 0
		s.decisecs.Add(1)
	}
}

// Decisecs returns a consistent snapshot of the 16-bit counter.
// It wraps to zero after 65535.
func (s *Service) Decisecs() uint16 {
	return uint16(s.decisecs.Load())
}
