package gpio

import (
	"fmt"
	"sync"
	"time"
)

// FakePins is a test double with scripted input levels and recorded output writes.
type FakePins struct {
	mu sync.Mutex

	// samples holds scripted levels per input pin.
	// Each Get consumes the next sample; the last one repeats.
	samples map[int][]bool
	index   map[int]int

	// levels holds the current level of every output pin that was written.
	levels map[int]bool

	// Writes records every Set call in order.
	Writes []Write

	// Reads counts Get calls per pin.
	Reads map[int]int

	// Now stamps recorded writes. Defaults to time.Now.
	Now func() time.Time

	// GetError and SetError, if set, are returned by Get and Set.
	GetError error
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// Write is a single recorded output write.
type Write struct {
	Pin   int
	Level bool
	Time  time.Time
}

// NewFakePins creates a FakePins with no scripted inputs.
// Unscripted input pins read low.
func NewFakePins() *FakePins {
	return &FakePins{
		samples: make(map[int][]bool),
		index:   make(map[int]int),
		levels:  make(map[int]bool),
		Reads:   make(map[int]int),
		Now:     time.Now,
	}
}

// Script sets the levels returned by successive Get calls on pin.
func (f *FakePins) Script(pin int, levels ...bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[pin] = levels
	f.index[pin] = 0
}

// Get returns the next scripted level for pin.
func (f *FakePins) Get(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetError != nil {
		return false, f.GetError
	}
	f.Reads[pin]++

	s := f.samples[pin]
	if len(s) == 0 {
		return false, nil
	}
	i := f.index[pin]
	if i < len(s)-1 {
		f.index[pin]++
	}
	return s[i], nil
}

// Set records the write and updates the pin level.
func (f *FakePins) Set(pin int, level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	if pin < 0 {
		return fmt.Errorf("invalid pin %d", pin)
	}
	f.levels[pin] = level
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level, Time: f.Now()})
	return nil
}

// Level returns the last written level of an output pin (low if never written).
func (f *FakePins) Level(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin]
}

// WritesTo returns the recorded writes to pin.
func (f *FakePins) WritesTo(pin int) []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Write
	for _, w := range f.Writes {
		if w.Pin == pin {
			out = append(out, w)
		}
	}
	return out
}

// ClearWrites discards recorded writes, keeping pin levels.
func (f *FakePins) ClearWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
}

// Close marks the pins as closed and drives every output low.
func (f *FakePins) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pin := range f.levels {
		f.levels[pin] = false
	}
	f.Closed = true
	return nil
}
