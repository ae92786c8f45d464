//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOPins drives GPIO through /dev/gpiomem register access.
// Use it on kernels that lack the GPIO character device.
type RPIOPins struct {
	inputs  map[int]rpio.Pin
	outputs map[int]rpio.Pin
}

// NewRPIOPins maps GPIO memory and configures every pin of the layout.
func NewRPIOPins(layout Layout) (*RPIOPins, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}

	p := &RPIOPins{
		inputs:  make(map[int]rpio.Pin),
		outputs: make(map[int]rpio.Pin),
	}

	for _, n := range layout.Inputs() {
		if n > 255 {
			rpio.Close()
			return nil, fmt.Errorf("input pin %d out of range", n)
		}
		pin := rpio.Pin(uint8(n))
		pin.Input()
		pin.PullDown()
		p.inputs[n] = pin
	}
	for _, n := range layout.Outputs() {
		if n > 255 {
			rpio.Close()
			return nil, fmt.Errorf("output pin %d out of range", n)
		}
		pin := rpio.Pin(uint8(n))
		pin.Output()
		pin.Low()
		p.outputs[n] = pin
	}

	return p, nil
}

// Get returns the raw level of an input pin.
func (p *RPIOPins) Get(pin int) (bool, error) {
	in, ok := p.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not configured as input", pin)
	}
	return in.Read() == rpio.High, nil
}

// Set drives an output pin.
func (p *RPIOPins) Set(pin int, level bool) error {
	out, ok := p.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	if level {
		out.High()
	} else {
		out.Low()
	}
	return nil
}

// Close drives outputs low, returns them to input with pull-down and unmaps
// GPIO memory.
func (p *RPIOPins) Close() error {
	for _, out := range p.outputs {
		out.Low()
		out.Input()
		out.PullDown()
	}
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpiomem: %w", err)
	}
	return nil
}
