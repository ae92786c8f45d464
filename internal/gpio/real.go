//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives GPIO on actual hardware using the Linux GPIO character device.
type RealPins struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
}

// NewRealPins requests every pin of the layout on the named chip.
// Inputs use pull-down; outputs start low so no coil is energized.
func NewRealPins(chipName string, layout Layout) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("acswitch"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPins{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line),
		outputs: make(map[int]*gpiocdev.Line),
	}

	for _, pin := range layout.Inputs() {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		p.inputs[pin] = line
	}

	for _, pin := range layout.Outputs() {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		p.outputs[pin] = line
	}

	return p, nil
}

// Get returns the raw level of an input pin.
func (p *RealPins) Get(pin int) (bool, error) {
	line, ok := p.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not requested as input", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// Set drives an output pin.
func (p *RealPins) Set(pin int, level bool) error {
	line, ok := p.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not requested as output", pin)
	}
	v := 0
	if level {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close releases GPIO resources.
// Outputs are driven low and reconfigured to input with pull-down (matching
// Pi boot defaults) before closing, so no coil stays energized across a
// restart.
func (p *RealPins) Close() error {
	var errs []error

	for pin, line := range p.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin %d low: %w", pin, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	for pin, line := range p.inputs {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
