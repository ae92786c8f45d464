//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(chipName string, layout Layout) (*RealPins, error) {
	return nil, errUnsupported
}

// Get is not implemented on non-Linux platforms.
func (p *RealPins) Get(pin int) (bool, error) { return false, errUnsupported }

// Set is not implemented on non-Linux platforms.
func (p *RealPins) Set(pin int, level bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (p *RealPins) Close() error { return nil }

// RPIOPins is not available on non-Linux platforms.
type RPIOPins struct{}

// NewRPIOPins returns an error on non-Linux platforms.
func NewRPIOPins(layout Layout) (*RPIOPins, error) {
	return nil, errUnsupported
}

// Get is not implemented on non-Linux platforms.
func (p *RPIOPins) Get(pin int) (bool, error) { return false, errUnsupported }

// Set is not implemented on non-Linux platforms.
func (p *RPIOPins) Set(pin int, level bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (p *RPIOPins) Close() error { return nil }
