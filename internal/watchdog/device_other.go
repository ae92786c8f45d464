//go:build !linux

package watchdog

import (
	"errors"
	"time"
)

// DefaultDevice is the Linux hardware watchdog device.
const DefaultDevice = "/dev/watchdog"

var errUnsupported = errors.New("watchdog: hardware device not supported on this platform (requires Linux)")

// Device is not available on non-Linux platforms.
type Device struct{}

// NewDevice returns a device whose Arm always fails.
func NewDevice(path string) *Device { return &Device{} }

// Arm is not implemented on non-Linux platforms.
func (d *Device) Arm(timeout time.Duration) error { return errUnsupported }

// Feed is not implemented on non-Linux platforms.
func (d *Device) Feed() error { return errUnsupported }

// BootStatus is always empty on non-Linux platforms.
func (d *Device) BootStatus() BootStatus { return BootStatus{} }

// Close is a no-op on non-Linux platforms.
func (d *Device) Close() error { return nil }
