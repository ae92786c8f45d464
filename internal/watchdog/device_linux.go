package watchdog

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultDevice is the Linux hardware watchdog device.
const DefaultDevice = "/dev/watchdog"

// wdiofCardReset is set in the boot status when the last reboot was caused
// by the watchdog (WDIOF_CARDRESET in linux/watchdog.h).
const wdiofCardReset = 0x0020

// Device is the Linux hardware watchdog at a /dev/watchdog path.
// The countdown starts as soon as the device is opened by Arm.
type Device struct {
	path string
	f    *os.File
	boot BootStatus
}

// NewDevice returns an unarmed watchdog for the device at path.
func NewDevice(path string) *Device {
	return &Device{path: path}
}

// Arm opens the device, reads the previous reset cause and sets the timeout.
// Drivers only support whole seconds; shorter timeouts round up to 1 s.
func (d *Device) Arm(timeout time.Duration) error {
	if d.f != nil {
		return fmt.Errorf("watchdog %s already armed", d.path)
	}
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open watchdog: %w", err)
	}
	d.f = f
	fd := int(f.Fd())

	flags, err := unix.IoctlGetInt(fd, unix.WDIOC_GETBOOTSTATUS)
	if err == nil {
		d.boot = BootStatus{WatchdogReset: flags&wdiofCardReset != 0, Flags: flags}
	}

	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if err := unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, secs); err != nil {
		d.Close()
		return fmt.Errorf("set watchdog timeout %ds: %w", secs, err)
	}
	return d.Feed()
}

// Feed resets the hardware countdown.
func (d *Device) Feed() error {
	if d.f == nil {
		return fmt.Errorf("watchdog %s not armed", d.path)
	}
	if _, err := unix.IoctlGetInt(int(d.f.Fd()), unix.WDIOC_KEEPALIVE); err != nil {
		return fmt.Errorf("feed watchdog: %w", err)
	}
	return nil
}

// BootStatus reports the reset cause read by Arm.
func (d *Device) BootStatus() BootStatus {
	return d.boot
}

// Close writes the magic close character so drivers that support it stop the
// countdown, then releases the device.
func (d *Device) Close() error {
	if d.f == nil {
		return nil
	}
	var errs []error
	if _, err := d.f.Write([]byte("V")); err != nil {
		errs = append(errs, fmt.Errorf("magic close: %w", err))
	}
	if err := d.f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close watchdog: %w", err))
	}
	d.f = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
