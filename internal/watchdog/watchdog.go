// Package watchdog supervises the daemon with a fixed-timeout reset.
// If Feed is not called within the armed timeout the system is reset, which
// is the only fault recovery the relay controller has.
package watchdog

import "time"

// DefaultTimeout is the reset timeout armed at boot.
const DefaultTimeout = 1 * time.Second

// Feeder resets the watchdog countdown.
type Feeder interface {
	Feed() error
}

// Watchdog is an armed reset timer.
type Watchdog interface {
	Feeder

	// Arm records and clears the previous reset cause, then configures the
	// timeout and starts the countdown.
	Arm(timeout time.Duration) error

	// BootStatus reports the reset cause observed by Arm.
	BootStatus() BootStatus

	// Close disarms the watchdog on orderly shutdown where supported.
	Close() error
}

// BootStatus describes why the system last reset.
type BootStatus struct {
	WatchdogReset bool // previous reset was caused by watchdog expiry
	Flags         int  // raw driver flags, zero if unavailable
}
