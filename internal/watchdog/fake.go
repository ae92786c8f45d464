package watchdog

import (
	"errors"
	"sync"
	"time"
)

// Fake is a test double that tracks feeds against an injectable clock.
type Fake struct {
	mu sync.Mutex

	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time

	// ResetCause simulates the stale reset-cause flag left by a previous
	// reset. Arm records it into BootStatus and clears it.
	ResetCause bool

	// FeedError, if set, will be returned by Feed.
	FeedError error

	Timeout  time.Duration
	Armed    bool
	Feeds    int
	LastFeed time.Time
	// MaxGap is the longest observed interval between arming/feeds.
	MaxGap time.Duration
	Resets int
	Closed bool

	boot BootStatus
}

// NewFake creates an unarmed Fake using the given clock.
func NewFake(now func() time.Time) *Fake {
	if now == nil {
		now = time.Now
	}
	return &Fake{Now: now}
}

// Arm records the reset cause, clears it and starts the countdown.
func (f *Fake) Arm(timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if timeout <= 0 {
		return errors.New("watchdog: timeout must be positive")
	}
	f.boot = BootStatus{WatchdogReset: f.ResetCause}
	f.ResetCause = false
	f.Timeout = timeout
	f.Armed = true
	f.LastFeed = f.Now()
	return nil
}

// Feed resets the countdown and records the gap since the previous feed.
func (f *Fake) Feed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FeedError != nil {
		return f.FeedError
	}
	if !f.Armed {
		return errors.New("watchdog: not armed")
	}
	now := f.Now()
	if gap := now.Sub(f.LastFeed); gap > f.MaxGap {
		f.MaxGap = gap
	}
	f.LastFeed = now
	f.Feeds++
	return nil
}

// Check reports whether the countdown has expired at the current time.
// An expiry counts as a reset: the watchdog disarms and ResetCause is set,
// as the hardware would leave it for the next boot.
func (f *Fake) Check() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Armed {
		return false
	}
	if f.Now().Sub(f.LastFeed) < f.Timeout {
		return false
	}
	f.Resets++
	f.Armed = false
	f.ResetCause = true
	return true
}

// FeedCount returns the number of successful feeds.
func (f *Fake) FeedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Feeds
}

// BootStatus reports the reset cause recorded by Arm.
func (f *Fake) BootStatus() BootStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boot
}

// Close disarms the watchdog.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Armed = false
	f.Closed = true
	return nil
}
