// Package status provides a thread-safe status tracker for the acswitch daemon.
// It is written by the control loop's reporter and read by HTTP handlers and
// the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/acswitch/internal/gpio"
	"github.com/sweeney/acswitch/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	PulseMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	GPIO        string // GPIO backend, e.g. "cdev" or "rpio"
	Layout      gpio.Layout
}

// WatchdogInfo describes the armed watchdog.
type WatchdogInfo struct {
	Device        string
	TimeoutMs     int64
	PreviousReset bool // last boot was caused by a watchdog reset
}

// ChannelStatus is the last commanded state of one relay channel.
type ChannelStatus struct {
	Relay      logic.State // empty until SYNC
	Counts     logic.ChannelCounts
	LastChange time.Time
	LastSource logic.Source
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Phase         string
	Channels      [gpio.NumChannels]ChannelStatus
	StartTime     time.Time
	Now           time.Time
	Decisecs      uint16
	MQTTConnected bool
	Watchdog      WatchdogInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether every relay has been synchronized to its input.
func (s Snapshot) Ready() bool {
	for _, c := range s.Channels {
		if c.Relay == "" {
			return false
		}
	}
	return true
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu       sync.RWMutex
	snap     Snapshot
	decisecs func() uint16
	now      func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
// decisecs, if non-nil, supplies the tick counter for snapshots.
func NewTracker(startTime time.Time, cfg Config, decisecs func() uint16) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		decisecs: decisecs,
		now:      time.Now,
	}
}

// SetPhase records the controller phase.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	t.snap.Phase = phase
	t.mu.Unlock()
}

// Record applies a relay actuation.
func (t *Tracker) Record(e logic.Event) {
	if e.Channel < 0 || e.Channel >= gpio.NumChannels {
		return
	}
	t.mu.Lock()
	c := &t.snap.Channels[e.Channel]
	c.Relay = e.State
	c.LastChange = e.Timestamp
	c.LastSource = e.Source
	switch e.Type {
	case logic.EventRelayOn:
		c.Counts.On++
	case logic.EventRelayOff:
		c.Counts.Off++
	}
	t.mu.Unlock()
}

// SetWatchdog sets the watchdog info.
func (t *Tracker) SetWatchdog(info WatchdogInfo) {
	t.mu.Lock()
	t.snap.Watchdog = info
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now and Decisecs fields are read at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	if t.decisecs != nil {
		s.Decisecs = t.decisecs()
	}
	return s
}
