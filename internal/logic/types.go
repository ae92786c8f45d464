// Package logic contains pure change-detection logic for the relay channels.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the commanded position of a relay channel.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf converts a raw input level to a State.
func StateOf(level bool) State {
	if level {
		return StateOn
	}
	return StateOff
}

// EventType represents a relay actuation.
type EventType string

const (
	EventRelayOn  EventType = "RELAY_ON"
	EventRelayOff EventType = "RELAY_OFF"
)

// Source is the control loop phase that caused an actuation.
type Source string

const (
	SourceSync Source = "SYNC" // forced at boot
	SourcePoll Source = "POLL" // input change detected
)

// Event represents a relay actuation to be reported.
type Event struct {
	Timestamp time.Time
	Channel   int
	Type      EventType
	State     State
	Source    Source
}

// NewEvent builds the event for actuating channel to level.
func NewEvent(t time.Time, channel int, level bool, source Source) Event {
	typ := EventRelayOff
	if level {
		typ = EventRelayOn
	}
	return Event{
		Timestamp: t,
		Channel:   channel,
		Type:      typ,
		State:     StateOf(level),
		Source:    source,
	}
}

// ChannelCounts counts actuations of one channel since startup.
type ChannelCounts struct {
	On  int
	Off int
}

// Total returns the number of pulses sent to the channel.
func (c ChannelCounts) Total() int {
	return c.On + c.Off
}

// Counts tracks actuations per channel since startup.
type Counts []ChannelCounts

// Add counts a single event.
func (c Counts) Add(e Event) {
	if e.Channel < 0 || e.Channel >= len(c) {
		return
	}
	switch e.Type {
	case EventRelayOn:
		c[e.Channel].On++
	case EventRelayOff:
		c[e.Channel].Off++
	}
}
