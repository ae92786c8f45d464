package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Phase         string        `json:"phase"`
	Ready         bool          `json:"ready"`
	Channels      []ChannelJSON `json:"channels"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Decisecs      uint16        `json:"decisecs"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Watchdog      WatchdogJSON  `json:"watchdog"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one relay channel.
type ChannelJSON struct {
	Channel    int      `json:"channel"`
	Relay      string   `json:"relay"`
	PulsesOn   int      `json:"pulses_on"`
	PulsesOff  int      `json:"pulses_off"`
	LastChange string   `json:"last_change,omitempty"`
	LastSource string   `json:"last_source,omitempty"`
	Pins       PinsJSON `json:"pins"`
}

// PinsJSON lists a channel's BCM pin numbers.
type PinsJSON struct {
	Input int `json:"input"`
	Set   int `json:"set"`
	Reset int `json:"reset"`
	LED   int `json:"led"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// WatchdogJSON is the JSON representation of the watchdog info.
type WatchdogJSON struct {
	Device        string `json:"device"`
	TimeoutMs     int64  `json:"timeout_ms"`
	PreviousReset bool   `json:"previous_reset"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	PulseMs     int64  `json:"pulse_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	GPIO        string `json:"gpio"`
}

func relayOrUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	channels := make([]ChannelJSON, 0, len(snap.Channels))
	for i, c := range snap.Channels {
		cj := ChannelJSON{
			Channel:    i,
			Relay:      relayOrUnknown(string(c.Relay)),
			PulsesOn:   c.Counts.On,
			PulsesOff:  c.Counts.Off,
			LastSource: string(c.LastSource),
			Pins: PinsJSON{
				Input: snap.Config.Layout[i].Input,
				Set:   snap.Config.Layout[i].Set,
				Reset: snap.Config.Layout[i].Reset,
				LED:   snap.Config.Layout[i].LED,
			},
		}
		if !c.LastChange.IsZero() {
			cj.LastChange = c.LastChange.UTC().Format(time.RFC3339)
		}
		channels = append(channels, cj)
	}

	phase := snap.Phase
	if phase == "" {
		phase = "UNKNOWN"
	}

	return StatusInner{
		Phase:         phase,
		Ready:         snap.Ready(),
		Channels:      channels,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		Decisecs:      snap.Decisecs,
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Watchdog: WatchdogJSON{
			Device:        snap.Watchdog.Device,
			TimeoutMs:     snap.Watchdog.TimeoutMs,
			PreviousReset: snap.Watchdog.PreviousReset,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			PulseMs:     snap.Config.PulseMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIO:        snap.Config.GPIO,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
