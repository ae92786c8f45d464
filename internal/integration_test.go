package internal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/acswitch/internal/control"
	"github.com/sweeney/acswitch/internal/gpio"
	"github.com/sweeney/acswitch/internal/logic"
	"github.com/sweeney/acswitch/internal/mqtt"
	"github.com/sweeney/acswitch/internal/relay"
	"github.com/sweeney/acswitch/internal/status"
	"github.com/sweeney/acswitch/internal/watchdog"
)

// clock is a manual clock advanced only by sleeps.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time        { return c.t }
func (c *clock) sleep(d time.Duration) { c.t = c.t.Add(d) }

// pipeline forwards controller activity to a tracker and a publisher, the
// way the daemon wires them.
type pipeline struct {
	tracker *status.Tracker
	pub     mqtt.Publisher
	phases  []control.Phase
	dropped int
}

func (p *pipeline) PhaseChanged(ph control.Phase) {
	p.phases = append(p.phases, ph)
	p.tracker.SetPhase(string(ph))
}

func (p *pipeline) Actuated(e logic.Event) {
	p.tracker.Record(e)
	if err := p.pub.Publish(e); err != nil {
		p.dropped++
	}
}

type rig struct {
	clk   *clock
	pins  *gpio.FakePins
	wd    *watchdog.Fake
	fake  *mqtt.FakePublisher
	async *mqtt.Async
	pipe  *pipeline
	ctl   *control.Controller
}

func newRig(t *testing.T, pins *gpio.FakePins, wd *watchdog.Fake, clk *clock, depth int, cfg control.Config) *rig {
	t.Helper()
	fake := mqtt.NewFakePublisher()
	async := mqtt.NewAsync(fake, depth)
	tracker := status.NewTracker(clk.now(), status.Config{
		PollMs:  cfg.PollInterval.Milliseconds(),
		PulseMs: relay.PulseDuration.Milliseconds(),
		GPIO:    "fake",
		Layout:  gpio.DefaultLayout,
	}, nil)
	pipe := &pipeline{tracker: tracker, pub: async}

	board := relay.NewBoard(pins, gpio.DefaultLayout, wd, clk.sleep)
	cfg.Reporter = pipe
	cfg.Now = clk.now
	if cfg.Sleep == nil {
		cfg.Sleep = clk.sleep
	}
	return &rig{
		clk:   clk,
		pins:  pins,
		wd:    wd,
		fake:  fake,
		async: async,
		pipe:  pipe,
		ctl:   control.New(board, wd, cfg),
	}
}

func newDefaultRig(t *testing.T, depth int, cfg control.Config) *rig {
	t.Helper()
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	pins := gpio.NewFakePins()
	pins.Now = clk.now
	return newRig(t, pins, watchdog.NewFake(clk.now), clk, depth, cfg)
}

func (r *rig) boot(t *testing.T) {
	t.Helper()
	if err := r.ctl.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := r.ctl.Animate(context.Background()); err != nil {
		t.Fatalf("animate: %v", err)
	}
	r.ctl.Sync()
}

// TestIntegrationFullFlow drives inputs through the controller and checks
// relay pulses, MQTT payloads and the status surface.
func TestIntegrationFullFlow(t *testing.T) {
	r := newDefaultRig(t, 16, control.Config{})
	in := gpio.DefaultLayout
	// One sample per pass: SYNC, then three POLL passes.
	r.pins.Script(in[0].Input, true, true, true, false)
	r.pins.Script(in[1].Input, false, false, true, true)
	r.pins.Script(in[2].Input, false)

	r.boot(t)
	r.pins.ClearWrites()
	for i := 0; i < 3; i++ {
		r.ctl.PollOnce()
	}
	if err := r.async.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := r.fake.Events
	if len(events) != 5 {
		t.Fatalf("expected 3 sync + 2 poll events, got %d", len(events))
	}
	for i := 0; i < 3; i++ {
		if events[i].Source != logic.SourceSync || events[i].Channel != i {
			t.Errorf("event %d: got %+v, want SYNC on channel %d", i, events[i], i)
		}
	}
	if events[3].Channel != 1 || events[3].Type != logic.EventRelayOn || events[3].Source != logic.SourcePoll {
		t.Errorf("event 3: got %+v, want RELAY_ON ch1 POLL", events[3])
	}
	if events[4].Channel != 0 || events[4].Type != logic.EventRelayOff {
		t.Errorf("event 4: got %+v, want RELAY_OFF ch0", events[4])
	}

	var p mqtt.Payload
	if err := json.Unmarshal(r.fake.Payloads[3], &p); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if p.Relay.Event != "RELAY_ON" || p.Relay.Channel != 1 || p.Relay.State != "ON" || p.Relay.Source != "POLL" {
		t.Errorf("payload: got %+v", p.Relay)
	}

	// SYNC drove channel 1's reset coil; only the POLL actuation used set.
	sets := r.pins.WritesTo(in[1].Set)
	if len(sets) != 2 || !sets[0].Level || sets[1].Level {
		t.Fatalf("channel 1 set coil: got %+v, want one high/low pulse", sets)
	}
	if d := sets[1].Time.Sub(sets[0].Time); d != relay.PulseDuration {
		t.Errorf("pulse width: got %v, want %v", d, relay.PulseDuration)
	}
	if !r.pins.Level(in[1].LED) || r.pins.Level(in[0].LED) {
		t.Error("LEDs should follow relay state: ch0 off, ch1 on")
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(r.pipe.tracker.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	want := []string{"OFF", "ON", "OFF"}
	for i, c := range sj.Status.Channels {
		if c.Relay != want[i] {
			t.Errorf("status channel %d: got %q, want %q", i, c.Relay, want[i])
		}
	}
	if sj.Status.Channels[0].PulsesOn != 1 || sj.Status.Channels[0].PulsesOff != 1 {
		t.Errorf("channel 0 pulses: got %d/%d, want 1/1", sj.Status.Channels[0].PulsesOn, sj.Status.Channels[0].PulsesOff)
	}
	if !sj.Status.Ready {
		t.Error("expected ready after sync")
	}
}

// TestIntegrationRunUntilCancelled runs the whole controller with the default
// animation and stops it through the context.
func TestIntegrationRunUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	pins := gpio.NewFakePins()
	pins.Now = clk.now
	sleeps := 0
	r := newRig(t, pins, watchdog.NewFake(clk.now), clk, 16, control.Config{
		PollInterval: control.DefaultPollInterval,
		Animation:    control.DefaultAnimation,
		Sleep:        func(d time.Duration) {
			clk.sleep(d)
			sleeps++
			if sleeps == 200 {
				cancel()
			}
		},
	})

	r.pins.Script(gpio.DefaultLayout[2].Input, false, false, false, true)

	if err := r.ctl.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	r.async.Close()

	want := []control.Phase{
		control.PhaseInit, control.PhaseAnimation, control.PhaseSync,
		control.PhasePoll, control.PhaseStopped,
	}
	if len(r.pipe.phases) != len(want) {
		t.Fatalf("phases: got %v, want %v", r.pipe.phases, want)
	}
	for i := range want {
		if r.pipe.phases[i] != want[i] {
			t.Errorf("phase %d: got %s, want %s", i, r.pipe.phases[i], want[i])
		}
	}
	if r.wd.MaxGap > watchdog.DefaultTimeout/4 {
		t.Errorf("watchdog gap %v exceeds %v", r.wd.MaxGap, watchdog.DefaultTimeout/4)
	}
	if r.wd.Check() {
		t.Error("watchdog expired during a healthy run")
	}
	if got := r.fake.EventCount(); got != 4 {
		t.Errorf("expected 3 sync + 1 poll events, got %d", got)
	}
	if got := r.pipe.tracker.Snapshot().Phase; got != "STOPPED" {
		t.Errorf("tracker phase: got %q, want STOPPED", got)
	}
}

// TestIntegrationSlowBrokerDoesNotStall checks that a blocked broker only
// drops events and never delays the control loop.
func TestIntegrationSlowBrokerDoesNotStall(t *testing.T) {
	r := newDefaultRig(t, 1, control.Config{})
	block := make(chan struct{})
	r.fake.Block = block

	r.pins.Script(gpio.DefaultLayout[0].Input, false, true, false, true, false, true)
	r.boot(t)
	for i := 0; i < 5; i++ {
		r.ctl.PollOnce()
	}

	if r.pipe.dropped == 0 {
		t.Error("expected events dropped while the broker is blocked")
	}
	if got := r.pipe.tracker.Snapshot().Channels[0].Counts.Total(); got != 6 {
		t.Errorf("expected every actuation tracked, got %d", got)
	}
	if r.wd.MaxGap > watchdog.DefaultTimeout/4 {
		t.Errorf("watchdog gap %v exceeds %v", r.wd.MaxGap, watchdog.DefaultTimeout/4)
	}

	close(block)
	if err := r.async.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := r.fake.EventCount() + r.pipe.dropped; got != 8 {
		t.Errorf("published + dropped: got %d, want 8", got)
	}
}

// TestIntegrationWatchdogResetResyncs simulates a hung loop: the watchdog
// expires, and the next boot reports the reset and forces every relay again.
func TestIntegrationWatchdogResetResyncs(t *testing.T) {
	r := newDefaultRig(t, 16, control.Config{})
	r.pins.Script(gpio.DefaultLayout[0].Input, true)
	r.pins.Script(gpio.DefaultLayout[1].Input, true)
	r.boot(t)
	r.ctl.PollOnce()

	r.clk.sleep(2 * watchdog.DefaultTimeout) // loop stalls
	if !r.wd.Check() {
		t.Fatal("expected watchdog expiry after a stall")
	}
	r.async.Close()

	// Reboot on the same hardware.
	r2 := newRig(t, r.pins, r.wd, r.clk, 16, control.Config{})
	r2.boot(t)
	r2.async.Close()

	if !r2.wd.BootStatus().WatchdogReset {
		t.Error("expected the watchdog reset to be reported after reboot")
	}
	if r2.wd.ResetCause {
		t.Error("reset cause should be cleared once armed")
	}
	if got := r2.fake.EventCount(); got != 3 {
		t.Fatalf("expected a forced sync of all 3 relays, got %d", got)
	}
	for i, e := range r2.fake.Events {
		if e.Source != logic.SourceSync {
			t.Errorf("event %d: got source %s, want SYNC", i, e.Source)
		}
	}
	if !r2.pins.Level(gpio.DefaultLayout[1].LED) || r2.pins.Level(gpio.DefaultLayout[2].LED) {
		t.Error("LEDs should follow the resynced inputs")
	}
}
