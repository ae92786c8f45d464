// Command acswitch drives three latching AC relays from their control inputs
// under a hardware watchdog, and reports relay activity over MQTT and HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/acswitch/internal/control"
	"github.com/sweeney/acswitch/internal/gpio"
	"github.com/sweeney/acswitch/internal/logic"
	"github.com/sweeney/acswitch/internal/mqtt"
	"github.com/sweeney/acswitch/internal/relay"
	"github.com/sweeney/acswitch/internal/status"
	"github.com/sweeney/acswitch/internal/ticks"
	"github.com/sweeney/acswitch/internal/watchdog"
	"github.com/sweeney/acswitch/internal/web"
)

// queueDepth is the number of MQTT messages the control loop may queue
// before further events are dropped.
const queueDepth = 64

// mqttRefresh is how often the tracker's MQTT connection state is updated.
const mqttRefresh = time.Second

type options struct {
	config      string
	gpio        string
	chip        string
	watchdog    string
	poll        time.Duration
	broker      string
	clientID    string
	heartbeat   time.Duration
	httpAddr    string
	printState  bool
	noAnimation bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "TOML pin layout file (empty uses the built-in layout)")
	flag.StringVar(&o.gpio, "gpio", "cdev", `GPIO backend: "cdev" (character device) or "rpio" (/dev/gpiomem)`)
	flag.StringVar(&o.chip, "chip", "gpiochip0", "GPIO chip for the cdev backend")
	flag.StringVar(&o.watchdog, "watchdog", watchdog.DefaultDevice, `Watchdog device path, or "soft" for a software watchdog`)
	flag.DurationVar(&o.poll, "poll", control.DefaultPollInterval, "Wait between input poll passes")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.clientID, "client-id", "acswitch", "MQTT client ID")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current inputs and exit")
	flag.BoolVar(&o.noAnimation, "no-animation", false, "Skip the startup LED animation")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	layout, err := loadLayout(o.config)
	if err != nil {
		return err
	}

	pins, err := openPins(o.gpio, o.chip, layout)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	if o.printState {
		defer pins.Close()
		return printState(os.Stdout, pins, layout)
	}

	wd, err := openWatchdog(o.watchdog)
	if err != nil {
		pins.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reasons := make(chan string, 1)
	go watchSignals(ctx, cancel, reasons)

	svc := ticks.New()
	go svc.Start(ctx)

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      o.poll.Milliseconds(),
		PulseMs:     relay.PulseDuration.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
		GPIO:        o.gpio,
		Layout:      layout,
	}, svc.Decisecs)

	var pub mqtt.Publisher
	var conn mqtt.ConnectionStatus
	if o.broker != "" {
		rp := mqtt.NewRealPublisher(o.broker, o.clientID)
		pub = mqtt.NewAsync(rp, queueDepth)
		conn = rp
	} else {
		log.Printf("mqtt disabled")
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	var anim control.Animation
	if !o.noAnimation {
		anim = control.DefaultAnimation
	}

	board := relay.NewBoard(pins, layout, wd, nil)
	ctrl := control.New(board, wd, control.Config{
		PollInterval: o.poll,
		Animation:    anim,
		Reporter:     &reporter{tracker: tracker, pub: pub},
	})

	if err := ctrl.Init(); err != nil {
		closeAll(pins, wd, pub)
		return err
	}
	tracker.SetWatchdog(status.WatchdogInfo{
		Device:        o.watchdog,
		TimeoutMs:     watchdog.DefaultTimeout.Milliseconds(),
		PreviousReset: wd.BootStatus().WatchdogReset,
	})

	publishSystem(pub, tracker, conn, "STARTUP", "")

	go statusLoop(ctx, o.heartbeat, tracker, pub, conn)

	log.Printf("started: gpio=%s watchdog=%s poll=%v broker=%s heartbeat=%v", o.gpio, o.watchdog, o.poll, o.broker, o.heartbeat)

	if err := ctrl.Animate(ctx); err == nil {
		ctrl.Sync()
		ctrl.Poll(ctx)
	}

	reason := "UNKNOWN"
	select {
	case reason = <-reasons:
	default:
	}
	return shutdown(board, wd, pins, pub, tracker, conn, reason)
}

// watchSignals cancels ctx on SIGINT or SIGTERM and reports which one.
func watchSignals(ctx context.Context, cancel context.CancelFunc, reasons chan<- string) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		log.Printf("received %v, shutting down", s)
		reasons <- signalName(s)
		cancel()
	case <-ctx.Done():
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func loadLayout(path string) (gpio.Layout, error) {
	if path == "" {
		return gpio.DefaultLayout, nil
	}
	layout, err := gpio.LoadLayout(path)
	if err != nil {
		return gpio.Layout{}, fmt.Errorf("load layout: %w", err)
	}
	return layout, nil
}

func openPins(backend, chip string, layout gpio.Layout) (gpio.Pins, error) {
	switch backend {
	case "cdev":
		return gpio.NewRealPins(chip, layout)
	case "rpio":
		return gpio.NewRPIOPins(layout)
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}

func openWatchdog(spec string) (watchdog.Watchdog, error) {
	switch spec {
	case "":
		return nil, errors.New("watchdog: no device given")
	case "soft":
		log.Printf("using software watchdog")
		return watchdog.NewSoft(), nil
	}
	return watchdog.NewDevice(spec), nil
}

// printState writes each channel's input level.
func printState(w io.Writer, pins gpio.Pins, layout gpio.Layout) error {
	for ch, c := range layout {
		level, err := pins.Get(c.Input)
		if err != nil {
			return fmt.Errorf("read channel %d: %w", ch, err)
		}
		fmt.Fprintf(w, "channel %d (pin %d): %s\n", ch, c.Input, logic.StateOf(level))
	}
	return nil
}

// reporter forwards controller activity to the tracker and the publisher.
// pub may be nil when MQTT is disabled.
type reporter struct {
	tracker *status.Tracker
	pub     mqtt.Publisher
}

func (r *reporter) PhaseChanged(p control.Phase) {
	log.Printf("phase: %s", p)
	r.tracker.SetPhase(string(p))
}

func (r *reporter) Actuated(e logic.Event) {
	log.Printf("event: %s channel=%d source=%s", e.Type, e.Channel, e.Source)
	r.tracker.Record(e)
	if r.pub == nil {
		return
	}
	if err := r.pub.Publish(e); err != nil {
		log.Printf("publish error: %v", err)
	}
}

// publishSystem publishes a status snapshot as a system event. STARTUP and
// SHUTDOWN are retained; other events are not.
func publishSystem(pub mqtt.Publisher, tracker *status.Tracker, conn mqtt.ConnectionStatus, event, reason string) {
	if conn != nil {
		tracker.SetMQTTConnected(conn.IsConnected())
	}
	if pub == nil {
		return
	}
	snap := tracker.Snapshot()
	err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   event == "STARTUP" || event == "SHUTDOWN",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

// statusLoop refreshes the MQTT connection state and publishes heartbeats
// until ctx is done. A zero heartbeat disables heartbeats.
func statusLoop(ctx context.Context, heartbeat time.Duration, tracker *status.Tracker, pub mqtt.Publisher, conn mqtt.ConnectionStatus) {
	refresh := time.NewTicker(mqttRefresh)
	defer refresh.Stop()

	var hb <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		hb = t.C
	}
	runStatusLoop(ctx, refresh.C, hb, tracker, pub, conn)
}

func runStatusLoop(ctx context.Context, refresh, heartbeat <-chan time.Time, tracker *status.Tracker, pub mqtt.Publisher, conn mqtt.ConnectionStatus) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh:
			if conn != nil {
				tracker.SetMQTTConnected(conn.IsConnected())
			}
		case <-heartbeat:
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v phase=%s decisecs=%d", snap.Uptime().Truncate(time.Second), snap.Phase, snap.Decisecs)
			publishSystem(pub, tracker, conn, "HEARTBEAT", "")
		}
	}
}

// shutdown drives every output low, disarms the watchdog, publishes
// SHUTDOWN and releases the hardware.
func shutdown(board *relay.Board, wd watchdog.Watchdog, pins gpio.Pins, pub mqtt.Publisher, tracker *status.Tracker, conn mqtt.ConnectionStatus, reason string) error {
	var errs []error
	if err := board.AllOff(); err != nil {
		errs = append(errs, fmt.Errorf("outputs off: %w", err))
	}
	if err := wd.Close(); err != nil {
		errs = append(errs, fmt.Errorf("watchdog: %w", err))
	}
	publishSystem(pub, tracker, conn, "SHUTDOWN", reason)
	if pub != nil {
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}
	if err := pins.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gpio: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// closeAll releases resources after a failed start.
func closeAll(pins gpio.Pins, wd watchdog.Watchdog, pub mqtt.Publisher) {
	if err := wd.Close(); err != nil {
		log.Printf("watchdog close error: %v", err)
	}
	if pub != nil {
		pub.Close()
	}
	if err := pins.Close(); err != nil {
		log.Printf("gpio close error: %v", err)
	}
}
