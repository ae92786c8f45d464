// Package control runs the relay controller: boot, startup animation,
// forced sync of every relay to its input, then the poll/actuate loop.
package control

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/acswitch/internal/gpio"
	"github.com/sweeney/acswitch/internal/logic"
	"github.com/sweeney/acswitch/internal/relay"
	"github.com/sweeney/acswitch/internal/watchdog"
)

// Phase is a state of the controller.
type Phase string

const (
	PhaseInit      Phase = "INIT"
	PhaseAnimation Phase = "STARTUP_ANIMATION"
	PhaseSync      Phase = "SYNC"
	PhasePoll      Phase = "POLL"
	PhaseStopped   Phase = "STOPPED"
)

// DefaultPollInterval is the wait between poll passes.
const DefaultPollInterval = 10 * time.Millisecond

// Reporter observes the controller. Implementations must not block: they
// run on the control loop between watchdog feeds.
type Reporter interface {
	PhaseChanged(p Phase)
	Actuated(e logic.Event)
}

type nopReporter struct{}

func (nopReporter) PhaseChanged(Phase)   {}
func (nopReporter) Actuated(logic.Event) {}

// Config configures a Controller.
type Config struct {
	// PollInterval is the wait between passes. Zero polls back to back.
	PollInterval time.Duration

	// Animation is played before SYNC. Nil skips it.
	Animation Animation

	// Reporter receives phase changes and actuations. Nil discards them.
	Reporter Reporter

	// Now stamps events. Defaults to time.Now.
	Now func() time.Time

	// Sleep is the blocking delay used for animation and poll waits.
	// Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Controller owns the board and the watchdog and runs the control loop.
type Controller struct {
	board    *relay.Board
	watchdog watchdog.Watchdog
	cache    *logic.Cache
	cfg      Config
	phase    Phase
}

// New creates a Controller. The board must feed the same watchdog.
func New(board *relay.Board, wd watchdog.Watchdog, cfg Config) *Controller {
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Controller{
		board:    board,
		watchdog: wd,
		cache:    logic.NewCache(gpio.NumChannels),
		cfg:      cfg,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Cached returns the cached input level of a channel and whether it has
// been seeded by SYNC.
func (c *Controller) Cached(ch int) (level, ok bool) {
	return c.cache.Level(ch)
}

func (c *Controller) enter(p Phase) {
	c.phase = p
	c.cfg.Reporter.PhaseChanged(p)
}

// Run boots the controller and polls until ctx is cancelled.
// On the device ctx is never cancelled: only a watchdog reset ends the loop.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Init(); err != nil {
		return err
	}
	if err := c.Animate(ctx); err != nil {
		return err
	}
	c.Sync()
	return c.Poll(ctx)
}

// Init arms the watchdog (recording and clearing the previous reset cause)
// and drives every output low.
func (c *Controller) Init() error {
	c.enter(PhaseInit)
	if err := c.watchdog.Arm(watchdog.DefaultTimeout); err != nil {
		return fmt.Errorf("arm watchdog: %w", err)
	}
	if bs := c.watchdog.BootStatus(); bs.WatchdogReset {
		log.Printf("previous reset was caused by the watchdog")
	}
	if err := c.board.AllOff(); err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	return nil
}

// Animate plays the startup LED sequence, feeding the watchdog before every
// hold. It returns ctx.Err() if cancelled between steps.
func (c *Controller) Animate(ctx context.Context) error {
	if len(c.cfg.Animation) == 0 {
		return nil
	}
	c.enter(PhaseAnimation)
	for _, step := range c.cfg.Animation {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.board.SetLeds(step.LEDs); err != nil {
			log.Printf("animation led error: %v", err)
		}
		c.wait(step.Hold)
	}
	if err := c.board.SetLeds([gpio.NumChannels]bool{}); err != nil {
		log.Printf("animation led error: %v", err)
	}
	c.feed()
	return nil
}

// Sync samples every input and actuates its relay unconditionally, seeding
// the cache. The relay's physical prior position is never assumed.
func (c *Controller) Sync() {
	c.enter(PhaseSync)
	for ch := 0; ch < gpio.NumChannels; ch++ {
		c.feed()
		level, err := c.board.ReadInput(ch)
		if err != nil {
			// Left unseeded: the first poll pass actuates it.
			log.Printf("sync read error: %v", err)
			continue
		}
		c.actuate(ch, level, logic.SourceSync)
	}
}

// Poll runs poll passes until ctx is cancelled.
func (c *Controller) Poll(ctx context.Context) error {
	c.enter(PhasePoll)
	for {
		if err := ctx.Err(); err != nil {
			c.enter(PhaseStopped)
			return nil
		}
		c.PollOnce()
		if c.cfg.PollInterval > 0 {
			c.wait(c.cfg.PollInterval)
		}
	}
}

// PollOnce makes one pass over the channels in index order. A channel whose
// input differs from its cached level is actuated and the cache updated.
// It returns the number of actuations.
func (c *Controller) PollOnce() int {
	n := 0
	for ch := 0; ch < gpio.NumChannels; ch++ {
		c.feed()
		level, err := c.board.ReadInput(ch)
		if err != nil {
			log.Printf("gpio read error: %v", err)
			continue
		}
		if !c.cache.Changed(ch, level) {
			continue
		}
		if c.actuate(ch, level, logic.SourcePoll) {
			n++
		}
	}
	return n
}

// actuate pulses the relay and commits the level. On failure the cache is
// left alone so the next pass retries.
func (c *Controller) actuate(ch int, level bool, source logic.Source) bool {
	event := logic.NewEvent(c.cfg.Now(), ch, level, source)
	if err := c.board.SetRelay(ch, level); err != nil {
		log.Printf("relay %d actuation error: %v", ch, err)
		return false
	}
	c.cache.Commit(ch, level)
	c.cfg.Reporter.Actuated(event)
	return true
}

// wait blocks for d, feeding the watchdog before every slice so no single
// delay approaches the timeout.
func (c *Controller) wait(d time.Duration) {
	slice := watchdog.DefaultTimeout / 4
	for d > 0 {
		c.feed()
		s := d
		if s > slice {
			s = slice
		}
		c.cfg.Sleep(s)
		d -= s
	}
}

func (c *Controller) feed() {
	if err := c.watchdog.Feed(); err != nil {
		log.Printf("watchdog feed error: %v", err)
	}
}
