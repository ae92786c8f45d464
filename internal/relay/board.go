// Package relay drives the latching relay board: input sampling, status
// LEDs and coil pulses, one channel at a time.
package relay

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/acswitch/internal/gpio"
	"github.com/sweeney/acswitch/internal/watchdog"
)

// PulseDuration is how long a coil is energized to flip a latching relay.
const PulseDuration = 150 * time.Millisecond

// Board maps channel operations onto GPIO pins.
// Channel indexes outside 0..gpio.NumChannels-1 are ignored silently.
type Board struct {
	pins     gpio.Pins
	layout   gpio.Layout
	watchdog watchdog.Feeder
	sleep    func(time.Duration)
}

// NewBoard creates a Board. sleep is the blocking delay used while a coil is
// energized; nil means time.Sleep.
func NewBoard(pins gpio.Pins, layout gpio.Layout, wd watchdog.Feeder, sleep func(time.Duration)) *Board {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Board{
		pins:     pins,
		layout:   layout,
		watchdog: wd,
		sleep:    sleep,
	}
}

func (b *Board) channel(ch int) (gpio.Channel, bool) {
	if ch < 0 || ch >= len(b.layout) {
		return gpio.Channel{}, false
	}
	return b.layout[ch], true
}

// ReadInput returns the raw level of the channel's input pin.
// An out-of-range channel reads false.
func (b *Board) ReadInput(ch int) (bool, error) {
	c, ok := b.channel(ch)
	if !ok {
		return false, nil
	}
	level, err := b.pins.Get(c.Input)
	if err != nil {
		return false, fmt.Errorf("read input %d: %w", ch, err)
	}
	return level, nil
}

// SetLed switches the channel's status LED.
func (b *Board) SetLed(ch int, on bool) error {
	c, ok := b.channel(ch)
	if !ok {
		return nil
	}
	if err := b.pins.Set(c.LED, on); err != nil {
		return fmt.Errorf("set led %d: %w", ch, err)
	}
	return nil
}

// SetLeds sets every channel LED in index order.
func (b *Board) SetLeds(on [gpio.NumChannels]bool) error {
	for ch, v := range on {
		if err := b.SetLed(ch, v); err != nil {
			return err
		}
	}
	return nil
}

// SetRelay pulses the set coil (on) or reset coil (off) of the channel for
// PulseDuration. The LED is updated before the coil is energized. Every call
// pulses, whatever the relay's current position.
func (b *Board) SetRelay(ch int, on bool) error {
	c, ok := b.channel(ch)
	if !ok {
		return nil
	}

	coil := c.Reset
	if on {
		coil = c.Set
	}

	if err := b.SetLed(ch, on); err != nil {
		return err
	}
	if err := b.pins.Set(coil, true); err != nil {
		// Don't leave a half-driven coil behind.
		b.pins.Set(coil, false)
		return fmt.Errorf("energize relay %d coil %d: %w", ch, coil, err)
	}

	if err := b.watchdog.Feed(); err != nil {
		log.Printf("relay %d: watchdog feed error: %v", ch, err)
	}
	b.sleep(PulseDuration)

	if err := b.pins.Set(coil, false); err != nil {
		return fmt.Errorf("release relay %d coil %d: %w", ch, coil, err)
	}
	return nil
}

// AllOff drives every coil and LED low.
func (b *Board) AllOff() error {
	var errs []error
	for _, pin := range b.layout.Outputs() {
		if err := b.pins.Set(pin, false); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("drive outputs low: %v", errs)
	}
	return nil
}
