package control

import (
	"time"

	"github.com/sweeney/acswitch/internal/gpio"
)

// Step is one frame of the startup LED sequence.
type Step struct {
	LEDs [gpio.NumChannels]bool
	Hold time.Duration
}

// Animation is a cosmetic LED sequence played before the first SYNC. It
// also gives the radio link feeding the inputs time to settle.
type Animation []Step

// Duration returns the total hold time of the sequence.
func (a Animation) Duration() time.Duration {
	var d time.Duration
	for _, s := range a {
		d += s.Hold
	}
	return d
}

// DefaultAnimation chases the LEDs once, flashes all three, then goes dark.
var DefaultAnimation = Animation{
	{Hold: 750 * time.Millisecond},
	{LEDs: [gpio.NumChannels]bool{true, false, false}, Hold: 500 * time.Millisecond},
	{LEDs: [gpio.NumChannels]bool{false, true, false}, Hold: 500 * time.Millisecond},
	{LEDs: [gpio.NumChannels]bool{false, false, true}, Hold: 500 * time.Millisecond},
	{LEDs: [gpio.NumChannels]bool{true, true, true}, Hold: 750 * time.Millisecond},
	{Hold: 500 * time.Millisecond},
}
