// Package gpio provides raw GPIO line access with hardware abstraction.
// The real implementations use the Linux GPIO character device or /dev/gpiomem.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Pins reads and drives individual GPIO lines by BCM number.
// Levels are raw: true = high. Polarity is not interpreted.
type Pins interface {
	// Get returns the current level of an input pin.
	Get(pin int) (bool, error)

	// Set drives an output pin high or low.
	Set(pin int, level bool) error

	// Close releases GPIO resources.
	Close() error
}

// NumChannels is the number of switch/relay channels on the board.
const NumChannels = 3

// Channel holds the fixed pin assignment of one switch/relay channel.
type Channel struct {
	Input int `toml:"input"` // switch position input
	Set   int `toml:"set"`   // latching relay "set" coil
	Reset int `toml:"reset"` // latching relay "reset" coil
	LED   int `toml:"led"`   // status LED
}

// Layout is the pin assignment for every channel, indexed 0..NumChannels-1.
type Layout [NumChannels]Channel

// DefaultLayout is the BCM pin assignment of the relay board.
var DefaultLayout = Layout{
	{Input: 17, Set: 5, Reset: 6, LED: 23},
	{Input: 27, Set: 13, Reset: 19, LED: 24},
	{Input: 22, Set: 26, Reset: 16, LED: 25},
}

// Inputs returns the input pins in channel order.
func (l Layout) Inputs() []int {
	pins := make([]int, 0, NumChannels)
	for _, c := range l {
		pins = append(pins, c.Input)
	}
	return pins
}

// Outputs returns every coil and LED pin in channel order.
func (l Layout) Outputs() []int {
	pins := make([]int, 0, 3*NumChannels)
	for _, c := range l {
		pins = append(pins, c.Set, c.Reset, c.LED)
	}
	return pins
}

// Validate checks that no pin is negative or assigned twice.
func (l Layout) Validate() error {
	seen := make(map[int]string)
	for i, c := range l {
		for _, p := range []struct {
			name string
			pin  int
		}{
			{"input", c.Input},
			{"set", c.Set},
			{"reset", c.Reset},
			{"led", c.LED},
		} {
			role := fmt.Sprintf("channel %d %s", i, p.name)
			if p.pin < 0 {
				return fmt.Errorf("%s: invalid pin %d", role, p.pin)
			}
			if other, ok := seen[p.pin]; ok {
				return fmt.Errorf("%s: pin %d already used by %s", role, p.pin, other)
			}
			seen[p.pin] = role
		}
	}
	return nil
}
