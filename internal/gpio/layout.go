package gpio

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// layoutFile is the on-disk form of a pin layout:
//
//	[[channel]]
//	input = 17
//	set = 5
//	reset = 6
//	led = 23
type layoutFile struct {
	Channel []Channel `toml:"channel"`
}

// LoadLayout reads a TOML pin layout from path.
// The file must describe exactly NumChannels channels.
func LoadLayout(path string) (Layout, error) {
	var f layoutFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Layout{}, fmt.Errorf("decode layout %s: %w", path, err)
	}
	return layoutFromFile(f)
}

// ParseLayout decodes a TOML pin layout from a string.
func ParseLayout(data string) (Layout, error) {
	var f layoutFile
	if _, err := toml.Decode(data, &f); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return layoutFromFile(f)
}

func layoutFromFile(f layoutFile) (Layout, error) {
	var l Layout
	if len(f.Channel) != NumChannels {
		return l, fmt.Errorf("layout: expected %d channels, got %d", NumChannels, len(f.Channel))
	}
	copy(l[:], f.Channel)
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("layout: %w", err)
	}
	return l, nil
}
