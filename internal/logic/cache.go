package logic

// Cache holds the last observed input level of each channel.
// Once seeded, the cached level always equals the relay's last commanded
// position.
type Cache struct {
	levels []bool
	seeded []bool
}

// NewCache creates an unseeded cache for n channels.
func NewCache(n int) *Cache {
	return &Cache{
		levels: make([]bool, n),
		seeded: make([]bool, n),
	}
}

// Len returns the number of channels.
func (c *Cache) Len() int {
	return len(c.levels)
}

// Seed sets the cached level unconditionally, with no prior-state comparison.
func (c *Cache) Seed(ch int, level bool) {
	if !c.valid(ch) {
		return
	}
	c.levels[ch] = level
	c.seeded[ch] = true
}

// Changed reports whether level differs from the cached level.
// An unseeded channel always reports a change.
func (c *Cache) Changed(ch int, level bool) bool {
	if !c.valid(ch) {
		return false
	}
	return !c.seeded[ch] || c.levels[ch] != level
}

// Commit records level as the channel's new cached level.
func (c *Cache) Commit(ch int, level bool) {
	c.Seed(ch, level)
}

// Level returns the cached level and whether the channel has been seeded.
func (c *Cache) Level(ch int) (level, ok bool) {
	if !c.valid(ch) {
		return false, false
	}
	return c.levels[ch], c.seeded[ch]
}

// Seeded reports whether every channel has been seeded.
func (c *Cache) Seeded() bool {
	for _, s := range c.seeded {
		if !s {
			return false
		}
	}
	return true
}

func (c *Cache) valid(ch int) bool {
	return ch >= 0 && ch < len(c.levels)
}
