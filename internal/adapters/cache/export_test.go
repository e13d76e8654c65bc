package cache

import "time"

// SetClock replaces the clock used to stamp and expire entries.
func (c *FileCache) SetClock(now func() time.Time) {
	c.now = now
}
