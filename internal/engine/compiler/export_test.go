package compiler

import "time"

// LockTableSize exposes the number of live identifier locks.
func (c *Cache) LockTableSize() int {
	return c.locks.size()
}

// SetClock replaces the time source used for compile timestamps.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}
