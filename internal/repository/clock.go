package repository

import (
	"sync"
	"time"
)

// Clock is the server timestamp primitive of the store.
type Clock interface {
	Now() time.Time
}

// ServerClock hands out millisecond timestamps that strictly increase
// across calls, even when the wall clock stalls or steps back.
type ServerClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewServerClock() *ServerClock {
	return &ServerClock{now: time.Now}
}

func (c *ServerClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
