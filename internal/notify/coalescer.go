package notify

import (
	"sync"
	"time"
)

// Coalescer turns a burst of change notifications into a single callback.
// Every Notify restarts the debounce window, so the callback fires once the
// stream has been quiet for the full window. A steady trickle of changes
// spaced wider than the window fires once per change.
type Coalescer struct {
	window time.Duration
	fire   func(tables []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	stopped bool
}

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 300 * time.Millisecond

// NewCoalescer creates a coalescer that calls fire with the distinct tables
// seen since the last firing.
func NewCoalescer(window time.Duration, fire func(tables []string)) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		window:  window,
		fire:    fire,
		pending: make(map[string]struct{}),
	}
}

// Notify records a change to table and restarts the debounce window.
func (c *Coalescer) Notify(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.pending[table] = struct{}{}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.flush)
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	if c.stopped || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	tables := make([]string, 0, len(c.pending))
	for table := range c.pending {
		tables = append(tables, table)
	}
	c.pending = make(map[string]struct{})
	c.mu.Unlock()

	c.fire(tables)
}

// Stop cancels any pending firing. Notifications after Stop are ignored.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
