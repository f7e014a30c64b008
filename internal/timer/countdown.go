package timer

// Countdown counts whole seconds down to zero. It is not safe for concurrent
// use; the owner drives it with Tick from its own loop.
type Countdown struct {
	remaining int
	total     int
	elapsed   int
	running   bool
	onExpire  func()
}

func NewCountdown() *Countdown {
	return &Countdown{}
}

// OnExpire sets the callback run when the countdown reaches zero.
func (c *Countdown) OnExpire(fn func()) {
	c.onExpire = fn
}

// Start replaces any running countdown.
func (c *Countdown) Start(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
	c.total = seconds
	c.elapsed = 0
	c.running = true
}

func (c *Countdown) Cancel() {
	c.running = false
}

// Extend adds seconds to a running countdown. No-op otherwise.
func (c *Countdown) Extend(seconds int) {
	if !c.running || seconds <= 0 {
		return
	}
	c.remaining += seconds
	c.total += seconds
}

// Tick advances one second. It reports whether the countdown expired on this
// step, in which case OnExpire has already run.
func (c *Countdown) Tick() bool {
	if !c.running {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
		c.elapsed++
	}
	if c.remaining > 0 {
		return false
	}
	c.running = false
	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

func (c *Countdown) Remaining() int { return c.remaining }

// Elapsed is the number of ticks consumed since Start.
func (c *Countdown) Elapsed() int { return c.elapsed }

func (c *Countdown) Running() bool { return c.running }
