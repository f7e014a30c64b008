package timer

import (
	"sync"
	"time"
)

// Ticker delivers the cooperative steps that drive a Countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Factory builds a Ticker for the given period.
type Factory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

// NewTicker wraps time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Manual is a Ticker advanced by the caller. Useful in tests.
type Manual struct {
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewManual() *Manual {
	return &Manual{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
		now:     time.Now,
	}
}

func (m *Manual) C() <-chan time.Time { return m.ch }

func (m *Manual) Stop() {
	m.stopOnce.Do(func() { close(m.stopped) })
}

// Tick blocks until the owner receives the tick. It returns false once the
// ticker is stopped.
func (m *Manual) Tick() bool {
	select {
	case m.ch <- m.now():
		return true
	case <-m.stopped:
		return false
	}
}

// Stopped is closed once Stop was called.
func (m *Manual) Stopped() <-chan struct{} { return m.stopped }

// ManualFactory hands out Manual tickers and remembers them in creation order.
type ManualFactory struct {
	mu      sync.Mutex
	tickers []*Manual
	created chan *Manual
}

func NewManualFactory() *ManualFactory {
	return &ManualFactory{created: make(chan *Manual, 64)}
}

func (f *ManualFactory) New(time.Duration) Ticker {
	m := NewManual()
	f.mu.Lock()
	f.tickers = append(f.tickers, m)
	f.mu.Unlock()
	select {
	case f.created <- m:
	default:
	}
	return m
}

// Next waits for the next ticker created by the factory.
func (f *ManualFactory) Next(timeout time.Duration) (*Manual, bool) {
	select {
	case m := <-f.created:
		return m, true
	case <-time.After(timeout):
		return nil, false
	}
}
