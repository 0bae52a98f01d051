package engine

import (
	"sync"
	"testing"
	"time"
)

// fakeClock hands out buffered tickers that only advance when the test says
// so. Shared by the timer and runner tests.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

type fakeTicker struct {
	ch      chan time.Time
	stopped bool
}

func newFakeClock() *fakeClock { return &fakeClock{} }

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1024)}
	c.tickers = append(c.tickers, t)
	return t
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped = true }

// advance emits n ticks to every ticker created so far.
func (c *fakeClock) advance(n int) {
	c.mu.Lock()
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()
	for i := 0; i < n; i++ {
		now := time.Now()
		for _, t := range tickers {
			t.ch <- now
		}
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached: %s", msg)
}

type timerProbe struct {
	mu      sync.Mutex
	ticks   int
	expires int
}

func (p *timerProbe) onTick() {
	p.mu.Lock()
	p.ticks++
	p.mu.Unlock()
}

func (p *timerProbe) onExpire() {
	p.mu.Lock()
	p.expires++
	p.mu.Unlock()
}

func (p *timerProbe) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks, p.expires
}

func TestTimerTicksAndExpiresOnce(t *testing.T) {
	clock := newFakeClock()
	tc := NewTimerController(clock)
	probe := &timerProbe{}

	tc.Start(5, probe.onTick, probe.onExpire)
	clock.advance(5)

	waitFor(t, func() bool { _, e := probe.counts(); return e == 1 }, "expiry fired")
	ticks, expires := probe.counts()
	if ticks != 5 {
		t.Errorf("ticks = %d, want 5", ticks)
	}
	if expires != 1 {
		t.Errorf("expires = %d, want exactly 1", expires)
	}

	// Extra ticks after expiry must be ignored — the countdown stopped.
	clock.advance(3)
	time.Sleep(10 * time.Millisecond)
	if ticks2, expires2 := probe.counts(); ticks2 != 5 || expires2 != 1 {
		t.Errorf("countdown kept running after expiry: ticks=%d expires=%d", ticks2, expires2)
	}
}

func TestTimerCancelSuppressesExpiry(t *testing.T) {
	clock := newFakeClock()
	tc := NewTimerController(clock)
	probe := &timerProbe{}

	cancel := tc.Start(10, probe.onTick, probe.onExpire)
	clock.advance(4)
	waitFor(t, func() bool { ticks, _ := probe.counts(); return ticks == 4 }, "four ticks delivered")

	cancel()
	clock.advance(20)
	time.Sleep(10 * time.Millisecond)

	ticks, expires := probe.counts()
	if expires != 0 {
		t.Errorf("expiry fired after cancellation: %d", expires)
	}
	if ticks != 4 {
		t.Errorf("ticks after cancel = %d, want 4", ticks)
	}
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	tc := NewTimerController(clock)
	probe := &timerProbe{}

	cancel := tc.Start(3, probe.onTick, probe.onExpire)
	cancel()
	cancel()
}

func TestTimerZeroBudgetExpiresImmediately(t *testing.T) {
	clock := newFakeClock()
	tc := NewTimerController(clock)
	probe := &timerProbe{}

	tc.Start(0, probe.onTick, probe.onExpire)
	waitFor(t, func() bool { _, e := probe.counts(); return e == 1 }, "zero budget expiry")

	ticks, _ := probe.counts()
	if ticks != 0 {
		t.Errorf("zero budget produced %d ticks", ticks)
	}
}
