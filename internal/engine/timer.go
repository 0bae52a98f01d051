package engine

import (
	"sync"
	"time"
)

// TimerController drives the per-question countdown. It ticks once per
// interval independent of user input, invokes onTick for every elapsed
// second, and invokes onExpire exactly once when the countdown is exhausted,
// then stops. Cancelling the returned function stops the countdown without
// firing onExpire; submission must cancel before recording an answer so
// expiry and user submission stay mutually exclusive.
type TimerController struct {
	clock    Clock
	interval time.Duration
}

// NewTimerController returns a controller ticking once per second.
func NewTimerController(clock Clock) *TimerController {
	return &TimerController{clock: clock, interval: time.Second}
}

// Start begins a countdown of `seconds` ticks. Callbacks run on the timer
// goroutine; consumers are expected to hand them off to their own serialized
// event stream. Each new question gets its own countdown — there is no
// carry-over between questions.
func (t *TimerController) Start(seconds int, onTick func(), onExpire func()) (cancel func()) {
	stop := make(chan struct{})
	var once sync.Once
	cancel = func() {
		once.Do(func() { close(stop) })
	}

	if seconds <= 0 {
		// Already exhausted; expire on a goroutine to keep Start non-blocking.
		go func() {
			select {
			case <-stop:
			default:
				onExpire()
			}
		}()
		return cancel
	}

	ticker := t.clock.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				remaining--
				onTick()
				if remaining > 0 {
					continue
				}
				// Re-check cancellation so a submission racing the final
				// tick wins over expiry.
				select {
				case <-stop:
				default:
					onExpire()
				}
				return
			}
		}
	}()
	return cancel
}
