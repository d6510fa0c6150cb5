package scheduler

import (
	"sync"
	"time"
)

// DefaultPollInterval is how often an armed trigger compares the clock to
// its target.
const DefaultPollInterval = 500 * time.Millisecond

// Trigger fires a callback once, the first time a poll observes
// now >= target. Polls and Cancel are serialized, so a cancel that lands
// before a poll's comparison always wins.
type Trigger struct {
	target   time.Time
	interval time.Duration
	now      func() time.Time
	fire     func()

	mu       sync.Mutex
	finished bool // fired or cancelled
	stop     chan struct{}
	done     chan struct{}
}

func newTrigger(target time.Time, interval time.Duration, now func() time.Time, fire func()) *Trigger {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Trigger{
		target:   target,
		interval: interval,
		now:      now,
		fire:     fire,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Arm starts polling on a new goroutine and returns the trigger. fire runs
// on the polling goroutine.
func Arm(target time.Time, interval time.Duration, now func() time.Time, fire func()) *Trigger {
	t := newTrigger(target, interval, now, fire)
	go t.run()
	return t
}

func (t *Trigger) run() {
	defer close(t.done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	// check immediately so a target already in the past fires without waiting
	if t.poll() {
		return
	}
	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
			if t.poll() {
				return
			}
		}
	}
}

// poll reports whether polling is over.
func (t *Trigger) poll() bool {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return true
	}
	if t.now().Before(t.target) {
		t.mu.Unlock()
		return false
	}
	t.finished = true
	t.mu.Unlock()

	t.fire()
	return true
}

// Cancel stops polling. It reports whether the trigger was cancelled before
// firing.
func (t *Trigger) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return false
	}
	t.finished = true
	close(t.stop)
	return true
}

// Done is closed once the polling goroutine has exited.
func (t *Trigger) Done() <-chan struct{} { return t.done }
