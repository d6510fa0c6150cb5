package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/room-booker/internal/booking"
)

var (
	ErrBusy          = errors.New("a booking run is already armed or running")
	ErrNotConfigured = errors.New("no booking request configured")
)

type RunState int

const (
	StateIdle RunState = iota
	StateArmed
	StateRunning
	StateSucceeded
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// Active reports whether a run cycle is in progress.
func (s RunState) Active() bool { return s == StateArmed || s == StateRunning }

// Status is delivered to OnStatus listeners on every state transition and
// every classified attempt.
type Status struct {
	At      time.Time
	State   RunState
	Attempt int              // 0 for transitions
	Outcome *booking.Outcome // nil for transitions
	Message string
}

// Recorder persists run history. Calls happen when a cycle is armed and when
// it ends, never between attempts.
type Recorder interface {
	StartRun(ctx context.Context, req booking.Request, target time.Time) (int64, error)
	FinishRun(ctx context.Context, runID int64, state string, attempts int, last *booking.Outcome) error
}

// Snapshot describes the current or most recent cycle.
type Snapshot struct {
	State    RunState
	Target   time.Time
	Attempts int
	Last     *booking.Outcome
	Request  *booking.Request
}

type cycle struct {
	req    booking.Request
	target time.Time
	ctx    context.Context

	trigger *Trigger
	stop    atomic.Bool
	done    chan struct{}
	runID   int64
}

// Booker arms a trigger for a configured request and, when it fires, runs the
// booking loop on its own goroutine. Only one cycle is active at a time.
type Booker struct {
	attempter booking.Attempter
	interval  time.Duration
	now       func() time.Time
	recorder  Recorder

	mu        sync.Mutex
	state     RunState
	req       *booking.Request
	cur       *cycle
	attempts  int
	last      *booking.Outcome
	listeners []func(Status)
}

type Option func(*Booker)

func WithPollInterval(d time.Duration) Option { return func(b *Booker) { b.interval = d } }
func WithClock(now func() time.Time) Option { return func(b *Booker) { b.now = now } }
func WithRecorder(r Recorder) Option { return func(b *Booker) { b.recorder = r } }

func New(a booking.Attempter, opts ...Option) *Booker {
	b := &Booker{attempter: a, interval: DefaultPollInterval, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// OnStatus registers a listener. Listeners are called synchronously from the
// goroutine that caused the event and must not call back into the Booker.
func (b *Booker) OnStatus(fn func(Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Configure sets the request used by the next ArmAt.
func (b *Booker) Configure(req booking.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Active() {
		return ErrBusy
	}
	b.req = &req
	return nil
}

// ArmAt starts a new cycle that fires at target. ctx bounds the whole cycle:
// when it is done an armed trigger is cancelled and a running loop stops at
// the next attempt boundary.
func (b *Booker) ArmAt(ctx context.Context, target time.Time) error {
	b.mu.Lock()
	if b.state.Active() {
		b.mu.Unlock()
		return ErrBusy
	}
	if b.req == nil {
		b.mu.Unlock()
		return ErrNotConfigured
	}
	c := &cycle{req: *b.req, target: target, ctx: ctx, done: make(chan struct{})}
	b.cur = c
	b.attempts = 0
	b.last = nil
	b.state = StateArmed
	b.mu.Unlock()

	if b.recorder != nil {
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		id, err := b.recorder.StartRun(rctx, c.req, target)
		cancel()
		if err != nil {
			log.Printf("scheduler: record run start failed: %v", err)
		}
		c.runID = id
	}

	b.emit(Status{State: StateArmed, Message: fmt.Sprintf("Starting timer... (fires at %s)", target.Format("2006-01-02 15:04:05"))})

	b.mu.Lock()
	c.trigger = Arm(target, b.interval, b.now, func() { go b.work(c) })
	stopped := c.stop.Load()
	b.mu.Unlock()
	if stopped && c.trigger.Cancel() {
		b.finish(c, StateStopped)
	}

	go func() {
		select {
		case <-ctx.Done():
			b.cancelCycle(c)
		case <-c.done:
		}
	}()
	return nil
}

// Cancel stops the active cycle. An armed trigger never fires; a running
// loop finishes its in-flight attempt and makes no further calls. It is a
// no-op when nothing is armed or running.
func (b *Booker) Cancel() {
	b.mu.Lock()
	c := b.cur
	b.mu.Unlock()
	if c != nil {
		b.cancelCycle(c)
	}
}

func (b *Booker) cancelCycle(c *cycle) {
	b.mu.Lock()
	if b.cur != c || !b.state.Active() || c.stop.Load() {
		b.mu.Unlock()
		return
	}
	c.stop.Store(true)
	armed := b.state == StateArmed
	trig := c.trigger
	b.mu.Unlock()

	b.emit(Status{State: b.State(), Message: "System stopped by user."})

	// A trigger that already fired hands off to work, which sees the flag.
	if armed && trig != nil && trig.Cancel() {
		b.finish(c, StateStopped)
	}
}

// work runs on its own goroutine once the deadline passes.
func (b *Booker) work(c *cycle) {
	b.mu.Lock()
	if b.cur != c || b.state != StateArmed {
		b.mu.Unlock()
		return
	}
	if c.stop.Load() {
		b.mu.Unlock()
		b.finish(c, StateStopped)
		return
	}
	b.state = StateRunning
	b.mu.Unlock()

	b.emit(Status{State: StateRunning, Message: "Running automatic booker."})

	l := &booking.Loop{
		Attempter: b.attempter,
		Stopped:   c.stop.Load,
		OnOutcome: func(n int, out booking.Outcome) {
			b.mu.Lock()
			b.attempts = n
			o := out
			b.last = &o
			b.mu.Unlock()
			b.emit(Status{State: StateRunning, Attempt: n, Outcome: &o, Message: out.Message()})
		},
	}
	out, _, err := l.Run(c.ctx, c.req)
	switch {
	case errors.Is(err, booking.ErrStopped):
		b.finish(c, StateStopped)
	case out.Success():
		b.finish(c, StateSucceeded)
	default:
		b.emit(Status{State: StateRunning, Message: "Stopping automatic booker..."})
		b.finish(c, StateStopped)
	}
}

func (b *Booker) finish(c *cycle, st RunState) {
	b.mu.Lock()
	if b.cur != c || !b.state.Active() {
		b.mu.Unlock()
		return
	}
	b.state = st
	attempts, last := b.attempts, b.last
	b.mu.Unlock()

	if b.recorder != nil && c.runID != 0 {
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := b.recorder.FinishRun(rctx, c.runID, st.String(), attempts, last); err != nil {
			log.Printf("scheduler: record run %d finish failed: %v", c.runID, err)
		}
		cancel()
	}

	msg := "Run stopped."
	if st == StateSucceeded {
		msg = "Run finished: booked."
	}
	b.emit(Status{State: st, Attempt: attempts, Message: msg})
	close(c.done)
}

func (b *Booker) emit(s Status) {
	if s.At.IsZero() {
		s.At = b.now()
	}
	b.mu.Lock()
	ls := append([]func(Status){}, b.listeners...)
	b.mu.Unlock()
	for _, fn := range ls {
		fn(s)
	}
}

func (b *Booker) State() RunState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Done returns a channel closed when the current cycle ends. It is nil before
// the first ArmAt.
func (b *Booker) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur == nil {
		return nil
	}
	return b.cur.done
}

// Wait blocks until the current cycle ends or ctx is done.
func (b *Booker) Wait(ctx context.Context) (Snapshot, error) {
	done := b.Done()
	if done == nil {
		return b.Snapshot(), ErrNotConfigured
	}
	select {
	case <-done:
		return b.Snapshot(), nil
	case <-ctx.Done():
		return b.Snapshot(), ctx.Err()
	}
}

func (b *Booker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Snapshot{State: b.state, Attempts: b.attempts, Last: b.last}
	if b.cur != nil {
		s.Target = b.cur.target
	}
	if b.req != nil {
		r := *b.req
		s.Request = &r
	}
	return s
}
