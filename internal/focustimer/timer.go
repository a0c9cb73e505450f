// Package focustimer runs a pomodoro style stopwatch in its own goroutine.
//
// The goroutine owns every field of the timer; callers talk to it only by
// sending commands over a channel, so no locks guard the state.
// Elapsed time is now - start - totalPaused.
package focustimer

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("timer already running")
	ErrNotRunning     = errors.New("timer is not running")
	ErrNotPaused      = errors.New("timer is not paused")
	ErrNotStarted     = errors.New("timer has not been started")
	ErrNotStopped     = errors.New("timer is not stopped")
	ErrClosed         = errors.New("timer closed")
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Snapshot is a point-in-time view of a timer.
type Snapshot struct {
	State       State         `json:"state"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	PausedAt    time.Time     `json:"paused_at,omitempty"`
	StoppedAt   time.Time     `json:"stopped_at,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	TotalPaused time.Duration `json:"total_paused"`
}

// ElapsedSeconds is Elapsed truncated to whole seconds.
func (s Snapshot) ElapsedSeconds() int64 { return int64(s.Elapsed / time.Second) }

type Options struct {
	// Now defaults to time.Now, whose readings carry the monotonic clock.
	Now func() time.Time
	// Tick is the OnTick interval while running; zero disables ticks.
	Tick time.Duration
	// OnTick and OnChange run on the timer goroutine and must not block.
	OnTick   func(Snapshot)
	OnChange func(Snapshot)
}

type op int

const (
	opStart op = iota
	opPause
	opResume
	opStop
	opReopen
	opSnapshot
)

type command struct {
	op    op
	reply chan result
}

type result struct {
	snap Snapshot
	err  error
}

type Timer struct {
	opts  Options
	cmds  chan command
	quit  chan struct{}
	done  chan struct{}
	start time.Time
	// pausedAt is zero unless paused.
	pausedAt    time.Time
	stoppedAt   time.Time
	totalPaused time.Duration
	state       State
	// stoppedFrom and stopPausedAt remember what Stop replaced so Reopen can undo it.
	stoppedFrom  State
	stopPausedAt time.Time
}

// New starts the timer goroutine in the idle state. Close releases it.
func New(opts Options) *Timer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &Timer{
		opts:  opts,
		cmds:  make(chan command),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		state: StateIdle,
	}
	go t.run()
	return t
}

func (t *Timer) Start(ctx context.Context) (Snapshot, error)  { return t.send(ctx, opStart) }
func (t *Timer) Pause(ctx context.Context) (Snapshot, error)  { return t.send(ctx, opPause) }
func (t *Timer) Resume(ctx context.Context) (Snapshot, error) { return t.send(ctx, opResume) }

// Stop freezes the timer and returns its final snapshot. A stopped timer
// can be restarted with Start or put back with Reopen.
func (t *Timer) Stop(ctx context.Context) (Snapshot, error) { return t.send(ctx, opStop) }

// Reopen undoes the last Stop, returning the timer to the running or paused
// state it was stopped from. Time since the stop counts as it would have.
func (t *Timer) Reopen(ctx context.Context) (Snapshot, error) { return t.send(ctx, opReopen) }

func (t *Timer) Snapshot(ctx context.Context) (Snapshot, error) { return t.send(ctx, opSnapshot) }

// Close stops the goroutine. It is safe to call more than once.
func (t *Timer) Close() {
	select {
	case <-t.quit:
	default:
		close(t.quit)
	}
	<-t.done
}

func (t *Timer) send(ctx context.Context, o op) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := command{op: o, reply: make(chan result, 1)}
	select {
	case t.cmds <- cmd:
	case <-t.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (t *Timer) run() {
	defer close(t.done)
	var ticker *time.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-t.quit:
			return
		case <-tickC:
			if t.opts.OnTick != nil {
				t.opts.OnTick(t.snapshot(t.opts.Now()))
			}
		case cmd := <-t.cmds:
			before := t.state
			snap, err := t.apply(cmd.op, t.opts.Now())

			if t.state == StateRunning && ticker == nil && t.opts.Tick > 0 {
				ticker = time.NewTicker(t.opts.Tick)
				tickC = ticker.C
			} else if t.state != StateRunning {
				stopTicker()
			}
			// Observers see the change before the caller does.
			if err == nil && t.state != before && t.opts.OnChange != nil {
				t.opts.OnChange(snap)
			}
			cmd.reply <- result{snap: snap, err: err}
		}
	}
}

func (t *Timer) apply(o op, now time.Time) (Snapshot, error) {
	switch o {
	case opStart:
		if t.state == StateRunning || t.state == StatePaused {
			return t.snapshot(now), ErrAlreadyRunning
		}
		t.start = now
		t.pausedAt = time.Time{}
		t.stoppedAt = time.Time{}
		t.totalPaused = 0
		t.stoppedFrom = ""
		t.state = StateRunning
	case opPause:
		if t.state != StateRunning {
			return t.snapshot(now), ErrNotRunning
		}
		t.pausedAt = now
		t.state = StatePaused
	case opResume:
		if t.state != StatePaused {
			return t.snapshot(now), ErrNotPaused
		}
		t.totalPaused += now.Sub(t.pausedAt)
		t.pausedAt = time.Time{}
		t.state = StateRunning
	case opStop:
		if t.state != StateRunning && t.state != StatePaused {
			return t.snapshot(now), ErrNotStarted
		}
		t.stoppedFrom = t.state
		t.stopPausedAt = t.pausedAt
		if t.state == StatePaused {
			t.totalPaused += now.Sub(t.pausedAt)
			t.pausedAt = time.Time{}
		}
		t.stoppedAt = now
		t.state = StateStopped
	case opReopen:
		if t.state != StateStopped || t.stoppedFrom == "" {
			return t.snapshot(now), ErrNotStopped
		}
		if t.stoppedFrom == StatePaused {
			t.totalPaused -= t.stoppedAt.Sub(t.stopPausedAt)
			t.pausedAt = t.stopPausedAt
		}
		t.stoppedAt = time.Time{}
		t.state = t.stoppedFrom
		t.stoppedFrom = ""
		t.stopPausedAt = time.Time{}
	}
	return t.snapshot(now), nil
}

func (t *Timer) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		State:       t.state,
		StartedAt:   t.start,
		PausedAt:    t.pausedAt,
		StoppedAt:   t.stoppedAt,
		TotalPaused: t.totalPaused,
	}
	switch t.state {
	case StateRunning:
		s.Elapsed = now.Sub(t.start) - t.totalPaused
	case StatePaused:
		s.Elapsed = t.pausedAt.Sub(t.start) - t.totalPaused
	case StateStopped:
		s.Elapsed = t.stoppedAt.Sub(t.start) - t.totalPaused
	}
	if s.Elapsed < 0 {
		s.Elapsed = 0
	}
	return s
}
