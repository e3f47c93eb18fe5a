package game

import (
	"context"
	"errors"
	"time"
)

// Default loop intervals.
const (
	DefaultTickInterval = time.Second
	DefaultPollInterval = 10 * time.Millisecond
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("controller loop stopped")

// Loop is the single controller context. It serializes clock ticks, hand-off
// polling, posted stop callbacks and calls from the presentation layer, so
// the Controller never sees concurrent access.
type Loop struct {
	tickInterval time.Duration
	pollInterval time.Duration

	posts chan func()
	done  chan struct{}

	// ticker is only touched from the loop goroutine.
	ticker *time.Ticker
}

// NewLoop creates a Loop. Non-positive intervals use the defaults.
func NewLoop(tickInterval, pollInterval time.Duration) *Loop {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Loop{
		tickInterval: tickInterval,
		pollInterval: pollInterval,
		posts:        make(chan func(), 64),
		done:         make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It blocks only while the queue is
// full and returns without running fn once the loop has exited.
func (l *Loop) Post(fn func()) {
	select {
	case l.posts <- fn:
	case <-l.done:
	}
}

// ResetClock restarts the tick interval so a new turn gets a full first
// second. It must be called from the loop goroutine.
func (l *Loop) ResetClock() {
	if l.ticker != nil {
		l.ticker.Reset(l.tickInterval)
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.posts <- wrapped:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run drives c until ctx is cancelled, then shuts c down.
func (l *Loop) Run(ctx context.Context, c *Controller) error {
	l.ticker = time.NewTicker(l.tickInterval)
	defer l.ticker.Stop()

	poll := time.NewTicker(l.pollInterval)
	defer poll.Stop()

	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			c.Shutdown()
			return ctx.Err()
		case fn := <-l.posts:
			fn()
		case <-l.ticker.C:
			c.Tick()
		case <-poll.C:
			c.Poll()
		}
	}
}
