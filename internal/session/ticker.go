package session

import (
	"context"
	"sync"
	"time"
)

// TickFunc advances a realtime match by one step. It returns the delay
// before the next tick and whether the loop should keep going.
type TickFunc func() (next time.Duration, more bool)

// Loop drives a TickFunc on its own goroutine. Each Start bumps a
// generation counter; a tick scheduled by an earlier generation is dropped
// instead of run, so nothing mutates the match after Stop or a restart.
//
// The TickFunc runs with the loop's lock held and must not call Start or
// Stop.
type Loop struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Start replaces any running loop with a new one whose first tick fires
// after first.
func (l *Loop) Start(ctx context.Context, first time.Duration, tick TickFunc) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.gen++
	gen := l.gen
	prevCancel, prevDone := l.cancel, l.done
	l.cancel, l.done = cancel, done
	l.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}
	go l.run(ctx, gen, first, tick, done)
}

func (l *Loop) run(ctx context.Context, gen uint64, interval time.Duration, tick TickFunc, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		l.mu.Lock()
		if l.gen != gen {
			l.mu.Unlock()
			return
		}
		next, more := tick()
		l.mu.Unlock()

		if !more {
			return
		}
		timer.Reset(next)
	}
}

// Stop invalidates pending ticks and waits for the loop goroutine to exit.
// It is safe to call on a stopped or never started Loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.gen++
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Active reports whether a loop goroutine is still running.
func (l *Loop) Active() bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
