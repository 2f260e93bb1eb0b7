package app

import (
	"fmt"
	"sync"
	"time"
)

// ticker owns the single tick goroutine of a session. It is acquired on
// entering the active state and released on any exit from it; halt is
// idempotent so every exit path (finish, void) can release unconditionally.
type ticker struct {
	interval time.Duration
	mu       sync.Mutex
	stop     chan struct{}
}

func newTicker(interval time.Duration) *ticker {
	return &ticker{interval: interval}
}

// start begins delivering ticks to fn; no-op if already running.
func (t *ticker) start(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go func() {
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
}

// halt stops the tick goroutine. Safe to call repeatedly or before start.
func (t *ticker) halt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *ticker) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// FormatElapsed renders an elapsed-seconds counter as "m:ss" for display.
// It is a derived view only; sessions store the raw counter.
func FormatElapsed(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}
