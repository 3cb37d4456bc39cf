// Package schedule runs a callback at a fixed interval on its own goroutine.
//
// A Handle is cancelled with Cancel, which is idempotent, never blocks and may
// be called from inside the callback itself. After Cancel the loop starts no
// further invocations. An invocation that had already begun when Cancel was
// called is not interrupted; owners that need a hard guarantee pair the handle
// with their own generation check under a lock.
package schedule

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
)

// Handle controls one recurring schedule.
type Handle struct {
	once   sync.Once
	done   chan struct{}
	exited chan struct{}
}

// Every starts invoking fn every interval using the ticker of clk.
// The ticker is created before Every returns, so a fake clock advanced right
// after the call delivers the first tick.
func Every(clk clock.Clock, interval time.Duration, fn func()) *Handle {
	h := &Handle{
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	ticker := clock.OrReal(clk).NewTicker(interval)
	go h.loop(ticker, fn)
	return h
}

func (h *Handle) loop(ticker clockwork.Ticker, fn func()) {
	defer close(h.exited)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.Chan():
			select {
			case <-h.done:
				return
			default:
			}
			fn()
		}
	}
}

// Cancel stops the schedule. Safe on a nil handle.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.done) })
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Exited is closed once the schedule goroutine has returned.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}
