package drag

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// notifier delivers snapshots to a subscriber at a bounded rate. Samples that arrive while the
// limiter is exhausted are coalesced and the latest one is flushed once a token is available.
type notifier struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	sched   Scheduler
	now     func() time.Time
	fn      func(Snapshot)

	pending   *Snapshot
	flush     Timer
	stopped   bool
	delivered uint64
}

// newNotifier builds a notifier; hz <= 0 disables limiting.
func newNotifier(hz float64, sched Scheduler, now func() time.Time, fn func(Snapshot)) *notifier {
	limit := rate.Inf
	if hz > 0 && !math.IsInf(hz, 1) {
		limit = rate.Limit(hz)
	}
	return &notifier{
		limiter: rate.NewLimiter(limit, 1),
		sched:   sched,
		now:     now,
		fn:      fn,
	}
}

// publish delivers s now when the limiter allows, otherwise holds it for the trailing flush.
func (n *notifier) publish(s Snapshot) {
	if n == nil || n.fn == nil {
		return
	}
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	now := n.now()
	if n.pending == nil && n.limiter.AllowN(now, 1) {
		n.delivered++
		fn := n.fn
		n.mu.Unlock()
		fn(s)
		return
	}
	n.pending = &s
	if n.flush == nil {
		wait := n.limiter.ReserveN(now, 1).DelayFrom(now)
		n.flush = n.sched.AfterFunc(wait, n.flushPending)
	}
	n.mu.Unlock()
}

// flushPending delivers the coalesced sample, if any.
func (n *notifier) flushPending() {
	n.mu.Lock()
	n.flush = nil
	if n.stopped || n.pending == nil {
		n.mu.Unlock()
		return
	}
	s := *n.pending
	n.pending = nil
	n.delivered++
	fn := n.fn
	n.mu.Unlock()
	fn(s)
}

// Flush delivers the pending sample immediately, bypassing the limiter.
func (n *notifier) Flush() {
	if n == nil {
		return
	}
	n.mu.Lock()
	if n.flush != nil {
		n.flush.Stop()
	}
	n.mu.Unlock()
	n.flushPending()
}

// Stop drops any pending sample and cancels the flush timer.
func (n *notifier) Stop() {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	n.pending = nil
	if n.flush != nil {
		n.flush.Stop()
		n.flush = nil
	}
}

// Delivered returns how many snapshots reached the subscriber.
func (n *notifier) Delivered() uint64 {
	if n == nil {
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.delivered
}
