// Package clock provides the time source and deferred-callback scheduler used by the order lifecycle.
//
// Callbacks scheduled on one Scheduler run one at a time, in deadline order with ties broken by
// scheduling order, and each runs to completion before the next starts. Stopping a timer before its
// callback has started guarantees the callback never runs.
package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already started or was stopped.
	Stop() bool
}

// Scheduler is a clock that can run callbacks after a delay.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules on wall-clock timers. Timers only wake the dispatcher; callbacks are taken from a
// queue ordered by (deadline, seq) under a single run lock.
type Real struct {
	run   sync.Mutex
	mu    sync.Mutex
	seq   uint64
	queue taskQueue
}

func NewReal() *Real { return &Real{} }

func (r *Real) Now() time.Time { return time.Now() }

func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t := &task{at: time.Now().Add(d), seq: r.seq, fn: f, stop: r.stop}
	heap.Push(&r.queue, t)
	t.wake = time.AfterFunc(d, r.dispatch)
	return t
}

// dispatch runs every due callback in queue order.
func (r *Real) dispatch() {
	r.run.Lock()
	defer r.run.Unlock()
	for {
		r.mu.Lock()
		if len(r.queue) == 0 || r.queue[0].at.After(time.Now()) {
			r.mu.Unlock()
			return
		}
		t := heap.Pop(&r.queue).(*task)
		r.mu.Unlock()

		t.fn()
	}
}

func (r *Real) stop(t *task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&r.queue, t.index)
	t.wake.Stop()
	return true
}
