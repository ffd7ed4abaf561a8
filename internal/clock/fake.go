package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Fake is a logical clock. Time moves only through Advance, which fires due callbacks in
// schedule order (ties broken by scheduling order).
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue taskQueue
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &task{at: f.now.Add(d), seq: f.seq, fn: fn, stop: f.stop}
	heap.Push(&f.queue, t)
	return t
}

// Advance moves the clock forward by d, running every callback that becomes due, including
// callbacks scheduled by other callbacks within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		if len(f.queue) == 0 || f.queue[0].at.After(target) {
			f.now = target
			f.mu.Unlock()
			return
		}
		t := heap.Pop(&f.queue).(*task)
		f.now = t.at
		f.mu.Unlock()

		t.fn()
	}
}

// Pending is the number of callbacks that have not fired or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *Fake) stop(t *task) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&f.queue, t.index)
	return true
}

type task struct {
	at    time.Time
	seq   uint64
	fn    func()
	index int
	stop  func(*task) bool
	wake  *time.Timer // Real only
}

func (t *task) Stop() bool { return t.stop(t) }

// taskQueue is a min-heap on (at, seq).
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
