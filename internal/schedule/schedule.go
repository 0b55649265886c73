// Package schedule runs delayed callbacks against a clock that tests control.
package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// Clock tells the time.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn once delay has elapsed, unless precondition is non-nil and
// returns false at fire time.
type Scheduler interface {
	Clock
	After(delay time.Duration, fn func(), precondition func() bool) *Task
}

// Task is a scheduled callback.
type Task struct {
	due  time.Time
	seq  uint64
	fn   func()
	pre  func() bool
	idx  int
	done bool
	v    *Virtual
}

// Due returns the time the task fires.
func (t *Task) Due() time.Time { return t.due }

// Cancel removes the task. It reports whether the task was still pending.
func (t *Task) Cancel() bool {
	if t == nil || t.v == nil {
		return false
	}
	v := t.v
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	heap.Remove(&v.queue, t.idx)
	return true
}

// Virtual is a manual clock. Time only moves on Advance.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue taskQueue
}

var _ Scheduler = (*Virtual)(nil)

// NewVirtual returns a clock stopped at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) After(delay time.Duration, fn func(), precondition func() bool) *Task {
	if delay < 0 {
		delay = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &Task{due: v.now.Add(delay), seq: v.seq, fn: fn, pre: precondition, v: v}
	heap.Push(&v.queue, t)
	return t
}

// Advance moves the clock forward by d and runs every task that falls due, in
// due order and then scheduling order. Tasks scheduled by a callback run in
// the same Advance if they fall due within it. It returns the number of
// callbacks run.
func (v *Virtual) Advance(d time.Duration) int {
	v.mu.Lock()
	target := v.now.Add(d)
	ran := 0
	for len(v.queue) > 0 && !v.queue[0].due.After(target) {
		t := heap.Pop(&v.queue).(*Task)
		t.done = true
		if t.due.After(v.now) {
			v.now = t.due
		}

		v.mu.Unlock()
		if t.pre == nil || t.pre() {
			if t.fn != nil {
				t.fn()
			}
			ran++
		}
		v.mu.Lock()
	}
	if target.After(v.now) {
		v.now = target
	}
	v.mu.Unlock()
	return ran
}

// Pending counts tasks not yet run or cancelled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue)
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].idx = i
	q[j].idx = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.idx = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.idx = -1
	*q = old[:n-1]
	return t
}
