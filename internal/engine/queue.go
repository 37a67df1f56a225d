package engine

import "sync"

// taskQueue is the goroutine-safe FIFO of external tasks (macrotasks) that
// Loop.Run dispatches one at a time.
//
// The queue is unbounded so Post never blocks the caller. The signal channel
// lets Run wait with a context instead of spinning.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []queuedTask
	closed bool
	signal chan struct{} // buffered, size 1
}

// queuedTask is one posted task. A held task leaves its microtasks pending
// for the next dispatched task.
type queuedTask struct {
	run  func()
	hold bool
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]queuedTask, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a task. Returns false if the queue is closed.
func (q *taskQueue) Enqueue(task queuedTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, task)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front task without blocking.
func (q *taskQueue) TryDequeue() (queuedTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return queuedTask{}, false
	}

	task := q.tasks[0]
	q.tasks[0] = queuedTask{} // release the closure
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return task, true
}

// Wait returns a channel that fires when tasks may be available.
// It is closed when the queue is closed.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drained reports whether the queue is closed and empty.
func (q *taskQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.tasks) == 0
}

// Close stops accepting tasks and wakes any waiter.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
