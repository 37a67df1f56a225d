package engine

import (
	"context"
	"log/slog"
)

// Deferrer queues a task to run after the current task finishes and before
// the next external task is dispatched.
type Deferrer interface {
	Defer(task func())
}

// Loop is a single-threaded cooperative scheduler with microtask ordering.
//
// External work enters through Post and PostExec (goroutine-safe) or
// Dispatch (loop goroutine only). After each dispatched task the loop drains every deferred
// task, including ones queued while draining, before taking the next one.
//
// CRITICAL: Defer, Dispatch and Drain must only be called from the goroutine
// that owns the loop. Post and PostExec are the only goroutine-safe entry
// points.
type Loop struct {
	queue         *taskQueue
	micro         []func()
	maxMicrotasks int
	logger        *slog.Logger
	onError       func(error)
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxMicrotasks sets the per-drain microtask limit. n <= 0 disables it.
func WithMaxMicrotasks(n int) LoopOption {
	return func(l *Loop) {
		l.maxMicrotasks = n
	}
}

// WithLoopLogger sets the logger used by Run.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithDispatchErrorHandler sets a callback for errors from tasks dispatched
// by Run. Without one, Run only logs them.
func WithDispatchErrorHandler(fn func(error)) LoopOption {
	return func(l *Loop) {
		l.onError = fn
	}
}

// NewLoop creates a loop with DefaultMaxMicrotasks.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		queue:         newTaskQueue(),
		maxMicrotasks: DefaultMaxMicrotasks,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Defer queues a microtask.
func (l *Loop) Defer(task func()) {
	l.micro = append(l.micro, task)
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	return len(l.micro)
}

// Drain runs queued microtasks in FIFO order until none remain.
// Returns the number run. If the microtask limit is reached, Drain stops and
// returns a *MicrotaskLimitError; the rest stay queued.
func (l *Loop) Drain() (int, error) {
	ran := 0
	for len(l.micro) > 0 {
		if l.maxMicrotasks > 0 && ran >= l.maxMicrotasks {
			return ran, &MicrotaskLimitError{
				Ran:       ran,
				Limit:     l.maxMicrotasks,
				Remaining: len(l.micro),
			}
		}

		task := l.micro[0]
		l.micro[0] = nil
		if len(l.micro) == 1 {
			l.micro = l.micro[:0]
		} else {
			l.micro = l.micro[1:]
		}

		ran++
		task()
	}
	return ran, nil
}

// Dispatch runs task as one macrotask, then drains microtasks.
func (l *Loop) Dispatch(task func()) error {
	task()
	_, err := l.Drain()
	return err
}

// Exec runs task synchronously without draining, so microtasks it queues stay
// pending until the next Drain. Used to script several writes inside a single
// task.
func (l *Loop) Exec(task func()) {
	task()
}

// Post queues an external task for Run. Safe from any goroutine.
// Returns false if the loop has been stopped.
func (l *Loop) Post(task func()) bool {
	return l.queue.Enqueue(queuedTask{run: task})
}

// PostExec queues an external task that Run executes without draining, so
// its microtasks run after the next task instead. Safe from any goroutine.
func (l *Loop) PostExec(task func()) bool {
	return l.queue.Enqueue(queuedTask{run: task, hold: true})
}

// Run dispatches posted tasks until ctx is cancelled or Stop is called and
// the queue is empty. Cancellation is checked before every task.
//
// A microtask limit error goes to the dispatch error handler (or the log) and
// the loop
// continues; the remaining microtasks run after the next task.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop starting")

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Debug("loop stopping: context cancelled", "pending", l.Pending())
			l.queue.Close()
			return err
		}

		task, ok := l.queue.TryDequeue()
		if ok {
			if task.hold {
				l.Exec(task.run)
				continue
			}
			if err := l.Dispatch(task.run); err != nil {
				if l.onError != nil {
					l.onError(err)
				} else {
					l.logger.Error("dispatch failed", "error", err, "pending", l.Pending())
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			if l.queue.Drained() {
				l.logger.Debug("loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the task queue; Run returns once it is empty.
func (l *Loop) Stop() {
	l.queue.Close()
}
