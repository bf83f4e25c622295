// Package queue provides the two execution lanes of the bot: a strictly
// ordered single-concurrency lane for everything touching the captcha
// portal, and a bounded-concurrency lane for best-effort image downloads.
//
// Single concurrency on the request lane is a correctness requirement, not
// an optimization: the portal holds one active form and one captcha per
// session, so sessions can never overlap.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "lookup_queue_depth",
	Help: "Number of lookup tasks waiting in the request queue.",
})

func init() {
	prometheus.MustRegister(requestDepth)
}

// Requests is a strict FIFO task queue with exactly one worker. A task runs
// to its terminal state before the next one starts; cancellation of
// individual tasks is not supported.
type Requests[T any] struct {
	tasks   chan T
	waiting atomic.Int64
	work    func(context.Context, T)
	wg      sync.WaitGroup
}

// NewRequests starts the queue's single worker goroutine. The worker is
// expected to drive every task to a terminal state itself; errors never
// propagate through the queue. The worker stops when ctx is cancelled.
func NewRequests[T any](ctx context.Context, buffer int, work func(context.Context, T)) *Requests[T] {
	if buffer < 1 {
		buffer = 1
	}
	q := &Requests[T]{
		tasks: make(chan T, buffer),
		work:  work,
	}
	q.wg.Add(1)
	go q.run(ctx)
	return q
}

// Enqueue submits a task. Tasks complete in submission order; once enqueued
// a task always runs. Blocks only when the buffer is full.
func (q *Requests[T]) Enqueue(task T) {
	requestDepth.Set(float64(q.waiting.Add(1)))
	q.tasks <- task
}

// Len returns the number of tasks waiting to start, excluding the one
// currently executing. Callers use this as the queue position to report.
func (q *Requests[T]) Len() int {
	return int(q.waiting.Load())
}

// Wait blocks until the worker has exited after context cancellation.
func (q *Requests[T]) Wait() {
	q.wg.Wait()
}

func (q *Requests[T]) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			requestDepth.Set(float64(q.waiting.Add(-1)))
			q.work(ctx, task)
		}
	}
}
