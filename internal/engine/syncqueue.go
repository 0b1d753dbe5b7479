package engine

import (
	"context"
	"sync"
)

type syncJob func()

// syncQueue runs persistence jobs one at a time in push order on a single
// worker goroutine. push never blocks.
type syncQueue struct {
	mu      sync.Mutex
	pending []syncJob
	closed  bool

	wake     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

func newSyncQueue() *syncQueue {
	q := &syncQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *syncQueue) push(job syncJob) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.inflight.Add(1)
	q.pending = append(q.pending, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *syncQueue) run() {
	for {
		select {
		case <-q.done:
			return
		case <-q.wake:
		}
		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.mu.Unlock()
				break
			}
			job := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()

			job()
			q.inflight.Done()
		}
	}
}

// drain waits until every pushed job has run or ctx is done.
func (q *syncQueue) drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the worker. Jobs still pending are dropped.
func (q *syncQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for range q.pending {
		q.inflight.Done()
	}
	q.pending = nil
	close(q.done)
}
