package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Submit and Take after Close.
var ErrQueueClosed = errors.New("pipeline: queue closed")

// Job is one unit of inference work: the freshest chunk plus the sequence
// numbers of any chunks that latest-wins coalescing discarded before it ran.
type Job struct {
	Chunk   Chunk
	Skipped []uint64
}

// Queue is a single-slot inference queue with latest-wins coalescing.
//
// Submit never blocks: if a pending job has not been taken yet it is
// replaced, and its sequence number is recorded on the replacement so the
// display can surface the gap. Take blocks until a job is pending AND no job
// is active, which structurally enforces the at-most-one-active invariant.
// Complete marks the active job finished and is idempotent.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	pending *Job
	active  bool
	closed  bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit offers a chunk for inference. It returns immediately; a pending
// job that was never taken is discarded in favour of the new chunk.
func (q *Queue) Submit(c Chunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	job := &Job{Chunk: c}
	if q.pending != nil {
		job.Skipped = append(q.pending.Skipped, q.pending.Chunk.Seq)
	}
	q.pending = job
	q.cond.Broadcast()
	return nil
}

// Take blocks until a job is pending and no job is active, then marks the
// returned job active. After Close it drains the last pending job before
// returning ErrQueueClosed; it returns ctx.Err() when the context ends
// first.
func (q *Queue) Take(ctx context.Context) (Job, error) {
	// Wake the cond wait when the context ends.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		if q.pending != nil && !q.active {
			job := *q.pending
			q.pending = nil
			q.active = true
			return job, nil
		}
		if q.closed {
			return Job{}, ErrQueueClosed
		}
		q.cond.Wait()
	}
}

// Complete marks the active job finished, allowing the next Take to
// proceed. Calling Complete with no active job is a no-op.
func (q *Queue) Complete() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active {
		q.active = false
		q.cond.Broadcast()
	}
}

// Close shuts the queue down. New submissions are rejected; a job that was
// already pending is still handed to the next Take so the session's final
// utterance is not lost. Safe to call multiple times.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
