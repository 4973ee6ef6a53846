package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/translive/translive/internal/pipeline"
)

func chunkN(seq uint64) pipeline.Chunk {
	return pipeline.Chunk{Seq: seq, PCM: make([]byte, 320), SampleRate: 16000, Channels: 1}
}

// takeAsync runs Take in a goroutine and reports the result on a channel.
func takeAsync(q *pipeline.Queue) <-chan struct {
	job pipeline.Job
	err error
} {
	ch := make(chan struct {
		job pipeline.Job
		err error
	}, 1)
	go func() {
		job, err := q.Take(context.Background())
		ch <- struct {
			job pipeline.Job
			err error
		}{job, err}
	}()
	return ch
}

func TestSubmitTake(t *testing.T) {
	q := pipeline.NewQueue()
	if err := q.Submit(chunkN(1)); err != nil {
		t.Fatal(err)
	}

	job, err := q.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.Chunk.Seq != 1 {
		t.Errorf("seq: got %d, want 1", job.Chunk.Seq)
	}
	if len(job.Skipped) != 0 {
		t.Errorf("skipped: got %v, want empty", job.Skipped)
	}
}

func TestCoalescingLatestWins(t *testing.T) {
	q := pipeline.NewQueue()
	q.Submit(chunkN(1))
	q.Submit(chunkN(2))
	q.Submit(chunkN(3))

	job, err := q.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.Chunk.Seq != 3 {
		t.Errorf("seq: got %d, want 3 (latest wins)", job.Chunk.Seq)
	}
	if len(job.Skipped) != 2 || job.Skipped[0] != 1 || job.Skipped[1] != 2 {
		t.Errorf("skipped: got %v, want [1 2]", job.Skipped)
	}
}

func TestSingleFlight(t *testing.T) {
	q := pipeline.NewQueue()
	q.Submit(chunkN(1))
	if _, err := q.Take(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Job 1 is active; a second Take must block even with work pending.
	q.Submit(chunkN(2))
	res := takeAsync(q)
	select {
	case <-res:
		t.Fatal("Take returned while a job was active")
	case <-time.After(50 * time.Millisecond):
	}

	q.Complete()
	select {
	case r := <-res:
		if r.err != nil {
			t.Fatal(r.err)
		}
		if r.job.Chunk.Seq != 2 {
			t.Errorf("seq: got %d, want 2", r.job.Chunk.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Complete")
	}
}

func TestCompleteIdempotent(t *testing.T) {
	q := pipeline.NewQueue()
	q.Complete() // no active job, no-op
	q.Submit(chunkN(1))
	if _, err := q.Take(context.Background()); err != nil {
		t.Fatal(err)
	}
	q.Complete()
	q.Complete()

	// A fresh job still round-trips after the double Complete.
	q.Submit(chunkN(2))
	job, err := q.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.Chunk.Seq != 2 {
		t.Errorf("seq: got %d, want 2", job.Chunk.Seq)
	}
}

func TestCloseUnblocksTake(t *testing.T) {
	q := pipeline.NewQueue()
	res := takeAsync(q)

	q.Close()
	select {
	case r := <-res:
		if !errors.Is(r.err, pipeline.ErrQueueClosed) {
			t.Errorf("err: got %v, want ErrQueueClosed", r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock after Close")
	}

	if err := q.Submit(chunkN(1)); !errors.Is(err, pipeline.ErrQueueClosed) {
		t.Errorf("Submit after Close: got %v, want ErrQueueClosed", err)
	}
	q.Close() // safe to call again
}

func TestCloseDrainsPendingJob(t *testing.T) {
	q := pipeline.NewQueue()
	q.Submit(chunkN(7))
	q.Close()

	job, err := q.Take(context.Background())
	if err != nil {
		t.Fatalf("pending job should drain after Close: %v", err)
	}
	if job.Chunk.Seq != 7 {
		t.Errorf("seq: got %d, want 7", job.Chunk.Seq)
	}
	q.Complete()

	if _, err := q.Take(context.Background()); !errors.Is(err, pipeline.ErrQueueClosed) {
		t.Errorf("drained queue: got %v, want ErrQueueClosed", err)
	}
}

func TestTakeContextCancelled(t *testing.T) {
	q := pipeline.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := q.Take(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err: got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Take did not unblock on cancellation")
	}
}

func TestSubmitNeverBlocks(t *testing.T) {
	q := pipeline.NewQueue()
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			q.Submit(chunkN(uint64(i + 1)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked with no consumer")
	}
}
