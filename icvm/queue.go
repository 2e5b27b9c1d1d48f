package icvm

import (
	"context"
	"sync"

	"intcode.dev/intcode/internal/ringbuf"
)

// Queue is an unbounded FIFO of Words.
// It is safe for a producer and a consumer on different goroutines, which is how
// one machine's output becomes the next machine's input.
// The zero value is an empty, open Queue.
type Queue struct {
	mu     sync.Mutex
	buf    ringbuf.RingBuf[Word]
	closed bool
	// wake is non-nil while a consumer is blocked in Pop.
	wake chan struct{}
}

// NewQueue returns a Queue holding vals.
func NewQueue(vals ...Word) *Queue {
	q := &Queue{}
	for _, v := range vals {
		q.buf.PushBack(v)
	}
	return q
}

// Push appends v to the queue. Push never fails.
// Values pushed after Close are still delivered.
func (q *Queue) Push(v Word) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf.PushBack(v)
	q.signal()
}

// TryPop removes and returns the oldest value without blocking.
// It returns ErrQueueEmpty if there is nothing to read,
// or ErrQueueClosed if there never will be.
func (q *Queue) TryPop() (Word, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.buf.Len() > 0 {
		return q.buf.PopFront(), nil
	}
	if q.closed {
		return 0, ErrQueueClosed
	}
	return 0, ErrQueueEmpty
}

// Pop removes and returns the oldest value, blocking until one is available.
// Pop returns ErrQueueClosed once the queue is closed and drained, or the context's error.
func (q *Queue) Pop(ctx context.Context) (Word, error) {
	for {
		q.mu.Lock()
		if q.buf.Len() > 0 {
			v := q.buf.PopFront()
			q.mu.Unlock()
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			return 0, ErrQueueClosed
		}
		if q.wake == nil {
			q.wake = make(chan struct{})
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-wake:
		}
	}
}

// Close marks the end of the stream. Values already in the queue can still be read.
// It is safe to call Close more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.signal()
}

func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}

// signal wakes any blocked consumers. The caller must hold q.mu.
func (q *Queue) signal() {
	if q.wake != nil {
		close(q.wake)
		q.wake = nil
	}
}
