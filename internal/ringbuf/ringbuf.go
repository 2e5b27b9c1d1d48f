package ringbuf

// RingBuf is a FIFO backed by a circular slice.
// The slice doubles in size whenever a push would overwrite the front.
// The zero value is an empty RingBuf ready to use.
type RingBuf[T any] struct {
	buf        []T
	head, tail int
}

func New[T any](n int) RingBuf[T] {
	return RingBuf[T]{buf: make([]T, n)}
}

func (rb *RingBuf[T]) Cap() int {
	return len(rb.buf)
}

func (rb *RingBuf[T]) PushBack(val T) {
	if rb.Len() == len(rb.buf) {
		rb.grow()
	}
	rb.buf[rb.tail%len(rb.buf)] = val
	rb.tail++
}

// PopFront removes and returns the oldest element.
// It panics if the RingBuf is empty.
func (rb *RingBuf[T]) PopFront() T {
	if rb.Len() == 0 {
		panic("ringbuf: PopFront on empty buffer")
	}
	var zero T
	i := rb.head % len(rb.buf)
	val := rb.buf[i]
	rb.buf[i] = zero
	rb.head++
	if rb.head == rb.tail {
		rb.head, rb.tail = 0, 0
	}
	return val
}

func (rb *RingBuf[T]) At(i int) T {
	if i < 0 || i >= rb.Len() {
		panic(i)
	}
	return rb.buf[(rb.head+i)%len(rb.buf)]
}

func (rb *RingBuf[T]) Len() int {
	return rb.tail - rb.head
}

func (rb *RingBuf[T]) grow() {
	n := rb.Len()
	next := make([]T, max(4, 2*len(rb.buf)))
	for i := 0; i < n; i++ {
		next[i] = rb.At(i)
	}
	rb.buf = next
	rb.head, rb.tail = 0, n
}
