package memtrack

// Backend is the allocator a Tracker forwards to. Alloc and Realloc return
// nil when the request cannot be satisfied.
type Backend interface {
	Alloc(n int) []byte
	Realloc(block []byte, n int) []byte
	Free(block []byte)
}

// GoHeap allocates from the Go heap. Free leaves reclamation to the GC.
type GoHeap struct{}

func (GoHeap) Alloc(n int) []byte {
	return make([]byte, n)
}

func (GoHeap) Realloc(block []byte, n int) []byte {
	if n <= cap(block) {
		return block[:n]
	}

	grown := make([]byte, n)
	copy(grown, block)

	return grown
}

func (GoHeap) Free([]byte) {}

// Limited caps the bytes outstanding in an underlying backend. Requests
// that would exceed the budget are refused, which is how tests exercise
// allocator exhaustion.
type Limited struct {
	Backend Backend
	Budget  int

	used int
}

// NewLimited returns a Limited over the Go heap.
func NewLimited(budget int) *Limited {
	return &Limited{Backend: GoHeap{}, Budget: budget}
}

func (l *Limited) Alloc(n int) []byte {
	if l.used+n > l.Budget {
		return nil
	}

	block := l.Backend.Alloc(n)
	if block != nil {
		l.used += n
	}

	return block
}

func (l *Limited) Realloc(block []byte, n int) []byte {
	delta := n - len(block)
	if l.used+delta > l.Budget {
		return nil
	}

	grown := l.Backend.Realloc(block, n)
	if grown != nil {
		l.used += delta
	}

	return grown
}

func (l *Limited) Free(block []byte) {
	l.used -= len(block)
	l.Backend.Free(block)
}

// Used returns the bytes currently outstanding.
func (l *Limited) Used() int { return l.used }
