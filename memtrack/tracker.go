package memtrack

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"unsafe"
)

// HeaderSize is the number of bytes prefixed to every tracked block to
// remember the size the caller asked for.
const HeaderSize = 8

// Stats extends a Snapshot with the number of refused requests.
type Stats struct {
	Live     Snapshot
	Failures int64
}

// Tracker is an accounting allocator. Containers that route their storage
// through it are measured exactly: each block carries a size header in
// front of the slice handed out, so Release and Reallocate recover the
// size without any side table.
//
// Slices passed to Reallocate and Release must be the ones returned by the
// Tracker (reslicing to a shorter length is fine, advancing the start is
// not).
type Tracker struct {
	backend Backend

	bytes    atomic.Int64
	allocs   atomic.Int64
	failures atomic.Int64
}

// NewTracker returns a Tracker over backend. A nil backend means GoHeap.
func NewTracker(backend Backend) *Tracker {
	if backend == nil {
		backend = GoHeap{}
	}

	return &Tracker{backend: backend}
}

// Allocate returns a block of size bytes, or nil if the backend refused.
func (t *Tracker) Allocate(size int) []byte {
	if size < 0 || size > math.MaxInt-HeaderSize-1 {
		t.failures.Add(1)
		return nil
	}

	block := t.backend.Alloc(blockLen(size))
	if block == nil {
		t.failures.Add(1)
		return nil
	}

	t.bytes.Add(int64(size))
	t.allocs.Add(1)

	return payload(block, size)
}

// ZeroAllocate allocates count*elemSize zeroed bytes.
func (t *Tracker) ZeroAllocate(count, elemSize int) []byte {
	if count < 0 || elemSize < 0 {
		t.failures.Add(1)
		return nil
	}
	if elemSize != 0 && count > math.MaxInt/elemSize {
		t.failures.Add(1)
		return nil
	}

	p := t.Allocate(count * elemSize)
	clear(p)

	return p
}

// Reallocate resizes p to newSize bytes, keeping the common prefix. A nil
// p behaves like Allocate. On failure nil is returned and p stays valid and
// accounted. The allocation count is not changed.
func (t *Tracker) Reallocate(p []byte, newSize int) []byte {
	if p == nil {
		return t.Allocate(newSize)
	}
	if newSize < 0 || newSize > math.MaxInt-HeaderSize-1 {
		t.failures.Add(1)
		return nil
	}

	old, oldSize := blockOf(p)

	block := t.backend.Realloc(old, blockLen(newSize))
	if block == nil {
		t.failures.Add(1)
		return nil
	}

	t.bytes.Add(int64(newSize) - int64(oldSize))

	return payload(block, newSize)
}

// Release returns p to the backend. Releasing nil is a no-op.
func (t *Tracker) Release(p []byte) {
	if p == nil {
		return
	}

	block, size := blockOf(p)

	t.bytes.Add(-int64(size))
	t.allocs.Add(-1)
	t.backend.Free(block)
}

// AllocateAligned is not supported: an aligned block cannot carry the size
// header without breaking the alignment. It always fails so callers never
// get an unaccounted block.
func (t *Tracker) AllocateAligned(align, size int) []byte {
	t.failures.Add(1)
	return nil
}

// Sample implements Source.
func (t *Tracker) Sample() Snapshot {
	return Snapshot{Bytes: t.bytes.Load(), Allocs: t.allocs.Load()}
}

// Stats returns the live counters and the failure count.
func (t *Tracker) Stats() Stats {
	return Stats{Live: t.Sample(), Failures: t.failures.Load()}
}

// blockLen never returns a header-only length: a zero-capacity reslice
// does not advance the data pointer, which would lose the header.
func blockLen(size int) int {
	return HeaderSize + max(size, 1)
}

func payload(block []byte, size int) []byte {
	binary.LittleEndian.PutUint64(block[:HeaderSize], uint64(size))

	return block[HeaderSize : HeaderSize+size : blockLen(size)]
}

func blockOf(p []byte) ([]byte, int) {
	hdr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(p)), -HeaderSize)
	size := int(binary.LittleEndian.Uint64(unsafe.Slice((*byte)(hdr), HeaderSize)))

	return unsafe.Slice((*byte)(hdr), blockLen(size)), size
}
