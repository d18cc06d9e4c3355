package container

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/swiss"

	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

// swissSet wraps cockroachdb/swiss. Clear keeps the group array until
// Close.
type swissSet[K keygen.Key] struct {
	m *swiss.Map[K, struct{}]
}

func newSwiss[K keygen.Key](opts ...swiss.Option[K, struct{}]) *swissSet[K] {
	return &swissSet[K]{m: swiss.New[K, struct{}](0, opts...)}
}

func (s *swissSet[K]) Insert(k K) bool {
	if _, ok := s.m.Get(k); ok {
		return false
	}
	s.m.Put(k, struct{}{})

	return true
}

func (s *swissSet[K]) Remove(k K) bool {
	if _, ok := s.m.Get(k); !ok {
		return false
	}
	s.m.Delete(k)

	return true
}

func (s *swissSet[K]) Contains(k K) bool {
	_, ok := s.m.Get(k)
	return ok
}

func (s *swissSet[K]) Clear() { s.m.Clear() }

func (s *swissSet[K]) Len() int { return s.m.Len() }

// Close hands the group array back to the map's allocator.
func (s *swissSet[K]) Close() error {
	s.m.Close()
	return nil
}

type uint64Group = swiss.Group[uint64, struct{}]

var groupSize = int(unsafe.Sizeof(uint64Group{}))

// groupAllocator backs swiss groups with Tracker blocks. Groups of uint64
// keys hold no pointers, so byte storage is safe for them.
type groupAllocator struct {
	t *memtrack.Tracker
}

func (a groupAllocator) Alloc(n int) []uint64Group {
	buf := a.t.ZeroAllocate(n, groupSize)
	if buf == nil {
		panic(fmt.Errorf("swiss/tracked: %d groups: %w", n, ErrAllocFailed))
	}

	return unsafe.Slice((*uint64Group)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}

func (a groupAllocator) Free(groups []uint64Group) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(groups))), len(groups)*groupSize)
	a.t.Release(buf)
}

func newTrackedSwiss(t *memtrack.Tracker) *swissSet[uint64] {
	return newSwiss(swiss.WithAllocator[uint64, struct{}](groupAllocator{t: t}))
}
