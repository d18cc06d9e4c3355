package container

import (
	"encoding/binary"
	"unsafe"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/weiihann/setbench/keygen"
)

// radixSet wraps the immutable radix tree. Every mutation produces a new
// root; the previous one becomes garbage. Integer keys are stored
// big-endian so the tree keeps numeric order.
type radixSet[K keygen.Key] struct {
	tree    *iradix.Tree
	scratch [8]byte
}

func newRadix[K keygen.Key]() *radixSet[K] {
	return &radixSet[K]{tree: iradix.New()}
}

// view returns k as bytes without copying. The result must not be kept.
func (s *radixSet[K]) view(k K) []byte {
	switch v := any(k).(type) {
	case uint64:
		binary.BigEndian.PutUint64(s.scratch[:], v)
		return s.scratch[:]
	case string:
		return unsafe.Slice(unsafe.StringData(v), len(v))
	}

	return nil
}

func (s *radixSet[K]) Insert(k K) bool {
	key := append([]byte(nil), s.view(k)...)

	tree, _, existed := s.tree.Insert(key, struct{}{})
	s.tree = tree

	return !existed
}

func (s *radixSet[K]) Remove(k K) bool {
	tree, _, ok := s.tree.Delete(s.view(k))
	if ok {
		s.tree = tree
	}

	return ok
}

func (s *radixSet[K]) Contains(k K) bool {
	_, ok := s.tree.Get(s.view(k))
	return ok
}

func (s *radixSet[K]) Clear() { s.tree = iradix.New() }

func (s *radixSet[K]) Len() int { return s.tree.Len() }
