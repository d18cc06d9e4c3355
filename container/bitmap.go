package container

import (
	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/bits-and-blooms/bitset"
)

type roaringSet struct {
	bm *roaring64.Bitmap
}

func newRoaring() *roaringSet {
	return &roaringSet{bm: roaring64.New()}
}

func (s *roaringSet) Insert(k uint64) bool   { return s.bm.CheckedAdd(k) }
func (s *roaringSet) Remove(k uint64) bool   { return s.bm.CheckedRemove(k) }
func (s *roaringSet) Contains(k uint64) bool { return s.bm.Contains(k) }
func (s *roaringSet) Clear()                 { s.bm.Clear() }
func (s *roaringSet) Len() int               { return int(s.bm.GetCardinality()) }

// bitSet keeps its own count: BitSet.Count is a full popcount. ClearAll
// keeps the word array, so retained capacity is bound/8 bytes for the
// largest key seen.
type bitSet struct {
	bs *bitset.BitSet
	n  int
}

func newBitset() *bitSet {
	return &bitSet{bs: bitset.New(0)}
}

func (s *bitSet) Insert(k uint64) bool {
	if s.bs.Test(uint(k)) {
		return false
	}
	s.bs.Set(uint(k))
	s.n++

	return true
}

func (s *bitSet) Remove(k uint64) bool {
	if !s.bs.Test(uint(k)) {
		return false
	}
	s.bs.Clear(uint(k))
	s.n--

	return true
}

func (s *bitSet) Contains(k uint64) bool { return s.bs.Test(uint(k)) }

func (s *bitSet) Clear() {
	s.bs.ClearAll()
	s.n = 0
}

func (s *bitSet) Len() int { return s.n }
