package container

import "github.com/weiihann/setbench/keygen"

// goMap wraps the builtin map. Clear keeps the bucket array: Go maps never
// shrink, so the retained capacity after Clear is bounded by the largest
// size the set reached.
type goMap[K keygen.Key] struct {
	m map[K]struct{}
}

func newGoMap[K keygen.Key]() *goMap[K] {
	return &goMap[K]{m: make(map[K]struct{})}
}

func (s *goMap[K]) Insert(k K) bool {
	if _, ok := s.m[k]; ok {
		return false
	}
	s.m[k] = struct{}{}

	return true
}

func (s *goMap[K]) Remove(k K) bool {
	if _, ok := s.m[k]; !ok {
		return false
	}
	delete(s.m, k)

	return true
}

func (s *goMap[K]) Contains(k K) bool {
	_, ok := s.m[k]
	return ok
}

func (s *goMap[K]) Clear() { clear(s.m) }

func (s *goMap[K]) Len() int { return len(s.m) }
