package workload

import (
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

// The lookup workloads fill the container once at construction and keep
// it across rounds; Prepare and Cleanup have nothing to do.
type lookup[K keygen.Key] struct {
	base[K]
}

func (w *lookup[K]) Prepare() {}

func (w *lookup[K]) Cleanup() {}

func (w *lookup[K]) Close() {
	w.set.Clear()
	w.release()
}

func (w *lookup[K]) count(p memtrack.Prober, keys []K) int {
	hits := 0
	for i, k := range keys {
		if w.set.Contains(k) {
			hits++
		}
		probe(p, i)
	}

	return hits
}

// searchHitWorkload looks up the N keys it inserted.
type searchHitWorkload[K keygen.Key] struct {
	lookup[K]
}

func newSearchHit[K keygen.Key](b base[K]) *searchHitWorkload[K] {
	w := &searchHitWorkload[K]{lookup[K]{base: b}}
	w.generate(w.size*2, w.size*10)
	w.fill(w.keys[:w.size])

	return w
}

func (w *searchHitWorkload[K]) Run(p memtrack.Prober) Result {
	hits := w.count(p, w.keys[:w.size])
	if hits != w.size {
		w.fail("%d of %d lookups of inserted keys hit", hits, w.size)
	}

	return Result{Ops: w.size, SideEffect: hits}
}

// searchMissWorkload inserts the first N of 2N keys and looks up the
// second N. Hits here mean the stream repeated a key; that is left to the
// generator's tests rather than checked at run time.
type searchMissWorkload[K keygen.Key] struct {
	lookup[K]
}

func newSearchMiss[K keygen.Key](b base[K]) *searchMissWorkload[K] {
	w := &searchMissWorkload[K]{lookup[K]{base: b}}
	w.generate(w.size*2, w.size*10)
	w.fill(w.keys[:w.size])

	return w
}

func (w *searchMissWorkload[K]) Run(p memtrack.Prober) Result {
	hits := w.count(p, w.keys[w.size:])

	return Result{Ops: w.size, SideEffect: hits}
}

// searchMixedWorkload inserts every other key of 2N and looks up all 2N.
type searchMixedWorkload[K keygen.Key] struct {
	lookup[K]
}

func newSearchMixed[K keygen.Key](b base[K]) *searchMixedWorkload[K] {
	w := &searchMixedWorkload[K]{lookup[K]{base: b}}
	w.generate(w.size*2, w.size*10)
	for i := 0; i < len(w.keys); i += 2 {
		w.set.Insert(w.keys[i])
	}

	return w
}

func (w *searchMixedWorkload[K]) Run(p memtrack.Prober) Result {
	hits := w.count(p, w.keys)

	return Result{Ops: len(w.keys), SideEffect: hits}
}
