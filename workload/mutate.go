package workload

import (
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

// insertWorkload inserts N keys into an empty container. Duplicates in the
// stream are possible, so the check is against the container's own size.
type insertWorkload[K keygen.Key] struct {
	base[K]
}

func newInsert[K keygen.Key](b base[K]) *insertWorkload[K] {
	w := &insertWorkload[K]{base: b}
	w.generate(w.size, w.size*10)

	return w
}

func (w *insertWorkload[K]) Prepare() { w.expectEmpty("before insert") }

func (w *insertWorkload[K]) Run(p memtrack.Prober) Result {
	inserted := 0
	for i, k := range w.keys {
		if w.set.Insert(k) {
			inserted++
		}
		probe(p, i)
	}

	if n := w.set.Len(); inserted != n {
		w.fail("%d successful inserts but container holds %d", inserted, n)
	}

	return Result{Ops: len(w.keys), SideEffect: inserted}
}

func (w *insertWorkload[K]) Cleanup() { w.set.Clear() }

func (w *insertWorkload[K]) Close() {
	w.expectEmpty("at teardown")
	w.release()
}

// deleteWorkload removes N keys from a container prefilled with them.
type deleteWorkload[K keygen.Key] struct {
	base[K]
}

func newDelete[K keygen.Key](b base[K]) *deleteWorkload[K] {
	w := &deleteWorkload[K]{base: b}
	w.generate(w.size, w.size*10)

	return w
}

func (w *deleteWorkload[K]) Prepare() {
	w.expectEmpty("before prefill")
	w.fill(w.keys)
}

func (w *deleteWorkload[K]) Run(p memtrack.Prober) Result {
	was := w.set.Len()

	deleted := 0
	for i, k := range w.keys {
		if w.set.Remove(k) {
			deleted++
		}
		probe(p, i)
	}

	if deleted != was {
		w.fail("removed %d keys from a container of %d", deleted, was)
	}

	return Result{Ops: len(w.keys), SideEffect: deleted}
}

func (w *deleteWorkload[K]) Cleanup() { w.expectEmpty("after delete") }

func (w *deleteWorkload[K]) Close() {
	w.expectEmpty("at teardown")
	w.release()
}

// randWorkload prefills N of 4N keys drawn from a 2N key space, then
// toggles membership of the remaining 3N.
type randWorkload[K keygen.Key] struct {
	base[K]
}

func newRandWorkload[K keygen.Key](b base[K]) *randWorkload[K] {
	w := &randWorkload[K]{base: b}
	w.generate(w.size*4, w.size*2)

	return w
}

func (w *randWorkload[K]) Prepare() { w.fill(w.keys[:w.size]) }

func (w *randWorkload[K]) Run(p memtrack.Prober) Result {
	rest := w.keys[w.size:]
	for i, k := range rest {
		if w.set.Contains(k) {
			w.set.Remove(k)
		} else {
			w.set.Insert(k)
		}
		probe(p, i)
	}

	return Result{Ops: len(rest), SideEffect: w.set.Len()}
}

func (w *randWorkload[K]) Cleanup() { w.set.Clear() }

func (w *randWorkload[K]) Close() {
	w.expectEmpty("at teardown")
	w.release()
}
