package memtrack

import "runtime"

// RuntimeSource samples the Go runtime's heap statistics. It sees every
// allocation in the process, including those made inside third-party
// containers, without their cooperation. Readings include dead objects not
// yet swept, so it implements Settler.
//
// Each Sample calls runtime.ReadMemStats, which stops the world briefly.
// Callers probing inside a timed loop should keep the stride coarse.
type RuntimeSource struct {
	stats runtime.MemStats
}

// NewRuntimeSource returns a source reading live heap bytes and objects.
func NewRuntimeSource() *RuntimeSource {
	return &RuntimeSource{}
}

// Sample implements Source. HeapAlloc counts objects still sitting in
// per-P cached spans, which the runtime/metrics heap classes only pick up
// once a span is flushed.
func (s *RuntimeSource) Sample() Snapshot {
	runtime.ReadMemStats(&s.stats)

	return Snapshot{
		Bytes:  int64(s.stats.HeapAlloc),
		Allocs: int64(s.stats.Mallocs - s.stats.Frees),
	}
}

// Settle runs a full collection.
func (s *RuntimeSource) Settle() {
	runtime.GC()
}
