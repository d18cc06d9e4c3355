// Package memtrack accounts live heap bytes and live allocations for
// benchmark measurement windows.
package memtrack

// Snapshot is a point-in-time sample of the live counters.
type Snapshot struct {
	Bytes  int64 `json:"bytes"`
	Allocs int64 `json:"allocs"`
}

// Source reports the current live counters. Sample must not allocate.
type Source interface {
	Sample() Snapshot
}

// Settler is implemented by sources whose readings include garbage that
// a collection would remove. Windows settle such sources before taking a
// baseline or a closing probe.
type Settler interface {
	Settle()
}

// Prober takes a probe. Workloads receive a Prober so they can sample at
// a fixed stride during a timed pass.
type Prober interface {
	Probe() Snapshot
}

// Window is one measurement scope over a Source. It is not safe for
// concurrent use; only one window is active at a time.
type Window struct {
	src    Source
	base   Snapshot
	last   Snapshot
	max    int64
	probes int
}

// Open settles src if it can and records the scope baseline.
func Open(src Source) *Window {
	settle(src)

	base := src.Sample()

	return &Window{
		src:  src,
		base: base,
		last: base,
		max:  base.Bytes,
	}
}

// Probe samples the source and folds the reading into the window.
func (w *Window) Probe() Snapshot {
	s := w.src.Sample()
	w.record(s)

	return s
}

// Close settles the source and takes the closing probe.
func (w *Window) Close() Snapshot {
	settle(w.src)

	return w.Probe()
}

func (w *Window) record(s Snapshot) {
	w.probes++
	w.last = s
	if s.Bytes > w.max {
		w.max = s.Bytes
	}
}

// Baseline returns the snapshot taken when the window was opened.
func (w *Window) Baseline() Snapshot { return w.base }

// Last returns the most recent probe, or the baseline if none was taken.
func (w *Window) Last() Snapshot { return w.last }

// Probes returns the number of probes taken since Open.
func (w *Window) Probes() int { return w.probes }

// MaxUsage is the highest live byte count seen by any probe, relative to
// the baseline. The baseline counts as a probe, so the result is never
// negative.
func (w *Window) MaxUsage() int64 {
	return w.max - w.base.Bytes
}

// Leak is the live byte count at the last probe minus the baseline.
func (w *Window) Leak() int64 {
	return w.last.Bytes - w.base.Bytes
}

func settle(src Source) {
	if s, ok := src.(Settler); ok {
		s.Settle()
	}
}
