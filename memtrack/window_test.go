package memtrack

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	readings []Snapshot
	settled  int
	i        int
}

func (s *scriptedSource) Sample() Snapshot {
	r := s.readings[s.i]
	if s.i < len(s.readings)-1 {
		s.i++
	}

	return r
}

func (s *scriptedSource) Settle() { s.settled++ }

func TestWindowMaxAndLeak(t *testing.T) {
	src := &scriptedSource{readings: []Snapshot{
		{Bytes: 1000, Allocs: 1},
		{Bytes: 1500, Allocs: 3},
		{Bytes: 4000, Allocs: 9},
		{Bytes: 2500, Allocs: 6},
		{Bytes: 1200, Allocs: 2},
	}}

	w := Open(src)
	assert.Equal(t, 1, src.settled)
	assert.Equal(t, Snapshot{Bytes: 1000, Allocs: 1}, w.Baseline())

	var peak int64
	for i := 0; i < 4; i++ {
		s := w.Probe()
		peak = max(peak, s.Bytes-w.Baseline().Bytes)
		require.GreaterOrEqual(t, w.MaxUsage(), s.Bytes-w.Baseline().Bytes)
	}

	assert.Equal(t, 4, w.Probes())
	assert.Equal(t, int64(3000), w.MaxUsage())
	assert.Equal(t, peak, w.MaxUsage())
	assert.Equal(t, int64(200), w.Leak())
}

func TestWindowMaxUsageNeverNegative(t *testing.T) {
	src := &scriptedSource{readings: []Snapshot{
		{Bytes: 500},
		{Bytes: 100},
		{Bytes: 50},
	}}

	w := Open(src)
	w.Probe()
	w.Close()

	assert.Equal(t, 2, src.settled)
	assert.Zero(t, w.MaxUsage())
	assert.Equal(t, int64(-450), w.Leak())
}

func TestWindowOverTracker(t *testing.T) {
	tr := NewTracker(nil)
	w := Open(tr)

	blocks := make([][]byte, 0, 8)
	for i := 0; i < 8; i++ {
		blocks = append(blocks, tr.Allocate(1024))
		w.Probe()
	}
	for _, b := range blocks {
		tr.Release(b)
	}
	w.Close()

	assert.Equal(t, int64(8*1024), w.MaxUsage())
	assert.Zero(t, w.Leak())
	assert.Equal(t, Snapshot{}, w.Last())
}

func TestRuntimeSourceSeesAllocations(t *testing.T) {
	tests := []struct {
		name string
		min  int64
		fill func() any
	}{
		{"large blocks", 2 << 20, func() any {
			keep := make([][]byte, 0, 64)
			for i := 0; i < 64; i++ {
				keep = append(keep, make([]byte, 64<<10))
			}
			return keep
		}},
		{"small map", 8 << 10, func() any {
			m := make(map[uint64]struct{})
			for i := uint64(0); i < 1024; i++ {
				m[i] = struct{}{}
			}
			return m
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewRuntimeSource()
			w := Open(src)

			keep := tt.fill()
			w.Probe()

			assert.GreaterOrEqual(t, w.MaxUsage(), tt.min)
			assert.Positive(t, src.Sample().Allocs)

			runtime.KeepAlive(keep)
		})
	}
}
