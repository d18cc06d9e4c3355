package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/workload"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	results []CaseResult
	done    int
	err     error
	onCase  func(CaseResult)
}

func (s *recordingSink) Report(res CaseResult) error {
	if s.onCase != nil {
		s.onCase(res)
	}
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, res)

	return nil
}

func (s *recordingSink) Done() error {
	s.done++
	return nil
}

type countingProgress struct{ n int }

func (p *countingProgress) Add(n int) error {
	p.n += n
	return nil
}

func TestShapeBijection(t *testing.T) {
	shape := Shape{Sizes: 4, Types: 3, Containers: 7, Workloads: 7}
	require.Equal(t, 4*3*7*7, shape.Len())

	seen := make(map[Coord]bool, shape.Len())
	for i := 0; i < shape.Len(); i++ {
		c := shape.Coord(i)
		require.False(t, seen[c], "coord %+v produced twice", c)
		seen[c] = true

		require.Less(t, c.Size, shape.Sizes)
		require.Less(t, c.Type, shape.Types)
		require.Less(t, c.Container, shape.Containers)
		require.Less(t, c.Workload, shape.Workloads)
		require.Equal(t, i, shape.Flat(c))
	}

	assert.Equal(t, Coord{Workload: 1}, shape.Coord(1), "workload varies fastest")
	assert.Equal(t, Coord{Container: 1}, shape.Coord(7))
	assert.Equal(t, Coord{Type: 1}, shape.Coord(49))
	assert.Equal(t, Coord{Size: 1}, shape.Coord(147))
}

func TestNewMatrixAppendsSentinels(t *testing.T) {
	sizes := []int{1024}
	m := NewMatrix(sizes, []keygen.Type{keygen.Uint64}, []string{"map", "swiss"}, workload.Kinds())

	assert.Equal(t, []int{1024, 0}, m.Sizes)
	assert.Equal(t, []keygen.Type{keygen.Uint64, keygen.None}, m.Types)
	assert.Equal(t, []string{"map", "swiss", container.None}, m.Containers)
	assert.Len(t, m.Workloads, len(workload.Kinds())+1)
	assert.Equal(t, workload.None, m.Workloads[len(m.Workloads)-1])
	assert.Equal(t, []int{1024}, sizes, "input must not be modified")

	assert.Equal(t, Shape{Sizes: 2, Types: 2, Containers: 3, Workloads: 7}, m.Shape())
}

func TestEnumerate(t *testing.T) {
	m := NewMatrix(
		[]int{0, 1024},
		[]keygen.Type{keygen.Uint64, keygen.Text},
		[]string{"map", "roaring64"},
		[]workload.Kind{workload.Insert, workload.SearchHit},
	)

	cases := Enumerate(m)

	want := []Case{
		{1024, keygen.Uint64, "map", workload.Insert},
		{1024, keygen.Uint64, "map", workload.SearchHit},
		{1024, keygen.Uint64, "roaring64", workload.Insert},
		{1024, keygen.Uint64, "roaring64", workload.SearchHit},
		{1024, keygen.Text, "map", workload.Insert},
		{1024, keygen.Text, "map", workload.SearchHit},
	}
	assert.Equal(t, want, cases)

	for _, c := range cases {
		assert.False(t, c.Skipped())
	}
	assert.Equal(t, 1024, MaxSize(cases))
}

func TestCaseSkippedAndString(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want bool
	}{
		{"complete", Case{64, keygen.Uint64, "map", workload.Delete}, false},
		{"no size", Case{0, keygen.Uint64, "map", workload.Delete}, true},
		{"no type", Case{64, keygen.None, "map", workload.Delete}, true},
		{"no container", Case{64, keygen.Uint64, container.None, workload.Delete}, true},
		{"no workload", Case{64, keygen.Uint64, "map", workload.None}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Skipped())
		})
	}

	c := Case{1024, keygen.Text, "iradix", workload.SearchMixed}
	assert.Equal(t, "1024/string/iradix/search mixed", c.String())
}

func TestRounds(t *testing.T) {
	tests := []struct {
		size, budget, want int
	}{
		{1024, DefaultOpsBudget, 256},
		{32768, DefaultOpsBudget, 8},
		{1 << 20, DefaultOpsBudget, 1},
		{1 << 24, DefaultOpsBudget, 1},
		{3, 10, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Rounds(tt.size, tt.budget), "Rounds(%d, %d)", tt.size, tt.budget)
	}
}

func TestTimerMops(t *testing.T) {
	var timer Timer
	assert.Zero(t, timer.Mops(1000), "zero interval")

	timer.elapsed = 2 * time.Second
	assert.InDelta(t, 1.5, timer.Mops(3_000_000), 1e-9)

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Stop()
	assert.GreaterOrEqual(t, timer.Elapsed(), time.Millisecond)
}

func TestRunnerRun(t *testing.T) {
	m := NewMatrix(
		[]int{256, 2048},
		keygen.Types(),
		container.Names(),
		workload.Kinds(),
	)
	cases := Enumerate(m)
	require.NotEmpty(t, cases)

	sink := &recordingSink{}
	progress := &countingProgress{}

	r := NewRunner(NewGenerators(MaxSize(cases), keygen.DefaultSeed), sink, discardLogger())
	r.Budget = 4096
	r.Progress = progress

	executed, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, len(cases), executed)
	assert.Len(t, sink.results, executed)
	assert.Equal(t, executed, progress.n)
	assert.Equal(t, 1, sink.done)

	fingerprints := make(map[string]uint64)

	for i, res := range sink.results {
		c := cases[i]
		require.Equal(t, c, res.Case)

		assert.Equal(t, Rounds(c.Size, 4096), res.Rounds)
		assert.Positive(t, res.BestMops, c.String())
		assert.GreaterOrEqual(t, res.PeakBytes, int64(0), c.String())
		assert.InDelta(t, float64(res.PeakBytes)/float64(c.Size), res.BytesPerElem, 1e-9)

		switch c.Workload {
		case workload.SearchHit:
			assert.Equal(t, c.Size, res.SideEffect, c.String())
		case workload.Insert, workload.Delete:
			assert.Positive(t, res.SideEffect, c.String())
			assert.LessOrEqual(t, res.SideEffect, c.Size, c.String())
		case workload.RandWorkload:
			assert.LessOrEqual(t, res.SideEffect, 2*c.Size, c.String())
		}

		if res.Tracked {
			assert.Equal(t, "swiss/tracked", res.Struct)
			if c.Workload == workload.Insert {
				assert.Positive(t, res.PeakBytes)
			}
			if c.Workload == workload.SearchHit {
				assert.Zero(t, res.LeakBytes, "lookups must not allocate")
			}
		}

		// Same size, type and workload means the same key stream.
		key := fmt.Sprintf("%d/%s/%s", c.Size, c.KeyType, c.Workload)
		if fp, ok := fingerprints[key]; ok {
			assert.Equal(t, fp, res.Fingerprint, c.String())
		} else {
			fingerprints[key] = res.Fingerprint
		}
	}
}

func TestRunnerAnnotatesPanics(t *testing.T) {
	cases := []Case{{256, keygen.Uint64, "map", workload.Insert}}
	sink := &recordingSink{onCase: func(CaseResult) {
		panic(&workload.Violation{Workload: "insert", Msg: "boom"})
	}}

	r := NewRunner(NewGenerators(256, keygen.DefaultSeed), sink, discardLogger())
	r.Budget = 256

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_, _ = r.Run(context.Background(), cases)
	}()

	err, ok := recovered.(error)
	require.True(t, ok, "panic value %v", recovered)
	assert.Contains(t, err.Error(), "case 256/uint64/map/insert")

	var v *workload.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "boom", v.Msg)
}

func TestRunnerRejectsUndersizedGenerators(t *testing.T) {
	cases := []Case{{1024, keygen.Uint64, "map", workload.Insert}}

	r := NewRunner(NewGenerators(16, keygen.DefaultSeed), &recordingSink{}, discardLogger())
	executed, err := r.Run(context.Background(), cases)

	require.ErrorIs(t, err, keygen.ErrCapacity)
	assert.Zero(t, executed)
}

func TestRunnerSinkError(t *testing.T) {
	cases := []Case{
		{256, keygen.Uint64, "map", workload.Insert},
		{256, keygen.Uint64, "map", workload.Delete},
	}
	sinkErr := errors.New("disk full")
	sink := &recordingSink{err: sinkErr}

	r := NewRunner(NewGenerators(256, keygen.DefaultSeed), sink, discardLogger())
	r.Budget = 256

	executed, err := r.Run(context.Background(), cases)
	require.ErrorIs(t, err, sinkErr)
	assert.Zero(t, executed)
	assert.Zero(t, sink.done)
}

func TestRunnerSkipsSentinelCases(t *testing.T) {
	cases := []Case{
		{0, keygen.Uint64, "map", workload.Insert},
		{256, keygen.Uint64, "map", workload.None},
		{256, keygen.Uint64, "bitset", workload.SearchMixed},
	}
	sink := &recordingSink{}

	r := NewRunner(NewGenerators(256, keygen.DefaultSeed), sink, discardLogger())
	r.Budget = 256

	executed, err := r.Run(context.Background(), cases)
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
	require.Len(t, sink.results, 1)
	assert.Equal(t, "bitmap", sink.results[0].Family)
	assert.GreaterOrEqual(t, sink.results[0].SideEffect, 256, "every inserted key hits")
}

func TestRunnerHeapPeakForUntrackedContainers(t *testing.T) {
	tests := []struct {
		container string
		min       int64
	}{
		{"map", 8 << 10},
		{"swiss", 8 << 10},
		{"bitset", 1},
	}

	for _, tt := range tests {
		t.Run(tt.container, func(t *testing.T) {
			cases := []Case{{1024, keygen.Uint64, tt.container, workload.Insert}}
			sink := &recordingSink{}

			r := NewRunner(NewGenerators(1024, keygen.DefaultSeed), sink, discardLogger())
			r.Budget = 1024

			_, err := r.Run(context.Background(), cases)
			require.NoError(t, err)
			require.Len(t, sink.results, 1)

			res := sink.results[0]
			assert.False(t, res.Tracked)
			assert.GreaterOrEqual(t, res.PeakBytes, tt.min, "1024 live keys must show on the heap")
		})
	}
}
