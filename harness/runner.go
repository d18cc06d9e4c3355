package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
	"github.com/weiihann/setbench/workload"
)

// DefaultOpsBudget is the reference operation count a case is scaled to:
// small sizes run more rounds so each case does comparable work.
const DefaultOpsBudget = 256 * 1024

// KeysPerElement is the longest key stream any workload draws, in
// multiples of the case size.
const KeysPerElement = 4

// Rounds returns how many timed passes a case of the given size runs.
func Rounds(size, budget int) int {
	return max(1, budget/size)
}

// Sink receives case results as they complete.
type Sink interface {
	Report(res CaseResult) error
	Done() error
}

// Progress is advanced once per executed case.
type Progress interface {
	Add(n int) error
}

// Generators are the key sources shared by every case of a run. They are
// sized once for the largest case so that no case allocates key storage.
type Generators struct {
	Ints  *keygen.Ints
	Texts *keygen.Texts
}

// NewGenerators preallocates generators able to serve cases up to
// maxSize.
func NewGenerators(maxSize int, seed int64) *Generators {
	capacity := maxSize * KeysPerElement

	return &Generators{
		Ints:  keygen.NewInts(capacity, seed),
		Texts: keygen.NewTexts(capacity, seed),
	}
}

// Runner executes cases sequentially and hands results to a Sink.
type Runner struct {
	Budget   int
	Progress Progress
	Logger   *slog.Logger

	gens *Generators
	sink Sink
	heap *memtrack.RuntimeSource
}

// NewRunner creates a Runner with the default operation budget.
func NewRunner(gens *Generators, sink Sink, logger *slog.Logger) *Runner {
	return &Runner{
		Budget: DefaultOpsBudget,
		Logger: logger,
		gens:   gens,
		sink:   sink,
		heap:   memtrack.NewRuntimeSource(),
	}
}

// Run executes every case in order and returns how many were run. A
// broken invariant inside a case panics; the panic carries the case label.
func (r *Runner) Run(ctx context.Context, cases []Case) (int, error) {
	if need := MaxSize(cases) * KeysPerElement; need > r.gens.Ints.Capacity() {
		return 0, fmt.Errorf(
			"generators hold %d keys, cases need %d: %w",
			r.gens.Ints.Capacity(), need, keygen.ErrCapacity,
		)
	}

	r.Logger.InfoContext(ctx, "starting run",
		slog.Int("cases", len(cases)),
		slog.Int("ops_budget", r.Budget),
	)

	executed := 0

	for _, c := range cases {
		if c.Skipped() {
			continue
		}

		if err := r.runOne(ctx, c); err != nil {
			return executed, err
		}

		executed++

		if r.Progress != nil {
			if err := r.Progress.Add(1); err != nil {
				r.Logger.WarnContext(ctx, "progress update failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if err := r.sink.Done(); err != nil {
		return executed, fmt.Errorf("finish report: %w", err)
	}

	r.Logger.InfoContext(ctx, "run complete", slog.Int("executed", executed))

	return executed, nil
}

func (r *Runner) runOne(ctx context.Context, c Case) error {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.ErrorContext(ctx, "case aborted",
				slog.String("case", c.String()),
				slog.Any("panic", p),
			)
			panic(annotate(c, p))
		}
	}()

	var (
		res CaseResult
		err error
	)

	switch c.KeyType {
	case keygen.Uint64:
		res, err = runCase[uint64](ctx, r, c, r.gens.Ints)
	case keygen.Text:
		res, err = runCase[string](ctx, r, c, r.gens.Texts)
	default:
		err = fmt.Errorf("case %s: unsupported key type", c)
	}

	if err != nil {
		return err
	}

	if err := r.sink.Report(res); err != nil {
		return fmt.Errorf("report %s: %w", c, err)
	}

	return nil
}

func runCase[K keygen.Key](
	ctx context.Context,
	r *Runner,
	c Case,
	src keygen.Source[K],
) (CaseResult, error) {
	factory, ok := container.Lookup[K](c.Container)
	if !ok {
		return CaseResult{}, fmt.Errorf("case %s: no %s adapter for %s keys",
			c, c.Container, c.KeyType)
	}

	tracker := memtrack.NewTracker(nil)

	var win *memtrack.Window
	if factory.Tracked {
		win = memtrack.Open(tracker)
	} else {
		win = memtrack.Open(r.heap)
	}

	set := factory.New(tracker)

	wl, err := workload.New(c.Workload, c.Size, src, set)
	if err != nil {
		return CaseResult{}, fmt.Errorf("case %s: %w", c, err)
	}

	var (
		timer  Timer
		last   workload.Result
		best   float64
		leak   int64
		rounds = Rounds(c.Size, r.Budget)
	)

	for round := 0; round < rounds; round++ {
		wl.Prepare()

		opening := win.Probe()
		timer.Start()
		last = wl.Run(win)
		timer.Stop()
		closing := win.Probe()

		wl.Cleanup()

		best = max(best, timer.Mops(last.Ops))
		leak = closing.Bytes - opening.Bytes
	}

	fingerprint := wl.Fingerprint()
	wl.Close()

	if closer, ok := set.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return CaseResult{}, fmt.Errorf("case %s: close container: %w", c, err)
		}
	}

	win.Close()

	peak := win.MaxUsage()
	res := CaseResult{
		Case:         c,
		Size:         c.Size,
		TypeName:     c.KeyType.String(),
		Family:       factory.Family,
		Struct:       factory.Name,
		Test:         c.Workload.String(),
		Tracked:      factory.Tracked,
		Rounds:       rounds,
		BestMops:     best,
		PeakBytes:    peak,
		BytesPerElem: float64(peak) / float64(c.Size),
		LeakBytes:    leak,
		SideEffect:   last.SideEffect,
		Fingerprint:  fingerprint,
	}

	r.Logger.DebugContext(ctx, "case finished",
		slog.String("case", c.String()),
		slog.Int("rounds", rounds),
		slog.Float64("mops", best),
		bytesAttr("peak", peak),
		bytesAttr("leak", leak),
		slog.Int("probes", win.Probes()),
		slog.String("fingerprint", fmt.Sprintf("%016x", fingerprint)),
	)

	return res, nil
}

// annotate prefixes a panic value with the case label. Errors stay
// wrapped so errors.As still finds the cause.
func annotate(c Case, p any) any {
	if err, ok := p.(error); ok {
		return fmt.Errorf("case %s: %w", c, err)
	}

	return fmt.Sprintf("case %s: %v", c, p)
}

func bytesAttr(key string, n int64) slog.Attr {
	if n < 0 {
		return slog.String(key, "-"+humanize.IBytes(uint64(-n)))
	}

	return slog.String(key, humanize.IBytes(uint64(n)))
}
