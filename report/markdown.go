package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/setbench/harness"
)

// ErrNoResults is returned by Markdown.Done when nothing was reported.
var ErrNoResults = errors.New("no results to report")

// Markdown buffers results and, on Done, writes one comparison table per
// size, key type and workload. Containers are ranked against the fastest
// one in their group.
type Markdown struct {
	w       io.Writer
	results []harness.CaseResult
}

var _ harness.Sink = (*Markdown)(nil)

func NewMarkdown(w io.Writer) *Markdown {
	return &Markdown{w: w}
}

func (m *Markdown) Report(res harness.CaseResult) error {
	m.results = append(m.results, res)
	return nil
}

func (m *Markdown) Done() error {
	if len(m.results) == 0 {
		return ErrNoResults
	}

	fmt.Fprintln(m.w, "## Benchmark Results")

	for _, group := range groupResults(m.results) {
		first := group[0]
		fastest := findFastest(group)

		fmt.Fprintln(m.w)
		fmt.Fprintf(m.w, "### %s: %d %s keys\n", first.Test, first.Size, first.TypeName)
		fmt.Fprintln(m.w)

		fmt.Fprintln(m.w, "| Struct | Family | Mops | Peak | Bytes/elem "+
			"| Leak | Check | Slowdown |")
		fmt.Fprintln(m.w, "|--------|--------|------|------|------------"+
			"|------|-------|----------|")

		for _, r := range group {
			slowdown := 1.0
			if r.BestMops > 0 {
				slowdown = fastest / r.BestMops
			}

			fmt.Fprintf(m.w, "| %s | %s | %.2f | %s | %.1f | %s | %d | %.2fx |\n",
				r.Struct,
				r.Family,
				r.BestMops,
				formatBytes(r.PeakBytes),
				r.BytesPerElem,
				formatBytes(r.LeakBytes),
				r.SideEffect,
				slowdown,
			)
		}
	}

	m.results = nil

	_, err := fmt.Fprintln(m.w)

	return err
}

// groupResults splits results into runs sharing size, key type and
// workload, in first-seen order.
func groupResults(results []harness.CaseResult) [][]harness.CaseResult {
	type groupKey struct {
		size     int
		typeName string
		test     string
	}

	index := make(map[groupKey]int)

	var groups [][]harness.CaseResult
	for _, r := range results {
		k := groupKey{r.Size, r.TypeName, r.Test}

		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}

	return groups
}

func findFastest(results []harness.CaseResult) float64 {
	fastest := 0.0
	for _, r := range results {
		fastest = max(fastest, r.BestMops)
	}

	return fastest
}

func formatBytes(b int64) string {
	switch {
	case b == 0:
		return "-"
	case b < 0:
		return "-" + humanize.IBytes(uint64(-b))
	default:
		return humanize.IBytes(uint64(b))
	}
}
