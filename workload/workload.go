// Package workload defines the access patterns a benchmark case drives
// through a container: insert, delete, three lookup mixes and a randomized
// insert/delete churn. Each workload owns its key stream for its lifetime.
package workload

import (
	"fmt"

	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

// ProbeStride is the number of operations between memory probes in a
// timed pass. Smaller values catch short-lived peaks at the cost of
// throughput accuracy: a probe on the runtime source stops the world.
const ProbeStride = 1024

// Result is what one timed pass reports.
type Result struct {
	// Ops is the number of logical operations attempted.
	Ops int `json:"ops"`
	// SideEffect is a workload-specific check value, such as the number
	// of successful inserts or the final container size.
	SideEffect int `json:"side_effect"`
}

// Workload is the lifecycle a case drives once per round: Prepare, Run,
// Cleanup. Close tears the workload down after the last round.
type Workload interface {
	Prepare()
	Run(p memtrack.Prober) Result
	Cleanup()
	Close()

	// Fingerprint identifies the key stream the workload was built with.
	Fingerprint() uint64
}

// Kind selects a workload.
type Kind int

const (
	None Kind = iota
	Insert
	Delete
	SearchHit
	SearchMiss
	SearchMixed
	RandWorkload
)

var kindNames = [...]struct{ id, display string }{
	None:         {"none", "none"},
	Insert:       {"insert", "insert"},
	Delete:       {"delete", "delete"},
	SearchHit:    {"search-hit", "search hit"},
	SearchMiss:   {"search-miss", "search miss"},
	SearchMixed:  {"search-mixed", "search mixed"},
	RandWorkload: {"rand-workload", "rand workload"},
}

// Kinds returns every real workload in canonical order.
func Kinds() []Kind {
	return []Kind{Insert, Delete, SearchHit, SearchMiss, SearchMixed, RandWorkload}
}

// String returns the name used in reports.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k].display
}

// ID returns the name used in configuration.
func (k Kind) ID() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind-%d", int(k))
	}

	return kindNames[k].id
}

// ParseKind accepts either the configuration ID or the report name.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if s == n.id || s == n.display {
			return Kind(k), nil
		}
	}

	return None, fmt.Errorf("unknown workload %q", s)
}

// Violation reports a broken invariant: the container or the generator
// misbehaved. It is raised with panic and never recovered.
type Violation struct {
	Workload string
	Msg      string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", v.Workload, v.Msg)
}

// New builds a workload of the given kind over set. Keys are drawn from
// src and released again by Close.
func New[K keygen.Key](
	kind Kind,
	size int,
	src keygen.Source[K],
	set container.Set[K],
) (Workload, error) {
	if size <= 0 {
		return nil, fmt.Errorf("workload %s: size must be positive, got %d", kind, size)
	}

	b := base[K]{kind: kind, size: size, src: src, set: set}

	switch kind {
	case Insert:
		return newInsert(b), nil
	case Delete:
		return newDelete(b), nil
	case SearchHit:
		return newSearchHit(b), nil
	case SearchMiss:
		return newSearchMiss(b), nil
	case SearchMixed:
		return newSearchMixed(b), nil
	case RandWorkload:
		return newRandWorkload(b), nil
	default:
		return nil, fmt.Errorf("no workload for kind %s", kind)
	}
}

type base[K keygen.Key] struct {
	kind Kind
	size int
	src  keygen.Source[K]
	set  container.Set[K]
	keys []K
}

func (b *base[K]) generate(n int, bound int) {
	b.keys = b.src.Generate(n, uint64(bound))
}

func (b *base[K]) fill(keys []K) {
	for _, k := range keys {
		b.set.Insert(k)
	}
}

func (b *base[K]) release() {
	b.keys = nil
	b.src.Free()
}

func (b *base[K]) Fingerprint() uint64 { return b.src.Fingerprint() }

func (b *base[K]) fail(format string, args ...any) {
	panic(&Violation{Workload: b.kind.String(), Msg: fmt.Sprintf(format, args...)})
}

func (b *base[K]) expectEmpty(when string) {
	if n := b.set.Len(); n != 0 {
		b.fail("container holds %d keys %s, want 0", n, when)
	}
}

func probe(p memtrack.Prober, i int) {
	if i%ProbeStride == 0 {
		p.Probe()
	}
}
