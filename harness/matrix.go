package harness

import (
	"fmt"

	"github.com/weiihann/setbench/container"
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/workload"
)

// Matrix holds the values of each benchmark dimension. Every dimension
// ends with its none sentinel.
type Matrix struct {
	Sizes      []int
	Types      []keygen.Type
	Containers []string
	Workloads  []workload.Kind
}

// NewMatrix copies the given dimensions and appends the none sentinel to
// each one.
func NewMatrix(
	sizes []int,
	types []keygen.Type,
	containers []string,
	workloads []workload.Kind,
) Matrix {
	return Matrix{
		Sizes:      append(append([]int(nil), sizes...), 0),
		Types:      append(append([]keygen.Type(nil), types...), keygen.None),
		Containers: append(append([]string(nil), containers...), container.None),
		Workloads:  append(append([]workload.Kind(nil), workloads...), workload.None),
	}
}

// Shape returns the dimension lengths of m.
func (m Matrix) Shape() Shape {
	return Shape{
		Sizes:      len(m.Sizes),
		Types:      len(m.Types),
		Containers: len(m.Containers),
		Workloads:  len(m.Workloads),
	}
}

// At resolves a coordinate to its case.
func (m Matrix) At(c Coord) Case {
	return Case{
		Size:      m.Sizes[c.Size],
		KeyType:   m.Types[c.Type],
		Container: m.Containers[c.Container],
		Workload:  m.Workloads[c.Workload],
	}
}

// Shape is the extent of each dimension. Flat indices vary fastest in the
// workload dimension, then container, key type and size.
type Shape struct {
	Sizes      int
	Types      int
	Containers int
	Workloads  int
}

// Coord is a position in a Shape, one index per dimension.
type Coord struct {
	Size      int
	Type      int
	Container int
	Workload  int
}

// Len is the number of cells.
func (s Shape) Len() int {
	return s.Sizes * s.Types * s.Containers * s.Workloads
}

// Coord decomposes a flat index in [0, Len()).
func (s Shape) Coord(flat int) Coord {
	var c Coord

	c.Workload = flat % s.Workloads
	flat /= s.Workloads
	c.Container = flat % s.Containers
	flat /= s.Containers
	c.Type = flat % s.Types
	c.Size = flat / s.Types

	return c
}

// Flat is the inverse of Coord.
func (s Shape) Flat(c Coord) int {
	return ((c.Size*s.Types+c.Type)*s.Containers+c.Container)*s.Workloads + c.Workload
}

// Case is one combination of size, key type, container and workload.
type Case struct {
	Size      int
	KeyType   keygen.Type
	Container string
	Workload  workload.Kind
}

// Skipped reports whether any component is a none sentinel.
func (c Case) Skipped() bool {
	return c.Size == 0 ||
		c.KeyType == keygen.None ||
		c.Container == container.None ||
		c.Workload == workload.None
}

func (c Case) String() string {
	return fmt.Sprintf("%d/%s/%s/%s", c.Size, c.KeyType, c.Container, c.Workload)
}

// Enumerate walks every cell of m in flat order and returns the runnable
// cases. Cells with a none component are dropped, as are containers that
// do not provide the cell's key type.
func Enumerate(m Matrix) []Case {
	shape := m.Shape()

	var cases []Case
	for i := 0; i < shape.Len(); i++ {
		c := m.At(shape.Coord(i))
		if c.Skipped() || !container.Supports(c.Container, c.KeyType) {
			continue
		}
		cases = append(cases, c)
	}

	return cases
}

// MaxSize returns the largest size among cases, or 0.
func MaxSize(cases []Case) int {
	largest := 0
	for _, c := range cases {
		largest = max(largest, c.Size)
	}

	return largest
}
