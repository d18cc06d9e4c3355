// Package container adapts third-party set implementations to the uniform
// surface the benchmark workloads drive.
package container

import (
	"errors"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

// None is the container name that marks an empty matrix cell.
const None = "none"

// ErrAllocFailed is raised by adapters whose container cannot report an
// allocation failure to its caller.
var ErrAllocFailed = errors.New("tracked allocation failed")

// Set is the capability surface of a container under test.
type Set[K keygen.Key] interface {
	// Insert reports whether k was newly added.
	Insert(k K) bool
	// Remove reports whether k was present and removed.
	Remove(k K) bool
	Contains(k K) bool
	Clear()
	Len() int
}

// Factory describes and builds one adapter for key type K.
type Factory[K keygen.Key] struct {
	Family string
	Name   string

	// Tracked adapters route their storage through the Tracker passed to
	// New and are measured by it; the others are measured by the runtime.
	Tracked bool

	New func(t *memtrack.Tracker) Set[K]
}

// Info is the key-type independent description of a registered adapter.
type Info struct {
	Family  string
	Name    string
	Tracked bool
	Types   []keygen.Type
}

// Lookup returns the factory registered under name for K. A false result
// means the combination is intentionally not provided.
func Lookup[K keygen.Key](name string) (Factory[K], bool) {
	var zero K

	switch any(zero).(type) {
	case uint64:
		f, ok := uint64Index[name]
		return any(f).(Factory[K]), ok
	case string:
		f, ok := stringIndex[name]
		return any(f).(Factory[K]), ok
	}

	return Factory[K]{}, false
}

// Supports reports whether name has an adapter for key type t.
func Supports(name string, t keygen.Type) bool {
	switch t {
	case keygen.Uint64:
		_, ok := uint64Index[name]
		return ok
	case keygen.Text:
		_, ok := stringIndex[name]
		return ok
	default:
		return false
	}
}

// Names returns every registered adapter name in registration order.
func Names() []string {
	return slices.Clone(names)
}

// Known reports whether name is registered for any key type.
func Known(name string) bool {
	return slices.Contains(names, name)
}

// Describe lists registered adapters sorted by family, then name.
func Describe() []Info {
	byName := make(map[string]*Info, len(names))
	add := func(family, name string, tracked bool, t keygen.Type) {
		info, ok := byName[name]
		if !ok {
			info = &Info{Family: family, Name: name, Tracked: tracked}
			byName[name] = info
		}
		info.Types = append(info.Types, t)
	}

	for _, f := range uint64Sets {
		add(f.Family, f.Name, f.Tracked, keygen.Uint64)
	}
	for _, f := range stringSets {
		add(f.Family, f.Name, f.Tracked, keygen.Text)
	}

	infos := make([]Info, 0, len(byName))
	for _, name := range maps.Keys(byName) {
		infos = append(infos, *byName[name])
	}
	slices.SortFunc(infos, func(a, b Info) bool {
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		return a.Name < b.Name
	})

	return infos
}
