package container

import (
	"github.com/weiihann/setbench/keygen"
	"github.com/weiihann/setbench/memtrack"
)

var uint64Sets = []Factory[uint64]{
	{
		Family: "hash",
		Name:   "map",
		New:    func(*memtrack.Tracker) Set[uint64] { return newGoMap[uint64]() },
	},
	{
		Family: "hash",
		Name:   "swiss",
		New:    func(*memtrack.Tracker) Set[uint64] { return newSwiss[uint64]() },
	},
	{
		Family:  "hash",
		Name:    "swiss/tracked",
		Tracked: true,
		New:     func(t *memtrack.Tracker) Set[uint64] { return newTrackedSwiss(t) },
	},
	{
		Family: "trie",
		Name:   "iradix",
		New:    func(*memtrack.Tracker) Set[uint64] { return newRadix[uint64]() },
	},
	{
		Family: "bitmap",
		Name:   "roaring64",
		New:    func(*memtrack.Tracker) Set[uint64] { return newRoaring() },
	},
	{
		Family: "bitmap",
		Name:   "bitset",
		New:    func(*memtrack.Tracker) Set[uint64] { return newBitset() },
	},
}

// Tracked swiss and the bitmaps are integer-only: swiss groups holding
// strings would hide pointers from the GC inside tracker memory, and
// bitmaps index by value.
var stringSets = []Factory[string]{
	{
		Family: "hash",
		Name:   "map",
		New:    func(*memtrack.Tracker) Set[string] { return newGoMap[string]() },
	},
	{
		Family: "hash",
		Name:   "swiss",
		New:    func(*memtrack.Tracker) Set[string] { return newSwiss[string]() },
	},
	{
		Family: "trie",
		Name:   "iradix",
		New:    func(*memtrack.Tracker) Set[string] { return newRadix[string]() },
	},
}

var (
	uint64Index = index(uint64Sets)
	stringIndex = index(stringSets)
	names       = registeredNames()
)

func index[K keygen.Key](fs []Factory[K]) map[string]Factory[K] {
	m := make(map[string]Factory[K], len(fs))
	for _, f := range fs {
		m[f.Name] = f
	}

	return m
}

func registeredNames() []string {
	seen := make(map[string]bool)
	var out []string

	for _, f := range uint64Sets {
		if !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	for _, f := range stringSets {
		if !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}

	return out
}
