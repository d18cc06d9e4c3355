// Package keygen produces reproducible benchmark keys. Each generator owns
// preallocated storage for the largest key stream it will be asked for, so
// generation in steady state does not touch the heap.
package keygen

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	mrand "math/rand"
	"unsafe"

	"github.com/zeebo/xxh3"
)

// DefaultSeed is the seed every generation restarts from.
const DefaultSeed int64 = 0

var (
	// ErrCapacity is raised when a stream longer than the preallocated
	// buffer is requested.
	ErrCapacity = errors.New("key buffer capacity exceeded")

	// ErrBound is raised for an empty key space.
	ErrBound = errors.New("key bound must be in (0, MaxInt64]")
)

// Key is the set of key types a Source can produce.
type Key interface {
	uint64 | string
}

// Type tags a key type for matrix configuration and reporting.
type Type int

const (
	None Type = iota
	Uint64
	Text
)

// Types lists the real key types in declaration order.
func Types() []Type {
	return []Type{Uint64, Text}
}

func (t Type) String() string {
	switch t {
	case Uint64:
		return "uint64"
	case Text:
		return "string"
	default:
		return "none"
	}
}

// ParseType maps a configuration name to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "uint64":
		return Uint64, nil
	case "string":
		return Text, nil
	case "none":
		return None, nil
	default:
		return None, fmt.Errorf("unknown key type %q", s)
	}
}

// Source generates key streams of one type.
type Source[K Key] interface {
	// Generate returns n keys below bound, shuffled. The same n and bound
	// always give the same sequence. The slice is only valid until the
	// next call to Generate.
	Generate(n int, bound uint64) []K

	// Free releases storage backing the last stream (text keys) without
	// returning it to the heap.
	Free()

	// Fingerprint is the xxh3 hash of the last generated stream.
	Fingerprint() uint64

	Type() Type
}

// stream holds what every generator needs: the seeded rng and the
// fingerprint hasher, both reused across generations.
type stream struct {
	seed   int64
	rng    *mrand.Rand
	hasher *xxh3.Hasher
	sum    uint64
	word   [8]byte
}

func newStream(seed int64) stream {
	return stream{
		seed:   seed,
		rng:    mrand.New(mrand.NewSource(seed)),
		hasher: xxh3.New(),
	}
}

func (s *stream) reset(n, capacity int, bound uint64) {
	if n > capacity {
		panic(fmt.Errorf("%w: %d keys requested, capacity %d",
			ErrCapacity, n, capacity))
	}
	if bound == 0 || bound > math.MaxInt64 {
		panic(fmt.Errorf("%w: got %d", ErrBound, bound))
	}

	s.rng.Seed(s.seed)
	s.hasher.Reset()
	s.word = [8]byte{}
}

func (s *stream) draw(bound uint64) uint64 {
	return uint64(s.rng.Int63n(int64(bound)))
}

func (s *stream) Fingerprint() uint64 { return s.sum }

func shuffle[K Key](rng *mrand.Rand, keys []K) {
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}

func (s *stream) sumUint64s(keys []uint64) {
	for _, k := range keys {
		binary.LittleEndian.PutUint64(s.word[:], k)
		s.hasher.Write(s.word[:])
	}
	s.sum = s.hasher.Sum64()
}

func (s *stream) sumStrings(keys []string) {
	for _, k := range keys {
		s.hasher.Write(unsafe.Slice(unsafe.StringData(k), len(k)))
		s.hasher.Write(s.word[:1])
	}
	s.sum = s.hasher.Sum64()
}
