package keygen

// Ints generates uint64 keys.
type Ints struct {
	stream
	buf []uint64
}

var _ Source[uint64] = (*Ints)(nil)

// NewInts returns a generator able to produce streams of up to capacity
// keys.
func NewInts(capacity int, seed int64) *Ints {
	return &Ints{
		stream: newStream(seed),
		buf:    make([]uint64, capacity),
	}
}

func (g *Ints) Generate(n int, bound uint64) []uint64 {
	g.reset(n, len(g.buf), bound)

	keys := g.buf[:n]
	for i := range keys {
		keys[i] = g.draw(bound)
	}
	shuffle(g.rng, keys)
	g.sumUint64s(keys)

	return keys
}

// Free is a no-op; integer keys need no backing storage.
func (g *Ints) Free() {}

func (g *Ints) Type() Type { return Uint64 }

// Capacity returns the longest stream the generator can produce.
func (g *Ints) Capacity() int { return len(g.buf) }
