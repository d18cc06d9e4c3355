package keygen

import (
	"errors"
	"fmt"
	"unsafe"
)

// SlotSize is the arena space reserved per text key. Keys are 10 to 13
// characters long.
const SlotSize = 16

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789+/"

// ErrArenaExhausted is raised when more text keys are live than the arena
// has slots for. It means the matrix asks for more keys than the arena
// was sized for.
var ErrArenaExhausted = errors.New("text key arena exhausted")

// Texts generates string keys. Each key is a view of one arena slot; the
// slot is overwritten after Free, so containers holding keys must be
// emptied before the next stream is generated.
type Texts struct {
	stream
	buf   []string
	arena []byte
	pos   int
}

var _ Source[string] = (*Texts)(nil)

// NewTexts returns a generator with room for capacity live keys.
func NewTexts(capacity int, seed int64) *Texts {
	return &Texts{
		stream: newStream(seed),
		buf:    make([]string, capacity),
		arena:  make([]byte, capacity*SlotSize),
	}
}

func (g *Texts) Generate(n int, bound uint64) []string {
	g.reset(n, len(g.buf), bound)

	keys := g.buf[:n]
	for i := range keys {
		keys[i] = g.text(g.draw(bound))
	}
	shuffle(g.rng, keys)
	g.sumStrings(keys)

	return keys
}

// text encodes r: the low two bits pick a length of 10 to 13 and the rest
// is written in base 64, so distinct values give distinct keys.
func (g *Texts) text(r uint64) string {
	slots := len(g.arena) / SlotSize
	if g.pos >= slots {
		panic(fmt.Errorf("%w: %d slots in use", ErrArenaExhausted, slots))
	}

	slot := g.arena[g.pos*SlotSize : (g.pos+1)*SlotSize]
	g.pos++

	n := 10 + int(r%4)
	r /= 4
	for i := 0; i < n; i++ {
		slot[i] = alphabet[r%64]
		r /= 64
	}

	return unsafe.String(&slot[0], n)
}

// Free rewinds the arena cursor. The arena itself is kept.
func (g *Texts) Free() {
	g.pos = 0
}

func (g *Texts) Type() Type { return Text }

// InUse returns the number of arena slots handed out since the last Free.
func (g *Texts) InUse() int { return g.pos }
