package dapol

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

// ErrXCoordOutOfBounds is returned once every x-coordinate in [0,N) has
// been produced.
var ErrXCoordOutOfBounds = errors.New("dapol: x-coordinate generator exhausted")

// XCoordGenerator produces unique x-coordinates in [0, N) uniformly at
// random, on demand, using a lazy Durstenfeld (Fisher-Yates) shuffle: it
// never materializes the full [0, N) index space, only the entries that
// have been displaced so far.
//
// The algorithm: to produce the i-th unique value (0-indexed),
//  1. sample k uniformly from [i, N)
//  2. follow the swap-chain starting at k until an unmapped index is
//     found; call it x
//  3. record swapMap[k] = i (i.e. position i now "owns" k's original
//     slot) and return x
//
// This mirrors the standard in-place Fisher-Yates shuffle without ever
// allocating the N-sized backing array.
type XCoordGenerator struct {
	n       uint64
	i       uint64
	swapMap map[uint64]uint64
	rnd     io.Reader
}

// NewXCoordGenerator creates a generator over [0, n). A nil source
// defaults to crypto/rand.Reader; tests may inject a deterministic
// source to make the mapping reproducible (spec.md §9, "deterministic
// testing").
func NewXCoordGenerator(n uint64, source io.Reader) *XCoordGenerator {
	if source == nil {
		source = rand.Reader
	}
	return &XCoordGenerator{
		n:       n,
		swapMap: make(map[uint64]uint64),
		rnd:     source,
	}
}

// Next returns the next unique x-coordinate, or ErrXCoordOutOfBounds once
// n values have already been produced.
func (g *XCoordGenerator) Next() (uint64, error) {
	if g.i >= g.n {
		return 0, ErrXCoordOutOfBounds
	}

	k, err := g.uniform(g.i, g.n)
	if err != nil {
		return 0, err
	}

	x := k
	for {
		next, ok := g.swapMap[x]
		if !ok {
			break
		}
		x = next
	}

	g.swapMap[k] = g.i
	g.i++
	return x, nil
}

// Remaining reports how many more unique values can be produced.
func (g *XCoordGenerator) Remaining() uint64 {
	return g.n - g.i
}

// uniform samples a uniformly random uint64 in [lo, hi) using rejection
// sampling to avoid modulo bias.
func (g *XCoordGenerator) uniform(lo, hi uint64) (uint64, error) {
	span := hi - lo
	if span == 0 {
		return 0, ErrXCoordOutOfBounds
	}
	// Largest multiple of span that fits in a uint64, used to reject the
	// tail that would otherwise bias the result toward small values.
	limit := (^uint64(0) / span) * span
	var buf [8]byte
	for {
		if _, err := io.ReadFull(g.rnd, buf[:]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v < limit {
			return lo + v%span, nil
		}
	}
}
