package dapol

import (
	"math/rand"
	"testing"
)

// deterministicSource adapts a math/rand.Rand to io.Reader for reproducible
// tests, per spec.md §9's deterministic-testing open question.
type deterministicSource struct{ r *rand.Rand }

func (s deterministicSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func TestXCoordGenerator_UniqueAndInBounds(t *testing.T) {
	const n = 1000
	gen := NewXCoordGenerator(n, deterministicSource{rand.New(rand.NewSource(42))})

	seen := make(map[uint64]bool, n)
	for i := 0; i < n; i++ {
		x, err := gen.Next()
		if err != nil {
			t.Fatalf("Next() #%d: %v", i, err)
		}
		if x >= n {
			t.Fatalf("x-coord %d out of bounds [0,%d)", x, n)
		}
		if seen[x] {
			t.Fatalf("duplicate x-coord %d at call #%d", x, i)
		}
		seen[x] = true
	}

	if _, err := gen.Next(); err != ErrXCoordOutOfBounds {
		t.Fatalf("expected ErrXCoordOutOfBounds after exhausting generator, got %v", err)
	}
}

func TestXCoordGenerator_FailsExactlyAtBound(t *testing.T) {
	const n = 4
	gen := NewXCoordGenerator(n, deterministicSource{rand.New(rand.NewSource(7))})
	for i := 0; i < n; i++ {
		if _, err := gen.Next(); err != nil {
			t.Fatalf("call #%d should succeed while i < n: %v", i, err)
		}
	}
	if _, err := gen.Next(); err != ErrXCoordOutOfBounds {
		t.Fatalf("call #%d (i == n) should fail, got %v", n, err)
	}
}

func TestXCoordGenerator_SingleElement(t *testing.T) {
	gen := NewXCoordGenerator(1, deterministicSource{rand.New(rand.NewSource(1))})
	x, err := gen.Next()
	if err != nil || x != 0 {
		t.Fatalf("single-element generator should yield 0, got (%d,%v)", x, err)
	}
}
