package dapol

import (
	"fmt"
	"testing"
)

// testContent is a minimal Mergeable content type used to exercise the
// builders without pulling in the Pedersen/Bulletproofs machinery: it
// tracks a running sum and a string trail recording merge order, which is
// enough to assert both the shape of the tree and that two builders
// produced byte-for-byte the same result.
type testContent struct {
	sum   int
	trail string
}

func testMerge(left, right testContent) testContent {
	return testContent{sum: left.sum + right.sum, trail: "(" + left.trail + "+" + right.trail + ")"}
}

func testPad(coord Coord) testContent {
	return testContent{sum: 0, trail: fmt.Sprintf("pad@%d.%d", coord.Y, coord.X)}
}

func testLeaves(xs ...uint64) []Node[testContent] {
	leaves := make([]Node[testContent], len(xs))
	for i, x := range xs {
		leaves[i] = Node[testContent]{
			Coord:   Coord{Y: 0, X: x},
			Content: testContent{sum: int(x) + 1, trail: fmt.Sprintf("leaf%d", x)},
		}
	}
	return leaves
}

func TestBuildSingleThreaded_SumsAllLeaves(t *testing.T) {
	height := mustHeight(t, 4)
	leaves := testLeaves(0, 2, 5)

	tree, err := BuildSingleThreaded(height, leaves, testPad, testMerge, 2)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}

	want := 1 + 3 + 6 // (x+1) for x in {0,2,5}
	if tree.Root.Content.sum != want {
		t.Fatalf("root sum = %d, want %d", tree.Root.Content.sum, want)
	}
	for _, x := range []uint64{0, 2, 5} {
		if !tree.HasLeaf(x) {
			t.Errorf("expected leaf at x=%d to be recognized", x)
		}
		if _, ok := tree.Get(Coord{Y: 0, X: x}); !ok {
			t.Errorf("expected leaf at x=%d to survive in the store regardless of storeDepth", x)
		}
	}
}

func TestBuildSingleThreaded_RejectsDuplicateLeaves(t *testing.T) {
	height := mustHeight(t, 4)
	leaves := append(testLeaves(3), testLeaves(3)...)

	if _, err := BuildSingleThreaded(height, leaves, testPad, testMerge, 1); err != ErrDuplicateLeaves {
		t.Fatalf("expected ErrDuplicateLeaves, got %v", err)
	}
}

func TestBuildSingleThreaded_RejectsTooManyLeaves(t *testing.T) {
	height := mustHeight(t, 2) // max 2 leaves
	leaves := testLeaves(0, 1, 2)

	if _, err := BuildSingleThreaded(height, leaves, testPad, testMerge, 1); err != ErrTooManyLeaves {
		t.Fatalf("expected ErrTooManyLeaves, got %v", err)
	}
}

func TestBuildParallel_MatchesSingleThreaded(t *testing.T) {
	height := mustHeight(t, 9)
	xs := []uint64{0, 1, 4, 9, 30, 31, 100, 255}

	single, err := BuildSingleThreaded(height, testLeaves(xs...), testPad, testMerge, 3)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}
	parallel, err := BuildParallel(height, testLeaves(xs...), testPad, testMerge, 3, 4)
	if err != nil {
		t.Fatalf("BuildParallel: %v", err)
	}

	if single.Root.Content.sum != parallel.Root.Content.sum {
		t.Fatalf("root sum mismatch: single=%d parallel=%d", single.Root.Content.sum, parallel.Root.Content.sum)
	}
	if single.Root.Content.trail != parallel.Root.Content.trail {
		t.Fatalf("merge trail mismatch:\nsingle:   %s\nparallel: %s", single.Root.Content.trail, parallel.Root.Content.trail)
	}
	for _, x := range xs {
		sNode, sOK := single.Get(Coord{Y: 0, X: x})
		pNode, pOK := parallel.Get(Coord{Y: 0, X: x})
		if sOK != pOK || sNode != pNode {
			t.Errorf("leaf store mismatch at x=%d: single=%v/%v parallel=%v/%v", x, sNode, sOK, pNode, pOK)
		}
	}
}

func TestBuildParallel_SingleThreadFallback(t *testing.T) {
	height := mustHeight(t, 7)
	leaves := testLeaves(0, 10, 20, 63)

	tree, err := BuildParallel(height, leaves, testPad, testMerge, 2, 1)
	if err != nil {
		t.Fatalf("BuildParallel with maxThreads=1: %v", err)
	}
	want := 1 + 11 + 21 + 64
	if tree.Root.Content.sum != want {
		t.Fatalf("root sum = %d, want %d", tree.Root.Content.sum, want)
	}
}

func mustHeight(t *testing.T, h uint8) Height {
	t.Helper()
	height, err := NewHeight(h)
	if err != nil {
		t.Fatalf("NewHeight(%d): %v", h, err)
	}
	return height
}
