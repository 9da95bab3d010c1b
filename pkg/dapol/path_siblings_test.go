package dapol

import "testing"

func TestPathSiblings_ReconstructMatchesRoot(t *testing.T) {
	height := mustHeight(t, 6) // max 32 leaves
	xs := []uint64{0, 1, 9, 17, 31}

	// storeDepth=1 forces most siblings to be regenerated on demand
	// rather than found directly in the store.
	tree, err := BuildSingleThreaded(height, testLeaves(xs...), testPad, testMerge, 1)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}

	for _, x := range xs {
		ps, err := BuildPathSiblings(tree, x)
		if err != nil {
			t.Fatalf("BuildPathSiblings(%d): %v", x, err)
		}
		if len(ps.Siblings) != int(height)-1 {
			t.Fatalf("leaf %d: got %d siblings, want %d", x, len(ps.Siblings), int(height)-1)
		}

		ancestors, err := ps.Reconstruct(height, testMerge)
		if err != nil {
			t.Fatalf("leaf %d: Reconstruct: %v", x, err)
		}
		root := ancestors[len(ancestors)-1]
		if root.Content.sum != tree.Root.Content.sum {
			t.Errorf("leaf %d: reconstructed root sum = %d, want %d", x, root.Content.sum, tree.Root.Content.sum)
		}
		if root.Content.trail != tree.Root.Content.trail {
			t.Errorf("leaf %d: reconstructed root trail mismatch:\ngot:  %s\nwant: %s", x, root.Content.trail, tree.Root.Content.trail)
		}
	}
}

func TestBuildPathSiblings_UnknownLeaf(t *testing.T) {
	height := mustHeight(t, 4)
	tree, err := BuildSingleThreaded(height, testLeaves(0, 1), testPad, testMerge, 2)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}

	if _, err := BuildPathSiblings(tree, 5); err != ErrEntityNotFound {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestPathSiblings_Reconstruct_WrongSiblingCountRejected(t *testing.T) {
	height := mustHeight(t, 5)
	tree, err := BuildSingleThreaded(height, testLeaves(0, 3), testPad, testMerge, 3)
	if err != nil {
		t.Fatalf("BuildSingleThreaded: %v", err)
	}

	ps, err := BuildPathSiblings(tree, 0)
	if err != nil {
		t.Fatalf("BuildPathSiblings: %v", err)
	}
	ps.Siblings = ps.Siblings[:len(ps.Siblings)-1]

	if _, err := ps.Reconstruct(height, testMerge); err != ErrTooFewSiblings {
		t.Fatalf("expected ErrTooFewSiblings, got %v", err)
	}
}
