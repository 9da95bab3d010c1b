package dapol

import (
	"sort"

	"github.com/silversixpence-crypto/dapol/pkg/log"
)

// minRecommendedSparsity is the ratio (max leaf slots / actual leaf
// count) at or below which the builder logs a non-fatal hint that the tree is
// under-sparse (spec.md §4.5).
const minRecommendedSparsity = 2

var treeLog = log.Default().Module("binary_tree")

// BinaryTree is a sparse binary tree: a root node plus a partial store of
// nodes within storeDepth layers of the root, sufficient to regenerate
// any missing sibling subtree on demand (spec.md §4.5).
type BinaryTree[C any] struct {
	Height     Height
	StoreDepth int
	Root       Node[C]
	store      map[Coord]Node[C]
	merge      MergeFunc[C]
	pad        PadFunc[C]
	leafXs     map[uint64]struct{}
}

// Get returns the stored node at coord, if present.
func (t *BinaryTree[C]) Get(coord Coord) (Node[C], bool) {
	n, ok := t.store[coord]
	return n, ok
}

// HasLeaf reports whether x was one of the original (non-padding) input
// leaves.
func (t *BinaryTree[C]) HasLeaf(x uint64) bool {
	_, ok := t.leafXs[x]
	return ok
}

// sortedLeaves returns leaves sorted by x-coordinate, after validating
// the build preconditions shared by both builders (spec.md §4.5).
func sortedLeaves[C any](height Height, leaves []Node[C]) ([]Node[C], error) {
	if height == 0 {
		return nil, ErrNoHeightProvided
	}
	if leaves == nil {
		return nil, ErrNoLeafNodesProvided
	}
	if len(leaves) == 0 {
		return nil, ErrEmptyLeaves
	}
	maxLeaves := height.MaxLeafCount()
	if uint64(len(leaves)) > maxLeaves {
		return nil, ErrTooManyLeaves
	}

	out := make([]Node[C], len(leaves))
	copy(out, leaves)
	sort.Slice(out, func(i, j int) bool { return out[i].Coord.X < out[j].Coord.X })

	seen := make(map[uint64]struct{}, len(out))
	for _, n := range out {
		if n.Coord.X >= maxLeaves {
			return nil, ErrInvalidXCoord
		}
		if _, dup := seen[n.Coord.X]; dup {
			return nil, ErrDuplicateLeaves
		}
		seen[n.Coord.X] = struct{}{}
	}

	if maxLeaves/uint64(len(out)) <= minRecommendedSparsity {
		treeLog.Warn("tree is under-sparse, consider a taller height",
			"height", height, "leaf_count", len(out), "max_leaves", maxLeaves)
	}

	return out, nil
}

func leafXSet[C any](leaves []Node[C]) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(leaves))
	for _, n := range leaves {
		set[n.Coord.X] = struct{}{}
	}
	return set
}

// shouldStore reports whether a node at layer y (root at height-1) falls
// within storeDepth layers of the root.
func shouldStore(height Height, storeDepth int, y uint8) bool {
	return int(height)-1-int(y) < storeDepth
}
