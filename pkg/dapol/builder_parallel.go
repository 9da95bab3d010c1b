package dapol

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxThreadCount is used when the caller passes 0, standing in for
// "the machine's reported available parallelism" (spec.md §5, §9) without
// requiring process-wide global state: callers who want the real value
// pass runtime.GOMAXPROCS(0) explicitly.
const DefaultMaxThreadCount = 4

// parallelBuilder holds the state shared across the recursive build:
// the padding/merge functions (read-only, safe to share across
// goroutines), a semaphore bounding in-flight goroutines to maxThreads,
// and a concurrent store for nodes within storeDepth of the root
// (spec.md §5's "shared mutable state during build").
type parallelBuilder[C any] struct {
	height     Height
	storeDepth int
	merge      MergeFunc[C]
	pad        PadFunc[C]
	sem        *semaphore.Weighted
	store      sync.Map // Coord -> Node[C]
	owned      atomic.Bool
}

// BuildParallel constructs a BinaryTree using a top-down recursive split:
// at each internal node the leaf set is partitioned by the midpoint
// x-coordinate, and the right subtree is built on a separate goroutine
// whenever the shared semaphore still has spare capacity (spec.md §4.5,
// multi-threaded algorithm). The result is identical to
// BuildSingleThreaded for the same inputs regardless of maxThreads
// (spec.md §8, invariant 1).
func BuildParallel[C any](height Height, leaves []Node[C], pad PadFunc[C], merge MergeFunc[C], storeDepth int, maxThreads int) (*BinaryTree[C], error) {
	sorted, err := sortedLeaves(height, leaves)
	if err != nil {
		return nil, err
	}
	if maxThreads < 1 {
		maxThreads = DefaultMaxThreadCount
	}

	pb := &parallelBuilder[C]{
		height:     height,
		storeDepth: storeDepth,
		merge:      merge,
		pad:        pad,
		sem:        semaphore.NewWeighted(int64(maxThreads)),
	}

	rootCoord := Coord{Y: uint8(height) - 1, X: 0}
	root := pb.build(rootCoord, sorted)

	// Every real leaf must survive in the store regardless of
	// storeDepth (spec.md §4.5, store policy).
	for _, n := range sorted {
		pb.store.Store(n.Coord, n)
	}
	pb.store.Store(root.Coord, root)

	finalStore, err := pb.own()
	if err != nil {
		return nil, err
	}

	return &BinaryTree[C]{
		Height:     height,
		StoreDepth: storeDepth,
		Root:       root,
		store:      finalStore,
		merge:      merge,
		pad:        pad,
		leafXs:     leafXSet(sorted),
	}, nil
}

// own converts the concurrent store into an owned, read-only map. It may
// only be called once per builder; a second call indicates a reference to
// the concurrent store escaped the build and is surfaced as
// ErrStoreOwnershipFailure rather than silently racing (spec.md §9,
// "concurrent store ownership").
func (pb *parallelBuilder[C]) own() (map[Coord]Node[C], error) {
	if !pb.owned.CompareAndSwap(false, true) {
		return nil, ErrStoreOwnershipFailure
	}
	out := make(map[Coord]Node[C])
	pb.store.Range(func(k, v any) bool {
		out[k.(Coord)] = v.(Node[C])
		return true
	})
	return out, nil
}

// build recursively constructs the node at coord from the leaves falling
// within its subtree bounds.
//
// Invariants asserted per spec.md §4.5 (panic on violation, these
// indicate a bug in the partitioning logic rather than bad input — input
// validation already happened in sortedLeaves):
//   - xMax-xMin+1 is a power of two
//   - xMin is even, xMax is odd (whenever the range spans more than one leaf)
func (pb *parallelBuilder[C]) build(coord Coord, subset []Node[C]) Node[C] {
	if coord.Y == 0 {
		if len(subset) == 1 {
			return subset[0]
		}
		return Node[C]{Coord: coord, Content: pb.pad(coord)}
	}

	xMin, xMax := coord.SubtreeBounds()
	assertPowerOfTwoRange(xMin, xMax)

	xMid := xMin + (xMax-xMin)/2
	leftSubset, rightSubset := partitionByX(subset, xMid)

	leftCoord := Coord{Y: coord.Y - 1, X: coord.X * 2}
	rightCoord := Coord{Y: coord.Y - 1, X: coord.X*2 + 1}

	var left, right Node[C]
	switch {
	case len(leftSubset) > 0 && len(rightSubset) > 0:
		left, right = pb.buildBothChildren(leftCoord, leftSubset, rightCoord, rightSubset)
	case len(leftSubset) > 0:
		left = pb.build(leftCoord, leftSubset)
		right = Node[C]{Coord: rightCoord, Content: pb.pad(rightCoord)}
	default:
		left = Node[C]{Coord: leftCoord, Content: pb.pad(leftCoord)}
		right = pb.build(rightCoord, rightSubset)
	}

	if shouldStore(pb.height, pb.storeDepth, coord.Y-1) {
		pb.store.Store(left.Coord, left)
		pb.store.Store(right.Coord, right)
	}

	parent := Node[C]{Coord: coord, Content: pb.merge(left.Content, right.Content)}
	return parent
}

// buildBothChildren builds the right subtree on a new goroutine only if
// the semaphore still has spare capacity; otherwise both children are
// built sequentially on the calling goroutine.
func (pb *parallelBuilder[C]) buildBothChildren(leftCoord Coord, leftSubset []Node[C], rightCoord Coord, rightSubset []Node[C]) (Node[C], Node[C]) {
	if !pb.sem.TryAcquire(1) {
		return pb.build(leftCoord, leftSubset), pb.build(rightCoord, rightSubset)
	}

	var (
		wg    sync.WaitGroup
		right Node[C]
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pb.sem.Release(1)
		right = pb.build(rightCoord, rightSubset)
	}()

	left := pb.build(leftCoord, leftSubset)
	wg.Wait()
	return left, right
}

// partitionByX splits a sorted-by-x slice into leaves with X <= mid and
// leaves with X > mid.
func partitionByX[C any](sorted []Node[C], mid uint64) (left, right []Node[C]) {
	i := 0
	for i < len(sorted) && sorted[i].Coord.X <= mid {
		i++
	}
	return sorted[:i], sorted[i:]
}

func assertPowerOfTwoRange(xMin, xMax uint64) {
	width := xMax - xMin + 1
	if width&(width-1) != 0 {
		panic("dapol: internal error, subtree x-range width is not a power of two")
	}
	if width > 1 && (xMin%2 != 0 || xMax%2 != 1) {
		panic("dapol: internal error, subtree x-range is not aligned to its width")
	}
}
