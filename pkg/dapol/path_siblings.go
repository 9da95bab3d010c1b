package dapol

// PathSiblings is the ordered list of sibling nodes along the path from a
// leaf to the root, one per layer, in bottom-up order (spec.md §4.6). It
// is the raw material an inclusion proof is built from: layer i's
// sibling is the node needed to recompute the layer i+1 ancestor of the
// leaf being proven.
type PathSiblings[C any] struct {
	Leaf     Node[C]
	Siblings []Node[C]
}

// BuildPathSiblings walks from leafCoord up to (but not including) the
// root, collecting the sibling at each layer. A sibling already present
// in the store is used as-is; otherwise its subtree is regenerated on
// demand from whatever leaves fall within its bounds, or synthesized
// directly via pad if that subtree holds no real leaves at all
// (spec.md §4.6).
func BuildPathSiblings[C any](t *BinaryTree[C], leafCoord uint64) (*PathSiblings[C], error) {
	leaf, ok := t.Get(Coord{Y: 0, X: leafCoord})
	if !ok {
		return nil, ErrEntityNotFound
	}

	siblings := make([]Node[C], 0, int(t.Height)-1)
	cur := leaf.Coord
	for cur.Y < uint8(t.Height)-1 {
		sibCoord := cur.Sibling()
		sib, err := t.siblingAt(sibCoord)
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, sib)
		cur = cur.Parent()
	}

	return &PathSiblings[C]{Leaf: leaf, Siblings: siblings}, nil
}

// siblingAt returns the node at coord, fetching it from the store if
// present and otherwise regenerating its subtree from the leaves it
// would have contained (spec.md §4.6's on-demand regeneration).
func (t *BinaryTree[C]) siblingAt(coord Coord) (Node[C], error) {
	if n, ok := t.Get(coord); ok {
		return n, nil
	}

	xMin, xMax := coord.SubtreeBounds()
	if !t.hasAnyLeafIn(xMin, xMax) {
		return Node[C]{Coord: coord, Content: t.pad(coord)}, nil
	}

	leaves := t.leavesIn(xMin, xMax)
	sub, err := BuildSingleThreaded(Height(coord.Y+1), shiftDown(leaves, xMin), unshiftPad(t.pad, xMin), t.merge, 0)
	if err != nil {
		return Node[C]{}, err
	}
	return Node[C]{Coord: coord, Content: sub.Root.Content}, nil
}

// unshiftPad adapts pad to the rebased coordinate space shiftDown puts
// leaves in: a padding node built inside the rebuilt subtree must still
// derive its content from its true global coordinate, since
// contentFactory.NewPadding binds the padding witness and hash to
// coord.Bytes(). At layer y the rebased subtree is offset by xMin>>y.
func unshiftPad[C any](pad PadFunc[C], xMin uint64) PadFunc[C] {
	return func(coord Coord) C {
		return pad(Coord{Y: coord.Y, X: coord.X + xMin>>coord.Y})
	}
}

// hasAnyLeafIn reports whether any original (non-padding) leaf falls in
// [xMin, xMax].
func (t *BinaryTree[C]) hasAnyLeafIn(xMin, xMax uint64) bool {
	for x := range t.leafXs {
		if x >= xMin && x <= xMax {
			return true
		}
	}
	return false
}

// leavesIn collects the stored leaf nodes within [xMin, xMax].
func (t *BinaryTree[C]) leavesIn(xMin, xMax uint64) []Node[C] {
	var out []Node[C]
	for x := range t.leafXs {
		if x < xMin || x > xMax {
			continue
		}
		if n, ok := t.Get(Coord{Y: 0, X: x}); ok {
			out = append(out, n)
		}
	}
	return out
}

// shiftDown rebases a set of leaves onto a subtree rooted at x=0, so a
// subtree of height (coord.Y+1) can be rebuilt with BuildSingleThreaded
// independent of where it sits in the full tree.
func shiftDown[C any](leaves []Node[C], xMin uint64) []Node[C] {
	out := make([]Node[C], len(leaves))
	for i, n := range leaves {
		out[i] = Node[C]{Coord: Coord{Y: n.Coord.Y, X: n.Coord.X - xMin}, Content: n.Content}
	}
	return out
}

// Reconstruct recomputes the root content by merging the leaf with its
// siblings bottom-up, returning the recomputed root alongside every
// intermediate ancestor (index 0 is the leaf's immediate parent, the
// last entry is the root). Callers compare the final entry's hash
// against a claimed root hash (spec.md §4.8); ErrTooFewSiblings is
// returned if the sibling count doesn't match the leaf's depth, and
// ErrInvalidSibling if a sibling's coordinate doesn't actually pair with
// the running node.
func (ps *PathSiblings[C]) Reconstruct(height Height, merge MergeFunc[C]) ([]Node[C], error) {
	if len(ps.Siblings) != int(height)-1 {
		return nil, ErrTooFewSiblings
	}

	ancestors := make([]Node[C], 0, len(ps.Siblings))
	cur := ps.Leaf
	for _, sib := range ps.Siblings {
		if !cur.Coord.IsSiblingOf(sib.Coord) {
			return nil, ErrInvalidSibling
		}

		var left, right Node[C]
		if cur.Coord.Orientation() == OrientationLeft {
			left, right = cur, sib
		} else {
			left, right = sib, cur
		}

		parent := Node[C]{Coord: left.Coord.Parent(), Content: merge(left.Content, right.Content)}
		ancestors = append(ancestors, parent)
		cur = parent
	}

	return ancestors, nil
}
