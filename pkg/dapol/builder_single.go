package dapol

// BuildSingleThreaded constructs a BinaryTree by iterating bottom-up,
// layer by layer, pairing adjacent siblings and generating padding nodes
// for unpaired ones (spec.md §4.5, single-threaded algorithm).
//
// leaves need not cover every x-coordinate: pad is invoked for any
// sibling position (at any layer) that has no corresponding input or
// previously-built node.
func BuildSingleThreaded[C any](height Height, leaves []Node[C], pad PadFunc[C], merge MergeFunc[C], storeDepth int) (*BinaryTree[C], error) {
	sorted, err := sortedLeaves(height, leaves)
	if err != nil {
		return nil, err
	}

	store := make(map[Coord]Node[C])
	layer := sorted
	for _, n := range layer {
		store[n.Coord] = n
	}

	for y := uint8(0); y < uint8(height)-1; y++ {
		next := make([]Node[C], 0, len(layer)/2+1)
		i := 0
		for i < len(layer) {
			cur := layer[i]

			var left, right Node[C]
			if cur.Coord.Orientation() == OrientationLeft {
				left = cur
				if i+1 < len(layer) && layer[i+1].Coord == cur.Coord.Sibling() {
					right = layer[i+1]
					i += 2
				} else {
					right = Node[C]{Coord: cur.Coord.Sibling(), Content: pad(cur.Coord.Sibling())}
					i++
				}
			} else {
				right = cur
				left = Node[C]{Coord: cur.Coord.Sibling(), Content: pad(cur.Coord.Sibling())}
				i++
			}

			if shouldStore(height, storeDepth, y) {
				store[left.Coord] = left
				store[right.Coord] = right
			}

			parent := Node[C]{
				Coord:   left.Coord.Parent(),
				Content: merge(left.Content, right.Content),
			}
			next = append(next, parent)
		}
		layer = next
	}

	root := layer[0]
	store[root.Coord] = root

	return &BinaryTree[C]{
		Height:     height,
		StoreDepth: storeDepth,
		Root:       root,
		store:      store,
		merge:      merge,
		pad:        pad,
		leafXs:     leafXSet(sorted),
	}, nil
}
