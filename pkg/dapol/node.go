package dapol

// MergeFunc combines two sibling contents into their parent's content.
// This is the Go equivalent of the original's Mergeable trait
// (original_source/src/binary_tree/node_content.rs): rather than a method
// constrained by a self-referential generic, the tree carries the merge
// law as a value so FullNodeContent and HiddenNodeContent can share the
// same BinaryTree machinery.
type MergeFunc[C any] func(left, right C) C

// Node is a single tree node: its coordinate plus its content. The
// generic parameter lets the same BinaryTree/builders operate over
// FullNodeContent (during construction and proof generation) or
// HiddenNodeContent (siblings disclosed in a proof).
type Node[C any] struct {
	Coord   Coord
	Content C
}
